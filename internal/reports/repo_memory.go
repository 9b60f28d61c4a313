package reports

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores reports in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu      sync.RWMutex
	reports []Report
	// FailCreate makes Create return the error. Tests use it to exercise
	// half-written saves.
	FailCreate error
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (r *MemoryRepo) Create(ctx context.Context, report Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCreate != nil {
		return r.FailCreate
	}
	r.reports = append(r.reports, report)
	return nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := []Report{}
	for i := len(r.reports) - 1; i >= 0; i-- {
		if r.reports[i].UserID == userID {
			out = append(out, r.reports[i])
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) ForAnalysis(ctx context.Context, userID, analysisID string) (Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rep := range r.reports {
		if rep.UserID == userID && rep.AnalysisID == analysisID {
			return rep, nil
		}
	}
	return Report{}, ErrNotFound
}
