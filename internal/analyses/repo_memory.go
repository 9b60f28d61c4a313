package analyses

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores analyses in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]Analysis
	byUser map[string][]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]Analysis),
		byUser: make(map[string][]string),
	}
}

// Create stores the analysis.
func (r *MemoryRepo) Create(ctx context.Context, analysis Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[analysis.ID]; !exists {
		r.byUser[analysis.UserID] = append(r.byUser[analysis.UserID], analysis.ID)
	}
	r.byID[analysis.ID] = analysis
	return nil
}

// Delete removes an analysis. The persistence writer uses it to undo a
// half-written save.
func (r *MemoryRepo) Delete(ctx context.Context, analysisID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	analysis, ok := r.byID[analysisID]
	if !ok {
		return nil
	}
	delete(r.byID, analysisID)
	ids := r.byUser[analysis.UserID]
	for i, id := range ids {
		if id == analysisID {
			r.byUser[analysis.UserID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// GetByID returns an analysis owned by userID.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, analysisID string) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	analysis, ok := r.byID[analysisID]
	if !ok || analysis.UserID != userID {
		return Analysis{}, ErrNotFound
	}
	return analysis, nil
}

// Latest returns the newest analysis for a user.
func (r *MemoryRepo) Latest(ctx context.Context, userID string) (Analysis, error) {
	list, err := r.ListByUser(ctx, userID, 1)
	if err != nil {
		return Analysis{}, err
	}
	if len(list) == 0 {
		return Analysis{}, ErrNotFound
	}
	return list[0], nil
}

// ListByUser returns analyses for a user, newest first. limit <= 0 returns
// all of them.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	ids := r.byUser[userID]
	analyses := make([]Analysis, 0, len(ids))
	for _, id := range ids {
		analyses = append(analyses, r.byID[id])
	}
	r.mu.RUnlock()

	// Insertion order breaks ties between equal timestamps.
	for i, j := 0, len(analyses)-1; i < j; i, j = i+1, j-1 {
		analyses[i], analyses[j] = analyses[j], analyses[i]
	}
	sort.SliceStable(analyses, func(i, j int) bool {
		return analyses[i].CreatedAt.After(analyses[j].CreatedAt)
	})
	if limit > 0 && len(analyses) > limit {
		analyses = analyses[:limit]
	}
	return analyses, nil
}

// LatestCreatedAt reports when the user's newest analysis was created.
func (r *MemoryRepo) LatestCreatedAt(ctx context.Context, userID string) (time.Time, bool, error) {
	latest, err := r.Latest(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return latest.CreatedAt, true, nil
}
