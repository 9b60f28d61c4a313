package market

import (
	"context"
	"sort"
	"sync"
)

type MemoryRepo struct {
	mu          sync.RWMutex
	trends      []Trend
	jobs        []Job
	discussions []Discussion
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Seed appends market rows. In production the ingestion job owns them.
func (r *MemoryRepo) Seed(trends []Trend, jobs []Job, discussions []Discussion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trends = append(r.trends, trends...)
	r.jobs = append(r.jobs, jobs...)
	r.discussions = append(r.discussions, discussions...)
}

func (r *MemoryRepo) TopTrends(ctx context.Context, limit int) ([]Trend, error) {
	r.mu.RLock()
	out := append([]Trend{}, r.trends...)
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].JobMentionCount > out[j].JobMentionCount })
	return truncate(out, limit), nil
}

func (r *MemoryRepo) RecentJobs(ctx context.Context, limit int) ([]Job, error) {
	r.mu.RLock()
	out := append([]Job{}, r.jobs...)
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].FetchedAt.After(out[j].FetchedAt) })
	return truncate(out, limit), nil
}

func (r *MemoryRepo) TopDiscussions(ctx context.Context, limit int) ([]Discussion, error) {
	r.mu.RLock()
	out := append([]Discussion{}, r.discussions...)
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Upvotes > out[j].Upvotes })
	return truncate(out, limit), nil
}

func (r *MemoryRepo) CountTrends(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.trends), nil
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

var _ Repo = (*MemoryRepo)(nil)
