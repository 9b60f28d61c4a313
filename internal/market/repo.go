package market

import "context"

// Repo reads market rows. This service never writes them.
type Repo interface {
	TopTrends(ctx context.Context, limit int) ([]Trend, error)
	RecentJobs(ctx context.Context, limit int) ([]Job, error)
	TopDiscussions(ctx context.Context, limit int) ([]Discussion, error)
	CountTrends(ctx context.Context) (int, error)
}
