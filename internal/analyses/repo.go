package analyses

import (
	"context"
	"database/sql"
	"time"
)

// Repo defines persistence operations for analyses. Rows are never updated
// after insert.
type Repo interface {
	Create(ctx context.Context, analysis Analysis) error
	GetByID(ctx context.Context, userID, analysisID string) (Analysis, error)
	// Latest returns ErrNotFound when the user has no analyses.
	Latest(ctx context.Context, userID string) (Analysis, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Analysis, error)
	LatestCreatedAt(ctx context.Context, userID string) (time.Time, bool, error)
}

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
