package reports

import (
	"context"
	"database/sql"
)

// Repo persists report records. Rows are insert-only from this service.
type Repo interface {
	Create(ctx context.Context, report Report) error
	ListByUser(ctx context.Context, userID string, limit int) ([]Report, error)
	ForAnalysis(ctx context.Context, userID, analysisID string) (Report, error)
}

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
