package batch

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned when no run has been recorded.
var ErrNotFound = errors.New("batch run not found")

// Repo stores run summaries.
type Repo interface {
	Save(ctx context.Context, s Summary) error
	Latest(ctx context.Context) (Summary, error)
}

// MemoryRepo keeps summaries in memory.
type MemoryRepo struct {
	mu   sync.RWMutex
	runs []Summary
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (r *MemoryRepo) Save(ctx context.Context, s Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, s)
	return nil
}

func (r *MemoryRepo) Latest(ctx context.Context) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.runs) == 0 {
		return Summary{}, ErrNotFound
	}
	return r.runs[len(r.runs)-1], nil
}

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Save(ctx context.Context, s Summary) error {
	results, err := json.Marshal(resultsOrEmpty(s.Results))
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, `
INSERT INTO batch_runs (id, trigger, started_at, finished_at, eligible, succeeded, failed, skipped, results)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.RunID, s.Trigger, s.StartedAt, s.FinishedAt, s.Eligible, s.Succeeded, s.Failed, s.Skipped, results)
	if err != nil {
		return fmt.Errorf("insert batch run: %w", err)
	}
	return nil
}

func (r *PGRepo) Latest(ctx context.Context) (Summary, error) {
	var (
		s       Summary
		results []byte
	)
	err := r.DB.QueryRowContext(ctx, `
SELECT id, trigger, started_at, finished_at, eligible, succeeded, failed, skipped, results
FROM batch_runs
ORDER BY started_at DESC
LIMIT 1`).Scan(&s.RunID, &s.Trigger, &s.StartedAt, &s.FinishedAt, &s.Eligible, &s.Succeeded, &s.Failed, &s.Skipped, &results)
	if errors.Is(err, sql.ErrNoRows) {
		return Summary{}, ErrNotFound
	}
	if err != nil {
		return Summary{}, err
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &s.Results); err != nil {
			return Summary{}, fmt.Errorf("decode results: %w", err)
		}
	}
	return s, nil
}

func resultsOrEmpty(results []Result) []Result {
	if results == nil {
		return []Result{}
	}
	return results
}
