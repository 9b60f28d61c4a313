package reports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type PGRepo struct {
	DB *sql.DB
}

const reportColumns = `id, user_id, analysis_id, report_filename, report_url, storage_key, report_size_bytes,
	report_type, status, generated_at, email_sent, email_sent_at`

func (r *PGRepo) Create(ctx context.Context, report Report) error {
	return InsertTx(ctx, r.DB, report)
}

// InsertTx inserts report through db, which may be a transaction.
func InsertTx(ctx context.Context, db Execer, report Report) error {
	const query = `
INSERT INTO reports (
	id, user_id, analysis_id, report_filename, report_url, storage_key,
	report_size_bytes, report_type, status, generated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	reportType := report.Type
	if reportType == "" {
		reportType = TypeSkillGap
	}
	generatedAt := report.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, query,
		report.ID,
		report.UserID,
		report.AnalysisID,
		report.Filename,
		report.URL,
		report.StorageKey,
		report.SizeBytes,
		reportType,
		report.Status,
		generatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Report, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx, `
SELECT `+reportColumns+`
FROM reports
WHERE user_id = $1
ORDER BY generated_at DESC
LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Report{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func (r *PGRepo) ForAnalysis(ctx context.Context, userID, analysisID string) (Report, error) {
	row := r.DB.QueryRowContext(ctx, `
SELECT `+reportColumns+`
FROM reports
WHERE user_id = $1 AND analysis_id = $2
ORDER BY generated_at DESC
LIMIT 1`, userID, analysisID)
	return scanReport(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (Report, error) {
	var (
		rep    Report
		sentAt sql.NullTime
	)
	err := row.Scan(
		&rep.ID, &rep.UserID, &rep.AnalysisID, &rep.Filename, &rep.URL, &rep.StorageKey, &rep.SizeBytes,
		&rep.Type, &rep.Status, &rep.GeneratedAt, &rep.EmailSent, &sentAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, ErrNotFound
	}
	if err != nil {
		return Report{}, err
	}
	if sentAt.Valid {
		t := sentAt.Time
		rep.EmailSentAt = &t
	}
	return rep, nil
}
