package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, user_id, target_roles, model_used, api_key_source, report_status, payload, created_at`

// Create inserts a new analysis.
func (r *PGRepo) Create(ctx context.Context, analysis Analysis) error {
	return InsertTx(ctx, r.DB, analysis)
}

// InsertTx inserts analysis through db, which may be a transaction.
func InsertTx(ctx context.Context, db Execer, analysis Analysis) error {
	const query = `
INSERT INTO skill_gap_analyses (
	id, user_id, target_roles, model_used, api_key_source, overall_fit_score,
	overall_gap_percentage, market_readiness_score, payload, report_status, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	roles, err := marshalJSONB(analysis.TargetRoles, "[]")
	if err != nil {
		return err
	}
	payload, err := marshalJSONB(analysis.Result, "{}")
	if err != nil {
		return err
	}
	createdAt := analysis.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = db.ExecContext(ctx, query,
		analysis.ID,
		analysis.UserID,
		roles,
		analysis.ModelUsed,
		analysis.APIKeySource,
		int(analysis.Result.OverallFitScore),
		int(analysis.Result.OverallGapPercentage),
		int(analysis.Result.SkillAssessment.MarketReadinessScore),
		payload,
		analysis.ReportStatus,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// GetByID returns an analysis owned by userID.
func (r *PGRepo) GetByID(ctx context.Context, userID, analysisID string) (Analysis, error) {
	row := r.DB.QueryRowContext(ctx, `
SELECT `+selectColumns+`
FROM skill_gap_analyses
WHERE id = $1 AND user_id = $2`, analysisID, userID)
	return scanAnalysis(row)
}

// Latest returns the newest analysis for a user.
func (r *PGRepo) Latest(ctx context.Context, userID string) (Analysis, error) {
	row := r.DB.QueryRowContext(ctx, `
SELECT `+selectColumns+`
FROM skill_gap_analyses
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT 1`, userID)
	return scanAnalysis(row)
}

// ListByUser returns analyses for a user, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Analysis, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx, `
SELECT `+selectColumns+`
FROM skill_gap_analyses
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	analyses := []Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// LatestCreatedAt reports when the user's newest analysis was created.
func (r *PGRepo) LatestCreatedAt(ctx context.Context, userID string) (time.Time, bool, error) {
	var createdAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, `SELECT MAX(created_at) FROM skill_gap_analyses WHERE user_id = $1`, userID).Scan(&createdAt)
	if err != nil {
		return time.Time{}, false, err
	}
	if !createdAt.Valid {
		return time.Time{}, false, nil
	}
	return createdAt.Time, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (Analysis, error) {
	var (
		a       Analysis
		roles   []byte
		payload []byte
	)
	err := row.Scan(&a.ID, &a.UserID, &roles, &a.ModelUsed, &a.APIKeySource, &a.ReportStatus, &payload, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Analysis{}, ErrNotFound
	}
	if err != nil {
		return Analysis{}, err
	}
	if len(roles) > 0 {
		if err := json.Unmarshal(roles, &a.TargetRoles); err != nil {
			return Analysis{}, fmt.Errorf("decode target_roles: %w", err)
		}
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &a.Result); err != nil {
			return Analysis{}, fmt.Errorf("decode payload: %w", err)
		}
	}
	return a, nil
}

func marshalJSONB(value any, empty string) ([]byte, error) {
	if value == nil {
		return []byte(empty), nil
	}
	return json.Marshal(value)
}
