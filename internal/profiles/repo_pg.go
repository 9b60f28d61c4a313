package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) ReplaceRoles(ctx context.Context, userID string, roles []string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_preferred_roles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete roles: %w", err)
	}
	const insert = `
INSERT INTO user_preferred_roles (user_id, role_name, role_name_normalized, priority, created_at)
VALUES ($1, $2, $3, $4, now())`
	for i, role := range roles {
		if _, err := tx.ExecContext(ctx, insert, userID, role, normalizeRole(role), i+1); err != nil {
			return fmt.Errorf("insert role %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

func (r *PGRepo) ListRoles(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
SELECT role_name
FROM user_preferred_roles
WHERE user_id = $1
ORDER BY priority ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []string{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// UpsertAPIKey relies on xmax being zero for freshly inserted rows to tell
// inserts from updates in one statement.
func (r *PGRepo) UpsertAPIKey(ctx context.Context, rec APIKeyRecord) (bool, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	const query = `
INSERT INTO user_api_keys (id, user_id, provider, api_key_hash, api_key_encrypted, api_key_prefix, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
ON CONFLICT (user_id) DO UPDATE SET
  provider = EXCLUDED.provider,
  api_key_hash = EXCLUDED.api_key_hash,
  api_key_encrypted = EXCLUDED.api_key_encrypted,
  api_key_prefix = EXCLUDED.api_key_prefix,
  is_active = EXCLUDED.is_active,
  updated_at = now()
RETURNING (xmax = 0)`
	var inserted bool
	err := r.DB.QueryRowContext(ctx, query,
		rec.ID, rec.UserID, rec.Provider, rec.Hash, rec.Encrypted, rec.Prefix, rec.IsActive,
	).Scan(&inserted)
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (r *PGRepo) GetActiveAPIKey(ctx context.Context, userID string) (APIKeyRecord, error) {
	const query = `
SELECT id, user_id, provider, api_key_hash, api_key_encrypted, api_key_prefix, is_active, created_at, updated_at
FROM user_api_keys
WHERE user_id = $1 AND is_active
LIMIT 1`
	var rec APIKeyRecord
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&rec.ID, &rec.UserID, &rec.Provider, &rec.Hash, &rec.Encrypted, &rec.Prefix,
		&rec.IsActive, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return APIKeyRecord{}, ErrNotFound
		}
		return APIKeyRecord{}, err
	}
	return rec, nil
}

func (r *PGRepo) ListSkills(ctx context.Context, userID string) ([]Skill, error) {
	rows, err := r.DB.QueryContext(ctx, `
SELECT skill_name, source, proficiency_level, confidence_score, source_repo, updated_at
FROM user_skills
WHERE user_id = $1
ORDER BY confidence_score DESC, skill_name ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	skills := []Skill{}
	for rows.Next() {
		var s Skill
		var level, repo sql.NullString
		if err := rows.Scan(&s.Name, &s.Source, &level, &s.ConfidenceScore, &repo, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.ProficiencyLevel = level.String
		s.SourceRepo = repo.String
		skills = append(skills, s)
	}
	return skills, rows.Err()
}

func (r *PGRepo) ListEligibleUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
SELECT DISTINCT s.user_id
FROM user_skills s
WHERE EXISTS (SELECT 1 FROM user_preferred_roles r WHERE r.user_id = s.user_id)
ORDER BY s.user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PGRepo) LastActivity(ctx context.Context, userID string) (time.Time, error) {
	const query = `
SELECT GREATEST(
  (SELECT MAX(updated_at) FROM user_skills WHERE user_id = $1),
  (SELECT resume_uploaded_at FROM profiles WHERE id = $1),
  (SELECT last_sync_at FROM github_connections WHERE user_id = $1)
)`
	var at sql.NullTime
	if err := r.DB.QueryRowContext(ctx, query, userID).Scan(&at); err != nil {
		return time.Time{}, err
	}
	if !at.Valid {
		return time.Time{}, nil
	}
	return at.Time, nil
}

func (r *PGRepo) AdminKey(ctx context.Context, service, name string) (string, error) {
	var value string
	err := r.DB.QueryRowContext(ctx, `
SELECT key_value
FROM admin_api_keys
WHERE service = $1 AND key_name = $2 AND is_active
LIMIT 1`, service, name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

var _ Repo = (*PGRepo)(nil)
