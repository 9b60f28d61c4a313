package profiles

import (
	"context"
	"time"
)

// Repo reads and writes the profile tables owned by this service plus the
// read-only skill rows.
type Repo interface {
	ReplaceRoles(ctx context.Context, userID string, roles []string) error
	ListRoles(ctx context.Context, userID string) ([]string, error)
	UpsertAPIKey(ctx context.Context, rec APIKeyRecord) (created bool, err error)
	GetActiveAPIKey(ctx context.Context, userID string) (APIKeyRecord, error)
	ListSkills(ctx context.Context, userID string) ([]Skill, error)
	// ListEligibleUserIDs returns users with at least one skill and one role.
	ListEligibleUserIDs(ctx context.Context) ([]string, error)
	// LastActivity is the newest of skill updates, resume upload and GitHub
	// sync. The zero time means no activity is recorded.
	LastActivity(ctx context.Context, userID string) (time.Time, error)
	AdminKey(ctx context.Context, service, name string) (string, error)
}
