package users

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no profiles row exists for a user.
var ErrNotFound = errors.New("user not found")

// Repo reads and records rows in profiles. GetByID is the only read the
// pipeline needs; Upsert records what a verified token says about a user.
type Repo interface {
	Upsert(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
}
