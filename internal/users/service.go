package users

import (
	"context"
	"errors"
	"strings"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromAuth records the identity carried by the bearer token.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if strings.TrimSpace(user.ID) == "" {
		return errors.New("user id is required")
	}
	return s.Repo.Upsert(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}

// Lookup returns the stored profile, falling back to what the caller knows
// when no row exists yet.
func (s *Service) Lookup(ctx context.Context, userID, email string) User {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return User{ID: userID, Email: email}
	}
	if user.Email == "" {
		user.Email = email
	}
	return user
}
