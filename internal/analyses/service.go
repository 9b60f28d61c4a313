package analyses

import (
	"context"
	"errors"

	"skillgap-backend/internal/shared/apperr"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// Service serves stored analyses.
type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// History lists summaries newest first. limit is clamped to 1..100.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	list, err := s.Repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "Failed to load analysis history", err)
	}
	out := make([]Summary, 0, len(list))
	for _, a := range list {
		out = append(out, a.Summarize())
	}
	return out, nil
}

// Latest returns the user's newest analysis.
func (s *Service) Latest(ctx context.Context, userID string) (Analysis, error) {
	a, err := s.Repo.Latest(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Analysis{}, apperr.Wrap(apperr.KindNotFound, "No analysis found", err)
	}
	if err != nil {
		return Analysis{}, apperr.Wrap(apperr.KindPersistence, "Failed to load analysis", err)
	}
	return a, nil
}
