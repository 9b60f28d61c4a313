package reports

import (
	"context"
	"errors"

	"skillgap-backend/internal/shared/apperr"
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// List returns the user's reports newest first.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]Report, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	list, err := s.Repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "Failed to load reports", err)
	}
	return list, nil
}

// ForAnalysis returns the report produced with an analysis.
func (s *Service) ForAnalysis(ctx context.Context, userID, analysisID string) (Report, error) {
	rep, err := s.Repo.ForAnalysis(ctx, userID, analysisID)
	if errors.Is(err, ErrNotFound) {
		return Report{}, apperr.Wrap(apperr.KindNotFound, "No report found for this analysis", err)
	}
	if err != nil {
		return Report{}, apperr.Wrap(apperr.KindPersistence, "Failed to load report", err)
	}
	return rep, nil
}
