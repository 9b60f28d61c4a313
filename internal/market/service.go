package market

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Service assembles market snapshots.
type Service struct {
	Repo Repo
	now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, now: time.Now}
}

// Snapshot reads the top trends, recent jobs and top discussions once.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	trends, err := s.Repo.TopTrends(ctx, DefaultTrendLimit)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load trends: %w", err)
	}
	jobs, err := s.Repo.RecentJobs(ctx, DefaultJobLimit)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load jobs: %w", err)
	}
	discussions, err := s.Repo.TopDiscussions(ctx, DefaultDiscussionLimit)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load discussions: %w", err)
	}
	return Snapshot{
		Trends:      trends,
		Jobs:        jobs,
		Discussions: discussions,
		TakenAt:     s.now().UTC(),
	}, nil
}

// HasTrendData reports whether any trend rows exist.
func (s *Service) HasTrendData(ctx context.Context) (bool, error) {
	n, err := s.Repo.CountTrends(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// JobsForRoles keeps jobs whose title shares a word with any role. When no
// job matches, all jobs are returned so the prompt still has market context.
func JobsForRoles(jobs []Job, roles []string) []Job {
	tokens := map[string]struct{}{}
	for _, role := range roles {
		for _, tok := range tokenize(role) {
			if len(tok) > 2 {
				tokens[tok] = struct{}{}
			}
		}
	}
	if len(tokens) == 0 {
		return jobs
	}
	var matched []Job
	for _, job := range jobs {
		for _, tok := range tokenize(job.Title) {
			if _, ok := tokens[tok]; ok {
				matched = append(matched, job)
				break
			}
		}
	}
	if len(matched) == 0 {
		return jobs
	}
	return matched
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}
