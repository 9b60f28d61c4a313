package analyses

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillgap-backend/internal/market"
	"skillgap-backend/internal/profiles"
	"skillgap-backend/internal/shared/apperr"
)

func newAggregator(t *testing.T) (*Aggregator, *profiles.MemoryRepo, *market.MemoryRepo) {
	t.Helper()
	profileRepo := profiles.NewMemoryRepo()
	marketRepo := market.NewMemoryRepo()
	marketRepo.Seed(
		[]market.Trend{{SkillName: "Go", JobMentionCount: 40, DiscussionMentionCount: 3}},
		[]market.Job{{Title: "Senior Backend Engineer"}, {Title: "Data Analyst"}},
		[]market.Discussion{{Title: "Is Go worth it?", Subreddit: "golang", Upvotes: 120}},
	)
	agg := &Aggregator{
		Profiles: profiles.NewService(profileRepo, nil),
		Market:   market.NewService(marketRepo),
	}
	return agg, profileRepo, marketRepo
}

func TestAggregateWithoutRolesNamesPreferredRoles(t *testing.T) {
	agg, profileRepo, _ := newAggregator(t)
	profileRepo.SeedSkills("u1", profiles.Skill{Name: "Go", Source: profiles.SourceGitHub})

	_, err := agg.Aggregate(context.Background(), Subject{UserID: "u1"}, nil, nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err))
	assert.Contains(t, strings.ToLower(apperr.DetailOf(err)), "preferred roles")
}

func TestAggregateWithoutSkillsNamesSkills(t *testing.T) {
	agg, _, _ := newAggregator(t)

	_, err := agg.Aggregate(context.Background(), Subject{UserID: "u1"}, []string{"Backend Engineer"}, nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err))
	assert.Contains(t, strings.ToLower(apperr.DetailOf(err)), "skills")
}

func TestAggregateOverrideIsTruncatedAndPersisted(t *testing.T) {
	agg, profileRepo, _ := newAggregator(t)
	profileRepo.SeedSkills("u1", profiles.Skill{Name: "Go", Source: profiles.SourceGitHub})

	c, err := agg.Aggregate(context.Background(), Subject{UserID: "u1"}, []string{"Backend Engineer", "SRE", " ", "Platform Engineer", "DBA"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Backend Engineer", "SRE", "Platform Engineer"}, c.Roles)

	stored, err := profileRepo.ListRoles(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, c.Roles, stored)
}

func TestAggregateFiltersJobsByRole(t *testing.T) {
	agg, profileRepo, _ := newAggregator(t)
	profileRepo.SeedSkills("u1", profiles.Skill{Name: "Go", Source: profiles.SourceGitHub})
	require.NoError(t, profileRepo.ReplaceRoles(context.Background(), "u1", []string{"Backend Engineer"}))

	c, err := agg.Aggregate(context.Background(), Subject{UserID: "u1"}, nil, nil)
	require.NoError(t, err)
	require.Len(t, c.Market.Jobs, 1)
	assert.Equal(t, "Senior Backend Engineer", c.Market.Jobs[0].Title)
	assert.Len(t, c.Market.Trends, 1)
}

func TestAggregateUsesProvidedSnapshot(t *testing.T) {
	agg, profileRepo, _ := newAggregator(t)
	profileRepo.SeedSkills("u1", profiles.Skill{Name: "Go", Source: profiles.SourceGitHub})
	require.NoError(t, profileRepo.ReplaceRoles(context.Background(), "u1", []string{"SRE"}))

	snap := market.Snapshot{Trends: []market.Trend{{SkillName: "Terraform"}}}
	c, err := agg.Aggregate(context.Background(), Subject{UserID: "u1"}, nil, &snap)
	require.NoError(t, err)
	require.Len(t, c.Market.Trends, 1)
	assert.Equal(t, "Terraform", c.Market.Trends[0].SkillName)
}

func TestBuildPromptIncludesMarketContext(t *testing.T) {
	agg, profileRepo, _ := newAggregator(t)
	profileRepo.SeedSkills("u1", profiles.Skill{Name: "PostgreSQL", Source: profiles.SourceResume})

	c, err := agg.Aggregate(context.Background(), Subject{UserID: "u1", Name: "Ada"}, []string{"Backend Engineer"}, nil)
	require.NoError(t, err)

	prompt, err := BuildPrompt(c, c.Market.TakenAt)
	require.NoError(t, err)
	for _, want := range []string{"Ada", "PostgreSQL", "Is Go worth it?", "golang", "Senior Backend Engineer", "overall_fit_score"} {
		assert.Contains(t, prompt, want)
	}
}
