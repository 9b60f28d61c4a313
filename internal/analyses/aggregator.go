package analyses

import (
	"context"
	"sort"
	"strings"

	"skillgap-backend/internal/market"
	"skillgap-backend/internal/profiles"
	"skillgap-backend/internal/shared/apperr"
)

// Prompt caps on market rows.
const (
	promptTrendLimit      = 20
	promptTrendingLimit   = 15
	promptJobLimit        = 25
	promptDiscussionLimit = 10
)

// ProfileSource is the part of the profile store the aggregator reads.
type ProfileSource interface {
	GetSkills(ctx context.Context, userID string) ([]profiles.Skill, error)
	GetPreferredRoles(ctx context.Context, userID string) ([]string, error)
	SetPreferredRoles(ctx context.Context, userID string, roles []string) (profiles.RolesResult, error)
}

// MarketSource yields the current market snapshot.
type MarketSource interface {
	Snapshot(ctx context.Context) (market.Snapshot, error)
}

// Subject identifies whose analysis is being built.
type Subject struct {
	UserID string
	Name   string
	Email  string
}

// Context is everything the model is told about one user.
type Context struct {
	Subject
	Roles  []string
	Skills []profiles.Skill
	Market market.Snapshot
}

// Aggregator assembles a Context from profile and market data.
type Aggregator struct {
	Profiles ProfileSource
	Market   MarketSource
}

// Aggregate resolves roles, loads skills and attaches market data. A non-empty
// override replaces the stored roles. snap, when non-nil, is used instead of
// reading the market tables again.
func (a *Aggregator) Aggregate(ctx context.Context, subj Subject, override []string, snap *market.Snapshot) (Context, error) {
	skills, err := a.Profiles.GetSkills(ctx, subj.UserID)
	if err != nil {
		return Context{}, err
	}

	roles, err := a.resolveRoles(ctx, subj.UserID, override)
	if err != nil {
		return Context{}, err
	}
	if len(roles) == 0 {
		return Context{}, apperr.Wrap(apperr.KindPrecondition, DetailNoRoles, ErrNoRoles)
	}
	if len(skills) == 0 {
		return Context{}, apperr.Wrap(apperr.KindPrecondition, DetailNoSkills, ErrNoSkills)
	}

	var current market.Snapshot
	if snap != nil {
		current = *snap
	} else {
		current, err = a.Market.Snapshot(ctx)
		if err != nil {
			return Context{}, apperr.Wrap(apperr.KindPersistence, "Failed to load market data", err)
		}
	}
	current.Jobs = market.JobsForRoles(current.Jobs, roles)

	return Context{
		Subject: subj,
		Roles:   roles,
		Skills:  skills,
		Market:  current,
	}, nil
}

func (a *Aggregator) resolveRoles(ctx context.Context, userID string, override []string) ([]string, error) {
	cleaned := make([]string, 0, len(override))
	for _, role := range override {
		if role = strings.TrimSpace(role); role != "" {
			cleaned = append(cleaned, role)
		}
	}
	if len(cleaned) > 0 {
		if len(cleaned) > profiles.MaxPreferredRoles {
			cleaned = cleaned[:profiles.MaxPreferredRoles]
		}
		res, err := a.Profiles.SetPreferredRoles(ctx, userID, cleaned)
		if err != nil {
			return nil, err
		}
		return res.Inserted, nil
	}
	return a.Profiles.GetPreferredRoles(ctx, userID)
}

// trendingSkills ranks trends by how often the community discusses them.
func (c Context) trendingSkills() []market.Trend {
	trends := make([]market.Trend, 0, len(c.Market.Trends))
	for _, t := range c.Market.Trends {
		if t.DiscussionMentionCount > 0 {
			trends = append(trends, t)
		}
	}
	sort.SliceStable(trends, func(i, j int) bool {
		return trends[i].DiscussionMentionCount > trends[j].DiscussionMentionCount
	})
	return headTrends(trends, promptTrendingLimit)
}

func headTrends(trends []market.Trend, n int) []market.Trend {
	if len(trends) > n {
		return trends[:n]
	}
	return trends
}
