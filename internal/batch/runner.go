// Package batch runs the weekly analysis for every eligible user, one user at
// a time, and records a summary of each run.
package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"skillgap-backend/internal/market"
	"skillgap-backend/internal/pipeline"
	"skillgap-backend/internal/shared/apperr"
	"skillgap-backend/internal/shared/metrics"
	"skillgap-backend/internal/shared/telemetry"
)

// DetailAlreadyRunning is returned when a run is triggered during another.
const DetailAlreadyRunning = "batch already running"

// Generator runs the pipeline for one user.
type Generator interface {
	Generate(ctx context.Context, req pipeline.Request) (pipeline.Outcome, error)
}

// Eligibility lists users with roles and skills, and when their profile last
// changed.
type Eligibility interface {
	ListEligibleUserIDs(ctx context.Context) ([]string, error)
	LastActivity(ctx context.Context, userID string) (time.Time, error)
}

// History reports when a user's newest analysis was created.
type History interface {
	LatestCreatedAt(ctx context.Context, userID string) (time.Time, bool, error)
}

// MarketSource is read once per run.
type MarketSource interface {
	Snapshot(ctx context.Context) (market.Snapshot, error)
	HasTrendData(ctx context.Context) (bool, error)
}

// Runner executes batch runs. At most one run is active at a time.
type Runner struct {
	Gen      Generator
	Users    Eligibility
	History  History
	Market   MarketSource
	Repo     Repo
	Schedule string
	// SkipUnchanged skips users whose latest analysis is newer than their
	// latest profile change.
	SkipUnchanged bool

	running atomic.Bool
	mu      sync.Mutex
	last    *Summary
	now     func() time.Time
}

func NewRunner(gen Generator, users Eligibility, history History, mkt MarketSource, repo Repo) *Runner {
	return &Runner{
		Gen:     gen,
		Users:   users,
		History: history,
		Market:  mkt,
		Repo:    repo,
		now:     time.Now,
	}
}

func (r *Runner) clock() time.Time {
	if r.now == nil {
		return time.Now().UTC()
	}
	return r.now().UTC()
}

// Running reports whether a run is in progress.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Run processes every eligible user sequentially. Per-user failures are
// recorded in the summary and never returned.
func (r *Runner) Run(ctx context.Context, trigger string) (Summary, error) {
	if !r.running.CompareAndSwap(false, true) {
		return Summary{}, apperr.New(apperr.KindConflict, DetailAlreadyRunning)
	}
	defer r.running.Store(false)

	summary := Summary{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		StartedAt: r.clock(),
		Results:   []Result{},
	}
	telemetry.Info("batch.started", map[string]any{"run_id": summary.RunID, "trigger": trigger})

	ids, err := r.Users.ListEligibleUserIDs(ctx)
	if err != nil {
		return Summary{}, apperr.Wrap(apperr.KindPersistence, "Failed to list eligible users", err)
	}
	summary.Eligible = len(ids)

	snap, err := r.Market.Snapshot(ctx)
	if err != nil {
		return Summary{}, apperr.Wrap(apperr.KindPersistence, "Failed to load market data", err)
	}

	for _, userID := range ids {
		if err := ctx.Err(); err != nil {
			summary.add(Result{UserID: userID, Status: OutcomeFailed, Kind: apperr.KindInternal, Reason: "run canceled"})
			continue
		}
		summary.add(r.runUser(ctx, userID, &snap))
	}

	summary.FinishedAt = r.clock()
	metrics.ObserveBatchRun(summary.Succeeded, summary.Failed, summary.Skipped)
	if r.Repo != nil {
		if err := r.Repo.Save(ctx, summary); err != nil {
			telemetry.Error("batch.save_failed", map[string]any{"run_id": summary.RunID, "error": err.Error()})
		}
	}
	r.mu.Lock()
	last := summary
	r.last = &last
	r.mu.Unlock()

	telemetry.Info("batch.finished", map[string]any{
		"run_id":      summary.RunID,
		"eligible":    summary.Eligible,
		"succeeded":   summary.Succeeded,
		"failed":      summary.Failed,
		"skipped":     summary.Skipped,
		"duration_ms": summary.FinishedAt.Sub(summary.StartedAt).Milliseconds(),
	})
	return summary, nil
}

func (r *Runner) runUser(ctx context.Context, userID string, snap *market.Snapshot) Result {
	if r.SkipUnchanged {
		if skip, reason := r.unchanged(ctx, userID); skip {
			return Result{UserID: userID, Status: OutcomeSkipped, Reason: reason}
		}
	}

	out, err := r.Gen.Generate(ctx, pipeline.Request{UserID: userID, Snapshot: snap})
	if err != nil {
		kind := apperr.KindOf(err)
		status := OutcomeFailed
		if kind == apperr.KindPrecondition {
			status = OutcomeSkipped
		}
		telemetry.Warn("batch.user_"+status, map[string]any{"user_id": userID, "kind": string(kind), "error": err.Error()})
		return Result{UserID: userID, Status: status, Kind: kind, Reason: apperr.DetailOf(err)}
	}
	return Result{UserID: userID, Status: OutcomeSuccess, AnalysisID: out.AnalysisID, ReportID: out.ReportID}
}

// unchanged reports whether the user's newest analysis already covers their
// current profile. Lookup errors fall through to a fresh analysis.
func (r *Runner) unchanged(ctx context.Context, userID string) (bool, string) {
	if r.History == nil {
		return false, ""
	}
	latest, ok, err := r.History.LatestCreatedAt(ctx, userID)
	if err != nil || !ok {
		return false, ""
	}
	activity, err := r.Users.LastActivity(ctx, userID)
	if err != nil {
		return false, ""
	}
	if activity.After(latest) {
		return false, ""
	}
	return true, "no profile changes since last analysis"
}

// Status reports the runner state and the most recent run.
func (r *Runner) Status(ctx context.Context) (Status, error) {
	st := Status{State: StateIdle, Schedule: r.Schedule}
	if r.Running() {
		st.State = StateRunning
	}

	ids, err := r.Users.ListEligibleUserIDs(ctx)
	if err != nil {
		return Status{}, apperr.Wrap(apperr.KindPersistence, "Failed to list eligible users", err)
	}
	st.EligibleUsers = len(ids)

	hasTrends, err := r.Market.HasTrendData(ctx)
	if err != nil {
		return Status{}, apperr.Wrap(apperr.KindPersistence, "Failed to load market data", err)
	}
	st.HasTrendData = hasTrends

	st.LastRun = r.lastRun(ctx)
	return st, nil
}

func (r *Runner) lastRun(ctx context.Context) *Summary {
	r.mu.Lock()
	cached := r.last
	r.mu.Unlock()
	if cached != nil {
		s := *cached
		return &s
	}
	if r.Repo == nil {
		return nil
	}
	s, err := r.Repo.Latest(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			telemetry.Error("batch.last_run_failed", map[string]any{"error": err.Error()})
		}
		return nil
	}
	r.mu.Lock()
	if r.last == nil {
		r.last = &s
	}
	r.mu.Unlock()
	return &s
}
