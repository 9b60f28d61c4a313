package batch

import (
	"time"

	"skillgap-backend/internal/shared/apperr"
)

// Runner states.
const (
	StateIdle    = "idle"
	StateRunning = "running"
)

// Per-user outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Triggers.
const (
	TriggerHTTP      = "http"
	TriggerSchedule  = "schedule"
	TriggerScheduler = "scheduler"
)

// Result is the outcome for one user in a run.
type Result struct {
	UserID     string      `json:"user_id"`
	Status     string      `json:"status"`
	Kind       apperr.Kind `json:"kind,omitempty"`
	Reason     string      `json:"reason,omitempty"`
	AnalysisID string      `json:"analysis_id,omitempty"`
	ReportID   string      `json:"report_id,omitempty"`
}

// Summary describes one completed run.
type Summary struct {
	RunID      string    `json:"run_id"`
	Trigger    string    `json:"trigger"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Eligible   int       `json:"eligible"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Results    []Result  `json:"results"`
}

func (s *Summary) add(r Result) {
	switch r.Status {
	case OutcomeSuccess:
		s.Succeeded++
	case OutcomeSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
	s.Results = append(s.Results, r)
}

// Status is the GET /api/cron/status body.
type Status struct {
	State         string   `json:"state"`
	Schedule      string   `json:"schedule"`
	EligibleUsers int      `json:"eligible_users"`
	HasTrendData  bool     `json:"has_trend_data"`
	LastRun       *Summary `json:"last_run"`
}
