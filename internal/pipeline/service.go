// Package pipeline runs one skill gap analysis end to end: aggregate the
// user's context, ask the model, render and publish the PDF, then persist
// everything and notify the mailer.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"skillgap-backend/internal/analyses"
	"skillgap-backend/internal/market"
	"skillgap-backend/internal/queue"
	"skillgap-backend/internal/reports"
	"skillgap-backend/internal/shared/apperr"
	"skillgap-backend/internal/shared/metrics"
	"skillgap-backend/internal/shared/telemetry"
	"skillgap-backend/internal/users"
)

// Outcome statuses.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
)

// Requester produces an analysis from a context.
type Requester interface {
	Request(ctx context.Context, c analyses.Context) (analyses.Analysis, error)
}

// Publisher uploads a rendered PDF.
type Publisher interface {
	Publish(ctx context.Context, userID string, pdf []byte) (reports.Artifact, error)
}

// UserLookup resolves display details for the report cover.
type UserLookup interface {
	Lookup(ctx context.Context, userID, email string) users.User
}

// RenderFunc draws a report.
type RenderFunc func(reports.Input) ([]byte, error)

// Request is one generate call.
type Request struct {
	UserID string
	Email  string
	// Roles, when non-empty, replace the stored preferred roles.
	Roles []string
	// Snapshot lets the batch runner share one market read across users.
	Snapshot *market.Snapshot
}

// Summary is the headline block of a generate response.
type Summary struct {
	OverallFitScore       int    `json:"overall_fit_score"`
	OverallGapPercentage  int    `json:"overall_gap_percentage"`
	MarketReadiness       int    `json:"market_readiness"`
	CriticalMissingSkills int    `json:"critical_missing_skills"`
	APIKeySource          string `json:"api_key_source"`
}

// Warning describes a degraded step that did not fail the request.
type Warning struct {
	Kind   apperr.Kind `json:"kind"`
	Detail string      `json:"detail"`
}

// Outcome is the result of a generate call.
type Outcome struct {
	Status     string          `json:"status"`
	AnalysisID string          `json:"analysis_id"`
	ReportID   string          `json:"report_id"`
	ReportURL  string          `json:"report_url"`
	Summary    Summary         `json:"summary"`
	Analysis   analyses.Result `json:"analysis"`
	Warnings   []Warning       `json:"warnings,omitempty"`
}

// Service wires the pipeline stages together.
type Service struct {
	Aggregator *analyses.Aggregator
	Requester  Requester
	Render     RenderFunc
	Publisher  Publisher
	Writer     Writer
	Users      UserLookup
	// Notifier is optional.
	Notifier queue.Client
	now      func() time.Time
}

func NewService(agg *analyses.Aggregator, req Requester, pub Publisher, w Writer, lookup UserLookup, notifier queue.Client) *Service {
	return &Service{
		Aggregator: agg,
		Requester:  req,
		Render:     reports.Render,
		Publisher:  pub,
		Writer:     w,
		Users:      lookup,
		Notifier:   notifier,
		now:        time.Now,
	}
}

// SummaryOf maps an analysis onto the response summary.
func SummaryOf(a analyses.Analysis) Summary {
	return Summary{
		OverallFitScore:       int(a.Result.OverallFitScore),
		OverallGapPercentage:  int(a.Result.OverallGapPercentage),
		MarketReadiness:       int(a.Result.SkillAssessment.MarketReadinessScore),
		CriticalMissingSkills: len(a.Result.CriticalMissingSkills),
		APIKeySource:          a.APIKeySource,
	}
}

// Generate runs the full pipeline for one user. Render and upload failures
// degrade the outcome to partial; every other failure is returned.
func (s *Service) Generate(ctx context.Context, req Request) (Outcome, error) {
	start := s.now()
	user := users.User{ID: req.UserID, Email: req.Email}
	if s.Users != nil {
		user = s.Users.Lookup(ctx, req.UserID, req.Email)
	}
	subj := analyses.Subject{UserID: req.UserID, Name: user.DisplayName(), Email: user.Email}

	actx, err := s.Aggregator.Aggregate(ctx, subj, req.Roles, req.Snapshot)
	if err != nil {
		return Outcome{}, err
	}

	analysis, err := s.Requester.Request(ctx, actx)
	if err != nil {
		metrics.IncAnalysisFailed()
		telemetry.Error("analysis.failed", map[string]any{
			"user_id": req.UserID,
			"kind":    string(apperr.KindOf(err)),
			"error":   err.Error(),
		})
		return Outcome{}, err
	}

	var warnings []Warning
	report, warning := s.produceReport(ctx, user, analysis)
	if warning != nil {
		warnings = append(warnings, *warning)
		metrics.IncReportDegraded()
	}
	switch {
	case report == nil:
		analysis.ReportStatus = analyses.ReportStatusRenderFailed
	case report.Status == reports.StatusUploadFailed:
		analysis.ReportStatus = analyses.ReportStatusUploadFailed
	default:
		analysis.ReportStatus = analyses.ReportStatusPublished
	}

	if err := s.Writer.Save(ctx, analysis, report); err != nil {
		metrics.IncAnalysisFailed()
		telemetry.Error("analysis.persist_failed", map[string]any{"user_id": req.UserID, "analysis_id": analysis.ID, "error": err.Error()})
		return Outcome{}, err
	}
	metrics.IncAnalysisGenerated()

	out := Outcome{
		Status:     StatusSuccess,
		AnalysisID: analysis.ID,
		Summary:    SummaryOf(analysis),
		Analysis:   analysis.Result,
		Warnings:   warnings,
	}
	if len(warnings) > 0 {
		out.Status = StatusPartial
	}
	if report != nil {
		out.ReportID = report.ID
		out.ReportURL = report.URL
		if report.Status == reports.StatusPublished {
			metrics.IncReportPublished()
			s.notify(ctx, analysis, *report)
		}
	}

	telemetry.Info("analysis.generated", map[string]any{
		"user_id":        req.UserID,
		"analysis_id":    analysis.ID,
		"report_id":      out.ReportID,
		"status":         out.Status,
		"api_key_source": analysis.APIKeySource,
		"duration_ms":    s.now().Sub(start).Milliseconds(),
	})
	return out, nil
}

// produceReport renders and uploads the PDF. A nil report means rendering
// failed; an upload failure still yields a row with an empty URL.
func (s *Service) produceReport(ctx context.Context, user users.User, analysis analyses.Analysis) (*reports.Report, *Warning) {
	generatedAt := s.now().UTC()
	pdf, err := s.Render(reports.Input{
		UserName:    user.DisplayName(),
		UserEmail:   user.Email,
		Roles:       analysis.TargetRoles,
		Analysis:    analysis.Result,
		GeneratedAt: generatedAt,
	})
	if err != nil {
		telemetry.Error("report.render_failed", map[string]any{"analysis_id": analysis.ID, "error": err.Error()})
		return nil, &Warning{Kind: apperr.KindReportGeneration, Detail: "PDF report could not be generated"}
	}

	report := &reports.Report{
		ID:          uuid.NewString(),
		UserID:      analysis.UserID,
		AnalysisID:  analysis.ID,
		Filename:    reports.Filename(generatedAt),
		StorageKey:  reports.Key(analysis.UserID, generatedAt),
		SizeBytes:   int64(len(pdf)),
		Type:        reports.TypeSkillGap,
		Status:      reports.StatusPublished,
		GeneratedAt: generatedAt,
	}
	art, err := s.Publisher.Publish(ctx, analysis.UserID, pdf)
	if err != nil {
		telemetry.Error("report.upload_failed", map[string]any{"analysis_id": analysis.ID, "error": err.Error()})
		report.Status = reports.StatusUploadFailed
		return report, &Warning{Kind: apperr.KindStorage, Detail: "PDF report could not be uploaded"}
	}
	report.Filename = art.Filename
	report.StorageKey = art.Key
	report.URL = art.URL
	report.SizeBytes = art.SizeBytes
	return report, nil
}

func (s *Service) notify(ctx context.Context, analysis analyses.Analysis, report reports.Report) {
	if s.Notifier == nil {
		return
	}
	msg := queue.Message{
		Event:       queue.EventReportGenerated,
		ReportID:    report.ID,
		AnalysisID:  analysis.ID,
		UserID:      analysis.UserID,
		ReportURL:   report.URL,
		GeneratedAt: report.GeneratedAt.Format(time.RFC3339),
		Version:     queue.CurrentVersion,
	}
	if err := s.Notifier.Send(ctx, msg); err != nil {
		telemetry.Error("report.notify_failed", map[string]any{"report_id": report.ID, "error": err.Error()})
	}
}
