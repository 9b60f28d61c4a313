package pipeline

import (
	"context"
	"database/sql"
	"fmt"

	"skillgap-backend/internal/analyses"
	"skillgap-backend/internal/reports"
	"skillgap-backend/internal/shared/apperr"
	"skillgap-backend/internal/shared/telemetry"
)

// Writer persists an analysis together with its report row. report is nil
// when no PDF could be rendered.
type Writer interface {
	Save(ctx context.Context, analysis analyses.Analysis, report *reports.Report) error
}

// PGWriter writes both rows in one transaction.
type PGWriter struct {
	DB *sql.DB
}

func (w *PGWriter) Save(ctx context.Context, analysis analyses.Analysis, report *reports.Report) error {
	tx, err := w.DB.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, "Failed to save analysis", fmt.Errorf("begin: %w", err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := analyses.InsertTx(ctx, tx, analysis); err != nil {
		return apperr.Wrap(apperr.KindPersistence, "Failed to save analysis", err)
	}
	if report != nil {
		if err := reports.InsertTx(ctx, tx, *report); err != nil {
			_ = tx.Rollback()
			return w.saveAnalysisOnly(ctx, analysis, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.KindPersistence, "Failed to save analysis", fmt.Errorf("commit: %w", err))
	}
	return nil
}

// saveAnalysisOnly keeps the analysis after the report insert failed, marked
// so the missing report row can be detected.
func (w *PGWriter) saveAnalysisOnly(ctx context.Context, analysis analyses.Analysis, cause error) error {
	analysis.ReportStatus = analyses.ReportStatusWriteFailed
	if err := analyses.InsertTx(ctx, w.DB, analysis); err != nil {
		telemetry.Error("analysis.save_fallback_failed", map[string]any{
			"analysis_id": analysis.ID,
			"user_id":     analysis.UserID,
			"error":       err.Error(),
		})
	}
	return apperr.Wrap(apperr.KindPersistence, "Failed to save report record", cause)
}

// MemoryWriter mirrors PGWriter over the in-memory repos.
type MemoryWriter struct {
	Analyses *analyses.MemoryRepo
	Reports  reports.Repo
}

func (w *MemoryWriter) Save(ctx context.Context, analysis analyses.Analysis, report *reports.Report) error {
	if err := w.Analyses.Create(ctx, analysis); err != nil {
		return apperr.Wrap(apperr.KindPersistence, "Failed to save analysis", err)
	}
	if report == nil {
		return nil
	}
	if err := w.Reports.Create(ctx, *report); err != nil {
		_ = w.Analyses.Delete(ctx, analysis.ID)
		analysis.ReportStatus = analyses.ReportStatusWriteFailed
		if ferr := w.Analyses.Create(ctx, analysis); ferr != nil {
			telemetry.Error("analysis.save_fallback_failed", map[string]any{"analysis_id": analysis.ID, "error": ferr.Error()})
		}
		return apperr.Wrap(apperr.KindPersistence, "Failed to save report record", err)
	}
	return nil
}
