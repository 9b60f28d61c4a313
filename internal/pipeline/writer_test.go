package pipeline

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"skillgap-backend/internal/analyses"
	"skillgap-backend/internal/reports"
	"skillgap-backend/internal/shared/apperr"
)

func writerFixtures() (analyses.Analysis, reports.Report) {
	at := time.Date(2026, 3, 1, 4, 0, 0, 0, time.UTC)
	a := analyses.Analysis{
		ID:           "analysis-1",
		UserID:       "user-1",
		TargetRoles:  []string{"SRE"},
		ModelUsed:    "gemini-2.5-flash",
		APIKeySource: analyses.KeySourceSystem,
		ReportStatus: analyses.ReportStatusPublished,
		CreatedAt:    at,
	}
	r := reports.Report{
		ID:          "report-1",
		UserID:      "user-1",
		AnalysisID:  "analysis-1",
		Filename:    reports.Filename(at),
		StorageKey:  reports.Key("user-1", at),
		SizeBytes:   2048,
		Status:      reports.StatusPublished,
		GeneratedAt: at,
	}
	return a, r
}

func analysisArgs(a analyses.Analysis, status string) []driver.Value {
	args := make([]driver.Value, 11)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	args[0] = a.ID
	args[9] = status
	return args
}

func TestPGWriterCommitsBothRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	a, r := writerFixtures()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO skill_gap_analyses")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reports")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	w := &PGWriter{DB: db}
	if err := w.Save(context.Background(), a, &r); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGWriterReportFailureKeepsAnalysis(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	a, r := writerFixtures()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO skill_gap_analyses")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reports")).
		WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO skill_gap_analyses")).
		WithArgs(analysisArgs(a, analyses.ReportStatusWriteFailed)...).
		WillReturnResult(sqlmock.NewResult(1, 1))

	w := &PGWriter{DB: db}
	err = w.Save(context.Background(), a, &r)
	if apperr.KindOf(err) != apperr.KindPersistence {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGWriterAnalysisFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	a, r := writerFixtures()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO skill_gap_analyses")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	w := &PGWriter{DB: db}
	err = w.Save(context.Background(), a, &r)
	if apperr.KindOf(err) != apperr.KindPersistence {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGWriterWithoutReport(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	a, _ := writerFixtures()
	a.ReportStatus = analyses.ReportStatusRenderFailed

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO skill_gap_analyses")).
		WithArgs(analysisArgs(a, analyses.ReportStatusRenderFailed)...).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	w := &PGWriter{DB: db}
	if err := w.Save(context.Background(), a, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
