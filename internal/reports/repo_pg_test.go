package reports

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestInsertTxDefaultsType(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	at := time.Date(2026, 1, 5, 4, 0, 0, 0, time.UTC)
	rep := Report{
		ID:          "r1",
		UserID:      "u1",
		AnalysisID:  "a1",
		Filename:    "skill_gap_report_20260105_040000.pdf",
		URL:         "",
		StorageKey:  "reports/x/skill_gap_report_20260105_040000.pdf",
		Status:      StatusUploadFailed,
		GeneratedAt: at,
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reports")).
		WithArgs("r1", "u1", "a1", rep.Filename, "", rep.StorageKey, int64(0), TypeSkillGap, StatusUploadFailed, at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := &PGRepo{DB: db}
	if err := repo.Create(context.Background(), rep); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoForAnalysisScansEmailFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	at := time.Date(2026, 1, 5, 4, 0, 0, 0, time.UTC)
	sent := at.Add(time.Hour)
	rows := sqlmock.NewRows([]string{"id", "user_id", "analysis_id", "report_filename", "report_url", "storage_key",
		"report_size_bytes", "report_type", "status", "generated_at", "email_sent", "email_sent_at"}).
		AddRow("r1", "u1", "a1", "f.pdf", "https://x/f.pdf", "reports/x/f.pdf", int64(2048), TypeSkillGap, StatusPublished, at, true, sent)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND analysis_id = $2")).
		WithArgs("u1", "a1").
		WillReturnRows(rows)

	repo := &PGRepo{DB: db}
	rep, err := repo.ForAnalysis(context.Background(), "u1", "a1")
	if err != nil {
		t.Fatalf("ForAnalysis: %v", err)
	}
	if !rep.EmailSent || rep.EmailSentAt == nil || !rep.EmailSentAt.Equal(sent) {
		t.Fatalf("email fields not scanned: %+v", rep)
	}
	if rep.SizeBytes != 2048 {
		t.Fatalf("unexpected size %d", rep.SizeBytes)
	}
}
