package reports

import "time"

// TypeSkillGap is the only report type this service produces.
const TypeSkillGap = "skill_gap"

// Report statuses.
const (
	StatusPublished    = "published"
	StatusUploadFailed = "upload_failed"
)

// Report is the stored record of one generated PDF. EmailSent and
// EmailSentAt belong to the external notifier and are only read here.
type Report struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	AnalysisID  string     `json:"analysis_id"`
	Filename    string     `json:"report_filename"`
	URL         string     `json:"report_url"`
	StorageKey  string     `json:"-"`
	SizeBytes   int64      `json:"report_size_bytes"`
	Type        string     `json:"report_type"`
	Status      string     `json:"status"`
	GeneratedAt time.Time  `json:"generated_at"`
	EmailSent   bool       `json:"email_sent"`
	EmailSentAt *time.Time `json:"email_sent_at,omitempty"`
}
