package health

import (
	"context"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	DB          Pinger
	ObjectStore string
	LLMProvider string
	timeout     time.Duration
}

// NewService constructs a new health service. db may be nil when the
// process runs on in-memory repositories.
func NewService(db Pinger, objectStore, llmProvider string) *Service {
	return &Service{DB: db, ObjectStore: objectStore, LLMProvider: llmProvider, timeout: 2 * time.Second}
}

// Report is the health payload.
type Report struct {
	OK          bool   `json:"ok"`
	Database    string `json:"database"`
	ObjectStore string `json:"object_store"`
	LLMProvider string `json:"llm_provider"`
}

// Status pings the database, if any, and reports the configured backends.
func (s *Service) Status(ctx context.Context) Report {
	r := Report{OK: true, Database: "memory", ObjectStore: s.ObjectStore, LLMProvider: s.LLMProvider}
	if s.DB == nil {
		return r
	}
	timeout := s.timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.DB.PingContext(pingCtx); err != nil {
		r.OK = false
		r.Database = "unreachable"
		return r
	}
	r.Database = "ok"
	return r
}
