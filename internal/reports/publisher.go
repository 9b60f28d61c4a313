package reports

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"skillgap-backend/internal/shared/apperr"
	"skillgap-backend/internal/shared/storage/object"
)

const contentTypePDF = "application/pdf"

// Artifact is where a published PDF ended up.
type Artifact struct {
	Key       string
	Filename  string
	URL       string
	SizeBytes int64
}

// Publisher uploads rendered reports to object storage.
type Publisher struct {
	Store object.ObjectStore
	now   func() time.Time
}

func NewPublisher(store object.ObjectStore) *Publisher {
	return &Publisher{Store: store, now: time.Now}
}

// Filename is the object name for a report generated at t.
func Filename(t time.Time) string {
	return "skill_gap_report_" + t.UTC().Format("20060102_150405") + ".pdf"
}

// Key places a report under a directory derived from the user ID so raw IDs
// never appear in object paths.
func Key(userID string, t time.Time) string {
	sum := sha256.Sum256([]byte(userID))
	return "reports/" + hex.EncodeToString(sum[:]) + "/" + Filename(t)
}

// Publish uploads pdf and returns its URL. Any failure is a storage error.
func (p *Publisher) Publish(ctx context.Context, userID string, pdf []byte) (Artifact, error) {
	if p.Store == nil {
		return Artifact{}, apperr.New(apperr.KindStorage, "Report storage is not configured")
	}
	now := p.now()
	key := Key(userID, now)
	size, err := p.Store.Put(ctx, key, contentTypePDF, bytes.NewReader(pdf))
	if err != nil {
		return Artifact{}, apperr.Wrap(apperr.KindStorage, "Failed to upload report", fmt.Errorf("put %s: %w", key, err))
	}
	url, err := p.Store.URL(ctx, key)
	if err != nil {
		return Artifact{}, apperr.Wrap(apperr.KindStorage, "Failed to create report URL", fmt.Errorf("url %s: %w", key, err))
	}
	return Artifact{Key: key, Filename: Filename(now), URL: url, SizeBytes: size}, nil
}
