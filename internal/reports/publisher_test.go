package reports

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillgap-backend/internal/shared/apperr"
	"skillgap-backend/internal/shared/storage/object/local"
)

type failingStore struct{}

func (failingStore) Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	return 0, errors.New("bucket unreachable")
}

func (failingStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, errors.New("not found")
}

func (failingStore) URL(ctx context.Context, key string) (string, error) {
	return "", errors.New("no url")
}

func TestKeyHashesUserID(t *testing.T) {
	at := time.Date(2026, 1, 5, 4, 0, 9, 0, time.UTC)
	key := Key("user-1", at)

	assert.True(t, strings.HasPrefix(key, "reports/"))
	assert.True(t, strings.HasSuffix(key, "/skill_gap_report_20260105_040009.pdf"))
	assert.NotContains(t, key, "user-1")
	assert.Len(t, strings.Split(key, "/")[1], 64)
}

func TestPublishLocal(t *testing.T) {
	store := local.New(t.TempDir(), "http://localhost:8080")
	p := NewPublisher(store)
	p.now = func() time.Time { return time.Date(2026, 1, 5, 4, 0, 0, 0, time.UTC) }

	art, err := p.Publish(context.Background(), "user-1", []byte("%PDF-1.3 body"))
	require.NoError(t, err)
	assert.Equal(t, int64(13), art.SizeBytes)
	assert.Equal(t, "skill_gap_report_20260105_040000.pdf", art.Filename)
	assert.Equal(t, "http://localhost:8080/files/"+art.Key, art.URL)

	rc, err := store.Open(context.Background(), art.Key)
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "%PDF-1.3 body", string(body))
}

func TestPublishFailureIsStorageError(t *testing.T) {
	_, err := NewPublisher(failingStore{}).Publish(context.Background(), "user-1", []byte("%PDF"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
}
