package object

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrInvalidKey is returned for keys that are empty or escape the store root.
var ErrInvalidKey = errors.New("invalid storage key")

// ObjectStore defines the contract for saving and retrieving binary objects
// under caller-chosen keys.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// URL returns a download URL for key. It may be time-limited.
	URL(ctx context.Context, key string) (string, error)
}

// CleanKey normalizes a slash-separated key and rejects traversal.
func CleanKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" || strings.Contains(trimmed, "..") || strings.Contains(trimmed, "\\") {
		return "", ErrInvalidKey
	}
	clean := strings.TrimLeft(path.Clean("/"+trimmed), "/")
	if clean == "" || clean == "." {
		return "", ErrInvalidKey
	}
	return clean, nil
}
