package object

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"careermap-backend/internal/shared/util"
)

// ErrNotFound is returned by Open when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// Object kinds used as the first key segment.
const (
	KindResume = "resumes"
	KindExport = "exports"
)

// Info describes a stored object.
type Info struct {
	Key         string
	SizeBytes   int64
	ContentType string
}

// ObjectStore saves and retrieves binary objects such as uploaded resumes and
// rendered mind-map exports.
type ObjectStore interface {
	// Save stores r under a generated key in the user's namespace for kind.
	// The content type is sniffed from the first bytes.
	Save(ctx context.Context, userID, kind, fileName string, r io.Reader) (Info, error)
	// SaveWithKey stores r under an exact key.
	SaveWithKey(ctx context.Context, key, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// UserKey builds "<kind>/<hashed user>/<name>".
func UserKey(kind, userID, name string) string {
	return path.Join(kind, util.HashUserKey(userID), name)
}

// OwnedBy reports whether key lives in userID's namespace.
func OwnedBy(key, userID string) bool {
	parts := strings.Split(strings.TrimLeft(key, "/"), "/")
	return len(parts) >= 3 && parts[1] == util.HashUserKey(userID)
}

// ValidKey rejects empty, absolute and traversal keys.
func ValidKey(key string) bool {
	if strings.TrimSpace(key) == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "" {
			return false
		}
	}
	return true
}
