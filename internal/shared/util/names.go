// Package util holds naming helpers shared by the storage backends.
package util

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"
)

// ErrInvalidName is returned for names that are empty or try to escape a directory.
var ErrInvalidName = errors.New("invalid object name")

const maxNameLen = 128

// HashUserKey maps a user id (which may contain ':' for guests) to a hex
// string usable as a path segment or cache key.
func HashUserKey(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:])
}

// SafeName turns an uploaded or generated file name into a single path
// segment. Separators and control characters become '_'.
func SafeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "..") {
		return "", ErrInvalidName
	}
	out := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return '_'
		}
		return r
	}, name)
	if r := []rune(out); len(r) > maxNameLen {
		out = string(r[len(r)-maxNameLen:])
	}
	return out, nil
}
