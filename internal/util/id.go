package util

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random UUID, optionally prefixed as "<prefix>_<uuid>".
func NewID(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}

// ShortID returns the first n hex characters of a random UUID.
func ShortID(n int) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n <= 0 || n > len(raw) {
		return raw
	}
	return raw[:n]
}

// IsUUID reports whether value parses as a UUID.
func IsUUID(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}
