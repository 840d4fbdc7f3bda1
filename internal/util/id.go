// Package util provides identifier and date helpers for the census tool.
package util

import (
	"log/slog"

	"github.com/google/uuid"
)

// NewID returns a time-ordered UUIDv7 string. Member ids generated during
// one survey therefore sort in the order the members were added.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		slog.Warn("uuidv7 generation failed, using random id", "error", err)
		return uuid.NewString()
	}
	return id.String()
}

// IsValidID reports whether s is a well-formed UUID.
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
