// Package timestamp validates and parses the wire format used for all
// playback timestamps: canonical Zulu ISO-8601 (e.g. 2025-11-28T21:00:00.000Z).
package timestamp

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalid = errors.New("invalid timestamp")

// Parse parses a wire timestamp. The value must contain both the date/time
// separator and the UTC designator; a bare date or an offset-zoned string is
// rejected even if otherwise parseable.
func Parse(s string) (time.Time, error) {
	if !strings.Contains(s, "T") || !strings.Contains(s, "Z") {
		return time.Time{}, ErrInvalid
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, ErrInvalid
	}
	return t.UTC(), nil
}

// Valid reports whether v is a well-formed wire timestamp. Non-string
// values are never valid.
func Valid(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, err := Parse(s)
	return err == nil
}
