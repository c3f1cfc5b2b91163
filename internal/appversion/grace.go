package appversion

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// GracePeriod is how long after a release clients are left alone while the
// new build propagates through the store.
const GracePeriod = 6 * time.Hour

// ClockSkewTolerance bounds how far in the future a release date may be
// before it is treated as bogus rather than "just released".
const ClockSkewTolerance = 5 * time.Minute

// ErrMalformedTimestamp is returned for release dates that cannot be parsed.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

var releaseDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseReleaseDate accepts the formats the catalog has been seen to publish.
// Dates without a zone are read as UTC.
func ParseReleaseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrMalformedTimestamp)
	}
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, raw)
}

// IsWithinGrace reports whether now falls inside window after releasedAt.
// A release date further in the future than ClockSkewTolerance never counts
// as in grace, otherwise a bad clock would silence notifications forever.
func IsWithinGrace(releasedAt, now time.Time, window time.Duration) bool {
	if releasedAt.IsZero() || window <= 0 {
		return false
	}
	elapsed := now.Sub(releasedAt)
	if elapsed < -ClockSkewTolerance {
		return false
	}
	return elapsed < window
}

// WithinGraceOf is IsWithinGrace for a raw release date. Unparsable dates
// fail closed: the client is still notified.
func WithinGraceOf(rawReleaseDate string, now time.Time, window time.Duration) bool {
	releasedAt, err := ParseReleaseDate(rawReleaseDate)
	if err != nil {
		return false
	}
	return IsWithinGrace(releasedAt, now, window)
}
