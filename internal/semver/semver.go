// Package semver parses and compares dotted numeric version strings such as
// "1.2.10". Any number of segments is accepted; a shorter version compares as
// if padded with trailing zero segments, so "1.2" equals "1.2.0".
package semver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidVersionFormat is returned when a segment is not a non-negative
// base-10 integer.
var ErrInvalidVersionFormat = errors.New("invalid version format")

// Version is a parsed dotted numeric version.
type Version struct {
	segments []uint64
}

// Parse splits s on "." and parses every segment.
func Parse(s string) (Version, error) {
	if s == "" {
		return Version{}, fmt.Errorf("%w: empty version", ErrInvalidVersionFormat)
	}

	parts := strings.Split(s, ".")
	segments := make([]uint64, len(parts))
	for i, part := range parts {
		if !isDigits(part) {
			return Version{}, fmt.Errorf("%w: %q (segment %d)", ErrInvalidVersionFormat, s, i+1)
		}
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersionFormat, s, err)
		}
		segments[i] = n
	}
	return Version{segments: segments}, nil
}

// MustParse is like Parse but panics on error. Use it for constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// isDigits rejects signs, spaces and empty segments, all of which
// strconv.ParseUint would either accept or report less precisely.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsZero reports whether v was never parsed.
func (v Version) IsZero() bool {
	return len(v.segments) == 0
}

// Segments returns a copy of the numeric segments.
func (v Version) Segments() []uint64 {
	out := make([]uint64, len(v.segments))
	copy(out, v.segments)
	return out
}

// String returns the canonical dotted form. Leading zeros are dropped.
func (v Version) String() string {
	parts := make([]string, len(v.segments))
	for i, n := range v.segments {
		parts[i] = strconv.FormatUint(n, 10)
	}
	return strings.Join(parts, ".")
}

// Compare returns -1 if a < b, 0 if a == b and +1 if a > b.
func Compare(a, b Version) int {
	n := len(a.segments)
	if len(b.segments) > n {
		n = len(b.segments)
	}
	for i := 0; i < n; i++ {
		x, y := a.segment(i), b.segment(i)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

func (v Version) segment(i int) uint64 {
	if i < len(v.segments) {
		return v.segments[i]
	}
	return 0
}

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool {
	return Compare(v, other) < 0
}

// GreaterOrEqual reports whether v is at least other.
func (v Version) GreaterOrEqual(other Version) bool {
	return Compare(v, other) >= 0
}

// Equal reports whether v and other compare equal, so "1.2" equals "1.2.0".
func (v Version) Equal(other Version) bool {
	return Compare(v, other) == 0
}

// CompareStrings parses both versions and compares them.
func CompareStrings(a, b string) (int, error) {
	va, err := Parse(a)
	if err != nil {
		return 0, err
	}
	vb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return Compare(va, vb), nil
}
