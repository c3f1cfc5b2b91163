// Package appversion decides whether a mobile client may proceed, should be
// told about a newer release, or must upgrade before using the API.
package appversion

import (
	"time"

	"github.com/evn/versiongate/internal/semver"
)

// Status is the outcome of a version check.
type Status string

const (
	StatusOK              Status = "ok"
	StatusUpdateAvailable Status = "update_available"
	StatusForceUpdate     Status = "force_update"
)

// Decision is the result of Engine.Decide.
type Decision struct {
	Status         Status `json:"status"`
	Current        string `json:"current,omitempty"`
	Latest         string `json:"latest,omitempty"`
	Minimum        string `json:"minimum,omitempty"`
	UpdateURL      string `json:"update_url,omitempty"`
	InGracePeriod  bool   `json:"in_grace_period,omitempty"`
	InvalidVersion bool   `json:"invalid_version,omitempty"`
}

// MinimumTable maps a platform to the lowest version allowed to use the API.
type MinimumTable map[Platform]semver.Version

// Engine holds the immutable inputs of a decision. It is safe for concurrent use.
type Engine struct {
	minimums   MinimumTable
	updateURLs map[Platform]string
	grace      time.Duration
}

// NewEngine copies minimums and updateURLs so later changes to the caller's
// maps cannot leak into a running engine.
func NewEngine(minimums MinimumTable, updateURLs map[Platform]string) *Engine {
	e := &Engine{
		minimums:   make(MinimumTable, len(minimums)),
		updateURLs: make(map[Platform]string, len(updateURLs)),
		grace:      GracePeriod,
	}
	for p, v := range minimums {
		e.minimums[p] = v
	}
	for p, u := range updateURLs {
		e.updateURLs[p] = u
	}
	return e
}

// TracksLatest reports whether decisions for p consult the latest-version
// snapshot. Only iOS has a remote catalog lookup.
func (e *Engine) TracksLatest(p Platform) bool {
	return p == PlatformIOS
}

// Minimum returns the floor for p, if one is configured.
func (e *Engine) Minimum(p Platform) (semver.Version, bool) {
	v, ok := e.minimums[p]
	return v, ok
}

// UpdateURL returns the store page for p, or "" when none is known.
func (e *Engine) UpdateURL(p Platform) string {
	return e.updateURLs[p]
}

// Decide evaluates current against the floor and, for tracked platforms,
// against the latest snapshot. latest may be nil.
//
// A current version that cannot be parsed is treated as below the floor when
// one exists, and as unconstrained otherwise.
func (e *Engine) Decide(platform Platform, current string, latest *Snapshot, now time.Time) Decision {
	cur, parseErr := semver.Parse(current)
	minimum, hasFloor := e.minimums[platform]

	if hasFloor && (parseErr != nil || cur.Less(minimum)) {
		return Decision{
			Status:         StatusForceUpdate,
			Current:        current,
			Minimum:        minimum.String(),
			UpdateURL:      e.UpdateURL(platform),
			InvalidVersion: parseErr != nil,
		}
	}

	ok := Decision{Status: StatusOK, Current: current}
	if parseErr != nil {
		ok.InvalidVersion = true
		return ok
	}

	if !e.TracksLatest(platform) || latest == nil {
		return ok
	}
	latestVersion, err := semver.Parse(latest.Version)
	if err != nil {
		return ok
	}

	if cur.GreaterOrEqual(latestVersion) {
		return ok
	}
	if WithinGraceOf(latest.ReleaseDate, now, e.grace) {
		return Decision{
			Status:        StatusOK,
			Current:       current,
			Latest:        latest.Version,
			InGracePeriod: true,
		}
	}
	return Decision{
		Status:    StatusUpdateAvailable,
		Current:   current,
		Latest:    latest.Version,
		UpdateURL: e.UpdateURL(platform),
	}
}
