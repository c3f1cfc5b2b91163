package appversion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/evn/versiongate/internal/semver"
)

const (
	iosStoreURL     = "https://apps.apple.com/app/id123456"
	androidStoreURL = "https://play.google.com/store/apps/details?id=com.example.app"
)

func newTestEngine(minimums map[Platform]string) *Engine {
	table := MinimumTable{}
	for p, v := range minimums {
		table[p] = semver.MustParse(v)
	}
	return NewEngine(table, map[Platform]string{
		PlatformIOS:     iosStoreURL,
		PlatformAndroid: androidStoreURL,
	})
}

func TestDecideGracePeriod(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(map[Platform]string{PlatformIOS: "0.0.1"})

	inGrace := &Snapshot{Version: "1.1.0", ReleaseDate: now.Add(-2 * time.Hour).Format(time.RFC3339)}
	got := engine.Decide(PlatformIOS, "1.0.0", inGrace, now)
	assert.Equal(t, Decision{
		Status:        StatusOK,
		Current:       "1.0.0",
		Latest:        "1.1.0",
		InGracePeriod: true,
	}, got)

	pastGrace := &Snapshot{Version: "1.1.0", ReleaseDate: now.Add(-10 * time.Hour).Format(time.RFC3339)}
	got = engine.Decide(PlatformIOS, "1.0.0", pastGrace, now)
	assert.Equal(t, Decision{
		Status:    StatusUpdateAvailable,
		Current:   "1.0.0",
		Latest:    "1.1.0",
		UpdateURL: iosStoreURL,
	}, got)
}

func TestDecideFloorDominates(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(map[Platform]string{PlatformIOS: "2.0.0", PlatformAndroid: "1.5"})

	snapshots := []*Snapshot{
		nil,
		{Version: "3.0.0", ReleaseDate: now.Add(-time.Hour).Format(time.RFC3339)},
		{Version: "3.0.0", ReleaseDate: now.Add(-24 * time.Hour).Format(time.RFC3339)},
		{Version: "garbage"},
		{Version: "1.0.0"},
	}

	for _, snap := range snapshots {
		got := engine.Decide(PlatformIOS, "1.9.9", snap, now)
		assert.Equal(t, StatusForceUpdate, got.Status)
		assert.Equal(t, "2.0.0", got.Minimum)
		assert.Equal(t, iosStoreURL, got.UpdateURL)
		assert.False(t, got.InGracePeriod)
	}

	got := engine.Decide(PlatformAndroid, "1.4.99", nil, now)
	assert.Equal(t, Decision{
		Status:    StatusForceUpdate,
		Current:   "1.4.99",
		Minimum:   "1.5",
		UpdateURL: androidStoreURL,
	}, got)

	got = engine.Decide(PlatformAndroid, "1.5.0", nil, now)
	assert.Equal(t, StatusOK, got.Status)
}

func TestDecideInvalidCurrentVersion(t *testing.T) {
	now := time.Now()
	engine := newTestEngine(map[Platform]string{PlatformIOS: "1.0.0"})

	got := engine.Decide(PlatformIOS, "banana", nil, now)
	assert.Equal(t, StatusForceUpdate, got.Status)
	assert.True(t, got.InvalidVersion)
	assert.Equal(t, iosStoreURL, got.UpdateURL)

	got = engine.Decide(Platform("windows"), "banana", nil, now)
	assert.Equal(t, StatusOK, got.Status)
	assert.True(t, got.InvalidVersion)
}

func TestDecideLatestSnapshot(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(map[Platform]string{PlatformIOS: "1.0.0"})
	old := now.Add(-72 * time.Hour).Format(time.RFC3339)

	tests := []struct {
		name     string
		current  string
		snapshot *Snapshot
		want     Status
	}{
		{"no snapshot", "1.0.0", nil, StatusOK},
		{"equal to latest", "1.2.0", &Snapshot{Version: "1.2.0", ReleaseDate: old}, StatusOK},
		{"equal with fewer segments", "1.2", &Snapshot{Version: "1.2.0", ReleaseDate: old}, StatusOK},
		{"ahead of latest", "1.3.0", &Snapshot{Version: "1.2.0", ReleaseDate: old}, StatusOK},
		{"numeric not lexicographic", "1.10.0", &Snapshot{Version: "1.9.0", ReleaseDate: old}, StatusOK},
		{"behind latest", "1.2.0", &Snapshot{Version: "1.10.0", ReleaseDate: old}, StatusUpdateAvailable},
		{"behind without release date", "1.0.0", &Snapshot{Version: "1.1.0"}, StatusUpdateAvailable},
		{"behind with malformed release date", "1.0.0", &Snapshot{Version: "1.1.0", ReleaseDate: "soon"}, StatusUpdateAvailable},
		{"unparsable latest", "1.0.0", &Snapshot{Version: "", ReleaseDate: old}, StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Decide(PlatformIOS, tt.current, tt.snapshot, now)
			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, tt.current, got.Current)
		})
	}
}

func TestDecideAndroidIgnoresSnapshot(t *testing.T) {
	now := time.Now()
	engine := newTestEngine(map[Platform]string{PlatformAndroid: "1.0.0"})

	got := engine.Decide(PlatformAndroid, "1.0.0", &Snapshot{Version: "9.9.9"}, now)
	assert.Equal(t, Decision{Status: StatusOK, Current: "1.0.0"}, got)
	assert.False(t, engine.TracksLatest(PlatformAndroid))
	assert.True(t, engine.TracksLatest(PlatformIOS))
}

func TestDecideUnknownPlatform(t *testing.T) {
	engine := newTestEngine(map[Platform]string{PlatformIOS: "5.0.0", PlatformAndroid: "5.0.0"})

	got := engine.Decide(Platform("blackberry"), "0.0.1", &Snapshot{Version: "9.0.0"}, time.Now())
	assert.Equal(t, Decision{Status: StatusOK, Current: "0.0.1"}, got)
	assert.Equal(t, "", engine.UpdateURL(Platform("blackberry")))
}

func TestDecideIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(map[Platform]string{PlatformIOS: "0.0.1"})
	snap := &Snapshot{Version: "1.1.0", ReleaseDate: "2026-03-01T01:00:00Z"}

	first := engine.Decide(PlatformIOS, "1.0.0", snap, now)
	second := engine.Decide(PlatformIOS, "1.0.0", snap, now)
	assert.Equal(t, first, second)
}

func TestNewEngineCopiesInputs(t *testing.T) {
	table := MinimumTable{PlatformIOS: semver.MustParse("1.0.0")}
	urls := map[Platform]string{PlatformIOS: iosStoreURL}
	engine := NewEngine(table, urls)

	table[PlatformIOS] = semver.MustParse("9.0.0")
	urls[PlatformIOS] = "changed"

	minimum, ok := engine.Minimum(PlatformIOS)
	assert.True(t, ok)
	assert.Equal(t, "1.0.0", minimum.String())
	assert.Equal(t, iosStoreURL, engine.UpdateURL(PlatformIOS))
}

func TestParsePlatform(t *testing.T) {
	assert.Equal(t, PlatformWeb, ParsePlatform(""))
	assert.Equal(t, PlatformIOS, ParsePlatform(" iOS "))
	assert.Equal(t, PlatformAndroid, ParsePlatform("ANDROID"))
	assert.Equal(t, Platform("tizen"), ParsePlatform("tizen"))
	assert.False(t, ParsePlatform("tizen").Known())
	assert.True(t, ParsePlatform("web").Known())
}
