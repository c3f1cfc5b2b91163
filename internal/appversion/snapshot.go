package appversion

import (
	"context"
	"time"
)

// Snapshot is the last known latest release published in the store catalog.
// It is written as one record so readers never see a version without its
// release date.
type Snapshot struct {
	Version     string    `json:"version"`
	ReleaseDate string    `json:"release_date,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// SnapshotStore holds snapshots forever. Put overwrites unconditionally and
// Get returns (nil, nil) when nothing was ever stored under key.
type SnapshotStore interface {
	Get(ctx context.Context, key string) (*Snapshot, error)
	Put(ctx context.Context, key string, snapshot Snapshot) error
}

// Fetcher retrieves the latest published release from a remote catalog.
type Fetcher interface {
	FetchLatest(ctx context.Context) (*Snapshot, error)
}
