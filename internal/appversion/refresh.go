package appversion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// RefreshOutcome tells operators what a refresh did to the stored snapshot.
type RefreshOutcome string

const (
	// OutcomeUpdated means a fresh snapshot replaced the stored one.
	OutcomeUpdated RefreshOutcome = "updated"
	// OutcomeKeptStale means the fetch failed and the previous snapshot was kept.
	OutcomeKeptStale RefreshOutcome = "kept_stale"
	// OutcomeNoData means the fetch failed and nothing was stored before either.
	OutcomeNoData RefreshOutcome = "no_data"
)

// RefreshResult is returned by Refresher.Refresh.
type RefreshResult struct {
	RunID    string         `json:"run_id"`
	Outcome  RefreshOutcome `json:"outcome"`
	Snapshot *Snapshot      `json:"snapshot,omitempty"`
	// FetchError is the absorbed fetch failure, if any. It is informational.
	FetchError string `json:"fetch_error,omitempty"`
}

// Observer receives refresh events. internal/metrics implements it.
type Observer interface {
	RefreshCompleted(outcome RefreshOutcome)
	FetchFailed(reason string)
}

type nopObserver struct{}

func (nopObserver) RefreshCompleted(RefreshOutcome) {}
func (nopObserver) FetchFailed(string)              {}

// reasoner is implemented by fetch errors that carry a typed failure reason.
type reasoner interface {
	Reason() string
}

// Refresher pulls the latest release from the catalog into the store.
type Refresher struct {
	fetcher  Fetcher
	store    SnapshotStore
	key      string
	logger   *slog.Logger
	observer Observer
}

// NewRefresher builds a Refresher. logger and observer may be nil.
func NewRefresher(fetcher Fetcher, store SnapshotStore, key string, logger *slog.Logger, observer Observer) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Refresher{
		fetcher:  fetcher,
		store:    store,
		key:      key,
		logger:   logger.With("component", "refresher", "cache_key", key),
		observer: observer,
	}
}

// Refresh fetches once. A successful fetch overwrites the stored snapshot;
// a failed fetch leaves it untouched. Fetch errors never escape, only store
// errors do.
func (r *Refresher) Refresh(ctx context.Context) (RefreshResult, error) {
	result := RefreshResult{RunID: uuid.NewString()}
	log := r.logger.With("run_id", result.RunID)

	snapshot, fetchErr := r.fetcher.FetchLatest(ctx)
	if fetchErr == nil && snapshot != nil {
		if err := r.store.Put(ctx, r.key, *snapshot); err != nil {
			return result, fmt.Errorf("store snapshot: %w", err)
		}
		result.Outcome = OutcomeUpdated
		result.Snapshot = snapshot
		log.Info("latest version snapshot updated",
			"version", snapshot.Version,
			"release_date", snapshot.ReleaseDate)
		r.observer.RefreshCompleted(result.Outcome)
		return result, nil
	}

	if fetchErr == nil {
		fetchErr = errors.New("fetcher returned no snapshot")
	}
	reason := "unknown"
	var re reasoner
	if errors.As(fetchErr, &re) {
		reason = re.Reason()
	}
	r.observer.FetchFailed(reason)
	result.FetchError = fetchErr.Error()

	existing, err := r.store.Get(ctx, r.key)
	if err != nil {
		return result, fmt.Errorf("read existing snapshot: %w", err)
	}
	if existing != nil {
		result.Outcome = OutcomeKeptStale
		result.Snapshot = existing
		log.Warn("latest version fetch failed, keeping stored snapshot",
			"error", fetchErr,
			"reason", reason,
			"stored_version", existing.Version)
	} else {
		result.Outcome = OutcomeNoData
		log.Warn("latest version fetch failed, no snapshot available",
			"error", fetchErr,
			"reason", reason)
	}
	r.observer.RefreshCompleted(result.Outcome)
	return result, nil
}
