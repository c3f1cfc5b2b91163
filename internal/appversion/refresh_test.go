package appversion

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jsonStore keeps raw encoded records so tests can compare bytes.
type jsonStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	putErr error
	puts   int
}

func newJSONStore() *jsonStore {
	return &jsonStore{data: map[string][]byte{}}
}

func (s *jsonStore) Get(_ context.Context, key string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	raw, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *jsonStore) Put(_ context.Context, key string, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.data[key] = raw
	s.puts++
	return nil
}

type stubFetcher struct {
	snapshot *Snapshot
	err      error
}

func (f stubFetcher) FetchLatest(context.Context) (*Snapshot, error) {
	return f.snapshot, f.err
}

type reasonError struct{ reason string }

func (e reasonError) Error() string  { return "fetch failed: " + e.reason }
func (e reasonError) Reason() string { return e.reason }

type recordingObserver struct {
	outcomes []RefreshOutcome
	reasons  []string
}

func (o *recordingObserver) RefreshCompleted(outcome RefreshOutcome) {
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) FetchFailed(reason string) {
	o.reasons = append(o.reasons, reason)
}

const testKey = "tn_lib_app_store_versions"

func TestRefreshUpdatesSnapshot(t *testing.T) {
	store := newJSONStore()
	obs := &recordingObserver{}
	fresh := &Snapshot{Version: "2.1.0", ReleaseDate: "2026-03-01T10:00:00Z", FetchedAt: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)}

	r := NewRefresher(stubFetcher{snapshot: fresh}, store, testKey, nil, obs)
	result, err := r.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeUpdated, result.Outcome)
	assert.NotEmpty(t, result.RunID)
	assert.Empty(t, result.FetchError)
	assert.Equal(t, fresh, result.Snapshot)

	stored, err := store.Get(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, "2.1.0", stored.Version)
	assert.Equal(t, []RefreshOutcome{OutcomeUpdated}, obs.outcomes)
	assert.Empty(t, obs.reasons)
}

func TestRefreshOverwritesUnconditionally(t *testing.T) {
	store := newJSONStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, testKey, Snapshot{Version: "3.0.0"}))

	// an older catalog answer still wins: last fetch wins, no merge
	r := NewRefresher(stubFetcher{snapshot: &Snapshot{Version: "2.9.0"}}, store, testKey, nil, nil)
	result, err := r.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, result.Outcome)

	stored, err := store.Get(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, "2.9.0", stored.Version)
	assert.Empty(t, stored.ReleaseDate)
}

func TestRefreshFailureKeepsSnapshotBytes(t *testing.T) {
	store := newJSONStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, testKey, Snapshot{
		Version:     "1.4.2",
		ReleaseDate: "2026-02-01T00:00:00Z",
		FetchedAt:   time.Date(2026, 2, 1, 1, 0, 0, 0, time.UTC),
	}))
	before := append([]byte(nil), store.data[testKey]...)
	obs := &recordingObserver{}

	r := NewRefresher(stubFetcher{err: reasonError{reason: "timeout"}}, store, testKey, nil, obs)
	result, err := r.Refresh(ctx)
	require.NoError(t, err)

	assert.Equal(t, OutcomeKeptStale, result.Outcome)
	assert.Equal(t, "1.4.2", result.Snapshot.Version)
	assert.Contains(t, result.FetchError, "timeout")
	assert.Equal(t, before, store.data[testKey])
	assert.Equal(t, 1, store.puts)
	assert.Equal(t, []string{"timeout"}, obs.reasons)
	assert.Equal(t, []RefreshOutcome{OutcomeKeptStale}, obs.outcomes)
}

func TestRefreshFailureWithoutSnapshot(t *testing.T) {
	store := newJSONStore()
	obs := &recordingObserver{}

	r := NewRefresher(stubFetcher{err: errors.New("boom")}, store, testKey, nil, obs)
	result, err := r.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoData, result.Outcome)
	assert.Nil(t, result.Snapshot)
	assert.Equal(t, []string{"unknown"}, obs.reasons)
	assert.Empty(t, store.data)
}

func TestRefreshNilSnapshotWithoutError(t *testing.T) {
	store := newJSONStore()

	r := NewRefresher(stubFetcher{}, store, testKey, nil, nil)
	result, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoData, result.Outcome)
	assert.NotEmpty(t, result.FetchError)
}

func TestRefreshStoreErrors(t *testing.T) {
	ctx := context.Background()

	putFails := newJSONStore()
	putFails.putErr = errors.New("redis down")
	r := NewRefresher(stubFetcher{snapshot: &Snapshot{Version: "1.0.0"}}, putFails, testKey, nil, nil)
	_, err := r.Refresh(ctx)
	assert.ErrorContains(t, err, "store snapshot")

	getFails := newJSONStore()
	getFails.getErr = errors.New("redis down")
	r = NewRefresher(stubFetcher{err: errors.New("offline")}, getFails, testKey, nil, nil)
	_, err = r.Refresh(ctx)
	assert.ErrorContains(t, err, "read existing snapshot")
}
