package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/evn/versiongate/internal/appversion"
)

// SQLStore keeps snapshots in the version_snapshots table, one row per key.
// The upsert statement works on both PostgreSQL and SQLite.
type SQLStore struct {
	DB *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{DB: db}
}

func (s *SQLStore) Get(ctx context.Context, key string) (*appversion.Snapshot, error) {
	var payload string
	err := s.DB.QueryRowContext(ctx,
		`SELECT payload FROM version_snapshots WHERE cache_key = $1`, key,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snap appversion.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

func (s *SQLStore) Put(ctx context.Context, key string, snap appversion.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	query := `
		INSERT INTO version_snapshots (cache_key, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (cache_key) DO UPDATE
		SET payload = excluded.payload, updated_at = excluded.updated_at
	`
	if _, err := s.DB.ExecContext(ctx, query, key, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.DB.Close()
}
