// Package store provides the backends of appversion.SnapshotStore: Redis
// (default), PostgreSQL or SQLite through database/sql, and process memory.
package store

import (
	"context"
	"fmt"

	"github.com/evn/versiongate/config"
	"github.com/evn/versiongate/db"
	"github.com/evn/versiongate/internal/appversion"
)

// Backend is a SnapshotStore that owns a connection.
type Backend interface {
	appversion.SnapshotStore
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*RedisStore)(nil)
	_ Backend = (*SQLStore)(nil)
	_ Backend = (*MemoryStore)(nil)
)

// Open connects the backend selected by cfg.Store.Driver.
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.Store.Driver {
	case "redis", "":
		client := config.NewRedisClient(cfg.Redis)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis at %s: %w", cfg.Redis.Addr, err)
		}
		return NewRedisStore(client), nil
	case "sqlite3", "postgres":
		database, err := db.InitDB(ctx, cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		return NewSQLStore(database), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
