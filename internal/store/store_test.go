package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evn/versiongate/config"
	"github.com/evn/versiongate/internal/appversion"
)

func openSQLite(t *testing.T) *SQLStore {
	t.Helper()
	cfg := config.Default()
	cfg.Store = config.StoreConfig{Driver: "sqlite3", DSN: ":memory:"}
	backend, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return backend.(*SQLStore)
}

func backends(t *testing.T) map[string]Backend {
	out := map[string]Backend{
		"memory": NewMemoryStore(),
		"sqlite": openSQLite(t),
	}
	// TEST_REDIS_ADDR points at a disposable Redis; the test flushes nothing
	// but its own keys.
	if addr := os.Getenv("TEST_REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		t.Cleanup(func() { client.Close() })
		out["redis"] = NewRedisStore(client)
	}
	return out
}

func TestBackendContract(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := fmt.Sprintf("versiongate_test_%d", time.Now().UnixNano())

			require.NoError(t, backend.Ping(ctx))

			got, err := backend.Get(ctx, key)
			require.NoError(t, err)
			assert.Nil(t, got, "absent key is not an error")

			first := appversion.Snapshot{
				Version:     "1.2.0",
				ReleaseDate: "2026-03-01T10:00:00Z",
				FetchedAt:   time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
			}
			require.NoError(t, backend.Put(ctx, key, first))

			got, err = backend.Get(ctx, key)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, first.Version, got.Version)
			assert.Equal(t, first.ReleaseDate, got.ReleaseDate)
			assert.True(t, first.FetchedAt.Equal(got.FetchedAt))

			second := appversion.Snapshot{Version: "1.3.0"}
			require.NoError(t, backend.Put(ctx, key, second))

			got, err = backend.Get(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, "1.3.0", got.Version)
			assert.Empty(t, got.ReleaseDate, "overwrite replaces the whole record")
		})
	}
}

func TestRedisStoreHasNoExpiry(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	key := fmt.Sprintf("versiongate_ttl_%d", time.Now().UnixNano())
	defer client.Del(ctx, key)

	require.NoError(t, NewRedisStore(client).Put(ctx, key, appversion.Snapshot{Version: "1.0.0"}))
	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl)
}

func TestMemoryStoreConcurrentReplace(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.Put(ctx, "k", appversion.Snapshot{Version: "1.0.0", ReleaseDate: "r1.0.0"}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			v := fmt.Sprintf("1.0.%d", i)
			_ = m.Put(ctx, "k", appversion.Snapshot{Version: v, ReleaseDate: "r" + v})
		}
	}()

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				snap, err := m.Get(ctx, "k")
				if assert.NoError(t, err) && assert.NotNil(t, snap) {
					assert.Equal(t, "r"+snap.Version, snap.ReleaseDate)
				}
			}
		}()
	}
	wg.Wait()
}

func TestSQLStoreUpsertKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	for _, v := range []string{"1.0.0", "1.1.0", "1.2.0"} {
		require.NoError(t, s.Put(ctx, "upsert_key", appversion.Snapshot{Version: v}))
	}

	var count int
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM version_snapshots WHERE cache_key = $1`, "upsert_key").Scan(&count))
	assert.Equal(t, 1, count)

	got, err := s.Get(ctx, "upsert_key")
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", got.Version)
}

func TestOpenUnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = "etcd"
	_, err := Open(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown store driver")
}
