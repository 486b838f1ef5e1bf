package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stockroom-app/stockroom/cache"
	"github.com/stockroom-app/stockroom/config"
	dbadapter "github.com/stockroom-app/stockroom/db"
	"github.com/stockroom-app/stockroom/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupTestDB creates a throwaway SQLite DB and runs the migrations.
// It requires no external services and is safe to use in parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode:       dbadapter.ModeSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.Migrate(db), "SetupTestDB: Migrate")
	return db
}

// SetupTestCache creates a LocalCache (no Redis required).
func SetupTestCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewCache(cache.CacheConfig{}) // empty RedisAddr → LocalCache
	require.NoError(t, err, "SetupTestCache: NewCache")
	return c
}
