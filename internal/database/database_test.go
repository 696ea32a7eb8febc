package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	assert.Equal(t, "app.db?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", dsn("app.db"))
	assert.Equal(t, "file::memory:?cache=shared&_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", dsn("file::memory:?cache=shared"))
}

func TestInitMigrates(t *testing.T) {
	db, err := Init(Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)

	for _, table := range []string{"projects", "chat_sessions", "chat_messages", "generated_files", "settings", "model_settings"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	require.NoError(t, sqlDB.Close())
}
