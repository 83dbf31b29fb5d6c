package db

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "drafts.db")
	d, err := Open(path)
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, path, d.Path())

	var mode string
	require.NoError(t, d.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var name string
	require.NoError(t, d.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'drafts'").Scan(&name))
	assert.Equal(t, "drafts", name)

	t.Run("migrate is repeatable", func(t *testing.T) {
		assert.NoError(t, d.Migrate())
	})
}

func TestSqliteAcceptable(t *testing.T) {
	assert.True(t, sqliteAcceptable(nil))
	assert.True(t, sqliteAcceptable(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, sqliteAcceptable(errors.New("no such table: drafts")))
}
