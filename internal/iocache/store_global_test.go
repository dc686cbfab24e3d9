package iocache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/huangsam/opendxi/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetManager(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	t.Cleanup(func() {
		CloseStores()
		Manager = &SprintStoreManager{}
		initOnce = sync.Once{}
		closeOnce = sync.Once{}
	})
}

func TestInitStores(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		resetManager(t)
		path := filepath.Join(t.TempDir(), "nested", "opendxi.db")

		require.NoError(t, InitStores(schema.SQLiteBackend, path, 5))
		require.NoError(t, InitStores(schema.SQLiteBackend, path, 5), "second call is a no-op")
		assert.NotNil(t, Manager.GetSprintStore())

		_, err := os.Stat(path)
		assert.NoError(t, err, "database file should be created")

		CloseStores()
		CloseStores()
	})

	t.Run("none", func(t *testing.T) {
		resetManager(t)
		require.NoError(t, InitStores(schema.NoneBackend, "", 0))
		status, err := Manager.GetSprintStore().GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "none", status.Backend)
	})

	t.Run("invalid backend", func(t *testing.T) {
		resetManager(t)
		err := InitStores("oracle", "", 0)
		assert.ErrorContains(t, err, "failed to initialize sprint store")
		assert.Nil(t, Manager.GetSprintStore())
	})
}

func TestClearStore(t *testing.T) {
	t.Run("sqlite removes files", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "opendxi.db")
		store, err := NewSprintStore(schema.SQLiteBackend, path, 5)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.NoError(t, ClearStore(schema.SQLiteBackend, path, ""))
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("sqlite missing file is fine", func(t *testing.T) {
		assert.NoError(t, ClearStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "absent.db"), ""))
	})

	t.Run("sqlite requires a path", func(t *testing.T) {
		assert.Error(t, ClearStore(schema.SQLiteBackend, "", ""))
	})

	t.Run("none", func(t *testing.T) {
		assert.NoError(t, ClearStore(schema.NoneBackend, "", ""))
	})

	t.Run("unsupported", func(t *testing.T) {
		assert.Error(t, ClearStore("oracle", "", ""))
	})
}

func TestMigrateStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opendxi.db")

	require.NoError(t, MigrateStore(schema.SQLiteBackend, path, 5, -1))
	require.NoError(t, MigrateStore(schema.SQLiteBackend, path, 5, -1), "already at latest")

	store := newTestStore(t, path)
	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, uint(1), status.SchemaVersion)

	require.NoError(t, MigrateStore(schema.SQLiteBackend, path, 5, 0))
	_, err = store.List(t.Context())
	assert.Error(t, err, "sprints table should be gone after rolling back")

	require.NoError(t, MigrateStore(schema.SQLiteBackend, path, 5, 1))
	list, err := store.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, list)

	t.Run("none backend", func(t *testing.T) {
		assert.Error(t, MigrateStore(schema.NoneBackend, "", 0, -1))
	})
}
