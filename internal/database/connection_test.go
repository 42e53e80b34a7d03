package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/smarttransit/seat-reservation/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_FileDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "buses.json")

	store, err := Open(context.Background(), config.StorageConfig{Driver: "file", DataFile: path}, config.DatabaseConfig{}, false)
	require.NoError(t, err)
	defer store.Close()

	fileStore, ok := store.(*FileStore)
	require.True(t, ok)
	assert.Equal(t, path, fileStore.Path())
	assert.NoError(t, store.Ping(context.Background()))
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Driver: "mongo"}, config.DatabaseConfig{}, false)
	assert.ErrorContains(t, err, "unknown storage driver")

	_, err = Open(context.Background(), config.StorageConfig{Driver: "postgres"}, config.DatabaseConfig{}, false)
	assert.ErrorContains(t, err, "database URL is required")

	_, err = Open(context.Background(), config.StorageConfig{Driver: "file"}, config.DatabaseConfig{}, false)
	assert.Error(t, err)
}
