package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMemory(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "MEMORY"}}
	backend, err := Open(context.Background(), cfg, logger.Nop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	require.NoError(t, backend.Set(context.Background(), KeyCart, "[]"))
}

func TestOpenSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storefront.db")
	cfg := &config.Config{
		Storage: config.StorageConfig{Driver: config.StorageDriverSQLite},
		DB:      config.DBConfig{DSN: "file:" + filepath.ToSlash(path) + "?_busy_timeout=5000"},
	}

	first, err := Open(ctx, cfg, logger.Nop(), nil)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, KeyLocalUser, `{"email":"a@b.co"}`))
	require.NoError(t, first.Close())

	second, err := Open(ctx, cfg, logger.Nop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	value, err := second.Get(ctx, KeyLocalUser)
	require.NoError(t, err)
	assert.Equal(t, `{"email":"a@b.co"}`, value)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "tape"}}
	_, err := Open(context.Background(), cfg, nil, nil)
	assert.Error(t, err)

	_, err = Open(context.Background(), nil, nil, nil)
	assert.Error(t, err)
}
