package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intraworks/workbench/internal/api"
)

func TestFileTokenCache_RoundTrip(t *testing.T) {
	cache := NewFileTokenCache(t.TempDir(), nil)

	info := &api.TokenInfo{
		AccessExpiresAt:  time.UnixMilli(1770000000000),
		RefreshExpiresAt: time.UnixMilli(1770600000000),
	}
	require.NoError(t, cache.Save(info))

	loaded, err := cache.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, info.AccessExpiresAt.UnixMilli(), loaded.AccessExpiresAt.UnixMilli())
	assert.Equal(t, info.RefreshExpiresAt.UnixMilli(), loaded.RefreshExpiresAt.UnixMilli())
}

func TestFileTokenCache_MissingFile(t *testing.T) {
	cache := NewFileTokenCache(t.TempDir(), nil)

	loaded, err := cache.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestFileTokenCache_CorruptFileDiscarded(t *testing.T) {
	dir := t.TempDir()
	cache := NewFileTokenCache(dir, nil)
	require.NoError(t, os.WriteFile(cache.Path(), []byte("{not json"), 0o600))

	loaded, err := cache.Load()
	require.NoError(t, err, "corrupt cache must be discarded, not fatal")
	assert.Nil(t, loaded)

	// The corrupt file is removed so the next startup is clean.
	assert.NoFileExists(t, cache.Path())
}

func TestFileTokenCache_Clear(t *testing.T) {
	cache := NewFileTokenCache(t.TempDir(), nil)

	// Clearing an empty cache is a no-op.
	require.NoError(t, cache.Clear())

	require.NoError(t, cache.Save(&api.TokenInfo{
		AccessExpiresAt:  time.Now().Add(time.Minute),
		RefreshExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, cache.Clear())
	assert.NoFileExists(t, cache.Path())
}

func TestFileTokenCache_FileMode(t *testing.T) {
	dir := t.TempDir()
	cache := NewFileTokenCache(dir, nil)
	require.NoError(t, cache.Save(&api.TokenInfo{
		AccessExpiresAt:  time.Now(),
		RefreshExpiresAt: time.Now(),
	}))

	fi, err := os.Stat(filepath.Join(dir, "token_cache.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestFileTokenCache_SaveNilClears(t *testing.T) {
	cache := NewFileTokenCache(t.TempDir(), nil)
	require.NoError(t, cache.Save(&api.TokenInfo{
		AccessExpiresAt:  time.Now(),
		RefreshExpiresAt: time.Now(),
	}))

	require.NoError(t, cache.Save(nil))
	assert.NoFileExists(t, cache.Path())
}
