package session

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/intraworks/workbench/internal/api"
	"github.com/intraworks/workbench/internal/errors"
	"github.com/intraworks/workbench/internal/log"
)

// TokenCache mirrors token expiry metadata into durable storage so it
// survives process restarts.
//
// Implementations must treat corrupted stored values as absent: a cache
// that cannot be parsed is discarded, never fatal.
type TokenCache interface {
	// Load returns the cached token metadata, or (nil, nil) when nothing
	// usable is cached.
	Load() (*api.TokenInfo, error)

	// Save writes the token metadata, replacing any previous value.
	Save(info *api.TokenInfo) error

	// Clear removes the cached metadata. Clearing an empty cache is a no-op.
	Clear() error
}

// FileTokenCache stores token metadata as a JSON file under the user
// config directory.
type FileTokenCache struct {
	path   string
	logger *log.Logger
}

// NewFileTokenCache creates a file-backed token cache in dir.
func NewFileTokenCache(dir string, logger *log.Logger) *FileTokenCache {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &FileTokenCache{
		path:   filepath.Join(dir, "token_cache.json"),
		logger: logger,
	}
}

// Path returns the cache file location.
func (c *FileTokenCache) Path() string {
	return c.path
}

// Load reads the cached token metadata. A missing file and a corrupt file
// both yield (nil, nil); the corrupt case is logged and the file removed
// so the next startup is clean.
func (c *FileTokenCache) Load() (*api.TokenInfo, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.ErrCodeSessionCacheRead, "cannot read token cache", err)
	}

	var info api.TokenInfo
	if err := json.Unmarshal(data, &info); err != nil {
		c.logger.WithError(errors.NewSessionCacheCorruptError(c.path, err)).
			Warn("discarding corrupt token cache")
		_ = os.Remove(c.path)
		return nil, nil
	}

	return &info, nil
}

// Save writes the token metadata with owner-only permissions.
func (c *FileTokenCache) Save(info *api.TokenInfo) error {
	if info == nil {
		return c.Clear()
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeSessionCacheWrite, "cannot create cache directory", err)
	}

	data, err := json.Marshal(info)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSessionCacheWrite, "cannot marshal token metadata", err)
	}

	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeSessionCacheWrite, "cannot write token cache", err)
	}

	return nil
}

// Clear removes the cache file.
func (c *FileTokenCache) Clear() error {
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeSessionCacheWrite, "cannot remove token cache", err)
	}
	return nil
}
