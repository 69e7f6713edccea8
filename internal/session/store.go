// Package session implements the client-side session lifecycle: the
// in-memory session store, durable token-expiry persistence, the startup
// bootstrap sequence, and the background token refresher.
//
// The store is the single shared mutable resource of the client. All
// session mutations flow through its methods; the TUI event loop, CLI
// commands, and the refresher goroutine only ever observe it through its
// queries.
package session

import (
	"sync"
	"time"

	"github.com/intraworks/workbench/internal/api"
	"github.com/intraworks/workbench/internal/log"
)

// BoardAction is a capability checked against a user's board permissions.
type BoardAction string

// Board actions
const (
	ActionRead   BoardAction = "read"
	ActionWrite  BoardAction = "write"
	ActionDelete BoardAction = "delete"
)

// DefaultExpiryMargin is how far before access token expiry the token is
// considered "expiring soon".
const DefaultExpiryMargin = 5 * time.Minute

// Store holds the current session. It is created loading, populated by
// Bootstrap or an explicit login, and cleared by logout, refresh-token
// expiry, or refresh failure.
//
// A nil tokenInfo is treated as expired by every expiry predicate, so an
// unknown token state always fails closed.
type Store struct {
	mu sync.RWMutex

	user          *api.User
	authenticated bool
	loading       bool
	tokenInfo     *api.TokenInfo

	cache  TokenCache
	logger *log.Logger
	now    func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock injects the time source. Tests use this to pin "now".
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithStoreLogger sets the store logger.
func WithStoreLogger(logger *log.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an empty session store in the loading state.
// cache receives every token metadata update and is cleared on logout.
func NewStore(cache TokenCache, opts ...StoreOption) *Store {
	s := &Store{
		loading: true,
		cache:   cache,
		logger:  log.DefaultLogger(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SetUser sets the current user and marks the session authenticated.
// A non-nil tokenInfo replaces the current metadata and is persisted;
// a nil tokenInfo leaves existing metadata in place (the restore path,
// where the metadata predates the user).
func (s *Store) SetUser(user *api.User, tokenInfo *api.TokenInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = user
	s.authenticated = user != nil
	s.loading = false

	if tokenInfo != nil {
		s.tokenInfo = tokenInfo
		s.persistLocked(tokenInfo)
	}
}

// ClearUser resets the session to logged out: no user, no token metadata,
// not loading. The persisted token cache is erased together with the user.
func (s *Store) ClearUser() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.authenticated = false
	s.loading = false
	s.tokenInfo = nil

	if s.cache != nil {
		if err := s.cache.Clear(); err != nil {
			s.logger.WithError(err).Warn("failed to clear token cache")
		}
	}
}

// SetLoading sets the loading flag. The UI blocks rendering while true.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// UpdateTokenInfo replaces the token metadata and persists it.
// User and authentication state are untouched.
func (s *Store) UpdateTokenInfo(tokenInfo *api.TokenInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokenInfo = tokenInfo
	s.persistLocked(tokenInfo)
}

// restoreTokenInfo loads persisted metadata into the store without writing
// it back. Returns the restored value, nil when nothing usable is cached.
func (s *Store) restoreTokenInfo() *api.TokenInfo {
	if s.cache == nil {
		return nil
	}

	info, err := s.cache.Load()
	if err != nil {
		s.logger.WithError(err).Warn("failed to restore token cache")
		return nil
	}
	if info == nil {
		return nil
	}

	s.mu.Lock()
	s.tokenInfo = info
	s.mu.Unlock()

	return info
}

// persistLocked mirrors tokenInfo into the cache. Callers hold s.mu.
func (s *Store) persistLocked(tokenInfo *api.TokenInfo) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Save(tokenInfo); err != nil {
		s.logger.WithError(err).Warn("failed to persist token metadata")
	}
}

// User returns the current user, nil when logged out.
func (s *Store) User() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// UserID returns the current user's ID, empty when logged out.
func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

// UserName returns the current user's display name, empty when logged out.
func (s *Store) UserName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.Name
}

// Role returns the current user's role, empty when logged out.
func (s *Store) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.Role
}

// IsAdmin reports whether the current user has the admin role.
func (s *Store) IsAdmin() bool {
	return s.Role() == "admin"
}

// IsAuthenticated reports whether a user is logged in.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// IsLoading reports whether the bootstrap phase is still running.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// TokenInfo returns the current token metadata, nil when unknown.
func (s *Store) TokenInfo() *api.TokenInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokenInfo
}

// AccessTokenExpired reports whether the access token has lapsed.
// Unknown metadata counts as expired.
func (s *Store) AccessTokenExpired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tokenInfo == nil {
		return true
	}
	return !s.now().Before(s.tokenInfo.AccessExpiresAt)
}

// RefreshTokenExpired reports whether the refresh token has lapsed.
// Unknown metadata counts as expired.
func (s *Store) RefreshTokenExpired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tokenInfo == nil {
		return true
	}
	return !s.now().Before(s.tokenInfo.RefreshExpiresAt)
}

// TokenExpiringSoon reports whether the access token expires within the
// given margin. A zero or negative margin uses DefaultExpiryMargin.
// Unknown metadata counts as expiring.
func (s *Store) TokenExpiringSoon(within time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tokenInfo == nil {
		return true
	}
	if within <= 0 {
		within = DefaultExpiryMargin
	}
	return !s.now().Before(s.tokenInfo.AccessExpiresAt.Add(-within))
}

// CanAccessBoard reports whether the current user holds the given
// capability on a board. False on no user, no permissions, an unknown
// board, or an unknown action.
func (s *Store) CanAccessBoard(boardID string, action BoardAction) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return false
	}

	for _, p := range s.user.Permissions {
		if p.BoardID != boardID {
			continue
		}
		switch action {
		case ActionRead:
			return p.CanRead
		case ActionWrite:
			return p.CanWrite
		case ActionDelete:
			return p.CanDelete
		default:
			return false
		}
	}

	return false
}
