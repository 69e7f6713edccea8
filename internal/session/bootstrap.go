package session

import (
	"context"

	"github.com/intraworks/workbench/internal/api"
	"github.com/intraworks/workbench/internal/log"
)

// AuthClient is the slice of the API client the session subsystem needs.
type AuthClient interface {
	// RefreshToken silently renews the access token using the refresh
	// cookie, returning the user and fresh token metadata.
	RefreshToken(ctx context.Context) (*api.User, *api.TokenInfo, error)

	// GetCurrentUser returns the user bound to the current session cookie,
	// failing with unauthorized when none exists.
	GetCurrentUser(ctx context.Context) (*api.User, error)
}

// Bootstrap determines the initial authentication state. It runs exactly
// once per process, before the UI renders anything gated on the session.
//
// Decision order:
//  1. Restore persisted token metadata; corrupt values count as absent.
//  2. Restored metadata with an expired refresh token: logged out, and no
//     network call is attempted.
//  3. Access token expired, or no metadata at all: try a silent refresh.
//  4. Otherwise the access token still looks valid: fetch the current
//     user. The server's 401 is authoritative over locally computed
//     expiry, so an unauthorized answer here still means logged out.
//
// Every failure resolves to the logged-out state; errors are logged, never
// propagated. The loading flag is guaranteed false on return.
func Bootstrap(ctx context.Context, store *Store, client AuthClient, logger *log.Logger) bool {
	if logger == nil {
		logger = log.DefaultLogger()
	}

	store.SetLoading(true)
	defer store.SetLoading(false)

	restored := store.restoreTokenInfo()

	if restored != nil && store.RefreshTokenExpired() {
		logger.Debug("bootstrap: refresh token expired, starting logged out")
		store.ClearUser()
		return false
	}

	if store.AccessTokenExpired() {
		user, tokenInfo, err := client.RefreshToken(ctx)
		if err != nil {
			logger.WithError(err).Debug("bootstrap: silent refresh failed, starting logged out")
			store.ClearUser()
			return false
		}
		store.SetUser(user, tokenInfo)
		logger.Info("bootstrap: session refreshed", "user_id", user.ID)
		return true
	}

	user, err := client.GetCurrentUser(ctx)
	if err != nil {
		logger.WithError(err).Debug("bootstrap: current user lookup failed, starting logged out")
		store.ClearUser()
		return false
	}

	// Token metadata was already restored above; keep it.
	store.SetUser(user, nil)
	logger.Info("bootstrap: session restored", "user_id", user.ID)
	return true
}
