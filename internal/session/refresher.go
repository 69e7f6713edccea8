package session

import (
	"context"
	"sync"
	"time"

	"github.com/intraworks/workbench/internal/log"
)

// Refresher proactively renews the access token while a session is
// active, forcing a logout when renewal is no longer possible.
//
// It is a two-state machine: Active (one ticker goroutine live) and Idle
// (none). Start transitions to Active and is keyed off the
// authenticated-with-token-metadata transition, not off every render; a
// Start while already Active replaces the running loop, so at most one
// ticker is ever live. Stop transitions to Idle and blocks until the
// loop goroutine has exited, so no tick can fire after Stop returns.
type Refresher struct {
	store  *Store
	client AuthClient

	interval time.Duration
	ahead    time.Duration
	onLogout func()
	logger   *log.Logger

	// lifecycle serializes Start and Stop so a replace is atomic and
	// concurrent Starts cannot orphan a loop.
	lifecycle sync.Mutex

	mu       sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
}

// RefresherConfig configures a Refresher.
type RefresherConfig struct {
	Store  *Store
	Client AuthClient

	// Interval is the tick period (default: 2 minutes)
	Interval time.Duration

	// Ahead is how far before expiry a refresh is triggered (default: 5 minutes)
	Ahead time.Duration

	// OnLogout runs after the session is cleared by an expired refresh
	// token or a failed renewal. Invoked at most once per Active period.
	// The TUI uses it to drop back to the login view.
	OnLogout func()

	Logger *log.Logger
}

// NewRefresher creates an idle refresher.
func NewRefresher(cfg RefresherConfig) *Refresher {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Minute
	}
	if cfg.Ahead <= 0 {
		cfg.Ahead = DefaultExpiryMargin
	}
	if cfg.Logger == nil {
		cfg.Logger = log.DefaultLogger()
	}
	if cfg.OnLogout == nil {
		cfg.OnLogout = func() {}
	}

	return &Refresher{
		store:    cfg.Store,
		client:   cfg.Client,
		interval: cfg.Interval,
		ahead:    cfg.Ahead,
		onLogout: cfg.OnLogout,
		logger:   cfg.Logger,
	}
}

// Start launches the refresh loop, replacing any loop already running.
// The loop exits on Stop, on ctx cancellation, and on any tick that
// resolves to a logout.
func (r *Refresher) Start(ctx context.Context) {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.stop()

	r.mu.Lock()
	stopChan := make(chan struct{})
	done := make(chan struct{})
	r.stopChan = stopChan
	r.done = done
	r.mu.Unlock()

	go r.run(ctx, stopChan, done)
}

// Stop cancels the running loop and waits for it to exit. Safe to call
// when idle and safe to call repeatedly.
func (r *Refresher) Stop() {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.stop()
}

func (r *Refresher) stop() {
	r.mu.Lock()
	stopChan := r.stopChan
	done := r.done
	r.stopChan = nil
	r.done = nil
	r.mu.Unlock()

	if stopChan == nil {
		return
	}

	close(stopChan)
	<-done
}

// Running reports whether a refresh loop is live.
func (r *Refresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopChan != nil
}

func (r *Refresher) run(ctx context.Context, stopChan <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	r.logger.Debug("refresh loop started", "interval", r.interval.String())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !r.tick(ctx) {
				r.clearLive()
				return
			}
		case <-stopChan:
			r.logger.Debug("refresh loop stopped")
			return
		case <-ctx.Done():
			r.logger.Debug("refresh loop cancelled")
			return
		}
	}
}

// tick performs one refresh check. Returns false when the loop must stop.
func (r *Refresher) tick(ctx context.Context) bool {
	// Logged out through another path (explicit logout, CLI): go idle
	// without touching the store again.
	if !r.store.IsAuthenticated() {
		return false
	}

	if r.store.RefreshTokenExpired() {
		r.logger.Warn("refresh token expired, forcing logout")
		r.store.ClearUser()
		r.onLogout()
		return false
	}

	if !r.store.TokenExpiringSoon(r.ahead) {
		r.logger.Debug("access token healthy")
		return true
	}

	_, tokenInfo, err := r.client.RefreshToken(ctx)
	if err != nil {
		// Fail closed: a failed renewal is an expired session, not a retry.
		r.logger.WithError(err).Warn("token refresh failed, forcing logout")
		r.store.ClearUser()
		r.onLogout()
		return false
	}

	r.store.UpdateTokenInfo(tokenInfo)
	r.logger.Debug("access token refreshed",
		"access_expires_at", tokenInfo.AccessExpiresAt.Format(time.RFC3339))
	return true
}

// clearLive marks the refresher idle after a self-terminating tick, so a
// later Stop does not block on an already-finished loop.
func (r *Refresher) clearLive() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopChan = nil
	r.done = nil
}
