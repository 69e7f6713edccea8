package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActiveStore(t *testing.T, accessIn, refreshIn time.Duration) (*Store, *memoryTokenCache) {
	t.Helper()
	now := time.Now()
	cache := &memoryTokenCache{}
	store := NewStore(cache)
	store.SetUser(testUser(), tokenInfoAt(now, accessIn, refreshIn))
	return store, cache
}

func TestRefresher_TickHealthyTokenIsNoOp(t *testing.T) {
	store, _ := newActiveStore(t, time.Hour, 7*24*time.Hour)
	client := &fakeAuthClient{}
	r := NewRefresher(RefresherConfig{Store: store, Client: client})

	keepGoing := r.tick(context.Background())

	assert.True(t, keepGoing)
	refresh, _ := client.calls()
	assert.Zero(t, refresh)
	assert.True(t, store.IsAuthenticated())
}

func TestRefresher_TickExpiringSoonRefreshes(t *testing.T) {
	// Access expires inside the 5 minute window.
	store, _ := newActiveStore(t, 3*time.Minute, 7*24*time.Hour)

	fresh := tokenInfoAt(time.Now(), time.Hour, 7*24*time.Hour)
	client := &fakeAuthClient{refreshUser: testUser(), refreshInfo: fresh}

	var logouts int32
	r := NewRefresher(RefresherConfig{
		Store:    store,
		Client:   client,
		OnLogout: func() { atomic.AddInt32(&logouts, 1) },
	})

	keepGoing := r.tick(context.Background())

	assert.True(t, keepGoing)
	assert.Equal(t, fresh, store.TokenInfo())
	assert.True(t, store.IsAuthenticated())
	assert.Zero(t, atomic.LoadInt32(&logouts), "successful refresh must not redirect")
}

func TestRefresher_TickRefreshFailureForcesLogout(t *testing.T) {
	store, cache := newActiveStore(t, 3*time.Minute, 7*24*time.Hour)
	client := &fakeAuthClient{refreshErr: unauthorizedErr()}

	var logouts int32
	r := NewRefresher(RefresherConfig{
		Store:    store,
		Client:   client,
		OnLogout: func() { atomic.AddInt32(&logouts, 1) },
	})

	keepGoing := r.tick(context.Background())

	assert.False(t, keepGoing, "a failed refresh terminates the loop")
	assert.False(t, store.IsAuthenticated())
	assert.Nil(t, store.TokenInfo())
	assert.Equal(t, int32(1), atomic.LoadInt32(&logouts))
	assert.Equal(t, 1, cache.clears)
}

func TestRefresher_TickExpiredRefreshTokenLogsOutWithoutNetwork(t *testing.T) {
	store, _ := newActiveStore(t, -time.Minute, -time.Second)
	client := &fakeAuthClient{}

	var logouts int32
	r := NewRefresher(RefresherConfig{
		Store:    store,
		Client:   client,
		OnLogout: func() { atomic.AddInt32(&logouts, 1) },
	})

	keepGoing := r.tick(context.Background())

	assert.False(t, keepGoing)
	assert.False(t, store.IsAuthenticated())
	refresh, _ := client.calls()
	assert.Zero(t, refresh)
	assert.Equal(t, int32(1), atomic.LoadInt32(&logouts))
}

func TestRefresher_TickAfterExternalLogoutGoesIdle(t *testing.T) {
	store, _ := newActiveStore(t, time.Hour, 7*24*time.Hour)
	store.ClearUser()

	r := NewRefresher(RefresherConfig{Store: store, Client: &fakeAuthClient{}})

	assert.False(t, r.tick(context.Background()))
}

func TestRefresher_StartStopLifecycle(t *testing.T) {
	store, _ := newActiveStore(t, time.Hour, 7*24*time.Hour)
	client := &fakeAuthClient{}
	r := NewRefresher(RefresherConfig{
		Store:    store,
		Client:   client,
		Interval: 10 * time.Millisecond,
	})

	require.False(t, r.Running())

	r.Start(context.Background())
	assert.True(t, r.Running())

	// Let a few ticks fire against a healthy token.
	time.Sleep(50 * time.Millisecond)

	r.Stop()
	assert.False(t, r.Running())

	// No tick may fire after Stop returns.
	refreshBefore, _ := client.calls()
	time.Sleep(30 * time.Millisecond)
	refreshAfter, _ := client.calls()
	assert.Equal(t, refreshBefore, refreshAfter)

	// Stop is idempotent.
	r.Stop()
}

func TestRefresher_RestartReplacesRunningLoop(t *testing.T) {
	store, _ := newActiveStore(t, 3*time.Minute, 7*24*time.Hour)
	fresh := tokenInfoAt(time.Now(), time.Hour, 7*24*time.Hour)
	client := &fakeAuthClient{refreshUser: testUser(), refreshInfo: fresh}

	r := NewRefresher(RefresherConfig{
		Store:    store,
		Client:   client,
		Interval: 20 * time.Millisecond,
	})

	ctx := context.Background()
	r.Start(ctx)
	r.Start(ctx)
	r.Start(ctx)
	assert.True(t, r.Running())

	// One loop, one tick per interval: after ~2 intervals the refresh
	// count stays far below what three stacked timers would produce.
	time.Sleep(50 * time.Millisecond)
	r.Stop()

	refresh, _ := client.calls()
	assert.LessOrEqual(t, refresh, 3)
	assert.Positive(t, refresh)
}

func TestRefresher_ConcurrentStartsLeaveSingleLoop(t *testing.T) {
	store, _ := newActiveStore(t, 3*time.Minute, 7*24*time.Hour)

	// Renewed tokens stay inside the refresh window so every tick of a
	// live loop performs a refresh.
	fresh := tokenInfoAt(time.Now(), 3*time.Minute, 7*24*time.Hour)
	client := &fakeAuthClient{refreshUser: testUser(), refreshInfo: fresh}

	r := NewRefresher(RefresherConfig{
		Store:    store,
		Client:   client,
		Interval: 10 * time.Millisecond,
	})

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Start(ctx)
		}()
	}
	wg.Wait()
	assert.True(t, r.Running())

	r.Stop()
	assert.False(t, r.Running())

	// An orphaned loop would keep refreshing past Stop.
	refreshBefore, _ := client.calls()
	time.Sleep(50 * time.Millisecond)
	refreshAfter, _ := client.calls()
	assert.Equal(t, refreshBefore, refreshAfter)
}

func TestRefresher_SelfTerminatingTickClearsLiveState(t *testing.T) {
	store, _ := newActiveStore(t, -time.Minute, -time.Second)
	r := NewRefresher(RefresherConfig{
		Store:    store,
		Client:   &fakeAuthClient{},
		Interval: 10 * time.Millisecond,
	})

	r.Start(context.Background())

	// The first tick sees the expired refresh token and terminates the loop.
	require.Eventually(t, func() bool { return !r.Running() }, time.Second, 5*time.Millisecond)

	// Stop after self-termination must not block.
	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked after the loop self-terminated")
	}
}

func TestRefresher_ContextCancellationStopsLoop(t *testing.T) {
	store, _ := newActiveStore(t, time.Hour, 7*24*time.Hour)
	r := NewRefresher(RefresherConfig{
		Store:    store,
		Client:   &fakeAuthClient{},
		Interval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	cancel()

	// The loop observes cancellation and exits; Stop still returns.
	time.Sleep(30 * time.Millisecond)
	r.Stop()
	assert.False(t, r.Running())
}
