package session

import (
	"context"
	"sync"
	"time"

	"github.com/intraworks/workbench/internal/api"
	"github.com/intraworks/workbench/internal/errors"
)

// memoryTokenCache is an in-memory TokenCache for tests.
type memoryTokenCache struct {
	mu     sync.Mutex
	info   *api.TokenInfo
	saves  int
	clears int
}

func (m *memoryTokenCache) Load() (*api.TokenInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.info, nil
}

func (m *memoryTokenCache) Save(info *api.TokenInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.info = info
	m.saves++
	return nil
}

func (m *memoryTokenCache) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.info = nil
	m.clears++
	return nil
}

// fakeAuthClient counts calls and returns canned answers.
type fakeAuthClient struct {
	mu sync.Mutex

	refreshUser  *api.User
	refreshInfo  *api.TokenInfo
	refreshErr   error
	refreshCalls int

	currentUser  *api.User
	currentErr   error
	currentCalls int
}

func (f *fakeAuthClient) RefreshToken(ctx context.Context) (*api.User, *api.TokenInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	if f.refreshErr != nil {
		return nil, nil, f.refreshErr
	}
	return f.refreshUser, f.refreshInfo, nil
}

func (f *fakeAuthClient) GetCurrentUser(ctx context.Context) (*api.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentCalls++
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	return f.currentUser, nil
}

func (f *fakeAuthClient) calls() (refresh, current int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls, f.currentCalls
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testUser() *api.User {
	return &api.User{
		ID:   "u-1",
		Name: "Test User",
		Role: "member",
		Permissions: []api.Permission{
			{BoardID: "b1", CanRead: true, CanWrite: true, CanDelete: false},
			{BoardID: "b2", CanRead: true, CanWrite: false, CanDelete: false},
		},
	}
}

func tokenInfoAt(now time.Time, accessIn, refreshIn time.Duration) *api.TokenInfo {
	return &api.TokenInfo{
		AccessExpiresAt:  now.Add(accessIn),
		RefreshExpiresAt: now.Add(refreshIn),
	}
}

func unauthorizedErr() error {
	return errors.NewUnauthorizedError()
}
