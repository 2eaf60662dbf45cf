// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/quill/internal/platform/sec"
	"github.com/taibuivan/quill/internal/users/auth"
)

const (
	testIssuer      = "quill-test"
	testAPIURL      = "https://api.test"
	testClient      = "https://app.test"
	roleUserID      = "role-user"
	testEmail       = "a@x.com"
	testPassword    = "Passw0rd!"
	accessSecret    = "access-secret"
	refreshSecret   = "refresh-secret"
	bcryptTestCost  = 4
	testResetWindow = 3 * time.Minute
)

// # Identity Repository

type memoryUsers struct {
	mu   sync.Mutex
	byID map[string]auth.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: make(map[string]auth.User)}
}

func (m *memoryUsers) find(match func(auth.User) bool) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.byID {
		if match(user) {
			found := user
			return &found, nil
		}
	}
	return nil, auth.ErrIdentityNotFound
}

func (m *memoryUsers) FindByID(_ context.Context, id string) (*auth.User, error) {
	return m.find(func(u auth.User) bool { return u.ID == id })
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	return m.find(func(u auth.User) bool { return u.Email == email })
}

func (m *memoryUsers) FindByResetToken(_ context.Context, token string) (*auth.User, error) {
	return m.find(func(u auth.User) bool { return token != "" && u.ResetToken == token })
}

func (m *memoryUsers) Create(_ context.Context, user *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.byID {
		if existing.Email == user.Email {
			return auth.ErrDuplicateEmail
		}
	}
	m.byID[user.ID] = *user
	return nil
}

func (m *memoryUsers) update(userID string, change func(*auth.User) bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.byID[userID]
	if !ok || !change(&user) {
		return auth.ErrIdentityNotFound
	}
	m.byID[userID] = user
	return nil
}

func (m *memoryUsers) SetResetToken(_ context.Context, userID, token string) error {
	return m.update(userID, func(u *auth.User) bool {
		u.ResetToken = token
		return true
	})
}

func (m *memoryUsers) CompletePasswordReset(_ context.Context, userID, token, passwordHash string) error {
	return m.update(userID, func(u *auth.User) bool {
		if u.ResetToken != token {
			return false
		}
		u.PasswordHash = passwordHash
		u.ResetToken = ""
		return true
	})
}

func (m *memoryUsers) setRoles(userID string, roles []string) {
	_ = m.update(userID, func(u *auth.User) bool {
		u.Roles = roles
		return true
	})
}

// # Collaborators

type staticRoles map[string]string

func (roles staticRoles) IDByName(_ context.Context, name string) (string, error) {
	if id, ok := roles[name]; ok {
		return id, nil
	}
	return "", errors.New("role not seeded")
}

type sentLink struct {
	to, link string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentLink
	err  error
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, to, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, sentLink{to: to, link: link})
	return n.err
}

func (n *recordingNotifier) last(t *testing.T) sentLink {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()

	require.NotEmpty(t, n.sent, "no reset link was sent")
	return n.sent[len(n.sent)-1]
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
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

// # Fixture

type fixture struct {
	users     *memoryUsers
	sessions  *auth.MemorySessionStore
	access    *sec.TokenCodec
	refresh   *sec.TokenCodec
	clock     *fakeClock
	notifier  *recordingNotifier
	service   *auth.Service
	lifecycle *auth.Lifecycle
	reset     *auth.ResetFlow
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	access, err := sec.NewTokenCodec(accessSecret, testIssuer, sec.KindAccess)
	require.NoError(t, err)
	refresh, err := sec.NewTokenCodec(refreshSecret, testIssuer, sec.KindRefresh)
	require.NoError(t, err)
	access.WithClock(clock.Now)
	refresh.WithClock(clock.Now)

	users := newMemoryUsers()
	sessions := auth.NewMemorySessionStore(users)
	hasher := sec.NewBcryptHasher(bcryptTestCost)
	notifier := &recordingNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	issuer := auth.NewIssuer(access, refresh, sessions, auth.DefaultAccessTokenTTL, auth.DefaultRefreshTokenTTL)

	return &fixture{
		users:     users,
		sessions:  sessions,
		access:    access,
		refresh:   refresh,
		clock:     clock,
		notifier:  notifier,
		service:   auth.NewService(users, staticRoles{sec.RoleUser: roleUserID}, hasher),
		lifecycle: auth.NewLifecycle(issuer, sessions),
		reset: auth.NewResetFlow(users, hasher, notifier, testResetWindow, testAPIURL, logger).
			WithClock(clock.Now),
	}
}

// signUp enrolls email with testPassword.
func (f *fixture) signUp(t *testing.T, email string) *auth.User {
	t.Helper()

	user, err := f.service.SignUp(context.Background(), auth.SignUpInput{Email: email, Password: testPassword})
	require.NoError(t, err)
	return user
}
