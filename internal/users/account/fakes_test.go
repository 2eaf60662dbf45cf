// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/taibuivan/quill/internal/platform/storage"
	"github.com/taibuivan/quill/internal/users/account"
	"github.com/taibuivan/quill/internal/users/auth"
)

var (
	pngImage  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegImage = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
	webpImage = []byte("RIFF\x24\x00\x00\x00WEBPVP8 ")
)

// # Identity Repository

type memoryAccounts struct {
	mu   sync.Mutex
	byID map[string]auth.User
	seq  int
}

func newMemoryAccounts(users ...auth.User) *memoryAccounts {
	m := &memoryAccounts{byID: make(map[string]auth.User)}
	for _, user := range users {
		m.put(user)
	}
	return m
}

func (m *memoryAccounts) put(user auth.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	user.CreatedAt = time.Unix(int64(m.seq), 0)
	m.byID[user.ID] = user
}

func (m *memoryAccounts) FindByID(_ context.Context, id string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return nil, auth.ErrIdentityNotFound
	}
	return &user, nil
}

func (m *memoryAccounts) List(_ context.Context, limit, offset int) ([]*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]*auth.User, 0, len(m.byID))
	for _, user := range m.byID {
		all = append(all, &user)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset >= len(all) {
		return []*auth.User{}, nil
	}
	return all[offset:min(offset+limit, len(all))], nil
}

func (m *memoryAccounts) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID), nil
}

func (m *memoryAccounts) UpdateEmail(_ context.Context, userID, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, other := range m.byID {
		if id != userID && other.Email == email {
			return nil, auth.ErrDuplicateEmail
		}
	}
	user, ok := m.byID[userID]
	if !ok {
		return nil, auth.ErrIdentityNotFound
	}
	user.Email = email
	m.byID[userID] = user
	return &user, nil
}

func (m *memoryAccounts) SetAvatar(_ context.Context, userID, key string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[userID]
	if !ok {
		return nil, auth.ErrIdentityNotFound
	}
	user.AvatarKey = key
	m.byID[userID] = user
	return &user, nil
}

func (m *memoryAccounts) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[userID]; !ok {
		return auth.ErrIdentityNotFound
	}
	delete(m.byID, userID)
	return nil
}

// # Collaborators

type mockRegistrar struct{ mock.Mock }

func (m *mockRegistrar) SignUp(ctx context.Context, input auth.SignUpInput) (*auth.User, error) {
	args := m.Called(ctx, input)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

type mockRevoker struct{ mock.Mock }

func (m *mockRevoker) RevokeAll(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

// failingStorage rejects every write.
type failingStorage struct{}

func (failingStorage) Put(context.Context, string, io.Reader, int64, string) error {
	return errors.New("bucket unavailable")
}

func (failingStorage) Delete(context.Context, string) error {
	return errors.New("bucket unavailable")
}

// # Fixture

type fixture struct {
	users     *memoryAccounts
	registrar *mockRegistrar
	sessions  *mockRevoker
	avatars   *storage.MemoryStorage
	service   *account.Service
}

func newFixture(t *testing.T, users ...auth.User) *fixture {
	t.Helper()

	f := &fixture{
		users:     newMemoryAccounts(users...),
		registrar: &mockRegistrar{},
		sessions:  &mockRevoker{},
		avatars:   storage.NewMemoryStorage(),
	}
	f.service = account.NewService(f.users, f.registrar, f.sessions, f.avatars, discardLogger())

	t.Cleanup(func() {
		f.registrar.AssertExpectations(t)
		f.sessions.AssertExpectations(t)
	})
	return f
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
