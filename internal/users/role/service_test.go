// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package role_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/quill/internal/platform/apperr"
	"github.com/taibuivan/quill/internal/users/role"
)

// # Fakes

type memoryRoles struct {
	mu    sync.Mutex
	roles map[string]role.Role
}

func newMemoryRoles(seed ...role.Role) *memoryRoles {
	repo := &memoryRoles{roles: make(map[string]role.Role)}
	for _, r := range seed {
		repo.roles[r.ID] = r
	}
	return repo
}

func (m *memoryRoles) FindByID(_ context.Context, id string) (*role.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.roles[id]; ok {
		return &r, nil
	}
	return nil, role.ErrRoleNotFound
}

func (m *memoryRoles) FindByName(_ context.Context, name string) (*role.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.roles {
		if r.Name == name {
			return &r, nil
		}
	}
	return nil, role.ErrRoleNotFound
}

func (m *memoryRoles) FindByIDs(_ context.Context, ids []string) ([]*role.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found []*role.Role
	for _, id := range ids {
		if r, ok := m.roles[id]; ok {
			found = append(found, &r)
		}
	}
	return found, nil
}

func (m *memoryRoles) List(_ context.Context) ([]*role.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*role.Role
	for _, r := range m.roles {
		all = append(all, &r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

func (m *memoryRoles) Create(_ context.Context, r *role.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.roles {
		if existing.Name == r.Name {
			return role.ErrDuplicateRole
		}
	}
	r.CreatedAt = time.Now()
	m.roles[r.ID] = *r
	return nil
}

func (m *memoryRoles) Rename(_ context.Context, id, name string) (*role.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[id]
	if !ok {
		return nil, role.ErrRoleNotFound
	}
	r.Name = name
	m.roles[id] = r
	return &r, nil
}

func (m *memoryRoles) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[id]; !ok {
		return role.ErrRoleNotFound
	}
	delete(m.roles, id)
	return nil
}

func (m *memoryRoles) EnsureNames(ctx context.Context, names []string) error {
	for _, name := range names {
		if _, err := m.FindByName(ctx, name); err == nil {
			continue
		}
		if err := m.Create(ctx, &role.Role{ID: "id-" + name, Name: name}); err != nil {
			return err
		}
	}
	return nil
}

type mockUserRoles struct{ mock.Mock }

func (m *mockUserRoles) AddRole(ctx context.Context, userID, roleID string) (bool, error) {
	args := m.Called(ctx, userID, roleID)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRoles) RemoveRole(ctx context.Context, userID, roleID string) error {
	return m.Called(ctx, userID, roleID).Error(0)
}

type mockRevoker struct{ mock.Mock }

func (m *mockRevoker) RevokeAll(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

var (
	adminRole  = role.Role{ID: "r-admin", Name: "admin"}
	userRole   = role.Role{ID: "r-user", Name: "user"}
	ctxMatcher = mock.Anything
)

func newDirectory(users role.UserRoles, sessions role.SessionRevoker) *role.Directory {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return role.NewDirectory(newMemoryRoles(adminRole, userRole), users, sessions, logger)
}

// # Tests

func TestResolveNames(t *testing.T) {
	directory := newDirectory(nil, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		ids  []string
		want []string
	}{
		{"keeps order", []string{"r-user", "r-admin"}, []string{"user", "admin"}},
		{"drops unknown ids", []string{"r-gone", "r-admin"}, []string{"admin"}},
		{"empty", nil, nil},
		{"all unknown", []string{"r-gone"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names, err := directory.ResolveNames(ctx, tt.ids)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestResolveNames_FollowsRename(t *testing.T) {
	directory := newDirectory(nil, nil)
	ctx := context.Background()

	_, err := directory.Rename(ctx, "r-admin", "superuser")
	require.NoError(t, err)

	names, err := directory.ResolveNames(ctx, []string{"r-admin"})
	require.NoError(t, err)
	assert.Equal(t, []string{"superuser"}, names)
}

func TestCatalog(t *testing.T) {
	directory := newDirectory(nil, nil)
	ctx := context.Background()

	created, err := directory.Create(ctx, "  editor ")
	require.NoError(t, err)
	assert.Equal(t, "editor", created.Name)
	assert.NotEmpty(t, created.ID)

	_, err = directory.Create(ctx, "editor")
	assert.ErrorIs(t, err, role.ErrDuplicateRole)

	found, err := directory.FindByName(ctx, "editor")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	id, err := directory.IDByName(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "r-admin", id)

	require.NoError(t, directory.Delete(ctx, created.ID))
	assert.ErrorIs(t, directory.Delete(ctx, created.ID), role.ErrRoleNotFound)

	_, err = directory.FindByName(ctx, "editor")
	assert.ErrorIs(t, err, role.ErrRoleNotFound)

	require.NoError(t, directory.Seed(ctx, "admin", "moderator"))
	all, err := directory.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestAssignToUser(t *testing.T) {
	ctx := context.Background()

	t.Run("grants the role", func(t *testing.T) {
		users := &mockUserRoles{}
		users.On("AddRole", ctxMatcher, "u1", "r-admin").Return(true, nil).Once()

		require.NoError(t, newDirectory(users, nil).AssignToUser(ctx, "r-admin", "u1"))
		users.AssertExpectations(t)
	})

	t.Run("already assigned", func(t *testing.T) {
		users := &mockUserRoles{}
		users.On("AddRole", ctxMatcher, "u1", "r-admin").Return(false, nil).Once()

		err := newDirectory(users, nil).AssignToUser(ctx, "r-admin", "u1")
		assert.ErrorIs(t, err, role.ErrRoleAlreadyAssigned)
		assert.Equal(t, 400, apperr.As(err).HTTPStatus)
	})

	t.Run("unknown role never touches the user", func(t *testing.T) {
		users := &mockUserRoles{}

		err := newDirectory(users, nil).AssignToUser(ctx, "r-gone", "u1")
		assert.ErrorIs(t, err, role.ErrRoleNotFound)
		users.AssertNotCalled(t, "AddRole", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown user", func(t *testing.T) {
		notFound := apperr.NotFound("Account")
		users := &mockUserRoles{}
		users.On("AddRole", ctxMatcher, "ghost", "r-admin").Return(false, notFound).Once()

		err := newDirectory(users, nil).AssignToUser(ctx, "r-admin", "ghost")
		assert.ErrorIs(t, err, notFound)
	})
}

func TestRevokeFromUser_EndsSessions(t *testing.T) {
	ctx := context.Background()

	users := &mockUserRoles{}
	users.On("RemoveRole", ctxMatcher, "u1", "r-admin").Return(nil).Once()
	sessions := &mockRevoker{}
	sessions.On("RevokeAll", ctxMatcher, "u1").Return(nil).Once()

	require.NoError(t, newDirectory(users, sessions).RevokeFromUser(ctx, "r-admin", "u1"))
	users.AssertExpectations(t)
	sessions.AssertExpectations(t)
}

func TestRevokeFromUser_ReportsRevokeFailure(t *testing.T) {
	ctx := context.Background()

	users := &mockUserRoles{}
	users.On("RemoveRole", ctxMatcher, "u1", "r-admin").Return(nil).Once()
	sessions := &mockRevoker{}
	sessions.On("RevokeAll", ctxMatcher, "u1").Return(errors.New("store down")).Once()

	err := newDirectory(users, sessions).RevokeFromUser(ctx, "r-admin", "u1")
	assert.ErrorContains(t, err, "store down")
}
