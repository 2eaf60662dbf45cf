// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/quill/internal/platform/sec"
	"github.com/taibuivan/quill/internal/users/auth"
)

/*
TestSignIn_IssuesPairForIdentity covers the full happy path: sign-up, credential
check, sign-in, and the claims carried by both tokens.
*/
func TestSignIn_IssuesPairForIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.signUp(t, testEmail)

	user, err := f.service.ValidateCredentials(ctx, testEmail, testPassword)
	require.NoError(t, err)

	pair, err := f.lifecycle.SignIn(ctx, user)
	require.NoError(t, err)

	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int(auth.DefaultAccessTokenTTL.Seconds()), pair.ExpiresIn)
	assert.Equal(t, int(auth.DefaultRefreshTokenTTL.Seconds()), pair.RefreshMaxAge)

	accessClaims, err := f.access.VerifyToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, accessClaims.Subject)
	assert.Equal(t, created.ID, accessClaims.UserID)
	assert.Equal(t, testEmail, accessClaims.Email)
	assert.Equal(t, []string{roleUserID}, accessClaims.Roles)

	refreshClaims, err := f.refresh.VerifyToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, refreshClaims.UserID)

	// Only the refresh token is persisted.
	assert.Equal(t, []string{pair.RefreshToken}, f.sessions.Tokens(created.ID))
}

func TestSignIn_TokensAreNotInterchangeable(t *testing.T) {
	f := newFixture(t)
	user := f.signUp(t, testEmail)

	pair, err := f.lifecycle.SignIn(context.Background(), user)
	require.NoError(t, err)

	_, err = f.refresh.VerifyToken(pair.AccessToken)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)

	_, err = f.access.VerifyToken(pair.RefreshToken)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

func TestSignIn_UnknownIdentityPersistsNothing(t *testing.T) {
	f := newFixture(t)

	ghost := &auth.User{ID: "ghost", Email: "ghost@x.com"}
	pair, err := f.lifecycle.SignIn(context.Background(), ghost)

	assert.Nil(t, pair)
	assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
	assert.Empty(t, f.sessions.Tokens("ghost"))
}

/*
TestRefresh_RotatesAndRejectsReplay verifies single-use refresh tokens.
*/
func TestRefresh_RotatesAndRejectsReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.signUp(t, testEmail)

	first, err := f.lifecycle.SignIn(ctx, user)
	require.NoError(t, err)

	claims, err := f.refresh.VerifyToken(first.RefreshToken)
	require.NoError(t, err)

	// 1. Rotation swaps the presented token for the new one
	second, err := f.lifecycle.Refresh(ctx, first.RefreshToken, claims)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, []string{second.RefreshToken}, f.sessions.Tokens(user.ID))

	// 2. The consumed token is still cryptographically valid but no longer live
	_, err = f.lifecycle.Refresh(ctx, first.RefreshToken, claims)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	assert.Equal(t, []string{second.RefreshToken}, f.sessions.Tokens(user.ID))
}

// barrierSessions holds every Contains caller until all expected callers
// have passed the membership check.
type barrierSessions struct {
	*auth.MemorySessionStore
	arrived *sync.WaitGroup
}

func (store barrierSessions) Contains(ctx context.Context, userID, token string) (bool, error) {
	live, err := store.MemorySessionStore.Contains(ctx, userID, token)
	store.arrived.Done()
	store.arrived.Wait()
	return live, err
}

func TestRefresh_ConcurrentReplayYieldsOneSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.signUp(t, testEmail)

	first, err := f.lifecycle.SignIn(ctx, user)
	require.NoError(t, err)

	claims, err := f.refresh.VerifyToken(first.RefreshToken)
	require.NoError(t, err)

	const callers = 2
	arrived := &sync.WaitGroup{}
	arrived.Add(callers)
	gated := barrierSessions{MemorySessionStore: f.sessions, arrived: arrived}
	issuer := auth.NewIssuer(f.access, f.refresh, gated, auth.DefaultAccessTokenTTL, auth.DefaultRefreshTokenTTL)
	lifecycle := auth.NewLifecycle(issuer, gated)

	var wg sync.WaitGroup
	pairs := make([]*auth.TokenPair, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pairs[i], errs[i] = lifecycle.Refresh(ctx, first.RefreshToken, claims)
		}()
	}
	wg.Wait()

	var winners []*auth.TokenPair
	for i := range callers {
		if errs[i] == nil {
			winners = append(winners, pairs[i])
			continue
		}
		assert.ErrorIs(t, errs[i], auth.ErrInvalidRefreshToken)
	}

	require.Len(t, winners, 1)
	assert.Equal(t, []string{winners[0].RefreshToken}, f.sessions.Tokens(user.ID))
}

func TestRefresh_KeepsRoleSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.signUp(t, testEmail)

	pair, err := f.lifecycle.SignIn(ctx, user)
	require.NoError(t, err)

	f.users.setRoles(user.ID, []string{roleUserID, "role-admin"})

	claims, err := f.refresh.VerifyToken(pair.RefreshToken)
	require.NoError(t, err)

	rotated, err := f.lifecycle.Refresh(ctx, pair.RefreshToken, claims)
	require.NoError(t, err)

	accessClaims, err := f.access.VerifyToken(rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, []string{roleUserID}, accessClaims.Roles)
}

func TestRefresh_RejectsNonRefreshClaims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.signUp(t, testEmail)

	pair, err := f.lifecycle.SignIn(ctx, user)
	require.NoError(t, err)

	accessClaims, err := f.access.VerifyToken(pair.AccessToken)
	require.NoError(t, err)

	_, err = f.lifecycle.Refresh(ctx, pair.AccessToken, accessClaims)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)

	_, err = f.lifecycle.Refresh(ctx, pair.RefreshToken, nil)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

/*
TestSessions_AreIndependent verifies that sign-out of one device leaves
the others usable.
*/
func TestSessions_AreIndependent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.signUp(t, testEmail)

	laptop, err := f.lifecycle.SignIn(ctx, user)
	require.NoError(t, err)
	phone, err := f.lifecycle.SignIn(ctx, user)
	require.NoError(t, err)

	assert.NotEqual(t, laptop.RefreshToken, phone.RefreshToken)
	assert.Equal(t, []string{laptop.RefreshToken, phone.RefreshToken}, f.sessions.Tokens(user.ID))

	removed, err := f.lifecycle.SignOut(ctx, user.ID, laptop.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, laptop.RefreshToken, removed)

	claims, err := f.refresh.VerifyToken(phone.RefreshToken)
	require.NoError(t, err)
	_, err = f.lifecycle.Refresh(ctx, phone.RefreshToken, claims)
	assert.NoError(t, err)
}

func TestSignOut_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.signUp(t, testEmail)

	pair, err := f.lifecycle.SignIn(ctx, user)
	require.NoError(t, err)

	_, err = f.lifecycle.SignOut(ctx, user.ID, pair.RefreshToken)
	require.NoError(t, err)
	_, err = f.lifecycle.SignOut(ctx, user.ID, pair.RefreshToken)
	require.NoError(t, err)
	assert.Empty(t, f.sessions.Tokens(user.ID))

	removed, err := f.lifecycle.SignOut(ctx, user.ID, "")
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestRevokeAll_EndsEverySession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.signUp(t, testEmail)

	var pairs []*auth.TokenPair
	for range 3 {
		pair, err := f.lifecycle.SignIn(ctx, user)
		require.NoError(t, err)
		pairs = append(pairs, pair)
	}

	require.NoError(t, f.lifecycle.RevokeAll(ctx, user.ID))
	assert.Empty(t, f.sessions.Tokens(user.ID))

	for _, pair := range pairs {
		claims, err := f.refresh.VerifyToken(pair.RefreshToken)
		require.NoError(t, err)
		_, err = f.lifecycle.Refresh(ctx, pair.RefreshToken, claims)
		assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	}
}

// # Memory Store

func TestMemorySessionStore_ConcurrentAppends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.signUp(t, testEmail)

	const writers = 50
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.sessions.Append(ctx, user.ID, fmt.Sprintf("token-%d", i)))
		}()
	}
	wg.Wait()

	assert.Len(t, f.sessions.Tokens(user.ID), writers)
}

func TestMemorySessionStore_RemovesFirstMatchOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.signUp(t, testEmail)

	for _, token := range []string{"a", "b", "a"} {
		require.NoError(t, f.sessions.Append(ctx, user.ID, token))
	}

	removed, err := f.sessions.Remove(ctx, user.ID, "a")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []string{"b", "a"}, f.sessions.Tokens(user.ID))

	removed, err = f.sessions.Remove(ctx, user.ID, "missing")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, []string{"b", "a"}, f.sessions.Tokens(user.ID))

	err = f.sessions.Append(ctx, "ghost", "x")
	assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
}
