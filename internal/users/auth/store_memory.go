// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"slices"
	"sync"
)

// MemorySessionStore is a process-local [SessionStore] for development and tests.
// A single mutex serializes all operations.
type MemorySessionStore struct {
	mu     sync.Mutex
	users  UserLookup
	tokens map[string][]string
}

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore(users UserLookup) *MemorySessionStore {
	return &MemorySessionStore{users: users, tokens: make(map[string][]string)}
}

// Append adds token to the end of the identity's list.
func (store *MemorySessionStore) Append(context context.Context, userID, token string) error {
	if _, err := store.users.FindByID(context, userID); err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	store.tokens[userID] = append(store.tokens[userID], token)
	return nil
}

// Remove drops the first occurrence of token.
func (store *MemorySessionStore) Remove(_ context.Context, userID, token string) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	list := store.tokens[userID]
	index := slices.Index(list, token)
	if index < 0 {
		return false, nil
	}

	store.tokens[userID] = slices.Delete(list, index, index+1)
	return true, nil
}

// Contains reports whether token is in the identity's list.
func (store *MemorySessionStore) Contains(_ context.Context, userID, token string) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	return slices.Contains(store.tokens[userID], token), nil
}

// RemoveAll forgets every token of the identity.
func (store *MemorySessionStore) RemoveAll(_ context.Context, userID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.tokens, userID)
	return nil
}

// Tokens returns a copy of the identity's live tokens, oldest first.
func (store *MemorySessionStore) Tokens(userID string) []string {
	store.mu.Lock()
	defer store.mu.Unlock()

	return slices.Clone(store.tokens[userID])
}
