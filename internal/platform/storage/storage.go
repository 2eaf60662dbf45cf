// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package storage stores binary objects (avatars) by key.

[S3Storage] talks to any S3-compatible service. [MemoryStorage] keeps
objects in process and backs tests and local runs.
*/
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrObjectNotFound is returned by reads of a key that was never stored.
var ErrObjectNotFound = errors.New("storage: object not found")

// ObjectStorage puts and deletes objects by key.
type ObjectStorage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

// Object is a stored blob as kept by [MemoryStorage].
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryStorage is an in-process [ObjectStorage].
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string]Object)}
}

func (storage *MemoryStorage) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return fmt.Errorf("storage: read object %s: %w", key, err)
	}

	storage.mu.Lock()
	defer storage.mu.Unlock()
	storage.objects[key] = Object{Data: buf.Bytes(), ContentType: contentType}
	return nil
}

func (storage *MemoryStorage) Delete(_ context.Context, key string) error {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	delete(storage.objects, key)
	return nil
}

// Get returns the object stored under key.
func (storage *MemoryStorage) Get(key string) (Object, error) {
	storage.mu.RLock()
	defer storage.mu.RUnlock()
	object, ok := storage.objects[key]
	if !ok {
		return Object{}, ErrObjectNotFound
	}
	return object, nil
}

// Len returns the number of stored objects.
func (storage *MemoryStorage) Len() int {
	storage.mu.RLock()
	defer storage.mu.RUnlock()
	return len(storage.objects)
}
