// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/quill/internal/platform/ctxkey"
	"github.com/taibuivan/quill/internal/platform/sec"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// WithAuthUser returns a new context with verified access token claims attached.
func WithAuthUser(ctx context.Context, user *sec.AuthClaims) context.Context {
	return context.WithValue(ctx, ctxkey.KeyUser, user)
}

// GetAuthUser retrieves the access token [*sec.AuthClaims] from the [context.Context].
func GetAuthUser(ctx context.Context) *sec.AuthClaims {
	claims, ok := ctx.Value(ctxkey.KeyUser).(*sec.AuthClaims)
	if !ok {
		return nil
	}
	return claims
}

// WithAuthRejection records why a presented access token was not accepted.
// The request continues as anonymous.
func WithAuthRejection(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, ctxkey.KeyAuthRejection, err)
}

// GetAuthRejection returns the error recorded by [WithAuthRejection], if any.
func GetAuthRejection(ctx context.Context) error {
	err, _ := ctx.Value(ctxkey.KeyAuthRejection).(error)
	return err
}

// # Refresh Session

// WithRefreshSession attaches a verified refresh token and its claims.
func WithRefreshSession(ctx context.Context, claims *sec.AuthClaims, token string) context.Context {
	ctx = context.WithValue(ctx, ctxkey.KeyRefresh, claims)
	return context.WithValue(ctx, ctxkey.KeyRefreshToken, token)
}

// GetRefreshSession returns the refresh claims and raw token placed by the
// refresh guard. Claims are nil when the request did not pass through it.
func GetRefreshSession(ctx context.Context) (*sec.AuthClaims, string) {
	claims, _ := ctx.Value(ctxkey.KeyRefresh).(*sec.AuthClaims)
	token, _ := ctx.Value(ctxkey.KeyRefreshToken).(string)
	return claims, token
}
