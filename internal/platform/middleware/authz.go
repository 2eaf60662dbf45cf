// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/taibuivan/quill/internal/platform/apperr"
	"github.com/taibuivan/quill/internal/platform/ctxutil"
	"github.com/taibuivan/quill/internal/platform/respond"
	"github.com/taibuivan/quill/internal/platform/sec"
)

// # Token Verification

// TokenVerifier defines the interface needed to verify tokens in middleware.
//
// Access and refresh routes are given different verifiers, each bound to its
// own signing secret.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// ErrTokenInvalid is the client-facing error for any rejected session token.
var ErrTokenInvalid = apperr.New("TOKEN_INVALID", "Invalid or expired token", http.StatusUnauthorized)

// Authenticate extracts and verifies the access token from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, parse and verify the JWT via [TokenVerifier].
//  4. Inject [*sec.AuthClaims] into the request context for downstream use.
//
// A malformed or rejected header never ends the request here. The request
// proceeds as anonymous with the rejection on the context, and [RequireAuth]
// or [Guard.RequireRoles] report it. Public routes and the refresh endpoint
// therefore still work when a client sends an expired access token.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get("Authorization")

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			scheme, tokenStr, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "bearer") || tokenStr == "" {
				rejected := ctxutil.WithAuthRejection(request.Context(), apperr.Unauthorized("Invalid authorization format"))
				next.ServeHTTP(writer, request.WithContext(rejected))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyToken(tokenStr)
			if err != nil {
				rejected := ctxutil.WithAuthRejection(request.Context(), ErrTokenInvalid.WithCause(err))
				next.ServeHTTP(writer, request.WithContext(rejected))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if GetUser(request.Context()) == nil {
			respond.Error(writer, request, unauthenticated(request.Context()))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// unauthenticated explains a missing identity: the recorded token rejection
// when a header was sent, a plain 401 otherwise.
func unauthenticated(ctx context.Context) error {
	if rejection := ctxutil.GetAuthRejection(ctx); rejection != nil {
		return rejection
	}
	return apperr.Unauthorized("Authentication required")
}

// RequireRefreshToken guards the refresh endpoint. The refresh token is read
// from the named cookie, verified with the refresh codec, and placed on the
// context together with its raw string. It does not consult the session
// store; membership is checked by the rotation itself.
func RequireRefreshToken(verifier TokenVerifier, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			cookie, err := request.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				respond.Error(writer, request, ErrTokenInvalid)
				return
			}

			claims, err := verifier.VerifyToken(cookie.Value)
			if err != nil {
				respond.Error(writer, request, ErrTokenInvalid.WithCause(err))
				return
			}

			ctx := ctxutil.WithRefreshSession(request.Context(), claims, cookie.Value)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// # Role Authorization

// RoleResolver maps role ids to their current names. Unknown ids are
// dropped silently.
type RoleResolver interface {
	ResolveNames(ctx context.Context, ids []string) ([]string, error)
}

// Guard decides whether verified claims satisfy a route's role requirement.
//
// Requirements use OR semantics: holding any one of the listed role names is
// enough. Names are looked up at request time from the id snapshot in the
// token, so a renamed role is honoured immediately.
type Guard struct {
	resolver RoleResolver
}

// NewGuard creates a Guard backed by resolver.
func NewGuard(resolver RoleResolver) *Guard {
	return &Guard{resolver: resolver}
}

// Allow reports whether claims satisfy required.
//
//   - No required roles: allowed.
//   - Claims without a roles claim: denied.
//   - Otherwise: allowed iff a resolved name is in required.
func (guard *Guard) Allow(ctx context.Context, claims *sec.AuthClaims, required []string) (bool, error) {
	if len(required) == 0 {
		return true, nil
	}

	if claims == nil || claims.Roles == nil {
		return false, nil
	}

	names, err := guard.resolver.ResolveNames(ctx, claims.Roles)
	if err != nil {
		return false, fmt.Errorf("guard_resolve_roles_failed: %w", err)
	}

	for _, name := range names {
		if slices.Contains(required, name) {
			return true, nil
		}
	}

	return false, nil
}

// RequireRoles blocks requests whose access token holds none of roles.
//
// It implies [RequireAuth]: anonymous requests get 401, authenticated
// requests lacking every listed role get 403.
func (guard *Guard) RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := GetUser(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if claims == nil {
				respond.Error(writer, request, unauthenticated(request.Context()))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			allowed, err := guard.Allow(request.Context(), claims, roles)
			if err != nil {
				respond.Error(writer, request, apperr.Internal(err))
				return
			}

			if !allowed {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// GetUser retrieves the access token [*sec.AuthClaims] from the [context.Context].
// Returns nil if the user is anonymous.
func GetUser(ctx context.Context) *sec.AuthClaims {
	return ctxutil.GetAuthUser(ctx)
}
