// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package router mounts declarative route tables onto a chi router.

Every domain handler publishes its endpoints as a []Route. Each entry names
the access mode and the role names it requires, so the whole authorization
surface of a package can be read from one table instead of being spread over
nested router groups.
*/
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/quill/internal/platform/middleware"
)

// Access selects which credential a route expects.
type Access int

const (
	// Public routes accept anonymous requests.
	Public Access = iota

	// Authenticated routes require a valid access token.
	Authenticated

	// RefreshSession routes require a valid refresh token cookie.
	RefreshSession
)

// Route is one row of a route table.
type Route struct {
	Method  string
	Pattern string
	Access  Access
	// Roles lists role names, any one of which grants access. Implies Authenticated.
	Roles   []string
	Handler http.HandlerFunc
}

// Guards bundles what [Mount] needs to enforce each access mode.
type Guards struct {
	Roles         *middleware.Guard
	Refresh       middleware.TokenVerifier
	RefreshCookie string
}

// Mount registers routes on r, wrapping each handler with the middleware its
// access mode demands.
func Mount(r chi.Router, guards Guards, routes ...Route) {
	for _, route := range routes {
		var chain []func(http.Handler) http.Handler

		access := route.Access
		if len(route.Roles) > 0 && access == Public {
			access = Authenticated
		}

		switch access {
		case Authenticated:
			chain = append(chain, middleware.RequireAuth)
			if len(route.Roles) > 0 {
				chain = append(chain, guards.Roles.RequireRoles(route.Roles...))
			}
		case RefreshSession:
			chain = append(chain, middleware.RequireRefreshToken(guards.Refresh, guards.RefreshCookie))
		}

		r.With(chain...).Method(route.Method, route.Pattern, route.Handler)
	}
}
