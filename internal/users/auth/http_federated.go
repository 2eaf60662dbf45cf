// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"net/http"

	"github.com/taibuivan/quill/internal/platform/constants"
	"github.com/taibuivan/quill/internal/platform/federated"
	"github.com/taibuivan/quill/internal/platform/respond"
	"github.com/taibuivan/quill/pkg/uuid"
)

// FederatedProvider runs the OAuth 2.0 authorization code flow of a
// third-party identity provider.
type FederatedProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Identify(ctx context.Context, code string) (*federated.Profile, error)
}

// WithFacebook enables the Facebook sign-in routes. Without it they answer 503.
func (handler *Handler) WithFacebook(provider FederatedProvider) *Handler {
	handler.facebook = provider
	return handler
}

/*
FacebookSignIn sends the browser to the Facebook consent page.

GET /api/v1/auth/sign-in/facebook

Response:
  - 302: Redirect to Facebook, state cookie set
  - 503: SERVICE_UNAVAILABLE
*/
func (handler *Handler) facebookSignIn(writer http.ResponseWriter, request *http.Request) {
	if handler.facebook == nil {
		respond.Error(writer, request, ErrFederationDisabled)
		return
	}

	state := uuid.NewRandom()

	// Lax, so the cookie comes back on the top-level redirect from the provider.
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.FederatedStateCookieName,
		Value:    state,
		Path:     constants.FederatedStateCookiePath,
		MaxAge:   int(constants.FederatedStateTTL.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(writer, request, handler.facebook.AuthCodeURL(state), http.StatusFound)
}

/*
FacebookRedirect completes a Facebook sign-in.

GET /api/v1/auth/sign-in/facebook/redirect?code=&state=

Description: The profile email is matched to an existing identity or a
password-less one is created. A session is then opened exactly as for a
password sign-in.

Response:
  - 200: access_token, token_type, expires_in, user, provider_user_id
  - 400: FEDERATED_STATE_INVALID
  - 401: FEDERATED_SIGN_IN_FAILED
  - 503: SERVICE_UNAVAILABLE
*/
func (handler *Handler) facebookRedirect(writer http.ResponseWriter, request *http.Request) {
	if handler.facebook == nil {
		respond.Error(writer, request, ErrFederationDisabled)
		return
	}

	query := request.URL.Query()
	cookie, err := request.Cookie(constants.FederatedStateCookieName)
	if err != nil || cookie.Value == "" || cookie.Value != query.Get(FieldState) {
		respond.Error(writer, request, ErrFederatedStateInvalid)
		return
	}
	clearCookie(writer, constants.FederatedStateCookieName, constants.FederatedStateCookiePath)

	code := query.Get(FieldCode)
	if code == "" {
		respond.Error(writer, request, ErrFederatedSignInFailed)
		return
	}

	profile, err := handler.facebook.Identify(request.Context(), code)
	if err != nil {
		respond.Error(writer, request, ErrFederatedSignInFailed.WithCause(err))
		return
	}

	user, err := handler.authService.FederatedSignUp(request.Context(), profile.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.lifecycle.SignIn(request.Context(), user)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, pair.RefreshToken, pair.RefreshMaxAge)

	respond.OK(writer, map[string]any{
		FieldAccessToken: pair.AccessToken,
		FieldTokenType:   pair.TokenType,
		FieldExpiresIn:   pair.ExpiresIn,
		FieldUser:        user,
		FieldProviderID:  profile.ProviderUserID,
	})
}
