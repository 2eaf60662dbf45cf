// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/taibuivan/quill/internal/platform/constants"
	requestutil "github.com/taibuivan/quill/internal/platform/request"
	"github.com/taibuivan/quill/internal/platform/respond"
	"github.com/taibuivan/quill/internal/platform/router"
	"github.com/taibuivan/quill/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the authentication HTTP endpoints.
//
// # Scope
//
// Sign-up, password and Facebook sign-in, refresh rotation, sign-out and the
// password reset round trip through the client application.
type Handler struct {
	authService  *Service
	lifecycle    *Lifecycle
	resetFlow    *ResetFlow
	facebook     FederatedProvider
	clientOrigin string
}

// NewHandler constructs a new [Handler]. clientOrigin is the front-end base
// URL the reset flow redirects to.
func NewHandler(service *Service, lifecycle *Lifecycle, reset *ResetFlow, clientOrigin string) *Handler {
	return &Handler{
		authService:  service,
		lifecycle:    lifecycle,
		resetFlow:    reset,
		clientOrigin: strings.TrimRight(clientOrigin, "/"),
	}
}

// Routes returns the authentication route table, relative to /api/v1.
func (handler *Handler) Routes() []router.Route {
	return []router.Route{
		{Method: http.MethodPost, Pattern: "/auth/sign-up", Access: router.Public, Handler: handler.signUp},
		{Method: http.MethodPost, Pattern: "/auth/sign-in", Access: router.Public, Handler: handler.signIn},
		{Method: http.MethodGet, Pattern: "/auth/sign-in/facebook", Access: router.Public, Handler: handler.facebookSignIn},
		{Method: http.MethodGet, Pattern: "/auth/sign-in/facebook/redirect", Access: router.Public, Handler: handler.facebookRedirect},
		{Method: http.MethodPost, Pattern: "/auth/refresh", Access: router.RefreshSession, Handler: handler.refresh},
		{Method: http.MethodPost, Pattern: "/auth/sign-out", Access: router.Authenticated, Handler: handler.signOut},
		{Method: http.MethodPost, Pattern: "/auth/sign-out-all", Access: router.Authenticated, Handler: handler.signOutAll},

		{Method: http.MethodGet, Pattern: "/auth/reset-password", Access: router.Public, Handler: handler.openResetLink},
		{Method: http.MethodPost, Pattern: "/auth/reset-password", Access: router.Public, Handler: handler.requestResetLink},
		{Method: http.MethodPost, Pattern: "/auth/reset-password/change", Access: router.Public, Handler: handler.changePassword},
	}
}

// # Request Payloads

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetLinkRequest struct {
	Email string `json:"email"`
}

type newPasswordRequest struct {
	Password string `json:"password"`
}

/*
SignUp enrolls a new identity with the default role.

POST /api/v1/auth/sign-up

Request:
  - Body: credentialsRequest (Email, Password)

Response:
  - 201: User: Created identity
  - 400: VALIDATION_ERROR: Bad email or weak password
  - 409: DUPLICATE_EMAIL
*/
func (handler *Handler) signUp(writer http.ResponseWriter, request *http.Request) {
	var input credentialsRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		Password(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.SignUp(request.Context(), SignUpInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
SignIn checks credentials and opens a new session.

POST /api/v1/auth/sign-in

Description: The access token goes into the body, the refresh token into an
HttpOnly cookie scoped to the auth endpoints. Other sessions stay live.

Response:
  - 200: access_token, token_type, expires_in, user
  - 401: INVALID_CREDENTIALS
*/
func (handler *Handler) signIn(writer http.ResponseWriter, request *http.Request) {
	var input credentialsRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.ValidateCredentials(request.Context(), input.Email, input.Password)
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
	})
}

/*
Refresh rotates the session held in the refresh cookie.

POST /api/v1/auth/refresh

Description: The cookie was verified by the route guard. The presented token
is consumed and a new pair is issued in its place.

Response:
  - 200: access_token, token_type, expires_in
  - 401: TOKEN_INVALID or INVALID_REFRESH_TOKEN
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	claims, presented := requestutil.RefreshSession(request)

	pair, err := handler.lifecycle.Refresh(request.Context(), presented, claims)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, pair.RefreshToken, pair.RefreshMaxAge)

	respond.OK(writer, map[string]any{
		FieldAccessToken: pair.AccessToken,
		FieldTokenType:   pair.TokenType,
		FieldExpiresIn:   pair.ExpiresIn,
	})
}

/*
SignOut ends the session whose refresh token the client holds.

POST /api/v1/auth/sign-out

Response:
  - 204: No Content (also when no refresh cookie was sent)
*/
func (handler *Handler) signOut(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var token string
	if cookie, err := request.Cookie(constants.RefreshTokenCookieName); err == nil {
		token = cookie.Value
	}

	if _, err := handler.lifecycle.SignOut(request.Context(), userID, token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	clearCookie(writer, constants.RefreshTokenCookieName, constants.RefreshTokenCookiePath)
	respond.NoContent(writer)
}

/*
SignOutAll ends every session of the caller.

POST /api/v1/auth/sign-out-all

Response:
  - 204: No Content
*/
func (handler *Handler) signOutAll(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.lifecycle.RevokeAll(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	clearCookie(writer, constants.RefreshTokenCookieName, constants.RefreshTokenCookiePath)
	respond.NoContent(writer)
}

/*
OpenResetLink is the target of the emailed reset link.

GET /api/v1/auth/reset-password?token=

Description: A valid token is moved into a short-lived HttpOnly cookie and
the browser is sent to the client's reset form.

Response:
  - 302: Redirect to <CLIENT_ORIGIN>/auth/reset-password
  - 400: RESET_TOKEN_MALFORMED or RESET_TOKEN_EXPIRED
  - 404: IDENTITY_NOT_FOUND
*/
func (handler *Handler) openResetLink(writer http.ResponseWriter, request *http.Request) {
	token := request.URL.Query().Get(FieldToken)
	if token == "" {
		respond.Error(writer, request, validate.RequiredError(FieldToken, "This field is required"))
		return
	}

	if _, err := handler.resetFlow.ValidateToken(request.Context(), token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.ResetTokenCookieName,
		Value:    token,
		Path:     constants.ResetTokenCookiePath,
		MaxAge:   int(handler.resetFlow.TTL() / time.Second),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(writer, request, handler.clientOrigin+constants.ClientResetPath, http.StatusFound)
}

/*
RequestResetLink mails a password reset link.

POST /api/v1/auth/reset-password

Request:
  - Body: resetLinkRequest (Email)

Response:
  - 200: success, message
  - 404: IDENTITY_NOT_FOUND
*/
func (handler *Handler) requestResetLink(writer http.ResponseWriter, request *http.Request) {
	var input resetLinkRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.resetFlow.RequestLink(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldSuccess: true,
		FieldMessage: "Password reset link send successfully!",
	})
}

/*
ChangePassword completes the reset using the token cookie set by OpenResetLink.

POST /api/v1/auth/reset-password/change

Request:
  - Cookie: reset_token
  - Body: newPasswordRequest (Password)

Response:
  - 303: Redirect to <CLIENT_ORIGIN>/auth/login
  - 400: VALIDATION_ERROR, RESET_TOKEN_MALFORMED or RESET_TOKEN_EXPIRED
  - 404: IDENTITY_NOT_FOUND
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.ResetTokenCookieName)
	if err != nil || cookie.Value == "" {
		respond.Error(writer, request, malformedReset("missing token"))
		return
	}

	var input newPasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldPassword, input.Password).
		Password(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if _, err := handler.resetFlow.SetNewPassword(request.Context(), cookie.Value, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	clearCookie(writer, constants.ResetTokenCookieName, constants.ResetTokenCookiePath)
	http.Redirect(writer, request, handler.clientOrigin+constants.ClientLoginPath, http.StatusSeeOther)
}

// # Cookies

func setRefreshCookie(writer http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    token,
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   maxAge,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearCookie(writer http.ResponseWriter, name, path string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
