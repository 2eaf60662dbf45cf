// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/quill/internal/platform/constants"
	"github.com/taibuivan/quill/internal/platform/middleware"
	"github.com/taibuivan/quill/internal/platform/router"
	"github.com/taibuivan/quill/internal/users/auth"
)

// newTestRouter mounts the auth table under /api/v1 the way the server does.
func newTestRouter(f *fixture) http.Handler {
	handler := auth.NewHandler(f.service, f.lifecycle, f.reset, testClient)
	guards := router.Guards{
		Refresh:       f.refresh,
		RefreshCookie: constants.RefreshTokenCookieName,
	}

	mux := chi.NewRouter()
	mux.Use(middleware.Authenticate(f.access))
	mux.Route("/api/v1", func(api chi.Router) {
		router.Mount(api, guards, handler.Routes()...)
	})
	return mux
}

type call struct {
	method  string
	path    string
	body    string
	bearer  string
	cookies []*http.Cookie
}

func (c call) do(t *testing.T, mux http.Handler) *httptest.ResponseRecorder {
	t.Helper()

	request := httptest.NewRequest(c.method, c.path, strings.NewReader(c.body))
	request.Header.Set("Content-Type", "application/json")
	if c.bearer != "" {
		request.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	for _, cookie := range c.cookies {
		request.AddCookie(cookie)
	}

	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, request)
	return recorder
}

func responseCookie(t *testing.T, recorder *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func decodeData(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope.Data
}

func errorCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope.Code
}

const credentialsBody = `{"email":"a@x.com","password":"Passw0rd!"}`

/*
TestHTTP_SessionFlow walks sign-up, sign-in, refresh, replay and sign-out.
*/
func TestHTTP_SessionFlow(t *testing.T) {
	f := newFixture(t)
	mux := newTestRouter(f)

	// 1. Sign-up
	rec := call{method: http.MethodPost, path: "/api/v1/auth/sign-up", body: credentialsBody}.do(t, mux)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	// 2. Sign-in sets the refresh cookie
	rec = call{method: http.MethodPost, path: "/api/v1/auth/sign-in", body: credentialsBody}.do(t, mux)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := decodeData(t, rec)
	accessToken, _ := data["access_token"].(string)
	require.NotEmpty(t, accessToken)
	assert.Equal(t, "Bearer", data["token_type"])

	refreshCookie := responseCookie(t, rec, constants.RefreshTokenCookieName)
	assert.True(t, refreshCookie.HttpOnly)
	assert.True(t, refreshCookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, refreshCookie.SameSite)
	assert.Equal(t, constants.RefreshTokenCookiePath, refreshCookie.Path)
	assert.Equal(t, int(auth.DefaultRefreshTokenTTL.Seconds()), refreshCookie.MaxAge)

	// 3. Refresh rotates the cookie
	rec = call{method: http.MethodPost, path: "/api/v1/auth/refresh", cookies: []*http.Cookie{refreshCookie}}.do(t, mux)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rotated := responseCookie(t, rec, constants.RefreshTokenCookieName)
	assert.NotEqual(t, refreshCookie.Value, rotated.Value)

	// 4. Replaying the consumed cookie fails
	rec = call{method: http.MethodPost, path: "/api/v1/auth/refresh", cookies: []*http.Cookie{refreshCookie}}.do(t, mux)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_REFRESH_TOKEN", errorCode(t, rec))

	// 5. Sign-out removes the live token and clears the cookie
	rec = call{method: http.MethodPost, path: "/api/v1/auth/sign-out", bearer: accessToken, cookies: []*http.Cookie{rotated}}.do(t, mux)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, -1, responseCookie(t, rec, constants.RefreshTokenCookieName).MaxAge)

	rec = call{method: http.MethodPost, path: "/api/v1/auth/refresh", cookies: []*http.Cookie{rotated}}.do(t, mux)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHTTP_Rejections(t *testing.T) {
	f := newFixture(t)
	mux := newTestRouter(f)
	f.signUp(t, testEmail)

	tests := []struct {
		name     string
		call     call
		wantCode int
		wantErr  string
	}{
		{
			name:     "wrong password",
			call:     call{method: http.MethodPost, path: "/api/v1/auth/sign-in", body: `{"email":"a@x.com","password":"nope"}`},
			wantCode: http.StatusUnauthorized,
			wantErr:  "INVALID_CREDENTIALS",
		},
		{
			name:     "duplicate sign-up",
			call:     call{method: http.MethodPost, path: "/api/v1/auth/sign-up", body: credentialsBody},
			wantCode: http.StatusConflict,
			wantErr:  "DUPLICATE_EMAIL",
		},
		{
			name:     "weak password",
			call:     call{method: http.MethodPost, path: "/api/v1/auth/sign-up", body: `{"email":"b@x.com","password":"password"}`},
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_ERROR",
		},
		{
			name:     "refresh without cookie",
			call:     call{method: http.MethodPost, path: "/api/v1/auth/refresh"},
			wantCode: http.StatusUnauthorized,
			wantErr:  "TOKEN_INVALID",
		},
		{
			name:     "refresh with garbage cookie",
			call:     call{method: http.MethodPost, path: "/api/v1/auth/refresh", cookies: []*http.Cookie{{Name: constants.RefreshTokenCookieName, Value: "garbage"}}},
			wantCode: http.StatusUnauthorized,
			wantErr:  "TOKEN_INVALID",
		},
		{
			name:     "sign-out anonymous",
			call:     call{method: http.MethodPost, path: "/api/v1/auth/sign-out"},
			wantCode: http.StatusUnauthorized,
			wantErr:  "UNAUTHORIZED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.call.do(t, mux)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantErr, errorCode(t, rec))
		})
	}
}

func TestHTTP_AccessTokenCannotRefresh(t *testing.T) {
	f := newFixture(t)
	mux := newTestRouter(f)
	f.signUp(t, testEmail)

	rec := call{method: http.MethodPost, path: "/api/v1/auth/sign-in", body: credentialsBody}.do(t, mux)
	require.Equal(t, http.StatusOK, rec.Code)
	accessToken, _ := decodeData(t, rec)["access_token"].(string)

	forged := &http.Cookie{Name: constants.RefreshTokenCookieName, Value: accessToken}
	rec = call{method: http.MethodPost, path: "/api/v1/auth/refresh", cookies: []*http.Cookie{forged}}.do(t, mux)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

/*
TestHTTP_PasswordResetFlow follows the emailed link through the cookie
hand-off to the final redirect.
*/
func TestHTTP_PasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	mux := newTestRouter(f)
	f.signUp(t, testEmail)

	// 1. Request a link
	rec := call{method: http.MethodPost, path: "/api/v1/auth/reset-password", body: `{"email":"a@x.com"}`}.do(t, mux)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decodeData(t, rec)
	assert.Equal(t, true, data["success"])
	assert.Equal(t, "Password reset link send successfully!", data["message"])

	// 2. Open the link
	link, err := url.Parse(f.notifier.last(t).link)
	require.NoError(t, err)

	rec = call{method: http.MethodGet, path: link.RequestURI()}.do(t, mux)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, testClient+constants.ClientResetPath, rec.Header().Get("Location"))

	resetCookie := responseCookie(t, rec, constants.ResetTokenCookieName)
	assert.True(t, resetCookie.HttpOnly)
	assert.True(t, resetCookie.Secure)
	assert.Equal(t, int(testResetWindow.Seconds()), resetCookie.MaxAge)
	assert.Equal(t, link.Query().Get("token"), resetCookie.Value)

	// 3. Submit the new password
	rec = call{
		method:  http.MethodPost,
		path:    "/api/v1/auth/reset-password/change",
		body:    `{"password":"N3wPassword"}`,
		cookies: []*http.Cookie{resetCookie},
	}.do(t, mux)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, testClient+constants.ClientLoginPath, rec.Header().Get("Location"))
	assert.Equal(t, -1, responseCookie(t, rec, constants.ResetTokenCookieName).MaxAge)

	// 4. The new password signs in
	rec = call{method: http.MethodPost, path: "/api/v1/auth/sign-in", body: `{"email":"a@x.com","password":"N3wPassword"}`}.do(t, mux)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHTTP_PasswordResetRejections(t *testing.T) {
	f := newFixture(t)
	mux := newTestRouter(f)
	f.signUp(t, testEmail)

	rec := call{method: http.MethodPost, path: "/api/v1/auth/reset-password", body: `{"email":"nobody@x.com"}`}.do(t, mux)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "IDENTITY_NOT_FOUND", errorCode(t, rec))

	rec = call{method: http.MethodGet, path: "/api/v1/auth/reset-password?token=unknown"}.do(t, mux)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call{method: http.MethodPost, path: "/api/v1/auth/reset-password/change", body: `{"password":"N3wPassword"}`}.do(t, mux)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "RESET_TOKEN_MALFORMED", errorCode(t, rec))
}
