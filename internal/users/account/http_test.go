// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/quill/internal/platform/middleware"
	"github.com/taibuivan/quill/internal/platform/router"
	"github.com/taibuivan/quill/internal/platform/sec"
	"github.com/taibuivan/quill/internal/users/account"
	"github.com/taibuivan/quill/internal/users/auth"
)

type staticRoles map[string]string

func (roles staticRoles) ResolveNames(_ context.Context, ids []string) ([]string, error) {
	var names []string
	for _, id := range ids {
		if name, ok := roles[id]; ok {
			names = append(names, name)
		}
	}
	return names, nil
}

type accountServer struct {
	*fixture
	mux   http.Handler
	codec *sec.TokenCodec
}

func newAccountServer(t *testing.T, users ...auth.User) *accountServer {
	t.Helper()

	codec, err := sec.NewTokenCodec("access-secret", "quill-test", sec.KindAccess)
	require.NoError(t, err)

	f := newFixture(t, users...)
	guard := middleware.NewGuard(staticRoles{"r-user": sec.RoleUser, "r-admin": sec.RoleAdmin})

	mux := chi.NewRouter()
	mux.Use(middleware.Authenticate(codec))
	mux.Route("/api/v1", func(api chi.Router) {
		router.Mount(api, router.Guards{Roles: guard}, account.NewHandler(f.service).Routes()...)
	})

	return &accountServer{fixture: f, mux: mux, codec: codec}
}

func (s *accountServer) token(t *testing.T, userID string, roleIDs ...string) string {
	t.Helper()
	token, err := s.codec.Sign(sec.Payload{UserID: userID, Email: userID + "@x.com", Roles: roleIDs}, time.Minute)
	require.NoError(t, err)
	return token
}

func (s *accountServer) do(request *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	s.mux.ServeHTTP(recorder, request)
	return recorder
}

func (s *accountServer) json(method, path, body, token string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(method, path, strings.NewReader(body)), token)
}

func avatarRequest(t *testing.T, path string, image []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if image != nil {
		part, err := form.CreateFormFile(account.FieldFile, "avatar.bin")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, form.Close())

	request := httptest.NewRequest(http.MethodPost, path, &body)
	request.Header.Set("Content-Type", form.FormDataContentType())
	return request
}

func TestHTTP_Profile(t *testing.T) {
	s := newAccountServer(t, auth.User{ID: "u1", Email: "u1@x.com", Roles: []string{"r-user"}})

	rec := s.json(http.MethodGet, "/api/v1/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.json(http.MethodGet, "/api/v1/users/me", "", s.token(t, "u1", "r-user"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"u1@x.com"`)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestHTTP_UpdateEmail(t *testing.T) {
	s := newAccountServer(t,
		auth.User{ID: "u1", Email: "u1@x.com"},
		auth.User{ID: "u2", Email: "u2@x.com"},
	)
	token := s.token(t, "u1", "r-user")

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"own account", "/api/v1/users/u1", `{"email":"fresh@x.com"}`, http.StatusOK},
		{"someone else's", "/api/v1/users/u2", `{"email":"other@x.com"}`, http.StatusForbidden},
		{"taken", "/api/v1/users/u1", `{"email":"u2@x.com"}`, http.StatusConflict},
		{"invalid email", "/api/v1/users/u1", `{"email":"nope"}`, http.StatusBadRequest},
		{"bad json", "/api/v1/users/u1", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.json(http.MethodPatch, tt.path, tt.body, token)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestHTTP_AdministrationRequiresAdmin(t *testing.T) {
	s := newAccountServer(t, auth.User{ID: "u1", Email: "u1@x.com"})
	user := s.token(t, "u1", "r-user")
	admin := s.token(t, "root", "r-admin")

	rec := s.json(http.MethodGet, "/api/v1/users", "", user)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.json(http.MethodGet, "/api/v1/users?page=1&limit=10", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)

	rec = s.json(http.MethodDelete, "/api/v1/users/u1", "", user)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	s.sessions.On("RevokeAll", mock.Anything, "u1").Return(nil).Once()
	rec = s.json(http.MethodDelete, "/api/v1/users/u1", "", admin)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.json(http.MethodDelete, "/api/v1/users/u1", "", admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTP_CreateUser(t *testing.T) {
	s := newAccountServer(t)
	admin := s.token(t, "root", "r-admin")

	input := auth.SignUpInput{Email: "new@x.com", Password: "Passw0rd!"}
	s.registrar.On("SignUp", mock.Anything, input).Return(&auth.User{ID: "n1", Email: "new@x.com"}, nil).Once()

	rec := s.json(http.MethodPost, "/api/v1/users", `{"email":"new@x.com","password":"Passw0rd!"}`, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"id":"n1"`)

	rec = s.json(http.MethodPost, "/api/v1/users", `{"email":"new@x.com","password":"short"}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTP_Avatar(t *testing.T) {
	s := newAccountServer(t, auth.User{ID: "u1", Email: "u1@x.com"})
	token := s.token(t, "u1", "r-user")

	rec := s.do(avatarRequest(t, "/api/v1/users/u1/avatar", pngImage), token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"avatar_key":"avatars/u1/`)
	assert.Equal(t, 1, s.avatars.Len())

	rec = s.do(avatarRequest(t, "/api/v1/users/u1/avatar", nil), token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "AVATAR_MISSING")

	rec = s.do(avatarRequest(t, "/api/v1/users/u1/avatar", []byte("plain text")), token)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = s.do(avatarRequest(t, "/api/v1/users/u2/avatar", pngImage), token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(avatarRequest(t, "/api/v1/users/u1/avatar", pngImage), s.token(t, "u1"))
	assert.Equal(t, http.StatusForbidden, rec.Code, "no roles claim")

	rec = s.json(http.MethodDelete, "/api/v1/users/u1/avatar", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, s.avatars.Len())

	rec = s.json(http.MethodDelete, "/api/v1/users/u1/avatar", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
