// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"errors"
	"io"
	"net/http"

	"github.com/taibuivan/quill/internal/platform/apperr"
	"github.com/taibuivan/quill/internal/platform/constants"
	requestutil "github.com/taibuivan/quill/internal/platform/request"
	"github.com/taibuivan/quill/internal/platform/respond"
	"github.com/taibuivan/quill/internal/platform/router"
	"github.com/taibuivan/quill/internal/platform/sec"
	"github.com/taibuivan/quill/internal/platform/validate"
	"github.com/taibuivan/quill/internal/users/auth"
	"github.com/taibuivan/quill/pkg/pagination"
)

// multipartOverhead leaves room for boundaries and part headers around the file.
const multipartOverhead = 64 << 10

// Handler implements the HTTP layer for account management.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns the account route table.
func (handler *Handler) Routes() []router.Route {
	admin := []string{sec.RoleAdmin}
	member := []string{sec.RoleUser}

	return []router.Route{
		{Method: http.MethodGet, Pattern: "/users/me", Access: router.Authenticated, Handler: handler.getMe},
		{Method: http.MethodPatch, Pattern: "/users/{id}", Access: router.Authenticated, Handler: handler.updateEmail},

		// Administration
		{Method: http.MethodGet, Pattern: "/users", Roles: admin, Handler: handler.listUsers},
		{Method: http.MethodPost, Pattern: "/users", Roles: admin, Handler: handler.createUser},
		{Method: http.MethodDelete, Pattern: "/users/{id}", Roles: admin, Handler: handler.deleteUser},

		// Avatars
		{Method: http.MethodPost, Pattern: "/users/{id}/avatar", Roles: member, Handler: handler.uploadAvatar},
		{Method: http.MethodDelete, Pattern: "/users/{id}/avatar", Roles: member, Handler: handler.deleteAvatar},
	}
}

// # Profile Endpoints

/*
GET /api/v1/users/me.

Response:
  - 200: User
  - 401: Authentication required
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

type updateEmailRequest struct {
	Email string `json:"email"`
}

/*
PATCH /api/v1/users/{id}.

Response:
  - 200: User
  - 403: Not the caller's own account
  - 409: DUPLICATE_EMAIL
*/
func (handler *Handler) updateEmail(writer http.ResponseWriter, request *http.Request) {
	callerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateEmailRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateEmail(request.Context(), callerID, requestutil.Param(request, FieldID), input.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// # Administration Endpoints

// GET /api/v1/users?page=&limit=
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	users, meta, err := handler.accountService.ListUsers(request.Context(), pagination.FromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, meta)
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/v1/users
func (handler *Handler) createUser(writer http.ResponseWriter, request *http.Request) {
	var input createUserRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(auth.FieldEmail, input.Email).Email(auth.FieldEmail, input.Email)
	validator.Required(auth.FieldPassword, input.Password).Password(auth.FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.CreateUser(request.Context(), auth.SignUpInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

// DELETE /api/v1/users/{id}
func (handler *Handler) deleteUser(writer http.ResponseWriter, request *http.Request) {
	if err := handler.accountService.DeleteUser(request.Context(), requestutil.Param(request, FieldID)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Avatar Endpoints

/*
POST /api/v1/users/{id}/avatar (multipart/form-data, part "file").

Response:
  - 200: User
  - 400: AVATAR_MISSING
  - 403: Not the caller's own account
  - 413: AVATAR_TOO_LARGE
  - 415: AVATAR_UNSUPPORTED
  - 503: Storage not configured
*/
func (handler *Handler) uploadAvatar(writer http.ResponseWriter, request *http.Request) {
	callerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	image, err := readAvatar(writer, request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UploadAvatar(request.Context(), callerID, requestutil.Param(request, FieldID), image)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// DELETE /api/v1/users/{id}/avatar
func (handler *Handler) deleteAvatar(writer http.ResponseWriter, request *http.Request) {
	callerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.DeleteAvatar(request.Context(), callerID, requestutil.Param(request, FieldID))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// readAvatar returns the bytes of the "file" part, reading at most one byte
// past the size limit so the service can reject oversized images.
func readAvatar(writer http.ResponseWriter, request *http.Request) ([]byte, error) {
	request.Body = http.MaxBytesReader(writer, request.Body, constants.MaxAvatarBytes+multipartOverhead)

	file, _, err := request.FormFile(FieldFile)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrMissingFile):
			return nil, ErrAvatarMissing
		case errors.As(err, &tooLarge):
			return nil, ErrAvatarTooLarge
		default:
			return nil, apperr.BadRequest("Invalid multipart form")
		}
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, constants.MaxAvatarBytes+1))
	if err != nil {
		return nil, apperr.BadRequest("Could not read the uploaded file")
	}

	return image, nil
}
