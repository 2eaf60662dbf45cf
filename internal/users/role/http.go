// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package role

import (
	"net/http"

	requestutil "github.com/taibuivan/quill/internal/platform/request"
	"github.com/taibuivan/quill/internal/platform/respond"
	"github.com/taibuivan/quill/internal/platform/router"
	"github.com/taibuivan/quill/internal/platform/sec"
	"github.com/taibuivan/quill/internal/platform/validate"
)

// Handler exposes the role catalog to administrators.
type Handler struct {
	directory *Directory
}

// NewHandler constructs a new [Handler].
func NewHandler(directory *Directory) *Handler {
	return &Handler{directory: directory}
}

// Routes returns the role route table. Every route requires the admin role.
func (handler *Handler) Routes() []router.Route {
	admin := []string{sec.RoleAdmin}

	return []router.Route{
		{Method: http.MethodGet, Pattern: "/roles", Roles: admin, Handler: handler.list},
		{Method: http.MethodGet, Pattern: "/roles/lookup", Roles: admin, Handler: handler.lookup},
		{Method: http.MethodPost, Pattern: "/roles", Roles: admin, Handler: handler.create},
		{Method: http.MethodPatch, Pattern: "/roles/{id}", Roles: admin, Handler: handler.rename},
		{Method: http.MethodDelete, Pattern: "/roles/{id}", Roles: admin, Handler: handler.delete},

		{Method: http.MethodPost, Pattern: "/users/{id}/roles/{roleID}", Roles: admin, Handler: handler.assign},
		{Method: http.MethodDelete, Pattern: "/users/{id}/roles/{roleID}", Roles: admin, Handler: handler.revoke},
	}
}

type roleRequest struct {
	Name string `json:"name"`
}

func (input roleRequest) validate() error {
	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).MaxLen(FieldName, input.Name, MaxNameLen)
	return validator.Err()
}

// GET /api/v1/roles
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	roles, err := handler.directory.List(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, roles)
}

// GET /api/v1/roles/lookup?name=
func (handler *Handler) lookup(writer http.ResponseWriter, request *http.Request) {
	name := request.URL.Query().Get(FieldName)
	if name == "" {
		respond.Error(writer, request, validate.RequiredError(FieldName, "This field is required"))
		return
	}

	role, err := handler.directory.FindByName(request.Context(), name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, role)
}

/*
Create adds a role.

POST /api/v1/roles

Response:
  - 201: Role
  - 409: DUPLICATE_ROLE
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input roleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := input.validate(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.directory.Create(request.Context(), input.Name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, role)
}

// PATCH /api/v1/roles/{id}
func (handler *Handler) rename(writer http.ResponseWriter, request *http.Request) {
	var input roleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := input.validate(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.directory.Rename(request.Context(), requestutil.Param(request, FieldID), input.Name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, role)
}

// DELETE /api/v1/roles/{id}
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	if err := handler.directory.Delete(request.Context(), requestutil.Param(request, FieldID)); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
Assign grants a role to a user.

POST /api/v1/users/{id}/roles/{roleID}

Response:
  - 204: No Content
  - 400: ROLE_ALREADY_ASSIGNED
  - 404: ROLE_NOT_FOUND or IDENTITY_NOT_FOUND
*/
func (handler *Handler) assign(writer http.ResponseWriter, request *http.Request) {
	err := handler.directory.AssignToUser(request.Context(),
		requestutil.Param(request, FieldRoleID),
		requestutil.Param(request, FieldID),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// DELETE /api/v1/users/{id}/roles/{roleID}
func (handler *Handler) revoke(writer http.ResponseWriter, request *http.Request) {
	err := handler.directory.RevokeFromUser(request.Context(),
		requestutil.Param(request, FieldRoleID),
		requestutil.Param(request, FieldID),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
