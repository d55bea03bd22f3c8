// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package role

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/cmsrest/internal/platform/middleware"
	requestutil "github.com/taibuivan/cmsrest/internal/platform/request"
	"github.com/taibuivan/cmsrest/internal/platform/respond"
	"github.com/taibuivan/cmsrest/internal/platform/sec"
	"github.com/taibuivan/cmsrest/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for roles and their policies.
type Handler struct {
	service *Service
}

// NewHandler constructs a new role [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router mounted at /api/v1/user/roles.
//
// Published roles are readable by anyone; every mutation requires
// [sec.RoleAdmin].
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listRoles)
	router.Get("/{id}", handler.getRole)
	router.Get("/{id}/policies", handler.listPolicies)

	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(sec.RoleAdmin))

		admin.Post("/", handler.createRole)
		admin.Delete("/{id}", handler.deleteRole)

		// Draft
		admin.Post("/{id}/draft", handler.createDraft)
		admin.Get("/{id}/draft", handler.getDraft)
		admin.Patch("/{id}/draft", handler.updateDraft)
		admin.Delete("/{id}/draft", handler.deleteDraft)
		admin.Post("/{id}/draft/publish", handler.publishDraft)

		// Policies
		admin.Post("/{id}/draft/policies", handler.addPolicy)
		admin.Patch("/{id}/draft/policies/{policyID}", handler.updatePolicy)
		admin.Delete("/{id}/draft/policies/{policyID}", handler.removePolicy)
	})

	return router
}

// # Request Payloads

type policyRequest struct {
	Module      string       `json:"module"`
	Function    string       `json:"function"`
	Limitations []Limitation `json:"limitations"`
}

type roleRequest struct {
	Identifier string          `json:"identifier"`
	Policies   []policyRequest `json:"policies"`
}

type roleUpdateRequest struct {
	Identifier *string `json:"identifier"`
}

type policyUpdateRequest struct {
	Limitations []Limitation `json:"limitations"`
}

// # Role Endpoints

/*
GET /api/v1/user/roles.

Request:
  - page, limit: query parameters

Response:
  - 200: []Role (published) with pagination metadata
*/
func (handler *Handler) listRoles(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	roles, total, err := handler.service.ListRoles(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, roles, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
GET /api/v1/user/roles/{id}.

Request:
  - If-None-Match: string (optional)

Response:
  - 200: Role, ETag header
  - 304: Unchanged since the given tag
*/
func (handler *Handler) getRole(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.service.LoadRole(request.Context(), id, requestutil.IfNoneMatch(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, role.Tag)
	respond.OK(writer, role)
}

func (handler *Handler) listPolicies(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	policies, err := handler.service.ListPolicies(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, policies)
}

/*
POST /api/v1/user/roles.

Description: Creates a new role as a draft.

Request:
  - roleRequest

Response:
  - 201: Role (draft), ETag header
  - 409: Identifier collides with a published role
*/
func (handler *Handler) createRole(writer http.ResponseWriter, request *http.Request) {
	var input roleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	create := RoleCreate{Identifier: input.Identifier}
	for _, policy := range input.Policies {
		create.Policies = append(create.Policies, PolicyCreate(policy))
	}

	draft, err := handler.service.CreateRole(request.Context(), create)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, draft.Tag)
	respond.Created(writer, draft)
}

func (handler *Handler) deleteRole(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteRole(request.Context(), id, requestutil.IfMatch(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Draft Endpoints

/*
POST /api/v1/user/roles/{id}/draft.

Response:
  - 201: Role (draft), ETag header
  - 403: A draft already exists
*/
func (handler *Handler) createDraft(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	draft, err := handler.service.CreateDraft(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, draft.Tag)
	respond.Created(writer, draft)
}

func (handler *Handler) getDraft(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	draft, err := handler.service.LoadDraft(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, draft.Tag)
	respond.OK(writer, draft)
}

/*
PATCH /api/v1/user/roles/{id}/draft.

Request:
  - If-Match: string (optional)
  - identifier: string

Response:
  - 200: Role (draft), ETag header
  - 403: Nothing to update
  - 412: Stale If-Match
*/
func (handler *Handler) updateDraft(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input roleUpdateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	draft, err := handler.service.UpdateDraft(request.Context(), id, RoleUpdate(input), requestutil.IfMatch(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, draft.Tag)
	respond.OK(writer, draft)
}

func (handler *Handler) deleteDraft(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteDraft(request.Context(), id, requestutil.IfMatch(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
POST /api/v1/user/roles/{id}/draft/publish.

Response:
  - 200: Role (published), ETag header
  - 409: Identifier collides with another published role
  - 412: Stale If-Match
*/
func (handler *Handler) publishDraft(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	published, err := handler.service.PublishDraft(request.Context(), id, requestutil.IfMatch(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, published.Tag)
	respond.OK(writer, published)
}

// # Policy Endpoints

func (handler *Handler) addPolicy(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input policyRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	draft, err := handler.service.AddPolicy(request.Context(), id, PolicyCreate(input), requestutil.IfMatch(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, draft.Tag)
	respond.Created(writer, draft)
}

func (handler *Handler) updatePolicy(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	policyID, err := requestutil.Int64(request, "policyID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input policyUpdateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	draft, err := handler.service.UpdatePolicy(request.Context(), id, policyID, PolicyUpdate(input), requestutil.IfMatch(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, draft.Tag)
	respond.OK(writer, draft)
}

func (handler *Handler) removePolicy(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	policyID, err := requestutil.Int64(request, "policyID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	draft, err := handler.service.RemovePolicy(request.Context(), id, policyID, requestutil.IfMatch(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, draft.Tag)
	respond.OK(writer, draft)
}
