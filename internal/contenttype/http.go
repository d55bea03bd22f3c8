// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package contenttype

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/cmsrest/internal/platform/middleware"
	requestutil "github.com/taibuivan/cmsrest/internal/platform/request"
	"github.com/taibuivan/cmsrest/internal/platform/respond"
	"github.com/taibuivan/cmsrest/internal/platform/sec"
)

// # Handler Implementation

// Handler implements the HTTP layer for content type groups, types and
// field definitions.
type Handler struct {
	service *Service
}

// NewHandler constructs a new content type [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GroupRoutes returns the router mounted at /api/v1/content/typegroups.
func (handler *Handler) GroupRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listGroups)
	router.Get("/{groupID}", handler.getGroup)
	router.Get("/{groupID}/types", handler.listContentTypes)

	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(sec.RoleAdmin))

		admin.Post("/", handler.createGroup)
		admin.Post("/{groupID}/types", handler.createContentType)
	})

	return router
}

// Routes returns the router mounted at /api/v1/content/types.
//
// Reads of the published type are public. Every draft operation requires
// [sec.RoleAdmin].
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/{id}", handler.getContentType)

	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(sec.RoleAdmin))

		admin.Delete("/{id}", handler.deleteContentType)

		// Draft
		admin.Post("/{id}/draft", handler.createDraft)
		admin.Get("/{id}/draft", handler.getDraft)
		admin.Patch("/{id}/draft", handler.updateDraft)
		admin.Delete("/{id}/draft", handler.deleteDraft)
		admin.Post("/{id}/draft/publish", handler.publishDraft)

		// Field definitions
		admin.Post("/{id}/draft/fielddefinitions", handler.addFieldDefinition)
		admin.Patch("/{id}/draft/fielddefinitions/{fieldID}", handler.updateFieldDefinition)
		admin.Delete("/{id}/draft/fielddefinitions/{fieldID}", handler.removeFieldDefinition)
	})

	return router
}

// # Request Payloads

type groupRequest struct {
	Identifier string `json:"identifier"`
}

type fieldDefinitionRequest struct {
	Identifier     string            `json:"identifier"`
	FieldType      string            `json:"field_type"`
	Names          map[string]string `json:"names"`
	Position       int               `json:"position"`
	IsRequired     bool              `json:"is_required"`
	IsTranslatable bool              `json:"is_translatable"`
	IsSearchable   bool              `json:"is_searchable"`
	Singular       bool              `json:"singular"`
	DefaultValue   json.RawMessage   `json:"default_value"`
}

func (input fieldDefinitionRequest) toCreate() FieldDefinitionCreate {
	return FieldDefinitionCreate{
		Identifier:     input.Identifier,
		FieldType:      input.FieldType,
		Names:          input.Names,
		Position:       input.Position,
		IsRequired:     input.IsRequired,
		IsTranslatable: input.IsTranslatable,
		IsSearchable:   input.IsSearchable,
		Singular:       input.Singular,
		DefaultValue:   input.DefaultValue,
	}
}

type contentTypeRequest struct {
	Identifier       string                   `json:"identifier"`
	MainLanguageCode string                   `json:"main_language_code"`
	Names            map[string]string        `json:"names"`
	Descriptions     map[string]string        `json:"descriptions"`
	NameSchema       string                   `json:"name_schema"`
	IsContainer      bool                     `json:"is_container"`
	FieldDefinitions []fieldDefinitionRequest `json:"field_definitions"`
}

type contentTypeUpdateRequest struct {
	Identifier       *string           `json:"identifier"`
	MainLanguageCode *string           `json:"main_language_code"`
	Names            map[string]string `json:"names"`
	Descriptions     map[string]string `json:"descriptions"`
	NameSchema       *string           `json:"name_schema"`
	IsContainer      *bool             `json:"is_container"`
}

type fieldDefinitionUpdateRequest struct {
	Names          map[string]string `json:"names"`
	Position       *int              `json:"position"`
	IsRequired     *bool             `json:"is_required"`
	IsTranslatable *bool             `json:"is_translatable"`
	IsSearchable   *bool             `json:"is_searchable"`
	DefaultValue   json.RawMessage   `json:"default_value"`
}

// # Group Endpoints

/*
GET /api/v1/content/typegroups.

Response:
  - 200: []Group
*/
func (handler *Handler) listGroups(writer http.ResponseWriter, request *http.Request) {
	groups, err := handler.service.ListGroups(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, groups)
}

func (handler *Handler) getGroup(writer http.ResponseWriter, request *http.Request) {
	groupID, err := requestutil.Int64(request, "groupID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	group, err := handler.service.LoadGroup(request.Context(), groupID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, group)
}

/*
POST /api/v1/content/typegroups.

Request:
  - identifier: string

Response:
  - 201: Group
  - 409: Identifier already used
*/
func (handler *Handler) createGroup(writer http.ResponseWriter, request *http.Request) {
	var input groupRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	group, err := handler.service.CreateGroup(request.Context(), input.Identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, group)
}

/*
GET /api/v1/content/typegroups/{groupID}/types.

Response:
  - 200: []ContentType: Published types of the group
*/
func (handler *Handler) listContentTypes(writer http.ResponseWriter, request *http.Request) {
	groupID, err := requestutil.Int64(request, "groupID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	types, err := handler.service.ListContentTypes(request.Context(), groupID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, types)
}

/*
POST /api/v1/content/typegroups/{groupID}/types.

Description: Creates a new type as a draft. It is not visible to content until
its draft is published.

Request:
  - contentTypeRequest

Response:
  - 201: ContentType (draft), ETag header
  - 409: Identifier collides with a published type
*/
func (handler *Handler) createContentType(writer http.ResponseWriter, request *http.Request) {
	groupID, err := requestutil.Int64(request, "groupID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input contentTypeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	create := ContentTypeCreate{
		Identifier:       input.Identifier,
		MainLanguageCode: input.MainLanguageCode,
		Names:            input.Names,
		Descriptions:     input.Descriptions,
		NameSchema:       input.NameSchema,
		IsContainer:      input.IsContainer,
		CreatorID:        userID,
	}
	for _, field := range input.FieldDefinitions {
		create.FieldDefinitions = append(create.FieldDefinitions, field.toCreate())
	}

	draft, err := handler.service.CreateContentType(request.Context(), groupID, create)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, draft.Tag)
	respond.Created(writer, draft)
}

// # Content Type Endpoints

/*
GET /api/v1/content/types/{id}.

Request:
  - If-None-Match: string (optional)

Response:
  - 200: ContentType, ETag header
  - 304: Unchanged since the given tag
*/
func (handler *Handler) getContentType(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	contentType, err := handler.service.LoadContentType(request.Context(), id, requestutil.IfNoneMatch(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, contentType.Tag)
	respond.OK(writer, contentType)
}

/*
DELETE /api/v1/content/types/{id}.

Response:
  - 204: Deleted
  - 403: The type still has content instances
  - 412: If-Match does not match the current tag
*/
func (handler *Handler) deleteContentType(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteContentType(request.Context(), id, requestutil.IfMatch(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Draft Endpoints

/*
POST /api/v1/content/types/{id}/draft.

Response:
  - 201: ContentType (draft), ETag header
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
PATCH /api/v1/content/types/{id}/draft.

Request:
  - If-Match: string (optional)
  - contentTypeUpdateRequest

Response:
  - 200: ContentType (draft), ETag header
  - 403: Nothing to update
  - 412: Stale If-Match
*/
func (handler *Handler) updateDraft(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input contentTypeUpdateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	update := ContentTypeUpdate(input)
	draft, err := handler.service.UpdateDraft(request.Context(), id, update, requestutil.IfMatch(request))
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
POST /api/v1/content/types/{id}/draft/publish.

Request:
  - If-Match: string (optional)

Response:
  - 200: ContentType (published), ETag header
  - 403: Empty draft
  - 409: Identifier collides with another published type
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

// # Field Definition Endpoints

/*
POST /api/v1/content/types/{id}/draft/fielddefinitions.

Response:
  - 201: ContentType (draft), ETag header
  - 403: Singular field type repeated, or required field on a type in use
  - 409: Identifier already used within the type
*/
func (handler *Handler) addFieldDefinition(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input fieldDefinitionRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	draft, err := handler.service.AddFieldDefinition(request.Context(), id, input.toCreate(), requestutil.IfMatch(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, draft.Tag)
	respond.Created(writer, draft)
}

func (handler *Handler) updateFieldDefinition(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	fieldID, err := requestutil.Int64(request, "fieldID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input fieldDefinitionUpdateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	draft, err := handler.service.UpdateFieldDefinition(request.Context(), id, fieldID, FieldDefinitionUpdate(input), requestutil.IfMatch(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, draft.Tag)
	respond.OK(writer, draft)
}

func (handler *Handler) removeFieldDefinition(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	fieldID, err := requestutil.Int64(request, "fieldID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	draft, err := handler.service.RemoveFieldDefinition(request.Context(), id, fieldID, requestutil.IfMatch(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, draft.Tag)
	respond.OK(writer, draft)
}
