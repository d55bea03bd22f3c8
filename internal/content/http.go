// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package content

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/cmsrest/internal/platform/middleware"
	requestutil "github.com/taibuivan/cmsrest/internal/platform/request"
	"github.com/taibuivan/cmsrest/internal/platform/respond"
	"github.com/taibuivan/cmsrest/internal/platform/sec"
)

// # Handler Implementation

// Handler implements the HTTP layer for content items, versions, relations
// and translations.
type Handler struct {
	service *Service
}

// NewHandler constructs a new content [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router mounted at /api/v1/content/objects.
//
// Reads are public. Every mutation requires [sec.RoleEditor] or above.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/{contentID}", handler.getContent)
	router.Get("/{contentID}/versions", handler.listVersions)
	router.Get("/{contentID}/versions/{versionNo}", handler.getVersion)
	router.Get("/{contentID}/versions/{versionNo}/relations", handler.listRelations)

	router.Group(func(editor chi.Router) {
		editor.Use(middleware.RequireRole(sec.RoleEditor))

		// Content
		editor.Post("/", handler.createContent)
		editor.Patch("/{contentID}", handler.updateContent)
		editor.Delete("/{contentID}", handler.deleteContent)
		editor.Delete("/{contentID}/translations/{languageCode}", handler.deleteTranslation)

		// Versions
		editor.Post("/{contentID}/currentversion", handler.createDraftFromCurrent)
		editor.Post("/{contentID}/versions/{versionNo}", handler.createDraftFromVersion)
		editor.Patch("/{contentID}/versions/{versionNo}", handler.updateVersion)
		editor.Delete("/{contentID}/versions/{versionNo}", handler.deleteVersion)
		editor.Post("/{contentID}/versions/{versionNo}/publish", handler.publishVersion)
		editor.Delete("/{contentID}/versions/{versionNo}/translations/{languageCode}", handler.deleteDraftTranslation)

		// Relations
		editor.Post("/{contentID}/versions/{versionNo}/relations", handler.addRelation)
		editor.Delete("/{contentID}/versions/{versionNo}/relations/{relationID}", handler.removeRelation)
	})

	return router
}

// # Request Payloads

type contentRequest struct {
	ContentTypeID    int64             `json:"content_type_id"`
	RemoteID         string            `json:"remote_id"`
	MainLanguageCode string            `json:"main_language_code"`
	AlwaysAvailable  *bool             `json:"always_available"`
	Names            map[string]string `json:"names"`
	Fields           []Field           `json:"fields"`
}

type metadataRequest struct {
	RemoteID         *string `json:"remote_id"`
	MainLanguageCode *string `json:"main_language_code"`
	AlwaysAvailable  *bool   `json:"always_available"`
}

type versionRequest struct {
	InitialLanguageCode *string           `json:"initial_language_code"`
	Names               map[string]string `json:"names"`
	Fields              []Field           `json:"fields"`
}

type relationRequest struct {
	DestinationContentID int64 `json:"destination_content_id"`
}

// createdContent is the response of a content creation.
type createdContent struct {
	Content *Content `json:"content"`
	Version *Version `json:"version"`
}

// # Path Parameters

func versionParams(request *http.Request) (int64, int, error) {
	contentID, err := requestutil.Int64(request, "contentID")
	if err != nil {
		return 0, 0, err
	}

	versionNo, err := requestutil.Int(request, "versionNo")
	if err != nil {
		return 0, 0, err
	}
	return contentID, versionNo, nil
}

// # Content Endpoints

/*
POST /api/v1/content/objects.

Description: Creates a content item with its first draft version.

Request:
  - contentRequest

Response:
  - 201: createdContent, ETag header of the draft
  - 404: Content type not found or not published
  - 409: Remote id already used
*/
func (handler *Handler) createContent(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input contentRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	content, draft, err := handler.service.CreateContent(request.Context(), ContentCreate{
		ContentTypeID:    input.ContentTypeID,
		RemoteID:         input.RemoteID,
		MainLanguageCode: input.MainLanguageCode,
		AlwaysAvailable:  input.AlwaysAvailable,
		Names:            input.Names,
		Fields:           input.Fields,
		CreatorID:        userID,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, draft.Tag)
	respond.Created(writer, createdContent{Content: content, Version: draft})
}

func (handler *Handler) getContent(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "contentID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	content, err := handler.service.LoadContent(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, content.Tag)
	respond.OK(writer, content)
}

/*
PATCH /api/v1/content/objects/{contentID}.

Request:
  - If-Match: string (optional, content tag)
  - metadataRequest

Response:
  - 200: Content, ETag header
  - 403: Nothing to update
  - 412: Stale If-Match
*/
func (handler *Handler) updateContent(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "contentID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input metadataRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	content, err := handler.service.UpdateContentMetadata(request.Context(), id, MetadataUpdate(input), requestutil.IfMatch(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, content.Tag)
	respond.OK(writer, content)
}

func (handler *Handler) deleteContent(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "contentID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteContent(request.Context(), id, requestutil.IfMatch(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
DELETE /api/v1/content/objects/{contentID}/translations/{languageCode}.

Description: Removes a language from every version of the item. Versions left
without a translation are deleted. Nothing changes if any version fails.

Response:
  - 204: Deleted
  - 403: Main language, last language, or the current version would be deleted
  - 404: No version carries the language
  - 412: If-Match does not match the item tag
*/
func (handler *Handler) deleteTranslation(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "contentID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteTranslation(request.Context(), id, requestutil.Param(request, "languageCode"), requestutil.IfMatch(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Version Endpoints

func (handler *Handler) listVersions(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "contentID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	versions, err := handler.service.ListVersions(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, versions)
}

/*
GET /api/v1/content/objects/{contentID}/versions/{versionNo}.

Request:
  - If-None-Match: string (optional)

Response:
  - 200: Version, ETag header
  - 304: Unchanged since the given tag
*/
func (handler *Handler) getVersion(writer http.ResponseWriter, request *http.Request) {
	id, versionNo, err := versionParams(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	version, err := handler.service.LoadVersion(request.Context(), id, versionNo, requestutil.IfNoneMatch(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, version.Tag)
	respond.OK(writer, version)
}

/*
POST /api/v1/content/objects/{contentID}/currentversion.

Response:
  - 201: Version (draft copied from the current version), ETag header
*/
func (handler *Handler) createDraftFromCurrent(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64(request, "contentID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	draft, err := handler.service.CreateDraftFromCurrent(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, draft.Tag)
	respond.Created(writer, draft)
}

func (handler *Handler) createDraftFromVersion(writer http.ResponseWriter, request *http.Request) {
	id, versionNo, err := versionParams(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	draft, err := handler.service.CreateDraftFromVersion(request.Context(), id, versionNo)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, draft.Tag)
	respond.Created(writer, draft)
}

/*
PATCH /api/v1/content/objects/{contentID}/versions/{versionNo}.

Request:
  - If-Match: string (optional)
  - versionRequest

Response:
  - 200: Version, ETag header
  - 403: Not a draft, or nothing to update
  - 412: Stale If-Match
*/
func (handler *Handler) updateVersion(writer http.ResponseWriter, request *http.Request) {
	id, versionNo, err := versionParams(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input versionRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	version, err := handler.service.UpdateVersion(request.Context(), id, versionNo, VersionUpdate(input), requestutil.IfMatch(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, version.Tag)
	respond.OK(writer, version)
}

func (handler *Handler) deleteVersion(writer http.ResponseWriter, request *http.Request) {
	id, versionNo, err := versionParams(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteVersion(request.Context(), id, versionNo, requestutil.IfMatch(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
POST /api/v1/content/objects/{contentID}/versions/{versionNo}/publish.

Response:
  - 200: Version (published), ETag header
  - 400: Required fields are empty
  - 403: Not a draft
  - 412: Stale If-Match
*/
func (handler *Handler) publishVersion(writer http.ResponseWriter, request *http.Request) {
	id, versionNo, err := versionParams(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	version, err := handler.service.PublishVersion(request.Context(), id, versionNo, requestutil.IfMatch(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, version.Tag)
	respond.OK(writer, version)
}

/*
DELETE /api/v1/content/objects/{contentID}/versions/{versionNo}/translations/{languageCode}.

Response:
  - 200: Version (draft), ETag header
  - 406: The version has no such translation
  - 409: Main or only translation
*/
func (handler *Handler) deleteDraftTranslation(writer http.ResponseWriter, request *http.Request) {
	id, versionNo, err := versionParams(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	version, err := handler.service.DeleteTranslationFromDraft(request.Context(), id, versionNo,
		requestutil.Param(request, "languageCode"), requestutil.IfMatch(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.ETag(writer, version.Tag)
	respond.OK(writer, version)
}

// # Relation Endpoints

func (handler *Handler) listRelations(writer http.ResponseWriter, request *http.Request) {
	id, versionNo, err := versionParams(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	relations, err := handler.service.ListRelations(request.Context(), id, versionNo)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, relations)
}

/*
POST /api/v1/content/objects/{contentID}/versions/{versionNo}/relations.

Request:
  - If-Match: string (optional)
  - relationRequest

Response:
  - 201: Relation
  - 403: Not a draft, relation already exists, self relation or unknown destination
  - 412: Stale If-Match
*/
func (handler *Handler) addRelation(writer http.ResponseWriter, request *http.Request) {
	id, versionNo, err := versionParams(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input relationRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	relation, err := handler.service.AddRelation(request.Context(), id, versionNo, input.DestinationContentID, requestutil.IfMatch(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, relation)
}

func (handler *Handler) removeRelation(writer http.ResponseWriter, request *http.Request) {
	id, versionNo, err := versionParams(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	relationID, err := requestutil.Int64(request, "relationID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.RemoveRelation(request.Context(), id, versionNo, relationID, requestutil.IfMatch(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
