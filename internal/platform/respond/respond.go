// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package respond writes the JSON envelopes and entity tag headers shared by
// every handler: {"data": ...}, {"data": ..., "meta": ...} for lists, and
// {"error", "code", "details"} for failures.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/taibuivan/cmsrest/internal/platform/apperr"
	"github.com/taibuivan/cmsrest/internal/platform/constants"
	"github.com/taibuivan/cmsrest/internal/platform/ctxutil"
	"github.com/taibuivan/cmsrest/pkg/pagination"
)

// SuccessEnvelope is the JSON envelope for successful single-resource responses.
type SuccessEnvelope struct {
	Data interface{} `json:"data"`
}

// PaginatedEnvelope is the JSON envelope for paginated list responses.
type PaginatedEnvelope struct {
	Data interface{}     `json:"data"`
	Meta pagination.Meta `json:"meta"`
}

// ErrorEnvelope is the JSON envelope for error responses.
type ErrorEnvelope struct {
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 OK response with data wrapped in the standard success envelope.
func OK(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusOK, SuccessEnvelope{Data: data})
}

// Created writes a 201 Created response with data wrapped in the standard success envelope.
func Created(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusCreated, SuccessEnvelope{Data: data})
}

// Paginated writes a 200 OK response with paginated data and a metadata block.
func Paginated(writer http.ResponseWriter, data interface{}, metadata pagination.Meta) {
	JSON(writer, http.StatusOK, PaginatedEnvelope{Data: data, Meta: metadata})
}

// NoContent writes a 204 No Content response.
func NoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}

// # Entity Tags

// ETag sets the strong ETag response header for a modification tag.
// An empty tag leaves the header untouched.
func ETag(writer http.ResponseWriter, tag string) {
	if tag == "" {
		return
	}
	writer.Header().Set(constants.HeaderETag, `"`+tag+`"`)
}

// NotModified writes a 304 Not Modified response carrying the current tag.
func NotModified(writer http.ResponseWriter, tag string) {
	ETag(writer, tag)
	writer.WriteHeader(http.StatusNotModified)
}

/*
Error writes err as the JSON error envelope.

Description: An error exposing NotModifiedTag (lifecycle.NotModified) becomes a bodiless 304. An
[apperr.AppError] keeps its status and code. Anything else is logged and
hidden behind a 500. The request logger already carries the request id.
*/
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	var notModified interface{ NotModifiedTag() string }
	if errors.As(err, &notModified) {
		NotModified(writer, notModified.NotModifiedTag())
		return
	}

	logger := ctxutil.GetLogger(request.Context())

	appError := apperr.As(err)
	if appError == nil {
		logger.ErrorContext(request.Context(), "unhandled_error", slog.String("error", err.Error()))
		appError = apperr.Internal(err)
	} else if appError.HTTPStatus >= http.StatusInternalServerError {
		logger.ErrorContext(request.Context(), "server_error",
			slog.String("code", appError.Code),
			slog.Any("cause", appError.Cause),
		)
	}

	JSON(writer, appError.HTTPStatus, ErrorEnvelope{
		Error:   appError.Message,
		Code:    appError.Code,
		Details: appError.Details,
	})
}
