// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil reads path parameters, JSON bodies, conditional headers
and the caller identity from incoming requests.

Every failure is already an [apperr.AppError], so handlers pass it straight
to respond.Error.
*/
package requestutil

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/cmsrest/internal/platform/apperr"
	"github.com/taibuivan/cmsrest/internal/platform/constants"
	"github.com/taibuivan/cmsrest/internal/platform/ctxutil"
	"github.com/taibuivan/cmsrest/internal/platform/validate"
)

// maxBodyBytes caps JSON payloads. Field values of a full version are the
// largest bodies the API accepts.
const maxBodyBytes = 4 << 20

// # Body

/*
DecodeJSON decodes the request body into target.

Returns:
  - error: validate.ErrInvalidJSON on malformed, empty or oversized bodies
*/
func DecodeJSON(request *http.Request, target any) error {
	if err := json.NewDecoder(io.LimitReader(request.Body, maxBodyBytes)).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

// # Path Parameters

// Param returns the raw chi URL parameter, e.g. a language code.
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Int64 parses a named URL parameter as a positive identifier.

Returns:
  - error: VALIDATION_ERROR naming the parameter when it is not a positive integer
*/
func Int64(request *http.Request, name string) (int64, error) {
	value, err := strconv.ParseInt(chi.URLParam(request, name), 10, 64)
	if err != nil || value <= 0 {
		return 0, apperr.ValidationError("Invalid "+name, apperr.FieldError{Field: name, Message: "must be a positive integer"})
	}
	return value, nil
}

// Int is [Int64] for version numbers.
func Int(request *http.Request, name string) (int, error) {
	value, err := Int64(request, name)
	return int(value), err
}

// # Conditional Headers

// IfMatch returns the raw If-Match header. The lifecycle mediator strips
// quotes and treats "" and "*" as unconditional.
func IfMatch(request *http.Request) string {
	return request.Header.Get(constants.HeaderIfMatch)
}

// IfNoneMatch returns the raw If-None-Match header.
func IfNoneMatch(request *http.Request) string {
	return request.Header.Get(constants.HeaderIfNoneMatch)
}

// # Identity

// RequiredUserID returns the caller's user id, or 401 for anonymous requests.
func RequiredUserID(request *http.Request) (string, error) {
	claims := ctxutil.GetAuthUser(request.Context())
	if claims == nil {
		return "", apperr.Unauthorized("Authentication required")
	}
	return claims.UserID, nil
}
