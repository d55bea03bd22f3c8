// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the error type every service returns.

The lifecycle error kinds map onto codes and HTTP statuses as follows:

  - NotFound: NOT_FOUND, 404
  - Denied: GUARD_DENIED, 403 (guard and invariant rejections)
  - Conflict: CONFLICT, 409
  - PreconditionFailed: PRECONDITION_FAILED, 412 (stale modification tag)
  - NotAcceptable: NOT_ACCEPTABLE, 406
  - ValidationFailed: VALIDATION_ERROR, 400, with per-field details

Authentication, rate limiting and internal failures use the remaining codes.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError carries a machine-readable code, a client-safe message and the
// HTTP status. Cause is logged server side and never serialised.
type AppError struct {
	Code       string       `json:"code"`
	Message    string       `json:"error"`
	HTTPStatus int          `json:"-"`
	Cause      error        `json:"-"`
	Details    []FieldError `json:"details,omitempty"`
}

const (
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeDenied             = "GUARD_DENIED"
	CodeConflict           = "CONFLICT"
	CodePreconditionFailed = "PRECONDITION_FAILED"
	CodeNotAcceptable      = "NOT_ACCEPTABLE"
	CodeValidation         = "VALIDATION_ERROR"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
)

// FieldError is one failed rule of a VALIDATION_ERROR. Field uses the JSON
// path of the input, e.g. "policies[1].module".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Cause }

func newError(code string, status int, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// # Lifecycle Kinds

// NotFound names the missing resource: NotFound("Version") reads
// "Version not found".
func NotFound(resource string) *AppError {
	return newError(CodeNotFound, http.StatusNotFound, resource+" not found")
}

// Denied reports a rule that rejected the operation. The reason goes to the
// client verbatim so it can pick another operation.
func Denied(reason string) *AppError {
	return newError(CodeDenied, http.StatusForbidden, reason)
}

func Conflict(msg string) *AppError {
	return newError(CodeConflict, http.StatusConflict, msg)
}

func PreconditionFailed(msg string) *AppError {
	return newError(CodePreconditionFailed, http.StatusPreconditionFailed, msg)
}

func NotAcceptable(msg string) *AppError {
	return newError(CodeNotAcceptable, http.StatusNotAcceptable, msg)
}

func ValidationError(msg string, details ...FieldError) *AppError {
	validation := newError(CodeValidation, http.StatusBadRequest, msg)
	validation.Details = details
	return validation
}

// # Access

func Unauthorized(msg string) *AppError {
	return newError(CodeUnauthorized, http.StatusUnauthorized, msg)
}

// Forbidden is an authorization failure, distinct from a lifecycle [Denied].
func Forbidden(msg string) *AppError {
	return newError(CodeForbidden, http.StatusForbidden, msg)
}

func RateLimited(retryAfterSeconds int) *AppError {
	return newError(CodeRateLimited, http.StatusTooManyRequests,
		fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds))
}

// # Server Errors

// Internal hides cause from the client and keeps it for logging.
func Internal(cause error) *AppError {
	internal := newError(CodeInternal, http.StatusInternalServerError, "An unexpected error occurred")
	internal.Cause = cause
	return internal
}

// # Helpers

// As returns the first [*AppError] in err's chain, or nil.
func As(err error) *AppError {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError
	}
	return nil
}

func IsAppError(err error) bool {
	return As(err) != nil
}

// HasCode reports whether err carries an [*AppError] with the given code.
func HasCode(err error, code string) bool {
	appError := As(err)
	return appError != nil && appError.Code == code
}
