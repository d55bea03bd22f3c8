// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package lifecycle

import (
	"errors"

	"github.com/taibuivan/cmsrest/internal/platform/apperr"
)

// ErrNotModified is returned by cache-validated reads when the caller's tag
// still matches the current state. It is not a failure.
var ErrNotModified = errors.New("lifecycle: not modified")

// NotModified is the [ErrNotModified] outcome carrying the tag the caller
// already holds, so the transport can echo it back.
type NotModified struct {
	Tag string
}

func (e *NotModified) Error() string { return ErrNotModified.Error() }

// Is makes errors.Is(err, ErrNotModified) hold.
func (e *NotModified) Is(target error) bool { return target == ErrNotModified }

// NotModifiedTag returns the current tag.
func (e *NotModified) NotModifiedTag() string { return e.Tag }

// # Outcome Taxonomy

// Kind classifies the outcome of a lifecycle operation.
type Kind string

const (
	KindOK                 Kind = "ok"
	KindNotModified        Kind = "not_modified"
	KindDenied             Kind = "denied"
	KindNotFound           Kind = "not_found"
	KindConflict           Kind = "conflict"
	KindPreconditionFailed Kind = "precondition_failed"
	KindValidationFailed   Kind = "validation_failed"
	KindStoreFailure       Kind = "store_failure"
)

// KindOf maps err onto the outcome taxonomy.
//
// Any error that is not a recognised [apperr.AppError] is an unexpected store
// failure.
func KindOf(err error) Kind {
	if err == nil {
		return KindOK
	}
	if errors.Is(err, ErrNotModified) {
		return KindNotModified
	}

	appError := apperr.As(err)
	if appError == nil {
		return KindStoreFailure
	}

	switch appError.Code {
	case apperr.CodeDenied, apperr.CodeForbidden:
		return KindDenied
	case apperr.CodeNotFound:
		return KindNotFound
	case apperr.CodeConflict:
		return KindConflict
	case apperr.CodePreconditionFailed:
		return KindPreconditionFailed
	case apperr.CodeValidation, apperr.CodeNotAcceptable:
		return KindValidationFailed
	}
	return KindStoreFailure
}
