// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate collects field errors from a chain of rules into one
// VALIDATION_ERROR [apperr.AppError]. Services run it before any lifecycle
// transition, so a rejected payload never reaches the guard or the Store.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"

	"github.com/taibuivan/cmsrest/internal/platform/apperr"
)

// MaxIdentifierLength matches the VARCHAR width of every identifier column.
const MaxIdentifierLength = 128

var (
	identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

	// ErrInvalidJSON is returned when a request body cannot be decoded.
	ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")
)

// Validator is single use and not safe for concurrent use.
type Validator struct {
	errs []apperr.FieldError
}

// Required fails on an empty or blank value.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "This field is required")
	}
	return v
}

// MaxLen counts runes, not bytes.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return v
}

/*
Identifier checks a machine name such as a content type, field definition,
role, policy module or limitation identifier.

Description: A lowercase letter followed by lowercase letters, digits or
underscores, at most [MaxIdentifierLength] runes. Empty values are left to
[Validator.Required].
*/
func (v *Validator) Identifier(field, value string) *Validator {
	if value == "" {
		return v
	}
	if !identifierPattern.MatchString(value) {
		v.add(field, "Must be a valid identifier (lowercase letters, digits, underscores)")
		return v
	}
	return v.MaxLen(field, value, MaxIdentifierLength)
}

// LanguageCode requires a BCP-47 tag with an explicit region, e.g. "en-GB".
func (v *Validator) LanguageCode(field, value string) *Validator {
	tag, err := language.Parse(value)
	if err != nil {
		v.add(field, "Must be a valid language code (e.g. en-GB)")
		return v
	}
	if _, confidence := tag.Region(); confidence != language.Exact {
		v.add(field, "Language code must include a region (e.g. en-GB)")
	}
	return v
}

// Custom records message when failed is true.
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		v.add(field, message)
	}
	return v
}

// Err ends the chain. It returns nil when every rule passed.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}
