// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package contenttype

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/taibuivan/cmsrest/internal/platform/apperr"
	"github.com/taibuivan/cmsrest/internal/platform/validate"
)

// # Input Validation

func validateCreate(input ContentTypeCreate) error {
	validator := &validate.Validator{}
	validator.Required(FieldIdentifier, input.Identifier).
		Identifier(FieldIdentifier, input.Identifier).
		LanguageCode(FieldMainLanguageCode, input.MainLanguageCode).
		Custom(FieldNames, len(input.Names) == 0, "At least one name is required").
		Custom(FieldNames, len(input.Names) > 0 && input.Names[input.MainLanguageCode] == "", "A name in the main language is required")

	for index, field := range input.FieldDefinitions {
		prefix := fmt.Sprintf("field_definitions[%d].", index)
		validator.Required(prefix+FieldIdentifier, field.Identifier).
			Identifier(prefix+FieldIdentifier, field.Identifier).
			Required(prefix+FieldFieldType, field.FieldType)
	}

	return validator.Err()
}

func validateUpdate(update ContentTypeUpdate) error {
	validator := &validate.Validator{}
	if update.Identifier != nil {
		validator.Required(FieldIdentifier, *update.Identifier).Identifier(FieldIdentifier, *update.Identifier)
	}
	if update.MainLanguageCode != nil {
		validator.LanguageCode(FieldMainLanguageCode, *update.MainLanguageCode)
	}
	for code := range update.Names {
		validator.LanguageCode(FieldNames, code)
	}
	return validator.Err()
}

func validateFieldCreate(input FieldDefinitionCreate) error {
	validator := &validate.Validator{}
	validator.Required(FieldIdentifier, input.Identifier).
		Identifier(FieldIdentifier, input.Identifier).
		Required(FieldFieldType, input.FieldType)

	if len(input.DefaultValue) > 0 && !json.Valid(input.DefaultValue) {
		validator.Custom("default_value", true, "Must be valid JSON")
	}
	return validator.Err()
}

// # Content Field Validation

// FieldValue is one field value of a content version in one language.
type FieldValue struct {
	Identifier   string          `json:"identifier"`
	LanguageCode string          `json:"language_code"`
	Value        json.RawMessage `json:"value"`
}

// IsEmpty reports whether the value carries no data.
func (field FieldValue) IsEmpty() bool {
	trimmed := bytes.TrimSpace(field.Value)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`))
}

/*
ValidateFields checks content field values against the published type.

Description: Every field must be defined by the type, be written in one of
the version's languages and, when the definition is not translatable, only in
the main language. With complete set, required fields must also carry a
value in every language the version has (or in the main language for
non-translatable fields); this is the pre-publish check of content versions.

Parameters:
  - context: context.Context
  - contentTypeID: int64
  - mainLanguage: string
  - languages: []string (languages of the version)
  - fields: []FieldValue
  - complete: bool (enforce required fields)

Returns:
  - error: apperr.ValidationError with one detail per failing field
*/
func (service *Service) ValidateFields(context context.Context, contentTypeID int64, mainLanguage string, languages []string, fields []FieldValue, complete bool) error {
	contentType, err := service.ResolvePublished(context, contentTypeID)
	if err != nil {
		return err
	}
	return CheckFields(contentType, mainLanguage, languages, fields, complete)
}

// CheckFields is the storage independent part of [Service.ValidateFields].
func CheckFields(contentType *ContentType, mainLanguage string, languages []string, fields []FieldValue, complete bool) error {
	details := make([]apperr.FieldError, 0)
	present := make(map[string]bool, len(fields))

	for _, field := range fields {
		definition, found := contentType.Field(field.Identifier)
		switch {
		case !found:
			details = append(details, apperr.FieldError{Field: field.Identifier, Message: "Unknown field"})
			continue
		case !slices.Contains(languages, field.LanguageCode):
			details = append(details, apperr.FieldError{Field: field.Identifier, Message: "Language " + field.LanguageCode + " is not a translation of this version"})
			continue
		case !definition.IsTranslatable && field.LanguageCode != mainLanguage:
			details = append(details, apperr.FieldError{Field: field.Identifier, Message: "Field is not translatable"})
			continue
		case len(field.Value) > 0 && !json.Valid(field.Value):
			details = append(details, apperr.FieldError{Field: field.Identifier, Message: "Must be valid JSON"})
			continue
		}

		if !field.IsEmpty() {
			present[field.Identifier+"/"+field.LanguageCode] = true
		}
	}

	if complete {
		for _, definition := range contentType.FieldDefinitions {
			if !definition.IsRequired {
				continue
			}

			required := languages
			if !definition.IsTranslatable {
				required = []string{mainLanguage}
			}

			for _, code := range required {
				if !present[definition.Identifier+"/"+code] {
					details = append(details, apperr.FieldError{Field: definition.Identifier, Message: "A value is required in " + code})
				}
			}
		}
	}

	if len(details) > 0 {
		return apperr.ValidationError("Content fields are invalid", details...)
	}
	return nil
}
