// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package contenttype manages structural type definitions and their field
definitions.

A content type has at most one published record and at most one draft sharing
the same identity. Field definitions are edited on the draft only; publishing
replaces the published record and its field definitions in place.

The package also serves the content family as a collaborator: it resolves
published types and validates content field data against them.
*/
package contenttype

import (
	"encoding/json"
	"time"

	"github.com/taibuivan/cmsrest/internal/lifecycle"
)

// # Domain Entities

// Group is a named bucket of content types.
type Group struct {
	ID         int64     `json:"id"`
	Identifier string    `json:"identifier"`
	CreatedAt  time.Time `json:"created_at"`
}

// ContentType is one status (draft or published) of a type definition.
type ContentType struct {
	ID               int64             `json:"id"`
	Status           lifecycle.Status  `json:"status"`
	Identifier       string            `json:"identifier"`
	GroupIDs         []int64           `json:"group_ids"`
	Names            map[string]string `json:"names"`
	Descriptions     map[string]string `json:"descriptions,omitempty"`
	MainLanguageCode string            `json:"main_language_code"`
	NameSchema       string            `json:"name_schema,omitempty"`
	IsContainer      bool              `json:"is_container"`
	FieldDefinitions []FieldDefinition `json:"field_definitions"`
	CreatorID        string            `json:"creator_id,omitempty"`
	ModifiedAt       time.Time         `json:"modified_at"`

	// DraftExists is set on loaded copies when a draft shares this identity.
	DraftExists bool `json:"draft_exists"`

	// Tag is the modification tag, exposed through the ETag header.
	Tag string `json:"-"`
}

// Lifecycle implements [lifecycle.Draftable].
func (contentType *ContentType) Lifecycle() lifecycle.State {
	return lifecycle.State{
		Family:      lifecycle.FamilyContentType,
		Status:      contentType.Status,
		DraftExists: contentType.DraftExists,
	}
}

// ModificationTag implements [lifecycle.Draftable].
func (contentType *ContentType) ModificationTag() string {
	return contentType.Tag
}

// Field returns the field definition with the given identifier.
func (contentType *ContentType) Field(identifier string) (*FieldDefinition, bool) {
	for index := range contentType.FieldDefinitions {
		if contentType.FieldDefinitions[index].Identifier == identifier {
			return &contentType.FieldDefinitions[index], true
		}
	}
	return nil, false
}

// FieldByID returns the field definition with the given id.
func (contentType *ContentType) FieldByID(id int64) (*FieldDefinition, bool) {
	for index := range contentType.FieldDefinitions {
		if contentType.FieldDefinitions[index].ID == id {
			return &contentType.FieldDefinitions[index], true
		}
	}
	return nil, false
}

// FieldDefinition describes one field of a content type.
type FieldDefinition struct {
	ID             int64             `json:"id"`
	Identifier     string            `json:"identifier"`
	FieldType      string            `json:"field_type"`
	Names          map[string]string `json:"names"`
	Position       int               `json:"position"`
	IsRequired     bool              `json:"is_required"`
	IsTranslatable bool              `json:"is_translatable"`
	IsSearchable   bool              `json:"is_searchable"`

	// Singular marks a field type that may occur at most once per type.
	Singular bool `json:"singular"`

	DefaultValue json.RawMessage `json:"default_value,omitempty"`
}

// # Inputs

// ContentTypeCreate is the payload for a new type created from scratch.
type ContentTypeCreate struct {
	Identifier       string
	MainLanguageCode string
	Names            map[string]string
	Descriptions     map[string]string
	NameSchema       string
	IsContainer      bool
	CreatorID        string
	FieldDefinitions []FieldDefinitionCreate
}

// ContentTypeUpdate is a partial update of a draft. Nil members are left
// untouched.
type ContentTypeUpdate struct {
	Identifier       *string
	MainLanguageCode *string
	Names            map[string]string
	Descriptions     map[string]string
	NameSchema       *string
	IsContainer      *bool
}

// IsEmpty reports whether the update carries no change.
func (update ContentTypeUpdate) IsEmpty() bool {
	return update.Identifier == nil && update.MainLanguageCode == nil &&
		len(update.Names) == 0 && len(update.Descriptions) == 0 &&
		update.NameSchema == nil && update.IsContainer == nil
}

// FieldDefinitionCreate is the payload for a new field definition.
type FieldDefinitionCreate struct {
	Identifier     string
	FieldType      string
	Names          map[string]string
	Position       int
	IsRequired     bool
	IsTranslatable bool
	IsSearchable   bool
	Singular       bool
	DefaultValue   json.RawMessage
}

// FieldDefinitionUpdate is a partial update of a field definition.
type FieldDefinitionUpdate struct {
	Names          map[string]string
	Position       *int
	IsRequired     *bool
	IsTranslatable *bool
	IsSearchable   *bool
	DefaultValue   json.RawMessage
}

// IsEmpty reports whether the update carries no change.
func (update FieldDefinitionUpdate) IsEmpty() bool {
	return len(update.Names) == 0 && update.Position == nil && update.IsRequired == nil &&
		update.IsTranslatable == nil && update.IsSearchable == nil && len(update.DefaultValue) == 0
}

// # Constants

const (
	FieldIdentifier       = "identifier"
	FieldMainLanguageCode = "main_language_code"
	FieldNames            = "names"
	FieldFieldType        = "field_type"
	FieldGroupIdentifier  = "group_identifier"
)

// Reasons returned to the caller when a type rule denies an operation.
const (
	ReasonEmptyDraft        = "cannot publish an empty draft"
	ReasonSingularDuplicate = "a content type cannot carry two fields of a singular field type"
	ReasonRequiredOnInUse   = "required fields cannot be added to a content type that has instances"
	ReasonHasInstances      = "content types with instances cannot be deleted"
	ReasonNotPublished      = "content type is not published"
)
