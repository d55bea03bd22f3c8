// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package content manages content items, their numbered versions, translations
and relations.

A content item owns any number of versions. Exactly one version is current;
new versions are drafts created from an existing one, and publishing a draft
makes it current. Translations are the language-keyed parts of a version, and
COMMON relations are user-managed edges from a version to another item.

Rules that span several versions (translation cascades, relation uniqueness)
live in this package; the generic draft/publish rules come from
[lifecycle.Lifecycle].
*/
package content

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/taibuivan/cmsrest/internal/contenttype"
	"github.com/taibuivan/cmsrest/internal/lifecycle"
	"github.com/taibuivan/cmsrest/pkg/slice"
)

// # Domain Entities

// Content is the version-independent part of a content item.
type Content struct {
	ID               int64  `json:"id"`
	ContentTypeID    int64  `json:"content_type_id"`
	RemoteID         string `json:"remote_id"`
	MainLanguageCode string `json:"main_language_code"`
	AlwaysAvailable  bool   `json:"always_available"`

	// CurrentVersionNo is the published version once the item has been
	// published, and the initial draft before that.
	CurrentVersionNo int  `json:"current_version_no"`
	Published        bool `json:"published"`

	Tag        string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Version is one numbered version of a content item.
type Version struct {
	ContentID           int64            `json:"content_id"`
	VersionNo           int              `json:"version_no"`
	Status              lifecycle.Status `json:"status"`
	InitialLanguageCode string           `json:"initial_language_code"`

	// Names holds one entry per translation of the version.
	Names map[string]string `json:"names"`

	Fields    []Field   `json:"fields"`
	CreatorID string    `json:"creator_id,omitempty"`
	Tag       string    `json:"-"`

	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Lifecycle implements [lifecycle.Draftable].
func (version *Version) Lifecycle() lifecycle.State {
	return lifecycle.State{Family: lifecycle.FamilyContent, Status: version.Status}
}

// ModificationTag implements [lifecycle.Draftable].
func (version *Version) ModificationTag() string {
	return version.Tag
}

// Languages returns the language codes of the version, sorted.
func (version *Version) Languages() []string {
	return sortedKeys(version.Names)
}

// HasLanguage reports whether the version carries a translation.
func (version *Version) HasLanguage(languageCode string) bool {
	_, found := version.Names[languageCode]
	return found
}

// FallbackLanguage picks the initial language after the current one is
// stripped: the main language when the version carries it, otherwise the
// first remaining language. It returns "" for a version without
// translations.
func (version *Version) FallbackLanguage(mainLanguage string) string {
	if version.HasLanguage(mainLanguage) {
		return mainLanguage
	}
	languages := version.Languages()
	if len(languages) == 0 {
		return ""
	}
	return languages[0]
}

// Field is the value of one field in one language.
type Field struct {
	Identifier   string          `json:"identifier"`
	LanguageCode string          `json:"language_code"`
	Value        json.RawMessage `json:"value"`
}

func fieldValues(fields []Field) []contenttype.FieldValue {
	return slice.Map(fields, func(field Field) contenttype.FieldValue {
		return contenttype.FieldValue(field)
	})
}

// RelationType tags a relation between a version and another content item.
type RelationType string

const (
	// RelationCommon is the only user-managed relation type.
	RelationCommon RelationType = "COMMON"
	RelationEmbed  RelationType = "EMBED"
	RelationLink   RelationType = "LINK"
	RelationField  RelationType = "FIELD"
)

// Relation is a directed edge from a source version to a destination item.
type Relation struct {
	ID                   int64        `json:"id"`
	SourceContentID      int64        `json:"source_content_id"`
	SourceVersionNo      int          `json:"source_version_no"`
	DestinationContentID int64        `json:"destination_content_id"`
	Type                 RelationType `json:"type"`
	FieldIdentifier      string       `json:"field_identifier,omitempty"`
}

// VersionTranslations lists the languages of one version, used by the
// translation cascade.
type VersionTranslations struct {
	VersionNo     int              `json:"version_no"`
	Status        lifecycle.Status `json:"status"`
	LanguageCodes []string         `json:"language_codes"`
}

// # Inputs

// ContentCreate is the payload of a new content item and its first draft.
type ContentCreate struct {
	ContentTypeID    int64
	RemoteID         string
	MainLanguageCode string
	AlwaysAvailable  *bool
	Names            map[string]string
	Fields           []Field
	CreatorID        string
}

// MetadataUpdate is a partial update of the version-independent attributes.
type MetadataUpdate struct {
	RemoteID         *string
	MainLanguageCode *string
	AlwaysAvailable  *bool
}

// IsEmpty reports whether the update carries no change.
func (update MetadataUpdate) IsEmpty() bool {
	return update.RemoteID == nil && update.MainLanguageCode == nil && update.AlwaysAvailable == nil
}

// VersionUpdate is a partial update of a draft version. Names add or rename
// translations; Fields replace the values they name.
type VersionUpdate struct {
	InitialLanguageCode *string
	Names               map[string]string
	Fields              []Field
}

// IsEmpty reports whether the update carries no change.
func (update VersionUpdate) IsEmpty() bool {
	return update.InitialLanguageCode == nil && len(update.Names) == 0 && len(update.Fields) == 0
}

// # Constants

const (
	FieldContentTypeID       = "content_type_id"
	FieldMainLanguageCode    = "main_language_code"
	FieldInitialLanguageCode = "initial_language_code"
	FieldNames               = "names"
	FieldDestination         = "destination_content_id"
)

// Reasons returned to the caller when a content rule denies an operation.
const (
	ReasonRelationExists      = "a relation to this content already exists"
	ReasonRelationDestination = "the relation destination is not available"
	ReasonSelfRelation        = "a content item cannot relate to itself"
	ReasonRelationType        = "only COMMON relations can be removed"
	ReasonMainTranslation     = "the main translation cannot be deleted"
	ReasonOnlyTranslation     = "the only translation of a content item cannot be deleted"
	ReasonCurrentVersion      = "the current version cannot be deleted"
	ReasonOnlyVersion         = "the only version of a content item cannot be deleted, delete the content instead"
	ReasonMissingMain         = "the version has no translation in the main language"
)

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
