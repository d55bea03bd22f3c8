// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package content

import (
	"context"

	"github.com/taibuivan/cmsrest/internal/contenttype"
)

// # Repository Contracts

/*
Store persists content items, versions and relations.

Mutations of a version are compare-and-swap on its modification tag: the
write only applies while the stored tag equals previousTag, otherwise the
store returns apperr.PreconditionFailed.
*/
type Store interface {

	// ## Content

	// CreateContent inserts the item and its first draft version, assigning
	// content.ID and draft.VersionNo.
	CreateContent(context context.Context, content *Content, draft *Version) error
	FindContent(context context.Context, id int64) (*Content, error)
	UpdateContent(context context.Context, content *Content, previousTag string) error
	DeleteContent(context context.Context, id int64, previousTag string) error

	// ## Versions

	// ListVersions returns every version of an item, oldest first, without
	// field values.
	ListVersions(context context.Context, contentID int64) ([]*Version, error)
	FindVersion(context context.Context, contentID int64, versionNo int) (*Version, error)

	// CreateVersion inserts a draft numbered after the highest existing
	// version and copies the COMMON relations of fromVersionNo.
	CreateVersion(context context.Context, draft *Version, fromVersionNo int) error

	// UpdateVersion replaces the translations and field values of a draft.
	UpdateVersion(context context.Context, version *Version, previousTag string) error
	DeleteVersion(context context.Context, contentID int64, versionNo int, previousTag string) error

	// PublishVersion promotes a draft and makes it current in one
	// transaction. With archive set, the previously current version moves
	// to ARCHIVED; otherwise it keeps its status and only stops being current.
	PublishVersion(context context.Context, contentID int64, versionNo int, previousTag, newTag string, archive bool) error

	// ## Relations

	ListRelations(context context.Context, contentID int64, versionNo int) ([]Relation, error)
	AddRelation(context context.Context, relation *Relation, previousTag, newTag string) error
	RemoveRelation(context context.Context, contentID int64, versionNo int, relationID int64, previousTag, newTag string) error

	// ## Translations

	// ListTranslations returns the languages of every version of an item.
	ListTranslations(context context.Context, contentID int64) ([]VersionTranslations, error)

	// RemoveTranslation strips one translation from a draft.
	RemoveTranslation(context context.Context, contentID int64, versionNo int, languageCode, previousTag, newTag string) error

	// Begin opens a transaction for operations spanning several versions.
	Begin(context context.Context) (Tx, error)

	contenttype.InstanceCounter
}

// Tx is a unit of work over several versions of one item. Nothing is
// visible to readers until Commit; Rollback after Commit is a no-op.
type Tx interface {
	// StripTranslation removes one translation and its field values from a
	// version and rotates the version tag.
	StripTranslation(context context.Context, contentID int64, versionNo int, languageCode, newTag string) error

	DeleteVersion(context context.Context, contentID int64, versionNo int) error

	// TouchContent rotates the tag of the item itself while it still equals
	// previousTag.
	TouchContent(context context.Context, contentID int64, previousTag, newTag string) error

	Commit(context context.Context) error
	Rollback(context context.Context) error
}

// # Collaborators

// Types resolves content types and validates field data against them.
// It is implemented by [contenttype.Service].
type Types interface {
	ResolvePublished(context context.Context, id int64) (*contenttype.ContentType, error)
	ValidateFields(context context.Context, contentTypeID int64, mainLanguage string, languages []string, fields []contenttype.FieldValue, complete bool) error
}
