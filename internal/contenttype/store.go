// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package contenttype

import (
	"context"

	"github.com/taibuivan/cmsrest/internal/lifecycle"
)

// # Repository Contracts

// GroupStore persists content type groups.
type GroupStore interface {
	CreateGroup(context context.Context, group *Group) error
	ListGroups(context context.Context) ([]*Group, error)
	FindGroup(context context.Context, id int64) (*Group, error)
}

/*
Store persists content types in their draft and published states.

Every mutation of a draft is a compare-and-swap on the modification tag: the
write only applies when the stored tag still equals previousTag, otherwise the
store returns apperr.PreconditionFailed.
*/
type Store interface {
	GroupStore

	// Find loads one status of a type with its field definitions and group
	// links. DraftExists is populated.
	Find(context context.Context, id int64, status lifecycle.Status) (*ContentType, error)

	// ListByGroup returns the published types linked to a group.
	ListByGroup(context context.Context, groupID int64) ([]*ContentType, error)

	// IdentifierTaken reports whether another published type uses identifier.
	IdentifierTaken(context context.Context, identifier string, exceptID int64) (bool, error)

	// CreateDraft inserts a draft. A zero ID allocates a new identity; a
	// second draft for an identity fails with apperr.Conflict.
	CreateDraft(context context.Context, draft *ContentType) error

	UpdateDraft(context context.Context, draft *ContentType, previousTag string) error
	AddField(context context.Context, typeID int64, field *FieldDefinition, previousTag, newTag string) error
	UpdateField(context context.Context, typeID int64, field *FieldDefinition, previousTag, newTag string) error
	RemoveField(context context.Context, typeID, fieldID int64, previousTag, newTag string) error
	DeleteDraft(context context.Context, id int64, previousTag string) error

	// Publish atomically replaces the published record (if any) by the draft.
	Publish(context context.Context, id int64, previousTag, newTag string) error

	// Delete removes every status of a type while the row in status still
	// carries previousTag.
	Delete(context context.Context, id int64, status lifecycle.Status, previousTag string) error
}

// InstanceCounter reports how many content items use a type.
type InstanceCounter interface {
	CountByContentType(context context.Context, contentTypeID int64) (int, error)
}
