// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package role

import (
	"context"

	"github.com/taibuivan/cmsrest/internal/lifecycle"
	"github.com/taibuivan/cmsrest/pkg/pagination"
)

// # Repository Contracts

/*
Store persists roles in their draft and published states.

Draft mutations are compare-and-swap on the modification tag and fail with
apperr.PreconditionFailed when the stored tag no longer equals previousTag.
*/
type Store interface {
	// Find loads one status of a role with its policies.
	Find(context context.Context, id int64, status lifecycle.Status) (*Role, error)

	// List returns one page of published roles and the total count.
	List(context context.Context, params pagination.Params) ([]*Role, int, error)

	// IdentifierTaken reports whether another published role uses identifier.
	IdentifierTaken(context context.Context, identifier string, exceptID int64) (bool, error)

	// CreateDraft inserts a draft with its policies. A zero ID allocates a
	// new identity.
	CreateDraft(context context.Context, draft *Role) error

	UpdateDraft(context context.Context, draft *Role, previousTag string) error
	AddPolicy(context context.Context, roleID int64, policy *Policy, previousTag, newTag string) error
	UpdatePolicy(context context.Context, roleID int64, policy *Policy, previousTag, newTag string) error
	RemovePolicy(context context.Context, roleID, policyID int64, previousTag, newTag string) error
	DeleteDraft(context context.Context, id int64, previousTag string) error

	// Publish replaces the published role by the draft. Draft policies that
	// carry an OriginalID take that id back.
	Publish(context context.Context, id int64, previousTag, newTag string) error

	// Delete removes every status of a role while the row in status still
	// carries previousTag.
	Delete(context context.Context, id int64, status lifecycle.Status, previousTag string) error
}
