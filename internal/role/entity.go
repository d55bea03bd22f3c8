// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package role manages access-control roles and their policies.

A role follows the same single-draft lifecycle as a content type: at most one
published record and at most one draft share an identity. Policies are edited
on the draft; policies copied from the published role remember the policy they
came from, so publishing keeps published policy ids stable.
*/
package role

import (
	"time"

	"github.com/taibuivan/cmsrest/internal/lifecycle"
)

// # Domain Entities

// Role is one status (draft or published) of a role.
type Role struct {
	ID         int64            `json:"id"`
	Status     lifecycle.Status `json:"status"`
	Identifier string           `json:"identifier"`
	Policies   []Policy         `json:"policies"`
	ModifiedAt time.Time        `json:"modified_at"`

	// DraftExists is set on loaded copies when a draft shares this identity.
	DraftExists bool `json:"draft_exists"`

	Tag string `json:"-"`
}

// Lifecycle implements [lifecycle.Draftable].
func (role *Role) Lifecycle() lifecycle.State {
	return lifecycle.State{
		Family:      lifecycle.FamilyRole,
		Status:      role.Status,
		DraftExists: role.DraftExists,
	}
}

// ModificationTag implements [lifecycle.Draftable].
func (role *Role) ModificationTag() string {
	return role.Tag
}

// PolicyByID returns the policy with the given id.
func (role *Role) PolicyByID(id int64) (*Policy, bool) {
	for index := range role.Policies {
		if role.Policies[index].ID == id {
			return &role.Policies[index], true
		}
	}
	return nil, false
}

// Policy grants one module function, optionally narrowed by limitations.
type Policy struct {
	ID     int64 `json:"id"`
	RoleID int64 `json:"role_id"`

	// OriginalID names the published policy a draft policy was copied from.
	OriginalID *int64 `json:"original_id,omitempty"`

	Module      string       `json:"module"`
	Function    string       `json:"function"`
	Limitations []Limitation `json:"limitations"`
}

// Limitation restricts a policy to a set of values of one criterion.
type Limitation struct {
	Identifier string   `json:"identifier"`
	Values     []string `json:"values"`
}

// # Inputs

// RoleCreate is the payload for a new role created from scratch.
type RoleCreate struct {
	Identifier string
	Policies   []PolicyCreate
}

// RoleUpdate is a partial update of a role draft.
type RoleUpdate struct {
	Identifier *string
}

// IsEmpty reports whether the update carries no change.
func (update RoleUpdate) IsEmpty() bool {
	return update.Identifier == nil
}

// PolicyCreate is the payload for a new policy.
type PolicyCreate struct {
	Module      string
	Function    string
	Limitations []Limitation
}

// PolicyUpdate replaces the limitations of a policy. A nil slice is no
// change; an empty slice clears every limitation.
type PolicyUpdate struct {
	Limitations []Limitation
}

// IsEmpty reports whether the update carries no change.
func (update PolicyUpdate) IsEmpty() bool {
	return update.Limitations == nil
}

// # Constants

const (
	FieldIdentifier  = "identifier"
	FieldModule      = "module"
	FieldFunction    = "function"
	FieldLimitations = "limitations"

	// Wildcard grants every module or every function of a module.
	Wildcard = "*"
)
