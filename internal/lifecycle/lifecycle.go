// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package lifecycle implements the draft/publish state machine shared by every
versioned entity family of the repository: content versions, content types and
roles.

Every family follows the same shape. A mutable DRAFT is created from scratch or
from the published state, edits are confined to the draft, and publishing
atomically replaces the published state. What differs between families is
cardinality (content may have many versions, types and roles at most one draft)
and the pre-publish checks, which are injected per family.

Components:

  - Guard: [CheckTransition] is a pure decision function over [State] and [Operation].
  - Draft Manager / Publish Coordinator: [Lifecycle] runs guarded mutations through
    caller supplied store closures and reports every outcome to an [Observer].
  - Concurrency Mediator: [Mediator] compares modification tags (ETag analogue)
    and answers cache-validation reads through an optional [TagCache].
  - Outcome taxonomy: [KindOf] classifies any error into a [Kind].

The package holds no persistent state and never talks to storage directly.
*/
package lifecycle

// # Domain Enums

// Family identifies one of the versioned entity families.
type Family string

const (
	// FamilyContent covers content items and their numbered versions.
	FamilyContent Family = "content"

	// FamilyContentType covers structural type definitions.
	FamilyContentType Family = "content_type"

	// FamilyRole covers access-control roles and their policies.
	FamilyRole Family = "role"
)

// Status is the lifecycle status of a versioned entity.
type Status string

const (
	// StatusDraft marks a mutable, not yet published instance.
	StatusDraft Status = "DRAFT"

	// StatusPublished marks the authoritative, read-visible instance.
	StatusPublished Status = "PUBLISHED"

	// StatusArchived marks a formerly current content version kept for history.
	StatusArchived Status = "ARCHIVED"
)

// IsValid reports whether s is a recognised [Status] value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Operation is a requested lifecycle transition.
type Operation string

const (
	OpCreateDraft   Operation = "create_draft"
	OpEdit          Operation = "edit"
	OpPublish       Operation = "publish"
	OpDeleteDraft   Operation = "delete_draft"
	OpDeleteVersion Operation = "delete_version"
)

// # Lifecycle State

// State is the part of an entity the guard needs to decide a transition.
type State struct {
	Family Family
	Status Status

	// DraftExists reports whether a draft already exists for the entity
	// identity. Only meaningful for content types and roles.
	DraftExists bool
}

// Draftable is implemented by every entity that goes through the
// draft/publish lifecycle.
type Draftable interface {
	// Lifecycle returns the current lifecycle state of the loaded copy.
	Lifecycle() State

	// ModificationTag returns the opaque concurrency token of the loaded copy.
	ModificationTag() string
}
