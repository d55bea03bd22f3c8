// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package lifecycle

import "github.com/taibuivan/cmsrest/internal/platform/apperr"

// Deny reasons returned by the guard. They are part of the API contract.
const (
	ReasonOnlyDraftsPublished = "only drafts can be published"
	ReasonOnlyDraftsEdited    = "only drafts can be edited"
	ReasonPublishedNoDelete   = "published versions cannot be deleted directly"
	ReasonDraftExists         = "a draft already exists"
	ReasonUnsupported         = "unsupported operation"
)

// # Decision

// Decision is the outcome of a guard evaluation.
type Decision struct {
	Operation Operation
	Allowed   bool
	Reason    string
}

// Err converts a deny into an [apperr.Denied] error. It returns nil when the
// transition is allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return apperr.Denied(d.Reason)
}

func allow(op Operation) Decision {
	return Decision{Operation: op, Allowed: true}
}

func deny(op Operation, reason string) Decision {
	return Decision{Operation: op, Reason: reason}
}

// # Guard

/*
CheckTransition decides whether op may run against an entity in state.

Description: Pure function of the entity status and the requested operation.
Rules are uniform across families; only create_draft is parameterised by
family because content may carry any number of versions while content types
and roles allow a single draft per identity.

Parameters:
  - state: State (family, status, draft presence)
  - op: Operation

Returns:
  - Decision: Allow, or Deny with the reason
*/
func CheckTransition(state State, op Operation) Decision {
	switch op {
	case OpPublish:
		if state.Status != StatusDraft {
			return deny(op, ReasonOnlyDraftsPublished)
		}
		return allow(op)

	case OpEdit:
		if state.Status != StatusDraft {
			return deny(op, ReasonOnlyDraftsEdited)
		}
		return allow(op)

	case OpDeleteDraft, OpDeleteVersion:
		if state.Status == StatusPublished {
			return deny(op, ReasonPublishedNoDelete)
		}
		return allow(op)

	case OpCreateDraft:
		if state.Family != FamilyContent && state.DraftExists {
			return deny(op, ReasonDraftExists)
		}
		return allow(op)
	}

	return deny(op, ReasonUnsupported)
}
