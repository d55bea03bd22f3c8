// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package lifecycle

import (
	"context"
	"log/slog"

	"github.com/taibuivan/cmsrest/internal/platform/apperr"
	"github.com/taibuivan/cmsrest/internal/platform/ctxutil"
)

// ReasonNothingToUpdate is returned when an edit carries no change.
const ReasonNothingToUpdate = "nothing to update"

// Check is a family-specific pre-publish validation. Closures capture the
// caller's context.
type Check func() error

// Mutation persists a change stamped with the supplied modification tag.
type Mutation func(tag string) error

// Observer receives the outcome of every lifecycle operation.
type Observer interface {
	ObserveTransition(family Family, op Operation, kind Kind)
}

// # Lifecycle

// Lifecycle runs guarded draft/publish operations for one entity family.
//
// All mutations are performed by closures supplied by the family service, so
// the Lifecycle itself never holds persistent state. A freshly generated
// modification tag is handed to every mutating closure; the store persists it
// together with the change.
type Lifecycle struct {
	family   Family
	mediator *Mediator
	observer Observer
}

// New constructs a [Lifecycle] for family. observer may be nil.
func New(family Family, mediator *Mediator, observer Observer) *Lifecycle {
	if mediator == nil {
		mediator = NewMediator(nil)
	}
	return &Lifecycle{family: family, mediator: mediator, observer: observer}
}

// Family returns the entity family this Lifecycle governs.
func (lifecycle *Lifecycle) Family() Family {
	return lifecycle.family
}

// Mediator returns the concurrency mediator shared with the family service.
func (lifecycle *Lifecycle) Mediator() *Mediator {
	return lifecycle.mediator
}

// # Draft Manager

/*
CreateDraft creates a new draft from an existing entity.

Description: Consults the guard for create_draft (which denies a second draft
for content types and roles) and then runs create. A concurrent draft creation
caught by the Store surfaces as a Conflict from create and is not retried.

Parameters:
  - context: context.Context
  - source: State (state of the entity the draft is derived from)
  - create: func (persists the draft with the supplied tag)

Returns:
  - error: Denied, Conflict or store failures
*/
func (lifecycle *Lifecycle) CreateDraft(context context.Context, source State, create Mutation) error {
	source.Family = lifecycle.family
	if err := lifecycle.guard(context, source, OpCreateDraft); err != nil {
		return err
	}

	err := create(NewTag())
	lifecycle.observe(context, OpCreateDraft, err)
	return err
}

// CreateFromScratch creates a draft that has no published counterpart yet.
func (lifecycle *Lifecycle) CreateFromScratch(context context.Context, create Mutation) error {
	err := create(NewTag())
	lifecycle.observe(context, OpCreateDraft, err)
	return err
}

/*
Edit applies a change set to a draft.

Description: The guard must allow edit, the caller's expected tag must match,
and the change set must not be empty. An empty change set is denied so that a
no-op write never overwrites a conflicting concurrent edit.

Parameters:
  - context: context.Context
  - draft: Draftable (loaded draft)
  - expectedTag: string (If-Match, may be empty)
  - changed: bool (whether the change set carries anything)
  - apply: func (persists the change with the new tag)

Returns:
  - error: Denied, PreconditionFailed or store failures
*/
func (lifecycle *Lifecycle) Edit(context context.Context, draft Draftable, expectedTag string, changed bool, apply Mutation) error {
	if err := lifecycle.guard(context, draft.Lifecycle(), OpEdit); err != nil {
		return err
	}

	if err := lifecycle.precondition(context, OpEdit, expectedTag, draft.ModificationTag()); err != nil {
		return err
	}

	if !changed {
		err := apperr.Denied(ReasonNothingToUpdate)
		lifecycle.observe(context, OpEdit, err)
		return err
	}

	err := apply(NewTag())
	lifecycle.observe(context, OpEdit, err)
	return err
}

// DeleteDraft removes a draft (or a non-published content version) after the
// guard and the concurrency precondition pass. op is either [OpDeleteDraft]
// or [OpDeleteVersion].
func (lifecycle *Lifecycle) DeleteDraft(context context.Context, draft Draftable, op Operation, expectedTag string, remove func() error) error {
	if err := lifecycle.guard(context, draft.Lifecycle(), op); err != nil {
		return err
	}

	if err := lifecycle.precondition(context, op, expectedTag, draft.ModificationTag()); err != nil {
		return err
	}

	err := remove()
	lifecycle.observe(context, op, err)
	return err
}

// # Publish Coordinator

/*
Publish promotes a draft to the published state.

Description: Runs, in order, the publish guard, the concurrency precondition,
and the family pre-publish check. None of these mutate anything. Only then is
promote invoked; the Store performs the promotion (status change, demotion or
replacement of the previous published state, new tag) atomically so a failure
leaves the entity in its pre-publish state.

Parameters:
  - context: context.Context
  - draft: Draftable
  - expectedTag: string (If-Match, may be empty)
  - check: Check (family pre-publish validation, may be nil)
  - promote: func (atomic promotion with the new tag)

Returns:
  - error: Denied, PreconditionFailed, ValidationFailed, Conflict or store failures
*/
func (lifecycle *Lifecycle) Publish(context context.Context, draft Draftable, expectedTag string, check Check, promote Mutation) error {
	if err := lifecycle.guard(context, draft.Lifecycle(), OpPublish); err != nil {
		return err
	}

	if err := lifecycle.precondition(context, OpPublish, expectedTag, draft.ModificationTag()); err != nil {
		return err
	}

	if check != nil {
		if err := check(); err != nil {
			lifecycle.observe(context, OpPublish, err)
			return err
		}
	}

	err := promote(NewTag())
	lifecycle.observe(context, OpPublish, err)
	if err == nil {
		ctxutil.GetLogger(context).InfoContext(context, "lifecycle_publish_succeeded",
			slog.String("family", string(lifecycle.family)),
		)
	}
	return err
}

// # Helpers

func (lifecycle *Lifecycle) guard(context context.Context, state State, op Operation) error {
	state.Family = lifecycle.family

	decision := CheckTransition(state, op)
	if decision.Allowed {
		return nil
	}

	ctxutil.GetLogger(context).InfoContext(context, "lifecycle_denied",
		slog.String("family", string(lifecycle.family)),
		slog.String("operation", string(op)),
		slog.String("status", string(state.Status)),
		slog.String("reason", decision.Reason),
	)

	err := decision.Err()
	lifecycle.observe(context, op, err)
	return err
}

func (lifecycle *Lifecycle) precondition(context context.Context, op Operation, expected, current string) error {
	err := lifecycle.mediator.Precondition(expected, current)
	if err != nil {
		lifecycle.observe(context, op, err)
	}
	return err
}

func (lifecycle *Lifecycle) observe(_ context.Context, op Operation, err error) {
	if lifecycle.observer == nil {
		return
	}
	lifecycle.observer.ObserveTransition(lifecycle.family, op, KindOf(err))
}
