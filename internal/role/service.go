// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package role

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/taibuivan/cmsrest/internal/lifecycle"
	"github.com/taibuivan/cmsrest/internal/platform/apperr"
	"github.com/taibuivan/cmsrest/internal/platform/validate"
	"github.com/taibuivan/cmsrest/pkg/pagination"
	"github.com/taibuivan/cmsrest/pkg/slug"
)

// # Service Layer

// Service orchestrates the role lifecycle.
type Service struct {
	store     Store
	lifecycle *lifecycle.Lifecycle
	logger    *slog.Logger
}

// NewService constructs a new [Service]. manager must govern
// [lifecycle.FamilyRole].
func NewService(store Store, manager *lifecycle.Lifecycle, logger *slog.Logger) *Service {
	return &Service{store: store, lifecycle: manager, logger: logger}
}

func cacheKey(id int64) string {
	return "role:" + strconv.FormatInt(id, 10)
}

// # Published Roles

// ListRoles returns one page of published roles and the total count.
func (service *Service) ListRoles(context context.Context, params pagination.Params) ([]*Role, int, error) {
	return service.store.List(context, params)
}

/*
LoadRole returns the published state of a role.

Parameters:
  - context: context.Context
  - id: int64
  - ifNoneMatch: string (If-None-Match header, may be empty)

Returns:
  - *Role: The published role
  - error: NotFound, NotModified or store failures
*/
func (service *Service) LoadRole(context context.Context, id int64, ifNoneMatch string) (*Role, error) {
	mediator := service.lifecycle.Mediator()
	if tag, fresh := mediator.Fresh(context, cacheKey(id), ifNoneMatch); fresh {
		return nil, &lifecycle.NotModified{Tag: tag}
	}

	role, err := service.store.Find(context, id, lifecycle.StatusPublished)
	if err != nil {
		return nil, err
	}

	if err := mediator.Validate(context, cacheKey(id), ifNoneMatch, role.Tag); err != nil {
		return nil, err
	}
	return role, nil
}

// ListPolicies returns the policies of the published role.
func (service *Service) ListPolicies(context context.Context, id int64) ([]Policy, error) {
	role, err := service.store.Find(context, id, lifecycle.StatusPublished)
	if err != nil {
		return nil, err
	}
	return role.Policies, nil
}

// # Drafts

/*
CreateRole creates a new role as a draft.

Description: The identifier is normalised to a machine name and must not be
used by another published role. The role grants nothing until published.

Returns:
  - *Role: The new draft
  - error: Validation or Conflict errors
*/
func (service *Service) CreateRole(context context.Context, input RoleCreate) (*Role, error) {
	input.Identifier = slug.Identifier(input.Identifier)

	validator := &validate.Validator{}
	validator.Required(FieldIdentifier, input.Identifier).Identifier(FieldIdentifier, input.Identifier)
	for index, policy := range input.Policies {
		validatePolicy(validator, fmt.Sprintf("policies[%d].", index), policy.Module, policy.Function, policy.Limitations)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.ensureIdentifierFree(context, input.Identifier, 0); err != nil {
		return nil, err
	}

	draft := &Role{
		Status:     lifecycle.StatusDraft,
		Identifier: input.Identifier,
		Policies:   make([]Policy, 0, len(input.Policies)),
	}
	for _, policy := range input.Policies {
		draft.Policies = append(draft.Policies, Policy{
			Module:      policy.Module,
			Function:    policy.Function,
			Limitations: nonNilLimitations(policy.Limitations),
		})
	}

	err := service.lifecycle.CreateFromScratch(context, func(tag string) error {
		draft.Tag = tag
		return service.store.CreateDraft(context, draft)
	})
	if err != nil {
		return nil, err
	}

	service.logger.Info("role_created", slog.Int64("role_id", draft.ID), slog.String("identifier", draft.Identifier))
	return draft, nil
}

/*
CreateDraft opens a draft from the published role.

Description: Every published policy is copied with OriginalID pointing back
at it. The guard denies a second draft for the same role.

Returns:
  - *Role: The new draft
  - error: NotFound, Denied or Conflict
*/
func (service *Service) CreateDraft(context context.Context, id int64) (*Role, error) {
	published, err := service.store.Find(context, id, lifecycle.StatusPublished)
	if err != nil {
		return nil, err
	}

	draft := copyForDraft(published)
	err = service.lifecycle.CreateDraft(context, published.Lifecycle(), func(tag string) error {
		draft.Tag = tag
		return service.store.CreateDraft(context, draft)
	})
	if err != nil {
		return nil, err
	}

	return draft, nil
}

// LoadDraft returns the draft of a role.
func (service *Service) LoadDraft(context context.Context, id int64) (*Role, error) {
	return service.store.Find(context, id, lifecycle.StatusDraft)
}

// UpdateDraft renames a role draft. A new identifier must be free among
// published roles.
func (service *Service) UpdateDraft(context context.Context, id int64, update RoleUpdate, ifMatch string) (*Role, error) {
	draft, err := service.store.Find(context, id, lifecycle.StatusDraft)
	if err != nil {
		return nil, err
	}

	if update.Identifier != nil {
		normalised := slug.Identifier(*update.Identifier)
		update.Identifier = &normalised

		validator := &validate.Validator{}
		validator.Required(FieldIdentifier, normalised).Identifier(FieldIdentifier, normalised)
		if err := validator.Err(); err != nil {
			return nil, err
		}

		if normalised != draft.Identifier {
			if err := service.ensureIdentifierFree(context, normalised, id); err != nil {
				return nil, err
			}
		}
	}

	updated := *draft
	err = service.lifecycle.Edit(context, draft, ifMatch, !update.IsEmpty(), func(tag string) error {
		updated.Identifier = *update.Identifier
		updated.Tag = tag
		return service.store.UpdateDraft(context, &updated, draft.Tag)
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// # Policies

// AddPolicy adds a policy to a role draft.
func (service *Service) AddPolicy(context context.Context, id int64, input PolicyCreate, ifMatch string) (*Role, error) {
	validator := &validate.Validator{}
	validatePolicy(validator, "", input.Module, input.Function, input.Limitations)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	draft, err := service.store.Find(context, id, lifecycle.StatusDraft)
	if err != nil {
		return nil, err
	}

	policy := &Policy{
		RoleID:      id,
		Module:      input.Module,
		Function:    input.Function,
		Limitations: nonNilLimitations(input.Limitations),
	}
	err = service.lifecycle.Edit(context, draft, ifMatch, true, func(tag string) error {
		return service.store.AddPolicy(context, id, policy, draft.Tag, tag)
	})
	if err != nil {
		return nil, err
	}

	return service.store.Find(context, id, lifecycle.StatusDraft)
}

/*
UpdatePolicy replaces the limitations of one draft policy.

Returns:
  - *Role: The reloaded draft
  - error: NotFound (policy), Denied (empty update), Validation or PreconditionFailed
*/
func (service *Service) UpdatePolicy(context context.Context, id, policyID int64, update PolicyUpdate, ifMatch string) (*Role, error) {
	draft, err := service.store.Find(context, id, lifecycle.StatusDraft)
	if err != nil {
		return nil, err
	}

	current, found := draft.PolicyByID(policyID)
	if !found {
		return nil, apperr.NotFound("Policy")
	}

	validator := &validate.Validator{}
	validatePolicy(validator, "", current.Module, current.Function, update.Limitations)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	updated := *current
	err = service.lifecycle.Edit(context, draft, ifMatch, !update.IsEmpty(), func(tag string) error {
		updated.Limitations = update.Limitations
		return service.store.UpdatePolicy(context, id, &updated, draft.Tag, tag)
	})
	if err != nil {
		return nil, err
	}

	return service.store.Find(context, id, lifecycle.StatusDraft)
}

// RemovePolicy removes a policy from a role draft.
func (service *Service) RemovePolicy(context context.Context, id, policyID int64, ifMatch string) (*Role, error) {
	draft, err := service.store.Find(context, id, lifecycle.StatusDraft)
	if err != nil {
		return nil, err
	}

	if _, found := draft.PolicyByID(policyID); !found {
		return nil, apperr.NotFound("Policy")
	}

	err = service.lifecycle.Edit(context, draft, ifMatch, true, func(tag string) error {
		return service.store.RemovePolicy(context, id, policyID, draft.Tag, tag)
	})
	if err != nil {
		return nil, err
	}

	return service.store.Find(context, id, lifecycle.StatusDraft)
}

// # Publish & Delete

/*
PublishDraft promotes the draft, replacing the published role in place.

Description: The draft identifier must not collide with another published
role. Once published no draft remains, so a new draft may be opened at once.

Returns:
  - *Role: The new published state
  - error: Conflict, PreconditionFailed or store failures
*/
func (service *Service) PublishDraft(context context.Context, id int64, ifMatch string) (*Role, error) {
	draft, err := service.store.Find(context, id, lifecycle.StatusDraft)
	if err != nil {
		return nil, err
	}

	check := func() error {
		return service.ensureIdentifierFree(context, draft.Identifier, id)
	}

	var publishedTag string
	err = service.lifecycle.Publish(context, draft, ifMatch, check, func(tag string) error {
		publishedTag = tag
		return service.store.Publish(context, id, draft.Tag, tag)
	})
	if err != nil {
		return nil, err
	}

	service.lifecycle.Mediator().Remember(context, cacheKey(id), publishedTag)
	service.logger.Info("role_published", slog.Int64("role_id", id), slog.String("identifier", draft.Identifier))

	return service.store.Find(context, id, lifecycle.StatusPublished)
}

// DeleteDraft discards the draft of a role.
func (service *Service) DeleteDraft(context context.Context, id int64, ifMatch string) error {
	draft, err := service.store.Find(context, id, lifecycle.StatusDraft)
	if err != nil {
		return err
	}

	return service.lifecycle.DeleteDraft(context, draft, lifecycle.OpDeleteDraft, ifMatch, func() error {
		return service.store.DeleteDraft(context, id, draft.Tag)
	})
}

// DeleteRole removes a role with its draft and policies. ifMatch is compared
// with the published role, or with the draft of a role never published.
func (service *Service) DeleteRole(context context.Context, id int64, ifMatch string) error {
	current, err := service.loadCurrent(context, id)
	if err != nil {
		return err
	}

	if err := service.lifecycle.Mediator().Precondition(ifMatch, current.Tag); err != nil {
		return err
	}

	if err := service.store.Delete(context, id, current.Status, current.Tag); err != nil {
		return err
	}

	service.lifecycle.Mediator().Forget(context, cacheKey(id))
	service.logger.Info("role_deleted", slog.Int64("role_id", id))
	return nil
}

// # Helpers

// loadCurrent returns the published role, or the draft when there is none.
func (service *Service) loadCurrent(context context.Context, id int64) (*Role, error) {
	role, err := service.store.Find(context, id, lifecycle.StatusPublished)
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return service.store.Find(context, id, lifecycle.StatusDraft)
	}
	return role, err
}

func (service *Service) ensureIdentifierFree(context context.Context, identifier string, exceptID int64) error {
	taken, err := service.store.IdentifierTaken(context, identifier, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Conflict("a role with identifier '" + identifier + "' already exists")
	}
	return nil
}

// validatePolicy checks a policy target. Module and function are identifiers
// or the wildcard; limitations need an identifier and at least one value.
func validatePolicy(validator *validate.Validator, prefix, module, function string, limitations []Limitation) {
	validator.Required(prefix+FieldModule, module).Required(prefix+FieldFunction, function)
	if module != "" && module != Wildcard {
		validator.Identifier(prefix+FieldModule, module)
	}
	if function != "" && function != Wildcard {
		validator.Identifier(prefix+FieldFunction, function)
	}

	seen := make(map[string]bool, len(limitations))
	for index, limitation := range limitations {
		field := fmt.Sprintf("%s%s[%d]", prefix, FieldLimitations, index)
		validator.Required(field, limitation.Identifier).
			Identifier(field, limitation.Identifier).
			Custom(field, len(limitation.Values) == 0, "At least one value is required").
			Custom(field, seen[limitation.Identifier], "Duplicate limitation")
		seen[limitation.Identifier] = true
	}
}

func copyForDraft(published *Role) *Role {
	draft := *published
	draft.Status = lifecycle.StatusDraft
	draft.DraftExists = false

	draft.Policies = make([]Policy, len(published.Policies))
	for index, policy := range published.Policies {
		originalID := policy.ID
		policy.OriginalID = &originalID
		policy.ID = 0
		policy.Limitations = copyLimitations(policy.Limitations)
		draft.Policies[index] = policy
	}
	return &draft
}

func copyLimitations(source []Limitation) []Limitation {
	target := make([]Limitation, len(source))
	for index, limitation := range source {
		target[index] = Limitation{
			Identifier: limitation.Identifier,
			Values:     append([]string(nil), limitation.Values...),
		}
	}
	return target
}

func nonNilLimitations(limitations []Limitation) []Limitation {
	if limitations == nil {
		return []Limitation{}
	}
	return limitations
}
