// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package contenttype

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/taibuivan/cmsrest/internal/lifecycle"
	"github.com/taibuivan/cmsrest/internal/platform/apperr"
	"github.com/taibuivan/cmsrest/internal/platform/validate"
	"github.com/taibuivan/cmsrest/pkg/slug"
)

// # Service Layer

// Service orchestrates the content type lifecycle.
type Service struct {
	store     Store
	instances InstanceCounter
	lifecycle *lifecycle.Lifecycle
	logger    *slog.Logger
}

// NewService constructs a new [Service]. manager must govern
// [lifecycle.FamilyContentType].
func NewService(store Store, instances InstanceCounter, manager *lifecycle.Lifecycle, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		instances: instances,
		lifecycle: manager,
		logger:    logger,
	}
}

func cacheKey(id int64) string {
	return "content_type:" + strconv.FormatInt(id, 10)
}

// # Groups

// CreateGroup creates a content type group.
func (service *Service) CreateGroup(context context.Context, identifier string) (*Group, error) {
	identifier = slug.Identifier(identifier)

	validator := &validate.Validator{}
	validator.Required(FieldGroupIdentifier, identifier).Identifier(FieldGroupIdentifier, identifier)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	group := &Group{Identifier: identifier}
	if err := service.store.CreateGroup(context, group); err != nil {
		return nil, err
	}

	service.logger.Info("content_type_group_created", slog.Int64("group_id", group.ID), slog.String("identifier", identifier))
	return group, nil
}

// ListGroups returns every group.
func (service *Service) ListGroups(context context.Context) ([]*Group, error) {
	return service.store.ListGroups(context)
}

// LoadGroup returns one group.
func (service *Service) LoadGroup(context context.Context, id int64) (*Group, error) {
	return service.store.FindGroup(context, id)
}

// # Published Types

/*
LoadContentType returns the published state of a type.

Description: When ifNoneMatch names the current tag the read is answered with
a [lifecycle.NotModified] error. The tag cache is consulted first, so an
unchanged type is validated without a database round-trip.

Parameters:
  - context: context.Context
  - id: int64
  - ifNoneMatch: string (If-None-Match header, may be empty)

Returns:
  - *ContentType: The published type
  - error: NotFound, NotModified or store failures
*/
func (service *Service) LoadContentType(context context.Context, id int64, ifNoneMatch string) (*ContentType, error) {
	mediator := service.lifecycle.Mediator()
	if tag, fresh := mediator.Fresh(context, cacheKey(id), ifNoneMatch); fresh {
		return nil, &lifecycle.NotModified{Tag: tag}
	}

	contentType, err := service.store.Find(context, id, lifecycle.StatusPublished)
	if err != nil {
		return nil, err
	}

	if err := mediator.Validate(context, cacheKey(id), ifNoneMatch, contentType.Tag); err != nil {
		return nil, err
	}
	return contentType, nil
}

// ListContentTypes returns the published types of a group.
func (service *Service) ListContentTypes(context context.Context, groupID int64) ([]*ContentType, error) {
	if _, err := service.store.FindGroup(context, groupID); err != nil {
		return nil, err
	}
	return service.store.ListByGroup(context, groupID)
}

/*
ResolvePublished returns the published type used by content items.

Returns:
  - *ContentType: The published type
  - error: apperr.NotFound when the type has never been published
*/
func (service *Service) ResolvePublished(context context.Context, id int64) (*ContentType, error) {
	contentType, err := service.store.Find(context, id, lifecycle.StatusPublished)
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, apperr.NotFound("ContentType")
	}
	return contentType, err
}

// # Drafts

/*
CreateContentType creates a new type as a draft in a group.

Description: The identifier is normalised to a machine name. A collision with
an existing published type is a Conflict. The type only becomes usable by
content once its draft is published.

Parameters:
  - context: context.Context
  - groupID: int64
  - input: ContentTypeCreate

Returns:
  - *ContentType: The new draft
  - error: Validation, NotFound (group) or Conflict errors
*/
func (service *Service) CreateContentType(context context.Context, groupID int64, input ContentTypeCreate) (*ContentType, error) {
	input.Identifier = slug.Identifier(input.Identifier)
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	if _, err := service.store.FindGroup(context, groupID); err != nil {
		return nil, err
	}

	if err := service.ensureIdentifierFree(context, input.Identifier, 0); err != nil {
		return nil, err
	}

	draft := &ContentType{
		Status:           lifecycle.StatusDraft,
		Identifier:       input.Identifier,
		GroupIDs:         []int64{groupID},
		Names:            input.Names,
		Descriptions:     input.Descriptions,
		MainLanguageCode: input.MainLanguageCode,
		NameSchema:       input.NameSchema,
		IsContainer:      input.IsContainer,
		CreatorID:        input.CreatorID,
		FieldDefinitions: make([]FieldDefinition, 0, len(input.FieldDefinitions)),
	}

	for _, field := range input.FieldDefinitions {
		definition := newFieldDefinition(field)
		if err := checkFieldAddition(draft, definition, 0); err != nil {
			return nil, err
		}
		draft.FieldDefinitions = append(draft.FieldDefinitions, definition)
	}

	err := service.lifecycle.CreateFromScratch(context, func(tag string) error {
		draft.Tag = tag
		return service.store.CreateDraft(context, draft)
	})
	if err != nil {
		return nil, err
	}

	service.logger.Info("content_type_created", slog.Int64("content_type_id", draft.ID), slog.String("identifier", draft.Identifier))
	return draft, nil
}

/*
CreateDraft opens a draft from the published type.

Description: The draft copies every published attribute, group link and field
definition. The guard denies a second draft for the same type.

Returns:
  - *ContentType: The new draft
  - error: NotFound, Denied or Conflict
*/
func (service *Service) CreateDraft(context context.Context, id int64) (*ContentType, error) {
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

// LoadDraft returns the draft of a type.
func (service *Service) LoadDraft(context context.Context, id int64) (*ContentType, error) {
	return service.store.Find(context, id, lifecycle.StatusDraft)
}

/*
UpdateDraft applies a partial update to a draft.

Parameters:
  - context: context.Context
  - id: int64
  - update: ContentTypeUpdate
  - ifMatch: string (expected tag, may be empty)

Returns:
  - *ContentType: The updated draft
  - error: Denied (empty update), PreconditionFailed, Conflict or Validation errors
*/
func (service *Service) UpdateDraft(context context.Context, id int64, update ContentTypeUpdate, ifMatch string) (*ContentType, error) {
	draft, err := service.store.Find(context, id, lifecycle.StatusDraft)
	if err != nil {
		return nil, err
	}

	if update.Identifier != nil {
		normalised := slug.Identifier(*update.Identifier)
		update.Identifier = &normalised
	}

	if err := validateUpdate(update); err != nil {
		return nil, err
	}

	if update.Identifier != nil && *update.Identifier != draft.Identifier {
		if err := service.ensureIdentifierFree(context, *update.Identifier, id); err != nil {
			return nil, err
		}
	}

	updated := *draft
	err = service.lifecycle.Edit(context, draft, ifMatch, !update.IsEmpty(), func(tag string) error {
		applyUpdate(&updated, update)
		updated.Tag = tag
		return service.store.UpdateDraft(context, &updated, draft.Tag)
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// # Field Definitions

/*
AddFieldDefinition adds a field definition to a draft.

Description: The identifier must be unique within the type (Conflict). A
singular field type may occur at most once, and a required field cannot be
added to a type that already has instances (both Denied).

Returns:
  - *ContentType: The reloaded draft
  - error: Validation, Conflict, Denied or PreconditionFailed
*/
func (service *Service) AddFieldDefinition(context context.Context, id int64, input FieldDefinitionCreate, ifMatch string) (*ContentType, error) {
	input.Identifier = slug.Identifier(input.Identifier)
	if err := validateFieldCreate(input); err != nil {
		return nil, err
	}

	draft, err := service.store.Find(context, id, lifecycle.StatusDraft)
	if err != nil {
		return nil, err
	}

	definition := newFieldDefinition(input)
	if err := checkFieldAddition(draft, definition, 0); err != nil {
		return nil, err
	}

	if definition.IsRequired {
		if err := service.ensureNoInstances(context, id, ReasonRequiredOnInUse); err != nil {
			return nil, err
		}
	}

	err = service.lifecycle.Edit(context, draft, ifMatch, true, func(tag string) error {
		return service.store.AddField(context, id, &definition, draft.Tag, tag)
	})
	if err != nil {
		return nil, err
	}

	return service.store.Find(context, id, lifecycle.StatusDraft)
}

// UpdateFieldDefinition applies a partial update to one field definition of
// a draft. Turning a field required on a type with instances is denied.
func (service *Service) UpdateFieldDefinition(context context.Context, id, fieldID int64, update FieldDefinitionUpdate, ifMatch string) (*ContentType, error) {
	draft, err := service.store.Find(context, id, lifecycle.StatusDraft)
	if err != nil {
		return nil, err
	}

	current, found := draft.FieldByID(fieldID)
	if !found {
		return nil, apperr.NotFound("FieldDefinition")
	}

	if update.IsRequired != nil && *update.IsRequired && !current.IsRequired {
		if err := service.ensureNoInstances(context, id, ReasonRequiredOnInUse); err != nil {
			return nil, err
		}
	}

	updated := *current
	err = service.lifecycle.Edit(context, draft, ifMatch, !update.IsEmpty(), func(tag string) error {
		applyFieldUpdate(&updated, update)
		return service.store.UpdateField(context, id, &updated, draft.Tag, tag)
	})
	if err != nil {
		return nil, err
	}

	return service.store.Find(context, id, lifecycle.StatusDraft)
}

// RemoveFieldDefinition removes a field definition from a draft.
func (service *Service) RemoveFieldDefinition(context context.Context, id, fieldID int64, ifMatch string) (*ContentType, error) {
	draft, err := service.store.Find(context, id, lifecycle.StatusDraft)
	if err != nil {
		return nil, err
	}

	if _, found := draft.FieldByID(fieldID); !found {
		return nil, apperr.NotFound("FieldDefinition")
	}

	err = service.lifecycle.Edit(context, draft, ifMatch, true, func(tag string) error {
		return service.store.RemoveField(context, id, fieldID, draft.Tag, tag)
	})
	if err != nil {
		return nil, err
	}

	return service.store.Find(context, id, lifecycle.StatusDraft)
}

// # Publish & Delete

/*
PublishDraft promotes the draft, replacing the published type in place.

Description: The draft must carry at least one field definition, and its
identifier must not collide with another published type. The published
record and its field definitions are replaced in one transaction.

Returns:
  - *ContentType: The new published state
  - error: Denied, Conflict, PreconditionFailed or store failures
*/
func (service *Service) PublishDraft(context context.Context, id int64, ifMatch string) (*ContentType, error) {
	draft, err := service.store.Find(context, id, lifecycle.StatusDraft)
	if err != nil {
		return nil, err
	}

	check := func() error {
		if len(draft.FieldDefinitions) == 0 {
			return apperr.Denied(ReasonEmptyDraft)
		}
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
	service.logger.Info("content_type_published", slog.Int64("content_type_id", id), slog.String("identifier", draft.Identifier))

	return service.store.Find(context, id, lifecycle.StatusPublished)
}

// DeleteDraft discards the draft of a type. The published type is untouched.
func (service *Service) DeleteDraft(context context.Context, id int64, ifMatch string) error {
	draft, err := service.store.Find(context, id, lifecycle.StatusDraft)
	if err != nil {
		return err
	}

	return service.lifecycle.DeleteDraft(context, draft, lifecycle.OpDeleteDraft, ifMatch, func() error {
		return service.store.DeleteDraft(context, id, draft.Tag)
	})
}

// DeleteContentType removes a type with all its states. Types that still
// have content instances cannot be deleted. ifMatch is compared with the
// published type, or with the draft of a type never published.
func (service *Service) DeleteContentType(context context.Context, id int64, ifMatch string) error {
	current, err := service.store.Find(context, id, lifecycle.StatusPublished)
	if apperr.HasCode(err, apperr.CodeNotFound) {
		current, err = service.store.Find(context, id, lifecycle.StatusDraft)
	}
	if err != nil {
		return err
	}

	if err := service.lifecycle.Mediator().Precondition(ifMatch, current.Tag); err != nil {
		return err
	}

	if err := service.ensureNoInstances(context, id, ReasonHasInstances); err != nil {
		return err
	}

	if err := service.store.Delete(context, id, current.Status, current.Tag); err != nil {
		return err
	}

	service.lifecycle.Mediator().Forget(context, cacheKey(id))
	service.logger.Info("content_type_deleted", slog.Int64("content_type_id", id))
	return nil
}

// # Helpers

func (service *Service) ensureIdentifierFree(context context.Context, identifier string, exceptID int64) error {
	taken, err := service.store.IdentifierTaken(context, identifier, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Conflict("a content type with identifier '" + identifier + "' already exists")
	}
	return nil
}

func (service *Service) ensureNoInstances(context context.Context, id int64, reason string) error {
	if service.instances == nil {
		return nil
	}

	count, err := service.instances.CountByContentType(context, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.Denied(reason)
	}
	return nil
}

// checkFieldAddition enforces identifier uniqueness and the singular rule.
// exceptID skips the definition being replaced.
func checkFieldAddition(contentType *ContentType, candidate FieldDefinition, exceptID int64) error {
	for _, existing := range contentType.FieldDefinitions {
		if existing.ID != 0 && existing.ID == exceptID {
			continue
		}
		if existing.Identifier == candidate.Identifier {
			return apperr.Conflict("field definition '" + candidate.Identifier + "' already exists")
		}
		if existing.FieldType == candidate.FieldType && (existing.Singular || candidate.Singular) {
			return apperr.Denied(ReasonSingularDuplicate)
		}
	}
	return nil
}

func copyForDraft(published *ContentType) *ContentType {
	draft := *published
	draft.Status = lifecycle.StatusDraft
	draft.DraftExists = false
	draft.GroupIDs = append([]int64(nil), published.GroupIDs...)
	draft.Names = copyMap(published.Names)
	draft.Descriptions = copyMap(published.Descriptions)

	draft.FieldDefinitions = make([]FieldDefinition, len(published.FieldDefinitions))
	for index, field := range published.FieldDefinitions {
		field.ID = 0
		field.Names = copyMap(field.Names)
		draft.FieldDefinitions[index] = field
	}
	return &draft
}

func newFieldDefinition(input FieldDefinitionCreate) FieldDefinition {
	return FieldDefinition{
		Identifier:     input.Identifier,
		FieldType:      input.FieldType,
		Names:          input.Names,
		Position:       input.Position,
		IsRequired:     input.IsRequired,
		IsTranslatable: input.IsTranslatable,
		IsSearchable:   input.IsSearchable,
		Singular:       input.Singular,
		DefaultValue:   input.DefaultValue,
	}
}

func applyUpdate(contentType *ContentType, update ContentTypeUpdate) {
	if update.Identifier != nil {
		contentType.Identifier = *update.Identifier
	}
	if update.MainLanguageCode != nil {
		contentType.MainLanguageCode = *update.MainLanguageCode
	}
	if len(update.Names) > 0 {
		contentType.Names = mergeMap(contentType.Names, update.Names)
	}
	if len(update.Descriptions) > 0 {
		contentType.Descriptions = mergeMap(contentType.Descriptions, update.Descriptions)
	}
	if update.NameSchema != nil {
		contentType.NameSchema = *update.NameSchema
	}
	if update.IsContainer != nil {
		contentType.IsContainer = *update.IsContainer
	}
}

func applyFieldUpdate(field *FieldDefinition, update FieldDefinitionUpdate) {
	if len(update.Names) > 0 {
		field.Names = mergeMap(field.Names, update.Names)
	}
	if update.Position != nil {
		field.Position = *update.Position
	}
	if update.IsRequired != nil {
		field.IsRequired = *update.IsRequired
	}
	if update.IsTranslatable != nil {
		field.IsTranslatable = *update.IsTranslatable
	}
	if update.IsSearchable != nil {
		field.IsSearchable = *update.IsSearchable
	}
	if len(update.DefaultValue) > 0 {
		field.DefaultValue = update.DefaultValue
	}
}

func copyMap(source map[string]string) map[string]string {
	if source == nil {
		return nil
	}
	target := make(map[string]string, len(source))
	for key, value := range source {
		target[key] = value
	}
	return target
}

// mergeMap returns base overlaid with changes. An empty value deletes the key.
func mergeMap(base, changes map[string]string) map[string]string {
	merged := copyMap(base)
	if merged == nil {
		merged = make(map[string]string, len(changes))
	}
	for key, value := range changes {
		if value == "" {
			delete(merged, key)
			continue
		}
		merged[key] = value
	}
	return merged
}
