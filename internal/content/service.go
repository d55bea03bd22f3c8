// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package content

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/taibuivan/cmsrest/internal/lifecycle"
	"github.com/taibuivan/cmsrest/internal/platform/apperr"
	"github.com/taibuivan/cmsrest/internal/platform/validate"
	"github.com/taibuivan/cmsrest/pkg/pointer"
	"github.com/taibuivan/cmsrest/pkg/uuid"
)

// # Service Layer

// Service orchestrates content items, their versions, relations and
// translations.
type Service struct {
	store            Store
	types            Types
	lifecycle        *lifecycle.Lifecycle
	archiveOnPublish bool
	logger           *slog.Logger
}

// NewService constructs a new [Service]. manager must govern
// [lifecycle.FamilyContent]. With archiveOnPublish set, publishing a version
// archives the previously current one.
func NewService(store Store, types Types, manager *lifecycle.Lifecycle, archiveOnPublish bool, logger *slog.Logger) *Service {
	return &Service{
		store:            store,
		types:            types,
		lifecycle:        manager,
		archiveOnPublish: archiveOnPublish,
		logger:           logger,
	}
}

func versionKey(contentID int64, versionNo int) string {
	return "content:" + strconv.FormatInt(contentID, 10) + ":" + strconv.Itoa(versionNo)
}

// # Content Items

/*
CreateContent creates a content item with its first draft version.

Description: The content type must be published. The main language defaults
to the type's main language and must be one of the draft's translations.
Field values are checked against the type, but required fields may still be
empty: completeness is only enforced on publish.

Parameters:
  - context: context.Context
  - input: ContentCreate

Returns:
  - *Content: The new item (unpublished)
  - *Version: Its draft version 1
  - error: Validation, NotFound (type) or Conflict (remote id) errors
*/
func (service *Service) CreateContent(context context.Context, input ContentCreate) (*Content, *Version, error) {
	if input.ContentTypeID <= 0 {
		return nil, nil, apperr.ValidationError("Invalid content", apperr.FieldError{Field: FieldContentTypeID, Message: "must be a positive integer"})
	}

	contentType, err := service.types.ResolvePublished(context, input.ContentTypeID)
	if err != nil {
		return nil, nil, err
	}

	if input.MainLanguageCode == "" {
		input.MainLanguageCode = contentType.MainLanguageCode
	}
	if err := validateCreate(input); err != nil {
		return nil, nil, err
	}

	content := &Content{
		ContentTypeID:    input.ContentTypeID,
		RemoteID:         input.RemoteID,
		MainLanguageCode: input.MainLanguageCode,
		AlwaysAvailable:  pointer.Fallback(input.AlwaysAvailable, true),
		CurrentVersionNo: 1,
	}
	if content.RemoteID == "" {
		content.RemoteID = uuid.New()
	}

	draft := &Version{
		Status:              lifecycle.StatusDraft,
		InitialLanguageCode: input.MainLanguageCode,
		Names:               input.Names,
		Fields:              input.Fields,
		CreatorID:           input.CreatorID,
	}

	if err := service.types.ValidateFields(context, content.ContentTypeID, content.MainLanguageCode, draft.Languages(), fieldValues(draft.Fields), false); err != nil {
		return nil, nil, err
	}

	err = service.lifecycle.CreateFromScratch(context, func(tag string) error {
		content.Tag = tag
		draft.Tag = tag
		return service.store.CreateContent(context, content, draft)
	})
	if err != nil {
		return nil, nil, err
	}

	service.logger.Info("content_created",
		slog.Int64("content_id", content.ID),
		slog.Int64("content_type_id", content.ContentTypeID),
	)
	return content, draft, nil
}

// LoadContent returns the version-independent part of an item.
func (service *Service) LoadContent(context context.Context, id int64) (*Content, error) {
	return service.store.FindContent(context, id)
}

/*
UpdateContentMetadata changes the version-independent attributes of an item.

Description: The new main language must be a translation of the current
version. The item tag is checked against ifMatch and rotated.

Returns:
  - *Content: The updated item
  - error: Denied (empty update), PreconditionFailed, Validation or Conflict
*/
func (service *Service) UpdateContentMetadata(context context.Context, id int64, update MetadataUpdate, ifMatch string) (*Content, error) {
	content, err := service.store.FindContent(context, id)
	if err != nil {
		return nil, err
	}

	if err := service.lifecycle.Mediator().Precondition(ifMatch, content.Tag); err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return nil, apperr.Denied(lifecycle.ReasonNothingToUpdate)
	}

	updated := *content
	if update.MainLanguageCode != nil {
		validator := &validate.Validator{}
		if err := validator.LanguageCode(FieldMainLanguageCode, *update.MainLanguageCode).Err(); err != nil {
			return nil, err
		}

		current, err := service.store.FindVersion(context, id, content.CurrentVersionNo)
		if err != nil {
			return nil, err
		}
		if !current.HasLanguage(*update.MainLanguageCode) {
			return nil, apperr.ValidationError("Invalid main language",
				apperr.FieldError{Field: FieldMainLanguageCode, Message: "must be a translation of the current version"})
		}
		updated.MainLanguageCode = *update.MainLanguageCode
	}
	if update.RemoteID != nil {
		updated.RemoteID = *update.RemoteID
	}
	if update.AlwaysAvailable != nil {
		updated.AlwaysAvailable = *update.AlwaysAvailable
	}

	updated.Tag = lifecycle.NewTag()
	if err := service.store.UpdateContent(context, &updated, content.Tag); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteContent removes an item with all its versions. ifMatch is checked
// against the item tag.
func (service *Service) DeleteContent(context context.Context, id int64, ifMatch string) error {
	content, err := service.store.FindContent(context, id)
	if err != nil {
		return err
	}

	if err := service.lifecycle.Mediator().Precondition(ifMatch, content.Tag); err != nil {
		return err
	}

	versions, err := service.store.ListVersions(context, id)
	if err != nil {
		return err
	}

	if err := service.store.DeleteContent(context, id, content.Tag); err != nil {
		return err
	}

	keys := make([]string, 0, len(versions))
	for _, version := range versions {
		keys = append(keys, versionKey(id, version.VersionNo))
	}
	service.lifecycle.Mediator().Forget(context, keys...)

	service.logger.Info("content_deleted", slog.Int64("content_id", id), slog.Int("versions", len(versions)))
	return nil
}

// # Versions

// ListVersions returns every version of an item without field values.
func (service *Service) ListVersions(context context.Context, id int64) ([]*Version, error) {
	if _, err := service.store.FindContent(context, id); err != nil {
		return nil, err
	}
	return service.store.ListVersions(context, id)
}

/*
LoadVersion returns one version with its field values.

Description: When ifNoneMatch names the current tag the read is answered with
a [lifecycle.NotModified] error, from the tag cache when possible.

Returns:
  - *Version: The version
  - error: NotFound, NotModified or store failures
*/
func (service *Service) LoadVersion(context context.Context, id int64, versionNo int, ifNoneMatch string) (*Version, error) {
	mediator := service.lifecycle.Mediator()
	if tag, fresh := mediator.Fresh(context, versionKey(id, versionNo), ifNoneMatch); fresh {
		return nil, &lifecycle.NotModified{Tag: tag}
	}

	version, err := service.store.FindVersion(context, id, versionNo)
	if err != nil {
		return nil, err
	}

	if err := mediator.Validate(context, versionKey(id, versionNo), ifNoneMatch, version.Tag); err != nil {
		return nil, err
	}
	return version, nil
}

/*
CreateDraftFromVersion creates a new draft copied from an existing version.

Description: The draft gets the next free version number and copies the
translations, field values and COMMON relations of the source. Content items
may carry any number of drafts.

Returns:
  - *Version: The new draft
  - error: NotFound or store failures
*/
func (service *Service) CreateDraftFromVersion(context context.Context, id int64, versionNo int) (*Version, error) {
	source, err := service.store.FindVersion(context, id, versionNo)
	if err != nil {
		return nil, err
	}

	draft := copyVersion(source)
	draft.Status = lifecycle.StatusDraft

	err = service.lifecycle.CreateDraft(context, source.Lifecycle(), func(tag string) error {
		draft.Tag = tag
		return service.store.CreateVersion(context, draft, source.VersionNo)
	})
	if err != nil {
		return nil, err
	}

	service.logger.Info("content_draft_created",
		slog.Int64("content_id", id),
		slog.Int("from_version", versionNo),
		slog.Int("version", draft.VersionNo),
	)
	return draft, nil
}

// CreateDraftFromCurrent creates a new draft copied from the current version.
func (service *Service) CreateDraftFromCurrent(context context.Context, id int64) (*Version, error) {
	content, err := service.store.FindContent(context, id)
	if err != nil {
		return nil, err
	}
	return service.CreateDraftFromVersion(context, id, content.CurrentVersionNo)
}

/*
UpdateVersion applies a partial update to a draft version.

Description: Names add or rename translations and field values replace the
values they name. The result is checked against the content type; required
fields may stay empty until publish.

Parameters:
  - context: context.Context
  - id: int64
  - versionNo: int
  - update: VersionUpdate
  - ifMatch: string (expected tag, may be empty)

Returns:
  - *Version: The updated draft
  - error: Denied, PreconditionFailed or Validation errors
*/
func (service *Service) UpdateVersion(context context.Context, id int64, versionNo int, update VersionUpdate, ifMatch string) (*Version, error) {
	version, err := service.store.FindVersion(context, id, versionNo)
	if err != nil {
		return nil, err
	}

	content, err := service.store.FindContent(context, id)
	if err != nil {
		return nil, err
	}

	updated := copyVersion(version)
	err = service.lifecycle.Edit(context, version, ifMatch, !update.IsEmpty(), func(tag string) error {
		if err := validateVersionUpdate(update); err != nil {
			return err
		}

		applyVersionUpdate(updated, update)
		if !updated.HasLanguage(updated.InitialLanguageCode) {
			return apperr.ValidationError("Invalid version",
				apperr.FieldError{Field: FieldInitialLanguageCode, Message: "must be a translation of the version"})
		}

		if err := service.types.ValidateFields(context, content.ContentTypeID, content.MainLanguageCode, updated.Languages(), fieldValues(updated.Fields), false); err != nil {
			return err
		}

		updated.Tag = tag
		return service.store.UpdateVersion(context, updated, version.Tag)
	})
	if err != nil {
		return nil, err
	}

	service.lifecycle.Mediator().Remember(context, versionKey(id, versionNo), updated.Tag)
	return updated, nil
}

/*
DeleteVersion deletes a version that is not published.

Description: The current version and the only version of an item are kept;
delete the item itself instead.

Returns:
  - error: Denied, PreconditionFailed or NotFound
*/
func (service *Service) DeleteVersion(context context.Context, id int64, versionNo int, ifMatch string) error {
	version, err := service.store.FindVersion(context, id, versionNo)
	if err != nil {
		return err
	}

	content, err := service.store.FindContent(context, id)
	if err != nil {
		return err
	}

	err = service.lifecycle.DeleteDraft(context, version, lifecycle.OpDeleteVersion, ifMatch, func() error {
		versions, err := service.store.ListVersions(context, id)
		if err != nil {
			return err
		}
		if len(versions) == 1 {
			return apperr.Denied(ReasonOnlyVersion)
		}
		if versionNo == content.CurrentVersionNo {
			return apperr.Denied(ReasonCurrentVersion)
		}
		return service.store.DeleteVersion(context, id, versionNo, version.Tag)
	})
	if err != nil {
		return err
	}

	service.lifecycle.Mediator().Forget(context, versionKey(id, versionNo))
	return nil
}

/*
PublishVersion publishes a draft and makes it the current version.

Description: The version must carry the item's main language and every
required field must carry a value in each translation. The previously current version is archived or left published
according to the archiving policy; both changes commit together.

Returns:
  - *Version: The published version
  - error: Denied, PreconditionFailed, Validation or store failures
*/
func (service *Service) PublishVersion(context context.Context, id int64, versionNo int, ifMatch string) (*Version, error) {
	version, err := service.store.FindVersion(context, id, versionNo)
	if err != nil {
		return nil, err
	}

	content, err := service.store.FindContent(context, id)
	if err != nil {
		return nil, err
	}

	check := func() error {
		if !version.HasLanguage(content.MainLanguageCode) {
			return apperr.Denied(ReasonMissingMain)
		}
		return service.types.ValidateFields(context, content.ContentTypeID, content.MainLanguageCode, version.Languages(), fieldValues(version.Fields), true)
	}

	var publishedTag string
	err = service.lifecycle.Publish(context, version, ifMatch, check, func(tag string) error {
		publishedTag = tag
		return service.store.PublishVersion(context, id, versionNo, version.Tag, tag, service.archiveOnPublish)
	})
	if err != nil {
		return nil, err
	}

	mediator := service.lifecycle.Mediator()
	mediator.Remember(context, versionKey(id, versionNo), publishedTag)
	if content.CurrentVersionNo != versionNo {
		mediator.Forget(context, versionKey(id, content.CurrentVersionNo))
	}

	service.logger.Info("content_version_published",
		slog.Int64("content_id", id),
		slog.Int("version", versionNo),
		slog.Bool("archived_previous", service.archiveOnPublish && content.Published && content.CurrentVersionNo != versionNo),
	)

	return service.store.FindVersion(context, id, versionNo)
}

// # Helpers

func validateCreate(input ContentCreate) error {
	validator := &validate.Validator{}
	validator.LanguageCode(FieldMainLanguageCode, input.MainLanguageCode).
		Custom(FieldNames, len(input.Names) == 0, "At least one translation is required").
		Custom(FieldNames, len(input.Names) > 0 && input.Names[input.MainLanguageCode] == "", "A name in the main language is required")

	validateNames(validator, input.Names)
	return validator.Err()
}

func validateVersionUpdate(update VersionUpdate) error {
	validator := &validate.Validator{}
	if update.InitialLanguageCode != nil {
		validator.LanguageCode(FieldInitialLanguageCode, *update.InitialLanguageCode)
	}
	validateNames(validator, update.Names)
	return validator.Err()
}

func validateNames(validator *validate.Validator, names map[string]string) {
	for _, code := range sortedKeys(names) {
		field := fmt.Sprintf("%s.%s", FieldNames, code)
		validator.LanguageCode(field, code).Required(field, names[code])
	}
}

func copyVersion(source *Version) *Version {
	target := *source
	target.Names = make(map[string]string, len(source.Names))
	for code, name := range source.Names {
		target.Names[code] = name
	}
	target.Fields = make([]Field, len(source.Fields))
	for index, field := range source.Fields {
		field.Value = append([]byte(nil), field.Value...)
		target.Fields[index] = field
	}
	return &target
}

func applyVersionUpdate(version *Version, update VersionUpdate) {
	if update.InitialLanguageCode != nil {
		version.InitialLanguageCode = *update.InitialLanguageCode
	}
	for code, name := range update.Names {
		version.Names[code] = name
	}

	for _, change := range update.Fields {
		replaced := false
		for index := range version.Fields {
			if version.Fields[index].Identifier == change.Identifier && version.Fields[index].LanguageCode == change.LanguageCode {
				version.Fields[index].Value = change.Value
				replaced = true
				break
			}
		}
		if !replaced {
			version.Fields = append(version.Fields, change)
		}
	}
}
