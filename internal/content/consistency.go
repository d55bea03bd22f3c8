// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package content

import (
	"context"
	"log/slog"
	"slices"

	"github.com/taibuivan/cmsrest/internal/lifecycle"
	"github.com/taibuivan/cmsrest/internal/platform/apperr"
)

// # Relations

// ListRelations returns the relations of one version.
func (service *Service) ListRelations(context context.Context, id int64, versionNo int) ([]Relation, error) {
	if _, err := service.store.FindVersion(context, id, versionNo); err != nil {
		return nil, err
	}
	return service.store.ListRelations(context, id, versionNo)
}

/*
AddRelation adds a COMMON relation from a draft version to another item.

Description: Only drafts accept new relations, and a version holds at most
one COMMON relation per destination. A destination that cannot be resolved
is denied rather than reported as not found, so the endpoint does not reveal
which content ids exist. A relation to the item itself is denied.

Parameters:
  - context: context.Context
  - id: int64 (source content)
  - versionNo: int (source version)
  - destinationID: int64
  - ifMatch: string (expected version tag, may be empty)

Returns:
  - *Relation: The new relation
  - error: Denied, PreconditionFailed or NotFound (source version)
*/
func (service *Service) AddRelation(context context.Context, id int64, versionNo int, destinationID int64, ifMatch string) (*Relation, error) {
	version, err := service.store.FindVersion(context, id, versionNo)
	if err != nil {
		return nil, err
	}

	relation := &Relation{
		SourceContentID:      id,
		SourceVersionNo:      versionNo,
		DestinationContentID: destinationID,
		Type:                 RelationCommon,
	}

	var tag string
	err = service.lifecycle.Edit(context, version, ifMatch, true, func(newTag string) error {
		if destinationID == id {
			return apperr.Denied(ReasonSelfRelation)
		}

		if _, err := service.store.FindContent(context, destinationID); err != nil {
			if apperr.HasCode(err, apperr.CodeNotFound) {
				return apperr.Denied(ReasonRelationDestination)
			}
			return err
		}

		relations, err := service.store.ListRelations(context, id, versionNo)
		if err != nil {
			return err
		}
		if slices.ContainsFunc(relations, func(existing Relation) bool {
			return existing.Type == RelationCommon && existing.DestinationContentID == destinationID
		}) {
			return apperr.Denied(ReasonRelationExists)
		}

		tag = newTag
		return service.store.AddRelation(context, relation, version.Tag, newTag)
	})
	if err != nil {
		return nil, err
	}

	service.lifecycle.Mediator().Remember(context, versionKey(id, versionNo), tag)
	return relation, nil
}

/*
RemoveRelation removes a COMMON relation from a draft version.

Returns:
  - error: NotFound (relation not on the version), Denied (type or status)
    or PreconditionFailed
*/
func (service *Service) RemoveRelation(context context.Context, id int64, versionNo int, relationID int64, ifMatch string) error {
	version, err := service.store.FindVersion(context, id, versionNo)
	if err != nil {
		return err
	}

	relations, err := service.store.ListRelations(context, id, versionNo)
	if err != nil {
		return err
	}

	index := slices.IndexFunc(relations, func(relation Relation) bool { return relation.ID == relationID })
	if index < 0 {
		return apperr.NotFound("Relation")
	}
	if relations[index].Type != RelationCommon {
		return apperr.Denied(ReasonRelationType)
	}

	var tag string
	err = service.lifecycle.Edit(context, version, ifMatch, true, func(newTag string) error {
		tag = newTag
		return service.store.RemoveRelation(context, id, versionNo, relationID, version.Tag, newTag)
	})
	if err != nil {
		return err
	}

	service.lifecycle.Mediator().Remember(context, versionKey(id, versionNo), tag)
	return nil
}

// # Translations

/*
DeleteTranslationFromDraft removes one translation from a draft version.

Returns:
  - *Version: The updated draft
  - error: Denied (not a draft), NotAcceptable (language absent), Conflict
    (only or main translation) or PreconditionFailed
*/
func (service *Service) DeleteTranslationFromDraft(context context.Context, id int64, versionNo int, languageCode, ifMatch string) (*Version, error) {
	version, err := service.store.FindVersion(context, id, versionNo)
	if err != nil {
		return nil, err
	}

	content, err := service.store.FindContent(context, id)
	if err != nil {
		return nil, err
	}

	var tag string
	err = service.lifecycle.Edit(context, version, ifMatch, true, func(newTag string) error {
		switch {
		case !version.HasLanguage(languageCode):
			return apperr.NotAcceptable("translation " + languageCode + " does not exist in the version")
		case len(version.Names) == 1:
			return apperr.Conflict("the only translation of a version cannot be deleted")
		case languageCode == content.MainLanguageCode:
			return apperr.Conflict(ReasonMainTranslation)
		}

		tag = newTag
		return service.store.RemoveTranslation(context, id, versionNo, languageCode, version.Tag, newTag)
	})
	if err != nil {
		return nil, err
	}

	service.lifecycle.Mediator().Remember(context, versionKey(id, versionNo), tag)
	return service.store.FindVersion(context, id, versionNo)
}

// cascadeStep is the planned change of one version.
type cascadeStep struct {
	versionNo int
	delete    bool
}

/*
DeleteTranslation removes a language from every version of an item.

Description: Versions whose only translation is the language are deleted,
the others lose that translation. All changes commit in one transaction and a
failure on any version rolls back every version already touched. The item tag
is compared against ifMatch up front and swapped inside the transaction, so a
concurrent change to the item also rolls the cascade back.

The main language is never removed, nor the last language of the item, nor
a language whose removal would delete the current version.

Parameters:
  - context: context.Context
  - id: int64
  - languageCode: string
  - ifMatch: string (expected item tag, may be empty)

Returns:
  - error: Denied, NotFound (no version carries the language),
    PreconditionFailed or store failures
*/
func (service *Service) DeleteTranslation(context context.Context, id int64, languageCode, ifMatch string) error {
	content, err := service.store.FindContent(context, id)
	if err != nil {
		return err
	}

	if err := service.lifecycle.Mediator().Precondition(ifMatch, content.Tag); err != nil {
		return err
	}

	if languageCode == content.MainLanguageCode {
		return apperr.Denied(ReasonMainTranslation)
	}

	translations, err := service.store.ListTranslations(context, id)
	if err != nil {
		return err
	}

	steps, err := planCascade(content, translations, languageCode)
	if err != nil {
		return err
	}

	transaction, err := service.store.Begin(context)
	if err != nil {
		return err
	}
	defer transaction.Rollback(context)

	if err := applyCascade(context, transaction, content, languageCode, steps); err != nil {
		service.logger.WarnContext(context, "translation_cascade_rolled_back",
			slog.Int64("content_id", id),
			slog.String("language_code", languageCode),
			slog.Any("error", err),
		)
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return err
	}

	keys := make([]string, 0, len(steps))
	deleted := 0
	for _, step := range steps {
		keys = append(keys, versionKey(id, step.versionNo))
		if step.delete {
			deleted++
		}
	}
	service.lifecycle.Mediator().Forget(context, keys...)

	service.logger.Info("content_translation_deleted",
		slog.Int64("content_id", id),
		slog.String("language_code", languageCode),
		slog.Int("versions_stripped", len(steps)-deleted),
		slog.Int("versions_deleted", deleted),
	)
	return nil
}

// planCascade decides, before anything is written, what happens to every
// version carrying languageCode.
func planCascade(content *Content, translations []VersionTranslations, languageCode string) ([]cascadeStep, error) {
	steps := make([]cascadeStep, 0)
	remaining := false

	for _, version := range translations {
		if !slices.Contains(version.LanguageCodes, languageCode) {
			if len(version.LanguageCodes) > 0 {
				remaining = true
			}
			continue
		}

		only := len(version.LanguageCodes) == 1
		if !only {
			remaining = true
		}
		if only && version.VersionNo == content.CurrentVersionNo {
			return nil, apperr.Denied(ReasonCurrentVersion)
		}
		steps = append(steps, cascadeStep{versionNo: version.VersionNo, delete: only})
	}

	if len(steps) == 0 {
		return nil, apperr.NotFound("Translation")
	}
	if !remaining {
		return nil, apperr.Denied(ReasonOnlyTranslation)
	}
	return steps, nil
}

func applyCascade(context context.Context, transaction Tx, content *Content, languageCode string, steps []cascadeStep) error {
	id := content.ID
	for _, step := range steps {
		if step.delete {
			if err := transaction.DeleteVersion(context, id, step.versionNo); err != nil {
				return err
			}
			continue
		}
		if err := transaction.StripTranslation(context, id, step.versionNo, languageCode, lifecycle.NewTag()); err != nil {
			return err
		}
	}
	return transaction.TouchContent(context, id, content.Tag, lifecycle.NewTag())
}
