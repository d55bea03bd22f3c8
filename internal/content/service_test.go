// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package content_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/cmsrest/internal/content"
	"github.com/taibuivan/cmsrest/internal/contenttype"
	"github.com/taibuivan/cmsrest/internal/lifecycle"
	"github.com/taibuivan/cmsrest/internal/platform/apperr"
)

type fixture struct {
	store   *memoryStore
	service *content.Service
	article *contenttype.ContentType
}

func articleType() *contenttype.ContentType {
	return &contenttype.ContentType{
		ID:               7,
		Status:           lifecycle.StatusPublished,
		Identifier:       "article",
		MainLanguageCode: "en-GB",
		Names:            map[string]string{"en-GB": "Article"},
		FieldDefinitions: []contenttype.FieldDefinition{
			{ID: 1, Identifier: "title", FieldType: "text_line", IsRequired: true, IsTranslatable: true},
			{ID: 2, Identifier: "body", FieldType: "rich_text", IsTranslatable: true},
		},
	}
}

func newFixture(t *testing.T, archiveOnPublish bool) *fixture {
	t.Helper()
	return newCachedFixture(t, archiveOnPublish, nil)
}

func newCachedFixture(t *testing.T, archiveOnPublish bool, cache lifecycle.TagCache) *fixture {
	t.Helper()

	store := newMemoryStore()
	article := articleType()
	manager := lifecycle.New(lifecycle.FamilyContent, lifecycle.NewMediator(cache), nil)
	service := content.NewService(store, publishedType{contentType: article}, manager, archiveOnPublish,
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	return &fixture{store: store, service: service, article: article}
}

func title(languageCode, value string) content.Field {
	return content.Field{Identifier: "title", LanguageCode: languageCode, Value: json.RawMessage(strconv.Quote(value))}
}

// create makes an item whose first draft carries a title in every language.
func (f *fixture) create(t *testing.T, languages ...string) (*content.Content, *content.Version) {
	t.Helper()

	input := content.ContentCreate{ContentTypeID: f.article.ID, Names: map[string]string{}}
	for _, code := range languages {
		input.Names[code] = "Article " + code
		input.Fields = append(input.Fields, title(code, "Title "+code))
	}

	item, draft, err := f.service.CreateContent(context.Background(), input)
	require.NoError(t, err)
	return item, draft
}

// createPublished makes an item and publishes its first version.
func (f *fixture) createPublished(t *testing.T, languages ...string) (*content.Content, *content.Version) {
	t.Helper()

	item, draft := f.create(t, languages...)
	published, err := f.service.PublishVersion(context.Background(), item.ID, draft.VersionNo, draft.Tag)
	require.NoError(t, err)

	item, err = f.service.LoadContent(context.Background(), item.ID)
	require.NoError(t, err)
	return item, published
}

func requireCode(t *testing.T, err error, code string) *apperr.AppError {
	t.Helper()
	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError, "expected an AppError, got %v", err)
	require.Equal(t, code, appError.Code, appError.Message)
	return appError
}

func requireDenied(t *testing.T, err error, reason string) {
	t.Helper()
	appError := requireCode(t, err, apperr.CodeDenied)
	assert.Equal(t, reason, appError.Message)
}

/*
TestService_CreateContent verifies defaults and input validation.
*/
func TestService_CreateContent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	item, draft := f.create(t, "en-GB")
	assert.Equal(t, "en-GB", item.MainLanguageCode)
	assert.NotEmpty(t, item.RemoteID)
	assert.True(t, item.AlwaysAvailable)
	assert.False(t, item.Published)
	assert.Equal(t, 1, item.CurrentVersionNo)

	assert.Equal(t, 1, draft.VersionNo)
	assert.Equal(t, lifecycle.StatusDraft, draft.Status)
	assert.Equal(t, "en-GB", draft.InitialLanguageCode)
	assert.NotEmpty(t, draft.Tag)

	t.Run("unknown_type", func(t *testing.T) {
		_, _, err := f.service.CreateContent(ctx, content.ContentCreate{ContentTypeID: 99, Names: map[string]string{"en-GB": "x"}})
		requireCode(t, err, apperr.CodeNotFound)
	})

	t.Run("missing_main_translation", func(t *testing.T) {
		_, _, err := f.service.CreateContent(ctx, content.ContentCreate{ContentTypeID: f.article.ID, Names: map[string]string{"fr-FR": "x"}})
		requireCode(t, err, apperr.CodeValidation)
	})

	t.Run("unknown_field", func(t *testing.T) {
		_, _, err := f.service.CreateContent(ctx, content.ContentCreate{
			ContentTypeID: f.article.ID,
			Names:         map[string]string{"en-GB": "x"},
			Fields:        []content.Field{{Identifier: "subtitle", LanguageCode: "en-GB", Value: json.RawMessage(`"x"`)}},
		})
		requireCode(t, err, apperr.CodeValidation)
	})

	t.Run("duplicate_remote_id", func(t *testing.T) {
		_, _, err := f.service.CreateContent(ctx, content.ContentCreate{
			ContentTypeID: f.article.ID,
			RemoteID:      item.RemoteID,
			Names:         map[string]string{"en-GB": "x"},
		})
		requireCode(t, err, apperr.CodeConflict)
	})
}

/*
TestService_PublishRequiresFields verifies the pre-publish completeness check.
*/
func TestService_PublishRequiresFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	item, draft, err := f.service.CreateContent(ctx, content.ContentCreate{
		ContentTypeID: f.article.ID,
		Names:         map[string]string{"en-GB": "Untitled"},
	})
	require.NoError(t, err)

	_, err = f.service.PublishVersion(ctx, item.ID, draft.VersionNo, draft.Tag)
	requireCode(t, err, apperr.CodeValidation)

	// Nothing changed
	stored, err := f.service.LoadVersion(ctx, item.ID, draft.VersionNo, "")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusDraft, stored.Status)
	assert.Equal(t, draft.Tag, stored.Tag)

	updated, err := f.service.UpdateVersion(ctx, item.ID, draft.VersionNo, content.VersionUpdate{Fields: []content.Field{title("en-GB", "Hello")}}, draft.Tag)
	require.NoError(t, err)
	assert.NotEqual(t, draft.Tag, updated.Tag)

	published, err := f.service.PublishVersion(ctx, item.ID, draft.VersionNo, updated.Tag)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusPublished, published.Status)

	item, err = f.service.LoadContent(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, item.Published)
	assert.Equal(t, 1, item.CurrentVersionNo)
}

/*
TestService_PublishArchivesPrevious covers both archiving policies.
*/
func TestService_PublishArchivesPrevious(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		archive  bool
		previous lifecycle.Status
	}{
		{"archive", true, lifecycle.StatusArchived},
		{"keep_published", false, lifecycle.StatusPublished},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.archive)
			item, first := f.createPublished(t, "en-GB")

			draft, err := f.service.CreateDraftFromCurrent(ctx, item.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, draft.VersionNo)
			assert.Equal(t, lifecycle.StatusDraft, draft.Status)
			assert.Equal(t, first.Names, draft.Names)

			_, err = f.service.PublishVersion(ctx, item.ID, draft.VersionNo, draft.Tag)
			require.NoError(t, err)

			previous, err := f.service.LoadVersion(ctx, item.ID, first.VersionNo, "")
			require.NoError(t, err)
			assert.Equal(t, tt.previous, previous.Status)

			item, err = f.service.LoadContent(ctx, item.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, item.CurrentVersionNo)
		})
	}
}

/*
TestService_Relations walks a relation through draft and published versions.
*/
func TestService_Relations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	target, _ := f.createPublished(t, "en-GB")
	item, draft := f.create(t, "en-GB")

	// A draft cannot relate to its own item
	_, err := f.service.AddRelation(ctx, item.ID, draft.VersionNo, item.ID, "")
	requireDenied(t, err, content.ReasonSelfRelation)

	published, err := f.service.PublishVersion(ctx, item.ID, draft.VersionNo, draft.Tag)
	require.NoError(t, err)

	// Published versions are read-only
	_, err = f.service.AddRelation(ctx, item.ID, published.VersionNo, target.ID, "")
	requireDenied(t, err, lifecycle.ReasonOnlyDraftsEdited)

	second, err := f.service.CreateDraftFromCurrent(ctx, item.ID)
	require.NoError(t, err)

	relation, err := f.service.AddRelation(ctx, item.ID, second.VersionNo, target.ID, second.Tag)
	require.NoError(t, err)
	assert.Equal(t, content.RelationCommon, relation.Type)
	assert.NotZero(t, relation.ID)

	// The tag rotated: the old one is stale
	_, err = f.service.AddRelation(ctx, item.ID, second.VersionNo, target.ID, second.Tag)
	requireCode(t, err, apperr.CodePreconditionFailed)

	_, err = f.service.AddRelation(ctx, item.ID, second.VersionNo, target.ID, "")
	requireDenied(t, err, content.ReasonRelationExists)

	_, err = f.service.AddRelation(ctx, item.ID, second.VersionNo, 999, "")
	requireDenied(t, err, content.ReasonRelationDestination)

	// New drafts inherit COMMON relations
	third, err := f.service.CreateDraftFromVersion(ctx, item.ID, second.VersionNo)
	require.NoError(t, err)

	relations, err := f.service.ListRelations(ctx, item.ID, third.VersionNo)
	require.NoError(t, err)
	require.Len(t, relations, 1)
	assert.Equal(t, target.ID, relations[0].DestinationContentID)

	require.NoError(t, f.service.RemoveRelation(ctx, item.ID, third.VersionNo, relations[0].ID, ""))

	relations, err = f.service.ListRelations(ctx, item.ID, third.VersionNo)
	require.NoError(t, err)
	assert.Empty(t, relations)

	err = f.service.RemoveRelation(ctx, item.ID, third.VersionNo, relation.ID, "")
	requireCode(t, err, apperr.CodeNotFound)

	// Relations of a published version stay put
	_, err = f.service.PublishVersion(ctx, item.ID, second.VersionNo, "")
	require.NoError(t, err)

	err = f.service.RemoveRelation(ctx, item.ID, second.VersionNo, relation.ID, "")
	requireDenied(t, err, lifecycle.ReasonOnlyDraftsEdited)

	relations, err = f.service.ListRelations(ctx, item.ID, second.VersionNo)
	require.NoError(t, err)
	assert.Len(t, relations, 1)
}

/*
TestService_RemoveRelationType verifies only COMMON relations are user managed.
*/
func TestService_RemoveRelationType(t *testing.T) {
	f := newFixture(t, true)
	target, _ := f.createPublished(t, "en-GB")
	item, draft := f.create(t, "en-GB")

	f.store.nextRelation++
	embedded := &content.Relation{
		ID:                   f.store.nextRelation,
		SourceContentID:      item.ID,
		SourceVersionNo:      draft.VersionNo,
		DestinationContentID: target.ID,
		Type:                 content.RelationEmbed,
	}
	f.store.state.relations[embedded.ID] = embedded

	err := f.service.RemoveRelation(context.Background(), item.ID, draft.VersionNo, embedded.ID, "")
	requireDenied(t, err, content.ReasonRelationType)
}

/*
TestService_DeleteVersion covers the version deletion rules.
*/
func TestService_DeleteVersion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	item, draft := f.create(t, "en-GB")
	err := f.service.DeleteVersion(ctx, item.ID, draft.VersionNo, "")
	requireDenied(t, err, content.ReasonOnlyVersion)

	_, err = f.service.PublishVersion(ctx, item.ID, draft.VersionNo, draft.Tag)
	require.NoError(t, err)

	err = f.service.DeleteVersion(ctx, item.ID, draft.VersionNo, "")
	requireDenied(t, err, lifecycle.ReasonPublishedNoDelete)

	second, err := f.service.CreateDraftFromCurrent(ctx, item.ID)
	require.NoError(t, err)

	err = f.service.DeleteVersion(ctx, item.ID, second.VersionNo, "stale")
	requireCode(t, err, apperr.CodePreconditionFailed)

	require.NoError(t, f.service.DeleteVersion(ctx, item.ID, second.VersionNo, second.Tag))

	// Archived versions can go
	third, err := f.service.CreateDraftFromCurrent(ctx, item.ID)
	require.NoError(t, err)
	_, err = f.service.PublishVersion(ctx, item.ID, third.VersionNo, third.Tag)
	require.NoError(t, err)
	require.NoError(t, f.service.DeleteVersion(ctx, item.ID, draft.VersionNo, ""))

	versions, err := f.service.ListVersions(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, third.VersionNo, versions[0].VersionNo)
}

/*
TestService_UpdateVersion covers edits of a draft.
*/
func TestService_UpdateVersion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	item, draft := f.create(t, "en-GB")

	_, err := f.service.UpdateVersion(ctx, item.ID, draft.VersionNo, content.VersionUpdate{}, "")
	requireDenied(t, err, lifecycle.ReasonNothingToUpdate)

	update := content.VersionUpdate{
		Names:  map[string]string{"fr-FR": "Article"},
		Fields: []content.Field{title("fr-FR", "Bonjour"), title("en-GB", "Hello")},
	}
	updated, err := f.service.UpdateVersion(ctx, item.ID, draft.VersionNo, update, draft.Tag)
	require.NoError(t, err)
	assert.Equal(t, []string{"en-GB", "fr-FR"}, updated.Languages())
	assert.Len(t, updated.Fields, 2)

	_, err = f.service.UpdateVersion(ctx, item.ID, draft.VersionNo, update, draft.Tag)
	requireCode(t, err, apperr.CodePreconditionFailed)

	// A field in a language the version lacks
	_, err = f.service.UpdateVersion(ctx, item.ID, draft.VersionNo, content.VersionUpdate{Fields: []content.Field{title("de-DE", "Hallo")}}, "")
	requireCode(t, err, apperr.CodeValidation)

	initial := "de-DE"
	_, err = f.service.UpdateVersion(ctx, item.ID, draft.VersionNo, content.VersionUpdate{InitialLanguageCode: &initial}, "")
	requireCode(t, err, apperr.CodeValidation)
}

/*
TestService_LoadVersionNotModified verifies conditional reads.
*/
func TestService_LoadVersionNotModified(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	item, draft := f.create(t, "en-GB")

	_, err := f.service.LoadVersion(ctx, item.ID, draft.VersionNo, draft.Tag)
	var notModified *lifecycle.NotModified
	require.True(t, errors.As(err, &notModified))
	assert.Equal(t, draft.Tag, notModified.Tag)

	updated, err := f.service.UpdateVersion(ctx, item.ID, draft.VersionNo, content.VersionUpdate{Fields: []content.Field{title("en-GB", "Changed")}}, "")
	require.NoError(t, err)

	loaded, err := f.service.LoadVersion(ctx, item.ID, draft.VersionNo, draft.Tag)
	require.NoError(t, err)
	assert.Equal(t, updated.Tag, loaded.Tag)
}

/*
TestService_UpdateContentMetadata covers the version independent attributes.
*/
func TestService_UpdateContentMetadata(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	item, _ := f.createPublished(t, "en-GB", "fr-FR")

	_, err := f.service.UpdateContentMetadata(ctx, item.ID, content.MetadataUpdate{}, "")
	requireDenied(t, err, lifecycle.ReasonNothingToUpdate)

	german := "de-DE"
	_, err = f.service.UpdateContentMetadata(ctx, item.ID, content.MetadataUpdate{MainLanguageCode: &german}, "")
	requireCode(t, err, apperr.CodeValidation)

	french := "fr-FR"
	updated, err := f.service.UpdateContentMetadata(ctx, item.ID, content.MetadataUpdate{MainLanguageCode: &french}, item.Tag)
	require.NoError(t, err)
	assert.Equal(t, "fr-FR", updated.MainLanguageCode)
	assert.NotEqual(t, item.Tag, updated.Tag)

	_, err = f.service.UpdateContentMetadata(ctx, item.ID, content.MetadataUpdate{MainLanguageCode: &french}, item.Tag)
	requireCode(t, err, apperr.CodePreconditionFailed)
}

/*
TestService_DeleteTranslationFromDraft covers single version translation removal.
*/
func TestService_DeleteTranslationFromDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	item, draft := f.create(t, "en-GB", "fr-FR")

	_, err := f.service.DeleteTranslationFromDraft(ctx, item.ID, draft.VersionNo, "de-DE", "")
	requireCode(t, err, apperr.CodeNotAcceptable)

	_, err = f.service.DeleteTranslationFromDraft(ctx, item.ID, draft.VersionNo, "en-GB", "")
	requireCode(t, err, apperr.CodeConflict)

	updated, err := f.service.DeleteTranslationFromDraft(ctx, item.ID, draft.VersionNo, "fr-FR", draft.Tag)
	require.NoError(t, err)
	assert.Equal(t, []string{"en-GB"}, updated.Languages())
	for _, field := range updated.Fields {
		assert.NotEqual(t, "fr-FR", field.LanguageCode)
	}
	assert.NotEqual(t, draft.Tag, updated.Tag)

	// Only one translation left
	_, err = f.service.DeleteTranslationFromDraft(ctx, item.ID, draft.VersionNo, "en-GB", "")
	requireCode(t, err, apperr.CodeConflict)

	_, err = f.service.PublishVersion(ctx, item.ID, draft.VersionNo, "")
	require.NoError(t, err)

	_, err = f.service.DeleteTranslationFromDraft(ctx, item.ID, draft.VersionNo, "en-GB", "")
	requireDenied(t, err, lifecycle.ReasonOnlyDraftsEdited)
}

/*
TestService_InitialLanguageFallback verifies a stripped initial language falls
back to a language the version still carries, and that a version without the
main translation cannot be published.
*/
func TestService_InitialLanguageFallback(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	item, _ := f.createPublished(t, "en-GB", "fr-FR")

	second, err := f.service.CreateDraftFromCurrent(ctx, item.ID)
	require.NoError(t, err)

	german := "de-DE"
	_, err = f.service.UpdateVersion(ctx, item.ID, second.VersionNo, content.VersionUpdate{
		InitialLanguageCode: &german,
		Names:               map[string]string{"de-DE": "Artikel"},
		Fields:              []content.Field{title("de-DE", "Hallo")},
	}, "")
	require.NoError(t, err)

	_, err = f.service.DeleteTranslationFromDraft(ctx, item.ID, second.VersionNo, "fr-FR", "")
	require.NoError(t, err)

	french := "fr-FR"
	_, err = f.service.UpdateContentMetadata(ctx, item.ID, content.MetadataUpdate{MainLanguageCode: &french}, "")
	require.NoError(t, err)

	updated, err := f.service.DeleteTranslationFromDraft(ctx, item.ID, second.VersionNo, "de-DE", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"en-GB"}, updated.Languages())
	assert.Equal(t, "en-GB", updated.InitialLanguageCode)

	// The draft stays editable
	_, err = f.service.UpdateVersion(ctx, item.ID, second.VersionNo, content.VersionUpdate{Names: map[string]string{"en-GB": "Renamed"}}, "")
	require.NoError(t, err)

	_, err = f.service.PublishVersion(ctx, item.ID, second.VersionNo, "")
	requireDenied(t, err, content.ReasonMissingMain)

	loaded, err := f.service.LoadContent(ctx, item.ID)
	require.NoError(t, err)
	assert.NotEqual(t, second.VersionNo, loaded.CurrentVersionNo)
}

/*
TestVersion_FallbackLanguage covers the initial language choice after a strip.
*/
func TestVersion_FallbackLanguage(t *testing.T) {
	version := &content.Version{Names: map[string]string{"fr-FR": "a", "de-DE": "b"}}

	assert.Equal(t, "fr-FR", version.FallbackLanguage("fr-FR"))
	assert.Equal(t, "de-DE", version.FallbackLanguage("en-GB"))
	assert.Empty(t, (&content.Version{Names: map[string]string{}}).FallbackLanguage("en-GB"))
}

// seedFrenchDraft stores a draft whose only translation is French.
func (f *fixture) seedFrenchDraft(item *content.Content, versionNo int) {
	f.store.state.versions[versionID{item.ID, versionNo}] = &content.Version{
		ContentID:           item.ID,
		VersionNo:           versionNo,
		Status:              lifecycle.StatusDraft,
		InitialLanguageCode: "fr-FR",
		Names:               map[string]string{"fr-FR": "Article"},
		Fields:              []content.Field{title("fr-FR", "Bonjour")},
		Tag:                 lifecycle.NewTag(),
	}
}

/*
TestService_DeleteTranslationCascade removes a language from every version.
*/
func TestService_DeleteTranslationCascade(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	item, first := f.createPublished(t, "en-GB", "fr-FR")
	second, err := f.service.CreateDraftFromCurrent(ctx, item.ID)
	require.NoError(t, err)
	f.seedFrenchDraft(item, 3)

	err = f.service.DeleteTranslation(ctx, item.ID, "fr-FR", "stale")
	requireCode(t, err, apperr.CodePreconditionFailed)

	versions, err := f.service.ListVersions(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3)

	require.NoError(t, f.service.DeleteTranslation(ctx, item.ID, "fr-FR", item.Tag))

	versions, err = f.service.ListVersions(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)

	for _, versionNo := range []int{first.VersionNo, second.VersionNo} {
		version, err := f.service.LoadVersion(ctx, item.ID, versionNo, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"en-GB"}, version.Languages())
		assert.Len(t, version.Fields, 1)
	}

	_, err = f.service.LoadVersion(ctx, item.ID, 3, "")
	requireCode(t, err, apperr.CodeNotFound)

	reloaded, err := f.service.LoadContent(ctx, item.ID)
	require.NoError(t, err)
	assert.NotEqual(t, item.Tag, reloaded.Tag)

	t.Run("main_language", func(t *testing.T) {
		err := f.service.DeleteTranslation(ctx, item.ID, "en-GB", "")
		requireDenied(t, err, content.ReasonMainTranslation)
	})

	t.Run("absent_language", func(t *testing.T) {
		err := f.service.DeleteTranslation(ctx, item.ID, "fr-FR", "")
		requireCode(t, err, apperr.CodeNotFound)
	})
}

/*
TestService_DeleteTranslationRollback verifies a failure on one version leaves
every version untouched.
*/
func TestService_DeleteTranslationRollback(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	item, _ := f.createPublished(t, "en-GB", "fr-FR")
	_, err := f.service.CreateDraftFromCurrent(ctx, item.ID)
	require.NoError(t, err)
	f.seedFrenchDraft(item, 3)

	snapshot := func() ([]byte, []string) {
		versions := make([]*content.Version, 0, 3)
		tags := make([]string, 0, 4)
		for versionNo := 1; versionNo <= 3; versionNo++ {
			version, err := f.service.LoadVersion(ctx, item.ID, versionNo, "")
			require.NoError(t, err)
			versions = append(versions, version)
			tags = append(tags, version.Tag)
		}
		loaded, err := f.service.LoadContent(ctx, item.ID)
		require.NoError(t, err)

		encoded, err := json.Marshal(versions)
		require.NoError(t, err)
		return encoded, append(tags, loaded.Tag)
	}

	before, beforeTags := snapshot()

	f.store.failVersion = 2
	f.store.failErr = errors.New("connection reset by peer")

	err = f.service.DeleteTranslation(ctx, item.ID, "fr-FR", "")
	require.ErrorIs(t, err, f.store.failErr)

	after, afterTags := snapshot()
	assert.JSONEq(t, string(before), string(after))
	assert.Equal(t, beforeTags, afterTags)
}

/*
TestService_DeleteContent removes the item and every version.
*/
func TestService_DeleteContent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	item, _ := f.createPublished(t, "en-GB")

	err := f.service.DeleteContent(ctx, item.ID, "stale")
	requireCode(t, err, apperr.CodePreconditionFailed)

	require.NoError(t, f.service.DeleteContent(ctx, item.ID, item.Tag))

	_, err = f.service.LoadContent(ctx, item.ID)
	requireCode(t, err, apperr.CodeNotFound)

	count, err := f.store.CountByContentType(ctx, f.article.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

// staleReads serves items and versions with the tag they had before a
// concurrent write, so every write it backs races a newer state.
type staleReads struct {
	*memoryStore
}

const staleTag = "before-concurrent-write"

func (store staleReads) FindContent(ctx context.Context, id int64) (*content.Content, error) {
	item, err := store.memoryStore.FindContent(ctx, id)
	if err == nil {
		item.Tag = staleTag
	}
	return item, err
}

func (store staleReads) FindVersion(ctx context.Context, contentID int64, versionNo int) (*content.Version, error) {
	version, err := store.memoryStore.FindVersion(ctx, contentID, versionNo)
	if err == nil {
		version.Tag = staleTag
	}
	return version, err
}

/*
TestService_DeleteRacesConcurrentWrite verifies deletes compare the tag they
loaded with the stored one when writing, not only against If-Match.
*/
func TestService_DeleteRacesConcurrentWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	item, _ := f.createPublished(t, "en-GB", "fr-FR")
	draft, err := f.service.CreateDraftFromCurrent(ctx, item.ID)
	require.NoError(t, err)

	racing := content.NewService(staleReads{f.store}, publishedType{contentType: f.article},
		lifecycle.New(lifecycle.FamilyContent, nil, nil), true, slog.New(slog.NewTextHandler(io.Discard, nil)))

	t.Run("version", func(t *testing.T) {
		err := racing.DeleteVersion(ctx, item.ID, draft.VersionNo, "")
		requireCode(t, err, apperr.CodePreconditionFailed)

		_, err = f.service.LoadVersion(ctx, item.ID, draft.VersionNo, "")
		require.NoError(t, err)
	})

	t.Run("translation_cascade", func(t *testing.T) {
		err := racing.DeleteTranslation(ctx, item.ID, "fr-FR", "")
		requireCode(t, err, apperr.CodePreconditionFailed)

		for _, versionNo := range []int{1, draft.VersionNo} {
			version, err := f.service.LoadVersion(ctx, item.ID, versionNo, "")
			require.NoError(t, err)
			assert.Equal(t, []string{"en-GB", "fr-FR"}, version.Languages())
		}
	})

	t.Run("content", func(t *testing.T) {
		err := racing.DeleteContent(ctx, item.ID, "")
		requireCode(t, err, apperr.CodePreconditionFailed)

		_, err = f.service.LoadContent(ctx, item.ID)
		require.NoError(t, err)
	})
}

// mapCache is a [lifecycle.TagCache] backed by a map.
type mapCache map[string]string

func (cache mapCache) Get(_ context.Context, key string) (string, bool, error) {
	tag, found := cache[key]
	return tag, found, nil
}

func (cache mapCache) Set(_ context.Context, key, tag string) error {
	cache[key] = tag
	return nil
}

func (cache mapCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(cache, key)
	}
	return nil
}

/*
TestService_TagCacheCoherence verifies that no mutation leaves a cached tag
that would answer a stale conditional read with 304.
*/
func TestService_TagCacheCoherence(t *testing.T) {
	ctx := context.Background()
	cache := mapCache{}
	f := newCachedFixture(t, true, cache)

	item, first := f.createPublished(t, "en-GB", "fr-FR")

	// Cached read
	_, err := f.service.LoadVersion(ctx, item.ID, first.VersionNo, "")
	require.NoError(t, err)
	_, err = f.service.LoadVersion(ctx, item.ID, first.VersionNo, first.Tag)
	var notModified *lifecycle.NotModified
	require.True(t, errors.As(err, &notModified))

	t.Run("publish_archives_previous", func(t *testing.T) {
		draft, err := f.service.CreateDraftFromCurrent(ctx, item.ID)
		require.NoError(t, err)
		_, err = f.service.PublishVersion(ctx, item.ID, draft.VersionNo, draft.Tag)
		require.NoError(t, err)

		archived, err := f.service.LoadVersion(ctx, item.ID, first.VersionNo, first.Tag)
		require.NoError(t, err)
		assert.Equal(t, lifecycle.StatusArchived, archived.Status)
	})

	t.Run("translation_cascade", func(t *testing.T) {
		current, err := f.service.LoadVersion(ctx, item.ID, 2, "")
		require.NoError(t, err)

		require.NoError(t, f.service.DeleteTranslation(ctx, item.ID, "fr-FR", ""))

		stripped, err := f.service.LoadVersion(ctx, item.ID, 2, current.Tag)
		require.NoError(t, err)
		assert.Equal(t, []string{"en-GB"}, stripped.Languages())
	})
}
