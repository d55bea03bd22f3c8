// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package content_test

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/taibuivan/cmsrest/internal/content"
	"github.com/taibuivan/cmsrest/internal/contenttype"
	"github.com/taibuivan/cmsrest/internal/lifecycle"
	"github.com/taibuivan/cmsrest/internal/platform/apperr"
)

type versionID struct {
	contentID int64
	versionNo int
}

// memoryState is everything the memory store holds. Transactions work on a
// copy and swap it in on commit.
type memoryState struct {
	contents  map[int64]*content.Content
	versions  map[versionID]*content.Version
	relations map[int64]*content.Relation
}

func (state *memoryState) clone() *memoryState {
	copied := &memoryState{
		contents:  make(map[int64]*content.Content, len(state.contents)),
		versions:  make(map[versionID]*content.Version, len(state.versions)),
		relations: make(map[int64]*content.Relation, len(state.relations)),
	}
	for id, item := range state.contents {
		stored := *item
		copied.contents[id] = &stored
	}
	for id, version := range state.versions {
		copied.versions[id] = cloneVersion(version)
	}
	for id, relation := range state.relations {
		stored := *relation
		copied.relations[id] = &stored
	}
	return copied
}

// memoryStore is an in-memory [content.Store] with compare-and-swap on tags.
// failVersion makes transactional writes to that version number fail.
type memoryStore struct {
	mu           sync.Mutex
	state        *memoryState
	nextContent  int64
	nextRelation int64

	failVersion int
	failErr     error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{state: &memoryState{
		contents:  make(map[int64]*content.Content),
		versions:  make(map[versionID]*content.Version),
		relations: make(map[int64]*content.Relation),
	}}
}

func cloneVersion(source *content.Version) *content.Version {
	target := *source
	target.Names = make(map[string]string, len(source.Names))
	for code, name := range source.Names {
		target.Names[code] = name
	}
	target.Fields = make([]content.Field, len(source.Fields))
	for index, field := range source.Fields {
		field.Value = append(json.RawMessage(nil), field.Value...)
		target.Fields[index] = field
	}
	return &target
}

// # Content

func (store *memoryStore) CreateContent(_ context.Context, item *content.Content, draft *content.Version) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, existing := range store.state.contents {
		if existing.RemoteID == item.RemoteID {
			return apperr.Conflict("A record with the same identity already exists")
		}
	}

	store.nextContent++
	item.ID = store.nextContent
	item.CreatedAt = time.Now()
	item.ModifiedAt = item.CreatedAt
	stored := *item
	store.state.contents[item.ID] = &stored

	draft.ContentID = item.ID
	draft.VersionNo = item.CurrentVersionNo
	draft.CreatedAt = item.CreatedAt
	draft.ModifiedAt = item.CreatedAt
	store.state.versions[versionID{item.ID, draft.VersionNo}] = cloneVersion(draft)
	return nil
}

func (store *memoryStore) FindContent(_ context.Context, id int64) (*content.Content, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	item, ok := store.state.contents[id]
	if !ok {
		return nil, apperr.NotFound("Content")
	}
	loaded := *item
	return &loaded, nil
}

func (store *memoryStore) UpdateContent(_ context.Context, item *content.Content, previousTag string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored, ok := store.state.contents[item.ID]
	if !ok {
		return apperr.NotFound("Content")
	}
	if stored.Tag != previousTag {
		return apperr.PreconditionFailed(lifecycle.MessageStaleTag)
	}

	item.ModifiedAt = time.Now()
	updated := *item
	store.state.contents[item.ID] = &updated
	return nil
}

func (store *memoryStore) DeleteContent(_ context.Context, id int64, previousTag string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored, ok := store.state.contents[id]
	if !ok {
		return apperr.NotFound("Content")
	}
	if stored.Tag != previousTag {
		return apperr.PreconditionFailed(lifecycle.MessageStaleTag)
	}
	delete(store.state.contents, id)
	for key := range store.state.versions {
		if key.contentID == id {
			delete(store.state.versions, key)
		}
	}
	for relationID, relation := range store.state.relations {
		if relation.SourceContentID == id || relation.DestinationContentID == id {
			delete(store.state.relations, relationID)
		}
	}
	return nil
}

func (store *memoryStore) CountByContentType(_ context.Context, contentTypeID int64) (int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	count := 0
	for _, item := range store.state.contents {
		if item.ContentTypeID == contentTypeID {
			count++
		}
	}
	return count, nil
}

// # Versions

func (store *memoryStore) sortedVersions(contentID int64) []*content.Version {
	versions := make([]*content.Version, 0)
	for key, version := range store.state.versions {
		if key.contentID == contentID {
			versions = append(versions, version)
		}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].VersionNo < versions[j].VersionNo })
	return versions
}

func (store *memoryStore) ListVersions(_ context.Context, contentID int64) ([]*content.Version, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	versions := make([]*content.Version, 0)
	for _, version := range store.sortedVersions(contentID) {
		listed := cloneVersion(version)
		listed.Fields = []content.Field{}
		versions = append(versions, listed)
	}
	return versions, nil
}

func (store *memoryStore) FindVersion(_ context.Context, contentID int64, versionNo int) (*content.Version, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	version, ok := store.state.versions[versionID{contentID, versionNo}]
	if !ok {
		return nil, apperr.NotFound("Version")
	}
	return cloneVersion(version), nil
}

func (store *memoryStore) CreateVersion(_ context.Context, draft *content.Version, fromVersionNo int) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, ok := store.state.contents[draft.ContentID]; !ok {
		return apperr.NotFound("Content")
	}

	next := 1
	for _, version := range store.sortedVersions(draft.ContentID) {
		next = version.VersionNo + 1
	}
	draft.VersionNo = next
	draft.CreatedAt = time.Now()
	draft.ModifiedAt = draft.CreatedAt
	store.state.versions[versionID{draft.ContentID, next}] = cloneVersion(draft)

	for _, relation := range store.relationsOf(draft.ContentID, fromVersionNo) {
		if relation.Type != content.RelationCommon {
			continue
		}
		store.nextRelation++
		copied := relation
		copied.ID = store.nextRelation
		copied.SourceVersionNo = next
		store.state.relations[copied.ID] = &copied
	}
	return nil
}

// draft returns the stored draft after checking its tag. Callers hold mu.
func (store *memoryStore) draft(contentID int64, versionNo int, previousTag string) (*content.Version, error) {
	stored, ok := store.state.versions[versionID{contentID, versionNo}]
	if !ok {
		return nil, apperr.NotFound("Version")
	}
	if stored.Status != lifecycle.StatusDraft || stored.Tag != previousTag {
		return nil, apperr.PreconditionFailed(lifecycle.MessageStaleTag)
	}
	return stored, nil
}

func (store *memoryStore) UpdateVersion(_ context.Context, version *content.Version, previousTag string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, err := store.draft(version.ContentID, version.VersionNo, previousTag); err != nil {
		return err
	}

	version.ModifiedAt = time.Now()
	store.state.versions[versionID{version.ContentID, version.VersionNo}] = cloneVersion(version)
	return nil
}

func (store *memoryStore) DeleteVersion(_ context.Context, contentID int64, versionNo int, previousTag string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored, ok := store.state.versions[versionID{contentID, versionNo}]
	if !ok {
		return apperr.NotFound("Version")
	}
	if stored.Tag != previousTag {
		return apperr.PreconditionFailed(lifecycle.MessageStaleTag)
	}
	return deleteVersion(store.state, contentID, versionNo)
}

func (store *memoryStore) PublishVersion(_ context.Context, contentID int64, versionNo int, previousTag, newTag string, archive bool) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	item, ok := store.state.contents[contentID]
	if !ok {
		return apperr.NotFound("Content")
	}

	draft, err := store.draft(contentID, versionNo, previousTag)
	if err != nil {
		return err
	}

	if archive && item.Published && item.CurrentVersionNo != versionNo {
		if current, ok := store.state.versions[versionID{contentID, item.CurrentVersionNo}]; ok && current.Status == lifecycle.StatusPublished {
			current.Status = lifecycle.StatusArchived
			current.Tag = newTag
		}
	}

	draft.Status = lifecycle.StatusPublished
	draft.Tag = newTag
	draft.ModifiedAt = time.Now()

	item.CurrentVersionNo = versionNo
	item.Published = true
	item.Tag = newTag
	return nil
}

// # Relations

func (store *memoryStore) relationsOf(contentID int64, versionNo int) []content.Relation {
	relations := make([]content.Relation, 0)
	for _, relation := range store.state.relations {
		if relation.SourceContentID == contentID && relation.SourceVersionNo == versionNo {
			relations = append(relations, *relation)
		}
	}
	sort.Slice(relations, func(i, j int) bool { return relations[i].ID < relations[j].ID })
	return relations
}

func (store *memoryStore) ListRelations(_ context.Context, contentID int64, versionNo int) ([]content.Relation, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	return store.relationsOf(contentID, versionNo), nil
}

func (store *memoryStore) AddRelation(_ context.Context, relation *content.Relation, previousTag, newTag string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	draft, err := store.draft(relation.SourceContentID, relation.SourceVersionNo, previousTag)
	if err != nil {
		return err
	}

	for _, existing := range store.relationsOf(relation.SourceContentID, relation.SourceVersionNo) {
		if existing.Type == content.RelationCommon && existing.DestinationContentID == relation.DestinationContentID {
			return apperr.Conflict("A record with the same identity already exists")
		}
	}

	store.nextRelation++
	relation.ID = store.nextRelation
	stored := *relation
	store.state.relations[relation.ID] = &stored
	draft.Tag = newTag
	return nil
}

func (store *memoryStore) RemoveRelation(_ context.Context, contentID int64, versionNo int, relationID int64, previousTag, newTag string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	draft, err := store.draft(contentID, versionNo, previousTag)
	if err != nil {
		return err
	}

	relation, ok := store.state.relations[relationID]
	if !ok || relation.SourceContentID != contentID || relation.SourceVersionNo != versionNo || relation.Type != content.RelationCommon {
		return apperr.NotFound("Relation")
	}
	delete(store.state.relations, relationID)
	draft.Tag = newTag
	return nil
}

// # Translations

func (store *memoryStore) ListTranslations(_ context.Context, contentID int64) ([]content.VersionTranslations, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	translations := make([]content.VersionTranslations, 0)
	for _, version := range store.sortedVersions(contentID) {
		translations = append(translations, content.VersionTranslations{
			VersionNo:     version.VersionNo,
			Status:        version.Status,
			LanguageCodes: version.Languages(),
		})
	}
	return translations, nil
}

func (store *memoryStore) RemoveTranslation(_ context.Context, contentID int64, versionNo int, languageCode, previousTag, newTag string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	draft, err := store.draft(contentID, versionNo, previousTag)
	if err != nil {
		return err
	}
	if err := stripLanguage(store.state, contentID, versionNo, languageCode); err != nil {
		return err
	}
	draft.Tag = newTag
	return nil
}

func (store *memoryStore) Begin(context.Context) (content.Tx, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	return &memoryTx{store: store, working: store.state.clone()}, nil
}

// memoryTx applies changes to a private copy of the state.
type memoryTx struct {
	store   *memoryStore
	working *memoryState
}

func (tx *memoryTx) fault(versionNo int) error {
	if tx.store.failErr != nil && tx.store.failVersion == versionNo {
		return tx.store.failErr
	}
	return nil
}

func (tx *memoryTx) StripTranslation(_ context.Context, contentID int64, versionNo int, languageCode, newTag string) error {
	if err := tx.fault(versionNo); err != nil {
		return err
	}
	if err := stripLanguage(tx.working, contentID, versionNo, languageCode); err != nil {
		return err
	}
	tx.working.versions[versionID{contentID, versionNo}].Tag = newTag
	return nil
}

func (tx *memoryTx) DeleteVersion(_ context.Context, contentID int64, versionNo int) error {
	if err := tx.fault(versionNo); err != nil {
		return err
	}
	return deleteVersion(tx.working, contentID, versionNo)
}

func (tx *memoryTx) TouchContent(_ context.Context, contentID int64, previousTag, newTag string) error {
	item, ok := tx.working.contents[contentID]
	if !ok {
		return apperr.NotFound("Content")
	}
	if item.Tag != previousTag {
		return apperr.PreconditionFailed(lifecycle.MessageStaleTag)
	}
	item.Tag = newTag
	return nil
}

func (tx *memoryTx) Commit(context.Context) error {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	tx.store.state = tx.working
	return nil
}

func (tx *memoryTx) Rollback(context.Context) error {
	return nil
}

// # Helpers

func deleteVersion(state *memoryState, contentID int64, versionNo int) error {
	key := versionID{contentID, versionNo}
	if _, ok := state.versions[key]; !ok {
		return apperr.NotFound("Version")
	}
	delete(state.versions, key)
	for relationID, relation := range state.relations {
		if relation.SourceContentID == contentID && relation.SourceVersionNo == versionNo {
			delete(state.relations, relationID)
		}
	}
	return nil
}

func stripLanguage(state *memoryState, contentID int64, versionNo int, languageCode string) error {
	version, ok := state.versions[versionID{contentID, versionNo}]
	if !ok || !version.HasLanguage(languageCode) {
		return apperr.NotFound("Translation")
	}

	delete(version.Names, languageCode)
	kept := version.Fields[:0]
	for _, field := range version.Fields {
		if field.LanguageCode != languageCode {
			kept = append(kept, field)
		}
	}
	version.Fields = kept

	if version.InitialLanguageCode == languageCode {
		version.InitialLanguageCode = version.FallbackLanguage(state.contents[contentID].MainLanguageCode)
	}
	return nil
}

// # Collaborators

// publishedType serves a single published content type.
type publishedType struct {
	contentType *contenttype.ContentType
}

func (types publishedType) ResolvePublished(_ context.Context, id int64) (*contenttype.ContentType, error) {
	if id != types.contentType.ID {
		return nil, apperr.NotFound("ContentType")
	}
	return types.contentType, nil
}

func (types publishedType) ValidateFields(context context.Context, contentTypeID int64, mainLanguage string, languages []string, fields []contenttype.FieldValue, complete bool) error {
	contentType, err := types.ResolvePublished(context, contentTypeID)
	if err != nil {
		return err
	}
	return contenttype.CheckFields(contentType, mainLanguage, languages, fields, complete)
}
