// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package contenttype_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/taibuivan/cmsrest/internal/contenttype"
	"github.com/taibuivan/cmsrest/internal/lifecycle"
	"github.com/taibuivan/cmsrest/internal/platform/apperr"
)

type typeKey struct {
	id     int64
	status lifecycle.Status
}

// memoryStore is an in-memory [contenttype.Store] with compare-and-swap on tags.
type memoryStore struct {
	mu        sync.Mutex
	groups    map[int64]*contenttype.Group
	types     map[typeKey]*contenttype.ContentType
	nextGroup int64
	nextType  int64
	nextField int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		groups: make(map[int64]*contenttype.Group),
		types:  make(map[typeKey]*contenttype.ContentType),
	}
}

func cloneType(source *contenttype.ContentType) *contenttype.ContentType {
	target := *source
	target.GroupIDs = append([]int64(nil), source.GroupIDs...)
	target.Names = cloneMap(source.Names)
	target.Descriptions = cloneMap(source.Descriptions)
	target.FieldDefinitions = make([]contenttype.FieldDefinition, len(source.FieldDefinitions))
	for index, field := range source.FieldDefinitions {
		field.Names = cloneMap(field.Names)
		field.DefaultValue = append(json.RawMessage(nil), field.DefaultValue...)
		target.FieldDefinitions[index] = field
	}
	return &target
}

func cloneMap(source map[string]string) map[string]string {
	if source == nil {
		return nil
	}
	target := make(map[string]string, len(source))
	for key, value := range source {
		target[key] = value
	}
	return target
}

func (store *memoryStore) CreateGroup(_ context.Context, group *contenttype.Group) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, existing := range store.groups {
		if existing.Identifier == group.Identifier {
			return apperr.Conflict("group exists")
		}
	}
	store.nextGroup++
	group.ID = store.nextGroup
	group.CreatedAt = time.Now()
	stored := *group
	store.groups[group.ID] = &stored
	return nil
}

func (store *memoryStore) ListGroups(context.Context) ([]*contenttype.Group, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	groups := make([]*contenttype.Group, 0, len(store.groups))
	for id := int64(1); id <= store.nextGroup; id++ {
		if group, ok := store.groups[id]; ok {
			copied := *group
			groups = append(groups, &copied)
		}
	}
	return groups, nil
}

func (store *memoryStore) FindGroup(_ context.Context, id int64) (*contenttype.Group, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	group, ok := store.groups[id]
	if !ok {
		return nil, apperr.NotFound("ContentTypeGroup")
	}
	copied := *group
	return &copied, nil
}

func (store *memoryStore) Find(_ context.Context, id int64, status lifecycle.Status) (*contenttype.ContentType, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored, ok := store.types[typeKey{id, status}]
	if !ok {
		return nil, apperr.NotFound("ContentType")
	}

	loaded := cloneType(stored)
	_, hasDraft := store.types[typeKey{id, lifecycle.StatusDraft}]
	loaded.DraftExists = status == lifecycle.StatusPublished && hasDraft
	return loaded, nil
}

func (store *memoryStore) ListByGroup(_ context.Context, groupID int64) ([]*contenttype.ContentType, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	types := make([]*contenttype.ContentType, 0)
	for id := int64(1); id <= store.nextType; id++ {
		stored, ok := store.types[typeKey{id, lifecycle.StatusPublished}]
		if !ok {
			continue
		}
		for _, linked := range stored.GroupIDs {
			if linked == groupID {
				types = append(types, cloneType(stored))
				break
			}
		}
	}
	return types, nil
}

func (store *memoryStore) IdentifierTaken(_ context.Context, identifier string, exceptID int64) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for key, stored := range store.types {
		if key.status == lifecycle.StatusPublished && key.id != exceptID && stored.Identifier == identifier {
			return true, nil
		}
	}
	return false, nil
}

func (store *memoryStore) CreateDraft(_ context.Context, draft *contenttype.ContentType) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if draft.ID == 0 {
		store.nextType++
		draft.ID = store.nextType
	}
	key := typeKey{draft.ID, lifecycle.StatusDraft}
	if _, exists := store.types[key]; exists {
		return apperr.Conflict("A record with the same identity already exists")
	}

	for index := range draft.FieldDefinitions {
		store.nextField++
		draft.FieldDefinitions[index].ID = store.nextField
	}
	draft.Status = lifecycle.StatusDraft
	draft.ModifiedAt = time.Now()
	store.types[key] = cloneType(draft)
	return nil
}

// draft returns the stored draft after checking its tag. Callers hold mu.
func (store *memoryStore) draft(id int64, previousTag string) (*contenttype.ContentType, error) {
	stored, ok := store.types[typeKey{id, lifecycle.StatusDraft}]
	if !ok {
		return nil, apperr.NotFound("ContentType")
	}
	if stored.Tag != previousTag {
		return nil, apperr.PreconditionFailed(lifecycle.MessageStaleTag)
	}
	return stored, nil
}

func (store *memoryStore) UpdateDraft(_ context.Context, draft *contenttype.ContentType, previousTag string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored, err := store.draft(draft.ID, previousTag)
	if err != nil {
		return err
	}

	updated := cloneType(draft)
	updated.FieldDefinitions = stored.FieldDefinitions
	updated.ModifiedAt = time.Now()
	store.types[typeKey{draft.ID, lifecycle.StatusDraft}] = updated
	return nil
}

func (store *memoryStore) AddField(_ context.Context, typeID int64, field *contenttype.FieldDefinition, previousTag, newTag string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored, err := store.draft(typeID, previousTag)
	if err != nil {
		return err
	}

	store.nextField++
	field.ID = store.nextField
	stored.FieldDefinitions = append(stored.FieldDefinitions, *field)
	stored.Tag = newTag
	return nil
}

func (store *memoryStore) UpdateField(_ context.Context, typeID int64, field *contenttype.FieldDefinition, previousTag, newTag string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored, err := store.draft(typeID, previousTag)
	if err != nil {
		return err
	}

	for index := range stored.FieldDefinitions {
		if stored.FieldDefinitions[index].ID == field.ID {
			stored.FieldDefinitions[index] = *field
			stored.Tag = newTag
			return nil
		}
	}
	return apperr.NotFound("FieldDefinition")
}

func (store *memoryStore) RemoveField(_ context.Context, typeID, fieldID int64, previousTag, newTag string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored, err := store.draft(typeID, previousTag)
	if err != nil {
		return err
	}

	for index := range stored.FieldDefinitions {
		if stored.FieldDefinitions[index].ID == fieldID {
			stored.FieldDefinitions = append(stored.FieldDefinitions[:index], stored.FieldDefinitions[index+1:]...)
			stored.Tag = newTag
			return nil
		}
	}
	return apperr.NotFound("FieldDefinition")
}

func (store *memoryStore) DeleteDraft(_ context.Context, id int64, previousTag string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, err := store.draft(id, previousTag); err != nil {
		return err
	}
	delete(store.types, typeKey{id, lifecycle.StatusDraft})
	return nil
}

func (store *memoryStore) Publish(_ context.Context, id int64, previousTag, newTag string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored, err := store.draft(id, previousTag)
	if err != nil {
		return err
	}

	delete(store.types, typeKey{id, lifecycle.StatusDraft})
	stored.Status = lifecycle.StatusPublished
	stored.Tag = newTag
	store.types[typeKey{id, lifecycle.StatusPublished}] = stored
	return nil
}

func (store *memoryStore) Delete(_ context.Context, id int64, status lifecycle.Status, previousTag string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored, ok := store.types[typeKey{id, status}]
	if !ok {
		return apperr.NotFound("ContentType")
	}
	if stored.Tag != previousTag {
		return apperr.PreconditionFailed(lifecycle.MessageStaleTag)
	}
	delete(store.types, typeKey{id, lifecycle.StatusDraft})
	delete(store.types, typeKey{id, lifecycle.StatusPublished})
	return nil
}

// instanceCounts is a fixed [contenttype.InstanceCounter].
type instanceCounts map[int64]int

func (counts instanceCounts) CountByContentType(_ context.Context, id int64) (int, error) {
	return counts[id], nil
}
