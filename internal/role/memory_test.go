// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package role_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taibuivan/cmsrest/internal/lifecycle"
	"github.com/taibuivan/cmsrest/internal/platform/apperr"
	"github.com/taibuivan/cmsrest/internal/role"
	"github.com/taibuivan/cmsrest/pkg/pagination"
)

type roleKey struct {
	id     int64
	status lifecycle.Status
}

// memoryStore is an in-memory [role.Store] with compare-and-swap on tags.
type memoryStore struct {
	mu         sync.Mutex
	roles      map[roleKey]*role.Role
	nextRole   int64
	nextPolicy int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{roles: make(map[roleKey]*role.Role)}
}

func cloneRole(source *role.Role) *role.Role {
	target := *source
	target.Policies = make([]role.Policy, len(source.Policies))
	for index, policy := range source.Policies {
		if policy.OriginalID != nil {
			originalID := *policy.OriginalID
			policy.OriginalID = &originalID
		}
		policy.Limitations = cloneLimitations(policy.Limitations)
		target.Policies[index] = policy
	}
	return &target
}

func cloneLimitations(source []role.Limitation) []role.Limitation {
	target := make([]role.Limitation, len(source))
	for index, limitation := range source {
		target[index] = role.Limitation{
			Identifier: limitation.Identifier,
			Values:     append([]string(nil), limitation.Values...),
		}
	}
	return target
}

func (store *memoryStore) Find(_ context.Context, id int64, status lifecycle.Status) (*role.Role, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored, ok := store.roles[roleKey{id, status}]
	if !ok {
		return nil, apperr.NotFound("Role")
	}

	loaded := cloneRole(stored)
	_, hasDraft := store.roles[roleKey{id, lifecycle.StatusDraft}]
	loaded.DraftExists = status == lifecycle.StatusPublished && hasDraft
	return loaded, nil
}

func (store *memoryStore) List(_ context.Context, params pagination.Params) ([]*role.Role, int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	published := make([]*role.Role, 0)
	for key, stored := range store.roles {
		if key.status == lifecycle.StatusPublished {
			published = append(published, cloneRole(stored))
		}
	}
	sort.Slice(published, func(i, j int) bool { return published[i].Identifier < published[j].Identifier })

	start, end := params.Window(len(published))
	return published[start:end], len(published), nil
}

func (store *memoryStore) IdentifierTaken(_ context.Context, identifier string, exceptID int64) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for key, stored := range store.roles {
		if key.status == lifecycle.StatusPublished && key.id != exceptID && stored.Identifier == identifier {
			return true, nil
		}
	}
	return false, nil
}

func (store *memoryStore) CreateDraft(_ context.Context, draft *role.Role) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if draft.ID == 0 {
		store.nextRole++
		draft.ID = store.nextRole
	}
	store.nextRole = max(store.nextRole, draft.ID)

	key := roleKey{draft.ID, lifecycle.StatusDraft}
	if _, exists := store.roles[key]; exists {
		return apperr.Conflict("A record with the same identity already exists")
	}

	for index := range draft.Policies {
		store.nextPolicy++
		draft.Policies[index].ID = store.nextPolicy
		draft.Policies[index].RoleID = draft.ID
	}
	draft.Status = lifecycle.StatusDraft
	draft.ModifiedAt = time.Now()
	store.roles[key] = cloneRole(draft)
	return nil
}

// draft returns the stored draft after checking its tag. Callers hold mu.
func (store *memoryStore) draft(id int64, previousTag string) (*role.Role, error) {
	stored, ok := store.roles[roleKey{id, lifecycle.StatusDraft}]
	if !ok {
		return nil, apperr.NotFound("Role")
	}
	if stored.Tag != previousTag {
		return nil, apperr.PreconditionFailed(lifecycle.MessageStaleTag)
	}
	return stored, nil
}

func (store *memoryStore) UpdateDraft(_ context.Context, draft *role.Role, previousTag string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored, err := store.draft(draft.ID, previousTag)
	if err != nil {
		return err
	}

	stored.Identifier = draft.Identifier
	stored.Tag = draft.Tag
	stored.ModifiedAt = time.Now()
	draft.ModifiedAt = stored.ModifiedAt
	return nil
}

func (store *memoryStore) AddPolicy(_ context.Context, roleID int64, policy *role.Policy, previousTag, newTag string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored, err := store.draft(roleID, previousTag)
	if err != nil {
		return err
	}

	store.nextPolicy++
	policy.ID = store.nextPolicy
	policy.RoleID = roleID
	stored.Policies = append(stored.Policies, *policy)
	stored.Tag = newTag
	return nil
}

func (store *memoryStore) UpdatePolicy(_ context.Context, roleID int64, policy *role.Policy, previousTag, newTag string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored, err := store.draft(roleID, previousTag)
	if err != nil {
		return err
	}

	for index := range stored.Policies {
		if stored.Policies[index].ID == policy.ID {
			stored.Policies[index].Limitations = cloneLimitations(policy.Limitations)
			stored.Tag = newTag
			return nil
		}
	}
	return apperr.NotFound("Policy")
}

func (store *memoryStore) RemovePolicy(_ context.Context, roleID, policyID int64, previousTag, newTag string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored, err := store.draft(roleID, previousTag)
	if err != nil {
		return err
	}

	for index := range stored.Policies {
		if stored.Policies[index].ID == policyID {
			stored.Policies = append(stored.Policies[:index], stored.Policies[index+1:]...)
			stored.Tag = newTag
			return nil
		}
	}
	return apperr.NotFound("Policy")
}

func (store *memoryStore) DeleteDraft(_ context.Context, id int64, previousTag string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, err := store.draft(id, previousTag); err != nil {
		return err
	}
	delete(store.roles, roleKey{id, lifecycle.StatusDraft})
	return nil
}

func (store *memoryStore) Publish(_ context.Context, id int64, previousTag, newTag string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored, err := store.draft(id, previousTag)
	if err != nil {
		return err
	}

	delete(store.roles, roleKey{id, lifecycle.StatusDraft})
	stored.Status = lifecycle.StatusPublished
	stored.Tag = newTag
	for index := range stored.Policies {
		if original := stored.Policies[index].OriginalID; original != nil {
			stored.Policies[index].ID = *original
			stored.Policies[index].OriginalID = nil
		}
	}
	sort.Slice(stored.Policies, func(i, j int) bool { return stored.Policies[i].ID < stored.Policies[j].ID })
	store.roles[roleKey{id, lifecycle.StatusPublished}] = stored
	return nil
}

func (store *memoryStore) Delete(_ context.Context, id int64, status lifecycle.Status, previousTag string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored, ok := store.roles[roleKey{id, status}]
	if !ok {
		return apperr.NotFound("Role")
	}
	if stored.Tag != previousTag {
		return apperr.PreconditionFailed(lifecycle.MessageStaleTag)
	}
	delete(store.roles, roleKey{id, lifecycle.StatusDraft})
	delete(store.roles, roleKey{id, lifecycle.StatusPublished})
	return nil
}
