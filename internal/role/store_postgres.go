// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package role

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/cmsrest/internal/lifecycle"
	"github.com/taibuivan/cmsrest/internal/platform/apperr"
	"github.com/taibuivan/cmsrest/internal/platform/database/schema"
	"github.com/taibuivan/cmsrest/internal/platform/dberr"
	"github.com/taibuivan/cmsrest/pkg/pagination"
)

// # PostgreSQL Repository

// PostgresStore implements [Store] using pgx. Both states of a role live in
// cms.role keyed by (id, status); policies follow their role through
// ON UPDATE CASCADE. Limitations are stored as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL backed role store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// # Queries

func (repository *PostgresStore) Find(context context.Context, id int64, status lifecycle.Status) (*Role, error) {
	table := schema.CmsRole
	query := fmt.Sprintf(`
		SELECT r.%s, r.%s, r.%s, r.%s, r.%s,
		       EXISTS (SELECT 1 FROM %s d WHERE d.%s = r.%s AND d.%s = '%s')
		FROM %s r
		WHERE r.%s = $1 AND r.%s = $2
	`,
		table.ID, table.Status, table.Identifier, table.Tag, table.ModifiedAt,
		table.Table, table.ID, table.ID, table.Status, lifecycle.StatusDraft,
		table.Table,
		table.ID, table.Status,
	)

	role := &Role{}
	err := repository.pool.QueryRow(context, query, id, status).Scan(
		&role.ID, &role.Status, &role.Identifier, &role.Tag, &role.ModifiedAt, &role.DraftExists,
	)
	if err != nil {
		return nil, dberr.NotFound(err, "Role", "find_role")
	}

	if status == lifecycle.StatusDraft {
		role.DraftExists = false
	}

	if role.Policies, err = policies(context, repository.pool, id, status); err != nil {
		return nil, err
	}
	return role, nil
}

/*
List returns one page of published roles ordered by identifier.

Parameters:
  - context: context.Context
  - params: pagination.Params

Returns:
  - []*Role: The page, with policies
  - int: Total number of published roles
  - error: Store failures
*/
func (repository *PostgresStore) List(context context.Context, params pagination.Params) ([]*Role, int, error) {
	table := schema.CmsRole

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`, table.Table, table.Status)
	if err := repository.pool.QueryRow(context, countQuery, lifecycle.StatusPublished).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_roles")
	}

	query := fmt.Sprintf(`
		SELECT r.%s, r.%s, r.%s, r.%s, r.%s,
		       EXISTS (SELECT 1 FROM %s d WHERE d.%s = r.%s AND d.%s = '%s')
		FROM %s r
		WHERE r.%s = $1
		ORDER BY r.%s
		LIMIT $2 OFFSET $3
	`,
		table.ID, table.Status, table.Identifier, table.Tag, table.ModifiedAt,
		table.Table, table.ID, table.ID, table.Status, lifecycle.StatusDraft,
		table.Table,
		table.Status,
		table.Identifier,
	)

	rows, err := repository.pool.Query(context, query, lifecycle.StatusPublished, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_roles")
	}

	roles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Role, error) {
		role := &Role{}
		err := row.Scan(&role.ID, &role.Status, &role.Identifier, &role.Tag, &role.ModifiedAt, &role.DraftExists)
		return role, err
	})
	if err != nil {
		return nil, 0, dberr.Wrap(err, "scan_role")
	}

	for _, role := range roles {
		if role.Policies, err = policies(context, repository.pool, role.ID, lifecycle.StatusPublished); err != nil {
			return nil, 0, err
		}
	}
	return roles, total, nil
}

func (repository *PostgresStore) IdentifierTaken(context context.Context, identifier string, exceptID int64) (bool, error) {
	table := schema.CmsRole
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND %s = $2 AND %s <> $3)`,
		table.Table, table.Identifier, table.Status, table.ID,
	)

	var taken bool
	err := repository.pool.QueryRow(context, query, identifier, lifecycle.StatusPublished, exceptID).Scan(&taken)
	return taken, dberr.Wrap(err, "role_identifier_taken")
}

// # Draft Mutations

// CreateDraft inserts a draft and its policies. A zero ID allocates a new
// identity from cms.role_id_seq.
func (repository *PostgresStore) CreateDraft(context context.Context, draft *Role) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_create_role_draft")
	}
	defer transaction.Rollback(context)

	if draft.ID == 0 {
		if err := transaction.QueryRow(context, `SELECT nextval('cms.role_id_seq')`).Scan(&draft.ID); err != nil {
			return dberr.Wrap(err, "allocate_role_id")
		}
	}

	table := schema.CmsRole
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s) VALUES ($1, $2, $3, $4) RETURNING %s`,
		table.Table, table.ID, table.Status, table.Identifier, table.Tag, table.ModifiedAt,
	)

	err = transaction.QueryRow(context, query, draft.ID, lifecycle.StatusDraft, draft.Identifier, draft.Tag).Scan(&draft.ModifiedAt)
	if err != nil {
		return dberr.Wrap(err, "insert_role_draft")
	}

	for index := range draft.Policies {
		draft.Policies[index].RoleID = draft.ID
		if err := insertPolicy(context, transaction, draft.ID, &draft.Policies[index]); err != nil {
			return err
		}
	}

	if err := transaction.Commit(context); err != nil {
		return dberr.Wrap(err, "commit_create_role_draft")
	}

	draft.Status = lifecycle.StatusDraft
	return nil
}

func (repository *PostgresStore) UpdateDraft(context context.Context, draft *Role, previousTag string) error {
	table := schema.CmsRole
	query := fmt.Sprintf(`
		UPDATE %s SET %s = $3, %s = $4, %s = now()
		WHERE %s = $1 AND %s = '%s' AND %s = $2
		RETURNING %s
	`,
		table.Table, table.Identifier, table.Tag, table.ModifiedAt,
		table.ID, table.Status, lifecycle.StatusDraft, table.Tag,
		table.ModifiedAt,
	)

	err := repository.pool.QueryRow(context, query, draft.ID, previousTag, draft.Identifier, draft.Tag).Scan(&draft.ModifiedAt)
	if err != nil {
		return casFailure(context, repository.pool, draft.ID, err, "update_role_draft")
	}
	return nil
}

func (repository *PostgresStore) AddPolicy(context context.Context, roleID int64, policy *Policy, previousTag, newTag string) error {
	return repository.withDraft(context, roleID, previousTag, newTag, func(transaction pgx.Tx) error {
		return insertPolicy(context, transaction, roleID, policy)
	})
}

func (repository *PostgresStore) UpdatePolicy(context context.Context, roleID int64, policy *Policy, previousTag, newTag string) error {
	return repository.withDraft(context, roleID, previousTag, newTag, func(transaction pgx.Tx) error {
		column := schema.CmsRolePolicy
		query := fmt.Sprintf(`UPDATE %s SET %s = $4 WHERE %s = $1 AND %s = $2 AND %s = $3`,
			column.Table, column.Limitations, column.ID, column.RoleID, column.Status,
		)

		tag, err := transaction.Exec(context, query, policy.ID, roleID, lifecycle.StatusDraft, nonNilLimitations(policy.Limitations))
		if err != nil {
			return dberr.Wrap(err, "update_role_policy")
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("Policy")
		}
		return nil
	})
}

func (repository *PostgresStore) RemovePolicy(context context.Context, roleID, policyID int64, previousTag, newTag string) error {
	return repository.withDraft(context, roleID, previousTag, newTag, func(transaction pgx.Tx) error {
		column := schema.CmsRolePolicy
		query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2 AND %s = $3`,
			column.Table, column.ID, column.RoleID, column.Status,
		)

		tag, err := transaction.Exec(context, query, policyID, roleID, lifecycle.StatusDraft)
		if err != nil {
			return dberr.Wrap(err, "delete_role_policy")
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("Policy")
		}
		return nil
	})
}

// DeleteDraft removes the draft while its tag equals previousTag.
func (repository *PostgresStore) DeleteDraft(context context.Context, id int64, previousTag string) error {
	table := schema.CmsRole
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2 AND %s = $3`, table.Table, table.ID, table.Status, table.Tag)

	tag, err := repository.pool.Exec(context, query, id, lifecycle.StatusDraft, previousTag)
	if err != nil {
		return dberr.Wrap(err, "delete_role_draft")
	}
	if tag.RowsAffected() == 0 {
		return casFailure(context, repository.pool, id, pgx.ErrNoRows, "delete_role_draft")
	}
	return nil
}

/*
Publish replaces the published role by the draft in one transaction.

Description: The published row is deleted together with its policies, the
draft flips to PUBLISHED, and every policy copied from a published one takes
its original id back. Ids of untouched policies therefore survive a publish.
*/
func (repository *PostgresStore) Publish(context context.Context, id int64, previousTag, newTag string) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_publish_role")
	}
	defer transaction.Rollback(context)

	table := schema.CmsRole
	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, table.Table, table.ID, table.Status)
	if _, err := transaction.Exec(context, deleteQuery, id, lifecycle.StatusPublished); err != nil {
		return dberr.Wrap(err, "delete_published_role")
	}

	promoteQuery := fmt.Sprintf(`
		UPDATE %s SET %s = $4, %s = $5, %s = now()
		WHERE %s = $1 AND %s = $2 AND %s = $3
		RETURNING %s
	`,
		table.Table, table.Status, table.Tag, table.ModifiedAt,
		table.ID, table.Status, table.Tag,
		table.ID,
	)

	var promoted int64
	err = transaction.QueryRow(context, promoteQuery, id, lifecycle.StatusDraft, previousTag, lifecycle.StatusPublished, newTag).Scan(&promoted)
	if err != nil {
		return casFailure(context, transaction, id, err, "promote_role")
	}

	column := schema.CmsRolePolicy
	restoreQuery := fmt.Sprintf(`
		UPDATE %s SET %s = %s, %s = NULL
		WHERE %s = $1 AND %s = $2 AND %s IS NOT NULL
	`,
		column.Table, column.ID, column.OriginalID, column.OriginalID,
		column.RoleID, column.Status, column.OriginalID,
	)
	if _, err := transaction.Exec(context, restoreQuery, id, lifecycle.StatusPublished); err != nil {
		return dberr.Wrap(err, "restore_role_policy_ids")
	}

	if err := transaction.Commit(context); err != nil {
		return dberr.Wrap(err, "commit_publish_role")
	}
	return nil
}

/*
Delete removes every status of an identity in one transaction.

Description: The row in status is locked first and its tag compared with
previousTag, so a write that committed after the caller loaded it makes the
delete fail with PreconditionFailed.
*/
func (repository *PostgresStore) Delete(context context.Context, id int64, status lifecycle.Status, previousTag string) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_delete_role")
	}
	defer transaction.Rollback(context)

	table := schema.CmsRole
	lockQuery := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2 FOR UPDATE`,
		table.Tag, table.Table, table.ID, table.Status,
	)

	var stored string
	if err := transaction.QueryRow(context, lockQuery, id, status).Scan(&stored); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("Role")
		}
		return dberr.Wrap(err, "lock_role")
	}
	if stored != previousTag {
		return apperr.PreconditionFailed(lifecycle.MessageStaleTag)
	}

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table.Table, table.ID)
	if _, err := transaction.Exec(context, deleteQuery, id); err != nil {
		return dberr.Wrap(err, "delete_role")
	}

	if err := transaction.Commit(context); err != nil {
		return dberr.Wrap(err, "commit_delete_role")
	}
	return nil
}

// # Helpers

// withDraft rotates the draft tag from previousTag to newTag and runs change
// in the same transaction.
func (repository *PostgresStore) withDraft(context context.Context, id int64, previousTag, newTag string, change func(pgx.Tx) error) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_role_draft_change")
	}
	defer transaction.Rollback(context)

	table := schema.CmsRole
	query := fmt.Sprintf(`
		UPDATE %s SET %s = $3, %s = now()
		WHERE %s = $1 AND %s = '%s' AND %s = $2
		RETURNING %s
	`,
		table.Table, table.Tag, table.ModifiedAt,
		table.ID, table.Status, lifecycle.StatusDraft, table.Tag,
		table.ID,
	)

	var locked int64
	if err := transaction.QueryRow(context, query, id, previousTag, newTag).Scan(&locked); err != nil {
		return casFailure(context, transaction, id, err, "rotate_role_tag")
	}

	if err := change(transaction); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return dberr.Wrap(err, "commit_role_draft_change")
	}
	return nil
}

func casFailure(context context.Context, db querier, id int64, err error, action string) error {
	if !errors.Is(err, pgx.ErrNoRows) {
		return dberr.Wrap(err, action)
	}

	table := schema.CmsRole
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND %s = '%s')`,
		table.Table, table.ID, table.Status, lifecycle.StatusDraft,
	)

	var exists bool
	if err := db.QueryRow(context, query, id).Scan(&exists); err != nil {
		return dberr.Wrap(err, action)
	}
	if !exists {
		return apperr.NotFound("Role")
	}
	return apperr.PreconditionFailed(lifecycle.MessageStaleTag)
}

func policies(context context.Context, db querier, roleID int64, status lifecycle.Status) ([]Policy, error) {
	column := schema.CmsRolePolicy
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s = $2
		ORDER BY %s
	`,
		column.ID, column.RoleID, column.OriginalID, column.Module, column.Function, column.Limitations,
		column.Table,
		column.RoleID, column.Status,
		column.ID,
	)

	rows, err := db.Query(context, query, roleID, status)
	if err != nil {
		return nil, dberr.Wrap(err, "list_role_policies")
	}

	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Policy, error) {
		var policy Policy
		err := row.Scan(&policy.ID, &policy.RoleID, &policy.OriginalID, &policy.Module, &policy.Function, &policy.Limitations)
		return policy, err
	})
	return result, dberr.Wrap(err, "scan_role_policy")
}

func insertPolicy(context context.Context, transaction pgx.Tx, roleID int64, policy *Policy) error {
	column := schema.CmsRolePolicy
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s
	`,
		column.Table,
		column.RoleID, column.Status, column.OriginalID, column.Module, column.Function, column.Limitations,
		column.ID,
	)

	policy.RoleID = roleID
	err := transaction.QueryRow(context, query,
		roleID, lifecycle.StatusDraft, policy.OriginalID, policy.Module, policy.Function, nonNilLimitations(policy.Limitations),
	).Scan(&policy.ID)
	return dberr.Wrap(err, "insert_role_policy")
}
