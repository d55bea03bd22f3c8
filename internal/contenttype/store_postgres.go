// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package contenttype provides the PostgreSQL implementation of the type store.

Both states of a type live in cms.contenttype keyed by (id, status). Field
definitions and group links reference that pair with ON UPDATE CASCADE, so
publishing is a delete of the published row followed by a status flip of the
draft row, inside one transaction.
*/
package contenttype

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
)

// # PostgreSQL Repository

// PostgresStore implements [Store] using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL backed content type store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// # Groups

func (repository *PostgresStore) CreateGroup(context context.Context, group *Group) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1) RETURNING %s, %s`,
		schema.CmsContentTypeGroup.Table, schema.CmsContentTypeGroup.Identifier,
		schema.CmsContentTypeGroup.ID, schema.CmsContentTypeGroup.CreatedAt,
	)

	err := repository.pool.QueryRow(context, query, group.Identifier).Scan(&group.ID, &group.CreatedAt)
	return dberr.Wrap(err, "create_content_type_group")
}

func (repository *PostgresStore) ListGroups(context context.Context) ([]*Group, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s FROM %s ORDER BY %s`,
		schema.CmsContentTypeGroup.ID, schema.CmsContentTypeGroup.Identifier, schema.CmsContentTypeGroup.CreatedAt,
		schema.CmsContentTypeGroup.Table, schema.CmsContentTypeGroup.Identifier,
	)

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_content_type_groups")
	}
	defer rows.Close()

	groups := make([]*Group, 0)
	for rows.Next() {
		group := &Group{}
		if err := rows.Scan(&group.ID, &group.Identifier, &group.CreatedAt); err != nil {
			return nil, dberr.Wrap(err, "scan_content_type_group")
		}
		groups = append(groups, group)
	}

	return groups, dberr.Wrap(rows.Err(), "list_content_type_groups")
}

func (repository *PostgresStore) FindGroup(context context.Context, id int64) (*Group, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s FROM %s WHERE %s = $1`,
		schema.CmsContentTypeGroup.ID, schema.CmsContentTypeGroup.Identifier, schema.CmsContentTypeGroup.CreatedAt,
		schema.CmsContentTypeGroup.Table, schema.CmsContentTypeGroup.ID,
	)

	group := &Group{}
	err := repository.pool.QueryRow(context, query, id).Scan(&group.ID, &group.Identifier, &group.CreatedAt)
	if err != nil {
		return nil, dberr.NotFound(err, "ContentTypeGroup", "find_content_type_group")
	}
	return group, nil
}

// # Content Types

/*
Find loads one status of a type with its group links and field definitions.

Parameters:
  - context: context.Context
  - id: int64
  - status: lifecycle.Status (DRAFT or PUBLISHED)

Returns:
  - *ContentType: The hydrated type
  - error: apperr.NotFound if the status does not exist
*/
func (repository *PostgresStore) Find(context context.Context, id int64, status lifecycle.Status) (*ContentType, error) {
	return repository.find(context, repository.pool, id, status)
}

func (repository *PostgresStore) find(context context.Context, db querier, id int64, status lifecycle.Status) (*ContentType, error) {
	table := schema.CmsContentType
	query := fmt.Sprintf(`
		SELECT t.%s, t.%s, t.%s, t.%s, t.%s, t.%s, t.%s, t.%s, t.%s, t.%s, t.%s,
		       EXISTS (SELECT 1 FROM %s d WHERE d.%s = t.%s AND d.%s = '%s')
		FROM %s t
		WHERE t.%s = $1 AND t.%s = $2
	`,
		table.ID, table.Status, table.Identifier, table.MainLanguageCode, table.Names, table.Descriptions,
		table.NameSchema, table.IsContainer, table.CreatorID, table.Tag, table.ModifiedAt,
		table.Table, table.ID, table.ID, table.Status, lifecycle.StatusDraft,
		table.Table,
		table.ID, table.Status,
	)

	contentType := &ContentType{}
	err := db.QueryRow(context, query, id, status).Scan(
		&contentType.ID, &contentType.Status, &contentType.Identifier, &contentType.MainLanguageCode,
		&contentType.Names, &contentType.Descriptions, &contentType.NameSchema, &contentType.IsContainer,
		&contentType.CreatorID, &contentType.Tag, &contentType.ModifiedAt, &contentType.DraftExists,
	)
	if err != nil {
		return nil, dberr.NotFound(err, "ContentType", "find_content_type")
	}

	// A draft never reports a draft of itself.
	if status == lifecycle.StatusDraft {
		contentType.DraftExists = false
	}

	if contentType.GroupIDs, err = repository.groupIDs(context, db, id, status); err != nil {
		return nil, err
	}
	if contentType.FieldDefinitions, err = repository.fields(context, db, id, status); err != nil {
		return nil, err
	}

	return contentType, nil
}

func (repository *PostgresStore) groupIDs(context context.Context, db querier, id int64, status lifecycle.Status) ([]int64, error) {
	link := schema.CmsContentTypeGroupLink
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2 ORDER BY %s`,
		link.GroupID, link.Table, link.ContentTypeID, link.Status, link.GroupID,
	)

	rows, err := db.Query(context, query, id, status)
	if err != nil {
		return nil, dberr.Wrap(err, "list_content_type_groups_links")
	}

	groupIDs, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	return groupIDs, dberr.Wrap(err, "scan_content_type_group_link")
}

func (repository *PostgresStore) fields(context context.Context, db querier, id int64, status lifecycle.Status) ([]FieldDefinition, error) {
	field := schema.CmsContentTypeField
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s = $2
		ORDER BY %s, %s
	`,
		field.ID, field.Identifier, field.FieldType, field.Names, field.Position,
		field.IsRequired, field.IsTranslatable, field.IsSearchable, field.IsSingular, field.DefaultValue,
		field.Table,
		field.ContentTypeID, field.Status,
		field.Position, field.ID,
	)

	rows, err := db.Query(context, query, id, status)
	if err != nil {
		return nil, dberr.Wrap(err, "list_field_definitions")
	}
	defer rows.Close()

	definitions := make([]FieldDefinition, 0)
	for rows.Next() {
		var definition FieldDefinition
		if err := rows.Scan(
			&definition.ID, &definition.Identifier, &definition.FieldType, &definition.Names, &definition.Position,
			&definition.IsRequired, &definition.IsTranslatable, &definition.IsSearchable, &definition.Singular,
			&definition.DefaultValue,
		); err != nil {
			return nil, dberr.Wrap(err, "scan_field_definition")
		}
		definitions = append(definitions, definition)
	}

	return definitions, dberr.Wrap(rows.Err(), "list_field_definitions")
}

// ListByGroup returns the published types linked to a group.
func (repository *PostgresStore) ListByGroup(context context.Context, groupID int64) ([]*ContentType, error) {
	link := schema.CmsContentTypeGroupLink
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2 ORDER BY %s`,
		link.ContentTypeID, link.Table, link.GroupID, link.Status, link.ContentTypeID,
	)

	rows, err := repository.pool.Query(context, query, groupID, lifecycle.StatusPublished)
	if err != nil {
		return nil, dberr.Wrap(err, "list_content_types_by_group")
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, dberr.Wrap(err, "scan_content_type_id")
	}

	types := make([]*ContentType, 0, len(ids))
	for _, id := range ids {
		contentType, err := repository.Find(context, id, lifecycle.StatusPublished)
		if err != nil {
			return nil, err
		}
		types = append(types, contentType)
	}
	return types, nil
}

func (repository *PostgresStore) IdentifierTaken(context context.Context, identifier string, exceptID int64) (bool, error) {
	table := schema.CmsContentType
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND %s = $2 AND %s <> $3)`,
		table.Table, table.Identifier, table.Status, table.ID,
	)

	var taken bool
	err := repository.pool.QueryRow(context, query, identifier, lifecycle.StatusPublished, exceptID).Scan(&taken)
	return taken, dberr.Wrap(err, "content_type_identifier_taken")
}

/*
CreateDraft inserts a draft with its group links and field definitions.

Description: A zero ID allocates a new identity from the sequence. The
(id, status) primary key turns a second concurrent draft into a unique
violation, surfaced as apperr.Conflict.
*/
func (repository *PostgresStore) CreateDraft(context context.Context, draft *ContentType) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_create_content_type_draft")
	}
	defer transaction.Rollback(context)

	if draft.ID == 0 {
		if err := transaction.QueryRow(context, `SELECT nextval('cms.contenttype_id_seq')`).Scan(&draft.ID); err != nil {
			return dberr.Wrap(err, "allocate_content_type_id")
		}
	}

	table := schema.CmsContentType
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING %s
	`,
		table.Table,
		table.ID, table.Status, table.Identifier, table.MainLanguageCode, table.Names, table.Descriptions,
		table.NameSchema, table.IsContainer, table.CreatorID, table.Tag,
		table.ModifiedAt,
	)

	err = transaction.QueryRow(context, query,
		draft.ID, lifecycle.StatusDraft, draft.Identifier, draft.MainLanguageCode, nonNil(draft.Names), nonNil(draft.Descriptions),
		draft.NameSchema, draft.IsContainer, draft.CreatorID, draft.Tag,
	).Scan(&draft.ModifiedAt)
	if err != nil {
		return dberr.Wrap(err, "insert_content_type_draft")
	}

	link := schema.CmsContentTypeGroupLink
	linkQuery := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, $3)`,
		link.Table, link.ContentTypeID, link.Status, link.GroupID,
	)
	for _, groupID := range draft.GroupIDs {
		if _, err := transaction.Exec(context, linkQuery, draft.ID, lifecycle.StatusDraft, groupID); err != nil {
			return dberr.Wrap(err, "insert_content_type_group_link")
		}
	}

	for index := range draft.FieldDefinitions {
		if err := insertField(context, transaction, draft.ID, &draft.FieldDefinitions[index]); err != nil {
			return err
		}
	}

	if err := transaction.Commit(context); err != nil {
		return dberr.Wrap(err, "commit_create_content_type_draft")
	}

	draft.Status = lifecycle.StatusDraft
	return nil
}

// UpdateDraft replaces the scalar attributes of a draft.
func (repository *PostgresStore) UpdateDraft(context context.Context, draft *ContentType, previousTag string) error {
	table := schema.CmsContentType
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = $8, %s = $9, %s = now()
		WHERE %s = $1 AND %s = '%s' AND %s = $2
		RETURNING %s
	`,
		table.Table,
		table.Identifier, table.MainLanguageCode, table.Names, table.Descriptions, table.NameSchema,
		table.IsContainer, table.Tag, table.ModifiedAt,
		table.ID, table.Status, lifecycle.StatusDraft, table.Tag,
		table.ModifiedAt,
	)

	err := repository.pool.QueryRow(context, query,
		draft.ID, previousTag,
		draft.Identifier, draft.MainLanguageCode, nonNil(draft.Names), nonNil(draft.Descriptions), draft.NameSchema,
		draft.IsContainer, draft.Tag,
	).Scan(&draft.ModifiedAt)
	if err != nil {
		return repository.casFailure(context, repository.pool, draft.ID, err, "update_content_type_draft")
	}
	return nil
}

// AddField inserts a field definition and rotates the draft tag.
func (repository *PostgresStore) AddField(context context.Context, typeID int64, field *FieldDefinition, previousTag, newTag string) error {
	return repository.withDraft(context, typeID, previousTag, newTag, func(transaction pgx.Tx) error {
		return insertField(context, transaction, typeID, field)
	})
}

// UpdateField rewrites a field definition and rotates the draft tag.
func (repository *PostgresStore) UpdateField(context context.Context, typeID int64, field *FieldDefinition, previousTag, newTag string) error {
	return repository.withDraft(context, typeID, previousTag, newTag, func(transaction pgx.Tx) error {
		column := schema.CmsContentTypeField
		query := fmt.Sprintf(`
			UPDATE %s SET %s = $4, %s = $5, %s = $6, %s = $7, %s = $8, %s = $9
			WHERE %s = $1 AND %s = $2 AND %s = $3
		`,
			column.Table,
			column.Names, column.Position, column.IsRequired, column.IsTranslatable, column.IsSearchable, column.DefaultValue,
			column.ID, column.ContentTypeID, column.Status,
		)

		tag, err := transaction.Exec(context, query,
			field.ID, typeID, lifecycle.StatusDraft,
			nonNil(field.Names), field.Position, field.IsRequired, field.IsTranslatable, field.IsSearchable, nullableJSON(field.DefaultValue),
		)
		if err != nil {
			return dberr.Wrap(err, "update_field_definition")
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("FieldDefinition")
		}
		return nil
	})
}

// RemoveField deletes a field definition and rotates the draft tag.
func (repository *PostgresStore) RemoveField(context context.Context, typeID, fieldID int64, previousTag, newTag string) error {
	return repository.withDraft(context, typeID, previousTag, newTag, func(transaction pgx.Tx) error {
		column := schema.CmsContentTypeField
		query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2 AND %s = $3`,
			column.Table, column.ID, column.ContentTypeID, column.Status,
		)

		tag, err := transaction.Exec(context, query, fieldID, typeID, lifecycle.StatusDraft)
		if err != nil {
			return dberr.Wrap(err, "delete_field_definition")
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("FieldDefinition")
		}
		return nil
	})
}

// DeleteDraft removes the draft while its tag equals previousTag.
func (repository *PostgresStore) DeleteDraft(context context.Context, id int64, previousTag string) error {
	table := schema.CmsContentType
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2 AND %s = $3`, table.Table, table.ID, table.Status, table.Tag)

	tag, err := repository.pool.Exec(context, query, id, lifecycle.StatusDraft, previousTag)
	if err != nil {
		return dberr.Wrap(err, "delete_content_type_draft")
	}
	if tag.RowsAffected() == 0 {
		return repository.casFailure(context, repository.pool, id, pgx.ErrNoRows, "delete_content_type_draft")
	}
	return nil
}

/*
Publish replaces the published type by the draft in one transaction.

Description: The published row is deleted (cascading to its field definitions
and links), then the draft row flips to PUBLISHED; ON UPDATE CASCADE carries
its children along. A stale previousTag rolls everything back.
*/
func (repository *PostgresStore) Publish(context context.Context, id int64, previousTag, newTag string) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_publish_content_type")
	}
	defer transaction.Rollback(context)

	table := schema.CmsContentType
	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, table.Table, table.ID, table.Status)
	if _, err := transaction.Exec(context, deleteQuery, id, lifecycle.StatusPublished); err != nil {
		return dberr.Wrap(err, "delete_published_content_type")
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
		return repository.casFailure(context, transaction, id, err, "promote_content_type")
	}

	if err := transaction.Commit(context); err != nil {
		return dberr.Wrap(err, "commit_publish_content_type")
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
		return dberr.Wrap(err, "begin_delete_content_type")
	}
	defer transaction.Rollback(context)

	table := schema.CmsContentType
	lockQuery := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2 FOR UPDATE`,
		table.Tag, table.Table, table.ID, table.Status,
	)

	var stored string
	if err := transaction.QueryRow(context, lockQuery, id, status).Scan(&stored); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("ContentType")
		}
		return dberr.Wrap(err, "lock_content_type")
	}
	if stored != previousTag {
		return apperr.PreconditionFailed(lifecycle.MessageStaleTag)
	}

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table.Table, table.ID)
	if _, err := transaction.Exec(context, deleteQuery, id); err != nil {
		return dberr.Wrap(err, "delete_content_type")
	}

	if err := transaction.Commit(context); err != nil {
		return dberr.Wrap(err, "commit_delete_content_type")
	}
	return nil
}

// # Helpers

// withDraft runs change inside a transaction that first rotates the draft tag
// from previousTag to newTag.
func (repository *PostgresStore) withDraft(context context.Context, id int64, previousTag, newTag string, change func(pgx.Tx) error) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_content_type_draft_change")
	}
	defer transaction.Rollback(context)

	table := schema.CmsContentType
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
		return repository.casFailure(context, transaction, id, err, "rotate_content_type_tag")
	}

	if err := change(transaction); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return dberr.Wrap(err, "commit_content_type_draft_change")
	}
	return nil
}

// casFailure classifies a compare-and-swap miss: a missing draft is NotFound,
// an existing draft with another tag is PreconditionFailed.
func (repository *PostgresStore) casFailure(context context.Context, db querier, id int64, err error, action string) error {
	if !errors.Is(err, pgx.ErrNoRows) {
		return dberr.Wrap(err, action)
	}

	table := schema.CmsContentType
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND %s = '%s')`,
		table.Table, table.ID, table.Status, lifecycle.StatusDraft,
	)

	var exists bool
	if err := db.QueryRow(context, query, id).Scan(&exists); err != nil {
		return dberr.Wrap(err, action)
	}
	if !exists {
		return apperr.NotFound("ContentType")
	}
	return apperr.PreconditionFailed(lifecycle.MessageStaleTag)
}

func insertField(context context.Context, transaction pgx.Tx, typeID int64, field *FieldDefinition) error {
	column := schema.CmsContentTypeField
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING %s
	`,
		column.Table,
		column.ContentTypeID, column.Status, column.Identifier, column.FieldType, column.Names, column.Position,
		column.IsRequired, column.IsTranslatable, column.IsSearchable, column.IsSingular, column.DefaultValue,
		column.ID,
	)

	err := transaction.QueryRow(context, query,
		typeID, lifecycle.StatusDraft, field.Identifier, field.FieldType, nonNil(field.Names), field.Position,
		field.IsRequired, field.IsTranslatable, field.IsSearchable, field.Singular, nullableJSON(field.DefaultValue),
	).Scan(&field.ID)
	return dberr.Wrap(err, "insert_field_definition")
}

func nonNil(values map[string]string) map[string]string {
	if values == nil {
		return map[string]string{}
	}
	return values
}

// nullableJSON maps an empty raw message to SQL NULL.
func nullableJSON(value []byte) any {
	if len(value) == 0 {
		return nil
	}
	return string(value)
}
