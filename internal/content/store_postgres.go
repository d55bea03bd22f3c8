// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

// NewPostgresStore constructs a PostgreSQL backed content store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// # Content

/*
CreateContent inserts an item and its first version in one transaction.

Parameters:
  - context: context.Context
  - content: *Content (ID, CreatedAt and ModifiedAt are populated)
  - draft: *Version (ContentID and VersionNo are populated)

Returns:
  - error: apperr.Conflict on a duplicate remote id
*/
func (repository *PostgresStore) CreateContent(context context.Context, content *Content, draft *Version) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_create_content")
	}
	defer transaction.Rollback(context)

	table := schema.CmsContent
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s, %s, %s
	`,
		table.Table,
		table.ContentTypeID, table.RemoteID, table.MainLanguageCode, table.AlwaysAvailable,
		table.CurrentVersionNo, table.IsPublished, table.Tag,
		table.ID, table.CreatedAt, table.ModifiedAt,
	)

	err = transaction.QueryRow(context, query,
		content.ContentTypeID, content.RemoteID, content.MainLanguageCode, content.AlwaysAvailable,
		content.CurrentVersionNo, content.Published, content.Tag,
	).Scan(&content.ID, &content.CreatedAt, &content.ModifiedAt)
	if err != nil {
		return dberr.Wrap(err, "insert_content")
	}

	draft.ContentID = content.ID
	draft.VersionNo = content.CurrentVersionNo
	if err := insertVersion(context, transaction, draft); err != nil {
		return err
	}

	return dberr.Wrap(transaction.Commit(context), "commit_create_content")
}

func (repository *PostgresStore) FindContent(context context.Context, id int64) (*Content, error) {
	table := schema.CmsContent
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
	`,
		table.ID, table.ContentTypeID, table.RemoteID, table.MainLanguageCode, table.AlwaysAvailable,
		table.CurrentVersionNo, table.IsPublished, table.Tag, table.CreatedAt, table.ModifiedAt,
		table.Table,
		table.ID,
	)

	content := &Content{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&content.ID, &content.ContentTypeID, &content.RemoteID, &content.MainLanguageCode, &content.AlwaysAvailable,
		&content.CurrentVersionNo, &content.Published, &content.Tag, &content.CreatedAt, &content.ModifiedAt,
	)
	if err != nil {
		return nil, dberr.NotFound(err, "Content", "find_content")
	}
	return content, nil
}

// UpdateContent rewrites the metadata of an item while its tag equals previousTag.
func (repository *PostgresStore) UpdateContent(context context.Context, content *Content, previousTag string) error {
	table := schema.CmsContent
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $3, %s = $4, %s = $5, %s = $6, %s = now()
		WHERE %s = $1 AND %s = $2
		RETURNING %s
	`,
		table.Table,
		table.RemoteID, table.MainLanguageCode, table.AlwaysAvailable, table.Tag, table.ModifiedAt,
		table.ID, table.Tag,
		table.ModifiedAt,
	)

	err := repository.pool.QueryRow(context, query,
		content.ID, previousTag,
		content.RemoteID, content.MainLanguageCode, content.AlwaysAvailable, content.Tag,
	).Scan(&content.ModifiedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return dberr.Wrap(err, "update_content")
	}

	if _, err := repository.FindContent(context, content.ID); err != nil {
		return err
	}
	return apperr.PreconditionFailed(lifecycle.MessageStaleTag)
}

// DeleteContent removes an item while its tag equals previousTag. Versions,
// translations and relations go with it through foreign keys.
func (repository *PostgresStore) DeleteContent(context context.Context, id int64, previousTag string) error {
	table := schema.CmsContent
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, table.Table, table.ID, table.Tag)

	tag, err := repository.pool.Exec(context, query, id, previousTag)
	if err != nil {
		return dberr.Wrap(err, "delete_content")
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	if _, err := repository.FindContent(context, id); err != nil {
		return err
	}
	return apperr.PreconditionFailed(lifecycle.MessageStaleTag)
}

// # Versions

func (repository *PostgresStore) ListVersions(context context.Context, contentID int64) ([]*Version, error) {
	table := schema.CmsContentVersion
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s
	`,
		table.ContentID, table.VersionNo, table.Status, table.InitialLanguageCode,
		table.CreatorID, table.Tag, table.CreatedAt, table.ModifiedAt,
		table.Table,
		table.ContentID,
		table.VersionNo,
	)

	rows, err := repository.pool.Query(context, query, contentID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_content_versions")
	}
	defer rows.Close()

	versions := make([]*Version, 0)
	byNumber := make(map[int]*Version)
	for rows.Next() {
		version := &Version{Names: map[string]string{}, Fields: []Field{}}
		if err := scanVersion(rows, version); err != nil {
			return nil, err
		}
		versions = append(versions, version)
		byNumber[version.VersionNo] = version
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_content_versions")
	}

	language := schema.CmsContentVersionLanguage
	namesQuery := fmt.Sprintf(`SELECT %s, %s, %s FROM %s WHERE %s = $1`,
		language.VersionNo, language.LanguageCode, language.Name, language.Table, language.ContentID,
	)

	nameRows, err := repository.pool.Query(context, namesQuery, contentID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_content_version_names")
	}
	defer nameRows.Close()

	for nameRows.Next() {
		var (
			versionNo    int
			languageCode string
			name         string
		)
		if err := nameRows.Scan(&versionNo, &languageCode, &name); err != nil {
			return nil, dberr.Wrap(err, "scan_content_version_name")
		}
		if version, found := byNumber[versionNo]; found {
			version.Names[languageCode] = name
		}
	}

	return versions, dberr.Wrap(nameRows.Err(), "list_content_version_names")
}

func (repository *PostgresStore) FindVersion(context context.Context, contentID int64, versionNo int) (*Version, error) {
	return findVersion(context, repository.pool, contentID, versionNo)
}

/*
CreateVersion inserts a draft after the highest existing version number.

Description: The item row is locked while the next number is allocated so two
concurrent drafts never collide. COMMON relations of fromVersionNo are copied
to the new draft.
*/
func (repository *PostgresStore) CreateVersion(context context.Context, draft *Version, fromVersionNo int) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_create_content_version")
	}
	defer transaction.Rollback(context)

	content := schema.CmsContent
	lockQuery := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 FOR UPDATE`, content.ID, content.Table, content.ID)
	var locked int64
	if err := transaction.QueryRow(context, lockQuery, draft.ContentID).Scan(&locked); err != nil {
		return dberr.NotFound(err, "Content", "lock_content")
	}

	table := schema.CmsContentVersion
	nextQuery := fmt.Sprintf(`SELECT COALESCE(MAX(%s), 0) + 1 FROM %s WHERE %s = $1`,
		table.VersionNo, table.Table, table.ContentID,
	)
	if err := transaction.QueryRow(context, nextQuery, draft.ContentID).Scan(&draft.VersionNo); err != nil {
		return dberr.Wrap(err, "allocate_content_version_no")
	}

	if err := insertVersion(context, transaction, draft); err != nil {
		return err
	}

	relation := schema.CmsContentRelation
	copyQuery := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		SELECT %s, $3, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s = $2 AND %s = '%s'
	`,
		relation.Table,
		relation.SourceContentID, relation.SourceVersionNo, relation.DestinationContentID, relation.RelationType, relation.FieldIdentifier,
		relation.SourceContentID, relation.DestinationContentID, relation.RelationType, relation.FieldIdentifier,
		relation.Table,
		relation.SourceContentID, relation.SourceVersionNo, relation.RelationType, RelationCommon,
	)
	if _, err := transaction.Exec(context, copyQuery, draft.ContentID, fromVersionNo, draft.VersionNo); err != nil {
		return dberr.Wrap(err, "copy_content_relations")
	}

	return dberr.Wrap(transaction.Commit(context), "commit_create_content_version")
}

// UpdateVersion rewrites the translations and field values of a draft.
func (repository *PostgresStore) UpdateVersion(context context.Context, version *Version, previousTag string) error {
	return repository.withDraft(context, version.ContentID, version.VersionNo, previousTag, version.Tag, func(transaction pgx.Tx) error {
		table := schema.CmsContentVersion
		query := fmt.Sprintf(`UPDATE %s SET %s = $3 WHERE %s = $1 AND %s = $2 RETURNING %s`,
			table.Table, table.InitialLanguageCode, table.ContentID, table.VersionNo, table.ModifiedAt,
		)
		if err := transaction.QueryRow(context, query, version.ContentID, version.VersionNo, version.InitialLanguageCode).Scan(&version.ModifiedAt); err != nil {
			return dberr.Wrap(err, "update_content_version")
		}

		language := schema.CmsContentVersionLanguage
		clearQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, language.Table, language.ContentID, language.VersionNo)
		if _, err := transaction.Exec(context, clearQuery, version.ContentID, version.VersionNo); err != nil {
			return dberr.Wrap(err, "clear_content_translations")
		}

		return insertTranslations(context, transaction, version)
	})
}

// DeleteVersion removes a version while its tag equals previousTag.
func (repository *PostgresStore) DeleteVersion(context context.Context, contentID int64, versionNo int, previousTag string) error {
	table := schema.CmsContentVersion
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2 AND %s = $3`,
		table.Table, table.ContentID, table.VersionNo, table.Tag,
	)

	tag, err := repository.pool.Exec(context, query, contentID, versionNo, previousTag)
	if err != nil {
		return dberr.Wrap(err, "delete_content_version")
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	if _, err := repository.FindVersion(context, contentID, versionNo); err != nil {
		return err
	}
	return apperr.PreconditionFailed(lifecycle.MessageStaleTag)
}

/*
PublishVersion promotes a draft and makes it current in one transaction.

Description: The item row is locked first. The draft flips to PUBLISHED under
a compare-and-swap on previousTag; with archive set, the previously current
published version flips to ARCHIVED and takes newTag too. Finally the item
points at the new version.
*/
func (repository *PostgresStore) PublishVersion(context context.Context, contentID int64, versionNo int, previousTag, newTag string, archive bool) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_publish_content_version")
	}
	defer transaction.Rollback(context)

	content := schema.CmsContent
	lockQuery := fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s = $1 FOR UPDATE`,
		content.CurrentVersionNo, content.IsPublished, content.Table, content.ID,
	)

	var (
		current   int
		published bool
	)
	if err := transaction.QueryRow(context, lockQuery, contentID).Scan(&current, &published); err != nil {
		return dberr.NotFound(err, "Content", "lock_content")
	}

	table := schema.CmsContentVersion
	promoteQuery := fmt.Sprintf(`
		UPDATE %s SET %s = $4, %s = $5, %s = now()
		WHERE %s = $1 AND %s = $2 AND %s = $3 AND %s = '%s'
		RETURNING %s
	`,
		table.Table, table.Status, table.Tag, table.ModifiedAt,
		table.ContentID, table.VersionNo, table.Tag, table.Status, lifecycle.StatusDraft,
		table.VersionNo,
	)

	var promoted int
	err = transaction.QueryRow(context, promoteQuery, contentID, versionNo, previousTag, lifecycle.StatusPublished, newTag).Scan(&promoted)
	if err != nil {
		return versionFailure(context, transaction, contentID, versionNo, err, "promote_content_version")
	}

	if archive && published && current != versionNo {
		archiveQuery := fmt.Sprintf(`
			UPDATE %s SET %s = $4, %s = $5, %s = now()
			WHERE %s = $1 AND %s = $2 AND %s = $3
		`,
			table.Table, table.Status, table.Tag, table.ModifiedAt,
			table.ContentID, table.VersionNo, table.Status,
		)
		if _, err := transaction.Exec(context, archiveQuery, contentID, current, lifecycle.StatusPublished, lifecycle.StatusArchived, newTag); err != nil {
			return dberr.Wrap(err, "archive_content_version")
		}
	}

	currentQuery := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = TRUE, %s = $3, %s = now() WHERE %s = $1`,
		content.Table, content.CurrentVersionNo, content.IsPublished, content.Tag, content.ModifiedAt, content.ID,
	)
	if _, err := transaction.Exec(context, currentQuery, contentID, versionNo, newTag); err != nil {
		return dberr.Wrap(err, "set_current_content_version")
	}

	return dberr.Wrap(transaction.Commit(context), "commit_publish_content_version")
}

func (repository *PostgresStore) CountByContentType(context context.Context, contentTypeID int64) (int, error) {
	table := schema.CmsContent
	query := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s = $1`, table.Table, table.ContentTypeID)

	var count int
	err := repository.pool.QueryRow(context, query, contentTypeID).Scan(&count)
	return count, dberr.Wrap(err, "count_content_by_type")
}

// # Helpers

// withDraft runs change inside a transaction that first rotates the draft
// tag from previousTag to newTag.
func (repository *PostgresStore) withDraft(context context.Context, contentID int64, versionNo int, previousTag, newTag string, change func(pgx.Tx) error) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_content_draft_change")
	}
	defer transaction.Rollback(context)

	table := schema.CmsContentVersion
	query := fmt.Sprintf(`
		UPDATE %s SET %s = $4, %s = now()
		WHERE %s = $1 AND %s = $2 AND %s = $3 AND %s = '%s'
		RETURNING %s
	`,
		table.Table, table.Tag, table.ModifiedAt,
		table.ContentID, table.VersionNo, table.Tag, table.Status, lifecycle.StatusDraft,
		table.VersionNo,
	)

	var locked int
	if err := transaction.QueryRow(context, query, contentID, versionNo, previousTag, newTag).Scan(&locked); err != nil {
		return versionFailure(context, transaction, contentID, versionNo, err, "rotate_content_version_tag")
	}

	if err := change(transaction); err != nil {
		return err
	}

	return dberr.Wrap(transaction.Commit(context), "commit_content_draft_change")
}

// versionFailure classifies a compare-and-swap miss on a version.
func versionFailure(context context.Context, db querier, contentID int64, versionNo int, err error, action string) error {
	if !errors.Is(err, pgx.ErrNoRows) {
		return dberr.Wrap(err, action)
	}

	table := schema.CmsContentVersion
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND %s = $2)`,
		table.Table, table.ContentID, table.VersionNo,
	)

	var exists bool
	if err := db.QueryRow(context, query, contentID, versionNo).Scan(&exists); err != nil {
		return dberr.Wrap(err, action)
	}
	if !exists {
		return apperr.NotFound("Version")
	}
	return apperr.PreconditionFailed(lifecycle.MessageStaleTag)
}

func scanVersion(row pgx.Row, version *Version) error {
	err := row.Scan(
		&version.ContentID, &version.VersionNo, &version.Status, &version.InitialLanguageCode,
		&version.CreatorID, &version.Tag, &version.CreatedAt, &version.ModifiedAt,
	)
	return dberr.NotFound(err, "Version", "scan_content_version")
}

func findVersion(context context.Context, db querier, contentID int64, versionNo int) (*Version, error) {
	table := schema.CmsContentVersion
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s = $2
	`,
		table.ContentID, table.VersionNo, table.Status, table.InitialLanguageCode,
		table.CreatorID, table.Tag, table.CreatedAt, table.ModifiedAt,
		table.Table,
		table.ContentID, table.VersionNo,
	)

	version := &Version{Names: map[string]string{}, Fields: []Field{}}
	if err := scanVersion(db.QueryRow(context, query, contentID, versionNo), version); err != nil {
		return nil, err
	}

	language := schema.CmsContentVersionLanguage
	namesQuery := fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s = $1 AND %s = $2`,
		language.LanguageCode, language.Name, language.Table, language.ContentID, language.VersionNo,
	)

	rows, err := db.Query(context, namesQuery, contentID, versionNo)
	if err != nil {
		return nil, dberr.Wrap(err, "list_content_version_names")
	}
	for rows.Next() {
		var languageCode, name string
		if err := rows.Scan(&languageCode, &name); err != nil {
			rows.Close()
			return nil, dberr.Wrap(err, "scan_content_version_name")
		}
		version.Names[languageCode] = name
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_content_version_names")
	}

	field := schema.CmsContentField
	fieldsQuery := fmt.Sprintf(`
		SELECT %s, %s, %s FROM %s
		WHERE %s = $1 AND %s = $2
		ORDER BY %s, %s
	`,
		field.FieldIdentifier, field.LanguageCode, field.Value, field.Table,
		field.ContentID, field.VersionNo,
		field.FieldIdentifier, field.LanguageCode,
	)

	fieldRows, err := db.Query(context, fieldsQuery, contentID, versionNo)
	if err != nil {
		return nil, dberr.Wrap(err, "list_content_fields")
	}

	version.Fields, err = pgx.CollectRows(fieldRows, func(row pgx.CollectableRow) (Field, error) {
		var value Field
		err := row.Scan(&value.Identifier, &value.LanguageCode, &value.Value)
		return value, err
	})
	if err != nil {
		return nil, dberr.Wrap(err, "scan_content_field")
	}
	return version, nil
}

// insertVersion writes a version row with its translations and field values.
func insertVersion(context context.Context, transaction pgx.Tx, version *Version) error {
	table := schema.CmsContentVersion
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s, %s
	`,
		table.Table,
		table.ContentID, table.VersionNo, table.Status, table.InitialLanguageCode, table.CreatorID, table.Tag,
		table.CreatedAt, table.ModifiedAt,
	)

	err := transaction.QueryRow(context, query,
		version.ContentID, version.VersionNo, version.Status, version.InitialLanguageCode, version.CreatorID, version.Tag,
	).Scan(&version.CreatedAt, &version.ModifiedAt)
	if err != nil {
		return dberr.Wrap(err, "insert_content_version")
	}

	return insertTranslations(context, transaction, version)
}

// insertTranslations writes the names of a version, then its field values.
// Every field value must reference one of the names' languages.
func insertTranslations(context context.Context, transaction pgx.Tx, version *Version) error {
	language := schema.CmsContentVersionLanguage
	languageQuery := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s) VALUES ($1, $2, $3, $4)`,
		language.Table, language.ContentID, language.VersionNo, language.LanguageCode, language.Name,
	)

	batch := &pgx.Batch{}
	for _, code := range version.Languages() {
		batch.Queue(languageQuery, version.ContentID, version.VersionNo, code, version.Names[code])
	}

	field := schema.CmsContentField
	fieldQuery := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5)`,
		field.Table, field.ContentID, field.VersionNo, field.FieldIdentifier, field.LanguageCode, field.Value,
	)
	for _, value := range version.Fields {
		batch.Queue(fieldQuery, version.ContentID, version.VersionNo, value.Identifier, value.LanguageCode, nullableJSON(value.Value))
	}

	if batch.Len() == 0 {
		return nil
	}
	return dberr.Wrap(transaction.SendBatch(context, batch).Close(), "insert_content_translations")
}

func deleteVersion(context context.Context, db querier, contentID int64, versionNo int) error {
	table := schema.CmsContentVersion
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, table.Table, table.ContentID, table.VersionNo)

	tag, err := db.Exec(context, query, contentID, versionNo)
	if err != nil {
		return dberr.Wrap(err, "delete_content_version")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Version")
	}
	return nil
}

// nullableJSON maps an empty raw message to SQL NULL.
func nullableJSON(value []byte) any {
	if len(value) == 0 {
		return nil
	}
	return string(value)
}
