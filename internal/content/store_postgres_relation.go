// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/cmsrest/internal/lifecycle"
	"github.com/taibuivan/cmsrest/internal/platform/apperr"
	"github.com/taibuivan/cmsrest/internal/platform/database/schema"
	"github.com/taibuivan/cmsrest/internal/platform/dberr"
)

// # Relations

func (repository *PostgresStore) ListRelations(context context.Context, contentID int64, versionNo int) ([]Relation, error) {
	table := schema.CmsContentRelation
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s = $2
		ORDER BY %s
	`,
		table.ID, table.SourceContentID, table.SourceVersionNo, table.DestinationContentID, table.RelationType, table.FieldIdentifier,
		table.Table,
		table.SourceContentID, table.SourceVersionNo,
		table.ID,
	)

	rows, err := repository.pool.Query(context, query, contentID, versionNo)
	if err != nil {
		return nil, dberr.Wrap(err, "list_content_relations")
	}

	relations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Relation, error) {
		var relation Relation
		err := row.Scan(
			&relation.ID, &relation.SourceContentID, &relation.SourceVersionNo,
			&relation.DestinationContentID, &relation.Type, &relation.FieldIdentifier,
		)
		return relation, err
	})
	return relations, dberr.Wrap(err, "scan_content_relation")
}

// AddRelation inserts a relation and rotates the draft tag. A second COMMON
// relation to the same destination violates a unique index and surfaces as
// apperr.Conflict.
func (repository *PostgresStore) AddRelation(context context.Context, relation *Relation, previousTag, newTag string) error {
	return repository.withDraft(context, relation.SourceContentID, relation.SourceVersionNo, previousTag, newTag, func(transaction pgx.Tx) error {
		table := schema.CmsContentRelation
		query := fmt.Sprintf(`
			INSERT INTO %s (%s, %s, %s, %s, %s)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING %s
		`,
			table.Table,
			table.SourceContentID, table.SourceVersionNo, table.DestinationContentID, table.RelationType, table.FieldIdentifier,
			table.ID,
		)

		err := transaction.QueryRow(context, query,
			relation.SourceContentID, relation.SourceVersionNo, relation.DestinationContentID, relation.Type, relation.FieldIdentifier,
		).Scan(&relation.ID)
		return dberr.Wrap(err, "insert_content_relation")
	})
}

func (repository *PostgresStore) RemoveRelation(context context.Context, contentID int64, versionNo int, relationID int64, previousTag, newTag string) error {
	return repository.withDraft(context, contentID, versionNo, previousTag, newTag, func(transaction pgx.Tx) error {
		table := schema.CmsContentRelation
		query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2 AND %s = $3 AND %s = $4`,
			table.Table, table.ID, table.SourceContentID, table.SourceVersionNo, table.RelationType,
		)

		tag, err := transaction.Exec(context, query, relationID, contentID, versionNo, RelationCommon)
		if err != nil {
			return dberr.Wrap(err, "delete_content_relation")
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("Relation")
		}
		return nil
	})
}

// # Translations

func (repository *PostgresStore) ListTranslations(context context.Context, contentID int64) ([]VersionTranslations, error) {
	version := schema.CmsContentVersion
	language := schema.CmsContentVersionLanguage
	query := fmt.Sprintf(`
		SELECT v.%s, v.%s,
		       COALESCE(array_agg(l.%s ORDER BY l.%s) FILTER (WHERE l.%s IS NOT NULL), '{}')
		FROM %s v
		LEFT JOIN %s l ON l.%s = v.%s AND l.%s = v.%s
		WHERE v.%s = $1
		GROUP BY v.%s, v.%s
		ORDER BY v.%s
	`,
		version.VersionNo, version.Status,
		language.LanguageCode, language.LanguageCode, language.LanguageCode,
		version.Table,
		language.Table, language.ContentID, version.ContentID, language.VersionNo, version.VersionNo,
		version.ContentID,
		version.VersionNo, version.Status,
		version.VersionNo,
	)

	rows, err := repository.pool.Query(context, query, contentID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_content_translations")
	}

	translations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (VersionTranslations, error) {
		var entry VersionTranslations
		err := row.Scan(&entry.VersionNo, &entry.Status, &entry.LanguageCodes)
		return entry, err
	})
	return translations, dberr.Wrap(err, "scan_content_translations")
}

func (repository *PostgresStore) RemoveTranslation(context context.Context, contentID int64, versionNo int, languageCode, previousTag, newTag string) error {
	return repository.withDraft(context, contentID, versionNo, previousTag, newTag, func(transaction pgx.Tx) error {
		return stripLanguage(context, transaction, contentID, versionNo, languageCode)
	})
}

func (repository *PostgresStore) Begin(context context.Context) (Tx, error) {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return nil, dberr.Wrap(err, "begin_content_transaction")
	}
	return &postgresTx{transaction: transaction}, nil
}

// postgresTx implements [Tx] over a pgx transaction.
type postgresTx struct {
	transaction pgx.Tx
}

func (tx *postgresTx) StripTranslation(context context.Context, contentID int64, versionNo int, languageCode, newTag string) error {
	if err := stripLanguage(context, tx.transaction, contentID, versionNo, languageCode); err != nil {
		return err
	}

	table := schema.CmsContentVersion
	query := fmt.Sprintf(`UPDATE %s SET %s = $3, %s = now() WHERE %s = $1 AND %s = $2`,
		table.Table, table.Tag, table.ModifiedAt, table.ContentID, table.VersionNo,
	)
	_, err := tx.transaction.Exec(context, query, contentID, versionNo, newTag)
	return dberr.Wrap(err, "rotate_content_version_tag")
}

func (tx *postgresTx) DeleteVersion(context context.Context, contentID int64, versionNo int) error {
	return deleteVersion(context, tx.transaction, contentID, versionNo)
}

func (tx *postgresTx) TouchContent(context context.Context, contentID int64, previousTag, newTag string) error {
	table := schema.CmsContent
	query := fmt.Sprintf(`UPDATE %s SET %s = $3, %s = now() WHERE %s = $1 AND %s = $2`,
		table.Table, table.Tag, table.ModifiedAt, table.ID, table.Tag,
	)

	tag, err := tx.transaction.Exec(context, query, contentID, previousTag, newTag)
	if err != nil {
		return dberr.Wrap(err, "touch_content")
	}
	if tag.RowsAffected() == 0 {
		return apperr.PreconditionFailed(lifecycle.MessageStaleTag)
	}
	return nil
}

func (tx *postgresTx) Commit(context context.Context) error {
	return dberr.Wrap(tx.transaction.Commit(context), "commit_content_transaction")
}

func (tx *postgresTx) Rollback(context context.Context) error {
	err := tx.transaction.Rollback(context)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return dberr.Wrap(err, "rollback_content_transaction")
}

// stripLanguage deletes one translation (its field values cascade). When the
// stripped language was the initial one, the version falls back to the item's
// main language if it still carries it, otherwise to its first remaining
// language, matching [Version.FallbackLanguage].
func stripLanguage(context context.Context, transaction pgx.Tx, contentID int64, versionNo int, languageCode string) error {
	language := schema.CmsContentVersionLanguage
	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2 AND %s = $3`,
		language.Table, language.ContentID, language.VersionNo, language.LanguageCode,
	)

	tag, err := transaction.Exec(context, deleteQuery, contentID, versionNo, languageCode)
	if err != nil {
		return dberr.Wrap(err, "delete_content_translation")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Translation")
	}

	version := schema.CmsContentVersion
	content := schema.CmsContent
	resetQuery := fmt.Sprintf(`
		UPDATE %[1]s v SET %[2]s = COALESCE(
			(SELECT l.%[6]s FROM %[5]s l WHERE l.%[7]s = v.%[8]s AND l.%[9]s = v.%[10]s AND l.%[6]s = c.%[3]s),
			(SELECT MIN(l.%[6]s COLLATE "C") FROM %[5]s l WHERE l.%[7]s = v.%[8]s AND l.%[9]s = v.%[10]s)
		)
		FROM %[4]s c
		WHERE c.%[11]s = v.%[8]s AND v.%[8]s = $1 AND v.%[10]s = $2 AND v.%[2]s = $3
	`,
		version.Table, version.InitialLanguageCode, content.MainLanguageCode, content.Table,
		language.Table, language.LanguageCode, language.ContentID, version.ContentID,
		language.VersionNo, version.VersionNo, content.ID,
	)
	_, err = transaction.Exec(context, resetQuery, contentID, versionNo, languageCode)
	return dberr.Wrap(err, "reset_initial_language")
}
