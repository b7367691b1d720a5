package postgres

import (
	"context"
	"database/sql"

	"enrollapi/internal/model"
	"enrollapi/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of
// repository.DocumentRepository. An empty DocumentTypeID is stored as NULL.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, subscription_id, document_type_id, filename, storage_path, size, content_type, archive, created_at`

// Attach archives the subscription's active documents of the same type and
// inserts the new row, in one transaction. NULL type matches NULL type, so
// type-less documents also supersede each other.
func (r *DocumentPostgres) Attach(ctx context.Context, doc *model.Document) (*model.Document, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const qArchive = `
		UPDATE documents SET archive = TRUE
		WHERE subscription_id = $1
		  AND document_type_id IS NOT DISTINCT FROM $2
		  AND archive = FALSE
	`
	if _, err := tx.ExecContext(ctx, qArchive, doc.SubscriptionID, nullString(doc.DocumentTypeID)); err != nil {
		return nil, err
	}

	const qIns = `
		INSERT INTO documents (id, subscription_id, document_type_id, filename, storage_path, size, content_type, archive, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)
		RETURNING ` + documentColumns
	row := tx.QueryRowContext(ctx, qIns,
		doc.ID,
		doc.SubscriptionID,
		nullString(doc.DocumentTypeID),
		doc.Filename,
		doc.StoragePath,
		doc.Size,
		doc.ContentType,
		doc.CreatedAt,
	)
	out, err := scanDocument(row)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActive returns the non-archived documents of a subscription.
func (r *DocumentPostgres) ListActive(ctx context.Context, subscriptionID string) ([]model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE subscription_id = $1 AND archive = FALSE
		ORDER BY created_at, id
	`
	return r.list(ctx, q, subscriptionID)
}

// ListAll returns every document of a subscription, archived included.
func (r *DocumentPostgres) ListAll(ctx context.Context, subscriptionID string) ([]model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE subscription_id = $1
		ORDER BY created_at, id
	`
	return r.list(ctx, q, subscriptionID)
}

func (r *DocumentPostgres) list(ctx context.Context, q, subscriptionID string) ([]model.Document, error) {
	rows, err := r.db.QueryContext(ctx, q, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		d      model.Document
		typeID sql.NullString
	)
	if err := row.Scan(
		&d.ID,
		&d.SubscriptionID,
		&typeID,
		&d.Filename,
		&d.StoragePath,
		&d.Size,
		&d.ContentType,
		&d.Archived,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	d.DocumentTypeID = typeID.String
	return &d, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
