package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"enrollapi/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentPostgres_Attach(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	now := time.Now().UTC()

	t.Run("archives the active slot then inserts", func(t *testing.T) {
		doc := &model.Document{
			ID:             "doc-2",
			SubscriptionID: "sub-1",
			DocumentTypeID: "dt-1",
			Filename:       "basis-v2.pdf",
			StoragePath:    "documents/abc.pdf",
			Size:           1024,
			ContentType:    "application/pdf",
			CreatedAt:      now,
		}

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE documents SET archive = TRUE").
			WithArgs("sub-1", sql.NullString{String: "dt-1", Valid: true}).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO documents").
			WithArgs(doc.ID, doc.SubscriptionID, sql.NullString{String: "dt-1", Valid: true},
				doc.Filename, doc.StoragePath, doc.Size, doc.ContentType, doc.CreatedAt).
			WillReturnRows(sqlmock.NewRows([]string{"id", "subscription_id", "document_type_id", "filename", "storage_path", "size", "content_type", "archive", "created_at"}).
				AddRow(doc.ID, doc.SubscriptionID, "dt-1", doc.Filename, doc.StoragePath, doc.Size, doc.ContentType, false, now))
		mock.ExpectCommit()

		result, err := repo.Attach(context.Background(), doc)

		require.NoError(t, err)
		assert.Equal(t, "doc-2", result.ID)
		assert.False(t, result.Archived)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("type-less documents supersede each other through NULL", func(t *testing.T) {
		doc := &model.Document{
			ID:             "doc-3",
			SubscriptionID: "sub-1",
			Filename:       "notes.txt",
			StoragePath:    "documents/def.txt",
			Size:           5,
			ContentType:    "text/plain",
			CreatedAt:      now,
		}

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE documents SET archive = TRUE").
			WithArgs("sub-1", sql.NullString{}).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO documents").
			WithArgs(doc.ID, doc.SubscriptionID, sql.NullString{},
				doc.Filename, doc.StoragePath, doc.Size, doc.ContentType, doc.CreatedAt).
			WillReturnRows(sqlmock.NewRows([]string{"id", "subscription_id", "document_type_id", "filename", "storage_path", "size", "content_type", "archive", "created_at"}).
				AddRow(doc.ID, doc.SubscriptionID, nil, doc.Filename, doc.StoragePath, doc.Size, doc.ContentType, false, now))
		mock.ExpectCommit()

		result, err := repo.Attach(context.Background(), doc)

		require.NoError(t, err)
		assert.Empty(t, result.DocumentTypeID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the insert fails", func(t *testing.T) {
		doc := &model.Document{ID: "doc-4", SubscriptionID: "sub-1", DocumentTypeID: "dt-1", CreatedAt: now}

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE documents SET archive = TRUE").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("INSERT INTO documents").
			WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		_, err := repo.Attach(context.Background(), doc)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDocumentPostgres_ListActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "subscription_id", "document_type_id", "filename", "storage_path", "size", "content_type", "archive", "created_at"}).
			AddRow("doc-1", "sub-1", "dt-1", "basis.pdf", "documents/a.pdf", 100, "application/pdf", false, now).
			AddRow("doc-2", "sub-1", nil, "notes.txt", "documents/b.txt", 5, "text/plain", false, now))

	items, err := repo.ListActive(context.Background(), "sub-1")

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "dt-1", items[0].DocumentTypeID)
	assert.Empty(t, items[1].DocumentTypeID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
