package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukunslide/docshare-api/internal/models"
)

func TestCreateDocument(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec("INSERT INTO documents").WillReturnResult(sqlmock.NewResult(1, 1))

	doc := &models.Document{
		Title:     "Calculus Notes",
		SubjectID: "s1",
		Format:    "pdf",
		FilePath:  "calculus-notes-deadbeef.pdf",
		FileSize:  2048,
		Status:    models.DocumentPending,
	}
	err := repo.Create(context.Background(), doc)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDocumentsFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	now := time.Now()
	listRows := sqlmock.NewRows([]string{"id", "title", "description", "subject_id", "format", "file_path", "file_size", "author", "tags", "status", "download_count", "uploaded_by", "created_at", "updated_at"}).
		AddRow("d1", "Notes", "", "s1", "pdf", "notes-abc.pdf", 100, "", "{}", string(models.DocumentApproved), 3, "u1", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM documents WHERE 1=1 AND status = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs(string(models.DocumentApproved)).
		WillReturnRows(listRows)

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM documents WHERE 1=1 AND status = $1")).
		WithArgs(string(models.DocumentApproved)).
		WillReturnRows(countRows)

	docs, total, err := repo.List(context.Background(), models.DocumentFilter{Status: models.DocumentApproved})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDocumentStatusMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec("UPDATE documents SET status").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", models.DocumentApproved)
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementDownloadCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET download_count = download_count + 1 WHERE id = $1")).
		WithArgs("d1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.IncrementDownloadCount(context.Background(), "d1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteDocumentMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec("DELETE FROM documents").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
