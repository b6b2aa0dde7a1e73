package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sukunslide/docshare-api/internal/models"
)

// DownloadRepository records and lists download events.
type DownloadRepository struct {
	db *sqlx.DB
}

// NewDownloadRepository constructs the repository.
func NewDownloadRepository(db *sqlx.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Create appends a download event.
func (r *DownloadRepository) Create(ctx context.Context, d *models.Download) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO downloads (id, user_id, document_id, ip_address, user_agent, created_at)
	VALUES (:id, :user_id, :document_id, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("create download: %w", err)
	}
	return nil
}

// ListByUser returns a user's download history, newest first.
func (r *DownloadRepository) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]models.DownloadWithDocument, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT d.id, d.user_id, d.document_id, d.ip_address, d.user_agent, d.created_at,
	doc.title AS document_title, doc.format AS document_format, doc.status AS document_status
	FROM downloads d JOIN documents doc ON doc.id = d.document_id
	WHERE d.user_id = $1 ORDER BY d.created_at DESC LIMIT %d OFFSET %d`, pageSize, offset)

	var rows []models.DownloadWithDocument
	if err := r.db.SelectContext(ctx, &rows, listQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("list downloads: %w", err)
	}

	const countQuery = `SELECT COUNT(*) FROM downloads WHERE user_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("count downloads: %w", err)
	}
	return rows, total, nil
}
