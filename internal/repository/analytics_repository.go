package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sukunslide/docshare-api/internal/models"
)

// AnalyticsRepository exposes read-optimised queries for the admin dashboard.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// Overview aggregates platform-wide counters in a single round trip.
func (r *AnalyticsRepository) Overview(ctx context.Context) (*models.AnalyticsOverview, error) {
	const query = `SELECT
	(SELECT COUNT(*) FROM users) AS total_users,
	(SELECT COUNT(*) FROM users WHERE status = 'active') AS active_users,
	(SELECT COUNT(*) FROM documents) AS total_documents,
	(SELECT COUNT(*) FROM documents WHERE status = 'pending') AS pending_documents,
	(SELECT COUNT(*) FROM documents WHERE status = 'approved') AS approved_documents,
	(SELECT COUNT(*) FROM documents WHERE status = 'rejected') AS rejected_documents,
	(SELECT COUNT(*) FROM downloads) AS total_downloads,
	(SELECT COUNT(*) FROM favorites) AS total_favorites`

	var overview models.AnalyticsOverview
	if err := r.db.GetContext(ctx, &overview, query); err != nil {
		return nil, fmt.Errorf("query analytics overview: %w", err)
	}
	return &overview, nil
}

// DocumentsBySubject tallies approved documents per subject.
func (r *AnalyticsRepository) DocumentsBySubject(ctx context.Context) ([]models.SubjectDocumentCount, error) {
	const query = `SELECT s.id AS subject_id, s.name AS subject_name, COUNT(d.id) AS count
	FROM subjects s LEFT JOIN documents d ON d.subject_id = s.id AND d.status = 'approved'
	GROUP BY s.id, s.name ORDER BY count DESC, s.name ASC`

	var rows []models.SubjectDocumentCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("query documents by subject: %w", err)
	}
	return rows, nil
}

// TopDownloads returns the most downloaded approved documents.
func (r *AnalyticsRepository) TopDownloads(ctx context.Context, limit int) ([]models.TopDocument, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT id AS document_id, title, format, download_count
	FROM documents WHERE status = 'approved' ORDER BY download_count DESC, created_at DESC LIMIT %d`, limit)

	var rows []models.TopDocument
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("query top downloads: %w", err)
	}
	return rows, nil
}
