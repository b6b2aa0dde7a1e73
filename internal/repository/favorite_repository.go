package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sukunslide/docshare-api/internal/models"
)

// uniqueViolation is the Postgres error code for duplicate keys.
const uniqueViolation = "23505"

// FavoriteRepository manages per-user document favorites.
type FavoriteRepository struct {
	db *sqlx.DB
}

// NewFavoriteRepository constructs the repository.
func NewFavoriteRepository(db *sqlx.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// ErrDuplicateFavorite is returned when the (user, document) pair already
// exists.
var ErrDuplicateFavorite = fmt.Errorf("favorite already exists")

// Create adds a favorite; the unique constraint enforces one per pair.
func (r *FavoriteRepository) Create(ctx context.Context, f *models.Favorite) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO favorites (id, user_id, document_id, created_at) VALUES (:id, :user_id, :document_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, f); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return ErrDuplicateFavorite
		}
		return fmt.Errorf("create favorite: %w", err)
	}
	return nil
}

// Delete removes a favorite pair. Removing an absent pair is not an error;
// Delete reports how many rows were affected.
func (r *FavoriteRepository) Delete(ctx context.Context, userID, documentID string) (int64, error) {
	const query = `DELETE FROM favorites WHERE user_id = $1 AND document_id = $2`
	res, err := r.db.ExecContext(ctx, query, userID, documentID)
	if err != nil {
		return 0, fmt.Errorf("delete favorite: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows, nil
}

// ListByUser returns a user's favorites joined with document metadata.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]models.FavoriteWithDocument, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT f.id, f.user_id, f.document_id, f.created_at,
	doc.title AS document_title, doc.format AS document_format, doc.status AS document_status
	FROM favorites f JOIN documents doc ON doc.id = f.document_id
	WHERE f.user_id = $1 ORDER BY f.created_at DESC LIMIT %d OFFSET %d`, pageSize, offset)

	var rows []models.FavoriteWithDocument
	if err := r.db.SelectContext(ctx, &rows, listQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("list favorites: %w", err)
	}

	const countQuery = `SELECT COUNT(*) FROM favorites WHERE user_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("count favorites: %w", err)
	}
	return rows, total, nil
}
