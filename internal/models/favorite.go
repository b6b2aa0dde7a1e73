package models

import "time"

// Favorite is a (user, document) membership pair, unique per pair.
type Favorite struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	DocumentID string    `db:"document_id" json:"document_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// FavoriteWithDocument joins a favorite with document metadata.
type FavoriteWithDocument struct {
	Favorite
	DocumentTitle  string         `db:"document_title" json:"document_title"`
	DocumentFormat string         `db:"document_format" json:"document_format"`
	DocumentStatus DocumentStatus `db:"document_status" json:"document_status"`
}
