package models

import "time"

// Download is an append-only record of a document download.
type Download struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	DocumentID string    `db:"document_id" json:"document_id"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// DownloadWithDocument joins a download event with its document metadata for
// per-user history listings.
type DownloadWithDocument struct {
	Download
	DocumentTitle  string         `db:"document_title" json:"document_title"`
	DocumentFormat string         `db:"document_format" json:"document_format"`
	DocumentStatus DocumentStatus `db:"document_status" json:"document_status"`
}
