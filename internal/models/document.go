package models

import (
	"time"

	"github.com/lib/pq"
)

// DocumentStatus tracks the moderation lifecycle of a document.
type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentApproved DocumentStatus = "approved"
	DocumentRejected DocumentStatus = "rejected"
)

// Valid reports whether the status is one of the three moderation states.
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentPending, DocumentApproved, DocumentRejected:
		return true
	}
	return false
}

// Document represents an uploaded study document and its moderation state.
// Only approved documents are visible to non-admin read paths.
type Document struct {
	ID            string         `db:"id" json:"id"`
	Title         string         `db:"title" json:"title"`
	Description   string         `db:"description" json:"description"`
	SubjectID     string         `db:"subject_id" json:"subject_id"`
	Format        string         `db:"format" json:"format"`
	FilePath      string         `db:"file_path" json:"-"`
	FileSize      int64          `db:"file_size" json:"file_size"`
	Author        string         `db:"author" json:"author"`
	Tags          pq.StringArray `db:"tags" json:"tags"`
	Status        DocumentStatus `db:"status" json:"status"`
	DownloadCount int            `db:"download_count" json:"download_count"`
	UploadedBy    string         `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// DocumentFilter captures list filtering criteria.
type DocumentFilter struct {
	Status    DocumentStatus
	SubjectID string
	Format    string
	Search    string
	Page      int
	PageSize  int
}
