package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ActivityAction constants represent administrative actions to be logged.
const (
	ActivityDocumentUpload  = "DOCUMENT_UPLOAD"
	ActivityDocumentApprove = "DOCUMENT_APPROVE"
	ActivityDocumentReject  = "DOCUMENT_REJECT"
	ActivityDocumentUpdate  = "DOCUMENT_UPDATE"
	ActivityDocumentDelete  = "DOCUMENT_DELETE"
	ActivityUserStatus      = "USER_STATUS_UPDATE"
	ActivitySubjectCreate   = "SUBJECT_CREATE"
	ActivitySubjectUpdate   = "SUBJECT_UPDATE"
	ActivitySubjectDelete   = "SUBJECT_DELETE"
)

// ActivityLog is an append-only audit record of an administrative action.
// Writes are best-effort and must never block or fail the primary operation.
type ActivityLog struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	Action    string    `db:"action" json:"action"`
	Detail    types.JSONText `db:"detail" json:"detail,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
