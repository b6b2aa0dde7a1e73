package models

// AnalyticsOverview aggregates platform-wide counters for the admin dashboard.
type AnalyticsOverview struct {
	TotalUsers        int `db:"total_users" json:"total_users"`
	ActiveUsers       int `db:"active_users" json:"active_users"`
	TotalDocuments    int `db:"total_documents" json:"total_documents"`
	PendingDocuments  int `db:"pending_documents" json:"pending_documents"`
	ApprovedDocuments int `db:"approved_documents" json:"approved_documents"`
	RejectedDocuments int `db:"rejected_documents" json:"rejected_documents"`
	TotalDownloads    int `db:"total_downloads" json:"total_downloads"`
	TotalFavorites    int `db:"total_favorites" json:"total_favorites"`
}

// SubjectDocumentCount is a per-subject document tally.
type SubjectDocumentCount struct {
	SubjectID   string `db:"subject_id" json:"subject_id"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	Count       int    `db:"count" json:"count"`
}

// TopDocument is a download leaderboard row.
type TopDocument struct {
	DocumentID    string `db:"document_id" json:"document_id"`
	Title         string `db:"title" json:"title"`
	Format        string `db:"format" json:"format"`
	DownloadCount int    `db:"download_count" json:"download_count"`
}
