package dto

// CreateDocumentRequest carries the multipart form fields accompanying an
// upload. The file itself arrives as a separate multipart part.
type CreateDocumentRequest struct {
	Title       string   `form:"title" validate:"required,min=3,max=200"`
	Description string   `form:"description" validate:"max=2000"`
	SubjectID   string   `form:"subject_id" validate:"required,uuid4"`
	Author      string   `form:"author" validate:"max=120"`
	Tags        []string `form:"tags" validate:"max=10,dive,min=1,max=40"`
}

// UpdateDocumentRequest is a partial update; nil fields are left unchanged.
type UpdateDocumentRequest struct {
	Title       *string   `json:"title" validate:"omitempty,min=3,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
	SubjectID   *string   `json:"subject_id" validate:"omitempty,uuid4"`
	Author      *string   `json:"author" validate:"omitempty,max=120"`
	Tags        *[]string `json:"tags" validate:"omitempty,max=10,dive,min=1,max=40"`
	Status      *string   `json:"status"`
}

// DownloadResponse is returned when a download is registered. The URL is a
// short-lived signed reference to the file-serving endpoint.
type DownloadResponse struct {
	DocumentID string `json:"document_id"`
	URL        string `json:"url"`
	ExpiresIn  int64  `json:"expires_in"`
}
