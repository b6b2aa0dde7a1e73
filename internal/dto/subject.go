package dto

// CreateSubjectRequest creates a reference-table subject.
type CreateSubjectRequest struct {
	Code string `json:"code" validate:"required,min=2,max=20"`
	Name string `json:"name" validate:"required,min=2,max=120"`
}

// UpdateSubjectRequest is a partial subject update.
type UpdateSubjectRequest struct {
	Code *string `json:"code" validate:"omitempty,min=2,max=20"`
	Name *string `json:"name" validate:"omitempty,min=2,max=120"`
}
