package dto

// UpdateProfileRequest is a partial self-service profile update.
type UpdateProfileRequest struct {
	FullName   *string `json:"full_name" validate:"omitempty,min=2,max=120"`
	University *string `json:"university" validate:"omitempty,max=120"`
	Password   *string `json:"password" validate:"omitempty,min=8"`
}

// UpdateUserStatusRequest toggles an account between active and inactive.
type UpdateUserStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}
