package models

import "github.com/golang-jwt/jwt/v5"

// RegisterRequest is the payload for account registration.
type RegisterRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	FullName   string `json:"full_name" validate:"required,min=2,max=120"`
	University string `json:"university" validate:"max=120"`
}

// LoginRequest is the payload for credential login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserInfo is the public projection of a user embedded in auth responses.
type UserInfo struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	FullName   string     `json:"full_name"`
	University string     `json:"university"`
	Role       UserRole   `json:"role"`
	Status     UserStatus `json:"status"`
}

// LoginResponse carries the signed token and the authenticated user.
type LoginResponse struct {
	Token     string   `json:"token"`
	ExpiresIn int64    `json:"expires_in"`
	User      UserInfo `json:"user"`
}

// JWTClaims is the token payload. The subject claim holds the user ID.
type JWTClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// PublicInfo converts a stored user into its public projection.
func (u *User) PublicInfo() UserInfo {
	return UserInfo{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		University: u.University,
		Role:       u.Role,
		Status:     u.Status,
	}
}
