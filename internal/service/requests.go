package service

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"userAuthService/internal/auth"
)

// SignUpRequest is the sign-up payload. Roles holds informal labels such as
// "admin" or "mod".
type SignUpRequest struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"roles,omitempty"`
}

// Validate checks field presence and lengths.
func (r SignUpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 20)),
		validation.Field(&r.Email, validation.Required, validation.Length(0, 50), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 40)),
	)
}

// SignInRequest is the sign-in payload.
type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks both fields are present.
func (r SignInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// SignInResponse is returned on successful sign-in.
type SignInResponse struct {
	Token    string   `json:"token"`
	Type     string   `json:"type"`
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// Identity returns the authenticated identity the response describes.
func (r *SignInResponse) Identity() auth.Identity {
	return auth.Identity{ID: r.ID, Username: r.Username, Email: r.Email, Roles: r.Roles}
}

// MessageResponse is a plain acknowledgment or error message.
type MessageResponse struct {
	Message string `json:"message"`
}
