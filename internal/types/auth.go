// Package types holds request and response bodies shared by the API server
// and its clients.
package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RegisterRequest opens an account that owns templates and documents.
// Passwords are capped at 72 characters; bcrypt ignores input past 72 bytes.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Normalize trims the name and canonicalises the email.
func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = CanonicalEmail(r.Email)
}

// LoginRequest exchanges credentials for a Session.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

// Normalize canonicalises the email.
func (r *LoginRequest) Normalize() {
	r.Email = CanonicalEmail(r.Email)
}

// ChangePasswordRequest replaces the caller's password. The new password
// must differ from the current one.
type ChangePasswordRequest struct {
	Current string `json:"current_password" validate:"required,max=72"`
	New     string `json:"new_password" validate:"required,min=8,max=72,nefield=Current"`
}

// Account is the public view of a user. The password hash never leaves the
// server.
type Account struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session is returned by register and login. Token is sent back as
// "Authorization: Bearer <token>" on every /templates and /documents route.
type Session struct {
	Account   *Account  `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CanonicalEmail is the form emails are stored and looked up in.
func CanonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
