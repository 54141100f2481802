// Package user implements accounts: registration, login, profile, and the
// admin block/unblock controls.
package user

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrBlocked            = errors.New("account is blocked")
	ErrValidation         = errors.New("validation failed")
)

type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Phone        string     `json:"phone,omitempty"`
	Role         string     `json:"role"`
	IsBlocked    bool       `json:"is_blocked"`
	BlockedUntil *time.Time `json:"blocked_until,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// BlockedNow reports whether the user is blocked at the given instant. A
// block with an expiry in the past no longer counts.
func (u *User) BlockedNow(now time.Time) bool {
	if !u.IsBlocked {
		return false
	}
	if u.BlockedUntil != nil && !u.BlockedUntil.After(now) {
		return false
	}
	return true
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return fmt.Errorf("%w: invalid email %q", ErrValidation, email)
	}
	return nil
}
