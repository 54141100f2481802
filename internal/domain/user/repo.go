package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
	SetBlocked(ctx context.Context, id uuid.UUID, blocked bool, until *time.Time) error
}
