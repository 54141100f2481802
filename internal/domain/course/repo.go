package course

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence contract for courses.
type Repository interface {
	Create(ctx context.Context, c *Course) error
	GetByID(ctx context.Context, id uuid.UUID) (*Course, error)
	Update(ctx context.Context, c *Course) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*Course, int, error)
}
