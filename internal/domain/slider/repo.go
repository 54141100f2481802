package slider

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence contract for slides.
type Repository interface {
	Create(ctx context.Context, s *Slide) error
	GetByID(ctx context.Context, id uuid.UUID) (*Slide, error)
	Update(ctx context.Context, s *Slide) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, activeOnly bool) ([]*Slide, error)
}
