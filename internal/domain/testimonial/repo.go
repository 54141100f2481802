package testimonial

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence contract for testimonials.
type Repository interface {
	Create(ctx context.Context, t *Testimonial) error
	GetByID(ctx context.Context, id uuid.UUID) (*Testimonial, error)
	Update(ctx context.Context, t *Testimonial) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, approvedOnly bool, limit, offset int) ([]*Testimonial, int, error)
	AverageRating(ctx context.Context) (float64, int, error)
}
