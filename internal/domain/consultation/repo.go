package consultation

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence contract for consultations and their status
// history.
type Repository interface {
	Create(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	Update(ctx context.Context, c *Consultation) error
	Delete(ctx context.Context, id uuid.UUID) error

	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Consultation, int, error)
	ListPending(ctx context.Context, limit, offset int) ([]*Consultation, int, error)
	ListUrgent(ctx context.Context, limit, offset int) ([]*Consultation, int, error)
	ListByFilter(ctx context.Context, f Filter, limit, offset int) ([]*Consultation, int, error)
	Stats(ctx context.Context) (*Stats, error)

	// UpdateStatusCAS atomically moves a consultation from one status to
	// another and appends the history entry in the same transaction. It
	// returns false with a nil error when the consultation's status no
	// longer matches from, so exactly one of two racing updates succeeds.
	UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to Status, change *StatusChange) (bool, error)

	GetHistory(ctx context.Context, id uuid.UUID) ([]*StatusChange, error)
}
