package blog

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence contract for posts.
type Repository interface {
	Create(ctx context.Context, p *Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	GetBySlug(ctx context.Context, slug string) (*Post, error)
	Update(ctx context.Context, p *Post) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*Post, int, error)
}
