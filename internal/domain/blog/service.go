package blog

import (
	"context"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Input carries the author-editable post fields.
type Input struct {
	Title       string  `json:"title"`
	Body        string  `json:"body"`
	CoverBlobID *string `json:"cover_blob_id"`
	Published   bool    `json:"published"`
}

// Create stores a new post. Slug and excerpt are derived here, not by the
// storage layer.
func (s *Service) Create(ctx context.Context, authorID uuid.UUID, in Input) (*Post, error) {
	p := &Post{
		AuthorID:    authorID,
		Title:       in.Title,
		Body:        in.Body,
		CoverBlobID: in.CoverBlobID,
		Published:   in.Published,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.recompute()
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update edits a post and re-derives slug and excerpt from the new title
// and body.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*Post, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Title = in.Title
	p.Body = in.Body
	p.CoverBlobID = in.CoverBlobID
	p.Published = in.Published
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.recompute()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Post, error) {
	return s.repo.GetByID(ctx, id)
}

// GetPublishedBySlug serves the public article page; drafts stay hidden.
func (s *Service) GetPublishedBySlug(ctx context.Context, slug string) (*Post, error) {
	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !p.Published {
		return nil, ErrNotFound
	}
	return p, nil
}

// List returns posts, restricted to published ones for the public site.
func (s *Service) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*Post, int, error) {
	return s.repo.List(ctx, publishedOnly, limit, offset)
}
