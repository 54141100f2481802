package testimonial

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

// Input carries the editable testimonial fields.
type Input struct {
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
	Rating     int    `json:"rating"`
	Approved   bool   `json:"approved"`
}

// Create stores a testimonial. Public submissions come in unapproved; the
// handler on the public route forces Approved to false.
func (s *Service) Create(ctx context.Context, in Input) (*Testimonial, error) {
	t := &Testimonial{
		AuthorName: in.AuthorName,
		Content:    in.Content,
		Rating:     in.Rating,
		Approved:   in.Approved,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*Testimonial, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.AuthorName = in.AuthorName
	t.Content = in.Content
	t.Rating = in.Rating
	t.Approved = in.Approved
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Testimonial, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns testimonials, restricted to approved ones for the public site.
func (s *Service) List(ctx context.Context, approvedOnly bool, limit, offset int) ([]*Testimonial, int, error) {
	return s.repo.List(ctx, approvedOnly, limit, offset)
}

// RatingSummary is the recomputed average over approved testimonials.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// AverageRating recomputes the site rating on demand; nothing is cached on
// individual records.
func (s *Service) AverageRating(ctx context.Context) (*RatingSummary, error) {
	avg, count, err := s.repo.AverageRating(ctx)
	if err != nil {
		return nil, err
	}
	return &RatingSummary{Average: avg, Count: count}, nil
}
