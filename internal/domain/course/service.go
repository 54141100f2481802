package course

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

// Input carries the admin-editable course fields.
type Input struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	DurationHours int     `json:"duration_hours"`
	Price         float64 `json:"price"`
	Published     bool    `json:"published"`
}

func (s *Service) Create(ctx context.Context, in Input) (*Course, error) {
	c := &Course{
		Title:         in.Title,
		Description:   in.Description,
		Category:      in.Category,
		DurationHours: in.DurationHours,
		Price:         in.Price,
		Published:     in.Published,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*Course, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Title = in.Title
	c.Description = in.Description
	c.Category = in.Category
	c.DurationHours = in.DurationHours
	c.Price = in.Price
	c.Published = in.Published
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Course, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns courses, restricted to published ones for the public site.
func (s *Service) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*Course, int, error) {
	return s.repo.List(ctx, publishedOnly, limit, offset)
}
