package slider

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BlobDeleter removes a stored image by ID.
type BlobDeleter interface {
	Delete(ctx context.Context, id string) error
}

type Service struct {
	repo   Repository
	blobs  BlobDeleter
	logger zerolog.Logger
}

func NewService(repo Repository, blobs BlobDeleter, logger zerolog.Logger) *Service {
	return &Service{repo: repo, blobs: blobs, logger: logger}
}

// Input carries the admin-editable slide fields.
type Input struct {
	Title    string `json:"title"`
	Caption  string `json:"caption"`
	BlobID   string `json:"blob_id"`
	Position int    `json:"position"`
	Active   bool   `json:"active"`
}

func (s *Service) Create(ctx context.Context, in Input) (*Slide, error) {
	sl := &Slide{
		Title:    in.Title,
		Caption:  in.Caption,
		BlobID:   in.BlobID,
		Position: in.Position,
		Active:   in.Active,
	}
	if err := sl.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, sl); err != nil {
		return nil, err
	}
	return sl, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*Slide, error) {
	sl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sl.Title = in.Title
	sl.Caption = in.Caption
	sl.BlobID = in.BlobID
	sl.Position = in.Position
	sl.Active = in.Active
	if err := sl.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, sl); err != nil {
		return nil, err
	}
	return sl, nil
}

// Delete removes the slide row first, then cleans up its image best-effort.
// A failed image cleanup is logged and does not undo the delete.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	sl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.blobs != nil && sl.BlobID != "" {
		if err := s.blobs.Delete(ctx, sl.BlobID); err != nil {
			s.logger.Warn().Err(err).
				Str("slide_id", id.String()).
				Str("blob_id", sl.BlobID).
				Msg("slide image cleanup failed")
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Slide, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns slides in display order, restricted to active ones for the
// public site.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]*Slide, error) {
	return s.repo.List(ctx, activeOnly)
}
