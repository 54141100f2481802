// Package slider implements the homepage slider.
package slider

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("slide not found")
	ErrValidation = errors.New("validation failed")
)

type Slide struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Caption   string    `json:"caption,omitempty"`
	BlobID    string    `json:"blob_id"`
	Position  int       `json:"position"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Slide) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(s.BlobID) == "" {
		return fmt.Errorf("%w: blob_id is required", ErrValidation)
	}
	if s.Position < 0 {
		return fmt.Errorf("%w: position must not be negative", ErrValidation)
	}
	return nil
}
