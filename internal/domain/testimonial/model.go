// Package testimonial implements customer testimonials and the site-wide
// average rating.
package testimonial

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("testimonial not found")
	ErrValidation = errors.New("validation failed")
)

type Testimonial struct {
	ID         uuid.UUID `json:"id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	Rating     int       `json:"rating"`
	Approved   bool      `json:"approved"`
	CreatedAt  time.Time `json:"created_at"`
}

func (t *Testimonial) Validate() error {
	if strings.TrimSpace(t.AuthorName) == "" {
		return fmt.Errorf("%w: author_name is required", ErrValidation)
	}
	if strings.TrimSpace(t.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrValidation)
	}
	if t.Rating < 1 || t.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5, got %d", ErrValidation, t.Rating)
	}
	return nil
}
