// Package course implements the training courses offered on the site.
package course

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("course not found")
	ErrValidation = errors.New("validation failed")
)

type Course struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	DurationHours int       `json:"duration_hours"`
	Price         float64   `json:"price"`
	Published     bool      `json:"published"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (c *Course) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if c.DurationHours <= 0 {
		return fmt.Errorf("%w: duration_hours must be positive", ErrValidation)
	}
	if c.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return nil
}
