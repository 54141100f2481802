// Package blog implements the site's articles.
package blog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("post not found")
	ErrValidation = errors.New("validation failed")
	ErrSlugTaken  = errors.New("slug already in use")
)

const excerptLen = 200

type Post struct {
	ID          uuid.UUID `json:"id"`
	AuthorID    uuid.UUID `json:"author_id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Excerpt     string    `json:"excerpt"`
	Body        string    `json:"body"`
	CoverBlobID *string   `json:"cover_blob_id,omitempty"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks the author-supplied fields.
func (p *Post) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(p.Body) == "" {
		return fmt.Errorf("%w: body is required", ErrValidation)
	}
	return nil
}

// recompute derives the slug and excerpt from the current title and body.
// The service calls it on every create and update; there is no save hook.
func (p *Post) recompute() {
	p.Slug = Slugify(p.Title)
	p.Excerpt = excerpt(p.Body, excerptLen)
}

// Slugify lowercases the title and collapses every non-alphanumeric run
// into a single hyphen.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func excerpt(body string, n int) string {
	runes := []rune(body)
	if len(runes) <= n {
		return body
	}
	return string(runes[:n])
}
