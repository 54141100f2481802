package testimonial

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/renovo-dev/renovo/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns the Postgres-backed Repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.FromContext(ctx, r.pool)
}

const testimonialCols = `id, author_name, content, rating, approved, created_at`

func scanTestimonial(row pgx.Row) (*Testimonial, error) {
	var t Testimonial
	err := row.Scan(&t.ID, &t.AuthorName, &t.Content, &t.Rating, &t.Approved, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &t, err
}

func (r *repoPG) Create(ctx context.Context, t *Testimonial) error {
	t.ID = uuid.New()
	t.CreatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO testimonials (id, author_name, content, rating, approved, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		t.ID, t.AuthorName, t.Content, t.Rating, t.Approved, t.CreatedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Testimonial, error) {
	return scanTestimonial(r.conn(ctx).QueryRow(ctx,
		`SELECT `+testimonialCols+` FROM testimonials WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, t *Testimonial) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE testimonials SET author_name=$2, content=$3, rating=$4, approved=$5
		WHERE id = $1`,
		t.ID, t.AuthorName, t.Content, t.Rating, t.Approved)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM testimonials WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, approvedOnly bool, limit, offset int) ([]*Testimonial, int, error) {
	where := ``
	if approvedOnly {
		where = ` WHERE approved`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM testimonials`+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+testimonialCols+` FROM testimonials`+where+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Testimonial
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

// AverageRating is computed over approved testimonials only. Returns the
// average and the count it was taken over; zero count means no average.
func (r *repoPG) AverageRating(ctx context.Context) (float64, int, error) {
	var avg *float64
	var count int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT AVG(rating), COUNT(*) FROM testimonials WHERE approved`).Scan(&avg, &count)
	if err != nil {
		return 0, 0, err
	}
	if avg == nil {
		return 0, 0, nil
	}
	return *avg, count, nil
}
