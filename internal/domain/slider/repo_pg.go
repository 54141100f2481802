package slider

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

const slideCols = `id, title, caption, blob_id, position, active, created_at, updated_at`

func scanSlide(row pgx.Row) (*Slide, error) {
	var s Slide
	err := row.Scan(&s.ID, &s.Title, &s.Caption, &s.BlobID, &s.Position, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &s, err
}

func (r *repoPG) Create(ctx context.Context, s *Slide) error {
	s.ID = uuid.New()
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO slides (id, title, caption, blob_id, position, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		s.ID, s.Title, s.Caption, s.BlobID, s.Position, s.Active, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Slide, error) {
	return scanSlide(r.conn(ctx).QueryRow(ctx, `SELECT `+slideCols+` FROM slides WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, s *Slide) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE slides SET title=$2, caption=$3, blob_id=$4, position=$5, active=$6, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.Title, s.Caption, s.BlobID, s.Position, s.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM slides WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, activeOnly bool) ([]*Slide, error) {
	where := ``
	if activeOnly {
		where = ` WHERE active`
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+slideCols+` FROM slides`+where+` ORDER BY position ASC, created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Slide
	for rows.Next() {
		s, err := scanSlide(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
