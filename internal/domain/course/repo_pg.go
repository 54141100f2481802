package course

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

const courseCols = `id, title, description, category, duration_hours, price,
	published, created_at, updated_at`

func scanCourse(row pgx.Row) (*Course, error) {
	var c Course
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.DurationHours, &c.Price,
		&c.Published, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &c, err
}

func (r *repoPG) Create(ctx context.Context, c *Course) error {
	c.ID = uuid.New()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO courses (id, title, description, category, duration_hours, price,
			published, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		c.ID, c.Title, c.Description, c.Category, c.DurationHours, c.Price,
		c.Published, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Course, error) {
	return scanCourse(r.conn(ctx).QueryRow(ctx, `SELECT `+courseCols+` FROM courses WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, c *Course) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE courses SET title=$2, description=$3, category=$4, duration_hours=$5,
			price=$6, published=$7, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.Title, c.Description, c.Category, c.DurationHours, c.Price, c.Published)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*Course, int, error) {
	where := ``
	if publishedOnly {
		where = ` WHERE published`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM courses`+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+courseCols+` FROM courses`+where+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}
