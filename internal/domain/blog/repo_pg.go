package blog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const postCols = `id, author_id, title, slug, excerpt, body, cover_blob_id,
	published, created_at, updated_at`

func scanPost(row pgx.Row) (*Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Slug, &p.Excerpt, &p.Body, &p.CoverBlobID,
		&p.Published, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Post) error {
	p.ID = uuid.New()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO posts (id, author_id, title, slug, excerpt, body, cover_blob_id,
			published, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.AuthorID, p.Title, p.Slug, p.Excerpt, p.Body, p.CoverBlobID,
		p.Published, p.CreatedAt, p.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrSlugTaken
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	return scanPost(r.conn(ctx).QueryRow(ctx, `SELECT `+postCols+` FROM posts WHERE id = $1`, id))
}

func (r *repoPG) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	return scanPost(r.conn(ctx).QueryRow(ctx, `SELECT `+postCols+` FROM posts WHERE slug = $1`, slug))
}

func (r *repoPG) Update(ctx context.Context, p *Post) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE posts SET title=$2, slug=$3, excerpt=$4, body=$5, cover_blob_id=$6,
			published=$7, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Title, p.Slug, p.Excerpt, p.Body, p.CoverBlobID, p.Published)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSlugTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*Post, int, error) {
	where := ``
	if publishedOnly {
		where = ` WHERE published`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM posts`+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+postCols+` FROM posts`+where+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
