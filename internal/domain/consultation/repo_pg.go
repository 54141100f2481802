package consultation

import (
	"context"
	"errors"
	"fmt"
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

const consultationCols = `id, user_id, service, project_type, description, location,
	preferred_date, is_urgent, status, created_at, updated_at`

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var c Consultation
	err := row.Scan(&c.ID, &c.UserID, &c.Service, &c.ProjectType, &c.Description, &c.Location,
		&c.PreferredDate, &c.IsUrgent, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &c, err
}

func (r *repoPG) Create(ctx context.Context, c *Consultation) error {
	c.ID = uuid.New()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consultations (id, user_id, service, project_type, description, location,
			preferred_date, is_urgent, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		c.ID, c.UserID, c.Service, c.ProjectType, c.Description, c.Location,
		c.PreferredDate, c.IsUrgent, c.Status, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return scanConsultation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+consultationCols+` FROM consultations WHERE id = $1`, id))
}

// Update writes the user-editable fields. Status changes go through
// UpdateStatusCAS only.
func (r *repoPG) Update(ctx context.Context, c *Consultation) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE consultations SET service=$2, project_type=$3, description=$4,
			location=$5, preferred_date=$6, is_urgent=$7, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.Service, c.ProjectType, c.Description,
		c.Location, c.PreferredDate, c.IsUrgent)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM consultations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Consultation, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM consultations `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	idx := len(args) + 1
	query := fmt.Sprintf(`SELECT %s FROM consultations %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		consultationCols, where, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	return r.list(ctx, `WHERE user_id = $1`, []interface{}{userID}, limit, offset)
}

func (r *repoPG) ListPending(ctx context.Context, limit, offset int) ([]*Consultation, int, error) {
	return r.list(ctx, `WHERE status = $1`, []interface{}{StatusPending}, limit, offset)
}

func (r *repoPG) ListUrgent(ctx context.Context, limit, offset int) ([]*Consultation, int, error) {
	return r.list(ctx, `WHERE is_urgent AND status = $1`, []interface{}{StatusPending}, limit, offset)
}

func (r *repoPG) ListByFilter(ctx context.Context, f Filter, limit, offset int) ([]*Consultation, int, error) {
	where := `WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.Status != "" && f.Status != "all" {
		where += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, f.Status)
		idx++
	}
	if f.Service != "" && f.Service != "all" {
		where += fmt.Sprintf(` AND service = $%d`, idx)
		args = append(args, f.Service)
		idx++
	}
	if f.Search != "" {
		where += fmt.Sprintf(
			` AND (project_type ILIKE $%d OR description ILIKE $%d OR service ILIKE $%d OR location ILIKE $%d)`,
			idx, idx, idx, idx)
		args = append(args, "%"+f.Search+"%")
		idx++
	}

	return r.list(ctx, where, args, limit, offset)
}

// Stats issues all dashboard queries as one batch on a single connection so
// the counts are mutually consistent.
func (r *repoPG) Stats(ctx context.Context) (*Stats, error) {
	batch := &pgx.Batch{}
	batch.Queue(`SELECT status, COUNT(*) FROM consultations GROUP BY status`)
	batch.Queue(`SELECT COUNT(*) FROM consultations WHERE is_urgent AND status = $1`, StatusPending)
	batch.Queue(`SELECT ` + consultationCols + ` FROM consultations ORDER BY created_at DESC LIMIT 5`)

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	stats := &Stats{ByStatus: make(map[Status]int)}

	rows, err := br.Query()
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var s Status
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ByStatus[s] = n
		stats.Total += n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := br.QueryRow().Scan(&stats.UrgentPending); err != nil {
		return nil, err
	}

	rows, err = br.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, err
		}
		stats.Newest = append(stats.Newest, c)
	}
	return stats, rows.Err()
}

var errCASMiss = errors.New("status changed concurrently")

func (r *repoPG) UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to Status, change *StatusChange) (bool, error) {
	err := db.WithTx(ctx, r.pool, func(txCtx context.Context) error {
		tag, err := r.conn(txCtx).Exec(txCtx, `
			UPDATE consultations SET status=$3, updated_at=NOW()
			WHERE id = $1 AND status = $2`,
			id, from, to)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errCASMiss
		}

		change.ID = uuid.New()
		change.ConsultationID = id
		change.Status = to
		change.ChangedAt = time.Now().UTC()
		_, err = r.conn(txCtx).Exec(txCtx, `
			INSERT INTO consultation_status_history (id, consultation_id, status, changed_by, reason, changed_at)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			change.ID, change.ConsultationID, change.Status, change.ChangedBy, change.Reason, change.ChangedAt)
		return err
	})
	if errors.Is(err, errCASMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *repoPG) GetHistory(ctx context.Context, id uuid.UUID) ([]*StatusChange, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, consultation_id, status, changed_by, reason, changed_at
		FROM consultation_status_history
		WHERE consultation_id = $1
		ORDER BY changed_at ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []*StatusChange
	for rows.Next() {
		var sc StatusChange
		if err := rows.Scan(&sc.ID, &sc.ConsultationID, &sc.Status, &sc.ChangedBy, &sc.Reason, &sc.ChangedAt); err != nil {
			return nil, err
		}
		history = append(history, &sc)
	}
	return history, rows.Err()
}
