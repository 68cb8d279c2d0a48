package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mscartozzoni/clinic-api/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const cols = `id, full_name, email, phone, birth_date, created_at, updated_at`

func scan(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FullName, &p.Email, &p.Phone, &p.BirthDate, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (id, full_name, email, phone, birth_date)
		VALUES ($1,$2,$3,$4,$5)`,
		p.ID, p.FullName, p.Email, p.Phone, p.BirthDate)
	return err
}

func (r *repoPG) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM patient WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	countQuery := `SELECT COUNT(*) FROM patient`
	listQuery := `SELECT ` + cols + ` FROM patient ORDER BY full_name ASC LIMIT $1 OFFSET $2`
	countArgs := []interface{}{}
	listArgs := []interface{}{limit, offset}
	if search != "" {
		countQuery = `SELECT COUNT(*) FROM patient WHERE full_name ILIKE '%' || $1 || '%'`
		listQuery = `SELECT ` + cols + ` FROM patient WHERE full_name ILIKE '%' || $1 || '%'
			ORDER BY full_name ASC LIMIT $2 OFFSET $3`
		countArgs = []interface{}{search}
		listArgs = []interface{}{search, limit, offset}
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET full_name = $2, email = $3, phone = $4, birth_date = $5, updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.FullName, p.Email, p.Phone, p.BirthDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) NamesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, full_name FROM patient WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}
