package protocol

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

const protocolCols = `id, name, description, active, created_at, updated_at`
const stageCols = `id, protocol_id, stage_name, due_offset_days, position`

func scanProtocol(row pgx.Row) (*Protocol, error) {
	var p Protocol
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Protocol) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		p.ID = uuid.New()
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO protocol (id, name, description, active)
			VALUES ($1,$2,$3,$4)`,
			p.ID, p.Name, p.Description, p.Active)
		if err != nil {
			return err
		}
		return r.insertStages(ctx, p)
	})
}

func (r *repoPG) insertStages(ctx context.Context, p *Protocol) error {
	for i := range p.Stages {
		s := &p.Stages[i]
		s.ID = uuid.New()
		s.ProtocolID = p.ID
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO protocol_stage (id, protocol_id, stage_name, due_offset_days, position)
			VALUES ($1,$2,$3,$4,$5)`,
			s.ID, s.ProtocolID, s.StageName, s.DueOffsetDays, s.Position)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) Get(ctx context.Context, id uuid.UUID) (*Protocol, error) {
	p, err := scanProtocol(r.conn(ctx).QueryRow(ctx,
		`SELECT `+protocolCols+` FROM protocol WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadStages(ctx, []*Protocol{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Protocol, int, error) {
	where := ""
	if activeOnly {
		where = ` WHERE active`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM protocol`+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+protocolCols+` FROM protocol`+where+` ORDER BY name ASC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Protocol
	for rows.Next() {
		p, err := scanProtocol(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.loadStages(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) loadStages(ctx context.Context, protocols []*Protocol) error {
	if len(protocols) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*Protocol, len(protocols))
	ids := make([]uuid.UUID, 0, len(protocols))
	for _, p := range protocols {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+stageCols+` FROM protocol_stage
		WHERE protocol_id = ANY($1) ORDER BY position ASC`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var s ProtocolStage
		if err := rows.Scan(&s.ID, &s.ProtocolID, &s.StageName, &s.DueOffsetDays, &s.Position); err != nil {
			return err
		}
		if p, ok := byID[s.ProtocolID]; ok {
			p.Stages = append(p.Stages, s)
		}
	}
	return rows.Err()
}

// Update replaces the protocol metadata and its full stage list.
func (r *repoPG) Update(ctx context.Context, p *Protocol) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		tag, err := r.conn(ctx).Exec(ctx, `
			UPDATE protocol SET name = $2, description = $3, active = $4, updated_at = NOW()
			WHERE id = $1`,
			p.ID, p.Name, p.Description, p.Active)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if _, err := r.conn(ctx).Exec(ctx,
			`DELETE FROM protocol_stage WHERE protocol_id = $1`, p.ID); err != nil {
			return err
		}
		return r.insertStages(ctx, p)
	})
}

func (r *repoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE protocol SET active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
