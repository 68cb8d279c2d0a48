package journey

import (
	"context"
	"errors"
	"fmt"

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

func (r *repoPG) Transact(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.WithTx(ctx, r.pool, fn)
}

// =========== Journey ===========

const journeyCols = `id, patient_id, title, status, created_at, updated_at`

func (r *repoPG) scanJourney(row pgx.Row) (*Journey, error) {
	var j Journey
	err := row.Scan(&j.ID, &j.PatientID, &j.Title, &j.Status, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJourneyNotFound
	}
	return &j, err
}

func (r *repoPG) CreateJourney(ctx context.Context, j *Journey) error {
	return r.Transact(ctx, func(ctx context.Context) error {
		j.ID = uuid.New()
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO journey (id, patient_id, title, status)
			VALUES ($1,$2,$3,$4)`,
			j.ID, j.PatientID, j.Title, j.Status)
		if err != nil {
			return err
		}
		for _, s := range j.Stages {
			s.JourneyID = j.ID
			if err := r.AddStage(ctx, s); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repoPG) GetJourney(ctx context.Context, id uuid.UUID) (*Journey, error) {
	j, err := r.scanJourney(r.conn(ctx).QueryRow(ctx,
		`SELECT `+journeyCols+` FROM journey WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadStages(ctx, []*Journey{j}); err != nil {
		return nil, err
	}
	return j, nil
}

func (r *repoPG) ListJourneys(ctx context.Context, limit, offset int) ([]*Journey, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM journey`).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.queryJourneys(ctx,
		`SELECT `+journeyCols+` FROM journey ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) ListJourneysByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Journey, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM journey WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.queryJourneys(ctx,
		`SELECT `+journeyCols+` FROM journey WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) ListActiveJourneys(ctx context.Context) ([]*Journey, error) {
	return r.queryJourneys(ctx,
		`SELECT `+journeyCols+` FROM journey WHERE status = $1 ORDER BY created_at ASC`,
		JourneyActive)
}

func (r *repoPG) queryJourneys(ctx context.Context, query string, args ...interface{}) ([]*Journey, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Journey
	for rows.Next() {
		j, err := r.scanJourney(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadStages(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// loadStages attaches stages (ordered by created_at) and their progress
// notes to the given journeys.
func (r *repoPG) loadStages(ctx context.Context, journeys []*Journey) error {
	if len(journeys) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*Journey, len(journeys))
	ids := make([]uuid.UUID, 0, len(journeys))
	for _, j := range journeys {
		byID[j.ID] = j
		ids = append(ids, j.ID)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+stageCols+` FROM journey_stage
		WHERE journey_id = ANY($1) ORDER BY created_at ASC`, ids)
	if err != nil {
		return fmt.Errorf("load stages: %w", err)
	}
	defer rows.Close()

	stageByID := make(map[uuid.UUID]*Stage)
	for rows.Next() {
		s, err := scanStage(rows)
		if err != nil {
			return err
		}
		stageByID[s.ID] = s
		if j, ok := byID[s.JourneyID]; ok {
			j.Stages = append(j.Stages, s)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(stageByID) == 0 {
		return nil
	}

	stageIDs := make([]uuid.UUID, 0, len(stageByID))
	for id := range stageByID {
		stageIDs = append(stageIDs, id)
	}
	noteRows, err := r.conn(ctx).Query(ctx, `
		SELECT `+noteCols+` FROM progress_note
		WHERE stage_id = ANY($1) ORDER BY evolution_at ASC, id ASC`, stageIDs)
	if err != nil {
		return fmt.Errorf("load progress notes: %w", err)
	}
	defer noteRows.Close()
	for noteRows.Next() {
		n, err := scanNote(noteRows)
		if err != nil {
			return err
		}
		if s, ok := stageByID[n.StageID]; ok {
			s.ProgressNotes = append(s.ProgressNotes, *n)
		}
	}
	return noteRows.Err()
}

func (r *repoPG) UpdateJourneyStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE journey SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrJourneyNotFound
	}
	return nil
}

// =========== Stage ===========

const stageCols = `id, journey_id, stage_name, status, due_date, completed_at, notes, created_at`

func scanStage(row pgx.Row) (*Stage, error) {
	var s Stage
	err := row.Scan(&s.ID, &s.JourneyID, &s.StageName, &s.Status,
		&s.DueDate, &s.CompletedAt, &s.Notes, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStageNotFound
	}
	return &s, err
}

func (r *repoPG) AddStage(ctx context.Context, s *Stage) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO journey_stage (id, journey_id, stage_name, status, due_date, completed_at, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		s.ID, s.JourneyID, s.StageName, s.Status, s.DueDate, s.CompletedAt, s.Notes, s.CreatedAt)
	return err
}

func (r *repoPG) GetStage(ctx context.Context, id uuid.UUID) (*Stage, error) {
	s, err := scanStage(r.conn(ctx).QueryRow(ctx,
		`SELECT `+stageCols+` FROM journey_stage WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	notes, err := r.ListProgressNotes(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, n := range notes {
		s.ProgressNotes = append(s.ProgressNotes, *n)
	}
	return s, nil
}

func (r *repoPG) UpdateStage(ctx context.Context, s *Stage) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE journey_stage
		SET status = $2, due_date = $3, completed_at = $4, notes = $5
		WHERE id = $1`,
		s.ID, s.Status, s.DueDate, s.CompletedAt, s.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStageNotFound
	}
	return nil
}

// =========== ProgressNote ===========

const noteCols = `id, stage_id, patient_id, description, responsible_professional, evolution_at`

func scanNote(row pgx.Row) (*ProgressNote, error) {
	var n ProgressNote
	err := row.Scan(&n.ID, &n.StageID, &n.PatientID, &n.Description,
		&n.ResponsibleProfessional, &n.EvolutionAt)
	return &n, err
}

func (r *repoPG) AddProgressNote(ctx context.Context, n *ProgressNote) error {
	n.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO progress_note (id, stage_id, patient_id, description, responsible_professional, evolution_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		n.ID, n.StageID, n.PatientID, n.Description, n.ResponsibleProfessional, n.EvolutionAt)
	return err
}

func (r *repoPG) ListProgressNotes(ctx context.Context, stageID uuid.UUID) ([]*ProgressNote, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+noteCols+` FROM progress_note
		WHERE stage_id = $1 ORDER BY evolution_at ASC, id ASC`, stageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ProgressNote
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (r *repoPG) ListProgressNotesByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*ProgressNote, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM progress_note WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+noteCols+` FROM progress_note
		WHERE patient_id = $1 ORDER BY evolution_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*ProgressNote
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}
