package postgres

import (
	"context"
	"database/sql"

	"enrollapi/internal/model"
	"enrollapi/internal/repository"
	"enrollapi/internal/schema"
)

// EnrollmentPostgres is a PostgreSQL implementation of
// repository.EnrollmentRepository. It uses database/sql with parameterized
// queries and contains no business logic.
type EnrollmentPostgres struct {
	db *sql.DB
}

// NewEnrollmentPostgres creates a new EnrollmentPostgres repository.
func NewEnrollmentPostgres(db *sql.DB) *EnrollmentPostgres {
	return &EnrollmentPostgres{db: db}
}

var _ repository.EnrollmentRepository = (*EnrollmentPostgres)(nil)

const enrollmentColumns = `id, name, human_name, description, state, created_at, updated_at`

// FindByID fetches one enrollment and hydrates its schema tree, scopes, and
// document types.
func (r *EnrollmentPostgres) FindByID(ctx context.Context, id string) (*model.Enrollment, error) {
	const q = `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`
	return r.findOne(ctx, q, id)
}

// FindByName fetches one enrollment by its unique slug.
func (r *EnrollmentPostgres) FindByName(ctx context.Context, name string) (*model.Enrollment, error) {
	const q = `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE name = $1`
	return r.findOne(ctx, q, name)
}

// List returns every enrollment, hydrated.
func (r *EnrollmentPostgres) List(ctx context.Context) ([]model.Enrollment, error) {
	const q = `SELECT ` + enrollmentColumns + ` FROM enrollments ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Enrollment, 0)
	for rows.Next() {
		var e model.Enrollment
		if err := scanEnrollment(rows, &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.hydrate(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateState persists a workflow state change.
func (r *EnrollmentPostgres) UpdateState(ctx context.Context, id, state string) error {
	const q = `UPDATE enrollments SET state = $2, updated_at = now() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, state)
	return err
}

func (r *EnrollmentPostgres) findOne(ctx context.Context, q string, arg any) (*model.Enrollment, error) {
	var e model.Enrollment
	if err := scanEnrollment(r.db.QueryRowContext(ctx, q, arg), &e); err != nil {
		return nil, err
	}
	if err := r.hydrate(ctx, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEnrollment(row rowScanner, e *model.Enrollment) error {
	return row.Scan(&e.ID, &e.Name, &e.HumanName, &e.Description, &e.State, &e.CreatedAt, &e.UpdatedAt)
}

func (r *EnrollmentPostgres) hydrate(ctx context.Context, e *model.Enrollment) error {
	fields, err := r.loadFields(ctx, e.ID)
	if err != nil {
		return err
	}
	e.Fields = fields

	e.Scopes = make([]model.Scope, 0)
	const qScopes = `SELECT id, enrollment_id, name, human_name FROM scopes WHERE enrollment_id = $1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, qScopes, e.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var s model.Scope
		if err := rows.Scan(&s.ID, &s.EnrollmentID, &s.Name, &s.HumanName); err != nil {
			return err
		}
		e.Scopes = append(e.Scopes, s)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	e.DocumentTypes = make([]model.DocumentType, 0)
	const qTypes = `SELECT id, enrollment_id, name, human_name FROM document_types WHERE enrollment_id = $1 ORDER BY name`
	trows, err := r.db.QueryContext(ctx, qTypes, e.ID)
	if err != nil {
		return err
	}
	defer trows.Close()
	for trows.Next() {
		var dt model.DocumentType
		if err := trows.Scan(&dt.ID, &dt.EnrollmentID, &dt.Name, &dt.HumanName); err != nil {
			return err
		}
		e.DocumentTypes = append(e.DocumentTypes, dt)
	}
	return trows.Err()
}

// loadFields reads every field row of the enrollment and reassembles the
// tree: rows with a NULL parent_id are roots, the rest hang off their
// parent, both in position order.
func (r *EnrollmentPostgres) loadFields(ctx context.Context, enrollmentID string) ([]*schema.Field, error) {
	const q = `
		SELECT id, parent_id, kind, name, human_name, label, required
		FROM fields
		WHERE enrollment_id = $1
		ORDER BY position, id
	`
	rows, err := r.db.QueryContext(ctx, q, enrollmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type fieldRow struct {
		field    *schema.Field
		parentID string
	}
	var ordered []fieldRow
	byID := make(map[string]*schema.Field)

	for rows.Next() {
		var (
			f        schema.Field
			parentID sql.NullString
			name     sql.NullString
			human    sql.NullString
			label    sql.NullString
			kind     string
		)
		if err := rows.Scan(&f.ID, &parentID, &kind, &name, &human, &label, &f.Required); err != nil {
			return nil, err
		}
		f.Kind = schema.Kind(kind)
		f.Name = name.String
		f.HumanName = human.String
		f.Label = label.String
		byID[f.ID] = &f
		ordered = append(ordered, fieldRow{field: &f, parentID: parentID.String})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	roots := make([]*schema.Field, 0)
	for _, fr := range ordered {
		if fr.parentID == "" {
			roots = append(roots, fr.field)
			continue
		}
		if parent, ok := byID[fr.parentID]; ok {
			parent.Fields = append(parent.Fields, fr.field)
		}
	}
	return roots, nil
}
