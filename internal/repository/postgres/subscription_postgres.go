package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"enrollapi/internal/model"
	"enrollapi/internal/repository"
)

// SubscriptionPostgres is a PostgreSQL implementation of
// repository.SubscriptionRepository.
type SubscriptionPostgres struct {
	db *sql.DB
}

// NewSubscriptionPostgres creates a new SubscriptionPostgres repository.
func NewSubscriptionPostgres(db *sql.DB) *SubscriptionPostgres {
	return &SubscriptionPostgres{db: db}
}

var _ repository.SubscriptionRepository = (*SubscriptionPostgres)(nil)

const subscriptionColumns = `id, enrollment_id, state, created_at, updated_at`

// Create inserts a new subscription row and returns the stored record.
func (r *SubscriptionPostgres) Create(ctx context.Context, sub *model.Subscription) (*model.Subscription, error) {
	const q = `
		INSERT INTO subscriptions (id, enrollment_id, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING ` + subscriptionColumns
	row := r.db.QueryRowContext(ctx, q, sub.ID, sub.EnrollmentID, sub.State, sub.CreatedAt)
	var out model.Subscription
	if err := scanSubscription(row, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID fetches a single subscription by its ID.
func (r *SubscriptionPostgres) FindByID(ctx context.Context, id string) (*model.Subscription, error) {
	const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	var s model.Subscription
	if err := scanSubscription(r.db.QueryRowContext(ctx, q, id), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByEnrollment returns every subscription under an enrollment, newest
// first.
func (r *SubscriptionPostgres) ListByEnrollment(ctx context.Context, enrollmentID string) ([]model.Subscription, error) {
	const q = `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE enrollment_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, enrollmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Subscription, 0)
	for rows.Next() {
		var s model.Subscription
		if err := scanSubscription(rows, &s); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// UpdateState persists a workflow state change and touches updated_at.
func (r *SubscriptionPostgres) UpdateState(ctx context.Context, id, state string) error {
	const q = `UPDATE subscriptions SET state = $2, updated_at = now() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, state)
	return err
}

// Touch bumps updated_at.
func (r *SubscriptionPostgres) Touch(ctx context.Context, id string) error {
	const q = `UPDATE subscriptions SET updated_at = now() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// Delete removes a subscription; dependents go with it through ON DELETE
// CASCADE constraints.
func (r *SubscriptionPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM subscriptions WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

func scanSubscription(row rowScanner, s *model.Subscription) error {
	return row.Scan(&s.ID, &s.EnrollmentID, &s.State, &s.CreatedAt, &s.UpdatedAt)
}

// AnswerPostgres is a PostgreSQL implementation of
// repository.AnswerRepository. Values are stored as JSONB.
type AnswerPostgres struct {
	db *sql.DB
}

// NewAnswerPostgres creates a new AnswerPostgres repository.
func NewAnswerPostgres(db *sql.DB) *AnswerPostgres {
	return &AnswerPostgres{db: db}
}

var _ repository.AnswerRepository = (*AnswerPostgres)(nil)

// Replace deletes any prior answer for the (subscription, field) pair and
// inserts the new one inside a single transaction.
func (r *AnswerPostgres) Replace(ctx context.Context, ans *model.Answer) (*model.Answer, error) {
	content, err := json.Marshal(ans.Value)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const qDel = `DELETE FROM answers WHERE subscription_id = $1 AND field_id = $2`
	if _, err := tx.ExecContext(ctx, qDel, ans.SubscriptionID, ans.FieldID); err != nil {
		return nil, err
	}

	const qIns = `
		INSERT INTO answers (id, subscription_id, field_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, subscription_id, field_id, content, created_at
	`
	row := tx.QueryRowContext(ctx, qIns, ans.ID, ans.SubscriptionID, ans.FieldID, content, ans.CreatedAt)
	out, err := scanAnswer(row)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListBySubscription returns every answer of a subscription.
func (r *AnswerPostgres) ListBySubscription(ctx context.Context, subscriptionID string) ([]model.Answer, error) {
	const q = `
		SELECT id, subscription_id, field_id, content, created_at
		FROM answers
		WHERE subscription_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, q, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Answer, 0)
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

func scanAnswer(row rowScanner) (*model.Answer, error) {
	var (
		a       model.Answer
		content []byte
	)
	if err := row.Scan(&a.ID, &a.SubscriptionID, &a.FieldID, &content, &a.CreatedAt); err != nil {
		return nil, err
	}
	if len(content) > 0 {
		if err := json.Unmarshal(content, &a.Value); err != nil {
			return nil, err
		}
	}
	return &a, nil
}

// ScopeSubscriptionPostgres is a PostgreSQL implementation of
// repository.ScopeSubscriptionRepository.
type ScopeSubscriptionPostgres struct {
	db *sql.DB
}

// NewScopeSubscriptionPostgres creates a new ScopeSubscriptionPostgres
// repository.
func NewScopeSubscriptionPostgres(db *sql.DB) *ScopeSubscriptionPostgres {
	return &ScopeSubscriptionPostgres{db: db}
}

var _ repository.ScopeSubscriptionRepository = (*ScopeSubscriptionPostgres)(nil)

// Replace deletes any prior selection for the (subscription, scope) pair and
// inserts the new one inside a single transaction.
func (r *ScopeSubscriptionPostgres) Replace(ctx context.Context, ss *model.ScopeSubscription) (*model.ScopeSubscription, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const qDel = `DELETE FROM scope_subscriptions WHERE subscription_id = $1 AND scope_id = $2`
	if _, err := tx.ExecContext(ctx, qDel, ss.SubscriptionID, ss.ScopeID); err != nil {
		return nil, err
	}

	const qIns = `
		INSERT INTO scope_subscriptions (id, subscription_id, scope_id, selected, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, subscription_id, scope_id, selected, created_at
	`
	row := tx.QueryRowContext(ctx, qIns, ss.ID, ss.SubscriptionID, ss.ScopeID, ss.Selected, ss.CreatedAt)
	var out model.ScopeSubscription
	if err := row.Scan(&out.ID, &out.SubscriptionID, &out.ScopeID, &out.Selected, &out.CreatedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBySubscription returns every scope selection of a subscription.
func (r *ScopeSubscriptionPostgres) ListBySubscription(ctx context.Context, subscriptionID string) ([]model.ScopeSubscription, error) {
	const q = `
		SELECT id, subscription_id, scope_id, selected, created_at
		FROM scope_subscriptions
		WHERE subscription_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, q, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.ScopeSubscription, 0)
	for rows.Next() {
		var ss model.ScopeSubscription
		if err := rows.Scan(&ss.ID, &ss.SubscriptionID, &ss.ScopeID, &ss.Selected, &ss.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, ss)
	}
	return items, rows.Err()
}
