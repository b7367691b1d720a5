package postgres

import (
	"context"
	"database/sql"

	"enrollapi/internal/model"
	"enrollapi/internal/repository"
)

// MessagePostgres is a PostgreSQL implementation of
// repository.MessageRepository. Rows are immutable once inserted.
type MessagePostgres struct {
	db *sql.DB
}

// NewMessagePostgres creates a new MessagePostgres repository.
func NewMessagePostgres(db *sql.DB) *MessagePostgres {
	return &MessagePostgres{db: db}
}

var _ repository.MessageRepository = (*MessagePostgres)(nil)

const messageColumns = `id, subscription_id, enrollment_id, content, created_at`

// Create inserts a new message row and returns the stored record.
func (r *MessagePostgres) Create(ctx context.Context, msg *model.Message) (*model.Message, error) {
	const q = `
		INSERT INTO messages (id, subscription_id, enrollment_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + messageColumns
	row := r.db.QueryRowContext(ctx, q,
		msg.ID,
		nullString(msg.SubscriptionID),
		nullString(msg.EnrollmentID),
		msg.Content,
		msg.CreatedAt,
	)
	return scanMessage(row)
}

// FindByID fetches a single message by its ID.
func (r *MessagePostgres) FindByID(ctx context.Context, id string) (*model.Message, error) {
	const q = `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	return scanMessage(r.db.QueryRowContext(ctx, q, id))
}

// ListBySubscription returns a subscription's messages, oldest first.
func (r *MessagePostgres) ListBySubscription(ctx context.Context, subscriptionID string) ([]model.Message, error) {
	const q = `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE subscription_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, q, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

// Delete removes a message by ID. It returns nil if the row did not exist.
func (r *MessagePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM messages WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

func scanMessage(row rowScanner) (*model.Message, error) {
	var (
		m     model.Message
		subID sql.NullString
		enrID sql.NullString
	)
	if err := row.Scan(&m.ID, &subID, &enrID, &m.Content, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.SubscriptionID = subID.String
	m.EnrollmentID = enrID.String
	return &m, nil
}

// RolePostgres is a PostgreSQL implementation of repository.RoleRepository.
type RolePostgres struct {
	db *sql.DB
}

// NewRolePostgres creates a new RolePostgres repository.
func NewRolePostgres(db *sql.DB) *RolePostgres {
	return &RolePostgres{db: db}
}

var _ repository.RoleRepository = (*RolePostgres)(nil)

// Has reports whether the grant exists.
func (r *RolePostgres) Has(ctx context.Context, actorID, verb, resourceType, resourceID string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM role_grants
			WHERE actor_id = $1 AND verb = $2 AND resource_type = $3 AND resource_id = $4
		)
	`
	var ok bool
	err := r.db.QueryRowContext(ctx, q, actorID, verb, resourceType, resourceID).Scan(&ok)
	return ok, err
}

// Grant records the grant; re-granting is a no-op.
func (r *RolePostgres) Grant(ctx context.Context, actorID, verb, resourceType, resourceID string) error {
	const q = `
		INSERT INTO role_grants (actor_id, verb, resource_type, resource_id, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, q, actorID, verb, resourceType, resourceID)
	return err
}

// ActorWithRole returns the first actor holding verb on the resource, or "".
func (r *RolePostgres) ActorWithRole(ctx context.Context, verb, resourceType, resourceID string) (string, error) {
	const q = `
		SELECT actor_id FROM role_grants
		WHERE verb = $1 AND resource_type = $2 AND resource_id = $3
		ORDER BY created_at, actor_id
		LIMIT 1
	`
	var actorID string
	err := r.db.QueryRowContext(ctx, q, verb, resourceType, resourceID).Scan(&actorID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return actorID, err
}

// ResourceIDsWithRole returns the resource IDs of the given type on which
// the actor holds verb.
func (r *RolePostgres) ResourceIDsWithRole(ctx context.Context, actorID, verb, resourceType string) ([]string, error) {
	const q = `
		SELECT resource_id FROM role_grants
		WHERE actor_id = $1 AND verb = $2 AND resource_type = $3
		ORDER BY created_at, resource_id
	`
	rows, err := r.db.QueryContext(ctx, q, actorID, verb, resourceType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
