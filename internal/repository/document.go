package repository

import (
	"context"

	"enrollapi/internal/model"
)

// DocumentRepository defines data access for uploaded documents.
type DocumentRepository interface {
	// Attach archives every active document of the subscription sharing the
	// new document's type and inserts the new row, in a single transaction.
	// After it returns, exactly one active document exists for that
	// (subscription, type) pair. Type-less documents (empty DocumentTypeID)
	// supersede each other the same way.
	Attach(ctx context.Context, doc *model.Document) (*model.Document, error)

	// ListActive returns the non-archived documents of a subscription.
	ListActive(ctx context.Context, subscriptionID string) ([]model.Document, error)

	// ListAll returns every document of a subscription, archived included,
	// for audit and for storage cleanup on withdrawal.
	ListAll(ctx context.Context, subscriptionID string) ([]model.Document, error)
}

// MessageRepository defines data access for audit/notification messages.
// Messages are immutable: there is no update operation.
type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) (*model.Message, error)
	FindByID(ctx context.Context, id string) (*model.Message, error)
	ListBySubscription(ctx context.Context, subscriptionID string) ([]model.Message, error)
	Delete(ctx context.Context, id string) error
}

// RoleRepository is the role-grant lookup table the core queries but does
// not manage beyond granting. Resources are addressed by (type, id).
type RoleRepository interface {
	Has(ctx context.Context, actorID, verb, resourceType, resourceID string) (bool, error)
	Grant(ctx context.Context, actorID, verb, resourceType, resourceID string) error

	// ActorWithRole returns the actor holding verb on the resource, or ""
	// when nobody does. Used for message sender attribution.
	ActorWithRole(ctx context.Context, verb, resourceType, resourceID string) (string, error)

	// ResourceIDsWithRole returns the resource IDs of the given type on
	// which the actor holds verb. Used for applicant-side list scoping.
	ResourceIDsWithRole(ctx context.Context, actorID, verb, resourceType string) ([]string, error)
}

// Resource type names used in role grants.
const (
	ResourceSubscription = "Subscription"
	ResourceMessage      = "Message"
)
