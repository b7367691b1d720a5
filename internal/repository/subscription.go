package repository

import (
	"context"

	"enrollapi/internal/model"
)

// SubscriptionRepository defines data access for subscription rows. Answers,
// scope selections, documents, and messages have their own repositories; the
// service layer composes them.
type SubscriptionRepository interface {
	// Create inserts a new subscription record and returns the stored row.
	Create(ctx context.Context, sub *model.Subscription) (*model.Subscription, error)

	// FindByID returns a subscription by its ID.
	FindByID(ctx context.Context, id string) (*model.Subscription, error)

	// ListByEnrollment returns every subscription under an enrollment.
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]model.Subscription, error)

	// UpdateState persists a workflow state change and touches updated_at.
	UpdateState(ctx context.Context, id, state string) error

	// Touch bumps updated_at; answer and scope writes call it so caching
	// collaborators see the modification.
	Touch(ctx context.Context, id string) error

	// Delete removes a subscription and, via cascading constraints, its
	// answers, scope selections, documents, and messages.
	Delete(ctx context.Context, id string) error
}

// AnswerRepository defines data access for answers.
type AnswerRepository interface {
	// Replace atomically deletes any existing answer for the answer's
	// (subscription, field) pair and inserts the new one, in a single
	// transaction, so at most one live answer exists per pair even under
	// retried writes.
	Replace(ctx context.Context, ans *model.Answer) (*model.Answer, error)

	// ListBySubscription returns every answer of a subscription.
	ListBySubscription(ctx context.Context, subscriptionID string) ([]model.Answer, error)
}

// ScopeSubscriptionRepository defines data access for per-scope selections,
// with the same overwrite contract as answers.
type ScopeSubscriptionRepository interface {
	Replace(ctx context.Context, ss *model.ScopeSubscription) (*model.ScopeSubscription, error)
	ListBySubscription(ctx context.Context, subscriptionID string) ([]model.ScopeSubscription, error)
}
