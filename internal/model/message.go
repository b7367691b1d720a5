package model

import "time"

// Message is an immutable audit/notification record attached to a
// subscription or, for template-level workflow, to an enrollment. Exactly
// one of SubscriptionID/EnrollmentID is set. The sender is attributed
// through a role grant; hook-emitted messages have none.
type Message struct {
	ID             string    `json:"id"`
	SubscriptionID string    `json:"subscription_id,omitempty"`
	EnrollmentID   string    `json:"enrollment_id,omitempty"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// RoleGrant is an (actor, verb, resource) authorization fact the core
// queries but does not otherwise manage.
type RoleGrant struct {
	ActorID      string    `json:"actor_id"`
	Verb         string    `json:"verb"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	CreatedAt    time.Time `json:"created_at"`
}
