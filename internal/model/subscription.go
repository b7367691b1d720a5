package model

import "time"

// Subscription is one applicant's workflow instance under an enrollment. The
// owning applicant is resolved through role grants, not a foreign key.
type Subscription struct {
	ID           string    `json:"id"`
	EnrollmentID string    `json:"enrollment_id"`
	State        string    `json:"state"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Answer binds one (subscription, field) pair to a typed value. At most one
// live answer exists per pair; writes overwrite, never append.
type Answer struct {
	ID             string    `json:"id"`
	SubscriptionID string    `json:"subscription_id"`
	FieldID        string    `json:"field_id"`
	Value          any       `json:"value"`
	CreatedAt      time.Time `json:"created_at"`
}

// ScopeSubscription binds one (subscription, scope) pair to a selection
// flag, with the same overwrite invariant as Answer.
type ScopeSubscription struct {
	ID             string    `json:"id"`
	SubscriptionID string    `json:"subscription_id"`
	ScopeID        string    `json:"scope_id"`
	Selected       bool      `json:"selected"`
	CreatedAt      time.Time `json:"created_at"`
}
