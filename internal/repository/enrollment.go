package repository

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this
// directory and carry no business logic.

import (
	"context"

	"enrollapi/internal/model"
)

// EnrollmentRepository defines data access for enrollment templates. Reads
// return the enrollment hydrated with its field tree, scopes, and document
// types.
type EnrollmentRepository interface {
	// FindByID returns a fully hydrated enrollment.
	FindByID(ctx context.Context, id string) (*model.Enrollment, error)

	// FindByName resolves an enrollment by its unique slug.
	FindByName(ctx context.Context, name string) (*model.Enrollment, error)

	// List returns every enrollment, hydrated.
	List(ctx context.Context) ([]model.Enrollment, error)

	// UpdateState persists a workflow state change.
	UpdateState(ctx context.Context, id, state string) error
}
