package model

// Package model contains pure domain models with no database-specific
// dependencies or tags. They are shared across layers (HTTP, service,
// repository) without coupling to persistence.

import (
	"time"

	"enrollapi/internal/schema"
)

// Enrollment is a reusable application template: a form schema, the data
// scopes an applicant may opt into, and the document slots the application
// must fill. Its own state gates the template going live, distinct from each
// subscription's per-applicant workflow.
type Enrollment struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	HumanName     string          `json:"human_name"`
	Description   string          `json:"description"`
	State         string          `json:"state"`
	Fields        []*schema.Field `json:"fields"`
	Scopes        []Scope         `json:"scopes"`
	DocumentTypes []DocumentType  `json:"document_types"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AllFields is the flattened, deduplicated view of the enrollment's schema.
func (e *Enrollment) AllFields() []*schema.Field {
	return schema.Flatten(e.Fields)
}

// FieldByName resolves an addressable field by its attribute name.
func (e *Enrollment) FieldByName(name string) *schema.Field {
	return schema.FindByName(e.Fields, name)
}

// ScopeByName resolves a scope by its attribute name.
func (e *Enrollment) ScopeByName(name string) *Scope {
	for i := range e.Scopes {
		if e.Scopes[i].Name == name {
			return &e.Scopes[i]
		}
	}
	return nil
}

// DocumentTypeByName resolves a document slot by name.
func (e *Enrollment) DocumentTypeByName(name string) *DocumentType {
	for i := range e.DocumentTypes {
		if e.DocumentTypes[i].Name == name {
			return &e.DocumentTypes[i]
		}
	}
	return nil
}

// Scope is a named data-access grant the applicant may select.
type Scope struct {
	ID           string `json:"id"`
	EnrollmentID string `json:"enrollment_id"`
	Name         string `json:"name"`
	HumanName    string `json:"human_name"`
}

// DocumentType is a named required-document slot on an enrollment.
type DocumentType struct {
	ID           string `json:"id"`
	EnrollmentID string `json:"enrollment_id"`
	Name         string `json:"name"`
	HumanName    string `json:"human_name"`
}
