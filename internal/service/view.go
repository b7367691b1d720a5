package service

import (
	"enrollapi/internal/authz"
	"enrollapi/internal/model"
	"enrollapi/internal/schema"
)

// EnrollmentView is the read model exposed for an enrollment template.
type EnrollmentView struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	HumanName     string               `json:"human_name"`
	Description   string               `json:"description"`
	State         string               `json:"state"`
	Fields        []*schema.Field      `json:"fields"`
	AllFields     []*schema.Field      `json:"all_fields"`
	Scopes        []model.Scope        `json:"scopes"`
	DocumentTypes []model.DocumentType `json:"document_types"`
}

// DocumentView is one document on a subscription read model. Archived is
// false on the read model's active slots and only set by the audit listing.
type DocumentView struct {
	ID       string `json:"id"`
	Type     string `json:"type,omitempty"`
	Filename string `json:"filename"`
	Archived bool   `json:"archived"`
}

// MessageView is one message with its resolved sender. Sender is empty for
// workflow-emitted messages.
type MessageView struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Sender  string `json:"sender,omitempty"`
}

// SubscriptionView is the read model exposed for one subscription: current
// answers and scope selections keyed by attribute name, active documents,
// messages, and the caller's capability map.
type SubscriptionView struct {
	ID         string          `json:"id"`
	State      string          `json:"state"`
	Enrollment EnrollmentView  `json:"enrollment"`
	Answers    map[string]any  `json:"answers"`
	Scopes     map[string]bool `json:"scopes"`
	Documents  []DocumentView  `json:"documents"`
	Messages   []MessageView   `json:"messages"`
	ACL        authz.ACL       `json:"acl"`
}

func newEnrollmentView(e *model.Enrollment) EnrollmentView {
	return EnrollmentView{
		ID:            e.ID,
		Name:          e.Name,
		HumanName:     e.HumanName,
		Description:   e.Description,
		State:         e.State,
		Fields:        e.Fields,
		AllFields:     e.AllFields(),
		Scopes:        e.Scopes,
		DocumentTypes: e.DocumentTypes,
	}
}
