package model

import "time"

// Document is one uploaded artifact for a subscription. DocumentTypeID is
// empty when the upload named no resolvable slot; the document is kept
// type-less rather than rejected. At most one non-archived document exists
// per (subscription, document type): a new upload archives its predecessors.
type Document struct {
	ID             string    `json:"id"`
	SubscriptionID string    `json:"subscription_id"`
	DocumentTypeID string    `json:"document_type_id,omitempty"`
	Filename       string    `json:"filename"`
	StoragePath    string    `json:"storage_path"`
	Size           int64     `json:"size"`
	ContentType    string    `json:"content_type"`
	Archived       bool      `json:"archived"`
	CreatedAt      time.Time `json:"created_at"`
}
