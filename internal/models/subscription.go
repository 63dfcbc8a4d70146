// internal/models/subscription.go
package models

import (
	"time"

	"subtrack-workers/internal/importer"
)

const (
	SourceImport = "import"
	SourceManual = "manual"
)

// Subscription is a stored subscription row. It is also the document
// indexed into Elasticsearch.
type Subscription struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	importer.Record
	Source    string    `json:"source"`
	ImportID  string    `json:"importId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewImportedSubscription wraps a validated import record.
func NewImportedSubscription(id, userID, importID string, rec importer.Record, now time.Time) Subscription {
	return Subscription{
		ID:        id,
		UserID:    userID,
		Record:    rec,
		Source:    SourceImport,
		ImportID:  importID,
		CreatedAt: now.UTC(),
	}
}
