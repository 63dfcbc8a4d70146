// internal/workers/import/create-subscription-records/models.go
package createsubscriptionrecords

import (
	"subtrack-workers/internal/importer"
	"subtrack-workers/internal/models"
)

type Input struct {
	UserID       string            `json:"userId"`
	ImportID     string            `json:"importId,omitempty"`
	ValidRecords []importer.Record `json:"validRecords"`
}

type Output struct {
	CreatedIDs    []string              `json:"createdIds"`
	CreatedCount  int                   `json:"createdCount"`
	Subscriptions []models.Subscription `json:"subscriptions"`
	Remaining     *int                  `json:"remaining"`
}
