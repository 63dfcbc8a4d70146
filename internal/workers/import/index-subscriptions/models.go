// internal/workers/import/index-subscriptions/models.go
package indexsubscriptions

import "subtrack-workers/internal/models"

type Input struct {
	UserID        string                `json:"userId"`
	Subscriptions []models.Subscription `json:"subscriptions"`
}

type Output struct {
	Indexed   int      `json:"indexed"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failedIds"`
}

type bulkResponse struct {
	Errors bool                          `json:"errors"`
	Items  []map[string]bulkResponseItem `json:"items"`
}

type bulkResponseItem struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error,omitempty"`
}
