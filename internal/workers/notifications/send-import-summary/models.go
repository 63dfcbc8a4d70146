// internal/workers/notifications/send-import-summary/models.go
package sendimportsummary

import "subtrack-workers/internal/importer"

type Input struct {
	UserID       string                     `json:"userId"`
	FileName     string                     `json:"fileName,omitempty"`
	TotalRows    int                        `json:"totalRows"`
	CreatedCount int                        `json:"createdCount"`
	RejectedRows int                        `json:"rejectedRows"`
	Errors       []importer.ValidationError `json:"errors,omitempty"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"`
	Channels       []string `json:"channels"`
	SentAt         string   `json:"sentAt"`
}

// summaryData is what the templates render.
type summaryData struct {
	FileName     string
	TotalRows    int
	CreatedCount int
	RejectedRows int
	Errors       []importer.ValidationError
	MoreErrors   int
}
