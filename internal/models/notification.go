// internal/models/notification.go
package models

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"

	StatusSent     = "sent"
	StatusPartial  = "partial"
	StatusDisabled = "disabled"
)

type Notification struct {
	ID          string                 `json:"id"`
	RecipientID string                 `json:"recipientId"`
	Type        string                 `json:"type"`
	Channel     string                 `json:"channel"`
	Status      string                 `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	SentAt      string                 `json:"sentAt"`
}

// NotificationTemplate holds text/template sources for one notification type.
type NotificationTemplate struct {
	Type    string `json:"type" yaml:"type"`
	Subject string `json:"subject" yaml:"subject"`
	Body    string `json:"body" yaml:"body"`
	SMS     string `json:"sms,omitempty" yaml:"sms,omitempty"`
}
