// internal/models/user.go
package models

// UserPlan is a row of user_plans.
type UserPlan struct {
	UserID string `json:"userId"`
	Tier   string `json:"tier"`
}

// Contact is where a user's notifications go.
type Contact struct {
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	SMSEnabled bool   `json:"smsEnabled"`
}
