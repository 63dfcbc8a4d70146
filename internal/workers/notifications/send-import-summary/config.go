// internal/workers/notifications/send-import-summary/config.go
package sendimportsummary

import "time"

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	SenderID     string
	// MaxErrors caps how many row errors the email lists.
	MaxErrors int
	// TemplatePath optionally overrides the built-in templates (YAML).
	TemplatePath string
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		EmailEnabled: true,
		MaxErrors:    10,
		Timeout:      30 * time.Second,
	}
}
