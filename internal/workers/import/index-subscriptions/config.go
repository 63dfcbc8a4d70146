// internal/workers/import/index-subscriptions/config.go
package indexsubscriptions

import "time"

type Config struct {
	Timeout   time.Duration
	IndexName string
	// Refresh is passed to the bulk API: "true", "false" or "wait_for".
	Refresh string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   30 * time.Second,
		IndexName: "subscriptions",
		Refresh:   "false",
	}
}
