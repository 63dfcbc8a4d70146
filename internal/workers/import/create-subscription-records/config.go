// internal/workers/import/create-subscription-records/config.go
package createsubscriptionrecords

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
