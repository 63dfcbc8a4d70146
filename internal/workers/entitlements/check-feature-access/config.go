// internal/workers/entitlements/check-feature-access/config.go
package checkfeatureaccess

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
