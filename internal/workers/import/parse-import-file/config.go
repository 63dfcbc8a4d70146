// internal/workers/import/parse-import-file/config.go
package parseimportfile

import "time"

type Config struct {
	Timeout time.Duration
	// Bucket is used when the job does not name one.
	Bucket       string
	MaxFileBytes int64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		MaxFileBytes: 10 << 20,
	}
}
