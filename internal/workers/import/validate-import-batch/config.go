// internal/workers/import/validate-import-batch/config.go
package validateimportbatch

import "time"

type Config struct {
	Timeout       time.Duration
	MaxRows       int
	DefaultPolicy string
	// InputSchema is the activity registry's input schema; nil falls back
	// to DefaultInputSchema.
	InputSchema map[string]interface{}
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
		MaxRows: 5000,
	}
}

// DefaultInputSchema describes the variables this worker accepts.
func DefaultInputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"userId", "rows", "fieldMapping"},
		"properties": map[string]interface{}{
			"userId": map[string]interface{}{"type": "string", "minLength": 1},
			"rows": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "array"},
			},
			"fieldMapping": map[string]interface{}{
				"type":                 "object",
				"additionalProperties": map[string]interface{}{"type": "integer"},
			},
			"policy": map[string]interface{}{
				"type": "string",
				"enum": []interface{}{"", "strict", "all-or-nothing", "lenient"},
			},
		},
	}
}
