// pkg/registry/schema.go
package registry

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ActivityRegistry is the catalog of job workers this service runs, read
// from configs/activity-registry.json.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity describes one worker. IDs read domain.subdomain.action, so
// "import.batch.validate" belongs to the import domain.
type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus string                 `json:"implementationStatus"`
	InputSchema          map[string]interface{} `json:"inputSchema,omitempty"`
	OutputSchema         map[string]interface{} `json:"outputSchema,omitempty"`
	ErrorCodes           []string               `json:"errorCodes"`
	Timeout              string                 `json:"timeout"`
	Retries              int                    `json:"retries"`
	Workflows            []string               `json:"workflows"`
	Tags                 []string               `json:"tags"`
}

// Domain is the first segment of the activity ID.
func (a Activity) Domain() string {
	domain, _, _ := strings.Cut(a.ID, ".")
	return domain
}

// TimeoutDuration parses Timeout. An empty timeout is zero.
func (a Activity) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("activity %s has invalid timeout %q: %w", a.ID, a.Timeout, err)
	}
	return d, nil
}

// RequiredInputs lists the job variables the input schema requires.
func (a Activity) RequiredInputs() []string {
	raw, ok := a.InputSchema["required"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// undeclaredInputs returns required inputs missing from the schema's
// properties.
func (a Activity) undeclaredInputs() []string {
	props, _ := a.InputSchema["properties"].(map[string]interface{})
	var missing []string
	for _, name := range a.RequiredInputs() {
		if _, ok := props[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
