package validation

import (
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// SchemaValidator checks documents against JSON schemas. Compiled schemas
// are kept in an LRU keyed by name, so a name must always refer to the
// same schema.
type SchemaValidator struct {
	compiled *lru.Cache[string, *gojsonschema.Schema]
}

func NewSchemaValidator(size int) (*SchemaValidator, error) {
	if size <= 0 {
		size = 64
	}
	cache, err := lru.New[string, *gojsonschema.Schema](size)
	if err != nil {
		return nil, err
	}
	return &SchemaValidator{compiled: cache}, nil
}

// Compile returns the compiled schema for name, compiling it on first use.
func (v *SchemaValidator) Compile(name string, schema map[string]interface{}) (*gojsonschema.Schema, error) {
	if s, ok := v.compiled.Get(name); ok {
		return s, nil
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	v.compiled.Add(name, s)
	return s, nil
}

// Validate checks document against the named schema.
func (v *SchemaValidator) Validate(name string, schema map[string]interface{}, document interface{}) (*ValidationResult, error) {
	s, err := v.Compile(name, schema)
	if err != nil {
		return nil, err
	}
	res, err := s.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("validate against %s: %w", name, err)
	}

	out := &ValidationResult{Valid: res.Valid()}
	for _, e := range res.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
			Code:    strings.ToUpper(e.Type()),
		})
	}
	return out, nil
}

// Len reports how many compiled schemas are cached.
func (v *SchemaValidator) Len() int {
	return v.compiled.Len()
}

// GetErrorMessages renders errors as "field: message".
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

var (
	activityIDPattern = regexp.MustCompile(`^[a-z]+\.[a-z]+\.[a-z-]+$`)
	emailPattern      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern      = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)
)

// ValidateActivityNaming enforces domain.subdomain.action activity IDs.
func ValidateActivityNaming(activityID string) error {
	if !activityIDPattern.MatchString(activityID) {
		return fmt.Errorf("activity ID %q must follow format: domain.subdomain.action (e.g., import.batch.validate)", activityID)
	}
	return nil
}

func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePhone accepts E.164 numbers, which is what SNS requires.
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
