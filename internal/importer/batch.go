// internal/importer/batch.go
package importer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrMappingOutOfRange = errors.New("field mapping references a column outside the row")
	ErrUnknownField      = errors.New("field mapping references an unknown field")
	ErrUnknownPolicy     = errors.New("unknown reject policy")
)

// RejectPolicy decides whether a validated row is kept.
type RejectPolicy interface {
	Name() string
	// Accept may clear fields on rec that the policy chooses to drop.
	Accept(rec *Record, errs []ValidationError) bool
}

type allOrNothingPerRow struct{}

func (allOrNothingPerRow) Name() string { return "all-or-nothing" }

func (allOrNothingPerRow) Accept(_ *Record, errs []ValidationError) bool {
	return len(errs) == 0
}

type lenientOptionalFields struct{}

func (lenientOptionalFields) Name() string { return "lenient" }

func (lenientOptionalFields) Accept(rec *Record, errs []ValidationError) bool {
	for _, e := range errs {
		if !optionalDateFields[e.Field] {
			return false
		}
	}
	for _, e := range errs {
		switch e.Field {
		case FieldRenewalDate:
			rec.RenewalDate = nil
		case FieldLastUsed:
			rec.LastUsed = nil
		case FieldDeactivationDate:
			rec.DeactivationDate = nil
		}
	}
	return true
}

var (
	// AllOrNothingPerRow keeps only rows without any error.
	AllOrNothingPerRow RejectPolicy = allOrNothingPerRow{}
	// LenientOptionalFields also keeps rows whose only errors are on
	// optional date columns; those dates are dropped.
	LenientOptionalFields RejectPolicy = lenientOptionalFields{}
)

// PolicyByName resolves a policy from configuration or job variables.
// An empty name selects AllOrNothingPerRow.
func PolicyByName(name string) (RejectPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", AllOrNothingPerRow.Name(), "strict":
		return AllOrNothingPerRow, nil
	case LenientOptionalFields.Name():
		return LenientOptionalFields, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// BatchResult is the outcome of validating a batch.
type BatchResult struct {
	ValidRecords []Record          `json:"validRecords"`
	Errors       []ValidationError `json:"errors"`
	TotalRows    int               `json:"totalRows"`
	Rejected     int               `json:"rejected"`
	Policy       string            `json:"policy"`
}

// Validator runs batches under one RejectPolicy.
type Validator struct {
	Policy RejectPolicy
}

func NewValidator(policy RejectPolicy) *Validator {
	if policy == nil {
		policy = AllOrNothingPerRow
	}
	return &Validator{Policy: policy}
}

// ValidateBatch validates rows in order, numbering them from 1.
// A bad mapping fails the whole batch; row problems never do.
func (v *Validator) ValidateBatch(rows []Row, mapping FieldMapping) (*BatchResult, error) {
	if err := CheckMapping(mapping, widest(rows)); err != nil {
		return nil, err
	}

	policy := v.Policy
	if policy == nil {
		policy = AllOrNothingPerRow
	}

	result := &BatchResult{
		ValidRecords: make([]Record, 0, len(rows)),
		Errors:       []ValidationError{},
		TotalRows:    len(rows),
		Policy:       policy.Name(),
	}
	for i, row := range rows {
		rec, errs := ValidateRow(row, mapping, i+1)
		result.Errors = append(result.Errors, errs...)
		if policy.Accept(&rec, errs) {
			result.ValidRecords = append(result.ValidRecords, rec)
		} else {
			result.Rejected++
		}
	}
	return result, nil
}

// ValidateBatch validates rows with AllOrNothingPerRow.
func ValidateBatch(rows []Row, mapping FieldMapping) (*BatchResult, error) {
	return NewValidator(AllOrNothingPerRow).ValidateBatch(rows, mapping)
}

// CheckMapping rejects mappings that name unknown fields or point at a
// column index no row can have. width is the widest row in the batch;
// zero skips the upper bound check.
func CheckMapping(mapping FieldMapping, width int) error {
	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, field := range keys {
		idx := mapping[field]
		if !IsField(field) {
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
		if idx < 0 || (width > 0 && idx >= width) {
			return fmt.Errorf("%w: %s -> %d (width %d)", ErrMappingOutOfRange, field, idx, width)
		}
	}
	return nil
}

func widest(rows []Row) int {
	w := 0
	for _, r := range rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}
