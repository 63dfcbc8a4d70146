// internal/importer/validator.go
package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Row is one line of raw cells from an import file.
type Row []string

// FieldMapping associates a field key with a column index.
type FieldMapping map[string]int

// Record is a typed subscription built from a row.
// Fields that failed validation keep their zero value.
type Record struct {
	SubscriptionName string     `json:"subscriptionName"`
	Category         string     `json:"category"`
	Status           string     `json:"status"`
	PlanName         string     `json:"planName"`
	MonthlyCost      float64    `json:"monthlyCost"`
	BillingCycle     string     `json:"billingCycle"`
	RenewalDate      *time.Time `json:"renewalDate,omitempty"`
	PaymentMethod    string     `json:"paymentMethod"`
	Notes            *string    `json:"notes,omitempty"`
	LastUsed         *time.Time `json:"lastUsed,omitempty"`
	Priority         string     `json:"priority"`
	DeactivationDate *time.Time `json:"deactivationDate,omitempty"`
}

// ValidationError is a field-level problem found in one row.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
}

const invalidDateMessage = "Invalid date format. Use YYYY-MM-DD format."

var (
	nonNumeric    = regexp.MustCompile(`[^0-9.\-]`)
	leadingNumber = regexp.MustCompile(`^-?(\d+(\.\d*)?|\.\d+)`)
)

// rowReader resolves mapped cells and collects errors for one row.
type rowReader struct {
	row     Row
	mapping FieldMapping
	index   int
	errors  []ValidationError
}

// cell returns the trimmed mapped value. Unmapped fields and columns past
// the end of a short row read as empty.
func (r *rowReader) cell(field string) (value string, mapped bool) {
	idx, ok := r.mapping[field]
	if !ok {
		return "", false
	}
	if idx < 0 || idx >= len(r.row) {
		return "", true
	}
	return strings.TrimSpace(r.row[idx]), true
}

func (r *rowReader) fail(field, message, value string) {
	r.errors = append(r.errors, ValidationError{
		Row:     r.index,
		Field:   field,
		Message: message,
		Value:   value,
	})
}

// ValidateRow converts one row into a Record. Every field is checked even
// after an earlier one fails; the returned errors follow check order.
func ValidateRow(row Row, mapping FieldMapping, rowIndex int) (Record, []ValidationError) {
	r := &rowReader{row: row, mapping: mapping, index: rowIndex}
	var rec Record

	if name, mapped := r.cell(FieldSubscriptionName); !mapped {
		r.fail(FieldSubscriptionName, "Subscription name column not mapped", "")
	} else if name == "" {
		r.fail(FieldSubscriptionName, "Subscription name is required", name)
	} else {
		rec.SubscriptionName = name
	}

	rec.Category = r.requiredEnum(FieldCategory, "Category", "category", Categories)
	rec.Status = r.requiredEnum(FieldStatus, "Status", "status", Statuses)

	if raw, mapped := r.cell(FieldMonthlyCost); !mapped {
		r.fail(FieldMonthlyCost, "Monthly cost is required", "")
	} else if raw == "" {
		r.fail(FieldMonthlyCost, "Value is required", raw)
	} else if cost, ok := parseCost(raw); !ok {
		r.fail(FieldMonthlyCost, "Invalid number format", raw)
	} else if cost < 0 {
		r.fail(FieldMonthlyCost, "Monthly cost cannot be negative", raw)
	} else {
		rec.MonthlyCost = cost
	}

	rec.PlanName = r.textOr(FieldPlanName, DefaultPlanName)
	rec.BillingCycle = r.enumOr(FieldBillingCycle, BillingCycles, DefaultBillingCycle)
	rec.Priority = r.enumOr(FieldPriority, Priorities, DefaultPriority)

	rec.RenewalDate = r.optionalDate(FieldRenewalDate)
	rec.LastUsed = r.optionalDate(FieldLastUsed)
	rec.DeactivationDate = r.optionalDate(FieldDeactivationDate)

	rec.PaymentMethod = r.textOr(FieldPaymentMethod, DefaultPaymentMethod)
	if notes, _ := r.cell(FieldNotes); notes != "" {
		rec.Notes = &notes
	}

	return rec, r.errors
}

func (r *rowReader) requiredEnum(field, label, name string, valid []string) string {
	raw, _ := r.cell(field)
	if raw == "" {
		r.fail(field, label+" is required", raw)
		return ""
	}
	v, ok := matchEnum(raw, valid)
	if !ok {
		r.fail(field, fmt.Sprintf("Invalid %s. Valid options: %s", name, strings.Join(valid, ", ")), raw)
		return ""
	}
	return v
}

func (r *rowReader) enumOr(field string, valid []string, fallback string) string {
	raw, _ := r.cell(field)
	if v, ok := matchEnum(raw, valid); ok && raw != "" {
		return v
	}
	return fallback
}

func (r *rowReader) textOr(field, fallback string) string {
	if v, _ := r.cell(field); v != "" {
		return v
	}
	return fallback
}

func (r *rowReader) optionalDate(field string) *time.Time {
	raw, _ := r.cell(field)
	if raw == "" {
		return nil
	}
	t, ok := parseDate(raw)
	if !ok {
		r.fail(field, invalidDateMessage, raw)
		return nil
	}
	return &t
}

// parseCost strips everything but digits, dots and minus signs and reads
// the leading number, so "$1,299.00/mo" becomes 1299.
func parseCost(raw string) (float64, bool) {
	cleaned := nonNumeric.ReplaceAllString(raw, "")
	num := leadingNumber.FindString(cleaned)
	if num == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
