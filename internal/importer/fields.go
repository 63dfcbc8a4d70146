// internal/importer/fields.go
package importer

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Field keys accepted in a FieldMapping.
const (
	FieldSubscriptionName = "subscriptionName"
	FieldCategory         = "category"
	FieldStatus           = "status"
	FieldPlanName         = "planName"
	FieldMonthlyCost      = "monthlyCost"
	FieldBillingCycle     = "billingCycle"
	FieldRenewalDate      = "renewalDate"
	FieldPaymentMethod    = "paymentMethod"
	FieldNotes            = "notes"
	FieldLastUsed         = "lastUsed"
	FieldPriority         = "priority"
	FieldDeactivationDate = "deactivationDate"
)

// FieldSpec describes one importable column.
type FieldSpec struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// Fields lists every importable column in template order.
var Fields = []FieldSpec{
	{Key: FieldSubscriptionName, Label: "Subscription Name", Required: true},
	{Key: FieldCategory, Label: "Category", Required: true},
	{Key: FieldStatus, Label: "Status", Required: true},
	{Key: FieldPlanName, Label: "Plan Name"},
	{Key: FieldMonthlyCost, Label: "Monthly Cost", Required: true},
	{Key: FieldBillingCycle, Label: "Billing Cycle"},
	{Key: FieldRenewalDate, Label: "Renewal Date"},
	{Key: FieldPaymentMethod, Label: "Payment Method"},
	{Key: FieldNotes, Label: "Notes"},
	{Key: FieldLastUsed, Label: "Last Used"},
	{Key: FieldPriority, Label: "Priority"},
	{Key: FieldDeactivationDate, Label: "Deactivation Date"},
}

// IsField reports whether key names an importable column.
func IsField(key string) bool {
	for _, f := range Fields {
		if f.Key == key {
			return true
		}
	}
	return false
}

// RequiredFields returns the keys of the mandatory columns.
func RequiredFields() []string {
	var keys []string
	for _, f := range Fields {
		if f.Required {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// optional date fields; the lenient policy tolerates errors on these.
var optionalDateFields = map[string]bool{
	FieldRenewalDate:      true,
	FieldLastUsed:         true,
	FieldDeactivationDate: true,
}

var (
	Categories    = []string{"Productivity", "Entertainment", "Creative", "Finance", "AI", "Utilities", "Health", "Education", "Communication", "Other"}
	Statuses      = []string{"Active", "Inactive", "Paused", "Trial", "Expired"}
	Priorities    = []string{"High", "Medium", "Low"}
	BillingCycles = []string{"Monthly", "Quarterly", "Annually", "Weekly"}
)

const (
	DefaultPlanName      = "Basic"
	DefaultBillingCycle  = "Monthly"
	DefaultPriority      = "Medium"
	DefaultPaymentMethod = "Not specified"
)

// matchEnum returns the canonical spelling of value, ignoring case.
func matchEnum(value string, valid []string) (string, bool) {
	v := strings.TrimSpace(value)
	for _, candidate := range valid {
		if strings.EqualFold(candidate, v) {
			return candidate, true
		}
	}
	return "", false
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

func parseDate(value string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	// Anything else a spreadsheet may emit, read month-first.
	if t, err := dateparse.ParseIn(v, time.UTC); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
