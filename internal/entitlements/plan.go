// internal/entitlements/plan.go
package entitlements

import (
	"fmt"
	"strings"
)

// Tier is a named subscription level.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
	TierTeam Tier = "team"
)

// ParseTier normalises a tier identifier coming from storage or job variables.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if t == "" {
		return "", fmt.Errorf("%w: empty tier", ErrUnknownTier)
	}
	return t, nil
}

// Feature is a key into the shared limits schema.
type Feature string

const (
	FeatureMaxSubscriptions Feature = "maxSubscriptions"
	FeatureMaxTeamMembers   Feature = "maxTeamMembers"
	FeatureAnalyticsHistory Feature = "analyticsHistory"
	FeatureExportFormats    Feature = "exportFormats"
	FeatureSmartInsights    Feature = "smartInsights"
	FeatureBulkUpload       Feature = "bulkUpload"
	FeatureAdFree           Feature = "adFree"
	FeaturePrioritySupport  Feature = "prioritySupport"
	FeatureCustomReports    Feature = "customReports"
)

// UsageKey names a live counter a counter limit is compared against.
type UsageKey string

const (
	UsageSubscriptions UsageKey = "subscriptions"
	UsageTeamMembers   UsageKey = "teamMembers"
)

// Usage holds the caller's current counters. The evaluator only reads it.
type Usage map[UsageKey]int

// NewUsage builds a Usage from the two counters the application tracks.
func NewUsage(subscriptions, teamMembers int) Usage {
	return Usage{
		UsageSubscriptions: subscriptions,
		UsageTeamMembers:   teamMembers,
	}
}

// Get returns the counter for key, zero when absent.
func (u Usage) Get(key UsageKey) int {
	if u == nil {
		return 0
	}
	return u[key]
}

// LimitKind tells the evaluator how to read a Limit.
type LimitKind string

const (
	KindUnlimited LimitKind = "unlimited"
	KindFlag      LimitKind = "flag"
	KindCounter   LimitKind = "counter"
	KindQuantity  LimitKind = "quantity"
	KindList      LimitKind = "list"
)

// Limit is one cell of the plan table.
//
// Only Counter limits are usage-aware; Quantity limits carry a number
// (e.g. days of history) that is never compared against usage.
type Limit struct {
	Kind     LimitKind `yaml:"kind" json:"kind" validate:"required,oneof=unlimited flag counter quantity list"`
	Max      int       `yaml:"max,omitempty" json:"max,omitempty" validate:"gte=0"`
	Enabled  bool      `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Values   []string  `yaml:"values,omitempty" json:"values,omitempty"`
	UsageKey UsageKey  `yaml:"usageKey,omitempty" json:"usageKey,omitempty" validate:"required_if=Kind counter"`
}

func Unlimited() Limit { return Limit{Kind: KindUnlimited} }

func Flag(enabled bool) Limit { return Limit{Kind: KindFlag, Enabled: enabled} }

func Counter(max int, key UsageKey) Limit {
	return Limit{Kind: KindCounter, Max: max, UsageKey: key}
}

func Quantity(n int) Limit { return Limit{Kind: KindQuantity, Max: n} }

func List(values ...string) Limit {
	return Limit{Kind: KindList, Values: append([]string(nil), values...)}
}

// grants reports whether the limit allows the feature for the given usage.
func (l Limit) grants(usage Usage) bool {
	switch l.Kind {
	case KindUnlimited, KindQuantity:
		return true
	case KindFlag:
		return l.Enabled
	case KindCounter:
		return usage.Get(l.UsageKey) < l.Max
	case KindList:
		return len(l.Values) > 0
	default:
		return false
	}
}

// remaining is only defined for counters.
func (l Limit) remaining(usage Usage) (int, bool) {
	if l.Kind != KindCounter {
		return 0, false
	}
	left := l.Max - usage.Get(l.UsageKey)
	if left < 0 {
		left = 0
	}
	return left, true
}

func (l Limit) clone() Limit {
	if l.Values != nil {
		l.Values = append([]string(nil), l.Values...)
	}
	return l
}

// Plan is the static configuration for one tier.
type Plan struct {
	ID           Tier              `yaml:"id" json:"id" validate:"required"`
	Name         string            `yaml:"name" json:"name" validate:"required"`
	Description  string            `yaml:"description,omitempty" json:"description,omitempty"`
	Price        float64           `yaml:"price" json:"price" validate:"gte=0"`
	BillingCycle string            `yaml:"billingCycle,omitempty" json:"billingCycle,omitempty"`
	Limits       map[Feature]Limit `yaml:"limits" json:"limits" validate:"required,min=1,dive"`
}

func (p Plan) clone() Plan {
	limits := make(map[Feature]Limit, len(p.Limits))
	for f, l := range p.Limits {
		limits[f] = l.clone()
	}
	p.Limits = limits
	return p
}
