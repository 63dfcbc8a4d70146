// internal/entitlements/evaluator.go
package entitlements

// Evaluator answers access questions against one catalog.
// It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	catalog *Catalog
}

// Decision is the combined answer the check-feature-access worker returns.
type Decision struct {
	Tier         Tier    `json:"tier"`
	Feature      Feature `json:"feature"`
	Allowed      bool    `json:"allowed"`
	Remaining    *int    `json:"remaining"`
	RequiredTier Tier    `json:"requiredTier,omitempty"`
}

func NewEvaluator(catalog *Catalog) *Evaluator {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Evaluator{catalog: catalog}
}

func (e *Evaluator) Catalog() *Catalog {
	return e.catalog
}

// CanAccessFeature reports whether tier grants feature given usage.
// Unknown tiers and features are errors, never a silent denial.
func (e *Evaluator) CanAccessFeature(tier Tier, usage Usage, feature Feature) (bool, error) {
	l, err := e.catalog.limit(tier, feature)
	if err != nil {
		return false, err
	}
	return l.grants(usage), nil
}

// RemainingLimit returns how many more units a counter feature allows,
// floored at zero. It returns nil for every non-counter limit.
func (e *Evaluator) RemainingLimit(tier Tier, usage Usage, feature Feature) (*int, error) {
	l, err := e.catalog.limit(tier, feature)
	if err != nil {
		return nil, err
	}
	left, ok := l.remaining(usage)
	if !ok {
		return nil, nil
	}
	return &left, nil
}

// RequiredTier returns the first tier in catalog order that grants feature.
func (e *Evaluator) RequiredTier(feature Feature, usage Usage) (Tier, bool) {
	for _, t := range e.catalog.order {
		l, ok := e.catalog.plans[t].Limits[feature]
		if ok && l.grants(usage) {
			return t, true
		}
	}
	return "", false
}

func (e *Evaluator) Check(tier Tier, usage Usage, feature Feature) (Decision, error) {
	allowed, err := e.CanAccessFeature(tier, usage, feature)
	if err != nil {
		return Decision{}, err
	}
	remaining, err := e.RemainingLimit(tier, usage, feature)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{
		Tier:      tier,
		Feature:   feature,
		Allowed:   allowed,
		Remaining: remaining,
	}
	if !allowed {
		if required, ok := e.RequiredTier(feature, usage); ok {
			d.RequiredTier = required
		}
	}
	return d, nil
}
