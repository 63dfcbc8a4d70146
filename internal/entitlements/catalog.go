// internal/entitlements/catalog.go
package entitlements

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownTier    = errors.New("unknown tier")
	ErrUnknownFeature = errors.New("unknown feature")
	ErrInvalidCatalog = errors.New("invalid plan catalog")
)

// Catalog is an immutable set of plans sharing one closed feature schema.
// Tier order is the order plans were given in; RequiredTier walks it.
type Catalog struct {
	plans    map[Tier]Plan
	order    []Tier
	features []Feature
}

// NewCatalog copies the plans and checks the shared schema.
func NewCatalog(plans ...Plan) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, fmt.Errorf("%w: no plans", ErrInvalidCatalog)
	}

	c := &Catalog{
		plans: make(map[Tier]Plan, len(plans)),
		order: make([]Tier, 0, len(plans)),
	}
	for _, p := range plans {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: plan without id", ErrInvalidCatalog)
		}
		if _, dup := c.plans[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate tier %q", ErrInvalidCatalog, p.ID)
		}
		c.plans[p.ID] = p.clone()
		c.order = append(c.order, p.ID)
	}

	if err := c.checkSchema(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustCatalog is NewCatalog for static tables known to be valid.
func MustCatalog(plans ...Plan) *Catalog {
	c, err := NewCatalog(plans...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) checkSchema() error {
	seen := make(map[Feature]struct{})
	for _, t := range c.order {
		for f := range c.plans[t].Limits {
			seen[f] = struct{}{}
		}
	}
	c.features = make([]Feature, 0, len(seen))
	for f := range seen {
		c.features = append(c.features, f)
	}
	sort.Slice(c.features, func(i, j int) bool { return c.features[i] < c.features[j] })

	for _, f := range c.features {
		var kind LimitKind
		var usageKey UsageKey
		hasUnlimited := false

		for _, t := range c.order {
			l, ok := c.plans[t].Limits[f]
			if !ok {
				return fmt.Errorf("%w: tier %q does not define %q", ErrInvalidCatalog, t, f)
			}
			if l.Kind == KindUnlimited {
				hasUnlimited = true
				continue
			}
			if l.Kind == KindCounter && l.UsageKey == "" {
				return fmt.Errorf("%w: counter %q in tier %q has no usage key", ErrInvalidCatalog, f, t)
			}
			if kind == "" {
				kind, usageKey = l.Kind, l.UsageKey
				continue
			}
			if l.Kind != kind {
				return fmt.Errorf("%w: %q is %s in one tier and %s in tier %q", ErrInvalidCatalog, f, kind, l.Kind, t)
			}
			if l.Kind == KindCounter && l.UsageKey != usageKey {
				return fmt.Errorf("%w: counter %q reads %q and %q", ErrInvalidCatalog, f, usageKey, l.UsageKey)
			}
		}

		// null only stands in for numeric limits
		if hasUnlimited && (kind == KindFlag || kind == KindList) {
			return fmt.Errorf("%w: %q mixes unlimited with %s", ErrInvalidCatalog, f, kind)
		}
	}
	return nil
}

// Plan returns a copy of the plan for tier.
func (c *Catalog) Plan(t Tier) (Plan, bool) {
	p, ok := c.plans[t]
	if !ok {
		return Plan{}, false
	}
	return p.clone(), true
}

// Tiers returns tiers in catalog order.
func (c *Catalog) Tiers() []Tier {
	return append([]Tier(nil), c.order...)
}

// Features returns the shared feature keys, sorted.
func (c *Catalog) Features() []Feature {
	return append([]Feature(nil), c.features...)
}

// HasFeature reports whether f is part of the schema.
func (c *Catalog) HasFeature(f Feature) bool {
	i := sort.Search(len(c.features), func(i int) bool { return c.features[i] >= f })
	return i < len(c.features) && c.features[i] == f
}

func (c *Catalog) limit(t Tier, f Feature) (Limit, error) {
	p, ok := c.plans[t]
	if !ok {
		return Limit{}, fmt.Errorf("%w: %q", ErrUnknownTier, t)
	}
	l, ok := p.Limits[f]
	if !ok {
		return Limit{}, fmt.Errorf("%w: %q", ErrUnknownFeature, f)
	}
	return l, nil
}
