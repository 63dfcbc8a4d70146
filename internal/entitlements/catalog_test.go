// internal/entitlements/catalog_test.go
package entitlements

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plan(id Tier, limits map[Feature]Limit) Plan {
	return Plan{ID: id, Name: string(id), Limits: limits}
}

// ==========================
// Schema Check
// ==========================

func TestNewCatalog_SchemaCheck(t *testing.T) {
	tests := []struct {
		name    string
		plans   []Plan
		wantErr bool
	}{
		{
			name:    "no plans",
			plans:   nil,
			wantErr: true,
		},
		{
			name: "missing feature in one tier",
			plans: []Plan{
				plan("a", map[Feature]Limit{FeatureAdFree: Flag(true), FeatureBulkUpload: Flag(true)}),
				plan("b", map[Feature]Limit{FeatureAdFree: Flag(false)}),
			},
			wantErr: true,
		},
		{
			name: "kind differs across tiers",
			plans: []Plan{
				plan("a", map[Feature]Limit{FeatureAnalyticsHistory: Quantity(30)}),
				plan("b", map[Feature]Limit{FeatureAnalyticsHistory: Flag(true)}),
			},
			wantErr: true,
		},
		{
			name: "unlimited stands in for counter",
			plans: []Plan{
				plan("a", map[Feature]Limit{FeatureMaxSubscriptions: Counter(5, UsageSubscriptions)}),
				plan("b", map[Feature]Limit{FeatureMaxSubscriptions: Unlimited()}),
			},
			wantErr: false,
		},
		{
			name: "unlimited cannot stand in for flag",
			plans: []Plan{
				plan("a", map[Feature]Limit{FeatureAdFree: Flag(false)}),
				plan("b", map[Feature]Limit{FeatureAdFree: Unlimited()}),
			},
			wantErr: true,
		},
		{
			name: "counter without usage key",
			plans: []Plan{
				plan("a", map[Feature]Limit{FeatureMaxSubscriptions: {Kind: KindCounter, Max: 5}}),
			},
			wantErr: true,
		},
		{
			name: "counters read different usage keys",
			plans: []Plan{
				plan("a", map[Feature]Limit{FeatureMaxSubscriptions: Counter(5, UsageSubscriptions)}),
				plan("b", map[Feature]Limit{FeatureMaxSubscriptions: Counter(9, UsageTeamMembers)}),
			},
			wantErr: true,
		},
		{
			name: "duplicate tier",
			plans: []Plan{
				plan("a", map[Feature]Limit{FeatureAdFree: Flag(false)}),
				plan("a", map[Feature]Limit{FeatureAdFree: Flag(true)}),
			},
			wantErr: true,
		},
		{
			name: "plan without id",
			plans: []Plan{
				plan("", map[Feature]Limit{FeatureAdFree: Flag(false)}),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCatalog(tt.plans...)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCatalog)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, c)
		})
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	assert.Equal(t, []Tier{TierFree, TierPro, TierTeam}, c.Tiers())
	assert.Len(t, c.Features(), 9)
	assert.True(t, c.HasFeature(FeatureCustomReports))
	assert.False(t, c.HasFeature("teleportation"))

	free, ok := c.Plan(TierFree)
	require.True(t, ok)
	assert.Equal(t, Counter(5, UsageSubscriptions), free.Limits[FeatureMaxSubscriptions])
	assert.Equal(t, []string{"csv"}, free.Limits[FeatureExportFormats].Values)
}

func TestCatalog_IsImmutable(t *testing.T) {
	source := plan("a", map[Feature]Limit{
		FeatureMaxSubscriptions: Counter(5, UsageSubscriptions),
		FeatureExportFormats:    List("csv"),
	})
	c, err := NewCatalog(source)
	require.NoError(t, err)

	source.Limits[FeatureMaxSubscriptions] = Counter(500, UsageSubscriptions)

	got, _ := c.Plan("a")
	got.Limits[FeatureExportFormats].Values[0] = "exe"

	again, _ := c.Plan("a")
	assert.Equal(t, 5, again.Limits[FeatureMaxSubscriptions].Max)
	assert.Equal(t, []string{"csv"}, again.Limits[FeatureExportFormats].Values)
}

// ==========================
// YAML Loading
// ==========================

const validPlansYAML = `
plans:
  - id: basic
    name: Basic
    price: 0
    limits:
      maxSubscriptions: {kind: counter, max: 2, usageKey: subscriptions}
      adFree: {kind: flag, enabled: false}
  - id: plus
    name: Plus
    price: 3.5
    limits:
      maxSubscriptions: {kind: unlimited}
      adFree: {kind: flag, enabled: true}
`

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validPlansYAML), 0o600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)

	e := NewEvaluator(c)
	allowed, err := e.CanAccessFeature("basic", NewUsage(2, 0), FeatureMaxSubscriptions)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = e.CanAccessFeature("plus", NewUsage(2, 0), FeatureAdFree)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed yaml", "plans: [this is: not"},
		{"no plans", "plans: []"},
		{"unknown kind", `
plans:
  - id: a
    name: A
    limits:
      adFree: {kind: maybe}
`},
		{"counter without usage key", `
plans:
  - id: a
    name: A
    limits:
      maxSubscriptions: {kind: counter, max: 3}
`},
		{"negative max", `
plans:
  - id: a
    name: A
    limits:
      analyticsHistory: {kind: quantity, max: -1}
`},
		{"missing name", `
plans:
  - id: a
    limits:
      adFree: {kind: flag}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}
