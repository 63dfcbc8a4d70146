// internal/entitlements/evaluator_test.go
package entitlements

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func newDefaultEvaluator() *Evaluator {
	return NewEvaluator(DefaultCatalog())
}

func intPtr(v int) *int { return &v }

// ==========================
// CanAccessFeature
// ==========================

func TestEvaluator_CanAccessFeature(t *testing.T) {
	e := newDefaultEvaluator()

	tests := []struct {
		name     string
		tier     Tier
		usage    Usage
		feature  Feature
		expected bool
	}{
		{"free under subscription cap", TierFree, NewUsage(4, 0), FeatureMaxSubscriptions, true},
		{"free at subscription cap", TierFree, NewUsage(5, 0), FeatureMaxSubscriptions, false},
		{"free over subscription cap", TierFree, NewUsage(9, 0), FeatureMaxSubscriptions, false},
		{"free with nil usage", TierFree, nil, FeatureMaxSubscriptions, true},
		{"free team members unlimited", TierFree, NewUsage(0, 1000), FeatureMaxTeamMembers, true},
		{"pro subscriptions unlimited", TierPro, NewUsage(100000, 0), FeatureMaxSubscriptions, true},
		{"team under member cap", TierTeam, NewUsage(0, 49), FeatureMaxTeamMembers, true},
		{"team at member cap", TierTeam, NewUsage(0, 50), FeatureMaxTeamMembers, false},
		{"free smart insights disabled", TierFree, NewUsage(0, 0), FeatureSmartInsights, false},
		{"pro smart insights enabled", TierPro, NewUsage(0, 0), FeatureSmartInsights, true},
		{"pro priority support disabled", TierPro, NewUsage(0, 0), FeaturePrioritySupport, false},
		{"team priority support enabled", TierTeam, NewUsage(0, 0), FeaturePrioritySupport, true},
		{"analytics history always granted", TierFree, NewUsage(0, 0), FeatureAnalyticsHistory, true},
		{"export formats granted", TierFree, NewUsage(0, 0), FeatureExportFormats, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := e.CanAccessFeature(tt.tier, tt.usage, tt.feature)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, allowed)
		})
	}
}

func TestEvaluator_CanAccessFeature_CounterBoundary(t *testing.T) {
	catalog := MustCatalog(Plan{
		ID:     "custom",
		Name:   "Custom",
		Limits: map[Feature]Limit{FeatureMaxSubscriptions: Counter(3, UsageSubscriptions)},
	})
	e := NewEvaluator(catalog)

	for used := 0; used <= 6; used++ {
		allowed, err := e.CanAccessFeature("custom", NewUsage(used, 0), FeatureMaxSubscriptions)
		require.NoError(t, err)
		assert.Equal(t, used < 3, allowed, "usage %d", used)
	}
}

func TestEvaluator_UnknownInputs(t *testing.T) {
	e := newDefaultEvaluator()

	t.Run("unknown tier", func(t *testing.T) {
		allowed, err := e.CanAccessFeature("enterprise", NewUsage(0, 0), FeatureAdFree)
		assert.ErrorIs(t, err, ErrUnknownTier)
		assert.False(t, allowed)
	})

	t.Run("unknown feature", func(t *testing.T) {
		allowed, err := e.CanAccessFeature(TierPro, NewUsage(0, 0), "teleportation")
		assert.ErrorIs(t, err, ErrUnknownFeature)
		assert.False(t, allowed)
	})

	t.Run("remaining for unknown tier", func(t *testing.T) {
		remaining, err := e.RemainingLimit("", NewUsage(0, 0), FeatureMaxSubscriptions)
		assert.ErrorIs(t, err, ErrUnknownTier)
		assert.Nil(t, remaining)
	})
}

// ==========================
// RemainingLimit
// ==========================

func TestEvaluator_RemainingLimit(t *testing.T) {
	e := newDefaultEvaluator()

	tests := []struct {
		name     string
		tier     Tier
		usage    Usage
		feature  Feature
		expected *int
	}{
		{"free with room", TierFree, NewUsage(2, 0), FeatureMaxSubscriptions, intPtr(3)},
		{"free at cap", TierFree, NewUsage(5, 0), FeatureMaxSubscriptions, intPtr(0)},
		{"free over cap floors at zero", TierFree, NewUsage(7, 0), FeatureMaxSubscriptions, intPtr(0)},
		{"team members", TierTeam, NewUsage(0, 20), FeatureMaxTeamMembers, intPtr(30)},
		{"pro unlimited subscriptions", TierPro, NewUsage(7, 0), FeatureMaxSubscriptions, nil},
		{"quantity is not a counter", TierFree, NewUsage(0, 0), FeatureAnalyticsHistory, nil},
		{"flag is not a counter", TierTeam, NewUsage(0, 0), FeatureAdFree, nil},
		{"list is not a counter", TierTeam, NewUsage(0, 0), FeatureExportFormats, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remaining, err := e.RemainingLimit(tt.tier, tt.usage, tt.feature)
			require.NoError(t, err)
			if tt.expected == nil {
				assert.Nil(t, remaining)
				return
			}
			require.NotNil(t, remaining)
			assert.Equal(t, *tt.expected, *remaining)
		})
	}
}

func TestEvaluator_DoesNotMutateUsage(t *testing.T) {
	e := newDefaultEvaluator()
	usage := NewUsage(3, 2)

	_, err := e.Check(TierFree, usage, FeatureMaxSubscriptions)
	require.NoError(t, err)

	assert.Equal(t, NewUsage(3, 2), usage)
}

// ==========================
// RequiredTier / Check
// ==========================

func TestEvaluator_RequiredTier(t *testing.T) {
	e := newDefaultEvaluator()

	tests := []struct {
		name     string
		feature  Feature
		usage    Usage
		expected Tier
		found    bool
	}{
		{"free covers small usage", FeatureMaxSubscriptions, NewUsage(1, 0), TierFree, true},
		{"pro needed above free cap", FeatureMaxSubscriptions, NewUsage(5, 0), TierPro, true},
		{"pro for bulk upload", FeatureBulkUpload, NewUsage(0, 0), TierPro, true},
		{"team for priority support", FeaturePrioritySupport, NewUsage(0, 0), TierTeam, true},
		{"unknown feature", "teleportation", NewUsage(0, 0), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, ok := e.RequiredTier(tt.feature, tt.usage)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, tier)
		})
	}
}

func TestEvaluator_Check(t *testing.T) {
	e := newDefaultEvaluator()

	t.Run("denied decision names the upgrade tier", func(t *testing.T) {
		d, err := e.Check(TierFree, NewUsage(5, 0), FeatureMaxSubscriptions)
		require.NoError(t, err)

		assert.False(t, d.Allowed)
		require.NotNil(t, d.Remaining)
		assert.Equal(t, 0, *d.Remaining)
		assert.Equal(t, TierPro, d.RequiredTier)
	})

	t.Run("allowed decision has no required tier", func(t *testing.T) {
		d, err := e.Check(TierPro, NewUsage(50, 0), FeatureBulkUpload)
		require.NoError(t, err)

		assert.True(t, d.Allowed)
		assert.Nil(t, d.Remaining)
		assert.Empty(t, d.RequiredTier)
	})

	t.Run("error propagates", func(t *testing.T) {
		_, err := e.Check("gold", NewUsage(0, 0), FeatureBulkUpload)
		assert.ErrorIs(t, err, ErrUnknownTier)
	})
}

func TestNewEvaluator_NilCatalogUsesDefault(t *testing.T) {
	e := NewEvaluator(nil)
	assert.Equal(t, []Tier{TierFree, TierPro, TierTeam}, e.Catalog().Tiers())
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("  PRO ")
	require.NoError(t, err)
	assert.Equal(t, TierPro, tier)

	_, err = ParseTier("   ")
	assert.ErrorIs(t, err, ErrUnknownTier)
}
