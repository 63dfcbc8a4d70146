// internal/entitlements/defaults.go
package entitlements

func freePlan() Plan {
	return Plan{
		ID:           TierFree,
		Name:         "Free",
		Description:  "Perfect for getting started",
		Price:        0,
		BillingCycle: "monthly",
		Limits: map[Feature]Limit{
			FeatureMaxSubscriptions: Counter(5, UsageSubscriptions),
			FeatureMaxTeamMembers:   Unlimited(),
			FeatureAnalyticsHistory: Quantity(30),
			FeatureExportFormats:    List("csv"),
			FeatureSmartInsights:    Flag(false),
			FeatureBulkUpload:       Flag(false),
			FeatureAdFree:           Flag(false),
			FeaturePrioritySupport:  Flag(false),
			FeatureCustomReports:    Flag(false),
		},
	}
}

func proPlan() Plan {
	return Plan{
		ID:           TierPro,
		Name:         "Pro",
		Description:  "For power users and small businesses",
		Price:        4.99,
		BillingCycle: "monthly",
		Limits: map[Feature]Limit{
			FeatureMaxSubscriptions: Unlimited(),
			FeatureMaxTeamMembers:   Unlimited(),
			FeatureAnalyticsHistory: Quantity(365),
			FeatureExportFormats:    List("csv", "pdf", "xlsx", "json"),
			FeatureSmartInsights:    Flag(true),
			FeatureBulkUpload:       Flag(true),
			FeatureAdFree:           Flag(true),
			FeaturePrioritySupport:  Flag(false),
			FeatureCustomReports:    Flag(true),
		},
	}
}

func teamPlan() Plan {
	return Plan{
		ID:           TierTeam,
		Name:         "Team",
		Description:  "Collaborative workspace for teams",
		Price:        2.00,
		BillingCycle: "monthly",
		Limits: map[Feature]Limit{
			FeatureMaxSubscriptions: Unlimited(),
			FeatureMaxTeamMembers:   Counter(50, UsageTeamMembers),
			FeatureAnalyticsHistory: Quantity(730),
			FeatureExportFormats:    List("csv", "pdf", "xlsx", "json", "api"),
			FeatureSmartInsights:    Flag(true),
			FeatureBulkUpload:       Flag(true),
			FeatureAdFree:           Flag(true),
			FeaturePrioritySupport:  Flag(true),
			FeatureCustomReports:    Flag(true),
		},
	}
}

// DefaultCatalog returns the built-in free/pro/team plans.
func DefaultCatalog() *Catalog {
	return MustCatalog(freePlan(), proPlan(), teamPlan())
}
