// internal/workers/entitlements/check-feature-access/models.go
package checkfeatureaccess

type Input struct {
	UserID  string `json:"userId"`
	Feature string `json:"feature"`
	// Enforce throws FEATURE_ACCESS_DENIED instead of completing with allowed=false.
	Enforce bool `json:"enforce"`
}

type Output struct {
	Allowed      bool   `json:"allowed"`
	Remaining    *int   `json:"remaining"`
	Tier         string `json:"tier"`
	Feature      string `json:"feature"`
	RequiredTier string `json:"requiredTier,omitempty"`
}
