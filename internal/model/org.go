package model

// RateLimitSettings defines an organization's request budget.
type RateLimitSettings struct {
	QPS   float64 `json:"qps"`
	Burst int     `json:"burst"`
}

// Organization represents one dashboard tenant. Requests carry its ID in
// the x-organization-id header; unknown IDs are served with default
// settings so the gateway stays usable without pre-registration.
type Organization struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	AllowedChains []string          `json:"allowed_chains,omitempty"`
	Rate          RateLimitSettings `json:"rate_limit"`
}

// ChainAllowed reports whether the organization may see the given chain.
// An empty allowlist means every chain is permitted.
func (o *Organization) ChainAllowed(chain string) bool {
	if len(o.AllowedChains) == 0 {
		return true
	}
	for _, c := range o.AllowedChains {
		if c == chain {
			return true
		}
	}
	return false
}
