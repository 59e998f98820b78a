package model

import (
	"encoding/json"
	"fmt"
)

// Category classifies a yield-generating action.
type Category string

const (
	CategoryLending      Category = "LENDING"
	CategoryStaking      Category = "STAKING"
	CategoryLiquidity    Category = "LIQUIDITY"
	CategoryYieldFarming Category = "YIELD_FARMING"
)

// Categories lists every category the engine derives candidates for,
// in canonical order.
var Categories = []Category{
	CategoryLending,
	CategoryStaking,
	CategoryLiquidity,
	CategoryYieldFarming,
}

// ParseCategory accepts only known category names. Unknown values return
// ok=false so callers can drop them silently.
func ParseCategory(raw string) (Category, bool) {
	switch Category(raw) {
	case CategoryLending, CategoryStaking, CategoryLiquidity, CategoryYieldFarming:
		return Category(raw), true
	default:
		return "", false
	}
}

// RiskTier is an ordinal risk classification: LOW < MEDIUM < HIGH.
type RiskTier int

const (
	RiskLow RiskTier = iota
	RiskMedium
	RiskHigh
)

func (r RiskTier) String() string {
	switch r {
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	default:
		return fmt.Sprintf("RiskTier(%d)", int(r))
	}
}

// Escalate bumps the tier one step, capped at HIGH.
func (r RiskTier) Escalate() RiskTier {
	if r >= RiskHigh {
		return RiskHigh
	}
	return r + 1
}

func ParseRiskTier(raw string) (RiskTier, bool) {
	switch raw {
	case "LOW":
		return RiskLow, true
	case "MEDIUM":
		return RiskMedium, true
	case "HIGH":
		return RiskHigh, true
	default:
		return 0, false
	}
}

func (r RiskTier) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *RiskTier) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	tier, ok := ParseRiskTier(raw)
	if !ok {
		return fmt.Errorf("unknown risk tier %q", raw)
	}
	*r = tier
	return nil
}

// Opportunity is a derived, non-persistent recommendation. It has no
// identity and is recomputed on every request.
type Opportunity struct {
	Category              Category `json:"category"`
	Chain                 string   `json:"chain"`
	Protocol              string   `json:"protocol"`
	Title                 string   `json:"title"`
	Description           string   `json:"description"`
	APY                   float64  `json:"apy"`
	APYBase               float64  `json:"apyBase"`
	APYReward             float64  `json:"apyReward"`
	Risk                  RiskTier `json:"risk"`
	RequiredAmount        float64  `json:"requiredAmount"`
	EstimatedGasFees      float64  `json:"estimatedGasFees"`
	ProjectedYearlyReturn float64  `json:"projectedYearlyReturn"`
}
