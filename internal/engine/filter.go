package engine

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/chainfolio/foliogate/internal/model"
)

// Filters narrows the candidate set. Every field is optional; an absent
// field imposes no constraint. All constraints are conjunctive.
type Filters struct {
	MinAPY     *float64         `json:"minApy,omitempty"`
	MaxRisk    *model.RiskTier  `json:"maxRisk,omitempty"`
	Categories []model.Category `json:"categories,omitempty"`
	Chains     []string         `json:"chains,omitempty"`
	MinAmount  *float64         `json:"minAmount,omitempty"`
	MaxGasFees *float64         `json:"maxGasFees,omitempty"`
}

// ParseFilters builds Filters from request query parameters.
//
// Malformed numbers (including NaN and infinities) are treated as "filter
// absent", and unrecognized maxRisk / categories values are dropped
// silently rather than rejected. Both behaviors are deliberate: the
// dashboard sends whatever the user typed, and a bad filter value should
// degrade to "no constraint", never to an error.
func ParseFilters(values url.Values) Filters {
	var f Filters

	f.MinAPY = parseFloat(values.Get("minApy"))
	f.MinAmount = parseFloat(values.Get("minAmount"))
	f.MaxGasFees = parseFloat(values.Get("maxGasFees"))

	if raw := values.Get("maxRisk"); raw != "" {
		if tier, ok := model.ParseRiskTier(raw); ok {
			f.MaxRisk = &tier
		}
	}

	if raw := values.Get("categories"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if cat, ok := model.ParseCategory(strings.TrimSpace(part)); ok {
				f.Categories = append(f.Categories, cat)
			}
		}
	}

	if raw := values.Get("chains"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if chain := strings.TrimSpace(part); chain != "" {
				f.Chains = append(f.Chains, chain)
			}
		}
	}

	return f
}

func parseFloat(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// passes reports whether the candidate survives every supplied constraint.
func (f Filters) passes(o model.Opportunity) bool {
	if f.MinAPY != nil && o.APY < *f.MinAPY {
		return false
	}
	if f.MaxRisk != nil && o.Risk > *f.MaxRisk {
		return false
	}
	if len(f.Categories) > 0 && !containsCategory(f.Categories, o.Category) {
		return false
	}
	if len(f.Chains) > 0 && !containsString(f.Chains, o.Chain) {
		return false
	}
	if f.MinAmount != nil && o.RequiredAmount < *f.MinAmount {
		return false
	}
	if f.MaxGasFees != nil && o.EstimatedGasFees > *f.MaxGasFees {
		return false
	}
	return true
}

func containsCategory(list []model.Category, c model.Category) bool {
	for _, item := range list {
		if item == c {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
