package engine

import (
	"net/url"
	"testing"

	"github.com/chainfolio/foliogate/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFiltersAllFields(t *testing.T) {
	values := url.Values{}
	values.Set("minApy", "4.5")
	values.Set("maxRisk", "MEDIUM")
	values.Set("categories", "LENDING,STAKING")
	values.Set("chains", "ethereum,polygon")
	values.Set("minAmount", "100")
	values.Set("maxGasFees", "5")

	f := ParseFilters(values)

	require.NotNil(t, f.MinAPY)
	assert.Equal(t, 4.5, *f.MinAPY)
	require.NotNil(t, f.MaxRisk)
	assert.Equal(t, model.RiskMedium, *f.MaxRisk)
	assert.Equal(t, []model.Category{model.CategoryLending, model.CategoryStaking}, f.Categories)
	assert.Equal(t, []string{"ethereum", "polygon"}, f.Chains)
	require.NotNil(t, f.MinAmount)
	assert.Equal(t, 100.0, *f.MinAmount)
	require.NotNil(t, f.MaxGasFees)
	assert.Equal(t, 5.0, *f.MaxGasFees)
}

func TestParseFiltersEmptyQuery(t *testing.T) {
	f := ParseFilters(url.Values{})

	assert.Nil(t, f.MinAPY)
	assert.Nil(t, f.MaxRisk)
	assert.Nil(t, f.MinAmount)
	assert.Nil(t, f.MaxGasFees)
	assert.Empty(t, f.Categories)
	assert.Empty(t, f.Chains)
}

// Non-numeric and NaN inputs degrade to "no constraint", never an error.
func TestParseFiltersMalformedNumbers(t *testing.T) {
	values := url.Values{}
	values.Set("minApy", "not-a-number")
	values.Set("minAmount", "NaN")
	values.Set("maxGasFees", "+Inf")

	f := ParseFilters(values)

	assert.Nil(t, f.MinAPY)
	assert.Nil(t, f.MinAmount)
	assert.Nil(t, f.MaxGasFees)
}

// Unrecognized enum values are dropped silently, keeping the valid ones.
func TestParseFiltersUnknownEnumValues(t *testing.T) {
	values := url.Values{}
	values.Set("maxRisk", "EXTREME")
	values.Set("categories", "LENDING,GAMBLING,STAKING")

	f := ParseFilters(values)

	assert.Nil(t, f.MaxRisk)
	assert.Equal(t, []model.Category{model.CategoryLending, model.CategoryStaking}, f.Categories)
}

func TestParseFiltersTrimsChainWhitespace(t *testing.T) {
	values := url.Values{}
	values.Set("chains", " ethereum , ,polygon")

	f := ParseFilters(values)

	assert.Equal(t, []string{"ethereum", "polygon"}, f.Chains)
}

func TestFiltersPassesConjunction(t *testing.T) {
	minApy := 5.0
	maxRisk := model.RiskMedium
	minAmount := 100.0
	maxGas := 2.0
	f := Filters{
		MinAPY:     &minApy,
		MaxRisk:    &maxRisk,
		Categories: []model.Category{model.CategoryStaking},
		Chains:     []string{"polygon"},
		MinAmount:  &minAmount,
		MaxGasFees: &maxGas,
	}

	ok := model.Opportunity{
		Category: model.CategoryStaking, Chain: "polygon",
		APY: 6.0, Risk: model.RiskLow, RequiredAmount: 500, EstimatedGasFees: 0.06,
	}
	assert.True(t, f.passes(ok))

	cases := map[string]model.Opportunity{
		"apy too low":      {Category: model.CategoryStaking, Chain: "polygon", APY: 4.9, Risk: model.RiskLow, RequiredAmount: 500, EstimatedGasFees: 0.06},
		"risk too high":    {Category: model.CategoryStaking, Chain: "polygon", APY: 6.0, Risk: model.RiskHigh, RequiredAmount: 500, EstimatedGasFees: 0.06},
		"wrong category":   {Category: model.CategoryLending, Chain: "polygon", APY: 6.0, Risk: model.RiskLow, RequiredAmount: 500, EstimatedGasFees: 0.06},
		"wrong chain":      {Category: model.CategoryStaking, Chain: "ethereum", APY: 6.0, Risk: model.RiskLow, RequiredAmount: 500, EstimatedGasFees: 0.06},
		"amount too small": {Category: model.CategoryStaking, Chain: "polygon", APY: 6.0, Risk: model.RiskLow, RequiredAmount: 99, EstimatedGasFees: 0.06},
		"gas too high":     {Category: model.CategoryStaking, Chain: "polygon", APY: 6.0, Risk: model.RiskLow, RequiredAmount: 500, EstimatedGasFees: 2.5},
	}
	for name, opp := range cases {
		assert.False(t, f.passes(opp), name)
	}
}
