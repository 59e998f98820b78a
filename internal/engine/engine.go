package engine

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/chainfolio/foliogate/internal/model"
	"github.com/shopspring/decimal"
)

// Params tunes the numeric model. Zero values are replaced by defaults so
// an Engine built from an empty config still behaves sensibly.
type Params struct {
	// RequiredAmountPct is the fraction of a chain's value suggested as
	// entry capital.
	RequiredAmountPct float64
	// MinRequiredAmount floors the suggested capital in USD.
	MinRequiredAmount float64
	// ConcentrationLimit is the portfolio share above which a chain's
	// candidates get bumped one risk tier.
	ConcentrationLimit float64
}

func DefaultParams() Params {
	return Params{
		RequiredAmountPct:  0.10,
		MinRequiredAmount:  50,
		ConcentrationLimit: 0.60,
	}
}

// Engine derives ranked yield opportunities from a holding snapshot.
//
// Generate is a pure function of its arguments: no I/O, no clock, no
// randomness. Identical inputs produce identical output, including order,
// so the engine is safe to call from any number of concurrent requests.
type Engine struct {
	params Params
}

func New(params Params) *Engine {
	def := DefaultParams()
	if params.RequiredAmountPct <= 0 {
		params.RequiredAmountPct = def.RequiredAmountPct
	}
	if params.MinRequiredAmount <= 0 {
		params.MinRequiredAmount = def.MinRequiredAmount
	}
	if params.ConcentrationLimit <= 0 {
		params.ConcentrationLimit = def.ConcentrationLimit
	}
	return &Engine{params: params}
}

// Category base rates, annual percent. The spread between LENDING and
// YIELD_FARMING mirrors the risk ladder.
var categoryBaseAPY = map[model.Category]decimal.Decimal{
	model.CategoryLending:      decimal.NewFromFloat(3.2),
	model.CategoryStaking:      decimal.NewFromFloat(5.1),
	model.CategoryLiquidity:    decimal.NewFromFloat(8.4),
	model.CategoryYieldFarming: decimal.NewFromFloat(12.6),
}

var categoryBaseRisk = map[model.Category]model.RiskTier{
	model.CategoryLending:      model.RiskLow,
	model.CategoryStaking:      model.RiskLow,
	model.CategoryLiquidity:    model.RiskMedium,
	model.CategoryYieldFarming: model.RiskHigh,
}

// Gas multipliers: LIQUIDITY is two-sided, YIELD_FARMING usually needs an
// extra approve+stake round trip.
var categoryGasMultiplier = map[model.Category]decimal.Decimal{
	model.CategoryLending:      decimal.NewFromFloat(1.0),
	model.CategoryStaking:      decimal.NewFromFloat(1.2),
	model.CategoryLiquidity:    decimal.NewFromFloat(1.8),
	model.CategoryYieldFarming: decimal.NewFromFloat(2.2),
}

// Per-chain base gas cost for a single deposit, USD. Chains not listed
// fall back to chainGasDefault.
var chainBaseGas = map[string]decimal.Decimal{
	"ethereum":  decimal.NewFromFloat(15.00),
	"polygon":   decimal.NewFromFloat(0.05),
	"arbitrum":  decimal.NewFromFloat(0.40),
	"optimism":  decimal.NewFromFloat(0.35),
	"base":      decimal.NewFromFloat(0.25),
	"avalanche": decimal.NewFromFloat(0.30),
	"bsc":       decimal.NewFromFloat(0.15),
	"solana":    decimal.NewFromFloat(0.01),
}

var chainGasDefault = decimal.NewFromFloat(1.00)

var categoryProtocols = map[model.Category][]string{
	model.CategoryLending:      {"Aave v3", "Compound v3", "Morpho"},
	model.CategoryStaking:      {"Lido", "Rocket Pool", "Marinade"},
	model.CategoryLiquidity:    {"Uniswap v3", "Curve", "Balancer"},
	model.CategoryYieldFarming: {"Convex", "Yearn", "Beefy"},
}

var categoryAction = map[model.Category]string{
	model.CategoryLending:      "Lend idle assets",
	model.CategoryStaking:      "Stake native tokens",
	model.CategoryLiquidity:    "Provide liquidity",
	model.CategoryYieldFarming: "Farm boosted rewards",
}

// Generate derives a candidate for every (chain, category) pair where the
// chain appears in both the snapshot and the token holdings, applies the
// filters conjunctively, and returns the survivors ordered by APY
// descending, ties broken by chain name then category.
func (e *Engine) Generate(portfolio model.PortfolioSummary, tokensByChain []model.ChainTokens, filters Filters) []model.Opportunity {
	byChain := make(map[string]model.ChainTokens, len(tokensByChain))
	for _, ct := range tokensByChain {
		byChain[ct.Name] = ct
	}

	totalValue := decimal.NewFromFloat(portfolio.TotalValue)

	result := make([]model.Opportunity, 0, len(portfolio.ActiveChains)*len(model.Categories))
	for _, alloc := range portfolio.ActiveChains {
		tokens, ok := byChain[alloc.Name]
		if !ok {
			// Chain present in only one input: skipped, not an error.
			continue
		}
		for _, cat := range model.Categories {
			opp := e.derive(alloc, tokens, totalValue, cat)
			if filters.passes(opp) {
				result = append(result, opp)
			}
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].APY != result[j].APY {
			return result[i].APY > result[j].APY
		}
		if result[i].Chain != result[j].Chain {
			return result[i].Chain < result[j].Chain
		}
		return categoryOrder(result[i].Category) < categoryOrder(result[j].Category)
	})

	return result
}

func categoryOrder(c model.Category) int {
	for i, cat := range model.Categories {
		if cat == c {
			return i
		}
	}
	return len(model.Categories)
}

// derive builds the single candidate for one (chain, category) pair. All
// arithmetic runs through decimals rounded at fixed precision so repeated
// calls cannot drift.
func (e *Engine) derive(alloc model.ChainAllocation, tokens model.ChainTokens, totalValue decimal.Decimal, cat model.Category) model.Opportunity {
	chainValue := decimal.NewFromFloat(alloc.Value)

	share := decimal.Zero
	if totalValue.IsPositive() {
		share = chainValue.DivRound(totalValue, 8)
	}

	momentum := decimal.Zero
	if tokens.TotalValue > 0 {
		momentum = decimal.NewFromFloat(tokens.TotalValueChange24h).
			DivRound(decimal.NewFromFloat(tokens.TotalValue), 8)
	}
	momentum = clampDecimal(momentum, decimal.NewFromFloat(-0.1), decimal.NewFromFloat(0.1))

	diversity := tokens.TokenCount
	if diversity > 8 {
		diversity = 8
	}

	jitter := chainJitter(alloc.Name, cat)

	base := categoryBaseAPY[cat]

	// APY = base, boosted by the chain's portfolio share and token
	// diversity, tilted by 24h momentum, spread by per-pair jitter.
	apy := base.
		Add(base.Mul(share).Mul(decimal.NewFromFloat(0.4))).
		Add(decimal.NewFromInt(int64(diversity)).Mul(decimal.NewFromFloat(0.15))).
		Add(momentum.Mul(decimal.NewFromInt(20))).
		Add(jitter).
		Round(2)
	floor := decimal.NewFromFloat(0.1)
	if apy.LessThan(floor) {
		apy = floor
	}

	rewardShare := categoryRewardShare(cat)
	apyReward := apy.Mul(rewardShare).Round(2)
	apyBase := apy.Sub(apyReward)

	risk := categoryBaseRisk[cat]
	if share.GreaterThan(decimal.NewFromFloat(e.params.ConcentrationLimit)) ||
		momentum.LessThan(decimal.NewFromFloat(-0.05)) {
		risk = risk.Escalate()
	}

	required := chainValue.Mul(decimal.NewFromFloat(e.params.RequiredAmountPct))
	minRequired := decimal.NewFromFloat(e.params.MinRequiredAmount)
	if required.LessThan(minRequired) {
		required = minRequired
	}
	if required.GreaterThan(chainValue) {
		required = chainValue
	}
	required = required.Round(2)

	gasBase, ok := chainBaseGas[strings.ToLower(alloc.Name)]
	if !ok {
		gasBase = chainGasDefault
	}
	gas := gasBase.Mul(categoryGasMultiplier[cat]).Round(2)

	yearly := required.Mul(apy).DivRound(decimal.NewFromInt(100), 2)

	protocols := categoryProtocols[cat]
	protocol := protocols[int(hashPair(alloc.Name, cat)%uint32(len(protocols)))]

	return model.Opportunity{
		Category:              cat,
		Chain:                 alloc.Name,
		Protocol:              protocol,
		Title:                 fmt.Sprintf("%s on %s via %s", categoryAction[cat], alloc.Name, protocol),
		Description:           describeOpportunity(cat, alloc, tokens, protocol),
		APY:                   apy.InexactFloat64(),
		APYBase:               apyBase.InexactFloat64(),
		APYReward:             apyReward.InexactFloat64(),
		Risk:                  risk,
		RequiredAmount:        required.InexactFloat64(),
		EstimatedGasFees:      gas.InexactFloat64(),
		ProjectedYearlyReturn: yearly.InexactFloat64(),
	}
}

func categoryRewardShare(cat model.Category) decimal.Decimal {
	switch cat {
	case model.CategoryLiquidity, model.CategoryYieldFarming:
		return decimal.NewFromFloat(0.35)
	case model.CategoryStaking:
		return decimal.NewFromFloat(0.10)
	default:
		return decimal.Zero
	}
}

func describeOpportunity(cat model.Category, alloc model.ChainAllocation, tokens model.ChainTokens, protocol string) string {
	lead := alloc.Symbol
	if len(tokens.Tokens) > 0 {
		lead = tokens.Tokens[0].Symbol
	}
	return fmt.Sprintf("%s with your %s holdings on %s using %s", categoryAction[cat], lead, alloc.Name, protocol)
}

// hashPair gives every (chain, category) pair a stable fingerprint used
// for jitter and protocol selection.
func hashPair(chain string, cat model.Category) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(chain))
	_, _ = h.Write([]byte{'|'})
	_, _ = h.Write([]byte(cat))
	return h.Sum32()
}

// chainJitter spreads APYs across chains by up to 1.5 points so two chains
// with identical holdings still rank deterministically apart.
func chainJitter(chain string, cat model.Category) decimal.Decimal {
	return decimal.NewFromInt(int64(hashPair(chain, cat)%1000)).
		DivRound(decimal.NewFromInt(1000), 4).
		Mul(decimal.NewFromFloat(1.5))
}

func clampDecimal(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
