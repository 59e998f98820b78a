package model

import "time"

// ChainAllocation is one chain's slice of the aggregate portfolio value.
type ChainAllocation struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
	Symbol     string  `json:"symbol"`
}

type CurrentYield struct {
	Percentage    float64 `json:"percentage"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// PortfolioSummary is the aggregate holding snapshot across all chains,
// as rendered on the dashboard overview.
type PortfolioSummary struct {
	TotalValue              float64           `json:"totalValue"`
	TotalValueChange24h     float64           `json:"totalValueChange24h"`
	TotalValueChangePercent float64           `json:"totalValueChangePercent"`
	ActiveChains            []ChainAllocation `json:"activeChains"`
	CurrentYield            CurrentYield      `json:"currentYield"`
	LastUpdated             time.Time         `json:"lastUpdated"`
}

// TokenHolding is a single token position on one chain.
type TokenHolding struct {
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Balance        float64 `json:"balance"`
	Value          float64 `json:"value"`
	ValueChange24h float64 `json:"valueChange24h"`
	PriceChange24h float64 `json:"priceChange24h"`
	Chain          string  `json:"chain"`
}

// ChainTokens groups the token positions held on one chain.
type ChainTokens struct {
	Name                string         `json:"name"`
	Symbol              string         `json:"symbol"`
	TotalValue          float64        `json:"totalValue"`
	TotalValueChange24h float64        `json:"totalValueChange24h"`
	TokenCount          int            `json:"tokenCount"`
	Tokens              []TokenHolding `json:"tokens"`
}
