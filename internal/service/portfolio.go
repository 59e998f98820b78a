package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"github.com/chainfolio/foliogate/internal/model"
	"github.com/chainfolio/foliogate/internal/pkg/logger"
	"github.com/chainfolio/foliogate/internal/pkg/metrics"
)

// Snapshot bundles the two views the engine consumes: the aggregate
// holding snapshot and the per-chain token breakdown.
type Snapshot struct {
	Portfolio     model.PortfolioSummary `json:"portfolio"`
	TokensByChain []model.ChainTokens    `json:"tokensByChain"`
}

// SnapshotProvider produces an organization's current holdings. In
// production this fronts the external database service; tests and the
// default deployment use the deterministic synthesizer below.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, orgID string) (*Snapshot, error)
}

// SnapshotCache is a read-through cache keyed by organization. A miss is
// (nil, nil), not an error.
type SnapshotCache interface {
	Get(ctx context.Context, orgID string) (*Snapshot, error)
	Set(ctx context.Context, orgID string, snap *Snapshot) error
}

// PortfolioService serves holding snapshots, caching them so a dashboard
// polling several widgets does not recompute or refetch per request.
type PortfolioService struct {
	provider SnapshotProvider
	cache    SnapshotCache
}

func NewPortfolioService(provider SnapshotProvider, cache SnapshotCache) *PortfolioService {
	return &PortfolioService{provider: provider, cache: cache}
}

func (s *PortfolioService) Snapshot(ctx context.Context, orgID string) (*Snapshot, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, orgID)
		if err != nil {
			logger.Warn("snapshot cache read failed", "org_id", orgID, "error", err)
		} else if cached != nil {
			metrics.SnapshotCache.WithLabelValues("hit").Inc()
			return cached, nil
		}
		metrics.SnapshotCache.WithLabelValues("miss").Inc()
	}

	snap, err := s.provider.Snapshot(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("snapshot for org %s: %w", orgID, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, orgID, snap); err != nil {
			logger.Warn("snapshot cache write failed", "org_id", orgID, "error", err)
		}
	}
	return snap, nil
}

// chainSpec is the static per-chain universe the synthesizer draws from.
type chainSpec struct {
	name   string
	symbol string
	tokens []tokenSpec
}

type tokenSpec struct {
	symbol string
	name   string
	price  float64
}

var chainUniverse = []chainSpec{
	{"ethereum", "ETH", []tokenSpec{{"ETH", "Ether", 2600}, {"USDC", "USD Coin", 1}, {"LDO", "Lido DAO", 2.1}, {"UNI", "Uniswap", 9.4}}},
	{"polygon", "MATIC", []tokenSpec{{"MATIC", "Polygon", 0.52}, {"USDT", "Tether", 1}, {"AAVE", "Aave", 94}}},
	{"arbitrum", "ARB", []tokenSpec{{"ARB", "Arbitrum", 0.78}, {"GMX", "GMX", 28}, {"USDC", "USD Coin", 1}}},
	{"optimism", "OP", []tokenSpec{{"OP", "Optimism", 1.7}, {"VELO", "Velodrome", 0.09}}},
	{"base", "ETH", []tokenSpec{{"ETH", "Ether", 2600}, {"AERO", "Aerodrome", 0.85}}},
	{"solana", "SOL", []tokenSpec{{"SOL", "Solana", 140}, {"JUP", "Jupiter", 0.64}, {"USDC", "USD Coin", 1}}},
}

// SyntheticProvider derives holdings from the organization ID alone.
// The same org always sees the same portfolio, which keeps the whole
// pipeline reproducible end to end. It fills the role the original
// deployment delegated to an external portfolio generator.
type SyntheticProvider struct{}

func NewSyntheticProvider() *SyntheticProvider {
	return &SyntheticProvider{}
}

func (p *SyntheticProvider) Snapshot(_ context.Context, orgID string) (*Snapshot, error) {
	seed := seedFor(orgID)
	rng := seed

	// 3 to 5 distinct chains per org, taken from a seed-derived shuffle
	// of the universe so distinct orgs get distinct mixes and no chain
	// appears twice in one snapshot.
	count := 3 + int(seed%3)
	order := make([]int, len(chainUniverse))
	for i := range order {
		order[i] = i
	}
	for i := len(order) - 1; i > 0; i-- {
		rng = nextRand(rng)
		j := int(rng % uint64(i+1))
		order[i], order[j] = order[j], order[i]
	}

	var chains []model.ChainTokens
	var allocations []model.ChainAllocation
	total := 0.0
	totalChange := 0.0

	for i := 0; i < count; i++ {
		entry := chainUniverse[order[i]]

		chainValue := 0.0
		chainChange := 0.0
		var tokens []model.TokenHolding
		for _, ts := range entry.tokens {
			rng = nextRand(rng)
			// Position sizes between ~500 and ~20500 USD.
			value := 500 + float64(rng%20000)
			rng = nextRand(rng)
			// 24h drift between -5% and +5%.
			changePct := (float64(rng%1000) - 500) / 100
			change := value * changePct / 100

			tokens = append(tokens, model.TokenHolding{
				Symbol:         ts.symbol,
				Name:           ts.name,
				Balance:        round2(value / ts.price),
				Value:          round2(value),
				ValueChange24h: round2(change),
				PriceChange24h: round2(changePct),
				Chain:          entry.name,
			})
			chainValue += value
			chainChange += change
		}

		chains = append(chains, model.ChainTokens{
			Name:                entry.name,
			Symbol:              entry.symbol,
			TotalValue:          round2(chainValue),
			TotalValueChange24h: round2(chainChange),
			TokenCount:          len(tokens),
			Tokens:              tokens,
		})
		allocations = append(allocations, model.ChainAllocation{
			Name:   entry.name,
			Value:  round2(chainValue),
			Symbol: entry.symbol,
		})
		total += chainValue
		totalChange += chainChange
	}

	for i := range allocations {
		if total > 0 {
			allocations[i].Percentage = round2(allocations[i].Value / total * 100)
		}
	}

	changePercent := 0.0
	if total > 0 {
		changePercent = round2(totalChange / total * 100)
	}

	rng = nextRand(rng)
	yieldPct := 2 + float64(rng%600)/100 // 2%..8%
	rng = nextRand(rng)
	yieldChange := (float64(rng%100) - 50) / 100

	return &Snapshot{
		Portfolio: model.PortfolioSummary{
			TotalValue:              round2(total),
			TotalValueChange24h:     round2(totalChange),
			TotalValueChangePercent: changePercent,
			ActiveChains:            allocations,
			CurrentYield: model.CurrentYield{
				Percentage:    round2(yieldPct),
				Change:        round2(yieldChange),
				ChangePercent: round2(yieldChange / yieldPct * 100),
			},
			LastUpdated: time.Now().UTC(),
		},
		TokensByChain: chains,
	}, nil
}

func seedFor(orgID string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(orgID))
	return h.Sum64()
}

// nextRand is a splitmix64 step: cheap, stateless, reproducible.
func nextRand(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	z := x
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MemorySnapshotCache is the in-process fallback when Redis is not
// configured. Entries expire after ttl.
type MemorySnapshotCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryCacheEntry
}

type memoryCacheEntry struct {
	snap    *Snapshot
	savedAt time.Time
}

func NewMemorySnapshotCache(ttl time.Duration) *MemorySnapshotCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &MemorySnapshotCache{
		ttl:     ttl,
		entries: make(map[string]memoryCacheEntry),
	}
}

func (c *MemorySnapshotCache) Get(_ context.Context, orgID string) (*Snapshot, error) {
	c.mu.RLock()
	entry, ok := c.entries[orgID]
	c.mu.RUnlock()
	if !ok || time.Since(entry.savedAt) > c.ttl {
		return nil, nil
	}
	return entry.snap, nil
}

func (c *MemorySnapshotCache) Set(_ context.Context, orgID string, snap *Snapshot) error {
	c.mu.Lock()
	c.entries[orgID] = memoryCacheEntry{snap: snap, savedAt: time.Now()}
	c.mu.Unlock()
	return nil
}
