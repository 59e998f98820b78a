// Package custody talks to the external key-custody provider that holds
// user wallets. The gateway never signs or stores key material itself;
// it only forwards wallet listing requests and surfaces the results.
package custody

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"net/url"
	"time"

	"github.com/chainfolio/foliogate/internal/pkg/apperrors"
)

// Wallet is a custody-held wallet as reported by the provider.
type Wallet struct {
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	Chain     string    `json:"chain"`
	Type      string    `json:"type"` // evm-smart-wallet, solana-mpc-wallet, ...
	CreatedAt time.Time `json:"createdAt"`
}

// WalletProvider is the capability the request-handling layer depends on.
// The HTTP client implements it against the real provider; StubProvider
// serves development and tests.
type WalletProvider interface {
	ListWallets(ctx context.Context, orgID string) ([]Wallet, error)
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) ListWallets(ctx context.Context, orgID string) ([]Wallet, error) {
	endpoint := fmt.Sprintf("%s/api/v1/wallets?organizationId=%s", c.baseURL, url.QueryEscape(orgID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstream("custody provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewUpstream(
			fmt.Sprintf("custody provider returned status %d", resp.StatusCode), nil)
	}

	var payload struct {
		Wallets []Wallet `json:"wallets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewUpstream("custody provider sent malformed response", err)
	}
	return payload.Wallets, nil
}

// StubProvider derives a stable wallet set from the organization ID.
// Used when no custody base URL is configured.
type StubProvider struct{}

func NewStubProvider() *StubProvider {
	return &StubProvider{}
}

var stubChains = []struct {
	chain string
	typ   string
}{
	{"ethereum", "evm-smart-wallet"},
	{"polygon", "evm-smart-wallet"},
	{"solana", "solana-mpc-wallet"},
}

func (p *StubProvider) ListWallets(_ context.Context, orgID string) ([]Wallet, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(orgID))
	seed := h.Sum64()

	wallets := make([]Wallet, 0, len(stubChains))
	for i, sc := range stubChains {
		wallets = append(wallets, Wallet{
			ID:        fmt.Sprintf("wal_%x%02d", seed, i),
			Address:   fmt.Sprintf("0x%016x%016x", seed+uint64(i), seed^uint64(i)),
			Chain:     sc.chain,
			Type:      sc.typ,
			CreatedAt: time.Unix(int64(seed%1_700_000_000), 0).UTC(),
		})
	}
	return wallets, nil
}
