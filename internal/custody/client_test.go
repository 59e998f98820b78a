package custody

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStubProviderIsDeterministic(t *testing.T) {
	provider := NewStubProvider()

	first, err := provider.ListWallets(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := provider.ListWallets(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) == 0 {
		t.Fatalf("expected wallets")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("wallet %d differs between calls", i)
		}
	}

	other, _ := provider.ListWallets(context.Background(), "org-2")
	if first[0].Address == other[0].Address {
		t.Fatalf("different orgs should get different addresses")
	}
}

func TestClientListWallets(t *testing.T) {
	var gotKey, gotOrg string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotOrg = r.URL.Query().Get("organizationId")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"wallets": []Wallet{
				{ID: "wal_1", Address: "0xabc", Chain: "ethereum", Type: "evm-smart-wallet"},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", time.Second)
	wallets, err := client.ListWallets(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "test-key" || gotOrg != "org-1" {
		t.Fatalf("request not formed correctly: key=%q org=%q", gotKey, gotOrg)
	}
	if len(wallets) != 1 || wallets[0].ID != "wal_1" {
		t.Fatalf("unexpected wallets: %+v", wallets)
	}
}

func TestClientUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", time.Second)
	_, err := client.ListWallets(context.Background(), "org-1")
	if err == nil {
		t.Fatalf("expected error on upstream failure")
	}
}
