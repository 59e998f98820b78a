package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chainfolio/foliogate/internal/config"
	"github.com/chainfolio/foliogate/internal/engine"
	"github.com/chainfolio/foliogate/internal/middleware"
	"github.com/chainfolio/foliogate/internal/service"
	"github.com/gin-gonic/gin"
)

func newTestRouter(cfg *config.Config, provider service.SnapshotProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)

	orgManager := service.NewOrgManager(cfg, nil)
	portfolioSvc := service.NewPortfolioService(provider, nil)
	opportunityHandler := NewOpportunityHandler(portfolioSvc, engine.New(engine.DefaultParams()))
	portfolioHandler := NewPortfolioHandler(portfolioSvc)

	router := gin.New()
	v1 := router.Group("/v1")
	v1.Use(middleware.OrgMiddleware(orgManager))
	v1.GET("/opportunities", opportunityHandler.List)
	v1.GET("/portfolio", portfolioHandler.Summary)
	v1.GET("/portfolio/chains", portfolioHandler.Chains)
	return router
}

type envelope struct {
	Opportunities []struct {
		Category         string  `json:"category"`
		Chain            string  `json:"chain"`
		APY              float64 `json:"apy"`
		Risk             string  `json:"risk"`
		RequiredAmount   float64 `json:"requiredAmount"`
		EstimatedGasFees float64 `json:"estimatedGasFees"`
	} `json:"opportunities"`
	TotalCount  int    `json:"totalCount"`
	GeneratedAt string `json:"generatedAt"`
}

func getOpportunities(t *testing.T, router *gin.Engine, query string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/v1/opportunities"+query, nil)
	req.Header.Set("x-organization-id", "org-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body envelope
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid json response: %v", err)
		}
	}
	return rec, body
}

func TestOpportunitiesRequiresOrgHeader(t *testing.T) {
	router := newTestRouter(&config.Config{}, service.NewSyntheticProvider())

	req := httptest.NewRequest(http.MethodGet, "/v1/opportunities", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without org header, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if resp["error"] != "Organization ID is required" {
		t.Fatalf("unexpected error body: %q", resp["error"])
	}
}

func TestOpportunitiesNoFilters(t *testing.T) {
	router := newTestRouter(&config.Config{}, service.NewSyntheticProvider())

	rec, body := getOpportunities(t, router, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body.TotalCount != len(body.Opportunities) {
		t.Fatalf("totalCount %d != len(opportunities) %d", body.TotalCount, len(body.Opportunities))
	}
	if body.TotalCount == 0 {
		t.Fatalf("expected at least one opportunity for a synthetic portfolio")
	}
	if _, err := time.Parse(time.RFC3339, body.GeneratedAt); err != nil {
		t.Fatalf("generatedAt %q is not a valid timestamp: %v", body.GeneratedAt, err)
	}
}

func TestOpportunitiesCategoryRestriction(t *testing.T) {
	router := newTestRouter(&config.Config{}, service.NewSyntheticProvider())

	rec, body := getOpportunities(t, router, "?categories=LENDING,STAKING")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	for _, o := range body.Opportunities {
		if o.Category != "LENDING" && o.Category != "STAKING" {
			t.Fatalf("unexpected category %q in filtered response", o.Category)
		}
	}
}

// Malformed filter values must degrade to no constraint, not to an error.
func TestOpportunitiesInvalidFilterValuesIgnored(t *testing.T) {
	router := newTestRouter(&config.Config{}, service.NewSyntheticProvider())

	_, unfiltered := getOpportunities(t, router, "")
	rec, body := getOpportunities(t, router, "?minApy=banana&maxRisk=EXTREME&minAmount=NaN")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body.TotalCount != unfiltered.TotalCount {
		t.Fatalf("invalid filter values changed the result: %d vs %d", body.TotalCount, unfiltered.TotalCount)
	}
}

func TestOpportunitiesIdenticalAcrossCalls(t *testing.T) {
	router := newTestRouter(&config.Config{}, service.NewSyntheticProvider())

	_, first := getOpportunities(t, router, "?minApy=4")
	_, second := getOpportunities(t, router, "?minApy=4")

	if len(first.Opportunities) != len(second.Opportunities) {
		t.Fatalf("result size changed between identical calls")
	}
	for i := range first.Opportunities {
		if first.Opportunities[i] != second.Opportunities[i] {
			t.Fatalf("opportunity %d differs between identical calls", i)
		}
	}
}

// Every (chain, category) pair shows up at most once, for any organization.
func TestOpportunitiesPairsAreDistinct(t *testing.T) {
	router := newTestRouter(&config.Config{}, service.NewSyntheticProvider())

	for _, orgID := range []string{"org-1", "org-a0", "org-a7", "org-b3", "org-c9"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/opportunities", nil)
		req.Header.Set("x-organization-id", orgID)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("org %s: expected 200, got %d", orgID, rec.Code)
		}
		var body envelope
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("org %s: invalid json response: %v", orgID, err)
		}
		seen := map[string]bool{}
		for _, o := range body.Opportunities {
			key := o.Chain + "|" + o.Category
			if seen[key] {
				t.Fatalf("org %s: pair %s appears more than once", orgID, key)
			}
			seen[key] = true
		}
		if body.TotalCount != len(seen) {
			t.Fatalf("org %s: totalCount %d != %d distinct pairs", orgID, body.TotalCount, len(seen))
		}
	}
}

type failingProvider struct{}

func (failingProvider) Snapshot(context.Context, string) (*service.Snapshot, error) {
	return nil, errors.New("upstream exploded")
}

func TestOpportunitiesInternalFailure(t *testing.T) {
	router := newTestRouter(&config.Config{}, failingProvider{})

	rec, _ := getOpportunities(t, router, "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if resp["error"] != "Failed to fetch cross-chain opportunities" {
		t.Fatalf("unexpected error body: %q", resp["error"])
	}
}

func TestOpportunitiesChainAllowlist(t *testing.T) {
	cfg := &config.Config{
		Organizations: []config.OrgConfig{
			{ID: "org-1", Name: "Org One", AllowedChains: []string{"__no_such_chain__"}},
		},
	}
	router := newTestRouter(cfg, service.NewSyntheticProvider())

	rec, body := getOpportunities(t, router, "?chains=ethereum")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body.TotalCount != 0 || len(body.Opportunities) != 0 {
		t.Fatalf("expected empty result outside the allowlist, got %d", body.TotalCount)
	}
}

func TestPortfolioSummary(t *testing.T) {
	router := newTestRouter(&config.Config{}, service.NewSyntheticProvider())

	req := httptest.NewRequest(http.MethodGet, "/v1/portfolio", nil)
	req.Header.Set("x-organization-id", "org-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		TotalValue   float64 `json:"totalValue"`
		ActiveChains []struct {
			Name       string  `json:"name"`
			Percentage float64 `json:"percentage"`
		} `json:"activeChains"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if resp.TotalValue <= 0 {
		t.Fatalf("expected positive totalValue, got %v", resp.TotalValue)
	}
	if len(resp.ActiveChains) == 0 {
		t.Fatalf("expected at least one active chain")
	}
}
