package handler

import (
	"net/http"
	"time"

	"github.com/chainfolio/foliogate/internal/engine"
	"github.com/chainfolio/foliogate/internal/middleware"
	"github.com/chainfolio/foliogate/internal/model"
	"github.com/chainfolio/foliogate/internal/pkg/logger"
	"github.com/chainfolio/foliogate/internal/pkg/metrics"
	"github.com/chainfolio/foliogate/internal/service"
	"github.com/gin-gonic/gin"
)

type OpportunityHandler struct {
	portfolios *service.PortfolioService
	eng        *engine.Engine
}

func NewOpportunityHandler(portfolios *service.PortfolioService, eng *engine.Engine) *OpportunityHandler {
	return &OpportunityHandler{portfolios: portfolios, eng: eng}
}

// opportunityEnvelope is the response contract the dashboard renders from.
type opportunityEnvelope struct {
	Opportunities []model.Opportunity `json:"opportunities"`
	TotalCount    int                 `json:"totalCount"`
	Filters       engine.Filters      `json:"filters"`
	GeneratedAt   string              `json:"generatedAt"`
}

// List handles GET /v1/opportunities.
//
// Filter parsing is forgiving: malformed numbers and unknown enum values
// degrade to "no constraint" instead of a 400. The only hard failure mode
// is the snapshot fetch, which maps to the fixed 500 body.
func (h *OpportunityHandler) List(c *gin.Context) {
	org := c.MustGet(middleware.ContextOrgKey).(*model.Organization)

	filters := engine.ParseFilters(c.Request.URL.Query())
	middleware.AddAuditContext(c, "filters", filters)

	effective := filters
	chains, ok := effectiveChains(filters.Chains, org.AllowedChains)
	if !ok {
		// Requested chains are all outside the org's allowlist.
		c.JSON(http.StatusOK, opportunityEnvelope{
			Opportunities: []model.Opportunity{},
			Filters:       filters,
			GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	effective.Chains = chains

	snap, err := h.portfolios.Snapshot(c.Request.Context(), org.ID)
	if err != nil {
		logger.LogError(c.Request.Context(), err, "opportunity snapshot fetch failed", "org_id", org.ID)
		middleware.AddAuditContext(c, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cross-chain opportunities"})
		return
	}

	opps := h.eng.Generate(snap.Portfolio, snap.TokensByChain, effective)

	for _, o := range opps {
		metrics.OpportunitiesGenerated.WithLabelValues(string(o.Category)).Inc()
	}
	middleware.AddAuditContext(c, "total_count", len(opps))

	c.JSON(http.StatusOK, opportunityEnvelope{
		Opportunities: opps,
		TotalCount:    len(opps),
		Filters:       filters,
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
	})
}

// effectiveChains intersects the requested chain filter with the org's
// allowlist. ok=false means the intersection is empty while both sides
// were non-empty, so nothing can match.
func effectiveChains(requested, allowed []string) ([]string, bool) {
	if len(allowed) == 0 {
		return requested, true
	}
	if len(requested) == 0 {
		return allowed, true
	}
	var out []string
	for _, chain := range requested {
		for _, a := range allowed {
			if chain == a {
				out = append(out, chain)
				break
			}
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}
