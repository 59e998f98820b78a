package handler

import (
	"net/http"

	"github.com/chainfolio/foliogate/internal/middleware"
	"github.com/chainfolio/foliogate/internal/model"
	"github.com/chainfolio/foliogate/internal/pkg/logger"
	"github.com/chainfolio/foliogate/internal/service"
	"github.com/gin-gonic/gin"
)

type PortfolioHandler struct {
	portfolios *service.PortfolioService
}

func NewPortfolioHandler(portfolios *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolios: portfolios}
}

// Summary handles GET /v1/portfolio.
func (h *PortfolioHandler) Summary(c *gin.Context) {
	org := c.MustGet(middleware.ContextOrgKey).(*model.Organization)

	snap, err := h.portfolios.Snapshot(c.Request.Context(), org.ID)
	if err != nil {
		logger.LogError(c.Request.Context(), err, "portfolio snapshot fetch failed", "org_id", org.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch portfolio"})
		return
	}

	c.JSON(http.StatusOK, snap.Portfolio)
}

// Chains handles GET /v1/portfolio/chains.
func (h *PortfolioHandler) Chains(c *gin.Context) {
	org := c.MustGet(middleware.ContextOrgKey).(*model.Organization)

	snap, err := h.portfolios.Snapshot(c.Request.Context(), org.ID)
	if err != nil {
		logger.LogError(c.Request.Context(), err, "chain holdings fetch failed", "org_id", org.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch chain holdings"})
		return
	}

	chains := snap.TokensByChain
	if len(org.AllowedChains) > 0 {
		filtered := make([]model.ChainTokens, 0, len(chains))
		for _, ct := range chains {
			if org.ChainAllowed(ct.Name) {
				filtered = append(filtered, ct)
			}
		}
		chains = filtered
	}

	c.JSON(http.StatusOK, gin.H{"chains": chains, "totalCount": len(chains)})
}
