package handler

import (
	"net/http"

	"github.com/chainfolio/foliogate/internal/custody"
	"github.com/chainfolio/foliogate/internal/middleware"
	"github.com/chainfolio/foliogate/internal/model"
	"github.com/chainfolio/foliogate/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	provider custody.WalletProvider
}

func NewWalletHandler(provider custody.WalletProvider) *WalletHandler {
	return &WalletHandler{provider: provider}
}

// List handles GET /v1/wallets by delegating to the custody provider.
func (h *WalletHandler) List(c *gin.Context) {
	org := c.MustGet(middleware.ContextOrgKey).(*model.Organization)

	wallets, err := h.provider.ListWallets(c.Request.Context(), org.ID)
	if err != nil {
		middleware.AddAuditContext(c, "error", err.Error())
		c.Error(apperrors.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallets": wallets, "totalCount": len(wallets)})
}
