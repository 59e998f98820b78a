package middleware

import (
	"net/http"

	"github.com/chainfolio/foliogate/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	HeaderOrganizationID = "x-organization-id"
	ContextOrgKey        = "organization"
)

// OrgMiddleware requires the x-organization-id header and resolves the
// organization into the request context. The 400 body is a fixed contract
// with the dashboard; do not reword it.
func OrgMiddleware(om *service.OrgManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetHeader(HeaderOrganizationID)
		if orgID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Organization ID is required"})
			c.Abort()
			return
		}

		org := om.Resolve(c.Request.Context(), orgID)
		c.Set(ContextOrgKey, org)
		c.Next()
	}
}
