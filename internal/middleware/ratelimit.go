package middleware

import (
	"net/http"

	"github.com/chainfolio/foliogate/internal/model"
	"github.com/chainfolio/foliogate/internal/service"
	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware must run after OrgMiddleware.
func RateLimitMiddleware(om *service.OrgManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgVal, exists := c.Get(ContextOrgKey)
		if !exists {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Organization ID is required"})
			c.Abort()
			return
		}
		org := orgVal.(*model.Organization)

		limiter := om.Limiter(org.ID)
		if limiter == nil {
			// OrgManager registers a limiter for every org it resolves;
			// missing one means an inconsistency we choose to wave through.
			c.Next()
			return
		}

		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": "1s",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
