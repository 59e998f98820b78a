package middleware

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/chainfolio/foliogate/internal/model"
	"github.com/chainfolio/foliogate/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const ContextAuditLog = "audit_log"

// bodyLogWriter wraps the ResponseWriter to capture the response body
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func AuditMiddleware(auditSvc *service.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := uuid.New().String()
		c.Header("X-Request-ID", reqID)

		auditEntry := &model.AuditLog{
			ID:        reqID,
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
			Query:     c.Request.URL.RawQuery,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			CreatedAt: start,
			Context:   make(map[string]interface{}),
		}
		c.Set(ContextAuditLog, auditEntry)

		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		if orgVal, exists := c.Get(ContextOrgKey); exists {
			auditEntry.OrgID = orgVal.(*model.Organization).ID
		}

		auditEntry.RequestHeader = redactedHeaders(c)
		auditEntry.StatusCode = c.Writer.Status()
		auditEntry.ResponseBody = blw.body.String()
		auditEntry.LatencyMs = time.Since(start).Milliseconds()

		auditSvc.Log(auditEntry)
	}
}

// AddAuditContext lets handlers attach business context to the audit record
func AddAuditContext(c *gin.Context, key string, value interface{}) {
	if val, exists := c.Get(ContextAuditLog); exists {
		if entry, ok := val.(*model.AuditLog); ok {
			entry.Context[key] = value
		}
	}
}

// redactedHeaders serializes the headers we care about, masking secrets.
func redactedHeaders(c *gin.Context) string {
	captured := map[string]string{}
	for _, name := range []string{HeaderOrganizationID, "User-Agent", "X-API-Key", "Authorization", "Content-Type"} {
		if v := c.GetHeader(name); v != "" {
			if isSensitiveHeader(name) {
				v = "***"
			}
			captured[name] = v
		}
	}
	out, err := json.Marshal(captured)
	if err != nil {
		return ""
	}
	return string(out)
}

func isSensitiveHeader(name string) bool {
	switch strings.ToLower(name) {
	case "x-api-key", "authorization", "cookie":
		return true
	default:
		return false
	}
}
