package model

import (
	"time"
)

// AuditLog records one request end to end.
type AuditLog struct {
	ID        string `json:"id"`         // request ID (UUID)
	OrgID     string `json:"org_id"`     // organization ID from the header
	Method    string `json:"method"`     // HTTP method
	Path      string `json:"path"`       // request path
	IP        string `json:"ip"`         // client IP
	UserAgent string `json:"user_agent"` // client UA

	Query         string `json:"query"`          // raw query string
	RequestHeader string `json:"request_header"` // selected headers, redacted

	StatusCode   int    `json:"status_code"`
	ResponseBody string `json:"response_body"`
	LatencyMs    int64  `json:"latency_ms"`

	// Business context filled in by handlers (filter echo, counts, errors)
	Context map[string]interface{} `json:"context"`

	CreatedAt time.Time `json:"created_at"`
}
