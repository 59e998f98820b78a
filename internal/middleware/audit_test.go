package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chainfolio/foliogate/internal/config"
	"github.com/chainfolio/foliogate/internal/service"
	"github.com/gin-gonic/gin"
)

func TestAuditMiddlewareRecordsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	auditSvc, err := service.NewAuditService(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to create audit service: %v", err)
	}
	defer auditSvc.Close()

	om := service.NewOrgManager(&config.Config{}, nil)

	router := gin.New()
	router.Use(AuditMiddleware(auditSvc))
	v1 := router.Group("/v1")
	v1.Use(OrgMiddleware(om))
	v1.GET("/ping", func(c *gin.Context) {
		AddAuditContext(c, "answered", true)
		c.JSON(http.StatusOK, gin.H{"pong": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/ping?x=1", nil)
	req.Header.Set(HeaderOrganizationID, "org-1")
	req.Header.Set("X-API-Key", "super-secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header")
	}

	records, err := auditSvc.List(req.Context(), "org-1", 10, nil, nil)
	if err != nil {
		t.Fatalf("audit list failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(records))
	}

	entry := records[0]
	if entry.OrgID != "org-1" || entry.Path != "/v1/ping" || entry.Query != "x=1" {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
	if entry.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status in audit entry: %d", entry.StatusCode)
	}
	if entry.Context["answered"] != true {
		t.Fatalf("handler context not captured")
	}

	var headers map[string]string
	if err := json.Unmarshal([]byte(entry.RequestHeader), &headers); err != nil {
		t.Fatalf("invalid header json: %v", err)
	}
	if headers["X-API-Key"] != "***" {
		t.Fatalf("api key not redacted: %q", headers["X-API-Key"])
	}
	if headers[HeaderOrganizationID] != "org-1" {
		t.Fatalf("org header missing from audit record")
	}
}

func TestAuditBufferFiltersByOrg(t *testing.T) {
	auditSvc, err := service.NewAuditService(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to create audit service: %v", err)
	}
	defer auditSvc.Close()

	gin.SetMode(gin.TestMode)
	om := service.NewOrgManager(&config.Config{}, nil)
	router := gin.New()
	router.Use(AuditMiddleware(auditSvc))
	v1 := router.Group("/v1")
	v1.Use(OrgMiddleware(om))
	v1.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, org := range []string{"org-a", "org-a", "org-b"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
		req.Header.Set(HeaderOrganizationID, org)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
	}

	// List reads the ring buffer when no repo is configured.
	records, err := auditSvc.List(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "org-a", 10, nil, nil)
	if err != nil {
		t.Fatalf("audit list failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 org-a records, got %d", len(records))
	}
}
