package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chainfolio/foliogate/internal/config"
	"github.com/chainfolio/foliogate/internal/custody"
	"github.com/chainfolio/foliogate/internal/engine"
	"github.com/chainfolio/foliogate/internal/handler"
	"github.com/chainfolio/foliogate/internal/middleware"
	"github.com/chainfolio/foliogate/internal/pkg/logger"
	"github.com/chainfolio/foliogate/internal/repository"
	"github.com/chainfolio/foliogate/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Log.Level)

	// 2. Initialize Persistence
	// Snapshot cache (Redis > Memory)
	var snapshotCache service.SnapshotCache
	var redisClient *repository.RedisClient
	if cfg.Redis.Addr != "" {
		redisClient, err = repository.NewRedisClient(cfg)
		if err == nil {
			logger.Info("Connected to Redis")
			snapshotCache = redisClient
		} else {
			logger.Error("Failed to connect to Redis, falling back to memory cache", "error", err)
		}
	}
	if snapshotCache == nil {
		snapshotCache = service.NewMemorySnapshotCache(time.Duration(cfg.Redis.SnapshotTTLSeconds) * time.Second)
	}

	// Org settings and audit persistence (Postgres > in-process)
	var orgRepo service.OrgRepo
	var auditRepo service.AuditRepo
	if cfg.Database.DSN != "" {
		db, err := repository.NewDB(cfg)
		if err == nil {
			logger.Info("Connected to PostgreSQL")
			orgRepo = repository.NewPostgresOrgRepo(db)
			auditRepo = repository.NewPostgresAuditRepo(db)
		} else {
			logger.Error("Failed to connect to DB, audit logs will be file-only", "error", err)
		}
	}

	// 3. Initialize Core Services
	orgManager := service.NewOrgManager(cfg, orgRepo)

	auditSvc, err := service.NewAuditService(cfg.Audit.Dir, auditRepo)
	if err != nil {
		log.Fatalf("Failed to initialize audit service: %v", err)
	}
	if redisClient != nil {
		auditSvc.SetSink(redisClient)
	}

	portfolioSvc := service.NewPortfolioService(service.NewSyntheticProvider(), snapshotCache)

	opportunityEngine := engine.New(engine.Params{
		RequiredAmountPct:  cfg.Engine.RequiredAmountPct,
		MinRequiredAmount:  cfg.Engine.MinRequiredAmount,
		ConcentrationLimit: cfg.Engine.ConcentrationLimit,
	})

	var walletProvider custody.WalletProvider
	if cfg.Custody.BaseURL != "" {
		walletProvider = custody.NewClient(cfg.Custody.BaseURL, cfg.Custody.APIKey,
			time.Duration(cfg.Custody.TimeoutMs)*time.Millisecond)
	} else {
		logger.Warn("No custody base URL configured, serving stub wallets")
		walletProvider = custody.NewStubProvider()
	}

	// 4. Initialize Handlers
	opportunityHandler := handler.NewOpportunityHandler(portfolioSvc, opportunityEngine)
	portfolioHandler := handler.NewPortfolioHandler(portfolioSvc)
	walletHandler := handler.NewWalletHandler(walletProvider)
	auditHandler := handler.NewAuditHandler(auditSvc)

	// 5. Setup Router
	r := gin.Default()

	// Global Middleware
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.AuditMiddleware(auditSvc))

	// Health Check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "foliogate"})
	})

	// Metrics Endpoint
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// API V1 Routes
	v1 := r.Group("/v1")
	v1.Use(middleware.OrgMiddleware(orgManager))
	v1.Use(middleware.RateLimitMiddleware(orgManager))
	{
		v1.GET("/opportunities", opportunityHandler.List)
		v1.GET("/portfolio", portfolioHandler.Summary)
		v1.GET("/portfolio/chains", portfolioHandler.Chains)
		v1.GET("/wallets", walletHandler.List)
		v1.GET("/audit", auditHandler.List)
	}

	// 6. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("FolioGate started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	auditSvc.Close()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	logger.Info("Server exiting")
}
