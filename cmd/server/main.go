package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	channelapp "github.com/cmsdsdssd/cms-s-sub001/internal/application/channel"
	pricingapp "github.com/cmsdsdssd/cms-s-sub001/internal/application/pricing"
	"github.com/cmsdsdssd/cms-s-sub001/internal/infrastructure/config"
	"github.com/cmsdsdssd/cms-s-sub001/internal/infrastructure/logger"
	"github.com/cmsdsdssd/cms-s-sub001/internal/infrastructure/persistence"
	"github.com/cmsdsdssd/cms-s-sub001/internal/infrastructure/smartstore"
	"github.com/cmsdsdssd/cms-s-sub001/internal/interfaces/http/handler"
	"github.com/cmsdsdssd/cms-s-sub001/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting channel price sync",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	// Initialize database connection
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	itemRepo := persistence.NewGormMasterItemRepository(db.DB)
	policyRepo := persistence.NewGormPolicyRepository(db.DB)
	factorRepo := persistence.NewGormFactorRepository(db.DB)
	tickRepo := persistence.NewGormTickRepository(db.DB)
	ruleRepo := persistence.NewGormRuleRepository(db.DB)
	adjustmentRepo := persistence.NewGormAdjustmentRepository(db.DB)
	snapshotRepo := persistence.NewGormSnapshotRepository(db.DB)
	mappingRepo := persistence.NewGormMappingRepository(db.DB)
	ruleSetRepo := persistence.NewGormRuleSetRepository(db.DB)
	syncJobRepo := persistence.NewGormSyncJobRepository(db.DB)
	credentialRepo := persistence.NewGormCredentialRepository(db.DB)
	dashboardRepo := persistence.NewGormDashboardRepository(db.DB)

	// Initialize the channel gateway
	channelID := uuid.Nil
	if cfg.Channel.ChannelID != "" {
		channelID = uuid.MustParse(cfg.Channel.ChannelID)
	}
	gatewayConfig := smartstore.NewConfig(channelID, cfg.Channel.ClientID, cfg.Channel.ClientSecret)
	if cfg.Channel.BaseURL != "" {
		gatewayConfig.APIBaseURL = cfg.Channel.BaseURL
	}
	gatewayConfig.TimeoutSeconds = int(cfg.Channel.Timeout / time.Second)
	gateway, err := smartstore.NewGateway(gatewayConfig, credentialRepo, log)
	if err != nil {
		log.Fatal("Failed to initialize channel gateway", zap.Error(err))
	}

	// Initialize application services
	recomputeService := pricingapp.NewRecomputeService(
		policyRepo, factorRepo, tickRepo, ruleRepo,
		adjustmentRepo, snapshotRepo, mappingRepo, itemRepo, log,
	)
	previewService := pricingapp.NewPreviewService(
		policyRepo, factorRepo, tickRepo, ruleRepo, mappingRepo, itemRepo,
	)
	pushService := channelapp.NewPushService(
		dashboardRepo, mappingRepo, syncJobRepo, gateway, log,
		cfg.Channel.VerifyAttempts, cfg.Channel.VerifyDelay,
	)
	mappingService := channelapp.NewMappingService(
		mappingRepo, ruleSetRepo, itemRepo,
		policyRepo, factorRepo, tickRepo, ruleRepo, log,
	)

	// Initialize handlers
	pricingHandler := handler.NewPricingHandler(recomputeService, previewService)
	syncHandler := handler.NewSyncHandler(pushService, syncJobRepo, dashboardRepo)
	mappingHandler := handler.NewMappingHandler(mappingService)
	systemHandler := handler.NewSystemHandler(db.Ping)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(logger.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(systemHandler)
	r.Register(pricingHandler)
	r.Register(syncHandler)
	r.Register(mappingHandler)
	r.Setup()

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}
