// @title coinpredict API
// @version 1.0
// @description Crypto price prediction game: predictions, automatic resolution and leaderboard.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"coinpredict/internal/audit"
	"coinpredict/internal/auth"
	"coinpredict/internal/cache"
	"coinpredict/internal/config"
	"coinpredict/internal/db"
	"coinpredict/internal/handler"
	"coinpredict/internal/logger"
	"coinpredict/internal/oracle"
	gormrepository "coinpredict/internal/repository/gorm"
	"coinpredict/internal/service"
	"coinpredict/internal/stream"

	_ "coinpredict/docs"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CP_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("CP_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Open(ctx, cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	settingsSvc := &service.SystemSettingsService{Repo: store}
	if err := settingsSvc.EnsureDefaultSwitches(ctx); err != nil {
		logger.Warn("init default system switches failed", zap.Error(err))
	}

	priceOracle := oracle.NewCoinGecko(cfg.Oracle)
	hub := stream.NewHub()
	auditClient := audit.NewClient(cfg.Audit)
	if auditClient != nil {
		loginCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := auditClient.Login(loginCtx); err != nil {
			logger.Warn("audit login failed (audit disabled)", zap.Error(err))
			auditClient = nil
		} else {
			logger.Info("audit login ok")
		}
		cancel()
	}

	marketCache, err := cache.New(cfg.Cache)
	if err != nil {
		logger.Warn("cache open failed, falling back to memory cache", zap.Error(err))
		marketCache = cache.NewMemoryStore()
	}
	switch c := marketCache.(type) {
	case *cache.RedisStore:
		defer c.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := c.Ping(pingCtx); err != nil {
			logger.Warn("redis unreachable, falling back to memory cache", zap.Error(err))
			marketCache = cache.NewMemoryStore()
		}
		cancel()
	case *cache.BadgerStore:
		defer c.Close()
	}

	resolver := service.NewResolutionService(store, priceOracle, cfg.Resolution, logger)
	resolver.Runs = store
	resolver.Settings = settingsSvc
	resolver.Hub = hub
	resolver.Audit = auditClient

	if cfg.Resolution.CronSecret == "" {
		logger.Warn("resolution.cron_secret is empty: /api/v1/resolve-predictions will refuse every call")
	}
	adminSessions := auth.NewSessions(cfg.Admin.Password, cfg.Admin.SessionTTL)
	if cfg.Admin.Password == "" {
		logger.Warn("admin.password is empty: admin endpoints will refuse every call")
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handler.RegisterValidators(); err != nil {
		logger.Fatal("register validators failed", zap.Error(err))
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(audit.WriteMiddleware(auditClient, logger))

	healthHandler := &handler.HealthHandler{
		Ping:   func(ctx context.Context) error { return db.Ping(ctx, dbConn) },
		Logger: logger,
	}
	healthHandler.Register(engine)
	resolutionHandler := &handler.ResolutionHandler{Service: resolver, CronSecret: cfg.Resolution.CronSecret, Logger: logger}
	resolutionHandler.Register(engine)
	leaderboardHandler := &handler.LeaderboardHandler{Service: &service.LeaderboardService{Repo: store, Logger: logger}}
	leaderboardHandler.Register(engine)
	predictionHandler := &handler.PredictionHandler{Service: &service.PredictionService{
		Repo:     store,
		Coins:    store,
		Oracle:   priceOracle,
		Settings: settingsSvc,
		Logger:   logger,
	}}
	predictionHandler.Register(engine)
	coinHandler := &handler.CoinHandler{
		Service:       &service.CoinService{Repo: store, Logger: logger},
		AdminPassword: cfg.Admin.Password,
		Sessions:      adminSessions,
		Logger:        logger,
	}
	coinHandler.Register(engine)
	marketHandler := &handler.MarketHandler{Service: service.NewMarketService(priceOracle, marketCache, cfg.Markets, logger)}
	marketHandler.Register(engine)
	adminHandler := &handler.AdminHandler{
		Runs:          store,
		Settings:      settingsSvc,
		AdminPassword: cfg.Admin.Password,
		Sessions:      adminSessions,
		Logger:        logger,
	}
	adminHandler.Register(engine)
	streamHandler := &handler.StreamHandler{Hub: hub, Logger: logger, OriginPatterns: []string{"*"}}
	streamHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
