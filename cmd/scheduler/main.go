// Command scheduler periodically calls the server's resolution endpoint. It holds
// no state and never touches the database, so any number of copies may run.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"coinpredict/internal/config"
	cronrunner "coinpredict/internal/cron"
	"coinpredict/internal/logger"
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

	if cfg.Resolution.CronSecret == "" {
		logger.Fatal("resolution.cron_secret (CRON_SECRET) is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	t := newTrigger(cfg.Scheduler.TargetURL, cfg.Resolution.CronSecret, cfg.Scheduler.Timeout, logger)

	runner := cronrunner.New(logger, ctx)
	if _, err := runner.Add(cfg.Scheduler.Spec, t.Run); err != nil {
		logger.Fatal("cron register resolution trigger failed", zap.Error(err), zap.String("spec", cfg.Scheduler.Spec))
	}
	runner.Start()
	logger.Info("scheduler running",
		zap.String("spec", cfg.Scheduler.Spec),
		zap.String("target", cfg.Scheduler.TargetURL),
	)

	<-ctx.Done()
	logger.Info("shutdown requested")
	runner.Stop()
}
