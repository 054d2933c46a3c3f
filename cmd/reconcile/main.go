// Command reconcile runs one reconciliation and webhook replay pass, for cron.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jetdesk/billing/internal/app"
	"github.com/jetdesk/billing/internal/config"
	"github.com/jetdesk/billing/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger = zapLogger.With(zap.String("service", cfg.Service.Name), zap.String("job", "reconcile"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	billingApp, err := app.New(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize billing service", zap.Error(err))
	}

	err = billingApp.RunMaintenance(ctx)
	billingApp.Close()
	if err != nil {
		zapLogger.Error("Reconcile job finished with errors", zap.Error(err))
		_ = zapLogger.Sync()
		os.Exit(1)
	}
}
