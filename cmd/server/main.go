package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jetdesk/billing/internal/app"
	"github.com/jetdesk/billing/internal/config"
	grpcServer "github.com/jetdesk/billing/internal/infrastructure/grpc"
	httpServer "github.com/jetdesk/billing/internal/infrastructure/http"
	"github.com/jetdesk/billing/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger = zapLogger.With(zap.String("service", cfg.Service.Name), zap.String("env", cfg.Service.Environment))

	billingApp, err := app.New(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize billing service", zap.Error(err))
	}
	defer billingApp.Close()

	// Background work stops with this context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if consumer := billingApp.WelcomeConsumer(); consumer != nil {
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("Welcome consumer stopped", zap.Error(err))
			}
		}()
	}

	if interval := cfg.Reconcile.Interval; interval > 0 {
		zapLogger.Info("Starting reconciliation loop", zap.Duration("interval", interval))
		go app.RunEvery(ctx, interval, billingApp.RunMaintenance)
	}

	// Initialize servers
	httpSrv, err := httpServer.NewServer(cfg, zapLogger, httpServer.Dependencies{
		Checkout:      billingApp.Checkout,
		Webhook:       billingApp.Webhook,
		Subscriptions: billingApp.Subscriptions,
		HealthCheck:   billingApp.HealthCheck,
		Registry:      billingApp.Registry,
	})
	if err != nil {
		zapLogger.Fatal("Failed to initialize HTTP server", zap.Error(err))
	}

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	var grpcSrv *grpcServer.Server
	if cfg.Server.GRPC.Port > 0 {
		grpcSrv = grpcServer.NewServer(cfg, zapLogger, billingApp.HealthCheck)
		go grpcSrv.Watch(ctx, 30*time.Second)
		go func() {
			if err := grpcSrv.Start(); err != nil {
				zapLogger.Fatal("Failed to start gRPC server", zap.Error(err))
			}
		}()
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down servers...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if grpcSrv != nil {
		if err := grpcSrv.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("Failed to shutdown gRPC server", zap.Error(err))
		}
	}

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	zapLogger.Info("Servers shut down successfully")
}
