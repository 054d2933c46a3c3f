package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jetdesk/billing/internal/config"
	"github.com/jetdesk/billing/internal/domain/billing"
	"github.com/jetdesk/billing/internal/domain/notification"
	"github.com/jetdesk/billing/internal/infrastructure/database"
	"github.com/jetdesk/billing/internal/infrastructure/mail"
	"github.com/jetdesk/billing/internal/infrastructure/messaging"
	"github.com/jetdesk/billing/internal/infrastructure/metrics"
	stripeprovider "github.com/jetdesk/billing/internal/infrastructure/provider/stripe"
	"github.com/jetdesk/billing/internal/usecase"
	pkgmessaging "github.com/jetdesk/billing/pkg/messaging"
)

const defaultReplayBatch = 50

// App holds the wired services shared by the server and the reconcile job.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *gorm.DB
	Repos    *database.Repositories
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Checkout      *usecase.CheckoutService
	Webhook       *usecase.WebhookService
	Subscriptions *usecase.SubscriptionService
	Reconcile     *usecase.ReconcileService

	redis  pkgmessaging.RedisClient
	mailer *mail.WelcomeMailer
}

// New connects to the database (and Redis when enabled) and builds every service.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.Open(context.Background(), &cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	if !cfg.Database.SkipMigrate {
		if err := database.Migrate(db, logger); err != nil {
			_ = database.Close(db, logger)
			return nil, err
		}
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Repos:    database.NewRepositories(db, logger),
		Registry: prometheus.NewRegistry(),
	}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.New(a.Registry)

	if cfg.Email.Enabled {
		a.mailer = mail.NewWelcomeMailer(cfg.Email, logger)
	}
	if cfg.Redis.Enabled {
		a.redis, err = pkgmessaging.NewRedisClient(pkgmessaging.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			_ = database.Close(db, logger)
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
	}

	stripe := stripeprovider.NewStripeProvider(cfg.Service.Stripe, logger)
	redirects := billing.RedirectRules{
		FallbackOrigin:  cfg.Service.ClientURL,
		ProductionHost:  cfg.Service.Redirect.ProductionHost,
		CanonicalDomain: cfg.Service.Redirect.CanonicalDomain,
		CanonicalOrigin: cfg.Service.Redirect.CanonicalOrigin,
	}

	a.Checkout = usecase.NewCheckoutService(a.Repos.Profile, a.Repos.Company, stripe, redirects, cfg.Service.Stripe.PriceID, logger)
	a.Subscriptions = usecase.NewSubscriptionService(a.Repos.Profile, a.Repos.Company, a.Repos.Payment, stripe, logger)
	a.Webhook = usecase.NewWebhookService(stripe, a.Repos.Company, a.Repos.Payment, a.Repos.WebhookEvent, a.Notifier(), a.Metrics, logger)
	a.Reconcile = usecase.NewReconcileService(a.Repos.Company, stripe, a.Metrics, logger, cfg.Reconcile.BatchSize)

	return a, nil
}

// Notifier picks how the webhook hands off welcome emails: queued on Redis
// when enabled, straight to SMTP otherwise. Without SMTP nothing is sent, so
// nothing is queued either.
func (a *App) Notifier() notification.WelcomeNotifier {
	return selectNotifier(a.redis, a.Config.Redis.WelcomeQueue, a.mailer)
}

func selectNotifier(redis pkgmessaging.RedisClient, queue string, mailer *mail.WelcomeMailer) notification.WelcomeNotifier {
	switch {
	case mailer == nil:
		return nil
	case redis != nil:
		return messaging.NewWelcomePublisher(redis, queue)
	default:
		return mailer
	}
}

// WelcomeConsumer returns the Redis consumer that delivers queued welcomes,
// or nil when there is nothing to consume or nothing to send with.
func (a *App) WelcomeConsumer() *messaging.WelcomeConsumer {
	if a.redis == nil || a.mailer == nil {
		return nil
	}
	return messaging.NewWelcomeConsumer(a.redis, a.Config.Redis.WelcomeQueue, a.mailer, a.Metrics, a.Logger)
}

// HealthCheck pings the database.
func (a *App) HealthCheck(ctx context.Context) error {
	return database.Ping(ctx, a.DB)
}

// RunMaintenance reconciles companies against Stripe and replays webhook
// events that failed or stalled. Both halves always run.
func (a *App) RunMaintenance(ctx context.Context) error {
	return runMaintenance(ctx, a.Reconcile, a.Webhook, replayBatch(a.Config.Reconcile.BatchSize), a.Logger)
}

type reconciler interface {
	Run(ctx context.Context) (usecase.ReconcileSummary, error)
}

type replayer interface {
	ReplayRetryable(ctx context.Context, limit int) (int, error)
}

func runMaintenance(ctx context.Context, rec reconciler, rep replayer, batch int, logger *zap.Logger) error {
	start := time.Now()

	summary, recErr := rec.Run(ctx)
	if recErr != nil {
		logger.Error("Reconciliation failed", zap.Error(recErr))
	}

	replayed, repErr := rep.ReplayRetryable(ctx, batch)
	if repErr != nil {
		logger.Error("Webhook replay failed", zap.Error(repErr))
	}

	logger.Info("Maintenance run finished",
		zap.Int("checked", summary.Checked),
		zap.Int("updated", summary.Updated),
		zap.Int("failed", summary.Failed),
		zap.Int("replayed", replayed),
		zap.Duration("elapsed", time.Since(start)))

	return errors.Join(recErr, repErr)
}

func replayBatch(batchSize int) int {
	if batchSize > 0 {
		return batchSize
	}
	return defaultReplayBatch
}

// RunEvery calls fn immediately and then every interval until ctx is done.
func RunEvery(ctx context.Context, interval time.Duration, fn func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_ = fn(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Close releases Redis and the database.
func (a *App) Close() {
	// pending welcome sends still read the company and may enqueue to redis
	if a.Webhook != nil {
		a.Webhook.Wait()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Error("Failed to close redis client", zap.Error(err))
		}
	}
	if err := database.Close(a.DB, a.Logger); err != nil {
		a.Logger.Error("Failed to close database connection", zap.Error(err))
	}
}
