package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	handlers "github.com/jetdesk/billing/internal/adapter/handler/http"
	"github.com/jetdesk/billing/internal/config"
	"github.com/jetdesk/billing/internal/middleware/auth"
	"github.com/jetdesk/billing/pkg/logger"
)

const (
	webhookPath = "/webhook/stripe"
	healthPath  = "/health"
	metricsPath = "/metrics"
)

// Dependencies are the use cases and probes the routes are wired to.
type Dependencies struct {
	Checkout      handlers.CheckoutUsecase
	Webhook       handlers.WebhookUsecase
	Subscriptions handlers.SubscriptionUsecase
	// HealthCheck reports whether the database answers. Nil means always healthy.
	HealthCheck func(ctx context.Context) error
	Registry    *prometheus.Registry
}

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
	deps   Dependencies
}

func NewServer(cfg *config.Config, log *zap.Logger, deps Dependencies) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewRequestValidator()
	e.Server.ReadTimeout = cfg.Server.HTTP.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.HTTP.WriteTimeout
	logger.WithEchoLogger(e, log)

	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	promMiddleware, err := echoprometheus.MiddlewareConfig{
		Namespace:  config.ServiceName,
		Subsystem:  "http",
		Registerer: deps.Registry,
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == metricsPath || p == healthPath
		},
	}.ToMiddleware()
	if err != nil {
		return nil, fmt.Errorf("failed to register http metrics: %w", err)
	}

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(promMiddleware)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins(cfg.Service),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))
	// The webhook enforces its own cap so oversized deliveries get a 400.
	e.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		Skipper: func(c echo.Context) bool { return c.Request().URL.Path == webhookPath },
		Limit:   cfg.Server.HTTP.BodyLimit,
	}))

	s := &Server{
		config: cfg,
		logger: log,
		echo:   e,
		deps:   deps,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) Start() error {
	addr := s.config.Server.HTTP.Addr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) setupRoutes() {
	s.echo.GET(healthPath, s.health)
	s.echo.GET(metricsPath, echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: s.deps.Registry,
	}))

	checkoutHandler := handlers.NewCheckoutHandler(s.logger, s.deps.Checkout)
	subscriptionHandler := handlers.NewSubscriptionHandler(s.logger, s.deps.Subscriptions)
	webhookHandler := handlers.NewWebhookHandler(s.logger, s.deps.Webhook)

	// Stripe authenticates with the signature header, not a bearer token
	s.echo.POST(webhookPath, webhookHandler.HandleStripeWebhook)

	jwtConfig := auth.JWTConfig{
		Secret: s.config.Service.Supabase.JWTSecret,
		Logger: s.logger,
	}

	billing := s.echo.Group("/api/v1/billing", auth.JWTMiddleware(jwtConfig))
	if limit := s.config.Server.HTTP.RateLimitPerSec; limit > 0 {
		billing.Use(rateLimiter(limit))
	}

	billing.POST("/checkout", checkoutHandler.CreateCheckoutSession)
	billing.GET("/subscription", subscriptionHandler.GetSubscription)
	billing.POST("/subscription/cancel", subscriptionHandler.CancelSubscription)
	billing.GET("/payments", subscriptionHandler.ListPayments)
}

func (s *Server) health(c echo.Context) error {
	if s.deps.HealthCheck != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.HealthCheck(ctx); err != nil {
			s.logger.Warn("Health check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status":  "unhealthy",
				"service": config.ServiceName,
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": config.ServiceName,
	})
}

// rateLimiter keys on the authenticated user, falling back to the client IP.
func rateLimiter(perSec float64) echo.MiddlewareFunc {
	burst := int(perSec * 2)
	if burst < 1 {
		burst = 1
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perSec),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if id, ok := c.Get("user_id").(string); ok && id != "" {
				return id, nil
			}
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "Too many requests"})
		},
	})
}

func allowedOrigins(svc config.ServiceConfig) []string {
	origins := []string{}
	for _, o := range []string{svc.ClientURL, svc.Redirect.CanonicalOrigin} {
		o = strings.TrimRight(o, "/")
		if o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
