package config

import (
	"fmt"
	"strings"
	"time"

	pkgconfig "github.com/jetdesk/billing/pkg/config"
	"github.com/jetdesk/billing/pkg/logger"
)

// ServiceName is the config file name and the env override prefix (BILLING_*).
const ServiceName = "billing"

type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Log       logger.Config   `yaml:"log"`
	Email     EmailConfig     `yaml:"email"`
	Redis     RedisConfig     `yaml:"redis"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
}

// LoadConfig reads configs/<APP_ENV>/billing.yaml (or $CONFIG_PATH) and applies
// BILLING_* environment overrides.
func LoadConfig() (*Config, error) {
	src, err := pkgconfig.Load(ServiceName, pkgconfig.WithDefaults(Default()))
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := src.Decode(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the values used when a key is absent from the file.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        ServiceName,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Server: ServerConfig{
			HTTP: HTTPConfig{
				Port:            8080,
				ReadTimeout:     15 * time.Second,
				WriteTimeout:    15 * time.Second,
				BodyLimit:       "1M",
				RateLimitPerSec: 5,
			},
			GRPC: GRPCConfig{Port: 9090},
		},
		Log: logger.Config{Level: "info", Format: "json", Output: "stdout"},
		Email: EmailConfig{
			Port: 587,
		},
		Redis: RedisConfig{
			WelcomeQueue: "billing:welcome",
		},
	}
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if c.Service.Stripe.SecretKey == "" {
		missing = append(missing, "service.stripe.secret_key")
	}
	if c.Service.Stripe.WebhookSecret == "" {
		missing = append(missing, "service.stripe.webhook_secret")
	}
	if c.Service.Stripe.PriceID == "" {
		missing = append(missing, "service.stripe.price_id")
	}
	if c.Service.Supabase.JWTSecret == "" {
		missing = append(missing, "service.supabase.jwt_secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}
