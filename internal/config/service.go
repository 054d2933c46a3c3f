package config

import "time"

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	// ClientURL is the redirect base when a request carries no Origin header.
	ClientURL string         `yaml:"client_url"`
	Redirect  RedirectConfig `yaml:"redirect"`
	Stripe    StripeConfig   `yaml:"stripe"`
	Supabase  SupabaseConfig `yaml:"supabase"`
}

// RedirectConfig controls the checkout success/cancel URL base.
// An origin on ProductionHost (or a subdomain) that is not on CanonicalDomain
// is rewritten to CanonicalOrigin.
type RedirectConfig struct {
	ProductionHost  string `yaml:"production_host"`
	CanonicalDomain string `yaml:"canonical_domain"`
	CanonicalOrigin string `yaml:"canonical_origin"`
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
	PriceID       string `yaml:"price_id"`
	// APIURL overrides the Stripe API base (stripe-mock, tests).
	APIURL string `yaml:"api_url"`
}

type SupabaseConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type EmailConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
	// AppURL is linked from the welcome email.
	AppURL string `yaml:"app_url"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// WelcomeQueue is the Redis list welcome emails are queued on.
	WelcomeQueue string `yaml:"welcome_queue"`
}

type ReconcileConfig struct {
	// Interval of the in-process reconciliation loop. 0 disables it.
	Interval time.Duration `yaml:"interval"`
	// Per-run cap on companies fetched from Stripe. 0 means no cap.
	BatchSize int `yaml:"batch_size"`
}

func (c ServiceConfig) IsProduction() bool {
	return c.Environment == "production"
}
