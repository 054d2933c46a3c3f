package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
service:
  environment: production
  client_url: https://app.jetdesk.io
  redirect:
    production_host: jetdesk.io
    canonical_domain: vercel.app
    canonical_origin: https://jetdesk.vercel.app
  stripe:
    secret_key: sk_test_123
    webhook_secret: whsec_123
    price_id: price_123
  supabase:
    jwt_secret: jwt-secret
database:
  host: db.internal
  name: crm
  user: billing
  conn_max_lifetime: 1h
server:
  http:
    port: 8181
reconcile:
  interval: 15m
`

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "billing.yaml"), []byte(testYAML), 0o600))
	t.Setenv("CONFIG_PATH", dir)
	t.Setenv("BILLING_DATABASE_PASSWORD", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.Service.IsProduction())
	assert.Equal(t, "price_123", cfg.Service.Stripe.PriceID)
	assert.Equal(t, "https://jetdesk.vercel.app", cfg.Service.Redirect.CanonicalOrigin)
	assert.Equal(t, 8181, cfg.Server.HTTP.Port)
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 15*time.Minute, cfg.Reconcile.Interval)
	assert.Equal(t, "host=db.internal port=5432 user=billing password=secret dbname=crm sslmode=disable", cfg.Database.DSN())

	// defaults survive for keys absent from the file
	assert.Equal(t, "1M", cfg.Server.HTTP.BodyLimit)
	assert.Equal(t, "billing:welcome", cfg.Redis.WelcomeQueue)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service.stripe.secret_key")
	assert.Contains(t, err.Error(), "service.supabase.jwt_secret")

	cfg.Service.Stripe = StripeConfig{SecretKey: "sk", WebhookSecret: "wh", PriceID: "price"}
	cfg.Service.Supabase.JWTSecret = "jwt"
	assert.NoError(t, cfg.Validate())
}
