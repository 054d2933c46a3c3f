package database

import (
	"context"
	"testing"
	"time"

	"github.com/jetdesk/billing/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedPool struct {
	open, idle    int
	life, idleFor time.Duration
}

func (p *recordedPool) SetMaxOpenConns(n int)              { p.open = n }
func (p *recordedPool) SetMaxIdleConns(n int)              { p.idle = n }
func (p *recordedPool) SetConnMaxLifetime(d time.Duration) { p.life = d }
func (p *recordedPool) SetConnMaxIdleTime(d time.Duration) { p.idleFor = d }

func TestConfigurePool(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.DatabaseConfig
		wantIdle int
	}{
		{"idle within open", config.DatabaseConfig{MaxOpenConns: 25, MaxIdleConns: 5}, 5},
		{"idle capped at open", config.DatabaseConfig{MaxOpenConns: 4, MaxIdleConns: 10}, 4},
		{"unlimited open", config.DatabaseConfig{MaxOpenConns: 0, MaxIdleConns: 10}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ConnMaxLifetime = time.Hour
			tt.cfg.ConnMaxIdleTime = 10 * time.Minute
			p := &recordedPool{}

			configurePool(p, &tt.cfg)

			assert.Equal(t, tt.cfg.MaxOpenConns, p.open)
			assert.Equal(t, tt.wantIdle, p.idle)
			assert.Equal(t, time.Hour, p.life)
			assert.Equal(t, 10*time.Minute, p.idleFor)
		})
	}
}

func TestGormConfig(t *testing.T) {
	c := gormConfig(zap.NewNop())

	assert.True(t, c.DisableAutomaticPing)
	assert.True(t, c.PrepareStmt)
	assert.True(t, c.DisableForeignKeyConstraintWhenMigrating)
	assert.NotNil(t, c.Logger)
}

func TestOpen_Unreachable(t *testing.T) {
	cfg := &config.DatabaseConfig{Host: "127.0.0.1", Port: 1, Name: "billing", User: "billing"}

	start := time.Now()
	db, err := Open(context.Background(), cfg, zap.NewNop())

	require.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
	assert.Less(t, time.Since(start), connectTimeout+time.Second)
}
