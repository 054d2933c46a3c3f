package database

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/jetdesk/billing/internal/config"
	"github.com/jetdesk/billing/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	slowQueryThreshold = 200 * time.Millisecond
	connectTimeout     = 5 * time.Second
)

// pool is the part of *sql.DB the connection settings touch.
type pool interface {
	SetMaxOpenConns(n int)
	SetMaxIdleConns(n int)
	SetConnMaxLifetime(d time.Duration)
	SetConnMaxIdleTime(d time.Duration)
}

// Open connects to Postgres, sizes the pool and waits up to connectTimeout
// for the server to answer.
func Open(ctx context.Context, cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	configurePool(sqlDB, cfg)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("postgres at %s unreachable: %w", address(cfg), err)
	}

	log.Info("Connected to postgres",
		zap.String("addr", address(cfg)),
		zap.String("database", cfg.Name),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
	)
	return db, nil
}

// gormConfig leaves the first ping to Open so it runs under a deadline.
func gormConfig(log *zap.Logger) *gorm.Config {
	return &gorm.Config{
		Logger:                                   logger.NewGormLogger(log, gormlogger.Warn, slowQueryThreshold, true),
		DisableForeignKeyConstraintWhenMigrating: true,
		DisableAutomaticPing:                     true,
		PrepareStmt:                              true,
	}
}

// configurePool applies the pool settings. Idle connections never exceed the open limit.
func configurePool(p pool, cfg *config.DatabaseConfig) {
	idle := cfg.MaxIdleConns
	if cfg.MaxOpenConns > 0 && idle > cfg.MaxOpenConns {
		idle = cfg.MaxOpenConns
	}
	p.SetMaxOpenConns(cfg.MaxOpenConns)
	p.SetMaxIdleConns(idle)
	p.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	p.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}

func address(cfg *config.DatabaseConfig) string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
}

// Ping checks the connection within ctx. Used by health checks.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB, log *zap.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("unwrap sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close postgres: %w", err)
	}
	log.Info("Postgres connection closed")
	return nil
}
