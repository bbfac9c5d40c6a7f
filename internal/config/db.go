package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knadh/koanf/v2"
	"github.com/sethvargo/go-retry"
)

// DBConfig holds database connection parameters
type DBConfig struct {
	DSN            string
	ConnectRetries int
	RetryInterval  time.Duration
}

// loadDBConfig prefers DATABASE_URL and falls back to the discrete DB_* variables
func loadDBConfig(k *koanf.Koanf) (*DBConfig, error) {
	cfg := &DBConfig{
		DSN:            k.String("database_url"),
		ConnectRetries: k.Int("db_connect_retries"),
		RetryInterval:  k.Duration("db_retry_interval"),
	}
	if cfg.ConnectRetries < 1 {
		cfg.ConnectRetries = 1
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 5 * time.Second
	}
	if cfg.DSN != "" {
		return cfg, nil
	}

	dbHost := k.String("db_host")
	dbPort := k.String("db_port")
	dbUser := k.String("db_user")
	dbPassword := k.String("db_password")
	dbName := k.String("db_name")

	if dbHost == "" || dbPort == "" || dbUser == "" || dbName == "" {
		return nil, fmt.Errorf("database environment variables not set (DATABASE_URL or DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
	}

	cfg.DSN = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName)
	return cfg, nil
}

// ConnectDB establishes a connection pool to PostgreSQL, retrying while the database comes up
func ConnectDB(ctx context.Context, cfg *DBConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid database dsn: %w", err)
	}

	var pool *pgxpool.Pool
	attempt := 0
	backoff := retry.WithMaxRetries(uint64(cfg.ConnectRetries-1), retry.NewConstant(cfg.RetryInterval))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		p, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = p.Ping(ctx); err == nil {
				pool = p
				return nil
			}
			p.Close()
		}
		logger.Warn("failed to connect to database",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", cfg.ConnectRetries),
			slog.Duration("retry_in", cfg.RetryInterval),
			slog.Any("error", err))
		return retry.RetryableError(err)
	})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", attempt, err)
	}

	logger.Info("connected to PostgreSQL")
	return pool, nil
}

// Schema is the DDL applied by AutoMigrate. users_phone_key backs duplicate-phone detection.
const Schema = `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		phone VARCHAR(10) NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT users_phone_key UNIQUE (phone)
	);
	`

// Execer is the part of a pool AutoMigrate needs
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// AutoMigrate creates tables if they don't exist
func AutoMigrate(ctx context.Context, db Execer, logger *slog.Logger) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}

	logger.Info("auto-migrate applied successfully")
	return nil
}
