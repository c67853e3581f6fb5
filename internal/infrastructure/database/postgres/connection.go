// Package postgres provides the connection pool used by the validation
// driver's bibliographic-reference cache (the only component in the
// pipeline backed by a relational store).
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/culturemech/culturemech/internal/config"
	"github.com/culturemech/culturemech/internal/telemetry/logging"
)

const (
	// maxRetries is the maximum number of connection attempts before giving up.
	maxRetries = 5

	// initialRetryDelay is the starting delay between retry attempts.
	// Subsequent attempts use exponential backoff: 1s, 2s, 4s, 8s.
	initialRetryDelay = 1 * time.Second

	defaultMaxConns          = 25
	defaultMinConns          = 5
	defaultMaxConnLifetime   = 1 * time.Hour
	defaultMaxConnIdleTime   = 30 * time.Minute
	defaultHealthCheckPeriod = 1 * time.Minute
)

// NewConnectionPool creates and initializes a pgxpool.Pool with exponential
// backoff retry logic. The returned pool must be closed by the caller via
// Close() when the application shuts down.
func NewConnectionPool(cfg config.DatabaseConfig, logger logging.Logger) (*pgxpool.Pool, error) {
	connString := buildConnString(cfg)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	configurePool(poolConfig, cfg)

	var pool *pgxpool.Pool
	retryDelay := initialRetryDelay

	for attempt := 1; attempt <= maxRetries; attempt++ {
		logger.Info("attempting database connection",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", maxRetries),
			logging.String("host", cfg.Host),
			logging.Int("port", cfg.Port),
			logging.String("db_name", cfg.DBName),
		)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		cancel()

		if err == nil {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = pool.Ping(pingCtx)
			pingCancel()

			if err == nil {
				logger.Info("database connection established",
					logging.String("host", cfg.Host),
					logging.Int("port", cfg.Port),
					logging.String("db_name", cfg.DBName),
					logging.Int64("max_conns", int64(poolConfig.MaxConns)),
				)
				return pool, nil
			}

			pool.Close()
			logger.Warn("database ping failed", logging.Int("attempt", attempt), logging.Err(err))
		} else {
			logger.Warn("failed to create connection pool", logging.Int("attempt", attempt), logging.Err(err))
		}

		if attempt == maxRetries {
			return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
		}

		logger.Info("retrying database connection", logging.Float64("delay_seconds", retryDelay.Seconds()))
		time.Sleep(retryDelay)
		retryDelay *= 2
	}

	return nil, fmt.Errorf("connection retry logic exhausted")
}

// Close gracefully shuts down the connection pool. The pool must not be used
// after calling Close.
func Close(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}

// HealthCheck executes a SELECT 1 query to verify the pool is reachable.
func HealthCheck(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("connection pool is nil")
	}
	var result int
	if err := pool.QueryRow(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("health check query failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("health check returned unexpected value: %d", result)
	}
	return nil
}

func buildConnString(cfg config.DatabaseConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.SSLMode,
	)
}

func configurePool(poolConfig *pgxpool.Config, cfg config.DatabaseConfig) {
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	} else {
		poolConfig.MaxConns = defaultMaxConns
	}

	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	} else {
		poolConfig.MinConns = defaultMinConns
	}

	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	} else {
		poolConfig.MaxConnLifetime = defaultMaxConnLifetime
	}

	if cfg.ConnMaxIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime
	} else {
		poolConfig.MaxConnIdleTime = defaultMaxConnIdleTime
	}

	poolConfig.HealthCheckPeriod = defaultHealthCheckPeriod
}

// WithTransaction executes fn within a database transaction, rolling back on
// error or panic and committing otherwise.
func WithTransaction(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) (err error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				err = fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, err)
			}
		} else {
			if cmtErr := tx.Commit(ctx); cmtErr != nil {
				err = fmt.Errorf("commit failed: %w", cmtErr)
			}
		}
	}()

	err = fn(tx)
	return err
}
