package db

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/logging"
)

// Database holds the database connection pool
type Database struct {
	Pool *pgxpool.Pool
}

// Config holds database configuration. URL wins over the discrete fields.
type Config struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ConnString builds a pgx connection string from the discrete fields.
func (c Config) ConnString() string {
	if c.URL != "" {
		return c.URL
	}
	if c.Password == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.DBName, c.SSLMode)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// NewDatabase connects with the default retry policy (5 attempts, 1s base delay)
func NewDatabase(ctx context.Context, cfg Config) (*Database, error) {
	return NewDatabaseWithRetry(ctx, cfg, 5, time.Second)
}

// NewDatabaseWithRetry creates a new database connection with configurable retry logic
// for serverless databases that may be cold-starting.
func NewDatabaseWithRetry(ctx context.Context, cfg Config, maxRetries int, initialDelay time.Duration) (*Database, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = 20
	poolConfig.MinConns = 0
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	origHost := poolConfig.ConnConfig.Host

	// Simple protocol keeps us compatible with transaction-mode poolers
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	poolConfig.ConnConfig.DialFunc = func(ctx context.Context, network, address string) (net.Conn, error) {
		// Prefer IPv4 when available, fall back to dual-stack
		host, port, err := net.SplitHostPort(address)
		if err != nil || host == "" || port == "" {
			host = origHost
			port = "5432"
		}
		ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err == nil {
			for _, ipa := range ips {
				if ipv4 := ipa.IP.To4(); ipv4 != nil {
					return (&net.Dialer{}).DialContext(ctx, "tcp4", net.JoinHostPort(ipv4.String(), port))
				}
			}
		}
		return (&net.Dialer{}).DialContext(ctx, network, address)
	}
	if poolConfig.ConnConfig.TLSConfig != nil && poolConfig.ConnConfig.TLSConfig.ServerName == "" {
		poolConfig.ConnConfig.TLSConfig.ServerName = origHost
	}

	var pool *pgxpool.Pool
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		logging.LogKV(logging.LevelInfo, "database connection attempt", logging.Fields{
			"attempt": attempt,
			"retries": maxRetries,
			"user":    poolConfig.ConnConfig.User,
			"host":    poolConfig.ConnConfig.Host,
			"port":    poolConfig.ConnConfig.Port,
		})

		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err = pool.Ping(pingCtx)
			cancel()
			if err == nil {
				break
			}
			pool.Close()
			pool = nil
			lastErr = fmt.Errorf("failed to ping database: %w", err)
		} else {
			lastErr = fmt.Errorf("failed to create connection pool: %w", err)
		}

		logging.LogKV(logging.LevelWarn, "database connection failed", logging.Fields{
			"attempt": attempt,
			"error":   lastErr,
		})
		if attempt < maxRetries {
			// Exponential backoff: 1s, 2s, 4s, 8s
			delay := initialDelay * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	if pool == nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, lastErr)
	}

	logging.LogKV(logging.LevelInfo, "database connection established", nil)
	return &Database{Pool: pool}, nil
}

// Close closes the database connection pool
func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		logging.LogKV(logging.LevelInfo, "database connection pool closed", nil)
	}
}

// Health checks if the database is healthy
func (db *Database) Health(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
