// Package cache invalidates Redis entries derived from catalog rows after a
// deletion has committed.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/logging"
)

// ErrNotConfigured is wrapped by a ConnectionError when no stage has a url.
var ErrNotConfigured = errors.New("cache: no redis url configured")

// Stage is one place the client may connect to, tried in order.
type Stage struct {
	Name string
	URL  string
}

// ConnectOptions controls Connect.
type ConnectOptions struct {
	Stages []Stage
	// Retries is the number of attempts per stage.
	Retries      int
	InitialDelay time.Duration
	PingTimeout  time.Duration
}

// ConnectionError is returned when every stage failed.
type ConnectionError struct {
	Tried    []string
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cache: could not connect to %s after %d attempts: %v",
		strings.Join(e.Tried, ", "), e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Client is a connected Redis handle.
type Client struct {
	rdb   *redis.Client
	stage string
}

// Connect tries each stage in order with exponential backoff between
// attempts and returns the first client that answers PING.
func Connect(ctx context.Context, opts ConnectOptions) (*Client, error) {
	if opts.Retries < 1 {
		opts.Retries = 1
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 500 * time.Millisecond
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 3 * time.Second
	}

	connErr := &ConnectionError{Err: ErrNotConfigured}
	for _, stage := range opts.Stages {
		if strings.TrimSpace(stage.URL) == "" {
			continue
		}
		connErr.Tried = append(connErr.Tried, stage.Name)

		redisOpts, err := redis.ParseURL(stage.URL)
		if err != nil {
			connErr.Err = fmt.Errorf("invalid %s redis url: %w", stage.Name, err)
			logging.LogKV(logging.LevelWarn, "cache stage skipped", logging.Fields{"stage": stage.Name, "error": err})
			continue
		}
		redisOpts.DialTimeout = opts.PingTimeout

		for attempt := 1; attempt <= opts.Retries; attempt++ {
			connErr.Attempts++
			rdb := redis.NewClient(redisOpts)

			pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
			err = rdb.Ping(pingCtx).Err()
			cancel()
			if err == nil {
				logging.LogKV(logging.LevelInfo, "cache connected", logging.Fields{"stage": stage.Name, "attempt": attempt})
				return &Client{rdb: rdb, stage: stage.Name}, nil
			}
			_ = rdb.Close()

			connErr.Err = fmt.Errorf("%s: %w", stage.Name, err)
			logging.LogKV(logging.LevelWarn, "cache connection failed", logging.Fields{
				"stage":   stage.Name,
				"attempt": attempt,
				"retries": opts.Retries,
				"error":   err,
			})

			if attempt < opts.Retries {
				delay := opts.InitialDelay * time.Duration(1<<(attempt-1))
				select {
				case <-ctx.Done():
					connErr.Err = ctx.Err()
					return nil, connErr
				case <-time.After(delay):
				}
			}
		}
	}
	return nil, connErr
}

// Stage names the stage the client connected through.
func (c *Client) Stage() string { return c.stage }

// Delete removes key and reports whether it existed.
func (c *Client) Delete(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
