// Package redispub implements a Redis pub/sub event emitter.
//
// Publishes event envelopes as JSON to a configurable Redis channel.
// Retries with exponential backoff on connection errors.
package redispub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pithecene-io/gangway/emit"
	"github.com/pithecene-io/gangway/types"
)

// DefaultChannel is the default pub/sub channel name.
const DefaultChannel = "gangway:events"

// DefaultTimeout is the default per-publish timeout.
const DefaultTimeout = 5 * time.Second

// DefaultRetries is the default number of retry attempts.
const DefaultRetries = 3

// Config configures the Redis pub/sub emitter.
type Config struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string
	// Channel is the pub/sub channel name (default: gangway:events).
	Channel string
	// Timeout is the per-publish timeout (default 5s).
	Timeout time.Duration
	// Retries is the number of retry attempts on failure (default 3).
	Retries int
}

// Emitter publishes event envelopes via Redis PUBLISH.
type Emitter struct {
	config Config
	client *goredis.Client
}

// New creates a Redis pub/sub emitter from the given config.
// Returns an error if the URL is empty or invalid.
func New(cfg Config) (*Emitter, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis emitter requires a URL")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis emitter: invalid URL: %w", err)
	}

	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}

	return &Emitter{
		config: cfg,
		client: goredis.NewClient(opts),
	}, nil
}

// Emit sends the envelope as a JSON PUBLISH to the configured channel.
// Retries with exponential backoff on failures.
func (e *Emitter) Emit(ctx context.Context, envelope *types.EventEnvelope) error {
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("redis: marshal envelope: %w", err)
	}

	var lastErr error
	// attempts = 1 initial + retries
	attempts := 1 + e.config.Retries

	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("redis: context canceled: %w", err)
		}

		// Exponential backoff before retries (not before first attempt)
		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return fmt.Errorf("redis: context canceled during backoff: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		publishCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
		lastErr = e.client.Publish(publishCtx, e.config.Channel, body).Err()
		cancel()

		if lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("redis: failed after %d attempts: %w", attempts, lastErr)
}

// Close releases emitter resources.
func (e *Emitter) Close() error {
	return e.client.Close()
}

// Verify Emitter implements the emitter interface.
var _ emit.Emitter = (*Emitter)(nil)
