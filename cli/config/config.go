package config

import (
	"fmt"
	"time"
)

// Config represents a gangway.yaml configuration file.
// All values are optional and act as defaults for gangway flags.
// CLI flags always override config values.
type Config struct {
	Pool     PoolConfig     `yaml:"pool"`
	Transfer TransferConfig `yaml:"transfer"`
	Emitter  EmitterConfig  `yaml:"emitter"`
	Audit    AuditConfig    `yaml:"audit"`
}

// PoolConfig holds connection pool defaults from the config file.
type PoolConfig struct {
	DialTimeout       Duration `yaml:"dial_timeout"`
	ChannelTimeout    Duration `yaml:"channel_timeout"`
	KeepaliveInterval Duration `yaml:"keepalive_interval"`
	StaleAfter        Duration `yaml:"stale_after"`
}

// TransferConfig holds orchestrator defaults from the config file.
type TransferConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
	ChunkSize     int `yaml:"chunk_size"`
	QueueCapacity int `yaml:"queue_capacity"`
	// ChunkTimeout bounds how long one chunk may stall before the
	// transfer fails.
	ChunkTimeout Duration `yaml:"chunk_timeout"`
}

// EmitterConfig holds event emitter defaults from the config file.
type EmitterConfig struct {
	// Type selects the emitter: webhook, redis, stream, or none.
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// AuditConfig holds audit sink defaults from the config file.
type AuditConfig struct {
	Path string `yaml:"path"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "60s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "60s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Validate checks numeric ranges that would otherwise surface as
// confusing runtime behavior.
func (c *Config) Validate() error {
	if c.Transfer.MaxConcurrent < 0 {
		return fmt.Errorf("transfer.max_concurrent must be >= 0, got %d", c.Transfer.MaxConcurrent)
	}
	if c.Transfer.ChunkSize < 0 {
		return fmt.Errorf("transfer.chunk_size must be >= 0, got %d", c.Transfer.ChunkSize)
	}
	if c.Transfer.QueueCapacity < 0 {
		return fmt.Errorf("transfer.queue_capacity must be >= 0, got %d", c.Transfer.QueueCapacity)
	}
	switch c.Emitter.Type {
	case "", "none", "webhook", "redis", "stream":
	default:
		return fmt.Errorf("unknown emitter type %q", c.Emitter.Type)
	}
	return nil
}
