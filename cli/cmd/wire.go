package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/gangway/cli/config"
	"github.com/pithecene-io/gangway/emit"
	"github.com/pithecene-io/gangway/emit/redispub"
	"github.com/pithecene-io/gangway/emit/webhook"
)

// loadConfig resolves the effective config: the --config file when
// given, package defaults otherwise.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.Default(), nil
}

// buildEmitter constructs the event emitter named by the config.
// Type "stream" frames events onto stdout for a parent process to read.
func buildEmitter(cfg config.EmitterConfig) (emit.Emitter, error) {
	switch cfg.Type {
	case "", "none":
		return emit.Null{}, nil
	case "webhook":
		retries := webhook.DefaultRetries
		if cfg.Retries != nil {
			retries = *cfg.Retries
		}
		return webhook.New(webhook.Config{
			URL:     cfg.URL,
			Headers: cfg.Headers,
			Timeout: cfg.Timeout.Duration,
			Retries: retries,
		})
	case "redis":
		return redispub.New(redispub.Config{
			URL:     cfg.URL,
			Channel: cfg.Channel,
		})
	case "stream":
		return emit.NewStream(os.Stdout), nil
	default:
		return nil, fmt.Errorf("unknown emitter type %q", cfg.Type)
	}
}
