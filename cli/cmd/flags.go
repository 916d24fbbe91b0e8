// Package cmd provides CLI commands for the gangway binary.
package cmd

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/gangway/sshpool"
)

// Shared flags for read-only commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// ConfigFlag points at the YAML config file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config file",
	}
)

// ReadOnlyFlags returns the shared flags for read-only commands.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
	}
}

// connectionConfig builds the SSH config from the connection flags.
// The password is read from the environment rather than argv so it
// never shows up in process listings.
func connectionConfig(c *cli.Context) sshpool.Config {
	cfg := sshpool.Config{
		Host:     c.String("host"),
		Port:     c.Int("port"),
		Username: c.String("user"),
		KeyPath:  c.String("key"),
	}
	if envName := c.String("password-env"); envName != "" {
		cfg.Password = os.Getenv(envName)
	}
	return cfg
}

// connectionFlags are the flags identifying and authenticating a host.
func connectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "host",
			Usage:    "Remote host",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "port",
			Usage: "SSH port",
			Value: 22,
		},
		&cli.StringFlag{
			Name:     "user",
			Usage:    "SSH username",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "key",
			Usage: "Path to private key file",
		},
		&cli.StringFlag{
			Name:  "password-env",
			Usage: "Environment variable holding the SSH password",
		},
	}
}
