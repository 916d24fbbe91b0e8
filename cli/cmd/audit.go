package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/gangway/audit"
	"github.com/pithecene-io/gangway/cli/render"
	"github.com/pithecene-io/gangway/iox"
)

// AuditCommand returns the audit command group for inspecting the
// JSONL audit trail. Read-only.
func AuditCommand() *cli.Command {
	return &cli.Command{
		Name:  "audit",
		Usage: "Inspect the audit trail",
		Subcommands: []*cli.Command{
			{
				Name:  "tail",
				Usage: "Show the most recent audit entries",
				Flags: append(ReadOnlyFlags(),
					&cli.StringFlag{
						Name:     "log",
						Usage:    "Path to the audit log file",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum entries to show",
						Value: 20,
					},
				),
				Action: auditTailAction,
			},
			{
				Name:  "stats",
				Usage: "Summarize the audit trail",
				Flags: append(ReadOnlyFlags(),
					&cli.StringFlag{
						Name:     "log",
						Usage:    "Path to the audit log file",
						Required: true,
					},
				),
				Action: auditStatsAction,
			},
		},
	}
}

func auditTailAction(c *cli.Context) error {
	auditLog, err := audit.Open(c.String("log"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer iox.DiscardClose(auditLog)

	entries, err := auditLog.Read(c.Int("limit"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(entries)
}

func auditStatsAction(c *cli.Context) error {
	auditLog, err := audit.Open(c.String("log"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer iox.DiscardClose(auditLog)

	stats, err := auditLog.Stats()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(stats)
}
