// Package main provides the gangway CLI entrypoint.
//
// Usage:
//
//	gangway <command> [subcommand] [options]
//
// Exit codes for `copy`:
//   - 0: transfer completed
//   - 1: transfer failed or cancelled
//   - 2: connection failure
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/gangway/cli/cmd"
	"github.com/pithecene-io/gangway/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "gangway",
		Usage:          "SSH/SFTP file bridge CLI",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.CopyCommand(),
			cmd.RemoteCommand(),
			cmd.AttrsCommand(),
			cmd.AuditCommand(),
			cmd.VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled cli.ExitCoder errors; this
		// branch covers unexpected unwrapped errors.
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit() so the copy
// command's codes survive to the shell.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N"; skip those.
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
