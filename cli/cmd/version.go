package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/gangway/cli/render"
	"github.com/pithecene-io/gangway/types"
)

// VersionResponse is the response for the version command.
type VersionResponse struct {
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	WireVersion string `json:"wire_version"`
}

// VersionCommand returns the version command. It never touches a host.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show version information",
		Flags:  ReadOnlyFlags(),
		Action: versionAction(commit),
	}
}

func versionAction(commit string) cli.ActionFunc {
	return func(c *cli.Context) error {
		r, err := render.NewRenderer(c)
		if err != nil {
			return err
		}
		return r.Render(VersionResponse{
			Version:     types.Version,
			Commit:      commit,
			WireVersion: types.WireVersion,
		})
	}
}
