package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"
	"sort"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/gangway/attr"
	"github.com/pithecene-io/gangway/audit"
	"github.com/pithecene-io/gangway/cli/render"
	"github.com/pithecene-io/gangway/iox"
	"github.com/pithecene-io/gangway/log"
	"github.com/pithecene-io/gangway/metrics"
	"github.com/pithecene-io/gangway/sshpool"
)

// RemoteEntry is one row of a remote directory listing.
type RemoteEntry struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Dir      bool   `json:"dir"`
	Mode     string `json:"mode"`
	Modified string `json:"modified"`
}

// RemotePermsResponse reports the permission bits of one remote path,
// in both POSIX and Windows attribute terms.
type RemotePermsResponse struct {
	Path    string `json:"path"`
	Octal   string `json:"octal"`
	Mode    string `json:"mode"`
	Windows string `json:"windows"`
}

// RemoteCommand returns the remote command group: small file-manager
// operations over an SFTP session.
func RemoteCommand() *cli.Command {
	return &cli.Command{
		Name:  "remote",
		Usage: "Inspect and manage files on a remote host",
		Subcommands: []*cli.Command{
			remoteLsCommand(),
			remoteRmCommand(),
			remoteStatCommand(),
			remoteChmodCommand(),
		},
	}
}

func remoteFlags(extra ...cli.Flag) []cli.Flag {
	flags := connectionFlags()
	flags = append(flags, ConfigFlag, FormatFlag)
	return append(flags, extra...)
}

func remoteLsCommand() *cli.Command {
	return &cli.Command{
		Name:      "ls",
		Usage:     "List a remote directory",
		ArgsUsage: "<path>",
		Flags:     remoteFlags(),
		Action: func(c *cli.Context) error {
			dir, err := pathArg(c)
			if err != nil {
				return err
			}
			return withRemoteFS(c, func(fs sshpool.RemoteFS) error {
				entries, err := listRemoteDir(fs, dir)
				if err != nil {
					return cli.Exit(fmt.Sprintf("list %s: %v", dir, err), exitTransferFailed)
				}
				return renderResult(c, entries)
			})
		},
	}
}

func remoteRmCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Delete a remote file or empty directory",
		ArgsUsage: "<path>",
		Flags:     remoteFlags(),
		Action: func(c *cli.Context) error {
			target, err := pathArg(c)
			if err != nil {
				return err
			}
			return withRemoteFS(c, func(fs sshpool.RemoteFS) error {
				if err := removeRemote(fs, target); err != nil {
					return cli.Exit(fmt.Sprintf("remove %s: %v", target, err), exitTransferFailed)
				}
				return nil
			})
		},
	}
}

func remoteStatCommand() *cli.Command {
	return &cli.Command{
		Name:      "stat",
		Usage:     "Show the permissions of a remote path",
		ArgsUsage: "<path>",
		Flags:     remoteFlags(),
		Action: func(c *cli.Context) error {
			target, err := pathArg(c)
			if err != nil {
				return err
			}
			return withRemoteFS(c, func(fs sshpool.RemoteFS) error {
				resp, err := readRemotePerms(fs, target)
				if err != nil {
					return cli.Exit(fmt.Sprintf("stat %s: %v", target, err), exitTransferFailed)
				}
				return renderResult(c, resp)
			})
		},
	}
}

func remoteChmodCommand() *cli.Command {
	return &cli.Command{
		Name:      "chmod",
		Usage:     "Set the permissions of a remote path",
		ArgsUsage: "<path>",
		Flags: remoteFlags(&cli.UintFlag{
			Name:     "octal",
			Usage:    "POSIX permission bits in octal, e.g. 644",
			Required: true,
		}),
		Action: func(c *cli.Context) error {
			target, err := pathArg(c)
			if err != nil {
				return err
			}
			return withRemoteFS(c, func(fs sshpool.RemoteFS) error {
				if err := setRemotePerms(fs, target, c.Uint("octal")); err != nil {
					return cli.Exit(fmt.Sprintf("chmod %s: %v", target, err), exitTransferFailed)
				}
				return nil
			})
		},
	}
}

func pathArg(c *cli.Context) (string, error) {
	target := c.Args().First()
	if target == "" {
		return "", cli.Exit("a remote path argument is required", exitTransferFailed)
	}
	return target, nil
}

func renderResult(c *cli.Context, data any) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitTransferFailed)
	}
	if err := r.Render(data); err != nil {
		return cli.Exit(err.Error(), exitTransferFailed)
	}
	return nil
}

// withRemoteFS connects a pooled session from the connection flags and
// hands its file surface to fn. The session is torn down when fn
// returns.
func withRemoteFS(c *cli.Context, fn func(fs sshpool.RemoteFS) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitTransferFailed)
	}

	var recorder audit.Recorder = audit.Nop{}
	if cfg.Audit.Path != "" {
		auditLog, err := audit.Open(cfg.Audit.Path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("open audit log: %v", err), exitTransferFailed)
		}
		defer iox.DiscardClose(auditLog)
		recorder = auditLog
	}

	emitter, err := buildEmitter(cfg.Emitter)
	if err != nil {
		return cli.Exit(err.Error(), exitTransferFailed)
	}
	defer iox.DiscardClose(emitter)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := sshpool.NewPool(sshpool.Options{
		Dialer:            &sshpool.SSHDialer{},
		DialTimeout:       cfg.Pool.DialTimeout.Duration,
		ChannelTimeout:    cfg.Pool.ChannelTimeout.Duration,
		KeepaliveInterval: cfg.Pool.KeepaliveInterval.Duration,
		StaleAfter:        cfg.Pool.StaleAfter.Duration,
		Logger:            log.NewLogger(),
		Emitter:           emitter,
		Audit:             recorder,
		Metrics:           metrics.NewCollector(),
	})
	defer iox.DiscardClose(pool)

	sshCfg := connectionConfig(c)
	connID, err := pool.Connect(ctx, sshCfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("connect %s: %v", sshCfg.Identity(), err), exitConnectionFailed)
	}
	fs, ok := pool.Remote(connID)
	if !ok {
		return cli.Exit(fmt.Sprintf("session %s lost", connID), exitConnectionFailed)
	}
	return fn(fs)
}

// listRemoteDir reads one directory and shapes it for rendering,
// sorted by name.
func listRemoteDir(fs sshpool.RemoteFS, dir string) ([]RemoteEntry, error) {
	infos, err := fs.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]RemoteEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, RemoteEntry{
			Name:     info.Name(),
			Path:     path.Join(dir, info.Name()),
			Size:     info.Size(),
			Dir:      info.IsDir(),
			Mode:     info.Mode().String(),
			Modified: info.ModTime().UTC().Format(time.RFC3339),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// removeRemote deletes one remote path. The stat up front turns a
// missing path into a clear error before the delete is attempted.
func removeRemote(fs sshpool.RemoteFS, target string) error {
	if _, err := fs.Stat(target); err != nil {
		return err
	}
	return fs.Remove(target)
}

func readRemotePerms(fs sshpool.RemoteFS, target string) (RemotePermsResponse, error) {
	info, err := fs.Stat(target)
	if err != nil {
		return RemotePermsResponse{}, err
	}
	perms := attr.FromOctal(uint32(info.Mode().Perm()))
	return RemotePermsResponse{
		Path:    target,
		Octal:   fmt.Sprintf("%03o", perms.Octal()),
		Mode:    info.Mode().String(),
		Windows: windowsLetters(attr.PosixToWindows(perms)),
	}, nil
}

func setRemotePerms(fs sshpool.RemoteFS, target string, octal uint) error {
	mode, err := parseOctal(octal)
	if err != nil {
		return err
	}
	return fs.Chmod(target, attr.FromOctal(mode).FileMode())
}
