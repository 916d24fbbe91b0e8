package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/gangway/audit"
	"github.com/pithecene-io/gangway/cli/render"
	"github.com/pithecene-io/gangway/iox"
	"github.com/pithecene-io/gangway/log"
	"github.com/pithecene-io/gangway/metrics"
	"github.com/pithecene-io/gangway/sshpool"
	"github.com/pithecene-io/gangway/transfer"
	"github.com/pithecene-io/gangway/types"
)

// Exit codes for the copy command.
const (
	exitSuccess          = 0
	exitTransferFailed   = 1
	exitConnectionFailed = 2
)

// CopyResponse is the terminal report for one copy invocation.
type CopyResponse struct {
	TaskID     string  `json:"task_id"`
	Connection string  `json:"connection"`
	Direction  string  `json:"direction"`
	Source     string  `json:"source"`
	Dest       string  `json:"dest"`
	Status     string  `json:"status"`
	Bytes      int64   `json:"bytes"`
	Seconds    float64 `json:"seconds"`
	Error      string  `json:"error,omitempty"`
}

// CopyCommand returns the copy command, the only command that moves
// bytes.
func CopyCommand() *cli.Command {
	flags := connectionFlags()
	flags = append(flags,
		&cli.StringFlag{
			Name:     "direction",
			Usage:    "Transfer direction: upload or download",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "source",
			Usage:    "Source path (local for upload, remote for download)",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "dest",
			Usage:    "Destination path (remote for upload, local for download)",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "Suppress result output",
		},
		ConfigFlag,
		FormatFlag,
	)
	return &cli.Command{
		Name:   "copy",
		Usage:  "Copy a file to or from a remote host over SFTP",
		Flags:  flags,
		Action: copyAction,
	}
}

func copyAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitTransferFailed)
	}

	direction := types.Direction(c.String("direction"))
	if !direction.Valid() {
		return cli.Exit(fmt.Sprintf("direction must be upload or download, got %q", direction), exitTransferFailed)
	}

	logger := log.NewLogger()
	collector := metrics.NewCollector()

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
		Logger:            logger,
		Emitter:           emitter,
		Audit:             recorder,
		Metrics:           collector,
	})
	defer iox.DiscardClose(pool)

	sshCfg := connectionConfig(c)
	connID, err := pool.Connect(ctx, sshCfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("connect %s: %v", sshCfg.Identity(), err), exitConnectionFailed)
	}

	orch := transfer.NewOrchestrator(transfer.Options{
		Remotes:       pool,
		MaxConcurrent: cfg.Transfer.MaxConcurrent,
		ChunkSize:     cfg.Transfer.ChunkSize,
		QueueCapacity: cfg.Transfer.QueueCapacity,
		ChunkTimeout:  cfg.Transfer.ChunkTimeout.Duration,
		Logger:        logger,
		Emitter:       emitter,
		Audit:         recorder,
		Metrics:       collector,
	})
	defer iox.DiscardClose(orch)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go orch.Run(runCtx)

	id, err := orch.Submit(ctx, connID, c.String("source"), c.String("dest"), direction)
	if err != nil {
		return cli.Exit(fmt.Sprintf("submit: %v", err), exitTransferFailed)
	}

	snap, err := waitTerminal(ctx, orch, id)
	if err != nil {
		orch.Cancel(id)
		return cli.Exit(err.Error(), exitTransferFailed)
	}

	resp := CopyResponse{
		TaskID:     string(snap.ID),
		Connection: string(snap.Connection),
		Direction:  string(snap.Direction),
		Source:     snap.SourcePath,
		Dest:       snap.DestPath,
		Status:     string(snap.Status),
		Bytes:      snap.TransferredBytes,
		Error:      snap.Error,
	}
	if snap.StartedAt != nil && snap.CompletedAt != nil {
		resp.Seconds = snap.CompletedAt.Sub(*snap.StartedAt).Seconds()
	}

	if !c.Bool("quiet") {
		r, err := render.NewRenderer(c)
		if err != nil {
			return cli.Exit(err.Error(), exitTransferFailed)
		}
		if err := r.Render(resp); err != nil {
			return cli.Exit(err.Error(), exitTransferFailed)
		}
	}

	if snap.Status != types.StatusCompleted {
		return cli.Exit("", exitTransferFailed)
	}
	return nil
}

// waitTerminal polls until the task reaches a terminal state or ctx is
// cancelled (interrupt).
func waitTerminal(ctx context.Context, orch *transfer.Orchestrator, id types.TaskID) (types.TransferTask, error) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return types.TransferTask{}, fmt.Errorf("interrupted: %w", ctx.Err())
		case <-ticker.C:
			snap, ok := orch.Store().Snapshot(id)
			if !ok {
				return types.TransferTask{}, fmt.Errorf("task %s disappeared", id)
			}
			if snap.Status.Terminal() || snap.Status == types.StatusFailed {
				return snap, nil
			}
		}
	}
}
