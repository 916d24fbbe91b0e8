package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/pithecene-io/gangway/attr"
	"github.com/pithecene-io/gangway/audit"
	"github.com/pithecene-io/gangway/iox"
	"github.com/pithecene-io/gangway/sshpool"
	"github.com/pithecene-io/gangway/types"
)

// errCancelled aborts a copy loop when the task was cancelled. The
// cancel itself already applied the terminal transition.
var errCancelled = errors.New("transfer cancelled")

// copyTask moves the file for one task, chunk by chunk. Progress is
// recorded and emitted after every chunk; cancellation is observed at
// chunk boundaries.
func (o *Orchestrator) copyTask(ctx context.Context, task types.TransferTask) error {
	remote, ok := o.remotes.Remote(task.Connection)
	if !ok {
		return fmt.Errorf("session %s not connected", task.Connection)
	}

	switch task.Direction {
	case types.DirectionUpload:
		src, err := os.Open(task.SourcePath)
		if err != nil {
			return fmt.Errorf("open source: %w", err)
		}
		defer iox.DiscardClose(src)

		// Remote paths are slash-separated regardless of the local OS.
		if dir := path.Dir(task.DestPath); dir != "." && dir != "/" {
			if err := remote.MkdirAll(dir); err != nil {
				return fmt.Errorf("create remote directory: %w", err)
			}
		}

		destPath, err := o.resolveCaseConflict(remote, task)
		if err != nil {
			return err
		}

		dst, err := remote.Create(destPath)
		if err != nil {
			return fmt.Errorf("create remote file: %w", err)
		}
		if err := o.pump(ctx, task.ID, src, dst); err != nil {
			_ = dst.Close()
			return err
		}
		if err := dst.Close(); err != nil {
			return fmt.Errorf("close remote file: %w", err)
		}

		// Best-effort permission carry-over; failure never fails the
		// transfer itself.
		if attrs, aerr := attr.FromPath(task.SourcePath); aerr == nil {
			perms := attr.WindowsToPosix(attrs)
			_ = remote.Chmod(destPath, perms.FileMode())
		}
		return nil

	case types.DirectionDownload:
		src, err := remote.Open(task.SourcePath)
		if err != nil {
			return fmt.Errorf("open remote source: %w", err)
		}
		defer iox.DiscardClose(src)

		if dir := filepath.Dir(task.DestPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create local directory: %w", err)
			}
		}
		dst, err := os.Create(task.DestPath)
		if err != nil {
			return fmt.Errorf("create local file: %w", err)
		}
		if err := o.pump(ctx, task.ID, src, dst); err != nil {
			_ = dst.Close()
			return err
		}
		if err := dst.Close(); err != nil {
			return fmt.Errorf("close local file: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unknown direction %q", task.Direction)
	}
}

// resolveCaseConflict checks the upload destination against its
// directory listing. A name colliding only under case folding gets the
// proposed stem_N rename; the store and audit trail record the change.
func (o *Orchestrator) resolveCaseConflict(remote sshpool.RemoteFS, task types.TransferTask) (string, error) {
	destDir := path.Dir(task.DestPath)
	base := path.Base(task.DestPath)

	entries, err := remote.ReadDir(destDir)
	if err != nil || len(entries) == 0 {
		// Unreadable or empty directory means nothing to collide with.
		return task.DestPath, nil
	}
	names := make([]string, 0, len(entries))
	for _, info := range entries {
		names = append(names, info.Name())
	}

	conflict, err := o.caseChecker.Check(base, names)
	if err != nil {
		return "", fmt.Errorf("resolve case conflict: %w", err)
	}
	if conflict == nil {
		return task.DestPath, nil
	}

	renamed := path.Join(destDir, conflict.Proposed)
	o.caseChecker.Resolve(base, conflict.Proposed)
	o.store.setDestPath(task.ID, renamed)
	o.logger.WithTask(task.ID).Warn("case conflict renamed", map[string]any{
		"original": base,
		"existing": conflict.Existing,
		"proposed": conflict.Proposed,
	})
	o.audit.Record(audit.OpCaseConflict, task.DestPath, renamed, 0, true,
		fmt.Sprintf("collides with %s", conflict.Existing))
	return renamed, nil
}

type chunkResult struct {
	n        int
	readErr  error
	writeErr error
}

// pump copies src to dst in fixed-size chunks, updating the store and
// emitting a progress event after each chunk. Cancellation is observed
// at chunk boundaries, so its worst-case latency is one chunk's I/O
// time. A chunk that makes no progress within the stall timeout fails
// the task; a stalled transport must not hang it forever.
func (o *Orchestrator) pump(ctx context.Context, id types.TaskID, src io.Reader, dst io.Writer) error {
	chunks := make(chan chunkResult)
	go func() {
		defer close(chunks)
		buf := make([]byte, o.chunkSize)
		for {
			n, readErr := src.Read(buf)
			var writeErr error
			if n > 0 {
				_, writeErr = dst.Write(buf[:n])
			}
			chunks <- chunkResult{n: n, readErr: readErr, writeErr: writeErr}
			if readErr != nil || writeErr != nil {
				return
			}
		}
	}()
	// On early exit the copier is still mid-send or mid-I/O; draining
	// lets it finish once the caller closes the file handles.
	drain := func() {
		go func() {
			for range chunks {
			}
		}()
	}

	var written int64
	for {
		var stallC <-chan time.Time
		var stallTimer *time.Timer
		if o.chunkTimeout > 0 {
			stallTimer = time.NewTimer(o.chunkTimeout)
			stallC = stallTimer.C
		}

		select {
		case res, ok := <-chunks:
			if stallTimer != nil {
				stallTimer.Stop()
			}
			if !ok {
				return nil
			}
			if res.writeErr != nil {
				return fmt.Errorf("write chunk: %w", res.writeErr)
			}
			if res.n > 0 {
				written += int64(res.n)
				o.store.SetTransferred(id, written)
				o.emitProgress(ctx, id)
			}
			if res.readErr == io.EOF {
				return nil
			}
			if res.readErr != nil {
				return fmt.Errorf("read chunk: %w", res.readErr)
			}
			if status, ok := o.store.Status(id); ok && status == types.StatusCancelled {
				drain()
				return errCancelled
			}
		case <-ctx.Done():
			drain()
			return ctx.Err()
		case <-stallC:
			drain()
			return fmt.Errorf("chunk made no progress within %s", o.chunkTimeout)
		}
	}
}

func (o *Orchestrator) emitProgress(ctx context.Context, id types.TaskID) {
	snap, ok := o.store.Snapshot(id)
	if !ok {
		return
	}
	envelope := types.NewEnvelope(types.EventTransferProgress)
	progress := types.Progress(&snap, time.Now())
	envelope.Progress = &progress
	o.emitEvent(ctx, id, envelope)
}
