package transfer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/pithecene-io/gangway/audit"
	"github.com/pithecene-io/gangway/casemap"
	"github.com/pithecene-io/gangway/emit"
	"github.com/pithecene-io/gangway/log"
	"github.com/pithecene-io/gangway/metrics"
	"github.com/pithecene-io/gangway/sshpool"
	"github.com/pithecene-io/gangway/types"
)

// Defaults for orchestrator sizing. Overridable via Options.
const (
	DefaultMaxConcurrent = 3
	DefaultChunkSize     = 8192
	DefaultQueueCapacity = 256
	DefaultChunkTimeout  = 30 * time.Second
)

// RemoteResolver hands out the remote filesystem for a connection.
// *sshpool.Pool satisfies it.
type RemoteResolver interface {
	Remote(id types.ConnectionID) (sshpool.RemoteFS, bool)
}

var _ RemoteResolver = (*sshpool.Pool)(nil)

// Options configures an Orchestrator. Remotes is required.
type Options struct {
	Remotes       RemoteResolver
	MaxConcurrent int
	ChunkSize     int
	QueueCapacity int
	// ChunkTimeout bounds how long a single chunk may make no progress
	// before the task fails. Negative disables the watchdog.
	ChunkTimeout time.Duration

	Logger  *log.Logger
	Emitter emit.Emitter
	Audit   audit.Recorder
	Metrics *metrics.Collector
}

// Orchestrator drains submitted tasks under a fixed concurrency budget.
//
// Submissions land in a bounded backlog channel; a full backlog is an
// explicit ErrQueueFull, never a silent drop. The drain loop acquires
// the concurrency semaphore before dispatching, so a saturated budget
// backpressures the loop instead of discarding dequeued work.
type Orchestrator struct {
	store   *Store
	remotes RemoteResolver

	backlog      chan types.TaskID
	sem          chan struct{}
	chunkSize    int
	chunkTimeout time.Duration
	caseChecker  *casemap.Checker

	logger  *log.Logger
	emitter emit.Emitter
	audit   audit.Recorder
	metrics *metrics.Collector

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewOrchestrator builds an orchestrator around a fresh store.
func NewOrchestrator(opts Options) *Orchestrator {
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	queueCapacity := opts.QueueCapacity
	if queueCapacity <= 0 {
		queueCapacity = DefaultQueueCapacity
	}
	chunkTimeout := opts.ChunkTimeout
	if chunkTimeout == 0 {
		chunkTimeout = DefaultChunkTimeout
	}
	o := &Orchestrator{
		store:        NewStore(),
		remotes:      opts.Remotes,
		backlog:      make(chan types.TaskID, queueCapacity),
		sem:          make(chan struct{}, maxConcurrent),
		chunkSize:    chunkSize,
		chunkTimeout: chunkTimeout,
		caseChecker:  casemap.NewChecker(),
		logger:       opts.Logger,
		emitter:      opts.Emitter,
		audit:        opts.Audit,
		metrics:      opts.Metrics,
	}
	if o.logger == nil {
		o.logger = log.NewLogger()
	}
	if o.emitter == nil {
		o.emitter = emit.Null{}
	}
	if o.audit == nil {
		o.audit = audit.Nop{}
	}
	return o
}

// Store exposes the task store for read-side callers.
func (o *Orchestrator) Store() *Store { return o.store }

// CaseConflicts returns the case-fold collisions seen on uploads so far.
func (o *Orchestrator) CaseConflicts() []casemap.Conflict {
	return o.caseChecker.Log()
}

// Submit registers a transfer and queues it. TotalBytes is resolved from
// source metadata up front; an unreadable source is ErrSourceUnavailable
// and nothing is registered. A full backlog is ErrQueueFull.
func (o *Orchestrator) Submit(ctx context.Context, conn types.ConnectionID, sourcePath, destPath string, direction types.Direction) (types.TaskID, error) {
	if !direction.Valid() {
		return "", fmt.Errorf("unknown direction %q", direction)
	}
	total, err := o.sourceSize(conn, sourcePath, direction)
	if err != nil {
		return "", err
	}

	task := &types.TransferTask{
		ID:         types.NewTaskID(),
		SourcePath: sourcePath,
		DestPath:   destPath,
		Direction:  direction,
		Status:     types.StatusPending,
		TotalBytes: total,
		CreatedAt:  time.Now(),
		Connection: conn,
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return "", ErrOrchestratorClosed
	}
	o.store.Put(task)
	select {
	case o.backlog <- task.ID:
	default:
		o.store.delete(task.ID)
		o.mu.Unlock()
		return "", fmt.Errorf("%w: capacity %d", ErrQueueFull, cap(o.backlog))
	}
	o.mu.Unlock()

	if o.metrics != nil {
		o.metrics.IncTransferSubmitted()
	}
	o.logger.WithTask(task.ID).Info("transfer submitted", map[string]any{
		"direction":   string(direction),
		"source":      sourcePath,
		"dest":        destPath,
		"total_bytes": total,
	})
	return task.ID, nil
}

// sourceSize resolves the byte count of the transfer source.
func (o *Orchestrator) sourceSize(conn types.ConnectionID, sourcePath string, direction types.Direction) (int64, error) {
	switch direction {
	case types.DirectionUpload:
		info, err := os.Stat(sourcePath)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, sourcePath, err)
		}
		if info.IsDir() {
			return 0, fmt.Errorf("%w: %s: is a directory", ErrSourceUnavailable, sourcePath)
		}
		return info.Size(), nil
	default:
		remote, ok := o.remotes.Remote(conn)
		if !ok {
			return 0, fmt.Errorf("%w: %s: not connected", ErrSourceUnavailable, conn)
		}
		info, err := remote.Stat(sourcePath)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, sourcePath, err)
		}
		return info.Size(), nil
	}
}

// Run drains the backlog until ctx is cancelled. Safe to call once.
func (o *Orchestrator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-o.backlog:
			// Acquire the budget before dispatch so a full budget blocks
			// the loop rather than losing the dequeued task.
			select {
			case o.sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			o.wg.Add(1)
			go func() {
				defer o.wg.Done()
				defer func() { <-o.sem }()
				o.execute(ctx, id)
			}()
		}
	}
}

// execute runs one task to a terminal state. A failure here never
// affects the drain loop or sibling tasks.
func (o *Orchestrator) execute(ctx context.Context, id types.TaskID) {
	if err := o.store.Transition(id, types.StatusInProgress); err != nil {
		// Cancelled while queued; nothing to do.
		o.logger.WithTask(id).Debug("skipping dispatch", map[string]any{
			"reason": err.Error(),
		})
		return
	}

	snap, _ := o.store.Snapshot(id)
	o.audit.Record(audit.OpTransferStart, snap.SourcePath, snap.DestPath, snap.TotalBytes, true, "")

	err := o.copyTask(ctx, snap)
	switch {
	case err == nil:
		o.finishComplete(ctx, id)
	case errors.Is(err, errCancelled):
		// Cancel already applied the terminal transition.
		o.logger.WithTask(id).Info("transfer cancelled", map[string]any{})
	default:
		o.finishFailed(ctx, id, err)
	}
}

func (o *Orchestrator) finishComplete(ctx context.Context, id types.TaskID) {
	if err := o.store.Complete(id); err != nil {
		// Raced with a cancel at the last chunk boundary.
		o.logger.WithTask(id).Debug("complete skipped", map[string]any{
			"reason": err.Error(),
		})
		return
	}
	snap, _ := o.store.Snapshot(id)
	if o.metrics != nil {
		o.metrics.IncTransferCompleted()
		o.metrics.AddBytesMoved(snap.TotalBytes)
	}
	o.logger.WithTask(id).Info("transfer complete", map[string]any{
		"bytes": snap.TotalBytes,
	})
	o.audit.Record(audit.OpTransferComplete, snap.SourcePath, snap.DestPath, snap.TotalBytes, true, "")

	envelope := types.NewEnvelope(types.EventTransferComplete)
	progress := types.Progress(&snap, time.Now())
	envelope.Progress = &progress
	o.emitEvent(ctx, id, envelope)
}

func (o *Orchestrator) finishFailed(ctx context.Context, id types.TaskID, cause error) {
	if err := o.store.Fail(id, cause.Error()); err != nil {
		// Cancelled mid-copy; the cancel wins.
		o.logger.WithTask(id).Debug("fail skipped", map[string]any{
			"reason": err.Error(),
		})
		return
	}
	snap, _ := o.store.Snapshot(id)
	if o.metrics != nil {
		o.metrics.IncTransferFailed()
	}
	o.logger.WithTask(id).Warn("transfer failed", map[string]any{
		"error": cause.Error(),
	})
	o.audit.Record(audit.OpTransferFail, snap.SourcePath, snap.DestPath, snap.TransferredBytes, false, cause.Error())

	envelope := types.NewEnvelope(types.EventTransferFailed)
	progress := types.Progress(&snap, time.Now())
	envelope.Progress = &progress
	envelope.Detail = cause.Error()
	o.emitEvent(ctx, id, envelope)
}

// Cancel moves a pending or in-flight task to Cancelled. Unknown or
// terminal tasks are a no-op; reports whether the cancel took effect.
// An in-flight copy observes the cancel within one chunk.
func (o *Orchestrator) Cancel(id types.TaskID) bool {
	if err := o.store.Transition(id, types.StatusCancelled); err != nil {
		return false
	}
	if o.metrics != nil {
		o.metrics.IncTransferCancelled()
	}
	o.logger.WithTask(id).Info("cancel requested", map[string]any{})
	return true
}

// Retry re-queues a failed task. Progress and error are reset. Any state
// other than Failed is ErrInvalidTransition; silent acceptance would
// hide caller bugs.
func (o *Orchestrator) Retry(id types.TaskID) error {
	prior, ok := o.store.Snapshot(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	if err := o.store.Transition(id, types.StatusPending); err != nil {
		return err
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		o.store.restore(prior)
		return ErrOrchestratorClosed
	}
	select {
	case o.backlog <- id:
	default:
		o.mu.Unlock()
		o.store.restore(prior)
		return fmt.Errorf("%w: capacity %d", ErrQueueFull, cap(o.backlog))
	}
	o.mu.Unlock()

	if o.metrics != nil {
		o.metrics.IncTransferRetried()
	}
	o.logger.WithTask(id).Info("transfer retried", map[string]any{})
	return nil
}

// Progress returns the derived snapshot for a task.
func (o *Orchestrator) Progress(id types.TaskID) (types.ProgressSnapshot, bool) {
	snap, ok := o.store.Snapshot(id)
	if !ok {
		return types.ProgressSnapshot{}, false
	}
	return types.Progress(&snap, time.Now()), true
}

// List returns snapshots of all known tasks, newest first.
func (o *Orchestrator) List() []types.TransferTask {
	return o.store.List()
}

// Close stops accepting submissions and waits for in-flight workers.
// The drain loop itself stops via its Run context.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.wg.Wait()
	return nil
}

func (o *Orchestrator) emitEvent(ctx context.Context, id types.TaskID, envelope *types.EventEnvelope) {
	emitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := o.emitter.Emit(emitCtx, envelope); err != nil {
		if o.metrics != nil {
			o.metrics.IncEmitFailure()
		}
		o.logger.WithTask(id).Warn("event emit failed", map[string]any{
			"type":  string(envelope.Type),
			"error": err.Error(),
		})
	}
}
