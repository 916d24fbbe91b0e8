// Package metrics provides in-process counters for the pool and
// orchestrator. The Collector is a leaf with no internal dependencies;
// all increment methods are nil-receiver safe so wiring it is optional.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Session lifecycle
	SessionsOpened  int64
	SessionsClosed  int64
	SessionsEvicted int64
	AuthFailures    int64

	// Transfers
	TransfersSubmitted int64
	TransfersCompleted int64
	TransfersFailed    int64
	TransfersCancelled int64
	TransfersRetried   int64
	BytesMoved         int64

	// Emitters
	EmitFailures int64
}

// Collector accumulates counters for one process. Thread-safe.
type Collector struct {
	mu sync.Mutex

	sessionsOpened  int64
	sessionsClosed  int64
	sessionsEvicted int64
	authFailures    int64

	transfersSubmitted int64
	transfersCompleted int64
	transfersFailed    int64
	transfersCancelled int64
	transfersRetried   int64
	bytesMoved         int64

	emitFailures int64
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// --- Session lifecycle ---

// IncSessionOpened records a successful connect.
func (c *Collector) IncSessionOpened() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsOpened++
	c.mu.Unlock()
}

// IncSessionClosed records an explicit disconnect.
func (c *Collector) IncSessionClosed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsClosed++
	c.mu.Unlock()
}

// IncSessionEvicted records a keepalive staleness eviction.
func (c *Collector) IncSessionEvicted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsEvicted++
	c.mu.Unlock()
}

// IncAuthFailure records a rejected or missing credential.
func (c *Collector) IncAuthFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.authFailures++
	c.mu.Unlock()
}

// --- Transfers ---

// IncTransferSubmitted records a task accepted into the queue.
func (c *Collector) IncTransferSubmitted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.transfersSubmitted++
	c.mu.Unlock()
}

// IncTransferCompleted records a task reaching Completed.
func (c *Collector) IncTransferCompleted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.transfersCompleted++
	c.mu.Unlock()
}

// IncTransferFailed records a task reaching Failed.
func (c *Collector) IncTransferFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.transfersFailed++
	c.mu.Unlock()
}

// IncTransferCancelled records a task reaching Cancelled.
func (c *Collector) IncTransferCancelled() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.transfersCancelled++
	c.mu.Unlock()
}

// IncTransferRetried records an explicit Failed→Pending retry.
func (c *Collector) IncTransferRetried() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.transfersRetried++
	c.mu.Unlock()
}

// AddBytesMoved records bytes copied across either direction.
func (c *Collector) AddBytesMoved(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.bytesMoved += n
	c.mu.Unlock()
}

// --- Emitters ---

// IncEmitFailure records a best-effort event delivery failure.
func (c *Collector) IncEmitFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.emitFailures++
	c.mu.Unlock()
}

// Snapshot returns an immutable point-in-time view of all counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		SessionsOpened:  c.sessionsOpened,
		SessionsClosed:  c.sessionsClosed,
		SessionsEvicted: c.sessionsEvicted,
		AuthFailures:    c.authFailures,

		TransfersSubmitted: c.transfersSubmitted,
		TransfersCompleted: c.transfersCompleted,
		TransfersFailed:    c.transfersFailed,
		TransfersCancelled: c.transfersCancelled,
		TransfersRetried:   c.transfersRetried,
		BytesMoved:         c.bytesMoved,

		EmitFailures: c.emitFailures,
	}
}
