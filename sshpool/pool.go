package sshpool

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/pithecene-io/gangway/audit"
	"github.com/pithecene-io/gangway/emit"
	"github.com/pithecene-io/gangway/log"
	"github.com/pithecene-io/gangway/metrics"
	"github.com/pithecene-io/gangway/types"
)

// Defaults for pool timing. Overridable via Options.
const (
	DefaultDialTimeout       = 30 * time.Second
	DefaultChannelTimeout    = 10 * time.Second
	DefaultKeepaliveInterval = 60 * time.Second
	DefaultStaleAfter        = 300 * time.Second
)

// Options configures a Pool. Zero-value fields fall back to defaults
// (timings) or no-ops (logger, emitter, audit, metrics).
type Options struct {
	Dialer            Dialer
	DialTimeout       time.Duration
	ChannelTimeout    time.Duration
	KeepaliveInterval time.Duration
	StaleAfter        time.Duration

	Logger  *log.Logger
	Emitter emit.Emitter
	Audit   audit.Recorder
	Metrics *metrics.Collector
}

// Pool is the registry of live sessions, keyed by connection identity.
//
// Concurrent Connect calls for the same identity coalesce onto a single
// dial: the first caller registers an in-flight marker and dials outside
// the lock; later callers wait on the marker's done channel and then
// recheck the map. The lock is never held across network I/O.
type Pool struct {
	mu       sync.Mutex
	sessions map[types.ConnectionID]*Session
	inflight map[types.ConnectionID]chan struct{}
	closed   bool

	dialer            Dialer
	dialTimeout       time.Duration
	channelTimeout    time.Duration
	keepaliveInterval time.Duration
	staleAfter        time.Duration

	logger  *log.Logger
	emitter emit.Emitter
	audit   audit.Recorder
	metrics *metrics.Collector

	wg sync.WaitGroup
}

// NewPool builds a pool. Options.Dialer is required.
func NewPool(opts Options) *Pool {
	p := &Pool{
		sessions:          make(map[types.ConnectionID]*Session),
		inflight:          make(map[types.ConnectionID]chan struct{}),
		dialer:            opts.Dialer,
		dialTimeout:       opts.DialTimeout,
		channelTimeout:    opts.ChannelTimeout,
		keepaliveInterval: opts.KeepaliveInterval,
		staleAfter:        opts.StaleAfter,
		logger:            opts.Logger,
		emitter:           opts.Emitter,
		audit:             opts.Audit,
		metrics:           opts.Metrics,
	}
	if p.dialTimeout <= 0 {
		p.dialTimeout = DefaultDialTimeout
	}
	if p.channelTimeout <= 0 {
		p.channelTimeout = DefaultChannelTimeout
	}
	if p.keepaliveInterval <= 0 {
		p.keepaliveInterval = DefaultKeepaliveInterval
	}
	if p.staleAfter <= 0 {
		p.staleAfter = DefaultStaleAfter
	}
	if p.logger == nil {
		p.logger = log.NewLogger()
	}
	if p.emitter == nil {
		p.emitter = emit.Null{}
	}
	if p.audit == nil {
		p.audit = audit.Nop{}
	}
	return p
}

// Connect establishes or reuses the session for cfg's identity.
// Idempotent: an existing healthy session is returned as-is. On failure
// nothing is registered and the error is classified (ErrAuthentication,
// ErrTransport, ErrTimeout).
func (p *Pool) Connect(ctx context.Context, cfg Config) (types.ConnectionID, error) {
	if err := cfg.validate(); err != nil {
		if p.metrics != nil {
			p.metrics.IncAuthFailure()
		}
		return "", err
	}
	id := cfg.Identity()

	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return "", NewSessionError(ErrPoolClosed, "connect", string(id), nil)
		}
		if s, ok := p.sessions[id]; ok {
			p.mu.Unlock()
			s.touch()
			return id, nil
		}
		if done, ok := p.inflight[id]; ok {
			p.mu.Unlock()
			select {
			case <-done:
				continue // recheck the map; the dial either registered or failed
			case <-ctx.Done():
				return "", NewSessionError(ErrTimeout, "connect", string(id), ctx.Err())
			}
		}
		done := make(chan struct{})
		p.inflight[id] = done
		p.mu.Unlock()

		session, err := p.dial(ctx, cfg)

		p.mu.Lock()
		delete(p.inflight, id)
		close(done)
		if err != nil {
			p.mu.Unlock()
			return "", err
		}
		if p.closed {
			p.mu.Unlock()
			_ = session.close()
			return "", NewSessionError(ErrPoolClosed, "connect", string(id), nil)
		}
		p.sessions[id] = session
		p.mu.Unlock()

		p.wg.Add(1)
		go p.keepaliveLoop(session)

		if p.metrics != nil {
			p.metrics.IncSessionOpened()
		}
		p.logger.WithSession(id).Info("session connected", map[string]any{
			"host":     cfg.Host,
			"username": cfg.Username,
		})
		p.audit.Record(audit.OpSSHConnect, "", string(id), 0, true, "")
		p.emitSession(types.EventSessionConnected, session)
		return id, nil
	}
}

// dial runs the bounded handshake outside the pool lock.
func (p *Pool) dial(ctx context.Context, cfg Config) (*Session, error) {
	id := cfg.Identity()
	dialCtx, cancel := context.WithTimeout(ctx, p.dialTimeout+p.channelTimeout)
	defer cancel()

	transport, fs, err := p.dialer.Dial(dialCtx, cfg)
	if err != nil {
		wrapped := WrapConnectError(err, string(id))
		if p.metrics != nil && errors.Is(wrapped, ErrAuthentication) {
			p.metrics.IncAuthFailure()
		}
		p.logger.WithSession(id).Warn("connect failed", map[string]any{
			"host":  cfg.Host,
			"error": err.Error(),
		})
		p.audit.Record(audit.OpSSHConnect, "", string(id), 0, false, err.Error())
		return nil, wrapped
	}
	return newSession(cfg, transport, fs), nil
}

// Get returns the session for id and stamps it active.
func (p *Pool) Get(id types.ConnectionID) (*Session, bool) {
	p.mu.Lock()
	s, ok := p.sessions[id]
	p.mu.Unlock()
	if ok {
		s.touch()
	}
	return s, ok
}

// Remote returns the remote filesystem for id, stamping activity.
// Transfer workers reach the SFTP surface through this.
func (p *Pool) Remote(id types.ConnectionID) (RemoteFS, bool) {
	s, ok := p.Get(id)
	if !ok {
		return nil, false
	}
	return s.fs, true
}

// Disconnect removes and closes the session for id. Idempotent: a
// missing session is not an error.
func (p *Pool) Disconnect(id types.ConnectionID) error {
	p.mu.Lock()
	s, ok := p.sessions[id]
	if ok {
		delete(p.sessions, id)
	}
	p.mu.Unlock()
	if !ok {
		return nil
	}

	err := s.close()
	if p.metrics != nil {
		p.metrics.IncSessionClosed()
	}
	p.logger.WithSession(id).Info("session disconnected", map[string]any{})
	p.audit.Record(audit.OpSSHDisconnect, "", string(id), 0, true, "")
	p.emitSession(types.EventSessionDisconnected, s)
	return err
}

// List returns the connected identities in sorted order.
func (p *Pool) List() []types.ConnectionID {
	p.mu.Lock()
	ids := make([]types.ConnectionID, 0, len(p.sessions))
	for id := range p.sessions {
		ids = append(ids, id)
	}
	p.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Close disconnects every session and rejects further connects.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	ids := make([]types.ConnectionID, 0, len(p.sessions))
	for id := range p.sessions {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	var first error
	for _, id := range ids {
		if err := p.Disconnect(id); err != nil && first == nil {
			first = err
		}
	}
	p.wg.Wait()
	return first
}

// keepaliveLoop probes the transport at KeepaliveInterval and evicts the
// session once it has been idle beyond StaleAfter. The probe itself does
// not count as activity; only caller use through Get does, otherwise an
// idle session would never age out.
func (p *Pool) keepaliveLoop(s *Session) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			if s.IdleFor(now) > p.staleAfter {
				p.evict(s, "idle beyond stale threshold")
				return
			}
			if err := s.transport.Keepalive(); err != nil {
				p.evict(s, "keepalive failed: "+err.Error())
				return
			}
		}
	}
}

// evict removes a session the keepalive loop declared dead or stale.
func (p *Pool) evict(s *Session, reason string) {
	p.mu.Lock()
	if current, ok := p.sessions[s.id]; !ok || current != s {
		// Already disconnected by a caller.
		p.mu.Unlock()
		return
	}
	delete(p.sessions, s.id)
	p.mu.Unlock()

	_ = s.close()
	if p.metrics != nil {
		p.metrics.IncSessionEvicted()
	}
	p.logger.WithSession(s.id).Info("session evicted", map[string]any{
		"reason": reason,
	})
	p.audit.Record(audit.OpSSHDisconnect, "", string(s.id), 0, true, reason)
	p.emitSession(types.EventSessionDisconnected, s)
}

func (p *Pool) emitSession(eventType types.EventType, s *Session) {
	envelope := types.NewEnvelope(eventType)
	envelope.Session = &types.SessionEvent{
		Connection: s.id,
		Host:       s.host,
		Username:   s.username,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.emitter.Emit(ctx, envelope); err != nil {
		if p.metrics != nil {
			p.metrics.IncEmitFailure()
		}
		p.logger.WithSession(s.id).Warn("event emit failed", map[string]any{
			"type":  string(eventType),
			"error": err.Error(),
		})
	}
}
