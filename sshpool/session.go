package sshpool

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pithecene-io/gangway/types"
)

// Session is one live SSH/SFTP connection tracked by the pool.
// The last-activity stamp is atomic so Get never takes the pool lock
// just to refresh it.
type Session struct {
	id       types.ConnectionID
	host     string
	username string

	transport Transport
	fs        RemoteFS

	lastActivity atomic.Int64 // unix nanos
	done         chan struct{}
	closeOnce    sync.Once
}

func newSession(cfg Config, transport Transport, fs RemoteFS) *Session {
	s := &Session{
		id:        cfg.Identity(),
		host:      cfg.Host,
		username:  cfg.Username,
		transport: transport,
		fs:        fs,
		done:      make(chan struct{}),
	}
	s.touch()
	return s
}

// ID returns the connection identity.
func (s *Session) ID() types.ConnectionID { return s.id }

// FS returns the remote filesystem handle.
func (s *Session) FS() RemoteFS { return s.fs }

// touch stamps the session as active now.
func (s *Session) touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// IdleFor returns how long the session has gone without caller activity.
func (s *Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastActivity.Load()))
}

// close tears down the transport and stops the keepalive loop.
// Safe to call more than once.
func (s *Session) close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if s.fs != nil {
			err = s.fs.Close()
		}
		if s.transport != nil {
			if cerr := s.transport.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	})
	return err
}
