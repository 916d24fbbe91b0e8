package sshpool

import (
	"context"
	"io"
	"os"

	"github.com/pithecene-io/gangway/types"
)

// Transport is the control channel of a live session. The production
// implementation wraps an *ssh.Client.
type Transport interface {
	// Keepalive sends a liveness probe over the control channel.
	Keepalive() error
	io.Closer
}

// RemoteFS is the file surface of a live session. The production
// implementation wraps an *sftp.Client.
type RemoteFS interface {
	Stat(path string) (os.FileInfo, error)
	MkdirAll(path string) error
	Create(path string) (io.WriteCloser, error)
	Open(path string) (io.ReadCloser, error)
	Remove(path string) error
	Chmod(path string, mode os.FileMode) error
	ReadDir(path string) ([]os.FileInfo, error)
	io.Closer
}

// Dialer establishes a transport and remote filesystem for a config.
// Implementations must honor ctx cancellation during the dial.
type Dialer interface {
	Dial(ctx context.Context, cfg Config) (Transport, RemoteFS, error)
}

// Config identifies and authenticates one remote host.
type Config struct {
	Host     string
	Port     int
	Username string
	// KeyPath is the path to a PEM private key. Takes precedence over
	// Password when both are set.
	KeyPath  string
	Password string
}

// Identity derives the connection ID for this config.
func (c Config) Identity() types.ConnectionID {
	return types.ConnectionIDFor(c.Username, c.Host, c.Port)
}

// validate rejects configs that cannot possibly authenticate.
func (c Config) validate() error {
	if c.Host == "" {
		return NewSessionError(ErrTransport, "connect", string(c.Identity()), nil)
	}
	if c.KeyPath == "" && c.Password == "" {
		return NewSessionError(ErrAuthentication, "connect", string(c.Identity()), nil)
	}
	return nil
}
