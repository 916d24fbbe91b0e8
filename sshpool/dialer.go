package sshpool

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SSHDialer dials real hosts over x/crypto/ssh and opens an SFTP
// subsystem channel with pkg/sftp.
type SSHDialer struct {
	// HostKeyCallback defaults to accepting any host key, matching the
	// trust model of a first-connect desktop bridge. Supply
	// knownhosts-backed verification to harden.
	HostKeyCallback ssh.HostKeyCallback
}

var _ Dialer = (*SSHDialer)(nil)

// Dial performs the TCP dial, SSH handshake, and SFTP channel open.
// Deadlines come from ctx; the caller bounds it with the pool timeouts.
func (d *SSHDialer) Dial(ctx context.Context, cfg Config) (Transport, RemoteFS, error) {
	auth, err := authMethods(cfg)
	if err != nil {
		return nil, nil, err
	}

	hostKey := d.HostKeyCallback
	if hostKey == nil {
		hostKey = ssh.InsecureIgnoreHostKey()
	}
	clientConfig := &ssh.ClientConfig{
		User:            cfg.Username,
		Auth:            auth,
		HostKeyCallback: hostKey,
	}

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	// Handshake done; transfers manage their own pacing from here.
	_ = conn.SetDeadline(time.Time{})

	client := ssh.NewClient(sshConn, chans, reqs)
	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("open sftp channel: %w", err)
	}
	return &sshTransport{client: client}, &sftpFS{client: sftpClient}, nil
}

func authMethods(cfg Config) ([]ssh.AuthMethod, error) {
	if cfg.KeyPath != "" {
		pem, err := os.ReadFile(cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}
	return []ssh.AuthMethod{ssh.Password(cfg.Password)}, nil
}

// sshTransport adapts *ssh.Client to Transport.
type sshTransport struct {
	client *ssh.Client
}

func (t *sshTransport) Keepalive() error {
	_, _, err := t.client.SendRequest("keepalive@openssh.com", true, nil)
	return err
}

func (t *sshTransport) Close() error {
	return t.client.Close()
}

// sftpFS adapts *sftp.Client to RemoteFS.
type sftpFS struct {
	client *sftp.Client
}

func (f *sftpFS) Stat(path string) (os.FileInfo, error) { return f.client.Stat(path) }
func (f *sftpFS) MkdirAll(path string) error            { return f.client.MkdirAll(path) }

func (f *sftpFS) Create(path string) (io.WriteCloser, error) {
	return f.client.Create(path)
}

func (f *sftpFS) Open(path string) (io.ReadCloser, error) {
	return f.client.Open(path)
}

func (f *sftpFS) Remove(path string) error               { return f.client.Remove(path) }
func (f *sftpFS) Chmod(path string, m os.FileMode) error { return f.client.Chmod(path, m) }

func (f *sftpFS) ReadDir(path string) ([]os.FileInfo, error) {
	return f.client.ReadDir(path)
}

func (f *sftpFS) Close() error { return f.client.Close() }
