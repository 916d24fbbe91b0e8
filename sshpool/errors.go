// Package sshpool maintains the registry of live SSH/SFTP sessions.
//
// This file defines sentinel errors and a classified wrapper for session
// failures. Callers use errors.Is/errors.As for typed assertions rather
// than string matching.
package sshpool

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for session failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrAuthentication indicates the host rejected the credentials, or
	// no usable credential was supplied.
	ErrAuthentication = errors.New("authentication failed")

	// ErrTransport indicates a network or protocol level failure
	// (connection refused, handshake error, dead channel).
	ErrTransport = errors.New("transport error")

	// ErrTimeout indicates the dial or channel open exceeded its deadline.
	ErrTimeout = errors.New("operation timed out")

	// ErrNotConnected indicates no session exists for the connection ID.
	ErrNotConnected = errors.New("not connected")

	// ErrPoolClosed indicates the pool has been shut down.
	ErrPoolClosed = errors.New("pool closed")
)

// SessionError wraps an underlying error with session classification.
// It preserves the original error in the chain for errors.As inspection.
type SessionError struct {
	// Kind is the sentinel error for classification (e.g. ErrAuthentication).
	Kind error
	// Op is the operation that failed (e.g. "connect", "keepalive").
	Op string
	// Target is the connection identity involved.
	Target string
	// Err is the underlying error, if any.
	Err error
}

func (e *SessionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Target, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Kind)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *SessionError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *SessionError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// NewSessionError creates a classified session error.
func NewSessionError(kind error, op, target string, err error) *SessionError {
	return &SessionError{
		Kind:   kind,
		Op:     op,
		Target: target,
		Err:    err,
	}
}

// WrapConnectError classifies and wraps a connect failure.
// Returns nil if err is nil.
func WrapConnectError(err error, target string) error {
	if err == nil {
		return nil
	}
	return NewSessionError(classifyError(err), "connect", target, err)
}

// classifyError determines the sentinel for the given error.
// Classification is based on error type and message patterns.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}

	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return ErrTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg,
		"unable to authenticate", "permission denied", "no supported methods",
		"invalid credentials", "private key"):
		return ErrAuthentication
	case containsAny(msg, "timeout", "timed out", "deadline exceeded"):
		return ErrTimeout
	default:
		return ErrTransport
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
