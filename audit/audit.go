// Package audit records operation-level events to an append-only JSONL
// file, keyed by a process-scoped session identifier. The sink is
// synchronous and best-effort: callers invoke it from lifecycle
// transitions and treat write failures as non-fatal.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Op names an audited operation.
type Op string

const (
	OpSSHConnect       Op = "ssh_connect"
	OpSSHDisconnect    Op = "ssh_disconnect"
	OpTransferStart    Op = "transfer_start"
	OpTransferComplete Op = "transfer_complete"
	OpTransferFail     Op = "transfer_fail"
	OpCaseConflict     Op = "case_conflict"
)

// Entry is one audit record, serialized as a single JSON line.
type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Op         Op        `json:"operation"`
	User       string    `json:"user"`
	SourcePath string    `json:"source_path,omitempty"`
	DestPath   string    `json:"dest_path,omitempty"`
	Bytes      int64     `json:"bytes,omitempty"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	// SessionScope ties entries from one process lifetime together.
	SessionScope string `json:"session_scope"`
}

// Stats aggregates the sink's contents.
type Stats struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Recorder is the audit surface consumed by the pool and orchestrator.
type Recorder interface {
	Record(op Op, sourcePath, destPath string, bytes int64, success bool, detail string)
}

// Nop is a Recorder that discards everything. Useful in tests.
type Nop struct{}

func (Nop) Record(Op, string, string, int64, bool, string) {}

// Logger is the file-backed Recorder.
type Logger struct {
	path  string
	scope string
	user  string

	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
}

// Open creates or appends to the audit file at path, creating parent
// directories as needed.
func Open(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit file %s: %w", path, err)
	}

	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}

	return &Logger{
		path:   path,
		scope:  uuid.New().String(),
		user:   username,
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

// SessionScope returns the identifier stamped on every entry this
// process writes.
func (l *Logger) SessionScope() string { return l.scope }

// Record appends one entry. Serialization or write failures are
// swallowed; auditing must never break the operation being audited.
func (l *Logger) Record(op Op, sourcePath, destPath string, bytes int64, success bool, detail string) {
	entry := Entry{
		ID:           uuid.New().String(),
		Timestamp:    time.Now().UTC(),
		Op:           op,
		User:         l.user,
		SourcePath:   sourcePath,
		DestPath:     destPath,
		Bytes:        bytes,
		Success:      success,
		Error:        detail,
		SessionScope: l.scope,
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.writer.Write(line); err != nil {
		return
	}
	if err := l.writer.WriteByte('\n'); err != nil {
		return
	}
	_ = l.writer.Flush()
}

// Read returns up to limit entries from the front of the file;
// limit <= 0 means all entries. Lines that fail to parse are skipped.
func (l *Logger) Read(limit int) ([]Entry, error) {
	l.mu.Lock()
	_ = l.writer.Flush()
	l.mu.Unlock()

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open audit file %s: %w", l.path, err)
	}
	defer func() { _ = file.Close() }()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan audit file: %w", err)
	}
	return entries, nil
}

// Stats aggregates all entries currently in the file.
func (l *Logger) Stats() (Stats, error) {
	entries, err := l.Read(0)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Total: len(entries)}
	for _, entry := range entries {
		if entry.Success {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
	}
	return stats, nil
}

// Close flushes and closes the underlying file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.writer.Flush(); err != nil {
		_ = l.file.Close()
		return err
	}
	return l.file.Close()
}

// Verify Logger implements Recorder.
var _ Recorder = (*Logger)(nil)
