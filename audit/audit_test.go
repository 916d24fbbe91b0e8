package audit

import (
	"path/filepath"
	"testing"

	"github.com/pithecene-io/gangway/iox"
)

func openTestLogger(t *testing.T) *Logger {
	t.Helper()
	logger, err := Open(filepath.Join(t.TempDir(), "logs", "audit.log"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(iox.CloseFunc(logger))
	return logger
}

func TestLogger_RecordAndRead(t *testing.T) {
	logger := openTestLogger(t)

	logger.Record(OpSSHConnect, "", "", 0, true, "")
	logger.Record(OpTransferStart, "/src/a.bin", "/dst/a.bin", 0, true, "")
	logger.Record(OpTransferFail, "/src/a.bin", "/dst/a.bin", 512, false, "connection reset")

	entries, err := logger.Read(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Op != OpSSHConnect {
		t.Errorf("first entry op = %s", entries[0].Op)
	}
	if entries[2].Error != "connection reset" || entries[2].Success {
		t.Errorf("failure detail not recorded: %+v", entries[2])
	}
	for _, e := range entries {
		if e.SessionScope != logger.SessionScope() {
			t.Error("all entries must share the process session scope")
		}
		if e.ID == "" {
			t.Error("entry must have an ID")
		}
	}
}

func TestLogger_ReadLimit(t *testing.T) {
	logger := openTestLogger(t)
	for n := 0; n < 5; n++ {
		logger.Record(OpTransferComplete, "s", "d", 100, true, "")
	}

	entries, err := logger.Read(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("expected limit of 2, got %d", len(entries))
	}
}

func TestLogger_Stats(t *testing.T) {
	logger := openTestLogger(t)
	logger.Record(OpTransferComplete, "s", "d", 10, true, "")
	logger.Record(OpTransferComplete, "s", "d", 10, true, "")
	logger.Record(OpTransferFail, "s", "d", 0, false, "io error")

	stats, err := logger.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 3 || stats.Succeeded != 2 || stats.Failed != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestLogger_AppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	first, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	first.Record(OpSSHConnect, "", "", 0, true, "")
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(iox.CloseFunc(second))
	second.Record(OpSSHDisconnect, "", "", 0, true, "")

	entries, err := second.Read(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries across opens, got %d", len(entries))
	}
	if entries[0].SessionScope == entries[1].SessionScope {
		t.Error("separate processes should have distinct session scopes")
	}
}
