package attr

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWindowsToPosix_Plain(t *testing.T) {
	perms := WindowsToPosix(WindowsAttrs{Archive: true})

	if !perms.OwnerRead || !perms.OwnerWrite {
		t.Error("plain file should be owner readable and writable")
	}
	if !perms.GroupRead || !perms.OtherRead {
		t.Error("plain file should be readable by group and others")
	}
	if perms.OtherWrite {
		t.Error("others never get write")
	}
}

func TestWindowsToPosix_ReadOnly(t *testing.T) {
	perms := WindowsToPosix(WindowsAttrs{ReadOnly: true})

	if perms.OwnerWrite || perms.GroupWrite {
		t.Error("read-only must clear write bits")
	}
	if !perms.OwnerRead {
		t.Error("owner always reads")
	}
}

func TestWindowsToPosix_HiddenSystem(t *testing.T) {
	perms := WindowsToPosix(WindowsAttrs{Hidden: true, System: true})

	if perms.GroupRead || perms.OtherRead || perms.OtherExecute {
		t.Error("hidden+system must withdraw group and other access")
	}
}

func TestPosixToWindows_RoundTripFlags(t *testing.T) {
	attrs := PosixToWindows(PosixPerms{OwnerRead: true})
	if !attrs.ReadOnly {
		t.Error("no owner write should map to read-only")
	}
	if !attrs.Hidden {
		t.Error("no other read should map to hidden")
	}
	if !attrs.Archive {
		t.Error("archive is always set on the Windows side")
	}

	writable := PosixToWindows(PosixPerms{OwnerRead: true, OwnerWrite: true, OtherRead: true, OtherExecute: true})
	if writable.ReadOnly || writable.Hidden || writable.System {
		t.Errorf("open permissions should map to plain attrs, got %+v", writable)
	}
}

func TestOctal(t *testing.T) {
	cases := []struct {
		perms PosixPerms
		want  uint32
	}{
		{PosixPerms{}, 0},
		{PosixPerms{OwnerRead: true, OwnerWrite: true, OwnerExecute: true}, 0o700},
		{PosixPerms{
			OwnerRead: true, OwnerWrite: true, OwnerExecute: true,
			GroupRead: true, GroupExecute: true,
			OtherRead: true,
		}, 0o754},
	}
	for _, tc := range cases {
		if got := tc.perms.Octal(); got != tc.want {
			t.Errorf("Octal() = %o, want %o", got, tc.want)
		}
		if back := FromOctal(tc.want); back != tc.perms {
			t.Errorf("FromOctal(%o) = %+v, want %+v", tc.want, back, tc.perms)
		}
	}
}

func TestFromPath_Dotfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".secrets")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	attrs, err := FromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if !attrs.Hidden {
		t.Error("dotfile should read as hidden")
	}
	if attrs.ReadOnly {
		t.Error("0600 file is owner-writable, not read-only")
	}
}

func TestFromPath_ReadOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frozen.txt")
	if err := os.WriteFile(path, []byte("x"), 0o444); err != nil {
		t.Fatal(err)
	}

	attrs, err := FromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if !attrs.ReadOnly {
		t.Error("0444 file should read as read-only")
	}
}

func TestFromPath_Missing(t *testing.T) {
	if _, err := FromPath(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing path")
	}
}
