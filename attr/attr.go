// Package attr translates file attribute semantics between the Windows
// attribute model and the POSIX permission model. All mappings are pure
// functions; reading attributes from disk is best-effort and local-only.
package attr

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// WindowsAttrs is the Windows-side attribute set relevant to bridging.
type WindowsAttrs struct {
	ReadOnly bool `json:"read_only"`
	Hidden   bool `json:"hidden"`
	System   bool `json:"system"`
	Archive  bool `json:"archive"`
}

// PosixPerms is the nine-bit POSIX permission set.
type PosixPerms struct {
	OwnerRead    bool `json:"owner_read"`
	OwnerWrite   bool `json:"owner_write"`
	OwnerExecute bool `json:"owner_execute"`
	GroupRead    bool `json:"group_read"`
	GroupWrite   bool `json:"group_write"`
	GroupExecute bool `json:"group_execute"`
	OtherRead    bool `json:"other_read"`
	OtherWrite   bool `json:"other_write"`
	OtherExecute bool `json:"other_execute"`
}

// WindowsToPosix maps Windows attributes onto POSIX permissions.
//
// The owner can always read. Read-only clears all write and execute
// bits for owner and group. Hidden withdraws group access and, with
// system, withdraws access from others. Others never get write.
func WindowsToPosix(attrs WindowsAttrs) PosixPerms {
	return PosixPerms{
		OwnerRead:    true,
		OwnerWrite:   !attrs.ReadOnly,
		OwnerExecute: !attrs.ReadOnly,
		GroupRead:    !attrs.Hidden,
		GroupWrite:   !attrs.ReadOnly && !attrs.Hidden,
		GroupExecute: !attrs.ReadOnly && !attrs.Hidden,
		OtherRead:    !attrs.Hidden && !attrs.System,
		OtherWrite:   false,
		OtherExecute: !attrs.Hidden && !attrs.System,
	}
}

// PosixToWindows maps POSIX permissions back onto Windows attributes.
// Archive is always set, matching Windows defaults for copied files.
func PosixToWindows(perms PosixPerms) WindowsAttrs {
	return WindowsAttrs{
		ReadOnly: !perms.OwnerWrite,
		Hidden:   !perms.OtherRead,
		System:   !perms.OtherExecute,
		Archive:  true,
	}
}

// Octal renders the permission set as a numeric mode (e.g. 0o754).
func (p PosixPerms) Octal() uint32 {
	var mode uint32
	if p.OwnerRead {
		mode |= 0o400
	}
	if p.OwnerWrite {
		mode |= 0o200
	}
	if p.OwnerExecute {
		mode |= 0o100
	}
	if p.GroupRead {
		mode |= 0o040
	}
	if p.GroupWrite {
		mode |= 0o020
	}
	if p.GroupExecute {
		mode |= 0o010
	}
	if p.OtherRead {
		mode |= 0o004
	}
	if p.OtherWrite {
		mode |= 0o002
	}
	if p.OtherExecute {
		mode |= 0o001
	}
	return mode
}

// FromOctal parses a numeric mode into the permission set.
func FromOctal(mode uint32) PosixPerms {
	return PosixPerms{
		OwnerRead:    mode&0o400 != 0,
		OwnerWrite:   mode&0o200 != 0,
		OwnerExecute: mode&0o100 != 0,
		GroupRead:    mode&0o040 != 0,
		GroupWrite:   mode&0o020 != 0,
		GroupExecute: mode&0o010 != 0,
		OtherRead:    mode&0o004 != 0,
		OtherWrite:   mode&0o002 != 0,
		OtherExecute: mode&0o001 != 0,
	}
}

// FileMode renders the permission set as an fs.FileMode for chmod calls.
func (p PosixPerms) FileMode() fs.FileMode {
	return fs.FileMode(p.Octal())
}

// FromPath reads Windows-model attributes for a local path.
// On POSIX hosts the mapping is approximated: read-only from the write
// bit, hidden from the leading-dot convention, system never set.
func FromPath(path string) (WindowsAttrs, error) {
	info, err := os.Stat(path)
	if err != nil {
		return WindowsAttrs{}, fmt.Errorf("stat %s: %w", path, err)
	}

	return WindowsAttrs{
		ReadOnly: info.Mode().Perm()&0o200 == 0,
		Hidden:   strings.HasPrefix(filepath.Base(path), "."),
		System:   false,
		Archive:  true,
	}, nil
}
