// Package census counts the interactive shell sessions that an update
// would interrupt.
//
// The process running git-update is normally started from an interactive
// shell. That shell must not be counted as a sibling, but the process
// table may describe the relationship through two different numbering
// schemes (for example the MSYS2 runtime's pids next to the native
// Windows pids). FindAncestorShell bridges the two views using the
// caller's process group.
package census

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"gitupdate/internal/debug"
)

// ProcessRecord is one row of the process table.
type ProcessRecord struct {
	PID     int
	PPID    int
	PGID    int
	Command string
	// WinPID is the native Windows pid of an MSYS2 process, 0 elsewhere.
	WinPID  int
}

// NativePID returns the pid the operating system knows the process by.
func (r ProcessRecord) NativePID() int {
	if r.WinPID != 0 {
		return r.WinPID
	}
	return r.PID
}

// isSelf reports whether r describes the process selfID, in either pid
// namespace.
func (r ProcessRecord) isSelf(selfID int) bool {
	return r.PID == selfID || (r.WinPID != 0 && r.WinPID == selfID)
}

// Lister produces a snapshot of the process table.
type Lister interface {
	Processes(ctx context.Context) ([]ProcessRecord, error)
}

// Terminator stops a single process.
type Terminator interface {
	Terminate(ctx context.Context, pid int) error
}

// FindAncestorShell returns the pid of the shell that launched selfID.
//
// Let R1 be a row for selfID and R2 another row whose PID equals R1's
// process group. Exactly one of "R2 is R1's parent" and "R1 is R2's parent"
// must hold; the launching shell is then the parent of whichever row is
// higher up. A merged table may hold several rows for selfID; each is
// tried in order. When no such R2 exists the ancestor is unknown.
func FindAncestorShell(records []ProcessRecord, selfID int) (int, bool) {
	for self, r1 := range records {
		if !r1.isSelf(selfID) {
			continue
		}
		for i, r2 := range records {
			if i == self || r2.PID != r1.PGID {
				continue
			}
			upIsR2 := r1.PPID == r2.PID
			upIsR1 := r2.PPID == r1.PID
			switch {
			case upIsR2 && !upIsR1:
				return r2.PPID, true
			case upIsR1 && !upIsR2:
				return r1.PPID, true
			}
		}
	}
	return 0, false
}

// CountSiblingShells counts rows running shellPath, excluding the shell
// that launched selfID when it can be identified.
func CountSiblingShells(records []ProcessRecord, selfID int, shellPath string) int {
	ancestor, found := FindAncestorShell(records, selfID)
	count := 0
	for _, r := range records {
		if r.Command != shellPath {
			continue
		}
		if found && r.PID == ancestor {
			continue
		}
		count++
	}
	return count
}

// ShellPIDs returns the native pid of every row running shellPath.
func ShellPIDs(records []ProcessRecord, shellPath string) []int {
	var pids []int
	for _, r := range records {
		if r.Command == shellPath {
			pids = append(pids, r.NativePID())
		}
	}
	return pids
}

// Census ties a process table source to the shell executable of interest.
type Census struct {
	lister    Lister
	shellPath string
}

// New creates a Census for shells running shellPath.
func New(lister Lister, shellPath string) *Census {
	return &Census{lister: lister, shellPath: shellPath}
}

// CountSiblingShells lists the process table and counts the shell sessions
// other than the one that launched selfID.
func (c *Census) CountSiblingShells(ctx context.Context, selfID int) (int, error) {
	records, err := c.lister.Processes(ctx)
	if err != nil {
		return 0, fmt.Errorf("list processes: %w", err)
	}
	n := CountSiblingShells(records, selfID, c.shellPath)
	debug.LogFields(debug.Fields{
		"processes": len(records),
		"shell":     c.shellPath,
		"siblings":  n,
	}, "census: counted sibling shells")
	return n, nil
}

// TerminateShells terminates every process running the shell, the caller's
// own ancestor included. All pids are attempted; failures are returned
// together.
func (c *Census) TerminateShells(ctx context.Context, term Terminator) error {
	records, err := c.lister.Processes(ctx)
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	var result *multierror.Error
	for _, pid := range ShellPIDs(records, c.shellPath) {
		if err := term.Terminate(ctx, pid); err != nil {
			result = multierror.Append(result, fmt.Errorf("terminate %d: %w", pid, err))
			continue
		}
		debug.Logf("census: terminated shell %d", pid)
	}
	return result.ErrorOrNil()
}
