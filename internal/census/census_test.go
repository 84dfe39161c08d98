package census

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bash = "/usr/bin/bash"

// launchedByParent is a table where the caller (100) sits under a wrapper
// (50) that leads its process group; the wrapper was started by shell 10.
func launchedByParent() []ProcessRecord {
	return []ProcessRecord{
		{PID: 1, PPID: 0, PGID: 1, Command: "/sbin/init"},
		{PID: 10, PPID: 1, PGID: 10, Command: bash},
		{PID: 20, PPID: 1, PGID: 20, Command: bash},
		{PID: 30, PPID: 1, PGID: 30, Command: bash},
		{PID: 50, PPID: 10, PGID: 50, Command: "/usr/bin/git"},
		{PID: 100, PPID: 50, PGID: 50, Command: "/usr/bin/git-update"},
	}
}

// launchedAsParent is a table where the caller (100) is the upper row: its
// group leader 200 is its child, and the caller was started by shell 10.
func launchedAsParent() []ProcessRecord {
	return []ProcessRecord{
		{PID: 10, PPID: 1, PGID: 10, Command: bash},
		{PID: 20, PPID: 1, PGID: 20, Command: bash},
		{PID: 100, PPID: 10, PGID: 200, Command: "/usr/bin/git-update"},
		{PID: 200, PPID: 100, PGID: 200, Command: "C:\\Windows\\git-update.exe"},
	}
}

func TestFindAncestorShell(t *testing.T) {
	tests := []struct {
		name    string
		records []ProcessRecord
		self    int
		want    int
		wantOK  bool
	}{
		{name: "group leader is parent", records: launchedByParent(), self: 100, want: 10, wantOK: true},
		{name: "group leader is child", records: launchedAsParent(), self: 100, want: 10, wantOK: true},
		{name: "self missing", records: launchedByParent(), self: 999},
		{
			name: "no group leader row",
			records: []ProcessRecord{
				{PID: 10, PPID: 1, PGID: 10, Command: bash},
				{PID: 100, PPID: 10, PGID: 77, Command: "/usr/bin/git-update"},
			},
			self: 100,
		},
		{
			name: "group leader unrelated",
			records: []ProcessRecord{
				{PID: 10, PPID: 1, PGID: 10, Command: bash},
				{PID: 77, PPID: 1, PGID: 77, Command: "/usr/bin/git"},
				{PID: 100, PPID: 10, PGID: 77, Command: "/usr/bin/git-update"},
			},
			self: 100,
		},
		{
			name: "both directions hold",
			records: []ProcessRecord{
				{PID: 77, PPID: 100, PGID: 77, Command: "/usr/bin/git"},
				{PID: 100, PPID: 77, PGID: 77, Command: "/usr/bin/git-update"},
			},
			self: 100,
		},
		{
			name: "second self row bridges",
			records: []ProcessRecord{
				{PID: 10, PPID: 1, PGID: 10, Command: bash},
				{PID: 100, PPID: 1, PGID: 100, Command: "/usr/bin/git-update"},
				{PID: 50, PPID: 10, PGID: 50, Command: "/usr/bin/git"},
				{PID: 100, PPID: 50, PGID: 50, Command: "/usr/bin/git-update"},
			},
			self: 100,
			want: 10, wantOK: true,
		},
		{
			name: "self matched by native pid",
			records: []ProcessRecord{
				{PID: 10, PPID: 1, PGID: 10, Command: bash, WinPID: 9010},
				{PID: 50, PPID: 10, PGID: 50, Command: "/usr/bin/git", WinPID: 9050},
				{PID: 100, PPID: 50, PGID: 50, Command: "/usr/bin/git-update", WinPID: 9100},
			},
			self: 9100,
			want: 10, wantOK: true,
		},
		{
			name: "self leads its own group",
			records: []ProcessRecord{
				{PID: 10, PPID: 1, PGID: 10, Command: bash},
				{PID: 100, PPID: 10, PGID: 100, Command: "/usr/bin/git-update"},
			},
			self: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindAncestorShell(tt.records, tt.self)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFindAncestorShellIgnoresRowOrder(t *testing.T) {
	for _, records := range [][]ProcessRecord{launchedByParent(), launchedAsParent()} {
		reversed := make([]ProcessRecord, len(records))
		for i, r := range records {
			reversed[len(records)-1-i] = r
		}

		want, wantOK := FindAncestorShell(records, 100)
		got, gotOK := FindAncestorShell(reversed, 100)
		assert.Equal(t, wantOK, gotOK)
		assert.Equal(t, want, got)
	}
}

func TestCountSiblingShells(t *testing.T) {
	tests := []struct {
		name    string
		records []ProcessRecord
		want    int
	}{
		{name: "excludes ancestor when bridged", records: launchedByParent(), want: 2},
		{name: "excludes ancestor of upper row", records: launchedAsParent(), want: 1},
		{
			name: "no bridge counts every shell",
			records: []ProcessRecord{
				{PID: 10, PPID: 1, PGID: 10, Command: bash},
				{PID: 20, PPID: 1, PGID: 20, Command: bash},
				{PID: 100, PPID: 10, PGID: 100, Command: "/usr/bin/git-update"},
			},
			want: 2,
		},
		{
			name: "command must match exactly",
			records: []ProcessRecord{
				{PID: 10, PPID: 1, PGID: 10, Command: bash},
				{PID: 20, PPID: 1, PGID: 20, Command: "/bin/bash"},
				{PID: 30, PPID: 1, PGID: 30, Command: bash + ".old"},
				{PID: 40, PPID: 1, PGID: 40, Command: ""},
			},
			want: 1,
		},
		{name: "empty table", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountSiblingShells(tt.records, 100, bash))
		})
	}
}

func TestCountSiblingShellsDropsByOnePerRemovedShell(t *testing.T) {
	records := launchedByParent()
	before := CountSiblingShells(records, 100, bash)

	var without []ProcessRecord
	for _, r := range records {
		if r.PID != 20 {
			without = append(without, r)
		}
	}
	assert.Equal(t, before-1, CountSiblingShells(without, 100, bash))
}

func TestShellPIDs(t *testing.T) {
	assert.Equal(t, []int{10, 20, 30}, ShellPIDs(launchedByParent(), bash))
	assert.Empty(t, ShellPIDs(launchedByParent(), "/bin/zsh"))
}

type fakeLister struct {
	records []ProcessRecord
	err     error
}

func (f fakeLister) Processes(context.Context) ([]ProcessRecord, error) {
	return f.records, f.err
}

type fakeTerminator struct {
	fail       map[int]error
	terminated []int
}

func (f *fakeTerminator) Terminate(_ context.Context, pid int) error {
	f.terminated = append(f.terminated, pid)
	return f.fail[pid]
}

func TestCensusCountSiblingShells(t *testing.T) {
	c := New(fakeLister{records: launchedByParent()}, bash)
	n, err := c.CountSiblingShells(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	c = New(fakeLister{err: errors.New("access denied")}, bash)
	_, err = c.CountSiblingShells(context.Background(), 100)
	assert.ErrorContains(t, err, "access denied")
}

func TestCensusTerminateShellsIncludesAncestor(t *testing.T) {
	term := &fakeTerminator{}
	c := New(fakeLister{records: launchedByParent()}, bash)

	require.NoError(t, c.TerminateShells(context.Background(), term))
	assert.Equal(t, []int{10, 20, 30}, term.terminated)
}

func TestCensusTerminateShellsAggregatesFailures(t *testing.T) {
	term := &fakeTerminator{fail: map[int]error{
		10: errors.New("access denied"),
		30: errors.New("no such process"),
	}}
	c := New(fakeLister{records: launchedByParent()}, bash)

	err := c.TerminateShells(context.Background(), term)
	require.Error(t, err)
	assert.Equal(t, []int{10, 20, 30}, term.terminated)
	assert.Contains(t, err.Error(), "terminate 10: access denied")
	assert.Contains(t, err.Error(), "terminate 30: no such process")
}
