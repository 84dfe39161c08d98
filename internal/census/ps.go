package census

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gitupdate/internal/command"
	"gitupdate/internal/debug"
)

// PSLister reads the process table from the MSYS2 ps program, whose
// output carries the POSIX pid, parent and group the runtime emulates on
// Windows together with each process's native pid.
type PSLister struct {
	runner   command.Runner
	bin      string
	args     []string
	fallback Lister
}

// NewPSLister returns a Lister that runs bin with args and parses the
// output. When the program cannot be run, fallback is consulted instead;
// it may be nil.
func NewPSLister(runner command.Runner, bin string, args []string, fallback Lister) *PSLister {
	return &PSLister{runner: runner, bin: bin, args: args, fallback: fallback}
}

// Processes implements Lister.
func (l *PSLister) Processes(ctx context.Context) ([]ProcessRecord, error) {
	out, err := l.runner.Run(ctx, l.bin, l.args...)
	if err == nil {
		records, parseErr := ParsePS(string(out))
		if parseErr == nil {
			return records, nil
		}
		err = parseErr
	}
	if l.fallback == nil {
		return nil, fmt.Errorf("%s: %w", l.bin, err)
	}
	debug.Logf("census: %s failed, using fallback lister: %v", l.bin, err)
	return l.fallback.Processes(ctx)
}

// ParsePS parses the table printed by the MSYS2 ps program:
//
//	      PID    PPID    PGID     WINPID   TTY         UID    STIME COMMAND
//	I    1001       1    1001      11001  pty0      197609   Oct 18 /usr/bin/bash
//
// Rows may start with a one-letter status. STIME is either a clock time or
// a month and day. Rows that cannot be parsed are skipped.
func ParsePS(out string) ([]ProcessRecord, error) {
	lines := strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n")

	header := -1
	var cols map[string]int
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == "PID" {
			header = i
			cols = make(map[string]int, len(fields))
			for j, f := range fields {
				cols[f] = j
			}
			break
		}
	}
	if header < 0 {
		return nil, fmt.Errorf("ps output has no header")
	}
	for _, name := range []string{"PID", "PPID", "PGID", "STIME"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("ps output has no %s column", name)
		}
	}
	winCol, hasWin := cols["WINPID"]

	var records []ProcessRecord
	skipped := 0
	for _, line := range lines[header+1:] {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			fields = fields[1:]
		}

		rec, ok := parsePSRow(fields, cols, winCol, hasWin)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	if skipped > 0 {
		debug.Logf("census: skipped %d unparsable ps rows", skipped)
	}
	return records, nil
}

func parsePSRow(fields []string, cols map[string]int, winCol int, hasWin bool) (ProcessRecord, bool) {
	stime := cols["STIME"]
	if len(fields) <= stime {
		return ProcessRecord{}, false
	}

	var rec ProcessRecord
	var err error
	if rec.PID, err = strconv.Atoi(fields[cols["PID"]]); err != nil {
		return ProcessRecord{}, false
	}
	if rec.PPID, err = strconv.Atoi(fields[cols["PPID"]]); err != nil {
		return ProcessRecord{}, false
	}
	if rec.PGID, err = strconv.Atoi(fields[cols["PGID"]]); err != nil {
		return ProcessRecord{}, false
	}
	if hasWin {
		if rec.WinPID, err = strconv.Atoi(fields[winCol]); err != nil {
			return ProcessRecord{}, false
		}
	}

	// A start time older than a day prints as "Oct 18".
	start := stime + 1
	if !strings.Contains(fields[stime], ":") && start < len(fields) && isDigits(fields[start]) {
		start++
	}
	if start >= len(fields) {
		return ProcessRecord{}, false
	}
	rec.Command = strings.Join(fields[start:], " ")
	return rec, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
