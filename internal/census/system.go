package census

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/process"

	"gitupdate/internal/debug"
)

// SystemLister reads the live process table through gopsutil.
type SystemLister struct{}

// Processes implements Lister. Processes that exit while the table is
// being read are skipped.
func (SystemLister) Processes(ctx context.Context) ([]ProcessRecord, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]ProcessRecord, 0, len(procs))
	skipped := 0
	for _, p := range procs {
		ppid, err := p.PpidWithContext(ctx)
		if err != nil {
			skipped++
			continue
		}
		pid := int(p.Pid)
		pgid, err := processGroup(pid)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, ProcessRecord{
			PID:     pid,
			PPID:    int(ppid),
			PGID:    pgid,
			Command: commandOf(ctx, p),
		})
	}

	if skipped > 0 {
		debug.Logf("census: skipped %d of %d processes", skipped, len(procs))
	}
	return records, nil
}

// commandOf returns the executable path, falling back to argv[0] when the
// executable cannot be read (typically processes owned by another user).
func commandOf(ctx context.Context, p *process.Process) string {
	if exe, err := p.ExeWithContext(ctx); err == nil && exe != "" {
		return exe
	}
	if args, err := p.CmdlineSliceWithContext(ctx); err == nil && len(args) > 0 {
		return args[0]
	}
	return ""
}

// SystemTerminator stops processes through gopsutil.
type SystemTerminator struct{}

// Terminate asks the process to exit and kills it if that fails.
func (SystemTerminator) Terminate(ctx context.Context, pid int) error {
	//nolint:gosec // G115: pids fit in int32
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return fmt.Errorf("process not found: %w", err)
	}
	if err := p.TerminateWithContext(ctx); err != nil {
		if killErr := p.KillWithContext(ctx); killErr != nil {
			return fmt.Errorf("terminate: %v; kill: %w", err, killErr)
		}
	}
	return nil
}
