//go:build windows

package census

import "gitupdate/internal/command"

// NewSystemLister returns the Lister for this platform. On Windows the
// POSIX process relationships exist only inside the MSYS2 runtime, so the
// table comes from its ps program; gopsutil is used when ps is missing.
func NewSystemLister(runner command.Runner) Lister {
	return NewPSLister(runner, "ps", []string{"-a"}, SystemLister{})
}
