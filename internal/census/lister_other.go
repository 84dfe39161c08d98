//go:build !windows

package census

import "gitupdate/internal/command"

// NewSystemLister returns the Lister for this platform.
func NewSystemLister(command.Runner) Lister {
	return SystemLister{}
}
