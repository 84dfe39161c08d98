//go:build !windows

package update

import (
	"os/exec"
	"syscall"
)

// setSysProcAttr puts the installer in a new session, detached from the
// terminal of the shell that started git-update.
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
}
