package update

import (
	"context"
	"fmt"
	"os/exec"

	"gitupdate/internal/debug"
)

// Launcher starts the downloaded installer.
type Launcher interface {
	Launch(ctx context.Context, path string, args []string) error
}

// DetachedLauncher starts the installer in its own session so it survives
// both git-update exiting and the shells it is about to close.
type DetachedLauncher struct{}

// Launch implements Launcher. It returns once the installer has started.
func (DetachedLauncher) Launch(_ context.Context, path string, args []string) error {
	//nolint:gosec // G204: path is the installer this run just downloaded
	cmd := exec.Command(path, args...)
	setSysProcAttr(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start installer: %w", err)
	}
	debug.Logf("update: installer %s started as pid %d", path, cmd.Process.Pid)
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("release installer: %w", err)
	}
	return nil
}
