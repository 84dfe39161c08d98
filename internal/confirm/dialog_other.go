//go:build !windows && !darwin

package confirm

import "gitupdate/internal/command"

func newPlatformDialog(runner command.Runner) Dialog {
	return newToolDialog(runner, true, zenityTool, kdialogTool)
}
