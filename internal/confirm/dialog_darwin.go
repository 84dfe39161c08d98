//go:build darwin

package confirm

import "gitupdate/internal/command"

func newPlatformDialog(runner command.Runner) Dialog {
	return newToolDialog(runner, false, osascriptTool)
}
