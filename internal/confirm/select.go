package confirm

import (
	"io"
	"os/exec"
	"strings"
	"time"

	"gitupdate/internal/command"
	"gitupdate/internal/debug"
)

// Options describe the environment Select chooses a channel for.
type Options struct {
	// Yes accepts without asking (--yes).
	Yes bool
	// GUI prefers a toast or dialog over the terminal (--gui).
	GUI bool

	In          io.Reader
	Out         io.Writer
	Interactive bool

	Runner   command.Runner
	LookPath command.LookPathFunc

	ToastHelper string
	ToastExpire time.Duration
	// AskYesNo is a helper command that replaces the platform dialog.
	AskYesNo string
}

// Select picks the channel for this run: auto for --yes; for --gui a
// toast when available, else a dialog, each falling back down the chain
// to the terminal; otherwise the terminal.
func Select(opts Options) Channel {
	if opts.Yes {
		return AutoChannel{}
	}

	runner := opts.Runner
	if runner == nil {
		runner = command.ExecRunner{}
	}
	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	terminal := NewTerminalChannel(opts.In, opts.Out, opts.Interactive)
	if !opts.GUI {
		return terminal
	}

	var dialog Dialog
	if helper := strings.TrimSpace(opts.AskYesNo); helper != "" {
		dialog = NewHelperDialog(runner, helper)
	} else {
		dialog = newPlatformDialog(runner)
	}
	graphical := NewGraphicalChannel(dialog, terminal)

	if path, ok := ToastAvailable(opts.ToastHelper, lookPath); ok {
		debug.Logf("confirm: using toast helper %s", path)
		return NewToastChannel(runner, path, opts.ToastExpire, graphical)
	}
	return graphical
}
