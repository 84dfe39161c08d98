package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	apperrors "gitupdate/internal/errors"
)

type cliOptions struct {
	yes            bool
	gui            bool
	quiet          bool
	testing        bool
	debug          bool
	version        bool
	currentVersion string
}

type streams struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// runFunc performs an update run and returns the process exit status.
type runFunc func(ctx context.Context, opts cliOptions, s streams) int

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], streams{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}, runUpdate)
	stop()
	os.Exit(code)
}

// execute parses args and dispatches to run. Help and flag errors exit
// with ExitDeclined after printing usage.
func execute(ctx context.Context, args []string, s streams, run runFunc) int {
	var opts cliOptions
	exitCode := apperrors.ExitOK
	helpShown := false

	cmd := &cobra.Command{
		Use:   "git-update [flags]",
		Short: "Check for and install Git for Windows updates",
		Long: `git-update checks whether a newer release of Git for Windows is available
and, once confirmed, downloads and starts its installer. The installer
closes every open shell session.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.version {
				printVersion(s.out)
				return nil
			}
			exitCode = run(cmd.Context(), opts, s)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.yes, "yes", "y", false, "Install without asking")
	flags.BoolVarP(&opts.gui, "gui", "g", false, "Ask with a notification or dialog instead of the terminal")
	flags.BoolVar(&opts.quiet, "quiet", false, "Do not ask again about a version that was already offered")
	flags.BoolVar(&opts.testing, "testing", false, "Offer the latest version even when it is already installed")
	flags.BoolVar(&opts.debug, "debug", false, "Write a debug log to ~/.git-update/debug.log")
	flags.BoolVar(&opts.version, "version", false, "Print version information and exit")
	flags.StringVar(&opts.currentVersion, "current-version", "", "Installed version to compare against")
	_ = flags.MarkHidden("current-version")

	defaultHelp := cmd.HelpFunc()
	cmd.SetHelpFunc(func(c *cobra.Command, a []string) {
		helpShown = true
		defaultHelp(c, a)
	})
	cmd.SetOut(s.out)
	cmd.SetErr(s.errOut)
	cmd.SetArgs(normalizeArgs(args))

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(s.errOut, "Error: %v\n", err)
		fmt.Fprint(s.errOut, cmd.UsageString())
		return apperrors.ExitDeclined
	}
	if helpShown {
		return apperrors.ExitDeclined
	}
	return exitCode
}

// normalizeArgs accepts "-?" as a spelling of --help.
func normalizeArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if a == "-?" {
			a = "--help"
		}
		out[i] = a
	}
	return out
}
