package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gitupdate/internal/census"
	"gitupdate/internal/command"
	"gitupdate/internal/config"
	"gitupdate/internal/confirm"
	"gitupdate/internal/debug"
	apperrors "gitupdate/internal/errors"
	"gitupdate/internal/fetch"
	"gitupdate/internal/ui"
	"gitupdate/internal/update"
)

// runUpdate wires the real collaborators and runs the update flow once.
func runUpdate(ctx context.Context, opts cliOptions, s streams) int {
	if err := config.Initialize(); err != nil {
		fmt.Fprintf(s.errOut, "Error initializing config: %v\n", err)
		return apperrors.ExitFailure
	}

	if err := config.ApplyOverrides(flagOverrides(opts)); err != nil {
		fmt.Fprintf(s.errOut, "Error applying flags: %v\n", err)
		return apperrors.ExitFailure
	}

	if err := debug.Init(config.GetBool(config.KeyDebug)); err != nil {
		fmt.Fprintf(s.errOut, "Warning: %v\n", err)
	}
	defer debug.Close()

	interactive := confirm.StdioInteractive()
	ui.ConfigureOutput(s.out, interactive)

	store, err := config.OpenStore(config.StoreOptions{
		Backend: config.GetString(config.KeyStoreBackend),
		Path:    config.GetString(config.KeyStorePath),
	})
	if err != nil {
		return reportError(s, err)
	}

	current := strings.TrimSpace(opts.currentVersion)
	if current == "" {
		current, err = update.HostVersion(ctx, command.ExecRunner{},
			config.GetString(config.KeyHostVersionCommand),
			config.GetString(config.KeyHostVersionPrefix))
		if err != nil {
			return reportError(s, err)
		}
	}
	debug.LogFields(debug.Fields{
		"current": current,
		"quiet":   opts.quiet,
		"testing": opts.testing,
		"yes":     opts.yes,
		"gui":     opts.gui,
	}, "git-update: starting")

	channel := confirm.Select(confirm.Options{
		Yes:         opts.yes,
		GUI:         opts.gui,
		In:          s.in,
		Out:         s.out,
		Interactive: interactive,
		ToastHelper: config.GetString(config.KeyToastHelper),
		ToastExpire: config.GetDuration(config.KeyToastExpire),
		AskYesNo:    config.GetString(config.KeyAskYesNo),
	})
	debug.Logf("git-update: confirming through %s", channel.Name())

	var reporter *stageReporter
	if interactive {
		reporter = newStageReporter(func() spinnerHandle {
			return newStageSpinner(s.errOut, defaultSpinnerDelay)
		})
	}
	defer reporter.Stop()

	orchestrator := update.NewOrchestrator(update.Options{
		CurrentVersion: current,
		HostName:       config.GetString(config.KeyHostName),
		Quiet:          opts.quiet,
		Testing:        opts.testing,
		LatestTagURL:   config.GetString(config.KeyLatestTagURL),
		ReleasesURL:    config.GetString(config.KeyReleasesURL),
		DownloadDir:    config.GetString(config.KeyDownloadDir),
		InstallerArgs:  config.GetStringSlice(config.KeyInstallerArgs),
		OnState:        reporter.OnState,
		OnProgress:     reporter.OnProgress,
	}, update.Deps{
		Store:         store,
		NewFetcher:    newFetcherFactory(config.GetDuration(config.KeyHTTPTimeout)),
		DiscoverProxy: fetch.DiscoverProxy,
		Census:        census.New(census.NewSystemLister(command.ExecRunner{}), config.GetString(config.KeyShellPath)),
		Terminator:    census.SystemTerminator{},
		Channel:       channel,
		Launcher:      update.DetachedLauncher{},
	})

	res := orchestrator.Run(ctx)
	reporter.Stop()
	return reportResult(s, opts, current, res)
}

// flagOverrides maps the flags that mirror configuration keys onto those
// keys. Unset flags leave the configured value alone.
func flagOverrides(opts cliOptions) map[string]any {
	overrides := map[string]any{}
	if opts.debug {
		overrides[config.KeyDebug] = true
	}
	return overrides
}

func newFetcherFactory(timeout time.Duration) func(*url.URL) update.Fetcher {
	return func(proxy *url.URL) update.Fetcher {
		return fetch.New(
			fetch.WithProxy(proxy),
			fetch.WithTimeout(timeout),
			fetch.WithUserAgent(userAgent()),
		)
	}
}

func reportResult(s streams, opts cliOptions, current string, res update.Result) int {
	switch res.State {
	case update.StateFailed:
		return reportError(s, res.Err)
	case update.StateUpToDate:
		if !opts.quiet {
			fmt.Fprintln(s.out, ui.StageLine(fmt.Sprintf("Up to date (%s)", current)))
		}
	case update.StateDeclined:
		if !opts.quiet {
			fmt.Fprintln(s.out, ui.StageLine(fmt.Sprintf("Not installing %s", res.Latest)))
		}
	case update.StateTerminateSiblings:
		fmt.Fprintln(s.out, ui.StageLine(fmt.Sprintf("Installing %s", res.Latest)))
	}
	debug.LogFields(debug.Fields{"state": string(res.State), "exit": res.ExitCode}, "git-update: finished")
	return res.ExitCode
}

func reportError(s streams, err error) int {
	fmt.Fprintf(s.errOut, "Error: %v\n", err)
	debug.Logf("git-update: %v", err)
	if debug.Enabled() {
		if path, err := debug.GetLogPath(); err == nil {
			fmt.Fprintf(s.errOut, "Debug log: %s\n", path)
		}
	}
	return apperrors.ExitCode(err)
}
