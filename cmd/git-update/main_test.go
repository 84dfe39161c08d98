package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitupdate/internal/config"
	"gitupdate/internal/debug"
	apperrors "gitupdate/internal/errors"
	"gitupdate/internal/fetch"
	"gitupdate/internal/update"
)

func runExecute(t *testing.T, args []string, run runFunc) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	s := streams{in: strings.NewReader(""), out: &out, errOut: &errOut}
	code := execute(context.Background(), args, s, run)
	return code, out.String(), errOut.String()
}

func failRun(t *testing.T) runFunc {
	return func(context.Context, cliOptions, streams) int {
		t.Fatal("run should not be called")
		return 0
	}
}

func TestExecute_ParsesFlags(t *testing.T) {
	var got cliOptions
	code, _, _ := runExecute(t, []string{"-y", "-g", "--quiet", "--testing", "--debug", "--current-version", "2.41.0.windows.1"},
		func(_ context.Context, opts cliOptions, _ streams) int {
			got = opts
			return apperrors.ExitOK
		})

	require.Equal(t, apperrors.ExitOK, code)
	assert.True(t, got.yes)
	assert.True(t, got.gui)
	assert.True(t, got.quiet)
	assert.True(t, got.testing)
	assert.True(t, got.debug)
	assert.Equal(t, "2.41.0.windows.1", got.currentVersion)
}

func TestExecute_PropagatesExitCode(t *testing.T) {
	code, _, _ := runExecute(t, nil, func(context.Context, cliOptions, streams) int {
		return apperrors.ExitHTTP
	})
	assert.Equal(t, apperrors.ExitHTTP, code)
}

func TestExecute_HelpExitsOne(t *testing.T) {
	for _, arg := range []string{"-h", "--help", "-?"} {
		t.Run(arg, func(t *testing.T) {
			code, out, _ := runExecute(t, []string{arg}, failRun(t))
			assert.Equal(t, apperrors.ExitDeclined, code)
			assert.Contains(t, out, "--yes")
			assert.NotContains(t, out, "--current-version")
		})
	}
}

func TestExecute_UnknownFlag(t *testing.T) {
	code, _, errOut := runExecute(t, []string{"--bogus"}, failRun(t))
	assert.Equal(t, apperrors.ExitDeclined, code)
	assert.Contains(t, errOut, "unknown flag: --bogus")
	assert.Contains(t, errOut, "Usage:")
}

func TestExecute_RejectsArguments(t *testing.T) {
	code, _, errOut := runExecute(t, []string{"extra"}, failRun(t))
	assert.Equal(t, apperrors.ExitDeclined, code)
	assert.Contains(t, errOut, "Error:")
}

func TestExecute_Version(t *testing.T) {
	code, out, _ := runExecute(t, []string{"--version"}, failRun(t))
	assert.Equal(t, apperrors.ExitOK, code)
	assert.Contains(t, out, "git-update version")
}

func TestNormalizeArgs(t *testing.T) {
	in := []string{"-y", "-?", "--quiet"}
	got := normalizeArgs(in)
	assert.Equal(t, []string{"-y", "--help", "--quiet"}, got)
	assert.Equal(t, "-?", in[1], "input must not be modified")
}

func TestReportResult(t *testing.T) {
	tests := []struct {
		name     string
		quiet    bool
		res      update.Result
		wantOut  string
		wantErr  string
		wantCode int
	}{
		{
			name:     "up to date",
			res:      update.Result{State: update.StateUpToDate, Latest: "2.42.0"},
			wantOut:  "Up to date (2.42.0)",
			wantCode: apperrors.ExitOK,
		},
		{
			name:     "up to date quiet",
			quiet:    true,
			res:      update.Result{State: update.StateUpToDate, Latest: "2.42.0"},
			wantCode: apperrors.ExitOK,
		},
		{
			name:     "declined",
			res:      update.Result{State: update.StateDeclined, Latest: "2.43.0", ExitCode: apperrors.ExitDeclined},
			wantOut:  "Not installing 2.43.0",
			wantCode: apperrors.ExitDeclined,
		},
		{
			name:     "installing",
			res:      update.Result{State: update.StateTerminateSiblings, Latest: "2.43.0"},
			wantOut:  "Installing 2.43.0",
			wantCode: apperrors.ExitOK,
		},
		{
			name: "failed",
			res: update.Result{
				State: update.StateFailed,
				Err:   apperrors.New(apperrors.CodeTransport, "fetch latest version: connection refused", nil),
			},
			wantErr:  "Error: fetch latest version: connection refused",
			wantCode: apperrors.ExitTransport,
		},
		{
			name: "http failure shows body",
			res: update.Result{
				State: update.StateFailed,
				Err: apperrors.New(apperrors.CodeHTTP, "", &fetch.HTTPError{
					URL:        "https://api.github.com/repos/git-for-windows/git/releases/latest",
					StatusCode: 403,
					Body:       `{"message":"API rate limit exceeded"}`,
				}),
			},
			wantErr:  `status 403: {"message":"API rate limit exceeded"}`,
			wantCode: apperrors.ExitHTTP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			s := streams{out: &out, errOut: &errOut}

			code := reportResult(s, cliOptions{quiet: tt.quiet}, "2.42.0", tt.res)

			assert.Equal(t, tt.wantCode, code)
			if tt.wantOut == "" {
				assert.Empty(t, out.String())
			} else {
				assert.Contains(t, out.String(), tt.wantOut)
			}
			if tt.wantErr != "" {
				assert.Contains(t, errOut.String(), tt.wantErr)
			}
		})
	}
}

func TestFlagOverrides(t *testing.T) {
	assert.Empty(t, flagOverrides(cliOptions{}))
	assert.Equal(t, map[string]any{config.KeyDebug: true}, flagOverrides(cliOptions{debug: true}))
}

func TestReportErrorNamesDebugLog(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	require.NoError(t, debug.Init(true))
	t.Cleanup(func() {
		debug.Close()
		_ = debug.Init(false)
	})

	var errOut bytes.Buffer
	code := reportError(streams{errOut: &errOut}, errors.New("boom"))

	assert.Equal(t, apperrors.ExitFailure, code)
	assert.Contains(t, errOut.String(), "Error: boom")
	assert.Contains(t, errOut.String(), "Debug log: "+filepath.Join(home, debug.LogDirName, debug.LogFileName))
}

func TestReportErrorQuietWithoutDebug(t *testing.T) {
	require.NoError(t, debug.Init(false))

	var errOut bytes.Buffer
	reportError(streams{errOut: &errOut}, errors.New("boom"))

	assert.Equal(t, "Error: boom\n", errOut.String())
}
