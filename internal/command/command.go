// Package command runs external programs behind an interface so tests can
// inject stubs.
package command

import (
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
)

// Runner executes external commands, allowing tests to inject stubs.
type Runner interface {
	Run(ctx context.Context, bin string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec and returns their combined output.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, bin string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	return cmd.CombinedOutput()
}

// LookPathFunc resolves a binary reference to an executable path.
type LookPathFunc func(bin string) (string, error)

// ExitCode extracts the exit status from an error returned by Runner.Run.
// The second result is false when the command did not run to completion.
func ExitCode(err error) (int, bool) {
	if err == nil {
		return 0, true
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode(), true
	}
	return 0, false
}

// Split breaks a configured command line into the binary and its
// arguments. Arguments are separated by whitespace; there is no quoting.
func Split(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

// ExitError is an error carrying an exit status. Stub runners return it to
// simulate a program exiting with a given code.
type ExitError struct {
	Code int
}

func (e ExitError) Error() string {
	return "exit status " + strconv.Itoa(e.Code)
}

// ExitCode implements the interface recognized by ExitCode.
func (e ExitError) ExitCode() int {
	return e.Code
}
