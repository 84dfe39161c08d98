package update

import (
	"context"
	"fmt"
	"strings"

	"gitupdate/internal/command"
	apperrors "gitupdate/internal/errors"
	"gitupdate/internal/version"
)

// HostVersion runs the host's version command (e.g. "git --version") and
// returns the version it reports, with prefix removed.
func HostVersion(ctx context.Context, runner command.Runner, cmdline, prefix string) (string, error) {
	bin, args := command.Split(cmdline)
	if bin == "" {
		return "", apperrors.New(apperrors.CodeConfigurationError, "no host version command configured", nil)
	}
	if runner == nil {
		runner = command.ExecRunner{}
	}

	out, err := runner.Run(ctx, bin, args...)
	if err != nil {
		return "", apperrors.New(apperrors.CodeHostVersion,
			fmt.Sprintf("run %q: %v: %s", cmdline, err, strings.TrimSpace(string(out))), err)
	}
	v, err := version.FromHostOutput(string(out), prefix)
	if err != nil {
		return "", apperrors.New(apperrors.CodeHostVersion, "", err)
	}
	return v, nil
}
