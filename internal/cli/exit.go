package cli

import (
	"fmt"

	"github.com/pkg/errors"

	"benchkeep/internal/errs"
)

// Process exit codes.
const (
	ExitOK        = 0
	ExitThreshold = 1 // fail threshold reached with fail-on-alert
	ExitUsage     = 2
	ExitFailure   = 3 // parse, IO or version-control error
	ExitNotFound  = 4
)

// exitError carries an explicit exit code out of a command action. It must
// not implement cli.ExitCoder, which makes the cli package call os.Exit.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func usageErrorf(format string, args ...interface{}) error {
	return withExitCode(ExitUsage, fmt.Errorf(format, args...))
}

// ExitCode maps an error returned by the application onto a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	switch {
	case errs.IsConfig(err):
		return ExitUsage
	case errs.IsNotFound(err):
		return ExitNotFound
	default:
		return ExitFailure
	}
}
