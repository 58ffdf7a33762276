package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// ErrGitNotFound is returned when no git binary can be located.
var ErrGitNotFound = errors.New("git executable not found")

// CommandError describes a git invocation that exited unsuccessfully.
type CommandError struct {
	Args     []string
	ExitCode int // -1 when the process did not start or was killed
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	}
	return fmt.Sprintf("git %s: %v: %s", strings.Join(e.Args, " "), e.Err, out)
}

func (e *CommandError) Unwrap() error { return e.Err }

// exitCode returns the exit status carried by err, or -1.
func exitCode(err error) int {
	var cerr *CommandError
	if errors.As(err, &cerr) {
		return cerr.ExitCode
	}
	return -1
}

// result holds the separated streams of a finished command.
type result struct {
	stdout []byte
	stderr string
}

// run executes git with args inside repo. The environment is the one handed
// to the client plus settings that keep git from prompting or localizing
// its messages.
func (c *Client) run(ctx context.Context, repo string, args ...string) (result, error) {
	if c.binary == "" {
		return result{}, ErrGitNotFound
	}

	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Dir = repo
	cmd.Env = append(append([]string{}, c.env...), "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	grip.Debug(message.Fields{
		"message": "running git",
		"repo":    repo,
		"args":    args,
	})

	err := cmd.Run()
	res := result{stdout: stdout.Bytes(), stderr: stderr.String()}
	if err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return res, &CommandError{
			Args:     args,
			ExitCode: code,
			Output:   res.stderr + stdout.String(),
			Err:      err,
		}
	}

	return res, nil
}

// output runs git and returns trimmed stdout.
func (c *Client) output(ctx context.Context, repo string, args ...string) (string, error) {
	res, err := c.run(ctx, repo, args...)
	return strings.TrimSpace(string(res.stdout)), err
}

// lookGit finds the git binary on PATH.
func lookGit() string {
	p, err := exec.LookPath("git")
	if err != nil {
		return ""
	}
	return p
}

// IsNotFound checks if the error indicates git itself was not found
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrGitNotFound) || errors.Is(err, exec.ErrNotFound) || os.IsNotExist(errors.Cause(err))
}
