// Package cli wires the benchkeep commands onto a urfave/cli application.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/level"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"benchkeep/internal/annotate"
	"benchkeep/internal/config"
	"benchkeep/internal/errs"
	"benchkeep/internal/git"
	"benchkeep/internal/history"
	"benchkeep/internal/publish"
)

// Version is reported by --version.
var Version = "0.3.0"

// VCS is what the commands need from version control.
type VCS interface {
	publish.Provider
	Revision(ctx context.Context, repo, ref string) (history.Revision, error)
	RemoteURL(ctx context.Context, repo, remote string) (string, error)
}

// CommenterFunc builds the commit commenter for a repository.
type CommenterFunc func(repo annotate.Repo, cfg config.Config) annotate.Commenter

// Env is everything the application takes from its surroundings. Zero
// fields fall back to the real process values.
type Env struct {
	Environ   []string
	Dir       string
	Stdout    io.Writer
	Stderr    io.Writer
	Now       func() time.Time
	VCS       VCS
	Commenter CommenterFunc
}

func (e Env) withDefaults() Env {
	if e.Dir == "" {
		e.Dir = "."
	}
	if e.Stdout == nil {
		e.Stdout = os.Stdout
	}
	if e.Stderr == nil {
		e.Stderr = os.Stderr
	}
	if e.Now == nil {
		e.Now = time.Now
	}
	if e.VCS == nil {
		e.VCS = git.NewClient(e.Environ)
	}
	if e.Commenter == nil {
		e.Commenter = func(repo annotate.Repo, cfg config.Config) annotate.Commenter {
			return annotate.NewGitHub(repo, annotate.Options{BaseURL: cfg.APIURL, Token: cfg.GitHubToken})
		}
	}
	return e
}

// app holds what every command shares.
type app struct {
	ctx context.Context
	env Env
}

// NewApp builds the benchkeep application.
func NewApp(ctx context.Context, env Env) *cli.App {
	a := &app{ctx: ctx, env: env.withDefaults()}
	defaults := config.Defaults()

	cliApp := cli.NewApp()
	cliApp.Name = "benchkeep"
	cliApp.Usage = "continuous benchmarking bookkeeping"
	cliApp.Version = Version
	cliApp.Writer = a.env.Stdout
	cliApp.ErrWriter = a.env.Stderr

	cliApp.Commands = []cli.Command{
		a.runCommand(defaults),
		a.storeCommand(defaults),
		a.compareCommand(defaults),
		a.historyCommand(defaults),
	}
	for i := range cliApp.Commands {
		cliApp.Commands[i].OnUsageError = onUsageError
	}

	cliApp.Flags = globalFlags()
	cliApp.OnUsageError = onUsageError

	cliApp.Before = func(c *cli.Context) error {
		logLevel := c.String(levelFlag)
		if c.Bool(verboseFlag) {
			logLevel = "debug"
		}
		return errors.WithStack(loggingSetup(cliApp.Name, logLevel))
	}

	cliApp.Action = func(c *cli.Context) error {
		if c.NArg() > 0 {
			return usageErrorf("unknown command %q", c.Args().First())
		}
		return cli.ShowAppHelp(c)
	}

	return cliApp
}

// Run executes args (without the program name) and returns the exit code.
func Run(ctx context.Context, args []string, env Env) int {
	env = env.withDefaults()
	cliApp := NewApp(ctx, env)

	err := cliApp.Run(append([]string{cliApp.Name}, args...))
	if err != nil {
		fmt.Fprintf(env.Stderr, "%s: %v\n", cliApp.Name, err)
	}
	return ExitCode(err)
}

func onUsageError(_ *cli.Context, err error, _ bool) error {
	return withExitCode(ExitUsage, err)
}

// logging setup is separate to make it unit testable
func loggingSetup(name, logLevel string) error {
	sender := grip.GetSender()
	sender.SetName(name)

	lvl := sender.Level()
	lvl.Threshold = level.FromString(logLevel)
	return errors.WithStack(sender.SetLevel(lvl))
}

// configure resolves the configuration for a command: defaults, CI
// environment, config file, then the command's flags. Invalid settings are
// reported all at once.
func (a *app) configure(c *cli.Context) (config.Config, error) {
	cfg, path, err := config.Load(c.GlobalString(configFlag), a.env.Environ, a.env.Dir)
	if err != nil {
		if !errs.IsConfig(err) {
			err = withExitCode(ExitUsage, errors.Wrapf(err, "loading config %s", path))
		}
		return cfg, err
	}
	overlay(c, &cfg)

	result := config.Validate(cfg)
	if !result.Valid {
		for _, verr := range result.Errors {
			grip.Debug(message.Fields{
				"message": "invalid setting",
				"key":     verr.Key,
				"reason":  config.FormatError(verr),
			})
		}
		return cfg, result.Err()
	}
	return cfg, nil
}

// repoPath is the repository the command operates on.
func (a *app) repoPath(c *cli.Context) string {
	if p := c.GlobalString(repoFlag); p != "" {
		return a.resolve(p)
	}
	return a.env.Dir
}

// resolve makes p relative to the working directory.
func (a *app) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.env.Dir, p)
}
