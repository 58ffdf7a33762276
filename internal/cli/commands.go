package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"benchkeep/internal/compare"
	"benchkeep/internal/config"
	"benchkeep/internal/history"
	"benchkeep/internal/metrics"
	"benchkeep/internal/parser"
	"benchkeep/internal/publish"
)

func (a *app) runCommand(d config.Config) cli.Command {
	return cli.Command{
		Name:  "run",
		Usage: "compare a benchmark run with the previous one, then record and publish it",
		Flags: runFlags(d),
		Action: func(c *cli.Context) error {
			cfg, err := a.configure(c)
			if err != nil {
				return err
			}
			return a.run(c, cfg)
		},
	}
}

func (a *app) storeCommand(d config.Config) cli.Command {
	return cli.Command{
		Name:  "store",
		Usage: "parse benchmark output and append it to the history",
		Flags: storeFlags(d),
		Action: func(c *cli.Context) error {
			cfg, err := a.configure(c)
			if err != nil {
				return err
			}
			return a.store(c, cfg)
		},
	}
}

func (a *app) compareCommand(d config.Config) cli.Command {
	return cli.Command{
		Name:  "compare",
		Usage: "compare benchmark output with the latest recorded run",
		Flags: compareFlags(d),
		Action: func(c *cli.Context) error {
			cfg, err := a.configure(c)
			if err != nil {
				return err
			}
			return a.compare(c, cfg)
		},
	}
}

func (a *app) historyCommand(d config.Config) cli.Command {
	return cli.Command{
		Name:  "history",
		Usage: "show the recorded runs, newest first",
		Flags: historyFlags(d),
		Action: func(c *cli.Context) error {
			cfg, err := a.configure(c)
			if err != nil {
				return err
			}
			return a.history(c, cfg)
		},
	}
}

// parse reads the benchmark output named by --output-file. ok is false when
// the output holds no results, which skips the rest of the command.
func (a *app) parse(c *cli.Context, cfg config.Config) (ms []history.Measurement, ok bool, err error) {
	path := c.String(outputFileFlag)
	if path == "" {
		return nil, false, usageErrorf("flag '--%s' was not specified", outputFileFlag)
	}

	ms, err = parser.ParseFile(cfg.Tool, a.resolve(path))
	if errors.Is(err, parser.ErrNoResults) {
		grip.Info(message.Fields{
			"message": "no benchmark results found, skipping",
			"file":    path,
			"tool":    cfg.Tool,
		})
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	grip.Info(message.Fields{
		"message": "parsed benchmark results",
		"file":    path,
		"count":   len(ms),
	})
	return ms, true, nil
}

func (a *app) now() time.Time { return a.env.Now().UTC() }

func (a *app) run(c *cli.Context, cfg config.Config) error {
	ctx := a.ctx
	out := a.env.Stdout

	ms, ok, err := a.parse(c, cfg)
	if err != nil || !ok {
		return err
	}

	repoPath := a.repoPath(c)
	rev, err := a.revision(ctx, repoPath, cfg)
	if err != nil {
		return err
	}

	src, err := a.source(ctx, cfg)
	if err != nil {
		return err
	}
	h, err := history.LoadFrom(ctx, src)
	if err != nil {
		return err
	}

	th, err := cfg.Thresholds()
	if err != nil {
		return err
	}

	var previous *history.Run
	if prev, ok := h.LatestRun(cfg.Name); ok {
		previous = &prev
	}
	report := compare.Compare(ms, previous, th)

	fmt.Fprintln(out, report.Summary())
	if cfg.Actions {
		fmt.Fprint(out, compare.FormatCI(report))
	}

	a.comment(ctx, repoPath, cfg, rev, report)

	run := history.Run{
		Revision:     rev,
		CapturedAt:   a.now(),
		Tool:         cfg.Tool,
		Measurements: ms,
	}

	var publishErr error
	if cfg.SaveDataFile {
		if err := h.AppendRunAt(cfg.Name, run, cfg.MaxItemsInChart, a.now()); err != nil {
			return errors.Wrapf(err, "recording run for suite %q", cfg.Name)
		}
		if err := history.SaveTo(ctx, src, h); err != nil {
			return err
		}
		grip.Info(message.Fields{
			"message": "saved benchmark data",
			"suite":   cfg.Name,
			"source":  src.String(),
		})

		if cfg.AutoPush {
			publishErr = a.publish(ctx, repoPath, cfg, run)
		}
	}

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(a.resolve(cfg.MetricsTextfile), cfg.Name, run, report); err != nil {
			grip.Warning(message.WrapError(err, message.Fields{
				"message": "writing metrics textfile",
				"path":    cfg.MetricsTextfile,
			}))
		}
	}

	if publishErr != nil && cfg.FailOnAlert {
		return withExitCode(ExitThreshold, errors.Wrap(publishErr, "publishing benchmark data"))
	}

	if compare.ShouldFail(report, cfg.FailOnAlert) {
		grip.Error(message.Fields{
			"message":  "benchmark alert triggered, failing",
			"suite":    cfg.Name,
			"failures": len(report.Failures),
		})
		return withExitCode(ExitThreshold, errors.Errorf("%d benchmark(s) reached the fail threshold", len(report.Failures)))
	}

	return nil
}

// comment posts the report on the revision when the comment policy asks for
// it. Failures are logged, never returned.
func (a *app) comment(ctx context.Context, repoPath string, cfg config.Config, rev history.Revision, report compare.Report) {
	if !cfg.WantsComment(report.HasAlerts()) {
		return
	}
	if cfg.GitHubToken == "" {
		grip.Warning("commenting requested but no GitHub token is configured")
		return
	}

	repo, ok := a.githubRepo(ctx, repoPath, cfg)
	if !ok {
		grip.Warning(message.Fields{
			"message":  "commenting requested but the GitHub repository is unknown",
			"revision": rev.ID,
		})
		return
	}

	body, alerted := compare.AlertMessage(report, cfg.AlertCommentCCUsers)
	if !alerted {
		body = report.Summary()
	}

	url, err := a.env.Commenter(repo, cfg).PostComment(ctx, rev.ID, body)
	if err != nil {
		grip.Warning(message.WrapError(err, message.Fields{
			"message":  "failed to create commit comment",
			"repo":     repo.String(),
			"revision": rev.ID,
		}))
		return
	}

	grip.Info(message.Fields{
		"message": "created commit comment",
		"url":     url,
	})
}

// publish pushes the run to the pages branch. The error is returned so the
// caller can apply the fail-on-alert policy; it is already logged.
func (a *app) publish(ctx context.Context, repoPath string, cfg config.Config, run history.Run) error {
	opts := cfg.PublishOptions(repoPath)

	// Dashboard files may live in the working tree, so they are read before
	// the publisher switches branches.
	if cfg.DashboardDir != "" {
		assets, err := publish.CollectAssets(a.resolve(cfg.DashboardDir))
		if err != nil {
			grip.Warning(message.WrapError(err, message.Fields{
				"message": "reading dashboard files",
				"dir":     cfg.DashboardDir,
			}))
			return err
		}
		opts.Assets = assets
	}

	res, err := publish.NewPublisher(a.env.VCS, opts).WithClock(a.now).Publish(ctx, run)
	if err != nil {
		grip.Warning(message.WrapError(err, message.Fields{
			"message": "failed to publish benchmark data",
			"branch":  opts.Branch,
		}))
		return err
	}

	if res.NoChanges {
		grip.Info(message.Fields{
			"message": "no changes to publish, benchmark data already up to date",
			"branch":  opts.Branch,
		})
		return nil
	}

	grip.Info(message.Fields{
		"message":  "published benchmark data",
		"branch":   opts.Branch,
		"commit":   res.CommitID,
		"pushed":   res.Pushed,
		"created":  res.CreatedBranch,
		"runs":     res.Runs,
		"warnings": res.Warnings,
	})
	return nil
}

func (a *app) store(c *cli.Context, cfg config.Config) error {
	ctx := a.ctx

	ms, ok, err := a.parse(c, cfg)
	if err != nil || !ok {
		return err
	}

	rev, err := a.revision(ctx, a.repoPath(c), cfg)
	if err != nil {
		return err
	}

	src, err := a.source(ctx, cfg)
	if err != nil {
		return err
	}
	h, err := history.LoadFrom(ctx, src)
	if err != nil {
		return err
	}

	run := history.Run{
		Revision:     rev,
		CapturedAt:   a.now(),
		Tool:         cfg.Tool,
		Measurements: ms,
	}
	if err := h.AppendRunAt(cfg.Name, run, cfg.MaxItemsInChart, a.now()); err != nil {
		return errors.Wrapf(err, "recording run for suite %q", cfg.Name)
	}
	if err := history.SaveTo(ctx, src, h); err != nil {
		return err
	}

	fmt.Fprintf(a.env.Stdout, "Stored %d benchmark(s) for suite %q in %s\n", len(ms), cfg.Name, src)
	return nil
}

func (a *app) compare(c *cli.Context, cfg config.Config) error {
	ctx := a.ctx
	out := a.env.Stdout

	ms, ok, err := a.parse(c, cfg)
	if err != nil || !ok {
		return err
	}

	src, err := a.source(ctx, cfg)
	if err != nil {
		return err
	}
	h, err := history.LoadFrom(ctx, src)
	if err != nil {
		return err
	}

	th, err := cfg.Thresholds()
	if err != nil {
		return err
	}

	var previous *history.Run
	if prev, ok := h.LatestRun(cfg.Name); ok {
		previous = &prev
	}
	report := compare.Compare(ms, previous, th)

	switch cfg.Format {
	case config.FormatJSON:
		doc, err := compare.FormatJSON(report)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, doc)
	case config.FormatText:
		fmt.Fprint(out, compare.FormatText(report))
	default:
		fmt.Fprintln(out, report.Summary())
	}
	return nil
}

func (a *app) history(c *cli.Context, cfg config.Config) error {
	ctx := a.ctx
	out := a.env.Stdout

	limit := c.Int(limitFlag)
	if limit <= 0 {
		return usageErrorf("--%s must be positive, got %d", limitFlag, limit)
	}

	src, err := a.source(ctx, cfg)
	if err != nil {
		return err
	}
	h, err := history.LoadFrom(ctx, src)
	if err != nil {
		return err
	}

	var suites []string
	if name := c.String(nameFlag); name != "" {
		if _, err := h.Suite(name); err != nil {
			return err
		}
		suites = []string{name}
	} else {
		for _, s := range h.Suites() {
			suites = append(suites, s.Name)
		}
	}

	if len(suites) == 0 {
		grip.Info(message.Fields{
			"message": "no benchmark history recorded",
			"source":  src.String(),
		})
		return nil
	}

	for _, suite := range suites {
		fmt.Fprintf(out, "## %s\n\n", suite)
		for _, run := range h.Recent(suite, limit) {
			fmt.Fprintf(out, "### %s - %s\n", shortID(run.Revision.ID), run.Revision.Message)
			fmt.Fprintf(out, "Date: %s\n\n", run.CapturedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
			for _, m := range run.Measurements {
				rng := m.Range
				if rng == "" {
					rng = "-"
				}
				fmt.Fprintf(out, "  - %s: %.2f %s (%s)\n", m.Name, m.Value, m.Unit, rng)
			}
			fmt.Fprintln(out)
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}
