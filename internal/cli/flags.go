package cli

import (
	"strings"

	"github.com/urfave/cli"

	"benchkeep/internal/config"
)

////////////////////////////////////////////////////////////////////////
//
// Flag Name Constants

const (
	levelFlag   = "level"
	verboseFlag = "verbose"
	configFlag  = "config"
	repoFlag    = "repo"

	outputFileFlag = "output-file"
	nameFlag       = "name"
	toolFlag       = "tool"
	gitRefFlag     = "git-ref"

	dataFileFlag         = "data-file"
	externalDataFlag     = "external-data-json-path"
	dataBucketFlag       = "data-bucket"
	dataBucketTypeFlag   = "data-bucket-type"
	dataBucketPrefixFlag = "data-bucket-prefix"
	dataBucketRegionFlag = "data-bucket-region"
	saveDataFileFlag     = "save-data-file"
	maxItemsInChartFlag  = "max-items-in-chart"
	maxItemsFlag         = "max-items"

	alertThresholdFlag  = "alert-threshold"
	failThresholdFlag   = "fail-threshold"
	failOnAlertFlag     = "fail-on-alert"
	commentAlwaysFlag   = "comment-always"
	commentOnAlertFlag  = "comment-on-alert"
	ccUsersFlag         = "alert-comment-cc-users"
	githubTokenFlag     = "github-token"
	formatFlag          = "format"
	metricsTextfileFlag = "metrics-textfile"

	autoPushFlag      = "auto-push"
	ghPagesBranchFlag = "gh-pages-branch"
	dataDirPathFlag   = "benchmark-data-dir-path"
	remoteFlag        = "remote"
	skipFetchFlag     = "skip-fetch-gh-pages"
	dashboardDirFlag  = "dashboard-dir"

	limitFlag = "limit"
)

////////////////////////////////////////////////////////////////////////
//
// Utility Functions

func joinFlagNames(ids ...string) string { return strings.Join(ids, ", ") }

func mergeFlags(in ...[]cli.Flag) []cli.Flag {
	out := []cli.Flag{}

	for idx := range in {
		out = append(out, in[idx]...)
	}

	return out
}

////////////////////////////////////////////////////////////////////////
//
// Flag Groups
//
// Defaults shown in help come from config.Defaults; the effective value is
// resolved by overlay, so flags only win when they are given explicitly.

func globalFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  levelFlag,
			Value: "info",
			Usage: "Specify lowest visible loglevel as string: 'emergency|alert|critical|error|warning|notice|info|debug'",
		},
		cli.BoolFlag{
			Name:  verboseFlag,
			Usage: "shorthand for --level=debug",
		},
		cli.StringFlag{
			Name:  configFlag,
			Usage: "path to a YAML config file (default: $BENCHKEEP_CONFIG or " + config.DefaultFile + ")",
		},
		cli.StringFlag{
			Name:  repoFlag,
			Usage: "path to the git repository (default: the working directory)",
		},
	}
}

func inputFlags(d config.Config, flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:  joinFlagNames(outputFileFlag, "o"),
			Usage: "file holding the benchmark tool output",
		},
		cli.StringFlag{
			Name:  joinFlagNames(nameFlag, "n"),
			Usage: "benchmark suite name",
			Value: d.Name,
		},
		cli.StringFlag{
			Name:  joinFlagNames(toolFlag, "t"),
			Usage: "benchmark output format: cargo, criterion or go",
			Value: d.Tool,
		},
	)
}

func dataFlags(d config.Config, flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:  dataFileFlag,
			Usage: "history document, or its key inside --data-bucket",
			Value: d.DataFile,
		},
		cli.StringFlag{
			Name:  dataBucketFlag,
			Usage: "keep the history document in a bucket (directory for local, bucket name for s3)",
		},
		cli.StringFlag{
			Name:  dataBucketTypeFlag,
			Usage: "bucket backend: local or s3",
			Value: d.DataBucketType,
		},
		cli.StringFlag{
			Name:  dataBucketPrefixFlag,
			Usage: "key prefix inside the bucket",
		},
		cli.StringFlag{
			Name:  dataBucketRegionFlag,
			Usage: "region of an s3 bucket",
		},
	)
}

func thresholdFlags(d config.Config, flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:  alertThresholdFlag,
			Usage: "ratio at which a regression alerts, e.g. 200% or 1.5x",
			Value: d.AlertThreshold,
		},
		cli.StringFlag{
			Name:  failThresholdFlag,
			Usage: "ratio at which a regression fails (default: the alert threshold)",
		},
	)
}

func runFlags(d config.Config) []cli.Flag {
	flags := mergeFlags(inputFlags(d), dataFlags(d), thresholdFlags(d))
	return append(flags,
		cli.StringFlag{
			Name:  gitRefFlag,
			Usage: "revision the measurements belong to (default: $GITHUB_SHA or HEAD)",
		},
		cli.StringFlag{
			Name:  externalDataFlag,
			Usage: "history document to use instead of --data-file",
		},
		cli.BoolTFlag{
			Name:  saveDataFileFlag,
			Usage: "append the run to the history document",
		},
		cli.IntFlag{
			Name:  maxItemsInChartFlag,
			Usage: "keep at most this many runs per suite (0 keeps all)",
		},
		cli.BoolFlag{
			Name:  failOnAlertFlag,
			Usage: "exit non-zero when the fail threshold is reached",
		},
		cli.BoolFlag{
			Name:  commentAlwaysFlag,
			Usage: "comment on the commit after every run",
		},
		cli.BoolFlag{
			Name:  commentOnAlertFlag,
			Usage: "comment on the commit when the alert threshold is reached",
		},
		cli.StringFlag{
			Name:  ccUsersFlag,
			Usage: "users mentioned in alert comments, e.g. '@a,@b'",
		},
		cli.StringFlag{
			Name:  githubTokenFlag,
			Usage: "token used for commit comments (default: $GITHUB_TOKEN)",
		},
		cli.BoolFlag{
			Name:  autoPushFlag,
			Usage: "publish the history to the pages branch",
		},
		cli.StringFlag{
			Name:  ghPagesBranchFlag,
			Usage: "branch the history is published to",
			Value: d.GhPagesBranch,
		},
		cli.StringFlag{
			Name:  dataDirPathFlag,
			Usage: "directory inside the pages branch holding the history",
			Value: d.BenchmarkDataDirPath,
		},
		cli.StringFlag{
			Name:  remoteFlag,
			Usage: "git remote to fetch from and push to",
			Value: d.Remote,
		},
		cli.BoolFlag{
			Name:  skipFetchFlag,
			Usage: "do not fetch the pages branch before publishing",
		},
		cli.StringFlag{
			Name:  dashboardDirFlag,
			Usage: "dashboard files published next to the history",
		},
		cli.StringFlag{
			Name:  metricsTextfileFlag,
			Usage: "write a Prometheus textfile describing the run",
		},
	)
}

func storeFlags(d config.Config) []cli.Flag {
	flags := mergeFlags(inputFlags(d), dataFlags(d))
	return append(flags,
		cli.StringFlag{
			Name:  gitRefFlag,
			Usage: "revision the measurements belong to (default: HEAD)",
		},
		cli.IntFlag{
			Name:  maxItemsFlag,
			Usage: "keep at most this many runs per suite (0 keeps all)",
		},
	)
}

func compareFlags(d config.Config) []cli.Flag {
	flags := mergeFlags(inputFlags(d), dataFlags(d), thresholdFlags(d))
	return append(flags,
		cli.StringFlag{
			Name:  formatFlag,
			Usage: "output format: markdown, json or text",
			Value: d.Format,
		},
	)
}

func historyFlags(d config.Config) []cli.Flag {
	return dataFlags(d,
		cli.StringFlag{
			Name:  joinFlagNames(nameFlag, "n"),
			Usage: "only show this suite",
		},
		cli.IntFlag{
			Name:  joinFlagNames(limitFlag, "l"),
			Usage: "number of runs shown per suite",
			Value: 10,
		},
	)
}

////////////////////////////////////////////////////////////////////////
//
// Overlay

// overlay copies every explicitly given flag onto cfg.
func overlay(c *cli.Context, cfg *config.Config) {
	str := func(flag string, dst *string) {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}
	boolean := func(flag string, dst *bool) {
		if c.IsSet(flag) {
			*dst = c.Bool(flag)
		}
	}
	integer := func(flag string, dst *int) {
		if c.IsSet(flag) {
			*dst = c.Int(flag)
		}
	}

	str(nameFlag, &cfg.Name)
	str(toolFlag, &cfg.Tool)
	str(gitRefFlag, &cfg.GitRef)

	str(dataFileFlag, &cfg.DataFile)
	str(externalDataFlag, &cfg.ExternalDataJSONPath)
	str(dataBucketFlag, &cfg.DataBucket)
	str(dataBucketTypeFlag, &cfg.DataBucketType)
	str(dataBucketPrefixFlag, &cfg.DataBucketPrefix)
	str(dataBucketRegionFlag, &cfg.DataBucketRegion)
	if c.IsSet(saveDataFileFlag) {
		cfg.SaveDataFile = c.BoolT(saveDataFileFlag)
	}
	integer(maxItemsInChartFlag, &cfg.MaxItemsInChart)
	integer(maxItemsFlag, &cfg.MaxItemsInChart)

	str(alertThresholdFlag, &cfg.AlertThreshold)
	str(failThresholdFlag, &cfg.FailThreshold)
	boolean(failOnAlertFlag, &cfg.FailOnAlert)
	boolean(commentAlwaysFlag, &cfg.CommentAlways)
	boolean(commentOnAlertFlag, &cfg.CommentOnAlert)
	str(ccUsersFlag, &cfg.AlertCommentCCUsers)
	str(githubTokenFlag, &cfg.GitHubToken)
	str(formatFlag, &cfg.Format)
	str(metricsTextfileFlag, &cfg.MetricsTextfile)

	boolean(autoPushFlag, &cfg.AutoPush)
	str(ghPagesBranchFlag, &cfg.GhPagesBranch)
	str(dataDirPathFlag, &cfg.BenchmarkDataDirPath)
	str(remoteFlag, &cfg.Remote)
	boolean(skipFetchFlag, &cfg.SkipFetchGhPages)
	str(dashboardDirFlag, &cfg.DashboardDir)
}
