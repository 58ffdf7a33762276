// Package config assembles the benchkeep settings from built-in defaults, the
// CI environment, an optional YAML file and, finally, command-line flags.
package config

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"benchkeep/internal/annotate"
	"benchkeep/internal/compare"
	"benchkeep/internal/errs"
	"benchkeep/internal/history"
	"benchkeep/internal/publish"
)

// Config holds every setting a command may consult. It is populated once at
// startup and passed by value.
type Config struct {
	// Input
	Name string `yaml:"name"` // suite name
	Tool string `yaml:"tool"`

	// History document
	DataFile             string `yaml:"data_file"`
	ExternalDataJSONPath string `yaml:"external_data_json_path"`
	DataBucket           string `yaml:"data_bucket"`
	DataBucketType       string `yaml:"data_bucket_type"`
	DataBucketPrefix     string `yaml:"data_bucket_prefix"`
	DataBucketRegion     string `yaml:"data_bucket_region"`
	SaveDataFile         bool   `yaml:"save_data_file"`
	MaxItemsInChart      int    `yaml:"max_items_in_chart"`

	// Comparison and alerting
	AlertThreshold      string `yaml:"alert_threshold"`
	FailThreshold       string `yaml:"fail_threshold"`
	FailOnAlert         bool   `yaml:"fail_on_alert"`
	CommentAlways       bool   `yaml:"comment_always"`
	CommentOnAlert      bool   `yaml:"comment_on_alert"`
	AlertCommentCCUsers string `yaml:"alert_comment_cc_users"`
	Format              string `yaml:"format"`

	// Publishing
	AutoPush             bool   `yaml:"auto_push"`
	GhPagesBranch        string `yaml:"gh_pages_branch"`
	BenchmarkDataDirPath string `yaml:"benchmark_data_dir_path"`
	Remote               string `yaml:"remote"`
	SkipFetchGhPages     bool   `yaml:"skip_fetch_gh_pages"`
	DashboardDir         string `yaml:"dashboard_dir"`

	// GitHub
	GitHubToken string `yaml:"github_token"`
	Repository  string `yaml:"repository"`
	GitRef      string `yaml:"git_ref"`
	ServerURL   string `yaml:"server_url"`
	APIURL      string `yaml:"api_url"`
	Actions     bool   `yaml:"-"`

	MetricsTextfile string `yaml:"metrics_textfile"`
}

// Output formats accepted by the compare command.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatText     = "text"
)

// Formats lists the compare output formats.
func Formats() []string { return []string{FormatMarkdown, FormatJSON, FormatText} }

// Defaults returns the built-in settings.
func Defaults() Config {
	pub := publish.DefaultOptions()
	return Config{
		Name:                 "cargo",
		Tool:                 "cargo",
		DataFile:             "benchmark-data.json",
		DataBucketType:       string(history.BucketLocal),
		SaveDataFile:         true,
		AlertThreshold:       compare.DefaultAlertThreshold,
		Format:               FormatMarkdown,
		GhPagesBranch:        pub.Branch,
		BenchmarkDataDirPath: pub.DataDir,
		Remote:               pub.Remote,
		ServerURL:            annotate.DefaultServerURL,
		APIURL:               annotate.DefaultAPIURL,
	}
}

// ApplyCI overlays the values found in the CI snapshot.
func (c *Config) ApplyCI(ci CIEnv) {
	if ci.Token != "" {
		c.GitHubToken = ci.Token
	}
	if ci.Repository != "" {
		c.Repository = ci.Repository
	}
	if ci.SHA != "" {
		c.GitRef = ci.SHA
	}
	if ci.ServerURL != "" {
		c.ServerURL = ci.ServerURL
	}
	if ci.APIURL != "" {
		c.APIURL = ci.APIURL
	}
	c.Actions = ci.Actions
}

// Decode overlays a YAML document onto c. Keys absent from the document keep
// their current value; unknown keys are rejected.
func (c *Config) Decode(source string, data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return errs.Config(source, errors.Wrap(err, "invalid YAML"))
	}
	return nil
}

// LoadFile overlays the YAML file at path onto c. A missing file is a
// NotFoundError unless optional is set, in which case it is silently skipped.
func (c *Config) LoadFile(path string, optional bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if optional {
				return nil
			}
			return errs.NotFound("config file %s", path)
		}
		return errors.Wrapf(err, "reading config file %s", path)
	}
	return c.Decode(path, data)
}

// Load builds the configuration for a process: defaults, then the CI snapshot
// from environ, then the config file located by ResolvePath. It returns the
// file path that was consulted.
func Load(flagPath string, environ []string, dir string) (Config, string, error) {
	cfg := Defaults()
	cfg.ApplyCI(ReadCIEnv(environ))

	path, explicit := ResolvePath(flagPath, environ, dir)
	if err := cfg.LoadFile(path, !explicit); err != nil {
		return cfg, path, err
	}
	return cfg, path, nil
}

// Thresholds parses the alert and fail thresholds.
func (c Config) Thresholds() (compare.Thresholds, error) {
	return compare.ParseThresholds(c.AlertThreshold, c.FailThreshold)
}

// BucketOptions describes the pail bucket holding the history document.
func (c Config) BucketOptions() history.BucketOptions {
	return history.BucketOptions{
		Type:   history.BucketType(c.DataBucketType),
		Name:   c.DataBucket,
		Prefix: c.DataBucketPrefix,
		Region: c.DataBucketRegion,
		Key:    c.DataFile,
	}
}

// PublishOptions maps the publishing settings onto the coordinator options.
func (c Config) PublishOptions(repoPath string) publish.Options {
	opts := publish.DefaultOptions()
	opts.RepoPath = repoPath
	opts.Branch = c.GhPagesBranch
	opts.Remote = c.Remote
	opts.DataDir = c.BenchmarkDataDirPath
	opts.Suite = c.Name
	opts.MaxItems = c.MaxItemsInChart
	opts.SkipFetch = c.SkipFetchGhPages
	return opts
}

// WantsComment reports whether the comment policy asks for a commit comment.
func (c Config) WantsComment(hasAlerts bool) bool {
	return c.CommentAlways || (c.CommentOnAlert && hasAlerts)
}
