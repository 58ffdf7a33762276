package cli

import (
	"context"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"

	"benchkeep/internal/annotate"
	"benchkeep/internal/config"
	"benchkeep/internal/history"
)

// source picks where the history document lives: a bucket when one is
// configured, else the external path, else the data file.
func (a *app) source(ctx context.Context, cfg config.Config) (history.Source, error) {
	if cfg.DataBucket != "" {
		opts := cfg.BucketOptions()
		if opts.Type == history.BucketLocal {
			opts.Name = a.resolve(opts.Name)
		}
		return history.NewBucketSource(ctx, opts)
	}
	if cfg.ExternalDataJSONPath != "" {
		return history.NewFileSource(a.resolve(cfg.ExternalDataJSONPath)), nil
	}
	return history.NewFileSource(a.resolve(cfg.DataFile)), nil
}

// revision describes the revision the measurements belong to, including its
// web URL when the repository is hosted on GitHub.
func (a *app) revision(ctx context.Context, repoPath string, cfg config.Config) (history.Revision, error) {
	ref := cfg.GitRef
	if ref == "" {
		ref = "HEAD"
	}

	rev, err := a.env.VCS.Revision(ctx, repoPath, ref)
	if err != nil {
		return rev, err
	}

	if repo, ok := a.githubRepo(ctx, repoPath, cfg); ok {
		rev.URL = annotate.CommitURL(cfg.ServerURL, repo, rev.ID)
	}
	return rev, nil
}

// githubRepo finds the owner/repo pair from the configuration, falling back
// to the remote URL.
func (a *app) githubRepo(ctx context.Context, repoPath string, cfg config.Config) (annotate.Repo, bool) {
	slug := cfg.Repository
	if slug == "" {
		url, err := a.env.VCS.RemoteURL(ctx, repoPath, cfg.Remote)
		if err != nil {
			grip.Debug(message.WrapError(err, message.Fields{
				"message": "looking up remote",
				"remote":  cfg.Remote,
			}))
			return annotate.Repo{}, false
		}
		if url == "" {
			return annotate.Repo{}, false
		}
		slug = url
	}

	repo, err := annotate.ParseRepo(slug)
	if err != nil {
		grip.Debug(message.WrapError(err, message.Fields{
			"message":    "not a GitHub repository",
			"repository": slug,
		}))
		return annotate.Repo{}, false
	}
	return repo, true
}
