// Package annotate posts benchmark reports to the hosting service as
// commit comments.
package annotate

import (
	"context"
	"net/http"
	"strings"
	"time"

	"benchkeep/internal/errs"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const (
	DefaultAPIURL    = "https://api.github.com"
	DefaultServerURL = "https://github.com"
	defaultTimeout   = 30 * time.Second
)

// Commenter attaches a comment to a revision and returns its URL.
type Commenter interface {
	PostComment(ctx context.Context, revisionID, body string) (string, error)
}

// Repo names a GitHub repository.
type Repo struct {
	Owner string
	Name  string
}

func (r Repo) String() string { return r.Owner + "/" + r.Name }

// GitHub posts commit comments through the REST API.
type GitHub struct {
	repo   Repo
	client *resty.Client
}

var _ Commenter = (*GitHub)(nil)

// Options configure a GitHub client.
type Options struct {
	BaseURL    string // API root, DefaultAPIURL when empty
	Token      string
	Timeout    time.Duration
	RetryCount int
}

// NewGitHub creates a client commenting on repo.
func NewGitHub(repo Repo, opts Options) *GitHub {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultAPIURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(time.Second).
		SetHeader("Accept", "application/vnd.github.v3+json").
		SetHeader("X-GitHub-Api-Version", "2022-11-28").
		SetHeader("User-Agent", "benchkeep")

	if opts.Token != "" {
		client.SetAuthToken(opts.Token)
	}

	return &GitHub{repo: repo, client: client}
}

type commentResponse struct {
	HTMLURL string `json:"html_url"`
}

// PostComment creates a commit comment and returns its HTML URL.
func (g *GitHub) PostComment(ctx context.Context, revisionID, body string) (string, error) {
	const op = "post commit comment"

	if revisionID == "" {
		return "", errs.Remote(op, 0, errors.New("revision id is empty"))
	}

	var out commentResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"owner": g.repo.Owner,
			"repo":  g.repo.Name,
			"sha":   revisionID,
		}).
		SetBody(map[string]string{"body": body}).
		SetResult(&out).
		Post("/repos/{owner}/{repo}/commits/{sha}/comments")
	if err != nil {
		return "", errs.Remote(op, 0, err)
	}

	if resp.IsError() || resp.StatusCode() != http.StatusCreated {
		return "", errs.Remote(op, resp.StatusCode(), errors.Errorf("unexpected response: %s", strings.TrimSpace(resp.String())))
	}

	return out.HTMLURL, nil
}

// ParseRepo accepts "owner/repo", https and ssh GitHub remote URLs.
func ParseRepo(s string) (Repo, error) {
	s = strings.TrimSpace(s)

	var path string
	switch {
	case strings.HasPrefix(s, "git@github.com:"):
		path = strings.TrimPrefix(s, "git@github.com:")
	case strings.Contains(s, "github.com/"):
		path = s[strings.Index(s, "github.com/")+len("github.com/"):]
	case !strings.Contains(s, "://") && !strings.Contains(s, "@"):
		path = s
	default:
		return Repo{}, errs.Config("repository", errors.Errorf("%q is not a GitHub repository", s))
	}

	path = strings.TrimSuffix(strings.TrimSuffix(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Repo{}, errs.Config("repository", errors.Errorf("%q is not in owner/repo form", s))
	}

	return Repo{Owner: parts[0], Name: parts[1]}, nil
}

// CommitURL builds the web URL of a commit.
func CommitURL(serverURL string, repo Repo, sha string) string {
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	return strings.TrimSuffix(serverURL, "/") + "/" + repo.String() + "/commit/" + sha
}
