// Package git implements the version-control provider on top of the git
// command line.
package git

import (
	"context"
	"strings"

	"benchkeep/internal/errs"
	"benchkeep/internal/publish"

	"github.com/pkg/errors"
)

// Identity is the committer used when the repository has none configured.
type Identity struct {
	Name  string
	Email string
}

// DefaultIdentity is the fallback committer.
var DefaultIdentity = Identity{Name: "benchkeep", Email: "benchkeep@users.noreply.github.com"}

// Client runs git commands. It holds no repository state; every method
// names the repository it operates on.
type Client struct {
	binary   string
	env      []string
	identity Identity
}

var _ publish.Provider = (*Client)(nil)

// NewClient creates a client that passes environ to every git process.
func NewClient(environ []string) *Client {
	return &Client{
		binary:   lookGit(),
		env:      environ,
		identity: DefaultIdentity,
	}
}

// WithIdentity returns a copy of the client using id as the fallback
// committer.
func (c *Client) WithIdentity(id Identity) *Client {
	out := *c
	out.identity = id
	return &out
}

// Available reports whether a git binary was found.
func (c *Client) Available() bool { return c.binary != "" }

func (c *Client) CurrentBranch(ctx context.Context, repo string) (string, error) {
	branch, err := c.output(ctx, repo, "symbolic-ref", "--quiet", "--short", "HEAD")
	if err == nil {
		return branch, nil
	}
	if exitCode(err) != 1 {
		return "", errs.Vcs("symbolic-ref HEAD", err)
	}

	// Detached HEAD: restore to the commit itself
	sha, err := c.output(ctx, repo, "rev-parse", "--verify", "HEAD")
	if err != nil {
		return "", errs.Vcs("rev-parse HEAD", err)
	}
	return sha, nil
}

func (c *Client) HasUncommittedChanges(ctx context.Context, repo string) (bool, error) {
	out, err := c.output(ctx, repo, "status", "--porcelain", "--untracked-files=all")
	if err != nil {
		return false, errs.Vcs("status", err)
	}
	return out != "", nil
}

func (c *Client) StashPush(ctx context.Context, repo, message string) error {
	_, err := c.run(ctx, repo, "stash", "push", "--include-untracked", "--quiet", "--message", message)
	return errs.Vcs("stash push", err)
}

func (c *Client) StashPop(ctx context.Context, repo string) error {
	_, err := c.run(ctx, repo, "stash", "pop", "--index", "--quiet")
	return errs.Vcs("stash pop", err)
}

func (c *Client) Fetch(ctx context.Context, repo, remote, branch string) error {
	refspec := "+refs/heads/" + branch + ":refs/remotes/" + remote + "/" + branch
	_, err := c.run(ctx, repo, "fetch", "--quiet", "--no-tags", remote, refspec)
	return errs.Vcs("fetch "+remote+" "+branch, err)
}

func (c *Client) BranchExists(ctx context.Context, repo, name string, scope publish.BranchScope) (bool, error) {
	ref := "refs/heads/" + name
	if scope == publish.ScopeRemote {
		ref = "refs/remotes/" + name
	}

	_, err := c.run(ctx, repo, "show-ref", "--verify", "--quiet", ref)
	switch {
	case err == nil:
		return true, nil
	case exitCode(err) == 1:
		return false, nil
	default:
		return false, errs.Vcs("show-ref "+ref, err)
	}
}

// Checkout switches to name, discarding modifications. Untracked and
// ignored files stay where they are.
func (c *Client) Checkout(ctx context.Context, repo, name string) error {
	_, err := c.run(ctx, repo, "checkout", "--force", "--quiet", name)
	return errs.Vcs("checkout "+name, err)
}

// CreateOrphanBranch starts name without history and removes every tracked
// file from the index and the working tree. Ignored files, such as build
// output, are left on disk; untracked files are expected to have been
// stashed already.
func (c *Client) CreateOrphanBranch(ctx context.Context, repo, name string) error {
	if _, err := c.run(ctx, repo, "checkout", "--quiet", "--orphan", name); err != nil {
		return errs.Vcs("checkout --orphan "+name, err)
	}
	_, err := c.run(ctx, repo, "rm", "-r", "--force", "--quiet", "--ignore-unmatch", "--", ".")
	return errs.Vcs("clear working tree", err)
}

func (c *Client) ReadFileAtRef(ctx context.Context, repo, ref, path string) ([]byte, bool, error) {
	if _, err := c.run(ctx, repo, "rev-parse", "--verify", "--quiet", ref+"^{commit}"); err != nil {
		return nil, false, errs.Vcs("resolve "+ref, err)
	}

	listed, err := c.output(ctx, repo, "ls-tree", "--name-only", ref, "--", path)
	if err != nil {
		return nil, false, errs.Vcs("ls-tree "+ref, err)
	}
	if listed == "" {
		return nil, false, nil
	}

	res, err := c.run(ctx, repo, "cat-file", "blob", ref+":"+path)
	if err != nil {
		return nil, false, errs.Vcs("cat-file "+ref+":"+path, err)
	}
	return res.stdout, true, nil
}

func (c *Client) StageAll(ctx context.Context, repo, path string) error {
	_, err := c.run(ctx, repo, "add", "--all", "--", path)
	return errs.Vcs("add "+path, err)
}

func (c *Client) HasStagedChanges(ctx context.Context, repo string) (bool, error) {
	if _, err := c.run(ctx, repo, "rev-parse", "--verify", "--quiet", "HEAD"); err != nil {
		// Unborn branch: anything in the index is new
		staged, lerr := c.output(ctx, repo, "ls-files", "--cached")
		if lerr != nil {
			return false, errs.Vcs("ls-files", lerr)
		}
		return staged != "", nil
	}

	_, err := c.run(ctx, repo, "diff", "--cached", "--quiet", "HEAD", "--")
	switch {
	case err == nil:
		return false, nil
	case exitCode(err) == 1:
		return true, nil
	default:
		return false, errs.Vcs("diff --cached", err)
	}
}

func (c *Client) Commit(ctx context.Context, repo, message string) (string, error) {
	var args []string
	if name, _ := c.output(ctx, repo, "config", "user.name"); name == "" {
		args = append(args, "-c", "user.name="+c.identity.Name)
	}
	if email, _ := c.output(ctx, repo, "config", "user.email"); email == "" {
		args = append(args, "-c", "user.email="+c.identity.Email)
	}
	args = append(args, "commit", "--quiet", "--no-verify", "--message", message)

	if _, err := c.run(ctx, repo, args...); err != nil {
		return "", errs.Vcs("commit", err)
	}

	sha, err := c.output(ctx, repo, "rev-parse", "HEAD")
	if err != nil {
		return "", errs.Vcs("rev-parse HEAD", err)
	}
	return sha, nil
}

// upToDate is what git prints when the remote already has the commits.
const upToDate = "Everything up-to-date"

func (c *Client) Push(ctx context.Context, repo, remote, branch string, force bool) (publish.PushStatus, error) {
	args := []string{"push"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, remote, "refs/heads/"+branch+":refs/heads/"+branch)

	res, err := c.run(ctx, repo, args...)
	if strings.Contains(res.stderr, upToDate) {
		return publish.PushUpToDate, nil
	}
	if err != nil {
		return publish.PushUpdated, errs.Vcs("push "+remote+" "+branch, err)
	}
	return publish.PushUpdated, nil
}

// RemoteURL returns the fetch URL of remote, empty when it is not
// configured.
func (c *Client) RemoteURL(ctx context.Context, repo, remote string) (string, error) {
	out, err := c.output(ctx, repo, "remote", "get-url", remote)
	if err != nil {
		var cerr *CommandError
		if errors.As(err, &cerr) && (cerr.ExitCode == 2 || strings.Contains(cerr.Output, "No such remote")) {
			return "", nil
		}
		return "", errs.Vcs("remote get-url "+remote, err)
	}
	return out, nil
}
