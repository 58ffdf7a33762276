// Package publish moves an updated benchmark history onto a dedicated
// branch of the caller's repository and leaves the caller's branch and
// working tree as it found them, on success and on failure.
package publish

import (
	"context"
	"path"
	"path/filepath"
	"time"

	"benchkeep/internal/errs"
	"benchkeep/internal/history"

	"github.com/google/uuid"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// NoChanges is reported instead of a commit id when the publish branch
// already held identical content.
const NoChanges = "no changes"

const (
	stashPrefix = "benchkeep: temporary stash"
	popStash    = "pop stash"
)

// Options configure a publish.
type Options struct {
	RepoPath      string
	Branch        string // Publish branch, e.g. gh-pages
	Remote        string
	DataDir       string // Slash-separated, relative to the repository root
	DataFile      string // History document name inside DataDir
	Suite         string
	MaxItems      int // Zero keeps every run
	SkipFetch     bool
	CommitMessage string
	Assets        []Asset // Written into DataDir next to the history document
}

// DefaultOptions returns the conventional GitHub Pages layout.
func DefaultOptions() Options {
	return Options{
		RepoPath:      ".",
		Branch:        "gh-pages",
		Remote:        "origin",
		DataDir:       "dev/bench",
		DataFile:      "data.json",
		CommitMessage: "Update benchmark data [benchkeep]",
	}
}

// Result describes a finished publish.
type Result struct {
	CommitID      string // Empty when NoChanges is set
	NoChanges     bool
	CreatedBranch bool
	Pushed        bool // False when the remote was already up to date
	StashTaken    bool
	StashMessage  string
	StashRestored bool
	Runs          int      // Runs held for the suite after the append
	Warnings      []string // Non-fatal problems, e.g. a failed fetch or stash pop
}

func (r Result) String() string {
	if r.NoChanges {
		return NoChanges
	}
	return r.CommitID
}

// Publisher runs the publish sequence against a Provider.
type Publisher struct {
	vcs       Provider
	opts      Options
	now       func() time.Time
	stashName func() string
}

// NewPublisher creates a publisher. Zero-valued options fall back to
// DefaultOptions.
func NewPublisher(vcs Provider, opts Options) *Publisher {
	def := DefaultOptions()
	if opts.RepoPath == "" {
		opts.RepoPath = def.RepoPath
	}
	if opts.Branch == "" {
		opts.Branch = def.Branch
	}
	if opts.Remote == "" {
		opts.Remote = def.Remote
	}
	if opts.DataDir == "" {
		opts.DataDir = def.DataDir
	}
	if opts.DataFile == "" {
		opts.DataFile = def.DataFile
	}
	if opts.CommitMessage == "" {
		opts.CommitMessage = def.CommitMessage
	}

	return &Publisher{
		vcs:  vcs,
		opts: opts,
		now:  func() time.Time { return time.Now().UTC() },
		stashName: func() string {
			return stashPrefix + " " + uuid.New().String()
		},
	}
}

// WithClock replaces the clock used to stamp the history document.
func (p *Publisher) WithClock(now func() time.Time) *Publisher {
	p.now = now
	return p
}

// Options returns the effective options.
func (p *Publisher) Options() Options { return p.opts }

// ArtifactPath is the repository-relative path of the history document.
func (p *Publisher) ArtifactPath() string {
	return path.Join(p.opts.DataDir, p.opts.DataFile)
}

// Publish appends run to the suite history held on the publish branch,
// commits when the content changed and pushes the branch. Once the caller's
// branch has been recorded, the original branch is checked out again and
// any stash taken is popped, whatever happens in between. Cancelling ctx
// does not interrupt those restoring steps.
func (p *Publisher) Publish(ctx context.Context, run history.Run) (res Result, err error) {
	repo := p.opts.RepoPath

	original, err := p.vcs.CurrentBranch(ctx, repo)
	if err != nil {
		return res, vcsErr("capture current branch", err)
	}

	grip.Info(message.Fields{
		"message":  "publishing benchmark data",
		"repo":     repo,
		"original": original,
		"branch":   p.opts.Branch,
		"artifact": p.ArtifactPath(),
		"suite":    p.opts.Suite,
	})

	var s saga
	defer func() {
		out := s.unwind(context.WithoutCancel(ctx))

		res.StashRestored = out.succeeded(popStash)
		if len(out.skipped) > 0 && res.StashTaken {
			grip.Error(message.Fields{
				"message": "original branch not restored, stash left in place",
				"stash":   res.StashMessage,
				"repo":    repo,
			})
			res.Warnings = append(res.Warnings, "stash left in place: "+res.StashMessage)
		}
		res.Warnings = append(res.Warnings, out.warnings...)

		switch {
		case out.err == nil:
		case err == nil:
			err = out.err
		default:
			catcher := grip.NewBasicCatcher()
			catcher.Add(err)
			catcher.Add(out.err)
			err = catcher.Resolve()
		}
	}()

	dirty, err := p.vcs.HasUncommittedChanges(ctx, repo)
	if err != nil {
		return res, vcsErr("check working tree", err)
	}
	if dirty {
		res.StashMessage = p.stashName()
		if err = p.vcs.StashPush(ctx, repo, res.StashMessage); err != nil {
			return res, vcsErr("stash changes", err)
		}
		res.StashTaken = true
		s.push(compensation{
			name:     popStash,
			advisory: true,
			undo: func(ctx context.Context) error {
				return p.vcs.StashPop(ctx, repo)
			},
		})
	}

	s.push(compensation{
		name: "restore " + original,
		undo: func(ctx context.Context) error {
			return vcsErr("restore "+original, p.vcs.Checkout(ctx, repo, original))
		},
	})

	fetched := false
	if !p.opts.SkipFetch {
		if ferr := p.vcs.Fetch(ctx, repo, p.opts.Remote, p.opts.Branch); ferr != nil {
			grip.Warning(message.WrapError(ferr, message.Fields{
				"message": "fetch failed, continuing with local state",
				"remote":  p.opts.Remote,
				"branch":  p.opts.Branch,
			}))
			res.Warnings = append(res.Warnings, "fetch failed: "+ferr.Error())
		} else {
			fetched = true
		}
	}

	sourceRef, err := p.acquireBranch(ctx, fetched, &res)
	if err != nil {
		return res, err
	}

	if err = p.mergeArtifact(ctx, sourceRef, run, &res); err != nil {
		return res, err
	}

	if err = p.vcs.StageAll(ctx, repo, p.opts.DataDir); err != nil {
		return res, vcsErr("stage "+p.opts.DataDir, err)
	}

	changed, err := p.vcs.HasStagedChanges(ctx, repo)
	if err != nil {
		return res, vcsErr("diff staged changes", err)
	}
	if changed {
		if res.CommitID, err = p.vcs.Commit(ctx, repo, p.opts.CommitMessage); err != nil {
			return res, vcsErr("commit", err)
		}
	} else {
		res.NoChanges = true
		grip.Info(message.Fields{
			"message": "publish branch already up to date, skipping commit",
			"branch":  p.opts.Branch,
		})
	}

	status, err := p.vcs.Push(ctx, repo, p.opts.Remote, p.opts.Branch, true)
	if err != nil {
		return res, vcsErr("push "+p.opts.Remote+" "+p.opts.Branch, err)
	}
	res.Pushed = status == PushUpdated

	grip.Info(message.Fields{
		"message": "published benchmark data",
		"branch":  p.opts.Branch,
		"commit":  res.String(),
		"pushed":  res.Pushed,
		"runs":    res.Runs,
	})

	return res, nil
}

// acquireBranch checks out the publish branch, creating it without history
// when neither a local nor a remote copy exists. It returns the ref the
// current history document should be read from, empty when there is none.
func (p *Publisher) acquireBranch(ctx context.Context, fetched bool, res *Result) (string, error) {
	repo := p.opts.RepoPath
	remoteRef := p.opts.Remote + "/" + p.opts.Branch

	local, err := p.vcs.BranchExists(ctx, repo, p.opts.Branch, ScopeLocal)
	if err != nil {
		return "", vcsErr("look up local "+p.opts.Branch, err)
	}
	remote, err := p.vcs.BranchExists(ctx, repo, remoteRef, ScopeRemote)
	if err != nil {
		return "", vcsErr("look up "+remoteRef, err)
	}

	if !local && !remote {
		if err = p.vcs.CreateOrphanBranch(ctx, repo, p.opts.Branch); err != nil {
			return "", vcsErr("create orphan "+p.opts.Branch, err)
		}
		res.CreatedBranch = true
		return "", nil
	}

	if err = p.vcs.Checkout(ctx, repo, p.opts.Branch); err != nil {
		return "", vcsErr("checkout "+p.opts.Branch, err)
	}

	// A fresh remote copy may hold runs published from elsewhere; a stale
	// one may lag behind the local branch.
	switch {
	case remote && (fetched || !local):
		return remoteRef, nil
	default:
		return p.opts.Branch, nil
	}
}

// mergeArtifact appends run to the history found at sourceRef and writes the
// result, together with the assets, into the working tree.
func (p *Publisher) mergeArtifact(ctx context.Context, sourceRef string, run history.Run, res *Result) error {
	repo := p.opts.RepoPath
	artifact := p.ArtifactPath()

	h := history.New()
	if sourceRef != "" {
		data, found, err := p.vcs.ReadFileAtRef(ctx, repo, sourceRef, artifact)
		if err != nil {
			return vcsErr("read "+sourceRef+":"+artifact, err)
		}
		if found {
			loaded, lerr := history.Load(data)
			if lerr != nil {
				grip.Warning(message.WrapError(lerr, message.Fields{
					"message":  "existing history is corrupt, starting a new one",
					"ref":      sourceRef,
					"artifact": artifact,
				}))
				res.Warnings = append(res.Warnings, "corrupt history at "+sourceRef+" replaced")
			} else {
				h = loaded
			}
		}
	}

	if err := h.AppendRunAt(p.opts.Suite, run, p.opts.MaxItems, p.now()); err != nil {
		return errors.Wrapf(err, "appending to %s", artifact)
	}
	res.Runs = len(h.Entries[p.opts.Suite])

	data, err := history.Serialize(h)
	if err != nil {
		return err
	}

	dataDir := filepath.Join(repo, filepath.FromSlash(p.opts.DataDir))
	if err := WriteAssets(dataDir, p.opts.Assets); err != nil {
		return err
	}

	// The history document is written last so it wins over an asset of the
	// same name.
	return writeFile(filepath.Join(repo, filepath.FromSlash(artifact)), data)
}

// vcsErr classifies provider failures as VcsError unless they already carry
// a kind.
func vcsErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errs.IsVcs(err) {
		return errors.Wrap(err, op)
	}
	return errs.Vcs(op, err)
}
