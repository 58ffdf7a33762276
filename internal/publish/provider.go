package publish

import "context"

// BranchScope selects where BranchExists looks for a branch.
type BranchScope int

const (
	ScopeLocal  BranchScope = iota // refs/heads/<name>
	ScopeRemote                    // refs/remotes/<remote>/<name>
)

// PushStatus distinguishes a push that moved the remote ref from one that
// had nothing to send.
type PushStatus int

const (
	PushUpdated PushStatus = iota
	PushUpToDate
)

// Provider is the version-control capability set the coordinator needs.
// Every call names the repository explicitly; implementations must not rely
// on the process working directory.
type Provider interface {
	// CurrentBranch returns the checked-out branch name, or the commit id
	// when HEAD is detached.
	CurrentBranch(ctx context.Context, repo string) (string, error)
	HasUncommittedChanges(ctx context.Context, repo string) (bool, error)
	// StashPush stashes tracked and untracked changes under message.
	StashPush(ctx context.Context, repo, message string) error
	StashPop(ctx context.Context, repo string) error
	Fetch(ctx context.Context, repo, remote, branch string) error
	// BranchExists checks refs/heads/<name> for ScopeLocal and
	// refs/remotes/<name> for ScopeRemote, where name is "<remote>/<branch>".
	BranchExists(ctx context.Context, repo, name string, scope BranchScope) (bool, error)
	// Checkout switches to name, discarding local modifications.
	Checkout(ctx context.Context, repo, name string) error
	// CreateOrphanBranch starts name with no history and removes every
	// tracked file from the index and working tree. Ignored files survive.
	CreateOrphanBranch(ctx context.Context, repo, name string) error
	// ReadFileAtRef returns the content of path at ref; found is false when
	// the file is absent there.
	ReadFileAtRef(ctx context.Context, repo, ref, path string) (data []byte, found bool, err error)
	StageAll(ctx context.Context, repo, path string) error
	// HasStagedChanges reports whether the index differs from HEAD. On a
	// branch without commits any staged file counts.
	HasStagedChanges(ctx context.Context, repo string) (bool, error)
	// Commit records the index and returns the new commit id.
	Commit(ctx context.Context, repo, message string) (string, error)
	Push(ctx context.Context, repo, remote, branch string, force bool) (PushStatus, error)
}
