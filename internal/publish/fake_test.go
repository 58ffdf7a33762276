package publish

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// tree maps slash-separated paths to file content.
type tree map[string]string

func (t tree) clone() tree {
	if t == nil {
		return nil
	}
	out := make(tree, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// fakeVCS keeps branches, the remote and stashes in memory while the
// working tree lives on disk so the coordinator's file writes are real.
type fakeVCS struct {
	dir     string
	head    string
	local   map[string]tree
	remote  map[string]tree
	stashes []tree
	failOn  map[string]error
	calls   []string
	commits int
}

func newFakeVCS(dir string, main tree) (*fakeVCS, error) {
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte("ref: refs/heads/main\n"), 0644); err != nil {
		return nil, err
	}

	f := &fakeVCS{
		dir:    dir,
		head:   "main",
		local:  map[string]tree{"main": main.clone()},
		remote: map[string]tree{},
		failOn: map[string]error{},
	}
	return f, f.setTree(main)
}

func (f *fakeVCS) fail(op string, arg ...string) error {
	key := op
	if len(arg) > 0 {
		key = op + ":" + arg[0]
	}
	f.calls = append(f.calls, key)

	if err, ok := f.failOn[key]; ok {
		return err
	}
	if err, ok := f.failOn[op]; ok {
		return err
	}
	return nil
}

func (f *fakeVCS) snapshot() (tree, error) {
	out := tree{}
	err := filepath.WalkDir(f.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(f.dir, p)
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	return out, err
}

func (f *fakeVCS) setTree(t tree) error {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Name() == ".git" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(f.dir, e.Name())); err != nil {
			return err
		}
	}
	for p, content := range t {
		full := filepath.Join(f.dir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

func sameTree(a, b tree) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

func (f *fakeVCS) CurrentBranch(_ context.Context, repo string) (string, error) {
	if err := f.fail("current branch"); err != nil {
		return "", err
	}
	return f.head, f.checkRepo(repo)
}

func (f *fakeVCS) checkRepo(repo string) error {
	if repo != f.dir {
		return errors.Errorf("unexpected repository %q", repo)
	}
	return nil
}

func (f *fakeVCS) HasUncommittedChanges(_ context.Context, _ string) (bool, error) {
	if err := f.fail("status"); err != nil {
		return false, err
	}
	snap, err := f.snapshot()
	if err != nil {
		return false, err
	}
	return !sameTree(snap, f.local[f.head]), nil
}

func (f *fakeVCS) StashPush(_ context.Context, _ string, message string) error {
	if err := f.fail("stash push"); err != nil {
		return err
	}
	if !strings.HasPrefix(message, stashPrefix) {
		return errors.Errorf("unrecognizable stash message %q", message)
	}
	snap, err := f.snapshot()
	if err != nil {
		return err
	}
	f.stashes = append(f.stashes, snap)
	return f.setTree(f.local[f.head])
}

func (f *fakeVCS) StashPop(_ context.Context, _ string) error {
	if err := f.fail("stash pop"); err != nil {
		return err
	}
	if len(f.stashes) == 0 {
		return errors.New("no stash entries found")
	}
	top := f.stashes[len(f.stashes)-1]
	f.stashes = f.stashes[:len(f.stashes)-1]
	return f.setTree(top)
}

func (f *fakeVCS) Fetch(_ context.Context, _, _, _ string) error {
	return f.fail("fetch")
}

func (f *fakeVCS) BranchExists(_ context.Context, _, name string, scope BranchScope) (bool, error) {
	if err := f.fail("branch exists"); err != nil {
		return false, err
	}
	if scope == ScopeRemote {
		_, ok := f.remote[strings.TrimPrefix(name, "origin/")]
		return ok, nil
	}
	_, ok := f.local[name]
	return ok, nil
}

func (f *fakeVCS) Checkout(_ context.Context, _, name string) error {
	if err := f.fail("checkout", name); err != nil {
		return err
	}
	if _, ok := f.local[name]; !ok {
		r, ok := f.remote[name]
		if !ok {
			return errors.Errorf("pathspec '%s' did not match", name)
		}
		f.local[name] = r.clone()
	}
	f.head = name
	return f.setTree(f.local[name])
}

func (f *fakeVCS) CreateOrphanBranch(_ context.Context, _, name string) error {
	if err := f.fail("orphan"); err != nil {
		return err
	}
	f.head = name
	return f.setTree(nil)
}

func (f *fakeVCS) ReadFileAtRef(_ context.Context, _, ref, path string) ([]byte, bool, error) {
	if err := f.fail("read"); err != nil {
		return nil, false, err
	}
	var t tree
	if strings.HasPrefix(ref, "origin/") {
		t = f.remote[strings.TrimPrefix(ref, "origin/")]
	} else {
		t = f.local[ref]
	}
	content, ok := t[path]
	return []byte(content), ok, nil
}

func (f *fakeVCS) StageAll(_ context.Context, _, _ string) error {
	return f.fail("stage")
}

func (f *fakeVCS) HasStagedChanges(_ context.Context, _ string) (bool, error) {
	if err := f.fail("diff"); err != nil {
		return false, err
	}
	snap, err := f.snapshot()
	if err != nil {
		return false, err
	}
	committed, born := f.local[f.head]
	if !born {
		return len(snap) > 0, nil
	}
	return !sameTree(snap, committed), nil
}

func (f *fakeVCS) Commit(_ context.Context, _, _ string) (string, error) {
	if err := f.fail("commit"); err != nil {
		return "", err
	}
	snap, err := f.snapshot()
	if err != nil {
		return "", err
	}
	f.commits++
	f.local[f.head] = snap
	return fmt.Sprintf("%040d", f.commits), nil
}

func (f *fakeVCS) Push(_ context.Context, _, _, branch string, force bool) (PushStatus, error) {
	if err := f.fail("push"); err != nil {
		return PushUpdated, err
	}
	if !force {
		return PushUpdated, errors.New("publish must force push")
	}
	t, ok := f.local[branch]
	if !ok {
		return PushUpdated, errors.Errorf("src refspec %s does not match any", branch)
	}
	if r, ok := f.remote[branch]; ok && sameTree(r, t) {
		return PushUpToDate, nil
	}
	f.remote[branch] = t.clone()
	return PushUpdated, nil
}
