// SPDX-License-Identifier: MPL-2.0

package layer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"slices"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/invowk/modpak/pkg/refname"
)

const (
	// InitialCommitMessage is the message of the empty root commit.
	InitialCommitMessage = "Initial commit"

	defaultAuthorName  = "Strelok"
	defaultAuthorEmail = "the@zone"
)

type (
	// Workspace is a git repository whose branches are layers.
	Workspace struct {
		repo   *git.Repository
		wt     *git.Worktree
		root   string
		author object.Signature
		now    func() time.Time
		logger *slog.Logger
	}

	// Option configures a Workspace.
	Option func(*Workspace)

	// Version identifies one side of a file in a three-way merge.
	Version struct {
		Hash plumbing.Hash
		Mode filemode.FileMode
	}
)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(w *Workspace) { w.logger = l }
}

// WithAuthor sets the signature recorded on commits.
func WithAuthor(name, email string) Option {
	return func(w *Workspace) {
		w.author.Name = name
		w.author.Email = email
	}
}

// WithClock sets the time source for commit signatures.
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) { w.now = now }
}

// Init creates a new repository at dir, which must not hold one yet, and
// records an empty initial commit on the baseline layer.
func Init(dir string, opts ...Option) (*Workspace, error) {
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		return nil, opError("init", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, opError("init", dir, err)
	}

	w := &Workspace{
		repo:   repo,
		wt:     wt,
		root:   dir,
		author: object.Signature{Name: defaultAuthorName, Email: defaultAuthorEmail},
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if _, err := w.wt.Commit(InitialCommitMessage, &git.CommitOptions{
		Author:            w.signature(),
		AllowEmptyCommits: true,
	}); err != nil {
		return nil, opError("commit", refname.Baseline, err)
	}
	if head, err := w.repo.Head(); err == nil && head.Name() != plumbing.NewBranchReferenceName(refname.Baseline) {
		if err := w.renameHead(head); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// renameHead points the baseline branch at head and checks it out, for
// setups whose default branch is not the baseline name.
func (w *Workspace) renameHead(head *plumbing.Reference) error {
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(refname.Baseline), head.Hash())
	if err := w.repo.Storer.SetReference(ref); err != nil {
		return opError("init", refname.Baseline, err)
	}
	return w.Switch(refname.Baseline)
}

// Root returns the workspace directory.
func (w *Workspace) Root() string {
	return w.root
}

// Filesystem returns the worktree filesystem, rooted at the workspace.
func (w *Workspace) Filesystem() billy.Filesystem {
	return w.wt.Filesystem
}

func (w *Workspace) signature() *object.Signature {
	sig := w.author
	sig.When = w.now()
	return &sig
}

// Head returns the commit the current layer points at.
func (w *Workspace) Head() (plumbing.Hash, error) {
	head, err := w.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, opError("head", "", err)
	}
	return head.Hash(), nil
}

// CurrentLayer returns the short name of the checked out layer.
func (w *Workspace) CurrentLayer() (string, error) {
	head, err := w.repo.Head()
	if err != nil {
		return "", opError("head", "", err)
	}
	return head.Name().Short(), nil
}

// HasLayer reports whether a layer exists.
func (w *Workspace) HasLayer(layer string) bool {
	_, err := w.repo.Reference(plumbing.NewBranchReferenceName(layer), true)
	return err == nil
}

// Switch checks out an existing layer, discarding uncommitted changes and
// untracked files.
func (w *Workspace) Switch(layer string) error {
	if err := w.wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(layer),
		Force:  true,
	}); err != nil {
		return opError("checkout", layer, err)
	}
	if err := w.wt.Clean(&git.CleanOptions{Dir: true}); err != nil {
		return opError("clean", layer, err)
	}
	w.logger.Debug("switched layer", "layer", layer)
	return nil
}

// Fork creates layer at the current commit and checks it out, keeping the
// worktree and index as they are. An existing layer is checked out the same
// way without being moved.
func (w *Workspace) Fork(layer string) error {
	ref := plumbing.NewBranchReferenceName(layer)
	if err := ref.Validate(); err != nil {
		return opError("fork", layer, err)
	}
	opts := &git.CheckoutOptions{Branch: ref, Keep: true, Create: !w.HasLayer(layer)}
	if err := w.wt.Checkout(opts); err != nil {
		return opError("fork", layer, err)
	}
	w.logger.Debug("forked layer", "layer", layer, "created", opts.Create)
	return nil
}

// ResetTo moves the current layer to commit and makes the worktree match it.
func (w *Workspace) ResetTo(commit plumbing.Hash) error {
	if err := w.wt.Reset(&git.ResetOptions{Commit: commit, Mode: git.HardReset}); err != nil {
		return opError("reset", commit.String(), err)
	}
	if err := w.wt.Clean(&git.CleanOptions{Dir: true}); err != nil {
		return opError("clean", commit.String(), err)
	}
	return nil
}

// Checkpoint commits pending changes on the current layer. With onlyNew set
// only files untracked by the layer are committed; otherwise every change,
// deletions included. committed is false when there was nothing to commit.
func (w *Workspace) Checkpoint(message string, onlyNew bool) (hash plumbing.Hash, committed bool, err error) {
	status, err := w.wt.Status()
	if err != nil {
		return plumbing.ZeroHash, false, opError("status", "", err)
	}

	var staged int
	if onlyNew {
		paths := make([]string, 0, len(status))
		for p, st := range status {
			if st.Worktree == git.Untracked {
				paths = append(paths, p)
			}
		}
		slices.Sort(paths)
		for _, p := range paths {
			if _, err := w.wt.Add(p); err != nil {
				return plumbing.ZeroHash, false, opError("add", p, err)
			}
		}
		staged = len(paths)
	} else if !status.IsClean() {
		if err := w.wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
			return plumbing.ZeroHash, false, opError("add", "", err)
		}
		staged = len(status)
	}
	if staged == 0 {
		return plumbing.ZeroHash, false, nil
	}

	hash, err = w.wt.Commit(message, &git.CommitOptions{Author: w.signature()})
	if errors.Is(err, git.ErrEmptyCommit) {
		return plumbing.ZeroHash, false, nil
	}
	if err != nil {
		return plumbing.ZeroHash, false, opError("commit", message, err)
	}
	w.logger.Debug("checkpoint", "message", message, "onlyNew", onlyNew, "files", staged, "commit", hash.String())
	return hash, true, nil
}

// Commit stages every pending change and commits it with parent as the only
// parent, even when the tree is unchanged.
func (w *Workspace) Commit(message string, parent plumbing.Hash) (plumbing.Hash, error) {
	if err := w.wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return plumbing.ZeroHash, opError("add", "", err)
	}
	hash, err := w.wt.Commit(message, &git.CommitOptions{
		Author:            w.signature(),
		Parents:           []plumbing.Hash{parent},
		AllowEmptyCommits: true,
	})
	if err != nil {
		return plumbing.ZeroHash, opError("commit", message, err)
	}
	return hash, nil
}

// ReadBlob returns the content of a file version.
func (w *Workspace) ReadBlob(v *Version) ([]byte, error) {
	blob, err := w.repo.BlobObject(v.Hash)
	if err != nil {
		return nil, opError("read blob", v.Hash.String(), err)
	}
	r, err := blob.Reader()
	if err != nil {
		return nil, opError("read blob", v.Hash.String(), err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, opError("read blob", v.Hash.String(), err)
	}
	return data, nil
}

// WriteFile writes data to the worktree and stages it.
func (w *Workspace) WriteFile(name string, data []byte, mode filemode.FileMode) error {
	perm := os.FileMode(0o644)
	if mode == filemode.Executable {
		perm = 0o755
	}
	if dir := path.Dir(name); dir != "." {
		if err := w.wt.Filesystem.MkdirAll(dir, 0o755); err != nil {
			return opError("write", name, err)
		}
	}
	if err := util.WriteFile(w.wt.Filesystem, name, data, perm); err != nil {
		return opError("write", name, err)
	}
	if _, err := w.wt.Add(name); err != nil {
		return opError("add", name, err)
	}
	return nil
}

// RemoveFile deletes a file from the worktree and the index. Removing a file
// that does not exist is not an error.
func (w *Workspace) RemoveFile(name string) error {
	if _, err := w.wt.Filesystem.Lstat(name); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if _, err := w.wt.Remove(name); err != nil {
		return opError("remove", name, err)
	}
	return nil
}

// Log returns the first-parent history of layer, newest first, as commit
// messages.
func (w *Workspace) Log(layer string) ([]string, error) {
	ref, err := w.repo.Reference(plumbing.NewBranchReferenceName(layer), true)
	if err != nil {
		return nil, opError("log", layer, err)
	}
	var msgs []string
	c, err := w.repo.CommitObject(ref.Hash())
	for err == nil {
		msgs = append(msgs, c.Message)
		if c.NumParents() == 0 {
			break
		}
		c, err = c.Parent(0)
	}
	if err != nil {
		return nil, opError("log", layer, fmt.Errorf("walk history: %w", err))
	}
	return msgs, nil
}
