// SPDX-License-Identifier: MPL-2.0

package layer

import (
	"errors"
	"io"
	"maps"
	"slices"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

type (
	// Conflict is a file changed on both sides that Merge could not settle.
	// A nil version means the file is absent on that side.
	Conflict struct {
		Path   string
		Base   *Version
		Ours   *Version
		Theirs *Version
	}

	// MergeResult describes what Merge did to the worktree.
	MergeResult struct {
		// Base, Ours and Theirs are the commits the merge was computed from.
		// Base is zero when the histories share no commit.
		Base   plumbing.Hash
		Ours   plumbing.Hash
		Theirs plumbing.Hash
		// UpToDate is set when the layer holds nothing the current layer lacks.
		UpToDate bool
		// Taken lists files changed only by the incoming layer.
		Taken []string
		// TextMerged lists files changed on both sides and merged line by line.
		TextMerged []string
		// Kept lists files changed on both sides whose current content was kept.
		Kept []string
		// Conflicts are left with the current layer's content in the worktree.
		Conflicts []Conflict
	}
)

// HasConflicts reports whether any file was left conflicted.
func (r *MergeResult) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// Merge brings the changes of layer into the worktree of the current layer.
// Files changed on one side only are taken from that side. Files changed on
// both sides are settled according to favor; those it cannot settle are
// returned as conflicts. Merge stages its changes but does not commit them.
func (w *Workspace) Merge(layer string, favor Favor) (*MergeResult, error) {
	ref, err := w.repo.Reference(plumbing.NewBranchReferenceName(layer), true)
	if err != nil {
		return nil, opError("merge", layer, err)
	}
	oursHash, err := w.Head()
	if err != nil {
		return nil, err
	}
	ours, err := w.repo.CommitObject(oursHash)
	if err != nil {
		return nil, opError("merge", layer, err)
	}
	theirs, err := w.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, opError("merge", layer, err)
	}

	res := &MergeResult{Ours: ours.Hash, Theirs: theirs.Hash}
	bases, err := ours.MergeBase(theirs)
	if err != nil {
		return nil, opError("merge base", layer, err)
	}
	var baseFiles map[string]*Version
	if len(bases) > 0 {
		res.Base = bases[0].Hash
		if res.Base == theirs.Hash {
			res.UpToDate = true
			return res, nil
		}
		if baseFiles, err = commitFiles(bases[0]); err != nil {
			return nil, opError("merge", layer, err)
		}
	}
	ourFiles, err := commitFiles(ours)
	if err != nil {
		return nil, opError("merge", layer, err)
	}
	theirFiles, err := commitFiles(theirs)
	if err != nil {
		return nil, opError("merge", layer, err)
	}

	paths := make(map[string]struct{}, len(ourFiles)+len(theirFiles))
	for _, files := range []map[string]*Version{baseFiles, ourFiles, theirFiles} {
		for p := range files {
			paths[p] = struct{}{}
		}
	}
	for _, p := range slices.Sorted(maps.Keys(paths)) {
		b, o, t := baseFiles[p], ourFiles[p], theirFiles[p]
		switch {
		case sameVersion(o, t), sameVersion(b, t):
			continue
		case sameVersion(b, o):
			if err := w.take(p, t); err != nil {
				return nil, err
			}
			res.Taken = append(res.Taken, p)
			continue
		case favor == FavorOurs:
			res.Kept = append(res.Kept, p)
			continue
		}

		merged, err := w.mergeFile(b, o, t, favor == FavorTheirs)
		if err != nil {
			return nil, err
		}
		if merged == nil {
			res.Conflicts = append(res.Conflicts, Conflict{Path: p, Base: b, Ours: o, Theirs: t})
			continue
		}
		if err := w.WriteFile(p, merged, o.Mode); err != nil {
			return nil, err
		}
		res.TextMerged = append(res.TextMerged, p)
	}

	w.logger.Debug("merged layer", "layer", layer, "favor", favor.String(),
		"taken", len(res.Taken), "textMerged", len(res.TextMerged),
		"kept", len(res.Kept), "conflicts", len(res.Conflicts))
	return res, nil
}

// take replaces the worktree file at p with v, or removes it when v is nil.
func (w *Workspace) take(p string, v *Version) error {
	if v == nil {
		return w.RemoveFile(p)
	}
	data, err := w.ReadBlob(v)
	if err != nil {
		return err
	}
	return w.WriteFile(p, data, v.Mode)
}

// mergeFile merges a file changed on both sides line by line. It returns nil
// when the file must stay conflicted.
func (w *Workspace) mergeFile(b, o, t *Version, favorTheirs bool) ([]byte, error) {
	if o == nil || t == nil {
		return nil, nil
	}
	var base []byte
	if b != nil {
		var err error
		if base, err = w.ReadBlob(b); err != nil {
			return nil, err
		}
	}
	ours, err := w.ReadBlob(o)
	if err != nil {
		return nil, err
	}
	theirs, err := w.ReadBlob(t)
	if err != nil {
		return nil, err
	}
	if isBinary(base) || isBinary(ours) || isBinary(theirs) {
		return nil, nil
	}
	res, ok := mergeText(base, ours, theirs, favorTheirs)
	if !ok {
		return nil, nil
	}
	if res.data == nil {
		res.data = []byte{}
	}
	return res.data, nil
}

func sameVersion(a, b *Version) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Hash == b.Hash && a.Mode == b.Mode
}

// commitFiles maps every file of the commit's tree to its version.
func commitFiles(c *object.Commit) (map[string]*Version, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}
	files := make(map[string]*Version)
	iter := tree.Files()
	defer iter.Close()
	for {
		f, err := iter.Next()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if err != nil {
			return nil, err
		}
		files[f.Name] = &Version{Hash: f.Hash, Mode: f.Mode}
	}
}
