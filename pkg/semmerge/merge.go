// SPDX-License-Identifier: MPL-2.0

package semmerge

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Result is the outcome of a three-way merge.
type Result struct {
	// Value is the merged tree.
	Value any
	// Ours and Theirs are the operations each side contributed.
	Ours, Theirs []Op
	// Duplicates counts theirs operations skipped because ours already
	// applied the identical change.
	Duplicates int
}

// Merge3 merges ours and theirs, both descended from base.
//
// The ours diff is applied to base first and the theirs diff last, so on a
// direct collision the theirs value wins and non-colliding additions from
// both sides are kept. A theirs operation identical to an ours operation is
// applied once. An operation that no longer applies, for example because the
// other side removed its parent, fails the merge with ErrPatch.
func Merge3(base, ours, theirs any) (*Result, error) {
	res := &Result{
		Ours:   Diff(base, ours),
		Theirs: Diff(base, theirs),
	}

	seen := make(map[string]bool, len(res.Ours))
	for _, op := range res.Ours {
		seen[opKey(op)] = true
	}
	theirsOps := make([]Op, 0, len(res.Theirs))
	for _, op := range res.Theirs {
		if seen[opKey(op)] {
			res.Duplicates++
			continue
		}
		theirsOps = append(theirsOps, op)
	}

	merged, err := Apply(base, res.Ours)
	if err != nil {
		return nil, fmt.Errorf("apply ours: %w", err)
	}
	merged, err = Apply(merged, theirsOps)
	if err != nil {
		return nil, fmt.Errorf("apply theirs: %w", err)
	}
	res.Value = merged
	return res, nil
}

// MergeJSON is Merge3 over JSON documents; the result is indented JSON.
func MergeJSON(base, ours, theirs []byte) ([]byte, error) {
	values := make([]any, 3)
	for i, src := range [][]byte{base, ours, theirs} {
		v, err := Decode(src)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	res, err := Merge3(values[0], values[1], values[2])
	if err != nil {
		return nil, err
	}
	return Encode(res.Value)
}

// opKey identifies an operation by kind, path and encoded value.
func opKey(op Op) string {
	var b bytes.Buffer
	b.WriteString(op.Op)
	b.WriteByte(0)
	b.WriteString(op.Path)
	b.WriteByte(0)
	if op.Op != OpRemove {
		if enc, err := json.Marshal(op.Value); err == nil {
			b.Write(enc)
		} else {
			fmt.Fprintf(&b, "%#v", op.Value)
		}
	}
	return b.String()
}
