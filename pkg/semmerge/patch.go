// SPDX-License-Identifier: MPL-2.0

package semmerge

import (
	"encoding/json"
	"errors"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
)

// ErrPatch is wrapped by every failure to apply an operation list.
var ErrPatch = errors.New("patch does not apply")

// Apply returns doc with ops applied in order. doc is not modified.
//
// Operations on the document root are applied directly; every run of
// non-root operations is applied as one RFC 6902 patch.
func Apply(doc any, ops []Op) (any, error) {
	cur := doc
	var batch []Op

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		out, err := applyBatch(cur, batch)
		if err != nil {
			return err
		}
		cur, batch = out, nil
		return nil
	}

	for _, op := range ops {
		if op.Path != "" {
			batch = append(batch, op)
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
		switch op.Op {
		case OpRemove:
			cur = nil
		case OpAdd, OpReplace:
			cur = op.Value
		default:
			return nil, fmt.Errorf("%w: unsupported root operation %s", ErrPatch, op)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return cur, nil
}

func applyBatch(doc any, ops []Op) (any, error) {
	switch d := doc.(type) {
	case map[string]any:
		if d == nil {
			doc = map[string]any{}
		}
	case []any:
		if d == nil {
			doc = []any{}
		}
	default:
		return nil, fmt.Errorf("%w: %s needs an object or array root, have %T", ErrPatch, ops[0], doc)
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: encode document: %w", ErrPatch, err)
	}
	patchJSON, err := json.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("%w: encode operations: %w", ErrPatch, err)
	}
	patch, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: decode operations: %w", ErrPatch, err)
	}
	out, err := patch.Apply(docJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPatch, err)
	}
	return Decode(out)
}
