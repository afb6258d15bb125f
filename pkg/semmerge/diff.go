// SPDX-License-Identifier: MPL-2.0

package semmerge

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"
)

// Operation kinds produced by Diff.
const (
	OpAdd     = "add"
	OpRemove  = "remove"
	OpReplace = "replace"
)

// appendIndex is the JSON pointer token addressing the end of an array.
const appendIndex = "-"

// Op is one RFC 6902 operation.
type Op struct {
	Op    string
	Path  string
	Value any
}

// MarshalJSON writes the operation in RFC 6902 form. The value member is
// omitted for removals only, so a JSON null value survives.
func (o Op) MarshalJSON() ([]byte, error) {
	if o.Op == OpRemove {
		return json.Marshal(struct {
			Op   string `json:"op"`
			Path string `json:"path"`
		}{o.Op, o.Path})
	}
	return json.Marshal(struct {
		Op    string `json:"op"`
		Path  string `json:"path"`
		Value any    `json:"value"`
	}{o.Op, o.Path, o.Value})
}

// String returns a compact description used in logs and errors.
func (o Op) String() string {
	return o.Op + " " + strconv.Quote(o.Path)
}

// Diff returns the operations that turn base into target.
//
// Object members are visited in sorted key order: removals first, then
// changed members, then additions. Arrays are compared index by index over
// their common prefix; extra target elements are appended in order and
// surplus base elements are removed from the end. Any other change, including
// a change of type, is a replace.
func Diff(base, target any) []Op {
	var ops []Op
	return diffValue(ops, "", base, target)
}

func diffValue(ops []Op, path string, base, target any) []Op {
	switch b := base.(type) {
	case map[string]any:
		if t, ok := target.(map[string]any); ok {
			return diffObject(ops, path, b, t)
		}
	case []any:
		if t, ok := target.([]any); ok {
			return diffArray(ops, path, b, t)
		}
	}
	if Equal(base, target) {
		return ops
	}
	return append(ops, Op{Op: OpReplace, Path: path, Value: target})
}

func diffObject(ops []Op, path string, base, target map[string]any) []Op {
	var removed, common, added []string
	for k := range base {
		if _, ok := target[k]; ok {
			common = append(common, k)
		} else {
			removed = append(removed, k)
		}
	}
	for k := range target {
		if _, ok := base[k]; !ok {
			added = append(added, k)
		}
	}
	slices.Sort(removed)
	slices.Sort(common)
	slices.Sort(added)

	for _, k := range removed {
		ops = append(ops, Op{Op: OpRemove, Path: path + "/" + escape(k)})
	}
	for _, k := range common {
		ops = diffValue(ops, path+"/"+escape(k), base[k], target[k])
	}
	for _, k := range added {
		ops = append(ops, Op{Op: OpAdd, Path: path + "/" + escape(k), Value: target[k]})
	}
	return ops
}

func diffArray(ops []Op, path string, base, target []any) []Op {
	common := min(len(base), len(target))
	for i := range common {
		ops = diffValue(ops, path+"/"+strconv.Itoa(i), base[i], target[i])
	}
	for i := common; i < len(target); i++ {
		ops = append(ops, Op{Op: OpAdd, Path: path + "/" + appendIndex, Value: target[i]})
	}
	for i := len(base) - 1; i >= common; i-- {
		ops = append(ops, Op{Op: OpRemove, Path: path + "/" + strconv.Itoa(i)})
	}
	return ops
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// escape encodes a member name as a JSON pointer token.
func escape(token string) string {
	return pointerEscaper.Replace(token)
}
