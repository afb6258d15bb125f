// SPDX-License-Identifier: MPL-2.0

package structcfg

import "fmt"

// Keys of the canonical form.
const (
	keyEntries = "entries"
	keyName    = "name"
	keyValue   = "value"
	keyMeta    = "meta"
)

// ToCanonical lowers the document to the canonical value tree:
//
//	{"entries": [{"name": n, "value": v} | {"name": n, "meta": m, "entries": [...]}]}
func (d *Document) ToCanonical() map[string]any {
	return map[string]any{keyEntries: d.canonicalEntries(d.Entries)}
}

func (d *Document) canonicalEntries(entries []Entry) []any {
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		if e.Kind == KindValue {
			out = append(out, map[string]any{keyName: e.Name, keyValue: e.Value})
			continue
		}
		s := d.arena[e.Struct]
		out = append(out, map[string]any{
			keyName:    s.Name,
			keyMeta:    s.Meta,
			keyEntries: d.canonicalEntries(s.Entries),
		})
	}
	return out
}

// FromCanonical raises a canonical value tree back into a Document.
func FromCanonical(v any) (*Document, error) {
	root, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: root is %T", ErrCanonicalShape, v)
	}
	doc := NewDocument()
	entries, err := doc.raiseEntries(root[keyEntries], "/"+keyEntries)
	if err != nil {
		return nil, err
	}
	doc.Entries = entries
	return doc, nil
}

func (d *Document) raiseEntries(v any, path string) ([]Entry, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T, want array", ErrCanonicalShape, path, v)
	}

	entries := make([]Entry, 0, len(list))
	for i, item := range list {
		at := fmt.Sprintf("%s/%d", path, i)
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s is %T, want object", ErrCanonicalShape, at, item)
		}
		name, err := stringField(obj, keyName, at)
		if err != nil {
			return nil, err
		}

		if _, isStruct := obj[keyEntries]; !isStruct {
			value, err := stringField(obj, keyValue, at)
			if err != nil {
				return nil, err
			}
			entries = append(entries, Entry{Kind: KindValue, Name: name, Value: value})
			continue
		}

		meta, err := stringField(obj, keyMeta, at)
		if err != nil {
			return nil, err
		}
		h := d.NewStruct(name, meta)
		children, err := d.raiseEntries(obj[keyEntries], at+"/"+keyEntries)
		if err != nil {
			return nil, err
		}
		d.arena[h].Entries = children
		entries = append(entries, Entry{Kind: KindStruct, Name: name, Struct: h})
	}
	return entries, nil
}

// stringField reads a string member; a missing member reads as "".
func stringField(obj map[string]any, key, path string) (string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s/%s is %T, want string", ErrCanonicalShape, path, key, v)
	}
	return s, nil
}
