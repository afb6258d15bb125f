// SPDX-License-Identifier: MPL-2.0

package ini

import (
	"errors"
	"fmt"
	"slices"
)

// ErrCanonicalShape is returned by FromCanonical for values that do not have
// the canonical document shape.
var ErrCanonicalShape = errors.New("value is not a canonical ini document")

const keySections = "sections"

// ToCanonical lowers the document to the canonical value tree:
//
//	{"sections": {"<section>": {"<key>": "<value>"}}}
//
// Sections and keys are addressed by name, so the tree carries no order.
// FromCanonical restores order from the documents it is given.
func (d *Document) ToCanonical() map[string]any {
	sections := make(map[string]any, len(d.sections))
	for _, s := range d.sections {
		body := make(map[string]any, len(s.keys))
		for _, k := range s.keys {
			body[k] = s.values[k]
		}
		sections[s.Name] = body
	}
	return map[string]any{keySections: sections}
}

// FromCanonical raises a canonical value tree back into a Document.
//
// Sections and keys are emitted in the order they first appear in the order
// documents, taken in the given sequence; names none of them know follow in
// lexical order.
func FromCanonical(v any, order ...*Document) (*Document, error) {
	root, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: root is %T", ErrCanonicalShape, v)
	}
	raw, ok := root[keySections]
	if !ok || raw == nil {
		return NewDocument(), nil
	}
	sections, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: /sections is %T, want object", ErrCanonicalShape, raw)
	}

	doc := NewDocument()
	for _, name := range orderedNames(sections, sectionOrder(order)) {
		body, ok := sections[name].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: section %q is %T, want object", ErrCanonicalShape, name, sections[name])
		}
		s := doc.AddSection(name)
		for _, key := range orderedNames(body, keyOrder(order, name)) {
			value, ok := body[key].(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s is %T, want string", ErrCanonicalShape, name, key, body[key])
			}
			s.Set(key, value)
		}
	}
	return doc, nil
}

func sectionOrder(docs []*Document) []string {
	var names []string
	for _, d := range docs {
		if d == nil {
			continue
		}
		for _, s := range d.sections {
			names = append(names, s.Name)
		}
	}
	return names
}

func keyOrder(docs []*Document, section string) []string {
	var keys []string
	for _, d := range docs {
		if d == nil {
			continue
		}
		if s, ok := d.Section(section); ok {
			keys = append(keys, s.keys...)
		}
	}
	return keys
}

// orderedNames lists the members of m following hint, then the rest sorted.
func orderedNames(m map[string]any, hint []string) []string {
	out := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, name := range hint {
		if _, ok := m[name]; ok && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	var rest []string
	for name := range m {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}
