// SPDX-License-Identifier: MPL-2.0

package structcfg

type (
	// Handle addresses a Struct inside the arena of the Document that created
	// it. Handles are meaningless for any other Document.
	Handle int

	// EntryKind tells the two entry variants apart.
	EntryKind uint8

	// Entry is one element of a struct body or of the document root.
	Entry struct {
		Kind EntryKind
		Name string
		// Value is the raw value text of a KindValue entry.
		Value string
		// Struct is the child node of a KindStruct entry.
		Struct Handle
	}

	// Struct is a named block with its header metadata and ordered body.
	Struct struct {
		Name string
		// Meta is the text that followed "struct.begin" on the header line,
		// including its leading whitespace.
		Meta    string
		Entries []Entry
	}

	// Document is a parsed struct config file.
	Document struct {
		// Entries are the root-level entries in file order.
		Entries []Entry
		// BOM records whether the source started with a UTF-8 byte order mark.
		BOM bool

		arena []Struct
	}
)

const (
	// KindValue marks a "name = value" entry.
	KindValue EntryKind = iota
	// KindStruct marks a nested struct entry.
	KindStruct
)

// String returns the entry kind name.
func (k EntryKind) String() string {
	if k == KindStruct {
		return "struct"
	}
	return "value"
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{}
}

// NewStruct allocates a detached struct node and returns its handle.
func (d *Document) NewStruct(name, meta string) Handle {
	d.arena = append(d.arena, Struct{Name: name, Meta: meta})
	return Handle(len(d.arena) - 1)
}

// Struct returns the node behind h. It panics if h was not issued by d.
func (d *Document) Struct(h Handle) *Struct {
	return &d.arena[h]
}

// Len returns the number of struct nodes held by the arena.
func (d *Document) Len() int {
	return len(d.arena)
}

// Lookup follows names from the root, descending into structs, and returns
// the first matching entry at the last step.
func (d *Document) Lookup(names ...string) (Entry, bool) {
	entries := d.Entries
	for i, name := range names {
		idx := indexOf(entries, name)
		if idx < 0 {
			return Entry{}, false
		}
		e := entries[idx]
		if i == len(names)-1 {
			return e, true
		}
		if e.Kind != KindStruct {
			return Entry{}, false
		}
		entries = d.arena[e.Struct].Entries
	}
	return Entry{}, false
}

func indexOf(entries []Entry, name string) int {
	for i := range entries {
		if entries[i].Name == name {
			return i
		}
	}
	return -1
}

// Equal reports whether a and b describe the same tree: names, meta text,
// values and entry order. Handle numbering is ignored.
func Equal(a, b *Document) bool {
	return equalEntries(a, a.Entries, b, b.Entries)
}

func equalEntries(a *Document, ae []Entry, b *Document, be []Entry) bool {
	if len(ae) != len(be) {
		return false
	}
	for i := range ae {
		x, y := ae[i], be[i]
		if x.Kind != y.Kind || x.Name != y.Name {
			return false
		}
		if x.Kind == KindValue {
			if x.Value != y.Value {
				return false
			}
			continue
		}
		sx, sy := a.arena[x.Struct], b.arena[y.Struct]
		if sx.Name != sy.Name || sx.Meta != sy.Meta {
			return false
		}
		if !equalEntries(a, sx.Entries, b, sy.Entries) {
			return false
		}
	}
	return true
}
