// SPDX-License-Identifier: MPL-2.0

package ini

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// ErrParse is the root sentinel wrapped by every ParseError.
	ErrParse = errors.New("ini parse error")

	// ErrUnterminatedSection is returned for a "[" line without a closing "]".
	ErrUnterminatedSection = fmt.Errorf("%w: section header is not terminated", ErrParse)
	// ErrEmptyKey is returned for an assignment with no key.
	ErrEmptyKey = fmt.Errorf("%w: assignment without a key", ErrParse)
	// ErrInvalidEncoding is returned for text that is not valid UTF-8.
	ErrInvalidEncoding = fmt.Errorf("%w: invalid UTF-8", ErrParse)

	assignmentRe = regexp.MustCompile(`^([^\s=]*)\s*=\s*(.*)$`)
)

type (
	// ParseError describes the line that made Parse fail.
	ParseError struct {
		Line int
		Text string
		Err  error
	}

	// Document is an ordered set of sections. Keys assigned before the first
	// header belong to the unnamed section "".
	Document struct {
		sections []*Section
		index    map[string]int
	}

	// Section is an ordered set of key/value pairs.
	Section struct {
		Name   string
		keys   []string
		values map[string]string
	}
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

// Unwrap returns the sentinel so callers can match with errors.Is.
func (e *ParseError) Unwrap() error { return e.Err }

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{index: make(map[string]int)}
}

// Parse reads an INI document.
func Parse(src []byte) (*Document, error) {
	doc := NewDocument()
	var current *Section

	for i, raw := range strings.Split(string(src), "\n") {
		lineNo := i + 1
		if !utf8.ValidString(raw) {
			return nil, &ParseError{Line: lineNo, Err: ErrInvalidEncoding}
		}
		line := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))

		switch {
		case line == "", strings.HasPrefix(line, ";"):
			continue

		case strings.HasPrefix(line, "["):
			// Text after the closing bracket is ignored.
			end := strings.IndexByte(line, ']')
			if end < 0 {
				return nil, &ParseError{Line: lineNo, Text: line, Err: ErrUnterminatedSection}
			}
			current = doc.AddSection(strings.TrimSpace(line[1:end]))

		default:
			m := assignmentRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if m[1] == "" {
				return nil, &ParseError{Line: lineNo, Text: line, Err: ErrEmptyKey}
			}
			if current == nil {
				current = doc.AddSection("")
			}
			current.Set(m[1], m[2])
		}
	}
	return doc, nil
}

// ParseString is Parse for string input.
func ParseString(src string) (*Document, error) {
	return Parse([]byte(src))
}

// AddSection returns the named section, creating it at the end if absent.
func (d *Document) AddSection(name string) *Section {
	if i, ok := d.index[name]; ok {
		return d.sections[i]
	}
	s := &Section{Name: name, values: make(map[string]string)}
	d.index[name] = len(d.sections)
	d.sections = append(d.sections, s)
	return s
}

// Section returns the named section.
func (d *Document) Section(name string) (*Section, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.sections[i], true
}

// Sections returns the sections in document order.
func (d *Document) Sections() []*Section {
	return d.sections
}

// Get returns the value of key in section.
func (d *Document) Get(section, key string) (string, bool) {
	s, ok := d.Section(section)
	if !ok {
		return "", false
	}
	return s.Get(key)
}

// Set assigns key in section, creating the section if needed.
func (d *Document) Set(section, key, value string) {
	d.AddSection(section).Set(key, value)
}

// Set assigns key. An existing key keeps its position.
func (s *Section) Set(key, value string) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

// Get returns the value of key.
func (s *Section) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (s *Section) Keys() []string {
	return s.keys
}

// Len returns the number of keys.
func (s *Section) Len() int {
	return len(s.keys)
}

// String serializes the document. The unnamed section, if any, is written
// first and without a header.
func (d *Document) String() string {
	var b strings.Builder
	if s, ok := d.Section(""); ok {
		s.writeBody(&b)
		b.WriteByte('\n')
	}
	for _, s := range d.sections {
		if s.Name == "" {
			continue
		}
		b.WriteByte('[')
		b.WriteString(s.Name)
		b.WriteString("]\n")
		s.writeBody(&b)
		b.WriteByte('\n')
	}
	return b.String()
}

// Bytes serializes the document.
func (d *Document) Bytes() []byte {
	return []byte(d.String())
}

func (s *Section) writeBody(b *strings.Builder) {
	for _, k := range s.keys {
		b.WriteString(k)
		b.WriteString(" =")
		if v := s.values[k]; v != "" {
			b.WriteByte(' ')
			b.WriteString(v)
		}
		b.WriteByte('\n')
	}
}

// Equal reports whether a and b hold the same sections, keys, values and order.
func Equal(a, b *Document) bool {
	if len(a.sections) != len(b.sections) {
		return false
	}
	for i, sa := range a.sections {
		sb := b.sections[i]
		if sa.Name != sb.Name || len(sa.keys) != len(sb.keys) {
			return false
		}
		for j, k := range sa.keys {
			if sb.keys[j] != k || sa.values[k] != sb.values[k] {
				return false
			}
		}
	}
	return true
}
