// SPDX-License-Identifier: MPL-2.0

package structcfg

import (
	"bytes"
	"io"
	"strings"
)

// indentUnit is the indentation written per nesting level.
const indentUnit = "   "

// Bytes serializes the document.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	if d.BOM {
		buf.Write(bom)
	}
	d.writeEntries(&buf, d.Entries, 0)
	return buf.Bytes()
}

// String serializes the document.
func (d *Document) String() string {
	return string(d.Bytes())
}

// WriteTo writes the serialized document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(d.Bytes())
	return int64(n), err
}

func (d *Document) writeEntries(buf *bytes.Buffer, entries []Entry, depth int) {
	indent := strings.Repeat(indentUnit, depth)
	for _, e := range entries {
		buf.WriteString(indent)
		if e.Kind == KindValue {
			buf.WriteString(e.Name)
			buf.WriteString(" =")
			if e.Value != "" {
				buf.WriteByte(' ')
				buf.WriteString(e.Value)
			}
			buf.WriteByte('\n')
			continue
		}

		s := d.arena[e.Struct]
		buf.WriteString(s.Name)
		buf.WriteString(" : ")
		buf.WriteString(keywordBegin)
		buf.WriteString(s.Meta)
		buf.WriteByte('\n')
		d.writeEntries(buf, s.Entries, depth+1)
		buf.WriteString(indent)
		buf.WriteString(keywordEnd)
		buf.WriteByte('\n')
	}
}
