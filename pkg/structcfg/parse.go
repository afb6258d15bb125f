// SPDX-License-Identifier: MPL-2.0

package structcfg

import (
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	keywordBegin = "struct.begin"
	keywordEnd   = "struct.end"
	commentToken = "//"
)

var (
	bom = []byte{0xEF, 0xBB, 0xBF}

	structBeginRe = regexp.MustCompile(`^(\S+)\s*:\s*struct\.begin(.*)$`)
	valueRe       = regexp.MustCompile(`^([^\s=]+)\s*=\s*(.*)$`)
)

// openStruct is a parse stack frame.
type openStruct struct {
	handle Handle
	line   int
	text   string
}

// Parse reads a struct config document.
func Parse(src []byte) (*Document, error) {
	doc := NewDocument()
	if bytes.HasPrefix(src, bom) {
		doc.BOM = true
		src = src[len(bom):]
	}

	var stack []openStruct
	appendEntry := func(e Entry) {
		if len(stack) == 0 {
			doc.Entries = append(doc.Entries, e)
			return
		}
		top := &doc.arena[stack[len(stack)-1].handle]
		top.Entries = append(top.Entries, e)
	}

	for i, raw := range bytes.Split(src, []byte("\n")) {
		lineNo := i + 1
		if !utf8.Valid(raw) {
			return nil, &ParseError{Line: lineNo, Err: ErrInvalidEncoding}
		}
		line := strings.TrimSpace(string(raw))

		switch {
		case line == "", strings.HasPrefix(line, commentToken):
			continue

		case line == keywordEnd:
			if len(stack) == 0 {
				return nil, &ParseError{Line: lineNo, Text: line, Err: ErrUnmatchedEnd}
			}
			stack = stack[:len(stack)-1]

		case isStructBegin(line):
			m := structBeginRe.FindStringSubmatch(line)
			h := doc.NewStruct(m[1], m[2])
			appendEntry(Entry{Kind: KindStruct, Name: m[1], Struct: h})
			stack = append(stack, openStruct{handle: h, line: lineNo, text: line})

		case valueRe.MatchString(line):
			m := valueRe.FindStringSubmatch(line)
			if mentionsKeyword(m[1]) {
				return nil, &ParseError{Line: lineNo, Text: line, Err: ErrMalformedLine}
			}
			appendEntry(Entry{Kind: KindValue, Name: m[1], Value: m[2]})

		case mentionsKeyword(line):
			return nil, &ParseError{Line: lineNo, Text: line, Err: ErrMalformedLine}
		}
	}

	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return nil, &ParseError{Line: top.line, Text: top.text, Err: ErrUnclosedStruct}
	}
	return doc, nil
}

// ParseString is Parse for string input.
func ParseString(src string) (*Document, error) {
	return Parse([]byte(src))
}

// isStructBegin rejects header matches whose name swallowed a value assignment.
func isStructBegin(line string) bool {
	m := structBeginRe.FindStringSubmatch(line)
	return m != nil && !strings.Contains(m[1], "=")
}

func mentionsKeyword(s string) bool {
	return strings.Contains(s, keywordBegin) || strings.Contains(s, keywordEnd)
}
