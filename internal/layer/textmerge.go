// SPDX-License-Identifier: MPL-2.0

package layer

import (
	"bytes"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// binarySniffLen is how much of a file is searched for NUL bytes.
const binarySniffLen = 8000

type (
	// hunk replaces base lines [start, end) with lines.
	hunk struct {
		start, end int
		lines      []string
	}

	// textMergeResult is the outcome of mergeText.
	textMergeResult struct {
		data []byte
		// clean is false when colliding hunks had to be settled by favor.
		clean bool
		// collisions counts regions changed differently on both sides.
		collisions int
	}
)

// isBinary reports whether data should not be merged as text.
func isBinary(data []byte) bool {
	sniff := data[:min(len(data), binarySniffLen)]
	return bytes.IndexByte(sniff, 0) >= 0 || !utf8.Valid(data)
}

// splitLines splits text after every newline; a trailing fragment without
// newline is its own line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// lineHunks returns the changes that turn base into other, in base order.
func lineHunks(dmp *diffmatchpatch.DiffMatchPatch, base, other string) []hunk {
	baseRunes, otherRunes, _ := dmp.DiffLinesToRunes(base, other)
	otherLines := splitLines(other)
	diffs := dmp.DiffMainRunes(baseRunes, otherRunes, false)

	var hunks []hunk
	basePos, otherPos := 0, 0
	var cur *hunk
	flush := func() {
		if cur != nil {
			hunks = append(hunks, *cur)
			cur = nil
		}
	}
	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			basePos += n
			otherPos += n
		case diffmatchpatch.DiffDelete:
			if cur == nil {
				cur = &hunk{start: basePos, end: basePos}
			}
			basePos += n
			cur.end = basePos
		case diffmatchpatch.DiffInsert:
			if cur == nil {
				cur = &hunk{start: basePos, end: basePos}
			}
			cur.lines = append(cur.lines, otherLines[otherPos:otherPos+n]...)
			otherPos += n
		}
	}
	flush()
	return hunks
}

// applyHunks renders base lines [start, end) with hs applied.
func applyHunks(base []string, start, end int, hs []hunk) []string {
	var out []string
	pos := start
	for _, h := range hs {
		out = append(out, base[pos:h.start]...)
		out = append(out, h.lines...)
		pos = h.end
	}
	return append(out, base[pos:end]...)
}

// mergeText merges ours and theirs line by line against base. Changes that
// touch or overlap collide; identical colliding changes are taken once, and
// other collisions are settled with the theirs lines when favorTheirs is set.
// ok is false when a collision remains.
func mergeText(base, ours, theirs []byte, favorTheirs bool) (res textMergeResult, ok bool) {
	dmp := diffmatchpatch.New()
	baseText := string(base)
	oh := lineHunks(dmp, baseText, string(ours))
	th := lineHunks(dmp, baseText, string(theirs))
	baseLines := splitLines(baseText)

	res.clean = true
	var out []string
	pos, i, j := 0, 0, 0
	for i < len(oh) || j < len(th) {
		start := len(baseLines) + 1
		if i < len(oh) {
			start = oh[i].start
		}
		if j < len(th) {
			start = min(start, th[j].start)
		}

		end := start
		var ourSide, theirSide []hunk
		for grew := true; grew; {
			grew = false
			for i < len(oh) && oh[i].start <= end {
				ourSide = append(ourSide, oh[i])
				end = max(end, oh[i].end)
				i++
				grew = true
			}
			for j < len(th) && th[j].start <= end {
				theirSide = append(theirSide, th[j])
				end = max(end, th[j].end)
				j++
				grew = true
			}
		}

		out = append(out, baseLines[pos:start]...)
		ourRegion := applyHunks(baseLines, start, end, ourSide)
		theirRegion := applyHunks(baseLines, start, end, theirSide)
		switch {
		case len(theirSide) == 0:
			out = append(out, ourRegion...)
		case len(ourSide) == 0:
			out = append(out, theirRegion...)
		case slices.Equal(ourRegion, theirRegion):
			out = append(out, ourRegion...)
		case favorTheirs:
			res.clean = false
			res.collisions++
			out = append(out, theirRegion...)
		default:
			res.collisions++
			return res, false
		}
		pos = end
	}
	out = append(out, baseLines[pos:]...)

	res.data = []byte(strings.Join(out, ""))
	return res, true
}
