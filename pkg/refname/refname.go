// SPDX-License-Identifier: MPL-2.0

package refname

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// Baseline is the short name of the layer every mod is integrated into.
	Baseline = "master"
	// LayerPrefix is prepended to the normalized mod name to form its layer name.
	LayerPrefix = "mods/"

	// placeholder replaces every character a reference name cannot carry.
	placeholder = '_'
	// forbidden lists the printable characters rejected inside a reference component.
	forbidden = " ~^:?*[\\"
	// lockSuffix cannot terminate a reference component.
	lockSuffix = ".lock"
)

// Normalize maps name to a string that is a valid branch short name.
//
// Control characters, spaces and the characters ~^:?*[\ become '_', "@{"
// becomes "__", empty components and runs of '/' are dropped, runs of '.'
// collapse to one and leading or trailing dots are stripped from every
// component, a lone "@" becomes "_" and a trailing ".lock" becomes "_lock".
// An input that normalizes to nothing yields "_".
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); {
		r, size := utf8.DecodeRuneInString(name[i:])
		i += size
		switch {
		case r == utf8.RuneError && size <= 1:
			b.WriteRune(placeholder)
		case r < 0x20 || r == 0x7f:
			b.WriteRune(placeholder)
		case strings.ContainsRune(forbidden, r):
			b.WriteRune(placeholder)
		default:
			b.WriteRune(r)
		}
	}

	cleaned := strings.ReplaceAll(b.String(), "@{", "__")

	parts := strings.Split(cleaned, "/")
	kept := parts[:0]
	for _, part := range parts {
		if part = normalizeComponent(part); part != "" {
			kept = append(kept, part)
		}
	}

	if len(kept) == 0 {
		return string(placeholder)
	}
	return strings.Join(kept, "/")
}

// normalizeComponent applies the per-component rules; "" means drop it.
func normalizeComponent(part string) string {
	for strings.Contains(part, "..") {
		part = strings.ReplaceAll(part, "..", ".")
	}
	part = strings.Trim(part, ".")
	switch {
	case part == "":
		return ""
	case part == "@":
		return string(placeholder)
	case strings.HasSuffix(part, lockSuffix):
		return strings.TrimSuffix(part, lockSuffix) + "_lock"
	}
	return part
}

// LayerName returns the layer short name for a mod, e.g. "mods/My_Mod".
func LayerName(modName string) string {
	return LayerPrefix + Normalize(modName)
}

// Allocator hands out unique layer names for mods whose names may collide
// after normalization. Names are compared case-insensitively.
type Allocator struct {
	taken map[string]bool
}

// NewAllocator creates an Allocator with no names in use.
func NewAllocator() *Allocator {
	return &Allocator{taken: make(map[string]bool)}
}

// Next returns the layer name for modName, suffixed with "_2", "_3", ...
// when an earlier mod already holds the same name.
func (a *Allocator) Next(modName string) string {
	base := LayerName(modName)
	name := base
	for n := 2; a.taken[strings.ToLower(name)]; n++ {
		name = fmt.Sprintf("%s_%d", base, n)
	}
	a.taken[strings.ToLower(name)] = true
	return name
}
