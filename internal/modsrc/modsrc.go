// SPDX-License-Identifier: MPL-2.0

package modsrc

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/invowk/modpak/internal/pak"
)

const (
	// KindDir is a mod stored as a directory tree.
	KindDir Kind = iota
	// KindArchive is a mod stored as a .pak or .zip archive.
	KindArchive
)

var (
	// ErrModsDir is returned when the mods directory cannot be listed.
	ErrModsDir = errors.New("cannot read mods directory")
	// ErrPriorityConflict is returned when two priority keys name the same mod.
	ErrPriorityConflict = errors.New("conflicting priorities")
)

type (
	// Kind tells how a mod is stored.
	Kind int

	// Mod is one input of the modpack.
	Mod struct {
		Name string
		Path string
		Kind Kind
		// Priority orders integration, lowest first.
		Priority int
		// Explicit is set when Priority came from the configuration rather
		// than the mod's position in the mods directory.
		Explicit bool
	}
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindDir:
		return "directory"
	case KindArchive:
		return "archive"
	default:
		return "unknown"
	}
}

// Discover lists the mods in dir in name order. Every mod gets its position
// as default priority. Files that are neither directories nor archives are
// skipped with a warning.
func Discover(dir string, logger *slog.Logger) ([]Mod, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrModsDir, dir, err)
	}

	var mods []Mod
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrModsDir, dir, err)
		}
		switch {
		case info.IsDir():
			mods = append(mods, Mod{Name: e.Name(), Path: p, Kind: KindDir})
		case pak.IsArchive(e.Name()):
			name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
			mods = append(mods, Mod{Name: name, Path: p, Kind: KindArchive})
		default:
			logger.Warn("skipping file in mods directory", "path", p)
			continue
		}
	}
	for i := range mods {
		mods[i].Priority = i
	}
	return mods, nil
}

// Prioritize returns mods sorted by priority. Explicit priorities replace
// the default ones; keys match mod names case-insensitively. Mods with equal
// priority keep their relative order.
func Prioritize(mods []Mod, priorities map[string]int) ([]Mod, error) {
	explicit := make(map[string]int, len(priorities))
	keys := make(map[string]string, len(priorities))
	for name, prio := range priorities {
		key := strings.ToLower(name)
		if other, ok := keys[key]; ok && priorities[other] != prio {
			a, b := min(name, other), max(name, other)
			return nil, fmt.Errorf("%w: %q and %q", ErrPriorityConflict, a, b)
		}
		keys[key] = name
		explicit[key] = prio
	}

	out := slices.Clone(mods)
	for i := range out {
		if prio, ok := explicit[strings.ToLower(out[i].Name)]; ok {
			out[i].Priority = prio
			out[i].Explicit = true
		}
	}
	slices.SortStableFunc(out, func(a, b Mod) int {
		return cmp.Compare(a.Priority, b.Priority)
	})
	return out, nil
}
