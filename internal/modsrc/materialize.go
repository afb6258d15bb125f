// SPDX-License-Identifier: MPL-2.0

package modsrc

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/invowk/modpak/internal/codec"
	"github.com/invowk/modpak/internal/pak"
)

// gitDir is never copied out of a mod; it would clash with the workspace.
const gitDir = ".git"

// Materialize copies the content of m into dst, overwriting files that
// already exist. Archive entries lose the archive's mount point. JSON files
// are rewritten pretty-printed; a malformed one fails the copy. It returns
// the number of files written.
func Materialize(ctx context.Context, m Mod, dst billy.Filesystem) (int, error) {
	var (
		n   int
		err error
	)
	switch m.Kind {
	case KindDir:
		n, err = copyDir(ctx, osfs.New(m.Path), dst)
	case KindArchive:
		n, err = extractArchive(ctx, m.Path, dst)
	default:
		err = fmt.Errorf("unknown mod kind %d", m.Kind)
	}
	if err != nil {
		return n, fmt.Errorf("failed to materialize mod %s: %w", m.Name, err)
	}
	return n, nil
}

func copyDir(ctx context.Context, src, dst billy.Filesystem) (int, error) {
	var files []string
	err := util.Walk(src, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == gitDir {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Mode().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	slices.Sort(files)

	for i, p := range files {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		data, err := util.ReadFile(src, p)
		if err != nil {
			return i, err
		}
		rel := strings.TrimPrefix(filepath.ToSlash(filepath.Clean(p)), "/")
		if err := writeFile(dst, rel, data); err != nil {
			return i, err
		}
	}
	return len(files), nil
}

func extractArchive(ctx context.Context, archivePath string, dst billy.Filesystem) (n int, err error) {
	r, err := pak.Open(archivePath)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	mount := r.MountPoint()
	for _, name := range r.Entries() {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if name == pak.IndexName {
			continue
		}
		rel, err := pak.Relative(name, mount)
		if err != nil {
			return n, err
		}
		if slices.Contains(strings.Split(rel, "/"), gitDir) {
			continue
		}
		data, err := r.ReadEntry(name)
		if err != nil {
			return n, err
		}
		if err := writeFile(dst, rel, data); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// writeFile stores data at the slash path rel, pretty-printing JSON.
func writeFile(dst billy.Filesystem, rel string, data []byte) error {
	if strings.EqualFold(path.Ext(rel), ".json") {
		pretty, err := codec.PrettyJSON(data)
		if err != nil {
			return fmt.Errorf("%s: %w", rel, err)
		}
		data = pretty
	}
	if dir := path.Dir(rel); dir != "." {
		if err := dst.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return util.WriteFile(dst, rel, data, 0o644)
}
