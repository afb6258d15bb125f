// SPDX-License-Identifier: MPL-2.0

package pak

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// PackFilesystem adds every regular file of fsys to w, skipping the
// directories named in skipDirs at any depth. Files are added in lexical
// path order and the number of files added is returned.
func PackFilesystem(ctx context.Context, fsys billy.Filesystem, w *Writer, skipDirs ...string) (int, error) {
	var files []string
	err := util.Walk(fsys, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if slices.Contains(skipDirs, info.Name()) {
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
		return 0, fmt.Errorf("failed to walk workspace: %w", err)
	}
	slices.Sort(files)

	for _, p := range files {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		data, err := util.ReadFile(fsys, p)
		if err != nil {
			return 0, fmt.Errorf("failed to read %s: %w", p, err)
		}
		if err := w.Add(filepath.ToSlash(trimRoot(p)), data); err != nil {
			return 0, err
		}
	}
	return len(files), nil
}

// trimRoot turns a walk path into a path relative to the filesystem root.
func trimRoot(p string) string {
	rel, err := filepath.Rel("/", filepath.Join("/", p))
	if err != nil {
		return p
	}
	return rel
}
