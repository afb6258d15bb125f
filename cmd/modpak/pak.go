// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/spf13/cobra"

	"github.com/invowk/modpak/internal/issue"
	"github.com/invowk/modpak/internal/pak"
)

// newPakCommand creates the `modpak pak` command tree.
func newPakCommand(app *App) *cobra.Command {
	pakCmd := &cobra.Command{
		Use:   "pak",
		Short: "Inspect archives",
		Long: `Inspect archives written by modpak (.pak) or zip mod archives (.zip).

Names are shown relative to the archive mount point.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pakCmd.AddCommand(&cobra.Command{
		Use:   "list <archive>",
		Short: "List the files of an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listPak(app, args[0])
		},
	})

	var dir string
	extractCmd := &cobra.Command{
		Use:   "extract <archive>",
		Short: "Extract the files of an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return extractPak(app, args[0], dir)
		},
	}
	extractCmd.Flags().StringVarP(&dir, "dir", "C", ".", "directory to extract into")
	pakCmd.AddCommand(extractCmd)

	return pakCmd
}

func openArchive(archivePath string) (pak.Reader, error) {
	r, err := pak.Open(archivePath)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("open archive").
			WithResource(archivePath).
			WithSuggestion("Only .pak and .zip archives are supported").
			WithIssue(issue.ArchiveFailedId).
			Wrap(err).
			BuildError()
	}
	return r, nil
}

func listPak(app *App, archivePath string) (err error) {
	r, err := openArchive(archivePath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	sizes := make(map[string]int64)
	if a, ok := r.(*pak.Archive); ok {
		idx := a.Index()
		if idx.Name != "" {
			fmt.Fprintf(app.stdout, "%s %s\n", renderLabelStyle.Render("name:"), idx.Name)
		}
		fmt.Fprintf(app.stdout, "%s %s\n", renderLabelStyle.Render("mount point:"), idx.MountPoint)
		for _, e := range idx.Files {
			sizes[e.Path] = e.Size
		}
	}

	mount := r.MountPoint()
	for _, name := range r.Entries() {
		if name == pak.IndexName {
			continue
		}
		rel, err := pak.Relative(name, mount)
		if err != nil {
			return err
		}
		if size, ok := sizes[rel]; ok {
			fmt.Fprintf(app.stdout, "%s %s\n", rel, renderValueStyle.Render(fmt.Sprintf("(%d bytes)", size)))
			continue
		}
		fmt.Fprintln(app.stdout, rel)
	}
	return nil
}

func extractPak(app *App, archivePath, dir string) (err error) {
	r, err := openArchive(archivePath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	fs := osfs.New(dir)
	mount := r.MountPoint()
	n := 0
	for _, name := range r.Entries() {
		if name == pak.IndexName {
			continue
		}
		rel, err := pak.Relative(name, mount)
		if err != nil {
			return err
		}
		data, err := r.ReadEntry(name)
		if err != nil {
			return err
		}
		if d := path.Dir(rel); d != "." {
			if err := fs.MkdirAll(d, 0o755); err != nil {
				return err
			}
		}
		if err := util.WriteFile(fs, rel, data, 0o644); err != nil {
			return issue.WrapWithOperation(err, "extract "+rel)
		}
		n++
	}

	fmt.Fprintf(app.stdout, "%s Extracted %d files into %s\n", SuccessStyle.Render("✓"), n, dir)
	return nil
}
