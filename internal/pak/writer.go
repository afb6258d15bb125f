// SPDX-License-Identifier: MPL-2.0

package pak

import (
	"archive/tar"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"
)

// Writer streams entries into a .pak archive. Entries are written as they
// are added; Finalize appends the index and flushes the container.
type Writer struct {
	xzw   *xz.Writer
	tw    *tar.Writer
	index Index
	seen  map[string]bool
	done  bool
}

// NewWriter starts an archive on w. An empty mountPoint selects
// DefaultMountPoint.
func NewWriter(w io.Writer, name, mountPoint string) (*Writer, error) {
	if mountPoint == "" {
		mountPoint = DefaultMountPoint
	}
	xzw, err := xz.NewWriter(w)
	if err != nil {
		return nil, fmt.Errorf("failed to create xz writer: %w", err)
	}
	return &Writer{
		xzw: xzw,
		tw:  tar.NewWriter(xzw),
		index: Index{
			Version:    IndexVersion,
			Name:       name,
			MountPoint: mountPoint,
		},
		seen: make(map[string]bool),
	}, nil
}

// Add stores data under name, a relative slash path below the mount point.
func (w *Writer) Add(name string, data []byte) error {
	if w.done {
		return ErrFinalized
	}
	if err := validateName(name); err != nil {
		return err
	}
	if w.seen[name] {
		return fmt.Errorf("%w: %s", ErrDuplicateEntry, name)
	}
	w.seen[name] = true

	if err := writeEntry(w.tw, w.index.MountPoint+name, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	sum := blake3.Sum256(data)
	w.index.Files = append(w.index.Files, IndexEntry{
		Path:   name,
		Size:   int64(len(data)),
		BLAKE3: hex.EncodeToString(sum[:]),
	})
	return nil
}

// Len returns the number of entries added so far.
func (w *Writer) Len() int {
	return len(w.index.Files)
}

// Finalize writes the index and closes the tar and xz streams. It does not
// close the underlying writer.
func (w *Writer) Finalize() (*Index, error) {
	if w.done {
		return nil, ErrFinalized
	}
	w.done = true

	data, err := json.MarshalIndent(w.index, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode index: %w", err)
	}
	if err := writeEntry(w.tw, IndexName, data); err != nil {
		return nil, fmt.Errorf("failed to write index: %w", err)
	}
	if err := w.tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close tar stream: %w", err)
	}
	if err := w.xzw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close xz stream: %w", err)
	}
	return &w.index, nil
}

// writeEntry writes a regular file entry with a fixed timestamp so archives
// built from the same content are byte-identical.
func writeEntry(tw *tar.Writer, name string, data []byte) error {
	header := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(data)),
		ModTime:  time.Unix(0, 0).UTC(),
		Format:   tar.FormatPAX,
	}
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}
