// SPDX-License-Identifier: MPL-2.0

package pak

import (
	"archive/tar"
	"archive/zip"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"
)

type (
	// Archive is a fully read and verified .pak archive.
	Archive struct {
		index   Index
		names   []string
		content map[string][]byte
	}

	// zipReader wraps a zip archive. Zip archives carry no mount point.
	zipReader struct {
		rc    *zip.ReadCloser
		names []string
		files map[string]*zip.File
	}
)

func openPak(archivePath string) (*Archive, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()
	return ReadPak(f)
}

// ReadPak reads a .pak archive from r and verifies it against its index.
func ReadPak(r io.Reader) (*Archive, error) {
	xzr, err := xz.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create xz reader: %w", err)
	}
	tr := tar.NewReader(xzr)

	pr := &Archive{content: make(map[string][]byte)}
	var indexData []byte
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar header: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", header.Name, err)
		}
		if header.Name == IndexName {
			indexData = data
			continue
		}
		pr.names = append(pr.names, header.Name)
		pr.content[header.Name] = data
	}

	if indexData == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrCorruptArchive, IndexName)
	}
	if err := json.Unmarshal(indexData, &pr.index); err != nil {
		return nil, fmt.Errorf("%w: index: %w", ErrCorruptArchive, err)
	}
	if err := pr.verify(); err != nil {
		return nil, err
	}
	return pr, nil
}

// verify checks that every indexed file is present with the recorded digest
// and that nothing unindexed is stored.
func (r *Archive) verify() error {
	if len(r.index.Files) != len(r.names) {
		return fmt.Errorf("%w: index lists %d files, archive holds %d", ErrCorruptArchive, len(r.index.Files), len(r.names))
	}
	for _, e := range r.index.Files {
		data, ok := r.content[r.index.MountPoint+e.Path]
		if !ok {
			return fmt.Errorf("%w: %s is indexed but not stored", ErrCorruptArchive, e.Path)
		}
		sum := blake3.Sum256(data)
		if int64(len(data)) != e.Size || hex.EncodeToString(sum[:]) != e.BLAKE3 {
			return fmt.Errorf("%w: %s does not match its index entry", ErrCorruptArchive, e.Path)
		}
	}
	return nil
}

// Entries implements Reader.
func (r *Archive) Entries() []string { return r.names }

// MountPoint implements Reader.
func (r *Archive) MountPoint() string { return r.index.MountPoint }

// Close implements Reader.
func (r *Archive) Close() error { return nil }

// Index returns the archive index.
func (r *Archive) Index() Index { return r.index }

// ReadEntry implements Reader.
func (r *Archive) ReadEntry(name string) ([]byte, error) {
	data, ok := r.content[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	return data, nil
}

func openZip(archivePath string) (*zipReader, error) {
	rc, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip archive: %w", err)
	}
	zr := &zipReader{rc: rc, files: make(map[string]*zip.File)}
	for _, f := range rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		zr.names = append(zr.names, f.Name)
		zr.files[f.Name] = f
	}
	return zr, nil
}

func (r *zipReader) Entries() []string  { return r.names }
func (r *zipReader) MountPoint() string { return "" }
func (r *zipReader) Close() error       { return r.rc.Close() }

func (r *zipReader) ReadEntry(name string) ([]byte, error) {
	f, ok := r.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
