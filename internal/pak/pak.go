// SPDX-License-Identifier: MPL-2.0

package pak

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

const (
	// DefaultMountPoint is the mount point written when none is configured.
	DefaultMountPoint = "../../../"
	// IndexName is the archive entry holding the Index.
	IndexName = ".modpak-index.json"
	// IndexVersion is the current index format version.
	IndexVersion = 1

	// ExtPak is the extension of archives written by this package.
	ExtPak = ".pak"
	// ExtZip is the extension of zip mod archives.
	ExtZip = ".zip"
)

var (
	// ErrUnsupportedArchive is returned by Open for unknown extensions.
	ErrUnsupportedArchive = errors.New("unsupported archive type")
	// ErrEntryNotFound is returned by ReadEntry for names not in the archive.
	ErrEntryNotFound = errors.New("archive entry not found")
	// ErrCorruptArchive is returned when the index does not match the content.
	ErrCorruptArchive = errors.New("corrupt archive")
	// ErrInvalidEntryName is returned for entry names that would escape the
	// archive root.
	ErrInvalidEntryName = errors.New("invalid archive entry name")
	// ErrDuplicateEntry is returned when a Writer receives the same name twice.
	ErrDuplicateEntry = errors.New("duplicate archive entry")
	// ErrFinalized is returned when a finalized Writer is used again.
	ErrFinalized = errors.New("archive writer already finalized")
)

type (
	// Reader gives access to the entries of an archive.
	Reader interface {
		// Entries lists the stored entry names in archive order.
		Entries() []string
		// ReadEntry returns the content of a stored entry.
		ReadEntry(name string) ([]byte, error)
		// MountPoint is the prefix shared by the stored names; empty when the
		// archive has none.
		MountPoint() string
		Close() error
	}

	// Index is the table written as the last archive entry.
	Index struct {
		Version    int          `json:"version"`
		Name       string       `json:"name,omitempty"`
		MountPoint string       `json:"mount_point"`
		Files      []IndexEntry `json:"files"`
	}

	// IndexEntry describes one stored file.
	IndexEntry struct {
		Path   string `json:"path"`
		Size   int64  `json:"size"`
		BLAKE3 string `json:"blake3"`
	}
)

// Open opens the archive at path, choosing the format by extension.
func Open(archivePath string) (Reader, error) {
	switch strings.ToLower(filepath.Ext(archivePath)) {
	case ExtPak:
		return openPak(archivePath)
	case ExtZip:
		return openZip(archivePath)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedArchive, archivePath)
	}
}

// IsArchive reports whether Open accepts the file name.
func IsArchive(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ExtPak, ExtZip:
		return true
	}
	return false
}

// Relative strips the mount point from a stored name and returns a clean
// slash path. Names that would escape the archive root are rejected.
func Relative(name, mountPoint string) (string, error) {
	rel := strings.ReplaceAll(strings.TrimPrefix(name, mountPoint), "\\", "/")
	rel = path.Clean(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") || path.IsAbs(rel) {
		return "", fmt.Errorf("%w: %q under mount point %q", ErrInvalidEntryName, name, mountPoint)
	}
	return rel, nil
}

// validateName checks a relative slash path handed to a Writer.
func validateName(name string) error {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "\\") || path.Clean(name) != name ||
		name == ".." || strings.HasPrefix(name, "../") || name == IndexName {
		return fmt.Errorf("%w: %q", ErrInvalidEntryName, name)
	}
	return nil
}
