// Package compression packs a finished dataset directory into a single
// archive for transfer.
package compression

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jmylchreest/ocrsynth/internal/security"
)

// Format is an archive format.
type Format string

const (
	// FormatTarXz is a tar stream compressed with xz.
	FormatTarXz Format = "tar.xz"
	// FormatTarGz is a tar stream compressed with gzip.
	FormatTarGz Format = "tar.gz"
	// FormatZip is a deflate-compressed zip archive.
	FormatZip Format = "zip"
)

var aliases = map[string]Format{
	"txz": FormatTarXz,
	"tgz": FormatTarGz,
}

// Formats returns the supported formats.
func Formats() []Format {
	return []Format{FormatTarXz, FormatTarGz, FormatZip}
}

// ParseFormat converts a string such as "tar.xz" or "tgz" to a Format.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimPrefix(s, "."))
	if f, ok := aliases[s]; ok {
		return f, nil
	}
	if f := Format(s); slices.Contains(Formats(), f) {
		return f, nil
	}
	return "", fmt.Errorf("unsupported archive format: %s (valid: tar.xz, tar.gz, zip)", s)
}

// ArchivePath returns the archive path for dir: a sibling named after the
// directory with the format's extension.
func ArchivePath(dir string, f Format) string {
	return filepath.Clean(dir) + "." + string(f)
}

// Entry is one regular file to be packed.
type Entry struct {
	// Name is the slash-separated path relative to the packed directory.
	Name string
	Path string
	Info fs.FileInfo
}

// Result describes a written archive.
type Result struct {
	Path  string
	Files int
	Bytes int64
}

// Pack writes every regular file under dir into an archive at dest. Entries
// are named relative to dir and appear in lexical order. The archive is
// written to a temporary file and renamed into place.
func Pack(dir, dest string, f Format) (*Result, error) {
	entries, err := collect(dir, dest)
	if err != nil {
		return nil, err
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}
	tmpPath := tmpFile.Name()

	var total int64
	switch f {
	case FormatTarXz:
		total, err = writeTarXz(tmpFile, entries)
	case FormatTarGz:
		total, err = writeTarGz(tmpFile, entries)
	case FormatZip:
		total, err = writeZip(tmpFile, entries)
	default:
		err = fmt.Errorf("unsupported archive format: %s", f)
	}
	closeErr := tmpFile.Close()

	if err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close archive: %w", closeErr)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return nil, err
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to chmod archive: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath) // Ignore cleanup errors
		return nil, fmt.Errorf("failed to rename archive: %w", err)
	}

	return &Result{Path: dest, Files: len(entries), Bytes: total}, nil
}

// collect lists the regular files under dir, skipping dest and leftover
// temporary files.
func collect(dir, dest string) ([]Entry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dest, err)
	}

	var entries []Entry
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && strings.HasSuffix(d.Name(), ".tmp") {
			return nil
		}
		if abs, err := filepath.Abs(path); err == nil && abs == absDest {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if err := security.ValidateRelativePath(rel, absDir); err != nil {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		entries = append(entries, Entry{Name: filepath.ToSlash(rel), Path: path, Info: fi})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	return entries, nil
}

// copyFile streams the file at path into w.
func copyFile(w io.Writer, path string) (int64, error) {
	f, err := os.Open(path) // #nosec G304 - Path comes from walking the dataset directory
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(w, f)
}
