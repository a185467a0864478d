package compression

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// writeTarXz writes entries as a tar stream compressed with xz.
func writeTarXz(w io.Writer, entries []Entry) (int64, error) {
	xzw, err := xz.NewWriter(w)
	if err != nil {
		return 0, fmt.Errorf("failed to create xz writer: %w", err)
	}
	n, err := writeTar(xzw, entries)
	if err != nil {
		_ = xzw.Close()
		return 0, err
	}
	if err := xzw.Close(); err != nil {
		return 0, fmt.Errorf("failed to finish xz stream: %w", err)
	}
	return n, nil
}

// writeTarGz writes entries as a tar stream compressed with gzip.
func writeTarGz(w io.Writer, entries []Entry) (int64, error) {
	gzw := gzip.NewWriter(w)
	n, err := writeTar(gzw, entries)
	if err != nil {
		_ = gzw.Close()
		return 0, err
	}
	if err := gzw.Close(); err != nil {
		return 0, fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return n, nil
}

// writeTar writes entries as an uncompressed tar stream.
func writeTar(w io.Writer, entries []Entry) (int64, error) {
	tw := tar.NewWriter(w)
	var total int64

	for _, e := range entries {
		header, err := tar.FileInfoHeader(e.Info, "")
		if err != nil {
			return 0, fmt.Errorf("failed to create tar header for %s: %w", e.Name, err)
		}
		header.Name = e.Name
		header.Uid, header.Gid = 0, 0
		header.Uname, header.Gname = "", ""

		if err := tw.WriteHeader(header); err != nil {
			return 0, fmt.Errorf("failed to write tar header for %s: %w", e.Name, err)
		}
		n, err := copyFile(tw, e.Path)
		if err != nil {
			return 0, fmt.Errorf("failed to add %s: %w", e.Name, err)
		}
		total += n
	}

	if err := tw.Close(); err != nil {
		return 0, fmt.Errorf("failed to finish tar stream: %w", err)
	}
	return total, nil
}
