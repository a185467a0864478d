package compression

import (
	"archive/zip"
	"fmt"
	"io"
)

// writeZip writes entries as a deflate-compressed zip archive.
func writeZip(w io.Writer, entries []Entry) (int64, error) {
	zw := zip.NewWriter(w)
	var total int64

	for _, e := range entries {
		header, err := zip.FileInfoHeader(e.Info)
		if err != nil {
			return 0, fmt.Errorf("failed to create zip header for %s: %w", e.Name, err)
		}
		header.Name = e.Name
		header.Method = zip.Deflate

		fw, err := zw.CreateHeader(header)
		if err != nil {
			return 0, fmt.Errorf("failed to write zip header for %s: %w", e.Name, err)
		}
		n, err := copyFile(fw, e.Path)
		if err != nil {
			return 0, fmt.Errorf("failed to add %s: %w", e.Name, err)
		}
		total += n
	}

	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("failed to finish zip archive: %w", err)
	}
	return total, nil
}
