package dataset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jmylchreest/ocrsynth/internal/security"
)

func TestParseCorpus(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []Line
	}{
		{
			name: "trims and skips blanks",
			data: "  first  \n\n\t\nsecond\r\nthird",
			want: []Line{{1, "first"}, {4, "second"}, {5, "third"}},
		},
		{
			name: "byte order mark",
			data: "\ufeffหนึ่ง\nสอง\n",
			want: []Line{{1, "หนึ่ง"}, {2, "สอง"}},
		},
		{
			name: "inner whitespace kept",
			data: "a  b\tc\n",
			want: []Line{{1, "a  b\tc"}},
		},
		{
			name: "empty",
			data: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCorpus([]byte(tt.data))
			if err != nil {
				t.Fatalf("ParseCorpus() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseCorpus() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseCorpusInvalidUTF8(t *testing.T) {
	_, err := ParseCorpus([]byte("ok\n\xff\xfe\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("ParseCorpus() error = %v, want line 2 error", err)
	}
}

func TestReadCorpusKeepsRawBytes(t *testing.T) {
	data := []byte("\ufeffone\ntwo\n")
	c, err := ReadCorpus(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCorpus() error = %v", err)
	}
	if !bytes.Equal(c.Data, data) {
		t.Error("ReadCorpus() altered the raw data")
	}
	if len(c.Lines) != 2 {
		t.Errorf("len(Lines) = %d, want 2", len(c.Lines))
	}
}

func TestReadCorpusSizeLimit(t *testing.T) {
	big := bytes.NewReader(make([]byte, MaxCorpusBytes+1))
	_, err := ReadCorpus(big)
	if !errors.Is(err, security.ErrSizeLimit) {
		t.Errorf("ReadCorpus() error = %v, want ErrSizeLimit", err)
	}
}

func TestLoadCorpus(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.txt")
	if err := os.WriteFile(path, []byte("alpha\nbeta\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := LoadCorpus(path)
	if err != nil {
		t.Fatalf("LoadCorpus() error = %v", err)
	}
	if len(c.Lines) != 2 {
		t.Errorf("len(Lines) = %d, want 2", len(c.Lines))
	}

	_, err = LoadCorpus(filepath.Join(dir, "missing.txt"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("LoadCorpus(missing) error = %v, want not found", err)
	}
}
