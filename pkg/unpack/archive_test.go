package unpack

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"unnest/pkg/archivetest"
	"unnest/pkg/logger"
)

// listFiles returns every regular file under root, relative and slash separated.
func listFiles(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, _ := filepath.Rel(root, path)
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			out[filepath.ToSlash(rel)] = string(data)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to walk %s: %v", root, err)
	}
	return out
}

func TestExtractArchiveFormats(t *testing.T) {
	logger.Init("DEBUG")
	src := t.TempDir()
	members := []archivetest.File{
		archivetest.F("readme.txt", "hello"),
		archivetest.F("docs/guide.md", "# guide"),
	}
	tarPayload := archivetest.TarBytes(t, members...)

	tests := []struct {
		name    string
		archive string
		want    map[string]string
	}{
		{
			name:    "zip",
			archive: archivetest.Zip(t, filepath.Join(src, "a.zip"), members...),
			want:    map[string]string{"readme.txt": "hello", "docs/guide.md": "# guide"},
		},
		{
			name:    "tar",
			archive: archivetest.Tar(t, filepath.Join(src, "a.tar"), members...),
			want:    map[string]string{"readme.txt": "hello", "docs/guide.md": "# guide"},
		},
		{
			name:    "tar.gz",
			archive: archivetest.TarGz(t, filepath.Join(src, "a.tar.gz"), members...),
			want:    map[string]string{"readme.txt": "hello", "docs/guide.md": "# guide"},
		},
		{
			name:    "tar.xz",
			archive: archivetest.Compressed(t, filepath.Join(src, "a.tar.xz"), "xz", tarPayload),
			want:    map[string]string{"readme.txt": "hello", "docs/guide.md": "# guide"},
		},
		{
			name:    "tar.zst",
			archive: archivetest.Compressed(t, filepath.Join(src, "a.tar.zst"), "zstd", tarPayload),
			want:    map[string]string{"readme.txt": "hello", "docs/guide.md": "# guide"},
		},
		{
			name:    "tar.lz4",
			archive: archivetest.Compressed(t, filepath.Join(src, "a.tar.lz4"), "lz4", tarPayload),
			want:    map[string]string{"readme.txt": "hello", "docs/guide.md": "# guide"},
		},
		{
			name:    "single gzip keeps stored name",
			archive: archivetest.Gzip(t, filepath.Join(src, "renamed.gz"), "original.csv", []byte("a,b")),
			want:    map[string]string{"original.csv": "a,b"},
		},
		{
			name:    "single gzip without stored name",
			archive: archivetest.Gzip(t, filepath.Join(src, "report.txt.gz"), "", []byte("report")),
			want:    map[string]string{"report.txt": "report"},
		},
		{
			name:    "single xz",
			archive: archivetest.Compressed(t, filepath.Join(src, "dump.sql.xz"), "xz", []byte("select 1;")),
			want:    map[string]string{"dump.sql": "select 1;"},
		},
		{
			name:    "single lzma",
			archive: archivetest.Compressed(t, filepath.Join(src, "blob.lzma"), "lzma", []byte("lzma body")),
			want:    map[string]string{"blob": "lzma body"},
		},
		{
			name:    "single brotli",
			archive: archivetest.Compressed(t, filepath.Join(src, "page.html.br"), "brotli", []byte("<html></html>")),
			want:    map[string]string{"page.html": "<html></html>"},
		},
	}

	svc := NewService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := filepath.Join(t.TempDir(), "out")
			if err := svc.ExtractArchive(context.Background(), tt.archive, dst, ""); err != nil {
				t.Fatalf("ExtractArchive failed: %v", err)
			}

			got := listFiles(t, dst)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d files, got %v", len(tt.want), got)
			}
			for name, content := range tt.want {
				if got[name] != content {
					t.Errorf("file %s: expected %q, got %q", name, content, got[name])
				}
			}
		})
	}
}

func TestExtractArchiveFailures(t *testing.T) {
	logger.Init("DEBUG")
	src := t.TempDir()

	tests := []struct {
		name    string
		archive string
		format  Format
		wantErr error
	}{
		{"corrupt zip", archivetest.Corrupt(t, filepath.Join(src, "bad.zip"), []byte("PK\x03\x04")), FormatZip, nil},
		{"corrupt rar", archivetest.Corrupt(t, filepath.Join(src, "bad.rar"), []byte("Rar!\x1a\x07\x01\x00")), FormatRar, nil},
		{"corrupt 7z", archivetest.Corrupt(t, filepath.Join(src, "bad.7z"), []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C}), Format7z, nil},
		{"corrupt gzip", archivetest.Corrupt(t, filepath.Join(src, "bad.gz"), []byte{0x1F, 0x8B}), FormatGzip, nil},
		{"encrypted zip entry", archivetest.ZipWithFlags(t, filepath.Join(src, "locked.zip"), zipFlagEncrypted, archivetest.F("secret.txt", "x")), FormatZip, ErrEncrypted},
		{"not an archive", archivetest.Plain(t, filepath.Join(src, "plain.txt"), "text"), "", ErrNotArchive},
		{"continuation volume", archivetest.Plain(t, filepath.Join(src, "set.7z.002"), "tail"), "", ErrContinuationVolume},
	}

	svc := NewService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ExtractArchive(context.Background(), tt.archive, t.TempDir(), "")
			var extractErr *ExtractionError
			if !errors.As(err, &extractErr) {
				t.Fatalf("expected *ExtractionError, got %v", err)
			}
			if extractErr.Format != tt.format {
				t.Errorf("expected format %q, got %q", tt.format, extractErr.Format)
			}
			if extractErr.Archive != tt.archive {
				t.Errorf("expected archive %s, got %s", tt.archive, extractErr.Archive)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v in chain, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestExtractArchiveSkipsUnsafeEntries(t *testing.T) {
	logger.Init("DEBUG")
	src := t.TempDir()
	members := []archivetest.File{
		archivetest.F("../escape.txt", "evil"),
		archivetest.F("safe.txt", "ok"),
	}

	for _, archive := range []string{
		archivetest.Zip(t, filepath.Join(src, "slip.zip"), members...),
		archivetest.Tar(t, filepath.Join(src, "slip.tar"), members...),
	} {
		t.Run(filepath.Base(archive), func(t *testing.T) {
			root := t.TempDir()
			dst := filepath.Join(root, "out")
			if err := NewService().ExtractArchive(context.Background(), archive, dst, ""); err != nil {
				t.Fatalf("ExtractArchive failed: %v", err)
			}

			if _, err := os.Stat(filepath.Join(root, "escape.txt")); !os.IsNotExist(err) {
				t.Error("entry escaped the destination directory")
			}
			got := listFiles(t, dst)
			if len(got) != 1 || got["safe.txt"] != "ok" {
				t.Errorf("expected only safe.txt, got %v", got)
			}
		})
	}
}

func TestExtractArchiveHonoursCancellation(t *testing.T) {
	archive := archivetest.Zip(t, filepath.Join(t.TempDir(), "a.zip"), archivetest.F("a.txt", "a"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewService().ExtractArchive(ctx, archive, t.TempDir(), "")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestServiceFormats(t *testing.T) {
	formats := NewService().Formats()
	if !sort.SliceIsSorted(formats, func(i, j int) bool { return formats[i] < formats[j] }) {
		t.Errorf("formats not sorted: %v", formats)
	}
	if len(formats) != 11 {
		t.Errorf("expected 11 formats, got %d: %v", len(formats), formats)
	}
}

func TestValidateExtractPath(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out")

	tests := []struct {
		entry string
		ok    bool
	}{
		{"a.txt", true},
		{"dir/a.txt", true},
		{"./dir/../a.txt", true},
		{"../a.txt", false},
		{"dir/../../a.txt", false},
		{`..\a.txt`, false},
		{"/etc/passwd", false},
		{".", false},
		{"", false},
	}

	for _, tt := range tests {
		path, err := ValidateExtractPath(dst, tt.entry)
		if tt.ok && err != nil {
			t.Errorf("%q: unexpected error %v", tt.entry, err)
		}
		if !tt.ok && !errors.Is(err, ErrUnsafePath) {
			t.Errorf("%q: expected ErrUnsafePath, got path %s err %v", tt.entry, path, err)
		}
	}
}
