// Package archivetest builds small archive fixtures on disk for tests.
package archivetest

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// File is one archive member. Names use forward slashes.
type File struct {
	Name string
	Data []byte
}

// F is shorthand for a text member.
func F(name, data string) File {
	return File{Name: name, Data: []byte(data)}
}

// FromDisk reads path into a member named name, for nesting a built archive.
func FromDisk(t testing.TB, name, path string) File {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", path, err)
	}
	return File{Name: name, Data: data}
}

// Zip writes a deflate zip at path and returns path.
func Zip(t testing.TB, path string, files ...File) string {
	t.Helper()
	return ZipWithFlags(t, path, 0, files...)
}

// ZipWithFlags is Zip with extra general purpose flag bits on every entry.
func ZipWithFlags(t testing.TB, path string, flags uint16, files ...File) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate, Flags: flags})
		if err != nil {
			t.Fatalf("failed to add %s to zip: %v", f.Name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			t.Fatalf("failed to write %s to zip: %v", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return write(t, path, buf.Bytes())
}

// TarBytes returns an uncompressed tar stream holding files.
func TarBytes(t testing.TB, files ...File) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, f := range files {
		hdr := &tar.Header{Name: f.Name, Mode: 0644, Size: int64(len(f.Data)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("failed to write tar header %s: %v", f.Name, err)
		}
		if _, err := tw.Write(f.Data); err != nil {
			t.Fatalf("failed to write tar entry %s: %v", f.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("failed to close tar: %v", err)
	}
	return buf.Bytes()
}

// Tar writes an uncompressed tar at path.
func Tar(t testing.TB, path string, files ...File) string {
	t.Helper()
	return write(t, path, TarBytes(t, files...))
}

// TarGz writes a gzip-compressed tar at path.
func TarGz(t testing.TB, path string, files ...File) string {
	t.Helper()
	return Compressed(t, path, "gzip", TarBytes(t, files...))
}

// Gzip writes payload as a gzip stream whose header records storedName.
func Gzip(t testing.TB, path, storedName string, payload []byte) string {
	t.Helper()
	var buf bytes.Buffer
	zw := pgzip.NewWriter(&buf)
	zw.Name = storedName
	if _, err := zw.Write(payload); err != nil {
		t.Fatalf("failed to write gzip: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close gzip: %v", err)
	}
	return write(t, path, buf.Bytes())
}

// Compressed writes payload through codec: gzip, xz, lzma, zstd, lz4 or brotli.
func Compressed(t testing.TB, path, codec string, payload []byte) string {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error

	switch codec {
	case "gzip":
		w = pgzip.NewWriter(&buf)
	case "xz":
		w, err = xz.NewWriter(&buf)
	case "lzma":
		w, err = lzma.NewWriter(&buf)
	case "zstd":
		w, err = zstd.NewWriter(&buf)
	case "lz4":
		w = lz4.NewWriter(&buf)
	case "brotli":
		w = brotli.NewWriter(&buf)
	default:
		t.Fatalf("unknown codec %s", codec)
	}
	if err != nil {
		t.Fatalf("failed to create %s writer: %v", codec, err)
	}

	if _, err := w.Write(payload); err != nil {
		t.Fatalf("failed to write %s: %v", codec, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close %s: %v", codec, err)
	}
	return write(t, path, buf.Bytes())
}

// Corrupt writes magic followed by junk: it sniffs as an archive but cannot
// be unpacked.
func Corrupt(t testing.TB, path string, magic []byte) string {
	t.Helper()
	data := append(append([]byte{}, magic...), bytes.Repeat([]byte{0xEE}, 64)...)
	return write(t, path, data)
}

// Plain writes an ordinary file.
func Plain(t testing.TB, path, content string) string {
	t.Helper()
	return write(t, path, []byte(content))
}

func write(t testing.TB, path string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create fixture dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", path, err)
	}
	return path
}
