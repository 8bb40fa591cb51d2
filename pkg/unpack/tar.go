package unpack

import (
	"archive/tar"
	"bufio"
	"compress/bzip2"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"unnest/pkg/logger"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

type TarHandler struct{}

func NewTarHandler() *TarHandler {
	return &TarHandler{}
}

func (h *TarHandler) Extract(ctx context.Context, archivePath, dst string, opts Options) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open tar file: %w", err)
	}
	defer file.Close()

	return extractTar(ctx, archivePath, file, dst)
}

func extractTar(ctx context.Context, archivePath string, r io.Reader, dst string) error {
	tarReader := tar.NewReader(r)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read tar header: %w", err)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := makeDir(dst, header.Name); err != nil {
				logger.Warn("Skipping tar directory", "archive", archivePath, "entry", header.Name, "err", err)
			}

		case tar.TypeReg:
			err := writeEntry(dst, header.Name, header.FileInfo().Mode(), tarReader)
			if errors.Is(err, ErrUnsafePath) {
				logger.Warn("Skipping file outside destination", "archive", archivePath, "entry", header.Name)
				continue
			}
			if err != nil {
				return err
			}

		case tar.TypeSymlink, tar.TypeLink:
			logger.Warn("Skipping link in tar", "archive", archivePath, "entry", header.Name)

		default:
			logger.Debug("Skipping special tar entry", "archive", archivePath, "entry", header.Name, "type", header.Typeflag)
		}
	}

	return nil
}

// StreamHandler unpacks a single compressed stream. A tar payload is
// untarred, anything else becomes one file named after the archive.
type StreamHandler struct {
	format Format
}

func NewStreamHandler(format Format) *StreamHandler {
	return &StreamHandler{format: format}
}

func (h *StreamHandler) Extract(ctx context.Context, archivePath, dst string, opts Options) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open %s stream: %w", h.format, err)
	}
	defer file.Close()

	rc, storedName, err := openCodec(h.format, file)
	if err != nil {
		return fmt.Errorf("failed to create %s reader: %w", h.format, err)
	}
	defer rc.Close()

	br := bufio.NewReaderSize(rc, sniffLen)
	peek, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to decode %s stream: %w", h.format, err)
	}

	if format, ok := MatchSignature(peek); ok && format == FormatTar {
		return extractTar(ctx, archivePath, br, dst)
	}

	name := filepath.Base(storedName)
	if storedName == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		name = DecompressedName(archivePath)
	}
	return writeEntry(dst, name, filePerm, &ctxReader{ctx: ctx, r: br})
}

// openCodec wraps r in the decompressor for format. The returned name is the
// original file name stored in the stream header, when the codec keeps one.
func openCodec(format Format, r io.Reader) (io.ReadCloser, string, error) {
	switch format {
	case FormatGzip:
		zr, err := pgzip.NewReader(r)
		if err != nil {
			return nil, "", err
		}
		return zr, zr.Name, nil
	case FormatBzip2:
		return io.NopCloser(bzip2.NewReader(r)), "", nil
	case FormatXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, "", err
		}
		return io.NopCloser(xr), "", nil
	case FormatLzma:
		lr, err := lzma.NewReader(r)
		if err != nil {
			return nil, "", err
		}
		return io.NopCloser(lr), "", nil
	case FormatZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, "", err
		}
		return zr.IOReadCloser(), "", nil
	case FormatLz4:
		return io.NopCloser(lz4.NewReader(r)), "", nil
	case FormatBrotli:
		return io.NopCloser(brotli.NewReader(r)), "", nil
	}
	return nil, "", fmt.Errorf("%w: %s", ErrNotArchive, format)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
