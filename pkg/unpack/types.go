package unpack

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
)

// Format identifies an archive or compressed-stream container.
type Format string

const (
	FormatZip    Format = "zip"
	FormatRar    Format = "rar"
	Format7z     Format = "7z"
	FormatTar    Format = "tar"
	FormatGzip   Format = "gzip"
	FormatBzip2  Format = "bzip2"
	FormatXz     Format = "xz"
	FormatLzma   Format = "lzma"
	FormatZstd   Format = "zstd"
	FormatLz4    Format = "lz4"
	FormatBrotli Format = "brotli"
)

var (
	// ErrNotArchive is returned by format detection for anything unsupported.
	ErrNotArchive = errors.New("not a supported archive")
	// ErrContinuationVolume marks a non-first volume of a multi-volume set.
	// It is read through its first volume and never extracted on its own.
	ErrContinuationVolume = errors.New("continuation volume of a multi-volume archive")
	ErrEncrypted          = errors.New("encrypted entry")
	ErrUnsafePath         = errors.New("path outside destination directory")
)

// Options carries per-call settings down to a Handler.
type Options struct {
	// Password is a hint; handlers without encryption support ignore it.
	Password string
}

// Handler extracts the immediate contents of one archive format into dst.
type Handler interface {
	Extract(ctx context.Context, archivePath, dst string, opts Options) error
}

// ExtractionError reports that one archive could not be unpacked.
type ExtractionError struct {
	Archive string
	Format  Format
	Err     error
}

func (e *ExtractionError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("failed to extract %s: %v", filepath.Base(e.Archive), e.Err)
	}
	return fmt.Sprintf("failed to extract %s (%s): %v", filepath.Base(e.Archive), e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
