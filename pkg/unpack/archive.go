package unpack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"unnest/pkg/logger"
)

// Service is the extraction collaborator: it sniffs a file's format and
// hands it to the matching Handler.
type Service struct {
	handlers map[Format]Handler
}

func NewService() *Service {
	return &Service{
		handlers: map[Format]Handler{
			FormatZip:    NewZipHandler(),
			FormatRar:    NewRarHandler(),
			Format7z:     NewSevenZipHandler(),
			FormatTar:    NewTarHandler(),
			FormatGzip:   NewStreamHandler(FormatGzip),
			FormatBzip2:  NewStreamHandler(FormatBzip2),
			FormatXz:     NewStreamHandler(FormatXz),
			FormatLzma:   NewStreamHandler(FormatLzma),
			FormatZstd:   NewStreamHandler(FormatZstd),
			FormatLz4:    NewStreamHandler(FormatLz4),
			FormatBrotli: NewStreamHandler(FormatBrotli),
		},
	}
}

// Formats lists the supported formats in a stable order.
func (s *Service) Formats() []Format {
	formats := make([]Format, 0, len(s.handlers))
	for f := range s.handlers {
		formats = append(formats, f)
	}
	slices.Sort(formats)
	return formats
}

// DetectFormat returns the format of path, or ErrNotArchive /
// ErrContinuationVolume / an I/O error.
func (s *Service) DetectFormat(path string) (Format, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return "", err
	}
	if _, ok := s.handlers[format]; !ok {
		return "", ErrNotArchive
	}
	return format, nil
}

// ExtractArchive unpacks the immediate contents of archivePath into
// outputDir, creating it if needed. Every failure is an *ExtractionError.
func (s *Service) ExtractArchive(ctx context.Context, archivePath, outputDir, password string) error {
	format, err := s.DetectFormat(archivePath)
	if err != nil {
		return &ExtractionError{Archive: archivePath, Err: err}
	}

	handler := s.handlers[format]

	if err := os.MkdirAll(outputDir, dirPerm); err != nil {
		return &ExtractionError{Archive: archivePath, Format: format, Err: fmt.Errorf("failed to create destination directory: %w", err)}
	}

	logger.Debug("Extracting archive", "archive", filepath.Base(archivePath), "format", format, "dst", outputDir)

	if err := handler.Extract(ctx, archivePath, outputDir, Options{Password: password}); err != nil {
		return &ExtractionError{Archive: archivePath, Format: format, Err: err}
	}
	return nil
}
