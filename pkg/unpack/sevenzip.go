package unpack

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"unnest/pkg/logger"

	"github.com/javi11/sevenzip"
)

type SevenZipHandler struct{}

func NewSevenZipHandler() *SevenZipHandler {
	return &SevenZipHandler{}
}

// Extract unpacks a 7z archive. A split set (x.7z.001, x.7z.002, ...) is read
// as one stream starting from its first volume.
func (h *SevenZipHandler) Extract(ctx context.Context, archivePath, dst string, opts Options) error {
	volumes, err := sevenZipVolumes(archivePath)
	if err != nil {
		return err
	}

	var parts []Part
	for _, vol := range volumes {
		f, err := os.Open(vol)
		if err != nil {
			return fmt.Errorf("failed to open 7z volume: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("failed to stat 7z volume: %w", err)
		}
		parts = append(parts, Part{Reader: f, Offset: 0, Size: info.Size()})
	}

	mr := NewConcatenatedReaderAt(parts)

	r, err := sevenzip.NewReaderWithPassword(mr, mr.Size(), opts.Password)
	if err != nil {
		return fmt.Errorf("failed to open 7z archive: %w", err)
	}

	for _, file := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		info := file.FileInfo()
		if info.IsDir() {
			if err := makeDir(dst, file.Name); err != nil {
				logger.Warn("Skipping 7z directory", "archive", archivePath, "entry", file.Name, "err", err)
			}
			continue
		}

		if info.Mode()&fs.ModeSymlink != 0 {
			logger.Warn("Skipping symlink in 7z", "archive", archivePath, "entry", file.Name)
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", file.Name, err)
		}

		err = writeEntry(dst, file.Name, info.Mode(), rc)
		rc.Close()
		if errors.Is(err, ErrUnsafePath) {
			logger.Warn("Skipping file outside destination", "archive", archivePath, "entry", file.Name)
			continue
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// sevenZipVolumes returns the ordered volume list for archivePath: itself for
// a plain .7z, or every consecutive x.7z.NNN sibling for a split set.
func sevenZipVolumes(archivePath string) ([]string, error) {
	if !IsSplit7z(archivePath) {
		return []string{archivePath}, nil
	}

	ext := filepath.Ext(archivePath)
	prefix := strings.TrimSuffix(archivePath, ext)
	matches, err := filepath.Glob(globEscape(prefix) + ".[0-9][0-9][0-9]")
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	var volumes []string
	for i, m := range matches {
		if m != fmt.Sprintf("%s.%03d", prefix, i+1) {
			break
		}
		volumes = append(volumes, m)
	}
	if len(volumes) == 0 {
		return nil, fmt.Errorf("first 7z volume missing for %s", filepath.Base(archivePath))
	}
	return volumes, nil
}

func globEscape(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(s)
}
