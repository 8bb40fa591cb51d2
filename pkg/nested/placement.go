package nested

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"unnest/pkg/logger"

	"github.com/spf13/afero"
)

type outcome int

const (
	placed outcome = iota
	filtered
	dropped
)

// placer moves files out of scratch areas into the flat output directory.
// Name selection and the move happen under one lock so concurrent callers
// can never pick the same destination.
type placer struct {
	fs            afero.Fs
	shouldExtract func(path string) bool
	onExtract     func(path string)

	mu sync.Mutex
}

// place applies the filter to source, then moves it into destDir under a
// non-colliding name. On success it invokes onExtract with the final path.
// A failed move is logged and reported as dropped.
func (p *placer) place(source, destDir string) (string, outcome) {
	if p.shouldExtract != nil && !p.shouldExtract(source) {
		logger.Debug("Skipping file based on filter", "file", filepath.Base(source))
		return "", filtered
	}

	p.mu.Lock()
	dest, err := p.uniquePath(destDir, filepath.Base(source))
	if err == nil {
		err = p.move(source, dest)
	}
	p.mu.Unlock()

	if err != nil {
		logger.Error("Failed to move file", "file", filepath.Base(source), "err", err)
		return "", dropped
	}

	logger.Debug("Extracted file", "file", filepath.Base(dest))
	if p.onExtract != nil {
		p.onExtract(dest)
	}
	return dest, placed
}

// uniquePath returns destDir/name, or destDir/stem_N.ext with the smallest
// N >= 1 that does not exist yet.
func (p *placer) uniquePath(destDir, name string) (string, error) {
	candidate := filepath.Join(destDir, name)
	exists, err := afero.Exists(p.fs, candidate)
	if err != nil {
		return "", &PlacementError{Source: name, Dest: candidate, Err: err}
	}
	if !exists {
		return candidate, nil
	}

	stem, ext := splitName(name)
	for n := 1; ; n++ {
		candidate = filepath.Join(destDir, stem+"_"+strconv.Itoa(n)+ext)
		exists, err = afero.Exists(p.fs, candidate)
		if err != nil {
			return "", &PlacementError{Source: name, Dest: candidate, Err: err}
		}
		if !exists {
			return candidate, nil
		}
	}
}

// move renames source to dest, falling back to copy and remove when the
// rename fails (for example across devices).
func (p *placer) move(source, dest string) error {
	renameErr := p.fs.Rename(source, dest)
	if renameErr == nil {
		return nil
	}

	if err := p.copyFile(source, dest); err != nil {
		return &PlacementError{Source: source, Dest: dest, Err: errors.Join(renameErr, err)}
	}
	if err := p.fs.Remove(source); err != nil {
		logger.Debug("Failed to remove source after copy", "file", filepath.Base(source), "err", err)
	}
	return nil
}

func (p *placer) copyFile(source, dest string) (err error) {
	in, err := p.fs.Open(source)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	mode := os.FileMode(0644)
	if info, statErr := in.Stat(); statErr == nil {
		mode = info.Mode().Perm()
	}

	out, err := p.fs.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close destination: %w", cerr)
		}
		if err != nil {
			p.fs.Remove(dest)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy data: %w", err)
	}
	return nil
}

// splitName splits a base name at its final extension. A leading dot does
// not start an extension, so ".env" has none.
func splitName(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	if ext == "." || ext == name {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}
