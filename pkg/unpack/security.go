package unpack

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	dirPerm  = 0755
	filePerm = 0644
)

// ValidateExtractPath resolves an archive entry name under destPath and
// rejects absolute names and anything that climbs out of it.
func ValidateExtractPath(destPath, entryName string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.ReplaceAll(entryName, `\`, "/")))
	if clean == "." || clean == "" {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, entryName)
	}
	if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, entryName)
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, entryName)
	}

	target := filepath.Join(destPath, clean)
	rel, err := filepath.Rel(destPath, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, entryName)
	}
	return target, nil
}

func makeDir(dst, entryName string) error {
	path, err := ValidateExtractPath(dst, entryName)
	if err != nil {
		return err
	}
	return os.MkdirAll(path, dirPerm)
}

// writeEntry copies r into a regular file for entryName under dst. The owner
// always keeps read/write access so the file can later be moved or removed.
func writeEntry(dst, entryName string, mode fs.FileMode, r io.Reader) error {
	path, err := ValidateExtractPath(dst, entryName)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", entryName, err)
	}

	perm := mode.Perm() | 0600
	if mode.Perm() == 0 {
		perm = filePerm
	}

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", entryName, err)
	}

	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("failed to extract file %s: %w", entryName, err)
	}
	return out.Close()
}
