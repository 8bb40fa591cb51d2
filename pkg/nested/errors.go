package nested

import (
	"errors"
	"fmt"
	"path/filepath"
)

var (
	// ErrArchiveNotFound is the only failure that aborts a whole call: the
	// root archive does not exist.
	ErrArchiveNotFound = errors.New("archive file not found")
	ErrInvalidDepth    = errors.New("max depth must not be negative")
)

// PlacementError reports a file that could not be moved into the output.
// It is logged and the file dropped; extraction continues.
type PlacementError struct {
	Source string
	Dest   string
	Err    error
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("failed to move %s to %s: %v", filepath.Base(e.Source), e.Dest, e.Err)
}

func (e *PlacementError) Unwrap() error {
	return e.Err
}
