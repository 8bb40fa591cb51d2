package nested

import (
	"context"

	"unnest/pkg/unpack"

	"github.com/spf13/afero"
)

const (
	DefaultMaxDepth  = 10
	DefaultCacheSize = 1024

	// tempOutputPrefix names the output directory created when none is given.
	tempOutputPrefix = "archive_extract_"
)

// Unpacker is the extraction collaborator. *unpack.Service implements it.
type Unpacker interface {
	ExtractArchive(ctx context.Context, archivePath, outputDir, password string) error
	DetectFormat(path string) (unpack.Format, error)
}

type settings struct {
	outputDir     string
	password      string
	scratchDir    string
	maxDepth      int
	flatten       bool
	shouldExtract func(path string) bool
	onExtract     func(path string)
	cacheSize     int
	fs            afero.Fs
	unpacker      Unpacker
}

// Option configures an Extractor.
type Option func(*settings)

// WithOutputDir sets the output root. It is created with its parents when
// missing. Without it a temporary directory is created per call.
func WithOutputDir(dir string) Option {
	return func(s *settings) { s.outputDir = dir }
}

// WithPassword passes a password hint to formats that support encryption.
func WithPassword(password string) Option {
	return func(s *settings) { s.password = password }
}

// WithMaxDepth bounds how many archive levels are unpacked. The root archive
// is always unpacked, so 0 and 1 both stop at its immediate contents.
func WithMaxDepth(depth int) Option {
	return func(s *settings) { s.maxDepth = depth }
}

// WithFlatten selects flatten (true, default) or preserve (false) layout.
func WithFlatten(flatten bool) Option {
	return func(s *settings) { s.flatten = flatten }
}

// WithFilter sets the shouldExtract predicate. Files it rejects are not kept.
func WithFilter(shouldExtract func(path string) bool) Option {
	return func(s *settings) { s.shouldExtract = shouldExtract }
}

// WithCallback sets the onExtract hook, called once per kept file.
func WithCallback(onExtract func(path string)) Option {
	return func(s *settings) { s.onExtract = onExtract }
}

// WithScratchDir sets the parent directory of scratch areas and of the
// temporary output directory. Defaults to the system temp dir.
func WithScratchDir(dir string) Option {
	return func(s *settings) { s.scratchDir = dir }
}

// WithClassifyCache sets the classification cache size; 0 disables it.
func WithClassifyCache(size int) Option {
	return func(s *settings) { s.cacheSize = size }
}

// WithFs replaces the filesystem used for scratch areas, enumeration and
// placement. Only OS-backed filesystems are supported, such as afero.OsFs or
// a wrapper that delegates to it: the default Unpacker detects and unpacks
// through package os, so it must see the same files. A non-OS Fs needs a
// matching Unpacker passed through WithUnpacker.
func WithFs(fs afero.Fs) Option {
	return func(s *settings) { s.fs = fs }
}

// WithUnpacker replaces the extraction collaborator.
func WithUnpacker(u Unpacker) Option {
	return func(s *settings) { s.unpacker = u }
}

func defaultSettings() settings {
	return settings{
		maxDepth:  DefaultMaxDepth,
		flatten:   true,
		cacheSize: DefaultCacheSize,
	}
}
