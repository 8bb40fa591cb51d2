package nested

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"unnest/pkg/logger"
	"unnest/pkg/paths"
	"unnest/pkg/unpack"

	"github.com/spf13/afero"
)

// Stats counts what happened during one Extract call.
type Stats struct {
	ArchivesExtracted int `json:"archives_extracted"`
	ArchivesFailed    int `json:"archives_failed"`
	FilesKept         int `json:"files_kept"`
	FilesFiltered     int `json:"files_filtered"`
	FilesDropped      int `json:"files_dropped"`
}

// Result is the outcome of one Extract call. Files lists every kept file in
// processing order; each path exists under OutputDir when Extract returns.
type Result struct {
	OutputDir string   `json:"output_dir"`
	Files     []string `json:"files"`
	Stats     Stats    `json:"stats"`
}

// Extractor unpacks an archive and every archive found inside it, up to a
// depth bound. Its settings are fixed at construction; one Extractor may
// serve many calls.
type Extractor struct {
	cfg        settings
	fs         afero.Fs
	unpacker   Unpacker
	classifier *Classifier
}

func New(opts ...Option) *Extractor {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}

	fs := cfg.fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	unpacker := cfg.unpacker
	if unpacker == nil {
		unpacker = unpack.NewService()
	}

	return &Extractor{
		cfg:        cfg,
		fs:         fs,
		unpacker:   unpacker,
		classifier: NewClassifier(fs, unpacker, cfg.cacheSize),
	}
}

// ExtractNestedArchives unpacks archivePath recursively and returns the kept
// file paths. See New for the options.
func ExtractNestedArchives(ctx context.Context, archivePath string, opts ...Option) ([]string, error) {
	res, err := New(opts...).Extract(ctx, archivePath)
	if res == nil {
		return nil, err
	}
	return res.Files, err
}

// Extract runs one extraction. Only a missing root archive, a negative depth
// or a failure to prepare the output directory is returned as an error.
// Per-archive and per-file failures are logged and counted in Stats. When
// ctx is cancelled the partial result is returned together with ctx.Err().
func (e *Extractor) Extract(ctx context.Context, archivePath string) (*Result, error) {
	if e.cfg.maxDepth < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDepth, e.cfg.maxDepth)
	}

	root, err := filepath.Abs(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve archive path: %w", err)
	}
	info, err := e.fs.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, archivePath)
		}
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrArchiveNotFound, archivePath)
	}

	outputDir, err := e.prepareOutput()
	if err != nil {
		return nil, err
	}

	logger.Info("Starting nested extraction",
		"archive", filepath.Base(root),
		"output", outputDir,
		"max_depth", e.cfg.maxDepth,
		"flatten", e.cfg.flatten)
	if e.cfg.password != "" {
		logger.Warn("Password provided; only RAR and 7z archives use it")
	}

	r := &run{
		Extractor: e,
		outputDir: outputDir,
		limit:     max(e.cfg.maxDepth, 1),
		placer: &placer{
			fs:            e.fs,
			shouldExtract: e.cfg.shouldExtract,
			onExtract:     e.cfg.onExtract,
		},
		result: &Result{OutputDir: outputDir, Files: []string{}},
	}

	if e.cfg.flatten {
		err = r.flatten(ctx, root)
	} else {
		err = r.preserve(ctx, root)
	}

	s := r.result.Stats
	logger.Info("Nested extraction finished",
		"archive", filepath.Base(root),
		"files", s.FilesKept,
		"archives", s.ArchivesExtracted,
		"failed", s.ArchivesFailed,
		"filtered", s.FilesFiltered,
		"dropped", s.FilesDropped)

	return r.result, err
}

func (e *Extractor) prepareOutput() (string, error) {
	if e.cfg.outputDir == "" {
		dir, err := afero.TempDir(e.fs, paths.GetScratchRoot(e.cfg.scratchDir), tempOutputPrefix)
		if err != nil {
			return "", fmt.Errorf("failed to create temporary output directory: %w", err)
		}
		logger.Info("Created temporary output directory", "dir", dir)
		return dir, nil
	}

	dir, err := filepath.Abs(e.cfg.outputDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve output directory: %w", err)
	}
	if err := e.fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return dir, nil
}
