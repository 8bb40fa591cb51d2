package nested

import (
	"context"
	"os"
	"path/filepath"

	"unnest/pkg/logger"
	"unnest/pkg/paths"

	"github.com/spf13/afero"
)

// frame is one unpacked archive on the work stack.
type frame struct {
	archive string
	depth   int
	dir     string
	scratch bool
	entries []string
	next    int
}

// run holds the state of a single Extract call.
type run struct {
	*Extractor
	outputDir string
	limit     int
	placer    *placer
	result    *Result
}

// flatten unpacks every archive level into its own scratch area and moves
// the leaf files into outputDir. Scratch areas are removed when their frame
// is done and, on any exit path, by the deferred sweep.
func (r *run) flatten(ctx context.Context, root string) error {
	var stack []*frame
	defer func() {
		for i := len(stack) - 1; i >= 0; i-- {
			r.release(stack[i])
		}
	}()

	if f := r.open(ctx, root, "", 0); f != nil {
		stack = append(stack, f)
	}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		top := stack[len(stack)-1]
		if top.next >= len(top.entries) {
			r.release(top)
			stack = stack[:len(stack)-1]
			continue
		}
		entry := top.entries[top.next]
		top.next++

		if r.classifier.IsArchive(entry) {
			if top.depth+1 < r.limit {
				logger.Info("Found nested archive", "archive", filepath.Base(entry), "depth", top.depth+1)
				if f := r.open(ctx, entry, "", top.depth+1); f != nil {
					stack = append(stack, f)
				}
				continue
			}
			logger.Debug("Depth limit reached, keeping archive as file", "archive", filepath.Base(entry), "depth", top.depth+1)
		}

		dest, out := r.placer.place(entry, r.outputDir)
		r.record(dest, out)
	}
	return ctx.Err()
}

// preserve unpacks each archive next to itself into a directory named after
// its stem. Every enumerated file is kept in place, archives included.
func (r *run) preserve(ctx context.Context, root string) error {
	var stack []*frame

	if f := r.open(ctx, root, r.outputDir, 0); f != nil {
		stack = append(stack, f)
	}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		top := stack[len(stack)-1]
		if top.next >= len(top.entries) {
			stack = stack[:len(stack)-1]
			continue
		}
		entry := top.entries[top.next]
		top.next++

		if r.cfg.shouldExtract != nil && !r.cfg.shouldExtract(entry) {
			logger.Debug("Skipping file based on filter", "file", filepath.Base(entry))
			r.record("", filtered)
			continue
		}

		r.record(entry, placed)
		logger.Debug("Extracted file", "file", r.relative(entry))
		if r.cfg.onExtract != nil {
			r.cfg.onExtract(entry)
		}

		if top.depth+1 < r.limit && r.classifier.IsArchive(entry) {
			logger.Info("Found nested archive", "archive", filepath.Base(entry), "depth", top.depth+1)
			if f := r.open(ctx, entry, filepath.Dir(entry), top.depth+1); f != nil {
				stack = append(stack, f)
			}
		}
	}
	return ctx.Err()
}

// open unpacks archive and snapshots its files. With an empty target the
// archive goes into a fresh scratch area, otherwise into target/<stem>.
// Failures are logged and counted; nil means there is nothing to descend into.
func (r *run) open(ctx context.Context, archive, target string, depth int) (f *frame) {
	if depth >= r.limit {
		logger.Warn("Max recursion depth reached, skipping", "archive", filepath.Base(archive), "depth", depth)
		return nil
	}

	stem, _ := splitName(filepath.Base(archive))
	f = &frame{archive: archive, depth: depth}
	if target == "" {
		dir, err := afero.TempDir(r.fs, paths.GetScratchRoot(r.cfg.scratchDir), stem+"_")
		if err != nil {
			logger.Error("Failed to create scratch directory", "archive", filepath.Base(archive), "err", err)
			r.result.Stats.ArchivesFailed++
			return nil
		}
		f.dir, f.scratch = dir, true
	} else {
		f.dir = filepath.Join(target, stem)
	}

	ok := false
	defer func() {
		if !ok {
			r.release(f)
			f = nil
		}
	}()

	logger.Info("Extracting archive", "archive", filepath.Base(archive), "depth", depth)
	if err := r.unpacker.ExtractArchive(ctx, archive, f.dir, r.cfg.password); err != nil {
		if ctx.Err() == nil {
			logger.Error("Failed to extract archive", "archive", filepath.Base(archive), "depth", depth, "err", err)
			r.result.Stats.ArchivesFailed++
		}
		return nil
	}

	entries, err := r.listFiles(f.dir)
	if err != nil {
		logger.Error("Failed to list extracted files", "archive", filepath.Base(archive), "err", err)
		r.result.Stats.ArchivesFailed++
		return nil
	}

	r.result.Stats.ArchivesExtracted++
	f.entries = entries
	ok = true
	return f
}

// release removes a frame's scratch area. Preserve-mode directories are
// part of the output and stay.
func (r *run) release(f *frame) {
	if f == nil || !f.scratch || f.dir == "" {
		return
	}
	if err := r.fs.RemoveAll(f.dir); err != nil {
		logger.Warn("Failed to remove scratch directory", "dir", f.dir, "err", err)
	}
	f.dir = ""
}

// listFiles returns the regular files under dir in lexical walk order, with
// continuation volumes moved after everything else so a set's first volume
// is always handled while its siblings are still in place.
func (r *run) listFiles(dir string) ([]string, error) {
	var files, volumes []string
	err := afero.Walk(r.fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			logger.Warn("Failed to read extracted path", "path", path, "err", err)
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if r.classifier.Classify(path) == KindVolume {
			volumes = append(volumes, path)
		} else {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return append(files, volumes...), nil
}

func (r *run) record(path string, out outcome) {
	switch out {
	case placed:
		r.result.Files = append(r.result.Files, path)
		r.result.Stats.FilesKept++
	case filtered:
		r.result.Stats.FilesFiltered++
	case dropped:
		r.result.Stats.FilesDropped++
	}
}

func (r *run) relative(path string) string {
	if rel, err := filepath.Rel(r.outputDir, path); err == nil {
		return rel
	}
	return path
}
