package unpack

import (
	"context"
	"errors"
	"fmt"
	"io"

	"unnest/pkg/logger"

	"github.com/javi11/rardecode/v2"
)

type RarHandler struct{}

func NewRarHandler() *RarHandler {
	return &RarHandler{}
}

// Extract unpacks a RAR archive. Multi-volume sets are followed through
// sibling volumes (.partNN.rar / .rNN) next to archivePath.
func (h *RarHandler) Extract(ctx context.Context, archivePath, dst string, opts Options) error {
	var rarOpts []rardecode.Option
	if opts.Password != "" {
		rarOpts = append(rarOpts, rardecode.Password(opts.Password))
	}

	r, err := rardecode.OpenReader(archivePath, rarOpts...)
	if err != nil {
		return fmt.Errorf("failed to open rar %s: %w", archivePath, err)
	}
	defer r.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read rar header: %w", err)
		}

		if header.IsDir {
			if err := makeDir(dst, header.Name); err != nil {
				logger.Warn("Skipping rar directory", "archive", archivePath, "entry", header.Name, "err", err)
			}
			continue
		}

		err = writeEntry(dst, header.Name, filePerm, r)
		if errors.Is(err, ErrUnsafePath) {
			logger.Warn("Skipping file outside destination", "archive", archivePath, "entry", header.Name)
			continue
		}
		if err != nil {
			return err
		}
	}

	return nil
}
