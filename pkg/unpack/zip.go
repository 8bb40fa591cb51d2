package unpack

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"unnest/pkg/logger"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/text/encoding/charmap"
)

// zipFlagEncrypted is general purpose bit 0 of a zip entry header.
const zipFlagEncrypted = 0x1

type ZipHandler struct{}

func NewZipHandler() *ZipHandler {
	return &ZipHandler{}
}

// Extract unpacks a zip. Encrypted entries fail the whole archive since no
// traditional or AES zip decryption is available; opts.Password is ignored.
func (h *ZipHandler) Extract(ctx context.Context, archivePath, dst string, opts Options) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open zip file: %w", err)
	}
	defer reader.Close()

	reader.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())

	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := zipEntryName(file)

		if file.Flags&zipFlagEncrypted != 0 {
			return fmt.Errorf("%s: %w", name, ErrEncrypted)
		}

		if file.FileInfo().IsDir() {
			if err := makeDir(dst, name); err != nil {
				logger.Warn("Skipping zip directory", "archive", archivePath, "entry", name, "err", err)
			}
			continue
		}

		if file.Mode()&fs.ModeSymlink != 0 {
			logger.Warn("Skipping symlink in zip", "archive", archivePath, "entry", name)
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", name, err)
		}

		err = writeEntry(dst, name, file.Mode(), rc)
		rc.Close()
		if errors.Is(err, ErrUnsafePath) {
			logger.Warn("Skipping file outside destination", "archive", archivePath, "entry", name)
			continue
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// zipEntryName decodes legacy (non UTF-8) names, which zip tools write in CP437.
func zipEntryName(file *zip.File) string {
	if !file.NonUTF8 {
		return file.Name
	}
	decoded, err := charmap.CodePage437.NewDecoder().String(file.Name)
	if err != nil {
		return file.Name
	}
	return decoded
}
