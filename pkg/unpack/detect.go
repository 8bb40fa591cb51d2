package unpack

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// sniffLen covers the tar magic at offset 257.
const sniffLen = 512

type signature struct {
	format Format
	offset int
	magic  []byte
}

var signatures = []signature{
	{FormatRar, 0, []byte("Rar!\x1a\x07")},
	{Format7z, 0, []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C}},
	{FormatZip, 0, []byte("PK\x03\x04")},
	{FormatZip, 0, []byte("PK\x05\x06")}, // empty archive
	{FormatZip, 0, []byte("PK\x07\x08")}, // spanned
	{FormatGzip, 0, []byte{0x1F, 0x8B}},
	{FormatXz, 0, []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}},
	{FormatZstd, 0, []byte{0x28, 0xB5, 0x2F, 0xFD}},
	{FormatLz4, 0, []byte{0x04, 0x22, 0x4D, 0x18}},
	{FormatBzip2, 0, []byte("BZh")},
	{FormatTar, 257, []byte("ustar")},
}

// zipDocuments are ZIP containers that are files in their own right.
var zipDocuments = map[string]bool{
	".docx": true, ".docm": true, ".dotx": true,
	".xlsx": true, ".xlsm": true, ".xltx": true,
	".pptx": true, ".pptm": true, ".potx": true,
	".vsdx": true,
	".odt": true, ".ods": true, ".odp": true, ".odg": true, ".odf": true,
	".epub": true,
	".apk": true, ".aab": true, ".ipa": true, ".xpi": true,
	".3mf": true, ".kmz": true,
}

// MatchSignature identifies a container from its leading bytes.
func MatchSignature(header []byte) (Format, bool) {
	for _, sig := range signatures {
		end := sig.offset + len(sig.magic)
		if len(header) < end || !bytes.Equal(header[sig.offset:end], sig.magic) {
			continue
		}
		// "BZh" is followed by the block size digit 1-9
		if sig.format == FormatBzip2 && (len(header) < 4 || header[3] < '1' || header[3] > '9') {
			continue
		}
		return sig.format, true
	}
	return "", false
}

// DetectFormat sniffs the file at path. Signature-less codecs (lzma alone,
// brotli) are only recognised through their extension, and ZIP-based
// documents such as .xlsx or .epub are files, not archives. Returns
// ErrNotArchive or ErrContinuationVolume when the file must not be unpacked
// on its own.
func DetectFormat(path string) (Format, error) {
	name := filepath.Base(path)
	if IsMiddleRarVolume(name) || IsMiddle7zVolume(name) {
		return "", ErrContinuationVolume
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	header = header[:n]

	ext := strings.ToLower(filepath.Ext(name))
	if format, ok := MatchSignature(header); ok {
		if format == FormatZip && zipDocuments[ext] {
			return "", ErrNotArchive
		}
		return format, nil
	}

	switch ext {
	case ExtLzma, ExtTlz:
		// lzma_alone: properties byte, usually 0x5D, then a dictionary size
		if n >= 13 && header[0] == 0x5D {
			return FormatLzma, nil
		}
	case ExtBr:
		if n > 0 {
			return FormatBrotli, nil
		}
	}

	return "", ErrNotArchive
}
