package unpack

import (
	"path/filepath"
	"strings"
)

// Extension constants
const (
	ExtRar  = ".rar"
	ExtZip  = ".zip"
	Ext7z   = ".7z"
	ExtTar  = ".tar"
	ExtGz   = ".gz"
	ExtTgz  = ".tgz"
	ExtBz2  = ".bz2"
	ExtTbz2 = ".tbz2"
	ExtTbz  = ".tbz"
	ExtXz   = ".xz"
	ExtTxz  = ".txz"
	ExtLzma = ".lzma"
	ExtTlz  = ".tlz"
	ExtZst  = ".zst"
	ExtTzst = ".tzst"
	ExtLz4  = ".lz4"
	ExtBr   = ".br"
)

// tarShorthands map single-extension tarball names to the name of the tar
// they decompress to.
var tarShorthands = map[string]string{
	ExtTgz:  ExtTar,
	ExtTbz2: ExtTar,
	ExtTbz:  ExtTar,
	ExtTxz:  ExtTar,
	ExtTlz:  ExtTar,
	ExtTzst: ExtTar,
}

var codecExtensions = map[string]bool{
	ExtGz:   true,
	ExtBz2:  true,
	ExtXz:   true,
	ExtLzma: true,
	ExtZst:  true,
	ExtLz4:  true,
	ExtBr:   true,
}

// DecompressedName returns the file name a single compressed stream decodes
// to: "notes.txt.gz" -> "notes.txt", "site.tgz" -> "site.tar". Names without a
// known codec extension get a ".out" suffix so the result never equals the input.
func DecompressedName(name string) string {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	lower := strings.ToLower(ext)
	if tarExt, ok := tarShorthands[lower]; ok {
		return strings.TrimSuffix(base, ext) + tarExt
	}
	if codecExtensions[lower] && len(base) > len(ext) {
		return strings.TrimSuffix(base, ext)
	}
	return base + ".out"
}

// IsRarPart checks if extension is .rXX (e.g. .r01, .r99)
func IsRarPart(name string) bool {
	if len(name) < 4 {
		return false
	}

	ext := strings.ToLower(name[len(name)-4:])
	if ext[0] != '.' || ext[1] != 'r' {
		return false
	}

	return isDigit(ext[2]) && isDigit(ext[3])
}

// IsMiddleRarVolume checks if a RAR file is a middle volume (not the first)
func IsMiddleRarVolume(name string) bool {
	name = strings.ToLower(filepath.Base(name))

	// .partXX.rar: the dot after the number matters (part10 vs part1)
	if strings.Contains(name, ".part") && strings.HasSuffix(name, ExtRar) {
		if strings.Contains(name, ".part1.rar") ||
			strings.Contains(name, ".part01.rar") ||
			strings.Contains(name, ".part001.rar") {
			return false
		}
		return isDigit(name[len(name)-len(ExtRar)-1])
	}

	// old naming: x.rar comes first, every x.rNN follows it
	return IsRarPart(name)
}

// IsSplit7z reports whether name is one volume of a split 7z set (x.7z.NNN).
func IsSplit7z(name string) bool {
	_, ok := split7zIndex(name)
	return ok
}

// IsMiddle7zVolume reports a split 7z volume other than .001.
func IsMiddle7zVolume(name string) bool {
	idx, ok := split7zIndex(name)
	return ok && idx != "001"
}

func split7zIndex(name string) (string, bool) {
	lower := strings.ToLower(filepath.Base(name))
	ext := filepath.Ext(lower)
	if len(ext) != 4 || !strings.HasSuffix(strings.TrimSuffix(lower, ext), Ext7z) {
		return "", false
	}
	for i := 1; i < len(ext); i++ {
		if !isDigit(ext[i]) {
			return "", false
		}
	}
	return ext[1:], true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
