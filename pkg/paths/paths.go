package paths

import (
	"os"
	"path/filepath"
)

// GetDataDir returns the directory holding unnest.json and log files.
// If running in Docker (/.dockerenv exists), returns /app/data.
// Otherwise returns the user config dir, falling back to the current directory.
func GetDataDir() string {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return "/app/data"
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "unnest")
	}
	return "."
}

// GetScratchRoot returns the parent directory for scratch areas and
// temporary output directories. An explicit dir always wins.
func GetScratchRoot(dir string) string {
	if dir != "" {
		return dir
	}
	return os.TempDir()
}
