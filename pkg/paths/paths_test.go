package paths

import (
	"os"
	"testing"
)

func TestGetScratchRoot(t *testing.T) {
	if got := GetScratchRoot("/srv/scratch"); got != "/srv/scratch" {
		t.Errorf("explicit dir: got %s", got)
	}
	if got := GetScratchRoot(""); got != os.TempDir() {
		t.Errorf("default: expected %s, got %s", os.TempDir(), got)
	}
}

func TestGetDataDirNotEmpty(t *testing.T) {
	if GetDataDir() == "" {
		t.Error("data dir must never be empty")
	}
}
