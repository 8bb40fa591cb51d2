package config

import (
	"os"
	"path/filepath"
	"testing"

	"unnest/pkg/env"
	"unnest/pkg/logger"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{env.OutputDir, env.MaxDepth, env.Flatten, env.Password, env.ScratchDir,
		env.Include, env.Exclude, env.ClassifyCache, env.LogDir, env.LOGLevel} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	logger.Init("DEBUG")
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.MaxDepth != DefaultMaxDepth {
		t.Errorf("expected max depth %d, got %d", DefaultMaxDepth, cfg.MaxDepth)
	}
	if !cfg.Flatten {
		t.Error("expected flatten to default to true")
	}
	if cfg.LogLevel != "INFO" {
		t.Errorf("expected INFO, got %s", cfg.LogLevel)
	}
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	logger.Init("DEBUG")
	clearEnv(t)

	path := filepath.Join(t.TempDir(), FileName)
	content := `{"max_depth": 4, "flatten": false, "exclude": ["*.nfo"], "log_level": "WARN"}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv(env.MaxDepth, "2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.MaxDepth != 2 {
		t.Errorf("expected env override 2, got %d", cfg.MaxDepth)
	}
	if cfg.Flatten {
		t.Error("expected flatten false from file")
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "*.nfo" {
		t.Errorf("unexpected exclude: %v", cfg.Exclude)
	}
	if cfg.LogLevel != "WARN" {
		t.Errorf("expected WARN from file, got %s", cfg.LogLevel)
	}
	if cfg.LoadedPath != path {
		t.Errorf("expected loaded path %s, got %s", path, cfg.LoadedPath)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	logger.Init("DEBUG")
	clearEnv(t)

	tests := []struct {
		name    string
		content string
	}{
		{"negative depth", `{"max_depth": -1}`},
		{"bad pattern", `{"include": ["[abc"]}`},
		{"malformed json", `{"max_depth": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestSaveFileRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Include = []string{"*.txt"}
	path := filepath.Join(t.TempDir(), FileName)

	if err := cfg.SaveFile(path); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	loaded := Default()
	if err := loaded.LoadFile(path); err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if len(loaded.Include) != 1 || loaded.Include[0] != "*.txt" {
		t.Errorf("include not persisted: %v", loaded.Include)
	}
}
