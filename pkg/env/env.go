// Package env consolidates all environment variable reading for the application.
// Config overrides are applied only at startup (see config.Load).
package env

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names (single source of truth)
const (
	OutputDir     = "UNNEST_OUTPUT_DIR"
	MaxDepth      = "UNNEST_MAX_DEPTH"
	Flatten       = "UNNEST_FLATTEN"
	Password      = "UNNEST_PASSWORD"
	ScratchDir    = "UNNEST_SCRATCH_DIR"
	Include       = "UNNEST_INCLUDE"
	Exclude       = "UNNEST_EXCLUDE"
	ClassifyCache = "UNNEST_CLASSIFY_CACHE"
	LogDir        = "UNNEST_LOG_DIR"
	LOGLevel      = "LOG_LEVEL"
)

// Config JSON keys returned alongside overrides
const (
	KeyOutputDir     = "output_dir"
	KeyMaxDepth      = "max_depth"
	KeyFlatten       = "flatten"
	KeyPassword      = "password"
	KeyScratchDir    = "scratch_dir"
	KeyInclude       = "include"
	KeyExclude       = "exclude"
	KeyClassifyCache = "classify_cache_size"
	KeyLogDir        = "log_dir"
	KeyLogLevel      = "log_level"
)

// LogLevel returns LOG_LEVEL with default "INFO" (for early logger init before config).
func LogLevel() string {
	if v := os.Getenv(LOGLevel); v != "" {
		return v
	}
	return "INFO"
}

// ConfigOverrides holds all config values that can be set via environment variables.
type ConfigOverrides struct {
	OutputDir         string
	MaxDepth          int
	Flatten           bool
	Password          string
	ScratchDir        string
	Include           []string
	Exclude           []string
	ClassifyCacheSize int
	LogDir            string
	LogLevel          string
}

// ReadConfigOverrides reads all relevant environment variables once and returns
// overrides to apply to config plus the list of config JSON keys that were set.
func ReadConfigOverrides() (ConfigOverrides, []string) {
	var o ConfigOverrides
	var keys []string

	if v := os.Getenv(OutputDir); v != "" {
		o.OutputDir = v
		keys = append(keys, KeyOutputDir)
	}
	if v := os.Getenv(MaxDepth); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			o.MaxDepth = n
			keys = append(keys, KeyMaxDepth)
		}
	}
	if v := os.Getenv(Flatten); v != "" {
		if b, ok := parseBool(v); ok {
			o.Flatten = b
			keys = append(keys, KeyFlatten)
		}
	}
	if v := os.Getenv(Password); v != "" {
		o.Password = v
		keys = append(keys, KeyPassword)
	}
	if v := os.Getenv(ScratchDir); v != "" {
		o.ScratchDir = v
		keys = append(keys, KeyScratchDir)
	}
	if v := os.Getenv(Include); v != "" {
		o.Include = SplitList(v)
		keys = append(keys, KeyInclude)
	}
	if v := os.Getenv(Exclude); v != "" {
		o.Exclude = SplitList(v)
		keys = append(keys, KeyExclude)
	}
	if v := os.Getenv(ClassifyCache); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			o.ClassifyCacheSize = n
			keys = append(keys, KeyClassifyCache)
		}
	}
	if v := os.Getenv(LogDir); v != "" {
		o.LogDir = v
		keys = append(keys, KeyLogDir)
	}
	if v := os.Getenv(LOGLevel); v != "" {
		o.LogLevel = v
		keys = append(keys, KeyLogLevel)
	}

	return o, keys
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	}
	return false, false
}
