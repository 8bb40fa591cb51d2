package initialization

import (
	"fmt"
	"os"

	"unnest/pkg/config"
	"unnest/pkg/logger"
	"unnest/pkg/nested"
	"unnest/pkg/unpack"
)

// InitializedComponents holds all the components initialized during bootstrap
type InitializedComponents struct {
	Config    *config.Config
	Unpacker  *unpack.Service
	Extractor *nested.Extractor
}

// ExitWithError prints a critical error to stderr and exits with status 1
func ExitWithError(err error) {
	fmt.Fprintf(os.Stderr, "\nCRITICAL ERROR: %v\n", err)
	logger.Close()
	os.Exit(1)
}

// Bootstrap coordinates the startup sequence. override runs after the config
// file and environment are applied, so command line flags win.
func Bootstrap(configPath string, override func(*config.Config)) (*InitializedComponents, error) {
	// 1. Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	if override != nil {
		override(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("configuration error: %w", err)
		}
	}

	// 2. Logging
	logger.Init(cfg.LogLevel)
	if cfg.LogDir != "" {
		if err := logger.SetLogFile(cfg.LogDir); err != nil {
			logger.Warn("Failed to open log file", "dir", cfg.LogDir, "err", err)
		}
	}

	// 3. Extraction collaborator and extractor
	unpacker := unpack.NewService()
	logger.Debug("Registered archive formats", "formats", unpacker.Formats())

	opts := []nested.Option{
		nested.WithOutputDir(cfg.OutputDir),
		nested.WithPassword(cfg.Password),
		nested.WithMaxDepth(cfg.MaxDepth),
		nested.WithFlatten(cfg.Flatten),
		nested.WithScratchDir(cfg.ScratchDir),
		nested.WithClassifyCache(cfg.ClassifyCacheSize),
		nested.WithUnpacker(unpacker),
	}
	if filter := nested.MatchPatterns(cfg.Include, cfg.Exclude); filter != nil {
		opts = append(opts, nested.WithFilter(filter))
	}

	return &InitializedComponents{
		Config:    cfg,
		Unpacker:  unpacker,
		Extractor: nested.New(opts...),
	}, nil
}
