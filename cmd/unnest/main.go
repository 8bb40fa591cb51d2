package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"unnest/pkg/config"
	"unnest/pkg/env"
	"unnest/pkg/initialization"
	"unnest/pkg/logger"
	"unnest/pkg/nested"

	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "v0.1.0"

// report is the -json output: the result plus every warning and error
// logged while it was produced.
type report struct {
	*nested.Result
	Warnings []string `json:"warnings"`
}

func newReport(res *nested.Result) report {
	return report{Result: res, Warnings: logger.GetHistoryLevel(slog.LevelWarn)}
}

func main() {
	// Load environment variables for logger and bootstrap
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	// Initialize Logger early so config loading can use it
	logger.Init(env.LogLevel())

	var (
		configPath = flag.String("config", "", "config file (default: unnest.json in the data directory)")
		outputDir  = flag.String("o", "", "output directory (default: a new temporary directory)")
		maxDepth   = flag.Int("depth", config.DefaultMaxDepth, "maximum archive nesting depth")
		preserve   = flag.Bool("preserve", false, "keep one directory per archive instead of flattening")
		password   = flag.String("password", "", "password for encrypted RAR/7z archives")
		include    = flag.String("include", "", "comma separated globs; keep only matching file names")
		exclude    = flag.String("exclude", "", "comma separated globs; drop matching file names")
		logLevel   = flag.String("log-level", "", "DEBUG, INFO, WARN or ERROR")
		asJSON     = flag.Bool("json", false, "print the result as JSON")
		version    = flag.Bool("version", false, "print version and exit")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: unnest [flags] <archive>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *version {
		fmt.Println("unnest", Version)
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	archive := flag.Arg(0)

	// Only flags given on the command line override file and env values
	override := func(cfg *config.Config) {
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "o":
				cfg.OutputDir = *outputDir
			case "depth":
				cfg.MaxDepth = *maxDepth
			case "preserve":
				cfg.Flatten = !*preserve
			case "password":
				cfg.Password = *password
			case "include":
				cfg.Include = env.SplitList(*include)
			case "exclude":
				cfg.Exclude = env.SplitList(*exclude)
			case "log-level":
				cfg.LogLevel = strings.ToUpper(*logLevel)
			}
		})
	}

	comp, err := initialization.Bootstrap(*configPath, override)
	if err != nil {
		initialization.ExitWithError(err)
	}
	defer logger.Close()

	logger.Info("Starting unnest", "version", Version, "archive", archive)

	// History only covers this run from here on
	logger.ResetHistory()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := comp.Extractor.Extract(ctx, archive)
	if res == nil {
		initialization.ExitWithError(err)
	}
	if err != nil {
		logger.Warn("Extraction interrupted, result is partial", "err", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(newReport(res)); encErr != nil {
			initialization.ExitWithError(fmt.Errorf("failed to encode result: %w", encErr))
		}
	} else {
		for _, f := range res.Files {
			fmt.Println(f)
		}
		if n := len(logger.GetHistoryLevel(slog.LevelWarn)); n > 0 {
			fmt.Fprintf(os.Stderr, "%d warning(s) or error(s) logged; rerun with -json to list them\n", n)
		}
	}

	if err != nil {
		logger.Close()
		os.Exit(130)
	}
}
