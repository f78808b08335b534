package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"failsolver/internal/config"
	"failsolver/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	verbose    bool
	debug      bool
}

// cfg is loaded once in the persistent pre-run and shared by all commands.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "failsolver",
	Short: "Root-cause analysis for failed JUnit/TestNG runs",
	Long: "Failsolver ingests XML test reports, re-runs the failing tests in a\n" +
		"local checkout, and synthesizes a root-cause analysis document.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "", "Path to YAML config file (default: failsolver.yaml if present)")
	pf.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Log at info level to stderr")
	pf.BoolVar(&rootFlags.debug, "debug", false, "Log at debug level to stderr")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

func setup(_ *cobra.Command, _ []string) error {
	path := rootFlags.configPath
	if path == "" {
		if _, err := os.Stat("failsolver.yaml"); err == nil {
			path = "failsolver.yaml"
		}
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	level := logging.ParseLevel(cfg.Logging.Level)
	switch {
	case rootFlags.debug:
		level = slog.LevelDebug
	case rootFlags.verbose:
		level = slog.LevelInfo
	default:
		// Keep the terminal quiet unless asked; the document is the output.
		if cfg.Logging.Level == "" || cfg.Logging.Level == "info" {
			level = slog.LevelWarn
		}
	}
	logging.Init(level, cfg.Logging.Format)
	return nil
}
