package main

import (
	stderrors "errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"igaudit/pkg/config"
	"igaudit/pkg/logger"
	"igaudit/pkg/ui"
)

var (
	// Version information
	version   = "0.3.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	jsonOutput bool
	noColor    bool
	quiet      bool
)

// errSilent marks failures that were already reported to the user
var errSilent = stderrors.New("silent failure")

var rootCmd = &cobra.Command{
	Use:   "igaudit",
	Short: "Heuristic fake-account checker for Instagram profiles",
	Long: `igaudit labels Instagram accounts as fake, suspicious or real from their
public counters: followers, following, posts, bio and recent engagement.

Verdicts come from a short list of ordered rules, each with a plain-language
explanation. Profiles are read from a built-in mock table, a YAML fixture
file or the Instagram web API.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !stderrors.Is(err, errSilent) {
			newPrinter(os.Stderr).Error("Error", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.igaudit.yaml or $HOME/.igaudit.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print machine readable JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")

	rootCmd.SetVersionTemplate(`igaudit {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig merges defaults, file, env and flags, then sets up logging
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if quiet {
		cfg.Logging.Level = "error"
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

func newPrinter(f *os.File) *ui.Printer {
	if noColor {
		return ui.NewPlainPrinter(f)
	}
	return ui.NewPrinter(f)
}
