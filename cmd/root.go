// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"vidgrab/internal/config"
	"vidgrab/internal/converge"
	"vidgrab/internal/httputil"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagDownloadDir string
	flagJSON        bool
	flagAll         bool
	flagNoProbe     bool
	flagNoCapture   bool
	flagNoJournal   bool
	flagDebug       bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

// logger is the process-wide structured logger, configured in loadConfig.
var logger zerolog.Logger

var rootCmd = &cobra.Command{
	Use:   "vidgrab <address|file>",
	Short: "Find and save video from any web page",
	Long: `Vidgrab scans a page or local HTML file for video content: plain file
addresses, platform embeds, lazy-loaded player attributes, and media
addresses hiding in scripts or the network log. Pick a candidate and it
is downloaded, recovered, or resolved to its watch page.`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: loadConfig,
	RunE:              grabRun,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDownloadDir, "download-dir", "d", "", "Directory to save files into")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Output candidates as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagAll, "all", "a", false, "Acquire every candidate without prompting")
	rootCmd.PersistentFlags().BoolVar(&flagNoProbe, "no-probe", false, "Skip size probing")
	rootCmd.PersistentFlags().BoolVar(&flagNoCapture, "no-capture", false, "Disable the ffmpeg capture fallback")
	rootCmd.PersistentFlags().BoolVar(&flagNoJournal, "no-journal", false, "Do not record attempts in the journal")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(grabCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagDownloadDir != "" {
		cfg.DownloadDir = flagDownloadDir
	}
	if flagNoProbe {
		cfg.ProbeSizes = false
	}
	if flagNoCapture {
		cfg.Capture = false
	}
	if flagNoJournal {
		cfg.Journal = false
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.UserAgent != "" {
		httputil.UserAgent = cfg.UserAgent
	}

	level := zerolog.WarnLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	return nil
}

// convergeConfig maps the optional timing overrides onto the controller's
// defaults.
func convergeConfig(t config.Timing) converge.Config {
	c := converge.Config{
		PrimingDelay:      time.Duration(t.PrimingMS) * time.Millisecond,
		PrimingDelayLocal: time.Duration(t.PrimingLocalMS) * time.Millisecond,
		GracePeriod:       time.Duration(t.GraceMS) * time.Millisecond,
		Deadline:          time.Duration(t.DeadlineMS) * time.Millisecond,
	}
	for _, ms := range t.RetryMS {
		c.RetryDelays = append(c.RetryDelays, time.Duration(ms)*time.Millisecond)
	}
	return c
}
