package main

import (
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/comalice/hsm/internal/logger"
	"github.com/comalice/hsm/internal/production"
)

// Set at link time.
var (
	version   = "dev"
	buildDate = "unknown"
)

var rootCtx struct {
	settingsPath string
	legacySeed   bool
	logLevel     string
	logFormat    string
	fs           afero.Fs
}

var rootCmd = &cobra.Command{
	Use:   "doorctl",
	Short: "two-door access controller",
	Long: `
doorctl runs the door controller state machine on a simulated pin bank and
offers the maintenance console on stdin. Settings are kept in a YAML or JSON
file sealed with a CRC-64 checksum.
`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		format := logger.ParseFormat(rootCtx.logFormat, logger.FormatConsole)
		logger.Replace(logger.New(rootCtx.logLevel, format))
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCtx.fs = afero.NewOsFs()

	f := rootCmd.PersistentFlags()
	f.StringVar(&rootCtx.settingsPath, "settings", "doorctl.yaml", "settings file (.yaml or .json)")
	f.BoolVar(&rootCtx.legacySeed, "legacy-seed", false, "seal settings with the 32-bit legacy checksum seed")
	f.StringVar(&rootCtx.logLevel, "log-level", "INFO", "log level (name or 0..6)")
	f.StringVar(&rootCtx.logFormat, "log-format", "CONSOLE", "log format (CONSOLE or JSON)")

	runCmd.Flags().DurationVar(&runCtx.tick, "tick", 10*time.Millisecond, "control loop period")
	runCmd.Flags().DurationVar(&runCtx.duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	runCmd.Flags().BoolVar(&runCtx.simulate, "simulate", false, "play a scripted walk-through on the simulated doors")
	runCmd.Flags().BoolVar(&runCtx.console, "console", true, "read console commands from stdin")

	dotCmd.Flags().StringVar(&dotCtx.format, "format", "dot", "output format (dot or json)")
	dotCmd.Flags().StringVar(&dotCtx.current, "current", "", "state to highlight")

	settingsCmd.AddCommand(settingsShowCmd, settingsResetCmd)
	rootCmd.AddCommand(runCmd, infoCmd, dotCmd, settingsCmd)
}

func openStore(log *zap.SugaredLogger) *production.FileStore {
	seed := production.StandardSeed
	if rootCtx.legacySeed {
		seed = production.LegacySeed
	}
	return production.NewFileStore(rootCtx.fs, rootCtx.settingsPath,
		production.FormatForPath(rootCtx.settingsPath),
		production.WithSeed(seed),
		production.WithStoreLogger(log))
}
