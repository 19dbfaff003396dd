package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"segtools/internal/logger"
	"segtools/pkg/config"
)

var (
	configPath string
	logLevel   string

	cfg *config.Config
	log *logger.ZerologAdapter
)

var rootCmd = &cobra.Command{
	Use:   "segtools",
	Short: "Interactive 2D segmentation tools for label images",
	Long: `segtools grows, traces and edits binary segmentations of 2D slices.
It removes leaks from region-grown segmentations, corrects them with freehand
lines and fills missing slices of a stack by shape-based interpolation.

Images are read from PNG, JPEG, TIFF or BMP files; labels are written as PNG.`,
	Version:           "0.3.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "segtools.yaml", "Configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warning, error); overrides the config file")
}

// setup loads the configuration and builds the logger before every command.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	level := cfg.Output.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	zl, err := logger.ParseLevel(level)
	if err != nil {
		return err
	}
	log = logger.NewConsoleLogger(zl)
	log.Debug("cli", "configuration loaded", map[string]interface{}{"path": configPath})
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if log == nil {
			// setup failed before a logger existed
			log = logger.NewConsoleLogger(zerolog.InfoLevel)
		}
		log.Error("cli", err, map[string]interface{}{"command": commandName()})
		os.Exit(1)
	}
}

// commandName returns the subcommand named on the command line, if any.
func commandName() string {
	cmd, _, err := rootCmd.Find(os.Args[1:])
	if err != nil || cmd == nil {
		return rootCmd.Name()
	}
	return cmd.Name()
}
