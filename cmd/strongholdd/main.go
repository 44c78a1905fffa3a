package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ekisa-team/stronghold/internal/config"
)

const (
	Version = "0.1.0"
	appName = "strongholdd"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logToFile  bool
	logFile    string
	logLevel   string
	logMaxSize int
	logBackups int
	logMaxAge  int
}

func rootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Stronghold model registry service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", filepath.Join(config.DefaultConfigPath(), "config.yaml"), "Path to config file")
	cmd.PersistentFlags().BoolVar(&opts.logToFile, "log-to-file", false, "Also write logs to a rotating file")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "logs/stronghold.log", "Path of the rotating log file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	cmd.PersistentFlags().IntVar(&opts.logMaxSize, "log-max-size", 50, "Maximum size in megabytes of the log file before rotation")
	cmd.PersistentFlags().IntVar(&opts.logBackups, "log-max-backups", 5, "Maximum number of rotated log files to keep")
	cmd.PersistentFlags().IntVar(&opts.logMaxAge, "log-max-age", 28, "Maximum number of days to keep rotated log files")

	cmd.AddCommand(
		serveCmd(opts),
		modelsCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}
