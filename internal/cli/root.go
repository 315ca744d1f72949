package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/focusflow/internal/config"
	"github.com/example/focusflow/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "focusflow",
	Short: "Pomodoro timer backend with distraction blocking",
	Long: `focusflow runs the FocusFlow API: Pomodoro work and break sessions,
per-user blocklists that are enforced while a work session runs, and
productivity analytics over the session history.

Configuration is read from an optional YAML file (--config) and
FOCUSFLOW_* environment variables.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(statsCmd)
}

// loadRuntime reads the configuration and builds the process logger.
func loadRuntime(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := logging.New(cmd.ErrOrStderr(), cfg.LogFormat, cfg.LogLevel)
	return cfg, logger, nil
}
