package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	configsqlite "reviewharvest/lib/configutil/sqlite"
	"reviewharvest/lib/serviceutil"
	"reviewharvest/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	dbPath     *string

	config    Config
	closeLog  func() error
	exporters telemetry.Telemetry
)

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "harvest.json5", "The config file to read, a <name>.local.json5 next to it overrides it.")
	dbPath = rootCmd.PersistentFlags().String("db", "", "The sqlite database to use instead of the configured one.")
}

var rootCmd = &cobra.Command{
	Use:   "harvest",
	Short: "harvest scrapes products and their reviews into a database.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error
		config, err = LoadConfig(*configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if *dbPath != "" {
			config.Database = configsqlite.Struct{File: *dbPath}
		}

		closeLog, err = telemetry.InitSlog(config.Log)
		if err != nil {
			serviceutil.Fatal("failed to initialize logging", err)
		}
		exporters, err = telemetry.SetupFromEnv(cmd.Context(), "harvest")
		if err != nil {
			slog.Warn("failed to setup telemetry, continuing without it", "err", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		shutdown()
	},
}

// shutdown flushes telemetry and closes the log file.
func shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := exporters.Shutdown(ctx)
	if err != nil {
		slog.Warn("failed to flush telemetry", "err", err)
	}
	if closeLog != nil {
		closeLog()
		closeLog = nil
	}
}

var exit = os.Exit

// fatal logs like serviceutil.Fatal, then runs the shutdown PersistentPostRun
// would have before exiting.
func fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	shutdown()
	exit(1)
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
