package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/curiofm/curio-backend/internal/app"
	"github.com/curiofm/curio-backend/internal/platform/logger"
)

var (
	logMode string

	log *logger.Logger
	cfg app.Config
)

var rootCmd = &cobra.Command{
	Use:           "curioctl",
	Short:         "Operational commands for the Curio backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := app.LoadDotEnv(); err != nil {
			return err
		}
		var err error
		log, err = logger.New(logMode)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg, err = app.LoadConfig(log)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "development", "logger mode (development|production)")
	rootCmd.AddCommand(migrateCmd, backfillTracksCmd, backfillWalletsCmd, reconcileCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "curioctl: %v\n", err)
		os.Exit(1)
	}
}
