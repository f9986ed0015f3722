package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/curiofm/curio-backend/internal/app"
	"github.com/curiofm/curio-backend/internal/data/db"
	"github.com/curiofm/curio-backend/internal/services"
)

var (
	backfillLimit  int
	backfillDryRun bool
	walletLimit    int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := app.OpenDatabase(log, cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := db.AutoMigrateAll(store.DB()); err != nil {
			return err
		}
		log.Info("migration complete", "dialect", store.Dialect())
		return nil
	},
}

var backfillTracksCmd = &cobra.Command{
	Use:   "backfill-tracks",
	Short: "Link legacy recommendations to catalog tracks",
	Long: `Normalizes the original url of every recommendation without a track,
finds or creates the catalog track and links it. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) (any, error) {
			return a.Services.Tracks.BackfillTracks(cmd.Context(), services.BackfillOptions{
				Limit:  backfillLimit,
				DryRun: backfillDryRun,
			})
		})
	},
}

var backfillWalletsCmd = &cobra.Command{
	Use:   "backfill-wallets",
	Short: "Fill empty curator wallet addresses from the Farcaster hub",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) (any, error) {
			return a.Services.Curators.BackfillWallets(cmd.Context(), walletLimit)
		})
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute cached curator scores and XP from the ledgers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) (any, error) {
			return a.Services.Curators.Reconcile(cmd.Context())
		})
	},
}

func init() {
	backfillTracksCmd.Flags().IntVar(&backfillLimit, "limit", 0, "maximum recommendations to process (0 = all)")
	backfillTracksCmd.Flags().BoolVar(&backfillDryRun, "dry-run", false, "resolve tracks without writing")
	backfillWalletsCmd.Flags().IntVar(&walletLimit, "limit", 0, "maximum curators to process (0 = all)")
}

// withApp builds the application, runs fn and prints its report as JSON.
func withApp(cmd *cobra.Command, fn func(a *app.App) (any, error)) error {
	a, err := app.New(cmd.Context(), log, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := fn(a)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
