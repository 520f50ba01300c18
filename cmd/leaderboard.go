package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var forceSync bool

// leaderboardCmd is the parent command for the public leaderboard mirror.
var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Manage the public leaderboard",
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Export balances to the configured leaderboard backend",
	Long: `Runs one leaderboard sync. The export is skipped when the sheet is already
newer than the last balance change, unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		if !rt.cfg.Leaderboard.Enabled() {
			return fmt.Errorf("leaderboard backend is disabled")
		}
		svc, err := rt.leaderboardService(ctx)
		if err != nil {
			return err
		}
		sync := svc.Sync
		if forceSync {
			sync = svc.Export
		}
		res, err := sync(ctx)
		if err != nil {
			return err
		}
		if res.Skipped {
			return printResult(res, fmt.Sprintf("Leaderboard already current (sheet %s, database %s)",
				res.RemoteModified.Format("2006-01-02 15:04:05"), res.LocalModified.Format("2006-01-02 15:04:05")))
		}
		return printResult(res, fmt.Sprintf("Exported %d rows (run %s)", res.Rows, res.RunID))
	},
}

func init() {
	syncCmd.Flags().BoolVar(&forceSync, "force", false, "Export even if the sheet looks current")
	syncCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	leaderboardCmd.AddCommand(syncCmd)
	RootCmd.AddCommand(leaderboardCmd)
}
