package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ratemytip/tipscore/internal/contracts"
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Write today's score snapshots",
	Long: `Write today's snapshot row for every published creator score.

Normally runs as a scheduled job chained after the daily recompute;
this command triggers the same write once and exits.

Example:
  go run ./cmd/tipscore snapshot`,
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	app, err := initApp()
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer app.close()

	today := contracts.SnapshotDate(time.Now(), app.cfg.Scoring.Timezone)

	count, err := app.scoreRepo.SnapshotAll(cmd.Context(), today)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	fmt.Printf("✅ Wrote %d snapshots for %s\n", count, today.Format("2006-01-02"))
	return nil
}
