package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status",
	Long: `Show connection health and population counts.

Displayed:
- Database connectivity and pool stats
- Redis availability
- Open / closed tip counts
- Published score count

Example:
  go run ./cmd/tipscore status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== tipscore Status ===")
	fmt.Println()

	app, err := initApp()
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer app.close()

	ctx := cmd.Context()

	// Database
	fmt.Println("🗄  Database")
	if err := app.db.Ping(ctx); err != nil {
		fmt.Printf("   Status: ❌ unreachable (%v)\n", err)
		return nil
	}
	stats := app.db.Stats()
	fmt.Println("   Status: ✅ connected")
	fmt.Printf("   Pool: %d/%d connections\n", stats.AcquiredConns, stats.TotalConns)
	fmt.Println()

	// Redis
	fmt.Println("⚡ Redis")
	if app.rdb.Enabled() {
		fmt.Println("   Status: ✅ enabled")
	} else {
		fmt.Println("   Status: disabled (caching off)")
	}
	fmt.Println()

	// Tip population
	var open, closed, scored int64
	if err := app.db.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE closed_at IS NULL),
			COUNT(*) FILTER (WHERE closed_at IS NOT NULL)
		FROM tips
	`).Scan(&open, &closed); err != nil {
		return fmt.Errorf("count tips: %w", err)
	}

	if err := app.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM creator_scores`).Scan(&scored); err != nil {
		return fmt.Errorf("count scores: %w", err)
	}

	fmt.Println("📊 Population")
	fmt.Printf("   %-18s %8d\n", "Open tips:", open)
	fmt.Printf("   %-18s %8d\n", "Closed tips:", closed)
	fmt.Printf("   %-18s %8d\n", "Published scores:", scored)

	return nil
}
