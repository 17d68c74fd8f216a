package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ratemytip/tipscore/internal/lifecycle"
)

// sweepCmd represents the sweep command
var sweepCmd = &cobra.Command{
	Use:   "sweep [price|expiry]",
	Short: "Run one evaluation sweep over open tips",
	Long: `Run a single evaluation sweep and exit.

Modes:
  price   - evaluate every open tip against current market prices
  expiry  - only close tips whose expiry has passed

Example:
  go run ./cmd/tipscore sweep price
  go run ./cmd/tipscore sweep expiry`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"price", "expiry"},
	RunE:      runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	mode := lifecycle.SweepModePrice
	if len(args) == 1 && args[0] == "expiry" {
		mode = lifecycle.SweepModeExpiry
	}

	fmt.Printf("=== tipscore Sweep (%s) ===\n\n", mode)

	app, err := initApp()
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer app.close()

	result, err := app.sweep.Run(cmd.Context(), mode, time.Now())
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	fmt.Printf("✅ Sweep completed\n")
	fmt.Printf("   Open tips:    %d\n", result.OpenTips)
	fmt.Printf("   Transitioned: %d\n", result.Transitioned)
	fmt.Printf("   Closed:       %d\n", result.Closed)
	fmt.Printf("   Failed:       %d\n", result.Failed)

	if len(result.ClosedCreators) > 0 {
		fmt.Printf("   Creators with closes: %v\n", result.ClosedCreators)
	}

	return nil
}
