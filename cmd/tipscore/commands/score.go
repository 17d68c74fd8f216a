package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Recompute creator reputation scores",
	Long: `Recompute composite reputation scores.

Subcommands:
  all               - rescore every active creator
  creator [id]      - rescore a single creator

Example:
  go run ./cmd/tipscore score all
  go run ./cmd/tipscore score creator 42`,
}

var (
	scoreAllCmd = &cobra.Command{
		Use:   "all",
		Short: "Rescore every active creator",
		RunE:  runScoreAll,
	}

	scoreCreatorCmd = &cobra.Command{
		Use:   "creator [id]",
		Short: "Rescore a single creator",
		Args:  cobra.ExactArgs(1),
		RunE:  runScoreCreator,
	}
)

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.AddCommand(scoreAllCmd)
	scoreCmd.AddCommand(scoreCreatorCmd)
}

func runScoreAll(cmd *cobra.Command, args []string) error {
	fmt.Println("=== tipscore Full Recompute ===")

	app, err := initApp()
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer app.close()

	result, err := app.orchestrator.RecomputeAll(cmd.Context(), time.Now())
	if err != nil {
		return fmt.Errorf("recompute all: %w", err)
	}

	fmt.Printf("\n✅ Recompute completed in %v\n", result.Duration)
	fmt.Printf("   Creators:  %d\n", result.Total)
	fmt.Printf("   Published: %d\n", result.Published)
	fmt.Printf("   Withheld:  %d (below minimum sample)\n", result.Withheld)
	fmt.Printf("   Failed:    %d\n", result.Failed)

	return nil
}

func runScoreCreator(cmd *cobra.Command, args []string) error {
	creatorID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("creator id must be an integer: %q", args[0])
	}

	app, err := initApp()
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer app.close()

	published, err := app.orchestrator.RecomputeCreator(cmd.Context(), creatorID, time.Now())
	if err != nil {
		return fmt.Errorf("recompute creator %d: %w", creatorID, err)
	}

	if !published {
		fmt.Printf("Creator %d is below the minimum sample; score withheld (tier refreshed)\n", creatorID)
		return nil
	}

	score, err := app.scoreRepo.GetCreatorScore(cmd.Context(), creatorID)
	if err != nil {
		return fmt.Errorf("fetch score: %w", err)
	}

	fmt.Printf("✅ Creator %d scored\n", creatorID)
	fmt.Printf("   RMT Score:    %.2f\n", score.RMTScore)
	fmt.Printf("   Accuracy:     %.2f (rate %.1f%% ± %.1f)\n", score.AccuracyScore, score.AccuracyRate*100, score.ConfidenceInterval)
	fmt.Printf("   Risk/Return:  %.2f\n", score.RiskReturnScore)
	fmt.Printf("   Consistency:  %.2f\n", score.ConsistencyScore)
	fmt.Printf("   Volume:       %.2f\n", score.VolumeFactorScore)
	fmt.Printf("   Scored tips:  %d\n", score.TotalScoredTips)
	fmt.Printf("   Tier:         %s\n", score.Tier)

	return nil
}
