package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tipscore",
	Short: "RateMyTip reputation engine",
	Long: `RateMyTip tipscore CLI

Stock tip lifecycle evaluation and creator reputation scoring.
Sweeps open tips against market prices, resolves them to terminal
states and recomputes composite creator scores.

Usage:
  go run ./cmd/tipscore [command]

Examples:
  go run ./cmd/tipscore serve
  go run ./cmd/tipscore sweep price
  go run ./cmd/tipscore score all
  go run ./cmd/tipscore scheduler start`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
