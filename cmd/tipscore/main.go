package main

import (
	"os"

	"github.com/ratemytip/tipscore/cmd/tipscore/commands"
)

// main is the entry point for the tipscore CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/tipscore [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
