package main

import (
	"os"

	"github.com/wonny/hegemony/cmd/hegemony/commands"
)

// main is the entry point for the Hegemony CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/hegemony [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
