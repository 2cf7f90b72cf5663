package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	methodologyPath string
	verbose         bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hegemony",
	Short: "Hegemony Map - 섹터 자금 흐름 / 시가총액 집계 엔진",
	Long: `Hegemony Map CLI

산업 → 카테고리 → 섹터 → 기업 계층 위에서
시가총액 변화(자금 흐름), 섹터 추세, Hegemony Score 랭킹을 계산합니다.
모든 명령은 읽기 전용입니다.

Usage:
  go run ./cmd/hegemony [command]

Examples:
  go run ./cmd/hegemony api
  go run ./cmd/hegemony flow --period 30 --industry ai
  go run ./cmd/hegemony rank gpu
  go run ./cmd/hegemony test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&methodologyPath, "methodology", "", "methodology YAML (default METHODOLOGY_PATH or built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs)")
}
