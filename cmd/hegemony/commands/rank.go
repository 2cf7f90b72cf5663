package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// rankCmd represents the rank command
var rankCmd = &cobra.Command{
	Use:   "rank <sectorId>",
	Short: "섹터 내 Hegemony Score 랭킹",
	Long: `최신 스냅샷 기준으로 섹터 소속 기업을 평활 점수 순으로 정렬합니다.
동점은 USD 환산 시가총액으로 정렬합니다.

Example:
  go run ./cmd/hegemony rank gpu`,
	Args: cobra.ExactArgs(1),
	RunE: runRank,
}

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score <ticker>",
	Short: "기업 Hegemony Score 조회",
	Long: `기업의 점수 요약, 소속 섹터, 점수 이력을 표시합니다.

Example:
  go run ./cmd/hegemony score NVDA
  go run ./cmd/hegemony score 005930.KS --json`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

// simulateCmd represents the score simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate <ticker>",
	Short: "저장된 점수 이력 재계산 (쓰기 없음)",
	Long: `저장된 점수 이력을 EMA 평활 단계로 다시 접어 저장값과의 차이를 표시하고,
최신 스냅샷으로 다음 사이클 점수를 미리 계산합니다. DB에는 아무것도 쓰지 않습니다.

Example:
  go run ./cmd/hegemony score simulate NVDA
  go run ./cmd/hegemony score simulate NVDA --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.AddCommand(simulateCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	sectorID := args[0]
	return runQuery(cmd, func(ctx context.Context, a *app) error {
		res, err := a.engine.SectorRanking(ctx, sectorID)
		if err != nil {
			return fmt.Errorf("rank %s: %w", sectorID, err)
		}
		if outputJSON {
			return printJSON(res)
		}

		w := os.Stdout
		PrintHeader(w, "Hegemony Score Ranking",
			"Sector", fmt.Sprintf("%s (%s)", res.SectorName, res.SectorID),
			"Date", res.Date,
		)
		if len(res.Companies) == 0 {
			PrintWarning(w, "No scored companies")
			return nil
		}

		widths := []int{4, 12, 24, 7, 12, 5}
		PrintTableHeader(w, []string{"#", "TICKER", "NAME", "SCORE", "MCAP", "DQ"}, widths)
		for _, c := range res.Companies {
			name := truncate(c.Name, 24)
			if c.LimitedData {
				name = truncate(c.Name, 22) + " *"
			}
			PrintTableRow(w, []string{
				strconv.Itoa(c.Rank),
				c.Ticker,
				name,
				fmt.Sprintf("%.1f", c.Score),
				FormatUSD(c.MarketCap),
				fmt.Sprintf("%.2f", c.DataQuality),
			}, widths)
		}
		fmt.Fprintln(w, separator)
		fmt.Fprintf(w, "  * limited data (quality < %.2f)\n", a.method.Score.LimitedDataThreshold)
		return nil
	})
}

func runScore(cmd *cobra.Command, args []string) error {
	ticker := args[0]
	return runQuery(cmd, func(ctx context.Context, a *app) error {
		res, err := a.engine.CompanyScore(ctx, ticker)
		if err != nil {
			return fmt.Errorf("score %s: %w", ticker, err)
		}
		if outputJSON {
			return printJSON(res)
		}

		w := os.Stdout
		PrintHeader(w, "Hegemony Score", "Ticker", res.Ticker, "Name", res.Name)
		if res.Score == nil {
			PrintWarning(w, "Not scored yet")
		} else {
			s := res.Score
			fmt.Fprintf(w, "  Total         : %.1f\n", s.Total)
			fmt.Fprintf(w, "  Scale         : %.1f\n", s.Scale)
			fmt.Fprintf(w, "  Growth        : %.1f\n", s.Growth)
			fmt.Fprintf(w, "  Profitability : %.1f\n", s.Profitability)
			fmt.Fprintf(w, "  Sentiment     : %.1f\n", s.Sentiment)
			fmt.Fprintf(w, "  Data quality  : %.2f\n", s.DataQuality)
			if res.LimitedData {
				PrintWarning(w, "Limited data")
			}
		}

		if len(res.Sectors) > 0 {
			fmt.Fprintln(w, separator)
			for _, m := range res.Sectors {
				fmt.Fprintf(w, "   • %s\n", m.SectorID)
			}
		}

		if len(res.History) > 0 {
			fmt.Fprintln(w, separator)
			widths := []int{10, 8, 8}
			PrintTableHeader(w, []string{"DATE", "RAW", "SMOOTHED"}, widths)
			for _, h := range res.History {
				PrintTableRow(w, []string{
					h.Date,
					fmt.Sprintf("%.1f", h.RawTotalScore),
					fmt.Sprintf("%.1f", h.SmoothedScore),
				}, widths)
			}
		}
		return nil
	})
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ticker := args[0]
	return runQuery(cmd, func(ctx context.Context, a *app) error {
		res, err := a.engine.SimulateScore(ctx, ticker)
		if err != nil {
			return fmt.Errorf("simulate %s: %w", ticker, err)
		}
		if outputJSON {
			return printJSON(res)
		}

		w := os.Stdout
		PrintHeader(w, "Hegemony Score Simulation",
			"Ticker", res.Ticker,
			"Name", res.Name,
			"Alpha", fmt.Sprintf("%.2f", res.Alpha),
		)

		if len(res.Steps) == 0 {
			PrintWarning(w, "No score history")
		} else {
			widths := []int{10, 8, 8, 8, 8}
			PrintTableHeader(w, []string{"DATE", "RAW", "STORED", "REPLAY", "DRIFT"}, widths)
			for _, s := range res.Steps {
				PrintTableRow(w, []string{
					s.Date,
					fmt.Sprintf("%.1f", s.RawTotal),
					fmt.Sprintf("%.2f", s.StoredSmoothed),
					fmt.Sprintf("%.2f", s.ReplayedSmoothed),
					fmt.Sprintf("%+.3f", s.Drift),
				}, widths)
			}
			fmt.Fprintln(w, separator)
			fmt.Fprintf(w, "  Max drift     : %.4f\n", res.MaxDrift)
		}

		if res.Preview == nil {
			PrintWarning(w, "No snapshot at the latest date")
			return nil
		}
		p := res.Preview
		fmt.Fprintln(w, separator)
		fmt.Fprintf(w, "  Next cycle    : %s\n", p.Date)
		fmt.Fprintf(w, "  Scale         : %.1f\n", p.Scale)
		fmt.Fprintf(w, "  Growth        : %.1f\n", p.Growth)
		fmt.Fprintf(w, "  Profitability : %.1f\n", p.Profitability)
		fmt.Fprintf(w, "  Sentiment     : %.1f\n", p.Sentiment)
		fmt.Fprintf(w, "  Raw total     : %.1f\n", p.RawTotal)
		fmt.Fprintf(w, "  Smoothed      : %.1f\n", p.Smoothed)
		if p.LimitedData {
			PrintWarning(w, "Limited data")
		}
		return nil
	})
}
