package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/hegemony/internal/contracts"
	"github.com/wonny/hegemony/internal/engine"
)

var (
	flowPeriod   int
	flowLimit    int
	flowIndustry string
	outputJSON   bool
)

// flowCmd represents the flow command
var flowCmd = &cobra.Command{
	Use:   "flow",
	Short: "섹터 자금 흐름 조회",
	Long: `기간 내 섹터별 시가총액 변화(자금 유입/유출)를 계산합니다.

Example:
  go run ./cmd/hegemony flow
  go run ./cmd/hegemony flow --period 30 --limit 10 --industry ai`,
	RunE: runFlow,
}

// industryFlowCmd represents the industry-flow command
var industryFlowCmd = &cobra.Command{
	Use:   "industry-flow",
	Short: "산업별 자금 흐름 조회",
	Long: `기간 내 산업별 유입/유출/순유입을 계산합니다.

Example:
  go run ./cmd/hegemony industry-flow --period 7`,
	RunE: runIndustryFlow,
}

// sectorTrendCmd represents the sector-trend command
var sectorTrendCmd = &cobra.Command{
	Use:   "sector-trend",
	Short: "섹터 다기간 추세 조회",
	Long: `설정된 모든 추세 기간(기본 1/3/7/14/30 거래일)에 대한 섹터별 시가총액 변화율을 계산합니다.

Example:
  go run ./cmd/hegemony sector-trend --industry ai`,
	RunE: runSectorTrend,
}

func init() {
	rootCmd.AddCommand(flowCmd)
	rootCmd.AddCommand(industryFlowCmd)
	rootCmd.AddCommand(sectorTrendCmd)

	// Flags
	flowCmd.Flags().IntVar(&flowPeriod, "period", 0, "기간 (일, default methodology)")
	flowCmd.Flags().IntVar(&flowLimit, "limit", 0, "섹터 수 (default methodology)")
	flowCmd.Flags().StringVar(&flowIndustry, "industry", "", "산업 ID 필터")
	industryFlowCmd.Flags().IntVar(&flowPeriod, "period", 0, "기간 (일, default methodology)")
	sectorTrendCmd.Flags().StringVar(&flowIndustry, "industry", "", "산업 ID 필터")

	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "JSON으로 출력")
}

// runQuery bootstraps the engine, runs fn under the request timeout and closes everything
func runQuery(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := bootstrap(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	qctx, cancel := a.requestContext(ctx)
	defer cancel()
	return fn(qctx, a)
}

// printJSON writes v indented to stdout
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runFlow(cmd *cobra.Command, args []string) error {
	return runQuery(cmd, func(ctx context.Context, a *app) error {
		res, err := a.engine.MoneyFlow(ctx, engine.MoneyFlowQuery{
			Industry: flowIndustry,
			Period:   flowPeriod,
			Limit:    flowLimit,
		})
		if err != nil {
			return fmt.Errorf("money flow: %w", err)
		}
		if outputJSON {
			return printJSON(res)
		}
		printMoneyFlow(res)
		return nil
	})
}

func printMoneyFlow(res contracts.MoneyFlowResult) {
	w := os.Stdout
	PrintHeader(w, "Sector Money Flow",
		"Period", fmt.Sprintf("%d days", res.Period),
		"Range", fmt.Sprintf("%s ~ %s", res.DateRange.Start, res.DateRange.End),
		"Industry", orAll(flowIndustry),
	)
	if res.Empty {
		PrintWarning(w, "No snapshot data in window")
		return
	}

	widths := []int{20, 24, 4, 12, 9, 6, 5}
	PrintTableHeader(w, []string{"SECTOR", "NAME", "DIR", "AMOUNT", "CHANGE", "MFI", "COS"}, widths)
	for _, f := range res.Flows {
		PrintTableRow(w, []string{
			truncate(f.ID, 20),
			truncate(f.Name, 24),
			f.FlowDirection,
			FormatUSD(f.FlowAmount),
			FormatPercent(f.FlowPercent),
			FormatOptional(f.MFI, 1),
			strconv.Itoa(f.CompanyCount),
		}, widths)
	}
	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "  Inflow %s  Outflow %s  Net %s\n",
		FormatUSD(res.TotalInflow), FormatUSD(res.TotalOutflow), FormatUSD(res.NetFlow))
}

func runIndustryFlow(cmd *cobra.Command, args []string) error {
	return runQuery(cmd, func(ctx context.Context, a *app) error {
		res, err := a.engine.IndustryFlows(ctx, flowPeriod)
		if err != nil {
			return fmt.Errorf("industry flows: %w", err)
		}
		if outputJSON {
			return printJSON(res)
		}

		w := os.Stdout
		PrintHeader(w, "Industry Money Flow",
			"Period", fmt.Sprintf("%d days", res.Period),
			"Range", fmt.Sprintf("%s ~ %s", res.DateRange.Start, res.DateRange.End),
		)
		if res.Empty {
			PrintWarning(w, "No snapshot data in window")
			return nil
		}

		widths := []int{16, 24, 12, 12, 12, 9}
		PrintTableHeader(w, []string{"INDUSTRY", "NAME", "INFLOW", "OUTFLOW", "NET", "NET %"}, widths)
		for _, f := range res.Industries {
			PrintTableRow(w, []string{
				truncate(f.IndustryID, 16),
				truncate(f.IndustryName, 24),
				FormatUSD(f.TotalInflow),
				FormatUSD(f.TotalOutflow),
				FormatUSD(f.NetFlow),
				FormatPercent(f.NetFlowPercent),
			}, widths)
		}
		return nil
	})
}

func runSectorTrend(cmd *cobra.Command, args []string) error {
	return runQuery(cmd, func(ctx context.Context, a *app) error {
		res, err := a.engine.SectorTrends(ctx, flowIndustry)
		if err != nil {
			return fmt.Errorf("sector trend: %w", err)
		}
		if outputJSON {
			return printJSON(res)
		}

		w := os.Stdout
		PrintHeader(w, "Sector Trend",
			"Range", fmt.Sprintf("%s ~ %s", res.DateRange.Start, res.DateRange.End),
			"Industry", orAll(flowIndustry),
		)
		if res.Empty {
			PrintWarning(w, "No snapshot data in lookback")
			return nil
		}

		columns := []string{"SECTOR", "NAME"}
		widths := []int{20, 24}
		for _, p := range a.method.Trend.Periods {
			columns = append(columns, fmt.Sprintf("%dD", p))
			widths = append(widths, 9)
		}
		PrintTableHeader(w, columns, widths)
		for _, s := range res.Sectors {
			row := []string{truncate(s.ID, 20), truncate(s.Name, 24)}
			for i, p := range s.Periods {
				if i+2 >= len(widths) {
					break
				}
				row = append(row, FormatPercent(p.FlowPercent))
			}
			PrintTableRow(w, row, widths)
		}
		return nil
	})
}

func orAll(industry string) string {
	if industry == "" {
		return "all"
	}
	return industry
}
