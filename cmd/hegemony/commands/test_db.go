package commands

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/hegemony/internal/store"
	"github.com/wonny/hegemony/pkg/config"
	"github.com/wonny/hegemony/pkg/database"
)

// testDBCmd represents the test-db command
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "PostgreSQL 연결 테스트",
	Long: `데이터베이스 연결과 읽기 전용 세션을 점검합니다.

점검 단계:
- DATABASE_URL 로드 및 연결
- Health Check (응답 시간)
- 스냅샷 날짜 / 계층 테이블 조회
- Connection Pool 통계

Example:
  go run ./cmd/hegemony test-db`,
	RunE: runTestDB,
}

func init() {
	rootCmd.AddCommand(testDBCmd)
}

// dbCheck is one named step of the connection test
type dbCheck struct {
	name string
	run  func(ctx context.Context) (string, error)
}

func runTestDB(cmd *cobra.Command, args []string) error {
	w := os.Stdout

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	PrintHeader(w, "Database Connection Test",
		"Env", cfg.Env,
		"URL", maskPassword(cfg.Database.URL),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	PrintSuccess(w, "Connected (read-only session)")

	repo := store.NewRepository(db.Pool)
	checks := []dbCheck{
		{"health", func(ctx context.Context) (string, error) {
			status, err := db.HealthCheck(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("responded in %v", status.ResponseTime), nil
		}},
		{"snapshots", func(ctx context.Context) (string, error) {
			dates, err := repo.RecentDistinctDates(ctx, 2)
			if err != nil {
				return "", err
			}
			if len(dates) == 0 {
				return "daily_snapshots is empty", nil
			}
			return "latest " + dates[0], nil
		}},
		{"hierarchy", func(ctx context.Context) (string, error) {
			industries, err := repo.Industries(ctx)
			if err != nil {
				return "", err
			}
			sectors, err := repo.Sectors(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d industries, %d sectors", len(industries), len(sectors)), nil
		}},
	}

	for _, c := range checks {
		detail, err := c.run(ctx)
		if err != nil {
			return fmt.Errorf("%s check: %w", c.name, err)
		}
		PrintSuccess(w, fmt.Sprintf("%-10s %s", c.name, detail))
	}

	s := db.Stats()
	fmt.Fprintln(w, separator)
	widths := []int{10, 10, 10, 10, 14}
	PrintTableHeader(w, []string{"MAX", "TOTAL", "ACQUIRED", "IDLE", "ACQUIRE WAIT"}, widths)
	PrintTableRow(w, []string{
		fmt.Sprint(s.MaxConns),
		fmt.Sprint(s.TotalConns),
		fmt.Sprint(s.AcquiredConns),
		fmt.Sprint(s.IdleConns),
		s.AcquireDuration.String(),
	}, widths)

	fmt.Fprintln(w)
	PrintSuccess(w, "All checks passed")
	return nil
}

// maskPassword hides the password of a database URL for display
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	u.User = url.UserPassword(u.User.Username(), "***")
	return u.String()
}
