package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/hegemony/internal/api"
	"github.com/wonny/hegemony/internal/api/handlers"
	"github.com/wonny/hegemony/pkg/redis"
)

const cachePrefix = "hegemony"

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `읽기 전용 REST API 서버를 시작합니다.

Endpoints:
  GET  /health
  GET  /metrics
  GET  /api/statistics/money-flow?period=14&limit=6&industry=ai
  GET  /api/statistics/money-flow/industries?period=14
  GET  /api/statistics/money-flow/{sectorId}/companies?period=14
  GET  /api/statistics/sector-trend?industry=ai
  GET  /api/statistics/trends?type=sector|category&days=30|all&ids=a,b
  GET  /api/industries
  GET  /api/sectors/{sectorId}/ranking
  GET  /api/company/{ticker}/score

Example:
  go run ./cmd/hegemony api
  go run ./cmd/hegemony api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Hegemony API Server ===")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// 1. Config, logger, database, engine
	a, err := bootstrap(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}
	log := a.log

	// 2. Response cache
	rdb, err := redis.New(ctx, a.cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()
	cache := redis.NewCache(rdb, cachePrefix)

	log.WithFields(map[string]interface{}{
		"redis":     rdb.Enabled(),
		"cache_ttl": a.cfg.API.CacheTTL.String(),
	}).Info("Response cache configured")

	// 3. Handlers and router
	router := api.NewRouter(api.RouterConfig{
		Statistics: handlers.NewStatisticsHandler(a.engine, cache, a.cfg.API.CacheTTL, a.metrics, log),
		Scores:     handlers.NewScoreHandler(a.engine, log),
		Metrics:    a.metrics,
		Health: map[string]api.HealthChecker{
			"database": a.db,
			"redis":    rdb,
		},
		RequestTimeout: a.cfg.Engine.RequestTimeout,
		RateLimitRPS:   a.cfg.API.RateLimitRPS,
		RateLimitBurst: a.cfg.API.RateLimitBurst,
	}, log)

	// 4. Server with graceful shutdown
	server := api.New(a.cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
