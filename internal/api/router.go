package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/hegemony/internal/api/handlers"
	"github.com/wonny/hegemony/internal/metrics"
	"github.com/wonny/hegemony/pkg/logger"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// RouterConfig carries everything the router wires together
type RouterConfig struct {
	Statistics     *handlers.StatisticsHandler
	Scores         *handlers.ScoreHandler
	Metrics        *metrics.Metrics // nil disables /metrics
	Health         map[string]HealthChecker
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(cfg RouterConfig, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler(cfg.Health)).Methods("GET")
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Statistics
	stats := cfg.Statistics
	api.HandleFunc("/statistics/money-flow", stats.GetMoneyFlow).Methods("GET")
	api.HandleFunc("/statistics/money-flow/industries", stats.GetIndustryFlows).Methods("GET")
	api.HandleFunc("/statistics/money-flow/{sectorId}/companies", stats.GetSectorCompanies).Methods("GET")
	api.HandleFunc("/statistics/sector-trend", stats.GetSectorTrend).Methods("GET")
	api.HandleFunc("/statistics/trends", stats.GetTrends).Methods("GET")
	api.HandleFunc("/statistics/price-changes", stats.GetPriceChanges).Methods("GET")
	api.HandleFunc("/statistics/companies", stats.GetCompanyStatistics).Methods("GET")
	api.HandleFunc("/industries", stats.GetIndustries).Methods("GET")

	// Map and detail views
	api.HandleFunc("/map", stats.GetHegemonyMap).Methods("GET")
	api.HandleFunc("/sector/{sectorId}", stats.GetSectorDetail).Methods("GET")
	api.HandleFunc("/company/{ticker}", stats.GetCompanyDetail).Methods("GET")

	// Scores
	api.HandleFunc("/sectors/{sectorId}/ranking", cfg.Scores.GetSectorRanking).Methods("GET")
	api.HandleFunc("/company/{ticker}/score", cfg.Scores.GetCompanyScore).Methods("GET")

	api.Use(rateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	api.Use(timeoutMiddleware(cfg.RequestTimeout))

	// Apply middleware
	r.Use(requestIDMiddleware)
	r.Use(metricsMiddleware(cfg.Metrics))
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler pings every dependency and answers 503 when one is down
func healthCheckHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, c := range checks {
			if err := c.Ping(ctx); err != nil {
				deps[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		writeJSON(w, status, map[string]interface{}{
			"status":       state,
			"service":      logger.ServiceName,
			"dependencies": deps,
		})
	}
}
