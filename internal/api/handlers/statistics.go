package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/hegemony/internal/contracts"
	"github.com/wonny/hegemony/internal/engine"
	"github.com/wonny/hegemony/internal/methodology"
	"github.com/wonny/hegemony/internal/metrics"
	"github.com/wonny/hegemony/pkg/logger"
	"github.com/wonny/hegemony/pkg/redis"
)

// Service is the engine surface the handlers call
type Service interface {
	MoneyFlow(ctx context.Context, q engine.MoneyFlowQuery) (contracts.MoneyFlowResult, error)
	IndustryFlows(ctx context.Context, period int) (contracts.IndustryFlowResult, error)
	SectorCompanies(ctx context.Context, sectorID string, period int) (contracts.SectorCompaniesResult, error)
	SectorTrends(ctx context.Context, industry string) (contracts.SectorTrendResult, error)
	Trends(ctx context.Context, q engine.TrendsQuery) (contracts.TrendsResult, error)
	Industries(ctx context.Context) (contracts.IndustriesResult, error)
	SectorRanking(ctx context.Context, sectorID string) (contracts.SectorRankingResult, error)
	CompanyScore(ctx context.Context, ticker string) (contracts.CompanyScoreResult, error)
	HegemonyMap(ctx context.Context, q engine.MapQuery) (contracts.HegemonyMapResult, error)
	SectorDetail(ctx context.Context, sectorID string) (contracts.SectorDetailResult, error)
	CompanyDetail(ctx context.Context, ticker string) (contracts.CompanyDetailResult, error)
	PriceChanges(ctx context.Context, q engine.PriceChangesQuery) (contracts.PriceChangesResult, error)
	CompanyStatistics(ctx context.Context, q engine.CompanyStatsQuery) (contracts.CompanyStatisticsResult, error)
	Methodology() *methodology.Config
}

// StatisticsHandler serves the money-flow and market cap statistics views
// ⭐ SSOT: 통계 API 핸들러는 이 구조체에서만
type StatisticsHandler struct {
	svc     Service
	cache   *redis.Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewStatisticsHandler creates the statistics handler. A nil cache disables caching.
func NewStatisticsHandler(svc Service, cache *redis.Cache, ttl time.Duration, m *metrics.Metrics, log *logger.Logger) *StatisticsHandler {
	if cache == nil {
		cache = redis.NewCache(nil, "")
	}
	return &StatisticsHandler{
		svc:     svc,
		cache:   cache,
		ttl:     ttl,
		metrics: m,
		logger:  log.WithComponent("api"),
	}
}

// GetMoneyFlow returns the sector money flows
// GET /api/statistics/money-flow?period=14&limit=6&industry=ai
func (h *StatisticsHandler) GetMoneyFlow(w http.ResponseWriter, r *http.Request) {
	industry, ok := industryParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid industry ID")
		return
	}
	flowCfg := h.svc.Methodology().Flow
	q := engine.MoneyFlowQuery{
		Industry: industry,
		Period:   periodParam(r, flowCfg.DefaultPeriodDays),
		Limit:    limitParam(r, flowCfg.DefaultLimit, flowCfg.MaxLimit),
	}

	key := fmt.Sprintf("money-flow:%d:%d:%s", q.Period, q.Limit, q.Industry)
	h.cached(w, r, key, func(ctx context.Context) (interface{}, error) {
		return h.svc.MoneyFlow(ctx, q)
	})
}

// GetIndustryFlows returns the inflow/outflow of every industry
// GET /api/statistics/money-flow/industries?period=14
func (h *StatisticsHandler) GetIndustryFlows(w http.ResponseWriter, r *http.Request) {
	period := periodParam(r, h.svc.Methodology().Flow.DefaultPeriodDays)

	key := fmt.Sprintf("industry-flows:%d", period)
	h.cached(w, r, key, func(ctx context.Context) (interface{}, error) {
		return h.svc.IndustryFlows(ctx, period)
	})
}

// GetSectorCompanies returns the window price move of each company of a sector
// GET /api/statistics/money-flow/{sectorId}/companies?period=14
func (h *StatisticsHandler) GetSectorCompanies(w http.ResponseWriter, r *http.Request) {
	sectorID := mux.Vars(r)["sectorId"]
	if !validSectorID(sectorID) {
		respondError(w, http.StatusBadRequest, "Invalid sector ID")
		return
	}
	period := periodParam(r, h.svc.Methodology().Flow.DefaultPeriodDays)

	key := fmt.Sprintf("sector-companies:%s:%d", sectorID, period)
	h.cached(w, r, key, func(ctx context.Context) (interface{}, error) {
		return h.svc.SectorCompanies(ctx, sectorID, period)
	})
}

// GetSectorTrend returns every sector's market cap change over the trend periods
// GET /api/statistics/sector-trend?industry=ai
func (h *StatisticsHandler) GetSectorTrend(w http.ResponseWriter, r *http.Request) {
	industry, ok := industryParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid industry ID")
		return
	}

	key := "sector-trend:" + industry
	h.cached(w, r, key, func(ctx context.Context) (interface{}, error) {
		return h.svc.SectorTrends(ctx, industry)
	})
}

// GetTrends returns market cap series of sectors, categories or companies
// GET /api/statistics/trends?type=sector|category|company&days=30|all&ids=a,b&industry=ai
func (h *StatisticsHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	industry, ok := industryParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid industry ID")
		return
	}

	q := engine.TrendsQuery{
		Type:     trendType(r.URL.Query().Get("type")),
		Days:     daysParam(r, h.svc.Methodology().Trend.DefaultDays),
		IDs:      idsParam(r),
		Industry: industry,
	}

	key := fmt.Sprintf("trends:%s:%d:%s:%s", q.Type, q.Days, q.Industry, strings.Join(q.IDs, ","))
	h.cached(w, r, key, func(ctx context.Context) (interface{}, error) {
		return h.svc.Trends(ctx, q)
	})
}

// trendType defaults a missing or unknown type to sectors
func trendType(raw string) string {
	switch raw {
	case contracts.TrendTypeCategory, contracts.TrendTypeCompany:
		return raw
	default:
		return contracts.TrendTypeSector
	}
}

// GetIndustries returns the market cap rollup of every industry
// GET /api/industries
func (h *StatisticsHandler) GetIndustries(w http.ResponseWriter, r *http.Request) {
	h.cached(w, r, "industries", func(ctx context.Context) (interface{}, error) {
		return h.svc.Industries(ctx)
	})
}

// cached answers from the response cache or computes and stores the result.
// A cache failure is logged and counted; the computed result is still served.
func (h *StatisticsHandler) cached(w http.ResponseWriter, r *http.Request, key string, compute func(context.Context) (interface{}, error)) {
	ctx := r.Context()
	res, err := h.cache.GetOrSet(ctx, key, h.ttl, func() (interface{}, error) {
		return compute(ctx)
	})
	if err != nil {
		respondEngineError(w, h.logger, err)
		return
	}

	if res.Err != nil {
		h.logger.WithField("key", key).WithError(res.Err).Warn("response cache unavailable")
	}
	h.metrics.CacheLookup(res.Result)
	respondRaw(w, res.Data)
}
