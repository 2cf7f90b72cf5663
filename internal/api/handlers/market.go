package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/hegemony/internal/contracts"
	"github.com/wonny/hegemony/internal/engine"
)

// GetHegemonyMap returns the hierarchy map at one snapshot date
// GET /api/map?date=2024-06-03&industry=ai
func (h *StatisticsHandler) GetHegemonyMap(w http.ResponseWriter, r *http.Request) {
	industry, ok := industryParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid industry ID")
		return
	}
	q := engine.MapQuery{Date: dateParam(r), Industry: industry}

	key := fmt.Sprintf("map:%s:%s", q.Date, q.Industry)
	h.cached(w, r, key, func(ctx context.Context) (interface{}, error) {
		return h.svc.HegemonyMap(ctx, q)
	})
}

// GetSectorDetail returns one sector with its members and their latest snapshot
// GET /api/sector/{sectorId}
func (h *StatisticsHandler) GetSectorDetail(w http.ResponseWriter, r *http.Request) {
	sectorID := mux.Vars(r)["sectorId"]
	if !validSectorID(sectorID) {
		respondError(w, http.StatusBadRequest, "Invalid sector ID")
		return
	}

	h.cached(w, r, "sector:"+sectorID, func(ctx context.Context) (interface{}, error) {
		return h.svc.SectorDetail(ctx, sectorID)
	})
}

// GetCompanyDetail returns the profile, latest valuation, price history and sectors of a company
// GET /api/company/{ticker}
func (h *StatisticsHandler) GetCompanyDetail(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	if !validTicker(ticker) {
		respondError(w, http.StatusBadRequest, "Invalid ticker")
		return
	}

	h.cached(w, r, "company:"+ticker, func(ctx context.Context) (interface{}, error) {
		return h.svc.CompanyDetail(ctx, ticker)
	})
}

// GetPriceChanges returns every company's move between its first and latest snapshot
// GET /api/statistics/price-changes?sort=percentChange|name|marketCap&order=desc|asc&industry=ai
func (h *StatisticsHandler) GetPriceChanges(w http.ResponseWriter, r *http.Request) {
	industry, ok := industryParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid industry ID")
		return
	}
	q := engine.PriceChangesQuery{
		Industry: industry,
		Sort:     sortParam(r, contracts.SortPercentChange, contracts.SortPercentChange, contracts.SortName, contracts.SortMarketCap),
		Order:    orderParam(r),
	}

	key := fmt.Sprintf("price-changes:%s:%s:%s", q.Sort, q.Order, q.Industry)
	h.cached(w, r, key, func(ctx context.Context) (interface{}, error) {
		return h.svc.PriceChanges(ctx, q)
	})
}

// GetCompanyStatistics returns one page of sector membership counts per company
// GET /api/statistics/companies?sort=count|marketCap|name&order=desc|asc&page=1&limit=20&industry=ai
func (h *StatisticsHandler) GetCompanyStatistics(w http.ResponseWriter, r *http.Request) {
	industry, ok := industryParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid industry ID")
		return
	}
	q := engine.CompanyStatsQuery{
		Industry: industry,
		Sort:     sortParam(r, contracts.SortCount, contracts.SortCount, contracts.SortMarketCap, contracts.SortName),
		Order:    orderParam(r),
		Page:     pageParam(r),
		Limit:    limitParam(r, companyStatsLimit, companyStatsMaxLimit),
	}

	key := fmt.Sprintf("company-stats:%s:%s:%d:%d:%s", q.Sort, q.Order, q.Page, q.Limit, q.Industry)
	h.cached(w, r, key, func(ctx context.Context) (interface{}, error) {
		return h.svc.CompanyStatistics(ctx, q)
	})
}
