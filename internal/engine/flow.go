package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/hegemony/internal/contracts"
	"github.com/wonny/hegemony/internal/snapshot"
	"github.com/wonny/hegemony/internal/window"
)

// MoneyFlowQuery selects the sector money-flow view
type MoneyFlowQuery struct {
	Industry string // optional industry id
	Period   int    // trailing days, 0 = methodology default
	Limit    int    // sectors to return, 0 = methodology default
}

// MoneyFlow computes the sector flows of the trailing window, largest first
func (e *Engine) MoneyFlow(ctx context.Context, q MoneyFlowQuery) (contracts.MoneyFlowResult, error) {
	period := clamp(q.Period, e.method.Flow.DefaultPeriodDays, window.MinPeriodDays, window.MaxPeriodDays)
	limit := clamp(q.Limit, e.method.Flow.DefaultLimit, 1, e.method.Flow.MaxLimit)

	res, err := func() (contracts.MoneyFlowResult, error) {
		idx, w, err := e.hierarchyAndWindow(ctx, e.trailing(period))
		if err != nil {
			return contracts.MoneyFlowResult{}, err
		}
		filter, err := filterFor(idx, q.Industry)
		if err != nil {
			return contracts.MoneyFlowResult{}, err
		}
		snaps, err := e.loadRange(ctx, OpMoneyFlow, idx.TickersIn(filter), w)
		if err != nil {
			return contracts.MoneyFlowResult{}, err
		}
		return e.flow.MoneyFlow(idx, filter, snaps, w, limit), nil
	}()

	if err := e.finish(ctx, OpMoneyFlow, res.Empty, err); err != nil {
		return contracts.MoneyFlowResult{}, err
	}
	return res, nil
}

// IndustryFlows computes the deduplicated inflow/outflow of every industry
func (e *Engine) IndustryFlows(ctx context.Context, period int) (contracts.IndustryFlowResult, error) {
	period = clamp(period, e.method.Flow.DefaultPeriodDays, window.MinPeriodDays, window.MaxPeriodDays)

	res, err := func() (contracts.IndustryFlowResult, error) {
		idx, w, err := e.hierarchyAndWindow(ctx, e.trailing(period))
		if err != nil {
			return contracts.IndustryFlowResult{}, err
		}
		snaps, err := e.loadRange(ctx, OpIndustryFlows, idx.TickersIn(nil), w)
		if err != nil {
			return contracts.IndustryFlowResult{}, err
		}
		return e.flow.IndustryFlows(idx, snaps, w), nil
	}()

	if err := e.finish(ctx, OpIndustryFlows, res.Empty, err); err != nil {
		return contracts.IndustryFlowResult{}, err
	}
	return res, nil
}

// SectorCompanies computes the window price move of every member of one sector
func (e *Engine) SectorCompanies(ctx context.Context, sectorID string, period int) (contracts.SectorCompaniesResult, error) {
	period = clamp(period, e.method.Flow.DefaultPeriodDays, window.MinPeriodDays, window.MaxPeriodDays)

	res, err := func() (contracts.SectorCompaniesResult, error) {
		idx, w, err := e.hierarchyAndWindow(ctx, e.trailing(period))
		if err != nil {
			return contracts.SectorCompaniesResult{}, err
		}
		sector, ok := idx.Sector(sectorID)
		if !ok {
			return contracts.SectorCompaniesResult{}, fmt.Errorf("sector %q: %w", sectorID, contracts.ErrNotFound)
		}
		members := idx.CompaniesOf(sectorID)
		tickers := idx.TickersOf(sectorID)

		var (
			companies map[string]contracts.Company
			snaps     *snapshot.Index
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			companies, err = e.companies(gctx, tickers)
			return err
		})
		g.Go(func() (err error) {
			snaps, err = e.loadRange(gctx, OpSectorCompanies, tickers, w)
			return err
		})
		if err := g.Wait(); err != nil {
			return contracts.SectorCompaniesResult{}, err
		}
		return e.flow.SectorCompanies(sector, members, companies, snaps, w), nil
	}()

	if err := e.finish(ctx, OpSectorCompanies, res.Empty, err); err != nil {
		return contracts.SectorCompaniesResult{}, err
	}
	return res, nil
}

// SectorTrends computes every sector's market cap change over the configured periods,
// anchored on the most recent snapshot dates
func (e *Engine) SectorTrends(ctx context.Context, industry string) (contracts.SectorTrendResult, error) {
	trend := e.method.Trend

	res, err := func() (contracts.SectorTrendResult, error) {
		idx, w, err := e.hierarchyAndWindow(ctx, e.recent(trend.LookbackDates))
		if err != nil {
			return contracts.SectorTrendResult{}, err
		}
		filter, err := filterFor(idx, industry)
		if err != nil {
			return contracts.SectorTrendResult{}, err
		}

		anchors := window.PeriodAnchors(w.Dates, trend.Periods)
		snaps := snapshot.New(nil, nil)
		if !w.Degenerate() {
			snaps, err = e.loadDates(ctx, OpSectorTrends, idx.TickersIn(filter), window.AnchorDates(anchors))
			if err != nil {
				return contracts.SectorTrendResult{}, err
			}
		}
		return e.flow.SectorTrends(idx, filter, snaps, w, anchors, trend.SortPeriod()), nil
	}()

	if err := e.finish(ctx, OpSectorTrends, res.Empty, err); err != nil {
		return contracts.SectorTrendResult{}, err
	}
	return res, nil
}

// TrendsQuery selects the statistics trend view
type TrendsQuery struct {
	Type     string   // contracts.TrendTypeSector, TrendTypeCategory or TrendTypeCompany
	Days     int      // trailing days, 0 = methodology default
	IDs      []string // optional series ids (tickers for companies); empty picks the default series
	Industry string   // optional industry id
}

// Trends computes the daily market cap series of sectors, categories or companies.
// Sector views add their growth and category views their latest size. Without ids
// the company view follows the largest companies at the last window date.
func (e *Engine) Trends(ctx context.Context, q TrendsQuery) (contracts.TrendsResult, error) {
	switch q.Type {
	case contracts.TrendTypeSector, contracts.TrendTypeCategory, contracts.TrendTypeCompany:
	default:
		err := fmt.Errorf("trend type %q: %w", q.Type, contracts.ErrInvalidArgument)
		return contracts.TrendsResult{}, e.finish(ctx, OpTrends, false, err)
	}
	days := clamp(q.Days, e.method.Trend.DefaultDays, window.MinPeriodDays, window.MaxPeriodDays)
	limit := e.method.Trend.SeriesLimit

	res, err := func() (contracts.TrendsResult, error) {
		idx, w, err := e.hierarchyAndWindow(ctx, e.trailing(days))
		if err != nil {
			return contracts.TrendsResult{}, err
		}
		filter, err := filterFor(idx, q.Industry)
		if err != nil {
			return contracts.TrendsResult{}, err
		}

		res := contracts.TrendsResult{
			Type:      q.Type,
			DateRange: w.Range(),
			Items:     []contracts.TrendSeries{},
		}
		if w.Degenerate() {
			res.Empty = true
			return res, nil
		}

		tickers := idx.TickersIn(filter)
		if q.Type == contracts.TrendTypeCompany && len(q.IDs) > 0 {
			tickers = q.IDs
		}
		snaps, err := e.loadRange(ctx, OpTrends, tickers, w)
		if err != nil {
			return contracts.TrendsResult{}, err
		}
		switch q.Type {
		case contracts.TrendTypeSector:
			res.Items = e.flow.SectorSeries(idx, filter, snaps, w.Dates, q.IDs, limit)
			res.SectorGrowth = e.flow.SectorGrowth(idx, filter, snaps, w)
		case contracts.TrendTypeCategory:
			res.Items = e.flow.CategorySeries(idx, filter, snaps, w.Dates, q.IDs, limit)
			res.Categories = e.flow.CategoryMarketCaps(idx, filter, snaps, w.Last())
		case contracts.TrendTypeCompany:
			if len(q.IDs) == 0 {
				tickers = e.flow.TopByMarketCap(snaps, tickers, w.Last(), limit)
			}
			companies, err := e.companies(ctx, tickers)
			if err != nil {
				return contracts.TrendsResult{}, err
			}
			res.Items = e.flow.CompanySeries(snaps, tickers, companies, w.Dates)
		}
		res.Empty = len(res.Items) == 0
		return res, nil
	}()

	if err := e.finish(ctx, OpTrends, res.Empty, err); err != nil {
		return contracts.TrendsResult{}, err
	}
	return res, nil
}

// Industries rolls up every industry at the latest snapshot date and its change
// against the previous one
func (e *Engine) Industries(ctx context.Context) (contracts.IndustriesResult, error) {
	res, err := func() (contracts.IndustriesResult, error) {
		idx, w, err := e.hierarchyAndWindow(ctx, e.recent(2))
		if err != nil {
			return contracts.IndustriesResult{}, err
		}

		latest, prev := w.Last(), ""
		if !w.Degenerate() {
			prev = w.First()
		}
		snaps, err := e.loadDates(ctx, OpIndustries, idx.TickersIn(nil), w.Dates)
		if err != nil {
			return contracts.IndustriesResult{}, err
		}
		return e.flow.IndustryOverviews(idx, snaps, latest, prev), nil
	}()

	if err := e.finish(ctx, OpIndustries, len(res.Industries) == 0, err); err != nil {
		return contracts.IndustriesResult{}, err
	}
	return res, nil
}

// companies reads the master rows of tickers keyed by ticker
func (e *Engine) companies(ctx context.Context, tickers []string) (map[string]contracts.Company, error) {
	rows, err := e.store.Companies(ctx, tickers)
	if err != nil {
		return nil, wrapRead("companies", err)
	}
	out := make(map[string]contracts.Company, len(rows))
	for _, c := range rows {
		out[c.Ticker] = c
	}
	return out, nil
}
