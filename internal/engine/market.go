package engine

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/hegemony/internal/contracts"
	"github.com/wonny/hegemony/internal/flow"
	"github.com/wonny/hegemony/internal/hierarchy"
	"github.com/wonny/hegemony/internal/snapshot"
)

const (
	// mapDateLimit bounds the selectable snapshot dates of the hierarchy map
	mapDateLimit = 365
	// priceHistoryLimit is the number of daily rows on the company detail chart
	priceHistoryLimit = 30

	companyStatsDefaultLimit = 20
	companyStatsMaxLimit     = 100
)

// MapQuery selects the hierarchy map view
type MapQuery struct {
	Date     string // optional snapshot date; unknown dates fall back to the latest
	Industry string // optional industry id
}

// HegemonyMap places every sector member at the selected snapshot date together with
// its score. An integrity violation on any member fails the map.
func (e *Engine) HegemonyMap(ctx context.Context, q MapQuery) (contracts.HegemonyMapResult, error) {
	res, err := func() (contracts.HegemonyMapResult, error) {
		var (
			idx       *hierarchy.Index
			available []string
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			idx, err = e.loadHierarchy(gctx)
			return err
		})
		g.Go(func() (err error) {
			available, err = e.store.RecentDistinctDates(gctx, mapDateLimit)
			return wrapRead("snapshot dates", err)
		})
		if err := g.Wait(); err != nil {
			return contracts.HegemonyMapResult{}, err
		}

		filter, err := filterFor(idx, q.Industry)
		if err != nil {
			return contracts.HegemonyMapResult{}, err
		}

		in := flow.MapInput{Filter: filter, Available: available}
		var dates []string
		if len(available) > 0 {
			in.Latest, in.Selected = available[0], available[0]
			if q.Date != "" && slices.Contains(available, q.Date) {
				in.Selected = q.Date
			}
			dates = []string{in.Selected}
			if in.Selected != in.Latest {
				dates = append(dates, in.Latest)
			}
		}

		tickers := idx.TickersIn(filter)
		var snaps *snapshot.Index
		g, gctx = errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			in.Companies, err = e.companies(gctx, tickers)
			return err
		})
		g.Go(func() (err error) {
			in.Scores, err = e.scoreSummaries(gctx, tickers)
			return err
		})
		g.Go(func() (err error) {
			snaps, err = e.loadDates(gctx, OpHegemonyMap, tickers, dates)
			return err
		})
		if err := g.Wait(); err != nil {
			return contracts.HegemonyMapResult{}, err
		}
		return e.flow.HegemonyMap(idx, snaps, in), nil
	}()

	if err := e.finish(ctx, OpHegemonyMap, res.Empty, err); err != nil {
		return contracts.HegemonyMapResult{}, err
	}
	return res, nil
}

// SectorDetail lists the members of one sector with their latest snapshot and score
func (e *Engine) SectorDetail(ctx context.Context, sectorID string) (contracts.SectorDetailResult, error) {
	res, err := func() (contracts.SectorDetailResult, error) {
		idx, err := e.loadHierarchy(ctx)
		if err != nil {
			return contracts.SectorDetailResult{}, err
		}
		sector, ok := idx.Sector(sectorID)
		if !ok {
			return contracts.SectorDetailResult{}, fmt.Errorf("sector %q: %w", sectorID, contracts.ErrNotFound)
		}
		tickers := idx.TickersOf(sectorID)

		var (
			companies map[string]contracts.Company
			scores    map[string]*contracts.ScoreSummary
			latest    *snapshot.Index
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			companies, err = e.companies(gctx, tickers)
			return err
		})
		g.Go(func() (err error) {
			scores, err = e.scoreSummaries(gctx, tickers)
			return err
		})
		g.Go(func() (err error) {
			latest, err = e.latestSnapshots(gctx, OpSectorDetail, tickers)
			return err
		})
		if err := g.Wait(); err != nil {
			return contracts.SectorDetailResult{}, err
		}
		return e.flow.SectorDetail(idx, sector, companies, scores, latest), nil
	}()

	if err := e.finish(ctx, OpSectorDetail, len(res.Companies) == 0, err); err != nil {
		return contracts.SectorDetailResult{}, err
	}
	return res, nil
}

// CompanyDetail assembles the profile, latest valuation, recent prices and sector
// memberships of one company
func (e *Engine) CompanyDetail(ctx context.Context, ticker string) (contracts.CompanyDetailResult, error) {
	res, err := func() (contracts.CompanyDetailResult, error) {
		var (
			idx         *hierarchy.Index
			companies   map[string]contracts.Company
			profile     *contracts.CompanyProfile
			detail      *contracts.SnapshotDetail
			history     []contracts.DailySnapshot
			memberships []contracts.SectorCompany
		)
		tickers := []string{ticker}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			idx, err = e.loadHierarchy(gctx)
			return err
		})
		g.Go(func() (err error) {
			companies, err = e.companies(gctx, tickers)
			return err
		})
		g.Go(func() (err error) {
			profile, err = e.store.CompanyProfile(gctx, ticker)
			return wrapRead("company profile", err)
		})
		g.Go(func() (err error) {
			detail, err = e.store.LatestSnapshotDetail(gctx, ticker)
			return wrapRead("snapshot detail", err)
		})
		g.Go(func() (err error) {
			history, err = e.store.TickerSnapshots(gctx, ticker, priceHistoryLimit)
			return wrapRead("price history", err)
		})
		g.Go(func() (err error) {
			memberships, err = e.store.CompanySectors(gctx, ticker)
			return wrapRead("company sectors", err)
		})
		if err := g.Wait(); err != nil {
			return contracts.CompanyDetailResult{}, err
		}

		company, ok := companies[ticker]
		if !ok {
			return contracts.CompanyDetailResult{}, fmt.Errorf("company %q: %w", ticker, contracts.ErrNotFound)
		}
		e.metrics.SnapshotRows(OpCompanyDetail, len(history))
		return e.flow.CompanyDetail(idx, company, profile, detail, history, memberships), nil
	}()

	if err := e.finish(ctx, OpCompanyDetail, res.Snapshot == nil, err); err != nil {
		return contracts.CompanyDetailResult{}, err
	}
	return res, nil
}

// PriceChangesQuery selects the price change view
type PriceChangesQuery struct {
	Industry string // optional industry id
	Sort     string // contracts.SortPercentChange (default), SortName or SortMarketCap
	Order    string // contracts.OrderDesc (default) or OrderAsc
}

// PriceChanges computes every ticker's price move between its first and latest snapshot.
// Without an industry every ticker with a snapshot is included.
func (e *Engine) PriceChanges(ctx context.Context, q PriceChangesQuery) (contracts.PriceChangesResult, error) {
	res, err := func() (contracts.PriceChangesResult, error) {
		tickers, err := e.priceChangeTickers(ctx, q.Industry)
		if err != nil {
			return contracts.PriceChangesResult{}, err
		}
		if len(tickers) == 0 {
			return e.flow.PriceChanges(nil, nil, snapshot.New(nil, nil), q.Sort, q.Order), nil
		}

		var (
			companies map[string]contracts.Company
			bounds    []contracts.SnapshotBounds
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			companies, err = e.companies(gctx, tickers)
			return err
		})
		g.Go(func() (err error) {
			bounds, err = e.store.SnapshotBounds(gctx, tickers)
			return wrapRead("snapshot bounds", err)
		})
		if err := g.Wait(); err != nil {
			return contracts.PriceChangesResult{}, err
		}

		snaps, err := e.loadDates(ctx, OpPriceChanges, tickers, boundDates(bounds))
		if err != nil {
			return contracts.PriceChangesResult{}, err
		}
		return e.flow.PriceChanges(bounds, companies, snaps, q.Sort, q.Order), nil
	}()

	if err := e.finish(ctx, OpPriceChanges, res.Empty, err); err != nil {
		return contracts.PriceChangesResult{}, err
	}
	return res, nil
}

func (e *Engine) priceChangeTickers(ctx context.Context, industry string) ([]string, error) {
	if industry == "" {
		tickers, err := e.store.SnapshotTickers(ctx)
		return tickers, wrapRead("snapshot tickers", err)
	}
	idx, err := e.loadHierarchy(ctx)
	if err != nil {
		return nil, err
	}
	filter, err := filterFor(idx, industry)
	if err != nil {
		return nil, err
	}
	return idx.TickersIn(filter), nil
}

// CompanyStatsQuery selects one page of the company statistics view
type CompanyStatsQuery struct {
	Industry string // optional industry id
	Sort     string // contracts.SortCount (default), SortMarketCap or SortName
	Order    string // contracts.OrderDesc (default) or OrderAsc
	Page     int    // 1-based, 0 = first page
	Limit    int    // page size, 0 = default
}

// CompanyStatistics counts how many sectors each company belongs to
func (e *Engine) CompanyStatistics(ctx context.Context, q CompanyStatsQuery) (contracts.CompanyStatisticsResult, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := clamp(q.Limit, companyStatsDefaultLimit, 1, companyStatsMaxLimit)

	res, err := func() (contracts.CompanyStatisticsResult, error) {
		idx, err := e.loadHierarchy(ctx)
		if err != nil {
			return contracts.CompanyStatisticsResult{}, err
		}
		filter, err := filterFor(idx, q.Industry)
		if err != nil {
			return contracts.CompanyStatisticsResult{}, err
		}
		tickers := idx.TickersIn(filter)

		var (
			companies map[string]contracts.Company
			latest    *snapshot.Index
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			companies, err = e.companies(gctx, tickers)
			return err
		})
		g.Go(func() (err error) {
			latest, err = e.latestSnapshots(gctx, OpCompanyStatistics, tickers)
			return err
		})
		if err := g.Wait(); err != nil {
			return contracts.CompanyStatisticsResult{}, err
		}
		return e.flow.CompanyStatistics(idx, filter, companies, latest, q.Sort, q.Order, page, limit), nil
	}()

	if err := e.finish(ctx, OpCompanyStatistics, res.Total == 0, err); err != nil {
		return contracts.CompanyStatisticsResult{}, err
	}
	return res, nil
}

// latestSnapshots indexes the most recent row of each ticker
func (e *Engine) latestSnapshots(ctx context.Context, op string, tickers []string) (*snapshot.Index, error) {
	rows, err := e.store.LatestSnapshots(ctx, tickers)
	if err != nil {
		return nil, wrapRead("latest snapshots", err)
	}
	idx := snapshot.FromRows(tickers, rows)
	e.metrics.SnapshotRows(op, idx.Rows())
	return idx, nil
}

// scoreSummaries reads the score rows of tickers as presentation records.
// Any integrity violation fails the read.
func (e *Engine) scoreSummaries(ctx context.Context, tickers []string) (map[string]*contracts.ScoreSummary, error) {
	scores, err := e.companyScores(ctx, tickers)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*contracts.ScoreSummary, len(scores))
	for t, cs := range scores {
		if err := e.scores.CheckIntegrity(*cs); err != nil {
			return nil, err
		}
		if s := e.scores.Summary(cs); s != nil {
			out[t] = s
		}
	}
	return out, nil
}

// boundDates returns the distinct first and last dates of bounds, ascending
func boundDates(bounds []contracts.SnapshotBounds) []string {
	var dates []string
	for _, b := range bounds {
		dates = append(dates, b.First, b.Last)
	}
	slices.Sort(dates)
	return slices.Compact(dates)
}
