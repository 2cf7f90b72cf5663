package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/hegemony/internal/contracts"
	"github.com/wonny/hegemony/internal/hierarchy"
	"github.com/wonny/hegemony/internal/score"
	"github.com/wonny/hegemony/internal/snapshot"
)

// SectorRanking ranks the members of one sector by smoothed score, USD market cap
// breaking ties. An integrity violation on any member fails the whole ranking.
func (e *Engine) SectorRanking(ctx context.Context, sectorID string) (contracts.SectorRankingResult, error) {
	res, err := func() (contracts.SectorRankingResult, error) {
		var (
			idx    *hierarchy.Index
			recent []string
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			idx, err = e.loadHierarchy(gctx)
			return err
		})
		g.Go(func() (err error) {
			recent, err = e.store.RecentDistinctDates(gctx, 1)
			return wrapRead("latest date", err)
		})
		if err := g.Wait(); err != nil {
			return contracts.SectorRankingResult{}, err
		}

		sector, ok := idx.Sector(sectorID)
		if !ok {
			return contracts.SectorRankingResult{}, fmt.Errorf("sector %q: %w", sectorID, contracts.ErrNotFound)
		}
		var latest string
		if len(recent) > 0 {
			latest = recent[0]
		}

		members := idx.CompaniesOf(sectorID)
		tickers := idx.TickersOf(sectorID)
		var (
			companies map[string]contracts.Company
			scores    map[string]*contracts.CompanyScore
			snaps     *snapshot.Index
		)
		g, gctx = errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			companies, err = e.companies(gctx, tickers)
			return err
		})
		g.Go(func() (err error) {
			scores, err = e.companyScores(gctx, tickers)
			return err
		})
		g.Go(func() (err error) {
			var dates []string
			if latest != "" {
				dates = []string{latest}
			}
			snaps, err = e.loadDates(gctx, OpSectorRanking, tickers, dates)
			return err
		})
		if err := g.Wait(); err != nil {
			return contracts.SectorRankingResult{}, err
		}

		cands := make([]score.Candidate, 0, len(members))
		for _, m := range members {
			name := m.Ticker
			if c, ok := companies[m.Ticker]; ok {
				name = c.Name
			}
			cands = append(cands, score.Candidate{
				Ticker:    m.Ticker,
				Name:      name,
				Score:     scores[m.Ticker],
				MarketCap: e.fx.ToUSD(snaps.MarketCap(m.Ticker, latest), m.Ticker),
			})
		}

		ranked, err := e.scores.Rank(cands)
		if err != nil {
			return contracts.SectorRankingResult{}, fmt.Errorf("rank sector %s: %w", sectorID, err)
		}
		return contracts.SectorRankingResult{
			SectorID:   sector.ID,
			SectorName: sector.Name,
			Date:       latest,
			Companies:  ranked,
		}, nil
	}()

	if err := e.finish(ctx, OpSectorRanking, len(res.Companies) == 0, err); err != nil {
		return contracts.SectorRankingResult{}, err
	}
	return res, nil
}

// CompanyScore returns the current score summary of one company with its recent history
func (e *Engine) CompanyScore(ctx context.Context, ticker string) (contracts.CompanyScoreResult, error) {
	res, err := func() (contracts.CompanyScoreResult, error) {
		var (
			companies map[string]contracts.Company
			scores    map[string]*contracts.CompanyScore
			sectors   []contracts.SectorCompany
			history   []contracts.ScoreHistory
		)
		tickers := []string{ticker}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			companies, err = e.companies(gctx, tickers)
			return err
		})
		g.Go(func() (err error) {
			scores, err = e.companyScores(gctx, tickers)
			return err
		})
		g.Go(func() (err error) {
			sectors, err = e.store.CompanySectors(gctx, ticker)
			return wrapRead("company sectors", err)
		})
		g.Go(func() (err error) {
			history, err = e.store.ScoreHistory(gctx, ticker, e.method.Score.HistoryLimit)
			return wrapRead("score history", err)
		})
		if err := g.Wait(); err != nil {
			return contracts.CompanyScoreResult{}, err
		}

		company, ok := companies[ticker]
		if !ok {
			return contracts.CompanyScoreResult{}, fmt.Errorf("company %q: %w", ticker, contracts.ErrNotFound)
		}

		res := contracts.CompanyScoreResult{
			Ticker:      company.Ticker,
			Name:        company.Name,
			LimitedData: true,
			Sectors:     append([]contracts.SectorCompany{}, sectors...),
			History:     append([]contracts.ScoreHistory{}, history...),
		}
		if cs := scores[ticker]; cs != nil {
			if err := e.scores.CheckIntegrity(*cs); err != nil {
				return contracts.CompanyScoreResult{}, err
			}
			res.Score = e.scores.Summary(cs)
			res.LimitedData = e.scores.LimitedData(cs.DataQuality)
		}
		return res, nil
	}()

	if err := e.finish(ctx, OpCompanyScore, res.Score == nil, err); err != nil {
		return contracts.CompanyScoreResult{}, err
	}
	return res, nil
}

func (e *Engine) companyScores(ctx context.Context, tickers []string) (map[string]*contracts.CompanyScore, error) {
	rows, err := e.store.CompanyScores(ctx, tickers)
	if err != nil {
		return nil, wrapRead("company scores", err)
	}
	out := make(map[string]*contracts.CompanyScore, len(rows))
	for i := range rows {
		out[rows[i].Ticker] = &rows[i]
	}
	return out, nil
}
