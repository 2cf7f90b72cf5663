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

// volumeAverageDates is the number of recent snapshot dates averaged for the volume ratio
const volumeAverageDates = 20

// SimulateScore replays the stored score history of one company through the smoothing
// step and previews the next cycle from the latest snapshots. Nothing is written.
// Fundamentals outside the snapshot table are not read, so those sub-dimensions score half.
func (e *Engine) SimulateScore(ctx context.Context, ticker string) (contracts.ScoreSimulationResult, error) {
	res, err := func() (contracts.ScoreSimulationResult, error) {
		var (
			idx         *hierarchy.Index
			companies   map[string]contracts.Company
			scores      map[string]*contracts.CompanyScore
			history     []contracts.ScoreHistory
			memberships []contracts.SectorCompany
			recent      []string
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
			scores, err = e.companyScores(gctx, tickers)
			return err
		})
		g.Go(func() (err error) {
			history, err = e.store.ScoreHistory(gctx, ticker, e.method.Score.HistoryLimit)
			return wrapRead("score history", err)
		})
		g.Go(func() (err error) {
			memberships, err = e.store.CompanySectors(gctx, ticker)
			return wrapRead("company sectors", err)
		})
		g.Go(func() (err error) {
			recent, err = e.store.RecentDistinctDates(gctx, volumeAverageDates)
			return wrapRead("snapshot dates", err)
		})
		if err := g.Wait(); err != nil {
			return contracts.ScoreSimulationResult{}, err
		}

		company, ok := companies[ticker]
		if !ok {
			return contracts.ScoreSimulationResult{}, fmt.Errorf("company %q: %w", ticker, contracts.ErrNotFound)
		}

		current := scores[ticker]
		var dataQuality float64
		if current != nil {
			if err := e.scores.CheckIntegrity(*current); err != nil {
				return contracts.ScoreSimulationResult{}, err
			}
			dataQuality = current.DataQuality
		}

		steps, replayed, err := e.scores.Replay(history, dataQuality)
		if err != nil {
			return contracts.ScoreSimulationResult{}, err
		}
		res := contracts.ScoreSimulationResult{
			Ticker:   company.Ticker,
			Name:     company.Name,
			Alpha:    e.scores.Alpha(),
			Steps:    steps,
			MaxDrift: score.MaxDrift(steps),
		}
		if len(recent) == 0 {
			return res, nil
		}

		latest := recent[0]
		peers := primaryPeers(idx, memberships)
		snaps, err := e.loadDates(ctx, OpScoreSimulation, append([]string{ticker}, peers...), recent)
		if err != nil {
			return contracts.ScoreSimulationResult{}, err
		}
		if _, ok := snaps.Get(ticker, latest); !ok {
			return res, nil
		}

		prev := current
		if prev == nil {
			prev = replayed
		}
		preview, err := e.scores.Preview(prev, ticker, latest, e.fundamentals(snaps, ticker, latest, peers))
		if err != nil {
			return contracts.ScoreSimulationResult{}, err
		}
		res.Preview = &preview
		return res, nil
	}()

	if err := e.finish(ctx, OpScoreSimulation, res.Preview == nil, err); err != nil {
		return contracts.ScoreSimulationResult{}, err
	}
	return res, nil
}

// primaryPeers returns the members of the sector where the company ranks best
func primaryPeers(idx *hierarchy.Index, memberships []contracts.SectorCompany) []string {
	var primary *contracts.SectorCompany
	for i := range memberships {
		if primary == nil || memberships[i].Rank < primary.Rank {
			primary = &memberships[i]
		}
	}
	if primary == nil {
		return nil
	}
	return idx.TickersOf(primary.SectorID)
}

// fundamentals derives the snapshot-backed score inputs of ticker at latest.
// The average volume runs over every loaded date.
func (e *Engine) fundamentals(snaps *snapshot.Index, ticker, latest string, peers []string) score.Fundamentals {
	var f score.Fundamentals
	cell, _ := snaps.Get(ticker, latest)
	if cell.HasMarketCap() {
		f.MarketCap = contracts.Float(e.fx.ToUSD(cell.MarketCap, ticker))
	}
	if cell.HasVolume() {
		f.Volume = contracts.Float(cell.Volume)
	}
	if cell.HasPrice() {
		f.CurrentPrice = contracts.Float(e.fx.ToUSD(cell.Price, ticker))
	}

	var sum float64
	n := 0
	for _, d := range snaps.Dates() {
		if c, ok := snaps.Get(ticker, d); ok && c.HasVolume() {
			sum += c.Volume
			n++
		}
	}
	if n > 0 {
		f.AvgVolume = contracts.Float(sum / float64(n))
	}

	for _, t := range peers {
		f.SectorTotalMarketCap += e.fx.ToUSD(snaps.MarketCap(t, latest), t)
	}
	return f
}
