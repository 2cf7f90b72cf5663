package flow

import (
	"math"
	"sort"

	"github.com/wonny/hegemony/internal/contracts"
	"github.com/wonny/hegemony/internal/currency"
	"github.com/wonny/hegemony/internal/hierarchy"
	"github.com/wonny/hegemony/internal/snapshot"
	"github.com/wonny/hegemony/internal/window"
	"github.com/wonny/hegemony/pkg/logger"
)

// mfiNoNegativeRatio is the money-flow ratio used when only positive flow exists
const mfiNoNegativeRatio = 100.0

// Calculator combines the hierarchy, snapshot and currency layers into flow results
// ⭐ SSOT: 시가총액 합산, MFI, 자금흐름 공식은 여기서만 (다른 경로에서 재구현 금지)
type Calculator struct {
	fx  *currency.Normalizer
	log *logger.Logger
}

// New creates a flow calculator
func New(fx *currency.Normalizer, log *logger.Logger) *Calculator {
	return &Calculator{
		fx:  fx,
		log: log.WithComponent("flow"),
	}
}

// MarketCap returns the USD market cap sum of tickers at date.
// A missing snapshot or null market cap contributes 0.
func (c *Calculator) MarketCap(snaps *snapshot.Index, tickers []string, date string) float64 {
	var total float64
	for _, t := range tickers {
		total += c.fx.ToUSD(snaps.MarketCap(t, date), t)
	}
	return total
}

// MFI returns the money-flow index analog of tickers at date, or nil when no ticker qualifies
func (c *Calculator) MFI(snaps *snapshot.Index, tickers []string, date string) *float64 {
	var positive, negative float64
	for _, t := range tickers {
		cell, ok := snaps.Get(t, date)
		if !ok || !qualifiesForMFI(cell) {
			continue
		}

		typical := (cell.DayHigh + cell.DayLow + cell.Price) / 3
		raw := c.fx.ToUSD(typical*cell.Volume, t)
		position := (cell.Price - cell.DayLow) / (cell.DayHigh - cell.DayLow)
		if position > 0.5 {
			positive += raw
		} else {
			negative += raw
		}
	}

	if positive+negative <= 0 {
		return nil
	}
	ratio := mfiNoNegativeRatio
	switch {
	case positive > 0 && negative > 0:
		ratio = positive / negative
	case negative > 0:
		ratio = 0
	}
	mfi := 100 - 100/(1+ratio)
	return &mfi
}

// qualifiesForMFI requires non-null, non-zero high/low/price/volume and a positive range
func qualifiesForMFI(cell snapshot.Cell) bool {
	if !cell.HasRange() || !cell.HasPrice() || !cell.HasVolume() {
		return false
	}
	if cell.DayHigh == 0 || cell.DayLow == 0 || cell.Price == 0 || cell.Volume == 0 {
		return false
	}
	return cell.DayHigh > cell.DayLow
}

// Sector computes the flow of one sector over the window dates.
// A ticker shared with other sectors contributes to each of them.
func (c *Calculator) Sector(sector contracts.Sector, tickers []string, snaps *snapshot.Index, dates []string) contracts.SectorFlow {
	caps := make([]float64, len(dates))
	trend := make([]contracts.TrendPoint, len(dates))

	var mfiSum float64
	var mfiDays int
	var prev float64
	for i, d := range dates {
		caps[i] = c.MarketCap(snaps, tickers, d)
		mfi := c.MFI(snaps, tickers, d)
		if mfi != nil {
			mfiSum += *mfi
			mfiDays++
		}

		delta := 0.0
		if prev > 0 {
			delta = caps[i] - prev
		}
		trend[i] = contracts.TrendPoint{Date: d, MFI: mfi, FlowAmount: delta, MarketCap: caps[i]}
		prev = caps[i]
	}

	out := contracts.SectorFlow{
		ID:            sector.ID,
		Name:          sector.Name,
		NameEn:        sector.NameEn,
		FlowDirection: contracts.FlowIn,
		CompanyCount:  len(tickers),
		Trend:         trend,
	}
	if len(dates) == 0 {
		return out
	}

	out.StartMarketCap = caps[0]
	out.EndMarketCap = caps[len(caps)-1]
	amount := out.EndMarketCap - out.StartMarketCap
	out.FlowAmount = math.Abs(amount)
	out.FlowPercent = percentOf(amount, out.StartMarketCap)
	out.FlowDirection = direction(amount)
	if mfiDays > 0 {
		out.MFI = contracts.Float(mfiSum / float64(mfiDays))
	}
	return out
}

// Totals sums per-ticker endpoint deltas over a deduplicated ticker set.
// Tickers missing either endpoint row, or with both endpoint caps 0, are skipped.
func (c *Calculator) Totals(snaps *snapshot.Index, tickers []string, first, last string) (inflow, outflow float64) {
	for _, t := range dedup(tickers) {
		start, okStart := snaps.Get(t, first)
		end, okEnd := snaps.Get(t, last)
		if !okStart || !okEnd {
			continue
		}

		startCap := c.fx.ToUSD(capOf(start), t)
		endCap := c.fx.ToUSD(capOf(end), t)
		if startCap == 0 && endCap == 0 {
			continue
		}

		change := endCap - startCap
		if change > 0 {
			inflow += change
		} else {
			outflow += -change
		}
	}
	return inflow, outflow
}

// MoneyFlow computes the sector flows of the filter (nil = all sectors),
// ranked by |flowAmount| descending and cut to limit, plus deduplicated totals.
func (c *Calculator) MoneyFlow(idx *hierarchy.Index, filter *contracts.IndustryFilter, snaps *snapshot.Index, w window.Window, limit int) contracts.MoneyFlowResult {
	res := contracts.MoneyFlowResult{
		Period:    w.Period,
		Date:      w.Last(),
		Flows:     []contracts.SectorFlow{},
		DateRange: w.Range(),
	}
	if w.Degenerate() {
		res.Empty = true
		return res
	}

	for _, sec := range idx.SectorsIn(filter) {
		tickers := idx.TickersOf(sec.ID)
		if len(tickers) == 0 {
			continue
		}
		res.Flows = append(res.Flows, c.Sector(sec, tickers, snaps, w.Dates))
	}
	if len(res.Flows) == 0 {
		res.Empty = true
		return res
	}

	sort.SliceStable(res.Flows, func(i, j int) bool {
		return res.Flows[i].FlowAmount > res.Flows[j].FlowAmount
	})
	if limit > 0 && len(res.Flows) > limit {
		res.Flows = res.Flows[:limit]
	}

	res.TotalInflow, res.TotalOutflow = c.Totals(snaps, idx.TickersIn(filter), w.First(), w.Last())
	res.NetFlow = res.TotalInflow - res.TotalOutflow

	c.log.WithFields(map[string]interface{}{
		"period":   w.Period,
		"sectors":  len(res.Flows),
		"fallback": w.Fallback,
		"net_flow": res.NetFlow,
	}).Debug("money flow computed")
	return res
}

// IndustryFlows computes one deduplicated inflow/outflow record per industry, in industry order
func (c *Calculator) IndustryFlows(idx *hierarchy.Index, snaps *snapshot.Index, w window.Window) contracts.IndustryFlowResult {
	res := contracts.IndustryFlowResult{
		Industries: []contracts.IndustryFlow{},
		Period:     w.Period,
		DateRange:  w.Range(),
	}
	if w.Degenerate() {
		res.Empty = true
		return res
	}

	for _, ind := range idx.Industries() {
		tickers := idx.IndustryTickers(ind.ID)
		if len(tickers) == 0 {
			continue
		}

		in, out := c.Totals(snaps, tickers, w.First(), w.Last())
		net := in - out
		res.Industries = append(res.Industries, contracts.IndustryFlow{
			IndustryID:     ind.ID,
			IndustryName:   ind.Name,
			IndustryNameEn: ind.NameEn,
			IndustryIcon:   ind.Icon,
			TotalInflow:    in,
			TotalOutflow:   out,
			NetFlow:        net,
			NetFlowPercent: percentOf(net, in+out),
			FlowDirection:  direction(net),
		})
	}
	res.Empty = len(res.Industries) == 0

	c.log.WithFields(map[string]interface{}{
		"period":     w.Period,
		"industries": len(res.Industries),
	}).Debug("industry flows computed")
	return res
}

// IndustryOverviews rolls up every industry's deduplicated market cap at the latest date
// and its change against the previous date. prev may be empty.
func (c *Calculator) IndustryOverviews(idx *hierarchy.Index, snaps *snapshot.Index, latest, prev string) contracts.IndustriesResult {
	res := contracts.IndustriesResult{
		Industries: make([]contracts.IndustryOverview, 0, len(idx.Industries())),
		LatestDate: latest,
	}

	for _, ind := range idx.Industries() {
		tickers := idx.IndustryTickers(ind.ID)
		overview := contracts.IndustryOverview{
			ID:            ind.ID,
			Name:          ind.Name,
			NameEn:        ind.NameEn,
			Icon:          ind.Icon,
			CategoryCount: len(idx.CategoriesOf(ind.ID)),
			SectorCount:   len(idx.IndustrySectors(ind.ID)),
			CompanyCount:  len(tickers),
		}
		if latest != "" {
			overview.TotalMarketCap = c.MarketCap(snaps, tickers, latest)
		}
		if prev != "" {
			prevCap := c.MarketCap(snaps, tickers, prev)
			overview.MarketCapChange = round2(percentOf(overview.TotalMarketCap-prevCap, prevCap))
		}
		res.Industries = append(res.Industries, overview)
	}
	return res
}

// CategoryMarketCaps returns the deduplicated market cap of each category at date, largest first
func (c *Calculator) CategoryMarketCaps(idx *hierarchy.Index, filter *contracts.IndustryFilter, snaps *snapshot.Index, date string) []contracts.CategoryMarketCap {
	cats := idx.CategoriesIn(filter)
	out := make([]contracts.CategoryMarketCap, 0, len(cats))
	for _, cat := range cats {
		out = append(out, contracts.CategoryMarketCap{
			ID:          cat.ID,
			Name:        cat.Name,
			NameEn:      cat.NameEn,
			MarketCap:   c.MarketCap(snaps, idx.CategoryTickers(cat.ID), date),
			SectorCount: len(idx.SectorsOf(cat.ID)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MarketCap > out[j].MarketCap })
	return out
}

// SectorGrowth returns each sector's market cap growth between the window endpoints, fastest first
func (c *Calculator) SectorGrowth(idx *hierarchy.Index, filter *contracts.IndustryFilter, snaps *snapshot.Index, w window.Window) []contracts.SectorGrowth {
	if w.Degenerate() {
		return []contracts.SectorGrowth{}
	}

	sectors := idx.SectorsIn(filter)
	out := make([]contracts.SectorGrowth, 0, len(sectors))
	for _, sec := range sectors {
		tickers := idx.TickersOf(sec.ID)
		start := c.MarketCap(snaps, tickers, w.First())
		end := c.MarketCap(snaps, tickers, w.Last())
		out = append(out, contracts.SectorGrowth{
			ID:             sec.ID,
			Name:           sec.Name,
			NameEn:         sec.NameEn,
			CategoryID:     sec.CategoryID,
			StartMarketCap: start,
			EndMarketCap:   end,
			GrowthRate:     percentOf(end-start, start),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GrowthRate > out[j].GrowthRate })
	return out
}

// SectorTrends computes the market cap change of every sector over each anchored period,
// ordered by the flow percent of sortPeriod descending.
func (c *Calculator) SectorTrends(idx *hierarchy.Index, filter *contracts.IndustryFilter, snaps *snapshot.Index, w window.Window, anchors []window.Anchor, sortPeriod int) contracts.SectorTrendResult {
	res := contracts.SectorTrendResult{
		Sectors:   []contracts.SectorTrend{},
		DateRange: w.Range(),
	}
	if w.Degenerate() {
		res.Empty = true
		res.DateRange = contracts.DateRange{}
		return res
	}

	for _, sec := range idx.SectorsIn(filter) {
		tickers := idx.TickersOf(sec.ID)
		if len(tickers) == 0 {
			continue
		}

		trend := contracts.SectorTrend{
			ID:      sec.ID,
			Name:    sec.Name,
			NameEn:  sec.NameEn,
			Periods: make([]contracts.PeriodFlow, 0, len(anchors)),
		}
		for _, a := range anchors {
			start := c.MarketCap(snaps, tickers, a.Start)
			end := c.MarketCap(snaps, tickers, a.End)
			amount := end - start
			trend.Periods = append(trend.Periods, contracts.PeriodFlow{
				Period:         a.Period,
				FlowPercent:    round2(percentOf(amount, start)),
				FlowAmount:     amount,
				StartMarketCap: start,
				EndMarketCap:   end,
			})
		}
		res.Sectors = append(res.Sectors, trend)
	}

	sort.SliceStable(res.Sectors, func(i, j int) bool {
		return periodPercent(res.Sectors[i], sortPeriod) > periodPercent(res.Sectors[j], sortPeriod)
	})
	res.Empty = len(res.Sectors) == 0
	return res
}

// SectorCompanies computes the window price change of each member of one sector,
// largest absolute move first. Members without a company master row are dropped.
func (c *Calculator) SectorCompanies(sector contracts.Sector, members []contracts.SectorCompany, companies map[string]contracts.Company, snaps *snapshot.Index, w window.Window) contracts.SectorCompaniesResult {
	res := contracts.SectorCompaniesResult{
		SectorID:   sector.ID,
		SectorName: sector.Name,
		Period:     w.Period,
		DateRange:  w.Range(),
		Companies:  []contracts.SectorCompanyPrice{},
	}
	if w.Degenerate() {
		res.Empty = true
		return res
	}

	dropped := 0
	for _, m := range members {
		comp, ok := companies[m.Ticker]
		if !ok {
			dropped++
			continue
		}
		res.Companies = append(res.Companies, c.companyPrice(m, comp, snaps, w))
	}
	if dropped > 0 {
		c.log.WithFields(map[string]interface{}{
			"sector_id": sector.ID,
			"dropped":   dropped,
		}).Debug("sector members without company row skipped")
	}

	sort.SliceStable(res.Companies, func(i, j int) bool {
		return absOrZero(res.Companies[i].PriceChangePercent) > absOrZero(res.Companies[j].PriceChangePercent)
	})
	res.Empty = len(res.Companies) == 0
	return res
}

func (c *Calculator) companyPrice(m contracts.SectorCompany, comp contracts.Company, snaps *snapshot.Index, w window.Window) contracts.SectorCompanyPrice {
	out := contracts.SectorCompanyPrice{
		Ticker:       m.Ticker,
		Name:         comp.Name,
		NameKo:       comp.NameKo,
		Rank:         m.Rank,
		PriceHistory: []contracts.PricePoint{},
	}

	if cell, ok := snaps.Get(m.Ticker, w.First()); ok && cell.HasPrice() && cell.Price != 0 {
		out.StartPrice = contracts.Float(c.fx.ToUSD(cell.Price, m.Ticker))
	}
	if cell, ok := snaps.Get(m.Ticker, w.Last()); ok {
		if cell.HasPrice() && cell.Price != 0 {
			out.EndPrice = contracts.Float(c.fx.ToUSD(cell.Price, m.Ticker))
		}
		if cell.HasMarketCap() && cell.MarketCap != 0 {
			out.MarketCap = contracts.Float(c.fx.ToUSD(cell.MarketCap, m.Ticker))
		}
	}
	if out.StartPrice != nil && out.EndPrice != nil {
		out.PriceChangePercent = contracts.Float((*out.EndPrice - *out.StartPrice) / *out.StartPrice * 100)
	}

	for _, d := range w.Dates {
		cell, ok := snaps.Get(m.Ticker, d)
		if !ok {
			continue
		}
		out.PriceHistory = append(out.PriceHistory, contracts.PricePoint{
			Date:   d,
			Price:  c.fx.ToUSD(cell.Price, m.Ticker),
			Volume: cell.Volume,
		})
	}
	return out
}

// SectorSeries returns the daily market cap series of the given sectors.
// With no ids, the limit sectors with the most members are used.
func (c *Calculator) SectorSeries(idx *hierarchy.Index, filter *contracts.IndustryFilter, snaps *snapshot.Index, dates, ids []string, limit int) []contracts.TrendSeries {
	sectors := idx.SectorsIn(filter)
	if len(ids) == 0 {
		ranked := append([]contracts.Sector{}, sectors...)
		sort.SliceStable(ranked, func(i, j int) bool {
			return len(idx.TickersOf(ranked[i].ID)) > len(idx.TickersOf(ranked[j].ID))
		})
		for i := 0; i < len(ranked) && i < limit; i++ {
			ids = append(ids, ranked[i].ID)
		}
	}

	allowed := make(map[string]contracts.Sector, len(sectors))
	for _, s := range sectors {
		allowed[s.ID] = s
	}

	out := []contracts.TrendSeries{}
	for _, id := range ids {
		sec, ok := allowed[id]
		if !ok {
			continue
		}
		out = append(out, c.series(sec.ID, sec.Name, idx.TickersOf(sec.ID), snaps, dates))
	}
	return out
}

// CategorySeries returns the daily deduplicated market cap series of the given categories.
// With no ids, the first limit categories in display order are used.
func (c *Calculator) CategorySeries(idx *hierarchy.Index, filter *contracts.IndustryFilter, snaps *snapshot.Index, dates, ids []string, limit int) []contracts.TrendSeries {
	cats := idx.CategoriesIn(filter)
	if len(ids) == 0 {
		for i := 0; i < len(cats) && i < limit; i++ {
			ids = append(ids, cats[i].ID)
		}
	}

	allowed := make(map[string]contracts.Category, len(cats))
	for _, cat := range cats {
		allowed[cat.ID] = cat
	}

	out := []contracts.TrendSeries{}
	for _, id := range ids {
		cat, ok := allowed[id]
		if !ok {
			continue
		}
		out = append(out, c.series(cat.ID, cat.Name, idx.CategoryTickers(cat.ID), snaps, dates))
	}
	return out
}

func (c *Calculator) series(id, name string, tickers []string, snaps *snapshot.Index, dates []string) contracts.TrendSeries {
	s := contracts.TrendSeries{ID: id, Name: name, Data: make([]contracts.SeriesPoint, len(dates))}
	for i, d := range dates {
		s.Data[i] = contracts.SeriesPoint{Date: d, MarketCap: c.MarketCap(snaps, tickers, d)}
	}
	return s
}

// percentOf returns part/base*100, or 0 for a non-positive base
func percentOf(part, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return part / base * 100
}

func direction(amount float64) string {
	if amount >= 0 {
		return contracts.FlowIn
	}
	return contracts.FlowOut
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func capOf(cell snapshot.Cell) float64 {
	if !cell.HasMarketCap() {
		return 0
	}
	return cell.MarketCap
}

func absOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return math.Abs(*v)
}

func periodPercent(t contracts.SectorTrend, period int) float64 {
	for _, p := range t.Periods {
		if p.Period == period {
			return p.FlowPercent
		}
	}
	return 0
}

func dedup(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
