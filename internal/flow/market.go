package flow

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/wonny/hegemony/internal/contracts"
	"github.com/wonny/hegemony/internal/hierarchy"
	"github.com/wonny/hegemony/internal/snapshot"
)

// MapInput carries the lookups the hierarchy map is built from
type MapInput struct {
	Filter    *contracts.IndustryFilter
	Companies map[string]contracts.Company
	Scores    map[string]*contracts.ScoreSummary
	Available []string // descending
	Selected  string
	Latest    string
}

// HegemonyMap places every member of the filtered sectors at the selected date, in sector
// display order. On a historical date each member also carries its latest price and the
// move since the selected date.
func (c *Calculator) HegemonyMap(idx *hierarchy.Index, snaps *snapshot.Index, in MapInput) contracts.HegemonyMapResult {
	res := contracts.HegemonyMapResult{
		Categories:      append([]contracts.Category{}, idx.CategoriesIn(in.Filter)...),
		Sectors:         append([]contracts.Sector{}, idx.SectorsIn(in.Filter)...),
		SectorCompanies: []contracts.SectorMember{},
		LastUpdated:     in.Latest,
		SelectedDate:    in.Selected,
		AvailableDates:  append([]string{}, in.Available...),
		IsHistorical:    in.Selected != in.Latest,
		Empty:           in.Latest == "",
	}

	for _, sec := range res.Sectors {
		for _, m := range idx.CompaniesOf(sec.ID) {
			member := c.Member(m, in.Companies, snaps, in.Selected, in.Scores[m.Ticker])
			if res.IsHistorical {
				c.markHistorical(&member, snaps, in.Selected, in.Latest)
			}
			res.SectorCompanies = append(res.SectorCompanies, member)
		}
	}
	return res
}

// Member builds the view record of one sector member at date.
// A member without a company row keeps its ticker as name.
func (c *Calculator) Member(m contracts.SectorCompany, companies map[string]contracts.Company, snaps *snapshot.Index, date string, score *contracts.ScoreSummary) contracts.SectorMember {
	comp, ok := companies[m.Ticker]
	if !ok {
		comp = contracts.Company{Ticker: m.Ticker, Name: m.Ticker}
	}
	out := contracts.SectorMember{
		SectorID: m.SectorID,
		Ticker:   m.Ticker,
		Rank:     m.Rank,
		Notes:    m.Notes,
		Company:  comp,
		Score:    score,
	}
	if cell, ok := snaps.Get(m.Ticker, date); ok && cell.HasMarketCap() && cell.MarketCap != 0 {
		out.Snapshot = &contracts.MemberSnapshot{
			Date:        date,
			MarketCap:   c.fx.ToUSD(cell.MarketCap, m.Ticker),
			Price:       c.price(cell, m.Ticker),
			PriceChange: priceChangeOf(cell),
		}
	}
	return out
}

func (c *Calculator) markHistorical(member *contracts.SectorMember, snaps *snapshot.Index, selected, latest string) {
	cur, ok := snaps.Get(member.Ticker, latest)
	if !ok {
		return
	}
	member.CurrentSnapshot = &contracts.CurrentPrice{
		Price:       c.price(cur, member.Ticker),
		PriceChange: priceChangeOf(cur),
	}

	then, ok := snaps.Get(member.Ticker, selected)
	if !ok || !then.HasPrice() || then.Price == 0 || !cur.HasPrice() || cur.Price == 0 {
		return
	}
	member.PriceChangeFromSnapshot = contracts.Float((cur.Price - then.Price) / then.Price * 100)
}

// SectorDetail lists the members of one sector with their own latest snapshot, by rank,
// and the USD total of those market caps
func (c *Calculator) SectorDetail(idx *hierarchy.Index, sector contracts.Sector, companies map[string]contracts.Company, scores map[string]*contracts.ScoreSummary, latest *snapshot.Index) contracts.SectorDetailResult {
	res := contracts.SectorDetailResult{
		Sector:    sector,
		Companies: []contracts.SectorMember{},
	}
	if cat, ok := idx.Category(sector.CategoryID); ok {
		res.Category = &cat
	}

	members := append([]contracts.SectorCompany{}, idx.CompaniesOf(sector.ID)...)
	sort.SliceStable(members, func(i, j int) bool { return members[i].Rank < members[j].Rank })
	for _, m := range members {
		member := c.Member(m, companies, latest, latest.LatestDate(m.Ticker), scores[m.Ticker])
		if member.Snapshot != nil {
			res.MarketCapTotal += member.Snapshot.MarketCap
		}
		res.Companies = append(res.Companies, member)
	}
	return res
}

// CompanyDetail assembles the detail view of one company. Amounts are converted to USD;
// history rows without a price are dropped.
func (c *Calculator) CompanyDetail(idx *hierarchy.Index, company contracts.Company, profile *contracts.CompanyProfile, detail *contracts.SnapshotDetail, history []contracts.DailySnapshot, memberships []contracts.SectorCompany) contracts.CompanyDetailResult {
	t := company.Ticker
	res := contracts.CompanyDetailResult{
		Company: company,
		Profile: profile,
		History: []contracts.PricePoint{},
		Sectors: []contracts.CompanySector{},
	}

	if detail != nil {
		d := *detail
		d.MarketCap = c.fx.PtrToUSD(d.MarketCap, t)
		d.Price = c.fx.PtrToUSD(d.Price, t)
		d.Week52High = c.fx.PtrToUSD(d.Week52High, t)
		d.Week52Low = c.fx.PtrToUSD(d.Week52Low, t)
		res.Snapshot = &d
	}

	for _, h := range history {
		if h.Price == nil {
			continue
		}
		p := contracts.PricePoint{Date: h.Date, Price: c.fx.ToUSD(*h.Price, t)}
		if h.Volume != nil {
			p.Volume = *h.Volume
		}
		res.History = append(res.History, p)
	}

	for _, m := range memberships {
		ref := contracts.SectorRef{ID: m.SectorID}
		if sec, ok := idx.Sector(m.SectorID); ok {
			ref.Name = sec.Name
			ref.NameEn = sec.NameEn
		}
		res.Sectors = append(res.Sectors, contracts.CompanySector{Sector: ref, Rank: m.Rank})
	}
	return res
}

// TopByMarketCap returns up to limit tickers with the largest USD market cap at date.
// Tickers without a non-zero cap there are left out.
func (c *Calculator) TopByMarketCap(snaps *snapshot.Index, tickers []string, date string, limit int) []string {
	type sized struct {
		ticker string
		cap    float64
	}
	var ranked []sized
	for _, t := range dedup(tickers) {
		if v := c.fx.ToUSD(snaps.MarketCap(t, date), t); v > 0 {
			ranked = append(ranked, sized{t, v})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].cap > ranked[j].cap })

	out := make([]string, 0, limit)
	for i := 0; i < len(ranked) && i < limit; i++ {
		out = append(out, ranked[i].ticker)
	}
	return out
}

// CompanySeries returns the USD market cap series of each ticker over the dates it has
// a snapshot on. A null market cap reads as 0.
func (c *Calculator) CompanySeries(snaps *snapshot.Index, tickers []string, companies map[string]contracts.Company, dates []string) []contracts.TrendSeries {
	out := make([]contracts.TrendSeries, 0, len(tickers))
	for _, t := range tickers {
		s := contracts.TrendSeries{ID: t, Name: t, Data: []contracts.SeriesPoint{}}
		if comp, ok := companies[t]; ok && comp.Name != "" {
			s.Name = comp.Name
			s.NameKo = comp.NameKo
		}
		for _, d := range dates {
			cell, ok := snaps.Get(t, d)
			if !ok {
				continue
			}
			s.Data = append(s.Data, contracts.SeriesPoint{Date: d, MarketCap: c.fx.ToUSD(capOf(cell), t)})
		}
		out = append(out, s)
	}
	return out
}

// PriceChanges computes each ticker's move between its first and latest snapshot.
// Tickers missing either endpoint row are left out.
func (c *Calculator) PriceChanges(bounds []contracts.SnapshotBounds, companies map[string]contracts.Company, snaps *snapshot.Index, sortBy, order string) contracts.PriceChangesResult {
	res := contracts.PriceChangesResult{Companies: []contracts.PriceChange{}}

	for _, b := range bounds {
		first, okFirst := snaps.Get(b.Ticker, b.First)
		latest, okLatest := snaps.Get(b.Ticker, b.Last)
		if !okFirst || !okLatest {
			continue
		}

		item := contracts.PriceChange{
			Ticker:      b.Ticker,
			Name:        b.Ticker,
			FirstDate:   b.First,
			LatestDate:  b.Last,
			FirstPrice:  c.price(first, b.Ticker),
			LatestPrice: c.price(latest, b.Ticker),
		}
		if comp, ok := companies[b.Ticker]; ok && comp.Name != "" {
			item.Name = comp.Name
			item.NameKo = comp.NameKo
		}
		if first.HasPrice() && first.Price != 0 && latest.HasPrice() && latest.Price != 0 {
			diff := *item.LatestPrice - *item.FirstPrice
			item.PriceChange = &diff
			item.PercentChange = contracts.Float(diff / *item.FirstPrice * 100)
		}
		if latest.HasMarketCap() && latest.MarketCap != 0 {
			item.MarketCap = contracts.Float(c.fx.ToUSD(latest.MarketCap, b.Ticker))
		}

		if res.DateRange.Start == "" || item.FirstDate < res.DateRange.Start {
			res.DateRange.Start = item.FirstDate
		}
		if item.LatestDate > res.DateRange.End {
			res.DateRange.End = item.LatestDate
		}
		res.Companies = append(res.Companies, item)
	}

	names := collate.New(language.Korean)
	sortItems(res.Companies, order, func(a, b contracts.PriceChange) int {
		switch sortBy {
		case contracts.SortName:
			return names.CompareString(displayName(a.Name, a.NameKo), displayName(b.Name, b.NameKo))
		case contracts.SortMarketCap:
			return cmpFloat(orZero(b.MarketCap), orZero(a.MarketCap))
		default:
			return cmpFloat(orZero(b.PercentChange), orZero(a.PercentChange))
		}
	})

	res.Total = len(res.Companies)
	res.Empty = res.Total == 0
	return res
}

// CompanyStatistics counts the sector memberships of every company of the filtered sectors,
// orders them and cuts one page. page and limit must already be bounded (>= 1).
func (c *Calculator) CompanyStatistics(idx *hierarchy.Index, filter *contracts.IndustryFilter, companies map[string]contracts.Company, latest *snapshot.Index, sortBy, order string, page, limit int) contracts.CompanyStatisticsResult {
	var stats []contracts.CompanyStat
	pos := make(map[string]int)

	for _, sec := range idx.SectorsIn(filter) {
		for _, m := range idx.CompaniesOf(sec.ID) {
			i, ok := pos[m.Ticker]
			if !ok {
				stat := contracts.CompanyStat{
					Ticker:         m.Ticker,
					Name:           m.Ticker,
					Sectors:        []contracts.SectorRank{},
					LatestSnapshot: c.quote(latest, m.Ticker),
				}
				if comp, ok := companies[m.Ticker]; ok && comp.Name != "" {
					stat.Name = comp.Name
					stat.NameKo = comp.NameKo
				}
				i = len(stats)
				pos[m.Ticker] = i
				stats = append(stats, stat)
			}
			stats[i].Sectors = append(stats[i].Sectors, contracts.SectorRank{ID: sec.ID, Name: sec.Name, Rank: m.Rank})
		}
	}

	for i := range stats {
		stats[i].Count = len(stats[i].Sectors)
		ranks := stats[i].Sectors
		sort.SliceStable(ranks, func(a, b int) bool { return ranks[a].Rank < ranks[b].Rank })
	}

	names := collate.New(language.Korean)
	sortItems(stats, order, func(a, b contracts.CompanyStat) int {
		switch sortBy {
		case contracts.SortMarketCap:
			return cmpFloat(quoteCap(b.LatestSnapshot), quoteCap(a.LatestSnapshot))
		case contracts.SortName:
			return names.CompareString(displayName(a.Name, a.NameKo), displayName(b.Name, b.NameKo))
		default:
			return b.Count - a.Count
		}
	})

	total := len(stats)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return contracts.CompanyStatisticsResult{
		Companies:  append([]contracts.CompanyStat{}, stats[start:end]...),
		Total:      total,
		Page:       page,
		TotalPages: (total + limit - 1) / limit,
	}
}

func (c *Calculator) quote(latest *snapshot.Index, ticker string) *contracts.LatestQuote {
	date := latest.LatestDate(ticker)
	if date == "" {
		return nil
	}
	cell, _ := latest.Get(ticker, date)
	q := &contracts.LatestQuote{
		Price:       c.price(cell, ticker),
		PriceChange: priceChangeOf(cell),
	}
	if cell.HasMarketCap() {
		q.MarketCap = contracts.Float(c.fx.ToUSD(cell.MarketCap, ticker))
	}
	return q
}

// price returns the USD price of a cell, nil when null
func (c *Calculator) price(cell snapshot.Cell, ticker string) *float64 {
	if !cell.HasPrice() {
		return nil
	}
	return contracts.Float(c.fx.ToUSD(cell.Price, ticker))
}

func priceChangeOf(cell snapshot.Cell) *float64 {
	if !cell.HasPriceChange() {
		return nil
	}
	return contracts.Float(cell.PriceChange)
}

// sortItems orders items by cmp; asc reverses the comparison
func sortItems[T any](items []T, order string, cmp func(a, b T) int) {
	sort.SliceStable(items, func(i, j int) bool {
		c := cmp(items[i], items[j])
		if order == contracts.OrderAsc {
			c = -c
		}
		return c < 0
	})
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func quoteCap(q *contracts.LatestQuote) float64 {
	if q == nil {
		return 0
	}
	return orZero(q.MarketCap)
}

func displayName(name string, nameKo *string) string {
	if nameKo != nil && *nameKo != "" {
		return *nameKo
	}
	return name
}
