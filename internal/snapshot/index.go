package snapshot

import (
	"context"
	"fmt"
	"sort"

	"github.com/wonny/hegemony/internal/contracts"
)

// Field presence bits
const (
	hasMarketCap uint8 = 1 << iota
	hasPrice
	hasDayHigh
	hasDayLow
	hasVolume
	hasPriceChange
)

// Cell is the metrics of one (ticker, date) slot
type Cell struct {
	MarketCap   float64
	Price       float64
	PriceChange float64
	DayHigh     float64
	DayLow      float64
	Volume      float64
	present     uint8
	loaded      bool
}

// Loaded reports whether a snapshot row exists for the slot
func (c Cell) Loaded() bool { return c.loaded }

// HasMarketCap reports whether market cap is non-null
func (c Cell) HasMarketCap() bool { return c.present&hasMarketCap != 0 }

// HasPrice reports whether price is non-null
func (c Cell) HasPrice() bool { return c.present&hasPrice != 0 }

// HasRange reports whether both dayHigh and dayLow are non-null
func (c Cell) HasRange() bool { return c.present&(hasDayHigh|hasDayLow) == hasDayHigh|hasDayLow }

// HasVolume reports whether volume is non-null
func (c Cell) HasVolume() bool { return c.present&hasVolume != 0 }

// HasPriceChange reports whether the upstream daily change is non-null
func (c Cell) HasPriceChange() bool { return c.present&hasPriceChange != 0 }

// Index is a flat arena of snapshot cells sized tickers x dates.
// Slot of (ticker, date) is tickerPos*len(dates) + datePos.
// ⭐ SSOT: (ticker,date) 스냅샷 조회는 이 인덱스로만 (항목별 쿼리 금지)
type Index struct {
	tickers   []string
	dates     []string
	tickerPos map[string]int
	datePos   map[string]int
	cells     []Cell
	rows      int
	outside   int
}

// New allocates an empty index for the given tickers and dates
func New(tickers, dates []string) *Index {
	idx := &Index{
		tickerPos: make(map[string]int, len(tickers)),
		datePos:   make(map[string]int, len(dates)),
	}
	for _, t := range tickers {
		if _, dup := idx.tickerPos[t]; dup {
			continue
		}
		idx.tickerPos[t] = len(idx.tickers)
		idx.tickers = append(idx.tickers, t)
	}
	for _, d := range dates {
		if _, dup := idx.datePos[d]; dup {
			continue
		}
		idx.datePos[d] = len(idx.dates)
		idx.dates = append(idx.dates, d)
	}
	idx.cells = make([]Cell, len(idx.tickers)*len(idx.dates))
	return idx
}

// Add stores one snapshot row. Rows outside the ticker/date axes are ignored.
func (idx *Index) Add(s contracts.DailySnapshot) {
	slot, ok := idx.slot(s.Ticker, s.Date)
	if !ok {
		idx.outside++
		return
	}

	c := Cell{loaded: true}
	if s.MarketCap != nil {
		c.MarketCap = *s.MarketCap
		c.present |= hasMarketCap
	}
	if s.Price != nil {
		c.Price = *s.Price
		c.present |= hasPrice
	}
	if s.DayHigh != nil {
		c.DayHigh = *s.DayHigh
		c.present |= hasDayHigh
	}
	if s.DayLow != nil {
		c.DayLow = *s.DayLow
		c.present |= hasDayLow
	}
	if s.Volume != nil {
		c.Volume = *s.Volume
		c.present |= hasVolume
	}
	if s.PriceChange != nil {
		c.PriceChange = *s.PriceChange
		c.present |= hasPriceChange
	}
	if !idx.cells[slot].loaded {
		idx.rows++
	}
	idx.cells[slot] = c
}

// Get returns the cell of (ticker, date); ok is false when no row was loaded
func (idx *Index) Get(ticker, date string) (Cell, bool) {
	slot, ok := idx.slot(ticker, date)
	if !ok {
		return Cell{}, false
	}
	c := idx.cells[slot]
	return c, c.loaded
}

// MarketCap returns the raw market cap of (ticker, date), 0 when absent
func (idx *Index) MarketCap(ticker, date string) float64 {
	c, ok := idx.Get(ticker, date)
	if !ok || !c.HasMarketCap() {
		return 0
	}
	return c.MarketCap
}

// LatestDate returns the most recent date on the axis with a loaded row for ticker, or ""
func (idx *Index) LatestDate(ticker string) string {
	tp, ok := idx.tickerPos[ticker]
	if !ok {
		return ""
	}
	base := tp * len(idx.dates)
	latest := ""
	for dp, d := range idx.dates {
		if idx.cells[base+dp].loaded && d > latest {
			latest = d
		}
	}
	return latest
}

// Dates returns the date axis
func (idx *Index) Dates() []string { return idx.dates }

// Tickers returns the ticker axis
func (idx *Index) Tickers() []string { return idx.tickers }

// Rows returns the number of loaded slots
func (idx *Index) Rows() int { return idx.rows }

// Outside returns the number of rows dropped for an unknown ticker or date
func (idx *Index) Outside() int { return idx.outside }

func (idx *Index) slot(ticker, date string) (int, bool) {
	tp, ok := idx.tickerPos[ticker]
	if !ok {
		return 0, false
	}
	dp, ok := idx.datePos[date]
	if !ok {
		return 0, false
	}
	return tp*len(idx.dates) + dp, true
}

// Source is the part of the snapshot store the loaders read
type Source interface {
	SnapshotsSince(ctx context.Context, tickers []string, start string) ([]contracts.DailySnapshot, error)
	SnapshotsOnDates(ctx context.Context, tickers []string, dates []string) ([]contracts.DailySnapshot, error)
}

// LoadRange loads every snapshot of tickers on or after the first date in one batched query.
// Dates outside the given axis are dropped.
func LoadRange(ctx context.Context, src Source, tickers, dates []string) (*Index, error) {
	idx := New(tickers, dates)
	if len(idx.tickers) == 0 || len(idx.dates) == 0 {
		return idx, nil
	}

	rows, err := src.SnapshotsSince(ctx, idx.tickers, idx.dates[0])
	if err != nil {
		return nil, fmt.Errorf("load snapshots since %s: %w", idx.dates[0], err)
	}
	for _, r := range rows {
		idx.Add(r)
	}
	return idx, nil
}

// FromRows indexes rows already read, taking the date axis from the rows themselves.
// Used for per-ticker latest rows whose dates differ between tickers.
func FromRows(tickers []string, rows []contracts.DailySnapshot) *Index {
	seen := make(map[string]struct{})
	var dates []string
	for _, r := range rows {
		if _, dup := seen[r.Date]; dup {
			continue
		}
		seen[r.Date] = struct{}{}
		dates = append(dates, r.Date)
	}
	sort.Strings(dates)

	idx := New(tickers, dates)
	for _, r := range rows {
		idx.Add(r)
	}
	return idx
}

// LoadDates loads the snapshots of tickers on exactly the given dates in one batched query
func LoadDates(ctx context.Context, src Source, tickers, dates []string) (*Index, error) {
	idx := New(tickers, dates)
	if len(idx.tickers) == 0 || len(idx.dates) == 0 {
		return idx, nil
	}

	rows, err := src.SnapshotsOnDates(ctx, idx.tickers, idx.dates)
	if err != nil {
		return nil, fmt.Errorf("load snapshots on %d dates: %w", len(idx.dates), err)
	}
	for _, r := range rows {
		idx.Add(r)
	}
	return idx, nil
}
