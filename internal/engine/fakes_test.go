package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/wonny/hegemony/internal/contracts"
)

// memStore is an in-memory contracts.Store
type memStore struct {
	industries []contracts.Industry
	categories []contracts.Category
	sectors    []contracts.Sector
	ics        []contracts.IndustryCategory
	scs        []contracts.SectorCompany
	companies  []contracts.Company
	snapshots  []contracts.DailySnapshot
	scores     []contracts.CompanyScore
	history    []contracts.ScoreHistory
	profiles   map[string]*contracts.CompanyProfile
	details    map[string]*contracts.SnapshotDetail

	failOn string // method name that returns err
	err    error
	block  bool // wait for the context to end

	mu    sync.Mutex
	calls map[string]int
}

var _ contracts.Store = (*memStore)(nil)

func (s *memStore) enter(ctx context.Context, method string) error {
	s.mu.Lock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[method]++
	s.mu.Unlock()

	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.failOn == method {
		return s.err
	}
	return nil
}

func (s *memStore) called(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *memStore) Industries(ctx context.Context) ([]contracts.Industry, error) {
	if err := s.enter(ctx, "Industries"); err != nil {
		return nil, err
	}
	return s.industries, nil
}

func (s *memStore) Categories(ctx context.Context) ([]contracts.Category, error) {
	if err := s.enter(ctx, "Categories"); err != nil {
		return nil, err
	}
	return s.categories, nil
}

func (s *memStore) Sectors(ctx context.Context) ([]contracts.Sector, error) {
	if err := s.enter(ctx, "Sectors"); err != nil {
		return nil, err
	}
	return s.sectors, nil
}

func (s *memStore) IndustryCategories(ctx context.Context) ([]contracts.IndustryCategory, error) {
	if err := s.enter(ctx, "IndustryCategories"); err != nil {
		return nil, err
	}
	return s.ics, nil
}

func (s *memStore) SectorCompanies(ctx context.Context) ([]contracts.SectorCompany, error) {
	if err := s.enter(ctx, "SectorCompanies"); err != nil {
		return nil, err
	}
	return s.scs, nil
}

func (s *memStore) CompanySectors(ctx context.Context, ticker string) ([]contracts.SectorCompany, error) {
	if err := s.enter(ctx, "CompanySectors"); err != nil {
		return nil, err
	}
	var out []contracts.SectorCompany
	for _, sc := range s.scs {
		if sc.Ticker == ticker {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (s *memStore) Companies(ctx context.Context, tickers []string) ([]contracts.Company, error) {
	if err := s.enter(ctx, "Companies"); err != nil {
		return nil, err
	}
	want := set(tickers)
	var out []contracts.Company
	for _, c := range s.companies {
		if want[c.Ticker] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) dates() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range s.snapshots {
		if !seen[r.Date] {
			seen[r.Date] = true
			out = append(out, r.Date)
		}
	}
	sort.Strings(out)
	return out
}

func (s *memStore) DistinctDatesSince(ctx context.Context, start string) ([]string, error) {
	if err := s.enter(ctx, "DistinctDatesSince"); err != nil {
		return nil, err
	}
	var out []string
	for _, d := range s.dates() {
		if d >= start {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *memStore) RecentDistinctDates(ctx context.Context, limit int) ([]string, error) {
	if err := s.enter(ctx, "RecentDistinctDates"); err != nil {
		return nil, err
	}
	all := s.dates()
	var out []string
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (s *memStore) SnapshotsSince(ctx context.Context, tickers []string, start string) ([]contracts.DailySnapshot, error) {
	if err := s.enter(ctx, "SnapshotsSince"); err != nil {
		return nil, err
	}
	want := set(tickers)
	var out []contracts.DailySnapshot
	for _, r := range s.snapshots {
		if want[r.Ticker] && r.Date >= start {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) SnapshotsOnDates(ctx context.Context, tickers []string, dates []string) ([]contracts.DailySnapshot, error) {
	if err := s.enter(ctx, "SnapshotsOnDates"); err != nil {
		return nil, err
	}
	want, on := set(tickers), set(dates)
	var out []contracts.DailySnapshot
	for _, r := range s.snapshots {
		if want[r.Ticker] && on[r.Date] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) LatestSnapshots(ctx context.Context, tickers []string) ([]contracts.DailySnapshot, error) {
	if err := s.enter(ctx, "LatestSnapshots"); err != nil {
		return nil, err
	}
	want := set(tickers)
	latest := make(map[string]contracts.DailySnapshot)
	for _, r := range s.snapshots {
		if cur, ok := latest[r.Ticker]; want[r.Ticker] && (!ok || r.Date > cur.Date) {
			latest[r.Ticker] = r
		}
	}
	var out []contracts.DailySnapshot
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

func (s *memStore) SnapshotTickers(ctx context.Context) ([]string, error) {
	if err := s.enter(ctx, "SnapshotTickers"); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range s.snapshots {
		if !seen[r.Ticker] {
			seen[r.Ticker] = true
			out = append(out, r.Ticker)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *memStore) SnapshotBounds(ctx context.Context, tickers []string) ([]contracts.SnapshotBounds, error) {
	if err := s.enter(ctx, "SnapshotBounds"); err != nil {
		return nil, err
	}
	want := set(tickers)
	bounds := make(map[string]*contracts.SnapshotBounds)
	for _, r := range s.snapshots {
		if !want[r.Ticker] {
			continue
		}
		b, ok := bounds[r.Ticker]
		if !ok {
			bounds[r.Ticker] = &contracts.SnapshotBounds{Ticker: r.Ticker, First: r.Date, Last: r.Date}
			continue
		}
		if r.Date < b.First {
			b.First = r.Date
		}
		if r.Date > b.Last {
			b.Last = r.Date
		}
	}
	var out []contracts.SnapshotBounds
	for _, b := range bounds {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

func (s *memStore) TickerSnapshots(ctx context.Context, ticker string, limit int) ([]contracts.DailySnapshot, error) {
	if err := s.enter(ctx, "TickerSnapshots"); err != nil {
		return nil, err
	}
	var out []contracts.DailySnapshot
	for _, r := range s.snapshots {
		if r.Ticker == ticker {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *memStore) LatestSnapshotDetail(ctx context.Context, ticker string) (*contracts.SnapshotDetail, error) {
	if err := s.enter(ctx, "LatestSnapshotDetail"); err != nil {
		return nil, err
	}
	return s.details[ticker], nil
}

func (s *memStore) CompanyProfile(ctx context.Context, ticker string) (*contracts.CompanyProfile, error) {
	if err := s.enter(ctx, "CompanyProfile"); err != nil {
		return nil, err
	}
	return s.profiles[ticker], nil
}

func (s *memStore) CompanyScores(ctx context.Context, tickers []string) ([]contracts.CompanyScore, error) {
	if err := s.enter(ctx, "CompanyScores"); err != nil {
		return nil, err
	}
	want := set(tickers)
	var out []contracts.CompanyScore
	for _, cs := range s.scores {
		if want[cs.Ticker] {
			out = append(out, cs)
		}
	}
	return out, nil
}

func (s *memStore) ScoreHistory(ctx context.Context, ticker string, limit int) ([]contracts.ScoreHistory, error) {
	if err := s.enter(ctx, "ScoreHistory"); err != nil {
		return nil, err
	}
	var out []contracts.ScoreHistory
	for _, h := range s.history {
		if h.Ticker == ticker {
			out = append(out, h)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func set(values []string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

func mcap(ticker, date string, v float64) contracts.DailySnapshot {
	return contracts.DailySnapshot{Ticker: ticker, Date: date, MarketCap: contracts.Float(v), Price: contracts.Float(v / 10)}
}

func scoreRow(ticker string, smoothed, dq float64) contracts.CompanyScore {
	return contracts.CompanyScore{
		Ticker:             ticker,
		ScaleScore:         smoothed * 0.35,
		GrowthScore:        smoothed * 0.30,
		ProfitabilityScore: smoothed * 0.20,
		SentimentScore:     smoothed * 0.15,
		RawTotalScore:      smoothed,
		SmoothedScore:      contracts.Float(smoothed),
		DataQuality:        dq,
	}
}

// fixture:
//
//	ai   → chips → gpu(A,B), memory(M)
//	     → models → llm(A,L)
//	bio  → (nothing)
//
// A 100→150, B 200→180, M 50→40, L 10→20 between 2024-06-01 and 2024-06-03
func fixture() *memStore {
	return &memStore{
		industries: []contracts.Industry{
			{ID: "bio", Name: "Bio", Order: 2},
			{ID: "ai", Name: "AI", Order: 1},
		},
		categories: []contracts.Category{
			{ID: "chips", Name: "Chips", Order: 1},
			{ID: "models", Name: "Models", Order: 2},
		},
		sectors: []contracts.Sector{
			{ID: "gpu", CategoryID: "chips", Name: "GPU", Order: 1},
			{ID: "memory", CategoryID: "chips", Name: "Memory", Order: 2},
			{ID: "llm", CategoryID: "models", Name: "LLM", Order: 3},
		},
		ics: []contracts.IndustryCategory{
			{IndustryID: "ai", CategoryID: "chips"},
			{IndustryID: "ai", CategoryID: "models"},
		},
		scs: []contracts.SectorCompany{
			{SectorID: "gpu", Ticker: "A", Rank: 1},
			{SectorID: "gpu", Ticker: "B", Rank: 2},
			{SectorID: "memory", Ticker: "M", Rank: 1},
			{SectorID: "llm", Ticker: "A", Rank: 1},
			{SectorID: "llm", Ticker: "L", Rank: 2},
		},
		companies: []contracts.Company{
			{Ticker: "A", Name: "Alpha"},
			{Ticker: "B", Name: "Beta"},
			{Ticker: "M", Name: "Mem"},
			{Ticker: "L", Name: "Lang"},
		},
		snapshots: []contracts.DailySnapshot{
			mcap("A", "2024-06-01", 100), mcap("A", "2024-06-03", 150),
			mcap("B", "2024-06-01", 200), mcap("B", "2024-06-03", 180),
			mcap("M", "2024-06-01", 50), mcap("M", "2024-06-03", 40),
			mcap("L", "2024-06-01", 10), mcap("L", "2024-06-03", 20),
		},
		scores: []contracts.CompanyScore{
			scoreRow("A", 70, 1),
			scoreRow("B", 70, 0.5),
		},
		history: []contracts.ScoreHistory{
			{Ticker: "A", Date: "2024-06-01", RawTotalScore: 68, SmoothedScore: 68},
			{Ticker: "A", Date: "2024-06-03", RawTotalScore: 75, SmoothedScore: 70},
		},
	}
}
