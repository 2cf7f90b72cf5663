package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/hegemony/internal/contracts"
)

func memberTickers(members []contracts.SectorMember) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.Ticker
	}
	return out
}

func TestHegemonyMap_Latest(t *testing.T) {
	store := fixture()
	e := newTestEngine(store)

	res, err := e.HegemonyMap(context.Background(), MapQuery{})
	require.NoError(t, err)

	assert.False(t, res.Empty)
	assert.False(t, res.IsHistorical)
	assert.Equal(t, "2024-06-03", res.SelectedDate)
	assert.Equal(t, "2024-06-03", res.LastUpdated)
	assert.Equal(t, []string{"2024-06-03", "2024-06-01"}, res.AvailableDates)
	assert.Len(t, res.Categories, 2)
	assert.Len(t, res.Sectors, 3)

	// sector display order, join order inside a sector
	assert.Equal(t, []string{"A", "B", "M", "A", "L"}, memberTickers(res.SectorCompanies))

	a := res.SectorCompanies[0]
	assert.Equal(t, "gpu", a.SectorID)
	assert.Equal(t, "Alpha", a.Company.Name)
	require.NotNil(t, a.Snapshot)
	assert.Equal(t, 150.0, a.Snapshot.MarketCap)
	assert.Equal(t, 15.0, *a.Snapshot.Price)
	require.NotNil(t, a.Score)
	assert.Equal(t, 70.0, a.Score.Total)
	assert.Nil(t, a.CurrentSnapshot)
	assert.Nil(t, res.SectorCompanies[2].Score, "M was never scored")

	assert.Equal(t, 1, store.called("SnapshotsOnDates"), "selected and latest dates load in one batch")
}

func TestHegemonyMap_Historical(t *testing.T) {
	e := newTestEngine(fixture())

	res, err := e.HegemonyMap(context.Background(), MapQuery{Date: "2024-06-01", Industry: "ai"})
	require.NoError(t, err)
	assert.True(t, res.IsHistorical)
	assert.Equal(t, "2024-06-01", res.SelectedDate)
	assert.Equal(t, "2024-06-03", res.LastUpdated)

	tests := []struct {
		idx       int
		ticker    string
		then, now float64
		change    float64
	}{
		{0, "A", 10, 15, 50},
		{1, "B", 20, 18, -10},
		{2, "M", 5, 4, -20},
	}
	for _, tt := range tests {
		m := res.SectorCompanies[tt.idx]
		assert.Equal(t, tt.ticker, m.Ticker)
		require.NotNil(t, m.Snapshot, tt.ticker)
		assert.Equal(t, tt.then, *m.Snapshot.Price, tt.ticker)
		require.NotNil(t, m.CurrentSnapshot, tt.ticker)
		assert.Equal(t, tt.now, *m.CurrentSnapshot.Price, tt.ticker)
		require.NotNil(t, m.PriceChangeFromSnapshot, tt.ticker)
		assert.InDelta(t, tt.change, *m.PriceChangeFromSnapshot, 1e-9, tt.ticker)
	}
}

func TestHegemonyMap_Dates(t *testing.T) {
	e := newTestEngine(fixture())

	res, err := e.HegemonyMap(context.Background(), MapQuery{Date: "2024-05-01"})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-03", res.SelectedDate, "unknown dates fall back to the latest")
	assert.False(t, res.IsHistorical)

	res, err = e.HegemonyMap(context.Background(), MapQuery{Industry: "bio"})
	require.NoError(t, err)
	assert.Empty(t, res.Sectors)
	assert.NotNil(t, res.SectorCompanies)
	assert.Empty(t, res.SectorCompanies)

	_, err = e.HegemonyMap(context.Background(), MapQuery{Industry: "space"})
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	empty := fixture()
	empty.snapshots = nil
	res, err = newTestEngine(empty).HegemonyMap(context.Background(), MapQuery{})
	require.NoError(t, err)
	assert.True(t, res.Empty)
	assert.NotNil(t, res.AvailableDates)
	assert.Nil(t, res.SectorCompanies[0].Snapshot)
}

func TestHegemonyMap_IntegrityFails(t *testing.T) {
	store := fixture()
	store.scores[0].ScaleScore = 60
	e := newTestEngine(store)

	_, err := e.HegemonyMap(context.Background(), MapQuery{})
	assert.ErrorIs(t, err, contracts.ErrScoreIntegrity)
	assert.False(t, errors.Is(err, contracts.ErrComputationFailed))
}

func TestSectorDetail(t *testing.T) {
	store := fixture()
	store.scs = append(store.scs, contracts.SectorCompany{SectorID: "memory", Ticker: "K.KS", Rank: 2})
	store.snapshots = append(store.snapshots, mcap("K.KS", "2024-06-02", 1_450_000))
	e := newTestEngine(store)

	res, err := e.SectorDetail(context.Background(), "gpu")
	require.NoError(t, err)
	assert.Equal(t, "gpu", res.Sector.ID)
	require.NotNil(t, res.Category)
	assert.Equal(t, "chips", res.Category.ID)
	assert.Equal(t, []string{"A", "B"}, memberTickers(res.Companies))
	assert.Equal(t, 330.0, res.MarketCapTotal)
	assert.Equal(t, "2024-06-03", res.Companies[0].Snapshot.Date)

	// every member shows its own latest row, converted to USD
	res, err = e.SectorDetail(context.Background(), "memory")
	require.NoError(t, err)
	require.Len(t, res.Companies, 2)
	k := res.Companies[1]
	assert.Equal(t, "K.KS", k.Company.Name, "missing company rows keep the ticker as name")
	require.NotNil(t, k.Snapshot)
	assert.Equal(t, "2024-06-02", k.Snapshot.Date)
	assert.InDelta(t, 1000.0, k.Snapshot.MarketCap, 1e-9)
	assert.InDelta(t, 1040.0, res.MarketCapTotal, 1e-9)
	assert.Equal(t, 1, store.called("LatestSnapshots"))

	_, err = e.SectorDetail(context.Background(), "quantum")
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

func TestCompanyDetail(t *testing.T) {
	store := fixture()
	store.profiles = map[string]*contracts.CompanyProfile{
		"A": {Ticker: "A", Country: strPtr("US"), Employees: int64Ptr(29600)},
	}
	store.details = map[string]*contracts.SnapshotDetail{
		"A": {Ticker: "A", Date: "2024-06-03", MarketCap: contracts.Float(150), Price: contracts.Float(15), Week52High: contracts.Float(20)},
	}
	store.snapshots = append(store.snapshots, contracts.DailySnapshot{Ticker: "A", Date: "2024-06-02"})
	e := newTestEngine(store)

	res, err := e.CompanyDetail(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", res.Company.Name)
	require.NotNil(t, res.Profile)
	assert.Equal(t, int64(29600), *res.Profile.Employees)
	require.NotNil(t, res.Snapshot)
	assert.Equal(t, 20.0, *res.Snapshot.Week52High)

	// the 06-02 row has no price
	assert.Equal(t, []contracts.PricePoint{
		{Date: "2024-06-01", Price: 10},
		{Date: "2024-06-03", Price: 15},
	}, res.History)
	assert.Equal(t, []contracts.CompanySector{
		{Sector: contracts.SectorRef{ID: "gpu", Name: "GPU"}, Rank: 1},
		{Sector: contracts.SectorRef{ID: "llm", Name: "LLM"}, Rank: 1},
	}, res.Sectors)

	res, err = e.CompanyDetail(context.Background(), "B")
	require.NoError(t, err)
	assert.Nil(t, res.Profile)
	assert.Nil(t, res.Snapshot)

	_, err = e.CompanyDetail(context.Background(), "Z")
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

func priceTickers(items []contracts.PriceChange) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.Ticker
	}
	return out
}

func TestPriceChanges(t *testing.T) {
	store := fixture()
	e := newTestEngine(store)

	res, err := e.PriceChanges(context.Background(), PriceChangesQuery{})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total)
	assert.False(t, res.Empty)
	assert.Equal(t, contracts.DateRange{Start: "2024-06-01", End: "2024-06-03"}, res.DateRange)
	assert.Equal(t, []string{"L", "A", "B", "M"}, priceTickers(res.Companies))

	a := res.Companies[1]
	assert.Equal(t, "Alpha", a.Name)
	assert.Equal(t, 10.0, *a.FirstPrice)
	assert.Equal(t, 15.0, *a.LatestPrice)
	assert.InDelta(t, 5.0, *a.PriceChange, 1e-9)
	assert.InDelta(t, 50.0, *a.PercentChange, 1e-9)
	assert.Equal(t, 150.0, *a.MarketCap)
	assert.Equal(t, 1, store.called("SnapshotsOnDates"), "both endpoints load in one batch")

	tests := []struct {
		name string
		q    PriceChangesQuery
		want []string
	}{
		{"percent ascending", PriceChangesQuery{Order: contracts.OrderAsc}, []string{"M", "B", "A", "L"}},
		{"market cap", PriceChangesQuery{Sort: contracts.SortMarketCap}, []string{"B", "A", "M", "L"}},
		{"name", PriceChangesQuery{Sort: contracts.SortName}, []string{"A", "B", "L", "M"}},
		{"name ascending", PriceChangesQuery{Sort: contracts.SortName, Order: contracts.OrderAsc}, []string{"M", "L", "B", "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.PriceChanges(context.Background(), tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, priceTickers(res.Companies))
		})
	}
}

func TestPriceChanges_Industry(t *testing.T) {
	store := fixture()
	e := newTestEngine(store)

	res, err := e.PriceChanges(context.Background(), PriceChangesQuery{Industry: "bio"})
	require.NoError(t, err)
	assert.True(t, res.Empty)
	assert.NotNil(t, res.Companies)
	assert.Equal(t, 0, store.called("SnapshotBounds"))

	res, err = e.PriceChanges(context.Background(), PriceChangesQuery{Industry: "ai"})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 0, store.called("SnapshotTickers"), "an industry selects its own tickers")

	_, err = e.PriceChanges(context.Background(), PriceChangesQuery{Industry: "space"})
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

func statTickers(items []contracts.CompanyStat) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.Ticker
	}
	return out
}

func TestCompanyStatistics(t *testing.T) {
	e := newTestEngine(fixture())

	res, err := e.CompanyStatistics(context.Background(), CompanyStatsQuery{})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, []string{"A", "B", "M", "L"}, statTickers(res.Companies))

	a := res.Companies[0]
	assert.Equal(t, 2, a.Count)
	assert.Equal(t, []contracts.SectorRank{
		{ID: "gpu", Name: "GPU", Rank: 1},
		{ID: "llm", Name: "LLM", Rank: 1},
	}, a.Sectors)
	require.NotNil(t, a.LatestSnapshot)
	assert.Equal(t, 150.0, *a.LatestSnapshot.MarketCap)
	assert.Equal(t, 15.0, *a.LatestSnapshot.Price)

	tests := []struct {
		name      string
		q         CompanyStatsQuery
		want      []string
		wantPages int
	}{
		{"second page", CompanyStatsQuery{Page: 2, Limit: 3}, []string{"L"}, 2},
		{"past the end", CompanyStatsQuery{Page: 9, Limit: 3}, []string{}, 2},
		{"market cap", CompanyStatsQuery{Sort: contracts.SortMarketCap}, []string{"B", "A", "M", "L"}, 1},
		{"name ascending", CompanyStatsQuery{Sort: contracts.SortName, Order: contracts.OrderAsc}, []string{"M", "L", "B", "A"}, 1},
		{"count ascending", CompanyStatsQuery{Order: contracts.OrderAsc}, []string{"B", "M", "L", "A"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.CompanyStatistics(context.Background(), tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, statTickers(res.Companies))
			assert.Equal(t, tt.wantPages, res.TotalPages)
		})
	}

	res, err = e.CompanyStatistics(context.Background(), CompanyStatsQuery{Industry: "bio"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.NotNil(t, res.Companies)
}

func trendIDs(items []contracts.TrendSeries) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = s.ID
	}
	return out
}

func TestTrends_Company(t *testing.T) {
	e := newTestEngine(fixture())

	res, err := e.Trends(context.Background(), TrendsQuery{Type: contracts.TrendTypeCompany})
	require.NoError(t, err)
	assert.Equal(t, contracts.TrendTypeCompany, res.Type)
	assert.Equal(t, []string{"B", "A", "M", "L"}, trendIDs(res.Items), "largest at the last date first")
	assert.Equal(t, "Alpha", res.Items[1].Name)
	assert.Equal(t, []contracts.SeriesPoint{
		{Date: "2024-06-01", MarketCap: 100},
		{Date: "2024-06-03", MarketCap: 150},
	}, res.Items[1].Data)

	res, err = e.Trends(context.Background(), TrendsQuery{Type: contracts.TrendTypeCompany, IDs: []string{"L"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"L"}, trendIDs(res.Items))
	assert.Equal(t, "Lang", res.Items[0].Name)

	res, err = e.Trends(context.Background(), TrendsQuery{Type: contracts.TrendTypeCompany, Industry: "bio"})
	require.NoError(t, err)
	assert.True(t, res.Empty)
	assert.Empty(t, res.Items)
}

func TestTrends_CompanyTopFive(t *testing.T) {
	store := fixture()
	for _, tk := range []string{"P", "Q", "R"} {
		store.scs = append(store.scs, contracts.SectorCompany{SectorID: "memory", Ticker: tk, Rank: 9})
		store.snapshots = append(store.snapshots, mcap(tk, "2024-06-03", 500))
	}
	e := newTestEngine(store)

	res, err := e.Trends(context.Background(), TrendsQuery{Type: contracts.TrendTypeCompany, Industry: "ai"})
	require.NoError(t, err)
	assert.Equal(t, []string{"P", "Q", "R", "B", "A"}, trendIDs(res.Items))
	assert.Equal(t, "P", res.Items[0].Name)
	assert.Len(t, res.Items[0].Data, 1, "only dates with a snapshot")
}

func strPtr(s string) *string  { return &s }
func int64Ptr(v int64) *int64 { return &v }

func TestSimulateScore(t *testing.T) {
	store := fixture()
	store.history = []contracts.ScoreHistory{
		{Ticker: "A", Date: "2024-06-01", ScaleScore: 20, GrowthScore: 20, ProfitabilityScore: 10, SentimentScore: 10, RawTotalScore: 60, SmoothedScore: 60},
		{Ticker: "A", Date: "2024-06-03", ScaleScore: 25, GrowthScore: 20, ProfitabilityScore: 15, SentimentScore: 10, RawTotalScore: 70, SmoothedScore: 64},
	}
	store.snapshots[0].Volume = contracts.Float(100)
	store.snapshots[1].Volume = contracts.Float(200)
	e := newTestEngine(store)

	res, err := e.SimulateScore(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", res.Name)
	assert.Equal(t, 0.3, res.Alpha)
	require.Len(t, res.Steps, 2)
	assert.InDelta(t, -1.0, res.Steps[1].Drift, 1e-9)
	assert.InDelta(t, 1.0, res.MaxDrift, 1e-9)

	// share of gpu (A+B = 330) and a 200/150 volume ratio; the rest scores half
	require.NotNil(t, res.Preview)
	p := res.Preview
	assert.Equal(t, "2024-06-03", p.Date)
	assert.InDelta(t, 150.0/165.0*20+200.0/150.0/3*15, p.Scale, 1e-9)
	assert.InDelta(t, 15.0, p.Growth, 1e-9)
	assert.InDelta(t, 10.0, p.Profitability, 1e-9)
	assert.InDelta(t, 7.5, p.Sentiment, 1e-9)
	assert.InDelta(t, 0.3*p.RawTotal+0.7*70, p.Smoothed, 1e-9, "folds onto the stored score row")
	assert.True(t, p.LimitedData)
}

func TestSimulateScore_Unscored(t *testing.T) {
	e := newTestEngine(fixture())

	res, err := e.SimulateScore(context.Background(), "L")
	require.NoError(t, err)
	assert.Empty(t, res.Steps)
	require.NotNil(t, res.Preview)
	assert.InDelta(t, res.Preview.RawTotal, res.Preview.Smoothed, 1e-9)

	_, err = e.SimulateScore(context.Background(), "Z")
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	store := fixture()
	store.snapshots = nil
	res, err = newTestEngine(store).SimulateScore(context.Background(), "A")
	require.NoError(t, err)
	assert.Nil(t, res.Preview)
	assert.Len(t, res.Steps, 2, "history replays without snapshots")
}
