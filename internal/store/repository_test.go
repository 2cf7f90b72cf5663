package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/hegemony/internal/contracts"
)

// fakeRows replays fixed values through pgx.Rows
type fakeRows struct {
	values [][]any
	pos    int
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) { return r.values[r.pos-1], nil }

func (r *fakeRows) Scan(dest ...any) error {
	row := r.values[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(row))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[i].(string)
		case *int:
			*p = row[i].(int)
		case *float64:
			*p = row[i].(float64)
		case **float64:
			if row[i] == nil {
				*p = nil
			} else {
				v := row[i].(float64)
				*p = &v
			}
		case **string:
			if row[i] == nil {
				*p = nil
			} else {
				v := row[i].(string)
				*p = &v
			}
		case **int64:
			if row[i] == nil {
				*p = nil
			} else {
				v := row[i].(int64)
				*p = &v
			}
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

type fakeQuerier struct {
	rows  [][]any
	err   error
	calls int
	args  []any
	last  *fakeRows
}

func (q *fakeQuerier) Query(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
	q.calls++
	q.args = args
	if q.err != nil {
		return nil, q.err
	}
	q.last = &fakeRows{values: q.rows}
	return q.last, nil
}

func TestRepository_Snapshots(t *testing.T) {
	q := &fakeQuerier{rows: [][]any{
		{"NVDA", "2024-06-03", 3.1e12, 120.5, 1.25, 122.0, 118.0, 4.0e8},
		{"005930.KS", "2024-06-03", nil, 75000.0, nil, nil, nil, nil},
	}}
	repo := NewRepository(q)

	snaps, err := repo.SnapshotsSince(context.Background(), []string{"NVDA", "005930.KS"}, "2024-06-01")
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	assert.Equal(t, contracts.DailySnapshot{
		Ticker: "NVDA", Date: "2024-06-03",
		MarketCap: contracts.Float(3.1e12), Price: contracts.Float(120.5), PriceChange: contracts.Float(1.25),
		DayHigh: contracts.Float(122), DayLow: contracts.Float(118), Volume: contracts.Float(4e8),
	}, snaps[0])
	assert.Nil(t, snaps[1].MarketCap)
	assert.Nil(t, snaps[1].Volume)
	assert.Equal(t, 75000.0, *snaps[1].Price)

	assert.Equal(t, []any{[]string{"NVDA", "005930.KS"}, "2024-06-01"}, q.args)
	assert.True(t, q.last.closed)
}

func TestRepository_EmptyInputsSkipQuery(t *testing.T) {
	q := &fakeQuerier{}
	repo := NewRepository(q)
	ctx := context.Background()

	snaps, err := repo.SnapshotsSince(ctx, nil, "2024-06-01")
	require.NoError(t, err)
	assert.Empty(t, snaps)

	snaps, err = repo.SnapshotsOnDates(ctx, []string{"A"}, nil)
	require.NoError(t, err)
	assert.Empty(t, snaps)

	companies, err := repo.Companies(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, companies)

	scores, err := repo.CompanyScores(ctx, []string{})
	require.NoError(t, err)
	assert.Empty(t, scores)

	dates, err := repo.RecentDistinctDates(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, dates)

	latest, err := repo.LatestSnapshots(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, latest)

	bounds, err := repo.SnapshotBounds(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, bounds)

	history, err := repo.TickerSnapshots(ctx, "NVDA", 0)
	require.NoError(t, err)
	assert.Empty(t, history)

	assert.Equal(t, 0, q.calls)
}

func TestRepository_Hierarchy(t *testing.T) {
	ctx := context.Background()

	q := &fakeQuerier{rows: [][]any{
		{"ai", "AI", "Artificial Intelligence", nil, 1},
	}}
	industries, err := NewRepository(q).Industries(ctx)
	require.NoError(t, err)
	require.Len(t, industries, 1)
	assert.Equal(t, "Artificial Intelligence", *industries[0].NameEn)
	assert.Nil(t, industries[0].Icon)

	q = &fakeQuerier{rows: [][]any{
		{"gpu", "NVDA", 1, nil},
		{"", "AMD", 2, "orphan"},
	}}
	members, err := NewRepository(q).SectorCompanies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []contracts.SectorCompany{
		{SectorID: "gpu", Ticker: "NVDA", Rank: 1},
		{SectorID: "", Ticker: "AMD", Rank: 2, Notes: strPtr("orphan")},
	}, members)
}

func TestRepository_CompanyScores(t *testing.T) {
	q := &fakeQuerier{rows: [][]any{
		{"NVDA", 30.0, 25.0, 15.0, 10.0, 80.0, 78.5, 1.0, "2024-06-03T00:00:00Z"},
		{"NEW", 0.0, 0.0, 0.0, 0.0, 0.0, nil, 0.0, nil},
	}}

	scores, err := NewRepository(q).CompanyScores(context.Background(), []string{"NVDA", "NEW"})
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 78.5, *scores[0].SmoothedScore)
	assert.Equal(t, "2024-06-03T00:00:00Z", *scores[0].ScoreUpdatedAt)
	assert.Nil(t, scores[1].SmoothedScore)
	assert.Nil(t, scores[1].ScoreUpdatedAt)
}

func TestRepository_SnapshotBounds(t *testing.T) {
	q := &fakeQuerier{rows: [][]any{
		{"AMD", "2024-01-02", "2024-06-03"},
		{"NVDA", "2024-03-01", "2024-06-03"},
	}}

	bounds, err := NewRepository(q).SnapshotBounds(context.Background(), []string{"AMD", "NVDA"})
	require.NoError(t, err)
	assert.Equal(t, []contracts.SnapshotBounds{
		{Ticker: "AMD", First: "2024-01-02", Last: "2024-06-03"},
		{Ticker: "NVDA", First: "2024-03-01", Last: "2024-06-03"},
	}, bounds)
	assert.Equal(t, []any{[]string{"AMD", "NVDA"}}, q.args)
}

func TestRepository_LatestSnapshots(t *testing.T) {
	q := &fakeQuerier{rows: [][]any{
		{"NVDA", "2024-06-03", 3.1e12, 120.5, nil, nil, nil, nil},
	}}

	snaps, err := NewRepository(q).LatestSnapshots(context.Background(), []string{"NVDA"})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "2024-06-03", snaps[0].Date)
	assert.Nil(t, snaps[0].PriceChange)
}

func TestRepository_SingleRowLookups(t *testing.T) {
	ctx := context.Background()

	q := &fakeQuerier{rows: [][]any{
		{"NVDA", "Technology", "Semiconductors", "US", int64(29600), 6.09e10, 2.97e10, nil, "https://nvidia.com"},
	}}
	profile, err := NewRepository(q).CompanyProfile(ctx, "NVDA")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, int64(29600), *profile.Employees)
	assert.Nil(t, profile.Description)
	assert.Equal(t, []any{"NVDA"}, q.args)

	detail, err := NewRepository(&fakeQuerier{rows: [][]any{
		{"NVDA", "2024-06-03", 3.1e12, 120.5, 1.25, 140.7, 39.2, 4.0e8, 70.1, nil},
	}}).LatestSnapshotDetail(ctx, "NVDA")
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, 140.7, *detail.Week52High)
	assert.Nil(t, detail.PEGRatio)

	profile, err = NewRepository(&fakeQuerier{}).CompanyProfile(ctx, "ZZZ")
	require.NoError(t, err)
	assert.Nil(t, profile)

	detail, err = NewRepository(&fakeQuerier{}).LatestSnapshotDetail(ctx, "ZZZ")
	require.NoError(t, err)
	assert.Nil(t, detail)
}

func TestRepository_QueryErrorIsWrapped(t *testing.T) {
	boom := errors.New("connection refused")
	repo := NewRepository(&fakeQuerier{err: boom})

	_, err := repo.DistinctDatesSince(context.Background(), "2024-06-01")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "distinct dates")
}

func TestRepository_ScanErrorIsWrapped(t *testing.T) {
	repo := NewRepository(&fakeQuerier{rows: [][]any{{"only-one-column"}}})

	_, err := repo.Companies(context.Background(), []string{"NVDA"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan companies")
}

func strPtr(s string) *string { return &s }

// Integration tests run against a seeded database

func integrationRepo(t *testing.T) *Repository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	url := os.Getenv("HEGEMONY_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("HEGEMONY_TEST_DATABASE_URL not set, skipping integration test")
	}
	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewRepository(pool)
}

func TestIntegration_Dates(t *testing.T) {
	repo := integrationRepo(t)
	ctx := context.Background()

	recent, err := repo.RecentDistinctDates(ctx, 5)
	require.NoError(t, err)
	assert.True(t, sort.SliceIsSorted(recent, func(i, j int) bool { return recent[i] > recent[j] }))

	if len(recent) == 0 {
		return
	}
	since, err := repo.DistinctDatesSince(ctx, recent[len(recent)-1])
	require.NoError(t, err)
	assert.True(t, sort.StringsAreSorted(since))
	assert.Len(t, since, len(recent))
}

func TestIntegration_Hierarchy(t *testing.T) {
	repo := integrationRepo(t)
	ctx := context.Background()

	_, err := repo.Industries(ctx)
	require.NoError(t, err)
	_, err = repo.Categories(ctx)
	require.NoError(t, err)
	_, err = repo.Sectors(ctx)
	require.NoError(t, err)
	_, err = repo.IndustryCategories(ctx)
	require.NoError(t, err)

	members, err := repo.SectorCompanies(ctx)
	require.NoError(t, err)
	if len(members) == 0 {
		return
	}
	sectors, err := repo.CompanySectors(ctx, members[0].Ticker)
	require.NoError(t, err)
	assert.NotEmpty(t, sectors)
}
