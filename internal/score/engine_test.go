package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/hegemony/internal/contracts"
	"github.com/wonny/hegemony/internal/methodology"
	"github.com/wonny/hegemony/pkg/logger"
)

func newEngine() *Engine {
	return New(methodology.Default().Score, logger.Nop())
}

func scored(ticker string, smoothed, dq float64) *contracts.CompanyScore {
	return &contracts.CompanyScore{
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

func TestSmooth(t *testing.T) {
	e := newEngine()

	assert.Equal(t, 72.0, e.Smooth(nil, 72), "first observation is taken as is")

	prev := 50.0
	got := e.Smooth(&prev, 80)
	assert.InDelta(t, 0.3*80+0.7*50, got, 1e-9)
	assert.True(t, got > 50 && got < 80, "smoothed lies strictly between prev and raw")

	got = e.Smooth(&prev, 20)
	assert.True(t, got > 20 && got < 50)

	assert.InDelta(t, 50.0, e.Smooth(&prev, 50), 1e-9)
}

func TestUpdate_FirstObservation(t *testing.T) {
	e := newEngine()
	obs := Observation{Ticker: "NVDA", Date: "2024-06-03", Scale: 30, Growth: 25, Profitability: 15, Sentiment: 10, DataQuality: 1}

	next, hist, err := e.Update(nil, obs)
	require.NoError(t, err)

	require.NotNil(t, next.SmoothedScore)
	assert.Equal(t, 80.0, *next.SmoothedScore)
	assert.Equal(t, 80.0, next.RawTotalScore)
	assert.NotNil(t, next.ScoreUpdatedAt)

	assert.Equal(t, contracts.ScoreHistory{
		Ticker: "NVDA", Date: "2024-06-03",
		RawTotalScore: 80, SmoothedScore: 80,
		ScaleScore: 30, GrowthScore: 25, ProfitabilityScore: 15, SentimentScore: 10,
	}, hist)
}

func TestUpdate_Smooths(t *testing.T) {
	e := newEngine()
	prev := scored("NVDA", 60, 1)
	obs := Observation{Ticker: "NVDA", Date: "2024-06-04", Scale: 35, Growth: 30, Profitability: 20, Sentiment: 15, DataQuality: 0.5}

	next, hist, err := e.Update(prev, obs)
	require.NoError(t, err)
	assert.InDelta(t, 0.3*100+0.7*60, *next.SmoothedScore, 1e-9)
	assert.Equal(t, *next.SmoothedScore, hist.SmoothedScore)
	assert.Equal(t, 0.5, next.DataQuality)

	// a previous row that was never smoothed counts as first observation
	next, _, err = e.Update(&contracts.CompanyScore{Ticker: "NVDA"}, obs)
	require.NoError(t, err)
	assert.Equal(t, 100.0, *next.SmoothedScore)
}

func TestUpdate_IntegrityViolation(t *testing.T) {
	obs := Observation{Ticker: "BAD", Scale: 36, Growth: 30, Profitability: 20, Sentiment: 15, DataQuality: 1}
	_, _, err := newEngine().Update(nil, obs)
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrScoreIntegrity)
	assert.Contains(t, err.Error(), "BAD")
}

func TestCheckIntegrity(t *testing.T) {
	e := newEngine()
	tests := []struct {
		name    string
		score   contracts.CompanyScore
		wantErr bool
	}{
		{"exactly 100", contracts.CompanyScore{ScaleScore: 35, GrowthScore: 30, ProfitabilityScore: 20, SentimentScore: 15}, false},
		{"within epsilon", contracts.CompanyScore{ScaleScore: 35, GrowthScore: 30, ProfitabilityScore: 20, SentimentScore: 15.0000005}, false},
		{"above epsilon", contracts.CompanyScore{ScaleScore: 35, GrowthScore: 30, ProfitabilityScore: 20, SentimentScore: 15.01}, true},
		{"smoothed above cap", contracts.CompanyScore{SmoothedScore: contracts.Float(100.5)}, true},
		{"quality above one", contracts.CompanyScore{DataQuality: 1.2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.CheckIntegrity(tt.score)
			if tt.wantErr {
				assert.ErrorIs(t, err, contracts.ErrScoreIntegrity)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	e := newEngine()
	assert.Nil(t, e.Summary(nil))
	assert.Nil(t, e.Summary(&contracts.CompanyScore{Ticker: "NEW"}))

	cs := &contracts.CompanyScore{
		ScaleScore: 30, GrowthScore: 20, ProfitabilityScore: 10, SentimentScore: 5,
		SmoothedScore: contracts.Float(62.5), DataQuality: 0.8571,
	}
	assert.Equal(t, &contracts.ScoreSummary{
		Total: 62.5, Scale: 30, Growth: 20, Profitability: 10, Sentiment: 5, DataQuality: 0.8571,
	}, e.Summary(cs))
}

func TestRank(t *testing.T) {
	e := newEngine()
	cands := []Candidate{
		{Ticker: "SMALL", Score: scored("SMALL", 70, 1), MarketCap: 10},
		{Ticker: "TOP", Score: scored("TOP", 90, 1), MarketCap: 1},
		{Ticker: "BIG", Score: scored("BIG", 70, 1), MarketCap: 500},
		{Ticker: "THIN", Score: scored("THIN", 80, 0.4), MarketCap: 5},
		{Ticker: "NEW", MarketCap: 1000},
	}

	ranked, err := e.Rank(cands)
	require.NoError(t, err)
	require.Len(t, ranked, 5)

	order := make([]string, len(ranked))
	for i, r := range ranked {
		order[i] = r.Ticker
		assert.Equal(t, i+1, r.Rank)
	}
	assert.Equal(t, []string{"TOP", "THIN", "BIG", "SMALL", "NEW"}, order)

	assert.True(t, ranked[1].LimitedData, "limited data is flagged, not dropped")
	assert.False(t, ranked[0].LimitedData)
	assert.True(t, ranked[4].LimitedData)
	assert.Nil(t, ranked[4].Summary)
	require.NotNil(t, ranked[0].Summary)
	assert.Equal(t, 90.0, ranked[0].Summary.Total)
}

func TestRank_StableOnFullTie(t *testing.T) {
	e := newEngine()
	cands := []Candidate{
		{Ticker: "A", Score: scored("A", 50, 1), MarketCap: 10},
		{Ticker: "B", Score: scored("B", 50, 1), MarketCap: 10},
		{Ticker: "C", Score: scored("C", 50, 1), MarketCap: 10},
	}

	ranked, err := e.Rank(cands)
	require.NoError(t, err)
	assert.Equal(t, "A", ranked[0].Ticker)
	assert.Equal(t, "B", ranked[1].Ticker)
	assert.Equal(t, "C", ranked[2].Ticker)
}

func TestRank_IntegrityFailsWholeRanking(t *testing.T) {
	e := newEngine()
	bad := scored("BAD", 90, 1)
	bad.ScaleScore = 60

	ranked, err := e.Rank([]Candidate{
		{Ticker: "OK", Score: scored("OK", 50, 1)},
		{Ticker: "BAD", Score: bad},
	})
	assert.ErrorIs(t, err, contracts.ErrScoreIntegrity)
	assert.Nil(t, ranked)
}

func TestLimitedData(t *testing.T) {
	e := newEngine()
	assert.True(t, e.LimitedData(0.69))
	assert.False(t, e.LimitedData(0.7))
	assert.False(t, e.LimitedData(1))
}
