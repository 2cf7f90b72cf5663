package score

import (
	"fmt"
	"math"

	"github.com/wonny/hegemony/internal/contracts"
)

// Alpha returns the EMA weight of the newest observation
func (e *Engine) Alpha() float64 {
	return e.alpha
}

// Replay folds stored history rows, oldest first, through Update again and reports the
// drift between the stored and the replayed smoothed values. dataQuality applies to every
// step since history rows do not carry it. The last replayed row is returned, nil without history.
func (e *Engine) Replay(history []contracts.ScoreHistory, dataQuality float64) ([]contracts.ScoreReplayStep, *contracts.CompanyScore, error) {
	steps := make([]contracts.ScoreReplayStep, 0, len(history))
	var prev *contracts.CompanyScore

	for _, h := range history {
		obs := Observation{
			Ticker:        h.Ticker,
			Date:          h.Date,
			Scale:         h.ScaleScore,
			Growth:        h.GrowthScore,
			Profitability: h.ProfitabilityScore,
			Sentiment:     h.SentimentScore,
			DataQuality:   dataQuality,
		}
		next, rec, err := e.Update(prev, obs)
		if err != nil {
			return nil, nil, fmt.Errorf("replay %s %s: %w", h.Ticker, h.Date, err)
		}
		steps = append(steps, contracts.ScoreReplayStep{
			Date:             h.Date,
			RawTotal:         rec.RawTotalScore,
			StoredSmoothed:   h.SmoothedScore,
			ReplayedSmoothed: rec.SmoothedScore,
			Drift:            rec.SmoothedScore - h.SmoothedScore,
		})
		prev = &next
	}
	return steps, prev, nil
}

// MaxDrift returns the largest absolute drift of steps
func MaxDrift(steps []contracts.ScoreReplayStep) float64 {
	var worst float64
	for _, s := range steps {
		worst = math.Max(worst, math.Abs(s.Drift))
	}
	return worst
}

// Preview scores the observation derived from f on top of prev without storing anything
func (e *Engine) Preview(prev *contracts.CompanyScore, ticker, date string, f Fundamentals) (contracts.ScorePreview, error) {
	obs := Observe(ticker, date, f)
	next, _, err := e.Update(prev, obs)
	if err != nil {
		return contracts.ScorePreview{}, err
	}
	return contracts.ScorePreview{
		Date:          date,
		Scale:         obs.Scale,
		Growth:        obs.Growth,
		Profitability: obs.Profitability,
		Sentiment:     obs.Sentiment,
		RawTotal:      next.RawTotalScore,
		Smoothed:      *next.SmoothedScore,
		DataQuality:   obs.DataQuality,
		LimitedData:   e.LimitedData(obs.DataQuality),
	}, nil
}
