package score

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/hegemony/internal/contracts"
	"github.com/wonny/hegemony/internal/methodology"
	"github.com/wonny/hegemony/pkg/logger"
)

// Observation is one cycle's pre-computed raw dimensions of a company
type Observation struct {
	Ticker        string
	Date          string // YYYY-MM-DD
	Scale         float64
	Growth        float64
	Profitability float64
	Sentiment     float64
	DataQuality   float64
}

// RawTotal is the sum of the four dimensions
func (o Observation) RawTotal() float64 {
	return o.Scale + o.Growth + o.Profitability + o.Sentiment
}

// Candidate is one sector member to rank
type Candidate struct {
	Ticker    string
	Name      string
	Score     *contracts.CompanyScore // nil when the company was never scored
	MarketCap float64                 // USD, tie-break
}

// Engine smooths, checks and ranks Hegemony Scores
// ⭐ SSOT: EMA 평활, 무결성 검사, 섹터 내 순위는 여기서만
type Engine struct {
	alpha            float64
	limitedThreshold float64
	epsilon          float64
	log              *logger.Logger
}

// New creates a score engine from the methodology
func New(cfg methodology.Score, log *logger.Logger) *Engine {
	return &Engine{
		alpha:            cfg.EMAAlpha,
		limitedThreshold: cfg.LimitedDataThreshold,
		epsilon:          cfg.IntegrityEpsilon,
		log:              log.WithComponent("score"),
	}
}

// Smooth applies one EMA step. The first observation (prev == nil) is taken as is.
func (e *Engine) Smooth(prev *float64, raw float64) float64 {
	if prev == nil {
		return raw
	}
	return e.alpha*raw + (1-e.alpha)*(*prev)
}

// Update folds one observation into the previous score row (nil on first observation).
// It returns the new score row and the immutable history record of the cycle.
func (e *Engine) Update(prev *contracts.CompanyScore, obs Observation) (contracts.CompanyScore, contracts.ScoreHistory, error) {
	var prevSmoothed *float64
	if prev != nil {
		prevSmoothed = prev.SmoothedScore
	}

	raw := obs.RawTotal()
	smoothed := e.Smooth(prevSmoothed, raw)
	updatedAt := time.Now().UTC().Format(time.RFC3339)

	next := contracts.CompanyScore{
		Ticker:             obs.Ticker,
		ScaleScore:         obs.Scale,
		GrowthScore:        obs.Growth,
		ProfitabilityScore: obs.Profitability,
		SentimentScore:     obs.Sentiment,
		RawTotalScore:      raw,
		SmoothedScore:      &smoothed,
		DataQuality:        obs.DataQuality,
		ScoreUpdatedAt:     &updatedAt,
	}
	if err := e.CheckIntegrity(next); err != nil {
		return contracts.CompanyScore{}, contracts.ScoreHistory{}, err
	}

	history := contracts.ScoreHistory{
		Ticker:             obs.Ticker,
		Date:               obs.Date,
		RawTotalScore:      raw,
		SmoothedScore:      smoothed,
		ScaleScore:         obs.Scale,
		GrowthScore:        obs.Growth,
		ProfitabilityScore: obs.Profitability,
		SentimentScore:     obs.Sentiment,
	}
	return next, history, nil
}

// CheckIntegrity flags totals above 100+ε. Dimensions are never re-clamped.
func (e *Engine) CheckIntegrity(cs contracts.CompanyScore) error {
	limit := contracts.MaxTotalScore + e.epsilon
	if total := cs.DimensionTotal(); total > limit {
		return fmt.Errorf("%w: %s dimension total %.6f exceeds %.0f", contracts.ErrScoreIntegrity, cs.Ticker, total, contracts.MaxTotalScore)
	}
	if cs.SmoothedScore != nil && *cs.SmoothedScore > limit {
		return fmt.Errorf("%w: %s smoothed score %.6f exceeds %.0f", contracts.ErrScoreIntegrity, cs.Ticker, *cs.SmoothedScore, contracts.MaxTotalScore)
	}
	if cs.DataQuality < 0 || cs.DataQuality > 1 {
		return fmt.Errorf("%w: %s data quality %.4f outside [0,1]", contracts.ErrScoreIntegrity, cs.Ticker, cs.DataQuality)
	}
	return nil
}

// LimitedData reports whether a data quality is below the reliability threshold
func (e *Engine) LimitedData(dataQuality float64) bool {
	return dataQuality < e.limitedThreshold
}

// Summary returns the presentation record of a score row, nil when it was never smoothed
func (e *Engine) Summary(cs *contracts.CompanyScore) *contracts.ScoreSummary {
	if cs == nil || cs.SmoothedScore == nil {
		return nil
	}
	return &contracts.ScoreSummary{
		Total:         *cs.SmoothedScore,
		Scale:         cs.ScaleScore,
		Growth:        cs.GrowthScore,
		Profitability: cs.ProfitabilityScore,
		Sentiment:     cs.SentimentScore,
		DataQuality:   cs.DataQuality,
	}
}

// Rank orders candidates by smoothed score descending, then market cap descending.
// Unscored companies rank with score 0. Limited-data companies keep their position
// but are flagged. Any integrity violation fails the whole ranking.
func (e *Engine) Rank(cands []Candidate) ([]contracts.RankedCompany, error) {
	ranked := make([]contracts.RankedCompany, 0, len(cands))
	for _, c := range cands {
		row := contracts.RankedCompany{
			Ticker:    c.Ticker,
			Name:      c.Name,
			MarketCap: c.MarketCap,
		}
		if c.Score != nil {
			if err := e.CheckIntegrity(*c.Score); err != nil {
				return nil, err
			}
			if c.Score.SmoothedScore != nil {
				row.Score = *c.Score.SmoothedScore
			}
			row.DataQuality = c.Score.DataQuality
			row.Summary = e.Summary(c.Score)
		}
		row.LimitedData = e.LimitedData(row.DataQuality)
		ranked = append(ranked, row)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].MarketCap > ranked[j].MarketCap
	})

	limited := 0
	for i := range ranked {
		ranked[i].Rank = i + 1
		if ranked[i].LimitedData {
			limited++
		}
	}
	if limited > 0 {
		e.log.WithFields(map[string]interface{}{
			"companies": len(ranked),
			"limited":   limited,
		}).Debug("ranking contains limited-data companies")
	}
	return ranked, nil
}
