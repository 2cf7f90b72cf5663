package contracts

// Hegemony score dimension caps (total 100)
const (
	MaxScaleScore         = 35.0
	MaxGrowthScore        = 30.0
	MaxProfitabilityScore = 20.0
	MaxSentimentScore     = 15.0
	MaxTotalScore         = 100.0
)

// CompanyScore is the current score row of a company.
// SmoothedScore is nil until the first scoring cycle ran.
// ⭐ SSOT: 점수 행 타입은 여기서만
type CompanyScore struct {
	Ticker             string   `json:"ticker"`
	ScaleScore         float64  `json:"scaleScore"`
	GrowthScore        float64  `json:"growthScore"`
	ProfitabilityScore float64  `json:"profitabilityScore"`
	SentimentScore     float64  `json:"sentimentScore"`
	RawTotalScore      float64  `json:"rawTotalScore"`
	SmoothedScore      *float64 `json:"smoothedScore"`
	DataQuality        float64  `json:"dataQuality"` // 0.0 ~ 1.0
	ScoreUpdatedAt     *string  `json:"scoreUpdatedAt"`
}

// DimensionTotal is the sum of the four dimensions
func (cs *CompanyScore) DimensionTotal() float64 {
	return cs.ScaleScore + cs.GrowthScore + cs.ProfitabilityScore + cs.SentimentScore
}

// ScoreHistory is the immutable record of one scoring cycle
type ScoreHistory struct {
	Ticker             string  `json:"ticker"`
	Date               string  `json:"date"`
	RawTotalScore      float64 `json:"rawTotalScore"`
	SmoothedScore      float64 `json:"smoothedScore"`
	ScaleScore         float64 `json:"scaleScore"`
	GrowthScore        float64 `json:"growthScore"`
	ProfitabilityScore float64 `json:"profitabilityScore"`
	SentimentScore     float64 `json:"sentimentScore"`
}

// ScoreSummary is the company score record handed to the presentation layer
type ScoreSummary struct {
	Total         float64 `json:"total"`
	Scale         float64 `json:"scale"`
	Growth        float64 `json:"growth"`
	Profitability float64 `json:"profitability"`
	Sentiment     float64 `json:"sentiment"`
	DataQuality   float64 `json:"dataQuality"`
}

// RankedCompany is one row of a sector ranking
type RankedCompany struct {
	Rank        int           `json:"rank"` // 1-based
	Ticker      string        `json:"ticker"`
	Name        string        `json:"name"`
	Score       float64       `json:"score"`
	MarketCap   float64       `json:"marketCap"` // USD
	DataQuality float64       `json:"dataQuality"`
	LimitedData bool          `json:"limitedData"`
	Summary     *ScoreSummary `json:"summary"`
}

// SectorRankingResult answers the sector ranking view
type SectorRankingResult struct {
	SectorID   string          `json:"sectorId"`
	SectorName string          `json:"sectorName"`
	Date       string          `json:"date"`
	Companies  []RankedCompany `json:"companies"`
}

// CompanyScoreResult answers the company score view
type CompanyScoreResult struct {
	Ticker      string          `json:"ticker"`
	Name        string          `json:"name"`
	Score       *ScoreSummary   `json:"score"`
	LimitedData bool            `json:"limitedData"`
	Sectors     []SectorCompany `json:"sectors"`
	History     []ScoreHistory  `json:"history"`
}

// ScoreReplayStep is one history row folded again through the smoothing step
type ScoreReplayStep struct {
	Date             string  `json:"date"`
	RawTotal         float64 `json:"rawTotal"`
	StoredSmoothed   float64 `json:"storedSmoothed"`
	ReplayedSmoothed float64 `json:"replayedSmoothed"`
	Drift            float64 `json:"drift"` // replayed - stored
}

// ScorePreview is the score a new cycle would produce from the latest market data
type ScorePreview struct {
	Date          string  `json:"date"`
	Scale         float64 `json:"scale"`
	Growth        float64 `json:"growth"`
	Profitability float64 `json:"profitability"`
	Sentiment     float64 `json:"sentiment"`
	RawTotal      float64 `json:"rawTotal"`
	Smoothed      float64 `json:"smoothed"`
	DataQuality   float64 `json:"dataQuality"`
	LimitedData   bool    `json:"limitedData"`
}

// ScoreSimulationResult answers the read-only score simulation of one company
type ScoreSimulationResult struct {
	Ticker   string            `json:"ticker"`
	Name     string            `json:"name"`
	Alpha    float64           `json:"alpha"`
	Steps    []ScoreReplayStep `json:"steps"`
	MaxDrift float64           `json:"maxDrift"` // largest |drift|
	Preview  *ScorePreview     `json:"preview"`  // nil without a snapshot at the latest date
}
