package score

import (
	"math"
	"strings"
)

// Sub-dimension caps of the Hegemony Score methodology
const (
	MarketCapShareMax  = 20.0
	VolumeRatioMax     = 15.0
	RevenueGrowthMax   = 15.0
	EarningsGrowthMax  = 15.0
	OperatingMarginMax = 10.0
	ReturnOnEquityMax  = 10.0
	RecommendationMax  = 8.0
	TargetUpsideMax    = 7.0

	// 섹터 시총 50% 이상이면 만점
	fullShare      = 0.5
	volumeRatioCap = 3.0
)

// recommendationScores maps an analyst consensus key to points (max 8)
var recommendationScores = map[string]float64{
	"strong_buy":   8,
	"buy":          6,
	"hold":         4,
	"underperform": 2,
	"sell":         1,
	"none":         4,
}

// Fundamentals are the raw inputs of one company's score cycle. nil means not collected.
type Fundamentals struct {
	MarketCap            *float64
	Volume               *float64
	AvgVolume            *float64
	SectorTotalMarketCap float64

	RevenueGrowth   *float64
	EarningsGrowth  *float64
	OperatingMargin *float64
	ReturnOnEquity  *float64

	RecommendationKey *string
	AnalystCount      *float64
	TargetMeanPrice   *float64
	CurrentPrice      *float64
}

// Normalize maps value linearly from [min,max] onto [0,maxScore] with clamping.
// A missing value or an empty range scores half.
func Normalize(value *float64, min, max, maxScore float64) float64 {
	if value == nil || max == min {
		return maxScore * 0.5
	}
	clamped := math.Max(min, math.Min(max, *value))
	return (clamped - min) / (max - min) * maxScore
}

// ScaleScore returns the market-cap share (≤20) and volume ratio (≤15) points
func ScaleScore(f Fundamentals) (share, volume float64) {
	share = MarketCapShareMax * 0.5
	if nonZero(f.MarketCap) && f.SectorTotalMarketCap > 0 {
		share = math.Min(*f.MarketCap/f.SectorTotalMarketCap/fullShare, 1) * MarketCapShareMax
	}

	volume = VolumeRatioMax * 0.5
	if nonZero(f.Volume) && nonZero(f.AvgVolume) && *f.AvgVolume > 0 {
		ratio := math.Min(*f.Volume / *f.AvgVolume, volumeRatioCap)
		volume = ratio / volumeRatioCap * VolumeRatioMax
	}
	return share, volume
}

// GrowthScore returns the revenue (≤15) and earnings (≤15) growth points
func GrowthScore(f Fundamentals) (revenue, earnings float64) {
	return Normalize(f.RevenueGrowth, -0.5, 1.0, RevenueGrowthMax),
		Normalize(f.EarningsGrowth, -1.0, 2.0, EarningsGrowthMax)
}

// ProfitabilityScore returns the operating margin (≤10) and ROE (≤10) points
func ProfitabilityScore(f Fundamentals) (margin, roe float64) {
	return Normalize(f.OperatingMargin, -0.2, 0.5, OperatingMarginMax),
		Normalize(f.ReturnOnEquity, -0.2, 0.6, ReturnOnEquityMax)
}

// SentimentScore returns the recommendation (≤8) and target upside (≤7) points
func SentimentScore(f Fundamentals) (recommendation, upside float64) {
	key := "none"
	if f.RecommendationKey != nil && *f.RecommendationKey != "" {
		key = strings.ToLower(*f.RecommendationKey)
	}
	recommendation, ok := recommendationScores[key]
	if !ok {
		recommendation = recommendationScores["none"]
	}

	upside = TargetUpsideMax * 0.5
	if nonZero(f.TargetMeanPrice) && nonZero(f.CurrentPrice) && *f.CurrentPrice > 0 {
		u := (*f.TargetMeanPrice - *f.CurrentPrice) / *f.CurrentPrice
		upside = Normalize(&u, -0.3, 0.6, TargetUpsideMax)
	}
	return recommendation, upside
}

// DataQuality is the ratio of collected fundamental fields (7 in total)
func DataQuality(f Fundamentals) float64 {
	fields := []bool{
		f.RevenueGrowth != nil,
		f.EarningsGrowth != nil,
		f.OperatingMargin != nil,
		f.ReturnOnEquity != nil,
		f.RecommendationKey != nil,
		f.AnalystCount != nil,
		f.TargetMeanPrice != nil,
	}
	present := 0
	for _, ok := range fields {
		if ok {
			present++
		}
	}
	return float64(present) / float64(len(fields))
}

// Observe derives one cycle's raw dimensions from fundamentals
func Observe(ticker, date string, f Fundamentals) Observation {
	share, volume := ScaleScore(f)
	revenue, earnings := GrowthScore(f)
	margin, roe := ProfitabilityScore(f)
	recommendation, upside := SentimentScore(f)

	return Observation{
		Ticker:        ticker,
		Date:          date,
		Scale:         share + volume,
		Growth:        revenue + earnings,
		Profitability: margin + roe,
		Sentiment:     recommendation + upside,
		DataQuality:   DataQuality(f),
	}
}

func nonZero(v *float64) bool {
	return v != nil && *v != 0
}
