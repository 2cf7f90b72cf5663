package methodology

// Config holds the tunables of the aggregation and scoring engine
// ⭐ SSOT: 점수/흐름/추세 파라미터는 여기서만 (하드코딩 금지)
type Config struct {
	Version string `yaml:"version" json:"version"`
	Score   Score  `yaml:"score" json:"score"`
	Flow    Flow   `yaml:"flow" json:"flow"`
	Trend   Trend  `yaml:"trend" json:"trend"`
}

// Score Hegemony Score 평활/신뢰도 설정
type Score struct {
	EMAAlpha             float64 `yaml:"ema_alpha" json:"ema_alpha"`                           // 0 < α < 1
	LimitedDataThreshold float64 `yaml:"limited_data_threshold" json:"limited_data_threshold"` // dataQuality 미만이면 limitedData
	IntegrityEpsilon     float64 `yaml:"integrity_epsilon" json:"integrity_epsilon"`           // total > 100+ε 이면 무결성 오류
	HistoryLimit         int     `yaml:"history_limit" json:"history_limit"`                   // 회사 점수 이력 조회 개수
}

// Flow 자금흐름 조회 기본값/상한
type Flow struct {
	DefaultPeriodDays int `yaml:"default_period_days" json:"default_period_days"`
	DefaultLimit      int `yaml:"default_limit" json:"default_limit"`
	MaxLimit          int `yaml:"max_limit" json:"max_limit"`
}

// Trend 다기간 섹터 추세 설정
type Trend struct {
	Periods       []int `yaml:"periods" json:"periods"`               // 거래일 기준
	LookbackDates int   `yaml:"lookback_dates" json:"lookback_dates"` // 최근 N개 날짜
	DefaultDays   int   `yaml:"default_days" json:"default_days"`     // trends 뷰 기본 기간
	SeriesLimit   int   `yaml:"series_limit" json:"series_limit"`     // ids 미지정 시 시계열 개수
}

// Default returns the built-in methodology
func Default() *Config {
	return &Config{
		Version: "v1",
		Score: Score{
			EMAAlpha:             0.3,
			LimitedDataThreshold: 0.7,
			IntegrityEpsilon:     1e-6,
			HistoryLimit:         30,
		},
		Flow: Flow{
			DefaultPeriodDays: 14,
			DefaultLimit:      6,
			MaxLimit:          50,
		},
		Trend: Trend{
			Periods:       []int{1, 3, 7, 14, 30},
			LookbackDates: 40,
			DefaultDays:   30,
			SeriesLimit:   5,
		},
	}
}

// SortPeriod is the period that orders the sector trend view (the longest one)
func (t Trend) SortPeriod() int {
	longest := 0
	for _, p := range t.Periods {
		if p > longest {
			longest = p
		}
	}
	return longest
}
