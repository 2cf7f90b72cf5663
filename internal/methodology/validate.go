package methodology

import (
	"fmt"
	"sort"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Score ===
	if cfg.Score.EMAAlpha <= 0 || cfg.Score.EMAAlpha >= 1 {
		return ValidationError{"score.ema_alpha", "must be in (0, 1)"}
	}
	if err := validatePctRange(cfg.Score.LimitedDataThreshold, "score.limited_data_threshold"); err != nil {
		return err
	}
	if cfg.Score.IntegrityEpsilon < 0 {
		return ValidationError{"score.integrity_epsilon", "must be >= 0"}
	}
	if cfg.Score.HistoryLimit < 1 {
		return ValidationError{"score.history_limit", "must be >= 1"}
	}

	// === Flow ===
	if cfg.Flow.DefaultPeriodDays < 1 || cfg.Flow.DefaultPeriodDays > 365 {
		return ValidationError{"flow.default_period_days", "must be in [1, 365]"}
	}
	if cfg.Flow.MaxLimit < 1 {
		return ValidationError{"flow.max_limit", "must be >= 1"}
	}
	if cfg.Flow.DefaultLimit < 1 || cfg.Flow.DefaultLimit > cfg.Flow.MaxLimit {
		return ValidationError{"flow.default_limit", fmt.Sprintf("must be in [1, %d]", cfg.Flow.MaxLimit)}
	}

	// === Trend ===
	if len(cfg.Trend.Periods) == 0 {
		return ValidationError{"trend.periods", "required"}
	}
	if !sort.IntsAreSorted(cfg.Trend.Periods) {
		return ValidationError{"trend.periods", "must be ascending"}
	}
	for i, p := range cfg.Trend.Periods {
		if p < 1 {
			return ValidationError{fmt.Sprintf("trend.periods[%d]", i), "must be >= 1"}
		}
		if i > 0 && p == cfg.Trend.Periods[i-1] {
			return ValidationError{fmt.Sprintf("trend.periods[%d]", i), "duplicate period"}
		}
	}
	// 가장 긴 기간 + 종료일이 lookback 안에 들어와야 함
	if cfg.Trend.LookbackDates < cfg.Trend.SortPeriod()+1 {
		return ValidationError{"trend.lookback_dates", fmt.Sprintf("must be >= %d", cfg.Trend.SortPeriod()+1)}
	}
	if cfg.Trend.DefaultDays < 1 || cfg.Trend.DefaultDays > 365 {
		return ValidationError{"trend.default_days", "must be in [1, 365]"}
	}
	if cfg.Trend.SeriesLimit < 1 {
		return ValidationError{"trend.series_limit", "must be >= 1"}
	}

	return nil
}

// validatePctRange는 비율 값이 0~1 범위인지 검증
func validatePctRange(pct float64, field string) error {
	if pct < 0 || pct > 1 {
		return ValidationError{field, "must be in range [0, 1]"}
	}
	return nil
}
