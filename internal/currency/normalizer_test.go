package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrencyOf(t *testing.T) {
	tests := []struct {
		ticker string
		want   string
	}{
		{"005930.KS", KRW},
		{"035720.KQ", KRW},
		{"NVDA", USD},
		{"7203.T", USD}, // 미지원 접미사는 USD 취급
		{"KS", USD},
		{"", USD},
	}

	for _, tt := range tests {
		t.Run(tt.ticker, func(t *testing.T) {
			assert.Equal(t, tt.want, CurrencyOf(tt.ticker))
		})
	}
}

func TestNormalizer_ToUSD(t *testing.T) {
	n := New(1450)

	// 삼성전자 시가총액 3000억원
	got := n.ToUSD(300_000_000_000, "005930.KS")
	assert.InDelta(t, 206_896_551.7, got, 0.1)

	assert.Equal(t, 1_000.0, n.ToUSD(1_000, "AAPL"))
	assert.InDelta(t, 1.0, n.ToUSD(1450, "035720.KQ"), 1e-12)
}

func TestNormalizer_RateIsPerInstance(t *testing.T) {
	a := New(1000)
	b := New(2000)

	assert.Equal(t, 1.0, a.ToUSD(1000, "000660.KS"))
	assert.Equal(t, 0.5, b.ToUSD(1000, "000660.KS"))
}

func TestNew_InvalidRateFallsBack(t *testing.T) {
	assert.Equal(t, DefaultKRWUSDRate, New(0).KRWRate())
	assert.Equal(t, DefaultKRWUSDRate, New(-3).KRWRate())
	assert.Equal(t, 1300.0, New(1300).KRWRate())
}

func TestNormalizer_PerItemBeforeAggregation(t *testing.T) {
	n := New(1450)

	items := []struct {
		ticker string
		value  float64
	}{
		{"005930.KS", 1450_000},
		{"NVDA", 500},
	}

	var total float64
	for _, it := range items {
		total += n.ToUSD(it.value, it.ticker)
	}

	assert.InDelta(t, 1500.0, total, 1e-9)
}

func TestNormalizer_PtrToUSD(t *testing.T) {
	n := New(1450)
	assert.Nil(t, n.PtrToUSD(nil, "005930.KS"))

	v := 2900.0
	got := n.PtrToUSD(&v, "005930.KS")
	if assert.NotNil(t, got) {
		assert.InDelta(t, 2.0, *got, 1e-12)
	}
	assert.Equal(t, 2900.0, v, "input must not be mutated")
}
