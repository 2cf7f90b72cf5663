package currency

import "strings"

// DefaultKRWUSDRate is the fallback KRW per USD rate
const DefaultKRWUSDRate = 1450.0

// Currency codes
const (
	USD = "USD"
	KRW = "KRW"
)

// krwSuffixes marks KOSPI (.KS) and KOSDAQ (.KQ) listings
var krwSuffixes = []string{".KS", ".KQ"}

// Normalizer converts raw ticker-denominated values to USD
// ⭐ SSOT: 통화 환산은 여기서만 (환율은 생성 시 주입, 전역 변수 금지)
type Normalizer struct {
	krwRate float64
}

// New creates a normalizer with the given KRW per USD rate.
// Non-positive rates fall back to DefaultKRWUSDRate.
func New(krwRate float64) *Normalizer {
	if krwRate <= 0 {
		krwRate = DefaultKRWUSDRate
	}
	return &Normalizer{krwRate: krwRate}
}

// KRWRate returns the configured KRW per USD rate
func (n *Normalizer) KRWRate() float64 {
	return n.krwRate
}

// CurrencyOf returns the listing currency of a ticker.
// Unrecognized suffixes are treated as USD.
func CurrencyOf(ticker string) string {
	for _, suffix := range krwSuffixes {
		if strings.HasSuffix(ticker, suffix) {
			return KRW
		}
	}
	return USD
}

// ToUSD converts one line item of a ticker to USD.
// Apply per item before summing, never to an already aggregated total.
func (n *Normalizer) ToUSD(value float64, ticker string) float64 {
	if CurrencyOf(ticker) == KRW {
		return value / n.krwRate
	}
	return value
}

// PtrToUSD converts a nullable value, keeping nil as nil
func (n *Normalizer) PtrToUSD(value *float64, ticker string) *float64 {
	if value == nil {
		return nil
	}
	v := n.ToUSD(*value, ticker)
	return &v
}
