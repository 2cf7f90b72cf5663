package contracts

// DailySnapshot is one (ticker, date) row written by the ingestion process.
// Metrics are pointers because every column is nullable upstream.
// ⭐ SSOT: 스냅샷 행 타입은 여기서만
type DailySnapshot struct {
	Ticker      string   `json:"ticker"`
	Date        string   `json:"date"` // YYYY-MM-DD
	MarketCap   *float64 `json:"marketCap"`
	Price       *float64 `json:"price"`
	PriceChange *float64 `json:"priceChange"` // daily percent change reported upstream
	DayHigh     *float64 `json:"dayHigh"`
	DayLow      *float64 `json:"dayLow"`
	Volume      *float64 `json:"volume"`
}

// SnapshotDetail is the valuation detail of one snapshot row, read for single-company views
type SnapshotDetail struct {
	Ticker      string   `json:"-"`
	Date        string   `json:"date"`
	MarketCap   *float64 `json:"marketCap"`
	Price       *float64 `json:"price"`
	PriceChange *float64 `json:"priceChange"`
	Week52High  *float64 `json:"week52High"`
	Week52Low   *float64 `json:"week52Low"`
	Volume      *float64 `json:"volume"`
	PERatio     *float64 `json:"peRatio"`
	PEGRatio    *float64 `json:"pegRatio"`
}

// SnapshotBounds is the first and last snapshot date of one ticker
type SnapshotBounds struct {
	Ticker string
	First  string
	Last   string
}

// DateLayout is the ISO date format used for every date string in the engine
const DateLayout = "2006-01-02"

// DateRange is the inclusive range covered by a result
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Float returns a pointer to v. Used to build nullable fields.
func Float(v float64) *float64 {
	return &v
}
