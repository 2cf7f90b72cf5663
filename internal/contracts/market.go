package contracts

// ⭐ SSOT: 계층 지도/섹터·기업 상세/가격 변동/기업 통계 출력 계약
// 모든 금액(시가총액, 가격)은 USD 환산 값

// MemberSnapshot is the snapshot of a sector member at one date
type MemberSnapshot struct {
	Date        string   `json:"date"`
	MarketCap   float64  `json:"marketCap"`
	Price       *float64 `json:"price"`
	PriceChange *float64 `json:"priceChange"`
}

// CurrentPrice is the latest price of a member shown next to a historical snapshot
type CurrentPrice struct {
	Price       *float64 `json:"price"`
	PriceChange *float64 `json:"priceChange"`
}

// SectorMember is one company placed in a sector with its snapshot and score
type SectorMember struct {
	SectorID string          `json:"sectorId"`
	Ticker   string          `json:"ticker"`
	Rank     int             `json:"rank"`
	Notes    *string         `json:"notes"`
	Company  Company         `json:"company"`
	Snapshot *MemberSnapshot `json:"snapshot"` // nil without a non-zero market cap
	Score    *ScoreSummary   `json:"score"`

	// Set on historical map views only
	CurrentSnapshot         *CurrentPrice `json:"currentSnapshot,omitempty"`
	PriceChangeFromSnapshot *float64      `json:"priceChangeFromSnapshot,omitempty"`
}

// HegemonyMapResult answers the hierarchy map at one selected snapshot date
type HegemonyMapResult struct {
	Categories      []Category     `json:"categories"`
	Sectors         []Sector       `json:"sectors"`
	SectorCompanies []SectorMember `json:"sectorCompanies"`
	LastUpdated     string         `json:"lastUpdated"`
	SelectedDate    string         `json:"selectedDate"`
	AvailableDates  []string       `json:"availableDates"` // descending
	IsHistorical    bool           `json:"isHistorical"`
	Empty           bool           `json:"empty"`
}

// SectorDetailResult answers the sector detail view. Members carry their own latest snapshot.
type SectorDetailResult struct {
	Sector         Sector         `json:"sector"`
	Category       *Category      `json:"category"`
	Companies      []SectorMember `json:"companies"`
	MarketCapTotal float64        `json:"marketCapTotal"`
}

// SectorRef names a sector
type SectorRef struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	NameEn *string `json:"nameEn"`
}

// CompanySector is one sector membership of a company
type CompanySector struct {
	Sector SectorRef `json:"sector"`
	Rank   int       `json:"rank"`
}

// CompanyDetailResult answers the company detail view
type CompanyDetailResult struct {
	Company  Company         `json:"company"`
	Profile  *CompanyProfile `json:"profile"`
	Snapshot *SnapshotDetail `json:"snapshot"`
	History  []PricePoint    `json:"history"` // ascending, rows with a price only
	Sectors  []CompanySector `json:"sectors"`
}

// Sort keys and orders of the list views
const (
	SortPercentChange = "percentChange"
	SortName          = "name"
	SortMarketCap     = "marketCap"
	SortCount         = "count"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// PriceChange is the move of one ticker between its first and latest snapshot
type PriceChange struct {
	Ticker        string   `json:"ticker"`
	Name          string   `json:"name"`
	NameKo        *string  `json:"nameKo"`
	FirstPrice    *float64 `json:"firstPrice"`
	FirstDate     string   `json:"firstDate"`
	LatestPrice   *float64 `json:"latestPrice"`
	LatestDate    string   `json:"latestDate"`
	PriceChange   *float64 `json:"priceChange"`
	PercentChange *float64 `json:"percentChange"`
	MarketCap     *float64 `json:"marketCap"`
}

// PriceChangesResult answers the price change view
type PriceChangesResult struct {
	Companies []PriceChange `json:"companies"`
	DateRange DateRange     `json:"dateRange"`
	Total     int           `json:"total"`
	Empty     bool          `json:"empty"`
}

// SectorRank is a sector a company belongs to, with its rank there
type SectorRank struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

// LatestQuote is the latest snapshot values of a company
type LatestQuote struct {
	MarketCap   *float64 `json:"marketCap"`
	Price       *float64 `json:"price"`
	PriceChange *float64 `json:"priceChange"`
}

// CompanyStat is the sector membership count of one company
type CompanyStat struct {
	Ticker         string       `json:"ticker"`
	Name           string       `json:"name"`
	NameKo         *string      `json:"nameKo"`
	Count          int          `json:"count"`
	Sectors        []SectorRank `json:"sectors"` // by rank
	LatestSnapshot *LatestQuote `json:"latestSnapshot"`
}

// CompanyStatisticsResult answers one page of the company statistics view
type CompanyStatisticsResult struct {
	Companies  []CompanyStat `json:"companies"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
}
