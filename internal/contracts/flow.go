package contracts

// Flow directions
const (
	FlowIn  = "in"
	FlowOut = "out"
)

// TrendPoint is one day of a sector money-flow trend.
// FlowAmount is the day-over-day market cap change.
type TrendPoint struct {
	Date       string   `json:"date"`
	MFI        *float64 `json:"mfi"`
	FlowAmount float64  `json:"flowAmount"`
	MarketCap  float64  `json:"marketCap"`
}

// SectorFlow is the money flow of one sector over a window
// ⭐ SSOT: 섹터 자금흐름 출력 계약
type SectorFlow struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	NameEn         *string      `json:"nameEn"`
	MFI            *float64     `json:"mfi"`
	FlowDirection  string       `json:"flowDirection"`
	FlowAmount     float64      `json:"flowAmount"` // absolute value, see FlowDirection
	FlowPercent    float64      `json:"flowPercent"`
	StartMarketCap float64      `json:"startMarketCap"`
	EndMarketCap   float64      `json:"endMarketCap"`
	CompanyCount   int          `json:"companyCount"`
	Trend          []TrendPoint `json:"trend"`
}

// SignedFlow returns the flow amount with its direction applied
func (f *SectorFlow) SignedFlow() float64 {
	if f.FlowDirection == FlowOut {
		return -f.FlowAmount
	}
	return f.FlowAmount
}

// MoneyFlowResult answers the sector money-flow view
type MoneyFlowResult struct {
	Period       int          `json:"period"`
	Date         string       `json:"date"`
	Flows        []SectorFlow `json:"flows"`
	TotalInflow  float64      `json:"totalInflow"`
	TotalOutflow float64      `json:"totalOutflow"`
	NetFlow      float64      `json:"netFlow"`
	DateRange    DateRange    `json:"dateRange"`
	Empty        bool         `json:"empty"`
}

// IndustryFlow is the deduplicated inflow/outflow of one industry
// ⭐ SSOT: 산업 자금흐름 출력 계약
type IndustryFlow struct {
	IndustryID     string  `json:"industryId"`
	IndustryName   string  `json:"industryName"`
	IndustryNameEn *string `json:"industryNameEn"`
	IndustryIcon   *string `json:"industryIcon"`
	TotalInflow    float64 `json:"totalInflow"`
	TotalOutflow   float64 `json:"totalOutflow"`
	NetFlow        float64 `json:"netFlow"`
	NetFlowPercent float64 `json:"netFlowPercent"`
	FlowDirection  string  `json:"flowDirection"`
}

// IndustryFlowResult answers the industry money-flow view
type IndustryFlowResult struct {
	Industries []IndustryFlow `json:"industries"`
	Period     int            `json:"period"`
	DateRange  DateRange      `json:"dateRange"`
	Empty      bool           `json:"empty"`
}

// PeriodFlow is the market cap change of one sector over one trailing period
type PeriodFlow struct {
	Period         int     `json:"period"`
	FlowPercent    float64 `json:"flowPercent"`
	FlowAmount     float64 `json:"flowAmount"`
	StartMarketCap float64 `json:"startMarketCap"`
	EndMarketCap   float64 `json:"endMarketCap"`
}

// SectorTrend is the multi-period view of one sector
type SectorTrend struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	NameEn  *string      `json:"nameEn"`
	Periods []PeriodFlow `json:"periods"`
}

// SectorTrendResult answers the sector trend view
type SectorTrendResult struct {
	Sectors   []SectorTrend `json:"sectors"`
	DateRange DateRange     `json:"dateRange"`
	Empty     bool          `json:"empty"`
}

// PricePoint is one day of a company price history, in USD
type PricePoint struct {
	Date   string  `json:"date"`
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// SectorCompanyPrice is one company of a sector with its window price change
type SectorCompanyPrice struct {
	Ticker             string       `json:"ticker"`
	Name               string       `json:"name"`
	NameKo             *string      `json:"nameKo"`
	Rank               int          `json:"rank"`
	StartPrice         *float64     `json:"startPrice"`
	EndPrice           *float64     `json:"endPrice"`
	PriceChangePercent *float64     `json:"priceChangePercent"`
	MarketCap          *float64     `json:"marketCap"`
	PriceHistory       []PricePoint `json:"priceHistory"`
}

// SectorCompaniesResult answers the per-sector company drill-down
type SectorCompaniesResult struct {
	SectorID   string               `json:"sectorId"`
	SectorName string               `json:"sectorName"`
	Period     int                  `json:"period"`
	DateRange  DateRange            `json:"dateRange"`
	Companies  []SectorCompanyPrice `json:"companies"`
	Empty      bool                 `json:"empty"`
}

// CategoryMarketCap is the deduplicated market cap of one category at one date
type CategoryMarketCap struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	NameEn      *string `json:"nameEn"`
	MarketCap   float64 `json:"marketCap"`
	SectorCount int     `json:"sectorCount"`
}

// SectorGrowth is the market cap growth of one sector between window endpoints
type SectorGrowth struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	NameEn         *string `json:"nameEn"`
	CategoryID     string  `json:"categoryId"`
	StartMarketCap float64 `json:"startMarketCap"`
	EndMarketCap   float64 `json:"endMarketCap"`
	GrowthRate     float64 `json:"growthRate"`
}

// IndustryOverview is the market cap rollup of one industry
type IndustryOverview struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	NameEn          *string `json:"nameEn"`
	Icon            *string `json:"icon"`
	CategoryCount   int     `json:"categoryCount"`
	SectorCount     int     `json:"sectorCount"`
	CompanyCount    int     `json:"companyCount"`
	TotalMarketCap  float64 `json:"totalMarketCap"`
	MarketCapChange float64 `json:"marketCapChange"`
}

// IndustriesResult answers the industry overview
type IndustriesResult struct {
	Industries []IndustryOverview `json:"industries"`
	LatestDate string             `json:"latestDate"`
}

// SeriesPoint is the aggregate market cap of a group at one date
type SeriesPoint struct {
	Date      string  `json:"date"`
	MarketCap float64 `json:"marketCap"`
}

// TrendSeries is the market cap time series of one sector or category
type TrendSeries struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	NameKo *string       `json:"nameKo,omitempty"`
	Data   []SeriesPoint `json:"data"`
}

// Trend view types
const (
	TrendTypeSector   = "sector"
	TrendTypeCategory = "category"
	TrendTypeCompany  = "company"
)

// TrendsResult answers the statistics trend view.
// Company series only carry the dates the ticker has a snapshot on.
type TrendsResult struct {
	Type         string              `json:"type"`
	DateRange    DateRange           `json:"dateRange"`
	Items        []TrendSeries       `json:"items"`
	SectorGrowth []SectorGrowth      `json:"sectorGrowth,omitempty"`
	Categories   []CategoryMarketCap `json:"categories,omitempty"`
	Empty        bool                `json:"empty"`
}
