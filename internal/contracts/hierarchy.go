package contracts

// Industry is the top level of the classification
// ⭐ SSOT: Industry → Category → Sector → Company 계층 타입은 여기서만
type Industry struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	NameEn *string `json:"nameEn"`
	Icon   *string `json:"icon"`
	Order  int     `json:"order"`
}

// Category groups sectors. An industry reaches categories through IndustryCategory rows.
type Category struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	NameEn *string `json:"nameEn"`
	Order  int     `json:"order"`
}

// Sector ranks companies. CategoryID is empty when the foreign key is NULL.
type Sector struct {
	ID         string  `json:"id"`
	CategoryID string  `json:"categoryId"`
	Name       string  `json:"name"`
	NameEn     *string `json:"nameEn"`
	Order      int     `json:"order"`
}

// IndustryCategory is a many-to-many join row. Empty ids mean NULL.
type IndustryCategory struct {
	IndustryID string
	CategoryID string
}

// SectorCompany places a ticker in a sector with a rank in [1,5]
type SectorCompany struct {
	SectorID string  `json:"sectorId"`
	Ticker   string  `json:"ticker"`
	Rank     int     `json:"rank"`
	Notes    *string `json:"notes"`
}

// Company is the master record of a listed company
type Company struct {
	Ticker  string  `json:"ticker"`
	Name    string  `json:"name"`
	NameKo  *string `json:"nameKo"`
	LogoURL *string `json:"logoUrl"`
}

// DisplayName is the Korean name when present, the master name otherwise
func (c Company) DisplayName() string {
	if c.NameKo != nil && *c.NameKo != "" {
		return *c.NameKo
	}
	return c.Name
}

// CompanyProfile is the descriptive record of a company collected upstream
type CompanyProfile struct {
	Ticker      string   `json:"ticker"`
	Sector      *string  `json:"sector"`
	Industry    *string  `json:"industry"`
	Country     *string  `json:"country"`
	Employees   *int64   `json:"employees"`
	Revenue     *float64 `json:"revenue"`
	NetIncome   *float64 `json:"netIncome"`
	Description *string  `json:"description"`
	Website     *string  `json:"website"`
}

// Rank bounds for SectorCompany.Rank
const (
	MinSectorRank = 1
	MaxSectorRank = 5
)

// ValidRank reports whether the join row rank is within bounds
func (sc SectorCompany) ValidRank() bool {
	return sc.Rank >= MinSectorRank && sc.Rank <= MaxSectorRank
}

// IndustryFilter is the closure of one industry over the hierarchy
type IndustryFilter struct {
	IndustryID  string   `json:"industryId"`
	CategoryIDs []string `json:"categoryIds"`
	SectorIDs   []string `json:"sectorIds"`
	Tickers     []string `json:"tickers"`
}

// HasSector reports whether the sector belongs to the filtered industry
func (f *IndustryFilter) HasSector(sectorID string) bool {
	if f == nil {
		return true
	}
	for _, id := range f.SectorIDs {
		if id == sectorID {
			return true
		}
	}
	return false
}

// HasCategory reports whether the category belongs to the filtered industry
func (f *IndustryFilter) HasCategory(categoryID string) bool {
	if f == nil {
		return true
	}
	for _, id := range f.CategoryIDs {
		if id == categoryID {
			return true
		}
	}
	return false
}
