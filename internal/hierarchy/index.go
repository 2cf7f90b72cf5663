package hierarchy

import (
	"sort"

	"github.com/wonny/hegemony/internal/contracts"
)

// Rows are the flat classification rows as read from the store
type Rows struct {
	Industries         []contracts.Industry
	Categories         []contracts.Category
	Sectors            []contracts.Sector
	IndustryCategories []contracts.IndustryCategory
	SectorCompanies    []contracts.SectorCompany
}

// Index is the industry → category → sector → ticker adjacency
// ⭐ SSOT: 계층 인접 리스트 및 산업별 중복 제거 티커 집합은 여기서만
type Index struct {
	industries []contracts.Industry
	categories []contracts.Category
	sectors    []contracts.Sector

	industryByID map[string]int
	categoryByID map[string]int
	sectorByID   map[string]int

	industryCategories map[string][]string
	categorySectors    map[string][]string
	sectorTickers      map[string][]string
	sectorCompanies    map[string][]contracts.SectorCompany
	industryTickers    map[string][]string

	skipped      int
	invalidRanks int
}

// Build creates the index from flat rows.
// Join rows with an empty (NULL) foreign key are skipped and counted.
func Build(rows Rows) *Index {
	idx := &Index{
		industries:         sortedIndustries(rows.Industries),
		categories:         sortedCategories(rows.Categories),
		sectors:            sortedSectors(rows.Sectors),
		industryByID:       make(map[string]int),
		categoryByID:       make(map[string]int),
		sectorByID:         make(map[string]int),
		industryCategories: make(map[string][]string),
		categorySectors:    make(map[string][]string),
		sectorTickers:      make(map[string][]string),
		sectorCompanies:    make(map[string][]contracts.SectorCompany),
		industryTickers:    make(map[string][]string),
	}

	for i, ind := range idx.industries {
		idx.industryByID[ind.ID] = i
	}
	for i, cat := range idx.categories {
		idx.categoryByID[cat.ID] = i
	}
	for i, sec := range idx.sectors {
		idx.sectorByID[sec.ID] = i
	}

	// 1. industry → categories
	seenIC := make(map[[2]string]struct{})
	for _, ic := range rows.IndustryCategories {
		if ic.IndustryID == "" || ic.CategoryID == "" {
			idx.skipped++
			continue
		}
		key := [2]string{ic.IndustryID, ic.CategoryID}
		if _, dup := seenIC[key]; dup {
			continue
		}
		seenIC[key] = struct{}{}
		idx.industryCategories[ic.IndustryID] = append(idx.industryCategories[ic.IndustryID], ic.CategoryID)
	}

	// 2. category → sectors (sector order)
	for _, sec := range idx.sectors {
		if sec.CategoryID == "" {
			idx.skipped++
			continue
		}
		idx.categorySectors[sec.CategoryID] = append(idx.categorySectors[sec.CategoryID], sec.ID)
	}

	// 3. sector → tickers (join order)
	seenSC := make(map[[2]string]struct{})
	for _, sc := range rows.SectorCompanies {
		if sc.SectorID == "" || sc.Ticker == "" {
			idx.skipped++
			continue
		}
		key := [2]string{sc.SectorID, sc.Ticker}
		if _, dup := seenSC[key]; dup {
			continue
		}
		seenSC[key] = struct{}{}
		if !sc.ValidRank() {
			idx.invalidRanks++
		}
		idx.sectorTickers[sc.SectorID] = append(idx.sectorTickers[sc.SectorID], sc.Ticker)
		idx.sectorCompanies[sc.SectorID] = append(idx.sectorCompanies[sc.SectorID], sc)
	}

	// 4. industry → deduplicated tickers (transitive closure)
	for _, ind := range idx.industries {
		idx.industryTickers[ind.ID] = idx.AllTickers(idx.IndustrySectors(ind.ID))
	}

	return idx
}

// Industries returns industries ordered by their display order
func (idx *Index) Industries() []contracts.Industry { return idx.industries }

// Categories returns categories ordered by their display order
func (idx *Index) Categories() []contracts.Category { return idx.categories }

// Sectors returns sectors ordered by their display order
func (idx *Index) Sectors() []contracts.Sector { return idx.sectors }

// Industry looks up one industry
func (idx *Index) Industry(id string) (contracts.Industry, bool) {
	i, ok := idx.industryByID[id]
	if !ok {
		return contracts.Industry{}, false
	}
	return idx.industries[i], true
}

// Category looks up one category
func (idx *Index) Category(id string) (contracts.Category, bool) {
	i, ok := idx.categoryByID[id]
	if !ok {
		return contracts.Category{}, false
	}
	return idx.categories[i], true
}

// Sector looks up one sector
func (idx *Index) Sector(id string) (contracts.Sector, bool) {
	i, ok := idx.sectorByID[id]
	if !ok {
		return contracts.Sector{}, false
	}
	return idx.sectors[i], true
}

// CategoriesOf returns the category ids of an industry
func (idx *Index) CategoriesOf(industryID string) []string {
	return idx.industryCategories[industryID]
}

// SectorsOf returns the sector ids of a category
func (idx *Index) SectorsOf(categoryID string) []string {
	return idx.categorySectors[categoryID]
}

// TickersOf returns the tickers of a sector in join order
func (idx *Index) TickersOf(sectorID string) []string {
	return idx.sectorTickers[sectorID]
}

// CompaniesOf returns the join rows of a sector
func (idx *Index) CompaniesOf(sectorID string) []contracts.SectorCompany {
	return idx.sectorCompanies[sectorID]
}

// IndustrySectors returns every sector reachable from an industry, deduplicated
func (idx *Index) IndustrySectors(industryID string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, catID := range idx.industryCategories[industryID] {
		for _, secID := range idx.categorySectors[catID] {
			if _, dup := seen[secID]; dup {
				continue
			}
			seen[secID] = struct{}{}
			out = append(out, secID)
		}
	}
	return out
}

// IndustryTickers returns the deduplicated ticker set of an industry.
// A ticker listed in several sectors of the industry appears once.
func (idx *Index) IndustryTickers(industryID string) []string {
	return idx.industryTickers[industryID]
}

// CategoryTickers returns the deduplicated tickers of a category
func (idx *Index) CategoryTickers(categoryID string) []string {
	return idx.AllTickers(idx.categorySectors[categoryID])
}

// AllTickers returns the deduplicated union of tickers of the given sectors, first-seen order
func (idx *Index) AllTickers(sectorIDs []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, secID := range sectorIDs {
		for _, t := range idx.sectorTickers[secID] {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// Filter resolves an industry to its categories, sectors and deduplicated tickers.
// ok is false when the industry does not exist.
func (idx *Index) Filter(industryID string) (*contracts.IndustryFilter, bool) {
	if _, ok := idx.industryByID[industryID]; !ok {
		return nil, false
	}
	return &contracts.IndustryFilter{
		IndustryID:  industryID,
		CategoryIDs: append([]string{}, idx.industryCategories[industryID]...),
		SectorIDs:   idx.IndustrySectors(industryID),
		Tickers:     append([]string{}, idx.industryTickers[industryID]...),
	}, true
}

// SectorsIn returns the ordered sectors passing the filter. A nil filter returns all.
func (idx *Index) SectorsIn(filter *contracts.IndustryFilter) []contracts.Sector {
	if filter == nil {
		return idx.sectors
	}
	out := make([]contracts.Sector, 0, len(filter.SectorIDs))
	for _, sec := range idx.sectors {
		if filter.HasSector(sec.ID) {
			out = append(out, sec)
		}
	}
	return out
}

// CategoriesIn returns the ordered categories passing the filter. A nil filter returns all.
func (idx *Index) CategoriesIn(filter *contracts.IndustryFilter) []contracts.Category {
	if filter == nil {
		return idx.categories
	}
	out := make([]contracts.Category, 0, len(filter.CategoryIDs))
	for _, cat := range idx.categories {
		if filter.HasCategory(cat.ID) {
			out = append(out, cat)
		}
	}
	return out
}

// TickersIn returns the deduplicated tickers of the sectors passing the filter
func (idx *Index) TickersIn(filter *contracts.IndustryFilter) []string {
	sectors := idx.SectorsIn(filter)
	ids := make([]string, len(sectors))
	for i, s := range sectors {
		ids[i] = s.ID
	}
	return idx.AllTickers(ids)
}

// Skipped returns the number of join rows dropped for a NULL foreign key
func (idx *Index) Skipped() int { return idx.skipped }

// InvalidRanks returns the number of sector join rows with a rank outside [1,5]
func (idx *Index) InvalidRanks() int { return idx.invalidRanks }

func sortedIndustries(in []contracts.Industry) []contracts.Industry {
	out := append([]contracts.Industry{}, in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func sortedCategories(in []contracts.Category) []contracts.Category {
	out := append([]contracts.Category{}, in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func sortedSectors(in []contracts.Sector) []contracts.Sector {
	out := append([]contracts.Sector{}, in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
