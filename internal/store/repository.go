package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/hegemony/internal/contracts"
)

// Querier is the part of pgxpool.Pool the repository uses
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository implements contracts.Store on PostgreSQL.
// Every query is a single batched read; no per-item round trips.
// ⭐ SSOT: 계층/스냅샷/점수 테이블 조회는 여기서만
type Repository struct {
	db Querier
}

var _ contracts.Store = (*Repository)(nil)

// NewRepository creates a repository over a pool
func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

const snapshotColumns = `
	ticker, to_char(date, 'YYYY-MM-DD'),
	market_cap::float8, price, price_change, day_high, day_low, volume::float8`

// Industries returns every industry ordered by display order
func (r *Repository) Industries(ctx context.Context) ([]contracts.Industry, error) {
	query := `
		SELECT id, name, name_en, icon, "order"
		FROM industries
		ORDER BY "order" ASC, id ASC
	`
	return collect(ctx, r.db, "industries", query, func(row pgx.CollectableRow) (contracts.Industry, error) {
		var i contracts.Industry
		err := row.Scan(&i.ID, &i.Name, &i.NameEn, &i.Icon, &i.Order)
		return i, err
	})
}

// Categories returns every category ordered by display order
func (r *Repository) Categories(ctx context.Context) ([]contracts.Category, error) {
	query := `
		SELECT id, name, name_en, "order"
		FROM categories
		ORDER BY "order" ASC, id ASC
	`
	return collect(ctx, r.db, "categories", query, func(row pgx.CollectableRow) (contracts.Category, error) {
		var c contracts.Category
		err := row.Scan(&c.ID, &c.Name, &c.NameEn, &c.Order)
		return c, err
	})
}

// Sectors returns every sector ordered by display order. A NULL category reads as "".
func (r *Repository) Sectors(ctx context.Context) ([]contracts.Sector, error) {
	query := `
		SELECT id, COALESCE(category_id, ''), name, name_en, "order"
		FROM sectors
		ORDER BY "order" ASC, id ASC
	`
	return collect(ctx, r.db, "sectors", query, func(row pgx.CollectableRow) (contracts.Sector, error) {
		var s contracts.Sector
		err := row.Scan(&s.ID, &s.CategoryID, &s.Name, &s.NameEn, &s.Order)
		return s, err
	})
}

// IndustryCategories returns the industry/category join rows, NULL ids as ""
func (r *Repository) IndustryCategories(ctx context.Context) ([]contracts.IndustryCategory, error) {
	query := `
		SELECT COALESCE(industry_id, ''), COALESCE(category_id, '')
		FROM industry_categories
		ORDER BY id ASC
	`
	return collect(ctx, r.db, "industry categories", query, func(row pgx.CollectableRow) (contracts.IndustryCategory, error) {
		var ic contracts.IndustryCategory
		err := row.Scan(&ic.IndustryID, &ic.CategoryID)
		return ic, err
	})
}

// SectorCompanies returns every sector membership, NULL ids as ""
func (r *Repository) SectorCompanies(ctx context.Context) ([]contracts.SectorCompany, error) {
	query := `
		SELECT COALESCE(sector_id, ''), COALESCE(ticker, ''), rank, notes
		FROM sector_companies
		ORDER BY sector_id ASC, rank ASC, id ASC
	`
	return collect(ctx, r.db, "sector companies", query, scanSectorCompany)
}

// CompanySectors returns the sector memberships of one ticker
func (r *Repository) CompanySectors(ctx context.Context, ticker string) ([]contracts.SectorCompany, error) {
	query := `
		SELECT COALESCE(sector_id, ''), COALESCE(ticker, ''), rank, notes
		FROM sector_companies
		WHERE ticker = $1
		ORDER BY rank ASC, sector_id ASC
	`
	return collect(ctx, r.db, "company sectors", query, scanSectorCompany, ticker)
}

func scanSectorCompany(row pgx.CollectableRow) (contracts.SectorCompany, error) {
	var sc contracts.SectorCompany
	err := row.Scan(&sc.SectorID, &sc.Ticker, &sc.Rank, &sc.Notes)
	return sc, err
}

// Companies returns the master rows of the given tickers
func (r *Repository) Companies(ctx context.Context, tickers []string) ([]contracts.Company, error) {
	if len(tickers) == 0 {
		return nil, nil
	}
	query := `
		SELECT ticker, name, name_ko, logo_url
		FROM companies
		WHERE ticker = ANY($1)
		ORDER BY ticker ASC
	`
	return collect(ctx, r.db, "companies", query, func(row pgx.CollectableRow) (contracts.Company, error) {
		var c contracts.Company
		err := row.Scan(&c.Ticker, &c.Name, &c.NameKo, &c.LogoURL)
		return c, err
	}, tickers)
}

// CompanyProfile returns the profile of one ticker, nil when none was collected
func (r *Repository) CompanyProfile(ctx context.Context, ticker string) (*contracts.CompanyProfile, error) {
	query := `
		SELECT ticker, sector, industry, country, employees::int8,
			revenue::float8, net_income::float8, description, website
		FROM company_profiles
		WHERE ticker = $1
	`
	rows, err := collect(ctx, r.db, "company profile", query, func(row pgx.CollectableRow) (contracts.CompanyProfile, error) {
		var p contracts.CompanyProfile
		err := row.Scan(&p.Ticker, &p.Sector, &p.Industry, &p.Country, &p.Employees,
			&p.Revenue, &p.NetIncome, &p.Description, &p.Website)
		return p, err
	}, ticker)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// DistinctDatesSince returns distinct snapshot dates >= start, ascending
func (r *Repository) DistinctDatesSince(ctx context.Context, start string) ([]string, error) {
	query := `
		SELECT DISTINCT to_char(date, 'YYYY-MM-DD') AS d
		FROM daily_snapshots
		WHERE date >= $1::text::date
		ORDER BY d ASC
	`
	return collect(ctx, r.db, "distinct dates", query, scanString, start)
}

// RecentDistinctDates returns the most recent distinct snapshot dates, descending
func (r *Repository) RecentDistinctDates(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := `
		SELECT DISTINCT to_char(date, 'YYYY-MM-DD') AS d
		FROM daily_snapshots
		ORDER BY d DESC
		LIMIT $1
	`
	return collect(ctx, r.db, "recent dates", query, scanString, limit)
}

func scanString(row pgx.CollectableRow) (string, error) {
	var s string
	err := row.Scan(&s)
	return s, err
}

// SnapshotsSince returns every snapshot of tickers with date >= start
func (r *Repository) SnapshotsSince(ctx context.Context, tickers []string, start string) ([]contracts.DailySnapshot, error) {
	if len(tickers) == 0 {
		return nil, nil
	}
	query := `SELECT` + snapshotColumns + `
		FROM daily_snapshots
		WHERE ticker = ANY($1) AND date >= $2::text::date
		ORDER BY date ASC, ticker ASC
	`
	return collect(ctx, r.db, "snapshots", query, scanSnapshot, tickers, start)
}

// SnapshotsOnDates returns the snapshots of tickers on exactly the given dates
func (r *Repository) SnapshotsOnDates(ctx context.Context, tickers []string, dates []string) ([]contracts.DailySnapshot, error) {
	if len(tickers) == 0 || len(dates) == 0 {
		return nil, nil
	}
	query := `SELECT` + snapshotColumns + `
		FROM daily_snapshots
		WHERE ticker = ANY($1) AND date = ANY($2::text[]::date[])
		ORDER BY date ASC, ticker ASC
	`
	return collect(ctx, r.db, "snapshots on dates", query, scanSnapshot, tickers, dates)
}

// LatestSnapshots returns the most recent snapshot of each ticker
func (r *Repository) LatestSnapshots(ctx context.Context, tickers []string) ([]contracts.DailySnapshot, error) {
	if len(tickers) == 0 {
		return nil, nil
	}
	query := `SELECT DISTINCT ON (ticker)` + snapshotColumns + `
		FROM daily_snapshots
		WHERE ticker = ANY($1)
		ORDER BY ticker ASC, date DESC
	`
	return collect(ctx, r.db, "latest snapshots", query, scanSnapshot, tickers)
}

// SnapshotTickers returns every ticker that has at least one snapshot
func (r *Repository) SnapshotTickers(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT ticker
		FROM daily_snapshots
		WHERE ticker IS NOT NULL
		ORDER BY ticker ASC
	`
	return collect(ctx, r.db, "snapshot tickers", query, scanString)
}

// SnapshotBounds returns the first and last snapshot date of each ticker in one grouped scan
func (r *Repository) SnapshotBounds(ctx context.Context, tickers []string) ([]contracts.SnapshotBounds, error) {
	if len(tickers) == 0 {
		return nil, nil
	}
	query := `
		SELECT ticker, to_char(MIN(date), 'YYYY-MM-DD'), to_char(MAX(date), 'YYYY-MM-DD')
		FROM daily_snapshots
		WHERE ticker = ANY($1)
		GROUP BY ticker
		ORDER BY ticker ASC
	`
	return collect(ctx, r.db, "snapshot bounds", query, func(row pgx.CollectableRow) (contracts.SnapshotBounds, error) {
		var b contracts.SnapshotBounds
		err := row.Scan(&b.Ticker, &b.First, &b.Last)
		return b, err
	}, tickers)
}

// TickerSnapshots returns the most recent snapshots of one ticker, ascending by date
func (r *Repository) TickerSnapshots(ctx context.Context, ticker string, limit int) ([]contracts.DailySnapshot, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := `
		SELECT * FROM (
			SELECT` + snapshotColumns + `
			FROM daily_snapshots
			WHERE ticker = $1
			ORDER BY date DESC
			LIMIT $2
		) recent
		ORDER BY 2 ASC
	`
	return collect(ctx, r.db, "ticker snapshots", query, scanSnapshot, ticker, limit)
}

// LatestSnapshotDetail returns the valuation detail of a ticker's latest row, nil when none
func (r *Repository) LatestSnapshotDetail(ctx context.Context, ticker string) (*contracts.SnapshotDetail, error) {
	query := `
		SELECT ticker, to_char(date, 'YYYY-MM-DD'),
			market_cap::float8, price, price_change,
			week_52_high, week_52_low, volume::float8, pe_ratio, peg_ratio
		FROM daily_snapshots
		WHERE ticker = $1
		ORDER BY date DESC
		LIMIT 1
	`
	rows, err := collect(ctx, r.db, "snapshot detail", query, func(row pgx.CollectableRow) (contracts.SnapshotDetail, error) {
		var d contracts.SnapshotDetail
		err := row.Scan(&d.Ticker, &d.Date, &d.MarketCap, &d.Price, &d.PriceChange,
			&d.Week52High, &d.Week52Low, &d.Volume, &d.PERatio, &d.PEGRatio)
		return d, err
	}, ticker)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func scanSnapshot(row pgx.CollectableRow) (contracts.DailySnapshot, error) {
	var s contracts.DailySnapshot
	err := row.Scan(&s.Ticker, &s.Date, &s.MarketCap, &s.Price, &s.PriceChange, &s.DayHigh, &s.DayLow, &s.Volume)
	return s, err
}

// CompanyScores returns the current score rows of the given tickers
func (r *Repository) CompanyScores(ctx context.Context, tickers []string) ([]contracts.CompanyScore, error) {
	if len(tickers) == 0 {
		return nil, nil
	}
	query := `
		SELECT ticker,
			COALESCE(scale_score, 0), COALESCE(growth_score, 0),
			COALESCE(profitability_score, 0), COALESCE(sentiment_score, 0),
			COALESCE(raw_total_score, 0), smoothed_score,
			COALESCE(data_quality, 0),
			to_char(score_updated_at AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS"Z"')
		FROM company_scores
		WHERE ticker = ANY($1)
	`
	return collect(ctx, r.db, "company scores", query, func(row pgx.CollectableRow) (contracts.CompanyScore, error) {
		var cs contracts.CompanyScore
		err := row.Scan(
			&cs.Ticker,
			&cs.ScaleScore, &cs.GrowthScore, &cs.ProfitabilityScore, &cs.SentimentScore,
			&cs.RawTotalScore, &cs.SmoothedScore, &cs.DataQuality, &cs.ScoreUpdatedAt,
		)
		return cs, err
	}, tickers)
}

// ScoreHistory returns the most recent history rows of a ticker, ascending by date
func (r *Repository) ScoreHistory(ctx context.Context, ticker string, limit int) ([]contracts.ScoreHistory, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := `
		SELECT ticker, d, raw_total_score, smoothed_score,
			scale_score, growth_score, profitability_score, sentiment_score
		FROM (
			SELECT ticker, to_char(date, 'YYYY-MM-DD') AS d,
				raw_total_score, smoothed_score,
				scale_score, growth_score, profitability_score, sentiment_score
			FROM score_history
			WHERE ticker = $1
			ORDER BY date DESC
			LIMIT $2
		) recent
		ORDER BY d ASC
	`
	return collect(ctx, r.db, "score history", query, func(row pgx.CollectableRow) (contracts.ScoreHistory, error) {
		var h contracts.ScoreHistory
		err := row.Scan(
			&h.Ticker, &h.Date, &h.RawTotalScore, &h.SmoothedScore,
			&h.ScaleScore, &h.GrowthScore, &h.ProfitabilityScore, &h.SentimentScore,
		)
		return h, err
	}, ticker, limit)
}

// collect runs one query and scans every row with fn
func collect[T any](ctx context.Context, db Querier, what, query string, fn pgx.RowToFunc[T], args ...any) ([]T, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	out, err := pgx.CollectRows(rows, fn)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", what, err)
	}
	return out, nil
}
