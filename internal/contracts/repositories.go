package contracts

import "context"

// ⭐ SSOT: 데이터스토어 협력자 인터페이스 정의는 여기서만
// 엔진은 읽기만 한다. 쓰기 경로는 외부 수집 프로세스 담당.

// HierarchyReader loads the classification rows
type HierarchyReader interface {
	Industries(ctx context.Context) ([]Industry, error)
	Categories(ctx context.Context) ([]Category, error)
	Sectors(ctx context.Context) ([]Sector, error)
	IndustryCategories(ctx context.Context) ([]IndustryCategory, error)
	SectorCompanies(ctx context.Context) ([]SectorCompany, error)
}

// SnapshotReader loads daily snapshots in bounded batches
type SnapshotReader interface {
	// DistinctDatesSince returns distinct snapshot dates >= start, ascending
	DistinctDatesSince(ctx context.Context, start string) ([]string, error)
	// RecentDistinctDates returns the most recent distinct dates, descending
	RecentDistinctDates(ctx context.Context, limit int) ([]string, error)
	// SnapshotsSince returns all snapshots of tickers with date >= start
	SnapshotsSince(ctx context.Context, tickers []string, start string) ([]DailySnapshot, error)
	// SnapshotsOnDates returns the snapshots of tickers on exactly the given dates
	SnapshotsOnDates(ctx context.Context, tickers []string, dates []string) ([]DailySnapshot, error)
	// LatestSnapshots returns the most recent snapshot of each ticker
	LatestSnapshots(ctx context.Context, tickers []string) ([]DailySnapshot, error)
	// SnapshotTickers returns every ticker that has at least one snapshot
	SnapshotTickers(ctx context.Context) ([]string, error)
	// SnapshotBounds returns the first and last snapshot date of each ticker
	SnapshotBounds(ctx context.Context, tickers []string) ([]SnapshotBounds, error)
	// TickerSnapshots returns the most recent snapshots of one ticker, ascending by date
	TickerSnapshots(ctx context.Context, ticker string, limit int) ([]DailySnapshot, error)
	// LatestSnapshotDetail returns the valuation detail of a ticker's latest row, nil when none
	LatestSnapshotDetail(ctx context.Context, ticker string) (*SnapshotDetail, error)
}

// CompanyReader loads company master rows
type CompanyReader interface {
	Companies(ctx context.Context, tickers []string) ([]Company, error)
	// CompanySectors returns the sector memberships of one ticker
	CompanySectors(ctx context.Context, ticker string) ([]SectorCompany, error)
	// CompanyProfile returns the profile of one ticker, nil when none was collected
	CompanyProfile(ctx context.Context, ticker string) (*CompanyProfile, error)
}

// ScoreReader loads score rows
type ScoreReader interface {
	CompanyScores(ctx context.Context, tickers []string) ([]CompanyScore, error)
	// ScoreHistory returns the most recent history rows of a ticker, ascending by date
	ScoreHistory(ctx context.Context, ticker string, limit int) ([]ScoreHistory, error)
}

// Store is the full read contract the engine depends on
type Store interface {
	HierarchyReader
	SnapshotReader
	CompanyReader
	ScoreReader
}
