package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/hegemony/internal/contracts"
	"github.com/wonny/hegemony/internal/currency"
	"github.com/wonny/hegemony/internal/flow"
	"github.com/wonny/hegemony/internal/hierarchy"
	"github.com/wonny/hegemony/internal/methodology"
	"github.com/wonny/hegemony/internal/metrics"
	"github.com/wonny/hegemony/internal/score"
	"github.com/wonny/hegemony/internal/snapshot"
	"github.com/wonny/hegemony/internal/window"
	"github.com/wonny/hegemony/pkg/logger"
)

// Operation names used for metrics and logs
const (
	OpMoneyFlow       = "money_flow"
	OpIndustryFlows   = "industry_flows"
	OpSectorCompanies = "sector_companies"
	OpSectorTrends    = "sector_trends"
	OpTrends          = "trends"
	OpIndustries      = "industries"
	OpSectorRanking   = "sector_ranking"
	OpCompanyScore    = "company_score"

	OpHegemonyMap       = "hegemony_map"
	OpSectorDetail      = "sector_detail"
	OpCompanyDetail     = "company_detail"
	OpPriceChanges      = "price_changes"
	OpCompanyStatistics = "company_statistics"
	OpScoreSimulation   = "score_simulation"
)

// Engine runs one computation per request over the read store.
// It keeps no state between requests.
// ⭐ SSOT: 요청 단위 fan-out/fan-in 오케스트레이션은 여기서만
type Engine struct {
	store    contracts.Store
	resolver *window.Resolver
	fx       *currency.Normalizer
	flow     *flow.Calculator
	scores   *score.Engine
	method   *methodology.Config
	metrics  *metrics.Metrics
	log      *logger.Logger
	now      func() time.Time
}

// Option customizes an Engine
type Option func(*Engine)

// WithClock replaces the wall clock used to resolve trailing windows
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMetrics records computations on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an engine. A nil methodology uses the defaults.
func New(store contracts.Store, method *methodology.Config, fx *currency.Normalizer, log *logger.Logger, opts ...Option) *Engine {
	if method == nil {
		method = methodology.Default()
	}
	e := &Engine{
		store:    store,
		resolver: window.NewResolver(store),
		fx:       fx,
		flow:     flow.New(fx, log),
		scores:   score.New(method.Score, log),
		method:   method,
		log:      log.WithComponent("engine"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Methodology returns the tunables the engine runs with
func (e *Engine) Methodology() *methodology.Config {
	return e.method
}

// loadHierarchy reads the five classification tables concurrently and builds the index
func (e *Engine) loadHierarchy(ctx context.Context) (*hierarchy.Index, error) {
	var rows hierarchy.Rows
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		rows.Industries, err = e.store.Industries(gctx)
		return wrapRead("industries", err)
	})
	g.Go(func() (err error) {
		rows.Categories, err = e.store.Categories(gctx)
		return wrapRead("categories", err)
	})
	g.Go(func() (err error) {
		rows.Sectors, err = e.store.Sectors(gctx)
		return wrapRead("sectors", err)
	})
	g.Go(func() (err error) {
		rows.IndustryCategories, err = e.store.IndustryCategories(gctx)
		return wrapRead("industry categories", err)
	})
	g.Go(func() (err error) {
		rows.SectorCompanies, err = e.store.SectorCompanies(gctx)
		return wrapRead("sector companies", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	idx := hierarchy.Build(rows)
	if idx.Skipped() > 0 || idx.InvalidRanks() > 0 {
		e.log.WithFields(map[string]interface{}{
			"skipped":       idx.Skipped(),
			"invalid_ranks": idx.InvalidRanks(),
		}).Debug("hierarchy rows skipped")
	}
	return idx, nil
}

// hierarchyAndWindow loads the hierarchy while resolve produces the date window
func (e *Engine) hierarchyAndWindow(ctx context.Context, resolve func(context.Context) (window.Window, error)) (*hierarchy.Index, window.Window, error) {
	var (
		idx *hierarchy.Index
		w   window.Window
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		idx, err = e.loadHierarchy(gctx)
		return err
	})
	g.Go(func() (err error) {
		w, err = resolve(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, window.Window{}, err
	}
	e.metrics.Window(w.Fallback, w.Degenerate())
	return idx, w, nil
}

func (e *Engine) trailing(period int) func(context.Context) (window.Window, error) {
	return func(ctx context.Context) (window.Window, error) {
		return e.resolver.Resolve(ctx, period, e.now())
	}
}

func (e *Engine) recent(lookback int) func(context.Context) (window.Window, error) {
	return func(ctx context.Context) (window.Window, error) {
		return e.resolver.Recent(ctx, lookback)
	}
}

// filterFor resolves an optional industry id. "" means every sector.
func filterFor(idx *hierarchy.Index, industryID string) (*contracts.IndustryFilter, error) {
	if industryID == "" {
		return nil, nil
	}
	filter, ok := idx.Filter(industryID)
	if !ok {
		return nil, fmt.Errorf("industry %q: %w", industryID, contracts.ErrNotFound)
	}
	return filter, nil
}

// loadRange loads the snapshots of tickers over the window dates and records the batch size
func (e *Engine) loadRange(ctx context.Context, op string, tickers []string, w window.Window) (*snapshot.Index, error) {
	if w.Degenerate() {
		return snapshot.New(nil, nil), nil
	}
	snaps, err := snapshot.LoadRange(ctx, e.store, tickers, w.Dates)
	if err != nil {
		return nil, err
	}
	e.metrics.SnapshotRows(op, snaps.Rows())
	return snaps, nil
}

func (e *Engine) loadDates(ctx context.Context, op string, tickers, dates []string) (*snapshot.Index, error) {
	snaps, err := snapshot.LoadDates(ctx, e.store, tickers, dates)
	if err != nil {
		return nil, err
	}
	e.metrics.SnapshotRows(op, snaps.Rows())
	return snaps, nil
}

// finish maps the outcome of one operation onto the error contract.
// Lookup and integrity errors pass through; store and context failures become
// ErrComputationFailed while keeping the cause reachable through errors.Is.
// A context that ended during the computation always fails the request.
func (e *Engine) finish(ctx context.Context, op string, empty bool, err error) error {
	if err == nil {
		err = ctx.Err()
	}

	switch {
	case err == nil:
		outcome := metrics.OutcomeOK
		if empty {
			outcome = metrics.OutcomeEmpty
		}
		e.metrics.Computation(op, outcome)
		return nil

	case errors.Is(err, contracts.ErrNotFound), errors.Is(err, contracts.ErrInvalidArgument):
		e.metrics.Computation(op, metrics.OutcomeOK)
		return err

	case errors.Is(err, contracts.ErrScoreIntegrity):
		e.metrics.Computation(op, metrics.OutcomeError)
		e.log.WithOperation(op).WithError(err).Error("score integrity violation")
		return err

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		e.metrics.Computation(op, metrics.OutcomeCancelled)
		e.log.WithOperation(op).WithError(err).Warn("computation aborted")
		return fmt.Errorf("%w: %s: %w", contracts.ErrComputationFailed, op, err)

	default:
		e.metrics.Computation(op, metrics.OutcomeError)
		e.log.WithOperation(op).WithError(err).Error("computation failed")
		return fmt.Errorf("%w: %s: %w", contracts.ErrComputationFailed, op, err)
	}
}

func wrapRead(what string, err error) error {
	if err != nil {
		return fmt.Errorf("read %s: %w", what, err)
	}
	return nil
}

// clamp bounds v to [lo,hi]; a non-positive v takes def first
func clamp(v, def, lo, hi int) int {
	if v <= 0 {
		v = def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
