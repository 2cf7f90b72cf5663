package commands

import (
	"context"
	"fmt"

	"github.com/wonny/hegemony/internal/currency"
	"github.com/wonny/hegemony/internal/engine"
	"github.com/wonny/hegemony/internal/methodology"
	"github.com/wonny/hegemony/internal/metrics"
	"github.com/wonny/hegemony/internal/store"
	"github.com/wonny/hegemony/pkg/config"
	"github.com/wonny/hegemony/pkg/database"
	"github.com/wonny/hegemony/pkg/logger"
)

// app holds the components every command shares
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *database.DB
	method  *methodology.Config
	metrics *metrics.Metrics
	engine  *engine.Engine
}

// bootstrap wires config → logger → database → store → methodology → engine
func bootstrap(ctx context.Context, withMetrics bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if methodologyPath != "" {
		cfg.Engine.MethodologyPath = methodologyPath
	}

	log := logger.New(cfg)

	method, err := methodology.Load(cfg.Engine.MethodologyPath)
	if err != nil {
		return nil, fmt.Errorf("load methodology: %w", err)
	}
	hash, err := methodology.Hash(method)
	if err != nil {
		return nil, fmt.Errorf("hash methodology: %w", err)
	}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	a := &app{cfg: cfg, log: log, db: db, method: method}

	opts := []engine.Option{}
	if withMetrics && cfg.MetricsEnabled {
		a.metrics = metrics.New()
		opts = append(opts, engine.WithMetrics(a.metrics))
	}

	fx := currency.New(cfg.Engine.KRWUSDRate)
	a.engine = engine.New(store.NewRepository(db.Pool), method, fx, log, opts...)

	log.WithFields(map[string]interface{}{
		"env":              cfg.Env,
		"methodology":      cfg.Engine.MethodologyPath,
		"methodology_hash": hash[:12],
		"krw_usd_rate":     fx.KRWRate(),
	}).Info("Engine initialized")

	return a, nil
}

// Close releases the database pool
func (a *app) Close() {
	a.db.Close()
}

// requestContext bounds one CLI computation by the configured engine timeout
func (a *app) requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, a.cfg.Engine.RequestTimeout)
}
