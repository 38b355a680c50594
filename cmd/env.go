package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/leadscope/audit-cli/internal/collector"
	"github.com/leadscope/audit-cli/internal/pipeline"
	"github.com/leadscope/audit-cli/internal/store"
	"github.com/leadscope/audit-cli/internal/tracking"
)

// auditEnv holds the initialized store, analyzer, and tracking manager
// shared by the analyze/batch/leads/campaigns/serve commands.
type auditEnv struct {
	Store    store.Store
	Analyzer *pipeline.Analyzer
	Tracker  *tracking.Manager
}

// Close releases resources held by the environment.
func (e *auditEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "audit.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEnv validates config for the given mode, opens the store, runs
// migrations, and builds the analyzer. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string) (*auditEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	col := collector.NewHTTP(collector.Options{
		Timeout:        time.Duration(cfg.Collector.TimeoutSecs) * time.Second,
		UserAgent:      cfg.Collector.UserAgent,
		MaxBodyBytes:   cfg.Collector.MaxBodyBytes,
		RequestsPerSec: cfg.Collector.RequestsPerSec,
	})

	analyzer, err := pipeline.New(st, col, time.Duration(cfg.Collector.TimeoutSecs)*time.Second)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &auditEnv{
		Store:    st,
		Analyzer: analyzer,
		Tracker:  tracking.NewManager(st, cfg.Tracking.BaseURL),
	}, nil
}
