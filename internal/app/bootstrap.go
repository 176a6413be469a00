package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"supply-agent/internal/ai"
	"supply-agent/internal/config"
	"supply-agent/internal/core"
	"supply-agent/internal/db"
	"supply-agent/internal/metrics"
	"supply-agent/internal/store"
)

// Runtime is a fully wired service plus the resources behind it.
type Runtime struct {
	Service ApplicationService
	Pool    *pgxpool.Pool // nil without DATABASE_URL
	Store   store.Backend
	Planner *core.Planner
}

// Close releases the database pool, if any.
func (rt *Runtime) Close() {
	if rt.Pool != nil {
		rt.Pool.Close()
	}
}

// Bootstrap wires the store backend, reasoning delegate, planner, executor and account
// services from cfg. m may be nil.
func Bootstrap(ctx context.Context, cfg *config.Config, log logrus.FieldLogger, m *metrics.Registry) (*Runtime, error) {
	var observer core.Observer = core.NopObserver{}
	if m != nil {
		observer = m
	}

	rt := &Runtime{}
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		rt.Pool = pool
	}

	switch cfg.StoreBackend {
	case config.StorePostgres:
		if rt.Pool == nil {
			return nil, fmt.Errorf("postgres store requires DATABASE_URL")
		}
		rt.Store = store.NewPGStore(rt.Pool, log, observer)
	default:
		rt.Store = store.NewJSONStore(cfg.StorePath, log, observer)
	}

	var delegate *core.Delegate
	if cfg.PlanStrategy != core.StrategyLocal {
		dc := core.DelegateConfig{
			Policy:   cfg.Policy,
			Timeout:  cfg.DelegateTimeout,
			Logger:   log.WithField("module", "delegate"),
			Observer: observer,
		}
		agent, err := ai.NewAgent(cfg.OpenAIAPIKey, cfg.ReasoningModel)
		if err != nil {
			dc.InitErr = err
		} else {
			dc.Reasoner = agent
		}
		delegate = core.NewDelegate(dc)
	}

	rt.Planner = core.NewPlanner(cfg.Policy, cfg.PlanStrategy, delegate, log.WithField("module", "planner"), observer)
	executor := core.NewExecutor(nil, log.WithField("module", "executor"), observer)

	var users core.UserService
	var sales core.SaleService
	if rt.Pool != nil {
		users = core.NewUserService(rt.Pool)
		sales = core.NewSaleService(rt.Pool)
	}

	rt.Service = NewAppService(rt.Store, rt.Planner, executor, users, sales, log)
	log.WithFields(logrus.Fields{
		"store":    cfg.StoreBackend,
		"strategy": cfg.PlanStrategy,
		"delegate": rt.Planner.DelegateState(),
		"database": rt.Pool != nil,
	}).Info("runtime ready")
	return rt, nil
}
