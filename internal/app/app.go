// Package app wires configuration, store backend, service and router. Both
// the HTTP server and the Lambda entry point build the same App.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/db"
	apphttp "github.com/geocoder89/userhub/internal/http"
	"github.com/geocoder89/userhub/internal/i18n"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/geocoder89/userhub/internal/redisclient"
	"github.com/geocoder89/userhub/internal/repo/dynamo"
	"github.com/geocoder89/userhub/internal/repo/memory"
	"github.com/geocoder89/userhub/internal/repo/postgres"
	"github.com/geocoder89/userhub/internal/repo/redisrepo"
	"github.com/geocoder89/userhub/internal/users"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Store is a users.Store that can also be probed for readiness.
type Store interface {
	users.Store
	Ping(ctx context.Context) error
}

type App struct {
	Router *gin.Engine
	Store  Store

	closers []func(ctx context.Context) error
}

// New builds the store selected by cfg.StoreDriver and the router on top
// of it. Close releases everything New opened.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{}

	if cfg.OtelEnabled {
		shutdown, err := observability.InitTracer(ctx, cfg.OtelServiceName, cfg.OtelEndpoint)
		if err != nil {
			return nil, fmt.Errorf("init tracer: %w", err)
		}
		a.closers = append(a.closers, shutdown)
	}

	var (
		prom *observability.Prom
		reg  *prometheus.Registry
	)
	if cfg.MetricsEnabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		prom = observability.NewProm(reg)
	}

	store, err := a.openStore(ctx, cfg, prom)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.Store = store

	svc := users.NewService(store, log, users.WithTimeout(cfg.StoreTimeout))

	deps := apphttp.Deps{
		Log:      log,
		Config:   cfg,
		Service:  svc,
		Messages: i18n.New(cfg.Locale),
		Ping:     store.Ping,
		Prom:     prom,
	}
	if reg != nil {
		deps.Gatherer = reg
	}

	a.Router = apphttp.NewRouter(deps)

	log.Info("app ready",
		"driver", cfg.StoreDriver,
		"table", cfg.UsersTable,
		"locale", deps.Messages.Tag().String(),
	)

	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg config.Config, prom *observability.Prom) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverDynamoDB:
		client, err := db.NewDynamoClient(ctx, cfg.AWSRegion, cfg.DynamoEndpoint)
		if err != nil {
			return nil, fmt.Errorf("dynamodb client: %w", err)
		}
		if cfg.DynamoCreateTable {
			if err := db.EnsureDynamoTable(ctx, client, cfg.UsersTable); err != nil {
				return nil, err
			}
		}
		return dynamo.NewUsersRepo(client, cfg.UsersTable, prom), nil

	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("postgres pool: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error {
			pool.Close()
			return nil
		})
		if err := db.EnsureUsersTable(ctx, pool, cfg.UsersTable); err != nil {
			return nil, err
		}
		return postgres.NewUsersRepo(pool, cfg.UsersTable, prom), nil

	case config.DriverRedis:
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Timeout:  cfg.StoreTimeout,
		})
		a.closers = append(a.closers, func(context.Context) error {
			return rc.Close()
		})
		if err := rc.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return redisrepo.NewUsersRepo(rc.Raw(), cfg.UsersTable, prom), nil

	case config.DriverMemory:
		return memory.NewUsersRepo(), nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// Close runs the registered closers in reverse order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
