package main

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/dam/supermarket/app/catalog"
	"github.com/dam/supermarket/app/config"
	"github.com/dam/supermarket/app/database"
	"github.com/dam/supermarket/app/logging"
	"github.com/dam/supermarket/app/metrics"
	"github.com/dam/supermarket/models"
)

// app holds everything a command needs; close releases it.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	db       *sql.DB
	recorder *metrics.Recorder
	products *catalog.ProductService
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		log.Sync() //nolint:errcheck
		return nil, err
	}
	log.Info("database connected", zap.String("driver", cfg.Database.Driver))

	rec := metrics.NewRecorder(models.ErrProductNotFound)
	products := catalog.NewProductService(
		models.NewProductsRepository(db),
		catalog.WithLogger(log.Named("catalog")),
		catalog.WithObserver(rec),
	)

	return &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		recorder: rec,
		products: products,
	}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn("closing database", zap.Error(err))
	}
	a.log.Sync() //nolint:errcheck
}
