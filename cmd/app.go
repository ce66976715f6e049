package cmd

import (
	"fmt"

	"github.com/jmehdipour/ratebook/internal/config"
	"github.com/jmehdipour/ratebook/internal/db"
	"github.com/jmehdipour/ratebook/internal/logger"
	"github.com/jmehdipour/ratebook/internal/reconcile"
	"github.com/jmehdipour/ratebook/internal/repository"
	"github.com/jmehdipour/ratebook/internal/service/book"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// app bundles what the rate book commands share.
type app struct {
	store     repository.Store
	constants *repository.ConstantsFile
	svc       *book.Service
	closers   []func() error
}

func dbOpts(c config.Config) db.Opts {
	return db.Opts{
		Driver:          c.Database.Driver,
		DSN:             c.Database.DSN,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
		ConnMaxIdleTime: c.Database.ConnMaxIdleTime,
		PingTimeout:     c.Database.PingTimeout,
	}
}

// openDB connects to the relational store and, when configured, migrates it.
func openDB(c config.Config) (*sqlx.DB, error) {
	sqlDB, err := db.Open(dbOpts(c))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if c.Database.AutoMigrate {
		if err := db.MigrateUp(sqlDB, logger.Log); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}
	return sqlDB, nil
}

func openApp(c config.Config) (*app, error) {
	opts, err := reconcile.ParseOptions(c.Import.NumericPolicy, c.Import.UnknownValues, c.Import.Transaction)
	if err != nil {
		return nil, fmt.Errorf("import policy: %w", err)
	}

	a := &app{}
	switch c.Storage.Backend {
	case config.BackendFile:
		a.store = repository.NewFileStore(c.Storage.DataDir)
	default:
		sqlDB, err := openDB(c)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, sqlDB.Close)
		a.store = repository.NewSQLStore(sqlDB)
	}

	a.constants = repository.NewConstantsFile(c.Storage.ConstantsPath(), logger.Log)
	a.svc = book.New(a.store, a.constants, opts, c.Export.Dir, logger.Log)

	logger.Log.Debug("rate book opened",
		zap.String("backend", c.Storage.Backend),
		zap.String("constants", a.constants.Path()),
		zap.String("numeric_policy", string(opts.Numeric)),
		zap.String("unknown_values", string(opts.Unknown)),
		zap.String("transaction", string(opts.Transaction)),
	)
	return a, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			logger.Log.Warn("close failed", zap.Error(err))
		}
	}
}
