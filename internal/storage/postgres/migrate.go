// Package postgres implements the sales repositories on PostgreSQL via pgx.
package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/xenking/pos-sales/db"
)

// gooseLogger routes goose output through zap.
type gooseLogger struct {
	lg *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...any) { l.lg.Infof(format, v...) }
func (l gooseLogger) Fatalf(format string, v ...any) { l.lg.Fatalf(format, v...) }

// Migrate applies all pending embedded migrations.
func Migrate(ctx context.Context, p *Provider, lg *zap.Logger) error {
	pool, err := p.Pool(ctx)
	if err != nil {
		return err
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer func() { _ = sqlDB.Close() }()

	goose.SetBaseFS(db.Migrations)
	goose.SetLogger(gooseLogger{lg: lg.Named("goose").Sugar()})
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}
	if err := goose.UpContext(ctx, sqlDB, db.MigrationsDir); err != nil {
		return errors.Wrap(err, "goose up")
	}
	return nil
}
