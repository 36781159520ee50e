package app

import (
	"context"
	"encoding/hex"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/pos-sales/internal/domain/auth"
	"github.com/xenking/pos-sales/internal/domain/cart"
	"github.com/xenking/pos-sales/internal/domain/order"
	"github.com/xenking/pos-sales/internal/domain/report"
	"github.com/xenking/pos-sales/internal/storage/memory"
	"github.com/xenking/pos-sales/internal/storage/postgres"
	"github.com/xenking/pos-sales/pkg/health"
)

// storage groups the repositories the services run on.
type storage struct {
	carts   cart.Repository
	uow     order.UnitOfWork
	orders  order.Repository
	reports report.Repository
	apikeys auth.Repository
	// db is nil on in-memory storage.
	db    health.Pinger
	close func()
}

func openStorage(ctx context.Context, lg *zap.Logger, cfg *Config) (*storage, error) {
	if cfg.DatabaseURL == "" {
		return openMemory(lg, cfg), nil
	}

	p := postgres.NewProvider(cfg.Postgres())
	if cfg.MigrateOnStart {
		if err := postgres.Migrate(ctx, p, lg.Named("migrate")); err != nil {
			p.Close()
			return nil, errors.Wrap(err, "migrate")
		}
	}
	return &storage{
		carts:   postgres.NewCartRepository(p),
		uow:     postgres.NewUnitOfWork(p),
		orders:  postgres.NewOrderRepository(p),
		reports: postgres.NewReportRepository(p),
		apikeys: postgres.NewAPIKeyRepository(p),
		db:      p,
		close:   p.Close,
	}, nil
}

// openMemory serves the demo catalog from process memory. Nothing survives a
// restart.
func openMemory(lg *zap.Logger, cfg *Config) *storage {
	lg.Warn("No database URL configured, using in-memory storage",
		zap.String("api_key", cfg.DevAPIKey),
	)
	s := memory.NewSeeded()
	s.AddAPIKey(auth.APIKeyInfo{
		ID:      "dev",
		KeyHash: hex.EncodeToString(auth.HashKey([]byte(cfg.APIKeyPepper), cfg.DevAPIKey)),
		Name:    "development",
		UserID:  1,
	})
	return &storage{
		carts:   s.Carts(),
		uow:     s,
		orders:  s.Orders(),
		reports: s.Reports(),
		apikeys: s.APIKeys(),
		close:   func() {},
	}
}
