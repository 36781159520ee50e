package postgres

import (
	"context"
	"sync/atomic"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/pos-sales/internal/apperr"
)

// Config bounds the pool opened by a Provider. Zero values fall back to the
// defaults below.
type Config struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnectTimeout  time.Duration
	MaxConnIdleTime time.Duration
	MaxConnLifetime time.Duration
	// RevalidateAfter is how long a pool is trusted before the next Pool
	// call pings it.
	RevalidateAfter time.Duration
}

const (
	defaultMaxConns        = 5
	defaultConnectTimeout  = 3 * time.Second
	defaultRevalidateAfter = 30 * time.Second
)

// Provider lazily opens a pgx pool and hands it out to repositories. The
// first caller opens it, concurrent callers share that attempt, and a pool
// that stops answering pings is replaced on the next call.
type Provider struct {
	cfg     Config
	pool    atomic.Pointer[pgxpool.Pool]
	checked atomic.Int64 // unix nanos of the last successful ping
	group   singleflight.Group
	now     func() time.Time
}

// NewProvider returns a Provider for cfg. No connection is made until the
// first call to Pool.
func NewProvider(cfg Config) *Provider {
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = defaultMaxConns
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.RevalidateAfter <= 0 {
		cfg.RevalidateAfter = defaultRevalidateAfter
	}
	return &Provider{cfg: cfg, now: time.Now}
}

// Pool returns a live pool, opening or replacing it when needed. Failures
// are apperr.Connection errors.
func (p *Provider) Pool(ctx context.Context) (*pgxpool.Pool, error) {
	if pool := p.pool.Load(); pool != nil && p.fresh() {
		return pool, nil
	}

	// The shared attempt must not die with the first caller's context.
	v, err, _ := p.group.Do("pool", func() (any, error) {
		return p.acquire(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.(*pgxpool.Pool), nil
}

// Ping reports whether the database is reachable through the provider.
func (p *Provider) Ping(ctx context.Context) error {
	pool, err := p.Pool(ctx)
	if err != nil {
		return err
	}
	if err := pool.Ping(ctx); err != nil {
		return apperr.Conn("ping", err)
	}
	return nil
}

// Close releases the cached pool, if any.
func (p *Provider) Close() {
	if pool := p.pool.Swap(nil); pool != nil {
		pool.Close()
	}
}

func (p *Provider) fresh() bool {
	return p.now().UnixNano()-p.checked.Load() < p.cfg.RevalidateAfter.Nanoseconds()
}

func (p *Provider) acquire(ctx context.Context) (*pgxpool.Pool, error) {
	if pool := p.pool.Load(); pool != nil {
		if p.fresh() {
			return pool, nil
		}
		if err := p.ping(ctx, pool); err == nil {
			return pool, nil
		}
		// Stale: drop it and let in-flight users finish in the background.
		if p.pool.CompareAndSwap(pool, nil) {
			go pool.Close()
		}
	}

	pool, err := p.open(ctx)
	if err != nil {
		return nil, err
	}
	p.pool.Store(pool)
	return pool, nil
}

func (p *Provider) ping(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.ConnectTimeout)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	p.checked.Store(p.now().UnixNano())
	return nil
}

func (p *Provider) open(ctx context.Context) (*pgxpool.Pool, error) {
	if p.cfg.URL == "" {
		return nil, apperr.Conn("open pool", apperr.Validationf("database_url", "required"))
	}
	cfg, err := pgxpool.ParseConfig(p.cfg.URL)
	if err != nil {
		return nil, apperr.Conn("parse database url", err)
	}
	cfg.MaxConns = p.cfg.MaxConns
	if p.cfg.MinConns > 0 {
		cfg.MinConns = p.cfg.MinConns
	}
	if p.cfg.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = p.cfg.MaxConnIdleTime
	}
	if p.cfg.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = p.cfg.MaxConnLifetime
	}
	cfg.ConnConfig.ConnectTimeout = p.cfg.ConnectTimeout
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, apperr.Conn("open pool", err)
	}
	// NewWithConfig connects lazily; surface a bad DSN or a down server now.
	if err := p.ping(ctx, pool); err != nil {
		pool.Close()
		return nil, apperr.Conn("open pool", err)
	}
	return pool, nil
}
