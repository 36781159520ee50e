// Command seed-db applies migrations and loads a demo catalog with one API key.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/xenking/pos-sales/internal/domain/auth"
	"github.com/xenking/pos-sales/internal/storage/postgres"
)

type catalog struct {
	Company struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"company"`
	Users []struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Initial string `json:"initial"`
	} `json:"users"`
	Stores []struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Initial string `json:"initial"`
	} `json:"stores"`
	Products []struct {
		ID   int64  `json:"id"`
		SKU  string `json:"sku"`
		Name string `json:"name"`
		Unit string `json:"unit"`
	} `json:"products"`
	Stock []struct {
		StoreID   int64 `json:"store_id"`
		ProductID int64 `json:"product_id"`
		Qty       int   `json:"qty"`
	} `json:"stock"`
}

func main() {
	var (
		databaseURL  string
		catalogFile  string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or POS_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or POS_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("POS_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or POS_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("POS_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile, apiKey, pepper string) error {
	data, err := os.ReadFile(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}
	var c catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return errors.Wrap(err, "parse catalog JSON")
	}

	slog.Info("connecting to database")
	p := postgres.NewProvider(postgres.Config{URL: databaseURL})
	defer p.Close()

	slog.Info("running migrations")
	if err := postgres.Migrate(ctx, p, zap.NewNop()); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	pool, err := p.Pool(ctx)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if err := seedCatalog(ctx, tx, &c); err != nil {
			return errors.Wrap(err, "seed catalog")
		}
		if len(c.Users) == 0 {
			return errors.New("catalog has no users to own the API key")
		}
		if err := seedAPIKey(ctx, tx, c.Users[0].ID, apiKey, pepper); err != nil {
			return errors.Wrap(err, "seed api key")
		}
		return nil
	})
}

func seedCatalog(ctx context.Context, tx pgx.Tx, c *catalog) error {
	b := &pgx.Batch{}
	b.Queue(`INSERT INTO companies (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, c.Company.ID, c.Company.Name)
	for _, u := range c.Users {
		b.Queue(`INSERT INTO users (id, company_id, name, email, initial) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, initial = EXCLUDED.initial`,
			u.ID, c.Company.ID, u.Name, u.Email, u.Initial)
	}
	for _, s := range c.Stores {
		b.Queue(`INSERT INTO stores (id, company_id, name, initial) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, initial = EXCLUDED.initial`,
			s.ID, c.Company.ID, s.Name, s.Initial)
	}
	for _, p := range c.Products {
		b.Queue(`INSERT INTO products (id, company_id, sku, name, unit_name) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET sku = EXCLUDED.sku, name = EXCLUDED.name, unit_name = EXCLUDED.unit_name`,
			p.ID, c.Company.ID, p.SKU, p.Name, p.Unit)
	}
	for _, s := range c.Stock {
		b.Queue(`INSERT INTO stock (store_id, product_id, qty) VALUES ($1, $2, $3)
			ON CONFLICT (store_id, product_id) DO UPDATE SET qty = EXCLUDED.qty`,
			s.StoreID, s.ProductID, s.Qty)
	}
	// Explicit ids leave the sequences behind.
	for _, table := range []string{"companies", "users", "stores", "products"} {
		b.Queue(`SELECT setval(pg_get_serial_sequence($1, 'id'), (SELECT COALESCE(MAX(id), 1) FROM ` + table + `))`, table)
	}

	if err := tx.SendBatch(ctx, b).Close(); err != nil {
		return err
	}
	slog.Info("upserted catalog",
		slog.Int("users", len(c.Users)),
		slog.Int("stores", len(c.Stores)),
		slog.Int("products", len(c.Products)),
	)
	return nil
}

func seedAPIKey(ctx context.Context, tx pgx.Tx, userID int64, apiKey, pepper string) error {
	keyHash := hex.EncodeToString(auth.HashKey([]byte(pepper), apiKey))

	if _, err := tx.Exec(ctx, `INSERT INTO api_keys (id, key_hash, name, user_id, active)
		VALUES ('default', $1, 'Default key', $2, TRUE)
		ON CONFLICT (id) DO UPDATE SET key_hash = EXCLUDED.key_hash, user_id = EXCLUDED.user_id, active = TRUE`,
		keyHash, userID); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"), slog.Int64("user_id", userID))
	return nil
}
