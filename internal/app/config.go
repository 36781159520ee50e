package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"

	"github.com/xenking/pos-sales/internal/storage/postgres"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (POS_ prefix), a .env file, flags, or YAML files.
type Config struct {
	Addr           string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL    string `usage:"PostgreSQL connection URL (POS_DATABASE_URL or DATABASE_URL); empty runs on in-memory storage" flag:"database-url"`
	APIKeyPepper   string `usage:"HMAC pepper for API key hashing" flag:"api-key-pepper"`
	DevAPIKey      string `default:"dev-key" usage:"API key accepted when running on in-memory storage" flag:"dev-api-key"`
	MigrateOnStart bool   `default:"true" usage:"Apply embedded migrations on startup" flag:"migrate-on-start"`
	DB             DBConfig
	Graceful       GracefulConfig
}

// DBConfig tunes the connection provider.
type DBConfig struct {
	MaxConns        int32         `default:"5" usage:"Maximum pool connections"`
	MinConns        int32         `default:"0" usage:"Minimum idle pool connections"`
	ConnectTimeout  time.Duration `default:"3s" usage:"Timeout for opening and pinging the pool"`
	MaxConnIdleTime time.Duration `default:"5m" usage:"Close connections idle for longer"`
	MaxConnLifetime time.Duration `default:"1h" usage:"Recycle connections older than this"`
	RevalidateAfter time.Duration `default:"30s" usage:"Ping a pool older than this before handing it out"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig reads .env (if present), then environment variables and YAML
// config files.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "POS",
		Files:     []string{"config.yaml", "/etc/pos/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL != "" && cfg.APIKeyPepper == "" {
		return nil, errors.New("api key pepper is required with a database: set POS_API_KEY_PEPPER")
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the DATABASE_URL and PORT variables set by
// hosting platforms onto the POS_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

// Postgres returns the connection provider settings.
func (c *Config) Postgres() postgres.Config {
	return postgres.Config{
		URL:             c.DatabaseURL,
		MaxConns:        c.DB.MaxConns,
		MinConns:        c.DB.MinConns,
		ConnectTimeout:  c.DB.ConnectTimeout,
		MaxConnIdleTime: c.DB.MaxConnIdleTime,
		MaxConnLifetime: c.DB.MaxConnLifetime,
		RevalidateAfter: c.DB.RevalidateAfter,
	}
}
