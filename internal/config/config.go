package config

import (
	"fmt"
	"strings"
	"time"

	"lobomat-api/internal/model"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server     ServerConfig
	App        AppConfig
	Catalog    CatalogConfig
	Cache      CacheConfig
	Payment    PaymentConfig
	PurchaseDB PurchaseDBConfig
	Providers  ProvidersConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"lobomat-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	LoginKey    string `envconfig:"LOGIN_KEY" default:""` // Admin endpoints login key
}

// CatalogConfig holds settings for the third-party cosmetics shop feed.
type CatalogConfig struct {
	APIURL   string        `envconfig:"CATALOG_API_URL" default:"https://fortniteapi.io"`
	APIKey   string        `envconfig:"CATALOG_API_KEY" default:""`
	Lang     string        `envconfig:"CATALOG_LANG" default:"en"`
	Timeout  time.Duration `envconfig:"CATALOG_TIMEOUT" default:"10s"`
	CacheTTL time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"5m"`
}

// CacheConfig holds shop-feed cache settings.
type CacheConfig struct {
	Type string `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// PaymentConfig holds settings for the external payment proxy.
type PaymentConfig struct {
	ProxyURL    string        `envconfig:"PAYMENT_PROXY_URL" default:"http://localhost:3003/dlocal-proxy"`
	Currency    string        `envconfig:"PAYMENT_CURRENCY" default:"USD"`
	Country     string        `envconfig:"PAYMENT_COUNTRY" default:"CO"`
	SuccessURL  string        `envconfig:"PAYMENT_SUCCESS_URL" default:"http://localhost:5173/checkout"`
	BackURL     string        `envconfig:"PAYMENT_BACK_URL" default:"http://localhost:5173/store"`
	USDPerVBuck float64       `envconfig:"PAYMENT_USD_PER_VBUCK" default:"0.01"`
	Timeout     time.Duration `envconfig:"PAYMENT_TIMEOUT" default:"10s"`
}

// PurchaseDBConfig holds pending-purchase store settings.
type PurchaseDBConfig struct {
	Type string `envconfig:"PURCHASE_DB_TYPE" default:"sqlite"` // sqlite, mysql, or memory
	Path string `envconfig:"PURCHASE_DB_PATH" default:"./data/purchases.db"`
	// Fulfillment attempt log (SQLite)
	LogPath string `envconfig:"FULFILLMENT_LOG_PATH" default:"./data/fulfillment.db"`
	// MySQL settings
	Host     string `envconfig:"PURCHASE_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"PURCHASE_DB_PORT" default:"3306"`
	Name     string `envconfig:"PURCHASE_DB_NAME" default:"lobomat"`
	User     string `envconfig:"PURCHASE_DB_USER" default:"root"`
	Password string `envconfig:"PURCHASE_DB_PASS" default:""`
}

// ProvidersConfig holds the ordered delivery provider (bot) list.
// List order is priority order; fallback always walks it front to back.
type ProvidersConfig struct {
	List               string        `envconfig:"DELIVERY_PROVIDERS" default:"bot1=http://localhost:3001,bot2=http://localhost:3003"`
	Timeout            time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"10s"`
	MinFriendshipHours float64       `envconfig:"MIN_FRIENDSHIP_HOURS" default:"48"`
}

// Parse expands the configured id=url list into ordered providers.
// Malformed entries are skipped.
func (p *ProvidersConfig) Parse() []model.DeliveryProvider {
	var providers []model.DeliveryProvider
	for _, entry := range strings.Split(p.List, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, url, ok := strings.Cut(entry, "=")
		if !ok || id == "" || url == "" {
			continue
		}
		providers = append(providers, model.DeliveryProvider{
			ID:      strings.TrimSpace(id),
			BaseURL: strings.TrimRight(strings.TrimSpace(url), "/"),
		})
	}
	return providers
}

// DSN returns the MySQL data source name for the purchase store.
func (d *PurchaseDBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
