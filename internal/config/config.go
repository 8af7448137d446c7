// Package config defines the top-level configuration for the hedge bot and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by HEDGEBOT_* environment
// variables.
type Config struct {
	Spot     SpotConfig     `toml:"spot"`
	Hedge    HedgeConfig    `toml:"hedge"`
	Engine   EngineConfig   `toml:"engine"`
	Ledger   LedgerConfig   `toml:"ledger"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// SpotConfig holds the spot venue endpoint, credentials, and market.
type SpotConfig struct {
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	APISecret  string `toml:"api_secret"`
	Symbol     string `toml:"symbol"`
	BaseAsset  string `toml:"base_asset"`
	QuoteAsset string `toml:"quote_asset"`

	Precision     int      `toml:"precision"`
	PostCallDelay duration `toml:"post_call_delay"`

	ReserveBase     float64 `toml:"reserve_base"`
	ReservePerEntry float64 `toml:"reserve_per_entry"`
	ReservePerOrder float64 `toml:"reserve_per_order"`
}

// HedgeConfig holds the hedge venue endpoint, credentials, and market.
type HedgeConfig struct {
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	APISecret  string `toml:"api_secret"`
	Passphrase string `toml:"passphrase"`
	Market     string `toml:"market"`

	LimitFee      float64  `toml:"limit_fee"`
	OrderExpiry   duration `toml:"order_expiry"`
	PostCallDelay duration `toml:"post_call_delay"`
}

// EngineConfig holds the strategy tuning parameters.
type EngineConfig struct {
	Instance  int    `toml:"instance"`
	OrderKind string `toml:"order_kind"` // "maker" or "taker"

	BuySpread   float64 `toml:"buy_spread"`
	SellSpread  float64 `toml:"sell_spread"`
	ExtraMargin float64 `toml:"extra_margin"`

	AccountRatio float64 `toml:"account_ratio"`
	Haircut      float64 `toml:"haircut"`
	NotionalPad  float64 `toml:"notional_pad"`
	MaxSlippage  float64 `toml:"max_slippage"`

	SettleDelay   duration `toml:"settle_delay"`
	VolumeCeiling float64  `toml:"volume_ceiling"`

	EvalInterval  duration `toml:"eval_interval"`
	HedgeInterval duration `toml:"hedge_interval"`
}

// LedgerConfig holds the equity journal location and archival period.
type LedgerConfig struct {
	Dir             string   `toml:"dir"`
	ArchiveInterval duration `toml:"archive_interval"`
}

// PostgresConfig holds the optional equity mirror connection parameters.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds the optional status cache connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds the optional ledger archival parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds the monitoring server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
}

// NotifyConfig holds notification channel credentials and the event filter.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration wraps time.Duration so TOML files can use strings like "5s".
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Defaults returns the baseline configuration. These match the original
// deployment's tuning for the XLM spot/perp pair.
func Defaults() Config {
	return Config{
		Spot: SpotConfig{
			BaseURL:         "https://api.binance.com",
			Symbol:          "XLMUSDT",
			BaseAsset:       "XLM",
			QuoteAsset:      "USDT",
			Precision:       7,
			PostCallDelay:   duration{time.Second},
			ReserveBase:     1.5,
			ReservePerEntry: 0.5,
			ReservePerOrder: 0.5,
		},
		Hedge: HedgeConfig{
			BaseURL:     "https://api.dydx.exchange",
			Market:      "XLM-USD",
			LimitFee:    0.0015,
			OrderExpiry: duration{5 * time.Minute},
		},
		Engine: EngineConfig{
			Instance:      1,
			OrderKind:     "taker",
			BuySpread:     -0.0025,
			SellSpread:    0.0025,
			ExtraMargin:   0.0005,
			AccountRatio:  0.1,
			Haircut:       0.99,
			NotionalPad:   1.01,
			MaxSlippage:   0.01,
			SettleDelay:   duration{5 * time.Second},
			VolumeCeiling: 100_000,
			EvalInterval:  duration{5 * time.Second},
			HedgeInterval: duration{time.Second},
		},
		Ledger: LedgerConfig{
			Dir:             "data",
			ArchiveInterval: duration{time.Hour},
		},
		Postgres: PostgresConfig{
			Port:          5432,
			SSLMode:       "disable",
			PoolMaxConns:  4,
			PoolMinConns:  1,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 8,
		},
		S3: S3Config{
			Region: "us-east-1",
			UseSSL: true,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Notify: NotifyConfig{
			Events: []string{"hedge_adjusted", "halt", "error"},
		},
		Mode:     "trade",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"trade":   true,
	"monitor": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: trade, monitor)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Spot venue
	if c.Spot.BaseURL == "" {
		errs = append(errs, "spot: base_url must not be empty")
	}
	if c.Spot.Symbol == "" {
		errs = append(errs, "spot: symbol must not be empty")
	}
	if c.Spot.BaseAsset == "" || c.Spot.QuoteAsset == "" {
		errs = append(errs, "spot: base_asset and quote_asset must not be empty")
	}
	if c.Spot.Precision < 0 || c.Spot.Precision > 12 {
		errs = append(errs, fmt.Sprintf("spot: precision must be 0-12, got %d", c.Spot.Precision))
	}
	if strings.ToLower(c.Mode) == "trade" && (c.Spot.APIKey == "" || c.Spot.APISecret == "") {
		errs = append(errs, "spot: api_key and api_secret are required for trade mode")
	}

	// Hedge venue
	if c.Hedge.BaseURL == "" {
		errs = append(errs, "hedge: base_url must not be empty")
	}
	if c.Hedge.Market == "" {
		errs = append(errs, "hedge: market must not be empty")
	}
	if c.Hedge.LimitFee < 0 {
		errs = append(errs, "hedge: limit_fee must be >= 0")
	}
	if strings.ToLower(c.Mode) == "trade" && (c.Hedge.APIKey == "" || c.Hedge.APISecret == "") {
		errs = append(errs, "hedge: api_key and api_secret are required for trade mode")
	}

	// Engine
	if c.Engine.Instance < 1 {
		errs = append(errs, "engine: instance must be >= 1")
	}
	if k := strings.ToLower(c.Engine.OrderKind); k != "maker" && k != "taker" {
		errs = append(errs, fmt.Sprintf("engine: order_kind must be maker or taker, got %q", c.Engine.OrderKind))
	}
	if c.Engine.BuySpread >= c.Engine.SellSpread {
		errs = append(errs, "engine: buy_spread must be below sell_spread")
	}
	if c.Engine.ExtraMargin < 0 {
		errs = append(errs, "engine: extra_margin must be >= 0")
	}
	if c.Engine.AccountRatio <= 0 || c.Engine.AccountRatio > 1 {
		errs = append(errs, "engine: account_ratio must be in (0, 1]")
	}
	if c.Engine.Haircut <= 0 || c.Engine.Haircut > 1 {
		errs = append(errs, "engine: haircut must be in (0, 1]")
	}
	if c.Engine.NotionalPad < 1 {
		errs = append(errs, "engine: notional_pad must be >= 1")
	}
	if c.Engine.MaxSlippage < 0 || c.Engine.MaxSlippage >= 1 {
		errs = append(errs, "engine: max_slippage must be in [0, 1)")
	}
	if c.Engine.EvalInterval.Duration <= 0 {
		errs = append(errs, "engine: eval_interval must be positive")
	}
	if c.Engine.HedgeInterval.Duration <= 0 {
		errs = append(errs, "engine: hedge_interval must be positive")
	}

	// Ledger
	if c.Ledger.Dir == "" {
		errs = append(errs, "ledger: dir must not be empty")
	}

	// Postgres mirror
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 || c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must be 0..pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
		if c.Ledger.ArchiveInterval.Duration <= 0 {
			errs = append(errs, "ledger: archive_interval must be positive when s3 is enabled")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
