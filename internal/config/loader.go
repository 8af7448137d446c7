package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies HEDGEBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known HEDGEBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Spot venue ──
	setStr(&cfg.Spot.BaseURL, "HEDGEBOT_SPOT_BASE_URL")
	setStr(&cfg.Spot.APIKey, "HEDGEBOT_SPOT_API_KEY")
	setStr(&cfg.Spot.APISecret, "HEDGEBOT_SPOT_API_SECRET")
	setStr(&cfg.Spot.Symbol, "HEDGEBOT_SPOT_SYMBOL")
	setStr(&cfg.Spot.BaseAsset, "HEDGEBOT_SPOT_BASE_ASSET")
	setStr(&cfg.Spot.QuoteAsset, "HEDGEBOT_SPOT_QUOTE_ASSET")
	setInt(&cfg.Spot.Precision, "HEDGEBOT_SPOT_PRECISION")
	setDuration(&cfg.Spot.PostCallDelay, "HEDGEBOT_SPOT_POST_CALL_DELAY")
	setFloat64(&cfg.Spot.ReserveBase, "HEDGEBOT_SPOT_RESERVE_BASE")
	setFloat64(&cfg.Spot.ReservePerEntry, "HEDGEBOT_SPOT_RESERVE_PER_ENTRY")
	setFloat64(&cfg.Spot.ReservePerOrder, "HEDGEBOT_SPOT_RESERVE_PER_ORDER")

	// ── Hedge venue ──
	setStr(&cfg.Hedge.BaseURL, "HEDGEBOT_HEDGE_BASE_URL")
	setStr(&cfg.Hedge.APIKey, "HEDGEBOT_HEDGE_API_KEY")
	setStr(&cfg.Hedge.APISecret, "HEDGEBOT_HEDGE_API_SECRET")
	setStr(&cfg.Hedge.Passphrase, "HEDGEBOT_HEDGE_PASSPHRASE")
	setStr(&cfg.Hedge.Market, "HEDGEBOT_HEDGE_MARKET")
	setFloat64(&cfg.Hedge.LimitFee, "HEDGEBOT_HEDGE_LIMIT_FEE")
	setDuration(&cfg.Hedge.OrderExpiry, "HEDGEBOT_HEDGE_ORDER_EXPIRY")
	setDuration(&cfg.Hedge.PostCallDelay, "HEDGEBOT_HEDGE_POST_CALL_DELAY")

	// ── Engine ──
	setInt(&cfg.Engine.Instance, "HEDGEBOT_ENGINE_INSTANCE")
	setStr(&cfg.Engine.OrderKind, "HEDGEBOT_ENGINE_ORDER_KIND")
	setFloat64(&cfg.Engine.BuySpread, "HEDGEBOT_ENGINE_BUY_SPREAD")
	setFloat64(&cfg.Engine.SellSpread, "HEDGEBOT_ENGINE_SELL_SPREAD")
	setFloat64(&cfg.Engine.ExtraMargin, "HEDGEBOT_ENGINE_EXTRA_MARGIN")
	setFloat64(&cfg.Engine.AccountRatio, "HEDGEBOT_ENGINE_ACCOUNT_RATIO")
	setFloat64(&cfg.Engine.Haircut, "HEDGEBOT_ENGINE_HAIRCUT")
	setFloat64(&cfg.Engine.NotionalPad, "HEDGEBOT_ENGINE_NOTIONAL_PAD")
	setFloat64(&cfg.Engine.MaxSlippage, "HEDGEBOT_ENGINE_MAX_SLIPPAGE")
	setDuration(&cfg.Engine.SettleDelay, "HEDGEBOT_ENGINE_SETTLE_DELAY")
	setFloat64(&cfg.Engine.VolumeCeiling, "HEDGEBOT_ENGINE_VOLUME_CEILING")
	setDuration(&cfg.Engine.EvalInterval, "HEDGEBOT_ENGINE_EVAL_INTERVAL")
	setDuration(&cfg.Engine.HedgeInterval, "HEDGEBOT_ENGINE_HEDGE_INTERVAL")

	// ── Ledger ──
	setStr(&cfg.Ledger.Dir, "HEDGEBOT_LEDGER_DIR")
	setDuration(&cfg.Ledger.ArchiveInterval, "HEDGEBOT_LEDGER_ARCHIVE_INTERVAL")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "HEDGEBOT_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "HEDGEBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "HEDGEBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "HEDGEBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "HEDGEBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "HEDGEBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "HEDGEBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "HEDGEBOT_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "HEDGEBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "HEDGEBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "HEDGEBOT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "HEDGEBOT_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "HEDGEBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "HEDGEBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "HEDGEBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "HEDGEBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "HEDGEBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "HEDGEBOT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "HEDGEBOT_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "HEDGEBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "HEDGEBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "HEDGEBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "HEDGEBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "HEDGEBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "HEDGEBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "HEDGEBOT_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "HEDGEBOT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "HEDGEBOT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "HEDGEBOT_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "HEDGEBOT_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "HEDGEBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "HEDGEBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "HEDGEBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "HEDGEBOT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "HEDGEBOT_MODE")
	setStr(&cfg.LogLevel, "HEDGEBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
