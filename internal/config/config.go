package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	DB         DBConfig         `mapstructure:"db"`
	Oracle     OracleConfig     `mapstructure:"oracle"`
	Resolution ResolutionConfig `mapstructure:"resolution"`
	Admin      AdminConfig      `mapstructure:"admin"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Markets    MarketsConfig    `mapstructure:"markets"`
	Audit      AuditConfig      `mapstructure:"audit"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`

	// File enables a rotated JSON log file next to stdout.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
	ConnectRetries  uint64        `mapstructure:"connect_retries"`
}

type OracleConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	VsCurrency     string        `mapstructure:"vs_currency"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
	Burst          int           `mapstructure:"burst"`
	APIKey         string        `mapstructure:"api_key"`
	APIKeyHeader   string        `mapstructure:"api_key_header"`
}

type ResolutionConfig struct {
	Window      time.Duration `mapstructure:"window"`
	BatchLimit  int           `mapstructure:"batch_limit"`
	MaxParallel int           `mapstructure:"max_parallel"`
	ItemTimeout time.Duration `mapstructure:"item_timeout"`
	RunTimeout  time.Duration `mapstructure:"run_timeout"`
	// CronSecret guards the trigger endpoint. Empty disables the endpoint.
	CronSecret string `mapstructure:"cron_secret"`
}

type AdminConfig struct {
	Password   string        `mapstructure:"password"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type CacheConfig struct {
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	// KeyPrefix namespaces redis keys.
	KeyPrefix string `mapstructure:"key_prefix"`
	// Dir enables an on-disk badger cache when no redis address is set.
	Dir              string `mapstructure:"dir"`
	MemoryMaxEntries int    `mapstructure:"memory_max_entries"`
}

type MarketsConfig struct {
	TopN        int           `mapstructure:"top_n"`
	FetchLimit  int           `mapstructure:"fetch_limit"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	// StaleTTL keeps the last good listing to serve while the price API is down.
	StaleTTL time.Duration `mapstructure:"stale_ttl"`
	Stablecoins []string      `mapstructure:"stablecoins"`
}

type AuditConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Agent   string `mapstructure:"agent"`
}

// SchedulerConfig is read by cmd/scheduler only.
type SchedulerConfig struct {
	Spec      string        `mapstructure:"spec"`
	TargetURL string        `mapstructure:"target_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 14)
	v.SetDefault("log.compress", true)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.connect_retries", 5)

	v.SetDefault("oracle.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("oracle.vs_currency", "usd")
	v.SetDefault("oracle.timeout", "10s")
	v.SetDefault("oracle.requests_per_sec", 0.5)
	v.SetDefault("oracle.burst", 5)
	v.SetDefault("oracle.api_key", "")
	v.SetDefault("oracle.api_key_header", "x-cg-demo-api-key")

	v.SetDefault("resolution.window", "24h")
	v.SetDefault("resolution.batch_limit", 500)
	v.SetDefault("resolution.max_parallel", 4)
	v.SetDefault("resolution.item_timeout", "10s")
	v.SetDefault("resolution.run_timeout", "50s")
	v.SetDefault("resolution.cron_secret", "")

	v.SetDefault("admin.password", "")
	v.SetDefault("admin.session_ttl", "12h")

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.key_prefix", "coinpredict:")
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.memory_max_entries", 1024)

	v.SetDefault("markets.top_n", 8)
	v.SetDefault("markets.fetch_limit", 20)
	v.SetDefault("markets.cache_ttl", "60s")
	v.SetDefault("markets.stale_ttl", "24h")
	v.SetDefault("markets.stablecoins", []string{"usdt", "usdc", "busd", "dai", "tusd", "usdp", "usdd", "gusd", "frax", "lusd"})

	v.SetDefault("audit.base_url", "")
	v.SetDefault("audit.api_key", "")
	v.SetDefault("audit.agent", "coinpredict")

	v.SetDefault("scheduler.spec", "0 */5 * * * *")
	v.SetDefault("scheduler.target_url", "http://localhost:8080/api/v1/resolve-predictions")
	v.SetDefault("scheduler.timeout", "60s")

	// Common deployment names for the secrets, in addition to CP_*.
	_ = v.BindEnv("resolution.cron_secret", "CP_RESOLUTION_CRON_SECRET", "CRON_SECRET")
	_ = v.BindEnv("admin.password", "CP_ADMIN_PASSWORD", "ADMIN_PASSWORD")
	_ = v.BindEnv("db.dsn", "CP_DB_DSN", "DATABASE_URL")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
