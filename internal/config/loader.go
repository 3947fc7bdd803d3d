// Package config loads the bot settings from BOT_5VERST_* environment
// variables. Database settings are nested under BOT_5VERST_DB_CONFIG__.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/example/volunteer-bot/internal/persistence/sqlite/pool"
)

// Prefix is prepended to every variable name.
const Prefix = "BOT_5VERST_"

// Config captures environment driven configuration values for the bot.
type Config struct {
	BotToken    string   `env:"BOT_TOKEN"`
	LogLevel    string   `env:"LOG_LEVEL"    envDefault:"info"`
	LogFormat   string   `env:"LOG_FORMAT"   envDefault:"json"`
	MetricsAddr string   `env:"METRICS_ADDR" envDefault:":9090"`
	DB          DBConfig `envPrefix:"DB_CONFIG__"`
}

// DBConfig configures the database file, its pool and the migration tree.
type DBConfig struct {
	Path string `env:"PATH,required,notEmpty"`
	// Migrations is a migration tree on disk; empty selects the embedded one.
	Migrations     string        `env:"MIGRATIONS"`
	MaxConnections int           `env:"MAX_CONNECTIONS" envDefault:"5"`
	AcquireTimeout time.Duration `env:"ACQUIRE_TIMEOUT" envDefault:"10s"`
	BusyTimeout    time.Duration `env:"BUSY_TIMEOUT"    envDefault:"5s"`
	JournalMode    string        `env:"JOURNAL_MODE"    envDefault:"WAL"`
	ForeignKeys    bool          `env:"FOREIGN_KEYS"    envDefault:"true"`
	Retries        int           `env:"RETRIES"         envDefault:"3"`
}

// Load parses configuration values from the current process environment.
func Load() (Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// LoadFromMap parses configuration from vars instead of the process
// environment. Keys carry the full BOT_5VERST_ prefix.
func LoadFromMap(vars map[string]string) (Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every variable holding an unusable value.
func (c Config) Validate() error {
	var invalid []string

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, Prefix+"LOG_LEVEL")
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		invalid = append(invalid, Prefix+"LOG_FORMAT")
	}
	if c.DB.MaxConnections < 1 {
		invalid = append(invalid, Prefix+"DB_CONFIG__MAX_CONNECTIONS")
	}
	if c.DB.AcquireTimeout <= 0 {
		invalid = append(invalid, Prefix+"DB_CONFIG__ACQUIRE_TIMEOUT")
	}
	if c.DB.BusyTimeout < 0 {
		invalid = append(invalid, Prefix+"DB_CONFIG__BUSY_TIMEOUT")
	}
	if c.DB.JournalMode != "" {
		check := pool.Config{Path: ":memory:", MaxConnections: 1, JournalMode: c.DB.JournalMode}
		if check.Validate() != nil {
			invalid = append(invalid, Prefix+"DB_CONFIG__JOURNAL_MODE")
		}
	}
	if c.DB.Retries < 0 {
		invalid = append(invalid, Prefix+"DB_CONFIG__RETRIES")
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// PoolConfig returns the connection pool settings.
func (c Config) PoolConfig() pool.Config {
	cfg := pool.DefaultConfig(c.DB.Path, c.DB.MaxConnections)
	cfg.AcquireTimeout = c.DB.AcquireTimeout
	cfg.BusyTimeout = c.DB.BusyTimeout
	cfg.JournalMode = strings.ToUpper(c.DB.JournalMode)
	cfg.EnableForeignKeys = c.DB.ForeignKeys
	return cfg
}

// RetryConfig returns the retry policy for storage operations.
func (c Config) RetryConfig() pool.RetryConfig {
	cfg := pool.DefaultRetryConfig()
	cfg.MaxRetries = c.DB.Retries
	return cfg
}

// String renders the configuration with the bot token masked.
func (c Config) String() string {
	token := ""
	if c.BotToken != "" {
		token = "****"
	}
	return fmt.Sprintf("Config{BotToken:%s LogLevel:%s LogFormat:%s MetricsAddr:%s DB:{Path:%s Migrations:%s MaxConnections:%d AcquireTimeout:%s BusyTimeout:%s JournalMode:%s ForeignKeys:%t Retries:%d}}",
		token, c.LogLevel, c.LogFormat, c.MetricsAddr,
		c.DB.Path, c.DB.Migrations, c.DB.MaxConnections, c.DB.AcquireTimeout, c.DB.BusyTimeout,
		c.DB.JournalMode, c.DB.ForeignKeys, c.DB.Retries)
}
