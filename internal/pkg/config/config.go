package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Vodeneev/lottostats/internal/pkg/games"
)

// DefaultPath is used when neither a flag nor CONFIG_PATH names a config file.
const DefaultPath = "configs/production.yaml"

type Config struct {
	Logging  LoggingConfig             `yaml:"logging"`
	Health   HealthConfig              `yaml:"health"`
	Storage  StorageConfig             `yaml:"storage"`
	Scraper  ScraperConfig             `yaml:"scraper"`
	Refresh  RefreshConfig             `yaml:"refresh"`
	Games    map[string]games.Override `yaml:"games"`
	Notifier NotifierConfig            `yaml:"notifier"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	File   string `yaml:"file"`   // optional JSON log file, appended to
}

type HealthConfig struct {
	Port              int           `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	CORSOrigins       []string      `yaml:"cors_origins"`
}

type StorageConfig struct {
	Backend  string       `yaml:"backend"` // file or redis
	CacheDir string       `yaml:"cache_dir"`
	Redis    RedisConfig  `yaml:"redis"`
	Mirror   MirrorConfig `yaml:"mirror"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // 0 keeps entries forever
}

// MirrorConfig selects the document-store mirror. An empty driver disables it.
type MirrorConfig struct {
	Driver string `yaml:"driver"` // postgres or sqlite
	DSN    string `yaml:"dsn"`
}

type ScraperConfig struct {
	Fetcher       string        `yaml:"fetcher"` // chrome or http
	ChromePath    string        `yaml:"chrome_path"`
	UserAgent     string        `yaml:"user_agent"` // "random" picks a browser agent per request
	Timeout       time.Duration `yaml:"timeout"`
	MaxRecords    int           `yaml:"max_records"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	RateBurst     int           `yaml:"rate_burst"`
	InsecureTLS   bool          `yaml:"insecure_tls"`
	ChromeDebug   bool          `yaml:"chrome_debug"`

	// Concurrency caps how many games a scheduled or manual run refreshes at once.
	// Zero picks 1 for chrome, which renders one page at a time, and 4 for http.
	Concurrency int `yaml:"concurrency"`
}

type RefreshConfig struct {
	Deadline    time.Duration `yaml:"deadline"`
	Schedule    string        `yaml:"schedule"`
	StaleAfter  time.Duration `yaml:"stale_after"`
	MaxAgeDays  int           `yaml:"max_age_days"`
	WarmOnStart bool          `yaml:"warm_on_start"`

	// FailureBackoff is how long reads wait after a failed refresh before revalidating again.
	FailureBackoff time.Duration `yaml:"failure_backoff"`
}

type NotifierConfig struct {
	TelegramBotToken string `yaml:"telegram_bot_token"`
	TelegramChatID   int64  `yaml:"telegram_chat_id"`
	FailureThreshold int    `yaml:"failure_threshold"`
}

// Enabled reports whether Telegram alerts are configured.
func (n NotifierConfig) Enabled() bool {
	return n.TelegramBotToken != "" && n.TelegramChatID != 0
}

// ResolvePath picks the config file: the explicit path, then CONFIG_PATH, then DefaultPath.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultPath
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references from the environment, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Health.Port == 0 {
		c.Health.Port = 8080
	}
	if c.Health.ReadHeaderTimeout == 0 {
		c.Health.ReadHeaderTimeout = 10 * time.Second
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.CacheDir == "" {
		c.Storage.CacheDir = "data/cache"
	}
	if c.Storage.Redis.Addr == "" {
		c.Storage.Redis.Addr = "localhost:6379"
	}
	if c.Scraper.Fetcher == "" {
		c.Scraper.Fetcher = "chrome"
	}
	if c.Scraper.Timeout == 0 {
		c.Scraper.Timeout = 60 * time.Second
	}
	if c.Scraper.MaxRecords == 0 {
		c.Scraper.MaxRecords = 50
	}
	if c.Scraper.RateBurst == 0 {
		c.Scraper.RateBurst = 1
	}
	if c.Scraper.Concurrency == 0 {
		c.Scraper.Concurrency = 1
		if c.Scraper.Fetcher == "http" {
			c.Scraper.Concurrency = 4
		}
	}
	if c.Refresh.Deadline == 0 {
		c.Refresh.Deadline = 90 * time.Second
	}
	if c.Refresh.Schedule == "" {
		c.Refresh.Schedule = "@every 6h"
	}
	if c.Refresh.StaleAfter == 0 {
		c.Refresh.StaleAfter = 24 * time.Hour
	}
	if c.Refresh.FailureBackoff == 0 {
		c.Refresh.FailureBackoff = 5 * time.Minute
	}
	if c.Notifier.FailureThreshold == 0 {
		c.Notifier.FailureThreshold = 3
	}
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", c.Logging.Format))
	}
	if c.Health.Port < 0 || c.Health.Port > 65535 {
		errs = append(errs, fmt.Errorf("health.port %d out of range", c.Health.Port))
	}
	switch c.Storage.Backend {
	case "file", "redis":
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q must be file or redis", c.Storage.Backend))
	}
	switch c.Storage.Mirror.Driver {
	case "":
	case "postgres", "sqlite":
		if c.Storage.Mirror.DSN == "" {
			errs = append(errs, errors.New("storage.mirror.dsn is required when a mirror driver is set"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.mirror.driver %q must be postgres or sqlite", c.Storage.Mirror.Driver))
	}
	if c.Scraper.Fetcher != "chrome" && c.Scraper.Fetcher != "http" {
		errs = append(errs, fmt.Errorf("scraper.fetcher %q must be chrome or http", c.Scraper.Fetcher))
	}
	if c.Scraper.Timeout < 0 || c.Refresh.Deadline < 0 || c.Refresh.StaleAfter < 0 || c.Refresh.FailureBackoff < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if c.Scraper.MaxRecords < 0 || c.Refresh.MaxAgeDays < 0 || c.Scraper.Concurrency < 0 {
		errs = append(errs, errors.New("scraper.max_records, scraper.concurrency and refresh.max_age_days must not be negative"))
	}
	if (c.Notifier.TelegramBotToken == "") != (c.Notifier.TelegramChatID == 0) {
		errs = append(errs, errors.New("notifier needs both telegram_bot_token and telegram_chat_id"))
	}
	return errors.Join(errs...)
}
