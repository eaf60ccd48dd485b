// Package config loads settings from built-in defaults, an optional TOML
// file, a .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Redis      RedisConfig      `toml:"redis"`
	Automation AutomationConfig `toml:"automation"`
	Logging    LoggingConfig    `toml:"logging"`
	LLM        LLMConfig        `toml:"llm"`
	Scraper    ScraperConfig    `toml:"scraper"`
}

type ServerConfig struct {
	Port        string   `toml:"port"`
	GinMode     string   `toml:"gin_mode"`
	CORSOrigins []string `toml:"cors_origins"` // empty allows any origin
}

type DatabaseConfig struct {
	URL             string `toml:"url"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime string `toml:"conn_max_lifetime"`
	AutoMigrate     bool   `toml:"auto_migrate"`
}

type RedisConfig struct {
	URL string `toml:"url"` // empty uses the in-process limiter
}

type AutomationConfig struct {
	SecretKey           string `toml:"secret_key"`
	BulkRateLimitPerMin int    `toml:"bulk_rate_limit_per_min"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // console or json
}

type LLMConfig struct {
	GeminiAPIKey string `toml:"gemini_api_key"`
	GeminiModel  string `toml:"gemini_model"`
}

type ScraperConfig struct {
	TargetURL  string `toml:"target_url"`
	Schedule   string `toml:"schedule"` // cron spec, empty disables the in-process schedule
	Timeout    string `toml:"timeout"`
	APIBaseURL string `toml:"api_base_url"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    "8080",
			GinMode: "release",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: "30m",
			AutoMigrate:     true,
		},
		Automation: AutomationConfig{
			BulkRateLimitPerMin: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		LLM: LLMConfig{
			GeminiModel: "gemini-2.5-flash",
		},
		Scraper: ScraperConfig{
			TargetURL:  "https://www.sarkariresult.com/latestjob/",
			Timeout:    "5m",
			APIBaseURL: "http://localhost:8080",
		},
	}
}

// Load builds the configuration. A missing .env file is not an error; a
// missing TOML file is, when a path is given.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}

	cfg := NewDefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if _, err := cfg.ConnMaxLifetime(); err != nil {
		return nil, err
	}
	if _, err := cfg.ScrapeTimeout(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	var errs []error
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	setBool := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	setString("PORT", &cfg.Server.Port)
	setString("GIN_MODE", &cfg.Server.GinMode)
	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok {
		cfg.Server.CORSOrigins = splitList(v)
	}
	setString("DATABASE_URL", &cfg.Database.URL)
	setInt("DB_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns)
	setInt("DB_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns)
	setString("DB_CONN_MAX_LIFETIME", &cfg.Database.ConnMaxLifetime)
	setBool("DB_AUTO_MIGRATE", &cfg.Database.AutoMigrate)
	setString("REDIS_URL", &cfg.Redis.URL)
	setString("AUTOMATION_SECRET_KEY", &cfg.Automation.SecretKey)
	setInt("BULK_RATE_LIMIT_PER_MIN", &cfg.Automation.BulkRateLimitPerMin)
	setString("LOG_LEVEL", &cfg.Logging.Level)
	setString("LOG_FORMAT", &cfg.Logging.Format)
	setString("GEMINI_API_KEY", &cfg.LLM.GeminiAPIKey)
	setString("GEMINI_MODEL", &cfg.LLM.GeminiModel)
	setString("SCRAPE_TARGET_URL", &cfg.Scraper.TargetURL)
	setString("SCRAPE_SCHEDULE", &cfg.Scraper.Schedule)
	setString("SCRAPE_TIMEOUT", &cfg.Scraper.Timeout)
	setString("API_BASE_URL", &cfg.Scraper.APIBaseURL)

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) ConnMaxLifetime() (time.Duration, error) {
	return parseDuration("database.conn_max_lifetime", c.Database.ConnMaxLifetime)
}

func (c *Config) ScrapeTimeout() (time.Duration, error) {
	return parseDuration("scraper.timeout", c.Scraper.Timeout)
}

func parseDuration(name, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

// ValidateAPI checks the settings the API server and seed command need.
func (c *Config) ValidateAPI() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

// ValidateScraper checks the settings the standalone scraper needs.
func (c *Config) ValidateScraper() error {
	var missing []string
	if c.LLM.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if c.Automation.SecretKey == "" {
		missing = append(missing, "AUTOMATION_SECRET_KEY")
	}
	if c.Scraper.APIBaseURL == "" {
		missing = append(missing, "API_BASE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}
