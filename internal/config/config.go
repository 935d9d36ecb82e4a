package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port            string        `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"` // "postgres" or "sqlite"
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		NewsTTL  time.Duration `yaml:"news_ttl"`
	} `yaml:"redis"`
	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`
	Upstream struct {
		YahooBaseURL   string        `yaml:"yahoo_base_url"`
		YahooCookieURL string        `yaml:"yahoo_cookie_url"`
		Timeout        time.Duration `yaml:"timeout"`
		HistoryDays    int           `yaml:"history_days"`
	} `yaml:"upstream"`
	News struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
		Limit   int    `yaml:"limit"`
	} `yaml:"news"`
	Health struct {
		ProbeSchedule string `yaml:"probe_schedule"`
		ProbeTicker   string `yaml:"probe_ticker"`
	} `yaml:"health"`
	LogLevel string `yaml:"log_level"`
}

// Load reads config from a YAML file, then applies environment variable overrides
// and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		c.Upstream.YahooBaseURL = v
	}
	if v := os.Getenv("YAHOO_COOKIE_URL"); v != "" {
		c.Upstream.YahooCookieURL = v
	}
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		c.News.APIKey = v
	}
	if v := os.Getenv("NEWS_BASE_URL"); v != "" {
		c.News.BaseURL = v
	}
	if v := os.Getenv("HEALTH_PROBE_SCHEDULE"); v != "" {
		c.Health.ProbeSchedule = v
	}
	if v := os.Getenv("HEALTH_PROBE_TICKER"); v != "" {
		c.Health.ProbeTicker = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"REDIS_DB", &c.Redis.DB},
		{"HISTORY_DAYS", &c.Upstream.HistoryDays},
		{"NEWS_LIMIT", &c.News.Limit},
	}
	for _, e := range ints {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = n
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"NEWS_CACHE_TTL", &c.Redis.NewsTTL},
		{"UPSTREAM_TIMEOUT", &c.Upstream.Timeout},
		{"SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout},
	}
	for _, e := range durations {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.URL == "" {
		c.Database.URL = "host=localhost user=user password=password dbname=stocktracker port=5432 sslmode=disable"
	}
	if c.Redis.NewsTTL == 0 {
		c.Redis.NewsTTL = 10 * time.Minute
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "watchlist_events"
	}
	if c.Upstream.YahooBaseURL == "" {
		c.Upstream.YahooBaseURL = "https://query1.finance.yahoo.com"
	}
	if c.Upstream.YahooCookieURL == "" {
		c.Upstream.YahooCookieURL = "https://fc.yahoo.com"
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = 5 * time.Second
	}
	if c.Upstream.HistoryDays == 0 {
		c.Upstream.HistoryDays = 10
	}
	if c.News.BaseURL == "" {
		c.News.BaseURL = "https://api.marketaux.com"
	}
	if c.News.Limit == 0 {
		c.News.Limit = 5
	}
	if c.Health.ProbeSchedule == "" {
		c.Health.ProbeSchedule = "@every 5m"
	}
	if c.Health.ProbeTicker == "" {
		c.Health.ProbeTicker = "AAPL"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks that the loaded values are usable.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	if c.Upstream.HistoryDays <= 0 {
		return fmt.Errorf("upstream.history_days must be positive")
	}
	if c.News.Limit <= 0 {
		return fmt.Errorf("news.limit must be positive")
	}
	if c.Redis.NewsTTL < 0 {
		return fmt.Errorf("redis.news_ttl must not be negative")
	}
	return nil
}

// CacheEnabled reports whether a Redis address was configured.
func (c *Config) CacheEnabled() bool { return c.Redis.Addr != "" }

// EventsEnabled reports whether Kafka brokers were configured.
func (c *Config) EventsEnabled() bool { return len(c.Kafka.Brokers) > 0 }

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
