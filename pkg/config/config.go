package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"StockPulse/pkg/util"
)

// DefaultSymbols is the watchlist used when neither config, env, nor
// flags provide one.
var DefaultSymbols = []string{"AAPL", "MSFT", "UBER", "GOOG"}

type Config struct {
	Environment string   `yaml:"environment"`
	Symbols     []string `yaml:"symbols"`
	Fetch       struct {
		From      string        `yaml:"from"`     // RFC3339 period start, required
		Interval  time.Duration `yaml:"interval"` // scheduler tick, default 30s
		Timeout   time.Duration `yaml:"timeout"`  // per provider call, default 10s
		Workers   int           `yaml:"workers"`  // concurrent provider calls, default 4
		SMAWindow int           `yaml:"sma_window"`
	} `yaml:"fetch"`
	Buffer struct {
		Capacity     int           `yaml:"capacity"`
		QueryTimeout time.Duration `yaml:"query_timeout"`
	} `yaml:"buffer"`
	Sink struct {
		Dir string `yaml:"dir"`
	} `yaml:"sink"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Provider struct {
		BaseURL  string        `yaml:"base_url"`
		Interval string        `yaml:"interval"` // candle granularity, default 1d
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"provider"`
	Backend struct {
		Type string `yaml:"type"` // none, kafka or clickhouse
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		LogsTopic    string        `yaml:"logs_topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		Table        string        `yaml:"table"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"clickhouse"`
	Cache struct {
		Backend string        `yaml:"backend"` // memory or redis
		TTL     time.Duration `yaml:"ttl"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables. Validation runs after the overrides are applied.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("FROM"); v != "" {
		c.Fetch.From = v
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	c.Fetch.Workers = util.ParseIntDefault(os.Getenv("FETCH_WORKERS"), c.Fetch.Workers)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// FromTime returns the parsed period start. Validate guarantees it
// parses, so startup code can call this without a second error path.
func (c *Config) FromTime() time.Time {
	t, _ := util.ParseTime(c.Fetch.From)
	return t
}

// Validate checks required fields and fills defaults.
func (c *Config) Validate() error {
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if len(c.Symbols) == 0 {
		c.Symbols = append([]string(nil), DefaultSymbols...)
	}
	for i, s := range c.Symbols {
		c.Symbols[i] = strings.TrimSpace(s)
		if c.Symbols[i] == "" {
			return fmt.Errorf("symbols contains an empty entry")
		}
	}

	if c.Fetch.From == "" {
		return fmt.Errorf("fetch.from is required")
	}
	if _, ok := util.ParseTime(c.Fetch.From); !ok {
		return fmt.Errorf("fetch.from must be RFC3339 or unix seconds, got '%s'", c.Fetch.From)
	}
	if c.Fetch.Interval <= 0 {
		c.Fetch.Interval = 30 * time.Second
	}
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = 10 * time.Second
	}
	if c.Fetch.Workers <= 0 {
		c.Fetch.Workers = 4
	}
	if c.Fetch.SMAWindow <= 0 {
		c.Fetch.SMAWindow = 30
	}

	if c.Buffer.Capacity <= 0 {
		c.Buffer.Capacity = 50
	}
	if c.Buffer.QueryTimeout <= 0 {
		c.Buffer.QueryTimeout = 2 * time.Second
	}
	if c.Sink.Dir == "" {
		c.Sink.Dir = "."
	}

	if c.Server.Port == 0 {
		c.Server.Port = 4321
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.Provider.Interval == "" {
		c.Provider.Interval = "1d"
	}
	if c.Provider.Timeout <= 0 {
		c.Provider.Timeout = c.Fetch.Timeout
	}

	switch c.Backend.Type {
	case "":
		c.Backend.Type = "none"
	case "none", "kafka", "clickhouse":
	default:
		return fmt.Errorf("backend.type must be 'none', 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if c.Backend.Type == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers are required for the kafka backend")
	}
	if c.Backend.Type == "kafka" && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required for the kafka backend")
	}
	if c.Backend.Type == "clickhouse" && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required for the clickhouse backend")
	}
	if c.ClickHouse.Table == "" {
		c.ClickHouse.Table = "indicators"
	}
	if c.ClickHouse.Database == "" {
		c.ClickHouse.Database = "stockpulse"
	}

	switch c.Cache.Backend {
	case "":
		c.Cache.Backend = "memory"
	case "memory", "redis":
	default:
		return fmt.Errorf("cache.backend must be 'memory' or 'redis', got '%s'", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required for the redis cache")
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 5 * time.Minute
	}

	return nil
}
