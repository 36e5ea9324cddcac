package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Asset describes one tradable instrument of the universe.
type Asset struct {
	Ticker    string `yaml:"ticker" validate:"required"`
	Name      string `yaml:"name"`
	Sector    string `yaml:"sector" default:"Diversified"`
	Region    string `yaml:"region" default:"US"`
	AssetType string `yaml:"asset_type" default:"stock" validate:"oneof=stock etf"`
	Exchange  string `yaml:"exchange"`
}

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Logging     struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`
	Server struct {
		Enabled         bool          `yaml:"enabled"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Engine struct {
		Workers         int     `yaml:"workers" default:"8" validate:"gte=1"`
		MinHistory      int     `yaml:"min_history" default:"50" validate:"gte=2"`
		MinTrainingBars int     `yaml:"min_training_bars" default:"300"`
		WatchlistSize   int     `yaml:"watchlist_size" default:"12" validate:"gte=1"`
		TrainSplit      float64 `yaml:"train_split" default:"0.8" validate:"gt=0,lt=1"`
		SplitPerAsset   bool    `yaml:"split_per_asset"`
	} `yaml:"engine"`
	Horizons struct {
		ShortDays  int `yaml:"short_days" default:"22" validate:"gte=1"`
		MediumDays int `yaml:"medium_days" default:"252" validate:"gte=1"`
		LongDays   int `yaml:"long_days" default:"756" validate:"gte=1"`
	} `yaml:"horizons"`
	Paths struct {
		DataDir     string `yaml:"data_dir" default:"data"`
		PricesDir   string `yaml:"prices_dir" default:"data/prices"`
		FeaturesDir string `yaml:"features_dir" default:"data/features"`
		ModelsDir   string `yaml:"models_dir" default:"models"`
	} `yaml:"paths"`
	Fetch struct {
		Enabled    bool          `yaml:"enabled"`
		BaseURL    string        `yaml:"base_url"`
		Period     string        `yaml:"period" default:"5y"`
		Timeout    time.Duration `yaml:"timeout" default:"15s"`
		RatePerSec float64       `yaml:"rate_per_sec" default:"4"`
		Burst      float64       `yaml:"burst" default:"8"`
	} `yaml:"fetch"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"botbourse.watchlist"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"1s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"botbourse"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		UseHTTP      bool          `yaml:"use_http"`
		AsyncInsert  bool          `yaml:"async_insert"`
		WaitForAsync bool          `yaml:"wait_for_async_insert"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"clickhouse"`
	Cache struct {
		Backend string        `yaml:"backend" default:"memory" validate:"oneof=memory redis layered"`
		TTL     time.Duration `yaml:"ttl" default:"30s"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Universe []Asset `yaml:"universe" validate:"required,min=1,dive"`
}

var validate = validator.New()

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

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides secrets/endpoints with
// environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("BOTBOURSE_FETCH_BASE_URL"); v != "" {
		c.Fetch.BaseURL = v
	}
	if v := os.Getenv("BOTBOURSE_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("BOTBOURSE_CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("BOTBOURSE_REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}

	return c, nil
}

// Validate checks structural and cross-field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Fetch.Enabled && c.Fetch.BaseURL == "" {
		return fmt.Errorf("fetch.base_url is required when fetch is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers are required when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	if (c.Cache.Backend == "redis" || c.Cache.Backend == "layered") && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required for backend %q", c.Cache.Backend)
	}
	seen := make(map[string]struct{}, len(c.Universe))
	for _, a := range c.Universe {
		if _, dup := seen[a.Ticker]; dup {
			return fmt.Errorf("duplicate ticker %q in universe", a.Ticker)
		}
		seen[a.Ticker] = struct{}{}
	}
	return nil
}

// HorizonDays maps a horizon name to its configured trading-day count.
func (c *Config) HorizonDays(horizon string) int {
	switch horizon {
	case "short":
		return c.Horizons.ShortDays
	case "medium":
		return c.Horizons.MediumDays
	case "long":
		return c.Horizons.LongDays
	default:
		return 0
	}
}
