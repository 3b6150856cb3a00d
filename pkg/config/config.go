package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"FinCast/internal/domain/models"
)

type HorizonConfig struct {
	ID            int `yaml:"id"`
	Start         int `yaml:"start"`
	End           int `yaml:"end"`
	WindowMinutes int `yaml:"window_minutes"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		LogTopic     string   `yaml:"log_topic"` // aggregated error logs; empty disables
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Predictor struct {
		Symbols            []string        `yaml:"symbols"`
		PollInterval       time.Duration   `yaml:"poll_interval"`
		CleanupEveryCycles int             `yaml:"cleanup_every_cycles"`
		ForecastRetention  time.Duration   `yaml:"forecast_retention"`
		ModelDir           string          `yaml:"model_dir"`
		ResampleScales     []int           `yaml:"resample_scales"`
		Horizons           []HorizonConfig `yaml:"horizons"`
		Neural             struct {
			HiddenUnits  int     `yaml:"hidden_units"`
			Epochs       int     `yaml:"epochs"`
			LearningRate float64 `yaml:"learning_rate"`
			BatchSize    int     `yaml:"batch_size"`
		} `yaml:"neural"`
	} `yaml:"predictor"`
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
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Predictor.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("MODEL_DIR"); v != "" {
		c.Predictor.ModelDir = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Predictor.PollInterval <= 0 {
		c.Predictor.PollInterval = time.Minute
	}
	if c.Predictor.CleanupEveryCycles <= 0 {
		c.Predictor.CleanupEveryCycles = 10
	}
	if c.Predictor.ModelDir == "" {
		c.Predictor.ModelDir = "./models"
	}
	if len(c.Predictor.Horizons) == 0 {
		for _, h := range models.DefaultPartition() {
			c.Predictor.Horizons = append(c.Predictor.Horizons, HorizonConfig{
				ID: h.ID, Start: h.Start, End: h.End, WindowMinutes: h.WindowMinutes,
			})
		}
	}
	// Resample at every horizon length so each model sees aggregates at the
	// granularity it predicts.
	if len(c.Predictor.ResampleScales) == 0 {
		for _, h := range c.Predictor.Horizons {
			c.Predictor.ResampleScales = append(c.Predictor.ResampleScales, h.End)
		}
	}
}

// Horizons converts the configured partition to domain horizons.
func (c *Config) Horizons() []models.Horizon {
	out := make([]models.Horizon, 0, len(c.Predictor.Horizons))
	for _, h := range c.Predictor.Horizons {
		out = append(out, models.Horizon{
			ID: h.ID, Start: h.Start, End: h.End, WindowMinutes: h.WindowMinutes,
		})
	}
	return out
}

// Validate checks if the configuration is valid. A broken horizon partition
// is fatal: predictions against a partial hour grid would be silently wrong.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when kafka is enabled")
	}
	if c.Kafka.Enabled && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic required when kafka is enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr required when redis is enabled")
	}
	if err := models.ValidatePartition(c.Horizons()); err != nil {
		return fmt.Errorf("predictor.horizons: %w", err)
	}
	return nil
}
