package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
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
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Topics       struct {
			Progress   string `yaml:"progress"`
			Exceptions string `yaml:"exceptions"`
		} `yaml:"topics"`
		Producer struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			BatchTimeout time.Duration `yaml:"batch_timeout"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Predictor struct {
		Backend    string        `yaml:"backend"` // native or remote
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout"`
		ModelDir   string        `yaml:"model_dir"`
	} `yaml:"predictor"`
	Tuning struct {
		Symbols           []string      `yaml:"symbols"`
		SymbolParallelism int           `yaml:"symbol_parallelism"`
		GridFile          string        `yaml:"grid_file"`
		SampleSize        int           `yaml:"sample_size"` // 0 means full cartesian sweep
		SampleSeed        int64         `yaml:"sample_seed"`
		LockTTL           time.Duration `yaml:"lock_ttl"`
		RunOnStart        bool          `yaml:"run_on_start"`
	} `yaml:"tuning"`
	Governor struct {
		CPUReserve        int           `yaml:"cpu_reserve"`
		GPU               bool          `yaml:"gpu"`
		HardCap           int           `yaml:"hard_cap"`
		GPUCap            int           `yaml:"gpu_cap"`
		MemoryBudgetBytes uint64        `yaml:"memory_budget_bytes"`
		MemoryFraction    float64       `yaml:"memory_fraction"`
		PollInterval      time.Duration `yaml:"poll_interval"`
	} `yaml:"governor"`
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

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Tuning.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("PREDICTOR_BACKEND"); v != "" {
		c.Predictor.Backend = v
	}
	if v := os.Getenv("PREDICTOR_SERVICE_URL"); v != "" {
		c.Predictor.ServiceURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Predictor.Backend == "" {
		return fmt.Errorf("predictor.backend is required")
	}
	if c.Predictor.Backend != "native" && c.Predictor.Backend != "remote" {
		return fmt.Errorf("predictor.backend must be 'native' or 'remote', got '%s'", c.Predictor.Backend)
	}
	if c.Predictor.Backend == "remote" && c.Predictor.ServiceURL == "" {
		return fmt.Errorf("predictor.service_url is required for the remote backend")
	}
	if c.Predictor.ModelDir == "" {
		return fmt.Errorf("predictor.model_dir is required")
	}
	if len(c.Tuning.Symbols) == 0 {
		return fmt.Errorf("tuning.symbols cannot be empty")
	}
	if c.Tuning.GridFile == "" {
		return fmt.Errorf("tuning.grid_file is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers are required when kafka is enabled")
	}
	return nil
}
