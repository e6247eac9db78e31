package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string           `yaml:"env" env:"ENV" env-default:"prod"`
	Instrument InstrumentConfig `yaml:"instrument"`
	Simulation SimulationConfig `yaml:"simulation"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	HTTP       HTTPConfig       `yaml:"http"`
	Log        LogConfig        `yaml:"log"`
}

type InstrumentConfig struct {
	Mission   string `yaml:"mission" env-default:"ADITYA-L1"`
	Payload   string `yaml:"payload" env-default:"ASPEX-STEPS"`
	Mode      string `yaml:"mode" env-default:"Fine-Res Survey"`
	Direction string `yaml:"direction" env-default:"Sun-Pointing (L1)"`
	BiasLevel string `yaml:"bias_level" env-default:"Nominal"`
	Formats   string `yaml:"formats" env-default:"FITS / NetCDF4"`
}

type SimulationConfig struct {
	TickInterval   time.Duration `yaml:"tick_interval" env:"TICK_INTERVAL" env-default:"1s"`
	BufferCapacity int           `yaml:"buffer_capacity" env-default:"60"`
	// Seed fixes the random source; zero means seeded from the clock.
	Seed int64 `yaml:"seed" env:"SIMULATION_SEED" env-default:"0"`
}

type AnalysisConfig struct {
	Enabled  bool          `yaml:"enabled" env-default:"true"`
	Interval time.Duration `yaml:"interval" env:"ANALYSIS_INTERVAL" env-default:"15s"`
	Window   int           `yaml:"window" env-default:"20"`
}

type GeminiConfig struct {
	APIKey  string        `yaml:"api_key" env:"API_KEY"`
	BaseURL string        `yaml:"base_url" env-default:"https://generativelanguage.googleapis.com"`
	Model   string        `yaml:"model" env:"GEMINI_MODEL" env-default:"gemini-3-flash-preview"`
	Timeout time.Duration `yaml:"timeout" env-default:"30s"`
	Retry   RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" env-default:"1"`
	InitialDelay time.Duration `yaml:"initial_delay" env-default:"1s"`
	MaxDelay     time.Duration `yaml:"max_delay" env-default:"5s"`
}

type HTTPConfig struct {
	Address      string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env-default:"5s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"10s"`
	Stream       StreamConfig  `yaml:"stream"`
}

type StreamConfig struct {
	// OriginPatterns lists extra hosts allowed to open the stream, matched
	// with path.Match against the Origin host. Empty means same-origin only.
	OriginPatterns []string `yaml:"origin_patterns" env:"STREAM_ORIGIN_PATTERNS" env-separator:","`
}

type LogConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format     string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
	File       string `yaml:"file" env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env-default:"50"`
	MaxBackups int    `yaml:"max_backups" env-default:"3"`
	MaxAgeDays int    `yaml:"max_age_days" env-default:"7"`
}

// MustLoad reads the config file named by configPath or CONFIG_PATH. Without
// either, defaults and environment variables are used.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	var cfg Config
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from env: %w", err)
		}
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Simulation.TickInterval <= 0 {
		errs = append(errs, errors.New("simulation.tick_interval must be positive"))
	}
	if c.Simulation.BufferCapacity <= 0 {
		errs = append(errs, errors.New("simulation.buffer_capacity must be positive"))
	}
	if c.Analysis.Enabled {
		if c.Analysis.Interval <= 0 {
			errs = append(errs, errors.New("analysis.interval must be positive"))
		}
		if c.Analysis.Window <= 0 {
			errs = append(errs, errors.New("analysis.window must be positive"))
		}
	}
	if c.Gemini.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("gemini.retry.max_attempts must be at least 1"))
	}
	if c.Gemini.Timeout <= 0 {
		errs = append(errs, errors.New("gemini.timeout must be positive"))
	}
	if c.Gemini.Retry.InitialDelay < 0 || c.Gemini.Retry.MaxDelay < c.Gemini.Retry.InitialDelay {
		errs = append(errs, errors.New("gemini.retry delays must satisfy 0 <= initial_delay <= max_delay"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
