package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Dashboard DashboardConfig `yaml:"dashboard" envconfig:"DASHBOARD"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// NegativePolicy values for DashboardConfig.NegativePolicy.
const (
	NegativeExclude = "exclude"
	NegativeClamp   = "clamp"
)

// DashboardConfig contains the data-processing and chart knobs: source
// sheet layout, categorical age-band ordering, cleaning bounds and chart
// geometry/palette. These were a mutable global in the original dashboard;
// here they are explicit and handed to the processor and chart builder at
// construction time.
type DashboardConfig struct {
	SheetName      string   `yaml:"sheet_name" envconfig:"SHEET_NAME" default:"Visualización 1"`
	SkipRows       int      `yaml:"skip_rows" envconfig:"SKIP_ROWS" default:"2"`
	AgeBandOrder   []string `yaml:"age_band_order" envconfig:"AGE_BAND_ORDER" default:"16-25,26-35,36-45,46-55,56-65"`
	MinEpisodes    int      `yaml:"min_episodes" envconfig:"MIN_EPISODES" default:"1"`
	MaxEpisodes    int      `yaml:"max_episodes" envconfig:"MAX_EPISODES" default:"1000"`
	NegativePolicy string   `yaml:"negative_policy" envconfig:"NEGATIVE_POLICY" default:"exclude"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"52428800"`

	// GradientStops are the low→high hex colors of the percentile
	// gradient. Three stops give the green-yellow-red ramp the dashboard
	// ships with; any count >= 2 works.
	GradientStops    []string `yaml:"gradient_stops" envconfig:"GRADIENT_STOPS" default:"#1A9850,#FFFFBF,#D73027"`
	NoVariationColor string   `yaml:"no_variation_color" envconfig:"NO_VARIATION_COLOR" default:"#D3D3D3"`
	StandardColor    string   `yaml:"standard_color" envconfig:"STANDARD_COLOR" default:"#000000"`
	OptimalColor     string   `yaml:"optimal_color" envconfig:"OPTIMAL_COLOR" default:"#0000FF"`
	ShadingColor     string   `yaml:"shading_color" envconfig:"SHADING_COLOR" default:"#D3D3D3"`

	MinBarHeight float64 `yaml:"min_bar_height" envconfig:"MIN_BAR_HEIGHT" default:"0.2"`
	MaxBarHeight float64 `yaml:"max_bar_height" envconfig:"MAX_BAR_HEIGHT" default:"0.6"`
	LeftMargin   float64 `yaml:"left_margin" envconfig:"LEFT_MARGIN" default:"40"`
	RightMargin  float64 `yaml:"right_margin" envconfig:"RIGHT_MARGIN" default:"40"`
}

// Load loads configuration from environment variables and an optional
// config file. Environment variables take precedence over file values.
func Load() (*Config, error) {
	return LoadFromFile(configFilePath())
}

// LoadFromFile loads configuration, merging the given YAML file (if it
// exists) under the environment.
func LoadFromFile(configFile string) (*Config, error) {
	var cfg Config

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			fileCfg, err := loadFromFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
			cfg = *fileCfg
		}
	}

	// envconfig fills every unset field from struct defaults and
	// overrides from the environment.
	if err := envconfig.Process("BAJA", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// configFilePath returns the config file location, overridable via
// BAJA_CONFIG_FILE.
func configFilePath() string {
	if path := os.Getenv("BAJA_CONFIG_FILE"); path != "" {
		return path
	}
	return "config.yaml"
}

// Validate checks the configuration for values the rest of the application
// cannot work with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	return c.Dashboard.Validate()
}

// Validate checks the dashboard knobs.
func (c *DashboardConfig) Validate() error {
	if c.SheetName == "" {
		return fmt.Errorf("dashboard sheet name must not be empty")
	}
	if c.SkipRows < 0 {
		return fmt.Errorf("dashboard skip rows must not be negative: %d", c.SkipRows)
	}
	if len(c.AgeBandOrder) == 0 {
		return fmt.Errorf("dashboard age band order must not be empty")
	}
	if c.MinEpisodes < 0 || c.MaxEpisodes < c.MinEpisodes {
		return fmt.Errorf("invalid episode bounds: [%d, %d]", c.MinEpisodes, c.MaxEpisodes)
	}
	if c.NegativePolicy != NegativeExclude && c.NegativePolicy != NegativeClamp {
		return fmt.Errorf("unknown negative policy: %q", c.NegativePolicy)
	}
	if len(c.GradientStops) < 2 {
		return fmt.Errorf("gradient needs at least two stops, got %d", len(c.GradientStops))
	}
	if c.MinBarHeight <= 0 || c.MaxBarHeight < c.MinBarHeight {
		return fmt.Errorf("invalid bar height range: [%g, %g]", c.MinBarHeight, c.MaxBarHeight)
	}
	return nil
}

// AgeBandRank returns the categorical position of an age band. Bands
// outside the fixed set share the rank after the last configured band so
// they sort last.
func (c *DashboardConfig) AgeBandRank(band string) int {
	for i, b := range c.AgeBandOrder {
		if b == band {
			return i
		}
	}
	return len(c.AgeBandOrder)
}
