// File: internal/config/config.go
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config is the root configuration for a lancet run. It is assembled from
// defaults, an optional lancet.yaml file and the process environment.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Timeouts  TimeoutConfig   `mapstructure:"timeouts" yaml:"timeouts"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts" yaml:"artifacts"`
	Run       RunConfig       `mapstructure:"run" yaml:"run"`
	API       APIConfig       `mapstructure:"api" yaml:"api"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color settings for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig controls how the browser process is launched.
type BrowserConfig struct {
	// Name is chromium, firefox, webkit or safari (an alias for webkit).
	Name     string   `mapstructure:"name" yaml:"name"`
	Headed   bool     `mapstructure:"headed" yaml:"headed"`
	SlowMoMs int      `mapstructure:"slow_mo_ms" yaml:"slow_mo_ms"`
	Args     []string `mapstructure:"args" yaml:"args"`
	// Install downloads the driver and browser binaries before launch.
	Install bool `mapstructure:"install" yaml:"install"`
}

// TimeoutConfig holds driver timeouts in milliseconds. Plain integers are
// used so that bare numeric environment values (TIMEOUT=30000) bind cleanly.
type TimeoutConfig struct {
	DefaultMs    int `mapstructure:"default_ms" yaml:"default_ms"`
	NavigationMs int `mapstructure:"navigation_ms" yaml:"navigation_ms"`
	StepMs       int `mapstructure:"step_ms" yaml:"step_ms"`
}

// ArtifactsConfig determines where failure evidence is written.
type ArtifactsConfig struct {
	ResultsDir     string `mapstructure:"results_dir" yaml:"results_dir"`
	ScreenshotDir  string `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
	VideoDir       string `mapstructure:"video_dir" yaml:"video_dir"`
	VideoOnFailure bool   `mapstructure:"video_on_failure" yaml:"video_on_failure"`
	RecordHAR      bool   `mapstructure:"record_har" yaml:"record_har"`
}

// RunConfig describes which scenarios run and how.
type RunConfig struct {
	Environment string   `mapstructure:"environment" yaml:"environment"`
	Site        string   `mapstructure:"site" yaml:"site"`
	Paths       []string `mapstructure:"paths" yaml:"paths"`
	Tags        string   `mapstructure:"tags" yaml:"tags"`
	Concurrency int      `mapstructure:"concurrency" yaml:"concurrency"`
	FailFast    bool     `mapstructure:"fail_fast" yaml:"fail_fast"`
	Format      string   `mapstructure:"format" yaml:"format"`
	Strict      bool     `mapstructure:"strict" yaml:"strict"`
	Randomize   int64    `mapstructure:"randomize" yaml:"randomize"`
	// FixturesDir holds JSON request bodies referenced by feature files.
	FixturesDir string `mapstructure:"fixtures_dir" yaml:"fixtures_dir"`
}

// APIConfig configures the API helper used by scenarios.
type APIConfig struct {
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
	TimeoutMs int    `mapstructure:"timeout_ms" yaml:"timeout_ms"`
	// RatePerSecond throttles API helper requests. Zero disables throttling.
	RatePerSecond float64 `mapstructure:"rate_per_second" yaml:"rate_per_second"`
}

// envBindings maps configuration keys to the environment variables the
// suite has always honored.
var envBindings = map[string]string{
	"run.environment":            "ENV",
	"run.site":                   "SITE",
	"run.tags":                   "TAGS",
	"run.concurrency":            "PARALLEL",
	"run.fail_fast":              "FAIL_FAST",
	"browser.name":               "BROWSER",
	"browser.headed":             "HEADED",
	"browser.slow_mo_ms":         "SLOW_MO",
	"timeouts.default_ms":        "TIMEOUT",
	"timeouts.navigation_ms":     "NAVIGATION_TIMEOUT",
	"artifacts.video_on_failure": "VIDEO_ON_FAILURE",
	"artifacts.results_dir":      "RESULTS_DIR",
	"run.fixtures_dir":           "FIXTURES_DIR",
	"api.base_url":               "API_BASE_URL",
	"api.timeout_ms":             "API_TIMEOUT",
	"logger.level":               "LOG_LEVEL",
}

// SetDefaults registers every default value with the provided viper instance.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "lancet")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.name", "chromium")
	v.SetDefault("browser.headed", false)
	v.SetDefault("browser.slow_mo_ms", 0)
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.install", false)

	// -- Timeouts --
	v.SetDefault("timeouts.default_ms", int(Timeouts.VeryLong.Milliseconds()))
	v.SetDefault("timeouts.navigation_ms", int(Timeouts.Navigation.Milliseconds()))
	v.SetDefault("timeouts.step_ms", int(Timeouts.Global.Milliseconds()))

	// -- Artifacts --
	v.SetDefault("artifacts.results_dir", "test-results")
	v.SetDefault("artifacts.screenshot_dir", "")
	v.SetDefault("artifacts.video_dir", "")
	v.SetDefault("artifacts.video_on_failure", false)
	v.SetDefault("artifacts.record_har", true)

	// -- Run --
	v.SetDefault("run.environment", DefaultEnvironment)
	v.SetDefault("run.site", DefaultSite)
	v.SetDefault("run.paths", []string{})
	v.SetDefault("run.tags", "")
	v.SetDefault("run.concurrency", 1)
	v.SetDefault("run.fail_fast", false)
	v.SetDefault("run.format", "pretty")
	v.SetDefault("run.strict", true)
	v.SetDefault("run.randomize", 0)
	v.SetDefault("run.fixtures_dir", "fixtures")

	// -- API --
	v.SetDefault("api.base_url", "https://api.example.com")
	v.SetDefault("api.timeout_ms", 10000)
	v.SetDefault("api.rate_per_second", 0)
}

// NewConfigFromViper binds the environment, unmarshals, derives dependent
// paths and validates the result.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s to %s: %w", key, env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.derivePaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// derivePaths expands a leading ~ in the results directory and fills in the
// screenshot and video directories beneath it when they were not set.
func (c *Config) derivePaths() error {
	dir, err := homedir.Expand(c.Artifacts.ResultsDir)
	if err != nil {
		return fmt.Errorf("failed to expand results directory %q: %w", c.Artifacts.ResultsDir, err)
	}
	c.Artifacts.ResultsDir = dir

	if c.Run.FixturesDir, err = homedir.Expand(c.Run.FixturesDir); err != nil {
		return fmt.Errorf("failed to expand fixtures directory %q: %w", c.Run.FixturesDir, err)
	}

	if c.Artifacts.ScreenshotDir == "" {
		c.Artifacts.ScreenshotDir = filepath.Join(dir, "screenshots")
	}
	if c.Artifacts.VideoDir == "" {
		c.Artifacts.VideoDir = filepath.Join(dir, "videos")
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Run.Concurrency <= 0 {
		return fmt.Errorf("run.concurrency must be a positive integer")
	}
	if c.Timeouts.DefaultMs <= 0 {
		return fmt.Errorf("timeouts.default_ms must be a positive integer")
	}
	if c.Timeouts.NavigationMs <= 0 {
		return fmt.Errorf("timeouts.navigation_ms must be a positive integer")
	}
	if c.Browser.SlowMoMs < 0 {
		return fmt.Errorf("browser.slow_mo_ms cannot be negative")
	}
	if c.API.TimeoutMs <= 0 {
		return fmt.Errorf("api.timeout_ms must be a positive integer")
	}
	if c.API.RatePerSecond < 0 {
		return fmt.Errorf("api.rate_per_second cannot be negative")
	}
	if strings.TrimSpace(c.Artifacts.ResultsDir) == "" {
		return fmt.Errorf("artifacts.results_dir is required")
	}
	// godog accepts "name" or "name:output-path".
	formatter := strings.SplitN(c.Run.Format, ":", 2)[0]
	switch strings.ToLower(formatter) {
	case "pretty", "progress", "cucumber", "junit", "events":
	default:
		return fmt.Errorf("run.format %q is not a known formatter", c.Run.Format)
	}
	return nil
}

// Headless reports whether the browser should run without a window.
func (b BrowserConfig) Headless() bool { return !b.Headed }
