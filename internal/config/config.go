// Package config provides configuration loading and validation for the scout.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jonathan/talent-scout/internal/fetch"
	"github.com/jonathan/talent-scout/internal/llm"
)

// EnvPrefix prefixes every environment override, e.g. SCOUT_SERVER_PORT.
const EnvPrefix = "SCOUT"

// Config is the full runtime configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Browser  BrowserConfig  `yaml:"browser" mapstructure:"browser"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Port                int    `yaml:"port" mapstructure:"port" validate:"min=1,max=65535"`
	ResultsDir          string `yaml:"results_dir" mapstructure:"results_dir" validate:"required"`
	StaticDir           string `yaml:"static_dir" mapstructure:"static_dir"`
	UploadRatePerMinute int    `yaml:"upload_rate_per_minute" mapstructure:"upload_rate_per_minute" validate:"min=0"`
}

// BrowserConfig controls the browser session.
type BrowserConfig struct {
	Headless   bool          `yaml:"headless" mapstructure:"headless"`
	ExecPath   string        `yaml:"exec_path" mapstructure:"exec_path"`
	UserAgent  string        `yaml:"user_agent" mapstructure:"user_agent" validate:"required"`
	Width      int           `yaml:"width" mapstructure:"width" validate:"min=1"`
	Height     int           `yaml:"height" mapstructure:"height" validate:"min=1"`
	NavTimeout time.Duration `yaml:"nav_timeout" mapstructure:"nav_timeout"`
}

// LLMConfig selects the ranking provider.
type LLMConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider" validate:"oneof=gemini anthropic openai"`
	Model    string `yaml:"model" mapstructure:"model"`
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
}

// PipelineConfig controls pacing and challenge handling.
type PipelineConfig struct {
	MinDelay          time.Duration `yaml:"min_delay" mapstructure:"min_delay"`
	MaxDelay          time.Duration `yaml:"max_delay" mapstructure:"max_delay"`
	ChallengeCooldown time.Duration `yaml:"challenge_cooldown" mapstructure:"challenge_cooldown"`
	ChallengeMarkers  []string      `yaml:"challenge_markers" mapstructure:"challenge_markers" validate:"min=1,dive,required"`
}

// DatabaseConfig enables the optional Postgres sink when URL is set.
type DatabaseConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// LogConfig configures the global zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json console"`
}

// apiKeyEnv lists the conventional key variables per provider.
var apiKeyEnv = map[string]string{
	string(llm.ProviderGemini):    "GEMINI_API_KEY",
	string(llm.ProviderAnthropic): "ANTHROPIC_API_KEY",
	string(llm.ProviderOpenAI):    "OPENAI_API_KEY",
}

// Load reads configuration from defaults, an optional YAML file and SCOUT_*
// environment variables, in increasing precedence. An empty path looks for
// config.yaml in the working directory and tolerates its absence.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv(apiKeyEnv[cfg.LLM.Provider])
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.results_dir", "results")
	v.SetDefault("server.static_dir", "public")
	v.SetDefault("server.upload_rate_per_minute", 6)
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.user_agent", fetch.DefaultUserAgent)
	v.SetDefault("browser.width", fetch.DefaultWidth)
	v.SetDefault("browser.height", fetch.DefaultHeight)
	v.SetDefault("browser.nav_timeout", fetch.DefaultNavTimeout)
	v.SetDefault("llm.provider", string(llm.ProviderGemini))
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("pipeline.min_delay", 2*time.Second)
	v.SetDefault("pipeline.max_delay", 4*time.Second)
	v.SetDefault("pipeline.challenge_cooldown", 2*time.Second)
	v.SetDefault("pipeline.challenge_markers", []string{"sorry/index"})
	v.SetDefault("database.url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate checks field constraints and the relationships between fields.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.Browser.NavTimeout <= 0 {
		return fmt.Errorf("config error: 'browser.nav_timeout' must be positive")
	}
	if c.Pipeline.MinDelay < 0 || c.Pipeline.ChallengeCooldown < 0 {
		return fmt.Errorf("config error: pipeline delays must be non-negative")
	}
	if c.Pipeline.MinDelay >= c.Pipeline.MaxDelay {
		return fmt.Errorf("config error: 'pipeline.min_delay' (%s) must be less than 'pipeline.max_delay' (%s)",
			c.Pipeline.MinDelay, c.Pipeline.MaxDelay)
	}
	return nil
}

// RequireAPIKey reports a missing provider key. Kept apart from Validate so
// commands that never rank can still start.
func (c *Config) RequireAPIKey() error {
	if c.LLM.APIKey != "" {
		return nil
	}
	env := apiKeyEnv[c.LLM.Provider]
	return fmt.Errorf("config error: no API key for provider %q (set %s_LLM_API_KEY or %s)", c.LLM.Provider, EnvPrefix, env)
}

// BrowserOptions maps the browser section onto session options.
func (c *Config) BrowserOptions() fetch.Options {
	return fetch.Options{
		Headless:   c.Browser.Headless,
		ExecPath:   c.Browser.ExecPath,
		UserAgent:  c.Browser.UserAgent,
		Width:      c.Browser.Width,
		Height:     c.Browser.Height,
		NavTimeout: c.Browser.NavTimeout,
	}
}

// LLMClientConfig resolves the provider defaults with any model and base URL overrides.
// The configured model replaces every tier's default.
func (c *Config) LLMClientConfig() (*llm.Config, error) {
	provider, err := llm.ParseProvider(c.LLM.Provider)
	if err != nil {
		return nil, err
	}
	cfg := llm.DefaultConfigFor(provider)
	if c.LLM.Model != "" {
		for _, tier := range []llm.ModelTier{llm.TierLite, llm.TierStandard, llm.TierAdvanced} {
			cfg = cfg.WithModel(tier, c.LLM.Model)
		}
	}
	if c.LLM.BaseURL != "" {
		cfg.BaseURL = c.LLM.BaseURL
	}
	return cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	return nil
}
