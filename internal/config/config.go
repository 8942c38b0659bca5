// Package config loads application configuration: .env first, then
// config/config.yaml, then defaults for every key. String values may embed
// ${VAR} placeholders which are substituted from the environment after
// unmarshaling.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Gemini      Gemini      `mapstructure:"gemini"`
	LinkedIn    LinkedIn    `mapstructure:"linkedin"`
	Safety      Safety      `mapstructure:"safety"`
	Aggregation Aggregation `mapstructure:"aggregation"`
	Validation  Validation  `mapstructure:"validation"`
	Paths       Paths       `mapstructure:"paths"`
	Server      Server      `mapstructure:"server"`
	Logging     Logging     `mapstructure:"logging"`
}

// Gemini holds LLM provider configuration.
type Gemini struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	FastModel string `mapstructure:"fast_model"`
}

// LinkedIn identifies the account acted on. Only the email is consumed here
// (the settings view masks it); automation credentials belong to whatever
// publisher implementation is wired in.
type LinkedIn struct {
	Email string `mapstructure:"email"`
}

// Safety holds the action rate limits and the error-rate circuit breaker.
type Safety struct {
	HourlyActionLimit  int     `mapstructure:"hourly_action_limit"`
	DailyActionLimit   int     `mapstructure:"daily_action_limit"`
	WeeklyActionLimit  int     `mapstructure:"weekly_action_limit"`
	ErrorRateThreshold float64 `mapstructure:"error_rate_threshold"`
	ErrorWindowSeconds int     `mapstructure:"error_window_seconds"`
	CooldownMinutes    int     `mapstructure:"cooldown_minutes"`
}

// Aggregation holds feed fetching and filtering configuration.
type Aggregation struct {
	FetchTimeoutSeconds int     `mapstructure:"fetch_timeout"`
	MaxItemsPerFeed     int     `mapstructure:"max_items_per_feed"`
	CacheTTLMinutes     int     `mapstructure:"cache_ttl_minutes"`
	MinRelevanceScore   float64 `mapstructure:"min_relevance_score"`
	DefaultPriorities   []int   `mapstructure:"default_priorities"`
	AutoSaveThreshold   float64 `mapstructure:"auto_save_threshold"`
	MaxAgeMonths        int     `mapstructure:"max_age_months"`
}

// Validation holds content length bounds.
type Validation struct {
	MinPostLength    int `mapstructure:"min_post_length"`
	MaxPostLength    int `mapstructure:"max_post_length"`
	MinCommentLength int `mapstructure:"min_comment_length"`
	MaxCommentLength int `mapstructure:"max_comment_length"`
}

// Paths holds filesystem locations for persistent state.
type Paths struct {
	Database string `mapstructure:"database"`
	Model    string `mapstructure:"model"`
}

// Server holds the HTTP facade configuration. APIToken, when set, requires
// bearer-token auth on /api/* routes.
type Server struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	APIToken string `mapstructure:"api_token"`
}

// Logging holds logger configuration.
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Addr returns the host:port the facade listens on.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

var globalConfig *Config

// Load reads configuration from .env, the given config file (default
// config/config.yaml), and built-in defaults, in that order of precedence.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath("config")
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	resolveEnvPlaceholders(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary.
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

func setDefaults() {
	viper.SetDefault("gemini.model", "gemini-flash-lite-latest")
	viper.SetDefault("gemini.fast_model", "gemini-flash-lite-latest")

	viper.SetDefault("safety.hourly_action_limit", 8)
	viper.SetDefault("safety.daily_action_limit", 30)
	viper.SetDefault("safety.weekly_action_limit", 150)
	viper.SetDefault("safety.error_rate_threshold", 0.3)
	viper.SetDefault("safety.error_window_seconds", 3600)
	viper.SetDefault("safety.cooldown_minutes", 30)

	viper.SetDefault("aggregation.fetch_timeout", 15)
	viper.SetDefault("aggregation.max_items_per_feed", 20)
	viper.SetDefault("aggregation.cache_ttl_minutes", 30)
	viper.SetDefault("aggregation.min_relevance_score", 10.0)
	viper.SetDefault("aggregation.default_priorities", []int{1, 2})
	viper.SetDefault("aggregation.auto_save_threshold", 35.0)
	viper.SetDefault("aggregation.max_age_months", 3)

	viper.SetDefault("validation.min_post_length", 100)
	viper.SetDefault("validation.max_post_length", 3000)
	viper.SetDefault("validation.min_comment_length", 20)
	viper.SetDefault("validation.max_comment_length", 500)

	viper.SetDefault("paths.database", "data/openlinkedin.db")
	viper.SetDefault("paths.model", "data/reranker_model.gob")

	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8787)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
}

// bindEnvironmentVariables maps well-known environment variables onto viper
// keys so a bare .env is enough to run without a config file.
func bindEnvironmentVariables() {
	bindEnvKeys("gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})
	bindEnvKeys("linkedin.email", []string{
		"LINKEDIN_EMAIL",
	})
	bindEnvKeys("server.api_token", []string{
		"OPENLINKEDIN_API_TOKEN",
	})
	bindEnvKeys("logging.level", []string{
		"LOG_LEVEL",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key.
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

var envVarPattern = regexp.MustCompile(`\$\{(\w+)\}`)

// resolveEnv replaces ${VAR} placeholders with environment variable values.
// Unknown variables become the empty string.
func resolveEnv(value string) string {
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		name := match[2 : len(match)-1]
		return os.Getenv(name)
	})
}

func resolveEnvPlaceholders(c *Config) {
	c.Gemini.APIKey = resolveEnv(c.Gemini.APIKey)
	c.LinkedIn.Email = resolveEnv(c.LinkedIn.Email)
	c.Paths.Database = resolveEnv(c.Paths.Database)
	c.Paths.Model = resolveEnv(c.Paths.Model)
	c.Server.Host = resolveEnv(c.Server.Host)
	c.Server.APIToken = resolveEnv(c.Server.APIToken)
}

// Validate fails fast on values that would make the safety monitor or the
// aggregator misbehave.
func (c *Config) Validate() error {
	var errs []string

	if c.Safety.HourlyActionLimit <= 0 {
		errs = append(errs, "safety.hourly_action_limit must be positive")
	}
	if c.Safety.DailyActionLimit <= 0 {
		errs = append(errs, "safety.daily_action_limit must be positive")
	}
	if c.Safety.WeeklyActionLimit <= 0 {
		errs = append(errs, "safety.weekly_action_limit must be positive")
	}
	if c.Safety.ErrorRateThreshold < 0 || c.Safety.ErrorRateThreshold > 1 {
		errs = append(errs, "safety.error_rate_threshold must be within [0, 1]")
	}
	if c.Safety.ErrorWindowSeconds <= 0 {
		errs = append(errs, "safety.error_window_seconds must be positive")
	}
	if c.Safety.CooldownMinutes < 0 {
		errs = append(errs, "safety.cooldown_minutes must not be negative")
	}

	if c.Aggregation.FetchTimeoutSeconds <= 0 {
		errs = append(errs, "aggregation.fetch_timeout must be positive")
	}
	if c.Aggregation.MaxItemsPerFeed <= 0 {
		errs = append(errs, "aggregation.max_items_per_feed must be positive")
	}

	if c.Validation.MinPostLength <= 0 || c.Validation.MaxPostLength < c.Validation.MinPostLength {
		errs = append(errs, "validation post length bounds are inverted")
	}
	if c.Validation.MinCommentLength <= 0 || c.Validation.MaxCommentLength < c.Validation.MinCommentLength {
		errs = append(errs, "validation comment length bounds are inverted")
	}

	if c.Paths.Database == "" {
		errs = append(errs, "paths.database must be set")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be a valid port")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// Reset clears the global configuration (useful for testing).
func Reset() {
	globalConfig = nil
	viper.Reset()
}
