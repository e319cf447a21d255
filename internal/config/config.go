// Package config loads bookrec configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// Load reads configuration from the given file (or the default search
// paths when empty), applies defaults and BOOKREC_ environment overrides,
// and resolves ${ENV_VAR} references in credential fields.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	// Leaf-level defaults so file values merge key by key.
	defaults := DefaultConfig()
	v.SetDefault("snowflake.account", defaults.Snowflake.Account)
	v.SetDefault("snowflake.user", defaults.Snowflake.User)
	v.SetDefault("snowflake.password", defaults.Snowflake.Password)
	v.SetDefault("openai.api_key", defaults.OpenAI.APIKey)
	v.SetDefault("openai.model", defaults.OpenAI.Model)
	v.SetDefault("batch.window_days", defaults.Batch.WindowDays)
	v.SetDefault("batch.min_events", defaults.Batch.MinEvents)
	v.SetDefault("batch.book_limit", defaults.Batch.BookLimit)
	v.SetDefault("assistant.poll_interval", defaults.Assistant.PollInterval)
	v.SetDefault("assistant.run_timeout", defaults.Assistant.RunTimeout)
	v.SetDefault("assistant.max_retries", defaults.Assistant.MaxRetries)
	v.SetDefault("library.base_url", defaults.Library.BaseURL)
	v.SetDefault("tables.sessions", defaults.Tables.Sessions)
	v.SetDefault("tables.books", defaults.Tables.Books)
	v.SetDefault("tables.catalog", defaults.Tables.Catalog)

	v.SetEnvPrefix("BOOKREC")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.bookrec")
	}

	// Config file is optional; env and defaults are enough to run.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Snowflake.Account = ResolveEnvVars(cfg.Snowflake.Account)
	cfg.Snowflake.User = ResolveEnvVars(cfg.Snowflake.User)
	cfg.Snowflake.Password = ResolveEnvVars(cfg.Snowflake.Password)
	cfg.OpenAI.APIKey = ResolveEnvVars(cfg.OpenAI.APIKey)

	return &cfg, nil
}

// Validate checks that the fields with no usable zero value are set.
func (c *Config) Validate() error {
	if c.Snowflake.Account == "" || c.Snowflake.User == "" {
		return errors.New("snowflake account and user are required")
	}
	if c.OpenAI.APIKey == "" {
		return errors.New("openai api_key is required")
	}
	if c.OpenAI.Model == "" {
		return errors.New("openai model is required")
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# bookrec configuration
# Credential fields use ${ENV_VAR} syntax to reference environment variables
# Set these in your shell: export SNOWFLAKE_ACCOUNT=xxx SNOWFLAKE_USER=xxx SNOWFLAKE_PASSWORD=xxx OPENAI_API_KEY=xxx

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
