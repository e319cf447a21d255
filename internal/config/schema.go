package config

import "time"

// Config holds bookrec configuration.
// Loaded from ./config.yaml or ~/.bookrec/config.yaml, with BOOKREC_ env overrides.
type Config struct {
	Snowflake SnowflakeCfg `mapstructure:"snowflake" yaml:"snowflake"`
	OpenAI    OpenAICfg    `mapstructure:"openai" yaml:"openai"`
	Batch     BatchCfg     `mapstructure:"batch" yaml:"batch"`
	Assistant AssistantCfg `mapstructure:"assistant" yaml:"assistant"`
	Library   LibraryCfg   `mapstructure:"library" yaml:"library"`
	Tables    TablesCfg    `mapstructure:"tables" yaml:"tables"`
}

// SnowflakeCfg configures the warehouse connection.
// Credential fields support ${ENV_VAR} syntax.
type SnowflakeCfg struct {
	Account   string `mapstructure:"account" yaml:"account"`
	User      string `mapstructure:"user" yaml:"user"`
	Password  string `mapstructure:"password" yaml:"password"`
	Database  string `mapstructure:"database" yaml:"database"`
	Schema    string `mapstructure:"schema" yaml:"schema"`
	Warehouse string `mapstructure:"warehouse" yaml:"warehouse"`
	Role      string `mapstructure:"role" yaml:"role"`
}

// OpenAICfg configures the assistant service.
type OpenAICfg struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	Model  string `mapstructure:"model" yaml:"model"`     // model backing the assistant
}

// BatchCfg controls which users and books the job considers.
type BatchCfg struct {
	WindowDays int `mapstructure:"window_days" yaml:"window_days"` // activity lookback window
	MinEvents  int `mapstructure:"min_events" yaml:"min_events"`   // minimum sessions to qualify
	BookLimit  int `mapstructure:"book_limit" yaml:"book_limit"`   // recent books per user
}

// AssistantCfg controls run polling behavior.
type AssistantCfg struct {
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	RunTimeout   time.Duration `mapstructure:"run_timeout" yaml:"run_timeout"`
	MaxRetries   int           `mapstructure:"max_retries" yaml:"max_retries"` // SDK transport retries
}

// LibraryCfg configures the reader-facing library links printed per recommendation.
type LibraryCfg struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// TablesCfg names the warehouse tables/views the job reads.
// Overridable so tests can point queries at a local database.
type TablesCfg struct {
	Sessions string `mapstructure:"sessions" yaml:"sessions"` // reading session events
	Books    string `mapstructure:"books" yaml:"books"`       // book metadata list
	Catalog  string `mapstructure:"catalog" yaml:"catalog"`   // published-book catalog view
}

// DefaultConfig returns configuration with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Snowflake: SnowflakeCfg{
			Account:  "${SNOWFLAKE_ACCOUNT}",
			User:     "${SNOWFLAKE_USER}",
			Password: "${SNOWFLAKE_PASSWORD}",
		},
		OpenAI: OpenAICfg{
			APIKey: "${OPENAI_API_KEY}",
			Model:  "gpt-4o-mini",
		},
		Batch: BatchCfg{
			WindowDays: 14,
			MinEvents:  5,
			BookLimit:  5,
		},
		Assistant: AssistantCfg{
			PollInterval: 2 * time.Second,
			RunTimeout:   10 * time.Minute,
			MaxRetries:   3,
		},
		Library: LibraryCfg{
			BaseURL: "https://app.pickatale.com/library",
		},
		Tables: TablesCfg{
			Sessions: "FIVETRAN_DATABASE.AWS_GLUE_METRICS_PROD.STUDENTS_READING_SESSIONS",
			Books:    "FIVETRAN_DATABASE.AWS_GLUE_METRICS_PROD.BOOKS_LIST",
			Catalog:  "FIVETRAN_DATABASE.PICKATALE_STUDIO_PROD_PUBLIC.PUBLISHED_CATALOG",
		},
	}
}
