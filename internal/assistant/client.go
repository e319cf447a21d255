// Package assistant provisions the hosted recommendation assistant and
// drives its runs. The assistant binds one retrieval index built from the
// exported catalog and one recommend_books function tool; both live for a
// single job and are torn down best-effort on every exit path.
package assistant

import (
	"log/slog"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Config holds settings for the assistant service client.
type Config struct {
	APIKey       string
	Model        string        // model backing the assistant
	PollInterval time.Duration // fixed delay between run status checks
	RunTimeout   time.Duration // max wait for a run to reach a terminal state
	MaxRetries   int           // SDK transport retries
	BaseURL      string        // optional (tests)
	HTTPClient   *http.Client  // optional (tests)
	Logger       *slog.Logger
}

// Client wraps the OpenAI SDK for the job's assistant lifecycle and runs.
type Client struct {
	api          openai.Client
	model        string
	pollInterval time.Duration
	runTimeout   time.Duration
	logger       *slog.Logger
}

// New creates an assistant service client.
func New(cfg Config) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 10 * time.Minute
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		api:          openai.NewClient(opts...),
		model:        cfg.Model,
		pollInterval: cfg.PollInterval,
		runTimeout:   cfg.RunTimeout,
		logger:       cfg.Logger,
	}
}
