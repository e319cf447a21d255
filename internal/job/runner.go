// Package job orchestrates one recommendation batch: export the catalog,
// provision the assistant, process each active user in sequence, and tear
// the assistant down again on every exit path.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/pickatale/bookrec/internal/assistant"
	"github.com/pickatale/bookrec/internal/prompts"
	"github.com/pickatale/bookrec/internal/warehouse"
)

// Warehouse is the reading-activity and catalog source.
type Warehouse interface {
	ExportCatalog(ctx context.Context) (string, error)
	ActiveUsers(ctx context.Context, windowDays, minEvents int) ([]string, error)
	RecentBooks(ctx context.Context, userID string, limit int) ([]warehouse.BookRead, error)
	BookDescription(ctx context.Context, bookID string) (string, error)
}

// Recommender drives assistant runs for one reader's history.
type Recommender interface {
	AnalyzeInterest(ctx context.Context, assistantID, readingHistory string) (string, error)
	SearchBooks(ctx context.Context, assistantID, readingHistory string) ([]assistant.Recommendation, error)
}

// Lifecycle provisions and tears down the per-job assistant.
type Lifecycle interface {
	Provision(ctx context.Context, catalogPath string) (string, error)
	Teardown(ctx context.Context, assistantID string)
}

// Config holds batch parameters.
type Config struct {
	WindowDays     int // activity lookback for active users
	MinEvents      int // minimum sessions to qualify as active
	BookLimit      int // recent books per user
	LibraryBaseURL string
}

// Runner executes one batch job.
type Runner struct {
	warehouse Warehouse
	assistant Recommender
	lifecycle Lifecycle
	printer   *Printer
	logger    *slog.Logger
	cfg       Config
}

// New creates a batch runner. The Recommender and Lifecycle are usually
// the same *assistant.Client.
func New(wh Warehouse, rec Recommender, lc Lifecycle, printer *Printer, logger *slog.Logger, cfg Config) *Runner {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 14
	}
	if cfg.MinEvents <= 0 {
		cfg.MinEvents = 5
	}
	if cfg.BookLimit <= 0 {
		cfg.BookLimit = 5
	}
	return &Runner{
		warehouse: wh,
		assistant: rec,
		lifecycle: lc,
		printer:   printer,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run processes up to maxUsers active users. The assistant is torn down
// exactly once, whether the batch completes or fails partway; the
// teardown context is detached so cancellation cannot leak the assistant.
func (r *Runner) Run(ctx context.Context, maxUsers int) error {
	if maxUsers <= 0 {
		maxUsers = 1
	}
	jobID := uuid.New().String()
	logger := r.logger.With("job_id", jobID)

	catalogPath, err := r.warehouse.ExportCatalog(ctx)
	if err != nil {
		return fmt.Errorf("catalog export failed: %w", err)
	}
	logger.Info("exported catalog", "path", catalogPath)
	r.printer.CatalogExported(catalogPath)

	assistantID, err := r.lifecycle.Provision(ctx, catalogPath)
	os.Remove(catalogPath)
	if err != nil {
		return fmt.Errorf("assistant provisioning failed: %w", err)
	}
	defer func() {
		r.printer.CleaningUp()
		r.lifecycle.Teardown(context.WithoutCancel(ctx), assistantID)
	}()

	users, err := r.warehouse.ActiveUsers(ctx, r.cfg.WindowDays, r.cfg.MinEvents)
	if err != nil {
		return fmt.Errorf("active-user query failed: %w", err)
	}
	logger.Info("found active users", "count", len(users), "processing", min(maxUsers, len(users)))

	for i, userID := range users {
		if i >= maxUsers {
			break
		}
		if err := r.processUser(ctx, logger, assistantID, userID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) processUser(ctx context.Context, logger *slog.Logger, assistantID, userID string) error {
	books, err := r.warehouse.RecentBooks(ctx, userID, r.cfg.BookLimit)
	if err != nil {
		return fmt.Errorf("recent-books query failed for user %s: %w", userID, err)
	}
	r.printer.UserHeader(userID, len(books))

	entries := make([]prompts.HistoryEntry, 0, len(books))
	for _, b := range books {
		desc, err := r.warehouse.BookDescription(ctx, b.BookID)
		if err != nil {
			return fmt.Errorf("description query failed for book %s: %w", b.BookID, err)
		}
		entries = append(entries, prompts.HistoryEntry{
			EventTime:   b.EventTime,
			Title:       b.Title,
			Description: desc,
		})
	}
	history := prompts.ReadingHistory(entries)

	summary, err := r.assistant.AnalyzeInterest(ctx, assistantID, history)
	if errors.Is(err, assistant.ErrRunTimeout) {
		// A stuck run is non-fatal for the batch; move on to the next user.
		logger.Warn("interest analysis timed out", "user_id", userID, "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("interest analysis failed for user %s: %w", userID, err)
	}
	if summary == "" {
		logger.Warn("interest analysis produced no summary", "user_id", userID)
	}
	r.printer.InterestSummary(userID, summary)

	recs, err := r.assistant.SearchBooks(ctx, assistantID, history)
	if errors.Is(err, assistant.ErrRunTimeout) {
		logger.Warn("book search timed out", "user_id", userID, "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("book search failed for user %s: %w", userID, err)
	}
	if len(recs) == 0 {
		logger.Warn("no recommendations produced", "user_id", userID)
	}
	r.printer.Recommendations(r.cfg.LibraryBaseURL, recs)
	return nil
}
