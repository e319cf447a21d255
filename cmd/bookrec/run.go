package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pickatale/bookrec/internal/assistant"
	"github.com/pickatale/bookrec/internal/config"
	"github.com/pickatale/bookrec/internal/job"
	"github.com/pickatale/bookrec/internal/warehouse"
)

var runCmd = &cobra.Command{
	Use:   "run [max-users]",
	Short: "Run one recommendation batch",
	Long: `Run one recommendation batch.

The optional positional argument limits how many active users are
processed (default 1).

Examples:
  bookrec run          # Process the single most active user
  bookrec run 10       # Process up to 10 users`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		maxUsers := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("max-users must be a positive integer, got %q", args[0])
			}
			maxUsers = n
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		store, err := warehouse.Open(warehouse.Config{
			Account:   cfg.Snowflake.Account,
			User:      cfg.Snowflake.User,
			Password:  cfg.Snowflake.Password,
			Database:  cfg.Snowflake.Database,
			Schema:    cfg.Snowflake.Schema,
			Warehouse: cfg.Snowflake.Warehouse,
			Role:      cfg.Snowflake.Role,
		}, warehouse.Tables{
			Sessions: cfg.Tables.Sessions,
			Books:    cfg.Tables.Books,
			Catalog:  cfg.Tables.Catalog,
		})
		if err != nil {
			return err
		}
		defer store.Close()

		client := assistant.New(assistant.Config{
			APIKey:       cfg.OpenAI.APIKey,
			Model:        cfg.OpenAI.Model,
			PollInterval: cfg.Assistant.PollInterval,
			RunTimeout:   cfg.Assistant.RunTimeout,
			MaxRetries:   cfg.Assistant.MaxRetries,
			Logger:       logger,
		})

		runner := job.New(store, client, client, job.NewPrinter(os.Stdout), logger, job.Config{
			WindowDays:     cfg.Batch.WindowDays,
			MinEvents:      cfg.Batch.MinEvents,
			BookLimit:      cfg.Batch.BookLimit,
			LibraryBaseURL: cfg.Library.BaseURL,
		})

		return runner.Run(ctx, maxUsers)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
