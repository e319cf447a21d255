package main

import (
	"github.com/spf13/cobra"

	"github.com/pickatale/bookrec/version"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "bookrec",
	Short: "Personalized book recommendations from warehouse reading activity",
	Long: `Bookrec is a batch job that reads per-user reading activity from the
data warehouse and asks a hosted assistant, backed by a retrieval index
over the published book catalog, for personalized book recommendations.

Each job run:
  - Exports the published catalog and provisions a retrieval index from it
  - Analyzes each active user's recent reading history
  - Searches the catalog for books matching the user's interests
  - Tears the assistant and its index down again, even on failure`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.bookrec/config.yaml)",
	)

	rootCmd.AddCommand(versionCmd)
}
