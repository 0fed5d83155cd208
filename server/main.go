// Command roadmapd serves learning roadmaps over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "roadmapd",
	Short:         "Learning roadmap service",
	Long:          "roadmapd stores, lays out and generates learning roadmaps and runs practice code.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database URL or SQLite path (overrides ROADMAP_DB_URL / DATABASE_URL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(layoutCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "roadmapd:", err)
		os.Exit(1)
	}
}
