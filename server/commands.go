package main

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meikuraledutech/roadmap"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage the database schema",
}

var schemaCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create tables and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(s closableStore) error {
			if err := s.CreateSchema(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema created")
			return nil
		})
	},
}

var schemaDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop every table, including stored roadmaps",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(s closableStore) error {
			if err := s.DropSchema(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema dropped")
			return nil
		})
	},
}

func init() {
	schemaCmd.AddCommand(schemaCreateCmd)
	schemaCmd.AddCommand(schemaDropCmd)

	layoutCmd.Flags().Bool("json", false, "Print the full view as JSON")
}

func withStore(cmd *cobra.Command, fn func(closableStore) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := openStore(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

var layoutCmd = &cobra.Command{
	Use:   "layout [file]",
	Short: "Lay out a roadmap file (the built-in seed when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := roadmap.DefaultSeed()
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			if r, err = roadmap.DecodeRoadmap(f); err != nil {
				return err
			}
		}

		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
		e := roadmap.NewEngine(logger, roadmap.DefaultLayoutOptions())
		e.Load(r)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(e.View())
		}
		printView(cmd.OutOrStdout(), e.View())
		return nil
	},
}

// printView writes one line per rank followed by the progress summary.
func printView(w io.Writer, v *roadmap.View) {
	fmt.Fprintln(w, v.Title)
	nodes := slices.Clone(v.Layout.Nodes)
	slices.SortFunc(nodes, func(a, b roadmap.Placement) int {
		return cmp.Or(cmp.Compare(a.Rank, b.Rank), cmp.Compare(a.Order, b.Order))
	})
	byRank := make([][]string, v.Layout.Ranks)
	for _, p := range nodes {
		byRank[p.Rank] = append(byRank[p.Rank], fmt.Sprintf("%s [%s]", p.Module.Label, p.Module.Status))
	}
	for rank, labels := range byRank {
		fmt.Fprintf(w, "  %d: %s\n", rank, strings.Join(labels, " | "))
	}
	for _, d := range v.Layout.Dropped {
		fmt.Fprintf(w, "  dropped %s -> %s (%s)\n", d.Source, d.Target, d.Reason)
	}
	fmt.Fprintf(w, "Overall progress: %d%% (%d/%d modules)\n", v.OverallProgress, v.Completed, v.Total)
}
