package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/meikuraledutech/roadmap"
	"github.com/meikuraledutech/roadmap/postgres"
	"github.com/meikuraledutech/roadmap/sqlite"
)

func main() {
	ctx := context.Background()

	// Postgres when DATABASE_URL is set, a throwaway SQLite database otherwise.
	var store roadmap.Store
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pg, err := postgres.Open(ctx, dbURL)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		defer pg.Close()
		store = pg
	} else {
		lite, err := sqlite.Open(":memory:")
		if err != nil {
			log.Fatalf("open: %v", err)
		}
		defer lite.Close()
		store = lite
	}

	// 1. Create tables
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}
	fmt.Println("schema created")

	// ── Save the built-in seed for a learner ──────────────────────────
	seed := roadmap.DefaultSeed()
	seed.ID = ""
	seed.UserID = "example-learner"

	saved, err := store.SaveRoadmap(ctx, seed)
	if err != nil {
		log.Fatalf("save roadmap: %v", err)
	}
	fmt.Printf("roadmap saved: %s (%d modules, %d prerequisites)\n",
		saved.ID, len(saved.Modules), len(saved.Prerequisites))

	// ── Lay it out ────────────────────────────────────────────────────
	engine := roadmap.NewEngine(slog.Default(), roadmap.DefaultLayoutOptions())
	engine.Load(saved)
	view := engine.View()
	fmt.Printf("\nlayout: %d ranks, %.0fx%.0f px, overall progress %d%%\n",
		view.Layout.Ranks, view.Layout.Width, view.Layout.Height, view.OverallProgress)
	for _, p := range view.Layout.Nodes {
		fmt.Printf("  rank %d  %-32s %-9s (%4.0f, %4.0f)\n", p.Rank, p.Module.Label, p.Module.Status, p.Position.X, p.Position.Y)
	}
	fmt.Println("\nanimated edges:")
	for _, e := range view.Layout.Edges {
		if e.Animated {
			fmt.Printf("  %s -> %s\n", e.Source, e.Target)
		}
	}

	// ── Select a module ───────────────────────────────────────────────
	fmt.Println("\ndetail of module 6:")
	printJSON(engine.Detail("6"))

	// ── Practice activity: finish module 4 ────────────────────────────
	completed, full := roadmap.StatusCompleted, 100
	if err := store.UpdateModule(ctx, saved.ID, "4", roadmap.ModuleUpdate{Status: &completed, Progress: &full}); err != nil {
		log.Fatalf("update module: %v", err)
	}
	list, err := store.ListRoadmaps(ctx, "example-learner")
	if err != nil {
		log.Fatalf("list roadmaps: %v", err)
	}
	fmt.Println("\nroadmaps after finishing module 4:")
	printJSON(list)

	// ── A prerequisite that would close a cycle is refused ────────────
	err = store.AddPrerequisite(ctx, saved.ID, roadmap.Prerequisite{Source: "10", Target: "1"})
	fmt.Printf("\nadd 10 -> 1: %v\n", err)

	// ── Cleanup ───────────────────────────────────────────────────────
	if err := store.DeleteRoadmap(ctx, saved.ID); err != nil {
		log.Fatalf("delete: %v", err)
	}
	fmt.Println("\nroadmap deleted")
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
