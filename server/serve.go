package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/spf13/cobra"

	"github.com/meikuraledutech/roadmap"
	"github.com/meikuraledutech/roadmap/config"
	"github.com/meikuraledutech/roadmap/generate"
	"github.com/meikuraledutech/roadmap/identity"
	"github.com/meikuraledutech/roadmap/judge"
	"github.com/meikuraledutech/roadmap/llm"
	"github.com/meikuraledutech/roadmap/practice"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			cfg.Listen = listen
		}
		return runServer(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "Address to listen on (overrides ROADMAP_LISTEN)")
}

// loadConfig reads the environment and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.FromEnv()
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.DatabaseURL = db
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServer(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	store, err := openStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.AutoMigrate {
		if err := store.CreateSchema(ctx); err != nil {
			return err
		}
	}

	seed, err := loadSeed(cfg.SeedFile)
	if err != nil {
		return err
	}

	problems, err := loadProblems(cfg.ProblemsFile)
	if err != nil {
		return err
	}

	srv := &server{
		store:    store,
		seed:     seed,
		problems: problems,
		layout:   roadmap.DefaultLayoutOptions(),
		judge:    judge.New(cfg.Judge),
		logger:   logger,
	}

	if cfg.Identity.URL != "" {
		srv.identity = identity.New(cfg.Identity)
	} else {
		logger.Warn("server: identity service not configured, session routes disabled")
	}

	if err := cfg.LLM.Validate(); err != nil {
		logger.Warn("server: roadmap generation disabled", "error", err)
	} else {
		provider, err := llm.NewProvider(ctx, cfg.LLM, logger)
		if err != nil {
			return fmt.Errorf("llm provider: %w", err)
		}
		srv.generator = generate.New(provider, logger)
	}

	app := newApp(srv, appOptions{corsOrigins: cfg.CORSOrigins, accessLog: true})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server: listening", "addr", cfg.Listen, "driver", cfg.Driver())
		errCh <- app.Listen(cfg.Listen, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

// loadSeed reads the seed file, or returns the built-in seed when path is
// empty.
func loadSeed(path string) (*roadmap.Roadmap, error) {
	if path == "" {
		return roadmap.DefaultSeed(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	return roadmap.ReadSeed(f)
}

func loadProblems(path string) (*practice.Catalog, error) {
	if path == "" {
		return practice.Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open problems: %w", err)
	}
	defer f.Close()
	return practice.Load(f)
}
