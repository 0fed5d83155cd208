package main

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/meikuraledutech/roadmap"
	"github.com/meikuraledutech/roadmap/generate"
	"github.com/meikuraledutech/roadmap/identity"
	"github.com/meikuraledutech/roadmap/judge"
	"github.com/meikuraledutech/roadmap/practice"
)

// server holds the collaborators the handlers need. identity and generator
// may be nil when the service is not configured; their routes answer 503.
// A nil problems catalog falls back to the built-in one.
type server struct {
	store     roadmap.Store
	seed      *roadmap.Roadmap
	problems  *practice.Catalog
	layout    roadmap.LayoutOptions
	judge     *judge.Client
	identity  *identity.Client
	generator *generate.Generator
	logger    *slog.Logger
}

type appOptions struct {
	corsOrigins string
	accessLog   bool
}

// newApp builds the Fiber app with every route registered.
func newApp(s *server, opts appOptions) *fiber.App {
	if s.problems == nil {
		s.problems = practice.Default()
	}
	app := fiber.New(fiber.Config{AppName: "roadmapd"})

	app.Use(recoverer.New())
	if opts.accessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: splitOrigins(opts.corsOrigins),
		AllowHeaders: []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
	}))

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// ── Identity ──────────────────────────────────────────────────────
	app.Post("/auth/signin", s.signIn)
	app.Post("/auth/signup", s.signUp)
	app.Post("/auth/signout", s.requireSession, s.signOut)
	app.Get("/me", s.requireSession, s.me)

	// ── Stateless rendering ───────────────────────────────────────────
	app.Get("/seed", s.seedView)
	app.Post("/layout", s.layoutGraph)

	// ── Roadmaps ──────────────────────────────────────────────────────
	rm := app.Group("/roadmaps", s.requireSession)
	rm.Get("/", s.listRoadmaps)
	rm.Post("/", s.saveRoadmap)
	rm.Post("/seed", s.copySeed)
	rm.Post("/generate", s.generateRoadmap)
	rm.Get("/:id", s.getRoadmap)
	rm.Delete("/:id", s.deleteRoadmap)
	rm.Get("/:id/view", s.viewRoadmap)
	rm.Get("/:id/modules/:moduleId", s.moduleDetail)
	rm.Put("/:id/modules/:moduleId", s.updateModule)
	rm.Post("/:id/prerequisites", s.addPrerequisite)
	rm.Delete("/:id/prerequisites", s.deletePrerequisite)

	// ── Practice ──────────────────────────────────────────────────────
	app.Get("/languages", func(c fiber.Ctx) error {
		return c.JSON(judge.Languages())
	})
	app.Get("/problems", s.listProblems)
	app.Get("/problems/:id", s.getProblem)
	app.Post("/execute", s.requireSession, s.execute)
	app.Get("/submissions", s.requireSession, s.listSubmissions)

	return app
}

func splitOrigins(origins string) []string {
	var out []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func (s *server) newEngine() *roadmap.Engine {
	return roadmap.NewEngine(s.logger, s.layout)
}
