// Package generate drafts roadmaps with a language model and checks that
// what comes back is a usable graph before anyone stores or renders it.
package generate

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/meikuraledutech/roadmap"
	"github.com/meikuraledutech/roadmap/llm"
)

// ErrGoalRequired is returned when a request carries no learning goal.
var ErrGoalRequired = errors.New("generate: learning goal is required")

// InvalidRoadmapError reports a model reply that is not a usable roadmap:
// no JSON object, the wrong shape, or a graph that fails validation.
type InvalidRoadmapError struct {
	Content string
	Err     error
}

func (e *InvalidRoadmapError) Error() string {
	return fmt.Sprintf("generate: invalid roadmap: %v", e.Err)
}

func (e *InvalidRoadmapError) Unwrap() error { return e.Err }

// Request is what the learner asks for.
type Request struct {
	LearningGoal    string   `json:"learningGoal"`
	CurrentSkills   []string `json:"currentSkills"`
	ExperienceLevel string   `json:"experienceLevel"`
}

//go:embed roadmap.schema.json
var schemaJSON []byte

var roadmapSchema = mustSchema(schemaJSON)

func mustSchema(raw []byte) *llm.Schema {
	var def map[string]any
	if err := json.Unmarshal(raw, &def); err != nil {
		panic(fmt.Sprintf("generate: embedded schema: %v", err))
	}
	return &llm.Schema{
		Name:        "learning-roadmap",
		Description: "A learning roadmap with modules (nodes) and prerequisites (edges).",
		Definition:  def,
	}
}

// jsonObject matches from the first '{' to the last '}'.
var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// Generator turns learning goals into validated roadmaps.
type Generator struct {
	provider llm.Provider
	logger   *slog.Logger
}

// New creates a Generator on top of provider.
func New(provider llm.Provider, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{provider: provider, logger: logger}
}

// Generate asks the model for a roadmap and returns it only if it passes
// both the shape check and graph validation. The returned roadmap has no
// ID; storing it assigns one. Upstream failures come back as the llm
// package's typed errors.
func (g *Generator) Generate(ctx context.Context, req Request) (*roadmap.Roadmap, error) {
	goal := strings.TrimSpace(req.LearningGoal)
	if goal == "" {
		return nil, ErrGoalRequired
	}

	g.logger.InfoContext(ctx, "generate: requesting roadmap", "goal", goal)

	resp, err := g.provider.Generate(llm.WithPurpose(ctx, llm.PurposeRoadmap), llm.Request{
		System:   systemPrompt,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: userPrompt(req)}},
	})
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	r, err := Parse(resp.Content)
	if err != nil {
		g.logger.WarnContext(ctx, "generate: rejected model reply", "goal", goal, "error", err)
		return nil, err
	}
	r.Goal = goal

	g.logger.InfoContext(ctx, "generate: roadmap ready", "title", r.Title, "modules", len(r.Modules))
	return r, nil
}

// Parse extracts the roadmap object from a model reply, checks it against
// the roadmap JSON Schema and validates the graph. Every failure is an
// *InvalidRoadmapError.
func Parse(content []byte) (*roadmap.Roadmap, error) {
	raw := jsonObject.Find(content)
	if raw == nil {
		return nil, &InvalidRoadmapError{Content: string(content), Err: errors.New("no JSON object in reply")}
	}

	if err := llm.ValidateContent(roadmapSchema, raw); err != nil {
		return nil, &InvalidRoadmapError{Content: string(raw), Err: err}
	}

	var r roadmap.Roadmap
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&r); err != nil {
		return nil, &InvalidRoadmapError{Content: string(raw), Err: err}
	}
	// Identity and ownership are never taken from the model.
	r.ID, r.UserID = "", ""
	r.FillDefaults()

	if err := roadmap.Validate(&r); err != nil {
		return nil, &InvalidRoadmapError{Content: string(raw), Err: err}
	}
	return &r, nil
}
