// Package practice holds the catalog of coding problems learners solve in
// the practice sandbox.
package practice

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

var (
	ErrProblemNotFound = errors.New("practice: problem not found")
	ErrInvalidProblem  = errors.New("practice: invalid problem")
)

// Difficulty grades a problem.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Example is a worked input/output pair shown with the problem.
type Example struct {
	Input       string `json:"input" yaml:"input"`
	Output      string `json:"output" yaml:"output"`
	Explanation string `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// TestCase is one set of arguments and the expected return value.
type TestCase struct {
	Input    []any `json:"input" yaml:"input"`
	Expected any   `json:"expected" yaml:"expected"`
}

// Problem is a single practice exercise.
type Problem struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Difficulty  Difficulty `json:"difficulty" yaml:"difficulty"`
	Language    string     `json:"language" yaml:"language"`
	Description string     `json:"description" yaml:"description"`
	Examples    []Example  `json:"examples" yaml:"examples"`
	StarterCode string     `json:"starter_code" yaml:"starter_code"`
	TestCases   []TestCase `json:"test_cases" yaml:"test_cases"`
}

// Catalog is an ordered, read-only set of problems.
type Catalog struct {
	problems []Problem
	index    map[string]int
}

//go:embed problems.yaml
var defaultProblems []byte

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Load(bytes.NewReader(defaultProblems))
	if err != nil {
		panic(fmt.Sprintf("practice: embedded catalog is invalid: %v", err))
	}
	return c
}

// Load decodes a YAML (or JSON) list of problems. Ids must be unique and
// non-empty, and difficulty must be easy, medium or hard.
func Load(r io.Reader) (*Catalog, error) {
	var problems []Problem
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&problems); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("practice: decode catalog: %w", err)
	}

	c := &Catalog{index: make(map[string]int, len(problems))}
	for _, p := range problems {
		if p.ID == "" || p.Title == "" {
			return nil, fmt.Errorf("%w: id and title are required", ErrInvalidProblem)
		}
		switch p.Difficulty {
		case DifficultyEasy, DifficultyMedium, DifficultyHard:
		default:
			return nil, fmt.Errorf("%w: %s: unknown difficulty %q", ErrInvalidProblem, p.ID, p.Difficulty)
		}
		if _, dup := c.index[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidProblem, p.ID)
		}
		if p.Examples == nil {
			p.Examples = []Example{}
		}
		if p.TestCases == nil {
			p.TestCases = []TestCase{}
		}
		c.index[p.ID] = len(c.problems)
		c.problems = append(c.problems, p)
	}
	return c, nil
}

// List returns every problem in catalog order.
// Returns an empty slice (not nil) if the catalog is empty.
func (c *Catalog) List() []Problem {
	out := make([]Problem, len(c.problems))
	copy(out, c.problems)
	return out
}

// Get returns the problem with the given id, or ErrProblemNotFound.
func (c *Catalog) Get(id string) (Problem, error) {
	i, ok := c.index[id]
	if !ok {
		return Problem{}, ErrProblemNotFound
	}
	return c.problems[i], nil
}
