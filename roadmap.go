package roadmap

import (
	"slices"
	"time"
)

// Status describes how far a learner has got with a module.
type Status string

const (
	StatusLocked    Status = "locked"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusLocked, StatusActive, StatusCompleted:
		return true
	}
	return false
}

// Roadmap is a learning path: modules connected by prerequisite edges.
// Modules and Prerequisites keep their insertion order, which the layout
// relies on for stable output.
type Roadmap struct {
	ID            string         `json:"id,omitempty" yaml:"id,omitempty"`
	UserID        string         `json:"user_id,omitempty" yaml:"-"`
	Title         string         `json:"title" yaml:"title"`
	Description   string         `json:"description,omitempty" yaml:"description,omitempty"`
	Goal          string         `json:"goal,omitempty" yaml:"goal,omitempty"`
	Modules       []Module       `json:"nodes" yaml:"nodes"`
	Prerequisites []Prerequisite `json:"edges" yaml:"edges"`
	CreatedAt     time.Time      `json:"created_at,omitzero" yaml:"-"`
	UpdatedAt     time.Time      `json:"updated_at,omitzero" yaml:"-"`
}

// Module is a single learning topic.
type Module struct {
	ID          string   `json:"id" yaml:"id"`
	Label       string   `json:"label" yaml:"label"`
	Description string   `json:"description" yaml:"description"`
	Status      Status   `json:"status" yaml:"status"`
	Progress    int      `json:"progress" yaml:"progress"`
	Resources   []string `json:"resources" yaml:"resources,omitempty"`
}

// Prerequisite says Target depends on Source.
type Prerequisite struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Key returns the edge identifier used by the renderer, e.g. "e1-2".
func (p Prerequisite) Key() string {
	return "e" + p.Source + "-" + p.Target
}

// ModuleUpdate carries the fields practice activity may change on a module.
// Nil fields are left untouched.
type ModuleUpdate struct {
	Status   *Status `json:"status,omitempty"`
	Progress *int    `json:"progress,omitempty"`
}

// Summary is the list view of a stored roadmap.
type Summary struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Goal            string    `json:"goal"`
	Modules         int       `json:"modules"`
	Completed       int       `json:"completed"`
	OverallProgress int       `json:"overall_progress"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Module returns the first module with the given id.
func (r *Roadmap) Module(id string) (*Module, bool) {
	for i := range r.Modules {
		if r.Modules[i].ID == id {
			return &r.Modules[i], true
		}
	}
	return nil, false
}

// FillDefaults locks modules that carry no status and replaces nil
// resource lists with empty ones.
func (r *Roadmap) FillDefaults() {
	for i := range r.Modules {
		if r.Modules[i].Status == "" {
			r.Modules[i].Status = StatusLocked
		}
		if r.Modules[i].Resources == nil {
			r.Modules[i].Resources = []string{}
		}
	}
}

// Clone returns a deep copy of r.
func (r *Roadmap) Clone() *Roadmap {
	out := *r
	out.Modules = make([]Module, len(r.Modules))
	for i, m := range r.Modules {
		m.Resources = slices.Clone(m.Resources)
		out.Modules[i] = m
	}
	out.Prerequisites = slices.Clone(r.Prerequisites)
	return &out
}
