package roadmap

import (
	"log/slog"
	"sync"
)

// View is everything the roadmap canvas needs for one render.
type View struct {
	ID              string         `json:"id,omitempty"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	Layout          *Layout        `json:"layout"`
	OverallProgress int            `json:"overall_progress"`
	Completed       int            `json:"completed"`
	Total           int            `json:"total"`
	Legend          []Presentation `json:"legend"`
}

// Detail is the payload of the module detail panel.
type Detail struct {
	Module        Module       `json:"module"`
	Presentation  Presentation `json:"presentation"`
	Prerequisites []Module     `json:"prerequisites"`
	Dependents    []Module     `json:"dependents"`
	Unlockable    bool         `json:"unlockable"`
}

// Engine holds one roadmap at a time together with its layout and the
// current selection. Loading a new roadmap replaces the previous one.
type Engine struct {
	mu       sync.RWMutex
	opts     LayoutOptions
	logger   *slog.Logger
	graph    *Roadmap
	layout   *Layout
	selected *Module
}

// NewEngine creates an Engine with an empty roadmap.
func NewEngine(logger *slog.Logger, opts LayoutOptions) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{opts: opts, logger: logger}
	e.Load(&Roadmap{})
	return e
}

// Load replaces the roadmap, recomputes the layout and clears the selection.
// The engine keeps its own copy; later changes to r are not seen until the
// next Load.
func (e *Engine) Load(r *Roadmap) *Layout {
	if r == nil {
		r = &Roadmap{}
	}
	graph := r.Clone()
	layout := ComputeLayout(graph, e.opts)

	for _, d := range layout.Dropped {
		e.logger.Warn("roadmap: prerequisite left out of layout",
			"roadmap", graph.ID, "source", d.Source, "target", d.Target, "reason", d.Reason)
	}
	for _, id := range layout.DroppedModules {
		e.logger.Warn("roadmap: duplicate module left out of layout", "roadmap", graph.ID, "module", id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.graph = graph
	e.layout = layout
	e.selected = nil
	return layout
}

// Layout returns the layout of the loaded roadmap.
func (e *Engine) Layout() *Layout {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.layout
}

// SelectNode selects the module with the given id and returns it. An
// unknown id clears the selection and returns nil.
func (e *Engine) SelectNode(id string) *Module {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.graph.Module(id)
	if !ok {
		e.selected = nil
		return nil
	}
	sel := *m
	e.selected = &sel
	return &sel
}

// Selected returns the current selection, or nil.
func (e *Engine) Selected() *Module {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.selected
}

// EdgeEmphasis derives the decoration of p from the current module states.
func (e *Engine) EdgeEmphasis(p Prerequisite) EdgeEmphasis {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.EdgeEmphasis(p)
}

// OverallProgress reports the completion percentage of the loaded roadmap.
func (e *Engine) OverallProgress() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.OverallProgress()
}

// View bundles layout and progress for rendering.
func (e *Engine) View() *View {
	e.mu.RLock()
	defer e.mu.RUnlock()

	completed, total := e.graph.completion()
	return &View{
		ID:              e.graph.ID,
		Title:           e.graph.Title,
		Description:     e.graph.Description,
		Layout:          e.layout,
		OverallProgress: Percent(completed, total),
		Completed:       completed,
		Total:           total,
		Legend:          Legend(),
	}
}

// Detail selects the module and builds its detail panel. It returns nil,
// with the selection cleared, when the id is unknown.
func (e *Engine) Detail(id string) *Detail {
	m := e.SelectNode(id)
	if m == nil {
		return nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	d := &Detail{
		Module:        *m,
		Presentation:  PresentationFor(m.Status),
		Prerequisites: []Module{},
		Dependents:    []Module{},
		Unlockable:    e.graph.Unlockable(id),
	}
	for _, edge := range e.layout.Edges {
		switch id {
		case edge.Target:
			if src, ok := e.graph.Module(edge.Source); ok {
				d.Prerequisites = append(d.Prerequisites, *src)
			}
		case edge.Source:
			if dst, ok := e.graph.Module(edge.Target); ok {
				d.Dependents = append(d.Dependents, *dst)
			}
		}
	}
	return d
}
