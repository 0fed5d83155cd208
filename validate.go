package roadmap

import "fmt"

// Validate checks r against the graph invariants: unique non-empty module
// ids, known statuses, progress within 0..100, prerequisites that reference
// existing modules, no duplicate prerequisites and no cycles.
// It returns the first problem found, wrapping one of the package sentinels.
func Validate(r *Roadmap) error {
	ids := make(map[string]bool, len(r.Modules))
	for _, m := range r.Modules {
		if m.ID == "" {
			return fmt.Errorf("%w: empty id (label %q)", ErrInvalidModule, m.Label)
		}
		if ids[m.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateModule, m.ID)
		}
		ids[m.ID] = true
		if err := validateModule(m); err != nil {
			return err
		}
	}

	seen := make(map[Prerequisite]bool, len(r.Prerequisites))
	for _, p := range r.Prerequisites {
		if !ids[p.Source] {
			return fmt.Errorf("%w: source %q", ErrDanglingPrerequisite, p.Source)
		}
		if !ids[p.Target] {
			return fmt.Errorf("%w: target %q", ErrDanglingPrerequisite, p.Target)
		}
		if seen[p] {
			return fmt.Errorf("%w: %s -> %s", ErrDuplicatePrerequisite, p.Source, p.Target)
		}
		seen[p] = true
	}

	return validateAcyclic(r.Modules, r.Prerequisites)
}

func validateModule(m Module) error {
	if !m.Status.Valid() {
		return fmt.Errorf("%w: module %q has status %q", ErrInvalidModule, m.ID, m.Status)
	}
	if m.Progress < 0 || m.Progress > 100 {
		return fmt.Errorf("%w: module %q has progress %d", ErrInvalidModule, m.ID, m.Progress)
	}
	return nil
}

// ValidateUpdate checks the fields of u that are set.
func ValidateUpdate(u ModuleUpdate) error {
	if u.Status != nil && !u.Status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidModule, *u.Status)
	}
	if u.Progress != nil && (*u.Progress < 0 || *u.Progress > 100) {
		return fmt.Errorf("%w: progress %d", ErrInvalidModule, *u.Progress)
	}
	return nil
}

// validateAcyclic checks that the prerequisites don't form a cycle using DFS.
// Modules are visited in insertion order so the reported error is stable.
func validateAcyclic(modules []Module, prereqs []Prerequisite) error {
	adj := make(map[string][]string)
	for _, p := range prereqs {
		adj[p.Source] = append(adj[p.Source], p.Target)
	}

	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)

	state := make(map[string]int, len(modules))

	var dfs func(id string) bool
	dfs = func(id string) bool {
		state[id] = visiting
		for _, next := range adj[id] {
			switch state[next] {
			case visiting:
				return true
			case unvisited:
				if dfs(next) {
					return true
				}
			}
		}
		state[id] = visited
		return false
	}

	for _, m := range modules {
		if state[m.ID] == unvisited && dfs(m.ID) {
			return fmt.Errorf("%w: reachable from %q", ErrCycleDetected, m.ID)
		}
	}

	return nil
}
