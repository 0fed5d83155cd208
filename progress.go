package roadmap

// EdgeEmphasis is the render-time decoration of a prerequisite edge.
type EdgeEmphasis struct {
	Animated bool `json:"animated"`
}

// EdgeEmphasis animates an edge iff its source module is active.
// Unknown sources are never emphasized.
func (r *Roadmap) EdgeEmphasis(p Prerequisite) EdgeEmphasis {
	src, ok := r.Module(p.Source)
	return EdgeEmphasis{Animated: ok && src.Status == StatusActive}
}

// OverallProgress is the share of completed modules as a 0..100 percentage,
// rounded half up. An empty roadmap has no progress. A repeated module id
// counts once, with the status of its first occurrence.
func (r *Roadmap) OverallProgress() int {
	completed, total := r.completion()
	return Percent(completed, total)
}

// completion counts distinct modules and how many of them are completed.
func (r *Roadmap) completion() (completed, total int) {
	seen := make(map[string]bool, len(r.Modules))
	for _, m := range r.Modules {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		total++
		if m.Status == StatusCompleted {
			completed++
		}
	}
	return completed, total
}

// Percent returns part/total as a rounded percentage, 0 when total is 0.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*part + total) / (2 * total)
}

// Unlockable reports whether every prerequisite of a locked module is
// completed. It is informational only: statuses are never rewritten here.
func (r *Roadmap) Unlockable(id string) bool {
	m, ok := r.Module(id)
	if !ok || m.Status != StatusLocked {
		return false
	}
	for _, p := range r.Prerequisites {
		if p.Target != id {
			continue
		}
		src, ok := r.Module(p.Source)
		if !ok || src.Status != StatusCompleted {
			return false
		}
	}
	return true
}
