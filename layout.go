package roadmap

import (
	"slices"
	"sort"
)

// LayoutOptions sets the canvas geometry. Sizes are in canvas pixels.
type LayoutOptions struct {
	NodeWidth  float64
	NodeHeight float64
	NodeSep    float64 // horizontal gap between nodes of one rank
	RankSep    float64 // vertical gap between ranks
	Sweeps     int     // crossing-reduction passes
}

// DefaultLayoutOptions matches the roadmap canvas node cards.
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{
		NodeWidth:  256,
		NodeHeight: 120,
		NodeSep:    80,
		RankSep:    100,
		Sweeps:     4,
	}
}

// withDefaults fills every zero field from DefaultLayoutOptions.
func (o LayoutOptions) withDefaults() LayoutOptions {
	d := DefaultLayoutOptions()
	if o.NodeWidth == 0 {
		o.NodeWidth = d.NodeWidth
	}
	if o.NodeHeight == 0 {
		o.NodeHeight = d.NodeHeight
	}
	if o.NodeSep == 0 {
		o.NodeSep = d.NodeSep
	}
	if o.RankSep == 0 {
		o.RankSep = d.RankSep
	}
	if o.Sweeps == 0 {
		o.Sweeps = d.Sweeps
	}
	return o
}

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Placement is a module positioned on the canvas. Position is the top-left
// corner of the node card.
type Placement struct {
	ID           string       `json:"id"`
	Rank         int          `json:"rank"`
	Order        int          `json:"order"`
	Position     Point        `json:"position"`
	Module       Module       `json:"data"`
	Presentation Presentation `json:"presentation"`
}

// Route is a prerequisite edge as drawn.
type Route struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Animated bool   `json:"animated"`
}

// Reasons an edge is left out of a layout.
const (
	DropDangling  = "dangling"
	DropSelfLoop  = "self-loop"
	DropDuplicate = "duplicate"
	DropCycle     = "cycle"
)

// DroppedEdge is a prerequisite the layout ignored.
type DroppedEdge struct {
	Prerequisite
	Reason string `json:"reason"`
}

// Layout is the positioned graph handed to the renderer.
type Layout struct {
	Nodes          []Placement   `json:"nodes"`
	Edges          []Route       `json:"edges"`
	Dropped        []DroppedEdge `json:"dropped,omitempty"`
	DroppedModules []string      `json:"dropped_modules,omitempty"`
	Ranks          int           `json:"ranks"`
	Width          float64       `json:"width"`
	Height         float64       `json:"height"`
}

// Placement returns the placement of the module with the given id.
func (l *Layout) Placement(id string) (Placement, bool) {
	for _, p := range l.Nodes {
		if p.ID == id {
			return p, true
		}
	}
	return Placement{}, false
}

// ComputeLayout assigns every module a rank and a position so that every
// kept edge points downwards: rank is the longest path from a root, and
// modules inside a rank are ordered by barycenter sweeps to reduce edge
// crossings. Output order follows the input order, and identical input
// always yields identical output.
//
// Malformed input never fails the layout. Edges with an unknown endpoint,
// self loops, repeated edges and edges that would close a cycle are left out
// and listed in Dropped; repeated module ids keep their first occurrence and
// are listed in DroppedModules.
func ComputeLayout(r *Roadmap, opts LayoutOptions) *Layout {
	out := &Layout{Nodes: []Placement{}, Edges: []Route{}}
	if r == nil {
		return out
	}
	opts = opts.withDefaults()

	var modules []Module
	index := make(map[string]int, len(r.Modules))
	for _, m := range r.Modules {
		if _, dup := index[m.ID]; dup {
			out.DroppedModules = append(out.DroppedModules, m.ID)
			continue
		}
		if m.Status == "" {
			m.Status = StatusLocked
		}
		index[m.ID] = len(modules)
		modules = append(modules, m)
	}

	n := len(modules)
	succ := make([][]int, n)
	pred := make([][]int, n)
	seen := make(map[[2]int]bool)

	for _, p := range r.Prerequisites {
		s, okS := index[p.Source]
		t, okT := index[p.Target]

		reason := ""
		switch {
		case !okS || !okT:
			reason = DropDangling
		case s == t:
			reason = DropSelfLoop
		case seen[[2]int{s, t}]:
			reason = DropDuplicate
		case reaches(succ, t, s):
			reason = DropCycle
		}
		if reason != "" {
			out.Dropped = append(out.Dropped, DroppedEdge{Prerequisite: p, Reason: reason})
			continue
		}

		seen[[2]int{s, t}] = true
		succ[s] = append(succ[s], t)
		pred[t] = append(pred[t], s)
		out.Edges = append(out.Edges, Route{
			ID:       p.Key(),
			Source:   p.Source,
			Target:   p.Target,
			Animated: modules[s].Status == StatusActive,
		})
	}

	if n == 0 {
		return out
	}

	rank := longestPathRanks(succ, pred)
	layers := make([][]int, slices.Max(rank)+1)
	for v := range n {
		layers[rank[v]] = append(layers[rank[v]], v)
	}
	orderLayers(layers, succ, pred, rank, opts.Sweeps)

	rowWidth := func(k int) float64 {
		return float64(k)*opts.NodeWidth + float64(k-1)*opts.NodeSep
	}
	for _, layer := range layers {
		out.Width = max(out.Width, rowWidth(len(layer)))
	}

	placed := make([]Placement, n)
	for rk, layer := range layers {
		offset := (out.Width - rowWidth(len(layer))) / 2
		for i, v := range layer {
			m := modules[v]
			m.Resources = slices.Clone(m.Resources)
			placed[v] = Placement{
				ID:    m.ID,
				Rank:  rk,
				Order: i,
				Position: Point{
					X: offset + float64(i)*(opts.NodeWidth+opts.NodeSep),
					Y: float64(rk) * (opts.NodeHeight + opts.RankSep),
				},
				Module:       m,
				Presentation: PresentationFor(m.Status),
			}
		}
	}

	out.Nodes = placed
	out.Ranks = len(layers)
	out.Height = float64(out.Ranks)*opts.NodeHeight + float64(out.Ranks-1)*opts.RankSep
	return out
}

// reaches reports whether to is reachable from from.
func reaches(succ [][]int, from, to int) bool {
	visited := make([]bool, len(succ))
	stack := []int{from}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if v == to {
			return true
		}
		if visited[v] {
			continue
		}
		visited[v] = true
		stack = append(stack, succ[v]...)
	}
	return false
}

// longestPathRanks ranks an acyclic graph with Kahn's algorithm: roots get
// rank 0 and every node sits one below its deepest prerequisite.
func longestPathRanks(succ, pred [][]int) []int {
	n := len(succ)
	rank := make([]int, n)
	inDegree := make([]int, n)
	var queue []int
	for v := range n {
		inDegree[v] = len(pred[v])
		if inDegree[v] == 0 {
			queue = append(queue, v)
		}
	}

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range succ[v] {
			rank[w] = max(rank[w], rank[v]+1)
			inDegree[w]--
			if inDegree[w] == 0 {
				queue = append(queue, w)
			}
		}
	}
	return rank
}

// orderLayers permutes every layer in place, alternating downward sweeps
// (ordered by prerequisites) and upward sweeps (ordered by dependents), and
// keeps the ordering with the fewest crossings seen.
func orderLayers(layers [][]int, succ, pred [][]int, rank []int, sweeps int) {
	pos := make([]int, len(rank))
	for _, layer := range layers {
		for i, v := range layer {
			pos[v] = i
		}
	}

	best := cloneLayers(layers)
	bestCrossings := crossings(layers, succ, rank, pos)

	for sweep := 0; sweep < sweeps && bestCrossings > 0; sweep++ {
		if sweep%2 == 0 {
			for r := 1; r < len(layers); r++ {
				sortByBarycenter(layers[r], pred, pos)
			}
		} else {
			for r := len(layers) - 2; r >= 0; r-- {
				sortByBarycenter(layers[r], succ, pos)
			}
		}
		if c := crossings(layers, succ, rank, pos); c < bestCrossings {
			best = cloneLayers(layers)
			bestCrossings = c
		}
	}

	for i := range layers {
		copy(layers[i], best[i])
	}
}

// sortByBarycenter orders a layer by the mean position of each node's
// neighbours. Nodes without neighbours keep their slot; ties keep the
// previous order.
func sortByBarycenter(layer []int, adj [][]int, pos []int) {
	type keyed struct {
		v   int
		key float64
	}
	keys := make([]keyed, len(layer))
	for i, v := range layer {
		key := float64(i)
		if len(adj[v]) > 0 {
			sum := 0
			for _, w := range adj[v] {
				sum += pos[w]
			}
			key = float64(sum) / float64(len(adj[v]))
		}
		keys[i] = keyed{v: v, key: key}
	}
	sort.SliceStable(keys, func(a, b int) bool { return keys[a].key < keys[b].key })
	for i, k := range keys {
		layer[i] = k.v
		pos[k.v] = i
	}
}

// crossings counts crossing pairs among edges that join adjacent ranks.
// Edges spanning several ranks are not counted.
func crossings(layers [][]int, succ [][]int, rank, pos []int) int {
	total := 0
	for r := 0; r+1 < len(layers); r++ {
		var segs [][2]int
		for _, u := range layers[r] {
			for _, v := range succ[u] {
				if rank[v] == r+1 {
					segs = append(segs, [2]int{pos[u], pos[v]})
				}
			}
		}
		for i := range segs {
			for j := i + 1; j < len(segs); j++ {
				if (segs[i][0]-segs[j][0])*(segs[i][1]-segs[j][1]) < 0 {
					total++
				}
			}
		}
	}
	return total
}

func cloneLayers(layers [][]int) [][]int {
	out := make([][]int, len(layers))
	for i, l := range layers {
		out[i] = slices.Clone(l)
	}
	return out
}
