// Package rename implements the optional intermediate-rename pass: a
// name written and later overwritten by independent subgraphs creates a
// spurious anti-dependency across otherwise-parallel layers. This pass
// rewrites the later users of one of those writes to a unique synthetic
// name, purely at the Dependency Graph level (it relabels graph nodes; it
// never mutates the instructions the graph was built from). Per spec.md
// §4.G/§9 this is strictly optional scheduling machinery — the functional
// engine path never calls it.
package rename

import (
	"fmt"

	"github.com/pisa-sim/pisa-sim/internal/pisasim/graph"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/isa"
)

// Apply runs the rename pass over g in place and returns the number of
// nodes relabeled.
func Apply(g *graph.Graph) int {
	histogram := make(map[string][]int)
	for _, id := range g.Nodes() {
		n := g.Node(id)
		if n.Kind == graph.Register {
			histogram[n.Label] = append(histogram[n.Label], id)
		}
	}

	renamed := 0
	uid := 0
	for name, ids := range histogram {
		if len(ids) <= 1 {
			continue
		}
		remaining := append([]int(nil), ids...)
		for len(remaining) > 0 {
			best, bestSet := pickSmallestForwardSubgraph(g, remaining)
			if best == -1 {
				break // nothing left is eligible for renaming
			}
			coversAll := true
			for _, other := range ids {
				if !bestSet[other] {
					coversAll = false
					break
				}
			}
			if !coversAll {
				uid++
				prefix := fmt.Sprintf("uid%d_", uid)
				for id := range bestSet {
					if g.Node(id).Kind == graph.Register && g.Node(id).Label == name && eligible(g, id) {
						relabel(g, id, prefix+name)
						renamed++
					}
				}
			}
			remaining = dropCovered(remaining, bestSet)
		}
	}
	return renamed
}

// eligible excludes program inputs/outputs (in-degree 0 or out-degree 0)
// and any node adjacent to a mac/maci operation, per spec.md §4.G rules 3
// and 4.
func eligible(g *graph.Graph, id int) bool {
	if len(g.Predecessors(id)) == 0 || len(g.Successors(id)) == 0 {
		return false
	}
	for _, p := range g.Predecessors(id) {
		if adjacentToAccumulator(g, p) {
			return false
		}
	}
	for _, s := range g.Successors(id) {
		if adjacentToAccumulator(g, s) {
			return false
		}
	}
	return true
}

func adjacentToAccumulator(g *graph.Graph, opNode int) bool {
	n := g.Node(opNode)
	return n.Kind == graph.Operation && n.Instruction != nil &&
		(n.Instruction.Op == isa.OpMac || n.Instruction.Op == isa.OpMaci)
}

// pickSmallestForwardSubgraph returns the eligible candidate with the
// fewest forward dependents, and the set {candidate} ∪ dependents(candidate).
func pickSmallestForwardSubgraph(g *graph.Graph, candidates []int) (int, map[int]bool) {
	best := -1
	var bestSet map[int]bool
	for _, id := range candidates {
		if !eligible(g, id) {
			continue
		}
		set := forwardClosure(g, id)
		if best == -1 || len(set) < len(bestSet) {
			best, bestSet = id, set
		}
	}
	return best, bestSet
}

func forwardClosure(g *graph.Graph, start int) map[int]bool {
	set := map[int]bool{start: true}
	queue := []int{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, s := range g.Successors(cur) {
			if !set[s] {
				set[s] = true
				queue = append(queue, s)
			}
		}
	}
	return set
}

func dropCovered(remaining []int, covered map[int]bool) []int {
	out := remaining[:0]
	for _, id := range remaining {
		if !covered[id] {
			out = append(out, id)
		}
	}
	return out
}

func relabel(g *graph.Graph, id int, newLabel string) {
	g.SetLabel(id, newLabel)
}
