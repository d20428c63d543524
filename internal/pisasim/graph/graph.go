// Package graph implements the Dependency Graph: a directed multigraph
// built from a linear instruction stream, with operation, register, and
// immediate nodes held in a flat arena indexed by id (no raw pointers, no
// third-party graph library — see DESIGN.md).
package graph

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/pisa-sim/pisa-sim/internal/pisasim/isa"
)

// Kind distinguishes the three node types the Dependency Graph holds.
type Kind int

const (
	Operation Kind = iota
	Register
	Immediate
)

func (k Kind) String() string {
	switch k {
	case Operation:
		return "operation"
	case Register:
		return "register"
	case Immediate:
		return "immediate"
	default:
		return "unknown"
	}
}

// Node is one arena entry. ID is stable for the lifetime of the node
// (ids are never reused, even after deletion, so edges referencing a
// deleted id can always be recognized as stale).
type Node struct {
	ID          int
	Kind        Kind
	Label       string
	Instruction *isa.Instruction // non-nil only for Operation nodes
}

// Graph is an arena of Nodes plus forward/backward adjacency, with a
// bitset tracking which arena slots are still alive.
type Graph struct {
	nodes []Node
	alive *bitset.BitSet
	succ  map[int][]int
	pred  map[int][]int
}

// New constructs an empty graph.
func New() *Graph {
	return &Graph{alive: bitset.New(0), succ: map[int][]int{}, pred: map[int][]int{}}
}

func (g *Graph) addNode(kind Kind, label string, in *isa.Instruction) int {
	id := len(g.nodes)
	g.nodes = append(g.nodes, Node{ID: id, Kind: kind, Label: label, Instruction: in})
	g.alive.Set(uint(id))
	return id
}

func (g *Graph) addEdge(from, to int) {
	g.succ[from] = append(g.succ[from], to)
	g.pred[to] = append(g.pred[to], from)
}

// IsAlive reports whether id still names a live node.
func (g *Graph) IsAlive(id int) bool {
	return id >= 0 && id < len(g.nodes) && g.alive.Test(uint(id))
}

// Node returns the node at id. Callers must check IsAlive first if the
// node may have been removed.
func (g *Graph) Node(id int) Node {
	return g.nodes[id]
}

// SetLabel relabels a node in place, used by the optional rename pass.
func (g *Graph) SetLabel(id int, label string) {
	g.nodes[id].Label = label
}

// Nodes returns the ids of every live node, in ascending id order.
func (g *Graph) Nodes() []int {
	out := make([]int, 0, len(g.nodes))
	for id := range g.nodes {
		if g.alive.Test(uint(id)) {
			out = append(out, id)
		}
	}
	return out
}

// Successors returns the live out-edges of id.
func (g *Graph) Successors(id int) []int {
	return g.liveEdges(g.succ[id])
}

// Predecessors returns the live in-edges of id.
func (g *Graph) Predecessors(id int) []int {
	return g.liveEdges(g.pred[id])
}

func (g *Graph) liveEdges(ids []int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if g.IsAlive(id) {
			out = append(out, id)
		}
	}
	return out
}

// Build constructs a Dependency Graph from a linear instruction stream,
// per spec.md §4.F: one operation node per instruction; input operands
// reuse the most recently assigned node for their location (or create a
// fresh one on first sight); output operands always create a fresh node.
func Build(instructions []*isa.Instruction) *Graph {
	g := New()
	latest := make(map[string]int)
	for _, in := range instructions {
		opID := g.addNode(Operation, "", in)
		g.nodes[opID].Label = fmt.Sprintf("%s_%d", in.Op, opID)
		for _, operand := range in.Inputs {
			srcID, ok := latest[operand.Location]
			if !ok {
				kind := Register
				if operand.Immediate {
					kind = Immediate
				}
				srcID = g.addNode(kind, operand.Location, nil)
				latest[operand.Location] = srcID
			}
			g.addEdge(srcID, opID)
		}
		for _, operand := range in.Outputs {
			dstID := g.addNode(Register, operand.Location, nil)
			latest[operand.Location] = dstID
			g.addEdge(opID, dstID)
		}
	}
	return g
}

// InputNodes returns nodes with in-degree 0, optionally filtered by kind.
func (g *Graph) InputNodes(filter *Kind) []int {
	var out []int
	for _, id := range g.Nodes() {
		if filter != nil && g.nodes[id].Kind != *filter {
			continue
		}
		if len(g.Predecessors(id)) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// OutputNodes returns nodes with out-degree 0.
func (g *Graph) OutputNodes() []int {
	var out []int
	for _, id := range g.Nodes() {
		if len(g.Successors(id)) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// RemoveNodeMaintainConnections splices n out of the graph: every
// predecessor of n is connected directly to every successor of n, then n
// is deleted.
func (g *Graph) RemoveNodeMaintainConnections(n int) {
	preds := g.Predecessors(n)
	succs := g.Successors(n)
	for _, p := range preds {
		for _, s := range succs {
			g.addEdge(p, s)
		}
	}
	for _, p := range preds {
		g.succ[p] = removeValue(g.succ[p], n)
	}
	for _, s := range succs {
		g.pred[s] = removeValue(g.pred[s], n)
	}
	delete(g.succ, n)
	delete(g.pred, n)
	g.alive.Clear(uint(n))
}

func removeValue(xs []int, v int) []int {
	out := xs[:0]
	for _, x := range xs {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// Clone returns a structural copy of g, preserving node ids.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		nodes: append([]Node(nil), g.nodes...),
		alive: g.alive.Clone(),
		succ:  make(map[int][]int, len(g.succ)),
		pred:  make(map[int][]int, len(g.pred)),
	}
	for k, v := range g.succ {
		out.succ[k] = append([]int(nil), v...)
	}
	for k, v := range g.pred {
		out.pred[k] = append([]int(nil), v...)
	}
	return out
}

// InstructionView returns a clone with every non-operation node spliced
// out, leaving only operation nodes connected by induced dependency edges.
func (g *Graph) InstructionView() *Graph {
	out := g.Clone()
	for _, id := range out.Nodes() {
		if out.nodes[id].Kind != Operation {
			out.RemoveNodeMaintainConnections(id)
		}
	}
	return out
}

// BFSDependency returns the induced subgraph of start's ancestors and/or
// dependents (as selected), restricted to edges in the chosen direction.
func (g *Graph) BFSDependency(start int, ancestors, dependents bool) *Graph {
	keep := map[int]bool{start: true}
	if ancestors {
		g.bfs(start, keep, g.Predecessors)
	}
	if dependents {
		g.bfs(start, keep, g.Successors)
	}

	out := New()
	idMap := make(map[int]int, len(keep))
	for _, id := range g.Nodes() {
		if !keep[id] {
			continue
		}
		n := g.nodes[id]
		idMap[id] = out.addNode(n.Kind, n.Label, n.Instruction)
	}
	for _, id := range g.Nodes() {
		if !keep[id] {
			continue
		}
		for _, s := range g.Successors(id) {
			if keep[s] {
				out.addEdge(idMap[id], idMap[s])
			}
		}
	}
	return out
}

func (g *Graph) bfs(start int, keep map[int]bool, neighbors func(int) []int) {
	queue := []int{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range neighbors(cur) {
			if !keep[n] {
				keep[n] = true
				queue = append(queue, n)
			}
		}
	}
}

// Layers partitions the graph by topological depth. Depth is defined so
// that an operation node shares a layer with whichever of its inputs
// arrives last, rather than waiting a full layer behind them: a source
// node (no predecessors) has depth 0; an operation node's depth is the
// max depth of its predecessors; a register/immediate node produced by
// an operation has depth one more than its producer. This matches
// spec.md §4.F's worked example, where `mul#0` shares a layer with its
// two register inputs and only the register it writes advances a layer.
func (g *Graph) Layers() [][]int {
	depth := make(map[int]int, len(g.nodes))
	var depthOf func(id int) int
	depthOf = func(id int) int {
		if d, ok := depth[id]; ok {
			return d
		}
		preds := g.Predecessors(id)
		var d int
		switch {
		case len(preds) == 0:
			d = 0
		case g.nodes[id].Kind == Operation:
			for _, p := range preds {
				if pd := depthOf(p); pd > d {
					d = pd
				}
			}
		default:
			// A register/immediate node with a predecessor was produced by
			// exactly one operation (Build only ever gives an output
			// operand a fresh node), so it has exactly one predecessor.
			d = depthOf(preds[0]) + 1
		}
		depth[id] = d
		return d
	}

	maxDepth := 0
	for _, id := range g.Nodes() {
		if d := depthOf(id); d > maxDepth {
			maxDepth = d
		}
	}

	layers := make([][]int, maxDepth+1)
	for _, id := range g.Nodes() {
		d := depth[id]
		layers[d] = append(layers[d], id)
	}
	return layers
}
