// Package hwmodel describes the pluggable hardware performance model the
// scheduler dispatches against: a per-instruction throughput/latency
// table, a memory-hierarchy timing table, and the tier capacities the
// reuse-distance classifier needs.
package hwmodel

import "github.com/pisa-sim/pisa-sim/internal/pisasim/isa"

// Tier identifies one level of the memory hierarchy.
type Tier int

// The four memory tiers the scheduler's reuse-distance classifier picks
// from.
const (
	Register Tier = iota
	Cache
	MemoryCache
	Memory
)

func (t Tier) String() string {
	switch t {
	case Register:
		return "REGISTER"
	case Cache:
		return "CACHE"
	case MemoryCache:
		return "MEMORY_CACHE"
	case Memory:
		return "MEMORY"
	default:
		return "UNKNOWN"
	}
}

// Timing is a (throughput, latency) pair, both expressed in clock cycles.
type Timing struct {
	Throughput int
	Latency    int
}

// Model is a named hardware performance model: per-opcode instruction
// timing, per-tier memory timing, and per-tier capacity (in logical
// words) used by the scheduler's reuse-distance classifier.
type Model struct {
	Name             string
	InstructionPerf  map[isa.Op]Timing
	MemoryPerf       map[Tier]Timing
	MemoryCapacity   map[Tier]int
}

// Instruction returns the timing for op, and whether it is known to this
// model.
func (m *Model) Instruction(op isa.Op) (Timing, bool) {
	t, ok := m.InstructionPerf[op]
	return t, ok
}

// MemoryTiming returns the timing for the given memory tier.
func (m *Model) MemoryTiming(t Tier) Timing {
	return m.MemoryPerf[t]
}

// Capacity returns the capacity, in logical words, of the given tier.
func (m *Model) Capacity(t Tier) int {
	return m.MemoryCapacity[t]
}

var arithmeticOps = []isa.Op{isa.OpAdd, isa.OpSub, isa.OpMul, isa.OpMac, isa.OpMaci, isa.OpMuli, isa.OpCopy}
var transformOps = []isa.Op{isa.OpNTT, isa.OpINTT}

func uniform(ops []isa.Op, t Timing) map[isa.Op]Timing {
	m := make(map[isa.Op]Timing, len(ops))
	for _, op := range ops {
		m[op] = t
	}
	return m
}

// Example returns the canonical "example" model: add/sub/mul/mac/maci/muli
// at (8192, 8192), ntt/intt at (8192*6, 8192*6).
func Example() *Model {
	m := &Model{Name: "example"}
	m.InstructionPerf = uniform(arithmeticOps, Timing{Throughput: 8192, Latency: 8192})
	for _, op := range transformOps {
		m.InstructionPerf[op] = Timing{Throughput: 8192 * 6, Latency: 8192 * 6}
	}
	m.MemoryPerf = map[Tier]Timing{
		Register:    {Throughput: 1, Latency: 1},
		Cache:       {Throughput: 1, Latency: 4},
		MemoryCache: {Throughput: 1, Latency: 16},
		Memory:      {Throughput: 1, Latency: 64},
	}
	m.MemoryCapacity = map[Tier]int{
		Register:    32,
		Cache:       1024,
		MemoryCache: 1 << 20,
		Memory:      1 << 30,
	}
	return m
}

// Model1 returns the canonical "model1" model: arithmetic at (1, 6),
// NTT/iNTT at (1, 33).
func Model1() *Model {
	m := &Model{Name: "model1"}
	m.InstructionPerf = uniform(arithmeticOps, Timing{Throughput: 1, Latency: 6})
	for _, op := range transformOps {
		m.InstructionPerf[op] = Timing{Throughput: 1, Latency: 33}
	}
	m.MemoryPerf = map[Tier]Timing{
		Register:    {Throughput: 1, Latency: 1},
		Cache:       {Throughput: 1, Latency: 2},
		MemoryCache: {Throughput: 1, Latency: 8},
		Memory:      {Throughput: 1, Latency: 32},
	}
	m.MemoryCapacity = map[Tier]int{
		Register:    32,
		Cache:       1024,
		MemoryCache: 1 << 20,
		Memory:      1 << 30,
	}
	return m
}

// Registry is a name -> constructor mapping for hardware models, the
// scheduler counterpart to isa.Registry (spec.md §9's "RegistryContext"
// design note applies here too).
type Registry struct {
	constructors map[string]func() *Model
}

// NewRegistry returns a Registry pre-populated with the two canonical
// models, "example" and "model1".
func NewRegistry() *Registry {
	return &Registry{constructors: map[string]func() *Model{
		"example": Example,
		"model1":  Model1,
	}}
}

// Register adds or replaces a named model constructor.
func (r *Registry) Register(name string, ctor func() *Model) {
	r.constructors[name] = ctor
}

// Get constructs the named model, and reports whether name was known.
func (r *Registry) Get(name string) (*Model, bool) {
	ctor, ok := r.constructors[name]
	if !ok {
		return nil, false
	}
	return ctor(), true
}
