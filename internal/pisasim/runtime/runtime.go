// Package runtime implements the Program Runtime: the orchestration layer
// that wires a modulus chain and twiddle tables into an engine.Engine,
// partitions test-vector inputs into device registers, executes a
// program linearly or layer-by-layer, and validates outputs against
// expected values, per spec.md §4.J.
package runtime

import (
	"sort"
	"sync"

	"github.com/pisa-sim/pisa-sim/internal/pisasim/diag"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/engine"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/graph"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/isa"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/memory"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/register"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/testvectors"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/trace"
)

// Runtime owns one Memory and the engine that executes against it. A new
// program requires constructing a new Runtime (spec.md §3's lifecycle
// note: "a new program requires reconstructing the runtime").
type Runtime struct {
	Config *Config
	Engine *engine.Engine
	Memory *memory.Memory
}

// New constructs a Runtime from cfg. cfg.Validate is not called here;
// callers that accept configuration from an external source should call
// it themselves.
func New(cfg *Config) *Runtime {
	mem := memory.New(cfg.RegisterWidth)
	e := engine.New(mem, engine.Config{Parallelism: cfg.Parallelism, Debug: cfg.Debug})
	if cfg.Trace {
		e.Trace = trace.New()
		e.Trace.Enable()
	}
	return &Runtime{Config: cfg, Engine: e, Memory: mem}
}

// SetModulus installs the modulus chain. Per spec.md §3 this, and
// SetTwiddles, must happen before the first instruction that references
// them executes.
func (rt *Runtime) SetModulus(chain engine.ModulusChain) {
	rt.Engine.Modulus = chain
}

// SetTwiddles installs the NTT and iNTT twiddle tables.
func (rt *Runtime) SetTwiddles(ntt engine.TwiddleTable, intt engine.INTTTwiddleTables) {
	rt.Engine.TwiddleNTT = ntt
	rt.Engine.TwiddleINTT = intt
}

// LoadInputs partitions each two-param root's sequence into device
// registers of exactly the configured register width, per spec.md §4.J
// step 2. A sequence whose length isn't a multiple of the register width
// is an unsupported configuration.
func (rt *Runtime) LoadInputs(inputs map[string][]uint32) error {
	w := rt.Memory.RegisterWidth()
	for key, seq := range inputs {
		if w <= 0 || len(seq)%w != 0 {
			return diag.New(diag.ErrUnsupportedConfiguration,
				"input %q: length %d is not a multiple of register width %d", key, len(seq), w)
		}
		root, i, j, ok := isa.RootPair(key)
		if !ok {
			return diag.New(diag.ErrMalformedInstruction, "input %q is not a two-param root", key)
		}
		numSlices := len(seq) / w
		for s := 0; s < numSlices; s++ {
			loc := isa.DeviceSliceName(root, i, j, s)
			rt.Memory.Write(loc, register.FromSlice(seq[s*w:(s+1)*w]))
		}
	}
	return nil
}

// LoadImmediates writes a width-1 register at each immediate's name, per
// spec.md §4.J step 3.
func (rt *Runtime) LoadImmediates(immediates map[string][]uint32) error {
	for name, seq := range immediates {
		if len(seq) != 1 {
			return diag.New(diag.ErrUnsupportedConfiguration,
				"immediate %q has width %d, expected 1", name, len(seq))
		}
		rt.Memory.Write(name, register.FromSlice(seq))
	}
	return nil
}

// LoadDocument is a convenience that wires a testvectors.Document's
// modulus chain, twiddle tables, inputs, and immediates in one call,
// matching spec.md §4.J steps 1-3 in order.
func (rt *Runtime) LoadDocument(doc *testvectors.Document) error {
	rt.SetModulus(doc.Modulus())
	rt.SetTwiddles(doc.TwiddleNTT(), doc.TwiddleINTT())
	if err := rt.LoadInputs(doc.Inputs); err != nil {
		return err
	}
	return rt.LoadImmediates(doc.Immediates)
}

// ExecuteLinear runs instrs in input order, per spec.md §4.J step 4's
// linear mode.
func (rt *Runtime) ExecuteLinear(instrs []*isa.Instruction) error {
	for _, in := range instrs {
		if err := rt.Engine.Execute(in); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteLayered runs instrs layer-by-layer (spec.md §4.J step 4's
// layer-parallel mode): the dependency graph's layers are processed in
// order, and instructions within a layer are mutually independent by
// construction, so running them in parallel goroutines is equivalent to
// any sequential ordering of that layer (spec.md §5). If parallel is
// false, layers still define the execution order but instructions within
// a layer run sequentially.
func (rt *Runtime) ExecuteLayered(instrs []*isa.Instruction, parallel bool) error {
	g := graph.Build(instrs)
	for _, layer := range g.Layers() {
		var ops []*isa.Instruction
		for _, id := range layer {
			if n := g.Node(id); n.Kind == graph.Operation {
				ops = append(ops, n.Instruction)
			}
		}
		if len(ops) == 0 {
			continue
		}
		if !parallel {
			for _, in := range ops {
				if err := rt.Engine.Execute(in); err != nil {
					return err
				}
			}
			continue
		}
		errs := make([]error, len(ops))
		var wg sync.WaitGroup
		for i, in := range ops {
			wg.Add(1)
			go func(i int, in *isa.Instruction) {
				defer wg.Done()
				errs[i] = rt.Engine.Execute(in)
			}(i, in)
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// Readback reconstructs the full register for the two-param root named
// by key: it gathers every three-param device slice matching that root,
// sorts them by trailing slice index, and concatenates them, per
// spec.md §4.J step 5.
func (rt *Runtime) Readback(key string) (register.Register, error) {
	root, i, j, ok := isa.RootPair(key)
	if !ok {
		return register.Register{}, diag.New(diag.ErrMalformedInstruction, "readback key %q is not a two-param root", key)
	}
	var slices []int
	for _, loc := range rt.Memory.Locations() {
		r2, i2, j2, s2, ok2 := isa.RootSlice(loc)
		if ok2 && r2 == root && i2 == i && j2 == j {
			slices = append(slices, s2)
		}
	}
	if len(slices) == 0 {
		return register.Register{}, diag.New(diag.ErrMissingReference, "readback: no device slices found for root %q", key)
	}
	sort.Ints(slices)
	out := make([]uint32, 0, len(slices)*rt.Memory.RegisterWidth())
	for _, s := range slices {
		r := rt.Memory.Read(isa.DeviceSliceName(root, i, j, s))
		out = append(out, r.Data()...)
	}
	return register.FromSlice(out), nil
}
