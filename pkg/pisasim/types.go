package pisasim

import (
	"github.com/pisa-sim/pisa-sim/internal/pisasim/dump"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/engine"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/graph"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/hwmodel"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/isa"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/register"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/runtime"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/scheduler"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/testvectors"
)

// Register is a fixed-width Multi-Register of T = uint32 elements.
type Register = register.Register

// Instruction is one decoded P-ISA instruction.
type Instruction = isa.Instruction

// Op names one of the closed set of P-ISA operations.
type Op = isa.Op

// ModulusChain is an ordered sequence of moduli, indexed by residue.
type ModulusChain = engine.ModulusChain

// TwiddleTable is the NTT twiddle table, indexed by residue.
type TwiddleTable = engine.TwiddleTable

// INTTTwiddleTables is the iNTT twiddle table, keyed by galois-element.
type INTTTwiddleTables = engine.INTTTwiddleTables

// Config controls a Runtime's register width, debug mode, hardware-model
// selection, and tracing.
type Config = runtime.Config

// Runtime is the Program Runtime: it orchestrates a Memory, a Modulus
// Chain, Twiddle Tables, and the Functional Engine over a decoded
// instruction stream.
type Runtime = runtime.Runtime

// ValidationReport accumulates per-output validation results from a
// Runtime.Validate call.
type ValidationReport = runtime.ValidationReport

// Document is an external (JSON) test-vector document.
type Document = testvectors.Document

// DependencyGraph is the arena-based instruction dependency graph.
type DependencyGraph = graph.Graph

// HardwareModel is a pluggable per-opcode/memory-tier timing model for
// the scheduler.
type HardwareModel = hwmodel.Model

// ScheduleReport summarizes a completed scheduler run.
type ScheduleReport = scheduler.Report

// DumpState is everything a memory dump round-trips.
type DumpState = dump.State

// DefaultConfig returns the canonical deployment Config (register width
// 8192, the "example" hardware model, debug and trace off).
func DefaultConfig() *Config {
	return runtime.DefaultConfig()
}

// NewRuntime constructs a Runtime from cfg.
func NewRuntime(cfg *Config) *Runtime {
	return runtime.New(cfg)
}

// BuildGraph constructs the Dependency Graph for a decoded instruction
// stream.
func BuildGraph(instrs []*Instruction) *DependencyGraph {
	return graph.Build(instrs)
}

// Models returns a Registry pre-populated with the canonical hardware
// models ("example", "model1").
func Models() *hwmodel.Registry {
	return hwmodel.NewRegistry()
}

// Schedule runs the dual-queue cycle-accurate scheduler over g against
// model.
func Schedule(g *DependencyGraph, model *HardwareModel) *ScheduleReport {
	return scheduler.Schedule(g, model)
}
