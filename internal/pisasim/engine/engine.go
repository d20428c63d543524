package engine

import (
	"os"
	"sync"

	"github.com/pisa-sim/pisa-sim/internal/pisasim/diag"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/isa"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/memory"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/parallel"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/register"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/trace"
)

// firstError collects the first error raised by concurrent lanes of a
// parallel.For dispatch, so a per-element debug-mode precondition
// violation (spec §4.D/§7) can fail the whole instruction.
type firstError struct {
	mu  sync.Mutex
	err error
}

func (f *firstError) set(err error) {
	if err == nil {
		return
	}
	f.mu.Lock()
	if f.err == nil {
		f.err = err
	}
	f.mu.Unlock()
}

func (f *firstError) get() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Config controls engine behavior that is orthogonal to the instruction
// stream itself.
type Config struct {
	// Parallelism bounds the number of goroutines the engine's
	// elementwise dispatch uses per instruction. <=1 runs sequentially.
	Parallelism int
	// Debug enables the stricter, fail-fast precondition checks spec §4.D
	// calls out for Montgomery add (pre-reduced sum out of [0, 2*modulus)).
	Debug bool
}

// Hook is called after every successfully executed instruction, letting a
// caller observe engine state.
type Hook func(in *isa.Instruction, mem *memory.Memory)

// Engine is the Functional Execution Engine: it decodes nothing itself
// (that's package isa's job) and instead executes already-decoded
// instructions against a Memory, a residue-indexed ModulusChain, and the
// NTT/iNTT twiddle tables.
type Engine struct {
	Memory      *memory.Memory
	Modulus     ModulusChain
	TwiddleNTT  TwiddleTable
	TwiddleINTT INTTTwiddleTables
	Config      Config

	OnExecute Hook
	// Trace, if non-nil, is notified before and after every instruction.
	// It is a no-op observer unless Trace.Enable has been called.
	Trace *trace.Trace
}

// New constructs an engine over mem, with no twiddle tables or modulus
// chain configured; callers must set those before executing any
// arithmetic or transform instruction.
func New(mem *memory.Memory, cfg Config) *Engine {
	return &Engine{Memory: mem, Config: cfg}
}

// Execute dispatches a single decoded instruction by opcode.
func (e *Engine) Execute(in *isa.Instruction) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if e.Trace != nil {
		e.Trace.Begin(in, e.Memory)
	}
	var err error
	switch in.Op {
	case isa.OpAdd:
		err = e.execResidueBinary(in, e.addElem)
	case isa.OpSub:
		err = e.execResidueBinary(in, e.subElem)
	case isa.OpMul:
		err = e.execResidueBinary(in, e.mulElem)
	case isa.OpMac:
		err = e.execMac(in)
	case isa.OpMaci:
		err = e.execMaci(in)
	case isa.OpMuli:
		err = e.execMuli(in)
	case isa.OpCopy:
		err = e.execCopy(in)
	case isa.OpNTT:
		err = e.execNTT(in)
	case isa.OpINTT:
		err = e.execINTT(in)
	default:
		return diag.New(diag.ErrMalformedInstruction, "unsupported opcode %q", in.Op)
	}
	if err != nil {
		if e.Trace != nil && e.Trace.Enabled() {
			if flushErr := e.Trace.Flush(os.Stderr); flushErr != nil {
				diag.Logger.WithError(flushErr).Error("failed to flush instruction trace on fatal error")
			}
		}
		return err
	}
	if e.Trace != nil {
		e.Trace.End(e.Memory)
	}
	if e.OnExecute != nil {
		e.OnExecute(in, e.Memory)
	}
	return nil
}

// readImmediate resolves an immediate operand through Memory like any
// other operand, per spec §4.D ("the immediate is a width-1 register")
// and §4.J ("write a width-1 register at the immediate's name"). A
// register whose width isn't exactly 1 is the spec's "Unsupported
// configuration" fatal (§7), not a malformed instruction.
func (e *Engine) readImmediate(op isa.Operand) (uint32, error) {
	// Read, not Index: an immediate register must stay width 1 regardless
	// of the engine's configured auto-resize width.
	r := e.Memory.Read(op.Location)
	if r.Len() != 1 {
		return 0, diag.New(diag.ErrUnsupportedConfiguration,
			"immediate %q has width %d, expected 1", op.Location, r.Len())
	}
	return r.At(0), nil
}

type elemOp func(a, b, mod uint32) (uint32, error)

func (e *Engine) addElem(a, b, mod uint32) (uint32, error) {
	return register.MontgomeryAddElemChecked(a, b, mod, e.Config.Debug)
}
func (e *Engine) subElem(a, b, mod uint32) (uint32, error) {
	return register.MontgomeryAddElemChecked(a, mod-b, mod, e.Config.Debug)
}
func (e *Engine) mulElem(a, b, mod uint32) (uint32, error) {
	return register.MontgomeryReduceProduct(uint64(a)*uint64(b), mod), nil
}

// execResidueBinary runs the shared elementwise dispatch for add/sub/mul:
// dst[i] = op(a[i], b[i], modulus), for every lane i.
func (e *Engine) execResidueBinary(in *isa.Instruction, op elemOp) error {
	mod, err := e.Modulus.At(in.Residue)
	if err != nil {
		return err
	}
	a := e.Memory.Index(in.Inputs[0].Location)
	b := e.Memory.Index(in.Inputs[1].Location)
	if a.Len() != b.Len() {
		return diag.New(diag.ErrWidthMismatch, "%s: operand widths differ (%d vs %d)", in.Op, a.Len(), b.Len())
	}
	out := register.WithLength(a.Len())
	var errs firstError
	parallel.For(a.Len(), e.Config.Parallelism, func(i int) {
		v, err := op(a.At(i), b.At(i), mod)
		if err != nil {
			errs.set(err)
			return
		}
		out.Set(i, v)
	})
	if err := errs.get(); err != nil {
		return err
	}
	e.Memory.Write(in.Outputs[0].Location, out)
	return nil
}

// execMac performs dst += (a*b) mod modulus, accumulating in place: the
// sole output also names the accumulator input (Validate enforces this
// aliasing).
func (e *Engine) execMac(in *isa.Instruction) error {
	mod, err := e.Modulus.At(in.Residue)
	if err != nil {
		return err
	}
	acc := e.Memory.Index(in.Inputs[0].Location)
	a := e.Memory.Index(in.Inputs[1].Location)
	b := e.Memory.Index(in.Inputs[2].Location)
	if acc.Len() != a.Len() || a.Len() != b.Len() {
		return diag.New(diag.ErrWidthMismatch, "mac: operand widths differ")
	}
	out := register.WithLength(acc.Len())
	var errs firstError
	parallel.For(acc.Len(), e.Config.Parallelism, func(i int) {
		prod := register.MontgomeryReduceProduct(uint64(a.At(i))*uint64(b.At(i)), mod)
		v, err := register.MontgomeryAddElemChecked(acc.At(i), prod, mod, e.Config.Debug)
		if err != nil {
			errs.set(err)
			return
		}
		out.Set(i, v)
	})
	if err := errs.get(); err != nil {
		return err
	}
	e.Memory.Write(in.Outputs[0].Location, out)
	return nil
}

// execMaci performs dst += (a*imm) mod modulus.
func (e *Engine) execMaci(in *isa.Instruction) error {
	mod, err := e.Modulus.At(in.Residue)
	if err != nil {
		return err
	}
	acc := e.Memory.Index(in.Inputs[0].Location)
	a := e.Memory.Index(in.Inputs[1].Location)
	if acc.Len() != a.Len() {
		return diag.New(diag.ErrWidthMismatch, "maci: operand widths differ")
	}
	imm, err := e.readImmediate(in.Inputs[2])
	if err != nil {
		return err
	}
	out := register.WithLength(acc.Len())
	var errs firstError
	parallel.For(acc.Len(), e.Config.Parallelism, func(i int) {
		prod := register.MontgomeryReduceProduct(uint64(a.At(i))*uint64(imm), mod)
		v, err := register.MontgomeryAddElemChecked(acc.At(i), prod, mod, e.Config.Debug)
		if err != nil {
			errs.set(err)
			return
		}
		out.Set(i, v)
	})
	if err := errs.get(); err != nil {
		return err
	}
	e.Memory.Write(in.Outputs[0].Location, out)
	return nil
}

// execMuli performs dst = (a*imm) mod modulus.
func (e *Engine) execMuli(in *isa.Instruction) error {
	mod, err := e.Modulus.At(in.Residue)
	if err != nil {
		return err
	}
	a := e.Memory.Index(in.Inputs[0].Location)
	imm, err := e.readImmediate(in.Inputs[1])
	if err != nil {
		return err
	}
	out := register.WithLength(a.Len())
	parallel.For(a.Len(), e.Config.Parallelism, func(i int) {
		out.Set(i, register.MontgomeryReduceProduct(uint64(a.At(i))*uint64(imm), mod))
	})
	e.Memory.Write(in.Outputs[0].Location, out)
	return nil
}

// execCopy duplicates a whole register, with no residue reduction and no
// width constraint beyond src/dst sharing whatever width src already has.
func (e *Engine) execCopy(in *isa.Instruction) error {
	src, err := e.Memory.Copy(in.Inputs[0].Location)
	if err != nil {
		return err
	}
	e.Memory.Write(in.Outputs[0].Location, src)
	return nil
}
