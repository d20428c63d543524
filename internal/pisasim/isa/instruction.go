// Package isa defines the closed P-ISA instruction taxonomy: a uniform
// operand/attribute schema shared by every variant (add, sub, mul, mac,
// maci, muli, copy, ntt, intt), decode from CSV fields, and textual
// round-trip.
package isa

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pisa-sim/pisa-sim/internal/pisasim/diag"
)

// Op names one of the closed set of P-ISA operations.
type Op string

// The closed taxonomy of P-ISA operations.
const (
	OpAdd  Op = "add"
	OpSub  Op = "sub"
	OpMul  Op = "mul"
	OpMac  Op = "mac"
	OpMaci Op = "maci"
	OpMuli Op = "muli"
	OpCopy Op = "copy"
	OpNTT  Op = "ntt"
	OpINTT Op = "intt"
)

// WParam packs (residue, stage, block), the NTT/iNTT-only attribute.
// Serialized as "w_<residue>_<stage>_<block>" per spec §6.
type WParam struct {
	Residue int
	Stage   int
	Block   int
}

// String renders the w-param in its packed textual form.
func (w WParam) String() string {
	return fmt.Sprintf("w_%d_%d_%d", w.Residue, w.Stage, w.Block)
}

// ParseWParam decodes a packed "w_<residue>_<stage>_<block>" string.
func ParseWParam(s string) (WParam, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "_")
	if len(parts) != 4 || parts[0] != "w" {
		return WParam{}, diag.New(diag.ErrMalformedInstruction, "malformed w-param: %q", s)
	}
	residue, err1 := strconv.Atoi(parts[1])
	stage, err2 := strconv.Atoi(parts[2])
	block, err3 := strconv.Atoi(parts[3])
	if err1 != nil || err2 != nil || err3 != nil {
		return WParam{}, diag.New(diag.ErrMalformedInstruction, "malformed w-param: %q", s)
	}
	return WParam{Residue: residue, Stage: stage, Block: block}, nil
}

// Instruction is the closed P-ISA instruction taxonomy: a tagged variant
// over Op with a uniform operand/attribute schema. Instructions are
// immutable once constructed, except for the late rename pass on
// intermediate register names (see package rename).
type Instruction struct {
	Op      Op
	Outputs []Operand
	Inputs  []Operand

	PMD     int // log2 ring dimension
	Residue int // index into the modulus chain

	WParam         WParam // NTT/iNTT only
	GaloisElement  int    // iNTT only; default 1
	hasGalois      bool

	GroupID int
	Stage   int
	Block   int
}

// schema describes the operand-count contract for one variant, per
// spec §3's per-variant operand schema table.
type schema struct {
	numOutputs int
	numInputs  int
	hasResidue bool
	hasWParam  bool
	hasGalois  bool
}

var schemas = map[Op]schema{
	OpAdd:  {numOutputs: 1, numInputs: 2, hasResidue: true},
	OpSub:  {numOutputs: 1, numInputs: 2, hasResidue: true},
	OpMul:  {numOutputs: 1, numInputs: 2, hasResidue: true},
	OpMac:  {numOutputs: 1, numInputs: 3, hasResidue: true},
	OpMaci: {numOutputs: 1, numInputs: 3, hasResidue: true},
	OpMuli: {numOutputs: 1, numInputs: 2, hasResidue: true},
	OpCopy: {numOutputs: 1, numInputs: 1},
	OpNTT:  {numOutputs: 2, numInputs: 2, hasResidue: true, hasWParam: true},
	OpINTT: {numOutputs: 2, numInputs: 2, hasResidue: true, hasWParam: true, hasGalois: true},
}

// Validate checks that the instruction conforms to its variant's operand
// schema (spec §3's operand table). mac/maci additionally require that
// the accumulator (first input) textually matches the sole output, since
// the instruction's input-output operand is the same register.
func (in *Instruction) Validate() error {
	s, ok := schemas[in.Op]
	if !ok {
		return diag.New(diag.ErrMalformedInstruction, "unknown opcode %q", in.Op)
	}
	if len(in.Outputs) != s.numOutputs {
		return diag.New(diag.ErrMalformedInstruction,
			"%s: expected %d output operand(s), got %d", in.Op, s.numOutputs, len(in.Outputs))
	}
	if len(in.Inputs) != s.numInputs {
		return diag.New(diag.ErrMalformedInstruction,
			"%s: expected %d input operand(s), got %d", in.Op, s.numInputs, len(in.Inputs))
	}
	switch in.Op {
	case OpMac:
		if len(in.Inputs) > 0 && in.Inputs[0].Location != in.Outputs[0].Location {
			return diag.New(diag.ErrMalformedInstruction, "mac: accumulator input must alias the output")
		}
	case OpMaci:
		if len(in.Inputs) > 0 && in.Inputs[0].Location != in.Outputs[0].Location {
			return diag.New(diag.ErrMalformedInstruction, "maci: accumulator input must alias the output")
		}
		if len(in.Inputs) > 2 && !in.Inputs[2].Immediate {
			return diag.New(diag.ErrMalformedInstruction, "maci: third input must be an immediate")
		}
	case OpMuli:
		if len(in.Inputs) > 1 && !in.Inputs[1].Immediate {
			return diag.New(diag.ErrMalformedInstruction, "muli: second input must be an immediate")
		}
	}
	return nil
}

// Galois returns the instruction's galois-element, defaulting to 1 (the
// canonical key) when unset, per spec §3.
func (in *Instruction) Galois() int {
	if !in.hasGalois {
		return 1
	}
	return in.GaloisElement
}

// SetGalois sets the galois-element explicitly.
func (in *Instruction) SetGalois(g int) {
	in.GaloisElement = g
	in.hasGalois = true
}

// NewAdd, NewSub, NewMul construct the three binary residue ops.
func newBinary(op Op, pmd int, out, a, b Operand, residue int) *Instruction {
	return &Instruction{
		Op:      op,
		Outputs: []Operand{out},
		Inputs:  []Operand{a, b},
		PMD:     pmd,
		Residue: residue,
	}
}

// NewAdd constructs an add instruction: dst = (src1+src2) mod chain[residue].
func NewAdd(pmd int, out, a, b Operand, residue int) *Instruction {
	return newBinary(OpAdd, pmd, out, a, b, residue)
}

// NewSub constructs a sub instruction: dst = (src1-src2) mod chain[residue].
func NewSub(pmd int, out, a, b Operand, residue int) *Instruction {
	return newBinary(OpSub, pmd, out, a, b, residue)
}

// NewMul constructs a mul instruction: dst = (src1*src2) mod chain[residue].
func NewMul(pmd int, out, a, b Operand, residue int) *Instruction {
	return newBinary(OpMul, pmd, out, a, b, residue)
}

// NewMac constructs a multiply-accumulate instruction; dst is both the
// accumulator input and the output.
func NewMac(pmd int, dst, a, b Operand, residue int) *Instruction {
	return &Instruction{
		Op:      OpMac,
		Outputs: []Operand{dst},
		Inputs:  []Operand{dst, a, b},
		PMD:     pmd,
		Residue: residue,
	}
}

// NewMaci constructs a multiply-accumulate-immediate instruction.
func NewMaci(pmd int, dst, a, imm Operand, residue int) *Instruction {
	imm.Immediate = true
	return &Instruction{
		Op:      OpMaci,
		Outputs: []Operand{dst},
		Inputs:  []Operand{dst, a, imm},
		PMD:     pmd,
		Residue: residue,
	}
}

// NewMuli constructs a multiply-immediate instruction.
func NewMuli(pmd int, out, a, imm Operand, residue int) *Instruction {
	imm.Immediate = true
	return &Instruction{
		Op:      OpMuli,
		Outputs: []Operand{out},
		Inputs:  []Operand{a, imm},
		PMD:     pmd,
		Residue: residue,
	}
}

// NewCopy constructs a full-register copy instruction.
func NewCopy(out, src Operand) *Instruction {
	return &Instruction{Op: OpCopy, Outputs: []Operand{out}, Inputs: []Operand{src}}
}

// NewNTT constructs one stage of a forward NTT butterfly.
func NewNTT(pmd int, dstTop, dstBot, srcTop, srcBot Operand, w WParam, residue int) *Instruction {
	return &Instruction{
		Op:      OpNTT,
		Outputs: []Operand{dstTop, dstBot},
		Inputs:  []Operand{srcTop, srcBot},
		PMD:     pmd,
		Residue: residue,
		WParam:  w,
		Stage:   w.Stage,
		Block:   w.Block,
	}
}

// NewINTT constructs one stage of an inverse NTT butterfly.
func NewINTT(pmd int, dstTop, dstBot, srcTop, srcBot Operand, w WParam, residue, galois int) *Instruction {
	in := &Instruction{
		Op:      OpINTT,
		Outputs: []Operand{dstTop, dstBot},
		Inputs:  []Operand{srcTop, srcBot},
		PMD:     pmd,
		Residue: residue,
		WParam:  w,
		Stage:   w.Stage,
		Block:   w.Block,
	}
	in.SetGalois(galois)
	return in
}
