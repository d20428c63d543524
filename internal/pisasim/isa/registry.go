package isa

import (
	"strings"

	"github.com/pisa-sim/pisa-sim/internal/pisasim/diag"
)

// Registry maps an operation name to the decoder/encoder responsible for
// that variant's CSV field schema. It plays the role spec.md's design
// notes (§9) ask of a "RegistryContext": a pure mapping constructed once
// and passed into the parser, replacing the original tool's static
// global InstructionMap (common/p_isa/p_isa.h) with an explicit,
// host-constructible value. Registration is internal to this package; a
// Registry holds exactly the canonical opcodes.
type Registry struct {
	variants map[Op]*variantDesc
}

type variantDesc struct {
	schema schema
	decode func(fields []string) (*Instruction, error)
	encode func(in *Instruction) []string
}

// NewRegistry constructs a Registry pre-populated with the closed set of
// canonical P-ISA operations.
func NewRegistry() *Registry {
	r := &Registry{variants: make(map[Op]*variantDesc)}
	r.registerCanonical()
	return r
}

func (r *Registry) register(op Op, decode func([]string) (*Instruction, error), encode func(*Instruction) []string) {
	r.variants[op] = &variantDesc{schema: schemas[op], decode: decode, encode: encode}
}

// Decode parses a CSV-style field list into an Instruction, dispatching on
// the opcode name at the fixed prefix position (see opCodeIndex). Fails
// with ErrMalformedInstruction for an unknown opcode, too few fields, or
// a non-numeric field where a number is required.
func (r *Registry) Decode(fields []string) (*Instruction, error) {
	fields = trimAll(fields)
	if len(fields) < opCodeIndex+1 {
		return nil, diag.New(diag.ErrMalformedInstruction, "instruction line has too few fields: %v", fields)
	}
	op := Op(fields[opCodeIndex])
	v, ok := r.variants[op]
	if !ok {
		return nil, diag.New(diag.ErrMalformedInstruction, "unknown opcode %q", fields[opCodeIndex])
	}
	in, err := v.decode(fields)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return in, nil
}

// Encode serializes in back to its canonical CSV field list, the inverse
// of Decode. Every variant round-trips: Decode(Encode(in)) is equal to in
// for any valid in.
func (r *Registry) Encode(in *Instruction) ([]string, error) {
	v, ok := r.variants[in.Op]
	if !ok {
		return nil, diag.New(diag.ErrMalformedInstruction, "unknown opcode %q", in.Op)
	}
	return v.encode(in), nil
}

func trimAll(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	return out
}
