package pisasim

import (
	"io"
	"strings"

	"github.com/pisa-sim/pisa-sim/internal/pisasim/isa"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/testvectors"
)

// DecodeProgram decodes a sequence of CSV-style instruction lines (one
// instruction per line, comma-separated fields) into an instruction
// stream, using the canonical opcode Registry. Blank lines are skipped so
// callers can pass a file split on "\n" without trimming a trailing
// newline first.
func DecodeProgram(lines []string) ([]*Instruction, error) {
	reg := isa.NewRegistry()
	instrs := make([]*Instruction, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		in, err := reg.Decode(strings.Split(line, ","))
		if err != nil {
			return nil, err
		}
		instrs = append(instrs, in)
	}
	return instrs, nil
}

// EncodeProgram is the inverse of DecodeProgram: it renders an
// instruction stream back to CSV lines, one instruction per line.
func EncodeProgram(instrs []*Instruction) ([]string, error) {
	reg := isa.NewRegistry()
	lines := make([]string, 0, len(instrs))
	for _, in := range instrs {
		fields, err := reg.Encode(in)
		if err != nil {
			return nil, err
		}
		lines = append(lines, strings.Join(fields, ","))
	}
	return lines, nil
}

// LoadTestVectors decodes an external JSON test-vector document (modulus
// chain, inputs, immediates, twiddle tables, and expected outputs).
func LoadTestVectors(r io.Reader) (*Document, error) {
	return testvectors.Load(r)
}
