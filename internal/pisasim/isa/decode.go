package isa

import (
	"strconv"

	"github.com/pisa-sim/pisa-sim/internal/pisasim/diag"
)

// Field layout. spec.md §4.C describes the textual form as
// "<stage/group/block prefix>, <op>, <operands…>, <residue[, extras]>".
// Combined with the per-variant schema table in spec.md §3 (which lists
// PMD as a per-instruction attribute) and the field ordering used by the
// original tool's InstructionDesc arrays (PMD first, then op name, then
// operands), the field layout adopted here — recorded as an Open
// Question resolution in DESIGN.md — is:
//
//	PMD, group_id, stage, block, op, <operand fields...>, [residue], [extras...]
const (
	pmdIndex     = 0
	groupIDIndex = 1
	stageIndex   = 2
	blockIndex   = 3
	opCodeIndex  = 4
	operandStart = 5
)

func atoi(field, what string) (int, error) {
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, diag.New(diag.ErrMalformedInstruction, "%s: expected integer, got %q", what, field)
	}
	return n, nil
}

func decodePrefix(fields []string) (pmd, group, stage, block int, err error) {
	if pmd, err = atoi(fields[pmdIndex], "pmd"); err != nil {
		return
	}
	if group, err = atoi(fields[groupIDIndex], "group_id"); err != nil {
		return
	}
	if stage, err = atoi(fields[stageIndex], "stage"); err != nil {
		return
	}
	if block, err = atoi(fields[blockIndex], "block"); err != nil {
		return
	}
	return
}

func requireFields(fields []string, n int, op Op) error {
	if len(fields) != n {
		return diag.New(diag.ErrMalformedInstruction,
			"%s: expected %d fields, got %d (%v)", op, n, len(fields), fields)
	}
	return nil
}

func (r *Registry) registerCanonical() {
	r.registerBinary(OpAdd, NewAdd)
	r.registerBinary(OpSub, NewSub)
	r.registerBinary(OpMul, NewMul)
	r.registerMac()
	r.registerMaci()
	r.registerMuli()
	r.registerCopy()
	r.registerNTT()
	r.registerINTT()
}

type binaryCtor func(pmd int, out, a, b Operand, residue int) *Instruction

func (r *Registry) registerBinary(op Op, ctor binaryCtor) {
	r.register(op,
		func(fields []string) (*Instruction, error) {
			if err := requireFields(fields, operandStart+4, op); err != nil {
				return nil, err
			}
			pmd, group, stage, block, err := decodePrefix(fields)
			if err != nil {
				return nil, err
			}
			residue, err := atoi(fields[operandStart+3], "residue")
			if err != nil {
				return nil, err
			}
			in := ctor(pmd,
				NewOperand(fields[operandStart]),
				NewOperand(fields[operandStart+1]),
				NewOperand(fields[operandStart+2]),
				residue)
			in.GroupID, in.Stage, in.Block = group, stage, block
			return in, nil
		},
		func(in *Instruction) []string {
			return []string{
				strconv.Itoa(in.PMD), strconv.Itoa(in.GroupID), strconv.Itoa(in.Stage), strconv.Itoa(in.Block),
				string(op),
				in.Outputs[0].String(), in.Inputs[0].String(), in.Inputs[1].String(),
				strconv.Itoa(in.Residue),
			}
		})
}

func (r *Registry) registerMac() {
	r.register(OpMac,
		func(fields []string) (*Instruction, error) {
			if err := requireFields(fields, operandStart+4, OpMac); err != nil {
				return nil, err
			}
			pmd, group, stage, block, err := decodePrefix(fields)
			if err != nil {
				return nil, err
			}
			residue, err := atoi(fields[operandStart+3], "residue")
			if err != nil {
				return nil, err
			}
			in := NewMac(pmd,
				NewOperand(fields[operandStart]),
				NewOperand(fields[operandStart+1]),
				NewOperand(fields[operandStart+2]),
				residue)
			in.GroupID, in.Stage, in.Block = group, stage, block
			return in, nil
		},
		func(in *Instruction) []string {
			return []string{
				strconv.Itoa(in.PMD), strconv.Itoa(in.GroupID), strconv.Itoa(in.Stage), strconv.Itoa(in.Block),
				string(OpMac),
				in.Outputs[0].String(), in.Inputs[1].String(), in.Inputs[2].String(),
				strconv.Itoa(in.Residue),
			}
		})
}

func (r *Registry) registerMaci() {
	r.register(OpMaci,
		func(fields []string) (*Instruction, error) {
			if err := requireFields(fields, operandStart+4, OpMaci); err != nil {
				return nil, err
			}
			pmd, group, stage, block, err := decodePrefix(fields)
			if err != nil {
				return nil, err
			}
			residue, err := atoi(fields[operandStart+3], "residue")
			if err != nil {
				return nil, err
			}
			in := NewMaci(pmd,
				NewOperand(fields[operandStart]),
				NewOperand(fields[operandStart+1]),
				NewImmediateOperand(fields[operandStart+2]),
				residue)
			in.GroupID, in.Stage, in.Block = group, stage, block
			return in, nil
		},
		func(in *Instruction) []string {
			return []string{
				strconv.Itoa(in.PMD), strconv.Itoa(in.GroupID), strconv.Itoa(in.Stage), strconv.Itoa(in.Block),
				string(OpMaci),
				in.Outputs[0].String(), in.Inputs[1].String(), in.Inputs[2].String(),
				strconv.Itoa(in.Residue),
			}
		})
}

func (r *Registry) registerMuli() {
	r.register(OpMuli,
		func(fields []string) (*Instruction, error) {
			if err := requireFields(fields, operandStart+4, OpMuli); err != nil {
				return nil, err
			}
			pmd, group, stage, block, err := decodePrefix(fields)
			if err != nil {
				return nil, err
			}
			residue, err := atoi(fields[operandStart+3], "residue")
			if err != nil {
				return nil, err
			}
			in := NewMuli(pmd,
				NewOperand(fields[operandStart]),
				NewOperand(fields[operandStart+1]),
				NewImmediateOperand(fields[operandStart+2]),
				residue)
			in.GroupID, in.Stage, in.Block = group, stage, block
			return in, nil
		},
		func(in *Instruction) []string {
			return []string{
				strconv.Itoa(in.PMD), strconv.Itoa(in.GroupID), strconv.Itoa(in.Stage), strconv.Itoa(in.Block),
				string(OpMuli),
				in.Outputs[0].String(), in.Inputs[0].String(), in.Inputs[1].String(),
				strconv.Itoa(in.Residue),
			}
		})
}

func (r *Registry) registerCopy() {
	r.register(OpCopy,
		func(fields []string) (*Instruction, error) {
			if err := requireFields(fields, operandStart+2, OpCopy); err != nil {
				return nil, err
			}
			pmd, group, stage, block, err := decodePrefix(fields)
			if err != nil {
				return nil, err
			}
			in := NewCopy(NewOperand(fields[operandStart]), NewOperand(fields[operandStart+1]))
			in.PMD = pmd
			in.GroupID, in.Stage, in.Block = group, stage, block
			return in, nil
		},
		func(in *Instruction) []string {
			return []string{
				strconv.Itoa(in.PMD), strconv.Itoa(in.GroupID), strconv.Itoa(in.Stage), strconv.Itoa(in.Block),
				string(OpCopy),
				in.Outputs[0].String(), in.Inputs[0].String(),
			}
		})
}

func (r *Registry) registerNTT() {
	r.register(OpNTT,
		func(fields []string) (*Instruction, error) {
			if err := requireFields(fields, operandStart+6, OpNTT); err != nil {
				return nil, err
			}
			pmd, group, _, _, err := decodePrefix(fields)
			if err != nil {
				return nil, err
			}
			w, err := ParseWParam(fields[operandStart+4])
			if err != nil {
				return nil, err
			}
			residue, err := atoi(fields[operandStart+5], "residue")
			if err != nil {
				return nil, err
			}
			in := NewNTT(pmd,
				NewOperand(fields[operandStart]), NewOperand(fields[operandStart+1]),
				NewOperand(fields[operandStart+2]), NewOperand(fields[operandStart+3]),
				w, residue)
			in.GroupID = group
			return in, nil
		},
		func(in *Instruction) []string {
			return []string{
				strconv.Itoa(in.PMD), strconv.Itoa(in.GroupID), strconv.Itoa(in.Stage), strconv.Itoa(in.Block),
				string(OpNTT),
				in.Outputs[0].String(), in.Outputs[1].String(),
				in.Inputs[0].String(), in.Inputs[1].String(),
				in.WParam.String(), strconv.Itoa(in.Residue),
			}
		})
}

func (r *Registry) registerINTT() {
	r.register(OpINTT,
		func(fields []string) (*Instruction, error) {
			if err := requireFields(fields, operandStart+7, OpINTT); err != nil {
				return nil, err
			}
			pmd, group, _, _, err := decodePrefix(fields)
			if err != nil {
				return nil, err
			}
			w, err := ParseWParam(fields[operandStart+4])
			if err != nil {
				return nil, err
			}
			residue, err := atoi(fields[operandStart+5], "residue")
			if err != nil {
				return nil, err
			}
			galois, err := atoi(fields[operandStart+6], "galois_element")
			if err != nil {
				return nil, err
			}
			in := NewINTT(pmd,
				NewOperand(fields[operandStart]), NewOperand(fields[operandStart+1]),
				NewOperand(fields[operandStart+2]), NewOperand(fields[operandStart+3]),
				w, residue, galois)
			in.GroupID = group
			return in, nil
		},
		func(in *Instruction) []string {
			return []string{
				strconv.Itoa(in.PMD), strconv.Itoa(in.GroupID), strconv.Itoa(in.Stage), strconv.Itoa(in.Block),
				string(OpINTT),
				in.Outputs[0].String(), in.Outputs[1].String(),
				in.Inputs[0].String(), in.Inputs[1].String(),
				in.WParam.String(), strconv.Itoa(in.Residue), strconv.Itoa(in.Galois()),
			}
		})
}

// String renders an instruction back to its canonical CSV line (fields
// joined by ", "), using the default registry. An opcode outside the
// closed taxonomy renders as "<invalid instruction: ...>".
func (in *Instruction) String() string {
	fields, err := defaultRegistry.Encode(in)
	if err != nil {
		return "<invalid instruction: " + err.Error() + ">"
	}
	out := fields[0]
	for _, f := range fields[1:] {
		out += ", " + f
	}
	return out
}

var defaultRegistry = NewRegistry()
