// Package dump implements the line-oriented CSV memory-dump format: a
// readback-compatible serialization of the modulus chain, twiddle
// tables, and memory contents, per spec.md §6.
package dump

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pisa-sim/pisa-sim/internal/pisasim/diag"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/engine"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/memory"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/register"
)

// State is everything a dump round-trips: the modulus chain, the NTT and
// iNTT twiddle tables, and the memory contents.
type State struct {
	Modulus     engine.ModulusChain
	TwiddleNTT  engine.TwiddleTable
	TwiddleINTT engine.INTTTwiddleTables
	Memory      *memory.Memory
}

func writeCSVRow(w *bufio.Writer, fields ...string) error {
	_, err := w.WriteString(strings.Join(fields, ",") + "\n")
	return err
}

func valuesToFields(vs []uint32) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = strconv.FormatUint(uint64(v), 10)
	}
	return out
}

// Write serializes s to sink in the spec.md §6 line format.
func Write(sink io.Writer, s *State) error {
	w := bufio.NewWriter(sink)

	if err := writeCSVRow(w, append([]string{"modulus_chain"}, valuesToFields(s.Modulus)...)...); err != nil {
		return diag.Wrap(diag.ErrUnknown, err, "dump: write modulus_chain")
	}
	for residue, row := range s.TwiddleNTT {
		fields := append([]string{"ntt", strconv.Itoa(residue)}, valuesToFields(row)...)
		if err := writeCSVRow(w, fields...); err != nil {
			return diag.Wrap(diag.ErrUnknown, err, "dump: write ntt row")
		}
	}
	for galois, table := range s.TwiddleINTT {
		for residue, row := range table {
			fields := append([]string{"intt", galois, strconv.Itoa(residue)}, valuesToFields(row)...)
			if err := writeCSVRow(w, fields...); err != nil {
				return diag.Wrap(diag.ErrUnknown, err, "dump: write intt row")
			}
		}
	}
	for _, loc := range s.Memory.Locations() {
		r := s.Memory.Read(loc)
		fields := append([]string{"memory", loc}, valuesToFields(r.Data())...)
		if err := writeCSVRow(w, fields...); err != nil {
			return diag.Wrap(diag.ErrUnknown, err, "dump: write memory row")
		}
	}
	return w.Flush()
}

// parseUints parses every field as a base-10 uint32. Spec.md §9 flags
// that the original tool's dump reader used signed parsing even for
// values that can exceed 2^31; this parser uses ParseUint throughout so
// dumps containing such values round-trip faithfully.
func parseUints(fields []string, context string) ([]uint32, error) {
	out := make([]uint32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return nil, diag.Wrap(diag.ErrMalformedInstruction, err, "%s: field %d (%q) is not a valid unsigned value", context, i, f)
		}
		out[i] = uint32(v)
	}
	return out, nil
}

// Read deserializes a dump in the spec.md §6 format from src, with
// registerWidth used for the returned Memory's auto-resize width.
func Read(src io.Reader, registerWidth int) (*State, error) {
	s := &State{
		TwiddleINTT: make(engine.INTTTwiddleTables),
		Memory:      memory.New(registerWidth),
	}

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		tag, rest := fields[0], fields[1:]
		switch tag {
		case "modulus_chain":
			vs, err := parseUints(rest, fmt.Sprintf("line %d", lineNo))
			if err != nil {
				return nil, err
			}
			s.Modulus = engine.ModulusChain(vs)
		case "ntt":
			if len(rest) < 1 {
				return nil, diag.New(diag.ErrMalformedInstruction, "line %d: ntt row missing residue", lineNo)
			}
			residue, err := strconv.Atoi(rest[0])
			if err != nil {
				return nil, diag.Wrap(diag.ErrMalformedInstruction, err, "line %d: ntt residue", lineNo)
			}
			vs, err := parseUints(rest[1:], fmt.Sprintf("line %d", lineNo))
			if err != nil {
				return nil, err
			}
			for len(s.TwiddleNTT) <= residue {
				s.TwiddleNTT = append(s.TwiddleNTT, nil)
			}
			s.TwiddleNTT[residue] = vs
		case "intt":
			if len(rest) < 2 {
				return nil, diag.New(diag.ErrMalformedInstruction, "line %d: intt row missing galois/residue", lineNo)
			}
			galois := rest[0]
			residue, err := strconv.Atoi(rest[1])
			if err != nil {
				return nil, diag.Wrap(diag.ErrMalformedInstruction, err, "line %d: intt residue", lineNo)
			}
			vs, err := parseUints(rest[2:], fmt.Sprintf("line %d", lineNo))
			if err != nil {
				return nil, err
			}
			table := s.TwiddleINTT[galois]
			for len(table) <= residue {
				table = append(table, nil)
			}
			table[residue] = vs
			s.TwiddleINTT[galois] = table
		case "memory":
			if len(rest) < 1 {
				return nil, diag.New(diag.ErrMalformedInstruction, "line %d: memory row missing location", lineNo)
			}
			loc := rest[0]
			vs, err := parseUints(rest[1:], fmt.Sprintf("line %d", lineNo))
			if err != nil {
				return nil, err
			}
			s.Memory.Write(loc, register.FromSlice(vs))
		default:
			return nil, diag.New(diag.ErrMalformedInstruction, "line %d: unknown dump row tag %q", lineNo, tag)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, diag.Wrap(diag.ErrUnknown, err, "dump: scan failed")
	}
	return s, nil
}
