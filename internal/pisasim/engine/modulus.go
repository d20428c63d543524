// Package engine is the functional execution engine: decode + execute for
// every P-ISA instruction variant against a Memory, a Modulus Chain, and
// Twiddle Tables.
package engine

import (
	"strconv"

	"github.com/pisa-sim/pisa-sim/internal/pisasim/diag"
)

// ModulusChain is an ordered sequence of moduli, indexed by an
// instruction's residue field. Write-once before execution, read-only
// during it.
type ModulusChain []uint32

// At returns the modulus at index residue, failing with
// ErrMissingReference if residue is out of bounds.
func (c ModulusChain) At(residue int) (uint32, error) {
	if residue < 0 || residue >= len(c) {
		return 0, diag.New(diag.ErrMissingReference,
			"residue %d is out of bounds for modulus chain of length %d", residue, len(c))
	}
	return c[residue], nil
}

// TwiddleTable is the NTT twiddle table: a sequence indexed by residue,
// each a sequence of twiddle factors of length 2^(PMD-1).
type TwiddleTable [][]uint32

// At returns the twiddle factor at twiddle_ntt[residue][k], failing with
// ErrMissingReference if residue or k is out of range.
func (t TwiddleTable) At(residue, k int) (uint32, error) {
	if residue < 0 || residue >= len(t) {
		return 0, diag.New(diag.ErrMissingReference,
			"residue %d has no NTT twiddle table entry", residue)
	}
	row := t[residue]
	if k < 0 || k >= len(row) {
		return 0, diag.New(diag.ErrMissingReference,
			"twiddle index %d out of range for NTT residue %d (length %d)", k, residue, len(row))
	}
	return row[k], nil
}

// INTTTwiddleTables is a mapping from galois-element string (canonical
// key "1") to a per-residue sequence identical in shape to TwiddleTable.
type INTTTwiddleTables map[string]TwiddleTable

// At returns the twiddle factor at twiddle_intt[str(galois)][residue][k],
// failing with ErrMissingReference if the galois key, residue, or k is
// missing.
func (t INTTTwiddleTables) At(galois, residue, k int) (uint32, error) {
	key := strconv.Itoa(galois)
	table, ok := t[key]
	if !ok {
		return 0, diag.New(diag.ErrMissingReference, "missing iNTT galois-element key %q", key)
	}
	return table.At(residue, k)
}
