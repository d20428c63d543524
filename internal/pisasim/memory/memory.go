// Package memory implements the Memory Model: a string-addressed map of
// register location to Multi-Register, with lazy allocation.
package memory

import (
	"sort"

	"github.com/pisa-sim/pisa-sim/internal/pisasim/diag"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/register"
)

// Memory is a mapping from register-location string to Multi-Register.
// Keys are unique; insertion order is irrelevant.
type Memory struct {
	registers    map[string]*register.Register
	registerWidth int
}

// New constructs an empty memory with the given register width. Width
// applies only to subsequent auto-resizes triggered by indexed access.
func New(registerWidth int) *Memory {
	return &Memory{
		registers:     make(map[string]*register.Register),
		registerWidth: registerWidth,
	}
}

// RegisterWidth returns the configured auto-resize width.
func (m *Memory) RegisterWidth() int {
	return m.registerWidth
}

// SetRegisterWidth changes the width used for subsequent auto-resizes.
// Existing entries are untouched.
func (m *Memory) SetRegisterWidth(w int) {
	m.registerWidth = w
}

// Read returns a reference to the register at loc, creating a
// zero-width entry on miss (read-or-create).
func (m *Memory) Read(loc string) *register.Register {
	r, ok := m.registers[loc]
	if !ok {
		fresh := register.New()
		r = &fresh
		m.registers[loc] = r
	}
	return r
}

// Write replaces or creates the register at loc.
func (m *Memory) Write(loc string, v register.Register) {
	if r, ok := m.registers[loc]; ok {
		*r = v
		return
	}
	vv := v
	m.registers[loc] = &vv
}

// Copy returns an owned duplicate of the register at loc. It fails
// (read-or-fail) if loc has never been written.
func (m *Memory) Copy(loc string) (register.Register, error) {
	r, ok := m.registers[loc]
	if !ok {
		return register.Register{}, diag.New(diag.ErrMissingReference,
			"copy: requested unallocated memory address %q", loc)
	}
	return r.Clone(), nil
}

// Index returns a reference to the register at loc, auto-resizing it to
// the configured register width if it is not already that width.
// Creates the entry on miss.
func (m *Memory) Index(loc string) *register.Register {
	r := m.Read(loc)
	if r.Len() != m.registerWidth {
		r.Resize(m.registerWidth)
	}
	return r
}

// Has reports whether loc has ever been read, written or indexed.
func (m *Memory) Has(loc string) bool {
	_, ok := m.registers[loc]
	return ok
}

// Locations returns every known register location, sorted for
// deterministic iteration (the original's unordered_map gave no
// guarantee; dump/readback round-tripping needs one).
func (m *Memory) Locations() []string {
	out := make([]string, 0, len(m.registers))
	for k := range m.registers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns an independent deep copy of the entire memory, used by
// the Instruction Trace and by dump/readback comparisons.
func (m *Memory) Snapshot() map[string]register.Register {
	out := make(map[string]register.Register, len(m.registers))
	for k, v := range m.registers {
		out[k] = v.Clone()
	}
	return out
}

// Equal reports whether m and other hold byte-identical register
// contents at every location either of them has ever touched.
func (m *Memory) Equal(other *Memory) bool {
	if len(m.registers) != len(other.registers) {
		return false
	}
	for loc, r := range m.registers {
		or, ok := other.registers[loc]
		if !ok || r.Len() != or.Len() {
			return false
		}
		for i := 0; i < r.Len(); i++ {
			if r.At(i) != or.At(i) {
				return false
			}
		}
	}
	return true
}
