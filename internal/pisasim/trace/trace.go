// Package trace implements the Instruction Trace: an optional observer of
// the Functional Engine that records, for every dispatched instruction,
// owned snapshots of its input operands (taken before execution) and its
// output operands (taken after execution).
package trace

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/crypto/sha3"

	"github.com/pisa-sim/pisa-sim/internal/pisasim/diag"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/isa"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/memory"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/register"
)

// Entry is one Instruction Trace entry: the instruction dispatched, plus
// owned copies of its non-immediate input registers before execution and
// its output registers after it (operands absent from memory are omitted).
type Entry struct {
	Instruction *isa.Instruction
	Inputs      map[string]register.Register
	Outputs     map[string]register.Register
}

// Trace is finite and restartable: enabling it clears any prior entries.
type Trace struct {
	mu      sync.Mutex
	enabled bool
	entries []Entry
	pending *Entry
}

// New constructs a disabled Trace.
func New() *Trace {
	return &Trace{}
}

// Enable turns tracing on and clears any previously recorded entries.
func (t *Trace) Enable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = true
	t.entries = nil
	t.pending = nil
}

// Disable turns tracing off without clearing recorded entries.
func (t *Trace) Disable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = false
}

// Enabled reports whether tracing is currently on.
func (t *Trace) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// Clear discards all recorded entries without changing the enabled state.
func (t *Trace) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
	t.pending = nil
}

// Begin snapshots in's non-immediate input operands that exist in mem,
// ahead of execution.
func (t *Trace) Begin(in *isa.Instruction, mem *memory.Memory) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	inputs := make(map[string]register.Register, len(in.Inputs))
	for _, op := range in.Inputs {
		if op.Immediate {
			continue
		}
		if r, err := mem.Copy(op.Location); err == nil {
			inputs[op.Location] = r
		}
	}
	t.pending = &Entry{Instruction: in, Inputs: inputs}
}

// End snapshots the pending entry's output operands from mem, after
// execution, and appends the completed entry.
func (t *Trace) End(mem *memory.Memory) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled || t.pending == nil {
		return
	}
	outputs := make(map[string]register.Register, len(t.pending.Instruction.Outputs))
	for _, op := range t.pending.Instruction.Outputs {
		if r, err := mem.Copy(op.Location); err == nil {
			outputs[op.Location] = r
		}
	}
	t.pending.Outputs = outputs
	t.entries = append(t.entries, *t.pending)
	t.pending = nil
}

// Entries returns the recorded entries in dispatch order.
func (t *Trace) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

func serialize(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Instruction.String())
		b.WriteByte('\n')
		for _, loc := range sortedKeys(e.Inputs) {
			fmt.Fprintf(&b, "in %s %s\n", loc, e.Inputs[loc].String())
		}
		for _, loc := range sortedKeys(e.Outputs) {
			fmt.Fprintf(&b, "out %s %s\n", loc, e.Outputs[loc].String())
		}
	}
	return b.String()
}

func sortedKeys(m map[string]register.Register) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// Digest returns the sha3-256 digest of the serialized trace, letting two
// traces be compared for byte-identity cheaply.
func (t *Trace) Digest() [32]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return sha3.Sum256([]byte(serialize(t.entries)))
}

// Flush writes every recorded entry to sink, one instruction per block,
// mirroring a summary line to the diagnostic logger.
func (t *Trace) Flush(sink io.Writer) error {
	t.mu.Lock()
	entries := make([]Entry, len(t.entries))
	copy(entries, t.entries)
	t.mu.Unlock()

	if _, err := io.WriteString(sink, serialize(entries)); err != nil {
		return diag.Wrap(diag.ErrUnknown, err, "trace: flush failed")
	}
	diag.Logger.WithField("entries", len(entries)).Info("instruction trace flushed")
	return nil
}
