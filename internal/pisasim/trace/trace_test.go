package trace

import (
	"strings"
	"testing"

	"github.com/pisa-sim/pisa-sim/internal/pisasim/isa"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/memory"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/register"
)

func TestDisabledTraceRecordsNothing(t *testing.T) {
	tr := New()
	mem := memory.New(2)
	mem.Write("a", register.FromSlice([]uint32{1, 2}))
	mem.Write("b", register.FromSlice([]uint32{3, 4}))
	mem.Write("c", register.FromSlice([]uint32{0, 0}))

	in := isa.NewAdd(14, isa.NewOperand("c"), isa.NewOperand("a"), isa.NewOperand("b"), 0)
	tr.Begin(in, mem)
	tr.End(mem)

	if len(tr.Entries()) != 0 {
		t.Fatalf("expected no entries while disabled")
	}
}

func TestEnabledTraceRecordsBeforeAndAfterSnapshots(t *testing.T) {
	tr := New()
	tr.Enable()
	mem := memory.New(2)
	mem.Write("a", register.FromSlice([]uint32{1, 2}))
	mem.Write("b", register.FromSlice([]uint32{3, 4}))
	mem.Write("c", register.FromSlice([]uint32{0, 0}))

	in := isa.NewAdd(14, isa.NewOperand("c"), isa.NewOperand("a"), isa.NewOperand("b"), 0)
	tr.Begin(in, mem)
	mem.Write("c", register.FromSlice([]uint32{4, 6}))
	tr.End(mem)

	entries := tr.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Inputs["a"].At(0) != 1 || e.Inputs["b"].At(0) != 3 {
		t.Fatalf("input snapshot mismatch: %+v", e.Inputs)
	}
	if e.Outputs["c"].At(0) != 4 || e.Outputs["c"].At(1) != 6 {
		t.Fatalf("output snapshot mismatch: %+v", e.Outputs)
	}
}

func TestEnableClearsPriorEntries(t *testing.T) {
	tr := New()
	tr.Enable()
	mem := memory.New(2)
	mem.Write("a", register.FromSlice([]uint32{1, 2}))
	mem.Write("b", register.FromSlice([]uint32{3, 4}))
	mem.Write("c", register.FromSlice([]uint32{0, 0}))
	in := isa.NewAdd(14, isa.NewOperand("c"), isa.NewOperand("a"), isa.NewOperand("b"), 0)
	tr.Begin(in, mem)
	tr.End(mem)
	if len(tr.Entries()) != 1 {
		t.Fatalf("expected 1 entry before re-enable")
	}
	tr.Enable()
	if len(tr.Entries()) != 0 {
		t.Fatalf("Enable should clear prior entries")
	}
}

func TestDigestIsDeterministicAndSensitiveToContent(t *testing.T) {
	build := func(cVal uint32) *Trace {
		tr := New()
		tr.Enable()
		mem := memory.New(2)
		mem.Write("a", register.FromSlice([]uint32{1, 2}))
		mem.Write("b", register.FromSlice([]uint32{3, 4}))
		mem.Write("c", register.FromSlice([]uint32{0, 0}))
		in := isa.NewAdd(14, isa.NewOperand("c"), isa.NewOperand("a"), isa.NewOperand("b"), 0)
		tr.Begin(in, mem)
		mem.Write("c", register.FromSlice([]uint32{cVal, cVal}))
		tr.End(mem)
		return tr
	}

	t1 := build(4)
	t2 := build(4)
	t3 := build(5)

	if t1.Digest() != t2.Digest() {
		t.Fatalf("identical traces should produce identical digests")
	}
	if t1.Digest() == t3.Digest() {
		t.Fatalf("diverging traces should produce diverging digests")
	}
}

func TestFlushWritesSerializedEntries(t *testing.T) {
	tr := New()
	tr.Enable()
	mem := memory.New(2)
	mem.Write("a", register.FromSlice([]uint32{1, 2}))
	mem.Write("b", register.FromSlice([]uint32{3, 4}))
	mem.Write("c", register.FromSlice([]uint32{0, 0}))
	in := isa.NewAdd(14, isa.NewOperand("c"), isa.NewOperand("a"), isa.NewOperand("b"), 0)
	tr.Begin(in, mem)
	tr.End(mem)

	var b strings.Builder
	if err := tr.Flush(&b); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if !strings.Contains(b.String(), "in a") || !strings.Contains(b.String(), "out c") {
		t.Fatalf("flushed output missing expected entries: %q", b.String())
	}
}
