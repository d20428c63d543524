package scheduler

import (
	"testing"

	"github.com/pisa-sim/pisa-sim/internal/pisasim/graph"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/hwmodel"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/isa"
)

func TestScheduleCoversEveryOperation(t *testing.T) {
	instrs := []*isa.Instruction{
		isa.NewAdd(14, isa.NewOperand("c"), isa.NewOperand("a"), isa.NewOperand("b"), 0),
		isa.NewMul(14, isa.NewOperand("d"), isa.NewOperand("c"), isa.NewOperand("a"), 0),
	}
	g := graph.Build(instrs)
	model := hwmodel.Model1()

	report := Schedule(g, model)

	if report.TotalCycles <= 0 {
		t.Fatalf("expected positive total cycles, got %d", report.TotalCycles)
	}
	if report.OpCounts[isa.OpAdd] != 1 || report.OpCounts[isa.OpMul] != 1 {
		t.Fatalf("expected one add and one mul scheduled, got %+v", report.OpCounts)
	}
	if report.Depth == 0 {
		t.Fatalf("expected nonzero graph depth")
	}
}

func TestScheduleBackToBackChainMatchesWorkedExample(t *testing.T) {
	// mul x a b; mul y x c; add z y b — three 1-throughput 6-latency ops
	// under model1 should issue back-to-back at clocks 0, 1, 2 with no
	// stall on either queue, completing at clock 8.
	instrs := []*isa.Instruction{
		isa.NewMul(14, isa.NewOperand("x"), isa.NewOperand("a"), isa.NewOperand("b"), 0),
		isa.NewMul(14, isa.NewOperand("y"), isa.NewOperand("x"), isa.NewOperand("c"), 0),
		isa.NewAdd(14, isa.NewOperand("z"), isa.NewOperand("y"), isa.NewOperand("b"), 0),
	}
	g := graph.Build(instrs)
	model := hwmodel.Model1()

	report := Schedule(g, model)

	if report.TotalCycles != 8 {
		t.Fatalf("TotalCycles = %d, want 8", report.TotalCycles)
	}
	if report.InstructionNOPs != 0 {
		t.Fatalf("InstructionNOPs = %d, want 0", report.InstructionNOPs)
	}
	if report.MemoryNOPs != 0 {
		t.Fatalf("MemoryNOPs = %d, want 0", report.MemoryNOPs)
	}

	var issued []isa.Op
	for _, e := range report.Timeline {
		if e.Queue == "instruction" && e.Instruction != nil {
			issued = append(issued, e.Instruction.Op)
		}
	}
	want := []isa.Op{isa.OpMul, isa.OpMul, isa.OpAdd}
	if len(issued) != len(want) {
		t.Fatalf("issued instruction-queue ops = %v, want %v", issued, want)
	}
	for i, op := range want {
		if issued[i] != op {
			t.Fatalf("issued[%d] = %q, want %q", i, issued[i], op)
		}
	}
}

func TestScheduleDoesNotMutateCallerGraph(t *testing.T) {
	instrs := []*isa.Instruction{
		isa.NewAdd(14, isa.NewOperand("c"), isa.NewOperand("a"), isa.NewOperand("b"), 0),
	}
	g := graph.Build(instrs)
	before := len(g.Nodes())

	Schedule(g, hwmodel.Example())

	if len(g.Nodes()) != before {
		t.Fatalf("caller graph was mutated: had %d nodes, now %d", before, len(g.Nodes()))
	}
}
