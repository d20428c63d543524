package hwmodel

import (
	"testing"

	"github.com/pisa-sim/pisa-sim/internal/pisasim/isa"
)

func TestExampleModelTimings(t *testing.T) {
	m := Example()
	add, ok := m.Instruction(isa.OpAdd)
	if !ok || add.Throughput != 8192 || add.Latency != 8192 {
		t.Fatalf("add timing = %+v, ok=%v", add, ok)
	}
	ntt, ok := m.Instruction(isa.OpNTT)
	if !ok || ntt.Throughput != 8192*6 || ntt.Latency != 8192*6 {
		t.Fatalf("ntt timing = %+v, ok=%v", ntt, ok)
	}
}

func TestModel1Timings(t *testing.T) {
	m := Model1()
	add, ok := m.Instruction(isa.OpAdd)
	if !ok || add.Throughput != 1 || add.Latency != 6 {
		t.Fatalf("add timing = %+v, ok=%v", add, ok)
	}
}

func TestInstructionUnknownOpcodeReportsFalse(t *testing.T) {
	m := &Model{InstructionPerf: map[isa.Op]Timing{}}
	if _, ok := m.Instruction(isa.Op("frobnicate")); ok {
		t.Fatalf("expected ok=false for an unknown opcode")
	}
}

func TestRegistryGetKnownAndUnknownModels(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Get("example"); !ok {
		t.Fatalf("expected \"example\" to be registered")
	}
	if _, ok := r.Get("model1"); !ok {
		t.Fatalf("expected \"model1\" to be registered")
	}
	if _, ok := r.Get("nonexistent"); ok {
		t.Fatalf("expected \"nonexistent\" to be unregistered")
	}
}

func TestRegistryRegisterCustomModel(t *testing.T) {
	r := NewRegistry()
	r.Register("custom", func() *Model { return &Model{Name: "custom"} })
	m, ok := r.Get("custom")
	if !ok || m.Name != "custom" {
		t.Fatalf("custom model not retrievable: %+v, ok=%v", m, ok)
	}
}

func TestTierString(t *testing.T) {
	cases := map[Tier]string{
		Register:    "REGISTER",
		Cache:       "CACHE",
		MemoryCache: "MEMORY_CACHE",
		Memory:      "MEMORY",
	}
	for tier, want := range cases {
		if got := tier.String(); got != want {
			t.Fatalf("Tier(%d).String() = %q, want %q", tier, got, want)
		}
	}
}
