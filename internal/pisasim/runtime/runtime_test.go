package runtime

import (
	"testing"

	"github.com/pisa-sim/pisa-sim/internal/pisasim/engine"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/isa"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/register"
)

func newTestRuntime(width int) *Runtime {
	cfg := DefaultConfig()
	cfg.RegisterWidth = width
	return New(cfg)
}

func TestLoadInputsPartitionsIntoDeviceSlices(t *testing.T) {
	rt := newTestRuntime(2)
	if err := rt.LoadInputs(map[string][]uint32{"ct_0_0": {1, 2, 3, 4, 5, 6}}); err != nil {
		t.Fatalf("load inputs: %v", err)
	}
	if !rt.Memory.Has("ct_0_0_0") || !rt.Memory.Has("ct_0_0_1") || !rt.Memory.Has("ct_0_0_2") {
		t.Fatalf("expected three device slices to exist")
	}
	r := rt.Memory.Read("ct_0_0_1")
	if r.Len() != 2 || r.At(0) != 3 || r.At(1) != 4 {
		t.Fatalf("slice 1 = %v, want [3 4]", r)
	}
}

func TestLoadInputsRejectsLengthNotMultipleOfWidth(t *testing.T) {
	rt := newTestRuntime(4)
	err := rt.LoadInputs(map[string][]uint32{"ct_0_0": {1, 2, 3}})
	if err == nil {
		t.Fatalf("expected error for length 3 not a multiple of width 4")
	}
}

func TestReadbackReconcatenatesSlicesInOrder(t *testing.T) {
	rt := newTestRuntime(2)
	if err := rt.LoadInputs(map[string][]uint32{"ct_1_2": {10, 20, 30, 40}}); err != nil {
		t.Fatalf("load inputs: %v", err)
	}
	got, err := rt.Readback("ct_1_2")
	if err != nil {
		t.Fatalf("readback: %v", err)
	}
	want := []uint32{10, 20, 30, 40}
	if got.Len() != len(want) {
		t.Fatalf("readback length = %d, want %d", got.Len(), len(want))
	}
	for i, w := range want {
		if got.At(i) != w {
			t.Fatalf("readback[%d] = %d, want %d", i, got.At(i), w)
		}
	}
}

func TestExecuteLinearAndLayeredAgree(t *testing.T) {
	const mod = 65537
	instrs := func() []*isa.Instruction {
		return []*isa.Instruction{
			isa.NewMul(14, isa.NewOperand("x"), isa.NewOperand("a"), isa.NewOperand("b"), 0),
			isa.NewMul(14, isa.NewOperand("y"), isa.NewOperand("x"), isa.NewOperand("c"), 0),
			isa.NewAdd(14, isa.NewOperand("z"), isa.NewOperand("y"), isa.NewOperand("b"), 0),
		}
	}

	runLinear := newTestRuntime(2)
	runLinear.SetModulus(engine.ModulusChain{mod})
	runLinear.Memory.Write("a", register.FromSlice([]uint32{2, 3}))
	runLinear.Memory.Write("b", register.FromSlice([]uint32{4, 5}))
	runLinear.Memory.Write("c", register.FromSlice([]uint32{6, 7}))
	if err := runLinear.ExecuteLinear(instrs()); err != nil {
		t.Fatalf("linear: %v", err)
	}

	runLayered := newTestRuntime(2)
	runLayered.SetModulus(engine.ModulusChain{mod})
	runLayered.Memory.Write("a", register.FromSlice([]uint32{2, 3}))
	runLayered.Memory.Write("b", register.FromSlice([]uint32{4, 5}))
	runLayered.Memory.Write("c", register.FromSlice([]uint32{6, 7}))
	if err := runLayered.ExecuteLayered(instrs(), true); err != nil {
		t.Fatalf("layered: %v", err)
	}

	linZ := runLinear.Memory.Read("z")
	layZ := runLayered.Memory.Read("z")
	for i := 0; i < linZ.Len(); i++ {
		if linZ.At(i) != layZ.At(i) {
			t.Fatalf("linear vs layered z[%d]: %d != %d", i, linZ.At(i), layZ.At(i))
		}
	}
}

func TestValidateReportsSuccessAndFailure(t *testing.T) {
	rt := newTestRuntime(2)
	if err := rt.LoadInputs(map[string][]uint32{"out_0_0": {1, 2, 3, 4}}); err != nil {
		t.Fatalf("load inputs: %v", err)
	}
	report := rt.Validate(map[string][]uint32{"out_0_0": {1, 2, 3, 4}}, false)
	if !report.Success {
		t.Fatalf("expected success, got %+v", report.Results)
	}

	bad := rt.Validate(map[string][]uint32{"out_0_0": {1, 2, 3, 99}}, true)
	if bad.Success {
		t.Fatalf("expected failure for mismatched value")
	}
	if len(bad.Results) != 1 || len(bad.Results[0].Mismatches) != 1 {
		t.Fatalf("expected exactly one mismatch recorded, got %+v", bad.Results)
	}
	if bad.Results[0].Mismatches[0].Index != 3 {
		t.Fatalf("mismatch at wrong index: %+v", bad.Results[0].Mismatches[0])
	}
}
