package dump

import (
	"bytes"
	"testing"

	"github.com/pisa-sim/pisa-sim/internal/pisasim/engine"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/memory"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/register"
)

func TestRoundTripReproducesState(t *testing.T) {
	mem := memory.New(4)
	mem.Write("a_0_0_0", register.FromSlice([]uint32{1, 2, 3, 4}))
	mem.Write("out_0_0_0", register.FromSlice([]uint32{5, 6, 7, 8}))

	s := &State{
		Modulus:     engine.ModulusChain{0, 7, 17},
		TwiddleNTT:  engine.TwiddleTable{{1, 2}, {3, 4}},
		TwiddleINTT: engine.INTTTwiddleTables{"1": engine.TwiddleTable{{5, 6}}},
		Memory:      mem,
	}

	var buf bytes.Buffer
	if err := Write(&buf, s); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := Read(&buf, 4)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if len(got.Modulus) != 3 || got.Modulus[1] != 7 {
		t.Fatalf("modulus chain not round-tripped: %v", got.Modulus)
	}
	if !got.Memory.Equal(mem) {
		t.Fatalf("memory not round-tripped byte-identically")
	}
}

// TestUnsignedValueAboveSignedRangeRoundTrips is the spec.md §9 open-
// question regression: the source's dump reader used signed parsing even
// for 32-bit unsigned values, corrupting values >= 2^31. This parser must
// not repeat that mistake.
func TestUnsignedValueAboveSignedRangeRoundTrips(t *testing.T) {
	const big = uint32(1) << 31 // 2147483648, overflows int32
	mem := memory.New(1)
	mem.Write("x", register.FromSlice([]uint32{big}))

	s := &State{Memory: mem, TwiddleINTT: make(engine.INTTTwiddleTables)}
	var buf bytes.Buffer
	if err := Write(&buf, s); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := Read(&buf, 1)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	r := got.Memory.Read("x")
	if r.At(0) != big {
		t.Fatalf("value %d was not round-tripped; got %d", big, r.At(0))
	}
}

func TestReadToleratesTrailingCarriageReturnAndEmptyLines(t *testing.T) {
	input := "modulus_chain,0,7\r\n\r\nmemory,a,1,2,3\r\n"
	got, err := Read(bytes.NewBufferString(input), 3)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got.Modulus) != 2 || got.Modulus[1] != 7 {
		t.Fatalf("modulus chain: %v", got.Modulus)
	}
	r := got.Memory.Read("a")
	if r.Len() != 3 || r.At(2) != 3 {
		t.Fatalf("memory row not parsed: %v", r)
	}
}
