package memory

import (
	"testing"

	"github.com/pisa-sim/pisa-sim/internal/pisasim/register"
)

func TestReadCreatesZeroWidthEntryOnMiss(t *testing.T) {
	m := New(4)
	r := m.Read("a")
	if r.Len() != 0 {
		t.Fatalf("fresh read-or-create entry should be width 0, got %d", r.Len())
	}
	if !m.Has("a") {
		t.Fatalf("Read should have created the entry")
	}
}

func TestIndexAutoResizesToConfiguredWidth(t *testing.T) {
	m := New(4)
	r := m.Index("a")
	if r.Len() != 4 {
		t.Fatalf("Index should auto-resize to register width 4, got %d", r.Len())
	}
}

func TestCopyFailsOnUnallocatedLocation(t *testing.T) {
	m := New(4)
	if _, err := m.Copy("never_written"); err == nil {
		t.Fatalf("expected an error copying an unallocated location")
	}
}

func TestWriteThenCopyRoundTrips(t *testing.T) {
	m := New(4)
	m.Write("a", register.FromSlice([]uint32{1, 2, 3, 4}))
	got, err := m.Copy("a")
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	for i, w := range []uint32{1, 2, 3, 4} {
		if got.At(i) != w {
			t.Fatalf("element %d = %d, want %d", i, got.At(i), w)
		}
	}
}

func TestCopyIsIndependentOfSource(t *testing.T) {
	m := New(4)
	m.Write("a", register.FromSlice([]uint32{1, 2, 3, 4}))
	cp, err := m.Copy("a")
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	cp.Set(0, 99)
	if m.Read("a").At(0) == 99 {
		t.Fatalf("mutating the copy mutated the source register")
	}
}

func TestLocationsAreSorted(t *testing.T) {
	m := New(4)
	m.Write("c", register.New())
	m.Write("a", register.New())
	m.Write("b", register.New())
	locs := m.Locations()
	want := []string{"a", "b", "c"}
	for i, w := range want {
		if locs[i] != w {
			t.Fatalf("Locations()[%d] = %q, want %q (%v)", i, locs[i], w, locs)
		}
	}
}

func TestEqualComparesContentsNotIdentity(t *testing.T) {
	m1 := New(4)
	m2 := New(4)
	m1.Write("a", register.FromSlice([]uint32{1, 2}))
	m2.Write("a", register.FromSlice([]uint32{1, 2}))
	if !m1.Equal(m2) {
		t.Fatalf("expected equal memories to compare equal")
	}
	m2.Write("a", register.FromSlice([]uint32{1, 3}))
	if m1.Equal(m2) {
		t.Fatalf("expected diverging memories to compare unequal")
	}
}
