package engine

import "testing"

func TestModulusChainAtBounds(t *testing.T) {
	chain := ModulusChain{65537, 12289}
	if m, err := chain.At(1); err != nil || m != 12289 {
		t.Fatalf("At(1) = %d, %v; want 12289, nil", m, err)
	}
	if _, err := chain.At(2); err == nil {
		t.Fatalf("expected an out-of-bounds error for residue 2")
	}
	if _, err := chain.At(-1); err == nil {
		t.Fatalf("expected an out-of-bounds error for residue -1")
	}
}

func TestTwiddleTableAtBounds(t *testing.T) {
	table := TwiddleTable{{1, 2, 3}, {4, 5, 6}}
	if v, err := table.At(1, 2); err != nil || v != 6 {
		t.Fatalf("At(1,2) = %d, %v; want 6, nil", v, err)
	}
	if _, err := table.At(2, 0); err == nil {
		t.Fatalf("expected an error for out-of-range residue")
	}
	if _, err := table.At(0, 10); err == nil {
		t.Fatalf("expected an error for out-of-range twiddle index")
	}
}

func TestINTTTwiddleTablesAtMissingGaloisKey(t *testing.T) {
	tables := INTTTwiddleTables{"1": TwiddleTable{{7, 8}}}
	if v, err := tables.At(1, 0, 1); err != nil || v != 8 {
		t.Fatalf("At(1,0,1) = %d, %v; want 8, nil", v, err)
	}
	if _, err := tables.At(5, 0, 0); err == nil {
		t.Fatalf("expected an error for a missing galois-element key")
	}
}
