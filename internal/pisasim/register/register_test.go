package register

import "testing"

func TestArithmeticMismatchedWidthFails(t *testing.T) {
	a := FromSlice([]uint32{1, 2, 3})
	b := FromSlice([]uint32{1, 2})

	if _, err := a.Add(b); err == nil {
		t.Fatalf("expected a width-mismatch error from Add")
	}
	if _, err := a.Sub(b); err == nil {
		t.Fatalf("expected a width-mismatch error from Sub")
	}
	if _, err := a.Mul(b); err == nil {
		t.Fatalf("expected a width-mismatch error from Mul")
	}
}

func TestElementwiseArithmetic(t *testing.T) {
	a := FromSlice([]uint32{10, 20, 30})
	b := FromSlice([]uint32{1, 2, 3})

	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	want := []uint32{11, 22, 33}
	for i, w := range want {
		if sum.At(i) != w {
			t.Fatalf("sum[%d] = %d, want %d", i, sum.At(i), w)
		}
	}

	diff, err := a.Sub(b)
	if err != nil {
		t.Fatalf("sub: %v", err)
	}
	want = []uint32{9, 18, 27}
	for i, w := range want {
		if diff.At(i) != w {
			t.Fatalf("diff[%d] = %d, want %d", i, diff.At(i), w)
		}
	}
}

func TestMontgomeryAddModWrapsAroundModulus(t *testing.T) {
	const mod = 65537
	r := FromSlice([]uint32{mod + 5, mod - 1})
	out, err := r.MontgomeryAddMod(mod, false)
	if err != nil {
		t.Fatalf("montgomery add: %v", err)
	}
	if out.At(0) != 5 {
		t.Fatalf("element 0 = %d, want 5", out.At(0))
	}
	if out.At(1) != mod-1 {
		t.Fatalf("element 1 = %d, want %d", out.At(1), mod-1)
	}
}

func TestMontgomeryAddModDebugRejectsOutOfBounds(t *testing.T) {
	const mod = 65537
	r := FromSlice([]uint32{2 * mod})
	if _, err := r.MontgomeryAddMod(mod, true); err == nil {
		t.Fatalf("expected an undefined-operation error in debug mode")
	}
}

func TestMontgomeryAddElemCheckedWrapsAroundModulus(t *testing.T) {
	const mod = 65537
	out, err := MontgomeryAddElemChecked(mod-3, 5, mod, false)
	if err != nil {
		t.Fatalf("montgomery add: %v", err)
	}
	if out != 2 {
		t.Fatalf("out = %d, want 2", out)
	}
}

func TestMontgomeryAddElemCheckedDebugRejectsOutOfBounds(t *testing.T) {
	const mod = 65537
	if _, err := MontgomeryAddElemChecked(2*mod, 0, mod, true); err == nil {
		t.Fatalf("expected an undefined-operation error in debug mode")
	}
}

func TestMontgomeryAddElemCheckedReleaseWrapsOutOfBounds(t *testing.T) {
	const mod = 65537
	out, err := MontgomeryAddElemChecked(2*mod, 0, mod, false)
	if err != nil {
		t.Fatalf("montgomery add: %v", err)
	}
	if out != 0 {
		t.Fatalf("out = %d, want 0", out)
	}
}

// TestMontgomeryReduceProductRoundTrips pins the Fermat-prime trick used
// throughout this package's tests: modulo 65537, 2^32 ≡ 1, so a product
// of a and b reduces to (a*b) mod 65537 via REDC.
func TestMontgomeryReduceProductRoundTrips(t *testing.T) {
	const mod = 65537
	a, b := uint32(123), uint32(456)
	got := MontgomeryReduceProduct(uint64(a)*uint64(b), mod)
	want := uint32((uint64(a) * uint64(b)) % mod)
	if got != want {
		t.Fatalf("reduced product = %d, want %d", got, want)
	}
}

func TestResizePreservesExistingElements(t *testing.T) {
	r := FromSlice([]uint32{1, 2, 3})
	r.Resize(5)
	if r.Len() != 5 {
		t.Fatalf("len = %d, want 5", r.Len())
	}
	for i, w := range []uint32{1, 2, 3, 0, 0} {
		if r.At(i) != w {
			t.Fatalf("element %d = %d, want %d", i, r.At(i), w)
		}
	}

	r.Resize(2)
	if r.Len() != 2 || r.At(0) != 1 || r.At(1) != 2 {
		t.Fatalf("shrink failed: %v", r)
	}
}

func TestStringFormat(t *testing.T) {
	r := FromSlice([]uint32{1, 2, 3})
	if got, want := r.String(), "[1,2,3]"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
