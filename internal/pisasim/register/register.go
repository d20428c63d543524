// Package register implements the Multi-Register: a fixed-width vector of
// 32-bit unsigned polynomial-residue elements with elementwise arithmetic
// and the Montgomery modular reductions the functional engine builds on.
package register

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pisa-sim/pisa-sim/internal/pisasim/diag"
)

// Register is a fixed-width vector of T = uint32 elements, the
// accelerator's native operand. The width is invariant once the register
// leaves the hands of its constructor; operations that combine two
// registers of differing width fail.
type Register struct {
	data []uint32
}

// New constructs an empty register.
func New() Register {
	return Register{}
}

// WithLength constructs a zero-filled register of the given length.
func WithLength(n int) Register {
	return Register{data: make([]uint32, n)}
}

// WithLengthFill constructs a register of the given length, every element
// set to value.
func WithLengthFill(n int, value uint32) Register {
	data := make([]uint32, n)
	for i := range data {
		data[i] = value
	}
	return Register{data: data}
}

// FromSlice constructs a register that owns a copy of data.
func FromSlice(data []uint32) Register {
	out := make([]uint32, len(data))
	copy(out, data)
	return Register{data: out}
}

// Len returns the number of elements in the register.
func (r Register) Len() int {
	return len(r.data)
}

// At returns the element at index i.
func (r Register) At(i int) uint32 {
	return r.data[i]
}

// Set assigns the element at index i.
func (r *Register) Set(i int, v uint32) {
	r.data[i] = v
}

// Data returns the backing slice. Callers that intend to mutate it should
// not alias it beyond the lifetime of the current instruction.
func (r Register) Data() []uint32 {
	return r.data
}

// SetData replaces the backing slice outright.
func (r *Register) SetData(data []uint32) {
	r.data = data
}

// Resize grows or shrinks the register in place, zero-filling any new
// elements. Existing elements below the new length are preserved.
func (r *Register) Resize(n int) {
	if n == len(r.data) {
		return
	}
	data := make([]uint32, n)
	copy(data, r.data)
	r.data = data
}

// Clone returns an independent copy of the register.
func (r Register) Clone() Register {
	return FromSlice(r.data)
}

func (r Register) requireSameLength(other Register, op string) error {
	if len(r.data) != len(other.data) {
		return diag.New(diag.ErrWidthMismatch,
			"%s: register widths differ (%d vs %d)", op, len(r.data), len(other.data))
	}
	return nil
}

// Add returns the elementwise sum of r and other. Fails if widths differ.
func (r Register) Add(other Register) (Register, error) {
	if err := r.requireSameLength(other, "add"); err != nil {
		return Register{}, err
	}
	out := WithLength(len(r.data))
	for i := range r.data {
		out.data[i] = r.data[i] + other.data[i]
	}
	return out, nil
}

// Sub returns the elementwise difference of r and other. Fails if widths
// differ.
func (r Register) Sub(other Register) (Register, error) {
	if err := r.requireSameLength(other, "sub"); err != nil {
		return Register{}, err
	}
	out := WithLength(len(r.data))
	for i := range r.data {
		out.data[i] = r.data[i] - other.data[i]
	}
	return out, nil
}

// Mul returns the elementwise product of r and other. Fails if widths
// differ.
func (r Register) Mul(other Register) (Register, error) {
	if err := r.requireSameLength(other, "mul"); err != nil {
		return Register{}, err
	}
	out := WithLength(len(r.data))
	for i := range r.data {
		out.data[i] = r.data[i] * other.data[i]
	}
	return out, nil
}

// ScalarMul returns r with every element multiplied by scalar.
func (r Register) ScalarMul(scalar uint32) Register {
	out := WithLength(len(r.data))
	for i := range r.data {
		out.data[i] = r.data[i] * scalar
	}
	return out
}

// ScalarMod returns r with every element reduced modulo m.
func (r Register) ScalarMod(m uint32) Register {
	out := WithLength(len(r.data))
	for i := range r.data {
		out.data[i] = r.data[i] % m
	}
	return out
}

// MontgomeryAddMod applies the pre-reduced modular add from spec §4.D to
// every element: inputs are assumed < 2*modulus. In debug mode an element
// that violates that precondition is a fatal ErrUndefinedOperation instead
// of being silently wrapped.
func (r Register) MontgomeryAddMod(modulus uint32, debug bool) (Register, error) {
	out := WithLength(len(r.data))
	mod64 := uint64(modulus)
	for i, u := range r.data {
		uu := uint64(u)
		if uu >= 2*mod64 {
			if debug {
				return Register{}, diag.New(diag.ErrUndefinedOperation,
					"montgomery add: element %d (%d) out of bounds for modulus %d", i, u, modulus)
			}
			uu %= 2 * mod64
		}
		if uu >= mod64 {
			uu -= mod64
		}
		out.data[i] = uint32(uu)
	}
	return out, nil
}

// MontgomeryMulMod applies the Montgomery reduction from spec §4.D to the
// elementwise product of r (already holding the raw products) against
// modulus.
func (r Register) MontgomeryMulMod(modulus uint32) Register {
	out := WithLength(len(r.data))
	mod64 := uint64(modulus)
	k := mod64 - 2
	for i, u := range r.data {
		uu := uint64(u)
		t := uu & 0xFFFFFFFF
		m := (t * k) & 0xFFFFFFFF
		uu = (uu + m*mod64) >> 32
		if uu >= mod64 {
			uu -= mod64
		}
		out.data[i] = uint32(uu)
	}
	return out
}

// String renders the register as "[e0,e1,...]", matching the original
// tool's MultiRegister::toString.
func (r Register) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range r.data {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	}
	b.WriteByte(']')
	return b.String()
}

// ToCSV appends ",v0,v1,..." for every element to b, matching the memory
// dump line format.
func (r Register) ToCSV(b *strings.Builder) {
	for _, v := range r.data {
		fmt.Fprintf(b, ",%d", v)
	}
}

// MontgomeryReduceProduct performs a single-element Montgomery reduction
// of the 64-bit product u, used directly by engine code that computes
// products inline rather than through Mul+MontgomeryMulMod.
func MontgomeryReduceProduct(u uint64, modulus uint32) uint32 {
	mod64 := uint64(modulus)
	k := mod64 - 2
	t := u & 0xFFFFFFFF
	m := (t * k) & 0xFFFFFFFF
	u = (u + m*mod64) >> 32
	if u >= mod64 {
		u -= mod64
	}
	return uint32(u)
}

// MontgomeryAddElemChecked reduces a pre-reduced pair sum, used by the
// NTT/iNTT butterfly and the add/sub/mac/maci dispatch where only a
// single element is combined at a time. It enforces MontgomeryAddMod's
// precondition on that element: the pre-reduced sum must be below
// 2*modulus. In debug mode a violation is a fatal ErrUndefinedOperation;
// otherwise it is silently wrapped, matching spec §4.D/§7.
func MontgomeryAddElemChecked(a, b, modulus uint32, debug bool) (uint32, error) {
	u := uint64(a) + uint64(b)
	mod64 := uint64(modulus)
	if u >= 2*mod64 {
		if debug {
			return 0, diag.New(diag.ErrUndefinedOperation,
				"montgomery add: pre-reduced sum %d out of bounds for modulus %d", u, modulus)
		}
		u %= 2 * mod64
	}
	if u >= mod64 {
		u -= mod64
	}
	return uint32(u), nil
}
