package engine

import (
	"github.com/pisa-sim/pisa-sim/internal/pisasim/diag"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/isa"
	"github.com/pisa-sim/pisa-sim/internal/pisasim/register"
)

// butterfly holds the per-stage shape shared by NTT and iNTT: N = 2^PMD,
// halfN = N/2, half-block = the register width carried by the
// instruction's operands, block size = 2*half-block.
type butterfly struct {
	pmd       int
	halfN     int
	halfBlock int
	blockSize int
	increment int
}

func newButterfly(pmd, halfBlock int) (*butterfly, error) {
	n := 1 << uint(pmd)
	shift := pmd - 14
	if shift < 0 {
		return nil, diag.New(diag.ErrUnsupportedConfiguration,
			"PMD %d is below the canonical floor of 14 required by the NTT start-table derivation", pmd)
	}
	return &butterfly{
		pmd:       pmd,
		halfN:     n / 2,
		halfBlock: halfBlock,
		blockSize: 2 * halfBlock,
		increment: 1 << uint(shift),
	}, nil
}

// loadHalf returns the element at offset, which ranges over [0,
// blockSize), from whichever half-register holds it.
func loadHalf(top, bot register.Register, offset, halfBlock int) uint32 {
	if offset < halfBlock {
		return top.At(offset)
	}
	return bot.At(offset - halfBlock)
}

// storeHalf writes value at offset, which ranges over [0, blockSize),
// into whichever half-register holds it.
func storeHalf(top, bot *register.Register, offset, halfBlock int, value uint32) {
	if offset < halfBlock {
		top.Set(offset, value)
		return
	}
	bot.Set(offset-halfBlock, value)
}

// execNTT runs one stage of the forward NTT, per spec §4.D.
func (e *Engine) execNTT(in *isa.Instruction) error {
	mod, err := e.Modulus.At(in.Residue)
	if err != nil {
		return err
	}
	srcTop := e.Memory.Index(in.Inputs[0].Location)
	srcBot := e.Memory.Index(in.Inputs[1].Location)
	if srcTop.Len() != srcBot.Len() {
		return diag.New(diag.ErrWidthMismatch, "ntt: src_top/src_bot widths differ (%d vs %d)", srcTop.Len(), srcBot.Len())
	}
	bf, err := newButterfly(in.PMD, srcTop.Len())
	if err != nil {
		return err
	}

	dstTop := register.WithLength(bf.halfBlock)
	dstBot := register.WithLength(bf.halfBlock)

	starts := startTableFor(bf.increment)
	if in.Block < 0 || in.Block >= len(starts) {
		return diag.New(diag.ErrUnsupportedConfiguration, "ntt: block %d out of range for increment %d", in.Block, bf.increment)
	}
	start := starts[in.Block]

	for i := start; i < bf.halfN; i += bf.increment {
		j := int(reverseBits(uint32(i), bf.pmd-1))
		in0 := (2 * j) % bf.blockSize
		in1 := (2*j + 1) % bf.blockSize
		out0 := j % bf.halfBlock
		out1 := (j+bf.halfN)%bf.halfBlock + bf.halfBlock
		sp := uint(bf.pmd - 1 - in.Stage)
		k := (j >> sp) << sp

		xin0 := loadHalf(*srcTop, *srcBot, in0, bf.halfBlock)
		xin1 := loadHalf(*srcTop, *srcBot, in1, bf.halfBlock)

		t0 := xin0
		var t1 uint32
		if in.Stage == 0 {
			t1 = xin1
		} else {
			twid, err := e.TwiddleNTT.At(in.Residue, k)
			if err != nil {
				return err
			}
			t1 = register.MontgomeryReduceProduct(uint64(xin1)*uint64(twid), mod)
		}
		t2 := mod - t1

		xout0, err := register.MontgomeryAddElemChecked(t0, t1, mod, e.Config.Debug)
		if err != nil {
			return err
		}
		xout1, err := register.MontgomeryAddElemChecked(t0, t2, mod, e.Config.Debug)
		if err != nil {
			return err
		}

		storeHalf(&dstTop, &dstBot, out0, bf.halfBlock, xout0)
		storeHalf(&dstTop, &dstBot, out1, bf.halfBlock, xout1)
	}

	e.Memory.Write(in.Outputs[0].Location, dstTop)
	e.Memory.Write(in.Outputs[1].Location, dstBot)
	return nil
}

// execINTT runs one stage of the inverse NTT, per spec §4.D.
func (e *Engine) execINTT(in *isa.Instruction) error {
	mod, err := e.Modulus.At(in.Residue)
	if err != nil {
		return err
	}
	srcTop := e.Memory.Index(in.Inputs[0].Location)
	srcBot := e.Memory.Index(in.Inputs[1].Location)
	if srcTop.Len() != srcBot.Len() {
		return diag.New(diag.ErrWidthMismatch, "intt: src_top/src_bot widths differ (%d vs %d)", srcTop.Len(), srcBot.Len())
	}
	bf, err := newButterfly(in.PMD, srcTop.Len())
	if err != nil {
		return err
	}

	dstTop := register.WithLength(bf.halfBlock)
	dstBot := register.WithLength(bf.halfBlock)

	sliceLen := bf.halfN / bf.increment
	start := in.Block * sliceLen

	galois := in.Galois()

	for i := start; i < start+sliceLen; i++ {
		in0 := i % bf.halfBlock
		in1 := (i+bf.halfN)%bf.halfBlock + bf.halfBlock
		out0 := (2 * i) % bf.blockSize
		out1 := (2*i + 1) % bf.blockSize
		sp := uint(bf.pmd - 1 - in.Stage)
		k := (i >> sp) << sp

		xin0 := loadHalf(*srcTop, *srcBot, in0, bf.halfBlock)
		xin1 := loadHalf(*srcTop, *srcBot, in1, bf.halfBlock)

		t0 := xin0
		twid, err := e.TwiddleINTT.At(galois, in.Residue, k)
		if err != nil {
			return err
		}
		t1 := register.MontgomeryReduceProduct(uint64(xin1)*uint64(twid), mod)
		t2 := mod - t1

		xout0, err := register.MontgomeryAddElemChecked(t0, t1, mod, e.Config.Debug)
		if err != nil {
			return err
		}
		xout1, err := register.MontgomeryAddElemChecked(t0, t2, mod, e.Config.Debug)
		if err != nil {
			return err
		}

		storeHalf(&dstTop, &dstBot, out0, bf.halfBlock, xout0)
		storeHalf(&dstTop, &dstBot, out1, bf.halfBlock, xout1)
	}

	e.Memory.Write(in.Outputs[0].Location, dstTop)
	e.Memory.Write(in.Outputs[1].Location, dstBot)
	return nil
}
