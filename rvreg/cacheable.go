package rvreg

import "github.com/rvlab/rvdbg/regs"

// Cacheable decides whether the cache may be trusted for a register
// without touching hardware.
//
// If isWrite is true: return true iff the register is guaranteed to
// contain exactly the value just written when it is next read.
// If isWrite is false: return true iff the register is guaranteed to read
// the same value in the future as the value just read.
//
// The function is total: registers not otherwise classified are never
// cacheable.
func Cacheable(regno regs.Regno, isWrite bool) bool {
	// x0 always reads as zero; a write is discarded by hardware, so a
	// just-written value is not retained.
	if regno == regs.Zero {
		return !isWrite
	}

	// GPRs, FPRs, and vector registers are just normal data stores.
	if regs.IsGPR(regno) || regs.IsFPR(regno) || regs.IsVector(regno) {
		return true
	}

	// Matrix tile and accumulator registers are just normal data stores.
	if regs.IsTile(regno) || regs.IsAccumulator(regno) {
		return true
	}

	switch regno {
	case regs.Dpc,
		regs.Vstart, regs.Vxsat, regs.Vxrm, regs.Vlenb, regs.Vl, regs.Vtype,
		regs.Mstart, regs.Mcsr, regs.Mtype,
		regs.Mtilem, regs.Mtilen, regs.Mtilek,
		regs.Mlenb, regs.Mrlenb, regs.Mamul,
		regs.Misa, regs.Dcsr, regs.Dscratch0,
		regs.Mstatus, regs.Mepc, regs.Mcause, regs.Satp:
		// WARL registers might not contain the value just written, but
		// they won't spontaneously change their value either.
		return !isWrite

	case regs.Tselect, regs.Tdata1, regs.Tdata2:
		// tdata1/tdata2 change value when tselect is changed.
		return false

	default:
		// Most CSRs won't change value on us, but that cannot be
		// assumed about arbitrary CSRs.
		return false
	}
}
