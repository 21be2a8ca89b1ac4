// Package regs defines the RISC-V register numbering used by the debug
// target support code. The numbering follows the remote-protocol register
// enumeration: general-purpose registers first, then the program counter,
// floating-point registers, the CSR space, the privilege pseudo-register,
// vector registers, and the matrix tile/accumulator registers.
package regs

import "fmt"

// Regno identifies one architectural or virtual register.
type Regno uint32

// Architectural register numbers.
const (
	// Zero is x0, hardwired to zero.
	Zero Regno = 0
	RA   Regno = 1
	SP   Regno = 2
	GP   Regno = 3
	TP   Regno = 4
	T0   Regno = 5
	T1   Regno = 6
	T2   Regno = 7
	FP   Regno = 8
	S1   Regno = 9
	A0   Regno = 10
	A1   Regno = 11
	A2   Regno = 12
	A3   Regno = 13
	A4   Regno = 14
	A5   Regno = 15
	A6   Regno = 16
	A7   Regno = 17
	S2   Regno = 18
	S3   Regno = 19

	// XPR0..XPR31 are the integer registers x0..x31.
	XPR0  Regno = 0
	XPR15 Regno = 15
	XPR31 Regno = 31

	// PC is the program counter.
	PC Regno = 32

	// FPR0..FPR31 are the floating-point registers f0..f31.
	FPR0  Regno = 33
	FPR31 Regno = 64

	// CSR0 is the base of the 4096-entry CSR space.
	CSR0    Regno = 65
	CSR4095 Regno = CSR0 + 4095

	// Priv is the virtual privilege-level register.
	Priv Regno = CSR4095 + 1

	// V0..V31 are the vector registers.
	V0  Regno = Priv + 1
	V31 Regno = V0 + 31

	// TR0..TR7 are the matrix tile registers.
	TR0 Regno = V31 + 1
	TR7 Regno = TR0 + 7

	// ACC0..ACC7 are the matrix accumulator registers.
	ACC0 Regno = TR7 + 1
	ACC7 Regno = ACC0 + 7
)

// Matrix state registers. The matrix extension's CSR addresses are not
// ratified, so these are virtual numbers after the accumulator registers.
const (
	Mstart Regno = ACC7 + 1 + iota
	Mcsr
	Mtype
	Mtilem
	Mtilen
	Mtilek
	Mlenb
	Mrlenb
	Mamul
)

// Count is one past the largest architectural register number. Dynamically
// exposed CSRs receive numbers at Count and above.
const Count = Mamul + 1

// Named CSR register numbers.
const (
	Vstart    Regno = CSR0 + 0x008
	Vxsat     Regno = CSR0 + 0x009
	Vxrm      Regno = CSR0 + 0x00a
	Vcsr      Regno = CSR0 + 0x00f
	Satp      Regno = CSR0 + 0x180
	Mstatus   Regno = CSR0 + 0x300
	Misa      Regno = CSR0 + 0x301
	Mepc      Regno = CSR0 + 0x341
	Mcause    Regno = CSR0 + 0x342
	Tselect   Regno = CSR0 + 0x7a0
	Tdata1    Regno = CSR0 + 0x7a1
	Tdata2    Regno = CSR0 + 0x7a2
	Tdata3    Regno = CSR0 + 0x7a3
	Dcsr      Regno = CSR0 + 0x7b0
	Dpc       Regno = CSR0 + 0x7b1
	Dscratch0 Regno = CSR0 + 0x7b2
	Dscratch1 Regno = CSR0 + 0x7b3
	Vl        Regno = CSR0 + 0xc20
	Vtype     Regno = CSR0 + 0xc21
	Vlenb     Regno = CSR0 + 0xc22
)

// IsGPR reports whether regno is an integer register (x0..x31).
func IsGPR(regno Regno) bool {
	return regno <= XPR31
}

// IsFPR reports whether regno is a floating-point register.
func IsFPR(regno Regno) bool {
	return regno >= FPR0 && regno <= FPR31
}

// IsCSR reports whether regno falls in the architectural CSR space.
func IsCSR(regno Regno) bool {
	return regno >= CSR0 && regno <= CSR4095
}

// IsVector reports whether regno is a vector data register.
func IsVector(regno Regno) bool {
	return regno >= V0 && regno <= V31
}

// IsTile reports whether regno is a matrix tile register.
func IsTile(regno Regno) bool {
	return regno >= TR0 && regno <= TR7
}

// IsAccumulator reports whether regno is a matrix accumulator register.
func IsAccumulator(regno Regno) bool {
	return regno >= ACC0 && regno <= ACC7
}

// IsMatrixState reports whether regno is one of the matrix state registers.
func IsMatrixState(regno Regno) bool {
	return regno >= Mstart && regno <= Mamul
}

// CSRAddress returns the 12-bit CSR address of a CSR-space regno.
// The second result is false for registers outside the CSR space.
func CSRAddress(regno Regno) (uint16, bool) {
	if !IsCSR(regno) {
		return 0, false
	}
	return uint16(regno - CSR0), true
}

// CSR returns the register number of the CSR at the given address.
// Addresses above 4095 are not representable and map to the last CSR.
func CSR(addr uint16) Regno {
	if addr > 4095 {
		return CSR4095
	}
	return CSR0 + Regno(addr)
}

// gprNames holds the ABI names of x0..x31.
var gprNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"fp", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// fprNames holds the ABI names of f0..f31.
var fprNames = [32]string{
	"ft0", "ft1", "ft2", "ft3", "ft4", "ft5", "ft6", "ft7",
	"fs0", "fs1", "fa0", "fa1", "fa2", "fa3", "fa4", "fa5",
	"fa6", "fa7", "fs2", "fs3", "fs4", "fs5", "fs6", "fs7",
	"fs8", "fs9", "fs10", "fs11", "ft8", "ft9", "ft10", "ft11",
}

var matrixStateNames = [...]string{
	"mstart", "mcsr", "mtype", "mtilem", "mtilen", "mtilek",
	"mlenb", "mrlenb", "mamul",
}

// Name returns the conventional name for a register number. CSRs outside
// the named set render as "csr<address>"; translating CSR addresses into
// full mnemonics is left to the CSR name tables of the front end.
func Name(regno Regno) string {
	switch {
	case IsGPR(regno):
		return gprNames[regno]
	case regno == PC:
		return "pc"
	case IsFPR(regno):
		return fprNames[regno-FPR0]
	case IsCSR(regno):
		addr, _ := CSRAddress(regno)
		return fmt.Sprintf("csr%d", addr)
	case regno == Priv:
		return "priv"
	case IsVector(regno):
		return fmt.Sprintf("v%d", regno-V0)
	case IsTile(regno):
		return fmt.Sprintf("tr%d", regno-TR0)
	case IsAccumulator(regno):
		return fmt.Sprintf("acc%d", regno-ACC0)
	case IsMatrixState(regno):
		return matrixStateNames[regno-Mstart]
	default:
		return fmt.Sprintf("custom%d", regno)
	}
}
