package rvreg

import (
	"fmt"

	"github.com/rvlab/rvdbg/regs"
	"github.com/rvlab/rvdbg/regtype"
)

// Transport performs register and memory access over the debug link.
// Implementations may block on link I/O; the register cache itself never
// does. All operations refer to architectural register numbers.
type Transport interface {
	// ReadRegister reads a register of up to 64 bits.
	ReadRegister(regno regs.Regno) (uint64, error)
	// WriteRegister writes a register of up to 64 bits.
	WriteRegister(regno regs.Regno, value uint64) error
	// ReadRegisterBuf reads a wide register into buf (little endian).
	ReadRegisterBuf(regno regs.Regno, buf []byte) error
	// WriteRegisterBuf writes a wide register from buf (little endian).
	WriteRegisterBuf(regno regs.Regno, buf []byte) error
	// ReadMemory fills buf from target memory at addr.
	ReadMemory(addr uint64, buf []byte) error
	// WriteMemory stores data to target memory at addr.
	WriteMemory(addr uint64, data []byte) error
}

// Target is one debugged RISC-V hart. It owns the register cache, the
// vector/matrix type trees, and the capability values discovered at
// connect time. A Target must only be used from a single control flow.
type Target struct {
	name      string
	transport Transport

	// Capabilities, discovered once by Examine and treated as
	// immutable for the rest of the session.
	xlen     uint32
	flen     uint32
	misa     uint64
	vlenb    uint32
	mlenb    uint32
	mrlenb   uint32
	mamul    uint32
	examined bool

	halted bool

	exposeCSRs []uint16
	hideCSRs   []uint16

	cache      *cache
	vectorType *regtype.Type
	matrix     *regtype.MatrixTypes
}

// TargetOption is a functional option for configuring a Target.
type TargetOption func(*Target)

// WithXLen sets the width of the integer registers (32 or 64).
func WithXLen(xlen uint32) TargetOption {
	return func(t *Target) {
		t.xlen = xlen
	}
}

// WithExposedCSRs sets the CSR addresses to additionally expose after the
// standard registers are initialized.
func WithExposedCSRs(csrs ...uint16) TargetOption {
	return func(t *Target) {
		t.exposeCSRs = append(t.exposeCSRs, csrs...)
	}
}

// WithHiddenCSRs sets the CSR addresses to hide again after exposure.
func WithHiddenCSRs(csrs ...uint16) TargetOption {
	return func(t *Target) {
		t.hideCSRs = append(t.hideCSRs, csrs...)
	}
}

// NewTarget creates a target on top of a debug transport. The register
// cache is not allocated until InitRegisters or InitCache is called.
func NewTarget(name string, transport Transport, opts ...TargetOption) *Target {
	t := &Target{
		name:      name,
		transport: transport,
		xlen:      64,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the target's name.
func (t *Target) Name() string {
	return t.name
}

// Examine discovers the target's capabilities over the debug link: the
// implemented extensions from misa, the vector register length, and the
// matrix geometry. It is called once per session; the results are treated
// as immutable afterwards. A missing optional capability register is
// treated as "feature absent", not as an error.
func (t *Target) Examine() error {
	misa, err := t.transport.ReadRegister(regs.Misa)
	if err != nil {
		return fmt.Errorf("%s: failed to read misa: %w", t.name, err)
	}
	t.misa = misa

	switch {
	case t.hasExtensionIn(misa, 'D'):
		t.flen = 64
	case t.hasExtensionIn(misa, 'F'):
		t.flen = 32
	default:
		t.flen = 0
	}

	t.vlenb = 0
	if t.hasExtensionIn(misa, 'V') {
		if vlenb, err := t.transport.ReadRegister(regs.Vlenb); err == nil {
			t.vlenb = uint32(vlenb)
		}
	}

	t.mlenb, t.mrlenb, t.mamul = 0, 0, 0
	if mrlenb, err := t.transport.ReadRegister(regs.Mrlenb); err == nil && mrlenb != 0 {
		t.mrlenb = uint32(mrlenb)
		if mlenb, err := t.transport.ReadRegister(regs.Mlenb); err == nil {
			t.mlenb = uint32(mlenb)
		}
		t.mamul = 1
		if mamul, err := t.transport.ReadRegister(regs.Mamul); err == nil && mamul != 0 {
			t.mamul = uint32(mamul)
		}
	}

	t.examined = true
	return nil
}

// HasExtension reports whether the target implements the single-letter
// ISA extension, per the misa value read during Examine.
func (t *Target) HasExtension(letter byte) bool {
	return t.hasExtensionIn(t.misa, letter)
}

func (t *Target) hasExtensionIn(misa uint64, letter byte) bool {
	if letter < 'A' || letter > 'Z' {
		return false
	}
	return misa&(1<<(letter-'A')) != 0
}

// XLen returns the integer register width in bits.
func (t *Target) XLen() uint32 { return t.xlen }

// Misa returns the misa value read during Examine.
func (t *Target) Misa() uint64 { return t.misa }

// FLen returns the floating-point register width in bits, 0 without FPU.
func (t *Target) FLen() uint32 { return t.flen }

// Vlenb returns the vector register length in bytes, 0 without the
// vector extension.
func (t *Target) Vlenb() uint32 { return t.vlenb }

// Mlenb returns the matrix register length in bytes.
func (t *Target) Mlenb() uint32 { return t.mlenb }

// Mrlenb returns the matrix row length in bytes, 0 without the matrix
// extension.
func (t *Target) Mrlenb() uint32 { return t.mrlenb }

// Mamul returns the matrix accumulator width multiplier.
func (t *Target) Mamul() uint32 { return t.mamul }

// VectorType returns the vector register type tree built during
// InitRegisters, nil before that or without the vector extension.
func (t *Target) VectorType() *regtype.Type {
	return t.vectorType
}

// MatrixTypes returns the matrix register type trees built during
// InitRegisters, nil without the matrix extension.
func (t *Target) MatrixTypes() *regtype.MatrixTypes {
	return t.matrix
}

// Halted reports whether the hart is halted from the debugger's point of
// view.
func (t *Target) Halted() bool {
	return t.halted
}

// Halt marks the hart halted. Register values may be cached while halted.
func (t *Target) Halt() {
	t.halted = true
}

// Resume flushes dirty register values to the hart, invalidates the whole
// cache (values go stale once the hart runs), and marks the hart running.
func (t *Target) Resume() error {
	if err := t.FlushRegisters(); err != nil {
		return err
	}
	t.InvalidateRegisters()
	t.halted = false
	return nil
}

// registerBits returns the width of a register given the discovered
// capabilities.
func (t *Target) registerBits(regno regs.Regno) uint32 {
	switch {
	case regs.IsGPR(regno) || regno == regs.PC || regs.IsCSR(regno):
		return t.xlen
	case regs.IsFPR(regno):
		return t.flen
	case regno == regs.Priv:
		return 8
	case regs.IsVector(regno):
		return t.vlenb * 8
	case regs.IsTile(regno):
		return t.mlenb * 8
	case regs.IsAccumulator(regno):
		return t.mlenb * t.mamul * 8
	case regs.IsMatrixState(regno):
		return t.xlen
	default:
		return t.xlen
	}
}

// registerExists reports whether the hardware implements a register. CSRs
// outside the known set default to nonexistent; the front end can still
// reach them through ExposeCSRs.
func (t *Target) registerExists(regno regs.Regno) bool {
	switch {
	case regs.IsGPR(regno) || regno == regs.PC || regno == regs.Priv:
		return true
	case regs.IsFPR(regno):
		return t.flen > 0
	case regs.IsVector(regno):
		return t.vlenb > 0
	case regs.IsTile(regno) || regs.IsAccumulator(regno) || regs.IsMatrixState(regno):
		return t.mrlenb > 0
	}
	switch regno {
	case regs.Vstart, regs.Vxsat, regs.Vxrm, regs.Vcsr,
		regs.Vl, regs.Vtype, regs.Vlenb:
		return t.vlenb > 0
	case regs.Satp:
		return t.HasExtension('S')
	case regs.Mstatus, regs.Misa, regs.Mepc, regs.Mcause,
		regs.Tselect, regs.Tdata1, regs.Tdata2,
		regs.Dcsr, regs.Dpc, regs.Dscratch0, regs.Dscratch1:
		return true
	}
	return false
}

// typeFor returns the type descriptor a register slot should reference,
// nil for plain scalar registers.
func (t *Target) typeFor(regno regs.Regno) *regtype.Type {
	switch {
	case regs.IsVector(regno):
		return t.vectorType
	case regs.IsTile(regno):
		if t.matrix == nil {
			return nil
		}
		return t.matrix.Tile
	case regs.IsAccumulator(regno):
		if t.matrix == nil {
			return nil
		}
		return t.matrix.Acc
	default:
		return nil
	}
}
