// Package sim provides a simulated RISC-V hart behind the debug transport
// interface. It models enough architectural behavior to exercise the
// register cache: the hardwired zero register, WARL adjustment of written
// CSR values, and trigger data registers that change with tselect.
package sim

import (
	"fmt"

	"github.com/rvlab/rvdbg/regs"
)

// trigger is one hardware trigger's data register bank.
type trigger struct {
	tdata1 uint64
	tdata2 uint64
	tdata3 uint64
}

// Hart is a simulated RISC-V hart. It implements the register and memory
// operations of the debug transport.
type Hart struct {
	xlen        uint32
	flen        uint32
	supervisor  bool
	embedded    bool
	vlenb       uint32
	mlenb       uint32
	mrlenb      uint32
	mamul       uint32
	numTriggers int

	gpr  [32]uint64
	pc   uint64
	priv uint64
	fpr  [32]uint64
	csr  map[uint16]uint64
	vreg [][]byte
	tile [][]byte
	acc  [][]byte

	mstate   map[regs.Regno]uint64
	tselect  uint64
	triggers []trigger

	mem *Memory
}

// HartOption is a functional option for configuring a Hart.
type HartOption func(*Hart)

// WithXLen sets the integer register width (32 or 64). Default 64.
func WithXLen(xlen uint32) HartOption {
	return func(h *Hart) {
		h.xlen = xlen
	}
}

// WithFPU gives the hart floating-point registers of the given width.
func WithFPU(flen uint32) HartOption {
	return func(h *Hart) {
		h.flen = flen
	}
}

// WithSupervisor gives the hart supervisor mode (and a working satp).
func WithSupervisor() HartOption {
	return func(h *Hart) {
		h.supervisor = true
	}
}

// WithEmbedded makes the hart an RV32E/RV64E hart with 16 integer
// registers.
func WithEmbedded() HartOption {
	return func(h *Hart) {
		h.embedded = true
	}
}

// WithVector gives the hart vector registers of vlenb bytes.
func WithVector(vlenb uint32) HartOption {
	return func(h *Hart) {
		h.vlenb = vlenb
	}
}

// WithMatrix gives the hart matrix registers with the given geometry:
// mlenb total bytes, mrlenb bytes per row, mamul accumulator multiplier.
func WithMatrix(mlenb, mrlenb, mamul uint32) HartOption {
	return func(h *Hart) {
		h.mlenb = mlenb
		h.mrlenb = mrlenb
		h.mamul = mamul
	}
}

// WithTriggers sets the number of hardware triggers. Default 4.
func WithTriggers(n int) HartOption {
	return func(h *Hart) {
		h.numTriggers = n
	}
}

// WithCSR declares a vendor CSR at the given address with an initial
// value, making it reachable over the transport.
func WithCSR(addr uint16, value uint64) HartOption {
	return func(h *Hart) {
		h.csr[addr] = value
	}
}

// NewHart creates a simulated hart.
func NewHart(opts ...HartOption) *Hart {
	h := &Hart{
		xlen:        64,
		numTriggers: 4,
		csr:         make(map[uint16]uint64),
		mstate:      make(map[regs.Regno]uint64),
		mem:         NewMemory(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.triggers = make([]trigger, h.numTriggers)
	if h.vlenb > 0 {
		h.vreg = make([][]byte, 32)
		for i := range h.vreg {
			h.vreg[i] = make([]byte, h.vlenb)
		}
	}
	if h.mrlenb > 0 {
		if h.mamul == 0 {
			h.mamul = 1
		}
		h.tile = make([][]byte, 8)
		for i := range h.tile {
			h.tile[i] = make([]byte, h.mlenb)
		}
		h.acc = make([][]byte, 8)
		for i := range h.acc {
			h.acc[i] = make([]byte, h.mlenb*h.mamul)
		}
	}
	return h
}

// Memory returns the hart's memory, for test setup.
func (h *Hart) Memory() *Memory {
	return h.mem
}

// misa composes the extension bits advertised to the debugger.
func (h *Hart) misa() uint64 {
	ext := func(letter byte) uint64 {
		return 1 << (letter - 'A')
	}
	v := ext('M') | ext('A') | ext('C')
	if h.embedded {
		v |= ext('E')
	} else {
		v |= ext('I')
	}
	if h.flen >= 32 {
		v |= ext('F')
	}
	if h.flen >= 64 {
		v |= ext('D')
	}
	if h.supervisor {
		v |= ext('S') | ext('U')
	}
	if h.vlenb > 0 {
		v |= ext('V')
	}
	return v
}

// ReadRegister reads a register of up to 64 bits.
func (h *Hart) ReadRegister(regno regs.Regno) (uint64, error) {
	switch {
	case regno == regs.Zero:
		return 0, nil
	case regs.IsGPR(regno):
		return h.gpr[regno], nil
	case regno == regs.PC:
		return h.pc, nil
	case regs.IsFPR(regno):
		if h.flen == 0 {
			return 0, fmt.Errorf("hart has no FPU")
		}
		return h.fpr[regno-regs.FPR0], nil
	case regno == regs.Priv:
		return h.priv & 0x3, nil
	case regs.IsMatrixState(regno):
		return h.readMatrixState(regno)
	case regs.IsCSR(regno):
		addr, _ := regs.CSRAddress(regno)
		return h.readCSR(addr)
	default:
		return 0, fmt.Errorf("register %s not readable over the debug link",
			regs.Name(regno))
	}
}

// WriteRegister writes a register of up to 64 bits, applying the WARL
// adjustments a real hart performs.
func (h *Hart) WriteRegister(regno regs.Regno, value uint64) error {
	switch {
	case regno == regs.Zero:
		// Writes to x0 are discarded.
		return nil
	case regs.IsGPR(regno):
		h.gpr[regno] = value
		return nil
	case regno == regs.PC:
		h.pc = value
		return nil
	case regs.IsFPR(regno):
		if h.flen == 0 {
			return fmt.Errorf("hart has no FPU")
		}
		h.fpr[regno-regs.FPR0] = value
		return nil
	case regno == regs.Priv:
		h.priv = value & 0x3
		return nil
	case regs.IsMatrixState(regno):
		return h.writeMatrixState(regno, value)
	case regs.IsCSR(regno):
		addr, _ := regs.CSRAddress(regno)
		return h.writeCSR(addr, value)
	default:
		return fmt.Errorf("register %s not writable over the debug link",
			regs.Name(regno))
	}
}

func (h *Hart) readMatrixState(regno regs.Regno) (uint64, error) {
	if h.mrlenb == 0 {
		return 0, fmt.Errorf("hart has no matrix extension")
	}
	switch regno {
	case regs.Mlenb:
		return uint64(h.mlenb), nil
	case regs.Mrlenb:
		return uint64(h.mrlenb), nil
	case regs.Mamul:
		return uint64(h.mamul), nil
	default:
		return h.mstate[regno], nil
	}
}

func (h *Hart) writeMatrixState(regno regs.Regno, value uint64) error {
	if h.mrlenb == 0 {
		return fmt.Errorf("hart has no matrix extension")
	}
	switch regno {
	case regs.Mlenb, regs.Mrlenb, regs.Mamul:
		// Geometry registers are read-only; writes are dropped.
		return nil
	default:
		h.mstate[regno] = value
		return nil
	}
}

func (h *Hart) readCSR(addr uint16) (uint64, error) {
	switch regs.CSR(addr) {
	case regs.Misa:
		return h.misa(), nil
	case regs.Vlenb:
		if h.vlenb == 0 {
			return 0, fmt.Errorf("hart has no vector extension")
		}
		return uint64(h.vlenb), nil
	case regs.Satp:
		if !h.supervisor {
			// No MMU: satp is hardwired to zero.
			return 0, nil
		}
		return h.csr[addr], nil
	case regs.Tselect:
		return h.tselect, nil
	case regs.Tdata1:
		return h.triggers[h.tselect].tdata1, nil
	case regs.Tdata2:
		return h.triggers[h.tselect].tdata2, nil
	case regs.Tdata3:
		return h.triggers[h.tselect].tdata3, nil
	case regs.Mstatus, regs.Mepc, regs.Mcause,
		regs.Dcsr, regs.Dpc, regs.Dscratch0, regs.Dscratch1:
		return h.csr[addr], nil
	case regs.Vstart, regs.Vxsat, regs.Vxrm, regs.Vcsr,
		regs.Vl, regs.Vtype:
		if h.vlenb == 0 {
			return 0, fmt.Errorf("hart has no vector extension")
		}
		return h.csr[addr], nil
	}
	if v, ok := h.csr[addr]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("csr 0x%x not implemented", addr)
}

func (h *Hart) writeCSR(addr uint16, value uint64) error {
	switch regs.CSR(addr) {
	case regs.Misa, regs.Vlenb:
		// Read-only; writes are dropped.
		return nil
	case regs.Satp:
		if !h.supervisor {
			// WARL: without an MMU every write reads back as zero.
			return nil
		}
		h.csr[addr] = value
		return nil
	case regs.Tselect:
		// WARL: out-of-range selects clamp to the last trigger.
		if value >= uint64(h.numTriggers) {
			value = uint64(h.numTriggers - 1)
		}
		h.tselect = value
		return nil
	case regs.Tdata1:
		h.triggers[h.tselect].tdata1 = value
		return nil
	case regs.Tdata2:
		h.triggers[h.tselect].tdata2 = value
		return nil
	case regs.Tdata3:
		h.triggers[h.tselect].tdata3 = value
		return nil
	case regs.Dpc:
		// WARL: instruction addresses are at least 2-byte aligned.
		h.csr[addr] = value &^ 1
		return nil
	case regs.Dcsr:
		// WARL: only the writable fields stick.
		h.csr[addr] = value & 0xf07f
		return nil
	case regs.Vstart, regs.Vxsat, regs.Vxrm, regs.Vcsr,
		regs.Vl, regs.Vtype:
		if h.vlenb == 0 {
			return fmt.Errorf("hart has no vector extension")
		}
		h.csr[addr] = value
		return nil
	case regs.Mstatus, regs.Mepc, regs.Mcause,
		regs.Dscratch0, regs.Dscratch1:
		h.csr[addr] = value
		return nil
	}
	if _, ok := h.csr[addr]; ok {
		h.csr[addr] = value
		return nil
	}
	return fmt.Errorf("csr 0x%x not implemented", addr)
}

// wideBank returns the storage for a wide register.
func (h *Hart) wideBank(regno regs.Regno) ([]byte, error) {
	switch {
	case regs.IsVector(regno):
		if h.vlenb == 0 {
			return nil, fmt.Errorf("hart has no vector extension")
		}
		return h.vreg[regno-regs.V0], nil
	case regs.IsTile(regno):
		if h.mrlenb == 0 {
			return nil, fmt.Errorf("hart has no matrix extension")
		}
		return h.tile[regno-regs.TR0], nil
	case regs.IsAccumulator(regno):
		if h.mrlenb == 0 {
			return nil, fmt.Errorf("hart has no matrix extension")
		}
		return h.acc[regno-regs.ACC0], nil
	default:
		return nil, fmt.Errorf("register %s is not a wide register",
			regs.Name(regno))
	}
}

// ReadRegisterBuf reads a vector, tile, or accumulator register into buf.
func (h *Hart) ReadRegisterBuf(regno regs.Regno, buf []byte) error {
	bank, err := h.wideBank(regno)
	if err != nil {
		return err
	}
	if len(buf) < len(bank) {
		return fmt.Errorf("buffer too small for %s: %d < %d",
			regs.Name(regno), len(buf), len(bank))
	}
	copy(buf, bank)
	return nil
}

// WriteRegisterBuf writes a vector, tile, or accumulator register.
func (h *Hart) WriteRegisterBuf(regno regs.Regno, buf []byte) error {
	bank, err := h.wideBank(regno)
	if err != nil {
		return err
	}
	if len(buf) < len(bank) {
		return fmt.Errorf("buffer too small for %s: %d < %d",
			regs.Name(regno), len(buf), len(bank))
	}
	copy(bank, buf)
	return nil
}

// ReadMemory fills buf from the hart's memory.
func (h *Hart) ReadMemory(addr uint64, buf []byte) error {
	h.mem.ReadBuf(addr, buf)
	return nil
}

// WriteMemory stores data to the hart's memory.
func (h *Hart) WriteMemory(addr uint64, data []byte) error {
	h.mem.WriteBuf(addr, data)
	return nil
}
