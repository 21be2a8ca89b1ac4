// Package rvreg implements the register cache of a RISC-V debug target:
// slot lifecycle, the cacheability policy consulted before hardware access,
// dynamic CSR exposure, and the cached register access layer on top of a
// debug transport.
//
// Each cache slot proceeds through the following stages:
//   - not allocated before Target.InitCache
//   - allocated but not initialized before Target.InitOne with its number
//   - initialized until Target.FreeAll tears the cache down
package rvreg

import (
	"fmt"

	"github.com/rvlab/rvdbg/regs"
	"github.com/rvlab/rvdbg/regtype"
)

// Slot is the cache entry for one register. A slot is either entirely in
// its zero state or fully stamped by InitOne; the back-reference is only
// set on stamped slots.
type Slot struct {
	// Number is the slot's stable identity in the cache. It equals the
	// architectural register number for standard registers and a custom
	// number at or above regs.Count for dynamically exposed CSRs.
	Number regs.Regno

	// Name is the register's presentation name.
	Name string

	// Bits is the register width in bits.
	Bits uint32

	// Exists reports whether the hardware implements this register.
	Exists bool

	// Value is the owned value buffer, allocated iff Exists.
	Value []byte

	// Valid reports that Value reflects the hardware register.
	Valid bool

	// Dirty reports that Value was written locally and not yet flushed.
	// Dirty implies Valid.
	Dirty bool

	// Type is the register's type descriptor, nil for plain scalars.
	Type *regtype.Type

	info *backref
}

// backref binds a stamped slot to its owning target. It is a non-owning
// reference, valid for the target's lifetime and dropped at teardown.
type backref struct {
	target *Target

	// arch is the architectural register number used on the debug link.
	// It differs from Slot.Number only for dynamically exposed CSRs.
	arch regs.Regno

	// customNumber distinguishes dynamically exposed CSRs from
	// architectural registers. Zero for standard slots.
	customNumber uint32
}

// IsInitialized reports whether the slot has been stamped by InitOne.
func (s *Slot) IsInitialized() bool {
	return s != nil && s.info != nil
}

// Target returns the target owning the slot, or nil for an unstamped slot.
// Generic register access code that receives only a slot handle uses this
// to locate the target-specific hardware access behavior.
func (s *Slot) Target() *Target {
	if s == nil || s.info == nil {
		return nil
	}
	return s.info.target
}

// ArchRegno returns the architectural register number behind the slot.
// For standard slots it equals Number; for dynamically exposed CSRs it is
// the regno of the underlying CSR.
func (s *Slot) ArchRegno() regs.Regno {
	if s.info == nil {
		return s.Number
	}
	return s.info.arch
}

// CustomNumber returns the custom number of a dynamically exposed CSR
// slot, or zero for standard slots.
func (s *Slot) CustomNumber() uint32 {
	if s.info == nil {
		return 0
	}
	return s.info.customNumber
}

// CheckInvariants verifies the slot against the cache invariants: an
// unstamped slot must be bit-identical to the zero state, a stamped slot
// must carry a live back-reference, own a value buffer iff the register
// exists, and may be dirty only while valid.
func (s *Slot) CheckInvariants() error {
	if s.info == nil {
		if !s.isZero() {
			return fmt.Errorf("slot %d is partially stamped: %w",
				s.Number, ErrInvalidState)
		}
		return nil
	}
	if s.info.target == nil {
		return fmt.Errorf("register %s has no owning target: %w",
			s.Name, ErrInvalidState)
	}
	if s.Exists != (s.Value != nil) {
		return fmt.Errorf("register %s: exists=%v but value buffer present=%v: %w",
			s.Name, s.Exists, s.Value != nil, ErrInvalidState)
	}
	if s.Dirty && !s.Valid {
		return fmt.Errorf("register %s is dirty but not valid: %w",
			s.Name, ErrInvalidState)
	}
	return nil
}

func (s *Slot) isZero() bool {
	return s.Number == 0 && s.Name == "" && s.Bits == 0 &&
		!s.Exists && s.Value == nil && !s.Valid && !s.Dirty &&
		s.Type == nil
}

// bufLen returns the number of value bytes needed for a register width.
func bufLen(bits uint32) int {
	return int(bits+7) / 8
}

// bufGetU64 reads the low 64 bits of a little-endian value buffer.
func bufGetU64(buf []byte) uint64 {
	var v uint64
	for i := 0; i < len(buf) && i < 8; i++ {
		v |= uint64(buf[i]) << (8 * i)
	}
	return v
}

// bufSetU64 stores a value into a little-endian buffer, truncating or
// zero-extending to the buffer length.
func bufSetU64(buf []byte, v uint64) {
	for i := range buf {
		if i < 8 {
			buf[i] = byte(v >> (8 * i))
		} else {
			buf[i] = 0
		}
	}
}
