package rvreg

import (
	"fmt"

	"github.com/rvlab/rvdbg/regs"
	"github.com/rvlab/rvdbg/regtype"
)

// InitRegisters brings up the register cache for the target: examines the
// hart if that has not happened yet, allocates the slot array, builds the
// vector and matrix type trees from the discovered geometry, stamps every
// architectural slot, and applies the configured CSR exposure.
func (t *Target) InitRegisters() error {
	if !t.examined {
		if err := t.Examine(); err != nil {
			return err
		}
	}
	if err := t.InitCache(); err != nil {
		return err
	}

	t.vectorType = regtype.BuildVector(t.vlenb)
	t.matrix = regtype.BuildMatrix(t.mlenb, t.mrlenb, t.mamul)

	for regno := regs.Regno(0); regno < regs.Count; regno++ {
		if err := t.InitOne(regno, t.typeFor(regno)); err != nil {
			return err
		}
	}

	if err := t.ExposeCSRs(t.exposeCSRs...); err != nil {
		return err
	}
	t.HideCSRs(t.hideCSRs...)

	return nil
}

// slotFor resolves a slot number to an initialized, existing slot.
func (t *Target) slotFor(number regs.Regno) (*Slot, error) {
	s := t.CacheEntry(number)
	if !s.IsInitialized() {
		return nil, fmt.Errorf("%s: register %d: %w", t.name, number, ErrNoCache)
	}
	if !s.Exists {
		return nil, fmt.Errorf("%s: register %s: %w", t.name, s.Name, ErrNonexistent)
	}
	return s, nil
}

// isWide reports whether a register is accessed through the buffer
// transport operations rather than the 64-bit ones.
func isWide(arch regs.Regno) bool {
	return regs.IsVector(arch) || regs.IsTile(arch) || regs.IsAccumulator(arch)
}

// ReadRegister returns the low 64 bits of a register, reading hardware
// only when the cached value cannot be trusted. The value is cached
// afterwards iff the cacheability policy allows trusting a just-read
// value.
func (t *Target) ReadRegister(number regs.Regno) (uint64, error) {
	s, err := t.slotFor(number)
	if err != nil {
		return 0, err
	}
	if s.Valid {
		return bufGetU64(s.Value), nil
	}

	arch := s.ArchRegno()

	// Accommodate clients that still ask for x16..x31 on an E hart.
	if arch > regs.XPR15 && arch <= regs.XPR31 && t.HasExtension('E') {
		return 0, nil
	}

	if isWide(arch) {
		if err := t.transport.ReadRegisterBuf(arch, s.Value); err != nil {
			return 0, fmt.Errorf("%s: read %s: %w", t.name, s.Name, err)
		}
	} else {
		v, err := t.transport.ReadRegister(arch)
		if err != nil {
			return 0, fmt.Errorf("%s: read %s: %w", t.name, s.Name, err)
		}
		bufSetU64(s.Value, v)
	}
	s.Valid = Cacheable(arch, false)
	return bufGetU64(s.Value), nil
}

// WriteRegister writes the low bits of a register through to hardware.
// The written value is kept as the cached value only if the cacheability
// policy guarantees the register retains exactly what was written.
func (t *Target) WriteRegister(number regs.Regno, value uint64) error {
	s, err := t.slotFor(number)
	if err != nil {
		return err
	}
	arch := s.ArchRegno()

	// Clients may zero x16..x31 on an E hart; discard silently.
	if arch > regs.XPR15 && arch <= regs.XPR31 && t.HasExtension('E') &&
		value == 0 {
		return nil
	}

	if err := t.transport.WriteRegister(arch, value); err != nil {
		return fmt.Errorf("%s: write %s: %w", t.name, s.Name, err)
	}
	if Cacheable(arch, true) {
		bufSetU64(s.Value, value)
		s.Valid = true
	} else {
		s.Valid = false
	}
	s.Dirty = false
	return nil
}

// ReadRegisterBuf fills buf with the full value of a wide register,
// consulting the cache first. buf must be at least as long as the slot's
// value buffer.
func (t *Target) ReadRegisterBuf(number regs.Regno, buf []byte) error {
	s, err := t.slotFor(number)
	if err != nil {
		return err
	}
	if len(buf) < len(s.Value) {
		return fmt.Errorf("%s: buffer too small for %s: %d < %d",
			t.name, s.Name, len(buf), len(s.Value))
	}
	if s.Valid {
		copy(buf, s.Value)
		return nil
	}
	arch := s.ArchRegno()
	if isWide(arch) {
		if err := t.transport.ReadRegisterBuf(arch, s.Value); err != nil {
			return fmt.Errorf("%s: read %s: %w", t.name, s.Name, err)
		}
	} else {
		v, err := t.transport.ReadRegister(arch)
		if err != nil {
			return fmt.Errorf("%s: read %s: %w", t.name, s.Name, err)
		}
		bufSetU64(s.Value, v)
	}
	s.Valid = Cacheable(arch, false)
	copy(buf, s.Value)
	return nil
}

// WriteRegisterBuf writes the full value of a wide register through to
// hardware, caching it per the policy.
func (t *Target) WriteRegisterBuf(number regs.Regno, buf []byte) error {
	s, err := t.slotFor(number)
	if err != nil {
		return err
	}
	if len(buf) < len(s.Value) {
		return fmt.Errorf("%s: buffer too small for %s: %d < %d",
			t.name, s.Name, len(buf), len(s.Value))
	}
	arch := s.ArchRegno()
	if !isWide(arch) {
		return t.WriteRegister(number, bufGetU64(buf))
	}
	if err := t.transport.WriteRegisterBuf(arch, buf[:len(s.Value)]); err != nil {
		return fmt.Errorf("%s: write %s: %w", t.name, s.Name, err)
	}
	copy(s.Value, buf)
	s.Valid = Cacheable(arch, true)
	s.Dirty = false
	return nil
}

// Save caches the current value of a register and marks the slot dirty,
// for callers that are about to clobber the underlying register as
// scratch. Writeback is delayed until FlushRegisters or Resume. Only
// registers whose read value is cacheable can be saved, and only while
// the hart is halted.
func (t *Target) Save(number regs.Regno) error {
	if !t.halted {
		return fmt.Errorf("%s: can't save register %s: %w",
			t.name, regs.Name(number), ErrNotHalted)
	}
	if !Cacheable(number, false) {
		return fmt.Errorf("%s: register %s is not cacheable and can't be saved",
			t.name, regs.Name(number))
	}
	if t.cache == nil {
		// Before the cache exists (during examine) any changed
		// register is saved and restored manually by the caller.
		return nil
	}
	if _, err := t.ReadRegister(number); err != nil {
		return err
	}
	s := t.CacheEntry(number)
	if !s.Valid {
		return fmt.Errorf("%s: register %s not valid after cacheable read: %w",
			t.name, s.Name, ErrInvalidState)
	}
	s.Dirty = true
	return nil
}

// FlushRegisters writes every dirty cached value back to the hart and
// clears the dirty marks. Valid values stay valid.
func (t *Target) FlushRegisters() error {
	if t.cache == nil {
		return nil
	}
	for i := range t.cache.slots {
		s := &t.cache.slots[i]
		if !s.Dirty {
			continue
		}
		arch := s.ArchRegno()
		if isWide(arch) {
			if err := t.transport.WriteRegisterBuf(arch, s.Value); err != nil {
				return fmt.Errorf("%s: flush %s: %w", t.name, s.Name, err)
			}
		} else {
			if err := t.transport.WriteRegister(arch, bufGetU64(s.Value)); err != nil {
				return fmt.Errorf("%s: flush %s: %w", t.name, s.Name, err)
			}
		}
		s.Dirty = false
	}
	return nil
}

// InvalidateRegisters drops every cached value without writing anything
// back. Dirty values are discarded, so callers normally flush first.
func (t *Target) InvalidateRegisters() {
	if t.cache == nil {
		return
	}
	for i := range t.cache.slots {
		t.cache.slots[i].Valid = false
		t.cache.slots[i].Dirty = false
	}
}
