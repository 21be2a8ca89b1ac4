package rvreg

import (
	"fmt"

	"github.com/rvlab/rvdbg/regs"
	"github.com/rvlab/rvdbg/regtype"
)

// cache holds the slot array of one target. The first regs.Count slots are
// keyed by architectural register number; slots beyond that belong to
// dynamically exposed CSRs and are keyed by their custom number.
type cache struct {
	slots []Slot

	// exposed maps a CSR address to the slot number of its dynamically
	// exposed entry.
	exposed map[uint16]regs.Regno

	// nextCustom is a monotonic counter; custom numbers are never
	// reused for the life of the cache.
	nextCustom uint32
}

// InitCache allocates the full slot array, sized to the register number
// space of the target's numbering scheme regardless of which registers
// exist in hardware. No slot identity is stamped. Returns ErrCacheExists
// if the target already owns a cache.
func (t *Target) InitCache() error {
	if t.cache != nil {
		return fmt.Errorf("%s: %w", t.name, ErrCacheExists)
	}
	t.cache = &cache{
		slots:   make([]Slot, regs.Count),
		exposed: make(map[uint16]regs.Regno),
	}
	return nil
}

// InitOne stamps the slot for a register number: identity, width,
// existence, type descriptor, and the back-reference to the target. The
// slot must be in its allocated-but-uninitialized state; stamping the same
// number twice returns ErrAlreadyInitialized.
func (t *Target) InitOne(regno regs.Regno, typ *regtype.Type) error {
	if t.cache == nil {
		return fmt.Errorf("%s: %w", t.name, ErrNoCache)
	}
	if regno >= regs.Count {
		return fmt.Errorf("%s: register number %d out of range: %w",
			t.name, regno, ErrInvalidState)
	}
	s := &t.cache.slots[regno]
	if s.IsInitialized() {
		return fmt.Errorf("%s: register %s (%d): %w",
			t.name, regs.Name(regno), regno, ErrAlreadyInitialized)
	}
	if err := s.CheckInvariants(); err != nil {
		return err
	}

	s.Number = regno
	s.Name = regs.Name(regno)
	s.Bits = t.registerBits(regno)
	s.Exists = t.registerExists(regno)
	if s.Exists {
		s.Value = make([]byte, bufLen(s.Bits))
	}
	s.Type = typ
	s.info = &backref{target: t, arch: regno}
	return nil
}

// CacheEntry returns the slot for a register number. It never allocates;
// it returns nil if the cache was never initialized, was freed, or the
// number is outside the current slot array.
func (t *Target) CacheEntry(number regs.Regno) *Slot {
	if t.cache == nil || int(number) >= len(t.cache.slots) {
		return nil
	}
	return &t.cache.slots[number]
}

// NumSlots returns the current size of the slot array, including slots of
// dynamically exposed CSRs. Zero when no cache exists.
func (t *Target) NumSlots() int {
	if t.cache == nil {
		return 0
	}
	return len(t.cache.slots)
}

// FreeAll releases every owned value buffer and invalidates all slots
// atomically. Subsequent CacheEntry lookups return nil instead of stale
// handles.
func (t *Target) FreeAll() {
	if t.cache == nil {
		return
	}
	for i := range t.cache.slots {
		t.cache.slots[i] = Slot{}
	}
	t.cache = nil
}

// CheckCache runs the slot invariant check over the whole cache and
// returns the first violation found. Intended for diagnostics and tests.
func (t *Target) CheckCache() error {
	if t.cache == nil {
		return nil
	}
	for i := range t.cache.slots {
		if err := t.cache.slots[i].CheckInvariants(); err != nil {
			return err
		}
	}
	return nil
}
