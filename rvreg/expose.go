package rvreg

import (
	"fmt"

	"github.com/rvlab/rvdbg/regs"
)

// ExposeCSRs adds cache slots for the given CSR addresses. Each exposed
// CSR receives a slot number at or above regs.Count and a custom number
// distinct from all architectural numbers; both stay stable until the
// cache is freed. Addresses already exposed are skipped. All arguments
// are validated before any slot is touched, so a failed call leaves the
// cache unchanged.
func (t *Target) ExposeCSRs(csrs ...uint16) error {
	if t.cache == nil {
		return fmt.Errorf("%s: %w", t.name, ErrNoCache)
	}
	for _, csr := range csrs {
		if csr > 4095 {
			return fmt.Errorf("%s: CSR address 0x%x out of range", t.name, csr)
		}
	}

	for _, csr := range csrs {
		if _, ok := t.cache.exposed[csr]; ok {
			continue
		}
		number := t.cache.claimCustomSlot()
		s := &t.cache.slots[number]
		t.cache.nextCustom++

		s.Number = number
		s.Name = fmt.Sprintf("csr%d", csr)
		s.Bits = t.xlen
		s.Exists = true
		s.Value = make([]byte, bufLen(s.Bits))
		s.info = &backref{
			target:       t,
			arch:         regs.CSR(csr),
			customNumber: t.cache.nextCustom,
		}
		t.cache.exposed[csr] = number
	}
	return nil
}

// HideCSRs removes the slots of previously exposed CSRs. It never errors:
// addresses that are not currently exposed are ignored. Slots outside the
// given set keep their identity and cached values.
func (t *Target) HideCSRs(csrs ...uint16) {
	if t.cache == nil {
		return
	}
	for _, csr := range csrs {
		number, ok := t.cache.exposed[csr]
		if !ok {
			continue
		}
		t.cache.slots[number] = Slot{}
		delete(t.cache.exposed, csr)
	}
	t.cache.trimCustomSlots()
}

// ExposedCSRs returns the currently exposed CSR addresses mapped to their
// slot numbers.
func (t *Target) ExposedCSRs() map[uint16]regs.Regno {
	out := make(map[uint16]regs.Regno)
	if t.cache == nil {
		return out
	}
	for csr, number := range t.cache.exposed {
		out[csr] = number
	}
	return out
}

// claimCustomSlot returns the number of a free custom slot, reusing holes
// left by HideCSRs before growing the array.
func (c *cache) claimCustomSlot() regs.Regno {
	for i := int(regs.Count); i < len(c.slots); i++ {
		if !c.slots[i].IsInitialized() {
			return regs.Regno(i)
		}
	}
	c.slots = append(c.slots, Slot{})
	return regs.Regno(len(c.slots) - 1)
}

// trimCustomSlots shrinks the slot array past trailing unstamped custom
// slots, so an expose/hide round trip restores the original slot set.
func (c *cache) trimCustomSlots() {
	for len(c.slots) > int(regs.Count) && !c.slots[len(c.slots)-1].IsInitialized() {
		c.slots = c.slots[:len(c.slots)-1]
	}
}
