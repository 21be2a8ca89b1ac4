package targetmem_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rvlab/rvdbg/sim"
	"github.com/rvlab/rvdbg/targetmem"
)

// faultyBacking wraps a backing store and fails on demand, standing in for
// a dropped debug link.
type faultyBacking struct {
	inner      targetmem.BackingStore
	failReads  bool
	failWrites bool
}

func (b *faultyBacking) Read(addr uint64, buf []byte) error {
	if b.failReads {
		return fmt.Errorf("link down")
	}
	return b.inner.Read(addr, buf)
}

func (b *faultyBacking) Write(addr uint64, data []byte) error {
	if b.failWrites {
		return fmt.Errorf("link down")
	}
	return b.inner.Write(addr, data)
}

var _ = Describe("Cache", func() {
	var (
		hart    *sim.Hart
		backing *faultyBacking
		cache   *targetmem.Cache
	)

	// Two sets of two ways: addresses 0, 128, 256 all map to set 0.
	smallConfig := targetmem.Config{
		Size:          256,
		Associativity: 2,
		BlockSize:     64,
	}

	BeforeEach(func() {
		hart = sim.NewHart()
		backing = &faultyBacking{inner: targetmem.NewTransportBacking(hart)}

		var err error
		cache, err = targetmem.New(smallConfig, backing)
		Expect(err).ToNot(HaveOccurred())
	})

	Describe("New", func() {
		It("should reject inconsistent geometry", func() {
			_, err := targetmem.New(targetmem.Config{
				Size:          100,
				Associativity: 4,
				BlockSize:     64,
			}, backing)
			Expect(err).To(HaveOccurred())
		})

		It("should accept the default geometry", func() {
			_, err := targetmem.New(targetmem.DefaultConfig(), backing)
			Expect(err).ToNot(HaveOccurred())
		})
	})

	Describe("Read", func() {
		It("should fetch a block on cold miss and hit afterwards", func() {
			hart.Memory().WriteBuf(0x10, []byte{0xaa, 0xbb})

			buf := make([]byte, 2)
			Expect(cache.Read(0x10, buf)).To(Succeed())
			Expect(buf).To(Equal([]byte{0xaa, 0xbb}))
			Expect(cache.Stats().Misses).To(Equal(uint64(1)))
			Expect(cache.Stats().Hits).To(BeZero())

			Expect(cache.Read(0x10, buf)).To(Succeed())
			Expect(cache.Stats().Hits).To(Equal(uint64(1)))
			Expect(cache.Stats().Misses).To(Equal(uint64(1)))
		})

		It("should span block boundaries", func() {
			data := make([]byte, 128)
			for i := range data {
				data[i] = byte(i)
			}
			hart.Memory().WriteBuf(0x20, data)

			got := make([]byte, 128)
			Expect(cache.Read(0x20, got)).To(Succeed())
			Expect(got).To(Equal(data))
			Expect(cache.Stats().Misses).To(Equal(uint64(3)))
		})

		It("should not touch the link once a block is resident", func() {
			buf := make([]byte, 4)
			Expect(cache.Read(0x40, buf)).To(Succeed())

			backing.failReads = true
			Expect(cache.Read(0x40, buf)).To(Succeed())
		})

		It("should propagate link errors on miss", func() {
			backing.failReads = true
			err := cache.Read(0x40, make([]byte, 4))
			Expect(err).To(MatchError(ContainSubstring("link down")))
		})
	})

	Describe("Write", func() {
		It("should delay target updates until Flush", func() {
			Expect(cache.Write(0x10, []byte{0x11, 0x22})).To(Succeed())

			Expect(hart.Memory().Read8(0x10)).To(BeZero())

			buf := make([]byte, 2)
			Expect(cache.Read(0x10, buf)).To(Succeed())
			Expect(buf).To(Equal([]byte{0x11, 0x22}))

			Expect(cache.Flush()).To(Succeed())
			Expect(hart.Memory().Read8(0x10)).To(Equal(byte(0x11)))
			Expect(hart.Memory().Read8(0x11)).To(Equal(byte(0x22)))
		})

		It("should write back a dirty victim on eviction", func() {
			// Fill both ways of set 0 with dirty blocks, then touch a
			// third block in the same set.
			Expect(cache.Write(0x00, []byte{0x01})).To(Succeed())
			Expect(cache.Write(0x80, []byte{0x02})).To(Succeed())
			Expect(cache.Write(0x100, []byte{0x03})).To(Succeed())

			Expect(cache.Stats().Evictions).To(Equal(uint64(1)))
			Expect(cache.Stats().Writebacks).To(Equal(uint64(1)))
			Expect(hart.Memory().Read8(0x00)).To(Equal(byte(0x01)))
			Expect(hart.Memory().Read8(0x80)).To(BeZero())
		})

		It("should propagate writeback errors during Flush", func() {
			Expect(cache.Write(0x10, []byte{0x11})).To(Succeed())
			backing.failWrites = true
			Expect(cache.Flush()).To(MatchError(ContainSubstring("link down")))
		})
	})

	Describe("Flush", func() {
		It("should invalidate every block", func() {
			buf := make([]byte, 4)
			Expect(cache.Read(0x40, buf)).To(Succeed())
			Expect(cache.Flush()).To(Succeed())

			Expect(cache.Read(0x40, buf)).To(Succeed())
			Expect(cache.Stats().Misses).To(Equal(uint64(2)))
		})
	})

	Describe("Invalidate", func() {
		It("should drop a block without writing it back", func() {
			hart.Memory().Write8(0x10, 0x55)
			Expect(cache.Write(0x10, []byte{0x99})).To(Succeed())

			cache.Invalidate(0x10)

			buf := make([]byte, 1)
			Expect(cache.Read(0x10, buf)).To(Succeed())
			Expect(buf[0]).To(Equal(byte(0x55)))
		})
	})

	Describe("Reset", func() {
		It("should clear blocks and counters", func() {
			Expect(cache.Write(0x10, []byte{0x11})).To(Succeed())
			cache.Reset()

			Expect(cache.Stats()).To(Equal(targetmem.Statistics{}))

			buf := make([]byte, 1)
			Expect(cache.Read(0x10, buf)).To(Succeed())
			Expect(buf[0]).To(BeZero())
		})
	})
})
