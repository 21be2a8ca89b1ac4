package sim_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rvlab/rvdbg/regs"
	"github.com/rvlab/rvdbg/sim"
)

var _ = Describe("Hart", func() {
	Describe("misa", func() {
		It("should advertise the configured extensions", func() {
			hart := sim.NewHart(
				sim.WithFPU(64),
				sim.WithSupervisor(),
				sim.WithVector(16),
			)
			misa, err := hart.ReadRegister(regs.Misa)
			Expect(err).ToNot(HaveOccurred())

			bit := func(letter byte) uint64 { return 1 << (letter - 'A') }
			Expect(misa & bit('I')).ToNot(BeZero())
			Expect(misa & bit('F')).ToNot(BeZero())
			Expect(misa & bit('D')).ToNot(BeZero())
			Expect(misa & bit('S')).ToNot(BeZero())
			Expect(misa & bit('V')).ToNot(BeZero())
			Expect(misa & bit('E')).To(BeZero())
		})

		It("should advertise E instead of I on embedded harts", func() {
			hart := sim.NewHart(sim.WithEmbedded())
			misa, err := hart.ReadRegister(regs.Misa)
			Expect(err).ToNot(HaveOccurred())
			Expect(misa & (1 << ('E' - 'A'))).ToNot(BeZero())
			Expect(misa & (1 << ('I' - 'A'))).To(BeZero())
		})

		It("should drop writes to misa", func() {
			hart := sim.NewHart()
			before, _ := hart.ReadRegister(regs.Misa)
			Expect(hart.WriteRegister(regs.Misa, 0)).To(Succeed())
			after, _ := hart.ReadRegister(regs.Misa)
			Expect(after).To(Equal(before))
		})
	})

	Describe("integer registers", func() {
		It("should hardwire x0 to zero", func() {
			hart := sim.NewHart()
			Expect(hart.WriteRegister(regs.Zero, 0xff)).To(Succeed())
			v, err := hart.ReadRegister(regs.Zero)
			Expect(err).ToNot(HaveOccurred())
			Expect(v).To(BeZero())
		})

		It("should hold written values in x1..x31 and pc", func() {
			hart := sim.NewHart()
			Expect(hart.WriteRegister(regs.SP, 0x8000)).To(Succeed())
			Expect(hart.WriteRegister(regs.PC, 0x2000)).To(Succeed())
			v, _ := hart.ReadRegister(regs.SP)
			Expect(v).To(Equal(uint64(0x8000)))
			v, _ = hart.ReadRegister(regs.PC)
			Expect(v).To(Equal(uint64(0x2000)))
		})

		It("should clamp priv to the two mode bits", func() {
			hart := sim.NewHart()
			Expect(hart.WriteRegister(regs.Priv, 0xff)).To(Succeed())
			v, _ := hart.ReadRegister(regs.Priv)
			Expect(v).To(Equal(uint64(3)))
		})
	})

	Describe("WARL CSRs", func() {
		It("should hardwire satp to zero without supervisor mode", func() {
			hart := sim.NewHart()
			Expect(hart.WriteRegister(regs.Satp, 0x123)).To(Succeed())
			v, err := hart.ReadRegister(regs.Satp)
			Expect(err).ToNot(HaveOccurred())
			Expect(v).To(BeZero())
		})

		It("should store satp with supervisor mode", func() {
			hart := sim.NewHart(sim.WithSupervisor())
			Expect(hart.WriteRegister(regs.Satp, 0x123)).To(Succeed())
			v, _ := hart.ReadRegister(regs.Satp)
			Expect(v).To(Equal(uint64(0x123)))
		})

		It("should clear the low bit of dpc", func() {
			hart := sim.NewHart()
			Expect(hart.WriteRegister(regs.Dpc, 0x1001)).To(Succeed())
			v, _ := hart.ReadRegister(regs.Dpc)
			Expect(v).To(Equal(uint64(0x1000)))
		})

		It("should mask the reserved dcsr fields", func() {
			hart := sim.NewHart()
			Expect(hart.WriteRegister(regs.Dcsr, 0xffff_ffff)).To(Succeed())
			v, _ := hart.ReadRegister(regs.Dcsr)
			Expect(v).To(Equal(uint64(0xf07f)))
		})

		It("should clamp tselect to the implemented triggers", func() {
			hart := sim.NewHart(sim.WithTriggers(2))
			Expect(hart.WriteRegister(regs.Tselect, 7)).To(Succeed())
			v, _ := hart.ReadRegister(regs.Tselect)
			Expect(v).To(Equal(uint64(1)))
		})
	})

	Describe("trigger banks", func() {
		It("should switch tdata registers with tselect", func() {
			hart := sim.NewHart(sim.WithTriggers(2))

			Expect(hart.WriteRegister(regs.Tselect, 0)).To(Succeed())
			Expect(hart.WriteRegister(regs.Tdata2, 0x100)).To(Succeed())
			Expect(hart.WriteRegister(regs.Tselect, 1)).To(Succeed())
			Expect(hart.WriteRegister(regs.Tdata2, 0x200)).To(Succeed())

			v, _ := hart.ReadRegister(regs.Tdata2)
			Expect(v).To(Equal(uint64(0x200)))
			Expect(hart.WriteRegister(regs.Tselect, 0)).To(Succeed())
			v, _ = hart.ReadRegister(regs.Tdata2)
			Expect(v).To(Equal(uint64(0x100)))
		})
	})

	Describe("optional state", func() {
		It("should fail vector accesses without the vector extension", func() {
			hart := sim.NewHart()
			_, err := hart.ReadRegister(regs.Vlenb)
			Expect(err).To(HaveOccurred())
			Expect(hart.ReadRegisterBuf(regs.V0, make([]byte, 16))).ToNot(Succeed())
		})

		It("should round-trip vector register buffers", func() {
			hart := sim.NewHart(sim.WithVector(8))
			data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
			Expect(hart.WriteRegisterBuf(regs.V0+3, data)).To(Succeed())
			got := make([]byte, 8)
			Expect(hart.ReadRegisterBuf(regs.V0+3, got)).To(Succeed())
			Expect(got).To(Equal(data))
		})

		It("should expose the matrix geometry read-only", func() {
			hart := sim.NewHart(sim.WithMatrix(32, 16, 4))
			v, err := hart.ReadRegister(regs.Mrlenb)
			Expect(err).ToNot(HaveOccurred())
			Expect(v).To(Equal(uint64(16)))

			Expect(hart.WriteRegister(regs.Mrlenb, 64)).To(Succeed())
			v, _ = hart.ReadRegister(regs.Mrlenb)
			Expect(v).To(Equal(uint64(16)))
		})

		It("should size accumulators by the mamul multiplier", func() {
			hart := sim.NewHart(sim.WithMatrix(32, 16, 4))
			Expect(hart.ReadRegisterBuf(regs.ACC0, make([]byte, 32*4))).To(Succeed())
			Expect(hart.ReadRegisterBuf(regs.TR0, make([]byte, 32))).To(Succeed())
		})

		It("should store writable matrix state", func() {
			hart := sim.NewHart(sim.WithMatrix(32, 16, 1))
			Expect(hart.WriteRegister(regs.Mtilem, 12)).To(Succeed())
			v, _ := hart.ReadRegister(regs.Mtilem)
			Expect(v).To(Equal(uint64(12)))
		})

		It("should declare vendor CSRs through WithCSR", func() {
			hart := sim.NewHart(sim.WithCSR(0x7c0, 0xabc))
			v, err := hart.ReadRegister(regs.CSR(0x7c0))
			Expect(err).ToNot(HaveOccurred())
			Expect(v).To(Equal(uint64(0xabc)))

			_, err = hart.ReadRegister(regs.CSR(0x7c1))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("memory", func() {
		It("should round-trip buffers across page boundaries", func() {
			hart := sim.NewHart()
			data := make([]byte, 8192)
			for i := range data {
				data[i] = byte(i)
			}
			Expect(hart.WriteMemory(0xffe, data)).To(Succeed())

			got := make([]byte, len(data))
			Expect(hart.ReadMemory(0xffe, got)).To(Succeed())
			Expect(got).To(Equal(data))
		})

		It("should read untouched memory as zero", func() {
			hart := sim.NewHart()
			got := []byte{0xff, 0xff}
			Expect(hart.ReadMemory(0x5000, got)).To(Succeed())
			Expect(got).To(Equal([]byte{0, 0}))
		})
	})
})
