package loader_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rvlab/rvdbg/loader"
	"github.com/rvlab/rvdbg/sim"
)

type testSegment struct {
	ptype uint32
	flags uint32
	vaddr uint64
	data  []byte
	memsz uint64
}

// buildELF crafts a minimal little-endian ELF64 image with the given
// machine type and program headers.
func buildELF(machine uint16, entry uint64, segs []testSegment) []byte {
	const (
		ehSize = 64
		phSize = 56
	)
	var buf bytes.Buffer

	dataOff := uint64(ehSize + phSize*len(segs))

	// ELF header.
	buf.Write([]byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	le := binary.LittleEndian
	var scratch [8]byte

	w16 := func(v uint16) { le.PutUint16(scratch[:2], v); buf.Write(scratch[:2]) }
	w32 := func(v uint32) { le.PutUint32(scratch[:4], v); buf.Write(scratch[:4]) }
	w64 := func(v uint64) { le.PutUint64(scratch[:8], v); buf.Write(scratch[:8]) }

	w16(2)       // e_type: ET_EXEC
	w16(machine) // e_machine
	w32(1)       // e_version
	w64(entry)   // e_entry
	w64(ehSize)  // e_phoff
	w64(0)       // e_shoff
	w32(0)       // e_flags
	w16(ehSize)  // e_ehsize
	w16(phSize)  // e_phentsize
	w16(uint16(len(segs)))
	w16(0) // e_shentsize
	w16(0) // e_shnum
	w16(0) // e_shstrndx

	// Program headers.
	off := dataOff
	for _, seg := range segs {
		w32(seg.ptype)
		w32(seg.flags)
		w64(off)
		w64(seg.vaddr)
		w64(seg.vaddr)
		w64(uint64(len(seg.data)))
		w64(seg.memsz)
		w64(0x1000)
		off += uint64(len(seg.data))
	}
	for _, seg := range segs {
		buf.Write(seg.data)
	}
	return buf.Bytes()
}

func writeTempELF(content []byte) string {
	path := filepath.Join(GinkgoT().TempDir(), "prog.elf")
	Expect(os.WriteFile(path, content, 0o644)).To(Succeed())
	return path
}

var _ = Describe("Load", func() {
	const (
		emRISCV  = 243
		emX86_64 = 62
		ptLoad   = 1
		ptNote   = 4
		pfX      = 1
		pfW      = 2
		pfR      = 4
	)

	It("should parse entry point, segments, and flags", func() {
		text := []byte{0x13, 0x00, 0x00, 0x00} // nop
		path := writeTempELF(buildELF(emRISCV, 0x8000_0000, []testSegment{
			{ptype: ptLoad, flags: pfR | pfX, vaddr: 0x8000_0000,
				data: text, memsz: uint64(len(text))},
			{ptype: ptLoad, flags: pfR | pfW, vaddr: 0x8000_1000,
				data: []byte{0xaa}, memsz: 0x10},
		}))

		prog, err := loader.Load(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(prog.EntryPoint).To(Equal(uint64(0x8000_0000)))
		Expect(prog.Segments).To(HaveLen(2))

		Expect(prog.Segments[0].VirtAddr).To(Equal(uint64(0x8000_0000)))
		Expect(prog.Segments[0].Data).To(Equal(text))
		Expect(prog.Segments[0].Flags).To(Equal(
			loader.SegmentFlagRead | loader.SegmentFlagExecute))

		Expect(prog.Segments[1].MemSize).To(Equal(uint64(0x10)))
		Expect(prog.Segments[1].Flags).To(Equal(
			loader.SegmentFlagRead | loader.SegmentFlagWrite))
	})

	It("should skip non-loadable segments", func() {
		path := writeTempELF(buildELF(emRISCV, 0x1000, []testSegment{
			{ptype: ptNote, flags: pfR, vaddr: 0, data: []byte{1, 2}, memsz: 2},
			{ptype: ptLoad, flags: pfR, vaddr: 0x1000, data: []byte{3}, memsz: 1},
		}))

		prog, err := loader.Load(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(prog.Segments).To(HaveLen(1))
		Expect(prog.Segments[0].VirtAddr).To(Equal(uint64(0x1000)))
	})

	It("should reject binaries for other architectures", func() {
		path := writeTempELF(buildELF(emX86_64, 0x1000, []testSegment{
			{ptype: ptLoad, flags: pfR, vaddr: 0x1000, data: []byte{1}, memsz: 1},
		}))

		_, err := loader.Load(path)
		Expect(err).To(MatchError(ContainSubstring("not a RISC-V ELF")))
	})

	It("should reject files that are not ELF at all", func() {
		path := writeTempELF([]byte("just some text"))
		_, err := loader.Load(path)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Program.WriteTo", func() {
	It("should download segments and zero the BSS tail", func() {
		hart := sim.NewHart()
		// Dirty the BSS range so zero-filling is observable.
		for addr := uint64(0x2004); addr < 0x2010; addr++ {
			hart.Memory().Write8(addr, 0xff)
		}

		prog := &loader.Program{
			EntryPoint: 0x2000,
			Segments: []loader.Segment{
				{
					VirtAddr: 0x2000,
					Data:     []byte{0x11, 0x22, 0x33, 0x44},
					MemSize:  0x10,
				},
			},
		}
		Expect(prog.WriteTo(hart)).To(Succeed())

		got := make([]byte, 0x10)
		hart.Memory().ReadBuf(0x2000, got)
		want := append([]byte{0x11, 0x22, 0x33, 0x44}, make([]byte, 12)...)
		Expect(got).To(Equal(want))
	})
})
