// Package main provides the rvdbg demo CLI. It brings up a simulated
// RISC-V hart, runs the register cache initialization a debug session
// performs after connecting, and prints what a remote client would see.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rvlab/rvdbg/config"
	"github.com/rvlab/rvdbg/loader"
	"github.com/rvlab/rvdbg/regs"
	"github.com/rvlab/rvdbg/regtype"
	"github.com/rvlab/rvdbg/rvreg"
	"github.com/rvlab/rvdbg/sim"
	"github.com/rvlab/rvdbg/targetmem"
)

var (
	configPath = flag.String("config", "", "Path to session configuration JSON file")
	vlenb      = flag.Uint("vlenb", 16, "Vector register length in bytes (0 disables)")
	matrix     = flag.String("matrix", "", "Matrix geometry mlenb:mrlenb:mamul (empty disables)")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rvdbg: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "rvdbg: invalid config: %v\n", err)
		os.Exit(1)
	}

	hartOpts := []sim.HartOption{
		sim.WithFPU(64),
		sim.WithSupervisor(),
	}
	if *vlenb > 0 {
		hartOpts = append(hartOpts, sim.WithVector(uint32(*vlenb)))
	}
	if *matrix != "" {
		mlenb, mrlenb, mamul, err := parseMatrix(*matrix)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rvdbg: %v\n", err)
			os.Exit(1)
		}
		hartOpts = append(hartOpts, sim.WithMatrix(mlenb, mrlenb, mamul))
	}
	hart := sim.NewHart(hartOpts...)

	target := rvreg.NewTarget("hart0", hart,
		rvreg.WithExposedCSRs(cfg.ExposeCSRs...),
		rvreg.WithHiddenCSRs(cfg.HideCSRs...),
	)
	target.Halt()
	if err := target.InitRegisters(); err != nil {
		fmt.Fprintf(os.Stderr, "rvdbg: target bring-up failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Target %s: XLEN=%d FLEN=%d vlenb=%d",
		target.Name(), target.XLen(), target.FLen(), target.Vlenb())
	if target.Mrlenb() > 0 {
		fmt.Printf(" mlenb=%d mrlenb=%d mamul=%d",
			target.Mlenb(), target.Mrlenb(), target.Mamul())
	}
	fmt.Printf("\n%d register cache slots\n", target.NumSlots())

	if target.Vlenb() > 0 {
		fmt.Println("\nVector register type:")
		printType(target.VectorType(), 1)
	}
	if mt := target.MatrixTypes(); mt != nil {
		fmt.Println("\nMatrix tile register type:")
		printType(mt.Tile, 1)
		fmt.Println("Matrix accumulator register type:")
		printType(mt.Acc, 1)
	}

	if flag.NArg() > 0 {
		if err := download(flag.Arg(0), target, hart, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "rvdbg: %v\n", err)
			os.Exit(1)
		}
	}

	if *verbose {
		printRegisters(target)
	}
}

// parseMatrix parses the mlenb:mrlenb:mamul flag value.
func parseMatrix(s string) (mlenb, mrlenb, mamul uint32, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid -matrix value %q, want mlenb:mrlenb:mamul", s)
	}
	vals := make([]uint32, 3)
	for i, p := range parts {
		var v uint64
		if _, err := fmt.Sscanf(p, "%d", &v); err != nil {
			return 0, 0, 0, fmt.Errorf("invalid -matrix value %q: %w", s, err)
		}
		vals[i] = uint32(v)
	}
	return vals[0], vals[1], vals[2], nil
}

// download loads an ELF into target memory through the write-back memory
// cache and sets the resume address to the entry point.
func download(path string, target *rvreg.Target, hart *sim.Hart, cfg *config.Config) error {
	prog, err := loader.Load(path)
	if err != nil {
		return err
	}

	memCache, err := targetmem.New(targetmem.Config{
		Size:          cfg.MemCacheSize,
		Associativity: cfg.MemCacheAssociativity,
		BlockSize:     cfg.MemCacheBlockSize,
	}, targetmem.NewTransportBacking(hart))
	if err != nil {
		return err
	}

	for _, seg := range prog.Segments {
		if len(seg.Data) > 0 {
			if err := memCache.Write(seg.VirtAddr, seg.Data); err != nil {
				return err
			}
		}
	}
	if err := memCache.Flush(); err != nil {
		return err
	}

	if err := target.WriteRegister(regs.Dpc, prog.EntryPoint); err != nil {
		return err
	}

	stats := memCache.Stats()
	fmt.Printf("\nLoaded %s: entry 0x%x, %d segments, %d cache writebacks\n",
		path, prog.EntryPoint, len(prog.Segments), stats.Writebacks)
	return nil
}

// printType renders a type descriptor tree, one node per line.
func printType(t *regtype.Type, indent int) {
	pad := strings.Repeat("  ", indent)
	switch t.Kind {
	case regtype.KindScalar:
		fmt.Printf("%s%s (%d bits)\n", pad, t.ID, t.Bits)
	case regtype.KindVector:
		fmt.Printf("%svector %s: %d x\n", pad, t.ID, t.Count)
		printType(t.Elem, indent+1)
	case regtype.KindUnion:
		fmt.Printf("%sunion %s\n", pad, t.ID)
		for _, f := range t.Fields {
			fmt.Printf("%s  field %q:\n", pad, f.Name)
			printType(f.Type, indent+2)
		}
	}
}

// printRegisters dumps the existing registers and their cached values.
func printRegisters(target *rvreg.Target) {
	fmt.Println("\nRegisters:")
	for number := regs.Regno(0); int(number) < target.NumSlots(); number++ {
		slot := target.CacheEntry(number)
		if !slot.IsInitialized() || !slot.Exists {
			continue
		}
		value, err := target.ReadRegister(number)
		if err != nil {
			fmt.Printf("  %-10s <unreadable: %v>\n", slot.Name, err)
			continue
		}
		fmt.Printf("  %-10s 0x%016x  (bits=%d valid=%v)\n",
			slot.Name, value, slot.Bits, slot.Valid)
	}
}
