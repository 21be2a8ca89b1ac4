// Package main provides the entry point for rvdbg.
// rvdbg is a RISC-V debug target support library with a demo CLI.
//
// For the full CLI, use: go run ./cmd/rvdbg
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("rvdbg - RISC-V debug target register cache")
	fmt.Println("")
	fmt.Println("Usage: rvdbg [options] [program.elf]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to session configuration JSON file")
	fmt.Println("  -vlenb     Vector register length in bytes")
	fmt.Println("  -matrix    Matrix geometry mlenb:mrlenb:mamul")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/rvdbg' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/rvdbg' instead.")
	}
}
