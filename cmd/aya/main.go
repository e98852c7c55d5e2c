// Command aya is the console toolchain's CLI: assemble, pack, run, and
// disassemble Aya ROMs. Subcommand structure grounded on the pack's
// cobra-based CLIs (oisee-z80-optimizer/cmd/z80opt,
// bradford-hamilton-chippy/cmd, Manu343726-cucaracha) rather than the
// teacher's hand-rolled flag.NArg() parsing in gvm/main.go (see
// SPEC_FULL.md's AMBIENT STACK).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
