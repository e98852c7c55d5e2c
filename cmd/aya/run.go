package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"aya/internal/cpu"
	"aya/internal/debugger"
	"aya/internal/memory"
	"aya/internal/rom"
)

func newRunCmd(state *appState) *cobra.Command {
	var debug bool
	var batchSize int

	cmd := &cobra.Command{
		Use:   "run <rom>",
		Short: "Run an Aya ROM on the CPU",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			img, err := rom.Load(data)
			if err != nil {
				return err
			}

			console := memory.NewConsole(img.Code, img.Sprites)
			stackTop := memory.StackMemoryEnd + 1
			c := cpu.New(console.Mapper, memory.ProgramMemoryStart, stackTop)
			state.logger.Info("loaded rom", "name", img.Header.Name, "code_bytes", img.Header.CodeSize, "sprite_bytes", img.Header.SpriteSize)

			if debug {
				dbg := debugger.New(c)
				dbg.Log = state.ring
				return dbg.REPL(os.Stdin, os.Stdout, addressedCode(img.Code))
			}

			for {
				if err := c.RunBatch(batchSize); err != nil {
					return err
				}
				if c.Halted() {
					break
				}
			}
			fmt.Printf("halted with exit code %d\n", c.ExitCode())
			if c.ExitCode() != 0 {
				os.Exit(int(c.ExitCode()))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "drop into the interactive debugger instead of running to completion")
	cmd.Flags().IntVar(&batchSize, "batch", 2000, "instructions executed per host frame (§5's clock cycle)")
	return cmd
}

// addressedCode pads code with zero bytes so its index lines up with the
// CPU's absolute IP values (code starts at memory.ProgramMemoryStart in the
// full Console address space), for the debugger's disassembly view.
func addressedCode(code []byte) []byte {
	buf := make([]byte, int(memory.ProgramMemoryStart)+len(code))
	copy(buf[memory.ProgramMemoryStart:], code)
	return buf
}
