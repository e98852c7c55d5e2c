package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"aya/internal/disasm"
	"aya/internal/rom"
)

func newDisasmCmd(state *appState) *cobra.Command {
	var asRom bool
	cmd := &cobra.Command{
		Use:   "disasm <file>",
		Short: "Disassemble a flat bytecode file or a packed ROM's code section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			code := data
			if asRom {
				img, err := rom.Load(data)
				if err != nil {
					return err
				}
				code = img.Code
			}

			lines, err := disasm.Disassemble(code)
			fmt.Print(disasm.Render(lines))
			if err != nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asRom, "rom", false, "treat input as a packed ROM rather than raw bytecode")
	return cmd
}
