package main

import (
	"image"
	"os"
	"path/filepath"

	// Registering the standard decoders lets image.Decode accept PNG/GIF
	// tile sources without this package needing to know which format a given
	// file is; BMP decoding itself stays out of scope per SPEC_FULL.md.
	_ "image/gif"
	_ "image/png"

	"github.com/spf13/cobra"

	"aya/internal/rom"
	"aya/internal/tileset"
)

func newPackCmd(state *appState) *cobra.Command {
	var name, outPath string
	var spritePaths []string

	cmd := &cobra.Command{
		Use:   "pack <source.aya>",
		Short: "Assemble a source file and its sprites into a ROM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := assemble(args[0])
			if err != nil {
				return err
			}

			var sources []tileset.TileSource
			for _, p := range spritePaths {
				f, err := os.Open(p)
				if err != nil {
					return err
				}
				img, _, err := image.Decode(f)
				f.Close()
				if err != nil {
					return err
				}
				sources = append(sources, tileset.TileSource{Image: img, FileName: p})
			}
			sprites, err := tileset.Compile(sources)
			if err != nil {
				return err
			}

			if name == "" {
				name = trimExt(filepath.Base(args[0]))
			}
			data, err := rom.Pack(name, code, sprites)
			if err != nil {
				return err
			}

			if outPath == "" {
				outPath = filepath.Join(state.cfg.OutputDir, name+".rom")
			}
			state.logger.Info("packed", "rom", outPath, "code_bytes", len(code), "sprite_bytes", len(sprites))
			return os.WriteFile(outPath, data, 0o644)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "ROM name stored in the header (default: source file name)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output ROM path (default: <name>.rom)")
	cmd.Flags().StringSliceVar(&spritePaths, "sprite", nil, "sprite image file (repeatable)")
	return cmd
}
