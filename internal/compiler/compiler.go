// Package compiler implements the assembler's final two stages: symbol
// collection (§4.E) and bytecode emission (§4.F). It consumes the resolved
// import graph from internal/resolver and the expression-lowered AST from
// internal/codegen, orders modules topologically so a module's dependencies
// always compile before it does, then emits one flat byte stream. Grounded
// on original_source/aya-assembly/src/compiler.rs.
package compiler

import (
	"fmt"

	"aya/internal/ast"
	"aya/internal/codegen"
	"aya/internal/resolver"
	"aya/internal/word"
)

// module is one compiled unit: a resolver.Module plus its lowered AST and the
// symbol/export tables filled in by collectSymbols once the module's base
// address is known.
type module struct {
	name      string
	path      string
	source    string
	tree      *ast.Ast
	imports   []string
	variables map[string]resolver.Either
	symbols   map[string]word.Word
	exports   map[string]word.Word
	base      word.Word
}

// Compile lowers and emits every module reachable from modules, returning the
// final flat bytecode buffer. Module order follows §4.F's topological sort:
// each module is fully emitted (with its exports populated) before any module
// that imports it or references one of its fields.
func Compile(modules *resolver.Modules) ([]byte, error) {
	compiled := make([]*module, len(modules.List))
	for i, m := range modules.List {
		source := modules.Sources[m.Path]
		tree, ok := modules.Asts[m.Path]
		if !ok {
			return nil, fmt.Errorf("compiler: missing parsed ast for %s", m.Path)
		}
		lowered, err := codegen.Lower(tree, source)
		if err != nil {
			return nil, err
		}

		symbols := make(map[string]word.Word, len(m.Symbols))
		for name, v := range m.Symbols {
			symbols[name] = v
		}

		compiled[i] = &module{
			name:      m.Name,
			path:      m.Path,
			source:    source,
			tree:      lowered,
			imports:   m.Imports,
			variables: m.Variables,
			symbols:   symbols,
			exports:   map[string]word.Word{},
		}
	}

	order, err := topologicalOrder(compiled)
	if err != nil {
		return nil, err
	}

	scope := &linkScope{byName: map[string]*module{}, byPath: map[string]*module{}}
	var bytecode []byte
	for _, idx := range order {
		m := compiled[idx]
		m.base = word.Word(len(bytecode))
		collectSymbols(m)
		if err := emitModule(m, scope, &bytecode); err != nil {
			return nil, err
		}
		scope.byName[m.name] = m
		scope.byPath[m.path] = m
	}
	return bytecode, nil
}

// linkScope accumulates every module compiled so far, keyed two ways: by the
// alias name it was imported under (for resolving ModuleField variables,
// which reference a sibling import by that alias) and by its source path
// (for resolving a bare `!name` directly against a module this one imports,
// see resolveSymbol).
type linkScope struct {
	byName map[string]*module
	byPath map[string]*module
}

// collectSymbols runs §4.E's single linear pass over m's statements, seeding
// the address cursor at m.base (the module's offset within the final
// bytecode). Const symbols are already present in m.symbols, copied from the
// resolver's constant-folding pass; this only adds labels and data blocks.
func collectSymbols(m *module) {
	cursor := m.base
	for _, stmt := range m.tree.Statements {
		switch s := stmt.(type) {
		case ast.Const:
			// Already resolved into m.symbols by the resolver's
			// resolveConstants pass; only the export-table mirroring is left
			// to do here, and a const has no address so the cursor doesn't move.
			if s.Exported {
				name := s.Name.Slice(m.source)
				m.exports[name] = m.symbols[name]
			}
		case ast.Label:
			name := s.Name.Slice(m.source)
			m.symbols[name] = cursor
			if s.Exported {
				m.exports[name] = cursor
			}
		case ast.Data:
			name := s.Name.Slice(m.source)
			m.symbols[name] = cursor
			elemSize := word.Word(1)
			if s.Size == ast.Data16 {
				elemSize = 2
			}
			cursor = cursor.Add(word.Word(len(s.Values)) * elemSize)
			// Exported data symbols deliberately record the address *after*
			// the block (matching the Rust original's collect_symbols, which
			// advances the cursor before inserting into exports) rather than
			// the block's start, unlike every other exported symbol kind.
			if s.Exported {
				m.exports[name] = cursor
			}
		case ast.Instruction:
			cursor = cursor.Add(word.Word(s.Kind.ByteSize()))
		}
	}
}
