// Package resolver implements the assembler's module-resolution pass: it
// walks the import graph rooted at a main source file, parses every module
// exactly once, collects each module's constant symbols, and binds
// each import's variable block against the importing module's own symbol
// table. Grounded on original_source/aya-assembly/src/mod_resolver.rs.
package resolver

import (
	"strconv"

	"aya/internal/ast"
	"aya/internal/diag"
	"aya/internal/parser"
	"aya/internal/word"
)

// Either is the resolved form of an import variable's value: either a
// concrete word resolved from the importing module's own symbol table, or a
// deferred reference into another module's exported field, settled later by
// the compiler once every module's symbol table is known.
type Either struct {
	Value      word.Word
	IsResolved bool
	ModuleName string
	FieldName  string
}

func ResolvedValue(v word.Word) Either {
	return Either{Value: v, IsResolved: true}
}

func ModuleField(module, field string) Either {
	return Either{ModuleName: module, FieldName: field}
}

// Module is one parsed, symbol-resolved file in the import graph.
type Module struct {
	Name      string
	Path      string
	Imports   []string
	Symbols   map[string]word.Word
	Variables map[string]Either // nil for the root module, which has no importer
}

// Modules is the fully resolved import graph: one Module/source/Ast triple
// per visited file, in first-visit (depth-first) order.
type Modules struct {
	List    []*Module
	Sources map[string]string
	Asts    map[string]*ast.Ast
}

// Loader fetches the source text for an imported module path. cmd/aya wires
// this to the filesystem; tests wire it to an in-memory map.
type Loader interface {
	Load(path string) (string, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc func(path string) (string, error)

func (f LoaderFunc) Load(path string) (string, error) { return f(path) }

type context struct {
	loader  Loader
	visited map[string]bool
	result  Modules
}

// Resolve parses code as the root module at path and recursively resolves
// every module it imports (and everything they import), failing on the
// first diagnostic or cyclic import.
func Resolve(code, path string, loader Loader) (*Modules, error) {
	ctx := &context{
		loader:  loader,
		visited: map[string]bool{},
		result: Modules{
			Sources: map[string]string{},
			Asts:    map[string]*ast.Ast{},
		},
	}
	if err := ctx.resolveModule("main", path, code, nil, nil); err != nil {
		return nil, err
	}
	return &ctx.result, nil
}

// resolveModule parses and resolves a single module. importerStack carries
// the chain of paths currently being resolved, used to detect import cycles
// (a path revisited while still on the stack, as opposed to one already
// fully resolved, which is a legitimate diamond-shaped import and is simply
// skipped).
func (c *context) resolveModule(name, path, code string, variables map[string]Either, importerStack []string) error {
	for _, p := range importerStack {
		if p == path {
			return cyclicImportError(code, path, importerStack)
		}
	}
	if c.visited[path] {
		return nil
	}
	c.visited[path] = true

	tree, err := parser.Parse(code)
	if err != nil {
		return err
	}

	module := &Module{
		Name:      name,
		Path:      path,
		Symbols:   map[string]word.Word{},
		Variables: variables,
	}

	if err := resolveConstants(code, module, tree); err != nil {
		return err
	}

	c.result.Asts[path] = tree
	c.result.Sources[path] = code
	c.result.List = append(c.result.List, module)

	if err := c.resolveImports(code, module, tree, append(importerStack, path)); err != nil {
		return err
	}
	return nil
}

func resolveConstants(code string, module *Module, tree *ast.Ast) error {
	for _, c := range tree.Constants() {
		valueStr := c.Value.Span.Slice(code)
		value, err := strconv.ParseUint(valueStr, 16, 16)
		if err != nil {
			nameStart := c.Name.Start
			if c.Exported {
				nameStart--
			}
			return diag.NewMulti(diag.CodeInvalidConstant, code, []diag.Label{
				{Span: diag.Span{Start: c.Value.Span.Start, End: c.Value.Span.End}, Note: "this value"},
				{Span: diag.Span{Start: nameStart, End: c.Value.Span.End}, Note: "this constant"},
			}, "error while resolving constant", "hex number is not within the u16 range")
		}
		name := c.Name.Slice(code)
		module.Symbols[name] = word.Word(value)
	}
	return nil
}

func (c *context) resolveImports(code string, module *Module, tree *ast.Ast, importerStack []string) error {
	for _, imp := range tree.Imports() {
		variables, err := resolveImportVars(code, module, imp)
		if err != nil {
			return err
		}
		name := imp.Name.Slice(code)
		path := imp.Path.Slice(code)

		childCode, err := c.loader.Load(path)
		if err != nil {
			return err
		}
		if err := c.resolveModule(name, path, childCode, variables, importerStack); err != nil {
			return err
		}
		module.Imports = append(module.Imports, path)
	}
	return nil
}

func resolveImportVars(code string, module *Module, imp ast.Import) (map[string]Either, error) {
	resolved := make(map[string]Either, len(imp.Variables))

	for _, v := range imp.Variables {
		name := v.Name.Slice(code)
		if _, exists := resolved[name]; exists {
			return nil, diag.New(diag.CodeDuplicateVariable, code,
				diag.Span{Start: v.Name.Start, End: v.Name.End},
				"this variable was previously defined", "variable names must be unique")
		}

		switch value := v.Value.(type) {
		case ast.VarRef:
			varName := value.Span.Slice(code)
			symbolValue, ok := module.Symbols[varName]
			if !ok {
				return nil, diag.New(diag.CodeUndefinedVariable, code,
					diag.Span{Start: v.Name.Start, End: v.Name.End},
					"this variable doesn't exist in the current scope",
					"import variables must reference constants")
			}
			resolved[name] = ResolvedValue(symbolValue)
		case ast.HexLiteral:
			n, err := strconv.ParseUint(value.Span.Slice(code), 16, 16)
			if err != nil {
				return nil, diag.NewMulti(diag.CodeInvalidConstant, code, []diag.Label{
					{Span: diag.Span{Start: v.Name.Start, End: v.Name.End}, Note: "this variable"},
					{Span: diag.Span{Start: value.Span.Start, End: value.Span.End}, Note: "this value"},
				}, "error while resolving constant", "hex number is not within the u16 range")
			}
			resolved[name] = ResolvedValue(word.Word(n))
		case ast.FieldAccessor:
			resolved[name] = ModuleField(value.Module.Slice(code), value.Field.Slice(code))
		default:
			return nil, diag.New(diag.CodeUnexpectedToken, code,
				diag.Span{Start: v.Name.Start, End: v.Name.End},
				"unsupported import variable value", "import values must be a hex literal, a variable, or a module field accessor")
		}
	}

	return resolved, nil
}

func cyclicImportError(code, path string, stack []string) error {
	return &diag.Error{
		Code:   diag.CodeCyclicDependency,
		Source: code,
		Msg:    "cyclic import detected at " + path,
		Help:   "modules may not (transitively) import themselves",
	}
}
