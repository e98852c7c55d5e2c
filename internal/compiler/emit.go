package compiler

import (
	"fmt"
	"strconv"

	"aya/internal/ast"
	"aya/internal/opcode"
	"aya/internal/register"
	"aya/internal/word"
)

// emitModule appends m's compiled bytecode to out, resolving every operand
// against m's own symbol/variable tables and, through scope, against other
// already-compiled modules' export tables.
func emitModule(m *module, scope *linkScope, out *[]byte) error {
	for _, stmt := range m.tree.Statements {
		switch s := stmt.(type) {
		case ast.Data:
			if err := emitDataBlock(m, s, out); err != nil {
				return err
			}
		case ast.Instruction:
			if err := emitInstruction(m, scope, s, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func emitDataBlock(m *module, data ast.Data, out *[]byte) error {
	for _, v := range data.Values {
		str := v.Span.Slice(m.source)
		switch data.Size {
		case ast.Data8:
			n, err := strconv.ParseUint(str, 16, 8)
			if err != nil {
				return fmt.Errorf("compiler: data8 value %q out of u8 range", str)
			}
			*out = append(*out, byte(n))
		case ast.Data16:
			n, err := strconv.ParseUint(str, 16, 16)
			if err != nil {
				return fmt.Errorf("compiler: data16 value %q out of u16 range", str)
			}
			lo, hi := word.Word(n).Bytes()
			*out = append(*out, lo, hi)
		}
	}
	return nil
}

func emitInstruction(m *module, scope *linkScope, inst ast.Instruction, out *[]byte) error {
	*out = append(*out, byte(inst.Op))

	// Halt's single operand is a raw status byte, not a full word -- a
	// one-off wire shape (see internal/opcode's haltKind), handled before
	// the general Kind switch since that constant isn't exported.
	if inst.Op == opcode.Halt {
		val, err := resolveValue(m, scope, inst.LHS)
		if err != nil {
			return err
		}
		lo, _ := val.Bytes()
		*out = append(*out, lo)
		return nil
	}

	switch inst.Kind {
	case opcode.NoArgs:
		return nil

	case opcode.SingleReg:
		reg, err := resolveRegister(inst.LHS, m.source)
		if err != nil {
			return err
		}
		*out = append(*out, byte(reg))

	case opcode.SingleLit:
		val, err := resolveValue(m, scope, inst.LHS)
		if err != nil {
			return err
		}
		lo, hi := val.Bytes()
		*out = append(*out, lo, hi)

	case opcode.RegReg, opcode.RegPtrReg:
		lhs, err := resolveRegister(inst.LHS, m.source)
		if err != nil {
			return err
		}
		rhs, err := resolveRegister(inst.RHS, m.source)
		if err != nil {
			return err
		}
		*out = append(*out, byte(lhs), byte(rhs))

	case opcode.LitReg:
		reg, err := resolveRegister(inst.LHS, m.source)
		if err != nil {
			return err
		}
		val, err := resolveValue(m, scope, inst.RHS)
		if err != nil {
			return err
		}
		lo, hi := val.Bytes()
		*out = append(*out, byte(reg), lo, hi)

	case opcode.RegMem:
		// mov's only user of this kind: LHS is already the address operand,
		// RHS the register -- AST field order already matches wire order.
		val, err := resolveValue(m, scope, inst.LHS)
		if err != nil {
			return err
		}
		reg, err := resolveRegister(inst.RHS, m.source)
		if err != nil {
			return err
		}
		lo, hi := val.Bytes()
		*out = append(*out, lo, hi, byte(reg))

	case opcode.MemReg:
		// Wire order is always addr_lo|addr_hi|reg, but which AST field
		// holds the address and which holds the register varies by
		// mnemonic family (mov writes register first, jumps write the
		// address first) -- dispatch on operand type, not position.
		addrExpr, regExpr, err := splitMemRegOperands(inst.LHS, inst.RHS)
		if err != nil {
			return err
		}
		val, err := resolveValue(m, scope, addrExpr)
		if err != nil {
			return err
		}
		reg, err := resolveRegister(regExpr, m.source)
		if err != nil {
			return err
		}
		lo, hi := val.Bytes()
		*out = append(*out, lo, hi, byte(reg))

	case opcode.LitMem:
		lhs, err := resolveValue(m, scope, inst.LHS)
		if err != nil {
			return err
		}
		rhs, err := resolveValue(m, scope, inst.RHS)
		if err != nil {
			return err
		}
		lo1, hi1 := lhs.Bytes()
		lo2, hi2 := rhs.Bytes()
		*out = append(*out, lo1, hi1, lo2, hi2)

	default:
		return fmt.Errorf("compiler: unsupported instruction kind %v for %s", inst.Kind, inst.Op)
	}
	return nil
}

// splitMemRegOperands identifies which of a and b is the register operand
// and which is the address-valued operand, regardless of which is LHS and
// which is RHS.
func splitMemRegOperands(a, b ast.Expr) (addr, reg ast.Expr, err error) {
	_, aIsReg := a.(ast.RegisterRef)
	_, bIsReg := b.(ast.RegisterRef)
	switch {
	case aIsReg && !bIsReg:
		return b, a, nil
	case bIsReg && !aIsReg:
		return a, b, nil
	default:
		return nil, nil, fmt.Errorf("compiler: MemReg instruction needs exactly one register operand")
	}
}

func resolveRegister(e ast.Expr, source string) (register.Register, error) {
	ref, ok := e.(ast.RegisterRef)
	if !ok {
		return 0, fmt.Errorf("compiler: expected register operand, got %T", e)
	}
	if r, ok := ref.ResolvedRegister(); ok {
		return r, nil
	}
	if r, ok := register.ParseName(ref.Span.Slice(source)); ok {
		return r, nil
	}
	return 0, fmt.Errorf("compiler: register operand has no resolved value or source span")
}

// resolveValue evaluates e to a concrete word, recursing through Address
// wrappers and literal arithmetic. A VarRef resolves against m's own symbol
// table first, then its import-variable map, then (see resolveSymbol) the
// exports of whatever it directly imports.
func resolveValue(m *module, scope *linkScope, e ast.Expr) (word.Word, error) {
	switch v := e.(type) {
	case ast.HexLiteral:
		if val, ok := v.ResolvedValue(); ok {
			return val, nil
		}
		n, err := strconv.ParseUint(v.Span.Slice(m.source), 16, 16)
		if err != nil {
			return 0, fmt.Errorf("compiler: invalid hex literal: %w", err)
		}
		return word.Word(n), nil

	case ast.Address:
		return resolveValue(m, scope, v.Inner)

	case ast.VarRef:
		name := v.Span.Slice(m.source)
		return resolveSymbol(m, scope, name)

	case ast.BinaryOp:
		lhs, err := resolveValue(m, scope, v.LHS)
		if err != nil {
			return 0, err
		}
		rhs, err := resolveValue(m, scope, v.RHS)
		if err != nil {
			return 0, err
		}
		switch v.Op {
		case ast.OpAdd:
			return lhs.Add(rhs), nil
		case ast.OpSub:
			return lhs.Sub(rhs), nil
		case ast.OpMul:
			return lhs.Mul(rhs), nil
		default:
			return 0, fmt.Errorf("compiler: unknown operator %v", v.Op)
		}

	default:
		return 0, fmt.Errorf("compiler: cannot resolve operand of type %T to a value", e)
	}
}

// resolveSymbol looks up name in priority order: (1) m's own symbol table
// (consts/labels/data), (2) m's import-variable map (a literal value, or a
// ModuleField deferred to a sibling import's export table, keyed by the
// alias that introduced it), (3) the export table of any module m directly
// imports, matched by bare name. The third step is a deliberate completion
// of §4.F: the reference implementation's import-variable bindings only let
// a parent hand a value *into* an imported module's scope, with no path back
// for a module to read an import's export under the export's own name
// without a matching binding -- see DESIGN.md.
func resolveSymbol(m *module, scope *linkScope, name string) (word.Word, error) {
	if v, ok := m.symbols[name]; ok {
		return v, nil
	}
	if either, ok := m.variables[name]; ok {
		if either.IsResolved {
			return either.Value, nil
		}
		target, ok := scope.byName[either.ModuleName]
		if !ok {
			return 0, fmt.Errorf("compiler: module %q (referenced by %q) was not compiled before %q needed it",
				either.ModuleName, name, m.name)
		}
		val, ok := target.exports[either.FieldName]
		if !ok {
			return 0, fmt.Errorf("compiler: module %q has no exported field %q", either.ModuleName, either.FieldName)
		}
		return val, nil
	}
	for _, path := range m.imports {
		imported, ok := scope.byPath[path]
		if !ok {
			continue
		}
		if val, ok := imported.exports[name]; ok {
			return val, nil
		}
	}
	return 0, fmt.Errorf("compiler: undefined symbol %q in module %q", name, m.name)
}
