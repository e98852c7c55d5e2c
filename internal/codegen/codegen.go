// Package codegen implements the assembler's expression-lowering pass: it
// walks a parsed module's AST and rewrites any computed-literal operand
// (a `[expr]` built from more than a bare literal/register/variable) into a
// sequence of simpler instructions over a scratch-register pool, folding any
// subtree made entirely of hex literals at lowering time instead of leaving
// it for the CPU to compute at runtime. Grounded on
// original_source/aya-assembly/src/codegen.rs, reworked from that file's
// generate-text-then-reparse architecture into a direct AST-to-AST pass:
// the reference emits a new assembly source string and feeds it back through
// its own parser, but an in-memory transformation of the same tree is the
// idiomatic Go shape for this pipeline stage and preserves the same
// observable lowering semantics (see DESIGN.md).
package codegen

import (
	"fmt"
	"strconv"

	"aya/internal/ast"
	"aya/internal/opcode"
	"aya/internal/register"
	"aya/internal/word"
)

// Lower rewrites every computed-literal instruction operand in tree,
// returning a new Ast with the same statement order but with `mov`/
// arithmetic instructions whose literal side is an expression tree (rather
// than a bare literal, variable, or register) expanded into an equivalent
// scratch-register sequence. source is the original source text, needed to
// slice hex-literal and variable spans while folding. Labels, data blocks,
// imports, and constants pass through unchanged.
func Lower(tree *ast.Ast, source string) (*ast.Ast, error) {
	out := &ast.Ast{Statements: make([]ast.Statement, 0, len(tree.Statements))}
	for _, stmt := range tree.Statements {
		inst, ok := stmt.(ast.Instruction)
		if !ok {
			out.Statements = append(out.Statements, stmt)
			continue
		}

		lowered, err := lowerInstruction(inst, source)
		if err != nil {
			return nil, err
		}
		out.Statements = append(out.Statements, lowered...)
	}
	return out, nil
}

// lowerInstruction expands a single instruction. Only LitReg-shaped
// instructions (mov's literal-to-register form and the arithmetic family's
// literal-source form both put their computed operand in RHS) ever need
// lowering; every other kind's operands are already constrained by the
// parser to a bare register, address, or literal. Address operands may
// still contain a computed expression (e.g. `&[table + $0002]`), but those
// are folded in place rather than lowered into a register sequence, since an
// address must resolve to a single compile-time value that the compiler's
// symbol pass evaluates directly (see DESIGN.md's internal/compiler entry).
func lowerInstruction(inst ast.Instruction, source string) ([]ast.Statement, error) {
	inst.LHS = foldAddressOperand(inst.LHS, source)
	if inst.Kind != opcode.LitReg {
		inst.RHS = foldAddressOperand(inst.RHS, source)
		return []ast.Statement{inst}, nil
	}

	binop, ok := inst.RHS.(ast.BinaryOp)
	if !ok {
		return []ast.Statement{inst}, nil
	}

	if _, isReg := inst.LHS.(ast.RegisterRef); !isReg {
		return nil, fmt.Errorf("codegen: LitReg instruction has non-register destination")
	}

	if isPureLiteral(binop) {
		value, err := foldLiteral(binop, source)
		if err != nil {
			return nil, err
		}
		inst.RHS = ast.NewHexLiteral(value)
		return []ast.Statement{inst}, nil
	}

	pool := newScratchPool()
	var instrs []ast.Instruction
	resultReg, emitted, err := lowerBinary(binop, pool, source)
	if err != nil {
		return nil, err
	}
	instrs = append(instrs, emitted...)

	// The computed value now lives in a register, so the final move is
	// always RegReg regardless of the instruction's original LitReg shape.
	finalOp, ok := opcode.Lookup(inst.Op.String(), opcode.RegReg)
	if !ok {
		return nil, fmt.Errorf("codegen: no RegReg form of %s", inst.Op)
	}
	instrs = append(instrs, buildInstruction(finalOp, opcode.RegReg, inst.LHS, ast.NewRegisterRef(resultReg)))
	instrs = append(instrs, pool.releaseAll()...)

	out := make([]ast.Statement, len(instrs))
	for i, in := range instrs {
		out[i] = in
	}
	return out, nil
}

// foldAddressOperand folds a pure-literal expression tree nested inside an
// `&[...]` address wrapper in place; an address containing a variable or
// label reference is left untouched for the compiler's symbol-aware
// evaluator to resolve.
func foldAddressOperand(e ast.Expr, source string) ast.Expr {
	addr, ok := e.(ast.Address)
	if !ok {
		return e
	}
	binop, ok := addr.Inner.(ast.BinaryOp)
	if !ok || !isPureLiteral(binop) {
		return e
	}
	value, err := foldLiteral(binop, source)
	if err != nil {
		return e
	}
	return ast.Address{Inner: ast.NewHexLiteral(value)}
}

// isPureLiteral reports whether expr is built entirely from hex literals and
// arithmetic operators, with no register or variable leaves -- the only
// shape eligible for compile-time constant folding.
func isPureLiteral(expr ast.Expr) bool {
	switch e := expr.(type) {
	case ast.HexLiteral:
		return true
	case ast.BinaryOp:
		return isPureLiteral(e.LHS) && isPureLiteral(e.RHS)
	default:
		return false
	}
}

func foldLiteral(expr ast.Expr, source string) (word.Word, error) {
	switch e := expr.(type) {
	case ast.HexLiteral:
		if v, ok := e.ResolvedValue(); ok {
			return v, nil
		}
		n, err := strconv.ParseUint(e.Span.Slice(source), 16, 16)
		if err != nil {
			return 0, fmt.Errorf("codegen: invalid hex literal: %w", err)
		}
		return word.Word(n), nil
	case ast.BinaryOp:
		lhs, err := foldLiteral(e.LHS, source)
		if err != nil {
			return 0, err
		}
		rhs, err := foldLiteral(e.RHS, source)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case ast.OpAdd:
			return lhs.Add(rhs), nil
		case ast.OpSub:
			return lhs.Sub(rhs), nil
		case ast.OpMul:
			return lhs.Mul(rhs), nil
		default:
			return 0, fmt.Errorf("codegen: unknown operator %v", e.Op)
		}
	default:
		return 0, fmt.Errorf("codegen: cannot fold non-literal expression %T", expr)
	}
}

// lowerBinary lowers a single (non-foldable) binary expression post-order,
// returning the register holding the final result plus every instruction
// emitted along the way. A register-ref leaf is used directly, with no
// scratch acquisition, since it's already materialized; a literal or
// variable leaf is used directly as the arithmetic instruction's RHS
// operand, since every arithmetic opcode already accepts a LitReg form --
// only an actual sub-expression needs a fresh scratch register to hold its
// computed value.
func lowerBinary(expr ast.Expr, pool *scratchPool, source string) (register.Register, []ast.Instruction, error) {
	binop, ok := expr.(ast.BinaryOp)
	if !ok {
		return 0, nil, fmt.Errorf("codegen: lowerBinary called on non-BinaryOp %T", expr)
	}

	var instrs []ast.Instruction

	dest, pshInstr, err := pool.acquire()
	if err != nil {
		return 0, nil, err
	}
	instrs = append(instrs, pshInstr)

	lhsOperand, lhsScratch, lhsInstrs, err := lowerOperand(binop.LHS, pool, source)
	if err != nil {
		return 0, nil, err
	}
	instrs = append(instrs, lhsInstrs...)

	rhsOperand, rhsScratch, rhsInstrs, err := lowerOperand(binop.RHS, pool, source)
	if err != nil {
		return 0, nil, err
	}
	instrs = append(instrs, rhsInstrs...)

	if lhsReg, ok := lhsOperand.(ast.RegisterRef); !ok || !sameRegister(lhsReg, dest, source) {
		movKind := opcode.RegReg
		if !ok {
			movKind = opcode.LitReg
		}
		instrs = append(instrs, buildInstruction(mustLookup("mov", movKind), movKind, ast.NewRegisterRef(dest), lhsOperand))
	}

	arithOp, arithKind, err := arithOpcode(binop.Op, rhsOperand)
	if err != nil {
		return 0, nil, err
	}
	instrs = append(instrs, buildInstruction(arithOp, arithKind, ast.NewRegisterRef(dest), rhsOperand))

	if rhsScratch {
		popInstr, err := pool.release(mustRegisterOf(rhsOperand))
		if err != nil {
			return 0, nil, err
		}
		instrs = append(instrs, popInstr)
	}
	if lhsScratch {
		popInstr, err := pool.release(mustRegisterOf(lhsOperand))
		if err != nil {
			return 0, nil, err
		}
		instrs = append(instrs, popInstr)
	}

	return dest, instrs, nil
}

// lowerOperand reduces expr to a directly usable instruction operand,
// recursing through lowerBinary when expr is itself a computed
// sub-expression. The returned bool reports whether the operand occupies a
// scratch register that the caller must eventually release.
func lowerOperand(expr ast.Expr, pool *scratchPool, source string) (ast.Expr, bool, []ast.Instruction, error) {
	switch e := expr.(type) {
	case ast.RegisterRef, ast.HexLiteral, ast.VarRef:
		return e, false, nil, nil
	case ast.BinaryOp:
		reg, instrs, err := lowerBinary(e, pool, source)
		if err != nil {
			return nil, false, nil, err
		}
		return ast.NewRegisterRef(reg), true, instrs, nil
	default:
		return nil, false, nil, fmt.Errorf("codegen: unsupported operand %T in computed literal", expr)
	}
}

func arithOpcode(op ast.Operator, rhs ast.Expr) (opcode.Opcode, opcode.Kind, error) {
	var mnemonic string
	switch op {
	case ast.OpAdd:
		mnemonic = "add"
	case ast.OpSub:
		mnemonic = "sub"
	case ast.OpMul:
		mnemonic = "mul"
	default:
		return 0, 0, fmt.Errorf("codegen: unsupported operator %v", op)
	}

	var kind opcode.Kind
	switch rhs.(type) {
	case ast.RegisterRef:
		kind = opcode.RegReg
	case ast.HexLiteral, ast.VarRef:
		kind = opcode.LitReg
	default:
		return 0, 0, fmt.Errorf("codegen: unsupported rhs operand %T", rhs)
	}

	op2, ok := opcode.Lookup(mnemonic, kind)
	if !ok {
		return 0, 0, fmt.Errorf("codegen: no opcode for %s/%v", mnemonic, kind)
	}
	return op2, kind, nil
}

func buildInstruction(op opcode.Opcode, kind opcode.Kind, lhs, rhs ast.Expr) ast.Instruction {
	return ast.Instruction{Op: op, Kind: kind, LHS: lhs, RHS: rhs}
}

func mustLookup(mnemonic string, kind opcode.Kind) opcode.Opcode {
	op, ok := opcode.Lookup(mnemonic, kind)
	if !ok {
		panic(fmt.Sprintf("codegen: missing opcode for %s/%v", mnemonic, kind))
	}
	return op
}

func mustRegisterOf(e ast.Expr) register.Register {
	reg, ok := e.(ast.RegisterRef)
	if !ok {
		panic("codegen: expected register operand")
	}
	r, ok := reg.ResolvedRegister()
	if !ok {
		panic("codegen: expected scratch-synthesized register operand")
	}
	return r
}

func resolveRegister(ref ast.RegisterRef, source string) (register.Register, error) {
	if r, ok := ref.ResolvedRegister(); ok {
		return r, nil
	}
	name := ref.Span.Slice(source)
	r, ok := register.ParseName(name)
	if !ok {
		return 0, fmt.Errorf("codegen: %q is not a register", name)
	}
	return r, nil
}

func sameRegister(ref ast.RegisterRef, r register.Register, source string) bool {
	resolved, err := resolveRegister(ref, source)
	if err != nil {
		return false
	}
	return resolved == r
}
