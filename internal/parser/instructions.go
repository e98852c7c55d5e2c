package parser

import (
	"aya/internal/ast"
	"aya/internal/diag"
	"aya/internal/lexer"
	"aya/internal/opcode"
)

func (p *Parser) unsupportedOperands(mnemonic string, offset ast.Span) error {
	return &diag.Error{
		Code:   diag.CodeInvalidOperandShape,
		Source: p.source,
		Msg:    "no instruction shape accepts these operand types for " + mnemonic,
		Help:   "check the assembly grammar for the operand shapes this mnemonic supports",
		Labels: []diag.Label{{Span: diag.Span{Start: offset.Start, End: offset.End}, Note: "this instruction"}},
	}
}

func (p *Parser) expectComma(context string) error {
	_, err := p.expect(lexer.Comma, "MISSING_COMMA", "missing a comma after the left side of the "+context)
	return err
}

// parseInstruction dispatches on mnemonic family, determining the concrete
// opcode.Kind from the operand tokens' lookahead and resolving the wire
// opcode via opcode.Lookup.
func (p *Parser) parseInstruction(mnemonic string) (ast.Statement, error) {
	startTok, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}
	start := startTok.Span.Start
	p.lex.Next() // mnemonic

	switch mnemonic {
	case "mov":
		return p.parseMov(start)
	case "add", "sub", "mul", "lsh", "rsh", "and", "or", "xor":
		return p.parseBinaryArith(mnemonic, start)
	case "inc", "dec", "not":
		return p.parseUnaryReg(mnemonic, start)
	case "psh":
		return p.parsePush(start)
	case "pop":
		return p.parseSingleReg("pop", opcode.Pop, start)
	case "call":
		return p.parseAddressTarget("call", opcode.Call, start)
	case "ret":
		return ast.Instruction{Op: opcode.Ret, Kind: opcode.NoArgs, Offset: ast.Span{Start: start, End: start + len(mnemonic)}}, nil
	case "int":
		return p.parseInt(start)
	case "rti":
		return ast.Instruction{Op: opcode.Rti, Kind: opcode.NoArgs, Offset: ast.Span{Start: start, End: start + len(mnemonic)}}, nil
	case "hlt":
		return p.parseHalt(start)
	case "jeq", "jgt", "jne", "jge", "jle", "jlt":
		return p.parseConditionalJump(mnemonic, start)
	case "jmp":
		return p.parseAddressTarget("jmp", opcode.Jmp, start)
	default:
		return nil, &diag.Error{
			Code:   diag.CodeUnknownMnemonic,
			Source: p.source,
			Msg:    "unknown mnemonic " + mnemonic,
			Help:   "check the assembly grammar for the supported instruction set",
			Labels: []diag.Label{{Span: diag.Span{Start: start, End: start + len(mnemonic)}, Note: "this mnemonic"}},
		}
	}
}

func (p *Parser) exprEnd(e ast.Expr) int {
	switch v := e.(type) {
	case ast.HexLiteral:
		return v.Span.End
	case ast.RegisterRef:
		return v.Span.End
	case ast.VarRef:
		return v.Span.End
	case ast.Address:
		return p.exprEnd(v.Inner)
	case ast.BinaryOp:
		return p.exprEnd(v.RHS)
	case ast.FieldAccessor:
		return v.Field.End
	default:
		return 0
	}
}

// parseMov handles mov's six shapes. The left operand is always written
// first in source and determines whether a register or an address is being
// targeted; the right operand (after a required comma) supplies the value.
// Kind selection follows the operand *token* pair, not a fixed association
// between "LitReg"/"RegMem" naming and which side is written first -- e.g.
// LitReg puts the register on the left and the literal on the right, while
// RegMem puts the address on the left and the register on the right.
func (p *Parser) parseMov(start int) (ast.Statement, error) {
	lhsTok, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}

	var lhs ast.Expr
	switch lhsTok.Kind {
	case lexer.Ident:
		lhs, err = p.parseRegister()
	case lexer.Amp:
		lhs, err = p.parseAddressExpr()
	default:
		return nil, p.unexpectedToken(lhsTok)
	}
	if err != nil {
		return nil, err
	}

	if err := p.expectComma("instruction"); err != nil {
		return nil, err
	}

	rhsTok, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}

	var rhs ast.Expr
	switch rhsTok.Kind {
	case lexer.Ident:
		rhs, err = p.parseRegister()
	case lexer.Bang:
		rhs, err = p.parseVar()
	case lexer.HexNumber:
		rhs, err = p.parseHexLiteral()
	case lexer.Amp:
		rhs, err = p.parseAddressExpr()
	case lexer.LBracket:
		rhs, err = p.parseLiteralExpr()
	default:
		return nil, p.unexpectedToken(rhsTok)
	}
	if err != nil {
		return nil, err
	}

	offset := ast.Span{Start: start, End: p.exprEnd(rhs)}

	var kind opcode.Kind
	switch {
	case lhsTok.Kind == lexer.Ident && rhsTok.Kind == lexer.Ident:
		kind = opcode.RegReg
	case lhsTok.Kind == lexer.Ident && (rhsTok.Kind == lexer.Bang || rhsTok.Kind == lexer.HexNumber || rhsTok.Kind == lexer.LBracket):
		kind = opcode.LitReg
	case lhsTok.Kind == lexer.Amp && rhsTok.Kind == lexer.Ident:
		kind = opcode.RegMem
	case lhsTok.Kind == lexer.Ident && rhsTok.Kind == lexer.Amp:
		kind = opcode.MemReg
	case lhsTok.Kind == lexer.Amp && (rhsTok.Kind == lexer.LBracket || rhsTok.Kind == lexer.Bang || rhsTok.Kind == lexer.HexNumber):
		kind = opcode.LitMem
	case lhsTok.Kind == lexer.Amp && rhsTok.Kind == lexer.Amp:
		lAddr, lok := lhs.(ast.Address)
		rAddr, rok := rhs.(ast.Address)
		if !lok || !rok {
			return nil, p.unsupportedOperands("mov", offset)
		}
		lReg, lIsReg := lAddr.Inner.(ast.RegisterRef)
		rReg, rIsReg := rAddr.Inner.(ast.RegisterRef)
		if !lIsReg || !rIsReg {
			return nil, p.unsupportedOperands("mov", offset)
		}
		kind = opcode.RegPtrReg
		lhs, rhs = lReg, rReg
	default:
		return nil, p.unsupportedOperands("mov", offset)
	}

	op, ok := opcode.Lookup("mov", kind)
	if !ok {
		return nil, p.unsupportedOperands("mov", offset)
	}
	return ast.Instruction{Op: op, Kind: kind, LHS: lhs, RHS: rhs, Offset: offset}, nil
}

// parseBinaryArith handles add/sub/mul/lsh/rsh/and/or/xor: the destination
// is always a register written first, the source (after a comma) is a
// register or a literal.
func (p *Parser) parseBinaryArith(mnemonic string, start int) (ast.Statement, error) {
	lhs, err := p.parseRegister()
	if err != nil {
		return nil, err
	}
	if err := p.expectComma("instruction"); err != nil {
		return nil, err
	}

	rhsTok, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}

	var rhs ast.Expr
	var kind opcode.Kind
	switch rhsTok.Kind {
	case lexer.Ident:
		rhs, err = p.parseRegister()
		kind = opcode.RegReg
	case lexer.HexNumber:
		rhs, err = p.parseHexLiteral()
		kind = opcode.LitReg
	case lexer.Bang:
		rhs, err = p.parseVar()
		kind = opcode.LitReg
	case lexer.LBracket:
		rhs, err = p.parseLiteralExpr()
		kind = opcode.LitReg
	default:
		return nil, p.unexpectedToken(rhsTok)
	}
	if err != nil {
		return nil, err
	}

	offset := ast.Span{Start: start, End: p.exprEnd(rhs)}
	op, ok := opcode.Lookup(mnemonic, kind)
	if !ok {
		return nil, p.unsupportedOperands(mnemonic, offset)
	}
	return ast.Instruction{Op: op, Kind: kind, LHS: lhs, RHS: rhs, Offset: offset}, nil
}

// parseUnaryReg handles inc/dec/not: a single register operand, no comma.
func (p *Parser) parseUnaryReg(mnemonic string, start int) (ast.Statement, error) {
	reg, err := p.parseRegister()
	if err != nil {
		return nil, err
	}
	offset := ast.Span{Start: start, End: p.exprEnd(reg)}
	op, ok := opcode.Lookup(mnemonic, opcode.SingleReg)
	if !ok {
		return nil, p.unsupportedOperands(mnemonic, offset)
	}
	return ast.Instruction{Op: op, Kind: opcode.SingleReg, LHS: reg, Offset: offset}, nil
}

// parsePush handles psh's two shapes: a bare register or a bare hex literal.
func (p *Parser) parsePush(start int) (ast.Statement, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}

	var operand ast.Expr
	var kind opcode.Kind
	switch tok.Kind {
	case lexer.Ident:
		operand, err = p.parseRegister()
		kind = opcode.SingleReg
	case lexer.HexNumber:
		operand, err = p.parseHexLiteral()
		kind = opcode.SingleLit
	default:
		return nil, p.unexpectedToken(tok)
	}
	if err != nil {
		return nil, err
	}

	offset := ast.Span{Start: start, End: p.exprEnd(operand)}
	op, ok := opcode.Lookup("psh", kind)
	if !ok {
		return nil, p.unsupportedOperands("psh", offset)
	}
	return ast.Instruction{Op: op, Kind: kind, LHS: operand, Offset: offset}, nil
}

func (p *Parser) parseSingleReg(mnemonic string, op opcode.Opcode, start int) (ast.Statement, error) {
	reg, err := p.parseRegister()
	if err != nil {
		return nil, err
	}
	offset := ast.Span{Start: start, End: p.exprEnd(reg)}
	return ast.Instruction{Op: op, Kind: opcode.SingleReg, LHS: reg, Offset: offset}, nil
}

// parseAddressTarget handles call/jmp: the target is either a bare hex
// literal (implicitly an address) or a full `&[...]` address expression.
func (p *Parser) parseAddressTarget(mnemonic string, op opcode.Opcode, start int) (ast.Statement, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}

	var target ast.Expr
	switch tok.Kind {
	case lexer.HexNumber:
		lit, err := p.parseHexLiteral()
		if err != nil {
			return nil, err
		}
		target = ast.Address{Inner: lit}
	case lexer.Amp:
		target, err = p.parseAddressExpr()
		if err != nil {
			return nil, err
		}
	default:
		return nil, p.unexpectedToken(tok)
	}

	offset := ast.Span{Start: start, End: p.exprEnd(target)}
	return ast.Instruction{Op: op, Kind: opcode.SingleLit, LHS: target, Offset: offset}, nil
}

// parseInt parses int's single bare hex-literal interrupt number; unlike psh or
// call, no address or computed expression is accepted here.
func (p *Parser) parseInt(start int) (ast.Statement, error) {
	lit, err := p.parseHexLiteral()
	if err != nil {
		return nil, err
	}
	offset := ast.Span{Start: start, End: p.exprEnd(lit)}
	return ast.Instruction{Op: opcode.Int, Kind: opcode.SingleLit, LHS: lit, Offset: offset}, nil
}

// parseHalt parses hlt's single status-byte literal operand, the wire
// format's one-off two-byte shape (a redesign from the reference, which
// takes hlt with no operand at all -- see DESIGN.md).
func (p *Parser) parseHalt(start int) (ast.Statement, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}

	var lit ast.Expr
	switch tok.Kind {
	case lexer.HexNumber:
		lit, err = p.parseHexLiteral()
	case lexer.LBracket:
		lit, err = p.parseLiteralExpr()
	default:
		return nil, p.unexpectedToken(tok)
	}
	if err != nil {
		return nil, err
	}

	offset := ast.Span{Start: start, End: p.exprEnd(lit)}
	kind, _ := opcode.Halt.Kind()
	return ast.Instruction{Op: opcode.Halt, Kind: kind, LHS: lit, Offset: offset}, nil
}

// parseConditionalJump handles jeq/jgt/jne/jge/jle/jlt: the branch target
// address is always written first, followed by the condition value (a
// register or a literal) that determines MemReg vs LitMem.
func (p *Parser) parseConditionalJump(mnemonic string, start int) (ast.Statement, error) {
	target, err := p.parseAddressExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectComma("instruction"); err != nil {
		return nil, err
	}

	condTok, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}

	var cond ast.Expr
	var kind opcode.Kind
	switch condTok.Kind {
	case lexer.Ident:
		cond, err = p.parseRegister()
		kind = opcode.MemReg
	case lexer.HexNumber:
		cond, err = p.parseHexLiteral()
		kind = opcode.LitMem
	case lexer.Bang:
		cond, err = p.parseVar()
		kind = opcode.LitMem
	case lexer.LBracket:
		cond, err = p.parseLiteralExpr()
		kind = opcode.LitMem
	default:
		return nil, p.unexpectedToken(condTok)
	}
	if err != nil {
		return nil, err
	}

	offset := ast.Span{Start: start, End: p.exprEnd(cond)}
	op, ok := opcode.Lookup(mnemonic, kind)
	if !ok {
		return nil, p.unsupportedOperands(mnemonic, offset)
	}
	return ast.Instruction{Op: op, Kind: kind, LHS: target, RHS: cond, Offset: offset}, nil
}
