package parser

import (
	"aya/internal/ast"
	"aya/internal/lexer"
	"aya/internal/register"
)

const (
	precBase = 0
	precAdd  = 1
	precMul  = 2
)

func operatorOf(k lexer.Kind) (ast.Operator, bool) {
	switch k {
	case lexer.Plus:
		return ast.OpAdd, true
	case lexer.Minus:
		return ast.OpSub, true
	case lexer.Star:
		return ast.OpMul, true
	default:
		return 0, false
	}
}

// parseLiteralExpr parses `[ expr ]`, the "computed immediate" form used on
// mov/arithmetic right-hand sides.
func (p *Parser) parseLiteralExpr() (ast.Expr, error) {
	if _, err := p.expect(lexer.LBracket, "LIT_LBRACKET", "expected '['"); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr(precBase)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RBracket, "LIT_RBRACKET", "unterminated bracketed expression, expected ']'"); err != nil {
		return nil, err
	}
	return expr, nil
}

// parseAddressExpr parses `&[ expr ]`, wrapping the inner expression in an
// Address node.
func (p *Parser) parseAddressExpr() (ast.Expr, error) {
	if _, err := p.expect(lexer.Amp, "ADDR_AMP", "addresses start with '&['"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBracket, "ADDR_LBRACKET", "addresses start with '&['"); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr(precBase)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RBracket, "ADDR_RBRACKET", "unterminated address, expected ']'"); err != nil {
		return nil, err
	}
	return ast.Address{Inner: expr}, nil
}

// parseExpr implements the Pratt-precedence expression grammar: additive
// operators bind looser than multiplicative ones, primaries are hex
// literals, registers, variables, or a parenthesized sub-expression.
func (p *Parser) parseExpr(precedence int) (ast.Expr, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}

	var lhs ast.Expr
	switch tok.Kind {
	case lexer.LParen:
		p.lex.Next()
		inner, err := p.parseExpr(precBase)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen, "EXPR_RPAREN", "unterminated group, expected ')'"); err != nil {
			return nil, err
		}
		lhs = inner
	case lexer.HexNumber:
		lit, err := p.parseHexLiteral()
		if err != nil {
			return nil, err
		}
		lhs = lit
	case lexer.Ident:
		// A bare identifier is a register name if it's one of the known
		// register mnemonics; otherwise it's a label/data-block symbol
		// reference, resolved the same way as a `!name` variable (§4.F) --
		// this is what lets `&[table]`/`&[table + $0002]`/`&[loop]` name a
		// symbol directly inside an address or computed-literal expression.
		if _, ok := register.ParseName(p.text(tok.Span)); ok {
			reg, err := p.parseRegister()
			if err != nil {
				return nil, err
			}
			lhs = reg
		} else {
			p.lex.Next()
			lhs = ast.VarRef{Span: tok.Span}
		}
	case lexer.Bang:
		v, err := p.parseVar()
		if err != nil {
			return nil, err
		}
		lhs = v
	default:
		return nil, p.unexpectedToken(tok)
	}

	for {
		tok, err := p.lex.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == lexer.RParen || tok.Kind == lexer.RBracket {
			break
		}
		op, ok := operatorOf(tok.Kind)
		if !ok {
			return nil, p.unexpectedToken(tok)
		}
		opPrec := precAdd
		if op == ast.OpMul {
			opPrec = precMul
		}
		if opPrec < precedence {
			break
		}
		p.lex.Next()
		rhs, err := p.parseExpr(opPrec)
		if err != nil {
			return nil, err
		}
		lhs = ast.BinaryOp{LHS: lhs, Op: op, RHS: rhs}
	}

	return lhs, nil
}
