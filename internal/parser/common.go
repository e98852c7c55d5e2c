package parser

import (
	"fmt"

	"aya/internal/ast"
	"aya/internal/diag"
	"aya/internal/lexer"
	"aya/internal/register"
)

func (p *Parser) unexpectedToken(tok lexer.Token) error {
	return &diag.Error{
		Code:   diag.CodeUnexpectedToken,
		Source: p.source,
		Msg:    fmt.Sprintf("unexpected token %v", tok.Kind),
		Help:   "check the assembly grammar for what's expected here",
		Labels: []diag.Label{{Span: diag.Span{Start: tok.Span.Start, End: tok.Span.End}, Note: "this token"}},
	}
}

func (p *Parser) unexpectedEOF(help string) error {
	return &diag.Error{
		Code:   diag.CodeUnexpectedEOF,
		Source: p.source,
		Msg:    "unexpected end of file",
		Help:   help,
	}
}

// expect consumes the next token, failing unless it has the given kind.
func (p *Parser) expect(kind lexer.Kind, code diag.Code, help string) (lexer.Token, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return tok, err
	}
	if tok.Kind == lexer.Eof {
		return tok, p.unexpectedEOF(help)
	}
	if tok.Kind != kind {
		return tok, &diag.Error{
			Code:   code,
			Source: p.source,
			Msg:    "unexpected token",
			Help:   help,
			Labels: []diag.Label{{Span: diag.Span{Start: tok.Span.Start, End: tok.Span.End}, Note: "this bit"}},
		}
	}
	return tok, nil
}

func (p *Parser) expectIdent(help string) (ast.Span, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return ast.Span{}, err
	}
	if tok.Kind == lexer.Eof {
		return ast.Span{}, p.unexpectedEOF(help)
	}
	if tok.Kind != lexer.Ident {
		return ast.Span{}, p.unexpectedToken(tok)
	}
	return tok.Span, nil
}

func (p *Parser) parseHexLiteral() (ast.HexLiteral, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return ast.HexLiteral{}, err
	}
	if tok.Kind != lexer.HexNumber {
		return ast.HexLiteral{}, p.unexpectedToken(tok)
	}
	// Span stored on the AST node excludes the leading '$', matching how
	// the resolver/compiler later parse the digits with ParseUint.
	return ast.HexLiteral{Span: ast.Span{Start: tok.Span.Start + 1, End: tok.Span.End}}, nil
}

func (p *Parser) parseVar() (ast.VarRef, error) {
	if _, err := p.expect(lexer.Bang, "VAR_BANG", "variable references start with '!'"); err != nil {
		return ast.VarRef{}, err
	}
	name, err := p.expectIdent("variable name must be a valid identifier")
	if err != nil {
		return ast.VarRef{}, err
	}
	return ast.VarRef{Span: name}, nil
}

// parseRegister consumes an identifier and validates it names a register
// other than SP/FP. The CPU also rejects SP/FP at decode time for user
// bytecode, but the parser rejects them eagerly here since no legal
// assembly source targets them directly.
func (p *Parser) parseRegister() (ast.RegisterRef, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return ast.RegisterRef{}, err
	}
	if tok.Kind != lexer.Ident {
		return ast.RegisterRef{}, p.unexpectedToken(tok)
	}
	name := p.text(tok.Span)
	reg, ok := register.ParseName(name)
	if !ok {
		return ast.RegisterRef{}, &diag.Error{
			Code:   diag.CodeInvalidRegister,
			Source: p.source,
			Msg:    fmt.Sprintf("%q is not a register", name),
			Help:   "expected one of acc, ip, r1..r8, sp, fp",
			Labels: []diag.Label{{Span: diag.Span{Start: tok.Span.Start, End: tok.Span.End}, Note: "this identifier"}},
		}
	}
	if reg == register.SP || reg == register.FP {
		return ast.RegisterRef{}, &diag.Error{
			Code:   diag.CodeForbiddenRegister,
			Source: p.source,
			Msg:    "sp/fp cannot be addressed directly by user code",
			Help:   "sp and fp are only writable through call/ret/int/rti",
			Labels: []diag.Label{{Span: diag.Span{Start: tok.Span.Start, End: tok.Span.End}, Note: "this register"}},
		}
	}
	return ast.RegisterRef{Span: tok.Span}, nil
}

// parseSimpleAddressLiteral parses `&[ $hex ]`, the restricted address form
// used by const declarations and import addresses; only a hex literal is
// accepted inside the brackets.
func (p *Parser) parseSimpleAddressLiteral() (ast.HexLiteral, error) {
	if _, err := p.expect(lexer.Amp, "ADDR_AMP", "addresses start with '&['"); err != nil {
		return ast.HexLiteral{}, err
	}
	if _, err := p.expect(lexer.LBracket, "ADDR_LBRACKET", "addresses start with '&['"); err != nil {
		return ast.HexLiteral{}, err
	}
	lit, err := p.parseHexLiteral()
	if err != nil {
		return ast.HexLiteral{}, err
	}
	if _, err := p.expect(lexer.RBracket, "ADDR_RBRACKET", "unterminated address, expected ']'"); err != nil {
		return ast.HexLiteral{}, err
	}
	return lit, nil
}
