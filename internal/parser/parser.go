// Package parser implements the recursive-descent parser that turns a
// lexer.Lexer's token stream into an ast.Ast. Every diagnostic raised here
// is a *diag.Error carrying the offending byte span and a help string.
package parser

import (
	"strings"

	"aya/internal/ast"
	"aya/internal/diag"
	"aya/internal/lexer"
	"aya/internal/opcode"
)

// Parser holds the lexer and source text for a single file parse.
type Parser struct {
	source string
	lex    *lexer.Lexer
}

func New(source string) *Parser {
	return &Parser{source: source, lex: lexer.New(source)}
}

// Parse parses source into a complete Ast. It is the package-level
// convenience entry point; resolver and tests both use it directly.
func Parse(source string) (*ast.Ast, error) {
	return New(source).Parse()
}

func (p *Parser) Parse() (*ast.Ast, error) {
	var stmts []ast.Statement
	for {
		tok, err := p.lex.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == lexer.Eof {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return &ast.Ast{Statements: stmts}, nil
}

func (p *Parser) text(span ast.Span) string {
	return span.Slice(p.source)
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}

	switch tok.Kind {
	case lexer.Plus:
		p.lex.Next()
		return p.parseExportable()
	case lexer.Ident:
		return p.parseIdentLed(tok)
	default:
		return nil, p.unexpectedToken(tok)
	}
}

// parseExportable handles the statements that may carry a leading `+`:
// labels, const, data8, data16.
func (p *Parser) parseExportable() (ast.Statement, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind != lexer.Ident {
		return nil, p.unexpectedToken(tok)
	}
	word := p.text(tok.Span)
	switch word {
	case "const":
		return p.parseConst(true)
	case "data8":
		return p.parseData(ast.Data8, true)
	case "data16":
		return p.parseData(ast.Data16, true)
	default:
		return p.parseLabel(true)
	}
}

func (p *Parser) parseIdentLed(tok lexer.Token) (ast.Statement, error) {
	word := p.text(tok.Span)
	switch word {
	case "import":
		return p.parseImport()
	case "const":
		return p.parseConst(false)
	case "data8":
		return p.parseData(ast.Data8, false)
	case "data16":
		return p.parseData(ast.Data16, false)
	default:
		followedByColon := strings.HasPrefix(strings.TrimLeft(p.source[tok.Span.End:], " \t"), ":")
		if opcode.IsMnemonic(word) && !followedByColon {
			return p.parseInstruction(word)
		}
		return p.parseLabel(false)
	}
}

func (p *Parser) parseLabel(exported bool) (ast.Statement, error) {
	name, err := p.expectIdent("label name must be a valid identifier")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Colon, "LABEL_COLON", "labels must be followed by a colon"); err != nil {
		return nil, err
	}
	return ast.Label{Name: name, Exported: exported}, nil
}

func (p *Parser) parseConst(exported bool) (ast.Statement, error) {
	p.lex.Next() // 'const'
	name, err := p.expectIdent("constant name must be a valid identifier")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Equals, "CONST_EQUALS", "const declarations require '='"); err != nil {
		return nil, err
	}

	value, err := p.parseConstValue()
	if err != nil {
		return nil, err
	}

	return ast.Const{Name: name, Value: value, Exported: exported}, nil
}

// parseConstValue accepts a bare hex literal, or a simple address wrapping
// one (`&[$hex]`); both reduce to the literal's span since constants have
// no runtime-relative component.
func (p *Parser) parseConstValue() (ast.HexLiteral, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return ast.HexLiteral{}, err
	}
	switch tok.Kind {
	case lexer.HexNumber:
		return p.parseHexLiteral()
	case lexer.Amp:
		return p.parseSimpleAddressLiteral()
	default:
		return ast.HexLiteral{}, p.unexpectedToken(tok)
	}
}

func (p *Parser) parseData(size ast.DataSize, exported bool) (ast.Statement, error) {
	p.lex.Next() // 'data8' / 'data16'
	name, err := p.expectIdent("data name must be a valid identifier")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Equals, "DATA_EQUALS", "data declarations require '='"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBrace, "DATA_LBRACE", "data variables must be surrounded by curly braces"); err != nil {
		return nil, err
	}

	var values []ast.HexLiteral
	for {
		tok, err := p.lex.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == lexer.RBrace {
			break
		}
		if tok.Kind == lexer.Amp {
			return nil, &diag.Error{
				Code:   diag.CodeMixedDataSizeSyntax,
				Source: p.source,
				Msg:    "address-wrapped values are not accepted inside data blocks",
				Help:   "data8/data16 values must be bare hex literals",
				Labels: []diag.Label{{Span: diag.Span{Start: tok.Span.Start, End: tok.Span.End}, Note: "this value"}},
			}
		}
		lit, err := p.parseHexLiteral()
		if err != nil {
			return nil, err
		}
		values = append(values, lit)

		tok, err = p.lex.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == lexer.RBrace {
			break
		}
		if _, err := p.expect(lexer.Comma, "DATA_COMMA", "data values must be separated by a comma"); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(lexer.RBrace, "DATA_RBRACE", "unclosed data declaration block, you likely forgot a '}'"); err != nil {
		return nil, err
	}

	return ast.Data{Name: name, Size: size, Values: values, Exported: exported}, nil
}
