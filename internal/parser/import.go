package parser

import (
	"aya/internal/ast"
	"aya/internal/diag"
	"aya/internal/lexer"
)

func (p *Parser) parseImport() (ast.Statement, error) {
	p.lex.Next() // 'import'

	pathTok, err := p.expect(lexer.String, "IMPORT_PATH", "import path must be a string literal")
	if err != nil {
		return nil, err
	}
	// Drop the surrounding quotes from the stored span.
	path := ast.Span{Start: pathTok.Span.Start + 1, End: pathTok.Span.End - 1}

	name, err := p.expectIdent("module name must be a valid identifier")
	if err != nil {
		return nil, err
	}

	address, err := p.parseSimpleAddressLiteral()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.LBrace, "IMPORT_LBRACE", "modules must have a variable declaration block"); err != nil {
		return nil, err
	}

	vars, err := p.parseImportVars()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.RBrace, "IMPORT_RBRACE", "unclosed module declaration block, you likely forgot a '}'"); err != nil {
		return nil, err
	}

	return ast.Import{Name: name, Path: path, Address: address, Variables: vars}, nil
}

func (p *Parser) parseImportVars() ([]ast.ImportVar, error) {
	var vars []ast.ImportVar
	seen := map[string]bool{}

	for {
		tok, err := p.lex.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == lexer.RBrace {
			break
		}

		name, err := p.expectIdent("import variable name must be a valid identifier")
		if err != nil {
			return nil, err
		}
		nameText := p.text(name)
		if seen[nameText] {
			return nil, &diag.Error{
				Code:   diag.CodeDuplicateVariable,
				Source: p.source,
				Msg:    "this import variable was already defined",
				Help:   "import variable names must be unique within one import block",
				Labels: []diag.Label{{Span: diag.Span{Start: name.Start, End: name.End}, Note: "duplicate"}},
			}
		}
		seen[nameText] = true

		if _, err := p.expect(lexer.Colon, "IMPORTVAR_COLON", "import variable name and value must be separated by ':'"); err != nil {
			return nil, err
		}

		value, err := p.parseImportVarValue()
		if err != nil {
			return nil, err
		}
		vars = append(vars, ast.ImportVar{Name: name, Value: value})

		tok, err = p.lex.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == lexer.RBrace {
			break
		}
		if _, err := p.expect(lexer.Comma, "IMPORTVAR_COMMA", "import variables must be separated by a comma"); err != nil {
			return nil, err
		}
	}

	return vars, nil
}

func (p *Parser) parseImportVarValue() (ast.Expr, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case lexer.HexNumber:
		return p.parseHexLiteral()
	case lexer.Bang:
		return p.parseVar()
	case lexer.LBracket:
		return p.parseBracketedImportValue()
	default:
		return nil, p.unexpectedToken(tok)
	}
}

// parseBracketedImportValue parses `[!name]` (a forwarded variable) or
// `[Module.field]` (a deferred cross-module field access).
func (p *Parser) parseBracketedImportValue() (ast.Expr, error) {
	if _, err := p.expect(lexer.LBracket, "IMPORTVAL_LBRACKET", "expected '['"); err != nil {
		return nil, err
	}

	tok, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}

	var value ast.Expr
	switch tok.Kind {
	case lexer.Bang:
		value, err = p.parseVar()
	case lexer.Ident:
		value, err = p.parseFieldAccessor()
	default:
		return nil, p.unexpectedToken(tok)
	}
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.RBracket, "IMPORTVAL_RBRACKET", "unterminated bracketed import value"); err != nil {
		return nil, err
	}
	return value, nil
}

func (p *Parser) parseFieldAccessor() (ast.Expr, error) {
	module, err := p.expectIdent("module name in import value must be a valid identifier")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Dot, "FIELD_DOT", "module field accessor must be dot separated"); err != nil {
		return nil, err
	}
	field, err := p.expectIdent("field name in import value must be a valid identifier")
	if err != nil {
		return nil, err
	}
	return ast.FieldAccessor{Module: module, Field: field}, nil
}
