package parser

import (
	"fmt"
	"strconv"

	"luacore/ast"
	"luacore/lexer"
)

// ParseError is a diagnostic carrying the source position it was raised
// at, formatted by cmd/luacore as "SYNTAX ERROR: <message> at line L,
// column C" (SPEC_FULL.md §10.4).
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at line %d, column %d", e.Message, e.Line, e.Column)
}

func newParseError(tok lexer.Token, format string, args ...interface{}) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Line: tok.Line, Column: tok.Column}
}

type Parser struct {
	tokens         []lexer.Token
	pos            int
	lookahead      [3]lexer.Token
	lookaheadValid [3]bool
}

func New(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

func (p *Parser) peek() lexer.Token {
	return p.peekAhead(0)
}

func (p *Parser) peekAhead(offset int) lexer.Token {
	if offset >= 3 {
		if p.pos+offset >= len(p.tokens) {
			return lexer.Token{Type: lexer.EOF}
		}
		return p.tokens[p.pos+offset]
	}
	if !p.lookaheadValid[offset] {
		if p.pos+offset >= len(p.tokens) {
			p.lookahead[offset] = lexer.Token{Type: lexer.EOF}
		} else {
			p.lookahead[offset] = p.tokens[p.pos+offset]
		}
		p.lookaheadValid[offset] = true
	}
	return p.lookahead[offset]
}

func (p *Parser) consume() lexer.Token {
	tok := p.peek()
	p.pos++
	p.lookahead[0] = p.lookahead[1]
	p.lookahead[1] = p.lookahead[2]
	p.lookaheadValid[0] = p.lookaheadValid[1]
	p.lookaheadValid[1] = p.lookaheadValid[2]
	p.lookaheadValid[2] = false
	return tok
}

func (p *Parser) expect(expected lexer.TokenType, message string) (lexer.Token, *ParseError) {
	tok := p.consume()
	if tok.Type != expected {
		return tok, newParseError(tok, "%s", message)
	}
	return tok, nil
}

// ParseProgram parses a full source file into a Program node.
func (p *Parser) ParseProgram() (*ast.Program, *ParseError) {
	prog := &ast.Program{}
	for p.peek().Type != lexer.EOF {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		prog.Body = append(prog.Body, stmt)
	}
	return prog, nil
}

func (p *Parser) parseStmt() (ast.Stmt, *ParseError) {
	switch p.peek().Type {
	case lexer.Local:
		return p.parseLocalDecl()
	case lexer.If:
		return p.parseIfStmt()
	case lexer.While:
		return p.parseWhileStmt()
	case lexer.Function:
		return p.parseFunctionDecl()
	case lexer.Return:
		return p.parseReturnStmt()
	case lexer.Semicolon:
		p.consume()
		return p.parseStmt()
	default:
		return p.parseAssignOrExprStmt()
	}
}

// parseBlock parses statements until one of the given terminator token
// types is seen, without consuming the terminator.
func (p *Parser) parseBlock(terminators ...lexer.TokenType) ([]ast.Stmt, *ParseError) {
	var body []ast.Stmt
	for {
		tok := p.peek()
		if tok.Type == lexer.EOF {
			return nil, newParseError(tok, "unexpected end of input, expected 'end'")
		}
		for _, term := range terminators {
			if tok.Type == term {
				return body, nil
			}
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
}

func (p *Parser) parseLocalDecl() (ast.Stmt, *ParseError) {
	p.consume() // local ->
	name, err := p.expect(lexer.Identifier, "expected identifier after 'local'")
	if err != nil {
		return nil, err
	}
	var value ast.Expr
	if p.peek().Type == lexer.Equals {
		p.consume()
		value, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	return &ast.LocalDecl{Name: name.Value, Value: value}, nil
}

func (p *Parser) parseIfStmt() (ast.Stmt, *ParseError) {
	p.consume() // if ->
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Then, "expected 'then' after if condition"); err != nil {
		return nil, err
	}
	then, err := p.parseBlock(lexer.Elseif, lexer.Else, lexer.End)
	if err != nil {
		return nil, err
	}

	stmt := &ast.IfStmt{Condition: cond, Then: then}

	switch p.peek().Type {
	case lexer.Elseif:
		// Desugar "elseif" into a nested if inside the else branch.
		nested, err := p.parseIfStmt()
		if err != nil {
			return nil, err
		}
		stmt.Else = []ast.Stmt{nested}
		return stmt, nil
	case lexer.Else:
		p.consume()
		elseBody, err := p.parseBlock(lexer.End)
		if err != nil {
			return nil, err
		}
		stmt.Else = elseBody
	}

	if _, err := p.expect(lexer.End, "expected 'end' to close 'if'"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseWhileStmt() (ast.Stmt, *ParseError) {
	p.consume() // while ->
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Do, "expected 'do' after while condition"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock(lexer.End)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.End, "expected 'end' to close 'while'"); err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Condition: cond, Body: body}, nil
}

func (p *Parser) parseFunctionDecl() (ast.Stmt, *ParseError) {
	p.consume() // function ->
	name, err := p.expect(lexer.Identifier, "expected function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.OpenParen, "expected '(' after function name"); err != nil {
		return nil, err
	}
	var params []string
	if p.peek().Type != lexer.CloseParen {
		for {
			param, err := p.expect(lexer.Identifier, "expected parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, param.Value)
			if p.peek().Type != lexer.Comma {
				break
			}
			p.consume()
		}
	}
	if _, err := p.expect(lexer.CloseParen, "expected ')' after parameters"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock(lexer.End)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.End, "expected 'end' to close function"); err != nil {
		return nil, err
	}
	return &ast.FunctionDecl{Name: name.Value, Params: params, Body: body}, nil
}

func (p *Parser) parseReturnStmt() (ast.Stmt, *ParseError) {
	p.consume() // return ->
	if p.atStmtBoundary() {
		return &ast.ReturnStmt{}, nil
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Value: value}, nil
}

func (p *Parser) atStmtBoundary() bool {
	switch p.peek().Type {
	case lexer.End, lexer.Else, lexer.Elseif, lexer.EOF, lexer.Semicolon:
		return true
	default:
		return false
	}
}

// parseAssignOrExprStmt disambiguates "target = value" from a bare
// expression statement (normally a call) once the leading expression has
// been parsed.
func (p *Parser) parseAssignOrExprStmt() (ast.Stmt, *ParseError) {
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().Type == lexer.Equals {
		switch expr.(type) {
		case *ast.Identifier, *ast.IndexExpr:
		default:
			return nil, newParseError(p.peek(), "invalid assignment target")
		}
		p.consume()
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.AssignStmt{Target: expr, Value: value}, nil
	}
	return &ast.ExprStmt{Value: expr}, nil
}

// ---- expressions, lowest to highest precedence ----

func (p *Parser) parseExpr() (ast.Expr, *ParseError) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expr, *ParseError) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == lexer.Or {
		p.consume()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		// "or" has no dedicated opcode; model it with the same shape a
		// short-circuiting compiler step lowers via conditional jumps.
		left = &ast.BinaryExpr{Left: left, Operator: ast.BinaryOp("or"), Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, *ParseError) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == lexer.And {
		p.consume()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Left: left, Operator: ast.BinaryOp("and"), Right: right}
	}
	return left, nil
}

var comparisonOps = map[string]ast.BinaryOp{
	"==": ast.OpEq,
	"~=": ast.OpNe,
	"<":  ast.OpLt,
	"<=": ast.OpLe,
	">":  ast.OpGt,
	">=": ast.OpGe,
}

func (p *Parser) parseComparison() (ast.Expr, *ParseError) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == lexer.ComparisonOperator {
		tok := p.consume()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Left: left, Operator: comparisonOps[tok.Value], Right: right}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expr, *ParseError) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == lexer.Plus || p.peek().Type == lexer.Minus {
		tok := p.consume()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		op := ast.OpAdd
		if tok.Type == lexer.Minus {
			op = ast.OpSub
		}
		left = &ast.BinaryExpr{Left: left, Operator: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, *ParseError) {
	if p.peek().Type == lexer.Not {
		p.consume()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Operand: operand}, nil
	}
	return p.parseCallOrIndex()
}

func (p *Parser) parseCallOrIndex() (ast.Expr, *ParseError) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.peek().Type {
		case lexer.Dot:
			p.consume()
			prop, err := p.expect(lexer.Identifier, "expected identifier after '.'")
			if err != nil {
				return nil, err
			}
			expr = &ast.IndexExpr{Object: expr, Key: &ast.StringLit{Value: prop.Value}}
		case lexer.OpenBracket:
			p.consume()
			key, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.CloseBracket, "expected ']' after index expression"); err != nil {
				return nil, err
			}
			expr = &ast.IndexExpr{Object: expr, Key: key}
		case lexer.OpenParen:
			p.consume()
			var args []ast.Expr
			if p.peek().Type != lexer.CloseParen {
				for {
					arg, err := p.parseExpr()
					if err != nil {
						return nil, err
					}
					args = append(args, arg)
					if p.peek().Type != lexer.Comma {
						break
					}
					p.consume()
				}
			}
			if _, err := p.expect(lexer.CloseParen, "expected ')' after arguments"); err != nil {
				return nil, err
			}
			expr = &ast.CallExpr{Callee: expr, Args: args}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, *ParseError) {
	tok := p.consume()
	switch tok.Type {
	case lexer.Number:
		val, convErr := strconv.ParseInt(tok.Value, 10, 64)
		if convErr != nil {
			return nil, newParseError(tok, "could not parse number: %s", tok.Value)
		}
		return &ast.NumberLit{Value: val}, nil
	case lexer.String:
		return &ast.StringLit{Value: tok.Value}, nil
	case lexer.True:
		return &ast.BoolLit{Value: true}, nil
	case lexer.False:
		return &ast.BoolLit{Value: false}, nil
	case lexer.Nil:
		return &ast.NilLit{}, nil
	case lexer.Identifier:
		return &ast.Identifier{Name: tok.Value}, nil
	case lexer.OpenParen:
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.CloseParen, "expected ')' after expression"); err != nil {
			return nil, err
		}
		return expr, nil
	case lexer.OpenBrace:
		return p.parseTableCtor()
	default:
		return nil, newParseError(tok, "unexpected token %q", tok.Value)
	}
}

func (p *Parser) parseTableCtor() (ast.Expr, *ParseError) {
	ctor := &ast.TableCtor{}
	for p.peek().Type != lexer.CloseBrace {
		var field ast.TableField
		if p.peek().Type == lexer.OpenBracket {
			p.consume()
			key, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.CloseBracket, "expected ']' after table key"); err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.Equals, "expected '=' after table key"); err != nil {
				return nil, err
			}
			field.Key = key
		} else if p.peek().Type == lexer.Identifier && p.peekAhead(1).Type == lexer.Equals {
			name := p.consume()
			p.consume() // =
			field.Key = &ast.StringLit{Value: name.Value}
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		field.Value = value
		ctor.Fields = append(ctor.Fields, field)

		if p.peek().Type != lexer.Comma {
			break
		}
		p.consume()
	}
	if _, err := p.expect(lexer.CloseBrace, "expected '}' to close table constructor"); err != nil {
		return nil, err
	}
	return ctor, nil
}
