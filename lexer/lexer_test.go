package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luacore/lexer"
)

func types(tokens []lexer.Token) []lexer.TokenType {
	out := make([]lexer.TokenType, len(tokens))
	for i, t := range tokens {
		out[i] = t.Type
	}
	return out
}

func TestTokenizeLocalDecl(t *testing.T) {
	tokens := lexer.Tokenize(`local x = 10`)
	require.Len(t, tokens, 5)
	assert.Equal(t, []lexer.TokenType{
		lexer.Local, lexer.Identifier, lexer.Equals, lexer.Number, lexer.EOF,
	}, types(tokens))
	assert.Equal(t, "10", tokens[3].Value)
}

func TestTokenizeComparisonOperators(t *testing.T) {
	tokens := lexer.Tokenize(`a ~= b and a <= c`)
	assert.Equal(t, []lexer.TokenType{
		lexer.Identifier, lexer.ComparisonOperator, lexer.Identifier, lexer.And,
		lexer.Identifier, lexer.ComparisonOperator, lexer.Identifier, lexer.EOF,
	}, types(tokens))
}

func TestTokenizeStringLiteral(t *testing.T) {
	tokens := lexer.Tokenize(`"hello world"`)
	require.Len(t, tokens, 2)
	assert.Equal(t, lexer.String, tokens[0].Type)
	assert.Equal(t, "hello world", tokens[0].Value)
}

func TestTokenizeSkipsLineComments(t *testing.T) {
	tokens := lexer.Tokenize("local x = 1 -- trailing comment\nlocal y = 2")
	assert.Equal(t, []lexer.TokenType{
		lexer.Local, lexer.Identifier, lexer.Equals, lexer.Number,
		lexer.Local, lexer.Identifier, lexer.Equals, lexer.Number,
		lexer.EOF,
	}, types(tokens))
}

func TestTokenizeFunctionKeywords(t *testing.T) {
	tokens := lexer.Tokenize(`function f() return nil end`)
	assert.Equal(t, []lexer.TokenType{
		lexer.Function, lexer.Identifier, lexer.OpenParen, lexer.CloseParen,
		lexer.Return, lexer.Nil, lexer.End, lexer.EOF,
	}, types(tokens))
}

func TestTokenTypeString(t *testing.T) {
	assert.Equal(t, "Local", lexer.Local.String())
	assert.Equal(t, "EOF", lexer.EOF.String())
}
