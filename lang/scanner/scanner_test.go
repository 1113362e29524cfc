package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/emberlang/lang/scanner"
	"github.com/mna/emberlang/lang/token"
)

func scanAll(t *testing.T, src string) ([]scanner.Token, []string) {
	t.Helper()
	var errs []string
	var sc scanner.Scanner
	sc.Init([]byte(src), func(line int, msg string) {
		errs = append(errs, msg)
	})
	var toks []scanner.Token
	for {
		tok := sc.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks, errs
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks, errs := scanAll(t, "(){},.-+;*/! != = == < <= > >=")
	require.Empty(t, errs)
	want := []token.Token{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.COMMA, token.DOT,
		token.MINUS, token.PLUS, token.SEMICOLON, token.STAR, token.SLASH,
		token.BANG, token.BANG_EQ, token.EQ, token.EQ_EQ,
		token.LT, token.LT_EQ, token.GT, token.GT_EQ, token.EOF,
	}
	require.Len(t, toks, len(want))
	for i, w := range want {
		assert.Equal(t, w, toks[i].Kind, "token %d", i)
	}
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	toks, errs := scanAll(t, "var x = fun_name")
	require.Empty(t, errs)
	require.Len(t, toks, 5)
	assert.Equal(t, token.VAR, toks[0].Kind)
	assert.Equal(t, token.IDENT, toks[1].Kind)
	assert.Equal(t, "x", toks[1].Lexeme)
	assert.Equal(t, token.EQ, toks[2].Kind)
	assert.Equal(t, token.IDENT, toks[3].Kind)
	assert.Equal(t, "fun_name", toks[3].Lexeme)
}

func TestScanNumbers(t *testing.T) {
	toks, errs := scanAll(t, "123 45.67 0")
	require.Empty(t, errs)
	require.Len(t, toks, 4)
	assert.Equal(t, 123.0, toks[0].Number)
	assert.Equal(t, 45.67, toks[1].Number)
	assert.Equal(t, 0.0, toks[2].Number)
}

func TestScanStrings(t *testing.T) {
	toks, errs := scanAll(t, `"hello, world"`)
	require.Empty(t, errs)
	require.Len(t, toks, 2)
	assert.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, "hello, world", toks[0].Lexeme)
}

func TestScanUnterminatedString(t *testing.T) {
	toks, errs := scanAll(t, `"oops`)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "unterminated string")
	assert.Equal(t, token.ILLEGAL, toks[0].Kind)
}

func TestScanLineComments(t *testing.T) {
	toks, errs := scanAll(t, "1 // a comment\n2")
	require.Empty(t, errs)
	require.Len(t, toks, 3)
	assert.Equal(t, 1.0, toks[0].Number)
	assert.Equal(t, 2.0, toks[1].Number)
	assert.Equal(t, 2, toks[1].Line)
}

func TestScanUnexpectedCharacter(t *testing.T) {
	_, errs := scanAll(t, "@")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "unexpected character")
}
