package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mna/emberlang/lang/token"
)

func TestLookup(t *testing.T) {
	cases := []struct {
		ident string
		want  token.Token
	}{
		{"and", token.AND},
		{"break", token.BREAK},
		{"fun", token.FUN},
		{"while", token.WHILE},
		{"x", token.IDENT},
		{"Fun", token.IDENT},
		{"", token.IDENT},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, token.Lookup(c.ident), c.ident)
	}
}

func TestIsSyncKeyword(t *testing.T) {
	for _, tok := range []token.Token{token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN} {
		assert.True(t, token.IsSyncKeyword(tok), tok.String())
	}
	for _, tok := range []token.Token{token.AND, token.OR, token.ELSE, token.TRUE, token.IDENT, token.EOF} {
		assert.False(t, token.IsSyncKeyword(tok), tok.String())
	}
}

func TestTokenString(t *testing.T) {
	assert.Equal(t, "(", token.LPAREN.String())
	assert.Equal(t, "and", token.AND.String())
}
