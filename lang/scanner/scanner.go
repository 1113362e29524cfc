// Some of the scanner package is adapted from the Go source code:
// https://cs.opensource.google/go/go/+/refs/tags/go1.22.1:src/go/scanner/scanner.go
//
// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scanner implements the lexical scanner that turns Ember source
// bytes into a stream of tokens for the compiler.
package scanner

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/mna/emberlang/lang/token"
)

// Token combines a lexical kind with its lexeme, source line and, for
// literals, the decoded value.
type Token struct {
	Kind   token.Token
	Lexeme string
	Line   int

	Number float64
}

// Scanner tokenizes Ember source for the compiler to consume, one token at a
// time, on demand.
type Scanner struct {
	src []byte
	err func(line int, msg string)

	start int  // byte offset of the token currently being scanned
	off   int  // byte offset of cur
	roff  int  // byte offset following cur
	cur   rune // current character, -1 at EOF
	line  int
}

// Init (re)initializes the scanner to tokenize src, reporting lex errors
// through errHandler.
func (s *Scanner) Init(src []byte, errHandler func(line int, msg string)) {
	s.src = src
	s.err = errHandler
	s.start = 0
	s.off = 0
	s.roff = 0
	s.line = 1
	s.cur = ' '
	s.advance()
}

func (s *Scanner) peek() byte {
	if s.roff < len(s.src) {
		return s.src[s.roff]
	}
	return 0
}

func (s *Scanner) advance() {
	if s.roff >= len(s.src) {
		s.off = len(s.src)
		s.cur = -1
		return
	}

	s.off = s.roff
	r, w := rune(s.src[s.roff]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRune(s.src[s.roff:])
		if r == utf8.RuneError && w == 1 {
			s.error(s.line, "illegal UTF-8 encoding")
		}
	}
	s.roff += w
	if r == '\n' {
		s.line++
	}
	s.cur = r
}

func (s *Scanner) advanceIf(b byte) bool {
	if s.cur == rune(b) {
		s.advance()
		return true
	}
	return false
}

func (s *Scanner) error(line int, msg string) {
	if s.err != nil {
		s.err(line, msg)
	}
}

func (s *Scanner) errorf(line int, format string, args ...any) {
	s.error(line, fmt.Sprintf(format, args...))
}

// Scan returns the next token in the source.
func (s *Scanner) Scan() Token {
	s.skipWhitespaceAndComments()

	s.start = s.off
	line := s.line

	switch cur := s.cur; {
	case isLetter(cur):
		lit := s.ident()
		return Token{Kind: token.Lookup(lit), Lexeme: lit, Line: line}

	case isDigit(cur):
		return s.number(line)

	default:
		s.advance() // always make progress
		switch cur {
		case '(':
			return Token{Kind: token.LPAREN, Lexeme: "(", Line: line}
		case ')':
			return Token{Kind: token.RPAREN, Lexeme: ")", Line: line}
		case '{':
			return Token{Kind: token.LBRACE, Lexeme: "{", Line: line}
		case '}':
			return Token{Kind: token.RBRACE, Lexeme: "}", Line: line}
		case ',':
			return Token{Kind: token.COMMA, Lexeme: ",", Line: line}
		case '.':
			return Token{Kind: token.DOT, Lexeme: ".", Line: line}
		case '-':
			return Token{Kind: token.MINUS, Lexeme: "-", Line: line}
		case '+':
			return Token{Kind: token.PLUS, Lexeme: "+", Line: line}
		case ';':
			return Token{Kind: token.SEMICOLON, Lexeme: ";", Line: line}
		case '*':
			return Token{Kind: token.STAR, Lexeme: "*", Line: line}
		case '/':
			return Token{Kind: token.SLASH, Lexeme: "/", Line: line}
		case '!':
			if s.advanceIf('=') {
				return Token{Kind: token.BANG_EQ, Lexeme: "!=", Line: line}
			}
			return Token{Kind: token.BANG, Lexeme: "!", Line: line}
		case '=':
			if s.advanceIf('=') {
				return Token{Kind: token.EQ_EQ, Lexeme: "==", Line: line}
			}
			return Token{Kind: token.EQ, Lexeme: "=", Line: line}
		case '<':
			if s.advanceIf('=') {
				return Token{Kind: token.LT_EQ, Lexeme: "<=", Line: line}
			}
			return Token{Kind: token.LT, Lexeme: "<", Line: line}
		case '>':
			if s.advanceIf('=') {
				return Token{Kind: token.GT_EQ, Lexeme: ">=", Line: line}
			}
			return Token{Kind: token.GT, Lexeme: ">", Line: line}
		case '"':
			return s.string(line)
		case -1:
			return Token{Kind: token.EOF, Lexeme: "", Line: line}
		default:
			s.errorf(line, "unexpected character %#U", cur)
			return Token{Kind: token.ILLEGAL, Lexeme: string(cur), Line: line}
		}
	}
}

func (s *Scanner) ident() string {
	start := s.off
	for isLetter(s.cur) || isDigit(s.cur) {
		s.advance()
	}
	return string(s.src[start:s.off])
}

func (s *Scanner) number(line int) Token {
	start := s.off
	for isDigit(s.cur) {
		s.advance()
	}
	if s.cur == '.' && isDigit(rune(s.peek())) {
		s.advance() // consume '.'
		for isDigit(s.cur) {
			s.advance()
		}
	}
	lit := string(s.src[start:s.off])
	n, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		s.errorf(line, "invalid number literal %q", lit)
	}
	return Token{Kind: token.NUMBER, Lexeme: lit, Line: line, Number: n}
}

func (s *Scanner) string(startLine int) Token {
	start := s.off // offset just past opening quote
	for s.cur != '"' && s.cur != -1 {
		s.advance()
	}
	if s.cur == -1 {
		s.error(startLine, "unterminated string")
		return Token{Kind: token.ILLEGAL, Lexeme: string(s.src[start:s.off]), Line: startLine}
	}
	lit := string(s.src[start:s.off])
	s.advance() // closing quote
	return Token{Kind: token.STRING, Lexeme: lit, Line: startLine}
}

func (s *Scanner) skipWhitespaceAndComments() {
	for {
		switch s.cur {
		case ' ', '\t', '\r', '\n':
			s.advance()
		case '/':
			if s.peek() != '/' {
				return
			}
			for s.cur != '\n' && s.cur != -1 {
				s.advance()
			}
		default:
			return
		}
	}
}

func isLetter(r rune) bool {
	return r == '_' || r >= utf8.RuneSelf && unicode.IsLetter(r) ||
		'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z'
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}
