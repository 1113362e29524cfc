package maincmd

import (
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/emberlang/lang/scanner"
	"github.com/mna/emberlang/lang/token"
)

// Tokenize prints the token stream the scanner produces for path, one token
// per line, without invoking the compiler at all.
func Tokenize(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
		return err
	}

	var sc scanner.Scanner
	sc.Init(src, func(line int, msg string) {
		fmt.Fprintf(stdio.Stderr, "[line %d] Error: %s\n", line, msg)
	})
	for {
		tok := sc.Scan()
		fmt.Fprintf(stdio.Stdout, "%4d %-16s %q\n", tok.Line, tok.Kind, tok.Lexeme)
		if tok.Kind == token.EOF {
			break
		}
	}
	return nil
}
