package maincmd

import (
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/emberlang/lang/bytecode"
	"github.com/mna/emberlang/lang/compiler"
	"github.com/mna/emberlang/lang/heap"
	"github.com/mna/emberlang/lang/object"
)

// Disasm compiles path and prints the disassembled bytecode of its
// top-level chunk and every nested function's chunk to stdout.
func Disasm(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
		return err
	}

	h := heap.New(heap.Options{})
	fn, cerr := compiler.Compile(src, h)
	if cerr != nil {
		fmt.Fprintln(stdio.Stderr, cerr)
		return cerr
	}

	disasmFunction(stdio, fn, "<script>")
	return nil
}

// disasmFunction prints fn's own chunk, then recurses into every nested
// function reachable through its constant pool.
func disasmFunction(stdio mainer.Stdio, fn *object.ObjFunction, name string) {
	bytecode.Disassemble(&fn.Chunk, name, stdio.Stdout)
	for _, c := range fn.Chunk.Constants {
		if !c.IsObject() {
			continue
		}
		if nested, ok := c.AsObject().(*object.ObjFunction); ok {
			disasmFunction(stdio, nested, nested.String())
		}
	}
}
