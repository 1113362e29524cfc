package bytecode_test

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/emberlang/internal/filetest"
	"github.com/mna/emberlang/lang/bytecode"
	"github.com/mna/emberlang/lang/object"
	"github.com/mna/emberlang/lang/value"
)

var update = flag.Bool("test.update-disasm-tests", false, "update the disasm golden file")

// TestDisassembleGolden builds a small chunk exercising every instruction
// shape the disassembler knows about and compares the dump against a golden
// file, in the same style as the rest of this codebase's file-driven tests.
func TestDisassembleGolden(t *testing.T) {
	var c bytecode.Chunk

	idx := c.AddConstant(value.Number(1))
	c.Write(byte(bytecode.OpConstant), 1)
	c.Write(byte(idx), 1)

	c.Write(byte(bytecode.OpGetLocal), 1)
	c.Write(0, 1)

	c.Write(byte(bytecode.OpJumpIfFalse), 2)
	c.WriteUint16(3, 2)
	c.Write(byte(bytecode.OpPop), 2)

	fn := object.NewFunction()
	fn.NUpvalues = 1
	fnIdx := c.AddConstant(value.FromObject(fn))
	c.Write(byte(bytecode.OpClosure), 3)
	c.Write(byte(fnIdx), 3)
	c.Write(1, 3) // isLocal
	c.Write(0, 3) // index

	c.Write(byte(bytecode.OpReturn), 4)

	var buf bytes.Buffer
	bytecode.Disassemble(&c, "test chunk", &buf)

	fi, err := os.Stat(filepath.Join("testdata", "chunk.golden"))
	if err != nil {
		t.Fatal(err)
	}
	filetest.DiffCustom(t, fi, "disasm", "", buf.String(), "testdata", update)
}
