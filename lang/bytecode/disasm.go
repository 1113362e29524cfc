package bytecode

import (
	"fmt"
	"io"

	"github.com/mna/emberlang/lang/value"
)

// Disassemble writes a human-readable dump of every instruction in c to w,
// labeled with name. It is not part of the CORE language semantics; it
// exists for debugging and for the disasm CLI sub-command.
func Disassemble(c *Chunk, name string, w io.Writer) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		offset = DisassembleInstruction(c, offset, w)
	}
}

// DisassembleInstruction writes a single instruction at offset to w and
// returns the offset of the next instruction.
func DisassembleInstruction(c *Chunk, offset int, w io.Writer) int {
	fmt.Fprintf(w, "%04d ", offset)
	line := c.GetLine(offset)
	if offset > 0 && line == c.GetLine(offset-1) {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", line)
	}

	op := OpCode(c.Code[offset])
	switch op {
	case OpConstant, OpGetGlobal, OpSetGlobal, OpDefineGlobal:
		return constantInstruction(op, c, offset, w)
	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue, OpCall:
		return byteInstruction(op, c, offset, w)
	case OpJump, OpJumpIfFalse:
		return jumpInstruction(op, c, offset, 1, w)
	case OpLoop:
		return jumpInstruction(op, c, offset, -1, w)
	case OpClosure:
		return closureInstruction(c, offset, w)
	default:
		fmt.Fprintf(w, "%s\n", op)
		return offset + 1
	}
}

func constantInstruction(op OpCode, c *Chunk, offset int, w io.Writer) int {
	idx := c.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", op, idx, c.Constants[idx].String())
	return offset + 2
}

func byteInstruction(op OpCode, c *Chunk, offset int, w io.Writer) int {
	slot := c.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d\n", op, slot)
	return offset + 2
}

func jumpInstruction(op OpCode, c *Chunk, offset, sign int, w io.Writer) int {
	jump := int(c.ReadUint16(offset + 1))
	target := offset + 3 + sign*jump
	fmt.Fprintf(w, "%-16s %4d -> %d\n", op, offset, target)
	return offset + 3
}

func closureInstruction(c *Chunk, offset int, w io.Writer) int {
	idx := c.Code[offset+1]
	fn := c.Constants[idx]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", OpClosure, idx, fn.String())
	offset += 2

	upvalueCount := upvalueCountOf(fn)
	for i := 0; i < upvalueCount; i++ {
		isLocal := c.Code[offset]
		index := c.Code[offset+1]
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(w, "%04d      |                     %s %d\n", offset, kind, index)
		offset += 2
	}
	return offset
}

// hasUpvalueCount lets the disassembler read a function's static upvalue
// count without importing lang/object, which would create an import cycle
// (object already depends on bytecode for the Chunk type).
type hasUpvalueCount interface {
	UpvalueCount() int
}

func upvalueCountOf(v value.Value) int {
	if !v.IsObject() {
		return 0
	}
	if fn, ok := v.AsObject().(hasUpvalueCount); ok {
		return fn.UpvalueCount()
	}
	return 0
}
