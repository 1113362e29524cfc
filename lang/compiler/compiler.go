// Package compiler implements the single-pass Pratt parser that scans Ember
// source and emits bytecode directly into a Chunk, with no intermediate
// abstract syntax tree. It resolves every identifier to a local stack slot,
// a closure upvalue, or a global binding as it parses, and synchronizes on
// statement boundaries after a syntax error using the same panic/recover
// idiom the rest of this codebase uses for its own parser.
package compiler

import (
	"fmt"
	goscanner "go/scanner"
	gotoken "go/token"

	"github.com/mna/emberlang/lang/bytecode"
	"github.com/mna/emberlang/lang/heap"
	"github.com/mna/emberlang/lang/object"
	"github.com/mna/emberlang/lang/scanner"
	"github.com/mna/emberlang/lang/token"
	"github.com/mna/emberlang/lang/value"
)

// errPanicMode is the sentinel recovered at a statement boundary by
// declaration, the single entry point for panic-mode synchronization.
var errPanicMode = fmt.Errorf("compiler: panic mode")

// local tracks one in-scope local variable slot in the function currently
// being compiled.
type local struct {
	name       string
	depth      int // -1 means "declared but not yet initialized"
	isCaptured bool
}

// upvalueRef records how a nested function reaches a free variable: either
// directly from the enclosing function's locals (isLocal true, index is a
// local slot) or through the enclosing function's own upvalue vector
// (isLocal false, index is an upvalue slot).
type upvalueRef struct {
	index   byte
	isLocal bool
}

type funcKind int

const (
	kindScript funcKind = iota
	kindFunction
)

// loopState tracks the information needed to loop back to the condition
// check and to patch every break statement's forward jump once the loop
// body is fully compiled.
type loopState struct {
	start      int
	breakJumps []int
}

// state is one frame of the transient compiler chain, one per nested
// function currently being compiled, linked to its enclosing frame. The
// chain exists only for the duration of compilation; it is not part of the
// runtime representation.
type state struct {
	enclosing *state

	function *object.ObjFunction
	kind     funcKind

	locals     []local
	scopeDepth int
	upvalues   []upvalueRef
	loops      []*loopState
}

func newState(enclosing *state, kind funcKind, fn *object.ObjFunction) *state {
	s := &state{enclosing: enclosing, kind: kind, function: fn}
	// Slot 0 is reserved for the running closure itself, named "" so user code
	// can never refer to it.
	s.locals = append(s.locals, local{name: "", depth: 0})
	return s
}

// Compiler holds all transient state for one compilation. It is not
// reentrant and is discarded once Compile returns.
type Compiler struct {
	heap *heap.Heap
	scn  scanner.Scanner

	previous scanner.Token
	current  scanner.Token

	hadError  bool
	panicMode bool
	errs      goscanner.ErrorList

	cur *state
}

// Compile compiles source into a top-level ObjFunction of kind "script". On
// any compile-time error it still parses as much of the program as it can,
// reporting one diagnostic per error; the returned error is a
// go/scanner.ErrorList, printable one diagnostic per line with
// go/scanner.PrintError.
func Compile(source []byte, h *heap.Heap) (*object.ObjFunction, error) {
	c := &Compiler{heap: h}
	c.scn.Init(source, c.lexError)
	c.cur = newState(nil, kindScript, h.NewFunction())

	h.CompilerRoots = c.gcRoots
	defer func() { h.CompilerRoots = nil }()

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	c.consume(token.EOF, "Expect end of expression")

	fn := c.endCompiler()
	if c.hadError {
		return nil, c.errs.Err()
	}
	return fn, nil
}

// gcRoots exposes every ObjFunction currently under construction in the
// compiler chain, so a collection triggered mid-compilation cannot free a
// function before it is stitched into its parent's constant pool.
func (c *Compiler) gcRoots() []value.Value {
	var roots []value.Value
	for s := c.cur; s != nil; s = s.enclosing {
		roots = append(roots, value.FromObject(s.function))
	}
	return roots
}

func (c *Compiler) lexError(line int, msg string) {
	c.errs.Add(gotoken.Position{}, fmt.Sprintf("[line %d] Error: %s", line, msg))
	c.hadError = true
}

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scn.Scan()
		if c.current.Kind != token.ILLEGAL {
			break
		}
		// the scanner already reported this via lexError; keep pulling tokens
		// so the parser can still make forward progress.
	}
}

func (c *Compiler) check(t token.Token) bool { return c.current.Kind == t }

func (c *Compiler) match(t token.Token) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t token.Token, msg string) {
	if c.current.Kind == t {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.previous, msg) }

func (c *Compiler) errorAt(tok scanner.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	var where string
	switch tok.Kind {
	case token.EOF:
		where = " at end"
	case token.ILLEGAL:
		where = ""
	default:
		where = fmt.Sprintf(" at '%s'", tok.Lexeme)
	}
	c.errs.Add(gotoken.Position{}, fmt.Sprintf("[line %d] Error%s: %s", tok.Line, where, msg))
	panic(errPanicMode)
}

func (c *Compiler) currentChunk() *bytecode.Chunk { return &c.cur.function.Chunk }

func (c *Compiler) emitByte(b byte) { c.currentChunk().Write(b, c.previous.Line) }

func (c *Compiler) emitOp(op bytecode.OpCode) { c.emitByte(byte(op)) }

func (c *Compiler) emitOpByte(op bytecode.OpCode, b byte) {
	c.emitOp(op)
	c.emitByte(b)
}

func (c *Compiler) emitReturn() {
	c.emitOp(bytecode.OpNil)
	c.emitOp(bytecode.OpReturn)
}

func (c *Compiler) emitConstant(v value.Value) {
	c.emitOpByte(bytecode.OpConstant, c.makeConstant(v))
}

func (c *Compiler) makeConstant(v value.Value) byte {
	idx := c.currentChunk().AddConstant(v)
	if idx > 255 {
		c.error("Too many constants")
		return 0
	}
	return byte(idx)
}

// emitJump writes op followed by a two-byte placeholder operand and returns
// the placeholder's offset, to be filled in later by patchJump.
func (c *Compiler) emitJump(op bytecode.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.currentChunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.currentChunk().Code) - (offset + 2)
	if jump > 0xffff {
		c.error("Too much code to jump over")
		return
	}
	c.currentChunk().PatchUint16(offset, uint16(jump))
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(bytecode.OpLoop)
	offset := len(c.currentChunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.error("Loop body too large.")
		return
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

func (c *Compiler) endCompiler() *object.ObjFunction {
	c.emitReturn()
	fn := c.cur.function
	fn.NUpvalues = len(c.cur.upvalues)
	c.cur = c.cur.enclosing
	return fn
}

func (c *Compiler) beginScope() { c.cur.scopeDepth++ }

func (c *Compiler) endScope() {
	c.cur.scopeDepth--
	for len(c.cur.locals) > 0 && c.cur.locals[len(c.cur.locals)-1].depth > c.cur.scopeDepth {
		last := c.cur.locals[len(c.cur.locals)-1]
		if last.isCaptured {
			c.emitOp(bytecode.OpCloseUpvalue)
		} else {
			c.emitOp(bytecode.OpPop)
		}
		c.cur.locals = c.cur.locals[:len(c.cur.locals)-1]
	}
}
