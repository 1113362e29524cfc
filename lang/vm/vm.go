// Package vm implements the stack-based bytecode interpreter: the value
// stack, the call-frame stack, the globals table, and the fetch-decode-
// execute loop that drives a compiled ObjFunction to completion.
package vm

import (
	"fmt"
	goscanner "go/scanner"
	"io"

	"github.com/dolthub/swiss"

	"github.com/mna/emberlang/lang/compiler"
	"github.com/mna/emberlang/lang/heap"
	"github.com/mna/emberlang/lang/natives"
	"github.com/mna/emberlang/lang/object"
	"github.com/mna/emberlang/lang/value"
)

// Result reports the outcome of one Interpret call, mirroring the CORE
// specification's tri-state InterpretResult.
type Result int

const (
	OK Result = iota
	CompileError
	RuntimeError
)

// stackSlotsPerFrame bounds how many stack slots a single call frame can
// use (locals plus expression temporaries), mirroring clox's UINT8_COUNT
// and matching the compiler's own 256-local limit.
const stackSlotsPerFrame = 256

// VM is a single-threaded bytecode interpreter. It is not safe for
// concurrent use: native functions run synchronously on the same goroutine
// and must never call back into Interpret.
type VM struct {
	cfg  Config
	heap *heap.Heap

	// stack is allocated once, up front, at its full capacity
	// (cfg.MaxFrames*stackSlotsPerFrame) and never grown past it: an open
	// ObjUpvalue's Location is a raw *value.Value into this array, and a
	// reallocating append would silently strand that pointer in an
	// abandoned backing array. Sizing it like clox's fixed STACK_MAX keeps
	// every push within capacity without ever triggering a reallocation.
	stack  []value.Value
	frames []callFrame

	globals *swiss.Map[*object.ObjString, value.Value]

	Stdout io.Writer
	Stderr io.Writer
}

// New creates a VM configured by cfg, with the standard library natives
// already registered as globals.
func New(cfg Config, stdout, stderr io.Writer) *VM {
	v := &VM{
		cfg:     cfg,
		stack:   make([]value.Value, 0, cfg.MaxFrames*stackSlotsPerFrame),
		globals: swiss.NewMap[*object.ObjString, value.Value](32),
		Stdout:  stdout,
		Stderr:  stderr,
	}
	v.heap = heap.New(heap.Options{
		Stress:           cfg.StressGC,
		GrowthFactor:     cfg.GCGrowthFactor,
		InitialThreshold: cfg.InitialGCThreshold,
	})
	v.heap.VMRoots = v.gcRoots
	natives.Register(v.heap, func(name string, val value.Value) {
		v.globals.Put(v.heap.NewString(name), val)
	})
	return v
}

// gcRoots exposes every Value the running VM can reach directly: the whole
// value stack, every active frame's closure, and every global binding.
func (v *VM) gcRoots() []value.Value {
	roots := make([]value.Value, 0, len(v.stack)+len(v.frames))
	roots = append(roots, v.stack...)
	for _, f := range v.frames {
		roots = append(roots, value.FromObject(f.closure))
	}
	v.globals.Iter(func(k *object.ObjString, val value.Value) (stop bool) {
		roots = append(roots, value.FromObject(k), val)
		return false
	})
	return roots
}

// Interpret compiles source and, if compilation succeeds, runs it to
// completion on a fresh stack.
func (v *VM) Interpret(source []byte) Result {
	fn, err := compiler.Compile(source, v.heap)
	if err != nil {
		printCompileErrors(v.Stderr, err)
		return CompileError
	}

	v.stack = v.stack[:0]
	v.frames = v.frames[:0]

	closure := v.heap.NewClosure(fn)
	v.push(value.FromObject(closure))
	v.frames = append(v.frames, callFrame{closure: closure, slotBase: 0})

	if err := v.run(); err != nil {
		v.printRuntimeError(err)
		v.stack = v.stack[:0]
		v.frames = v.frames[:0]
		return RuntimeError
	}
	return OK
}

func printCompileErrors(w io.Writer, err error) {
	goscanner.PrintError(w, err)
}

func (v *VM) push(val value.Value) { v.stack = append(v.stack, val) }

func (v *VM) pop() value.Value {
	last := len(v.stack) - 1
	val := v.stack[last]
	v.stack = v.stack[:last]
	return val
}

func (v *VM) peek(distance int) value.Value {
	return v.stack[len(v.stack)-1-distance]
}

// runtimeError is returned up through run to Interpret, which prints it
// with a full stack trace before resetting the VM's stacks.
type runtimeError struct {
	msg    string
	frames []callFrame
}

func (e *runtimeError) Error() string { return e.msg }

func (v *VM) runtimeErrorf(format string, args ...any) *runtimeError {
	frames := make([]callFrame, len(v.frames))
	copy(frames, v.frames)
	return &runtimeError{msg: fmt.Sprintf(format, args...), frames: frames}
}

func (v *VM) printRuntimeError(err error) {
	re, ok := err.(*runtimeError)
	if !ok {
		fmt.Fprintln(v.Stderr, err)
		return
	}
	fmt.Fprintln(v.Stderr, re.msg)
	for i := len(re.frames) - 1; i >= 0; i-- {
		f := re.frames[i]
		fn := f.closure.Function
		line := fn.Chunk.GetLine(f.ip - 1)
		name := "script"
		if fn.Name != nil {
			name = fn.Name.Chars + "()"
		}
		fmt.Fprintf(v.Stderr, "[line %d] in %s\n", line, name)
	}
}
