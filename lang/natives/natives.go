// Package natives implements the small set of built-in functions the
// virtual machine exposes to Ember programs as ordinary callable values. It
// depends only on value, object and heap, never on the VM itself, so the
// library can be registered before a VM exists.
package natives

import (
	"fmt"
	"math"
	"time"

	"github.com/mna/emberlang/lang/heap"
	"github.com/mna/emberlang/lang/object"
	"github.com/mna/emberlang/lang/value"
)

// Register installs every native function as a global through define, wrapping
// each as an ObjNative allocated through h so it participates in GC
// bookkeeping like any other heap object.
func Register(h *heap.Heap, define func(name string, v value.Value)) {
	add := func(name string, fn object.NativeFn) {
		native := h.NewNative(name, fn)
		define(name, value.FromObject(native))
	}

	start := time.Now()
	add("clock", func(args []value.Value) (value.Value, error) {
		if len(args) != 0 {
			return value.NilValue, fmt.Errorf("Expected 0 arguments but got %d", len(args))
		}
		return value.Number(time.Since(start).Seconds()), nil
	})
	add("sqrt", sqrt)
	add("len", length)
	add("type", func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return value.NilValue, fmt.Errorf("Expected 1 arguments but got %d", len(args))
		}
		return value.FromObject(h.NewString(args[0].TypeName())), nil
	})
}

func sqrt(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.NilValue, fmt.Errorf("Expected 1 arguments but got %d", len(args))
	}
	if !args[0].IsNumber() {
		return value.NilValue, fmt.Errorf("Argument to 'sqrt' must be a number")
	}
	return value.Number(math.Sqrt(args[0].AsNumber())), nil
}

// length returns the number of bytes in a string argument.
func length(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.NilValue, fmt.Errorf("Expected 1 arguments but got %d", len(args))
	}
	str, ok := args[0].AsObject().(*object.ObjString)
	if !args[0].IsObject() || !ok {
		return value.NilValue, fmt.Errorf("Argument to 'len' must be a string")
	}
	return value.Number(float64(len(str.Chars))), nil
}
