// Package object defines the concrete heap object kinds: interned strings,
// compiled functions, closures, upvalues and native functions. Each kind
// embeds Header, which the heap package uses to link it into the global
// object list and to carry the GC mark bit.
package object

import (
	"fmt"

	"github.com/mna/emberlang/lang/bytecode"
	"github.com/mna/emberlang/lang/value"
)

// Header is embedded by every heap object kind. It is the Obj the CORE
// specification describes: a mark bit plus the link to the next object in
// the heap's owning list.
type Header struct {
	marked bool
	next   value.Object
}

func (h *Header) Marked() bool          { return h.marked }
func (h *Header) SetMarked(marked bool) { h.marked = marked }
func (h *Header) Next() value.Object    { return h.next }
func (h *Header) SetNext(o value.Object) { h.next = o }

// ObjString is an interned, immutable string. Two ObjStrings with equal
// content are always the same allocation (see the heap's intern table).
type ObjString struct {
	Header
	Hash  uint32
	Chars string
}

var _ value.Object = (*ObjString)(nil)

func NewString(chars string, hash uint32) *ObjString {
	return &ObjString{Chars: chars, Hash: hash}
}

func (s *ObjString) ObjType() string { return "string" }
func (s *ObjString) String() string  { return s.Chars }

// ObjFunction is a compiled function: its arity, its chunk, an optional name
// (nil for the top-level script), and the static count of upvalues its
// closures must allocate.
type ObjFunction struct {
	Header
	Arity     int
	NUpvalues int
	Chunk     bytecode.Chunk
	Name      *ObjString
}

var _ value.Object = (*ObjFunction)(nil)

func NewFunction() *ObjFunction { return &ObjFunction{} }

func (f *ObjFunction) ObjType() string { return "function" }
func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// UpvalueCount satisfies bytecode's hasUpvalueCount so the disassembler can
// read the upvalue descriptor list following an OP_CLOSURE without
// importing this package.
func (f *ObjFunction) UpvalueCount() int { return f.NUpvalues }

// ObjUpvalue is the runtime representation of a captured variable: open
// while its stack slot is still live, closed afterwards.
type ObjUpvalue struct {
	Header
	Slot     int // stack slot, meaningful only while open; used for list ordering
	Location *value.Value
	Closed   value.Value
}

var _ value.Object = (*ObjUpvalue)(nil)

func NewUpvalue(slot int, loc *value.Value) *ObjUpvalue {
	return &ObjUpvalue{Slot: slot, Location: loc}
}

func (u *ObjUpvalue) ObjType() string { return "upvalue" }
func (u *ObjUpvalue) String() string  { return "upvalue" }
func (u *ObjUpvalue) IsOpen() bool    { return u.Location != nil }

// Get returns the upvalue's current value, whether open or closed.
func (u *ObjUpvalue) Get() value.Value {
	if u.Location != nil {
		return *u.Location
	}
	return u.Closed
}

// Set writes through to the upvalue's current location, whether open or
// closed.
func (u *ObjUpvalue) Set(v value.Value) {
	if u.Location != nil {
		*u.Location = v
		return
	}
	u.Closed = v
}

// Close copies the open slot's current value into Closed and severs the
// Location pointer, making the upvalue self-owning.
func (u *ObjUpvalue) Close() {
	u.Closed = *u.Location
	u.Location = nil
}

// ObjClosure binds one ObjFunction to a fixed vector of upvalue references.
// All calls go through a closure; a bare function is wrapped in a
// zero-upvalue closure at load time.
type ObjClosure struct {
	Header
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

var _ value.Object = (*ObjClosure)(nil)

func NewClosure(fn *ObjFunction) *ObjClosure {
	return &ObjClosure{Function: fn, Upvalues: make([]*ObjUpvalue, fn.NUpvalues)}
}

func (c *ObjClosure) ObjType() string { return "closure" }
func (c *ObjClosure) String() string  { return c.Function.String() }

// NativeFn is the native function ABI: it receives the argument values and
// returns either a result or an error to be surfaced as a runtime error.
type NativeFn func(args []value.Value) (value.Value, error)

// ObjNative wraps a host function exposed to Ember programs as an ordinary
// callable value.
type ObjNative struct {
	Header
	Name string
	Fn   NativeFn
}

var _ value.Object = (*ObjNative)(nil)

func NewNative(name string, fn NativeFn) *ObjNative {
	return &ObjNative{Name: name, Fn: fn}
}

func (n *ObjNative) ObjType() string { return "native" }
func (n *ObjNative) String() string  { return fmt.Sprintf("<native fn %s>", n.Name) }
