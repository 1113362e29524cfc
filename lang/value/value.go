// Package value defines the tagged Value union shared by the bytecode
// compiler and the virtual machine. It is a leaf package: it knows nothing
// about how heap objects are allocated, interned or collected.
package value

import "strconv"

// Kind discriminates the variant held by a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Object is implemented by every heap-allocated kind (string, function,
// closure, upvalue, native). Equality of obj-tagged Values is by identity:
// two Values wrapping the same Object are equal, and two Objects are only
// ever the same if they are the same allocation (interning is what makes
// equal-content strings the same allocation).
type Object interface {
	// ObjType returns the object's kind name, e.g. "string", "function".
	ObjType() string
	// String returns the representation used by the print statement.
	String() string
}

// Value is a cheap-to-copy tagged union over {nil, bool, number, Object}. It
// never owns the heap object it may reference; the heap's object list is the
// sole owner.
type Value struct {
	kind Kind
	num  float64
	obj  Object
}

// NilValue is the singular nil value.
var NilValue = Value{kind: KindNil}

// Bool returns a boolean Value.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBool, num: 1}
	}
	return Value{kind: KindBool}
}

// Number returns a numeric Value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// FromObject returns a Value wrapping a heap Object reference.
func FromObject(o Object) Value { return Value{kind: KindObject, obj: o} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNil() bool  { return v.kind == KindNil }
func (v Value) IsBool() bool { return v.kind == KindBool }
func (v Value) AsBool() bool { return v.num != 0 }

func (v Value) IsNumber() bool    { return v.kind == KindNumber }
func (v Value) AsNumber() float64 { return v.num }

func (v Value) IsObject() bool   { return v.kind == KindObject }
func (v Value) AsObject() Object { return v.obj }

// IsFalsey reports whether v is falsey: only nil and false are falsey,
// everything else (including 0 and "") is truthy.
func (v Value) IsFalsey() bool {
	return v.kind == KindNil || (v.kind == KindBool && v.num == 0)
}

// Equal implements same-tag value/identity equality as required by the
// language: nil=nil, bool/number by value, object by identity.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool, KindNumber:
		return a.num == b.num
	case KindObject:
		return a.obj == b.obj
	default:
		return false
	}
}

// String renders v the way the print statement and the REPL do.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindObject:
		return v.obj.String()
	default:
		return "<invalid value>"
	}
}

// TypeName returns the Ember-visible type name of v, used by the type()
// native and in diagnostics.
func (v Value) TypeName() string {
	if v.kind == KindObject {
		return v.obj.ObjType()
	}
	return v.kind.String()
}
