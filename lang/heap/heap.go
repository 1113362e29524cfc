// Package heap owns every live object: allocation bookkeeping, the string
// intern table, the heap object linked list, and the tri-color mark-sweep
// collector. The VM and the compiler are the heap's only clients; neither
// the compiler nor the VM package is imported here (to avoid an import
// cycle), so GC roots living in those layers are supplied through the
// VMRoots and CompilerRoots callback fields instead.
package heap

import (
	"fmt"

	"github.com/mna/emberlang/lang/object"
	"github.com/mna/emberlang/lang/value"

	"golang.org/x/exp/slices"
)

// gcObject is satisfied by every *object.Obj* kind through its embedded
// object.Header.
type gcObject interface {
	value.Object
	Marked() bool
	SetMarked(bool)
	Next() value.Object
	SetNext(value.Object)
}

// Options configures GC tuning knobs, normally populated from vm.Config
// (itself loaded from the environment via caarlos0/env).
type Options struct {
	Stress           bool
	GrowthFactor     int
	InitialThreshold int
}

// Heap allocates and owns every heap object. It does not itself know what
// counts as a GC root: the VM and the currently-compiling chain of
// compilers register themselves via VMRoots / CompilerRoots.
type Heap struct {
	objects value.Object // head of the intrusive linked list
	strings *internTable

	bytesAllocated int
	nextGC         int
	growthFactor   int
	stress         bool

	gray []value.Object

	// VMRoots returns every Value reachable directly from the running VM:
	// the value stack, every active frame's closure, and every key/value in
	// the globals table. Set once by vm.New.
	VMRoots func() []value.Value

	// CompilerRoots returns every Value referenced by the currently
	// compiling chain of compilers (their in-progress ObjFunctions). Set
	// once by compiler.Compile for the duration of compilation, cleared
	// afterwards.
	CompilerRoots func() []value.Value

	openUpvalues []*object.ObjUpvalue // sorted strictly decreasing by Slot

	LastGCFreed int
	LastGCKept  int
}

const defaultInitialThreshold = 1 << 20 // 1 MiB

// New creates a Heap ready to track allocations.
func New(opts Options) *Heap {
	h := &Heap{
		strings:      newInternTable(),
		growthFactor: opts.GrowthFactor,
		stress:       opts.Stress,
		nextGC:       opts.InitialThreshold,
	}
	if h.growthFactor <= 0 {
		h.growthFactor = 2
	}
	if h.nextGC <= 0 {
		h.nextGC = defaultInitialThreshold
	}
	return h
}

// track links obj into the heap's object list and accounts for size bytes
// of new allocation, possibly triggering a collection before returning.
// Every allocation helper in this package funnels through here, matching
// the specification's single reallocate chokepoint.
func (h *Heap) track(obj gcObject, size int) {
	obj.SetNext(h.objects)
	h.objects = obj
	h.bytesAllocated += size

	if h.stress || h.bytesAllocated > h.nextGC {
		// obj is not reachable from any root yet (its constructor hasn't
		// returned), so without this it would be swept out from under its own
		// allocation call.
		obj.SetMarked(true)
		h.Collect()
	}
}

// NewString interns s, returning the existing ObjString if an equal one is
// already known, or allocating and registering a new one otherwise. This is
// the sole path by which ObjStrings come into existence, which is what
// makes the "equal content implies same object" invariant hold.
func (h *Heap) NewString(s string) *object.ObjString {
	hash := hashFNV1a(s)
	if existing := h.strings.find(s, hash); existing != nil {
		return existing
	}
	str := object.NewString(s, hash)
	h.track(str, len(s))
	h.strings.set(str)
	return str
}

// NewFunction allocates a fresh, empty ObjFunction for the compiler to
// populate.
func (h *Heap) NewFunction() *object.ObjFunction {
	fn := object.NewFunction()
	h.track(fn, 64)
	return fn
}

// NewClosure allocates an ObjClosure wrapping fn.
func (h *Heap) NewClosure(fn *object.ObjFunction) *object.ObjClosure {
	c := object.NewClosure(fn)
	h.track(c, 16+8*len(c.Upvalues))
	return c
}

// NewNative allocates an ObjNative wrapping a host function.
func (h *Heap) NewNative(name string, fn object.NativeFn) *object.ObjNative {
	n := object.NewNative(name, fn)
	h.track(n, 32)
	return n
}

// CaptureUpvalue returns the open upvalue for slot, reusing an existing one
// if the VM already captured that stack position, or creating and
// inserting a new one (keeping the open-upvalue list strictly decreasing in
// slot) otherwise.
func (h *Heap) CaptureUpvalue(stack []value.Value, slot int) *object.ObjUpvalue {
	// the list is sorted strictly decreasing by Slot, so the search for an
	// existing capture and the insertion point for a new one are the same
	// walk: stop at the first entry whose Slot is <= the target.
	idx := slices.IndexFunc(h.openUpvalues, func(u *object.ObjUpvalue) bool { return u.Slot <= slot })
	if idx >= 0 && h.openUpvalues[idx].Slot == slot {
		return h.openUpvalues[idx]
	}

	up := object.NewUpvalue(slot, &stack[slot])
	h.track(up, 24)

	if idx < 0 {
		idx = len(h.openUpvalues)
	}
	h.openUpvalues = slices.Insert(h.openUpvalues, idx, up)
	return up
}

// CloseUpvalues closes every open upvalue whose slot is >= above, copying
// the stack value into the upvalue itself and removing it from the open
// list. Because the list is sorted strictly decreasing, the upvalues to
// close are always a prefix of the list.
func (h *Heap) CloseUpvalues(above int) {
	n := 0
	for n < len(h.openUpvalues) && h.openUpvalues[n].Slot >= above {
		h.openUpvalues[n].Close()
		n++
	}
	h.openUpvalues = slices.Delete(h.openUpvalues, 0, n)
}

// Collect runs one full tri-color mark-sweep cycle.
func (h *Heap) Collect() {
	h.markRoots()
	h.traceReferences()
	h.sweepStrings()
	kept, freed := h.sweepObjects()
	h.LastGCKept, h.LastGCFreed = kept, freed
	h.nextGC = h.bytesAllocated * h.growthFactor
	if h.nextGC < defaultInitialThreshold {
		h.nextGC = defaultInitialThreshold
	}
}

func (h *Heap) markRoots() {
	if h.VMRoots != nil {
		for _, v := range h.VMRoots() {
			h.markValue(v)
		}
	}
	if h.CompilerRoots != nil {
		for _, v := range h.CompilerRoots() {
			h.markValue(v)
		}
	}
	for _, u := range h.openUpvalues {
		h.markObject(u)
	}
}

func (h *Heap) markValue(v value.Value) {
	if v.IsObject() {
		h.markObject(v.AsObject())
	}
}

func (h *Heap) markObject(o value.Object) {
	if o == nil {
		return
	}
	g, ok := o.(gcObject)
	if !ok || g.Marked() {
		return
	}
	g.SetMarked(true)
	h.gray = append(h.gray, o)
}

func (h *Heap) traceReferences() {
	for len(h.gray) > 0 {
		o := h.gray[len(h.gray)-1]
		h.gray = h.gray[:len(h.gray)-1]
		h.blacken(o)
	}
}

func (h *Heap) blacken(o value.Object) {
	switch v := o.(type) {
	case *object.ObjString, *object.ObjNative:
		// no children
	case *object.ObjFunction:
		if v.Name != nil {
			h.markObject(v.Name)
		}
		for _, c := range v.Chunk.Constants {
			h.markValue(c)
		}
	case *object.ObjClosure:
		h.markObject(v.Function)
		for _, u := range v.Upvalues {
			h.markObject(u)
		}
	case *object.ObjUpvalue:
		h.markValue(v.Get())
	default:
		panic(fmt.Sprintf("heap: unknown object kind %T", o))
	}
}

// sweepStrings removes intern-table entries whose key is unmarked, so the
// table cannot resurrect a string the sweep is about to free. This must run
// after marking and before sweepObjects.
func (h *Heap) sweepStrings() {
	for _, e := range h.strings.entries {
		if e.str != nil && !e.str.Marked() {
			h.strings.delete(e.str)
		}
	}
}

func (h *Heap) sweepObjects() (kept, freed int) {
	var prev gcObject
	cur := h.objects
	for cur != nil {
		g := cur.(gcObject)
		next := g.Next()
		if g.Marked() {
			g.SetMarked(false)
			prev = g
			kept++
		} else {
			if prev == nil {
				h.objects = next
			} else {
				prev.SetNext(next)
			}
			// give back the same size track accounted for this object
			switch o := g.(type) {
			case *object.ObjString:
				h.bytesAllocated -= len(o.Chars)
			case *object.ObjFunction:
				h.bytesAllocated -= 64
			case *object.ObjClosure:
				h.bytesAllocated -= 16 + 8*len(o.Upvalues)
			case *object.ObjNative:
				h.bytesAllocated -= 32
			case *object.ObjUpvalue:
				h.bytesAllocated -= 24
			}
			freed++
		}
		cur = next
	}
	return kept, freed
}
