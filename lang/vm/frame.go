package vm

import "github.com/mna/emberlang/lang/object"

// callFrame is one activation record: which closure is executing, where in
// its chunk, and where its locals begin on the shared value stack.
type callFrame struct {
	closure  *object.ObjClosure
	ip       int
	slotBase int
}
