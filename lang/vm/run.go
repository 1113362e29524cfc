package vm

import (
	"fmt"

	"github.com/mna/emberlang/lang/bytecode"
	"github.com/mna/emberlang/lang/object"
	"github.com/mna/emberlang/lang/value"
)

// run executes instructions starting at the top frame until a return from
// the outermost script frame, or a runtime error.
func (v *VM) run() error {
	frame := &v.frames[len(v.frames)-1]
	chunk := &frame.closure.Function.Chunk

	readByte := func() byte {
		b := chunk.Code[frame.ip]
		frame.ip++
		return b
	}
	readUint16 := func() uint16 {
		hi, lo := chunk.Code[frame.ip], chunk.Code[frame.ip+1]
		frame.ip += 2
		return uint16(hi)<<8 | uint16(lo)
	}
	readConstant := func() value.Value { return chunk.Constants[readByte()] }

	for {
		op := bytecode.OpCode(readByte())
		switch op {
		case bytecode.OpConstant:
			v.push(readConstant())

		case bytecode.OpNil:
			v.push(value.NilValue)
		case bytecode.OpTrue:
			v.push(value.Bool(true))
		case bytecode.OpFalse:
			v.push(value.Bool(false))
		case bytecode.OpPop:
			v.pop()

		case bytecode.OpGetLocal:
			slot := readByte()
			v.push(v.stack[frame.slotBase+int(slot)])
		case bytecode.OpSetLocal:
			slot := readByte()
			v.stack[frame.slotBase+int(slot)] = v.peek(0)

		case bytecode.OpGetGlobal:
			name := readConstant().AsObject().(*object.ObjString)
			val, ok := v.globals.Get(name)
			if !ok {
				return v.runtimeErrorf("Undefined variable '%s'", name.Chars)
			}
			v.push(val)
		case bytecode.OpSetGlobal:
			name := readConstant().AsObject().(*object.ObjString)
			if _, ok := v.globals.Get(name); !ok {
				return v.runtimeErrorf("Undefined variable '%s'", name.Chars)
			}
			v.globals.Put(name, v.peek(0))
		case bytecode.OpDefineGlobal:
			name := readConstant().AsObject().(*object.ObjString)
			v.globals.Put(name, v.peek(0))
			v.pop()

		case bytecode.OpGetUpvalue:
			slot := readByte()
			v.push(frame.closure.Upvalues[slot].Get())
		case bytecode.OpSetUpvalue:
			slot := readByte()
			frame.closure.Upvalues[slot].Set(v.peek(0))

		case bytecode.OpEqual:
			b, a := v.pop(), v.pop()
			v.push(value.Bool(value.Equal(a, b)))
		case bytecode.OpGreater:
			if err := v.binaryCompare(func(a, b float64) bool { return a > b }); err != nil {
				return err
			}
		case bytecode.OpLess:
			if err := v.binaryCompare(func(a, b float64) bool { return a < b }); err != nil {
				return err
			}

		case bytecode.OpAdd:
			if err := v.add(); err != nil {
				return err
			}
		case bytecode.OpSubtract:
			if err := v.binaryNumber(func(a, b float64) float64 { return a - b }); err != nil {
				return err
			}
		case bytecode.OpMultiply:
			if err := v.binaryNumber(func(a, b float64) float64 { return a * b }); err != nil {
				return err
			}
		case bytecode.OpDivide:
			if err := v.binaryNumber(func(a, b float64) float64 { return a / b }); err != nil {
				return err
			}

		case bytecode.OpNot:
			v.push(value.Bool(v.pop().IsFalsey()))
		case bytecode.OpNegate:
			if !v.peek(0).IsNumber() {
				return v.runtimeErrorf("Operands must be numbers")
			}
			v.push(value.Number(-v.pop().AsNumber()))

		case bytecode.OpPrint:
			fmt.Fprintln(v.Stdout, v.pop().String())

		case bytecode.OpJump:
			offset := readUint16()
			frame.ip += int(offset)
		case bytecode.OpJumpIfFalse:
			offset := readUint16()
			if v.peek(0).IsFalsey() {
				frame.ip += int(offset)
			}
		case bytecode.OpLoop:
			offset := readUint16()
			frame.ip -= int(offset)

		case bytecode.OpCall:
			argCount := int(readByte())
			if err := v.callValue(v.peek(argCount), argCount); err != nil {
				return err
			}
			frame = &v.frames[len(v.frames)-1]
			chunk = &frame.closure.Function.Chunk

		case bytecode.OpClosure:
			fn := readConstant().AsObject().(*object.ObjFunction)
			closure := v.heap.NewClosure(fn)
			for i := 0; i < fn.NUpvalues; i++ {
				isLocal := readByte()
				index := readByte()
				if isLocal != 0 {
					closure.Upvalues[i] = v.heap.CaptureUpvalue(v.stack, frame.slotBase+int(index))
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}
			v.push(value.FromObject(closure))

		case bytecode.OpCloseUpvalue:
			v.heap.CloseUpvalues(len(v.stack) - 1)
			v.pop()

		case bytecode.OpReturn:
			result := v.pop()
			v.heap.CloseUpvalues(frame.slotBase)
			v.frames = v.frames[:len(v.frames)-1]
			if len(v.frames) == 0 {
				v.pop() // the top-level script closure
				return nil
			}
			v.stack = v.stack[:frame.slotBase]
			v.push(result)
			frame = &v.frames[len(v.frames)-1]
			chunk = &frame.closure.Function.Chunk

		default:
			return v.runtimeErrorf("unknown opcode %s", op)
		}
	}
}

func (v *VM) binaryNumber(op func(a, b float64) float64) error {
	if !v.peek(0).IsNumber() || !v.peek(1).IsNumber() {
		return v.runtimeErrorf("Operands must be numbers")
	}
	b, a := v.pop().AsNumber(), v.pop().AsNumber()
	v.push(value.Number(op(a, b)))
	return nil
}

func (v *VM) binaryCompare(op func(a, b float64) bool) error {
	if !v.peek(0).IsNumber() || !v.peek(1).IsNumber() {
		return v.runtimeErrorf("Operands must be numbers")
	}
	b, a := v.pop().AsNumber(), v.pop().AsNumber()
	v.push(value.Bool(op(a, b)))
	return nil
}

func (v *VM) add() error {
	bv, av := v.peek(0), v.peek(1)
	switch {
	case av.IsNumber() && bv.IsNumber():
		b, a := v.pop().AsNumber(), v.pop().AsNumber()
		v.push(value.Number(a + b))
		return nil
	case isString(av) && isString(bv):
		b, a := v.pop(), v.pop()
		as := a.AsObject().(*object.ObjString).Chars
		bs := b.AsObject().(*object.ObjString).Chars
		v.push(value.FromObject(v.heap.NewString(as + bs)))
		return nil
	default:
		return v.runtimeErrorf("Operands must be two numbers or two strings")
	}
}

func isString(val value.Value) bool {
	if !val.IsObject() {
		return false
	}
	_, ok := val.AsObject().(*object.ObjString)
	return ok
}

// callValue dispatches a CALL instruction: callee must be a closure or a
// native function.
func (v *VM) callValue(callee value.Value, argCount int) error {
	if !callee.IsObject() {
		return v.runtimeErrorf("Can only call functions")
	}
	switch fn := callee.AsObject().(type) {
	case *object.ObjClosure:
		return v.call(fn, argCount)
	case *object.ObjNative:
		args := append([]value.Value(nil), v.stack[len(v.stack)-argCount:]...)
		result, err := fn.Fn(args)
		if err != nil {
			return v.runtimeErrorf("%s", err.Error())
		}
		v.stack = v.stack[:len(v.stack)-argCount-1]
		v.push(result)
		return nil
	default:
		return v.runtimeErrorf("Can only call functions")
	}
}

func (v *VM) call(closure *object.ObjClosure, argCount int) error {
	if argCount != closure.Function.Arity {
		return v.runtimeErrorf("Expected %d arguments but got %d", closure.Function.Arity, argCount)
	}
	if len(v.frames) >= v.cfg.MaxFrames {
		return v.runtimeErrorf("Stack overflow")
	}
	v.frames = append(v.frames, callFrame{
		closure:  closure,
		slotBase: len(v.stack) - argCount - 1,
	})
	return nil
}
