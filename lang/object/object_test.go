package object_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mna/emberlang/lang/object"
	"github.com/mna/emberlang/lang/value"
)

func TestUpvalueOpenAndClose(t *testing.T) {
	stack := []value.Value{value.Number(1), value.Number(2)}
	up := object.NewUpvalue(1, &stack[1])
	assert.True(t, up.IsOpen())
	assert.Equal(t, value.Number(2), up.Get())

	stack[1] = value.Number(42)
	assert.Equal(t, value.Number(42), up.Get(), "open upvalue reads through to the live stack slot")

	up.Close()
	assert.False(t, up.IsOpen())
	assert.Equal(t, value.Number(42), up.Get())

	up.Set(value.Number(7))
	assert.Equal(t, value.Number(7), up.Get())
	assert.Equal(t, value.Number(42), stack[1], "closing severs the link, writes no longer reach the old slot")
}

func TestClosureUpvalueVectorSizedToFunction(t *testing.T) {
	fn := object.NewFunction()
	fn.NUpvalues = 3
	c := object.NewClosure(fn)
	assert.Len(t, c.Upvalues, 3)
	assert.Equal(t, 3, fn.UpvalueCount())
}

func TestFunctionStringUsesScriptForAnonymous(t *testing.T) {
	fn := object.NewFunction()
	assert.Equal(t, "<script>", fn.String())

	fn.Name = object.NewString("add", 0)
	assert.Equal(t, "<fn add>", fn.String())
}
