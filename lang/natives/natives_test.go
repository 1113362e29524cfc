package natives_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/emberlang/lang/heap"
	"github.com/mna/emberlang/lang/natives"
	"github.com/mna/emberlang/lang/object"
	"github.com/mna/emberlang/lang/value"
)

func registered(t *testing.T) (map[string]value.Value, *heap.Heap) {
	t.Helper()
	h := heap.New(heap.Options{})
	globals := map[string]value.Value{}
	natives.Register(h, func(name string, v value.Value) { globals[name] = v })
	return globals, h
}

func call(t *testing.T, globals map[string]value.Value, name string, args ...value.Value) (value.Value, error) {
	t.Helper()
	v, ok := globals[name]
	require.True(t, ok, "native %q must be registered", name)
	native, ok := v.AsObject().(*object.ObjNative)
	require.True(t, ok)
	return native.Fn(args)
}

func TestClockReturnsIncreasingSeconds(t *testing.T) {
	globals, _ := registered(t)
	first, err := call(t, globals, "clock")
	require.NoError(t, err)
	assert.True(t, first.IsNumber())
	assert.GreaterOrEqual(t, first.AsNumber(), 0.0, "clock measures elapsed time since registration, not wall-clock time")

	time.Sleep(time.Millisecond)
	second, err := call(t, globals, "clock")
	require.NoError(t, err)
	assert.Greater(t, second.AsNumber(), first.AsNumber(), "clock must increase as real time passes")
}

func TestClockRejectsArguments(t *testing.T) {
	globals, _ := registered(t)
	_, err := call(t, globals, "clock", value.Number(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected 0 arguments but got 1")
}

func TestSqrt(t *testing.T) {
	globals, _ := registered(t)
	v, err := call(t, globals, "sqrt", value.Number(16))
	require.NoError(t, err)
	assert.Equal(t, 4.0, v.AsNumber())
}

func TestSqrtRejectsNonNumber(t *testing.T) {
	globals, h := registered(t)
	_, err := call(t, globals, "sqrt", value.FromObject(h.NewString("x")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a number")
}

func TestLen(t *testing.T) {
	globals, h := registered(t)
	v, err := call(t, globals, "len", value.FromObject(h.NewString("hello")))
	require.NoError(t, err)
	assert.Equal(t, 5.0, v.AsNumber())
}

func TestLenRejectsNonString(t *testing.T) {
	globals, _ := registered(t)
	_, err := call(t, globals, "len", value.Number(3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a string")
}

func TestType(t *testing.T) {
	globals, h := registered(t)
	cases := []struct {
		arg  value.Value
		want string
	}{
		{value.NilValue, "nil"},
		{value.Bool(true), "boolean"},
		{value.Number(1), "number"},
		{value.FromObject(h.NewString("s")), "string"},
	}
	for _, c := range cases {
		v, err := call(t, globals, "type", c.arg)
		require.NoError(t, err)
		assert.Equal(t, c.want, v.AsObject().(*object.ObjString).Chars)
	}
}
