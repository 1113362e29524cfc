package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mna/emberlang/lang/value"
)

type fakeObject struct{ name string }

func (o *fakeObject) ObjType() string { return "fake" }
func (o *fakeObject) String() string  { return o.name }

func TestFalsey(t *testing.T) {
	assert.True(t, value.NilValue.IsFalsey())
	assert.True(t, value.Bool(false).IsFalsey())
	assert.False(t, value.Bool(true).IsFalsey())
	assert.False(t, value.Number(0).IsFalsey())
	assert.False(t, value.FromObject(&fakeObject{}).IsFalsey())
}

func TestEqual(t *testing.T) {
	assert.True(t, value.Equal(value.NilValue, value.NilValue))
	assert.True(t, value.Equal(value.Number(1), value.Number(1)))
	assert.False(t, value.Equal(value.Number(1), value.Number(2)))
	assert.False(t, value.Equal(value.Bool(true), value.Number(1)))

	a := &fakeObject{name: "a"}
	b := &fakeObject{name: "a"}
	assert.True(t, value.Equal(value.FromObject(a), value.FromObject(a)))
	assert.False(t, value.Equal(value.FromObject(a), value.FromObject(b)), "object equality is by identity, not content")
}

func TestStringAndTypeName(t *testing.T) {
	assert.Equal(t, "nil", value.NilValue.String())
	assert.Equal(t, "true", value.Bool(true).String())
	assert.Equal(t, "3", value.Number(3).String())
	assert.Equal(t, "3.5", value.Number(3.5).String())

	assert.Equal(t, "boolean", value.Bool(false).TypeName())
	assert.Equal(t, "fake", value.FromObject(&fakeObject{}).TypeName())
}
