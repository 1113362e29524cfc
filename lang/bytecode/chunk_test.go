package bytecode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mna/emberlang/lang/bytecode"
	"github.com/mna/emberlang/lang/value"
)

func TestChunkGetLine(t *testing.T) {
	var c bytecode.Chunk
	c.Write(byte(bytecode.OpNil), 1)
	c.Write(byte(bytecode.OpTrue), 1)
	c.Write(byte(bytecode.OpPop), 2)
	c.Write(byte(bytecode.OpReturn), 5)

	assert.Equal(t, 1, c.GetLine(0))
	assert.Equal(t, 1, c.GetLine(1))
	assert.Equal(t, 2, c.GetLine(2))
	assert.Equal(t, 5, c.GetLine(3))
}

func TestChunkAddConstantDedups(t *testing.T) {
	var c bytecode.Chunk
	i1 := c.AddConstant(value.Number(1))
	i2 := c.AddConstant(value.Number(2))
	i3 := c.AddConstant(value.Number(1))

	assert.Equal(t, 0, i1)
	assert.Equal(t, 1, i2)
	assert.Equal(t, i1, i3, "equal-value constants are deduplicated")
	assert.Len(t, c.Constants, 2)
}

func TestChunkPatchAndReadUint16(t *testing.T) {
	var c bytecode.Chunk
	offset := func() int {
		c.Write(byte(bytecode.OpJump), 1)
		c.WriteUint16(0xffff, 1)
		return len(c.Code) - 2
	}()
	c.PatchUint16(offset, 0x1234)
	assert.Equal(t, uint16(0x1234), c.ReadUint16(offset))
}
