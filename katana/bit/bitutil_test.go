package bit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSet(t *testing.T) {
	assert.True(t, IsSet(0, 0x00000001))
	assert.True(t, IsSet(31, 0x80000000))
	assert.False(t, IsSet(15, 0x00000000))
	assert.False(t, IsSet(4, 0xFFFFFFEF))
}

func TestSetResetAssign(t *testing.T) {
	assert.Equal(t, uint32(0x10), Set(4, 0))
	assert.Equal(t, uint32(0), Reset(4, 0x10))
	assert.Equal(t, uint32(0x80000000), Assign(31, 0, true))
	assert.Equal(t, uint32(0), Assign(31, 0x80000000, false))
}

func TestExtractBits(t *testing.T) {
	assert.Equal(t, uint32(0b101), ExtractBits(0b11010110, 6, 4))
	assert.Equal(t, uint32(0x3FF), ExtractBits(0xFFFFFFFF, 9, 0))
	assert.Equal(t, uint32(0xF), ExtractBits(0xF0000000, 31, 28))
}

func TestReplaceBits(t *testing.T) {
	assert.Equal(t, uint32(0x00000F00), ReplaceBits(0, 11, 8, 0xF))
	assert.Equal(t, uint32(0xFFFF00FF), ReplaceBits(0xFFFFFFFF, 15, 8, 0))
	// field wider than the window is truncated
	assert.Equal(t, uint32(0x30), ReplaceBits(0, 5, 4, 0x7))
}

func TestCombineHighLow(t *testing.T) {
	v := Combine(0xDEAD, 0xBEEF)
	assert.Equal(t, uint32(0xDEADBEEF), v)
	assert.Equal(t, uint16(0xBEEF), Low(v))
	assert.Equal(t, uint16(0xDEAD), High(v))
}

func TestSignExtend(t *testing.T) {
	assert.Equal(t, uint32(0xFFFFFFFF), SignExtend8(0xFF))
	assert.Equal(t, uint32(0x7F), SignExtend8(0x7F))
	assert.Equal(t, uint32(0xFFFF8000), SignExtend16(0x8000))
	assert.Equal(t, uint32(0x1234), SignExtend16(0x1234))
	assert.Equal(t, uint32(0xFFFFF800), SignExtend12(0x800))
	assert.Equal(t, uint32(0x7FF), SignExtend12(0x7FF))
}
