package sh4

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStoreQueueBurst fills SQ0 through the P4 window and flushes it with
// PREF, checking the assembled physical target.
func TestStoreQueueBurst(t *testing.T) {
	tm := newTestMachine(t)
	reg := tm.cpu.Reg()

	// target the start of main RAM: bits 26-28 of 0x0C000000 into QACR0
	const target = uint32(0x0C000000)
	reg.QACR0 = ((target >> 26) & 7) << 2

	var want [16]uint32
	for i := 0; i < 16; i++ {
		want[i] = 0x11110000 + uint32(i)
		require.NoError(t, tm.mem.Write32(0xE0000000+uint32(i)*4, want[i]))
	}

	// pref @r0 with r0 pointing at SQ0
	tm.loadProgram(0x2000, []uint16{0x0083, 0x0009, 0x0009})
	reg.PC = 0x8C002000
	reg.R[0] = 0xE0000000
	tm.cpu.Step()

	for i := 0; i < 8; i++ {
		v, err := tm.mem.Read32(target + uint32(i)*4)
		require.NoError(t, err)
		assert.Equal(t, want[i], v, "word %d", i)
	}

	// SQ1 was not flushed
	v, _ := tm.mem.Read32(target + 0x20)
	assert.Zero(t, v)

	// flushing SQ1 uses QACR1 and bits 2-4 of the upper queue's slots
	reg.QACR1 = ((target >> 26) & 7) << 2
	reg.R[0] = 0xE0000020
	reg.PC = 0x8C002000
	tm.cpu.Step()
	for i := 0; i < 8; i++ {
		v, err := tm.mem.Read32(target + 0x20 + uint32(i)*4)
		require.NoError(t, err)
		assert.Equal(t, want[8+i], v, "word %d", i)
	}
}

func TestStoreQueueSlots(t *testing.T) {
	tm := newTestMachine(t)

	// bit 5 selects the queue, bits 2-4 the word
	require.NoError(t, tm.mem.Write32(0xE0000000, 0xAAAA0000))
	require.NoError(t, tm.mem.Write32(0xE0000020, 0xBBBB0000))
	assert.Equal(t, uint32(0xAAAA0000), tm.cpu.oc.sq[0])
	assert.Equal(t, uint32(0xBBBB0000), tm.cpu.oc.sq[8])

	// the window aliases across its whole 64MiB range
	require.NoError(t, tm.mem.Write32(0xE3FFFF00, 0xCCCC0000))
	assert.Equal(t, uint32(0xCCCC0000), tm.cpu.oc.sq[0])

	// sub-word writes merge into the slot
	require.NoError(t, tm.mem.Write8(0xE0000001, 0x55))
	assert.Equal(t, uint32(0xAAAA5500), tm.cpu.oc.sq[0])
}

func TestOperandCacheAsRAM(t *testing.T) {
	t.Run("window is invisible until OCE and ORA are set", func(t *testing.T) {
		tm := newTestMachine(t)
		assert.False(t, tm.cpu.oc.oraHit(0x7C000000, tm.cpu.Reg().CCR))

		tm.cpu.Reg().CCR = ccrOCE | ccrORA
		assert.True(t, tm.cpu.oc.oraHit(0x7C000000, tm.cpu.Reg().CCR))
		assert.False(t, tm.cpu.oc.oraHit(0x7B000000, tm.cpu.Reg().CCR))
	})

	t.Run("reads and writes hit the scratch SRAM", func(t *testing.T) {
		tm := newTestMachine(t)
		tm.cpu.Reg().CCR = ccrOCE | ccrORA

		require.NoError(t, tm.cpu.writeVirt32(0x7C000010, 0xFEEDF00D))
		v, err := tm.cpu.readVirt32(0x7C000010)
		require.NoError(t, err)
		assert.Equal(t, uint32(0xFEEDF00D), v)
	})

	t.Run("bank select bit follows CCR.OIX", func(t *testing.T) {
		tm := newTestMachine(t)
		tm.cpu.Reg().CCR = ccrOCE | ccrORA

		// OIX=0: bit 13 selects the bank
		require.NoError(t, tm.cpu.writeVirt8(0x7C000000, 0x11))
		require.NoError(t, tm.cpu.writeVirt8(0x7C002000, 0x22))
		assert.Equal(t, uint8(0x11), tm.cpu.oc.oraRAM[0])
		assert.Equal(t, uint8(0x22), tm.cpu.oc.oraRAM[4096])

		// OIX=1: bit 25 selects the bank instead
		tm.cpu.Reg().CCR |= ccrOIX
		require.NoError(t, tm.cpu.writeVirt8(0x7E000000, 0x33))
		assert.Equal(t, uint8(0x33), tm.cpu.oc.oraRAM[4096])
	})
}

func TestCacheAddressArrays(t *testing.T) {
	tm := newTestMachine(t)

	invalidated := 0
	tm.cpu.OnICacheInvalidate = func() { invalidated++ }

	// icache address array writes fire the invalidation hook; reads are 0
	require.NoError(t, tm.cpu.Write32(0xF0000000, 0xDEADBEEF))
	assert.Equal(t, 1, invalidated)
	v, err := tm.cpu.Read32(0xF0000000)
	require.NoError(t, err)
	assert.Zero(t, v)

	// ocache address array writes need no storage either
	require.NoError(t, tm.cpu.Write32(0xF4000000, 0x12345678))
	v, err = tm.cpu.Read32(0xF4000000)
	require.NoError(t, err)
	assert.Zero(t, v)

	// CCR.ICI also invalidates, and reads back clear
	require.NoError(t, tm.cpu.Write32(regCCR, ccrICE|ccrICI))
	assert.Equal(t, 2, invalidated)
	ccr, _ := tm.cpu.Read32(regCCR)
	assert.Zero(t, ccr&ccrICI)
}
