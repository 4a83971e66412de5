package sh4

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTMUUnderflowInterrupt reproduces the canonical guest sequence:
// program TMU0 for a short countdown, spin on a dt/bf loop, and verify the
// underflow interrupt lands before the loop counter drains.
func TestTMUUnderflowInterrupt(t *testing.T) {
	tm := newTestMachine(t)
	reg := tm.cpu.Reg()

	const vbr = 0x0C000000
	const progBase = 0x8C001000

	// spin loop: dt r3; bf <loop>; mov #1,r15 (fallback); nop forever
	loop := []uint16{
		0x4310, // dt r3
		0x8BFD, // bf -3 (back to the dt)
		0xEF01, // mov #1,r15  — only reached if the loop drains
		0x0009,
		0x0009,
	}
	tm.loadProgram(0x1000, loop)

	// interrupt vector: a couple of nops at VBR+0x600
	tm.loadProgram(0x600, []uint16{0x0009, 0x0009, 0x0009})

	reg.VBR = vbr
	reg.setSR(srMD) // BL clear, IMASK 0
	reg.R[3] = 272
	reg.R[15] = 0
	reg.PC = progBase

	// TMU0 priority 1 in IPRA
	require.NoError(t, tm.cpu.Write16(regIPRA, 0x1000))
	// TCOR0 = TCNT0 = 16, underflow interrupt enabled, start
	require.NoError(t, tm.cpu.Write32(regTMUCh+0, 16))
	require.NoError(t, tm.cpu.Write32(regTMUCh+4, 16))
	require.NoError(t, tm.cpu.Write16(regTMUCh+8, uint16(tcrUNIE)))
	require.NoError(t, tm.cpu.Write8(regTSTR, 1))

	tm.runSlicesUntil(t, vbr+0x600, vbr+0x700, 10)

	// the loop was interrupted before draining
	assert.NotZero(t, reg.R[3], "loop counter drained before the interrupt")
	assert.Zero(t, reg.R[15], "fallback path ran")

	// INTEVT carries the TUNI0 code
	intevt, err := tm.cpu.Read32(regINTEVT)
	require.NoError(t, err)
	assert.Equal(t, uint32(ExcpTMU0TUNI0), intevt)

	// the counter reloaded from TCOR0
	tcnt, err := tm.cpu.Read32(regTMUCh + 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(16), tcnt)

	// SR shows the interrupt state, SPC points back into the loop
	assert.NotZero(t, reg.SR&srBL)
	assert.GreaterOrEqual(t, reg.SPC, uint32(progBase))
	assert.Less(t, reg.SPC, uint32(progBase+8))
}

func TestTMUCountdown(t *testing.T) {
	t.Run("stopped channels do not count", func(t *testing.T) {
		tm := newTestMachine(t)
		require.NoError(t, tm.cpu.Write32(regTMUCh+4, 1000))
		tm.clock.AdvanceCycles(1000000)
		tcnt, _ := tm.cpu.Read32(regTMUCh + 4)
		assert.Equal(t, uint32(1000), tcnt)
	})

	t.Run("running channel counts at the programmed rate", func(t *testing.T) {
		tm := newTestMachine(t)
		require.NoError(t, tm.cpu.Write32(regTMUCh+0, 0xFFFFFFFF))
		require.NoError(t, tm.cpu.Write32(regTMUCh+4, 1000))
		require.NoError(t, tm.cpu.Write8(regTSTR, 1))

		// 10 counts at the default prescaler (peripheral clock / 4)
		tm.clock.AdvanceCycles(10 * periphClockDiv * 4)
		tcnt, _ := tm.cpu.Read32(regTMUCh + 4)
		assert.Equal(t, uint32(990), tcnt)
	})

	t.Run("stopping a channel cancels its event", func(t *testing.T) {
		tm := newTestMachine(t)
		require.NoError(t, tm.cpu.Write32(regTMUCh+0, 100))
		require.NoError(t, tm.cpu.Write32(regTMUCh+4, 100))
		require.NoError(t, tm.cpu.Write8(regTSTR, 1))
		assert.NotNil(t, tm.clock.Peek())

		require.NoError(t, tm.cpu.Write8(regTSTR, 0))
		assert.Nil(t, tm.clock.Peek())
	})

	t.Run("UNF clear requires a prior read", func(t *testing.T) {
		tm := newTestMachine(t)
		require.NoError(t, tm.cpu.Write32(regTMUCh+0, 4))
		require.NoError(t, tm.cpu.Write32(regTMUCh+4, 4))
		require.NoError(t, tm.cpu.Write8(regTSTR, 1))

		// run far enough for an underflow, then sync the channel
		tm.clock.AdvanceCycles(10 * periphClockDiv * 4)
		tm.cpu.tmu.sync(0)
		require.NotZero(t, tm.cpu.tmu.ch[0].tcr&tcrUNF)

		// clear attempt without having read TCR: flag survives
		require.NoError(t, tm.cpu.Write16(regTMUCh+8, 0))
		tcr, _ := tm.cpu.Read16(regTMUCh + 8)
		assert.NotZero(t, tcr&tcrUNF)

		// after that read, the clear goes through
		require.NoError(t, tm.cpu.Write16(regTMUCh+8, 0))
		tcr, _ = tm.cpu.Read16(regTMUCh + 8)
		assert.Zero(t, tcr&tcrUNF)
	})
}
