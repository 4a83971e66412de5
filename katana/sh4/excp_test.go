package sh4

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelayedBranch(t *testing.T) {
	t.Run("the delay slot executes before control transfers", func(t *testing.T) {
		tm := newTestMachine(t)
		reg := tm.cpu.Reg()

		// bra +4; mov #7,r1 (slot); mov #9,r2 (skipped) ... target: mov #3,r3
		tm.loadProgram(0x1000, []uint16{
			0xA002, // bra PC+4+2*2 = 0x1008
			0xE107, // mov #7,r1  (delay slot)
			0xE209, // mov #9,r2  (skipped)
			0x0009, // nop
			0xE303, // mov #3,r3  (branch target, 0x1008)
			0x0009,
		})
		reg.PC = 0x8C001000

		tm.cpu.Step() // bra
		tm.cpu.Step() // slot, then transfer
		assert.Equal(t, uint32(7), reg.R[1])
		assert.Equal(t, uint32(0x8C001008), reg.PC)

		tm.cpu.Step()
		assert.Equal(t, uint32(3), reg.R[3])
		assert.Zero(t, reg.R[2])
	})

	t.Run("an interrupt cannot split a branch from its slot", func(t *testing.T) {
		tm := newTestMachine(t)
		reg := tm.cpu.Reg()
		reg.setSR(srMD)

		tm.loadProgram(0x1000, []uint16{
			0xA002, // bra
			0xE107, // slot
			0x0009,
			0x0009,
			0x0009,
		})
		reg.PC = 0x8C001000

		tm.cpu.Step() // bra executed, slot pending

		// a peripheral raises an interrupt between the pair
		tm.cpu.SetInterrupt(irqTMU0, ExcpTMU0TUNI0)
		require.NoError(t, tm.cpu.Write16(regIPRA, 0xF000))
		assert.Zero(t, tm.cpu.pendingInterrupt(), "pair must stay atomic")

		tm.cpu.Step() // slot runs, branch completes
		assert.Equal(t, uint32(7), reg.R[1])

		// now the interrupt goes through
		assert.Equal(t, ExcpTMU0TUNI0, tm.cpu.pendingInterrupt())
	})
}

func TestTrapaRteRoundtrip(t *testing.T) {
	tm := newTestMachine(t)
	reg := tm.cpu.Reg()

	const vbr = 0x0C000000
	reg.VBR = vbr
	reg.setSR(srMD)

	// main: trapa #5; mov #1,r4 (resumed here after rte)
	tm.loadProgram(0x1000, []uint16{
		0xC305, // trapa #5
		0xE401, // mov #1,r4
		0x0009,
	})
	// handler at VBR+0x100: rte; nop
	tm.loadProgram(0x100, []uint16{
		0x002B, // rte
		0x0009, // nop (delay slot)
	})
	reg.PC = 0x8C001000

	tm.cpu.Step() // trapa
	assert.Equal(t, uint32(vbr+0x100), reg.PC)
	assert.Equal(t, uint32(5<<2), reg.TRA)
	assert.Equal(t, uint32(ExcpUnconditionalTrap), reg.EXPEVT)
	assert.NotZero(t, reg.SR&srBL)
	assert.Equal(t, uint32(0x8C001002), reg.SPC)

	tm.cpu.Step() // rte
	tm.cpu.Step() // delay slot, then return
	assert.Equal(t, uint32(0x8C001002), reg.PC)
	assert.Zero(t, reg.SR&srBL)

	tm.cpu.Step()
	assert.Equal(t, uint32(1), reg.R[4])
}

func TestUserModePrivilege(t *testing.T) {
	t.Run("privileged data access faults in user mode", func(t *testing.T) {
		tm := newTestMachine(t)
		tm.cpu.Reg().setSR(0)

		_, err := tm.cpu.readVirt32(0x8C000000) // P1
		var trp *Trap
		require.ErrorAs(t, err, &trp)
		assert.Equal(t, ExcpDataAddrRead, trp.Code)

		err = tm.cpu.writeVirt32(0xA0000000, 1) // P2
		require.ErrorAs(t, err, &trp)
		assert.Equal(t, ExcpDataAddrWrite, trp.Code)
	})

	t.Run("the store queue window stays reachable from user mode", func(t *testing.T) {
		tm := newTestMachine(t)
		tm.cpu.Reg().setSR(0)

		require.NoError(t, tm.cpu.writeVirt32(0xE0000004, 0x1234))
		assert.Equal(t, uint32(0x1234), tm.cpu.oc.sq[1])
	})

	t.Run("privileged instructions are illegal in user mode", func(t *testing.T) {
		tm := newTestMachine(t)
		tm.cpu.Reg().setSR(0)

		err := opLDCSR(tm.cpu, 0x401E)
		var trp *Trap
		require.ErrorAs(t, err, &trp)
		assert.Equal(t, ExcpGenIllegalInst, trp.Code)
	})
}

func TestInterruptEntry(t *testing.T) {
	tm := newTestMachine(t)
	reg := tm.cpu.Reg()

	const vbr = 0x0C000000
	reg.VBR = vbr
	reg.setSR(srMD) // RB=0
	reg.R[15] = 0xDEADBEE0

	tm.loadProgram(0x1000, []uint16{0x0009, 0x0009})
	tm.loadProgram(0x600, []uint16{0x0009, 0x0009})
	reg.PC = 0x8C001000

	require.NoError(t, tm.cpu.Write16(regIPRA, 0x4000)) // TMU0 prio 4
	tm.cpu.SetInterrupt(irqTMU0, ExcpTMU0TUNI0)

	oldSR := reg.SR
	tm.cpu.Step()

	assert.Equal(t, oldSR, reg.SSR)
	assert.Equal(t, uint32(0x8C001000), reg.SPC)
	assert.Equal(t, uint32(0xDEADBEE0), reg.SGR)
	assert.Equal(t, uint32(ExcpTMU0TUNI0), reg.INTEVT)
	assert.NotZero(t, reg.SR&srBL)
	assert.NotZero(t, reg.SR&srRB)
	assert.NotZero(t, reg.SR&srMD)

	// IMASK blocks lower-or-equal priorities
	tm2 := newTestMachine(t)
	tm2.cpu.Reg().setSR(srMD | 0xF0) // IMASK=15
	require.NoError(t, tm2.cpu.Write16(regIPRA, 0x4000))
	tm2.cpu.SetInterrupt(irqTMU0, ExcpTMU0TUNI0)
	assert.Zero(t, tm2.cpu.pendingInterrupt())
}

func TestIRLEncoding(t *testing.T) {
	tm := newTestMachine(t)
	reg := tm.cpu.Reg()
	reg.setSR(srMD)

	// encoded IRL value 0x9 selects EXT_9 at priority 6
	tm.cpu.SetIRL(0x9)
	code := tm.cpu.pendingInterrupt()
	assert.Equal(t, ExcpExt0+0x20*9, code)

	// masked off at IMASK >= 6
	reg.setSR(srMD | 6<<4)
	tm.cpu.refreshInterrupts()
	assert.Zero(t, tm.cpu.pendingInterrupt())

	// 0xF idles the bus
	reg.setSR(srMD)
	tm.cpu.SetIRL(0xF)
	assert.Zero(t, tm.cpu.pendingInterrupt())
}
