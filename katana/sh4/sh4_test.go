package sh4

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katana-dc/go-katana/katana/memory"
	"github.com/katana-dc/go-katana/katana/sched"
	"github.com/katana-dc/go-katana/katana/serial"
)

// testMachine is a CPU wired to a bare map: the P4 region plus main RAM.
type testMachine struct {
	cpu   *SH4
	mem   *memory.Map
	ram   *memory.RAM
	clock *sched.Clock
}

func newTestMachine(t *testing.T) *testMachine {
	t.Helper()
	m := memory.NewMap()
	clock := sched.NewClock()
	cpu := New(m, clock, serial.NewConduit())
	m.Add(cpu.MapRegion())

	ram := memory.NewRAM(memory.RAMSize)
	m.Add(memory.Region{
		Name:      "ram",
		First:     memory.RAMFirst,
		Last:      memory.RAMLast,
		RangeMask: memory.PhysMask,
		AddrMask:  0xFFFFFFFF,
		Dev:       ram,
	})

	return &testMachine{cpu: cpu, mem: m, ram: ram, clock: clock}
}

// loadProgram writes instruction words at a physical RAM address.
func (tm *testMachine) loadProgram(addr uint32, words []uint16) {
	buf := make([]byte, len(words)*2)
	for i, w := range words {
		binary.LittleEndian.PutUint16(buf[i*2:], w)
	}
	tm.ram.Load(addr&(memory.RAMSize-1), buf)
}

// runUntil steps the CPU until PC lands in [lo, hi). Events do not fire;
// use runSlicesUntil for anything timer-driven.
func (tm *testMachine) runUntil(t *testing.T, lo, hi uint32, maxSteps int) {
	t.Helper()
	for i := 0; i < maxSteps; i++ {
		pc := tm.cpu.Reg().PC
		if pc >= lo && pc < hi {
			return
		}
		tm.cpu.Step()
	}
	t.Fatalf("runUntil: PC=0x%08X never reached [0x%08X, 0x%08X) in %d steps",
		tm.cpu.Reg().PC, lo, hi, maxSteps)
}

// runSlicesUntil drives full scheduler timeslices (so events fire) until
// PC lands in [lo, hi).
func (tm *testMachine) runSlicesUntil(t *testing.T, lo, hi uint32, maxSlices int) {
	t.Helper()
	done := false
	tm.clock.Dispatch = func() bool {
		for tm.clock.Cycles() < tm.clock.TargetStamp() {
			pc := tm.cpu.Reg().PC
			if pc >= lo && pc < hi {
				done = true
				return false
			}
			tm.cpu.Step()
		}
		return true
	}
	for i := 0; i < maxSlices && !done; i++ {
		if !tm.clock.RunTimeslice() {
			break
		}
	}
	require.True(t, done, "PC=0x%08X never reached [0x%08X, 0x%08X)",
		tm.cpu.Reg().PC, lo, hi)
}
