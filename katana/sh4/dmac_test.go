package sh4

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katana-dc/go-katana/katana/memory"
)

// wordSink collects 32-bit writes in arrival order, standing in for the
// polygon FIFO.
type wordSink struct {
	words []uint32
}

func (s *wordSink) Read8(addr uint32) (uint8, error) {
	return 0, memory.AccessError{Addr: addr, Size: 1}
}
func (s *wordSink) Read16(addr uint32) (uint16, error) {
	return 0, memory.AccessError{Addr: addr, Size: 2}
}
func (s *wordSink) Read32(addr uint32) (uint32, error) {
	return 0, memory.AccessError{Addr: addr, Size: 4}
}
func (s *wordSink) Write8(addr uint32, v uint8) error {
	return memory.AccessError{Addr: addr, Size: 1, Write: true}
}
func (s *wordSink) Write16(addr uint32, v uint16) error {
	return memory.AccessError{Addr: addr, Size: 2, Write: true}
}
func (s *wordSink) Write32(addr uint32, v uint32) error {
	s.words = append(s.words, v)
	return nil
}

func newDMAMachine(t *testing.T) (*testMachine, *wordSink) {
	tm := newTestMachine(t)
	sink := &wordSink{}
	tm.mem.Add(memory.Region{
		Name:      "ta-fifo",
		First:     memory.TAFifoFirst,
		Last:      memory.TAFifoLast,
		RangeMask: memory.PhysMask,
		AddrMask:  0xFFFFFFFF,
		Dev:       sink,
	})
	return tm, sink
}

func TestChannel2DMA(t *testing.T) {
	t.Run("burst into the polygon fifo", func(t *testing.T) {
		tm, sink := newDMAMachine(t)
		d := &tm.cpu.Dmac

		const src = uint32(0x0C004000)
		var want []uint32
		for i := uint32(0); i < 32; i++ {
			w := 0xAB000000 + i
			want = append(want, w)
			require.NoError(t, tm.mem.Write32(src+i*4, w))
		}

		completed := 0
		d.OnChannel2Complete = func() { completed++ }

		d.writeReg(2, 0, src)      // SAR2
		d.writeReg(2, 8, 4)        // DMATCR2 = 4 transfers
		d.writeReg(2, 12, 4<<4|1)  // CHCR2: 32-byte units, enabled

		require.NoError(t, d.Channel2(0x10000000, 128))

		assert.Equal(t, want, sink.words)
		assert.NotZero(t, d.chcr[2]&chcrTE)
		assert.Equal(t, src+128, d.sar[2])
		assert.Zero(t, d.dmatcr[2])
		assert.Equal(t, 1, completed)
	})

	t.Run("mirror windows fold onto the canonical ranges", func(t *testing.T) {
		got, err := remapCh2Dest(0x13000000)
		require.NoError(t, err)
		assert.Equal(t, memory.TAFifoFirst, got)

		got, err = remapCh2Dest(0x11800000)
		require.NoError(t, err)
		assert.Equal(t, memory.TATex64First, got)
	})

	t.Run("wrong unit size is fatal", func(t *testing.T) {
		tm, _ := newDMAMachine(t)
		d := &tm.cpu.Dmac
		d.writeReg(2, 8, 4)
		d.writeReg(2, 12, 3<<4|1) // 4-byte units
		err := d.Channel2(0x10000000, 128)
		var pf ProtocolFault
		require.ErrorAs(t, err, &pf)
		assert.Equal(t, "dmac-channel2-unit", pf.Feature)
	})

	t.Run("byte count must match DMATCR2", func(t *testing.T) {
		tm, _ := newDMAMachine(t)
		d := &tm.cpu.Dmac
		d.writeReg(2, 8, 4)
		d.writeReg(2, 12, 4<<4|1)
		err := d.Channel2(0x10000000, 96)
		var pf ProtocolFault
		require.ErrorAs(t, err, &pf)
		assert.Equal(t, "dmac-channel2-len", pf.Feature)
	})

	t.Run("misalignment is fatal", func(t *testing.T) {
		tm, _ := newDMAMachine(t)
		d := &tm.cpu.Dmac
		d.writeReg(2, 0, 0x0C004010)
		d.writeReg(2, 8, 1)
		d.writeReg(2, 12, 4<<4|1)
		err := d.Channel2(0x10000000, 32)
		var pf ProtocolFault
		require.ErrorAs(t, err, &pf)
		assert.Equal(t, "dmac-channel2-align", pf.Feature)
	})

	t.Run("destination outside the windows is fatal", func(t *testing.T) {
		tm, _ := newDMAMachine(t)
		d := &tm.cpu.Dmac
		d.writeReg(2, 0, 0x0C004000)
		d.writeReg(2, 8, 1)
		d.writeReg(2, 12, 4<<4|1)
		err := d.Channel2(0x0C008000, 32)
		var pf ProtocolFault
		require.ErrorAs(t, err, &pf)
		assert.Equal(t, "dmac-channel2-dest", pf.Feature)
	})
}

func TestDmacTEDiscipline(t *testing.T) {
	tm, _ := newDMAMachine(t)
	d := &tm.cpu.Dmac

	const src = uint32(0x0C004000)
	d.writeReg(2, 0, src)
	d.writeReg(2, 8, 1)
	d.writeReg(2, 12, 4<<4|1)
	require.NoError(t, d.Channel2(0x10000000, 32))
	require.NotZero(t, d.chcr[2]&chcrTE)

	// clearing TE without reading it first is rejected
	d.writeReg(2, 12, 4<<4|1)
	assert.NotZero(t, d.chcr[2]&chcrTE)

	// after a read observes TE set, the clear sticks
	_ = d.readReg(2, 12)
	d.writeReg(2, 12, 4<<4|1)
	assert.Zero(t, d.chcr[2]&chcrTE)
}

func TestDmacCompleteDelay(t *testing.T) {
	tm, _ := newDMAMachine(t)
	d := &tm.cpu.Dmac
	d.CompleteDelay = 1000

	const src = uint32(0x0C004000)
	d.writeReg(2, 0, src)
	d.writeReg(2, 8, 1)
	d.writeReg(2, 12, 4<<4|1)

	completed := false
	d.OnChannel2Complete = func() { completed = true }

	require.NoError(t, d.Channel2(0x10000000, 32))
	assert.False(t, completed)

	// the completion arrives through the scheduler
	ev := tm.clock.Pop()
	require.NotNil(t, ev)
	assert.Equal(t, uint64(1000), uint64(ev.When))
	ev.Handler(ev)
	assert.True(t, completed)
}
