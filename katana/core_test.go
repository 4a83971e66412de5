package katana

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katana-dc/go-katana/katana/holly"
	"github.com/katana-dc/go-katana/katana/memory"
)

func writeTempImage(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.bin")
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func newDirectEmulator(t *testing.T) *Emulator {
	t.Helper()
	emu, err := New(Config{
		Boot:      BootDirect1stRead,
		ImagePath: writeTempImage(t, 64),
	})
	require.NoError(t, err)
	return emu
}

func TestConfigValidation(t *testing.T) {
	t.Run("firmware boot without a BIOS fails", func(t *testing.T) {
		_, err := New(Config{Boot: BootFirmware})
		assert.Error(t, err)
	})

	t.Run("direct boot without an image fails", func(t *testing.T) {
		_, err := New(Config{Boot: BootDirect1stRead})
		assert.Error(t, err)
	})

	t.Run("direct boot lands at the entry point", func(t *testing.T) {
		emu := newDirectEmulator(t)
		assert.Equal(t, uint32(0x8C010000), emu.CPU.Reg().PC)

		// the image is visible through the memory map
		v, err := emu.Mem.Read8(0x0C010001)
		require.NoError(t, err)
		assert.Equal(t, uint8(1), v)
	})
}

// TestChannel2DMAThroughHolly is the full system-block path: stage data in
// RAM, program the DMAC, kick SB_C2DST, and watch the fifo and the
// completion bit.
func TestChannel2DMAThroughHolly(t *testing.T) {
	emu := newDirectEmulator(t)

	const src = uint32(0x0C004000)
	var want []uint32
	for i := uint32(0); i < 32; i++ {
		w := 0x51000000 + i
		want = append(want, w)
		require.NoError(t, emu.Mem.Write32(src+i*4, w))
	}

	// SAR2, DMATCR2 and CHCR2 through the on-chip register window
	require.NoError(t, emu.Mem.Write32(0xFFA00020, src))
	require.NoError(t, emu.Mem.Write32(0xFFA00028, 4))
	require.NoError(t, emu.Mem.Write32(0xFFA0002C, 4<<4|1))

	// kick through the system block
	require.NoError(t, emu.Mem.Write32(0x005F6800, 0x10000000)) // SB_C2DSTAT
	require.NoError(t, emu.Mem.Write32(0x005F6804, 128))        // SB_C2DLEN
	require.NoError(t, emu.Mem.Write32(0x005F6808, 1))          // SB_C2DST

	assert.Equal(t, want, emu.Fifo.Words())

	// registers reflect completion
	chcr, err := emu.Mem.Read32(0xFFA0002C)
	require.NoError(t, err)
	assert.NotZero(t, chcr&2, "TE set")
	sar, _ := emu.Mem.Read32(0xFFA00020)
	assert.Equal(t, src+128, sar)
	tcr, _ := emu.Mem.Read32(0xFFA00028)
	assert.Zero(t, tcr)

	// Holly latched the completion bit
	assert.NotZero(t, emu.Intc.ISTNrm()&(1<<holly.NrmIntChannel2DMA))
}

// TestGuestProgramRuns executes a tiny program end to end through the real
// run loop.
func TestGuestProgramRuns(t *testing.T) {
	emu := newDirectEmulator(t)

	// mov #5,r0; add #3,r0; mov.l r0,@r1; sleep
	prog := []uint16{
		0xE005, // mov #5,r0
		0x7003, // add #3,r0
		0x2102, // mov.l r0,@r1
		0x001B, // sleep
	}
	buf := make([]byte, len(prog)*2)
	for i, w := range prog {
		binary.LittleEndian.PutUint16(buf[i*2:], w)
	}
	emu.RAM.Load(0x10000, buf)

	reg := emu.CPU.Reg()
	reg.R[1] = 0x8C020000

	require.NoError(t, emu.RunSlices(1))

	assert.Equal(t, uint32(8), reg.R[0])
	v, err := emu.Mem.Read32(0x0C020000)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), v)
}

// TestFlashPersistence checks that guest flash writes reach the backing
// file at shutdown.
func TestFlashPersistence(t *testing.T) {
	flashPath := filepath.Join(t.TempDir(), "flash.bin")
	img := make([]byte, memory.FlashSize)
	for i := range img {
		img[i] = 0xFF
	}
	require.NoError(t, os.WriteFile(flashPath, img, 0644))

	emu, err := New(Config{
		Boot:      BootDirect1stRead,
		ImagePath: writeTempImage(t, 32),
		FlashPath: flashPath,
	})
	require.NoError(t, err)

	require.NoError(t, emu.Mem.Write8(0x00200010, 0x12))
	emu.Stop()
	require.NoError(t, emu.RunSlices(1))

	saved, err := os.ReadFile(flashPath)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x12), saved[0x10])
}
