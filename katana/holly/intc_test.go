package holly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIntc() (*Intc, *uint32) {
	h := NewIntc()
	irl := uint32(0xF)
	h.SetIRL = func(v uint32) { irl = v }
	return h, &irl
}

func TestIntcLevels(t *testing.T) {
	t.Run("level 6 mask drives IRL 0x9", func(t *testing.T) {
		h, irl := newTestIntc()
		require.NoError(t, h.Write32(0x005F6930, 1<<NrmIntVBlankIn)) // IML6NRM
		h.RaiseNrm(NrmIntVBlankIn)
		assert.Equal(t, uint32(0x9), *irl)
	})

	t.Run("level 4 mask drives IRL 0xB", func(t *testing.T) {
		h, irl := newTestIntc()
		require.NoError(t, h.Write32(0x005F6920, 1<<NrmIntChannel2DMA))
		h.RaiseNrm(NrmIntChannel2DMA)
		assert.Equal(t, uint32(0xB), *irl)
	})

	t.Run("level 2 mask drives IRL 0xD", func(t *testing.T) {
		h, irl := newTestIntc()
		require.NoError(t, h.Write32(0x005F6910, 1<<NrmIntHBlank))
		h.RaiseNrm(NrmIntHBlank)
		assert.Equal(t, uint32(0xD), *irl)
	})

	t.Run("unmasked pending drives nothing", func(t *testing.T) {
		h, irl := newTestIntc()
		h.RaiseNrm(NrmIntHBlank)
		assert.Equal(t, uint32(0xF), *irl)
	})

	t.Run("the highest level wins across groups", func(t *testing.T) {
		h, irl := newTestIntc()
		require.NoError(t, h.Write32(0x005F6910, 1<<NrmIntHBlank))  // level 2
		require.NoError(t, h.Write32(0x005F6934, 1<<ExtIntGdrom))   // level 6, ext
		h.RaiseNrm(NrmIntHBlank)
		assert.Equal(t, uint32(0xD), *irl)
		h.RaiseExt(ExtIntGdrom)
		assert.Equal(t, uint32(0x9), *irl)

		// dropping the high one falls back, never latches stale state
		h.ClearExt(ExtIntGdrom)
		assert.Equal(t, uint32(0xD), *irl)
	})
}

func TestIntcStatusRegisters(t *testing.T) {
	t.Run("ISTNRM is write-one-to-clear", func(t *testing.T) {
		h, irl := newTestIntc()
		require.NoError(t, h.Write32(0x005F6920, 1<<NrmIntVBlankIn))
		h.RaiseNrm(NrmIntVBlankIn)
		require.Equal(t, uint32(0xB), *irl)

		require.NoError(t, h.Write32(0x005F6900, 1<<NrmIntVBlankIn))
		v, err := h.Read32(0x005F6900)
		require.NoError(t, err)
		assert.Zero(t, v&(1<<NrmIntVBlankIn))
		assert.Equal(t, uint32(0xF), *irl)
	})

	t.Run("ISTEXT is read-only from software", func(t *testing.T) {
		h, _ := newTestIntc()
		h.RaiseExt(ExtIntGdrom)
		require.NoError(t, h.Write32(0x005F6904, 1<<ExtIntGdrom))
		v, err := h.Read32(0x005F6904)
		require.NoError(t, err)
		assert.NotZero(t, v&(1<<ExtIntGdrom))
	})

	t.Run("ISTNRM summarizes the other groups in bits 30-31", func(t *testing.T) {
		h, _ := newTestIntc()
		h.RaiseExt(ExtIntGdrom)
		v, _ := h.Read32(0x005F6900)
		assert.NotZero(t, v&(1<<30))
		assert.Zero(t, v&(1<<31))
	})

	t.Run("the system block rejects narrow accesses", func(t *testing.T) {
		h, _ := newTestIntc()
		_, err := h.Read16(0x005F6900)
		assert.Error(t, err)
		assert.Error(t, h.Write8(0x005F6900, 1))
	})
}

func TestIntcCh2Kick(t *testing.T) {
	h, _ := newTestIntc()

	var gotDest, gotLen uint32
	h.StartCh2DMA = func(dest, length uint32) error {
		gotDest, gotLen = dest, length
		return nil
	}

	require.NoError(t, h.Write32(0x005F6800, 0x10000000)) // C2DSTAT
	require.NoError(t, h.Write32(0x005F6804, 128))        // C2DLEN
	require.NoError(t, h.Write32(0x005F6808, 1))          // C2DST
	assert.Equal(t, uint32(0x10000000), gotDest)
	assert.Equal(t, uint32(128), gotLen)

	// writing zero does not kick
	gotLen = 0
	require.NoError(t, h.Write32(0x005F6808, 0))
	assert.Zero(t, gotLen)
}
