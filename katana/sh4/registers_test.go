package sh4

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBankSwap(t *testing.T) {
	t.Run("flipping RB twice leaves R0-R7 unchanged", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		for trial := 0; trial < 64; trial++ {
			var r regFile
			r.reset()
			sr := rng.Uint32() | srMD
			r.setSR(sr)

			var before [8]uint32
			for i := range before {
				before[i] = rng.Uint32()
				r.R[i] = before[i]
			}

			r.setSR(sr ^ srRB)
			r.setSR(sr)

			for i := range before {
				assert.Equal(t, before[i], r.R[i], "trial %d register %d", trial, i)
			}
		}
	})

	t.Run("the shadow bank holds the other set", func(t *testing.T) {
		var r regFile
		r.reset()
		r.setSR(srMD) // RB=0

		for i := 0; i < 8; i++ {
			r.R[i] = uint32(i + 100)
			r.Rbank[i] = uint32(i + 200)
		}

		r.setSR(srMD | srRB)
		for i := 0; i < 8; i++ {
			assert.Equal(t, uint32(i+200), r.R[i])
			assert.Equal(t, uint32(i+100), r.Rbank[i])
		}
	})

	t.Run("R8-R15 are unaffected by bank flips", func(t *testing.T) {
		var r regFile
		r.reset()
		r.setSR(srMD)
		for i := 8; i < 16; i++ {
			r.R[i] = uint32(i)
		}
		r.setSR(srMD | srRB)
		for i := 8; i < 16; i++ {
			assert.Equal(t, uint32(i), r.R[i])
		}
	})
}

func TestFPUBankSwap(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 64; trial++ {
		var r regFile
		r.reset()
		fpscr := rng.Uint32() & 0x003FFFFF
		r.setFPSCR(fpscr)

		var before [16]uint32
		for i := range before {
			before[i] = rng.Uint32()
			r.FR[i] = before[i]
		}

		r.setFPSCR(fpscr ^ fpscrFR)
		r.setFPSCR(fpscr)

		for i := range before {
			assert.Equal(t, before[i], r.FR[i], "trial %d FR%d", trial, i)
		}
	}
}

func TestDoubleWordSwap(t *testing.T) {
	t.Run("double round-trips through DRn", func(t *testing.T) {
		rng := rand.New(rand.NewSource(99))
		var r regFile
		r.reset()
		for trial := 0; trial < 256; trial++ {
			bits := rng.Uint64()
			n := (trial % 8) * 2
			r.setDRBits(n, bits)
			assert.Equal(t, bits, r.getDRBits(n))
		}
	})

	t.Run("the 32-bit views hold the halves in swapped order", func(t *testing.T) {
		var r regFile
		r.reset()
		r.setDRBits(4, 0xAAAABBBB_CCCCDDDD)
		assert.Equal(t, uint32(0xCCCCDDDD), r.FR[4])
		assert.Equal(t, uint32(0xAAAABBBB), r.FR[5])
	})
}

func TestSRHelpers(t *testing.T) {
	var r regFile
	r.reset()

	r.setSR(srMD | 0x50) // IMASK=5
	assert.Equal(t, uint32(5), r.imask())
	assert.True(t, r.privileged())

	r.setT(true)
	assert.True(t, r.flagT())
	r.setT(false)
	assert.False(t, r.flagT())

	r.setSR(0)
	assert.False(t, r.privileged())
}
