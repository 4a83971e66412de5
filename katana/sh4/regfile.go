// Package sh4 implements the SH-4 CPU core: register file, instruction
// engine, MMU, cache windows and the on-chip peripherals (TMU, DMAC,
// SCIF, interrupt controller).
package sh4

import "math"

// status register bits
const (
	srT     uint32 = 1 << 0
	srS     uint32 = 1 << 1
	srIMASK uint32 = 0xF << 4
	srQ     uint32 = 1 << 8
	srM     uint32 = 1 << 9
	srFD    uint32 = 1 << 15
	srBL    uint32 = 1 << 28
	srRB    uint32 = 1 << 29
	srMD    uint32 = 1 << 30
)

// FPSCR bits
const (
	fpscrRM     uint32 = 3 << 0
	fpscrDN     uint32 = 1 << 18
	fpscrPR     uint32 = 1 << 19
	fpscrSZ     uint32 = 1 << 20
	fpscrFR     uint32 = 1 << 21
	fpscrResetV uint32 = 0x00040001
)

const srResetVal uint32 = srMD | srRB | srBL | srIMASK

// regFile holds every architecturally visible register. R0-R7 always
// reflect the bank selected by SR.RB; the inactive bank lives in Rbank.
// Likewise FR is the bank selected by FPSCR.FR and XF the shadow.
type regFile struct {
	R     [16]uint32
	Rbank [8]uint32

	SR, SSR, SPC uint32
	GBR, VBR     uint32
	SGR, DBR     uint32
	PC, PR       uint32
	MACH, MACL   uint32

	FR    [16]uint32
	XF    [16]uint32
	FPSCR uint32
	FPUL  uint32

	// MMU / cache / exception control
	PTEH, PTEL, PTEA uint32
	TTB, TEA         uint32
	MMUCR            uint32
	CCR              uint32
	QACR0, QACR1     uint32
	TRA              uint32
	EXPEVT, INTEVT   uint32

	// INTC
	ICR                    uint32
	IPRA, IPRB, IPRC, IPRD uint32

	// CPG / standby
	STBCR, STBCR2 uint32
}

func (r *regFile) reset() {
	*r = regFile{}
	r.SR = srResetVal
	r.FPSCR = fpscrResetV
	r.PC = 0xA0000000
	r.EXPEVT = uint32(ExcpPowerOnReset)
}

// setSR keeps the bank-swap invariant: a write that flips RB
// exchanges R0-R7 with the shadow bank atomically.
func (r *regFile) setSR(val uint32) {
	oldRB := r.SR & srRB
	r.SR = val
	if (val&srRB != 0) != (oldRB != 0) {
		r.swapGenBanks()
	}
}

func (r *regFile) swapGenBanks() {
	for i := 0; i < 8; i++ {
		r.R[i], r.Rbank[i] = r.Rbank[i], r.R[i]
	}
}

// setFPSCR swaps the FR/XF banks when the FR bit flips.
func (r *regFile) setFPSCR(val uint32) {
	oldFR := r.FPSCR & fpscrFR
	r.FPSCR = val & 0x003FFFFF
	if (val&fpscrFR != 0) != (oldFR != 0) {
		r.FR, r.XF = r.XF, r.FR
	}
}

func (r *regFile) flagT() bool {
	return r.SR&srT != 0
}

func (r *regFile) setT(v bool) {
	if v {
		r.SR |= srT
	} else {
		r.SR &^= srT
	}
}

func (r *regFile) imask() uint32 {
	return (r.SR >> 4) & 0xF
}

func (r *regFile) privileged() bool {
	return r.SR&srMD != 0
}

func (r *regFile) fpuDouble() bool {
	return r.FPSCR&fpscrPR != 0
}

func (r *regFile) fpuPairMove() bool {
	return r.FPSCR&fpscrSZ != 0
}

// Double-precision registers are stored as two 32-bit words in swapped
// order: FR[n] holds the low half of the IEEE image and FR[n+1] the high
// half, so the pair in memory order is exactly the little-endian image.

func (r *regFile) getDRBits(n int) uint64 {
	n &= 0xE
	return uint64(r.FR[n+1])<<32 | uint64(r.FR[n])
}

func (r *regFile) setDRBits(n int, bits uint64) {
	n &= 0xE
	r.FR[n] = uint32(bits)
	r.FR[n+1] = uint32(bits >> 32)
}

func (r *regFile) getDR(n int) float64 {
	return math.Float64frombits(r.getDRBits(n))
}

func (r *regFile) setDR(n int, v float64) {
	r.setDRBits(n, math.Float64bits(v))
}

func (r *regFile) getFR(n int) float32 {
	return math.Float32frombits(r.FR[n])
}

func (r *regFile) setFR(n int, v float32) {
	r.FR[n] = math.Float32bits(v)
}

// Banked-register access for LDC/STC Rm_BANK: these always address the
// bank NOT selected by SR.RB, i.e. the shadow.
func (r *regFile) getBanked(n int) uint32 {
	return r.Rbank[n&7]
}

func (r *regFile) setBanked(n int, v uint32) {
	r.Rbank[n&7] = v
}
