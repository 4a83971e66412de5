// Package holly models the slice of the Holly ASIC the CPU core depends
// on: the system-block interrupt aggregator, the sync pulse generator and
// the tile accelerator's write windows.
package holly

import (
	"fmt"
	"log/slog"

	"github.com/katana-dc/go-katana/katana/memory"
)

// NrmInt enumerates the normal-group interrupt sources.
type NrmInt uint

const (
	NrmIntPvrRenderComplete NrmInt = 2
	NrmIntVBlankIn          NrmInt = 3
	NrmIntVBlankOut         NrmInt = 4
	NrmIntHBlank            NrmInt = 5
	NrmIntPvrOpaqueComplete NrmInt = 7
	NrmIntMapleDMAComplete  NrmInt = 12
	NrmIntChannel2DMA       NrmInt = 19
)

// ExtInt enumerates the external-group interrupt sources.
type ExtInt uint

const (
	ExtIntGdrom ExtInt = 0
)

// system block register offsets within 0x005F6800-0x005F69FF
const (
	sbC2DStat = 0x005F6800
	sbC2DLen  = 0x005F6804
	sbC2DSt   = 0x005F6808
	sbLMMode0 = 0x005F6884
	sbLMMode1 = 0x005F6888
	sbFFSt    = 0x005F688C
	sbRev     = 0x005F689C
	sbISTNrm  = 0x005F6900
	sbISTExt  = 0x005F6904
	sbISTErr  = 0x005F6908
	sbIML2Nrm = 0x005F6910
	sbIML2Ext = 0x005F6914
	sbIML2Err = 0x005F6918
	sbIML4Nrm = 0x005F6920
	sbIML4Ext = 0x005F6924
	sbIML4Err = 0x005F6928
	sbIML6Nrm = 0x005F6930
	sbIML6Ext = 0x005F6934
	sbIML6Err = 0x005F6938
)

// Intc is the Holly interrupt aggregator plus the system-block register
// window it lives behind. It drives the SH4's external IRL lines through
// the SetIRL callback and kicks channel-2 DMA through StartCh2DMA.
type Intc struct {
	istNrm, istExt, istErr uint32

	iml2Nrm, iml2Ext, iml2Err uint32
	iml4Nrm, iml4Ext, iml4Err uint32
	iml6Nrm, iml6Ext, iml6Err uint32

	c2dStat uint32
	c2dLen  uint32

	other map[uint32]uint32

	// SetIRL drives the encoded active-low IRL value (0xF = no interrupt).
	SetIRL func(val uint32)

	// StartCh2DMA runs a channel-2 DMA burst to dest of length bytes.
	StartCh2DMA func(dest, length uint32) error
}

func NewIntc() *Intc {
	return &Intc{other: make(map[uint32]uint32)}
}

// RaiseNrm latches a normal-group interrupt and refreshes the IRL lines.
func (h *Intc) RaiseNrm(which NrmInt) {
	h.istNrm |= 1 << which
	h.refreshIRL()
}

// ClearNrm drops a normal-group interrupt (peripheral-side clear).
func (h *Intc) ClearNrm(which NrmInt) {
	h.istNrm &^= 1 << which
	h.refreshIRL()
}

// RaiseExt latches an external-group interrupt. External status bits stay
// set until the underlying device drops them; software cannot write them.
func (h *Intc) RaiseExt(which ExtInt) {
	h.istExt |= 1 << which
	h.refreshIRL()
}

func (h *Intc) ClearExt(which ExtInt) {
	h.istExt &^= 1 << which
	h.refreshIRL()
}

// ISTNrm exposes the raw normal-group status for tests and the monitor.
func (h *Intc) ISTNrm() uint32 {
	return h.istNrm
}

// refreshIRL recomputes the IRL value from every pending group. Level 6
// beats level 4 beats level 2; recomputing from scratch on each change
// means a stale lower level can never mask a newly raised higher one.
func (h *Intc) refreshIRL() {
	if h.SetIRL == nil {
		return
	}
	pend6 := h.istNrm&h.iml6Nrm | h.istExt&h.iml6Ext | h.istErr&h.iml6Err
	pend4 := h.istNrm&h.iml4Nrm | h.istExt&h.iml4Ext | h.istErr&h.iml4Err
	pend2 := h.istNrm&h.iml2Nrm | h.istExt&h.iml2Ext | h.istErr&h.iml2Err

	switch {
	case pend6 != 0:
		h.SetIRL(0x9)
	case pend4 != 0:
		h.SetIRL(0xB)
	case pend2 != 0:
		h.SetIRL(0xD)
	default:
		h.SetIRL(0xF)
	}
}

// The system block only decodes 32-bit accesses.

func (h *Intc) Read8(addr uint32) (uint8, error) {
	return 0, memory.AccessError{Addr: addr, Size: 1}
}

func (h *Intc) Read16(addr uint32) (uint16, error) {
	return 0, memory.AccessError{Addr: addr, Size: 2}
}

func (h *Intc) Write8(addr uint32, v uint8) error {
	return memory.AccessError{Addr: addr, Size: 1, Write: true}
}

func (h *Intc) Write16(addr uint32, v uint16) error {
	return memory.AccessError{Addr: addr, Size: 2, Write: true}
}

func (h *Intc) Read32(addr uint32) (uint32, error) {
	switch addr {
	case sbC2DStat:
		return h.c2dStat, nil
	case sbC2DLen:
		return h.c2dLen, nil
	case sbC2DSt:
		return 0, nil
	case sbRev:
		return 16, nil
	case sbFFSt:
		// FIFO status: always drained
		return 0, nil
	case sbISTNrm:
		// bits 30/31 summarize the other two groups
		out := h.istNrm & 0x3FFFFF
		if h.istExt != 0 {
			out |= 1 << 30
		}
		if h.istErr != 0 {
			out |= 1 << 31
		}
		return out, nil
	case sbISTExt:
		return h.istExt, nil
	case sbISTErr:
		return h.istErr, nil
	case sbIML2Nrm:
		return h.iml2Nrm, nil
	case sbIML2Ext:
		return h.iml2Ext, nil
	case sbIML2Err:
		return h.iml2Err, nil
	case sbIML4Nrm:
		return h.iml4Nrm, nil
	case sbIML4Ext:
		return h.iml4Ext, nil
	case sbIML4Err:
		return h.iml4Err, nil
	case sbIML6Nrm:
		return h.iml6Nrm, nil
	case sbIML6Ext:
		return h.iml6Ext, nil
	case sbIML6Err:
		return h.iml6Err, nil
	default:
		return h.other[addr], nil
	}
}

func (h *Intc) Write32(addr uint32, v uint32) error {
	switch addr {
	case sbC2DStat:
		h.c2dStat = v
	case sbC2DLen:
		h.c2dLen = v
	case sbC2DSt:
		if v != 0 {
			if h.StartCh2DMA == nil {
				return fmt.Errorf("holly: SB_C2DST kicked with no DMA engine wired")
			}
			return h.StartCh2DMA(h.c2dStat, h.c2dLen)
		}
	case sbISTNrm:
		// write-one-to-clear
		h.istNrm &^= v
		h.refreshIRL()
	case sbISTExt:
		// read-only from software
	case sbISTErr:
		h.istErr &^= v
		h.refreshIRL()
	case sbIML2Nrm:
		h.iml2Nrm = v
		h.refreshIRL()
	case sbIML2Ext:
		h.iml2Ext = v
		h.refreshIRL()
	case sbIML2Err:
		h.iml2Err = v
		h.refreshIRL()
	case sbIML4Nrm:
		h.iml4Nrm = v
		h.refreshIRL()
	case sbIML4Ext:
		h.iml4Ext = v
		h.refreshIRL()
	case sbIML4Err:
		h.iml4Err = v
		h.refreshIRL()
	case sbIML6Nrm:
		h.iml6Nrm = v
		h.refreshIRL()
	case sbIML6Ext:
		h.iml6Ext = v
		h.refreshIRL()
	case sbIML6Err:
		h.iml6Err = v
		h.refreshIRL()
	default:
		slog.Debug("System block register write", "addr", fmt.Sprintf("0x%08X", addr), "value", fmt.Sprintf("0x%08X", v))
		h.other[addr] = v
	}
	return nil
}
