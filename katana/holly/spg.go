package holly

import (
	"fmt"
	"log/slog"

	"github.com/katana-dc/go-katana/katana/memory"
	"github.com/katana-dc/go-katana/katana/sched"
)

// PVR core register offsets within 0x005F8000-0x005F9FFF.
const (
	pvrID        = 0x005F8000
	pvrRevision  = 0x005F8004
	pvrFbRCtrl   = 0x005F8044
	pvrSpgHblkIn = 0x005F80C8
	pvrSpgVblkIn = 0x005F80CC
	pvrSpgCtrl   = 0x005F80D0
	pvrSpgHblank = 0x005F80D4
	pvrSpgLoad   = 0x005F80D8
	pvrSpgVblank = 0x005F80DC
)

// vclkDiv converts master cycles to 54MHz video clock ticks.
const vclkDiv = sched.Frequency / 54000000

// SPG is the sync pulse generator. It walks a raster over
// HCOUNT x VCOUNT pixel positions and raises hblank / vblank-in /
// vblank-out interrupts on the aggregator at the programmed lines.
type SPG struct {
	clock *sched.Clock
	intc  *Intc

	regs map[uint32]uint32

	rasterX, rasterY uint32
	lastSync         sched.Stamp

	// pixel clock divider from FB_R_CTRL bit 23: 1 or 2 vclk ticks/pixel
	pclkDiv uint32

	hblankEvent    sched.Event
	vblankInEvent  sched.Event
	vblankOutEvent sched.Event
}

func NewSPG(clock *sched.Clock, intc *Intc) *SPG {
	s := &SPG{
		clock:   clock,
		intc:    intc,
		pclkDiv: 2,
		regs: map[uint32]uint32{
			pvrID:        0x17FD11DB,
			pvrRevision:  0x0011,
			pvrSpgHblkIn: 0x031D << 16,
			pvrSpgVblkIn: 0x00150104,
			pvrSpgHblank: 0x007E0345,
			pvrSpgVblank: 0x00150104,
			pvrSpgLoad:   (0x0106 << 16) | 0x0359,
		},
	}
	s.hblankEvent.Handler = s.onHblank
	s.vblankInEvent.Handler = s.onVblankIn
	s.vblankOutEvent.Handler = s.onVblankOut
	return s
}

// Start schedules the initial raster events. Call once after the clock is
// wired up.
func (s *SPG) Start() {
	s.sync()
	s.scheduleAll()
}

func (s *SPG) hcount() uint32 {
	return (s.regs[pvrSpgLoad] & 0x3FF) + 1
}

func (s *SPG) vcount() uint32 {
	return ((s.regs[pvrSpgLoad] >> 16) & 0x3FF) + 1
}

func (s *SPG) pixelTicks() sched.Stamp {
	return sched.Stamp(vclkDiv * s.pclkDiv)
}

// sync advances the raster position up to the current stamp.
func (s *SPG) sync() {
	per := s.pixelTicks()
	now := s.clock.Cycles()
	lastRounded := per * (s.lastSync / per)
	delta := now - lastRounded
	pixels := uint32(delta / per)

	if pixels > 0 {
		s.lastSync = now
		s.rasterX += pixels
		s.rasterY += s.rasterX / s.hcount()
		s.rasterX %= s.hcount()
		s.rasterY %= s.vcount()
	}
}

func (s *SPG) unscheduleAll() {
	for _, ev := range []*sched.Event{&s.hblankEvent, &s.vblankInEvent, &s.vblankOutEvent} {
		if s.clock.Scheduled(ev) {
			s.clock.Cancel(ev)
		}
	}
}

func (s *SPG) scheduleAll() {
	s.scheduleHblank()
	s.scheduleLineEvent(&s.vblankInEvent, s.regs[pvrSpgVblkIn]&0x3FF)
	s.scheduleLineEvent(&s.vblankOutEvent, (s.regs[pvrSpgVblkIn]>>16)&0x3FF)
}

// scheduleHblank computes the pixel distance to the next hblank interrupt
// according to the mode field of SPG_HBLANK_INT.
func (s *SPG) scheduleHblank() {
	hcount := s.hcount()
	vcount := s.vcount()
	comp := s.regs[pvrSpgHblkIn] & 0x3FF
	mode := (s.regs[pvrSpgHblkIn] >> 12) & 3

	var pixels uint32
	switch mode {
	case 0: // once per frame, at line comp
		if comp <= s.rasterY {
			pixels = (vcount-s.rasterY+comp)*hcount - s.rasterX
		} else {
			pixels = (comp-s.rasterY)*hcount - s.rasterX
		}
	case 1: // every comp lines
		if comp == 0 {
			slog.Warn("SPG hblank mode 1 with zero line interval, suppressing")
			return
		}
		line := (1+(s.rasterY+1)/comp)*comp - 1
		if line < vcount {
			pixels = (line-s.rasterY)*hcount - s.rasterX
		} else {
			pixels = (vcount-s.rasterY+line)*hcount - s.rasterX
		}
	case 2: // every line
		pixels = hcount - s.rasterX
	default:
		slog.Warn("SPG hblank interrupt mode 3 is reserved, suppressing")
		return
	}

	per := s.pixelTicks()
	s.hblankEvent.When = per * (sched.Stamp(pixels) + s.clock.Cycles()/per)
	s.clock.Schedule(&s.hblankEvent)
}

func (s *SPG) scheduleLineEvent(ev *sched.Event, line uint32) {
	hcount := s.hcount()
	vcount := s.vcount()

	var lines uint32
	if s.rasterY < line {
		lines = line - s.rasterY
	} else {
		lines = vcount - s.rasterY + line
	}
	pixels := lines*hcount - s.rasterX

	per := s.pixelTicks()
	ev.When = per * (sched.Stamp(pixels) + s.clock.Cycles()/per)
	s.clock.Schedule(ev)
}

func (s *SPG) onHblank(*sched.Event) {
	s.sync()
	s.intc.RaiseNrm(NrmIntHBlank)
	s.scheduleHblank()
}

func (s *SPG) onVblankIn(*sched.Event) {
	s.sync()
	s.intc.RaiseNrm(NrmIntVBlankIn)
	s.scheduleLineEvent(&s.vblankInEvent, s.regs[pvrSpgVblkIn]&0x3FF)
}

func (s *SPG) onVblankOut(*sched.Event) {
	s.sync()
	s.intc.RaiseNrm(NrmIntVBlankOut)
	s.scheduleLineEvent(&s.vblankOutEvent, (s.regs[pvrSpgVblkIn]>>16)&0x3FF)
}

// The PVR core block decodes 32-bit accesses only.

func (s *SPG) Read8(addr uint32) (uint8, error) {
	return 0, memory.AccessError{Addr: addr, Size: 1}
}

func (s *SPG) Read16(addr uint32) (uint16, error) {
	return 0, memory.AccessError{Addr: addr, Size: 2}
}

func (s *SPG) Write8(addr uint32, v uint8) error {
	return memory.AccessError{Addr: addr, Size: 1, Write: true}
}

func (s *SPG) Write16(addr uint32, v uint16) error {
	return memory.AccessError{Addr: addr, Size: 2, Write: true}
}

func (s *SPG) Read32(addr uint32) (uint32, error) {
	return s.regs[addr], nil
}

func (s *SPG) Write32(addr uint32, v uint32) error {
	switch addr {
	case pvrID, pvrRevision:
		// read-only
		return nil
	case pvrSpgHblkIn, pvrSpgVblkIn, pvrSpgLoad, pvrSpgHblank, pvrSpgVblank, pvrSpgCtrl:
		s.sync()
		s.unscheduleAll()
		s.regs[addr] = v
		s.scheduleAll()
	case pvrFbRCtrl:
		s.regs[addr] = v
		div := uint32(2)
		if v&(1<<23) != 0 {
			div = 1
		}
		if div != s.pclkDiv {
			s.sync()
			s.unscheduleAll()
			s.pclkDiv = div
			s.scheduleAll()
		}
	default:
		slog.Debug("PVR core register write", "addr", fmt.Sprintf("0x%08X", addr), "value", fmt.Sprintf("0x%08X", v))
		s.regs[addr] = v
	}
	return nil
}
