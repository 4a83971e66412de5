package sh4

import (
	"fmt"
	"log/slog"

	"github.com/katana-dc/go-katana/katana/sched"
)

// TCR bits
const (
	tcrTPSC uint16 = 7 << 0
	tcrUNIE uint16 = 1 << 5
	tcrUNF  uint16 = 1 << 8
)

// master cycles per peripheral clock tick (CPU clock / 4)
const periphClockDiv = sched.CPUClockDiv * 4

var tmuIrqLine = [3]irqLine{irqTMU0, irqTMU1, irqTMU2}

var tmuIrqCode = [3]ExceptionCode{ExcpTMU0TUNI0, ExcpTMU1TUNI1, ExcpTMU2TUNI2}

// tmuChan is one 32-bit countdown channel. tcnt is valid as of lastSync;
// the next underflow is always computed from the channel's own logical
// clock so scheduling jitter cannot accumulate.
type tmuChan struct {
	tcor, tcnt uint32
	tcr        uint16
	lastSync   sched.Stamp
	event      sched.Event
	unfRead    bool
}

type tmu struct {
	cpu   *SH4
	tstr  uint8
	tocr  uint8
	tcpr2 uint32
	ch    [3]tmuChan
}

func (t *tmu) init(c *SH4) {
	t.cpu = c
	for i := range t.ch {
		ch := &t.ch[i]
		ch.tcor = 0xFFFFFFFF
		ch.tcnt = 0xFFFFFFFF
		idx := i
		ch.event.Handler = func(ev *sched.Event) { t.onUnderflow(idx, ev) }
	}
}

// ticksPerCount converts one counter decrement into master cycles for the
// programmed prescaler.
func (t *tmu) ticksPerCount(ch *tmuChan) sched.Stamp {
	tpsc := ch.tcr & tcrTPSC
	var div sched.Stamp
	switch tpsc {
	case 0:
		div = 4
	case 1:
		div = 16
	case 2:
		div = 64
	case 3:
		div = 256
	case 4:
		div = 1024
	default:
		slog.Warn("TMU reserved clock source, counting at slowest rate", "tpsc", tpsc)
		div = 1024
	}
	return periphClockDiv * div
}

func (t *tmu) running(i int) bool {
	return t.tstr&(1<<i) != 0
}

// sync brings tcnt up to the current stamp, handling any underflows that
// already happened (a register access can observe the counter mid-flight
// before the scheduled event has fired).
func (t *tmu) sync(i int) {
	ch := &t.ch[i]
	now := t.cpu.clock.Cycles()
	if !t.running(i) {
		ch.lastSync = now
		return
	}

	tpc := t.ticksPerCount(ch)
	elapsed := uint64((now - ch.lastSync) / tpc)
	ch.lastSync += sched.Stamp(elapsed) * tpc

	if elapsed <= uint64(ch.tcnt) {
		ch.tcnt -= uint32(elapsed)
		return
	}

	// at least one underflow
	rem := elapsed - uint64(ch.tcnt) - 1
	period := uint64(ch.tcor) + 1
	ch.tcnt = ch.tcor - uint32(rem%period)
	t.latchUnderflow(i)
}

func (t *tmu) latchUnderflow(i int) {
	ch := &t.ch[i]
	ch.tcr |= tcrUNF
	if ch.tcr&tcrUNIE != 0 {
		t.cpu.SetInterrupt(tmuIrqLine[i], tmuIrqCode[i])
	}
}

// reschedule points the channel's event at its next underflow, or cancels
// it when the channel is stopped.
func (t *tmu) reschedule(i int) {
	ch := &t.ch[i]
	if t.cpu.clock.Scheduled(&ch.event) {
		t.cpu.clock.Cancel(&ch.event)
	}
	if !t.running(i) {
		return
	}
	tpc := t.ticksPerCount(ch)
	ch.event.When = ch.lastSync + sched.Stamp(uint64(ch.tcnt)+1)*tpc
	t.cpu.clock.Schedule(&ch.event)
}

func (t *tmu) onUnderflow(i int, ev *sched.Event) {
	ch := &t.ch[i]
	ch.tcnt = ch.tcor
	ch.lastSync = ev.When
	t.latchUnderflow(i)
	t.reschedule(i)
	slog.Debug("TMU underflow", "channel", i, "reload", fmt.Sprintf("0x%08X", ch.tcor))
}

// --- register interface ------------------------------------------------

func (t *tmu) readTSTR() uint8 {
	return t.tstr
}

func (t *tmu) writeTSTR(v uint8) {
	old := t.tstr
	for i := 0; i < 3; i++ {
		bit := uint8(1) << i
		if old&bit == v&bit {
			continue
		}
		if v&bit != 0 {
			// starting: the counter picks up from its current value
			t.ch[i].lastSync = t.cpu.clock.Cycles()
			t.tstr |= bit
			t.reschedule(i)
		} else {
			// stopping: fold elapsed time in, then park the event
			t.sync(i)
			t.tstr &^= bit
			t.reschedule(i)
		}
	}
}

func (t *tmu) readTCNT(i int) uint32 {
	t.sync(i)
	return t.ch[i].tcnt
}

func (t *tmu) writeTCNT(i int, v uint32) {
	t.sync(i)
	t.ch[i].tcnt = v
	t.ch[i].lastSync = t.cpu.clock.Cycles()
	t.reschedule(i)
}

func (t *tmu) readTCOR(i int) uint32 {
	return t.ch[i].tcor
}

func (t *tmu) writeTCOR(i int, v uint32) {
	t.ch[i].tcor = v
}

func (t *tmu) readTCR(i int) uint16 {
	t.sync(i)
	ch := &t.ch[i]
	if ch.tcr&tcrUNF != 0 {
		ch.unfRead = true
	}
	return ch.tcr
}

func (t *tmu) writeTCR(i int, v uint16) {
	t.sync(i)
	ch := &t.ch[i]

	unf := ch.tcr & tcrUNF
	if unf != 0 && v&tcrUNF == 0 {
		// read-then-clear discipline on the underflow flag
		if ch.unfRead {
			unf = 0
			ch.unfRead = false
		}
	}
	ch.tcr = (v &^ tcrUNF) | unf

	if ch.tcr&tcrUNF != 0 && ch.tcr&tcrUNIE != 0 {
		t.cpu.SetInterrupt(tmuIrqLine[i], tmuIrqCode[i])
	} else {
		t.cpu.SetInterrupt(tmuIrqLine[i], 0)
	}

	t.reschedule(i)
}
