package sh4

import (
	"fmt"
	"log/slog"

	"github.com/katana-dc/go-katana/katana/memory"
	"github.com/katana-dc/go-katana/katana/sched"
)

// CHCR bits
const (
	chcrDE uint32 = 1 << 0
	chcrTE uint32 = 1 << 1
	chcrIE uint32 = 1 << 2
	chcrTS uint32 = 7 << 4
)

// ProtocolFault is a guest operation the emulator refuses to model
// (real hardware hangs or behaves unusably). It is fatal.
type ProtocolFault struct {
	Feature string
	Detail  string
}

func (p ProtocolFault) Error() string {
	return fmt.Sprintf("protocol fault [%s]: %s", p.Feature, p.Detail)
}

var dmacIrqCode = [4]ExceptionCode{ExcpDMACDMTE0, ExcpDMACDMTE1, ExcpDMACDMTE2, ExcpDMACDMTE3}

// Dmac is the four-channel DMA controller. Channel 2 — the main-RAM to
// tile-accelerator burst engine — is the only one that moves data; the
// other channels expose their registers without simulating transfers.
type Dmac struct {
	cpu *SH4

	sar    [4]uint32
	dar    [4]uint32
	dmatcr [4]uint32
	chcr   [4]uint32
	dmaor  uint32

	// teRead tracks the read-then-clear discipline on each TE flag.
	teRead [4]bool

	completeEvent sched.Event

	// CompleteDelay is how many master cycles after the burst the
	// completion interrupt arrives. Real hardware has a small nonzero
	// latency; zero is fine for everything we run.
	CompleteDelay sched.Stamp

	// OnChannel2Complete lets the platform latch its own completion
	// status (Holly's CHANNEL2_DMA_COMPLETE bit).
	OnChannel2Complete func()
}

func (d *Dmac) init(c *SH4) {
	d.cpu = c
	d.completeEvent.Handler = d.onComplete
}

// unitSize decodes CHCR.TS for a channel.
func (d *Dmac) unitSize(ch int) uint32 {
	switch (d.chcr[ch] & chcrTS) >> 4 {
	case 0:
		return 8
	case 1:
		return 1
	case 2:
		return 2
	case 3:
		return 4
	case 4:
		return 32
	default:
		return 0
	}
}

// remapCh2Dest folds the mirror windows onto their canonical ranges and
// rejects anything outside the three permitted targets.
func remapCh2Dest(dest uint32) (uint32, error) {
	dest &= memory.PhysMask
	switch {
	case dest >= memory.TAFifoFirst && dest <= memory.TAFifoLast:
		return dest, nil
	case dest >= memory.TATex64First && dest <= memory.TATex64Last:
		return dest, nil
	case dest >= memory.TATex32First && dest <= memory.TATex32Last:
		return dest, nil
	case dest >= memory.TAFifoMirrorFirst && dest <= memory.TAFifoMirrorLast:
		return dest - (memory.TAFifoMirrorFirst - memory.TAFifoFirst), nil
	case dest >= memory.TATex64MirrorFirst && dest <= memory.TATex64MirrorLast:
		return dest - (memory.TATex64MirrorFirst - memory.TATex64First), nil
	default:
		return 0, ProtocolFault{
			Feature: "dmac-channel2-dest",
			Detail:  fmt.Sprintf("destination 0x%08X outside fifo/texture windows", dest),
		}
	}
}

// Channel2 performs the channel-2 burst: byteCount bytes from SAR[2] in
// main RAM into the polygon FIFO or a texture bus window.
func (d *Dmac) Channel2(dest uint32, byteCount uint32) error {
	if unit := d.unitSize(2); unit != 32 {
		return ProtocolFault{
			Feature: "dmac-channel2-unit",
			Detail:  fmt.Sprintf("transfer unit %d bytes, hardware requires 32", unit),
		}
	}
	if byteCount != 32*d.dmatcr[2] {
		return ProtocolFault{
			Feature: "dmac-channel2-len",
			Detail:  fmt.Sprintf("byte count %d does not match DMATCR2=%d", byteCount, d.dmatcr[2]),
		}
	}
	src := d.sar[2]
	if src&0x1F != 0 || dest&0x1F != 0 {
		return ProtocolFault{
			Feature: "dmac-channel2-align",
			Detail:  fmt.Sprintf("src 0x%08X / dest 0x%08X not 32-byte aligned", src, dest),
		}
	}
	canonical, err := remapCh2Dest(dest)
	if err != nil {
		return err
	}

	slog.Debug("Channel-2 DMA", "src", fmt.Sprintf("0x%08X", src), "dest", fmt.Sprintf("0x%08X", canonical), "bytes", byteCount)

	for off := uint32(0); off < byteCount; off += 4 {
		word, err := d.cpu.mem.Read32((src + off) & memory.PhysMask)
		if err != nil {
			return err
		}
		if err := d.cpu.mem.Write32(canonical+off, word); err != nil {
			return err
		}
	}

	d.chcr[2] |= chcrTE
	d.teRead[2] = false
	d.sar[2] = src + byteCount
	d.dmatcr[2] = 0

	// a nonzero CompleteDelay delivers completion through the scheduler;
	// a zero delay completes the transfer immediately
	if d.cpu.clock.Scheduled(&d.completeEvent) {
		d.cpu.clock.Cancel(&d.completeEvent)
	}
	d.completeEvent.When = d.cpu.clock.Cycles() + d.CompleteDelay
	if d.CompleteDelay == 0 {
		d.onComplete(&d.completeEvent)
	} else {
		d.cpu.clock.Schedule(&d.completeEvent)
	}
	return nil
}

func (d *Dmac) onComplete(*sched.Event) {
	if d.chcr[2]&chcrIE != 0 {
		d.cpu.SetInterrupt(irqDMAC, dmacIrqCode[2])
	}
	if d.OnChannel2Complete != nil {
		d.OnChannel2Complete()
	}
}

// --- register interface ------------------------------------------------

func (d *Dmac) readReg(ch int, off uint32) uint32 {
	switch off {
	case 0:
		return d.sar[ch]
	case 4:
		return d.dar[ch]
	case 8:
		return d.dmatcr[ch]
	case 12:
		v := d.chcr[ch]
		if v&chcrTE != 0 {
			d.teRead[ch] = true
		}
		return v
	}
	return 0
}

func (d *Dmac) writeReg(ch int, off uint32, v uint32) {
	switch off {
	case 0:
		d.sar[ch] = v
	case 4:
		d.dar[ch] = v
	case 8:
		d.dmatcr[ch] = v
	case 12:
		te := d.chcr[ch] & chcrTE
		if te != 0 && v&chcrTE == 0 {
			if d.teRead[ch] {
				te = 0
				d.teRead[ch] = false
				if ch == 2 {
					d.cpu.SetInterrupt(irqDMAC, 0)
				}
			}
		}
		d.chcr[ch] = (v &^ chcrTE) | te
	}
}
