package sh4

import (
	"fmt"
	"log/slog"
)

// ExceptionCode is the value the CPU latches into EXPEVT or INTEVT when
// it enters an exception.
type ExceptionCode uint32

const (
	// reset-type
	ExcpPowerOnReset    ExceptionCode = 0x000
	ExcpManualReset     ExceptionCode = 0x020
	ExcpInstTLBMultiHit ExceptionCode = 0x140
	ExcpDataTLBMultiHit ExceptionCode = 0x140

	// general, re-execution type
	ExcpInstAddrErr         ExceptionCode = 0x0E0
	ExcpInstTLBMiss         ExceptionCode = 0x040
	ExcpInstTLBProtViol     ExceptionCode = 0x0A0
	ExcpGenIllegalInst      ExceptionCode = 0x180
	ExcpSlotIllegalInst     ExceptionCode = 0x1A0
	ExcpGenFPUDisable       ExceptionCode = 0x800
	ExcpSlotFPUDisable      ExceptionCode = 0x820
	ExcpDataAddrRead        ExceptionCode = 0x0E0
	ExcpDataAddrWrite       ExceptionCode = 0x100
	ExcpDataTLBReadMiss     ExceptionCode = 0x040
	ExcpDataTLBWriteMiss    ExceptionCode = 0x060
	ExcpDataTLBReadProtViol ExceptionCode = 0x0A0
	ExcpDataTLBWritePV      ExceptionCode = 0x0C0
	ExcpFPU                 ExceptionCode = 0x120
	ExcpInitialPageWrite    ExceptionCode = 0x080

	// general, completion type
	ExcpUnconditionalTrap ExceptionCode = 0x160

	// interrupts
	ExcpNMI  ExceptionCode = 0x1C0
	ExcpExt0 ExceptionCode = 0x200
	// ExcpExt0 + 0x20*n for n in 1..14

	// peripheral module interrupts
	ExcpTMU0TUNI0 ExceptionCode = 0x400
	ExcpTMU1TUNI1 ExceptionCode = 0x420
	ExcpTMU2TUNI2 ExceptionCode = 0x440
	ExcpDMACDMTE0 ExceptionCode = 0x640
	ExcpDMACDMTE1 ExceptionCode = 0x660
	ExcpDMACDMTE2 ExceptionCode = 0x680
	ExcpDMACDMTE3 ExceptionCode = 0x6A0
	ExcpDMACDMAE  ExceptionCode = 0x6C0
	ExcpSCIFERI   ExceptionCode = 0x700
	ExcpSCIFRXI   ExceptionCode = 0x720
	ExcpSCIFBRI   ExceptionCode = 0x740
	ExcpSCIFTXI   ExceptionCode = 0x760
)

// Trap is the typed reason a memory access or instruction failed. The
// dispatch loop converts it into an architectural exception and restarts.
type Trap struct {
	Code ExceptionCode
}

func (t *Trap) Error() string {
	return fmt.Sprintf("sh4 exception 0x%03X", uint32(t.Code))
}

func trap(code ExceptionCode) *Trap {
	return &Trap{Code: code}
}

// irqLine identifies one interrupt input to the on-chip controller.
type irqLine int

const (
	irqTMU0 irqLine = iota
	irqTMU1
	irqTMU2
	irqSCIF
	irqDMAC
	irqIRL0
	irqIRL1
	irqIRL2
	irqIRL3
	irqLineCount
)

// intc is the interrupt controller state: one pending exception code per
// line (0 = idle) plus the encoded external IRL bus value.
type intc struct {
	lines [irqLineCount]ExceptionCode

	// active-low IRL bus value, 0xF = nothing pending. Only consulted
	// when ICR.IRLM is clear (encoded mode).
	irlVal uint32

	pending     bool
	pendingCode ExceptionCode
	pendingPrio uint32
}

func (ic *intc) reset() {
	*ic = intc{irlVal: 0xF}
}

// SetInterrupt latches code onto an interrupt line. Code 0 idles the line.
func (c *SH4) SetInterrupt(line irqLine, code ExceptionCode) {
	c.intc.lines[line] = code
	c.refreshInterrupts()
}

// SetIRL drives all four external IRL pins at once with an active-low
// encoded value; 0xF means no external interrupt.
func (c *SH4) SetIRL(val uint32) {
	c.intc.irlVal = val & 0xF
	c.refreshInterrupts()
}

// linePriority returns the 4-bit priority programmed for a line in
// IPRA-IPRD.
func (c *SH4) linePriority(line irqLine) uint32 {
	switch line {
	case irqTMU0:
		return (c.reg.IPRA >> 12) & 0xF
	case irqTMU1:
		return (c.reg.IPRA >> 8) & 0xF
	case irqTMU2:
		return (c.reg.IPRA >> 4) & 0xF
	case irqSCIF:
		return (c.reg.IPRC >> 4) & 0xF
	case irqDMAC:
		return (c.reg.IPRC >> 8) & 0xF
	case irqIRL0:
		return (c.reg.IPRD >> 12) & 0xF
	case irqIRL1:
		return (c.reg.IPRD >> 8) & 0xF
	case irqIRL2:
		return (c.reg.IPRD >> 4) & 0xF
	case irqIRL3:
		return (c.reg.IPRD >> 0) & 0xF
	}
	return 0
}

// refreshInterrupts recomputes the single highest-priority pending
// interrupt. It must run after any write to SR, ICR, the IPR registers,
// or any interrupt line change.
func (c *SH4) refreshInterrupts() {
	ic := &c.intc
	ic.pending = false
	ic.pendingPrio = 0

	consider := func(code ExceptionCode, prio uint32) {
		if code == 0 {
			return
		}
		if !ic.pending || prio > ic.pendingPrio {
			ic.pending = true
			ic.pendingCode = code
			ic.pendingPrio = prio
		}
	}

	irlm := c.reg.ICR&(1<<7) != 0
	if irlm {
		// four independent lines with IPRD priorities
		consider(ic.lines[irqIRL0], c.linePriority(irqIRL0))
		consider(ic.lines[irqIRL1], c.linePriority(irqIRL1))
		consider(ic.lines[irqIRL2], c.linePriority(irqIRL2))
		consider(ic.lines[irqIRL3], c.linePriority(irqIRL3))
	} else if ic.irlVal != 0xF {
		// encoded bus: value v selects EXT_v with priority 15-v
		consider(ExcpExt0+ExceptionCode(0x20*ic.irlVal), 15-ic.irlVal)
	}

	for _, line := range []irqLine{irqTMU0, irqTMU1, irqTMU2, irqSCIF, irqDMAC} {
		consider(ic.lines[line], c.linePriority(line))
	}
}

// pendingInterrupt returns the interrupt to take now, honoring BL, IMASK
// and the delayed-branch atomicity rule, or 0.
func (c *SH4) pendingInterrupt() ExceptionCode {
	ic := &c.intc
	if !ic.pending || c.delayedPending {
		return 0
	}
	if c.reg.SR&srBL != 0 {
		return 0
	}
	if ic.pendingPrio <= c.reg.imask() {
		return 0
	}
	return ic.pendingCode
}

// acceptInterrupt clears the line whose code was just taken so it does
// not re-fire until the peripheral raises it again.
func (c *SH4) acceptInterrupt(code ExceptionCode) {
	ic := &c.intc
	if code >= ExcpExt0 && code <= ExcpExt0+0x20*14 && (c.reg.ICR&(1<<7)) == 0 {
		// IRL interrupts are level-triggered from Holly: the line stays
		// asserted until the aggregator drops it.
		return
	}
	for i := range ic.lines {
		if ic.lines[i] == code {
			ic.lines[i] = 0
		}
	}
	c.refreshInterrupts()
}

// enterException switches the CPU into its exception state for a
// re-execution or completion type exception.
func (c *SH4) enterException(code ExceptionCode) {
	r := &c.reg

	r.SSR = r.SR
	r.SPC = r.PC
	if c.inSlot {
		// the pair is atomic: resume at the branch, not the slot
		r.SPC = r.PC - 2
	}
	r.SGR = r.R[15]
	r.EXPEVT = uint32(code)

	r.setSR(r.SR | srBL | srMD | srRB)

	switch code {
	case ExcpPowerOnReset, ExcpManualReset, ExcpDataTLBMultiHit:
		// multi-hit is a reset-type exception
		r.PC = 0xA0000000
	case ExcpInstTLBMiss, ExcpDataTLBWriteMiss:
		// ExcpDataTLBReadMiss shares ExcpInstTLBMiss's code
		r.PC = r.VBR + 0x400
	default:
		r.PC = r.VBR + 0x100
	}

	c.delayedPending = false
	c.inSlot = false

	slog.Debug("CPU exception", "code", fmt.Sprintf("0x%03X", uint32(code)), "spc", fmt.Sprintf("0x%08X", r.SPC), "pc", fmt.Sprintf("0x%08X", r.PC))
}

// enterInterrupt switches the CPU into its interrupt state.
func (c *SH4) enterInterrupt(code ExceptionCode) {
	r := &c.reg

	r.SSR = r.SR
	r.SPC = r.PC
	r.SGR = r.R[15]
	r.INTEVT = uint32(code)

	sr := r.SR | srBL | srMD | srRB
	sr &^= srFD
	r.setSR(sr)

	r.PC = r.VBR + 0x600

	c.acceptInterrupt(code)

	slog.Debug("CPU interrupt", "code", fmt.Sprintf("0x%03X", uint32(code)), "spc", fmt.Sprintf("0x%08X", r.SPC))
}
