package sh4

import (
	"fmt"
	"log/slog"

	"github.com/katana-dc/go-katana/katana/memory"
)

// Control register addresses in the P4 area.
const (
	regPTEH   = 0xFF000000
	regPTEL   = 0xFF000004
	regTTB    = 0xFF000008
	regTEA    = 0xFF00000C
	regMMUCR  = 0xFF000010
	regBASRA  = 0xFF000014
	regBASRB  = 0xFF000018
	regCCR    = 0xFF00001C
	regTRA    = 0xFF000020
	regEXPEVT = 0xFF000024
	regINTEVT = 0xFF000028
	regPTEA   = 0xFF000034
	regQACR0  = 0xFF000038
	regQACR1  = 0xFF00003C

	regDMACBase = 0xFFA00000
	regDMAOR    = 0xFFA00040

	regFRQCR  = 0xFFC00000
	regSTBCR  = 0xFFC00004
	regSTBCR2 = 0xFFC00010

	regICR  = 0xFFD00000
	regIPRA = 0xFFD00004
	regIPRB = 0xFFD00008
	regIPRC = 0xFFD0000C
	regIPRD = 0xFFD00010

	regTOCR  = 0xFFD80000
	regTSTR  = 0xFFD80004
	regTMUCh = 0xFFD80008 // TCOR0; channels at 12-byte stride
	regTCPR2 = 0xFFD8002C

	regSCSMR2  = 0xFFE80000
	regSCBRR2  = 0xFFE80004
	regSCSCR2  = 0xFFE80008
	regSCFTDR2 = 0xFFE8000C
	regSCFSR2  = 0xFFE80010
	regSCFRDR2 = 0xFFE80014
	regSCFCR2  = 0xFFE80018
	regSCFDR2  = 0xFFE8001C
	regSCSPTR2 = 0xFFE80020
	regSCLSR2  = 0xFFE80024
)

// p4Class buckets a P4 address into the sub-window it belongs to.
func p4Class(addr uint32) uint32 {
	switch {
	case addr < 0xE4000000:
		return p4StoreQueue
	case addr >= 0xF0000000 && addr < 0xF2000000:
		return p4ICacheArray
	case addr >= 0xF2000000 && addr < 0xF3000000:
		return p4ITLBAddr
	case addr >= 0xF3000000 && addr < 0xF4000000:
		return p4ITLBData
	case addr >= 0xF4000000 && addr < 0xF6000000:
		return p4OCacheArray
	case addr >= 0xF6000000 && addr < 0xF7000000:
		return p4UTLBAddr
	case addr >= 0xF7000000 && addr < 0xF8000000:
		return p4UTLBData
	case addr >= 0xFF000000:
		return p4CtrlRegs
	default:
		return p4Unmapped
	}
}

const (
	p4StoreQueue = iota
	p4ICacheArray
	p4ITLBAddr
	p4ITLBData
	p4OCacheArray
	p4UTLBAddr
	p4UTLBData
	p4CtrlRegs
	p4Unmapped
)

// The SH4 itself is the memory.Device for the whole P4 area.

func (c *SH4) Read32(addr uint32) (uint32, error) {
	switch p4Class(addr) {
	case p4StoreQueue:
		return c.oc.sqRead32(addr), nil
	case p4ICacheArray, p4OCacheArray:
		// address/data array reads have no backing storage
		return 0, nil
	case p4ITLBAddr:
		return c.mmu.itlbAddrRead(addr), nil
	case p4ITLBData:
		return c.mmu.itlbDataRead(addr), nil
	case p4UTLBAddr:
		return c.mmu.utlbAddrRead(addr), nil
	case p4UTLBData:
		return c.mmu.utlbDataRead(addr), nil
	case p4CtrlRegs:
		return c.regRead32(addr)
	default:
		return 0, memory.AccessError{Addr: addr, Size: 4}
	}
}

func (c *SH4) Write32(addr uint32, v uint32) error {
	switch p4Class(addr) {
	case p4StoreQueue:
		c.oc.sqWrite32(addr, v)
		return nil
	case p4ICacheArray:
		if c.OnICacheInvalidate != nil {
			c.OnICacheInvalidate()
		}
		return nil
	case p4OCacheArray:
		return nil
	case p4ITLBAddr:
		c.mmu.itlbAddrWrite(addr, v)
		return nil
	case p4ITLBData:
		c.mmu.itlbDataWrite(addr, v)
		return nil
	case p4UTLBAddr:
		c.mmu.utlbAddrWrite(addr, v)
		return nil
	case p4UTLBData:
		c.mmu.utlbDataWrite(addr, v)
		return nil
	case p4CtrlRegs:
		return c.regWrite32(addr, v)
	default:
		return memory.AccessError{Addr: addr, Size: 4, Write: true}
	}
}

func (c *SH4) Read16(addr uint32) (uint16, error) {
	if p4Class(addr) == p4StoreQueue {
		return c.oc.sqRead16(addr), nil
	}
	if p4Class(addr) == p4CtrlRegs {
		return c.regRead16(addr)
	}
	return 0, memory.AccessError{Addr: addr, Size: 2}
}

func (c *SH4) Write16(addr uint32, v uint16) error {
	if p4Class(addr) == p4StoreQueue {
		c.oc.sqWrite16(addr, v)
		return nil
	}
	if p4Class(addr) == p4CtrlRegs {
		return c.regWrite16(addr, v)
	}
	return memory.AccessError{Addr: addr, Size: 2, Write: true}
}

func (c *SH4) Read8(addr uint32) (uint8, error) {
	if p4Class(addr) == p4StoreQueue {
		return c.oc.sqRead8(addr), nil
	}
	if p4Class(addr) == p4CtrlRegs {
		return c.regRead8(addr)
	}
	return 0, memory.AccessError{Addr: addr, Size: 1}
}

func (c *SH4) Write8(addr uint32, v uint8) error {
	if p4Class(addr) == p4StoreQueue {
		c.oc.sqWrite8(addr, v)
		return nil
	}
	if p4Class(addr) == p4CtrlRegs {
		return c.regWrite8(addr, v)
	}
	return memory.AccessError{Addr: addr, Size: 1, Write: true}
}

// --- control register dispatch -----------------------------------------

func (c *SH4) regRead32(addr uint32) (uint32, error) {
	r := &c.reg
	switch addr {
	case regPTEH:
		return r.PTEH, nil
	case regPTEL:
		return r.PTEL, nil
	case regPTEA:
		return r.PTEA, nil
	case regTTB:
		return r.TTB, nil
	case regTEA:
		return r.TEA, nil
	case regMMUCR:
		return r.MMUCR, nil
	case regCCR:
		return r.CCR, nil
	case regTRA:
		return r.TRA, nil
	case regEXPEVT:
		return r.EXPEVT, nil
	case regINTEVT:
		return r.INTEVT, nil
	case regQACR0:
		return r.QACR0, nil
	case regQACR1:
		return r.QACR1, nil
	case regBASRA, regBASRB:
		return c.p4misc[addr], nil
	case regDMAOR:
		return c.Dmac.dmaor, nil
	}

	if addr >= regDMACBase && addr < regDMAOR {
		off := addr - regDMACBase
		return c.Dmac.readReg(int(off/0x10), off%0x10), nil
	}
	if addr >= regTMUCh && addr < regTCPR2 {
		off := addr - regTMUCh
		ch := int(off / 12)
		switch off % 12 {
		case 0:
			return c.tmu.readTCOR(ch), nil
		case 4:
			return c.tmu.readTCNT(ch), nil
		case 8:
			return uint32(c.tmu.readTCR(ch)), nil
		}
	}
	if addr == regTCPR2 {
		return c.tmu.tcpr2, nil
	}

	slog.Debug("On-chip register read (stub)", "addr", fmt.Sprintf("0x%08X", addr))
	return c.p4misc[addr], nil
}

func (c *SH4) regWrite32(addr uint32, v uint32) error {
	r := &c.reg
	switch addr {
	case regPTEH:
		r.PTEH = v
		return nil
	case regPTEL:
		r.PTEL = v
		return nil
	case regPTEA:
		r.PTEA = v
		return nil
	case regTTB:
		r.TTB = v
		return nil
	case regTEA:
		r.TEA = v
		return nil
	case regMMUCR:
		if v&mmucrTI != 0 {
			c.mmu.reset()
			v &^= mmucrTI
		}
		r.MMUCR = v
		return nil
	case regCCR:
		if v&ccrICI != 0 {
			if c.OnICacheInvalidate != nil {
				c.OnICacheInvalidate()
			}
			v &^= ccrICI
		}
		r.CCR = v
		return nil
	case regTRA:
		r.TRA = v
		return nil
	case regEXPEVT:
		r.EXPEVT = v
		return nil
	case regINTEVT:
		r.INTEVT = v
		return nil
	case regQACR0:
		r.QACR0 = v
		return nil
	case regQACR1:
		r.QACR1 = v
		return nil
	case regDMAOR:
		c.Dmac.dmaor = v
		return nil
	}

	if addr >= regDMACBase && addr < regDMAOR {
		off := addr - regDMACBase
		c.Dmac.writeReg(int(off/0x10), off%0x10, v)
		return nil
	}
	if addr >= regTMUCh && addr < regTCPR2 {
		off := addr - regTMUCh
		ch := int(off / 12)
		switch off % 12 {
		case 0:
			c.tmu.writeTCOR(ch, v)
			return nil
		case 4:
			c.tmu.writeTCNT(ch, v)
			return nil
		case 8:
			c.tmu.writeTCR(ch, uint16(v))
			return nil
		}
	}
	if addr == regTCPR2 {
		c.tmu.tcpr2 = v
		return nil
	}

	slog.Debug("On-chip register write (stub)", "addr", fmt.Sprintf("0x%08X", addr), "value", fmt.Sprintf("0x%08X", v))
	c.p4misc[addr] = v
	return nil
}

func (c *SH4) regRead16(addr uint32) (uint16, error) {
	r := &c.reg
	switch addr {
	case regICR:
		return uint16(r.ICR), nil
	case regIPRA:
		return uint16(r.IPRA), nil
	case regIPRB:
		return uint16(r.IPRB), nil
	case regIPRC:
		return uint16(r.IPRC), nil
	case regIPRD:
		return uint16(r.IPRD), nil
	case regSCSMR2:
		return c.Scif.scsmr, nil
	case regSCSCR2:
		return c.Scif.scscr, nil
	case regSCFSR2:
		return c.Scif.readSCFSR(), nil
	case regSCFCR2:
		return c.Scif.scfcr, nil
	case regSCFDR2:
		return c.Scif.readSCFDR(), nil
	case regSCSPTR2:
		return c.Scif.scsptr, nil
	case regSCLSR2:
		return c.Scif.sclsr, nil
	case regFRQCR:
		return uint16(c.p4misc[addr]), nil
	}

	if addr >= regTMUCh && addr < regTCPR2 {
		off := addr - regTMUCh
		if off%12 == 8 {
			return c.tmu.readTCR(int(off / 12)), nil
		}
	}

	v, err := c.regRead32(addr)
	return uint16(v), err
}

func (c *SH4) regWrite16(addr uint32, v uint16) error {
	r := &c.reg
	switch addr {
	case regICR:
		r.ICR = uint32(v)
		c.refreshInterrupts()
		return nil
	case regIPRA:
		r.IPRA = uint32(v)
		c.refreshInterrupts()
		return nil
	case regIPRB:
		r.IPRB = uint32(v)
		c.refreshInterrupts()
		return nil
	case regIPRC:
		r.IPRC = uint32(v)
		c.refreshInterrupts()
		return nil
	case regIPRD:
		r.IPRD = uint32(v)
		c.refreshInterrupts()
		return nil
	case regSCSMR2:
		c.Scif.scsmr = v
		return nil
	case regSCSCR2:
		c.Scif.writeSCSCR(v)
		return nil
	case regSCFSR2:
		c.Scif.writeSCFSR(v)
		return nil
	case regSCFCR2:
		c.Scif.writeSCFCR(v)
		return nil
	case regSCSPTR2:
		c.Scif.scsptr = v
		return nil
	case regSCLSR2:
		c.Scif.sclsr = v
		return nil
	case regFRQCR:
		c.p4misc[addr] = uint32(v)
		return nil
	}

	if addr >= regTMUCh && addr < regTCPR2 {
		off := addr - regTMUCh
		if off%12 == 8 {
			c.tmu.writeTCR(int(off/12), v)
			return nil
		}
	}

	return c.regWrite32(addr, uint32(v))
}

func (c *SH4) regRead8(addr uint32) (uint8, error) {
	switch addr {
	case regTSTR:
		return c.tmu.readTSTR(), nil
	case regTOCR:
		return c.tmu.tocr, nil
	case regSTBCR:
		return uint8(c.reg.STBCR), nil
	case regSTBCR2:
		return uint8(c.reg.STBCR2), nil
	case regSCBRR2:
		return c.Scif.scbrr, nil
	case regSCFRDR2:
		return c.Scif.readSCFRDR(), nil
	}
	v, err := c.regRead32(addr)
	return uint8(v), err
}

func (c *SH4) regWrite8(addr uint32, v uint8) error {
	switch addr {
	case regTSTR:
		c.tmu.writeTSTR(v)
		return nil
	case regTOCR:
		c.tmu.tocr = v
		return nil
	case regSTBCR:
		c.reg.STBCR = uint32(v)
		return nil
	case regSTBCR2:
		c.reg.STBCR2 = uint32(v)
		return nil
	case regSCBRR2:
		c.Scif.scbrr = v
		return nil
	case regSCFTDR2:
		c.Scif.writeSCFTDR(v)
		return nil
	}
	return c.regWrite32(addr, uint32(v))
}
