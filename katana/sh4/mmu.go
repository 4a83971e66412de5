package sh4

import (
	"fmt"
	"log/slog"
)

// MMUCR bits
const (
	mmucrAT   uint32 = 1 << 0
	mmucrTI   uint32 = 1 << 2
	mmucrSV   uint32 = 1 << 8
	mmucrSQMD uint32 = 1 << 9
)

// page sizes, as encoded in the two SZ bits
const (
	pageSize1K uint8 = iota
	pageSize4K
	pageSize64K
	pageSize1M
)

func vpnMask(size uint8) uint32 {
	switch size {
	case pageSize1K:
		return 0xFFFFFC00
	case pageSize4K:
		return 0xFFFFF000
	case pageSize64K:
		return 0xFFFF0000
	case pageSize1M:
		return 0xFFF00000
	}
	return 0
}

// tlbEntry is one UTLB or ITLB slot. VPN and PPN hold full address bits
// (already shifted into place). The ITLB carries only the upper
// protection bit; the loader masks accordingly.
type tlbEntry struct {
	VPN   uint32
	PPN   uint32
	ASID  uint8
	Size  uint8
	Valid bool

	Shared    bool
	Dirty     bool
	Cacheable bool
	WT        bool
	Prot      uint8 // UTLB: bit1 = user ok, bit0 = writable
	SA        uint8
	TC        bool
}

func (e *tlbEntry) matches(vaddr uint32) bool {
	if !e.Valid {
		return false
	}
	m := vpnMask(e.Size)
	return vaddr&m == e.VPN&m
}

func (e *tlbEntry) translate(vaddr uint32) uint32 {
	m := vpnMask(e.Size)
	return (e.PPN & m) | (vaddr &^ m)
}

type mmu struct {
	utlb [64]tlbEntry
	itlb [4]tlbEntry
}

func (m *mmu) reset() {
	*m = mmu{}
}

func (m *mmu) enabled(r *regFile) bool {
	return r.MMUCR&mmucrAT != 0
}

// asidIgnored reports whether the ASID comparison is skipped for entry e:
// shared pages never compare, and a privileged CPU in single-VM mode
// matches every address space.
func (m *mmu) asidIgnored(e *tlbEntry, r *regFile) bool {
	return e.Shared || (r.MMUCR&mmucrSV != 0 && r.privileged())
}

// utlbSearch finds the unique matching UTLB entry. Exactly one of
// (entry, multiHit) is meaningful; no entry and no multi-hit is a miss.
func (m *mmu) utlbSearch(vaddr uint32, r *regFile) (ent *tlbEntry, multiHit bool) {
	asid := uint8(r.PTEH & 0xFF)
	for i := range m.utlb {
		e := &m.utlb[i]
		if !e.matches(vaddr) {
			continue
		}
		if !m.asidIgnored(e, r) && e.ASID != asid {
			continue
		}
		if ent != nil {
			return nil, true
		}
		ent = e
	}
	return ent, false
}

// recordMiss stores the failing VPN into PTEH and the faulting address
// into TEA before the miss exception is raised.
func (m *mmu) recordMiss(vaddr uint32, r *regFile) {
	r.PTEH = (r.PTEH & 0x3FF) | (vaddr & 0xFFFFFC00)
	r.TEA = vaddr
}

// translateData runs the UTLB translation for a load or store, raising
// the appropriate miss/multi-hit/protection exception on failure.
func (m *mmu) translateData(c *SH4, vaddr uint32, write bool) (uint32, error) {
	r := &c.reg
	c.bumpURC()
	ent, multi := m.utlbSearch(vaddr, r)
	if multi {
		return 0, trap(ExcpDataTLBMultiHit)
	}
	if ent == nil {
		m.recordMiss(vaddr, r)
		if write {
			return 0, trap(ExcpDataTLBWriteMiss)
		}
		return 0, trap(ExcpDataTLBReadMiss)
	}

	userOK := ent.Prot&2 != 0
	writable := ent.Prot&1 != 0

	if !r.privileged() && !userOK {
		m.recordMiss(vaddr, r)
		if write {
			return 0, trap(ExcpDataTLBWritePV)
		}
		return 0, trap(ExcpDataTLBReadProtViol)
	}
	if write {
		if !writable {
			m.recordMiss(vaddr, r)
			return 0, trap(ExcpDataTLBWritePV)
		}
		if !ent.Dirty {
			m.recordMiss(vaddr, r)
			return 0, trap(ExcpInitialPageWrite)
		}
	}

	return ent.translate(vaddr), nil
}

// translateInst runs the ITLB translation for an instruction fetch,
// refilling from the UTLB on miss.
func (m *mmu) translateInst(c *SH4, vaddr uint32) (uint32, error) {
	r := &c.reg
	asid := uint8(r.PTEH & 0xFF)

	var ent *tlbEntry
	var idx int
	for i := range m.itlb {
		e := &m.itlb[i]
		if !e.matches(vaddr) {
			continue
		}
		if !m.asidIgnored(e, r) && e.ASID != asid {
			continue
		}
		if ent != nil {
			return 0, trap(ExcpInstTLBMultiHit)
		}
		ent = e
		idx = i
	}

	if ent == nil {
		uent, multi := m.utlbSearch(vaddr, r)
		if multi {
			return 0, trap(ExcpInstTLBMultiHit)
		}
		if uent == nil {
			m.recordMiss(vaddr, r)
			return 0, trap(ExcpInstTLBMiss)
		}
		idx = m.itlbReplaceIdx(r)
		e := &m.itlb[idx]
		*e = *uent
		// the ITLB keeps only the upper protection bit
		e.Prot = uent.Prot & 2
		ent = e
	}

	if !r.privileged() && ent.Prot&2 == 0 {
		m.recordMiss(vaddr, r)
		return 0, trap(ExcpInstTLBProtViol)
	}

	m.itlbTouch(r, idx)
	return ent.translate(vaddr), nil
}

// itlbReplaceIdx decodes MMUCR.LRUI into the entry to evict, per the
// fixed encoding in the architecture manual.
func (m *mmu) itlbReplaceIdx(r *regFile) int {
	lrui := (r.MMUCR >> 26) & 0x3F
	switch {
	case lrui&0b111000 == 0b111000:
		return 0
	case lrui&0b100110 == 0b000110:
		return 1
	case lrui&0b010101 == 0b000001:
		return 2
	case lrui&0b001011 == 0b000000:
		return 3
	default:
		// inconsistent LRU state: hardware behavior is undefined, pick 0
		slog.Warn("Inconsistent ITLB LRU state", "lrui", fmt.Sprintf("0b%06b", lrui))
		return 0
	}
}

// itlbTouch updates MMUCR.LRUI after a hit on entry idx.
func (m *mmu) itlbTouch(r *regFile, idx int) {
	lrui := (r.MMUCR >> 26) & 0x3F
	switch idx {
	case 0:
		lrui &^= 0b111000
	case 1:
		lrui &^= 0b100110
		lrui |= 0b100000
	case 2:
		lrui &^= 0b010101
		lrui |= 0b010100
	case 3:
		lrui |= 0b001011
	}
	r.MMUCR = (r.MMUCR & ^uint32(0x3F<<26)) | (lrui << 26)
}

// loadTLB implements LDTLB: the UTLB entry indexed by MMUCR.URC is loaded
// from PTEH/PTEL/PTEA.
func (c *SH4) loadTLB() {
	r := &c.reg
	urc := int((r.MMUCR >> 10) & 0x3F)
	e := &c.mmu.utlb[urc]

	e.VPN = r.PTEH & 0xFFFFFC00
	e.ASID = uint8(r.PTEH & 0xFF)
	e.PPN = r.PTEL & 0x1FFFFC00
	e.Valid = r.PTEL&(1<<8) != 0
	e.Size = uint8((r.PTEL>>4)&1 | (r.PTEL>>6)&2)
	e.Prot = uint8((r.PTEL >> 5) & 3)
	e.Cacheable = r.PTEL&(1<<3) != 0
	e.Dirty = r.PTEL&(1<<2) != 0
	e.Shared = r.PTEL&(1<<1) != 0
	e.WT = r.PTEL&(1<<0) != 0
	e.SA = uint8(r.PTEA & 7)
	e.TC = r.PTEA&(1<<3) != 0
}

// bumpURC advances the UTLB replacement counter after an associative
// access, wrapping at URB when URB is nonzero.
func (c *SH4) bumpURC() {
	r := &c.reg
	urc := (r.MMUCR >> 10) & 0x3F
	urb := (r.MMUCR >> 18) & 0x3F
	urc++
	if urb != 0 && urc > urb {
		urc = 0
	}
	urc &= 0x3F
	r.MMUCR = (r.MMUCR &^ (uint32(0x3F) << 10)) | (urc << 10)
}

// --- P4 TLB array windows ----------------------------------------------

// UTLB address array layout: VPN[31:10] D[9] V[8] ASID[7:0], entry index
// in address bits 13:8.

func (m *mmu) utlbAddrRead(addr uint32) uint32 {
	e := &m.utlb[(addr>>8)&0x3F]
	v := e.VPN & 0xFFFFFC00
	if e.Dirty {
		v |= 1 << 9
	}
	if e.Valid {
		v |= 1 << 8
	}
	return v | uint32(e.ASID)
}

func (m *mmu) utlbAddrWrite(addr, val uint32) {
	if addr&(1<<7) != 0 {
		// associative writes would need a VPN search; firmware paths we
		// support use LDTLB and direct writes only
		slog.Warn("Associative UTLB address-array write ignored", "addr", fmt.Sprintf("0x%08X", addr))
		return
	}
	e := &m.utlb[(addr>>8)&0x3F]
	e.VPN = val & 0xFFFFFC00
	e.Dirty = val&(1<<9) != 0
	e.Valid = val&(1<<8) != 0
	e.ASID = uint8(val & 0xFF)
}

// UTLB data array 1 layout: PPN[28:10] V[8] SZ1[7] PR[6:5] SZ0[4] C[3]
// D[2] SH[1] WT[0].

func (m *mmu) utlbDataRead(addr uint32) uint32 {
	e := &m.utlb[(addr>>8)&0x3F]
	v := e.PPN & 0x1FFFFC00
	if e.Valid {
		v |= 1 << 8
	}
	v |= uint32(e.Size&2) << 6
	v |= uint32(e.Prot) << 5
	v |= uint32(e.Size&1) << 4
	if e.Cacheable {
		v |= 1 << 3
	}
	if e.Dirty {
		v |= 1 << 2
	}
	if e.Shared {
		v |= 1 << 1
	}
	if e.WT {
		v |= 1
	}
	return v
}

func (m *mmu) utlbDataWrite(addr, val uint32) {
	e := &m.utlb[(addr>>8)&0x3F]
	e.PPN = val & 0x1FFFFC00
	e.Valid = val&(1<<8) != 0
	e.Size = uint8((val>>4)&1 | (val>>6)&2)
	e.Prot = uint8((val >> 5) & 3)
	e.Cacheable = val&(1<<3) != 0
	e.Dirty = val&(1<<2) != 0
	e.Shared = val&(1<<1) != 0
	e.WT = val&(1<<0) != 0
}

// ITLB arrays: entry index in address bits 9:8.

func (m *mmu) itlbAddrRead(addr uint32) uint32 {
	e := &m.itlb[(addr>>8)&3]
	v := e.VPN & 0xFFFFFC00
	if e.Valid {
		v |= 1 << 8
	}
	return v | uint32(e.ASID)
}

func (m *mmu) itlbAddrWrite(addr, val uint32) {
	e := &m.itlb[(addr>>8)&3]
	e.VPN = val & 0xFFFFFC00
	e.Valid = val&(1<<8) != 0
	e.ASID = uint8(val & 0xFF)
}

func (m *mmu) itlbDataRead(addr uint32) uint32 {
	e := &m.itlb[(addr>>8)&3]
	v := e.PPN & 0x1FFFFC00
	if e.Valid {
		v |= 1 << 8
	}
	v |= uint32(e.Size&2) << 6
	v |= uint32(e.Prot&2) << 5
	v |= uint32(e.Size&1) << 4
	if e.Cacheable {
		v |= 1 << 3
	}
	if e.Shared {
		v |= 1 << 1
	}
	return v
}

func (m *mmu) itlbDataWrite(addr, val uint32) {
	e := &m.itlb[(addr>>8)&3]
	e.PPN = val & 0x1FFFFC00
	e.Valid = val&(1<<8) != 0
	e.Size = uint8((val>>4)&1 | (val>>6)&2)
	e.Prot = uint8((val >> 5) & 2)
	e.Cacheable = val&(1<<3) != 0
	e.Shared = val&(1<<1) != 0
}
