package sh4

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/katana-dc/go-katana/katana/memory"
	"github.com/katana-dc/go-katana/katana/sched"
	"github.com/katana-dc/go-katana/katana/serial"
)

// SH4 is the CPU core plus its on-chip peripherals. All state is owned by
// the emulation thread; the only cross-thread traffic is the SCIF conduit.
type SH4 struct {
	reg  regFile
	intc intc
	mmu  mmu
	oc   ocache
	tmu  tmu
	Dmac Dmac
	Scif Scif

	mem   *memory.Map
	clock *sched.Clock

	// delayed-branch bookkeeping: a branch handler arms delayedPending
	// and the following instruction executes as the slot.
	delayedPending bool
	delayedTarget  uint32
	inSlot         bool
	pcSet          bool

	sleeping bool

	// dual-issue pairing state
	pairOpen  bool
	pairGroup issueGroup
	pairCost  uint32

	// miscellaneous on-chip registers we retain but do not act on
	p4misc map[uint32]uint32

	// OnICacheInvalidate fires when the guest writes the instruction
	// cache address array, so hosts mirroring the instruction stream
	// can flush.
	OnICacheInvalidate func()
}

// New wires a CPU to the memory map and clock. The caller must Add the
// returned core's P4 region to the map before the first instruction runs;
// see MapRegion.
func New(mem *memory.Map, clock *sched.Clock, conduit *serial.Conduit) *SH4 {
	c := &SH4{
		mem:    mem,
		clock:  clock,
		p4misc: make(map[uint32]uint32),
	}
	c.reg.reset()
	c.intc.reset()
	c.mmu.reset()
	c.oc.reset()
	c.tmu.init(c)
	c.Dmac.init(c)
	c.Scif.init(c, conduit)
	return c
}

// MapRegion returns the on-chip P4 region. It must be the first region
// added to the map: its all-ones top bits would otherwise alias every
// physical area through their range masks.
func (c *SH4) MapRegion() memory.Region {
	return memory.Region{
		Name:      "sh4-p4",
		First:     0xE0000000,
		Last:      0xFFFFFFFF,
		RangeMask: 0xFFFFFFFF,
		AddrMask:  0xFFFFFFFF,
		Dev:       c,
	}
}

// Reset puts the core back into its power-on state.
func (c *SH4) Reset() {
	c.reg.reset()
	c.intc.reset()
	c.mmu.reset()
	c.oc.reset()
	c.delayedPending = false
	c.inSlot = false
	c.sleeping = false
	c.pairOpen = false
}

// Reg exposes the register file to the assembling package, tests and the
// monitor.
func (c *SH4) Reg() *regFile {
	return &c.reg
}

// RunSlice executes instructions until the clock reaches its target stamp
// (the next scheduled event). It is installed as the clock's dispatch
// callback. Returns false when stop() asked for shutdown.
func (c *SH4) RunSlice(stop func() bool) bool {
	for c.clock.Cycles() < c.clock.TargetStamp() {
		if stop() {
			return false
		}
		if c.Scif.conduit != nil && c.Scif.conduit.TakePending() {
			c.Scif.sync()
		}
		if c.sleeping {
			// sleep until the next event can wake us
			if c.pendingInterrupt() != 0 {
				c.sleeping = false
				continue
			}
			c.clock.AdvanceCycles(c.clock.TargetStamp() - c.clock.Cycles())
			return true
		}
		c.Step()
	}
	return true
}

// Step runs exactly one dispatch round: interrupt check, fetch, decode,
// execute, cycle charge.
func (c *SH4) Step() {
	if code := c.pendingInterrupt(); code != 0 {
		c.enterInterrupt(code)
	}

	op, err := c.fetchInst(c.reg.PC)
	if err != nil {
		c.handleAccessFault(err)
		return
	}

	ent := &opTable[op]
	if ent.fn == nil {
		slog.Warn("Illegal instruction", "op", fmt.Sprintf("0x%04X", op), "pc", fmt.Sprintf("0x%08X", c.reg.PC))
		if c.delayedPending {
			c.inSlot = true
			c.enterException(ExcpSlotIllegalInst)
		} else {
			c.enterException(ExcpGenIllegalInst)
		}
		return
	}

	if c.delayedPending {
		c.inSlot = true
		c.delayedPending = false
	}

	if err := ent.fn(c, op); err != nil {
		// inSlot is still set here so the fault resumes at the branch
		c.handleAccessFault(err)
		c.inSlot = false
		return
	}

	if c.inSlot {
		c.reg.PC = c.delayedTarget
		c.inSlot = false
	} else if c.pcSet {
		c.pcSet = false
	} else {
		c.reg.PC += 2
	}

	c.chargeCycles(ent)
}

// chargeCycles advances the master clock, modeling the dual-issue
// pipeline: two adjacent instructions from compatible groups issue in the
// same cycle, charging only the more expensive one.
func (c *SH4) chargeCycles(ent *opEntry) {
	cost := uint32(ent.cycles)
	if c.pairOpen && pairable(c.pairGroup, ent.group) {
		c.pairOpen = false
		if cost > c.pairCost {
			c.clock.AdvanceCycles(sched.Stamp(cost-c.pairCost) * sched.CPUClockDiv)
		}
		return
	}
	c.pairOpen = true
	c.pairGroup = ent.group
	c.pairCost = cost
	c.clock.AdvanceCycles(sched.Stamp(cost) * sched.CPUClockDiv)
}

// handleAccessFault converts a failed access into an architectural
// exception, or aborts on protocol faults.
func (c *SH4) handleAccessFault(err error) {
	var t *Trap
	if errors.As(err, &t) {
		c.enterException(t.Code)
		return
	}
	var acc memory.AccessError
	if errors.As(err, &acc) {
		// unmapped addresses indicate the map is wrong, not the guest
		panic(fmt.Sprintf("sh4: %v at pc=0x%08X", acc, c.reg.PC))
	}
	panic(fmt.Sprintf("sh4: unexpected memory fault %v at pc=0x%08X", err, c.reg.PC))
}

// --- virtual address routing -------------------------------------------

func isStoreQueueAddr(addr uint32) bool {
	return addr >= 0xE0000000 && addr < 0xE4000000
}

// checkDataPrivilege enforces the P1-P4 privilege rule: user mode may
// only reach privileged space through the store-queue window.
func (c *SH4) checkDataPrivilege(addr uint32, write bool) error {
	if c.reg.privileged() || addr < 0x80000000 || isStoreQueueAddr(addr) {
		return nil
	}
	c.reg.TEA = addr
	if write {
		return trap(ExcpDataAddrWrite)
	}
	return trap(ExcpDataAddrRead)
}

// dataAddr resolves a virtual data address to what the map consumes:
// either a P4 virtual address or a translated/untranslated physical one.
func (c *SH4) dataAddr(addr uint32, write bool) (uint32, error) {
	if err := c.checkDataPrivilege(addr, write); err != nil {
		return 0, err
	}
	if c.mmu.enabled(&c.reg) && translatableData(addr) {
		return c.mmu.translateData(c, addr, write)
	}
	return addr, nil
}

// translatableData reports whether a data address goes through the UTLB:
// areas P0 and P3.
func translatableData(addr uint32) bool {
	top := addr >> 29
	return top <= 3 || top == 6
}

func (c *SH4) readVirt8(addr uint32) (uint8, error) {
	if c.oc.oraHit(addr, c.reg.CCR) {
		return c.oc.oraRead8(addr, c.reg.CCR), nil
	}
	phys, err := c.dataAddr(addr, false)
	if err != nil {
		return 0, err
	}
	return c.mem.Read8(phys)
}

func (c *SH4) readVirt16(addr uint32) (uint16, error) {
	if c.oc.oraHit(addr, c.reg.CCR) {
		return c.oc.oraRead16(addr, c.reg.CCR), nil
	}
	phys, err := c.dataAddr(addr, false)
	if err != nil {
		return 0, err
	}
	return c.mem.Read16(phys)
}

func (c *SH4) readVirt32(addr uint32) (uint32, error) {
	if c.oc.oraHit(addr, c.reg.CCR) {
		return c.oc.oraRead32(addr, c.reg.CCR), nil
	}
	phys, err := c.dataAddr(addr, false)
	if err != nil {
		return 0, err
	}
	return c.mem.Read32(phys)
}

func (c *SH4) readVirt64(addr uint32) (uint64, error) {
	lo, err := c.readVirt32(addr)
	if err != nil {
		return 0, err
	}
	hi, err := c.readVirt32(addr + 4)
	if err != nil {
		return 0, err
	}
	return uint64(hi)<<32 | uint64(lo), nil
}

func (c *SH4) writeVirt8(addr uint32, v uint8) error {
	if c.oc.oraHit(addr, c.reg.CCR) {
		c.oc.oraWrite8(addr, c.reg.CCR, v)
		return nil
	}
	phys, err := c.dataAddr(addr, true)
	if err != nil {
		return err
	}
	return c.mem.Write8(phys, v)
}

func (c *SH4) writeVirt16(addr uint32, v uint16) error {
	if c.oc.oraHit(addr, c.reg.CCR) {
		c.oc.oraWrite16(addr, c.reg.CCR, v)
		return nil
	}
	phys, err := c.dataAddr(addr, true)
	if err != nil {
		return err
	}
	return c.mem.Write16(phys, v)
}

func (c *SH4) writeVirt32(addr uint32, v uint32) error {
	if c.oc.oraHit(addr, c.reg.CCR) {
		c.oc.oraWrite32(addr, c.reg.CCR, v)
		return nil
	}
	phys, err := c.dataAddr(addr, true)
	if err != nil {
		return err
	}
	return c.mem.Write32(phys, v)
}

func (c *SH4) writeVirt64(addr uint32, v uint64) error {
	if err := c.writeVirt32(addr, uint32(v)); err != nil {
		return err
	}
	return c.writeVirt32(addr+4, uint32(v>>32))
}

// fetchInst reads the 16-bit instruction at pc, translating through the
// ITLB when the MMU is active.
func (c *SH4) fetchInst(pc uint32) (uint16, error) {
	if pc&1 != 0 {
		c.reg.TEA = pc
		return 0, trap(ExcpInstAddrErr)
	}
	if !c.reg.privileged() && pc >= 0x80000000 {
		c.reg.TEA = pc
		return 0, trap(ExcpInstAddrErr)
	}
	if c.mmu.enabled(&c.reg) && translatableData(pc) {
		phys, err := c.mmu.translateInst(c, pc)
		if err != nil {
			return 0, err
		}
		pc = phys
	}
	return c.mem.Read16(pc)
}
