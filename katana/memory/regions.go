package memory

import (
	"fmt"
	"log/slog"
)

// Physical address ranges (29-bit space). Area 0 holds ROM, flash and the
// on-board peripheral register blocks; area 3 is main RAM mirrored four
// times; area 4 is the tile accelerator's write windows.
const (
	BiosFirst uint32 = 0x00000000
	BiosLast  uint32 = 0x001FFFFF

	FlashFirst uint32 = 0x00200000
	FlashLast  uint32 = 0x0021FFFF

	G1First uint32 = 0x005F7400
	G1Last  uint32 = 0x005F74FF

	SysBlockFirst uint32 = 0x005F6800
	SysBlockLast  uint32 = 0x005F69FF

	MapleFirst uint32 = 0x005F6C00
	MapleLast  uint32 = 0x005F6CFF

	G2First uint32 = 0x005F7800
	G2Last  uint32 = 0x005F78FF

	PvrRegFirst uint32 = 0x005F7C00
	PvrRegLast  uint32 = 0x005F7CFF

	PvrCoreFirst uint32 = 0x005F8000
	PvrCoreLast  uint32 = 0x005F9FFF

	ModemFirst uint32 = 0x00600000
	ModemLast  uint32 = 0x006007FF

	AicaRegFirst uint32 = 0x00700000
	AicaRegLast  uint32 = 0x00707FFF

	AicaRTCFirst uint32 = 0x00710000
	AicaRTCLast  uint32 = 0x00710FFF

	AicaWaveFirst uint32 = 0x00800000
	AicaWaveLast  uint32 = 0x009FFFFF

	GdromFirst uint32 = 0x005F7000
	GdromLast  uint32 = 0x005F70FF

	RAMFirst uint32 = 0x0C000000
	RAMLast  uint32 = 0x0FFFFFFF
	RAMSize  uint32 = 0x01000000

	TAFifoFirst uint32 = 0x10000000
	TAFifoLast  uint32 = 0x107FFFFF

	TATex64First uint32 = 0x10800000
	TATex64Last  uint32 = 0x10FFFFFF

	TATex32First uint32 = 0x11000000
	TATex32Last  uint32 = 0x117FFFFF

	// mirrors of the fifo and the 64-bit bus
	TAFifoMirrorFirst uint32 = 0x13000000
	TAFifoMirrorLast  uint32 = 0x137FFFFF

	TATex64MirrorFirst uint32 = 0x11800000
	TATex64MirrorLast  uint32 = 0x11FFFFFF
)

// PhysMask folds a P0/P1/P2/P3 virtual address down to the 29-bit
// physical space.
const PhysMask uint32 = 0x1FFFFFFF

// RegStub is a register block for devices that are external collaborators:
// it retains written values so the guest reads back what it wrote, and
// warns once per register so missing behavior is visible in the log.
type RegStub struct {
	name   string
	regs   map[uint32]uint32
	warned map[uint32]bool
}

func NewRegStub(name string) *RegStub {
	return &RegStub{
		name:   name,
		regs:   make(map[uint32]uint32),
		warned: make(map[uint32]bool),
	}
}

func (s *RegStub) warnOnce(addr uint32, dir string) {
	if s.warned[addr] {
		return
	}
	s.warned[addr] = true
	slog.Warn("Stubbed register access", "block", s.name, "dir", dir, "addr", fmt.Sprintf("0x%08X", addr))
}

func (s *RegStub) Read8(addr uint32) (uint8, error) {
	v, _ := s.Read32(addr &^ 3)
	return uint8(v >> ((addr & 3) * 8)), nil
}

func (s *RegStub) Read16(addr uint32) (uint16, error) {
	v, _ := s.Read32(addr &^ 3)
	return uint16(v >> ((addr & 2) * 8)), nil
}

func (s *RegStub) Read32(addr uint32) (uint32, error) {
	s.warnOnce(addr, "read")
	return s.regs[addr], nil
}

func (s *RegStub) Write8(addr uint32, v uint8) error {
	word := s.regs[addr&^3]
	shift := (addr & 3) * 8
	word = (word &^ (0xFF << shift)) | uint32(v)<<shift
	return s.Write32(addr&^3, word)
}

func (s *RegStub) Write16(addr uint32, v uint16) error {
	word := s.regs[addr&^3]
	shift := (addr & 2) * 8
	word = (word &^ (0xFFFF << shift)) | uint32(v)<<shift
	return s.Write32(addr&^3, word)
}

func (s *RegStub) Write32(addr uint32, v uint32) error {
	s.warnOnce(addr, "write")
	s.regs[addr] = v
	return nil
}
