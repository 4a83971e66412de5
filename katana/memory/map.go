// Package memory implements the global address-space map. Every load and
// store issued by the CPU or by DMA resolves to exactly one region here.
package memory

import "fmt"

// AccessError reports a load or store that no region claimed.
type AccessError struct {
	Addr  uint32
	Size  int
	Write bool
}

func (e AccessError) Error() string {
	dir := "read"
	if e.Write {
		dir = "write"
	}
	return fmt.Sprintf("unmapped %d-byte %s at 0x%08X", e.Size, dir, e.Addr)
}

// Device is the backing store behind a region. Addresses passed in have
// already been masked with the region's AddrMask.
type Device interface {
	Read8(addr uint32) (uint8, error)
	Read16(addr uint32) (uint16, error)
	Read32(addr uint32) (uint32, error)
	Write8(addr uint32, v uint8) error
	Write16(addr uint32, v uint16) error
	Write32(addr uint32, v uint32) error
}

// Region describes one address range and the device that services it.
// The map keeps regions in insertion order; the first hit wins.
type Region struct {
	Name string

	// A region matches addr when addr&RangeMask (and the last byte of the
	// access) falls inside [First, Last].
	First     uint32
	Last      uint32
	RangeMask uint32

	// AddrMask is applied before handing the address to the device.
	AddrMask uint32

	Dev Device
}

// Map is the ordered region list. The list is built once at startup and
// not changed afterwards; lookups update the last-hit index.
type Map struct {
	regions []Region

	// last-hit cache for the fetch-heavy path
	lastIdx int
}

func NewMap() *Map {
	return &Map{lastIdx: -1}
}

// Add appends a region. Insertion order is precedence order: the on-chip
// P4 region must go in first because its all-ones top bits would otherwise
// alias every physical area through their range masks.
func (m *Map) Add(r Region) {
	m.regions = append(m.regions, r)
}

// find returns the first region containing [addr&mask, addr&mask+size-1],
// or nil.
func (m *Map) find(addr uint32, size int) *Region {
	if m.lastIdx >= 0 {
		r := &m.regions[m.lastIdx]
		first := addr & r.RangeMask
		if first >= r.First && first+uint32(size)-1 <= r.Last {
			// the cached region answers only when no earlier region claims
			// addr, so insertion-order precedence holds across aliases
			shadowed := false
			for j := 0; j < m.lastIdx && !shadowed; j++ {
				e := &m.regions[j]
				f := addr & e.RangeMask
				shadowed = f >= e.First && f+uint32(size)-1 <= e.Last
			}
			if !shadowed {
				return r
			}
		}
	}
	for i := range m.regions {
		r := &m.regions[i]
		first := addr & r.RangeMask
		if first >= r.First && first+uint32(size)-1 <= r.Last {
			m.lastIdx = i
			return r
		}
	}
	return nil
}

func (m *Map) Read8(addr uint32) (uint8, error) {
	r := m.find(addr, 1)
	if r == nil {
		return 0, AccessError{Addr: addr, Size: 1}
	}
	return r.Dev.Read8(addr & r.RangeMask & r.AddrMask)
}

func (m *Map) Read16(addr uint32) (uint16, error) {
	r := m.find(addr, 2)
	if r == nil {
		return 0, AccessError{Addr: addr, Size: 2}
	}
	return r.Dev.Read16(addr & r.RangeMask & r.AddrMask)
}

func (m *Map) Read32(addr uint32) (uint32, error) {
	r := m.find(addr, 4)
	if r == nil {
		return 0, AccessError{Addr: addr, Size: 4}
	}
	return r.Dev.Read32(addr & r.RangeMask & r.AddrMask)
}

// Read64 services double-precision loads as two 32-bit halves,
// low word first.
func (m *Map) Read64(addr uint32) (uint64, error) {
	lo, err := m.Read32(addr)
	if err != nil {
		return 0, AccessError{Addr: addr, Size: 8}
	}
	hi, err := m.Read32(addr + 4)
	if err != nil {
		return 0, AccessError{Addr: addr, Size: 8}
	}
	return uint64(hi)<<32 | uint64(lo), nil
}

func (m *Map) Write8(addr uint32, v uint8) error {
	r := m.find(addr, 1)
	if r == nil {
		return AccessError{Addr: addr, Size: 1, Write: true}
	}
	return r.Dev.Write8(addr&r.RangeMask&r.AddrMask, v)
}

func (m *Map) Write16(addr uint32, v uint16) error {
	r := m.find(addr, 2)
	if r == nil {
		return AccessError{Addr: addr, Size: 2, Write: true}
	}
	return r.Dev.Write16(addr&r.RangeMask&r.AddrMask, v)
}

func (m *Map) Write32(addr uint32, v uint32) error {
	r := m.find(addr, 4)
	if r == nil {
		return AccessError{Addr: addr, Size: 4, Write: true}
	}
	return r.Dev.Write32(addr&r.RangeMask&r.AddrMask, v)
}

func (m *Map) Write64(addr uint32, v uint64) error {
	if err := m.Write32(addr, uint32(v)); err != nil {
		return AccessError{Addr: addr, Size: 8, Write: true}
	}
	if err := m.Write32(addr+4, uint32(v>>32)); err != nil {
		return AccessError{Addr: addr, Size: 8, Write: true}
	}
	return nil
}

// TryRead32 probes memory without failing hard; debugger and DMA paths use
// it to inspect addresses speculatively.
func (m *Map) TryRead32(addr uint32) (uint32, bool) {
	r := m.find(addr, 4)
	if r == nil {
		return 0, false
	}
	v, err := r.Dev.Read32(addr & r.RangeMask & r.AddrMask)
	if err != nil {
		return 0, false
	}
	return v, true
}

// TryRead8 is the byte-wide probing variant.
func (m *Map) TryRead8(addr uint32) (uint8, bool) {
	r := m.find(addr, 1)
	if r == nil {
		return 0, false
	}
	v, err := r.Dev.Read8(addr & r.RangeMask & r.AddrMask)
	if err != nil {
		return 0, false
	}
	return v, true
}

// TryWrite32 probes a store without failing hard.
func (m *Map) TryWrite32(addr uint32, v uint32) bool {
	r := m.find(addr, 4)
	if r == nil {
		return false
	}
	return r.Dev.Write32(addr&r.RangeMask&r.AddrMask, v) == nil
}
