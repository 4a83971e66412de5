package holly

import (
	"fmt"

	"github.com/katana-dc/go-katana/katana/memory"
)

// Fifo is the polygon FIFO write window. The tile accelerator itself is an
// external collaborator; the core's contract ends at delivering the word
// stream in order, so the sink keeps the words for its consumer (and for
// tests) and counts everything it swallows.
type Fifo struct {
	words []uint32
	total uint64
}

func NewFifo() *Fifo {
	return &Fifo{}
}

// Words returns the words received since the last Drain.
func (f *Fifo) Words() []uint32 {
	return f.words
}

// Drain hands the buffered words to the consumer and resets the window.
func (f *Fifo) Drain() []uint32 {
	w := f.words
	f.words = nil
	return w
}

func (f *Fifo) Read8(addr uint32) (uint8, error) {
	return 0, memory.AccessError{Addr: addr, Size: 1}
}

func (f *Fifo) Read16(addr uint32) (uint16, error) {
	return 0, memory.AccessError{Addr: addr, Size: 2}
}

func (f *Fifo) Read32(addr uint32) (uint32, error) {
	return 0, memory.AccessError{Addr: addr, Size: 4}
}

func (f *Fifo) Write8(addr uint32, v uint8) error {
	return memory.AccessError{Addr: addr, Size: 1, Write: true}
}

func (f *Fifo) Write16(addr uint32, v uint16) error {
	return memory.AccessError{Addr: addr, Size: 2, Write: true}
}

func (f *Fifo) Write32(addr uint32, v uint32) error {
	f.words = append(f.words, v)
	f.total++
	return nil
}

func (f *Fifo) String() string {
	return fmt.Sprintf("ta-fifo{pending=%d total=%d}", len(f.words), f.total)
}

// NewTextureMemory returns the 8MiB texture RAM reachable over both the
// 32-bit and 64-bit bus windows. The two windows interleave banks
// differently on hardware; the core routes both at identical addresses,
// which is sufficient for everything short of rasterization.
func NewTextureMemory() *memory.RAM {
	return memory.NewRAM(0x800000)
}
