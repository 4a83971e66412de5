package memory

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
)

// Flash models the 128KiB system flash. Programming a byte can only clear
// bits (AND semantics); erase state machines beyond that are not needed by
// the firmware paths we run. When backed by a file, the image is written
// back on Save.
type Flash struct {
	data     []byte
	mask     uint32
	path     string
	writable bool
	dirty    bool
}

const FlashSize = 0x20000

// NewFlash creates a blank (all ones) flash with no backing file.
func NewFlash() *Flash {
	data := make([]byte, FlashSize)
	for i := range data {
		data[i] = 0xFF
	}
	return &Flash{data: data, mask: FlashSize - 1}
}

// NewFlashFromFile loads a flash image and remembers the path so Save can
// persist guest writes.
func NewFlashFromFile(path string) (*Flash, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) != FlashSize {
		return nil, fmt.Errorf("flash image %s: got %d bytes, want %d", path, len(data), FlashSize)
	}
	slog.Info("Loaded flash image", "path", path)
	return &Flash{data: data, mask: FlashSize - 1, path: path, writable: true}, nil
}

func (f *Flash) Read8(addr uint32) (uint8, error) {
	return f.data[addr&f.mask], nil
}

func (f *Flash) Read16(addr uint32) (uint16, error) {
	return binary.LittleEndian.Uint16(f.data[addr&f.mask:]), nil
}

func (f *Flash) Read32(addr uint32) (uint32, error) {
	return binary.LittleEndian.Uint32(f.data[addr&f.mask:]), nil
}

func (f *Flash) Write8(addr uint32, v uint8) error {
	if !f.writable {
		slog.Warn("Write to read-only flash ignored", "addr", fmt.Sprintf("0x%05X", addr&f.mask))
		return nil
	}
	// programming clears bits, never sets them
	f.data[addr&f.mask] &= v
	f.dirty = true
	return nil
}

func (f *Flash) Write16(addr uint32, v uint16) error {
	if err := f.Write8(addr, uint8(v)); err != nil {
		return err
	}
	return f.Write8(addr+1, uint8(v>>8))
}

func (f *Flash) Write32(addr uint32, v uint32) error {
	if err := f.Write16(addr, uint16(v)); err != nil {
		return err
	}
	return f.Write16(addr+2, uint16(v>>16))
}

// Save writes the image back to its backing file if anything changed.
// Host I/O failure is logged, not fatal; the guest state is unaffected.
func (f *Flash) Save() {
	if !f.dirty || f.path == "" {
		return
	}
	if err := os.WriteFile(f.path, f.data, 0644); err != nil {
		slog.Error("Failed to persist flash image", "path", f.path, "error", err)
		return
	}
	slog.Info("Persisted flash image", "path", f.path)
	f.dirty = false
}
