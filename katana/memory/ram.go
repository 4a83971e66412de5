package memory

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
)

// RAM is a plain little-endian byte-addressed device. The backing size
// must be a power of two; the mask folds mirrored accesses in.
type RAM struct {
	data []byte
	mask uint32
}

func NewRAM(size uint32) *RAM {
	if size&(size-1) != 0 {
		panic(fmt.Sprintf("memory: RAM size 0x%X is not a power of two", size))
	}
	return &RAM{data: make([]byte, size), mask: size - 1}
}

func (r *RAM) Read8(addr uint32) (uint8, error) {
	return r.data[addr&r.mask], nil
}

func (r *RAM) Read16(addr uint32) (uint16, error) {
	return binary.LittleEndian.Uint16(r.data[addr&r.mask:]), nil
}

func (r *RAM) Read32(addr uint32) (uint32, error) {
	return binary.LittleEndian.Uint32(r.data[addr&r.mask:]), nil
}

func (r *RAM) Write8(addr uint32, v uint8) error {
	r.data[addr&r.mask] = v
	return nil
}

func (r *RAM) Write16(addr uint32, v uint16) error {
	binary.LittleEndian.PutUint16(r.data[addr&r.mask:], v)
	return nil
}

func (r *RAM) Write32(addr uint32, v uint32) error {
	binary.LittleEndian.PutUint32(r.data[addr&r.mask:], v)
	return nil
}

// Load copies an image into RAM at offset, for direct-boot setups.
func (r *RAM) Load(offset uint32, image []byte) {
	copy(r.data[offset&r.mask:], image)
}

// Bytes exposes the backing storage for inspection tools.
func (r *RAM) Bytes() []byte {
	return r.data
}

// ROM is a read-only image. Guest writes are tolerated with a warning
// since some firmware probes its own ROM bus.
type ROM struct {
	name string
	data []byte
	mask uint32
}

// NewROMFromFile reads an image and pads it up to the next power of two so
// mirroring works the same way it does for RAM.
func NewROMFromFile(name, path string) (*ROM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	size := uint32(1)
	for size < uint32(len(data)) {
		size <<= 1
	}
	padded := make([]byte, size)
	copy(padded, data)
	slog.Info("Loaded ROM image", "name", name, "path", path, "size", len(data))
	return &ROM{name: name, data: padded, mask: size - 1}, nil
}

func NewROM(name string, data []byte) *ROM {
	size := uint32(1)
	for size < uint32(len(data)) {
		size <<= 1
	}
	padded := make([]byte, size)
	copy(padded, data)
	return &ROM{name: name, data: padded, mask: size - 1}
}

func (r *ROM) Read8(addr uint32) (uint8, error) {
	return r.data[addr&r.mask], nil
}

func (r *ROM) Read16(addr uint32) (uint16, error) {
	return binary.LittleEndian.Uint16(r.data[addr&r.mask:]), nil
}

func (r *ROM) Read32(addr uint32) (uint32, error) {
	return binary.LittleEndian.Uint32(r.data[addr&r.mask:]), nil
}

func (r *ROM) Write8(addr uint32, v uint8) error {
	slog.Warn("Write to ROM ignored", "name", r.name, "addr", fmt.Sprintf("0x%08X", addr), "value", fmt.Sprintf("0x%02X", v))
	return nil
}

func (r *ROM) Write16(addr uint32, v uint16) error {
	slog.Warn("Write to ROM ignored", "name", r.name, "addr", fmt.Sprintf("0x%08X", addr))
	return nil
}

func (r *ROM) Write32(addr uint32, v uint32) error {
	slog.Warn("Write to ROM ignored", "name", r.name, "addr", fmt.Sprintf("0x%08X", addr))
	return nil
}
