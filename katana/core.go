// Package katana assembles the Dreamcast core: memory map, SH-4, Holly
// and the scheduler, and owns the outer run loop.
package katana

import (
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/katana-dc/go-katana/katana/holly"
	"github.com/katana-dc/go-katana/katana/memory"
	"github.com/katana-dc/go-katana/katana/sched"
	"github.com/katana-dc/go-katana/katana/serial"
	"github.com/katana-dc/go-katana/katana/sh4"
)

// BootMode selects how execution starts.
type BootMode int

const (
	// BootFirmware runs the BIOS from the reset vector.
	BootFirmware BootMode = iota
	// BootDirectIP loads a flat image at the IP.BIN load address.
	BootDirectIP
	// BootDirect1stRead loads a flat image at the 1ST_READ.BIN address.
	BootDirect1stRead
)

const (
	directIPEntry      = 0x8C008300
	direct1stReadEntry = 0x8C010000
)

// Config is everything the CLI can set.
type Config struct {
	BiosPath  string
	FlashPath string
	Boot      BootMode
	ImagePath string // direct boot image
	SerialTCP string // empty = log sink
}

// Emulator is the root object: one per guest machine.
type Emulator struct {
	Clock *sched.Clock
	Mem   *memory.Map
	CPU   *sh4.SH4
	Intc  *holly.Intc
	SPG   *holly.SPG
	Fifo  *holly.Fifo

	RAM   *memory.RAM
	flash *memory.Flash

	conduit *serial.Conduit
	bridge  *serial.TCPBridge
	logSink *serial.LogSink

	kill atomic.Bool
}

// New builds a machine from the config. The memory map is complete and
// immutable when New returns.
func New(cfg Config) (*Emulator, error) {
	e := &Emulator{
		Clock:   sched.NewClock(),
		Mem:     memory.NewMap(),
		conduit: serial.NewConduit(),
	}

	e.CPU = sh4.New(e.Mem, e.Clock, e.conduit)
	e.Intc = holly.NewIntc()
	e.SPG = holly.NewSPG(e.Clock, e.Intc)
	e.Fifo = holly.NewFifo()
	e.RAM = memory.NewRAM(memory.RAMSize)

	// Holly drives the CPU's IRL pins; SB_C2DST kicks the DMA engine.
	e.Intc.SetIRL = e.CPU.SetIRL
	e.Intc.StartCh2DMA = e.CPU.Dmac.Channel2
	e.CPU.Dmac.OnChannel2Complete = func() {
		e.Intc.RaiseNrm(holly.NrmIntChannel2DMA)
	}

	if err := e.buildMap(cfg); err != nil {
		return nil, err
	}

	if err := e.applyBoot(cfg); err != nil {
		return nil, err
	}

	if cfg.SerialTCP != "" {
		bridge, err := serial.ListenTCP(cfg.SerialTCP, e.conduit)
		if err != nil {
			return nil, err
		}
		e.bridge = bridge
	} else {
		e.logSink = serial.NewLogSink(e.conduit)
	}

	e.Clock.Dispatch = func() bool {
		return e.CPU.RunSlice(e.kill.Load)
	}
	e.SPG.Start()

	return e, nil
}

// buildMap lays out the physical address space. The CPU's P4 region goes
// in first; everything after resolves through the 29-bit masks.
func (e *Emulator) buildMap(cfg Config) error {
	add := func(name string, first, last uint32, dev memory.Device) {
		e.Mem.Add(memory.Region{
			Name:      name,
			First:     first,
			Last:      last,
			RangeMask: memory.PhysMask,
			AddrMask:  0xFFFFFFFF,
			Dev:       dev,
		})
	}

	e.Mem.Add(e.CPU.MapRegion())

	var bios memory.Device
	if cfg.BiosPath != "" {
		rom, err := memory.NewROMFromFile("bios", cfg.BiosPath)
		if err != nil {
			return fmt.Errorf("loading BIOS: %w", err)
		}
		bios = rom
	} else {
		if cfg.Boot == BootFirmware {
			return fmt.Errorf("firmware boot requires --bios")
		}
		bios = memory.NewROM("bios", make([]byte, 0x200000))
	}
	add("bios", memory.BiosFirst, memory.BiosLast, bios)

	if cfg.FlashPath != "" {
		flash, err := memory.NewFlashFromFile(cfg.FlashPath)
		if err != nil {
			return fmt.Errorf("loading flash: %w", err)
		}
		e.flash = flash
	} else {
		e.flash = memory.NewFlash()
	}
	add("flash", memory.FlashFirst, memory.FlashLast, e.flash)

	add("system-block", memory.SysBlockFirst, memory.SysBlockLast, e.Intc)
	add("pvr-core", memory.PvrCoreFirst, memory.PvrCoreLast, e.SPG)

	// external collaborators: register blocks only
	add("g1", memory.G1First, memory.G1Last, memory.NewRegStub("g1"))
	add("gdrom", memory.GdromFirst, memory.GdromLast, memory.NewRegStub("gdrom"))
	add("maple", memory.MapleFirst, memory.MapleLast, memory.NewRegStub("maple"))
	add("g2", memory.G2First, memory.G2Last, memory.NewRegStub("g2"))
	add("pvr", memory.PvrRegFirst, memory.PvrRegLast, memory.NewRegStub("pvr"))
	add("modem", memory.ModemFirst, memory.ModemLast, memory.NewRegStub("modem"))
	add("aica", memory.AicaRegFirst, memory.AicaRegLast, memory.NewRegStub("aica"))
	add("aica-rtc", memory.AicaRTCFirst, memory.AicaRTCLast, memory.NewRegStub("aica-rtc"))
	add("aica-wave", memory.AicaWaveFirst, memory.AicaWaveLast, memory.NewRAM(0x200000))

	add("ram", memory.RAMFirst, memory.RAMLast, e.RAM)

	tex := holly.NewTextureMemory()
	add("ta-fifo", memory.TAFifoFirst, memory.TAFifoLast, e.Fifo)
	add("ta-tex64", memory.TATex64First, memory.TATex64Last, tex)
	add("ta-tex32", memory.TATex32First, memory.TATex32Last, tex)
	add("ta-tex64-mirror", memory.TATex64MirrorFirst, memory.TATex64MirrorLast, tex)
	add("ta-fifo-mirror", memory.TAFifoMirrorFirst, memory.TAFifoMirrorLast, e.Fifo)

	return nil
}

// applyBoot loads a direct-boot image and points the CPU at its entry.
func (e *Emulator) applyBoot(cfg Config) error {
	if cfg.Boot == BootFirmware {
		return nil
	}
	if cfg.ImagePath == "" {
		return fmt.Errorf("direct boot requires an image path")
	}
	image, err := os.ReadFile(cfg.ImagePath)
	if err != nil {
		return err
	}

	entry := uint32(direct1stReadEntry)
	if cfg.Boot == BootDirectIP {
		entry = directIPEntry
	}
	e.RAM.Load(entry&(memory.RAMSize-1), image)

	reg := e.CPU.Reg()
	reg.PC = entry
	slog.Info("Direct boot", "image", cfg.ImagePath, "entry", fmt.Sprintf("0x%08X", entry), "size", len(image))
	return nil
}

// Run drives timeslices until Stop is called or a fatal fault aborts the
// emulation thread. Protocol and integrity faults surface as the returned
// error.
func (e *Emulator) Run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e2, ok := r.(error); ok {
				err = e2
			} else {
				err = fmt.Errorf("emulation aborted: %v", r)
			}
			slog.Error("Emulation thread aborted", "error", err)
		}
		e.shutdown()
	}()

	slog.Info("Emulation started")
	for !e.kill.Load() {
		if !e.Clock.RunTimeslice() {
			break
		}
		if e.logSink != nil {
			e.logSink.Pump()
		}
	}
	slog.Info("Emulation stopped", "cycles", uint64(e.Clock.Cycles()))
	return nil
}

// RunSlices advances a bounded number of timeslices, for headless runs.
func (e *Emulator) RunSlices(n int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("emulation aborted: %v", r)
			slog.Error("Emulation thread aborted", "error", err)
		}
		e.shutdown()
	}()

	for i := 0; i < n && !e.kill.Load(); i++ {
		if !e.Clock.RunTimeslice() {
			break
		}
		if e.logSink != nil {
			e.logSink.Pump()
		}
	}
	return nil
}

// Stop asks the emulation thread to exit. Safe from any thread.
func (e *Emulator) Stop() {
	e.kill.Store(true)
}

func (e *Emulator) shutdown() {
	if e.bridge != nil {
		e.bridge.Close()
	}
	if e.flash != nil {
		e.flash.Save()
	}
}
