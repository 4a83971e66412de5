// Package monitor is a small line-oriented inspection console. It runs on
// the emulation thread, so every command sees a quiescent machine.
package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/katana-dc/go-katana/katana"
)

// Monitor wraps an emulator with an interactive prompt.
type Monitor struct {
	emu  *katana.Emulator
	line *liner.State
}

func New(emu *katana.Emulator) *Monitor {
	return &Monitor{emu: emu}
}

// Run reads commands until quit or continue. Returns true if the user
// asked for free-running execution afterwards.
func (m *Monitor) Run() bool {
	m.line = liner.NewLiner()
	defer m.line.Close()
	m.line.SetCtrlCAborts(true)

	fmt.Println("katana monitor — 'help' for commands")
	for {
		input, err := m.line.Prompt("katana> ")
		if err != nil {
			return false
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		m.line.AppendHistory(input)

		fields := strings.Fields(input)
		switch fields[0] {
		case "help", "h":
			m.help()
		case "regs", "r":
			m.dumpRegs()
		case "peek", "x":
			m.peek(fields[1:])
		case "poke":
			m.poke(fields[1:])
		case "step", "s":
			m.step(fields[1:])
		case "slice":
			m.emu.Clock.RunTimeslice()
			m.dumpRegs()
		case "cont", "c":
			return true
		case "quit", "q":
			return false
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

func (m *Monitor) help() {
	fmt.Print(`regs           dump CPU registers
peek ADDR [N]  hex dump N words at physical ADDR
poke ADDR VAL  write a 32-bit word
step [N]       execute N instructions (default 1)
slice          run one scheduler timeslice
cont           leave the monitor and free-run
quit           exit the emulator
`)
}

func parseNum(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
}

func (m *Monitor) dumpRegs() {
	r := m.emu.CPU.Reg()
	for i := 0; i < 16; i += 4 {
		fmt.Printf("r%-2d %08X  r%-2d %08X  r%-2d %08X  r%-2d %08X\n",
			i, r.R[i], i+1, r.R[i+1], i+2, r.R[i+2], i+3, r.R[i+3])
	}
	fmt.Printf("pc  %08X  sr  %08X  pr  %08X  gbr %08X\n", r.PC, r.SR, r.PR, r.GBR)
	fmt.Printf("vbr %08X  spc %08X  ssr %08X  sgr %08X\n", r.VBR, r.SPC, r.SSR, r.SGR)
}

func (m *Monitor) peek(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: peek ADDR [N]")
		return
	}
	addr, err := parseNum(args[0])
	if err != nil {
		fmt.Println("bad address:", err)
		return
	}
	count := 4
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[1]); err == nil {
			count = n
		}
	}
	for i := 0; i < count; i++ {
		a := uint32(addr) + uint32(i)*4
		v, ok := m.emu.Mem.TryRead32(a)
		if !ok {
			fmt.Printf("%08X: <unmapped>\n", a)
			continue
		}
		fmt.Printf("%08X: %08X\n", a, v)
	}
}

func (m *Monitor) poke(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: poke ADDR VAL")
		return
	}
	addr, err1 := parseNum(args[0])
	val, err2 := parseNum(args[1])
	if err1 != nil || err2 != nil {
		fmt.Println("bad arguments")
		return
	}
	if !m.emu.Mem.TryWrite32(uint32(addr), uint32(val)) {
		fmt.Println("write failed")
	}
}

func (m *Monitor) step(args []string) {
	n := 1
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			n = v
		}
	}
	for i := 0; i < n; i++ {
		m.emu.CPU.Step()
	}
	m.dumpRegs()
}
