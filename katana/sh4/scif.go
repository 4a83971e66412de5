package sh4

import (
	"log/slog"

	"github.com/katana-dc/go-katana/katana/serial"
)

// SCFSR bits
const (
	scfsrDR   uint16 = 1 << 0
	scfsrRDF  uint16 = 1 << 1
	scfsrPER  uint16 = 1 << 2
	scfsrFER  uint16 = 1 << 3
	scfsrBRK  uint16 = 1 << 4
	scfsrTDFE uint16 = 1 << 5
	scfsrTEND uint16 = 1 << 6
	scfsrER   uint16 = 1 << 7
)

// sticky flags under the read-then-clear discipline
const scfsrSticky = scfsrDR | scfsrRDF | scfsrBRK | scfsrTDFE | scfsrTEND | scfsrER

// SCSCR bits
const (
	scscrREIE uint16 = 1 << 3
	scscrRE   uint16 = 1 << 4
	scscrTE   uint16 = 1 << 5
	scscrRIE  uint16 = 1 << 6
	scscrTIE  uint16 = 1 << 7
)

// SCFCR bits
const (
	scfcrLOOP  uint16 = 1 << 0
	scfcrRFRST uint16 = 1 << 1
	scfcrTFRST uint16 = 1 << 2
)

const scifFIFODepth = 16

// Scif is the FIFO-backed serial port. The guest sees two 16-byte FIFOs;
// behind them sit the conduit rings a host bridge thread works. Those rings
// hold 4096 bytes each; while the transmit ring is full, bytes stay in the
// transmit FIFO.
type Scif struct {
	cpu     *SH4
	conduit *serial.Conduit

	scsmr  uint16
	scbrr  uint8
	scscr  uint16
	scfsr  uint16
	scfcr  uint16
	scsptr uint16
	sclsr  uint16

	rxFIFO []byte
	txFIFO []byte

	// flags software has observed set, for the read-then-clear rule
	flagsRead uint16
}

func (s *Scif) init(c *SH4, conduit *serial.Conduit) {
	s.cpu = c
	s.conduit = conduit
	s.scfsr = scfsrTDFE | scfsrTEND
	s.rxFIFO = make([]byte, 0, scifFIFODepth)
	s.txFIFO = make([]byte, 0, scifFIFODepth)
}

func (s *Scif) rxTrigger() int {
	switch (s.scfcr >> 6) & 3 {
	case 0:
		return 1
	case 1:
		return 4
	case 2:
		return 8
	default:
		return 14
	}
}

func (s *Scif) txTrigger() int {
	switch (s.scfcr >> 4) & 3 {
	case 0:
		return 8
	case 1:
		return 4
	case 2:
		return 2
	default:
		return 1
	}
}

// sync pumps bytes between the FIFOs and the conduit rings, then
// re-derives the status flags. Called on register access and whenever the
// bridge signals pending work.
func (s *Scif) sync() {
	if s.scfcr&scfcrRFRST != 0 {
		s.rxFIFO = s.rxFIFO[:0]
	}
	if s.scfcr&scfcrTFRST != 0 {
		s.txFIFO = s.txFIFO[:0]
	}

	if s.conduit != nil {
		if s.scscr&scscrTE != 0 {
			for len(s.txFIFO) > 0 {
				if !s.conduit.Tx.Produce(s.txFIFO[0]) {
					break
				}
				s.txFIFO = s.txFIFO[1:]
			}
		}
		if s.scscr&scscrRE != 0 && s.scfcr&scfcrRFRST == 0 {
			for len(s.rxFIFO) < scifFIFODepth {
				b, ok := s.conduit.Rx.Consume()
				if !ok {
					break
				}
				s.rxFIFO = append(s.rxFIFO, b)
			}
		}
	}

	s.updateFlags()
}

// updateFlags latches every condition that currently holds; sticky bits
// only go away through a disciplined SCFSR write.
func (s *Scif) updateFlags() {
	old := s.scfsr

	if n := len(s.rxFIFO); n > 0 && n < s.rxTrigger() {
		s.scfsr |= scfsrDR
	}
	if len(s.rxFIFO) >= s.rxTrigger() {
		s.scfsr |= scfsrRDF
	}
	if len(s.txFIFO) <= s.txTrigger() {
		s.scfsr |= scfsrTDFE
	}
	if len(s.txFIFO) == 0 {
		s.scfsr |= scfsrTEND
	}

	rdfEdge := old&scfsrRDF == 0 && s.scfsr&scfsrRDF != 0
	tdfeEdge := old&scfsrTDFE == 0 && s.scfsr&scfsrTDFE != 0
	if rdfEdge && s.scscr&scscrRIE != 0 {
		slog.Debug("SCIF RXI raised", "rx_depth", len(s.rxFIFO))
	}
	if tdfeEdge && s.scscr&scscrTIE != 0 {
		slog.Debug("SCIF TXI raised", "tx_depth", len(s.txFIFO))
	}

	s.refreshIRQ()
}

// refreshIRQ drives the single SCIF interrupt line; receive beats
// transmit when both want service.
func (s *Scif) refreshIRQ() {
	switch {
	case s.scscr&scscrRIE != 0 && s.scfsr&scfsrRDF != 0:
		s.cpu.SetInterrupt(irqSCIF, ExcpSCIFRXI)
	case s.scscr&scscrRIE != 0 && s.scfsr&scfsrDR != 0:
		s.cpu.SetInterrupt(irqSCIF, ExcpSCIFRXI)
	case s.scscr&scscrTIE != 0 && s.scfsr&scfsrTDFE != 0:
		s.cpu.SetInterrupt(irqSCIF, ExcpSCIFTXI)
	default:
		s.cpu.SetInterrupt(irqSCIF, 0)
	}
}

// --- register interface ------------------------------------------------

func (s *Scif) readSCFSR() uint16 {
	s.sync()
	s.flagsRead |= s.scfsr & scfsrSticky
	return s.scfsr
}

// writeSCFSR applies the read-then-clear rule: a sticky flag drops only
// if software saw it set and the underlying condition is gone.
func (s *Scif) writeSCFSR(v uint16) {
	s.sync()

	clearing := s.scfsr & ^v & scfsrSticky
	for bit := uint16(1); bit != 0; bit <<= 1 {
		if clearing&bit == 0 {
			continue
		}
		if s.flagsRead&bit == 0 {
			continue // never observed set: clear rejected
		}
		if s.conditionHolds(bit) {
			continue // condition still true: flag stays
		}
		s.scfsr &^= bit
		s.flagsRead &^= bit
	}

	s.refreshIRQ()
}

func (s *Scif) conditionHolds(bit uint16) bool {
	switch bit {
	case scfsrDR:
		n := len(s.rxFIFO)
		return n > 0 && n < s.rxTrigger()
	case scfsrRDF:
		return len(s.rxFIFO) >= s.rxTrigger()
	case scfsrTDFE:
		return len(s.txFIFO) <= s.txTrigger()
	case scfsrTEND:
		return len(s.txFIFO) == 0
	default:
		return false
	}
}

func (s *Scif) readSCFRDR() uint8 {
	if len(s.rxFIFO) == 0 {
		return 0
	}
	b := s.rxFIFO[0]
	s.rxFIFO = s.rxFIFO[1:]
	s.sync()
	return b
}

func (s *Scif) writeSCFTDR(v uint8) {
	if len(s.txFIFO) >= scifFIFODepth {
		// hardware drops the write when the FIFO is full
		return
	}
	s.txFIFO = append(s.txFIFO, v)
	s.sync()
}

func (s *Scif) readSCFDR() uint16 {
	return uint16(len(s.rxFIFO)&0x1F) | uint16(len(s.txFIFO)&0x1F)<<8
}

func (s *Scif) writeSCSCR(v uint16) {
	s.scscr = v
	s.sync()
}

func (s *Scif) writeSCFCR(v uint16) {
	s.scfcr = v
	s.sync()
}
