package sh4

import (
	"github.com/katana-dc/go-katana/katana/bit"
)

// opcodes is the full instruction encoding table. Patterns follow the
// architecture manual's bit layouts; first match in table order wins.
var opcodes = []opDesc{
	// data transfer
	{"0110nnnnmmmm0011", opMOV, 1, groupMT},
	{"1110nnnniiiiiiii", opMOVI, 1, groupMT},
	{"1001nnnndddddddd", opMOVWPC, 1, groupLS},
	{"1101nnnndddddddd", opMOVLPC, 1, groupLS},
	{"0110nnnnmmmm0000", opMOVBL, 1, groupLS},
	{"0110nnnnmmmm0001", opMOVWL, 1, groupLS},
	{"0110nnnnmmmm0010", opMOVLL, 1, groupLS},
	{"0010nnnnmmmm0000", opMOVBS, 1, groupLS},
	{"0010nnnnmmmm0001", opMOVWS, 1, groupLS},
	{"0010nnnnmmmm0010", opMOVLS, 1, groupLS},
	{"0110nnnnmmmm0100", opMOVBP, 1, groupLS},
	{"0110nnnnmmmm0101", opMOVWP, 1, groupLS},
	{"0110nnnnmmmm0110", opMOVLP, 1, groupLS},
	{"0010nnnnmmmm0100", opMOVBM, 1, groupLS},
	{"0010nnnnmmmm0101", opMOVWM, 1, groupLS},
	{"0010nnnnmmmm0110", opMOVLM, 1, groupLS},
	{"10000100mmmmdddd", opMOVBL4, 1, groupLS},
	{"10000101mmmmdddd", opMOVWL4, 1, groupLS},
	{"0101nnnnmmmmdddd", opMOVLL4, 1, groupLS},
	{"10000000nnnndddd", opMOVBS4, 1, groupLS},
	{"10000001nnnndddd", opMOVWS4, 1, groupLS},
	{"0001nnnnmmmmdddd", opMOVLS4, 1, groupLS},
	{"0000nnnnmmmm1100", opMOVBL0, 1, groupLS},
	{"0000nnnnmmmm1101", opMOVWL0, 1, groupLS},
	{"0000nnnnmmmm1110", opMOVLL0, 1, groupLS},
	{"0000nnnnmmmm0100", opMOVBS0, 1, groupLS},
	{"0000nnnnmmmm0101", opMOVWS0, 1, groupLS},
	{"0000nnnnmmmm0110", opMOVLS0, 1, groupLS},
	{"11000100dddddddd", opMOVBLG, 1, groupLS},
	{"11000101dddddddd", opMOVWLG, 1, groupLS},
	{"11000110dddddddd", opMOVLLG, 1, groupLS},
	{"11000000dddddddd", opMOVBSG, 1, groupLS},
	{"11000001dddddddd", opMOVWSG, 1, groupLS},
	{"11000010dddddddd", opMOVLSG, 1, groupLS},
	{"11000111dddddddd", opMOVA, 1, groupEX},
	{"0000nnnn00101001", opMOVT, 1, groupEX},
	{"0110nnnnmmmm1000", opSWAPB, 1, groupEX},
	{"0110nnnnmmmm1001", opSWAPW, 1, groupEX},
	{"0010nnnnmmmm1101", opXTRCT, 1, groupEX},

	// arithmetic
	{"0011nnnnmmmm1100", opADD, 1, groupEX},
	{"0111nnnniiiiiiii", opADDI, 1, groupEX},
	{"0011nnnnmmmm1110", opADDC, 1, groupEX},
	{"0011nnnnmmmm1111", opADDV, 1, groupEX},
	{"10001000iiiiiiii", opCMPIM, 1, groupEX},
	{"0011nnnnmmmm0000", opCMPEQ, 1, groupEX},
	{"0011nnnnmmmm0010", opCMPHS, 1, groupEX},
	{"0011nnnnmmmm0011", opCMPGE, 1, groupEX},
	{"0011nnnnmmmm0110", opCMPHI, 1, groupEX},
	{"0011nnnnmmmm0111", opCMPGT, 1, groupEX},
	{"0100nnnn00010101", opCMPPL, 1, groupEX},
	{"0100nnnn00010001", opCMPPZ, 1, groupEX},
	{"0010nnnnmmmm1100", opCMPSTR, 1, groupEX},
	{"0011nnnnmmmm0100", opDIV1, 1, groupEX},
	{"0010nnnnmmmm0111", opDIV0S, 1, groupEX},
	{"0000000000011001", opDIV0U, 1, groupEX},
	{"0011nnnnmmmm1101", opDMULS, 2, groupCO},
	{"0011nnnnmmmm0101", opDMULU, 2, groupCO},
	{"0100nnnn00010000", opDT, 1, groupEX},
	{"0110nnnnmmmm1110", opEXTSB, 1, groupEX},
	{"0110nnnnmmmm1111", opEXTSW, 1, groupEX},
	{"0110nnnnmmmm1100", opEXTUB, 1, groupEX},
	{"0110nnnnmmmm1101", opEXTUW, 1, groupEX},
	{"0000nnnnmmmm1111", opMACL, 2, groupCO},
	{"0100nnnnmmmm1111", opMACW, 2, groupCO},
	{"0000nnnnmmmm0111", opMULL, 2, groupCO},
	{"0010nnnnmmmm1111", opMULS, 2, groupCO},
	{"0010nnnnmmmm1110", opMULU, 2, groupCO},
	{"0110nnnnmmmm1011", opNEG, 1, groupEX},
	{"0110nnnnmmmm1010", opNEGC, 1, groupEX},
	{"0011nnnnmmmm1000", opSUB, 1, groupEX},
	{"0011nnnnmmmm1010", opSUBC, 1, groupEX},
	{"0011nnnnmmmm1011", opSUBV, 1, groupEX},

	// logic
	{"0010nnnnmmmm1001", opAND, 1, groupEX},
	{"11001001iiiiiiii", opANDI, 1, groupEX},
	{"11001101iiiiiiii", opANDM, 4, groupCO},
	{"0110nnnnmmmm0111", opNOT, 1, groupEX},
	{"0010nnnnmmmm1011", opOR, 1, groupEX},
	{"11001011iiiiiiii", opORI, 1, groupEX},
	{"11001111iiiiiiii", opORM, 4, groupCO},
	{"0100nnnn00011011", opTAS, 5, groupCO},
	{"0010nnnnmmmm1000", opTST, 1, groupMT},
	{"11001000iiiiiiii", opTSTI, 1, groupMT},
	{"11001100iiiiiiii", opTSTM, 3, groupCO},
	{"0010nnnnmmmm1010", opXOR, 1, groupEX},
	{"11001010iiiiiiii", opXORI, 1, groupEX},
	{"11001110iiiiiiii", opXORM, 4, groupCO},

	// shifts
	{"0100nnnn00000100", opROTL, 1, groupEX},
	{"0100nnnn00000101", opROTR, 1, groupEX},
	{"0100nnnn00100100", opROTCL, 1, groupEX},
	{"0100nnnn00100101", opROTCR, 1, groupEX},
	{"0100nnnnmmmm1100", opSHAD, 1, groupEX},
	{"0100nnnn00100000", opSHAL, 1, groupEX},
	{"0100nnnn00100001", opSHAR, 1, groupEX},
	{"0100nnnnmmmm1101", opSHLD, 1, groupEX},
	{"0100nnnn00000000", opSHLL, 1, groupEX},
	{"0100nnnn00000001", opSHLR, 1, groupEX},
	{"0100nnnn00001000", opSHLL2, 1, groupEX},
	{"0100nnnn00001001", opSHLR2, 1, groupEX},
	{"0100nnnn00011000", opSHLL8, 1, groupEX},
	{"0100nnnn00011001", opSHLR8, 1, groupEX},
	{"0100nnnn00101000", opSHLL16, 1, groupEX},
	{"0100nnnn00101001", opSHLR16, 1, groupEX},

	// branches
	{"10001011dddddddd", opBF, 2, groupBR},
	{"10001111dddddddd", opBFS, 2, groupBR},
	{"10001001dddddddd", opBT, 2, groupBR},
	{"10001101dddddddd", opBTS, 2, groupBR},
	{"1010dddddddddddd", opBRA, 2, groupBR},
	{"0000nnnn00100011", opBRAF, 2, groupCO},
	{"1011dddddddddddd", opBSR, 2, groupBR},
	{"0000nnnn00000011", opBSRF, 2, groupCO},
	{"0100nnnn00101011", opJMP, 2, groupCO},
	{"0100nnnn00001011", opJSR, 2, groupCO},
	{"0000000000001011", opRTS, 2, groupCO},

	// system
	{"0000000000101000", opCLRMAC, 1, groupCO},
	{"0000000001001000", opCLRS, 1, groupCO},
	{"0000000000001000", opCLRT, 1, groupMT},
	{"0000000001011000", opSETS, 1, groupCO},
	{"0000000000011000", opSETT, 1, groupMT},
	{"0000000000001001", opNOP, 1, groupMT},
	{"0000000000011011", opSLEEP, 4, groupCO},
	{"0000000000101011", opRTE, 5, groupCO},
	{"0000000000111000", opLDTLB, 1, groupCO},
	{"11000011iiiiiiii", opTRAPA, 7, groupCO},

	{"0100mmmm00001110", opLDCSR, 4, groupCO},
	{"0100mmmm00011110", opLDCGBR, 3, groupCO},
	{"0100mmmm00101110", opLDCVBR, 1, groupCO},
	{"0100mmmm00111110", opLDCSSR, 1, groupCO},
	{"0100mmmm01001110", opLDCSPC, 1, groupCO},
	{"0100mmmm11111010", opLDCDBR, 1, groupCO},
	{"0100mmmm1nnn1110", opLDCBANK, 1, groupCO},
	{"0100mmmm00000111", opLDCLSR, 4, groupCO},
	{"0100mmmm00010111", opLDCLGBR, 3, groupCO},
	{"0100mmmm00100111", opLDCLVBR, 1, groupCO},
	{"0100mmmm00110111", opLDCLSSR, 1, groupCO},
	{"0100mmmm01000111", opLDCLSPC, 1, groupCO},
	{"0100mmmm11110110", opLDCLDBR, 1, groupCO},
	{"0100mmmm1nnn0111", opLDCLBANK, 1, groupCO},

	{"0000nnnn00000010", opSTCSR, 2, groupCO},
	{"0000nnnn00010010", opSTCGBR, 2, groupCO},
	{"0000nnnn00100010", opSTCVBR, 2, groupCO},
	{"0000nnnn00110010", opSTCSSR, 2, groupCO},
	{"0000nnnn01000010", opSTCSPC, 2, groupCO},
	{"0000nnnn00111010", opSTCSGR, 3, groupCO},
	{"0000nnnn11111010", opSTCDBR, 2, groupCO},
	{"0000nnnn1mmm0010", opSTCBANK, 2, groupCO},
	{"0100nnnn00000011", opSTCLSR, 2, groupCO},
	{"0100nnnn00010011", opSTCLGBR, 2, groupCO},
	{"0100nnnn00100011", opSTCLVBR, 2, groupCO},
	{"0100nnnn00110011", opSTCLSSR, 2, groupCO},
	{"0100nnnn01000011", opSTCLSPC, 2, groupCO},
	{"0100nnnn00110010", opSTCLSGR, 3, groupCO},
	{"0100nnnn11110010", opSTCLDBR, 2, groupCO},
	{"0100nnnn1mmm0011", opSTCLBANK, 2, groupCO},

	{"0100mmmm00001010", opLDSMACH, 1, groupCO},
	{"0100mmmm00011010", opLDSMACL, 1, groupCO},
	{"0100mmmm00101010", opLDSPR, 2, groupCO},
	{"0100mmmm00000110", opLDSLMACH, 1, groupCO},
	{"0100mmmm00010110", opLDSLMACL, 1, groupCO},
	{"0100mmmm00100110", opLDSLPR, 2, groupCO},
	{"0000nnnn00001010", opSTSMACH, 1, groupCO},
	{"0000nnnn00011010", opSTSMACL, 1, groupCO},
	{"0000nnnn00101010", opSTSPR, 2, groupCO},
	{"0100nnnn00000010", opSTSLMACH, 1, groupCO},
	{"0100nnnn00010010", opSTSLMACL, 1, groupCO},
	{"0100nnnn00100010", opSTSLPR, 2, groupCO},

	{"0000nnnn11000011", opMOVCAL, 1, groupLS},
	{"0000nnnn10010011", opOCBI, 1, groupLS},
	{"0000nnnn10100011", opOCBP, 1, groupLS},
	{"0000nnnn10110011", opOCBWB, 1, groupLS},
	{"0000nnnn10000011", opPREF, 1, groupLS},

	// FPU system registers
	{"0100mmmm01101010", opLDSFPSCR, 1, groupCO},
	{"0100mmmm01011010", opLDSFPUL, 1, groupLS},
	{"0100mmmm01100110", opLDSLFPSCR, 1, groupCO},
	{"0100mmmm01010110", opLDSLFPUL, 1, groupLS},
	{"0000nnnn01101010", opSTSFPSCR, 1, groupLS},
	{"0000nnnn01011010", opSTSFPUL, 1, groupLS},
	{"0100nnnn01100010", opSTSLFPSCR, 1, groupCO},
	{"0100nnnn01010010", opSTSLFPUL, 1, groupLS},

	// FPU
	{"1111nnnn01011101", opFABS, 1, groupLS},
	{"1111nnnnmmmm0000", opFADD, 1, groupFE},
	{"1111nnnnmmmm0100", opFCMPEQ, 2, groupFE},
	{"1111nnnnmmmm0101", opFCMPGT, 2, groupFE},
	{"1111mmm010111101", opFCNVDS, 2, groupFE},
	{"1111nnn010101101", opFCNVSD, 2, groupFE},
	{"1111nnnnmmmm0011", opFDIV, 11, groupFE},
	{"1111nnmm11101101", opFIPR, 1, groupFE},
	{"1111nnnn10001101", opFLDI0, 1, groupLS},
	{"1111nnnn10011101", opFLDI1, 1, groupLS},
	{"1111mmmm00011101", opFLDS, 1, groupLS},
	{"1111nnnn00101101", opFLOAT, 1, groupFE},
	{"1111nnnnmmmm1110", opFMAC, 1, groupFE},
	{"1111nnnnmmmm1100", opFMOV, 1, groupLS},
	{"1111nnnnmmmm1000", opFMOVLoad, 1, groupLS},
	{"1111nnnnmmmm1010", opFMOVStore, 1, groupLS},
	{"1111nnnnmmmm1001", opFMOVRestore, 1, groupLS},
	{"1111nnnnmmmm1011", opFMOVSave, 1, groupLS},
	{"1111nnnnmmmm0110", opFMOVIndexLoad, 1, groupLS},
	{"1111nnnnmmmm0111", opFMOVIndexStore, 1, groupLS},
	{"1111nnnnmmmm0010", opFMUL, 1, groupFE},
	{"1111nnnn01001101", opFNEG, 1, groupLS},
	{"1111101111111101", opFRCHG, 1, groupFE},
	{"1111001111111101", opFSCHG, 1, groupFE},
	{"1111nnn011111101", opFSCA, 3, groupFE},
	{"1111nnnn01111101", opFSRRA, 1, groupFE},
	{"1111nnnn01101101", opFSQRT, 11, groupFE},
	{"1111nnnn00001101", opFSTS, 1, groupLS},
	{"1111nnnnmmmm0001", opFSUB, 1, groupFE},
	{"1111nnnn00111101", opFTRC, 2, groupFE},
	{"1111nn0111111101", opFTRV, 4, groupFE},
}

// privCheck raises the illegal-instruction exception for privileged
// instructions executed in user mode.
func (c *SH4) privCheck() error {
	if !c.reg.privileged() {
		if c.inSlot {
			return trap(ExcpSlotIllegalInst)
		}
		return trap(ExcpGenIllegalInst)
	}
	return nil
}

// --- data transfer ------------------------------------------------------

// MOV Rm,Rn
func opMOV(c *SH4, op uint16) error {
	c.reg.R[rn(op)] = c.reg.R[rm(op)]
	return nil
}

// MOV #imm,Rn
func opMOVI(c *SH4, op uint16) error {
	c.reg.R[rn(op)] = bit.SignExtend8(uint8(op))
	return nil
}

// MOV.W @(disp,PC),Rn
func opMOVWPC(c *SH4, op uint16) error {
	addr := c.reg.PC + 4 + disp8(op)*2
	v, err := c.readVirt16(addr)
	if err != nil {
		return err
	}
	c.reg.R[rn(op)] = bit.SignExtend16(v)
	return nil
}

// MOV.L @(disp,PC),Rn
func opMOVLPC(c *SH4, op uint16) error {
	addr := (c.reg.PC &^ 3) + 4 + disp8(op)*4
	v, err := c.readVirt32(addr)
	if err != nil {
		return err
	}
	c.reg.R[rn(op)] = v
	return nil
}

// MOV.B @Rm,Rn
func opMOVBL(c *SH4, op uint16) error {
	v, err := c.readVirt8(c.reg.R[rm(op)])
	if err != nil {
		return err
	}
	c.reg.R[rn(op)] = bit.SignExtend8(v)
	return nil
}

// MOV.W @Rm,Rn
func opMOVWL(c *SH4, op uint16) error {
	v, err := c.readVirt16(c.reg.R[rm(op)])
	if err != nil {
		return err
	}
	c.reg.R[rn(op)] = bit.SignExtend16(v)
	return nil
}

// MOV.L @Rm,Rn
func opMOVLL(c *SH4, op uint16) error {
	v, err := c.readVirt32(c.reg.R[rm(op)])
	if err != nil {
		return err
	}
	c.reg.R[rn(op)] = v
	return nil
}

// MOV.B Rm,@Rn
func opMOVBS(c *SH4, op uint16) error {
	return c.writeVirt8(c.reg.R[rn(op)], uint8(c.reg.R[rm(op)]))
}

// MOV.W Rm,@Rn
func opMOVWS(c *SH4, op uint16) error {
	return c.writeVirt16(c.reg.R[rn(op)], uint16(c.reg.R[rm(op)]))
}

// MOV.L Rm,@Rn
func opMOVLS(c *SH4, op uint16) error {
	return c.writeVirt32(c.reg.R[rn(op)], c.reg.R[rm(op)])
}

// MOV.B @Rm+,Rn
func opMOVBP(c *SH4, op uint16) error {
	m, n := rm(op), rn(op)
	v, err := c.readVirt8(c.reg.R[m])
	if err != nil {
		return err
	}
	c.reg.R[m]++
	c.reg.R[n] = bit.SignExtend8(v)
	return nil
}

// MOV.W @Rm+,Rn
func opMOVWP(c *SH4, op uint16) error {
	m, n := rm(op), rn(op)
	v, err := c.readVirt16(c.reg.R[m])
	if err != nil {
		return err
	}
	c.reg.R[m] += 2
	c.reg.R[n] = bit.SignExtend16(v)
	return nil
}

// MOV.L @Rm+,Rn
func opMOVLP(c *SH4, op uint16) error {
	m, n := rm(op), rn(op)
	v, err := c.readVirt32(c.reg.R[m])
	if err != nil {
		return err
	}
	c.reg.R[m] += 4
	c.reg.R[n] = v
	return nil
}

// MOV.B Rm,@-Rn
func opMOVBM(c *SH4, op uint16) error {
	n := rn(op)
	addr := c.reg.R[n] - 1
	if err := c.writeVirt8(addr, uint8(c.reg.R[rm(op)])); err != nil {
		return err
	}
	c.reg.R[n] = addr
	return nil
}

// MOV.W Rm,@-Rn
func opMOVWM(c *SH4, op uint16) error {
	n := rn(op)
	addr := c.reg.R[n] - 2
	if err := c.writeVirt16(addr, uint16(c.reg.R[rm(op)])); err != nil {
		return err
	}
	c.reg.R[n] = addr
	return nil
}

// MOV.L Rm,@-Rn
func opMOVLM(c *SH4, op uint16) error {
	n := rn(op)
	addr := c.reg.R[n] - 4
	if err := c.writeVirt32(addr, c.reg.R[rm(op)]); err != nil {
		return err
	}
	c.reg.R[n] = addr
	return nil
}

// MOV.B @(disp,Rm),R0
func opMOVBL4(c *SH4, op uint16) error {
	v, err := c.readVirt8(c.reg.R[rm(op)] + disp4(op))
	if err != nil {
		return err
	}
	c.reg.R[0] = bit.SignExtend8(v)
	return nil
}

// MOV.W @(disp,Rm),R0
func opMOVWL4(c *SH4, op uint16) error {
	v, err := c.readVirt16(c.reg.R[rm(op)] + disp4(op)*2)
	if err != nil {
		return err
	}
	c.reg.R[0] = bit.SignExtend16(v)
	return nil
}

// MOV.L @(disp,Rm),Rn
func opMOVLL4(c *SH4, op uint16) error {
	v, err := c.readVirt32(c.reg.R[rm(op)] + disp4(op)*4)
	if err != nil {
		return err
	}
	c.reg.R[rn(op)] = v
	return nil
}

// MOV.B R0,@(disp,Rn)
func opMOVBS4(c *SH4, op uint16) error {
	return c.writeVirt8(c.reg.R[rm(op)]+disp4(op), uint8(c.reg.R[0]))
}

// MOV.W R0,@(disp,Rn)
func opMOVWS4(c *SH4, op uint16) error {
	return c.writeVirt16(c.reg.R[rm(op)]+disp4(op)*2, uint16(c.reg.R[0]))
}

// MOV.L Rm,@(disp,Rn)
func opMOVLS4(c *SH4, op uint16) error {
	return c.writeVirt32(c.reg.R[rn(op)]+disp4(op)*4, c.reg.R[rm(op)])
}

// MOV.B @(R0,Rm),Rn
func opMOVBL0(c *SH4, op uint16) error {
	v, err := c.readVirt8(c.reg.R[rm(op)] + c.reg.R[0])
	if err != nil {
		return err
	}
	c.reg.R[rn(op)] = bit.SignExtend8(v)
	return nil
}

// MOV.W @(R0,Rm),Rn
func opMOVWL0(c *SH4, op uint16) error {
	v, err := c.readVirt16(c.reg.R[rm(op)] + c.reg.R[0])
	if err != nil {
		return err
	}
	c.reg.R[rn(op)] = bit.SignExtend16(v)
	return nil
}

// MOV.L @(R0,Rm),Rn
func opMOVLL0(c *SH4, op uint16) error {
	v, err := c.readVirt32(c.reg.R[rm(op)] + c.reg.R[0])
	if err != nil {
		return err
	}
	c.reg.R[rn(op)] = v
	return nil
}

// MOV.B Rm,@(R0,Rn)
func opMOVBS0(c *SH4, op uint16) error {
	return c.writeVirt8(c.reg.R[rn(op)]+c.reg.R[0], uint8(c.reg.R[rm(op)]))
}

// MOV.W Rm,@(R0,Rn)
func opMOVWS0(c *SH4, op uint16) error {
	return c.writeVirt16(c.reg.R[rn(op)]+c.reg.R[0], uint16(c.reg.R[rm(op)]))
}

// MOV.L Rm,@(R0,Rn)
func opMOVLS0(c *SH4, op uint16) error {
	return c.writeVirt32(c.reg.R[rn(op)]+c.reg.R[0], c.reg.R[rm(op)])
}

// MOV.B @(disp,GBR),R0
func opMOVBLG(c *SH4, op uint16) error {
	v, err := c.readVirt8(c.reg.GBR + disp8(op))
	if err != nil {
		return err
	}
	c.reg.R[0] = bit.SignExtend8(v)
	return nil
}

// MOV.W @(disp,GBR),R0
func opMOVWLG(c *SH4, op uint16) error {
	v, err := c.readVirt16(c.reg.GBR + disp8(op)*2)
	if err != nil {
		return err
	}
	c.reg.R[0] = bit.SignExtend16(v)
	return nil
}

// MOV.L @(disp,GBR),R0
func opMOVLLG(c *SH4, op uint16) error {
	v, err := c.readVirt32(c.reg.GBR + disp8(op)*4)
	if err != nil {
		return err
	}
	c.reg.R[0] = v
	return nil
}

// MOV.B R0,@(disp,GBR)
func opMOVBSG(c *SH4, op uint16) error {
	return c.writeVirt8(c.reg.GBR+disp8(op), uint8(c.reg.R[0]))
}

// MOV.W R0,@(disp,GBR)
func opMOVWSG(c *SH4, op uint16) error {
	return c.writeVirt16(c.reg.GBR+disp8(op)*2, uint16(c.reg.R[0]))
}

// MOV.L R0,@(disp,GBR)
func opMOVLSG(c *SH4, op uint16) error {
	return c.writeVirt32(c.reg.GBR+disp8(op)*4, c.reg.R[0])
}

// MOVA @(disp,PC),R0
func opMOVA(c *SH4, op uint16) error {
	c.reg.R[0] = (c.reg.PC &^ 3) + 4 + disp8(op)*4
	return nil
}

// MOVT Rn
func opMOVT(c *SH4, op uint16) error {
	c.reg.R[rn(op)] = boolToU32(c.reg.flagT())
	return nil
}

// SWAP.B Rm,Rn
func opSWAPB(c *SH4, op uint16) error {
	v := c.reg.R[rm(op)]
	c.reg.R[rn(op)] = v&0xFFFF0000 | (v&0xFF)<<8 | (v>>8)&0xFF
	return nil
}

// SWAP.W Rm,Rn
func opSWAPW(c *SH4, op uint16) error {
	v := c.reg.R[rm(op)]
	c.reg.R[rn(op)] = v<<16 | v>>16
	return nil
}

// XTRCT Rm,Rn
func opXTRCT(c *SH4, op uint16) error {
	n, m := rn(op), rm(op)
	c.reg.R[n] = c.reg.R[n]>>16 | c.reg.R[m]<<16
	return nil
}

// --- arithmetic ---------------------------------------------------------

// ADD Rm,Rn
func opADD(c *SH4, op uint16) error {
	c.reg.R[rn(op)] += c.reg.R[rm(op)]
	return nil
}

// ADD #imm,Rn
func opADDI(c *SH4, op uint16) error {
	c.reg.R[rn(op)] += bit.SignExtend8(uint8(op))
	return nil
}

// ADDC Rm,Rn
func opADDC(c *SH4, op uint16) error {
	r := &c.reg
	n, m := rn(op), rm(op)
	tmp1 := r.R[n] + r.R[m]
	tmp0 := r.R[n]
	r.R[n] = tmp1 + boolToU32(r.flagT())
	r.setT(tmp0 > tmp1 || tmp1 > r.R[n])
	return nil
}

// ADDV Rm,Rn
func opADDV(c *SH4, op uint16) error {
	r := &c.reg
	n, m := rn(op), rm(op)
	a, b := int32(r.R[n]), int32(r.R[m])
	sum := a + b
	r.R[n] = uint32(sum)
	r.setT((a >= 0) == (b >= 0) && (sum >= 0) != (a >= 0))
	return nil
}

// CMP/EQ #imm,R0
func opCMPIM(c *SH4, op uint16) error {
	c.reg.setT(c.reg.R[0] == bit.SignExtend8(uint8(op)))
	return nil
}

// CMP/EQ Rm,Rn
func opCMPEQ(c *SH4, op uint16) error {
	c.reg.setT(c.reg.R[rn(op)] == c.reg.R[rm(op)])
	return nil
}

// CMP/HS Rm,Rn
func opCMPHS(c *SH4, op uint16) error {
	c.reg.setT(c.reg.R[rn(op)] >= c.reg.R[rm(op)])
	return nil
}

// CMP/GE Rm,Rn
func opCMPGE(c *SH4, op uint16) error {
	c.reg.setT(int32(c.reg.R[rn(op)]) >= int32(c.reg.R[rm(op)]))
	return nil
}

// CMP/HI Rm,Rn
func opCMPHI(c *SH4, op uint16) error {
	c.reg.setT(c.reg.R[rn(op)] > c.reg.R[rm(op)])
	return nil
}

// CMP/GT Rm,Rn
func opCMPGT(c *SH4, op uint16) error {
	c.reg.setT(int32(c.reg.R[rn(op)]) > int32(c.reg.R[rm(op)]))
	return nil
}

// CMP/PL Rn
func opCMPPL(c *SH4, op uint16) error {
	c.reg.setT(int32(c.reg.R[rn(op)]) > 0)
	return nil
}

// CMP/PZ Rn
func opCMPPZ(c *SH4, op uint16) error {
	c.reg.setT(int32(c.reg.R[rn(op)]) >= 0)
	return nil
}

// CMP/STR Rm,Rn
func opCMPSTR(c *SH4, op uint16) error {
	tmp := c.reg.R[rn(op)] ^ c.reg.R[rm(op)]
	t := (tmp&0xFF000000) == 0 || (tmp&0x00FF0000) == 0 ||
		(tmp&0x0000FF00) == 0 || (tmp&0x000000FF) == 0
	c.reg.setT(t)
	return nil
}

// DIV0U
func opDIV0U(c *SH4, op uint16) error {
	c.reg.SR &^= srM | srQ | srT
	return nil
}

// DIV0S Rm,Rn
func opDIV0S(c *SH4, op uint16) error {
	r := &c.reg
	q := r.R[rn(op)]>>31 != 0
	m := r.R[rm(op)]>>31 != 0
	r.SR = bit.Assign(8, r.SR, q)
	r.SR = bit.Assign(9, r.SR, m)
	r.setT(q != m)
	return nil
}

// DIV1 Rm,Rn
func opDIV1(c *SH4, op uint16) error {
	r := &c.reg
	n, m := rn(op), rm(op)

	oldQ := r.SR&srQ != 0
	flagM := r.SR&srM != 0
	q := r.R[n]&0x80000000 != 0

	tmp2 := r.R[m]
	r.R[n] = r.R[n]<<1 | boolToU32(r.flagT())

	// subtract when the quotient and divisor signs agree, else add back;
	// the new Q folds in the borrow/carry, inverted on the M=1 paths
	var overflowed bool
	if oldQ == flagM {
		tmp0 := r.R[n]
		r.R[n] -= tmp2
		overflowed = r.R[n] > tmp0
	} else {
		tmp0 := r.R[n]
		r.R[n] += tmp2
		overflowed = r.R[n] < tmp0
	}
	q = q != overflowed
	if flagM {
		q = !q
	}

	r.SR = bit.Assign(8, r.SR, q)
	r.setT(q == flagM)
	return nil
}

// DMULS.L Rm,Rn
func opDMULS(c *SH4, op uint16) error {
	r := &c.reg
	prod := int64(int32(r.R[rn(op)])) * int64(int32(r.R[rm(op)]))
	r.MACH = uint32(uint64(prod) >> 32)
	r.MACL = uint32(uint64(prod))
	return nil
}

// DMULU.L Rm,Rn
func opDMULU(c *SH4, op uint16) error {
	r := &c.reg
	prod := uint64(r.R[rn(op)]) * uint64(r.R[rm(op)])
	r.MACH = uint32(prod >> 32)
	r.MACL = uint32(prod)
	return nil
}

// DT Rn
func opDT(c *SH4, op uint16) error {
	n := rn(op)
	c.reg.R[n]--
	c.reg.setT(c.reg.R[n] == 0)
	return nil
}

// EXTS.B Rm,Rn
func opEXTSB(c *SH4, op uint16) error {
	c.reg.R[rn(op)] = bit.SignExtend8(uint8(c.reg.R[rm(op)]))
	return nil
}

// EXTS.W Rm,Rn
func opEXTSW(c *SH4, op uint16) error {
	c.reg.R[rn(op)] = bit.SignExtend16(uint16(c.reg.R[rm(op)]))
	return nil
}

// EXTU.B Rm,Rn
func opEXTUB(c *SH4, op uint16) error {
	c.reg.R[rn(op)] = c.reg.R[rm(op)] & 0xFF
	return nil
}

// EXTU.W Rm,Rn
func opEXTUW(c *SH4, op uint16) error {
	c.reg.R[rn(op)] = c.reg.R[rm(op)] & 0xFFFF
	return nil
}

// MAC.L @Rm+,@Rn+
func opMACL(c *SH4, op uint16) error {
	r := &c.reg
	n, m := rn(op), rm(op)

	vn, err := c.readVirt32(r.R[n])
	if err != nil {
		return err
	}
	vm, err := c.readVirt32(r.R[m] + boolToU32(n == m)*4)
	if err != nil {
		return err
	}
	r.R[n] += 4
	r.R[m] += 4

	prod := int64(int32(vn)) * int64(int32(vm))
	mac := int64(uint64(r.MACH)<<32 | uint64(r.MACL))
	sum := mac + prod

	if r.SR&srS != 0 {
		// 48-bit saturation
		const max = int64(0x00007FFFFFFFFFFF)
		const min = -max - 1
		if sum > max {
			sum = max
		} else if sum < min {
			sum = min
		}
	}

	r.MACH = uint32(uint64(sum) >> 32)
	r.MACL = uint32(uint64(sum))
	return nil
}

// MAC.W @Rm+,@Rn+
func opMACW(c *SH4, op uint16) error {
	r := &c.reg
	n, m := rn(op), rm(op)

	vn, err := c.readVirt16(r.R[n])
	if err != nil {
		return err
	}
	vm, err := c.readVirt16(r.R[m] + boolToU32(n == m)*2)
	if err != nil {
		return err
	}
	r.R[n] += 2
	r.R[m] += 2

	prod := int64(int16(vn)) * int64(int16(vm))

	if r.SR&srS != 0 {
		// 32-bit saturation into MACL; overflow latches MACH bit 0
		sum := int64(int32(r.MACL)) + prod
		if sum > 0x7FFFFFFF {
			sum = 0x7FFFFFFF
			r.MACH |= 1
		} else if sum < -0x80000000 {
			sum = -0x80000000
			r.MACH |= 1
		}
		r.MACL = uint32(sum)
		return nil
	}

	mac := int64(uint64(r.MACH)<<32 | uint64(r.MACL))
	sum := mac + prod
	r.MACH = uint32(uint64(sum) >> 32)
	r.MACL = uint32(uint64(sum))
	return nil
}

// MUL.L Rm,Rn
func opMULL(c *SH4, op uint16) error {
	c.reg.MACL = c.reg.R[rn(op)] * c.reg.R[rm(op)]
	return nil
}

// MULS.W Rm,Rn
func opMULS(c *SH4, op uint16) error {
	c.reg.MACL = uint32(int32(int16(c.reg.R[rn(op)])) * int32(int16(c.reg.R[rm(op)])))
	return nil
}

// MULU.W Rm,Rn
func opMULU(c *SH4, op uint16) error {
	c.reg.MACL = uint32(c.reg.R[rn(op)]&0xFFFF) * uint32(c.reg.R[rm(op)]&0xFFFF)
	return nil
}

// NEG Rm,Rn
func opNEG(c *SH4, op uint16) error {
	c.reg.R[rn(op)] = -c.reg.R[rm(op)]
	return nil
}

// NEGC Rm,Rn
func opNEGC(c *SH4, op uint16) error {
	r := &c.reg
	tmp := -r.R[rm(op)]
	r.R[rn(op)] = tmp - boolToU32(r.flagT())
	r.setT(tmp != 0 || tmp < r.R[rn(op)])
	return nil
}

// SUB Rm,Rn
func opSUB(c *SH4, op uint16) error {
	c.reg.R[rn(op)] -= c.reg.R[rm(op)]
	return nil
}

// SUBC Rm,Rn
func opSUBC(c *SH4, op uint16) error {
	r := &c.reg
	n, m := rn(op), rm(op)
	tmp1 := r.R[n] - r.R[m]
	tmp0 := r.R[n]
	r.R[n] = tmp1 - boolToU32(r.flagT())
	r.setT(tmp0 < tmp1 || tmp1 < r.R[n])
	return nil
}

// SUBV Rm,Rn
func opSUBV(c *SH4, op uint16) error {
	r := &c.reg
	n, m := rn(op), rm(op)
	a, b := int32(r.R[n]), int32(r.R[m])
	diff := a - b
	r.R[n] = uint32(diff)
	r.setT((a >= 0) != (b >= 0) && (diff >= 0) != (a >= 0))
	return nil
}

// --- logic --------------------------------------------------------------

// AND Rm,Rn
func opAND(c *SH4, op uint16) error {
	c.reg.R[rn(op)] &= c.reg.R[rm(op)]
	return nil
}

// AND #imm,R0
func opANDI(c *SH4, op uint16) error {
	c.reg.R[0] &= imm8(op)
	return nil
}

// AND.B #imm,@(R0,GBR)
func opANDM(c *SH4, op uint16) error {
	addr := c.reg.GBR + c.reg.R[0]
	v, err := c.readVirt8(addr)
	if err != nil {
		return err
	}
	return c.writeVirt8(addr, v&uint8(op))
}

// NOT Rm,Rn
func opNOT(c *SH4, op uint16) error {
	c.reg.R[rn(op)] = ^c.reg.R[rm(op)]
	return nil
}

// OR Rm,Rn
func opOR(c *SH4, op uint16) error {
	c.reg.R[rn(op)] |= c.reg.R[rm(op)]
	return nil
}

// OR #imm,R0
func opORI(c *SH4, op uint16) error {
	c.reg.R[0] |= imm8(op)
	return nil
}

// OR.B #imm,@(R0,GBR)
func opORM(c *SH4, op uint16) error {
	addr := c.reg.GBR + c.reg.R[0]
	v, err := c.readVirt8(addr)
	if err != nil {
		return err
	}
	return c.writeVirt8(addr, v|uint8(op))
}

// TAS.B @Rn
func opTAS(c *SH4, op uint16) error {
	addr := c.reg.R[rn(op)]
	v, err := c.readVirt8(addr)
	if err != nil {
		return err
	}
	c.reg.setT(v == 0)
	return c.writeVirt8(addr, v|0x80)
}

// TST Rm,Rn
func opTST(c *SH4, op uint16) error {
	c.reg.setT(c.reg.R[rn(op)]&c.reg.R[rm(op)] == 0)
	return nil
}

// TST #imm,R0
func opTSTI(c *SH4, op uint16) error {
	c.reg.setT(c.reg.R[0]&imm8(op) == 0)
	return nil
}

// TST.B #imm,@(R0,GBR)
func opTSTM(c *SH4, op uint16) error {
	v, err := c.readVirt8(c.reg.GBR + c.reg.R[0])
	if err != nil {
		return err
	}
	c.reg.setT(v&uint8(op) == 0)
	return nil
}

// XOR Rm,Rn
func opXOR(c *SH4, op uint16) error {
	c.reg.R[rn(op)] ^= c.reg.R[rm(op)]
	return nil
}

// XOR #imm,R0
func opXORI(c *SH4, op uint16) error {
	c.reg.R[0] ^= imm8(op)
	return nil
}

// XOR.B #imm,@(R0,GBR)
func opXORM(c *SH4, op uint16) error {
	addr := c.reg.GBR + c.reg.R[0]
	v, err := c.readVirt8(addr)
	if err != nil {
		return err
	}
	return c.writeVirt8(addr, v^uint8(op))
}

// --- shifts -------------------------------------------------------------

// ROTL Rn
func opROTL(c *SH4, op uint16) error {
	n := rn(op)
	t := c.reg.R[n]>>31 != 0
	c.reg.R[n] = c.reg.R[n]<<1 | boolToU32(t)
	c.reg.setT(t)
	return nil
}

// ROTR Rn
func opROTR(c *SH4, op uint16) error {
	n := rn(op)
	t := c.reg.R[n]&1 != 0
	c.reg.R[n] = c.reg.R[n]>>1 | boolToU32(t)<<31
	c.reg.setT(t)
	return nil
}

// ROTCL Rn
func opROTCL(c *SH4, op uint16) error {
	n := rn(op)
	t := c.reg.R[n]>>31 != 0
	c.reg.R[n] = c.reg.R[n]<<1 | boolToU32(c.reg.flagT())
	c.reg.setT(t)
	return nil
}

// ROTCR Rn
func opROTCR(c *SH4, op uint16) error {
	n := rn(op)
	t := c.reg.R[n]&1 != 0
	c.reg.R[n] = c.reg.R[n]>>1 | boolToU32(c.reg.flagT())<<31
	c.reg.setT(t)
	return nil
}

// SHAD Rm,Rn
func opSHAD(c *SH4, op uint16) error {
	r := &c.reg
	n, m := rn(op), rm(op)
	shift := r.R[m]
	if int32(shift) >= 0 {
		r.R[n] <<= shift & 0x1F
	} else if shift&0x1F == 0 {
		r.R[n] = uint32(int32(r.R[n]) >> 31)
	} else {
		r.R[n] = uint32(int32(r.R[n]) >> ((^shift & 0x1F) + 1))
	}
	return nil
}

// SHAL Rn
func opSHAL(c *SH4, op uint16) error {
	n := rn(op)
	c.reg.setT(c.reg.R[n]>>31 != 0)
	c.reg.R[n] <<= 1
	return nil
}

// SHAR Rn
func opSHAR(c *SH4, op uint16) error {
	n := rn(op)
	c.reg.setT(c.reg.R[n]&1 != 0)
	c.reg.R[n] = uint32(int32(c.reg.R[n]) >> 1)
	return nil
}

// SHLD Rm,Rn
func opSHLD(c *SH4, op uint16) error {
	r := &c.reg
	n, m := rn(op), rm(op)
	shift := r.R[m]
	if int32(shift) >= 0 {
		r.R[n] <<= shift & 0x1F
	} else if shift&0x1F == 0 {
		r.R[n] = 0
	} else {
		r.R[n] >>= (^shift & 0x1F) + 1
	}
	return nil
}

// SHLL Rn
func opSHLL(c *SH4, op uint16) error {
	n := rn(op)
	c.reg.setT(c.reg.R[n]>>31 != 0)
	c.reg.R[n] <<= 1
	return nil
}

// SHLR Rn
func opSHLR(c *SH4, op uint16) error {
	n := rn(op)
	c.reg.setT(c.reg.R[n]&1 != 0)
	c.reg.R[n] >>= 1
	return nil
}

// SHLL2 Rn
func opSHLL2(c *SH4, op uint16) error {
	c.reg.R[rn(op)] <<= 2
	return nil
}

// SHLR2 Rn
func opSHLR2(c *SH4, op uint16) error {
	c.reg.R[rn(op)] >>= 2
	return nil
}

// SHLL8 Rn
func opSHLL8(c *SH4, op uint16) error {
	c.reg.R[rn(op)] <<= 8
	return nil
}

// SHLR8 Rn
func opSHLR8(c *SH4, op uint16) error {
	c.reg.R[rn(op)] >>= 8
	return nil
}

// SHLL16 Rn
func opSHLL16(c *SH4, op uint16) error {
	c.reg.R[rn(op)] <<= 16
	return nil
}

// SHLR16 Rn
func opSHLR16(c *SH4, op uint16) error {
	c.reg.R[rn(op)] >>= 16
	return nil
}

// --- branches -----------------------------------------------------------

func branchDisp8(c *SH4, op uint16) uint32 {
	return c.reg.PC + 4 + bit.SignExtend8(uint8(op))*2
}

// BF disp
func opBF(c *SH4, op uint16) error {
	if !c.reg.flagT() {
		c.reg.PC = branchDisp8(c, op)
		c.pcSet = true
	}
	return nil
}

// BF/S disp
func opBFS(c *SH4, op uint16) error {
	if !c.reg.flagT() {
		c.delayedTarget = branchDisp8(c, op)
		c.delayedPending = true
	}
	return nil
}

// BT disp
func opBT(c *SH4, op uint16) error {
	if c.reg.flagT() {
		c.reg.PC = branchDisp8(c, op)
		c.pcSet = true
	}
	return nil
}

// BT/S disp
func opBTS(c *SH4, op uint16) error {
	if c.reg.flagT() {
		c.delayedTarget = branchDisp8(c, op)
		c.delayedPending = true
	}
	return nil
}

// BRA disp
func opBRA(c *SH4, op uint16) error {
	c.delayedTarget = c.reg.PC + 4 + bit.SignExtend12(op&0xFFF)*2
	c.delayedPending = true
	return nil
}

// BRAF Rn
func opBRAF(c *SH4, op uint16) error {
	c.delayedTarget = c.reg.PC + 4 + c.reg.R[rn(op)]
	c.delayedPending = true
	return nil
}

// BSR disp
func opBSR(c *SH4, op uint16) error {
	c.reg.PR = c.reg.PC + 4
	c.delayedTarget = c.reg.PC + 4 + bit.SignExtend12(op&0xFFF)*2
	c.delayedPending = true
	return nil
}

// BSRF Rn
func opBSRF(c *SH4, op uint16) error {
	c.reg.PR = c.reg.PC + 4
	c.delayedTarget = c.reg.PC + 4 + c.reg.R[rn(op)]
	c.delayedPending = true
	return nil
}

// JMP @Rn
func opJMP(c *SH4, op uint16) error {
	c.delayedTarget = c.reg.R[rn(op)]
	c.delayedPending = true
	return nil
}

// JSR @Rn
func opJSR(c *SH4, op uint16) error {
	c.reg.PR = c.reg.PC + 4
	c.delayedTarget = c.reg.R[rn(op)]
	c.delayedPending = true
	return nil
}

// RTS
func opRTS(c *SH4, op uint16) error {
	c.delayedTarget = c.reg.PR
	c.delayedPending = true
	return nil
}

// --- system -------------------------------------------------------------

// CLRMAC
func opCLRMAC(c *SH4, op uint16) error {
	c.reg.MACH = 0
	c.reg.MACL = 0
	return nil
}

// CLRS
func opCLRS(c *SH4, op uint16) error {
	c.reg.SR &^= srS
	return nil
}

// CLRT
func opCLRT(c *SH4, op uint16) error {
	c.reg.setT(false)
	return nil
}

// SETS
func opSETS(c *SH4, op uint16) error {
	c.reg.SR |= srS
	return nil
}

// SETT
func opSETT(c *SH4, op uint16) error {
	c.reg.setT(true)
	return nil
}

// NOP
func opNOP(c *SH4, op uint16) error {
	return nil
}

// SLEEP
func opSLEEP(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	c.sleeping = true
	return nil
}

// RTE
func opRTE(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	c.delayedTarget = c.reg.SPC
	c.delayedPending = true
	c.reg.setSR(c.reg.SSR)
	c.refreshInterrupts()
	return nil
}

// LDTLB
func opLDTLB(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	c.loadTLB()
	return nil
}

// TRAPA #imm
func opTRAPA(c *SH4, op uint16) error {
	r := &c.reg
	r.TRA = imm8(op) << 2

	r.SSR = r.SR
	r.SPC = r.PC + 2
	r.SGR = r.R[15]
	r.EXPEVT = uint32(ExcpUnconditionalTrap)
	r.setSR(r.SR | srBL | srMD | srRB)
	r.PC = r.VBR + 0x100
	c.pcSet = true
	return nil
}

// --- control register transfers ----------------------------------------

// LDC Rm,SR
func opLDCSR(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	c.reg.setSR(c.reg.R[rn(op)])
	c.refreshInterrupts()
	return nil
}

// LDC Rm,GBR
func opLDCGBR(c *SH4, op uint16) error {
	c.reg.GBR = c.reg.R[rn(op)]
	return nil
}

// LDC Rm,VBR
func opLDCVBR(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	c.reg.VBR = c.reg.R[rn(op)]
	return nil
}

// LDC Rm,SSR
func opLDCSSR(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	c.reg.SSR = c.reg.R[rn(op)]
	return nil
}

// LDC Rm,SPC
func opLDCSPC(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	c.reg.SPC = c.reg.R[rn(op)]
	return nil
}

// LDC Rm,DBR
func opLDCDBR(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	c.reg.DBR = c.reg.R[rn(op)]
	return nil
}

// LDC Rm,Rn_BANK
func opLDCBANK(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	c.reg.setBanked(rm(op)&7, c.reg.R[rn(op)])
	return nil
}

func (c *SH4) popLong(m int) (uint32, error) {
	v, err := c.readVirt32(c.reg.R[m])
	if err != nil {
		return 0, err
	}
	c.reg.R[m] += 4
	return v, nil
}

// LDC.L @Rm+,SR
func opLDCLSR(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	v, err := c.popLong(rn(op))
	if err != nil {
		return err
	}
	c.reg.setSR(v)
	c.refreshInterrupts()
	return nil
}

// LDC.L @Rm+,GBR
func opLDCLGBR(c *SH4, op uint16) error {
	v, err := c.popLong(rn(op))
	if err != nil {
		return err
	}
	c.reg.GBR = v
	return nil
}

// LDC.L @Rm+,VBR
func opLDCLVBR(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	v, err := c.popLong(rn(op))
	if err != nil {
		return err
	}
	c.reg.VBR = v
	return nil
}

// LDC.L @Rm+,SSR
func opLDCLSSR(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	v, err := c.popLong(rn(op))
	if err != nil {
		return err
	}
	c.reg.SSR = v
	return nil
}

// LDC.L @Rm+,SPC
func opLDCLSPC(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	v, err := c.popLong(rn(op))
	if err != nil {
		return err
	}
	c.reg.SPC = v
	return nil
}

// LDC.L @Rm+,DBR
func opLDCLDBR(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	v, err := c.popLong(rn(op))
	if err != nil {
		return err
	}
	c.reg.DBR = v
	return nil
}

// LDC.L @Rm+,Rn_BANK
func opLDCLBANK(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	v, err := c.popLong(rn(op))
	if err != nil {
		return err
	}
	c.reg.setBanked(rm(op)&7, v)
	return nil
}

// STC SR,Rn
func opSTCSR(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	c.reg.R[rn(op)] = c.reg.SR
	return nil
}

// STC GBR,Rn
func opSTCGBR(c *SH4, op uint16) error {
	c.reg.R[rn(op)] = c.reg.GBR
	return nil
}

// STC VBR,Rn
func opSTCVBR(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	c.reg.R[rn(op)] = c.reg.VBR
	return nil
}

// STC SSR,Rn
func opSTCSSR(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	c.reg.R[rn(op)] = c.reg.SSR
	return nil
}

// STC SPC,Rn
func opSTCSPC(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	c.reg.R[rn(op)] = c.reg.SPC
	return nil
}

// STC SGR,Rn
func opSTCSGR(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	c.reg.R[rn(op)] = c.reg.SGR
	return nil
}

// STC DBR,Rn
func opSTCDBR(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	c.reg.R[rn(op)] = c.reg.DBR
	return nil
}

// STC Rm_BANK,Rn
func opSTCBANK(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	c.reg.R[rn(op)] = c.reg.getBanked(rm(op) & 7)
	return nil
}

func (c *SH4) pushLong(n int, v uint32) error {
	addr := c.reg.R[n] - 4
	if err := c.writeVirt32(addr, v); err != nil {
		return err
	}
	c.reg.R[n] = addr
	return nil
}

// STC.L SR,@-Rn
func opSTCLSR(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	return c.pushLong(rn(op), c.reg.SR)
}

// STC.L GBR,@-Rn
func opSTCLGBR(c *SH4, op uint16) error {
	return c.pushLong(rn(op), c.reg.GBR)
}

// STC.L VBR,@-Rn
func opSTCLVBR(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	return c.pushLong(rn(op), c.reg.VBR)
}

// STC.L SSR,@-Rn
func opSTCLSSR(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	return c.pushLong(rn(op), c.reg.SSR)
}

// STC.L SPC,@-Rn
func opSTCLSPC(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	return c.pushLong(rn(op), c.reg.SPC)
}

// STC.L SGR,@-Rn
func opSTCLSGR(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	return c.pushLong(rn(op), c.reg.SGR)
}

// STC.L DBR,@-Rn
func opSTCLDBR(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	return c.pushLong(rn(op), c.reg.DBR)
}

// STC.L Rm_BANK,@-Rn
func opSTCLBANK(c *SH4, op uint16) error {
	if err := c.privCheck(); err != nil {
		return err
	}
	return c.pushLong(rn(op), c.reg.getBanked(rm(op)&7))
}

// LDS Rm,MACH
func opLDSMACH(c *SH4, op uint16) error {
	c.reg.MACH = c.reg.R[rn(op)]
	return nil
}

// LDS Rm,MACL
func opLDSMACL(c *SH4, op uint16) error {
	c.reg.MACL = c.reg.R[rn(op)]
	return nil
}

// LDS Rm,PR
func opLDSPR(c *SH4, op uint16) error {
	c.reg.PR = c.reg.R[rn(op)]
	return nil
}

// LDS.L @Rm+,MACH
func opLDSLMACH(c *SH4, op uint16) error {
	v, err := c.popLong(rn(op))
	if err != nil {
		return err
	}
	c.reg.MACH = v
	return nil
}

// LDS.L @Rm+,MACL
func opLDSLMACL(c *SH4, op uint16) error {
	v, err := c.popLong(rn(op))
	if err != nil {
		return err
	}
	c.reg.MACL = v
	return nil
}

// LDS.L @Rm+,PR
func opLDSLPR(c *SH4, op uint16) error {
	v, err := c.popLong(rn(op))
	if err != nil {
		return err
	}
	c.reg.PR = v
	return nil
}

// STS MACH,Rn
func opSTSMACH(c *SH4, op uint16) error {
	c.reg.R[rn(op)] = c.reg.MACH
	return nil
}

// STS MACL,Rn
func opSTSMACL(c *SH4, op uint16) error {
	c.reg.R[rn(op)] = c.reg.MACL
	return nil
}

// STS PR,Rn
func opSTSPR(c *SH4, op uint16) error {
	c.reg.R[rn(op)] = c.reg.PR
	return nil
}

// STS.L MACH,@-Rn
func opSTSLMACH(c *SH4, op uint16) error {
	return c.pushLong(rn(op), c.reg.MACH)
}

// STS.L MACL,@-Rn
func opSTSLMACL(c *SH4, op uint16) error {
	return c.pushLong(rn(op), c.reg.MACL)
}

// STS.L PR,@-Rn
func opSTSLPR(c *SH4, op uint16) error {
	return c.pushLong(rn(op), c.reg.PR)
}

// MOVCA.L R0,@Rn
func opMOVCAL(c *SH4, op uint16) error {
	return c.writeVirt32(c.reg.R[rn(op)], c.reg.R[0])
}

// OCBI @Rn
func opOCBI(c *SH4, op uint16) error {
	return nil
}

// OCBP @Rn
func opOCBP(c *SH4, op uint16) error {
	return nil
}

// OCBWB @Rn
func opOCBWB(c *SH4, op uint16) error {
	return nil
}

// PREF @Rn
func opPREF(c *SH4, op uint16) error {
	addr := c.reg.R[rn(op)]
	if isStoreQueueAddr(addr) {
		return c.sqPrefetch(addr)
	}
	// an ordinary prefetch is a hint; the cache is not modeled
	return nil
}
