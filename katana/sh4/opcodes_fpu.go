package sh4

import "math"

// fpuCheck raises the FPU-disable exception when SR.FD is set.
func (c *SH4) fpuCheck() error {
	if c.reg.SR&srFD != 0 {
		if c.inSlot {
			return trap(ExcpSlotFPUDisable)
		}
		return trap(ExcpGenFPUDisable)
	}
	return nil
}

// pair access for SZ=1 moves: odd register numbers select the XD (shadow
// bank) pairs.
func (r *regFile) getPair(reg int) (lo, hi uint32) {
	base := reg & 0xE
	if reg&1 != 0 {
		return r.XF[base], r.XF[base+1]
	}
	return r.FR[base], r.FR[base+1]
}

func (r *regFile) setPair(reg int, lo, hi uint32) {
	base := reg & 0xE
	if reg&1 != 0 {
		r.XF[base] = lo
		r.XF[base+1] = hi
		return
	}
	r.FR[base] = lo
	r.FR[base+1] = hi
}

// FLDI0 FRn
func opFLDI0(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	c.reg.FR[rn(op)] = 0
	return nil
}

// FLDI1 FRn
func opFLDI1(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	c.reg.FR[rn(op)] = math.Float32bits(1.0)
	return nil
}

// FLDS FRm,FPUL
func opFLDS(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	c.reg.FPUL = c.reg.FR[rn(op)]
	return nil
}

// FSTS FPUL,FRn
func opFSTS(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	c.reg.FR[rn(op)] = c.reg.FPUL
	return nil
}

// FABS FRn / FABS DRn
func opFABS(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n := rn(op)
	if c.reg.fpuDouble() {
		c.reg.setDR(n, math.Abs(c.reg.getDR(n)))
	} else {
		c.reg.FR[n] &^= 0x80000000
	}
	return nil
}

// FNEG FRn / FNEG DRn
func opFNEG(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n := rn(op)
	if c.reg.fpuDouble() {
		c.reg.setDR(n, -c.reg.getDR(n))
	} else {
		c.reg.FR[n] ^= 0x80000000
	}
	return nil
}

// FADD FRm,FRn / FADD DRm,DRn
func opFADD(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n, m := rn(op), rm(op)
	if c.reg.fpuDouble() {
		c.reg.setDR(n, c.reg.getDR(n)+c.reg.getDR(m))
	} else {
		c.reg.setFR(n, c.reg.getFR(n)+c.reg.getFR(m))
	}
	return nil
}

// FSUB FRm,FRn / FSUB DRm,DRn
func opFSUB(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n, m := rn(op), rm(op)
	if c.reg.fpuDouble() {
		c.reg.setDR(n, c.reg.getDR(n)-c.reg.getDR(m))
	} else {
		c.reg.setFR(n, c.reg.getFR(n)-c.reg.getFR(m))
	}
	return nil
}

// FMUL FRm,FRn / FMUL DRm,DRn
func opFMUL(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n, m := rn(op), rm(op)
	if c.reg.fpuDouble() {
		c.reg.setDR(n, c.reg.getDR(n)*c.reg.getDR(m))
	} else {
		c.reg.setFR(n, c.reg.getFR(n)*c.reg.getFR(m))
	}
	return nil
}

// FDIV FRm,FRn / FDIV DRm,DRn
func opFDIV(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n, m := rn(op), rm(op)
	if c.reg.fpuDouble() {
		c.reg.setDR(n, c.reg.getDR(n)/c.reg.getDR(m))
	} else {
		c.reg.setFR(n, c.reg.getFR(n)/c.reg.getFR(m))
	}
	return nil
}

// FSQRT FRn / FSQRT DRn
func opFSQRT(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n := rn(op)
	if c.reg.fpuDouble() {
		c.reg.setDR(n, math.Sqrt(c.reg.getDR(n)))
	} else {
		c.reg.setFR(n, float32(math.Sqrt(float64(c.reg.getFR(n)))))
	}
	return nil
}

// FSRRA FRn
func opFSRRA(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n := rn(op)
	c.reg.setFR(n, float32(1.0/math.Sqrt(float64(c.reg.getFR(n)))))
	return nil
}

// FSCA FPUL,DRn
func opFSCA(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n := rn(op) & 0xE
	angle := float64(c.reg.FPUL&0xFFFF) / 65536.0 * 2 * math.Pi
	c.reg.setFR(n, float32(math.Sin(angle)))
	c.reg.setFR(n+1, float32(math.Cos(angle)))
	return nil
}

// FCMP/EQ FRm,FRn
func opFCMPEQ(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n, m := rn(op), rm(op)
	if c.reg.fpuDouble() {
		c.reg.setT(c.reg.getDR(n) == c.reg.getDR(m))
	} else {
		c.reg.setT(c.reg.getFR(n) == c.reg.getFR(m))
	}
	return nil
}

// FCMP/GT FRm,FRn
func opFCMPGT(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n, m := rn(op), rm(op)
	if c.reg.fpuDouble() {
		c.reg.setT(c.reg.getDR(n) > c.reg.getDR(m))
	} else {
		c.reg.setT(c.reg.getFR(n) > c.reg.getFR(m))
	}
	return nil
}

// FLOAT FPUL,FRn / FLOAT FPUL,DRn
func opFLOAT(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n := rn(op)
	if c.reg.fpuDouble() {
		c.reg.setDR(n, float64(int32(c.reg.FPUL)))
	} else {
		c.reg.setFR(n, float32(int32(c.reg.FPUL)))
	}
	return nil
}

// ftrcClamp converts with the saturation the hardware applies.
func ftrcClamp(v float64) uint32 {
	switch {
	case math.IsNaN(v):
		return 0x80000000
	case v >= 2147483647.0:
		return 0x7FFFFFFF
	case v <= -2147483648.0:
		return 0x80000000
	default:
		return uint32(int32(v))
	}
}

// FTRC FRn,FPUL / FTRC DRn,FPUL
func opFTRC(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n := rn(op)
	if c.reg.fpuDouble() {
		c.reg.FPUL = ftrcClamp(c.reg.getDR(n))
	} else {
		c.reg.FPUL = ftrcClamp(float64(c.reg.getFR(n)))
	}
	return nil
}

// FCNVDS DRm,FPUL
func opFCNVDS(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	c.reg.FPUL = math.Float32bits(float32(c.reg.getDR(rn(op))))
	return nil
}

// FCNVSD FPUL,DRn
func opFCNVSD(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	c.reg.setDR(rn(op), float64(math.Float32frombits(c.reg.FPUL)))
	return nil
}

// FMAC FR0,FRm,FRn
func opFMAC(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n, m := rn(op), rm(op)
	c.reg.setFR(n, c.reg.getFR(0)*c.reg.getFR(m)+c.reg.getFR(n))
	return nil
}

// FIPR FVm,FVn
func opFIPR(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n := int((op>>10)&3) * 4
	m := int((op>>8)&3) * 4
	var sum float32
	for i := 0; i < 4; i++ {
		sum += c.reg.getFR(n+i) * c.reg.getFR(m+i)
	}
	c.reg.setFR(n+3, sum)
	return nil
}

// FTRV XMTRX,FVn
func opFTRV(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n := int((op>>10)&3) * 4

	var v [4]float32
	for i := 0; i < 4; i++ {
		v[i] = c.reg.getFR(n + i)
	}
	// XMTRX is column-major in the XF bank
	for i := 0; i < 4; i++ {
		var sum float32
		for j := 0; j < 4; j++ {
			sum += math.Float32frombits(c.reg.XF[i+4*j]) * v[j]
		}
		c.reg.setFR(n+i, sum)
	}
	return nil
}

// FRCHG
func opFRCHG(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	c.reg.setFPSCR(c.reg.FPSCR ^ fpscrFR)
	return nil
}

// FSCHG
func opFSCHG(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	c.reg.setFPSCR(c.reg.FPSCR ^ fpscrSZ)
	return nil
}

// --- FPU moves ----------------------------------------------------------

// FMOV FRm,FRn (SZ=0) / FMOV DRm/XDm,DRn/XDn (SZ=1)
func opFMOV(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n, m := rn(op), rm(op)
	if c.reg.fpuPairMove() {
		lo, hi := c.reg.getPair(m)
		c.reg.setPair(n, lo, hi)
	} else {
		c.reg.FR[n] = c.reg.FR[m]
	}
	return nil
}

// FMOV.S @Rm,FRn / FMOV @Rm,DRn
func opFMOVLoad(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n, m := rn(op), rm(op)
	addr := c.reg.R[m]
	if c.reg.fpuPairMove() {
		v, err := c.readVirt64(addr)
		if err != nil {
			return err
		}
		c.reg.setPair(n, uint32(v), uint32(v>>32))
		return nil
	}
	v, err := c.readVirt32(addr)
	if err != nil {
		return err
	}
	c.reg.FR[n] = v
	return nil
}

// FMOV.S FRm,@Rn / FMOV DRm,@Rn
func opFMOVStore(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n, m := rn(op), rm(op)
	addr := c.reg.R[n]
	if c.reg.fpuPairMove() {
		lo, hi := c.reg.getPair(m)
		return c.writeVirt64(addr, uint64(hi)<<32|uint64(lo))
	}
	return c.writeVirt32(addr, c.reg.FR[m])
}

// FMOV.S @Rm+,FRn / FMOV @Rm+,DRn
func opFMOVRestore(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n, m := rn(op), rm(op)
	if c.reg.fpuPairMove() {
		v, err := c.readVirt64(c.reg.R[m])
		if err != nil {
			return err
		}
		c.reg.R[m] += 8
		c.reg.setPair(n, uint32(v), uint32(v>>32))
		return nil
	}
	v, err := c.readVirt32(c.reg.R[m])
	if err != nil {
		return err
	}
	c.reg.R[m] += 4
	c.reg.FR[n] = v
	return nil
}

// FMOV.S FRm,@-Rn / FMOV DRm,@-Rn
func opFMOVSave(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n, m := rn(op), rm(op)
	if c.reg.fpuPairMove() {
		addr := c.reg.R[n] - 8
		lo, hi := c.reg.getPair(m)
		if err := c.writeVirt64(addr, uint64(hi)<<32|uint64(lo)); err != nil {
			return err
		}
		c.reg.R[n] = addr
		return nil
	}
	addr := c.reg.R[n] - 4
	if err := c.writeVirt32(addr, c.reg.FR[m]); err != nil {
		return err
	}
	c.reg.R[n] = addr
	return nil
}

// FMOV.S @(R0,Rm),FRn / FMOV @(R0,Rm),DRn
func opFMOVIndexLoad(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n, m := rn(op), rm(op)
	addr := c.reg.R[m] + c.reg.R[0]
	if c.reg.fpuPairMove() {
		v, err := c.readVirt64(addr)
		if err != nil {
			return err
		}
		c.reg.setPair(n, uint32(v), uint32(v>>32))
		return nil
	}
	v, err := c.readVirt32(addr)
	if err != nil {
		return err
	}
	c.reg.FR[n] = v
	return nil
}

// FMOV.S FRm,@(R0,Rn) / FMOV DRm,@(R0,Rn)
func opFMOVIndexStore(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	n, m := rn(op), rm(op)
	addr := c.reg.R[n] + c.reg.R[0]
	if c.reg.fpuPairMove() {
		lo, hi := c.reg.getPair(m)
		return c.writeVirt64(addr, uint64(hi)<<32|uint64(lo))
	}
	return c.writeVirt32(addr, c.reg.FR[m])
}

// --- FPU system registers ----------------------------------------------

// LDS Rm,FPSCR
func opLDSFPSCR(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	c.reg.setFPSCR(c.reg.R[rn(op)])
	return nil
}

// LDS Rm,FPUL
func opLDSFPUL(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	c.reg.FPUL = c.reg.R[rn(op)]
	return nil
}

// LDS.L @Rm+,FPSCR
func opLDSLFPSCR(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	v, err := c.popLong(rn(op))
	if err != nil {
		return err
	}
	c.reg.setFPSCR(v)
	return nil
}

// LDS.L @Rm+,FPUL
func opLDSLFPUL(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	v, err := c.popLong(rn(op))
	if err != nil {
		return err
	}
	c.reg.FPUL = v
	return nil
}

// STS FPSCR,Rn
func opSTSFPSCR(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	c.reg.R[rn(op)] = c.reg.FPSCR
	return nil
}

// STS FPUL,Rn
func opSTSFPUL(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	c.reg.R[rn(op)] = c.reg.FPUL
	return nil
}

// STS.L FPSCR,@-Rn
func opSTSLFPSCR(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	return c.pushLong(rn(op), c.reg.FPSCR)
}

// STS.L FPUL,@-Rn
func opSTSLFPUL(c *SH4, op uint16) error {
	if err := c.fpuCheck(); err != nil {
		return err
	}
	return c.pushLong(rn(op), c.reg.FPUL)
}
