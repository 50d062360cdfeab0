package cpu

import "github.com/retroware/gbcore/internal/gblog"

// Step executes one instruction and returns its machine-cycle cost.
// An opcode with no handler logs at Err, latches the fault flag and
// costs nothing.
func (c *CPU) Step() (cycles int) {
	// EI takes effect only after the instruction that follows it
	defer func() {
		if c.eiPending {
			c.IME = true
			c.eiPending = false
		}
	}()

	if c.halted {
		if c.IME {
			if cyc := c.serviceInterrupt(); cyc != 0 {
				return cyc
			}
			return 4
		}
		// wake on a pending interrupt without servicing it
		if c.bus.Read(0xFFFF)&c.bus.Read(0xFF0F)&0x1F != 0 {
			c.halted = false
		} else {
			return 4
		}
	}

	if c.IME {
		if cyc := c.serviceInterrupt(); cyc != 0 {
			return cyc
		}
	}

	op := c.fetch8()

	// The two dense quadrants dispatch on the encoded register index.
	switch {
	case op == 0x76: // HALT sits in the middle of the LD block
		if !c.IME && c.bus.Read(0xFFFF)&c.bus.Read(0xFF0F)&0x1F != 0 {
			// simplified HALT bug: pending interrupt with IME clear
			// means the CPU never actually halts
			return 4
		}
		c.halted = true
		return 4
	case op >= 0x40 && op < 0x80: // LD r,r' (self-copies included)
		dst, src := (op>>3)&7, op&7
		c.setReg(dst, c.getReg(src))
		if dst == 6 || src == 6 {
			return 8
		}
		return 4
	case op >= 0x80 && op < 0xC0: // ADD..CP A,r
		src := op & 7
		c.alu((op>>3)&7, c.getReg(src))
		if src == 6 {
			return 8
		}
		return 4
	}

	switch op {
	case 0x00: // NOP
		return 4
	case 0x10: // STOP consumes its padding byte
		c.fetch8()
		return 4

	// LD r,u8 / LD (HL),u8
	case 0x06, 0x0E, 0x16, 0x1E, 0x26, 0x2E, 0x36, 0x3E:
		dst := (op >> 3) & 7
		c.setReg(dst, c.fetch8())
		if dst == 6 {
			return 12
		}
		return 8

	// 16-bit immediate loads
	case 0x01:
		c.SetBC(c.fetch16())
		return 12
	case 0x11:
		c.SetDE(c.fetch16())
		return 12
	case 0x21:
		c.SetHL(c.fetch16())
		return 12
	case 0x31:
		c.SP = c.fetch16()
		return 12
	case 0x08: // LD (u16),SP
		c.write16(c.fetch16(), c.SP)
		return 20

	// A <-> (BC)/(DE)
	case 0x02:
		c.write8(c.BC(), c.A)
		return 8
	case 0x12:
		c.write8(c.DE(), c.A)
		return 8
	case 0x0A:
		c.A = c.read8(c.BC())
		return 8
	case 0x1A:
		c.A = c.read8(c.DE())
		return 8

	// LDI/LDD through HL
	case 0x22:
		c.write8(c.HL(), c.A)
		c.SetHL(c.HL() + 1)
		return 8
	case 0x2A:
		c.A = c.read8(c.HL())
		c.SetHL(c.HL() + 1)
		return 8
	case 0x32:
		c.write8(c.HL(), c.A)
		c.SetHL(c.HL() - 1)
		return 8
	case 0x3A:
		c.A = c.read8(c.HL())
		c.SetHL(c.HL() - 1)
		return 8

	// high-page loads
	case 0xE0:
		c.write8(0xFF00+uint16(c.fetch8()), c.A)
		return 12
	case 0xF0:
		c.A = c.read8(0xFF00 + uint16(c.fetch8()))
		return 12
	case 0xE2:
		c.write8(0xFF00+uint16(c.C), c.A)
		return 8
	case 0xF2:
		c.A = c.read8(0xFF00 + uint16(c.C))
		return 8
	case 0xEA:
		c.write8(c.fetch16(), c.A)
		return 16
	case 0xFA:
		c.A = c.read8(c.fetch16())
		return 16

	// INC r / DEC r
	case 0x04, 0x0C, 0x14, 0x1C, 0x24, 0x2C, 0x34, 0x3C:
		dst := (op >> 3) & 7
		old := c.getReg(dst)
		c.setReg(dst, old+1)
		c.setZNHC(old+1 == 0, false, old&0x0F == 0x0F, c.carrySet())
		if dst == 6 {
			return 12
		}
		return 4
	case 0x05, 0x0D, 0x15, 0x1D, 0x25, 0x2D, 0x35, 0x3D:
		dst := (op >> 3) & 7
		old := c.getReg(dst)
		c.setReg(dst, old-1)
		c.setZNHC(old-1 == 0, true, old&0x0F == 0x00, c.carrySet())
		if dst == 6 {
			return 12
		}
		return 4

	// 16-bit INC/DEC, no flag effects
	case 0x03:
		c.SetBC(c.BC() + 1)
		return 8
	case 0x13:
		c.SetDE(c.DE() + 1)
		return 8
	case 0x23:
		c.SetHL(c.HL() + 1)
		return 8
	case 0x33:
		c.SP++
		return 8
	case 0x0B:
		c.SetBC(c.BC() - 1)
		return 8
	case 0x1B:
		c.SetDE(c.DE() - 1)
		return 8
	case 0x2B:
		c.SetHL(c.HL() - 1)
		return 8
	case 0x3B:
		c.SP--
		return 8

	// ADD HL,rr
	case 0x09:
		c.addHL(c.BC())
		return 8
	case 0x19:
		c.addHL(c.DE())
		return 8
	case 0x29:
		c.addHL(c.HL())
		return 8
	case 0x39:
		c.addHL(c.SP)
		return 8

	// ALU immediates share the alu index encoding with the register
	// forms
	case 0xC6, 0xCE, 0xD6, 0xDE, 0xE6, 0xEE, 0xF6, 0xFE:
		c.alu((op>>3)&7, c.fetch8())
		return 8

	// accumulator rotates always clear Z
	case 0x07: // RLCA
		out := c.A >> 7
		c.A = c.A<<1 | out
		c.setZNHC(false, false, false, out == 1)
		return 4
	case 0x0F: // RRCA
		out := c.A & 1
		c.A = c.A>>1 | out<<7
		c.setZNHC(false, false, false, out == 1)
		return 4
	case 0x17: // RLA
		out := c.A >> 7
		c.A = c.A<<1 | c.carryIn()
		c.setZNHC(false, false, false, out == 1)
		return 4
	case 0x1F: // RRA
		out := c.A & 1
		c.A = c.A>>1 | c.carryIn()<<7
		c.setZNHC(false, false, false, out == 1)
		return 4

	case 0x27: // DAA
		var adj byte
		if c.F&flagH != 0 {
			adj |= 0x06
		}
		if c.F&flagC != 0 {
			adj |= 0x60
		}
		if c.F&flagN == 0 {
			if c.A&0x0F > 0x09 {
				adj |= 0x06
			}
			if c.A > 0x99 {
				adj |= 0x60
			}
			c.A += adj
		} else {
			c.A -= adj
		}
		c.setZNHC(c.A == 0, c.F&flagN != 0, false, adj&0x60 != 0)
		return 4
	case 0x2F: // CPL
		c.A = ^c.A
		c.F = c.F&(flagZ|flagC) | flagN | flagH
		return 4
	case 0x37: // SCF
		c.F = c.F&flagZ | flagC
		return 4
	case 0x3F: // CCF
		c.F = (c.F & (flagZ | flagC)) ^ flagC
		return 4

	// relative jumps
	case 0x18:
		off := int8(c.fetch8())
		c.PC += uint16(off)
		return 12
	case 0x20, 0x28, 0x30, 0x38:
		off := int8(c.fetch8())
		if c.cond((op >> 3) & 3) {
			c.PC += uint16(off)
			return 12
		}
		return 8

	// absolute jumps
	case 0xC3:
		c.PC = c.fetch16()
		return 16
	case 0xE9: // JP HL
		c.PC = c.HL()
		return 4
	case 0xC2, 0xCA, 0xD2, 0xDA:
		addr := c.fetch16()
		if c.cond((op >> 3) & 3) {
			c.PC = addr
			return 16
		}
		return 12

	// calls and returns
	case 0xCD:
		addr := c.fetch16()
		c.push16(c.PC)
		c.PC = addr
		return 24
	case 0xC4, 0xCC, 0xD4, 0xDC:
		addr := c.fetch16()
		if c.cond((op >> 3) & 3) {
			c.push16(c.PC)
			c.PC = addr
			return 24
		}
		return 12
	case 0xC9:
		c.PC = c.pop16()
		return 16
	case 0xD9: // RETI enables IME immediately
		c.PC = c.pop16()
		c.IME = true
		return 16
	case 0xC0, 0xC8, 0xD0, 0xD8:
		if c.cond((op >> 3) & 3) {
			c.PC = c.pop16()
			return 20
		}
		return 8

	// restarts
	case 0xC7, 0xCF, 0xD7, 0xDF, 0xE7, 0xEF, 0xF7, 0xFF:
		c.push16(c.PC)
		c.PC = uint16(op & 0x38)
		return 16

	// stack register ops
	case 0xF5:
		c.push16(c.AF())
		return 16
	case 0xC5:
		c.push16(c.BC())
		return 16
	case 0xD5:
		c.push16(c.DE())
		return 16
	case 0xE5:
		c.push16(c.HL())
		return 16
	case 0xF1: // POP AF masks the low nibble of F
		c.SetAF(c.pop16())
		return 12
	case 0xC1:
		c.SetBC(c.pop16())
		return 12
	case 0xD1:
		c.SetDE(c.pop16())
		return 12
	case 0xE1:
		c.SetHL(c.pop16())
		return 12

	case 0xF8: // LD HL,SP+s8
		c.SetHL(c.addSP(c.fetch8()))
		return 12
	case 0xF9:
		c.SP = c.HL()
		return 8
	case 0xE8: // ADD SP,s8
		c.SP = c.addSP(c.fetch8())
		return 16

	case 0xF3: // DI
		c.IME = false
		c.eiPending = false
		return 4
	case 0xFB: // EI
		c.eiPending = true
		return 4

	case 0xCB:
		return c.stepCB()

	default:
		c.log.Logf(gblog.Err, gblog.CPU, "unhandled opcode %#02x at %#04x", op, c.PC-1)
		c.fault = true
		return 0
	}
}

// alu applies one of the eight accumulator operations, indexed the way
// the opcode encodes them: ADD ADC SUB SBC AND XOR OR CP.
func (c *CPU) alu(idx, y byte) {
	x := c.A
	switch idx {
	case 0, 1: // ADD / ADC
		ci := byte(0)
		if idx == 1 {
			ci = c.carryIn()
		}
		sum := uint16(x) + uint16(y) + uint16(ci)
		res := byte(sum)
		c.A = res
		c.setZNHC(res == 0, false, (x^y^res)&0x10 != 0, sum > 0xFF)
	case 2, 3, 7: // SUB / SBC / CP
		ci := byte(0)
		if idx == 3 {
			ci = c.carryIn()
		}
		diff := int16(x) - int16(y) - int16(ci)
		res := byte(diff)
		if idx != 7 {
			c.A = res
		}
		c.setZNHC(res == 0, true, (x^y^res)&0x10 != 0, diff < 0)
	case 4: // AND
		c.A = x & y
		c.setZNHC(c.A == 0, false, true, false)
	case 5: // XOR
		c.A = x ^ y
		c.setZNHC(c.A == 0, false, false, false)
	case 6: // OR
		c.A = x | y
		c.setZNHC(c.A == 0, false, false, false)
	}
}

// addHL implements ADD HL,rr. Z is preserved; H is the carry out of
// bit 11.
func (c *CPU) addHL(v uint16) {
	hl := c.HL()
	sum := uint32(hl) + uint32(v)
	res := uint16(sum)
	c.SetHL(res)
	c.setZNHC(c.F&flagZ != 0, false, (hl^v^res)&0x1000 != 0, sum > 0xFFFF)
}

// addSP computes SP plus a sign-extended offset for ADD SP,s8 and
// LD HL,SP+s8. H and C come from the low byte as on hardware; Z and N
// are always clear.
func (c *CPU) addSP(off byte) uint16 {
	res := c.SP + uint16(int8(off))
	h := (c.SP&0x0F)+uint16(off&0x0F) > 0x0F
	cy := (c.SP&0xFF)+uint16(off) > 0xFF
	c.setZNHC(false, false, h, cy)
	return res
}
