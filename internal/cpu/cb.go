package cpu

// stepCB executes one instruction from the CB-prefixed page. The
// second opcode byte encodes operation group, bit/op selector and
// register index, so the whole page decodes without a table.
func (c *CPU) stepCB() int {
	op := c.fetch8()
	reg := op & 7
	sel := (op >> 3) & 7

	cycles := 8
	if reg == 6 {
		cycles = 16
	}

	switch op >> 6 {
	case 0: // rotates, shifts, swap
		v := c.getReg(reg)
		var out byte
		switch sel {
		case 0: // RLC
			out = v >> 7
			v = v<<1 | out
		case 1: // RRC
			out = v & 1
			v = v>>1 | out<<7
		case 2: // RL
			out = v >> 7
			v = v<<1 | c.carryIn()
		case 3: // RR, unlike RRA, computes Z from the result
			out = v & 1
			v = v>>1 | c.carryIn()<<7
		case 4: // SLA
			out = v >> 7
			v <<= 1
		case 5: // SRA keeps the sign bit
			out = v & 1
			v = v>>1 | v&0x80
		case 6: // SWAP
			out = 0
			v = v<<4 | v>>4
		case 7: // SRL
			out = v & 1
			v >>= 1
		}
		c.setReg(reg, v)
		c.setZNHC(v == 0, false, false, out == 1)
	case 1: // BIT sel,r: Z from the tested bit, C preserved
		v := c.getReg(reg)
		c.F = c.F&flagC | flagH
		if v&(1<<sel) == 0 {
			c.F |= flagZ
		}
		if reg == 6 {
			cycles = 12 // BIT only reads memory
		}
	case 2: // RES sel,r
		c.setReg(reg, c.getReg(reg)&^(1<<sel))
	case 3: // SET sel,r
		c.setReg(reg, c.getReg(reg)|1<<sel)
	}
	return cycles
}
