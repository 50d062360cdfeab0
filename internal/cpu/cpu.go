// Package cpu interprets SM83 machine code against the memory bus.
// Dispatch is a single switch per opcode page that the compiler lowers
// to a jump table; the hot path allocates nothing and has no error
// returns.
package cpu

import (
	"github.com/retroware/gbcore/internal/bus"
	"github.com/retroware/gbcore/internal/gblog"
)

// CPU holds the SM83 register file and executes instructions fetched
// through the Bus.
type CPU struct {
	A, F byte
	B, C byte
	D, E byte
	H, L byte

	SP uint16
	PC uint16

	IME    bool
	halted bool
	// EI enables IME only after the following instruction
	eiPending bool
	// set when dispatch hits an opcode with no handler; Run ends early
	fault bool

	bus *bus.Bus
	log *gblog.Logger
}

func New(b *bus.Bus, log *gblog.Logger) *CPU {
	if log == nil {
		log = gblog.Discard()
	}
	return &CPU{bus: b, log: log, SP: 0xFFFE}
}

// Bus exposes the underlying bus for tests and tools.
func (c *CPU) Bus() *bus.Bus { return c.bus }

// Faulted reports whether execution stopped on an unhandled opcode.
func (c *CPU) Faulted() bool { return c.fault }

// Reset points execution at the cartridge entry point. Other registers
// are left for the host to initialize.
func (c *CPU) Reset() {
	c.PC = 0x0100
	c.fault = false
}

// ResetNoBoot sets the registers to the usual DMG post-boot values,
// for running without a boot ROM.
func (c *CPU) ResetNoBoot() {
	c.A, c.F = 0x01, 0xB0
	c.B, c.C = 0x00, 0x13
	c.D, c.E = 0x00, 0xD8
	c.H, c.L = 0x01, 0x4D
	c.SP = 0xFFFE
	c.PC = 0x0100
	c.IME = false
	c.halted = false
	c.eiPending = false
	c.fault = false
}

// Flag bits of F. The low nibble is always zero.
const (
	flagZ byte = 1 << 7
	flagN byte = 1 << 6
	flagH byte = 1 << 5
	flagC byte = 1 << 4
)

func (c *CPU) setZNHC(z, n, h, cy bool) {
	var f byte
	if z {
		f |= flagZ
	}
	if n {
		f |= flagN
	}
	if h {
		f |= flagH
	}
	if cy {
		f |= flagC
	}
	c.F = f
}

func (c *CPU) carrySet() bool { return c.F&flagC != 0 }

func (c *CPU) carryIn() byte {
	if c.carrySet() {
		return 1
	}
	return 0
}

// 16-bit register pair views. F's low nibble stays masked under every
// write, which is what makes POP AF behave.
func (c *CPU) AF() uint16     { return uint16(c.A)<<8 | uint16(c.F&0xF0) }
func (c *CPU) SetAF(v uint16) { c.A = byte(v >> 8); c.F = byte(v) & 0xF0 }
func (c *CPU) BC() uint16     { return uint16(c.B)<<8 | uint16(c.C) }
func (c *CPU) SetBC(v uint16) { c.B = byte(v >> 8); c.C = byte(v) }
func (c *CPU) DE() uint16     { return uint16(c.D)<<8 | uint16(c.E) }
func (c *CPU) SetDE(v uint16) { c.D = byte(v >> 8); c.E = byte(v) }
func (c *CPU) HL() uint16     { return uint16(c.H)<<8 | uint16(c.L) }
func (c *CPU) SetHL(v uint16) { c.H = byte(v >> 8); c.L = byte(v) }

// Register indexing in the SM83 opcode encoding: B C D E H L (HL) A.
// Index 6 goes through memory at HL.
func (c *CPU) getReg(idx byte) byte {
	switch idx & 7 {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	case 6:
		return c.read8(c.HL())
	default:
		return c.A
	}
}

func (c *CPU) setReg(idx, v byte) {
	switch idx & 7 {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.H = v
	case 5:
		c.L = v
	case 6:
		c.write8(c.HL(), v)
	default:
		c.A = v
	}
}

// Branch conditions in the opcode encoding: NZ Z NC C.
func (c *CPU) cond(idx byte) bool {
	switch idx & 3 {
	case 0:
		return c.F&flagZ == 0
	case 1:
		return c.F&flagZ != 0
	case 2:
		return c.F&flagC == 0
	default:
		return c.F&flagC != 0
	}
}

func (c *CPU) read8(addr uint16) byte     { return c.bus.Read(addr) }
func (c *CPU) write8(addr uint16, v byte) { c.bus.Write(addr, v) }

func (c *CPU) fetch8() byte {
	v := c.read8(c.PC)
	c.PC++
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := uint16(c.fetch8())
	hi := uint16(c.fetch8())
	return hi<<8 | lo
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.read8(addr))
	hi := uint16(c.read8(addr + 1))
	return hi<<8 | lo
}

func (c *CPU) write16(addr uint16, v uint16) {
	c.write8(addr, byte(v))
	c.write8(addr+1, byte(v>>8))
}

func (c *CPU) push16(v uint16) {
	c.SP--
	c.write8(c.SP, byte(v>>8))
	c.SP--
	c.write8(c.SP, byte(v))
}

func (c *CPU) pop16() uint16 {
	lo := uint16(c.read8(c.SP))
	c.SP++
	hi := uint16(c.read8(c.SP))
	c.SP++
	return hi<<8 | lo
}

// serviceInterrupt dispatches the highest-priority pending interrupt
// when IME is set. Returns the cycle cost, or 0 when nothing fired.
func (c *CPU) serviceInterrupt() int {
	pending := c.bus.Read(bus.AddrIE) & c.bus.Read(bus.AddrIF) & 0x1F
	if pending == 0 {
		return 0
	}
	var bit uint
	for bit = 0; bit < 5; bit++ {
		if pending&(1<<bit) != 0 {
			break
		}
	}
	// acknowledge, then vector: 0x40 VBlank .. 0x60 Joypad
	c.bus.Write(bus.AddrIF, c.bus.Read(bus.AddrIF)&^(1<<bit)&0x1F)
	c.halted = false
	c.IME = false
	c.push16(c.PC)
	c.PC = 0x40 + uint16(bit)*8
	return 20
}

// Run executes up to budget opcodes and returns how many actually ran.
// It returns early only when dispatch hits an unhandled opcode, which
// is logged at Err and latches the fault flag.
func (c *CPU) Run(budget int) int {
	for n := 0; n < budget; n++ {
		c.Step()
		if c.fault {
			return n
		}
	}
	return budget
}
