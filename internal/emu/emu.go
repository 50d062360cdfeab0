// Package emu wires the cartridge, bus and CPU into a machine a host
// front-end can drive. Ownership is a straight chain: the machine owns
// the cart, the bus borrows the cart, the CPU borrows the bus.
package emu

import (
	"errors"
	"io"

	"github.com/retroware/gbcore/internal/bus"
	"github.com/retroware/gbcore/internal/cart"
	"github.com/retroware/gbcore/internal/cpu"
	"github.com/retroware/gbcore/internal/gblog"
)

// Cartridge install failures, one per cart.Result.
var (
	ErrBadSize         = errors.New("ROM size outside 32 KiB – 8 MiB")
	ErrInvalidChecksum = errors.New("ROM header checksum mismatch")
	ErrUnsupportedMBC  = errors.New("cartridge type not supported")
)

type Machine struct {
	cfg Config
	log *gblog.Logger

	cart *cart.Cart
	bus  *bus.Bus
	cpu  *cpu.CPU
}

func New(cfg Config, log *gblog.Logger) *Machine {
	if log == nil {
		log = gblog.Discard()
	}
	m := &Machine{cfg: cfg, log: log}
	m.cart = cart.New(log)
	m.bus = bus.New(m.cart, log)
	m.cpu = cpu.New(m.bus, log)
	return m
}

// LoadCartridge validates and installs a ROM image, then resets the
// CPU. On error the previously installed cartridge, if any, remains in
// place.
func (m *Machine) LoadCartridge(rom []byte) error {
	switch m.cart.Set(rom) {
	case cart.Ok:
	case cart.BadSize:
		return ErrBadSize
	case cart.InvalidChecksum:
		return ErrInvalidChecksum
	default:
		return ErrUnsupportedMBC
	}
	m.Reset()
	return nil
}

// Reset returns the CPU to its power-up state.
func (m *Machine) Reset() {
	if m.cfg.PostBoot {
		m.cpu.ResetNoBoot()
		return
	}
	m.cpu.Reset()
}

// Run executes up to budget opcodes and returns how many actually ran.
func (m *Machine) Run(budget int) int {
	if !m.cfg.Trace {
		return m.cpu.Run(budget)
	}
	n := 0
	for ; n < budget; n++ {
		pc := m.cpu.PC
		op := m.bus.Peek(pc)
		m.log.Logf(gblog.Trace, gblog.CPU, "%04X: %02X  AF=%04X BC=%04X DE=%04X HL=%04X SP=%04X",
			pc, op, m.cpu.AF(), m.cpu.BC(), m.cpu.DE(), m.cpu.HL(), m.cpu.SP)
		m.cpu.Step()
		if m.cpu.Faulted() {
			break
		}
	}
	return n
}

// Faulted reports whether the CPU stopped on an unhandled opcode.
func (m *Machine) Faulted() bool { return m.cpu.Faulted() }

// SetSerialWriter forwards serial port output to w.
func (m *Machine) SetSerialWriter(w io.Writer) { m.bus.SetSerialWriter(w) }

// CPU exposes the processor for front-ends and tests.
func (m *Machine) CPU() *cpu.CPU { return m.cpu }

// Bus exposes the memory bus for front-ends and tests.
func (m *Machine) Bus() *bus.Bus { return m.bus }

// Cart exposes the cartridge for front-ends and tests.
func (m *Machine) Cart() *cart.Cart { return m.cart }
