// Package bus routes 16-bit CPU addresses to the cartridge, work RAM,
// high RAM and the handful of IO registers the core owns. Reads of
// unmapped regions return the open-bus value 0xFF; writes there are
// discarded. Neither path can fail.
package bus

import (
	"io"

	"github.com/retroware/gbcore/internal/cart"
	"github.com/retroware/gbcore/internal/gblog"
)

// IO registers owned by the core.
const (
	AddrSB = 0xFF01 // serial transfer data
	AddrSC = 0xFF02 // serial transfer control
	AddrIF = 0xFF0F // interrupt flags
	AddrIE = 0xFFFF // interrupt enable
)

type Bus struct {
	cart *cart.Cart
	log  *gblog.Logger

	wram [0x2000]byte
	hram [0x7F]byte

	ifReg byte
	ieReg byte

	sb     byte
	sc     byte
	serial io.Writer

	// addresses already warned about; one Warn per unique address per
	// Bus lifetime
	warnedRead  map[uint16]struct{}
	warnedWrite map[uint16]struct{}
}

func New(c *cart.Cart, log *gblog.Logger) *Bus {
	if log == nil {
		log = gblog.Discard()
	}
	return &Bus{
		cart:        c,
		log:         log,
		warnedRead:  make(map[uint16]struct{}),
		warnedWrite: make(map[uint16]struct{}),
	}
}

// SetSerialWriter installs a sink for bytes sent through the serial
// port registers. Test ROMs report results this way.
func (b *Bus) SetSerialWriter(w io.Writer) { b.serial = w }

// Read returns the byte visible at addr.
func (b *Bus) Read(addr uint16) byte {
	v, mapped := b.read(addr)
	if !mapped {
		if _, seen := b.warnedRead[addr]; !seen {
			b.warnedRead[addr] = struct{}{}
			b.log.Logf(gblog.Warn, gblog.BUS, "read of unmapped address %#04x", addr)
		}
	}
	return v
}

// Peek is a side-effect-free Read for debuggers: it never logs above
// Trace and never advances mapper or IO state.
func (b *Bus) Peek(addr uint16) byte {
	v, _ := b.read(addr)
	return v
}

func (b *Bus) read(addr uint16) (value byte, mapped bool) {
	switch {
	case addr < 0x4000:
		return b.cart.Read(addr), true
	case addr < 0x8000:
		return b.cart.BankedRead(addr), true
	case addr >= 0xC000 && addr < 0xE000:
		return b.wram[addr-0xC000], true
	case addr >= 0xE000 && addr < 0xFE00: // echo RAM
		return b.wram[addr-0xE000], true
	case addr == AddrSB:
		return b.sb, true
	case addr == AddrSC:
		return b.sc | 0x7E, true
	case addr == AddrIF:
		return b.ifReg | 0xE0, true
	case addr >= 0xFF80 && addr < 0xFFFF:
		return b.hram[addr-0xFF80], true
	case addr == AddrIE:
		return b.ieReg, true
	default:
		return 0xFF, false
	}
}

// Write stores value at addr, or discards it when addr is unmapped.
// Writes in the ROM range reach the cartridge's mapper control and
// never modify ROM bytes.
func (b *Bus) Write(addr uint16, value byte) {
	switch {
	case addr < 0x8000:
		b.cart.Write(addr, value)
	case addr >= 0xC000 && addr < 0xE000:
		b.wram[addr-0xC000] = value
	case addr >= 0xE000 && addr < 0xFE00:
		b.wram[addr-0xE000] = value
	case addr == AddrSB:
		b.sb = value
	case addr == AddrSC:
		b.sc = value & 0x7F
		if value&0x80 != 0 && b.serial != nil {
			b.serial.Write([]byte{b.sb})
		}
	case addr == AddrIF:
		b.ifReg = value & 0x1F
	case addr >= 0xFF80 && addr < 0xFFFF:
		b.hram[addr-0xFF80] = value
	case addr == AddrIE:
		b.ieReg = value
	default:
		if _, seen := b.warnedWrite[addr]; !seen {
			b.warnedWrite[addr] = struct{}{}
			b.log.Logf(gblog.Warn, gblog.BUS, "write of %#02x to unmapped address %#04x dropped", value, addr)
		}
	}
}

// RequestInterrupt sets a bit in IF. Peripherals outside the core use
// it to signal the CPU.
func (b *Bus) RequestInterrupt(bit byte) {
	b.ifReg |= 1 << bit
}
