// Package cart implements the cartridge loader and the mapper (MBC)
// dispatch for the banked ROM window.
package cart

import (
	"github.com/cespare/xxhash"

	"github.com/retroware/gbcore/internal/gblog"
)

// ROM image size bounds accepted by Set.
const (
	MinROMSize = 32 * 1024
	MaxROMSize = 8 * 1024 * 1024
)

const bankSize = 0x4000

// Mapper selects the banking scheme decoded from the cartridge-type
// header byte.
type Mapper byte

const (
	ROMOnly Mapper = iota
	MBC1
)

func (m Mapper) String() string {
	switch m {
	case ROMOnly:
		return "ROM ONLY"
	case MBC1:
		return "MBC1"
	}
	return "unsupported"
}

// Result reports the outcome of installing a ROM image.
type Result int

const (
	Ok Result = iota
	BadSize
	InvalidChecksum
	UnsupportedMBC
)

func (r Result) String() string {
	switch r {
	case Ok:
		return "ok"
	case BadSize:
		return "bad size"
	case InvalidChecksum:
		return "invalid header checksum"
	case UnsupportedMBC:
		return "unsupported MBC"
	}
	return "unknown result"
}

// Cart owns a validated ROM image and serves banked reads for the
// 0x4000–0x7FFF window. The byte buffer is borrowed from the host and
// never written.
type Cart struct {
	data    []byte
	mapper  Mapper
	romBank byte
	header  *Header

	log *gblog.Logger
}

// New returns an empty Cart. Reads before a successful Set return
// 0xFF, the open-bus value of a missing cartridge.
func New(log *gblog.Logger) *Cart {
	if log == nil {
		log = gblog.Discard()
	}
	return &Cart{log: log}
}

// Set validates and installs a ROM image. On any non-Ok result the
// Cart is left exactly as it was and data is not retained.
func (c *Cart) Set(data []byte) Result {
	if len(data) < MinROMSize || len(data) > MaxROMSize {
		c.log.Logf(gblog.Err, gblog.CART, "rejected ROM: size %d outside [%d, %d]", len(data), MinROMSize, MaxROMSize)
		return BadSize
	}
	if !ChecksumOK(data) {
		c.log.Logf(gblog.Err, gblog.CART, "rejected ROM: header checksum mismatch")
		return InvalidChecksum
	}

	var mapper Mapper
	switch data[0x0147] {
	case 0x00:
		mapper = ROMOnly
	case 0x01:
		mapper = MBC1
	default:
		c.log.Logf(gblog.Err, gblog.CART, "rejected ROM: cartridge type %#02x not supported", data[0x0147])
		return UnsupportedMBC
	}

	h, err := ParseHeader(data)
	if err != nil {
		// unreachable once the size check passed, but keep Set atomic
		c.log.Logf(gblog.Err, gblog.CART, "rejected ROM: %v", err)
		return BadSize
	}

	c.data = data
	c.mapper = mapper
	c.romBank = 1
	c.header = h
	c.log.Logf(gblog.Info, gblog.CART, "installed %q (%s, %d KiB, v%d, xxh64 %016x)",
		h.Title, mapper, len(data)/1024, h.ROMVersion, xxhash.Sum64(data))
	return Ok
}

// Installed reports whether a ROM image has been accepted.
func (c *Cart) Installed() bool { return c.data != nil }

// Header returns the parsed header of the installed image, or nil.
func (c *Cart) Header() *Header { return c.header }

// ROMBank returns the currently selected high bank.
func (c *Cart) ROMBank() byte { return c.romBank }

// Read serves the whole cartridge ROM space 0x0000–0x7FFF: the fixed
// bank 0 below 0x4000 and the switchable bank above it.
func (c *Cart) Read(addr uint16) byte {
	if c.data == nil {
		return 0xFF
	}
	if addr < 0x4000 {
		return c.data[addr]
	}
	return c.BankedRead(addr)
}

// BankedRead serves the switchable window. addr must be in
// [0x4000, 0x7FFF].
func (c *Cart) BankedRead(addr uint16) byte {
	if c.data == nil {
		return 0xFF
	}
	switch c.mapper {
	case MBC1:
		off := int(c.romBank)*bankSize + int(addr-0x4000)
		if off >= len(c.data) {
			return 0xFF
		}
		return c.data[off]
	default:
		// ROM only: the upper window is always bank 1
		return c.data[addr]
	}
}

// Write handles mapper control writes in the ROM address range. The
// ROM bytes themselves are never modified.
func (c *Cart) Write(addr uint16, value byte) {
	if c.mapper != MBC1 {
		return
	}
	if addr >= 0x2000 && addr < 0x4000 {
		// low 5 bits of the ROM bank number; bank 0 maps to 1
		bank := value & 0x1F
		if bank == 0 {
			bank = 1
		}
		c.romBank = bank
		c.log.Logf(gblog.Trace, gblog.CART, "ROM bank -> %d", bank)
	}
}
